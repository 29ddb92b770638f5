package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleetsheet/internal/models"
)

// MongoTimesheetCollection implements TimesheetCollection for MongoDB.
type MongoTimesheetCollection struct {
	Collection *mongo.Collection
}

func (c *MongoTimesheetCollection) InsertTimesheet(ctx context.Context, entry models.TimesheetEntry) error {
	return insertOne(ctx, c.Collection, entry, "timesheet entry")
}

func (c *MongoTimesheetCollection) FindTimesheetByID(ctx context.Context, id string) (*models.TimesheetEntry, error) {
	return findByID[models.TimesheetEntry](ctx, c.Collection, id, "timesheet entry")
}

// FindTimesheets returns matching entries ordered by date then start time.
func (c *MongoTimesheetCollection) FindTimesheets(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}})
	return findAll[models.TimesheetEntry](ctx, c.Collection, timesheetQuery(filter), opts, "timesheet entry")
}

func (c *MongoTimesheetCollection) ReplaceTimesheet(ctx context.Context, id string, entry models.TimesheetEntry) error {
	return replaceByID(ctx, c.Collection, id, entry, "timesheet entry")
}

func (c *MongoTimesheetCollection) DeleteTimesheet(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id, "timesheet entry")
}

func timesheetQuery(f models.TimesheetFilter) bson.M {
	q := bson.M{"tenant_id": f.TenantID}
	if f.EmployeeID != "" {
		q["employee_id"] = f.EmployeeID
	}
	dateRange(q, "date", f.From, f.To)
	return q
}
