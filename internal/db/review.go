package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleetsheet/internal/models"
)

// MongoReviewCollection implements ReviewCollection for MongoDB.
type MongoReviewCollection struct {
	Collection *mongo.Collection
}

func (c *MongoReviewCollection) InsertReview(ctx context.Context, review models.VehicleReview) error {
	return insertOne(ctx, c.Collection, review, "review")
}

func (c *MongoReviewCollection) FindReviewByID(ctx context.Context, id string) (*models.VehicleReview, error) {
	return findByID[models.VehicleReview](ctx, c.Collection, id, "review")
}

// FindReviews returns matching reviews, oldest first.
func (c *MongoReviewCollection) FindReviews(ctx context.Context, filter models.ReviewFilter) ([]models.VehicleReview, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_reviewed", Value: 1}, {Key: "created_at", Value: 1}})
	return findAll[models.VehicleReview](ctx, c.Collection, reviewQuery(filter), opts, "review")
}

func (c *MongoReviewCollection) ReplaceReview(ctx context.Context, id string, review models.VehicleReview) error {
	return replaceByID(ctx, c.Collection, id, review, "review")
}

func (c *MongoReviewCollection) DeleteReview(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id, "review")
}

// CountReviews counts the reviews referencing a vehicle.
func (c *MongoReviewCollection) CountReviews(ctx context.Context, tenantID, vehicleID string) (int64, error) {
	if c.Collection == nil {
		return 0, storeErr(errNilCollection, "review")
	}
	n, err := c.Collection.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "vehicle_id": vehicleID})
	return n, storeErr(err, "review")
}

func reviewQuery(f models.ReviewFilter) bson.M {
	q := bson.M{"tenant_id": f.TenantID}
	if f.VehicleID != "" {
		q["vehicle_id"] = f.VehicleID
	}
	dateRange(q, "date_reviewed", f.From, f.To)
	return q
}
