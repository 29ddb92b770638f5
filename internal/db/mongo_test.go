package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/models"
)

func TestConnectMongo_BadURI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestStoreErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
		msg  string
	}{
		{"no documents", mongo.ErrNoDocuments, apperr.KindNotFound, "vehicle not found"},
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, apperr.KindValidation, "vehicle already exists"},
		{"driver failure", errors.New("connection reset"), apperr.KindPersistence, "vehicle storage failed"},
		{"already classified", apperr.NotFound("gone"), apperr.KindNotFound, "gone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storeErr(tt.err, "vehicle")
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.msg, apperr.Message(err))
		})
	}
	assert.NoError(t, storeErr(nil, "vehicle"))
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, err := objectID(oid.Hex(), "review")
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = objectID("not-hex", "review")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "review not found", apperr.Message(err))
}

func TestReviewQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter models.ReviewFilter
		want   bson.M
	}{
		{"tenant only", models.ReviewFilter{TenantID: "t1"}, bson.M{"tenant_id": "t1"}},
		{"vehicle", models.ReviewFilter{TenantID: "t1", VehicleID: "v1"}, bson.M{"tenant_id": "t1", "vehicle_id": "v1"}},
		{"range", models.ReviewFilter{TenantID: "t1", VehicleID: "v1", From: "2024-01-01", To: "2024-01-31"},
			bson.M{"tenant_id": "t1", "vehicle_id": "v1", "date_reviewed": bson.M{"$gte": "2024-01-01", "$lte": "2024-01-31"}}},
		{"open end", models.ReviewFilter{TenantID: "t1", From: "2024-01-01"},
			bson.M{"tenant_id": "t1", "date_reviewed": bson.M{"$gte": "2024-01-01"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reviewQuery(tt.filter))
		})
	}
}

func TestTimesheetQuery(t *testing.T) {
	got := timesheetQuery(models.TimesheetFilter{TenantID: "t1", EmployeeID: "e1", To: "2024-03-31"})
	assert.Equal(t, bson.M{"tenant_id": "t1", "employee_id": "e1", "date": bson.M{"$lte": "2024-03-31"}}, got)

	got = timesheetQuery(models.TimesheetFilter{TenantID: "t1"})
	assert.Equal(t, bson.M{"tenant_id": "t1"}, got)
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()

	err := (&MongoVehicleCollection{}).InsertVehicle(ctx, models.Vehicle{})
	assert.True(t, apperr.Is(err, apperr.KindPersistence))

	_, err = (&MongoReviewCollection{}).FindReviews(ctx, models.ReviewFilter{TenantID: "t1"})
	assert.True(t, apperr.Is(err, apperr.KindPersistence))

	_, err = (&MongoReviewCollection{}).CountReviews(ctx, "t1", "v1")
	assert.True(t, apperr.Is(err, apperr.KindPersistence))

	err = (&MongoTimesheetCollection{}).DeleteTimesheet(ctx, primitive.NewObjectID().Hex())
	assert.True(t, apperr.Is(err, apperr.KindPersistence))

	_, err = (&MongoEmployeeCollection{}).FindEmployeeByID(ctx, "bad")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// integrationDB returns a scratch database, or skips without MONGO_URI.
func integrationDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	database := client.Database("test_fleetsheet")
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	require.NoError(t, database.Drop(context.Background()))
	require.NoError(t, EnsureIndexes(context.Background(), database))
	return database
}

func TestVehicleAndReviews_Integration(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	colls := NewCollections(database)

	vehicle := models.Vehicle{ID: primitive.NewObjectID(), TenantID: "t1", Name: "Tractor 1", Hours: 120}
	require.NoError(t, colls.Vehicles.InsertVehicle(ctx, vehicle))

	got, err := colls.Vehicles.FindVehicleByID(ctx, vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Tractor 1", got.Name)

	for _, date := range []string{"2024-01-15", "2024-01-01", "2024-02-01"} {
		require.NoError(t, colls.Reviews.InsertReview(ctx, models.VehicleReview{
			ID: primitive.NewObjectID(), TenantID: "t1", VehicleID: vehicle.ID.Hex(), EmployeeID: "e1", DateReviewed: date,
		}))
	}

	reviews, err := colls.Reviews.FindReviews(ctx, models.ReviewFilter{
		TenantID: "t1", VehicleID: vehicle.ID.Hex(), From: "2024-01-01", To: "2024-01-31",
	})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "2024-01-01", reviews[0].DateReviewed)
	assert.Equal(t, "2024-01-15", reviews[1].DateReviewed)

	n, err := colls.Reviews.CountReviews(ctx, "t1", vehicle.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, colls.Vehicles.DeleteVehicle(ctx, vehicle.ID.Hex()))
	_, err = colls.Vehicles.FindVehicleByID(ctx, vehicle.ID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = colls.Vehicles.DeleteVehicle(ctx, vehicle.ID.Hex())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestTimesheets_Integration(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	coll := NewCollections(database).Timesheets

	start, end := "08:00", "16:30"
	entry := models.TimesheetEntry{
		ID: primitive.NewObjectID(), TenantID: "t1", EmployeeID: "e1", Date: "2024-03-04",
		StartTime: &start, EndTime: &end, LunchBreak: "No", LeaveType: models.LeaveNone, TotalHours: 8.5,
	}
	require.NoError(t, coll.InsertTimesheet(ctx, entry))
	// duplicates for the same employee and date are accepted
	entry.ID = primitive.NewObjectID()
	require.NoError(t, coll.InsertTimesheet(ctx, entry))

	entries, err := coll.FindTimesheets(ctx, models.TimesheetFilter{TenantID: "t1", EmployeeID: "e1"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entry.TotalHours = 7
	require.NoError(t, coll.ReplaceTimesheet(ctx, entry.ID.Hex(), entry))
	got, err := coll.FindTimesheetByID(ctx, entry.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.TotalHours)

	err = coll.ReplaceTimesheet(ctx, primitive.NewObjectID().Hex(), entry)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
