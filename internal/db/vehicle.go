package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleetsheet/internal/models"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	return insertOne(ctx, c.Collection, vehicle, "vehicle")
}

// FindVehicles lists the vehicles of a tenant ordered by name.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return findAll[models.Vehicle](ctx, c.Collection, bson.M{"tenant_id": tenantID}, opts, "vehicle")
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return findByID[models.Vehicle](ctx, c.Collection, id, "vehicle")
}

// UpdateVehicle replaces a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	return replaceByID(ctx, c.Collection, id, vehicle, "vehicle")
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	return deleteByID(ctx, c.Collection, id, "vehicle")
}
