package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/fleetsheet/internal/models"
)

var byName = options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

// MongoEmployeeCollection implements EmployeeCollection for MongoDB.
type MongoEmployeeCollection struct {
	Collection *mongo.Collection
}

func (c *MongoEmployeeCollection) InsertEmployee(ctx context.Context, employee models.Employee) error {
	return insertOne(ctx, c.Collection, employee, "employee")
}

func (c *MongoEmployeeCollection) FindEmployees(ctx context.Context, tenantID string) ([]models.Employee, error) {
	return findAll[models.Employee](ctx, c.Collection, bson.M{"tenant_id": tenantID}, byName, "employee")
}

func (c *MongoEmployeeCollection) FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error) {
	return findByID[models.Employee](ctx, c.Collection, id, "employee")
}

func (c *MongoEmployeeCollection) UpdateEmployee(ctx context.Context, id string, employee models.Employee) error {
	return replaceByID(ctx, c.Collection, id, employee, "employee")
}

// MongoClientCollection implements ClientCollection for MongoDB.
type MongoClientCollection struct {
	Collection *mongo.Collection
}

func (c *MongoClientCollection) InsertClient(ctx context.Context, client models.Client) error {
	return insertOne(ctx, c.Collection, client, "client")
}

func (c *MongoClientCollection) FindClients(ctx context.Context, tenantID string) ([]models.Client, error) {
	return findAll[models.Client](ctx, c.Collection, bson.M{"tenant_id": tenantID}, byName, "client")
}

func (c *MongoClientCollection) FindClientByID(ctx context.Context, id string) (*models.Client, error) {
	return findByID[models.Client](ctx, c.Collection, id, "client")
}

// MongoProjectCollection implements ProjectCollection for MongoDB.
type MongoProjectCollection struct {
	Collection *mongo.Collection
}

func (c *MongoProjectCollection) InsertProject(ctx context.Context, project models.Project) error {
	return insertOne(ctx, c.Collection, project, "project")
}

// FindProjects lists the projects of a tenant, optionally of one client.
func (c *MongoProjectCollection) FindProjects(ctx context.Context, tenantID, clientID string) ([]models.Project, error) {
	q := bson.M{"tenant_id": tenantID}
	if clientID != "" {
		q["client_id"] = clientID
	}
	return findAll[models.Project](ctx, c.Collection, q, byName, "project")
}

func (c *MongoProjectCollection) FindProjectByID(ctx context.Context, id string) (*models.Project, error) {
	return findByID[models.Project](ctx, c.Collection, id, "project")
}
