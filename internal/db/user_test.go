package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/models"
)

func TestMongoUserCollection_InsertUser(t *testing.T) {
	database := integrationDB(t)
	collection := database.Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	id := primitive.NewObjectID()
	user := models.User{
		ID:           id,
		TenantID:     id.Hex(),
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleEmployer,
	}
	require.NoError(t, userCollection.InsertUser(context.Background(), user))

	var found models.User
	err := collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&found)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)
	assert.Equal(t, models.RoleEmployer, found.Role)
	assert.Equal(t, id.Hex(), found.TenantID)
	assert.True(t, found.IsActive)
	assert.NotZero(t, found.CreatedAt)

	user.ID = primitive.NewObjectID()
	err = userCollection.InsertUser(context.Background(), user)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "duplicate username must be rejected")
}

func TestMongoUserCollection_Lookups(t *testing.T) {
	database := integrationDB(t)
	userCollection := &MongoUserCollection{Collection: database.Collection(UsersCollection)}
	ctx := context.Background()

	id := primitive.NewObjectID()
	require.NoError(t, userCollection.InsertUser(ctx, models.User{
		ID: id, TenantID: "t1", EmployeeID: "e1", Username: "ana", Email: "ana@example.com", Role: models.RoleEmployee,
	}))

	byID, err := userCollection.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.Equal(t, "e1", byID.EmployeeID)

	byName, err := userCollection.FindUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	byEmail, err := userCollection.FindUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	require.NoError(t, userCollection.UpdateLastLogin(ctx, id.Hex()))
	byID, err = userCollection.FindUserByID(ctx, id.Hex())
	require.NoError(t, err)
	assert.NotNil(t, byID.LastLogin)

	_, err = userCollection.FindUserByUsername(ctx, "nobody")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMongoUserCollection_NilCollection(t *testing.T) {
	err := (&MongoUserCollection{}).InsertUser(context.Background(), models.User{})
	assert.True(t, apperr.Is(err, apperr.KindPersistence))

	_, err = (&MongoUserCollection{}).FindUserByID(context.Background(), "zz")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
