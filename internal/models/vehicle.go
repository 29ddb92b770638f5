package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     string             `bson:"tenant_id" json:"tenant_id"`
	Name         string             `bson:"name" json:"name"`
	Registration string             `bson:"registration" json:"registration"`
	RegoExpiry   string             `bson:"rego_expiry,omitempty" json:"rego_expiry,omitempty"` // YYYY-MM-DD
	WOFExpiry    string             `bson:"wof_expiry,omitempty" json:"wof_expiry,omitempty"`   // YYYY-MM-DD
	Hours        float64            `bson:"hours" json:"hours"`                                 // hour-meter reading
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
