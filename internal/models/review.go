package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VehicleReview is an inspection of a vehicle by an employee.
type VehicleReview struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID       string             `bson:"tenant_id" json:"tenant_id"`
	VehicleID      string             `bson:"vehicle_id" json:"vehicle_id"`
	EmployeeID     string             `bson:"employee_id" json:"employee_id"`
	DateReviewed   string             `bson:"date_reviewed" json:"date_reviewed"` // YYYY-MM-DD
	OilChecked     bool               `bson:"oil_checked" json:"oil_checked"`
	VehicleChecked bool               `bson:"vehicle_checked" json:"vehicle_checked"`
	VehicleBroken  bool               `bson:"vehicle_broken" json:"vehicle_broken"`
	Hours          *float64           `bson:"hours,omitempty" json:"hours,omitempty"`
	Notes          string             `bson:"notes" json:"notes"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// ReviewFilter selects reviews of a vehicle with DateReviewed in [From, To].
type ReviewFilter struct {
	TenantID  string
	VehicleID string
	From      string
	To        string
}
