package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeaveType classifies a timesheet entry. LeaveNone marks a worked day.
type LeaveType string

const (
	LeaveNone          LeaveType = "None"
	LeaveAnnual        LeaveType = "Annual"
	LeavePublicHoliday LeaveType = "Public Holiday"
	LeavePaid          LeaveType = "Paid"
	LeaveSick          LeaveType = "Sick"
	LeaveUnpaid        LeaveType = "Unpaid"
)

// IsValidLeaveType checks if a leave type is one of the known kinds.
func IsValidLeaveType(lt LeaveType) bool {
	switch lt {
	case LeaveNone, LeaveAnnual, LeavePublicHoliday, LeavePaid, LeaveSick, LeaveUnpaid:
		return true
	default:
		return false
	}
}

// TimesheetEntry is one day of work or leave for an employee.
// StartTime and EndTime are UTC HH:MM and are nil for leave entries.
type TimesheetEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID      string             `bson:"tenant_id" json:"tenant_id"`
	EmployeeID    string             `bson:"employee_id" json:"employee_id"`
	ClientID      *string            `bson:"client_id" json:"client_id"`
	ProjectID     *string            `bson:"project_id" json:"project_id"`
	Date          string             `bson:"date" json:"date"` // YYYY-MM-DD
	StartTime     *string            `bson:"start_time" json:"start_time"`
	EndTime       *string            `bson:"end_time" json:"end_time"`
	LunchBreak    string             `bson:"lunch_break" json:"lunch_break"` // "Yes" or "No"
	LunchDuration string             `bson:"lunch_duration,omitempty" json:"lunch_duration,omitempty"`
	LeaveType     LeaveType          `bson:"leave_type" json:"leave_type"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	HourlyWage    float64            `bson:"hourly_wage" json:"hourly_wage"`
	TotalHours    float64            `bson:"total_hours" json:"total_hours"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// TimesheetFilter selects entries of a tenant. Empty fields do not filter;
// From and To are inclusive YYYY-MM-DD bounds.
type TimesheetFilter struct {
	TenantID   string
	EmployeeID string
	From       string
	To         string
}
