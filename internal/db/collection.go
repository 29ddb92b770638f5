package db

import (
	"context"

	"github.com/ukydev/fleetsheet/internal/models"
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehicles(ctx context.Context, tenantID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// ReviewCollection defines the interface for vehicle review data operations.
type ReviewCollection interface {
	InsertReview(ctx context.Context, review models.VehicleReview) error
	FindReviewByID(ctx context.Context, id string) (*models.VehicleReview, error)
	FindReviews(ctx context.Context, filter models.ReviewFilter) ([]models.VehicleReview, error)
	ReplaceReview(ctx context.Context, id string, review models.VehicleReview) error
	DeleteReview(ctx context.Context, id string) error
	CountReviews(ctx context.Context, tenantID, vehicleID string) (int64, error)
}

// TimesheetCollection defines the interface for timesheet data operations.
type TimesheetCollection interface {
	InsertTimesheet(ctx context.Context, entry models.TimesheetEntry) error
	FindTimesheetByID(ctx context.Context, id string) (*models.TimesheetEntry, error)
	FindTimesheets(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetEntry, error)
	ReplaceTimesheet(ctx context.Context, id string, entry models.TimesheetEntry) error
	DeleteTimesheet(ctx context.Context, id string) error
}

// EmployeeCollection defines the interface for employee data operations.
type EmployeeCollection interface {
	InsertEmployee(ctx context.Context, employee models.Employee) error
	FindEmployees(ctx context.Context, tenantID string) ([]models.Employee, error)
	FindEmployeeByID(ctx context.Context, id string) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, employee models.Employee) error
}

// ClientCollection defines the interface for client data operations.
type ClientCollection interface {
	InsertClient(ctx context.Context, client models.Client) error
	FindClients(ctx context.Context, tenantID string) ([]models.Client, error)
	FindClientByID(ctx context.Context, id string) (*models.Client, error)
}

// ProjectCollection defines the interface for project data operations.
type ProjectCollection interface {
	InsertProject(ctx context.Context, project models.Project) error
	FindProjects(ctx context.Context, tenantID, clientID string) ([]models.Project, error)
	FindProjectByID(ctx context.Context, id string) (*models.Project, error)
}
