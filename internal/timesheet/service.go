// Package timesheet turns raw timesheet submissions into persisted entries
// with a canonical TotalHours and a snapshot of the employee's wage.
package timesheet

import (
	"context"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/events"
	"github.com/ukydev/fleetsheet/internal/models"
)

// Store persists timesheet entries.
type Store interface {
	InsertTimesheet(ctx context.Context, entry models.TimesheetEntry) error
	FindTimesheetByID(ctx context.Context, id string) (*models.TimesheetEntry, error)
	FindTimesheets(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetEntry, error)
	ReplaceTimesheet(ctx context.Context, id string, entry models.TimesheetEntry) error
	DeleteTimesheet(ctx context.Context, id string) error
}

// EmployeeLookup resolves an employee by id.
type EmployeeLookup func(ctx context.Context, id string) (*models.Employee, error)

// ProjectLookup resolves a project by id.
type ProjectLookup func(ctx context.Context, id string) (*models.Project, error)

// Service creates, edits and deletes timesheet entries on behalf of a caller.
type Service struct {
	store         Store
	employees     EmployeeLookup
	projects      ProjectLookup
	publisher     events.Publisher
	defaultOffset int
	now           func() time.Time
}

// Options configures a Service.
type Options struct {
	// DefaultUTCOffsetMinutes applies when a submission carries no offset.
	DefaultUTCOffsetMinutes int
	Publisher               events.Publisher
}

// NewService creates a timesheet service.
func NewService(store Store, employees EmployeeLookup, projects ProjectLookup, opts Options) *Service {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		store:         store,
		employees:     employees,
		projects:      projects,
		publisher:     publisher,
		defaultOffset: opts.DefaultUTCOffsetMinutes,
		now:           time.Now,
	}
}

func (s *Service) offset(in Input) int {
	if in.UTCOffsetMinutes != nil {
		return *in.UTCOffsetMinutes
	}
	return s.defaultOffset
}

// Create validates and stores a new entry.
func (s *Service) Create(ctx context.Context, caller models.Claims, in Input) (*models.TimesheetEntry, error) {
	if caller.TenantID == "" {
		return nil, apperr.Unauthorized("caller identity required")
	}
	entry, err := Normalize(in, s.offset(in))
	if err != nil {
		return nil, err
	}
	if !caller.IsEmployer() && caller.EmployeeID != entry.EmployeeID {
		return nil, apperr.Forbidden("employees may only submit their own timesheets")
	}

	employee, err := s.employees(ctx, entry.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee.TenantID != caller.TenantID {
		return nil, apperr.Forbidden("employee belongs to another employer")
	}
	if err := s.checkProject(ctx, caller, entry); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry.ID = primitive.NewObjectID()
	entry.TenantID = caller.TenantID
	entry.HourlyWage = employee.HourlyWage
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.store.InsertTimesheet(ctx, *entry); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"timesheet_id": entry.ID.Hex(),
		"employee_id":  entry.EmployeeID,
		"date":         entry.Date,
		"leave_type":   entry.LeaveType,
		"total_hours":  entry.TotalHours,
	}).Info("Timesheet entry created")
	events.Emit(ctx, s.publisher, events.New(events.TimesheetCreated, entry.TenantID, entry.ID.Hex(), eventData(entry)))
	return entry, nil
}

// Update replaces an entry. Employee and date are fixed at creation; the wage
// snapshot taken at creation is kept.
func (s *Service) Update(ctx context.Context, caller models.Claims, id string, in Input) (*models.TimesheetEntry, error) {
	existing, err := s.authorizedEntry(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if in.EmployeeID != "" && in.EmployeeID != existing.EmployeeID {
		return nil, apperr.Validation("employee cannot be changed")
	}
	if in.Date != "" && in.Date != existing.Date {
		return nil, apperr.Validation("date cannot be changed")
	}
	in.EmployeeID = existing.EmployeeID
	in.Date = existing.Date

	entry, err := Normalize(in, s.offset(in))
	if err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, caller, entry); err != nil {
		return nil, err
	}

	entry.ID = existing.ID
	entry.TenantID = existing.TenantID
	entry.HourlyWage = existing.HourlyWage
	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = s.now().UTC()

	if err := s.store.ReplaceTimesheet(ctx, id, *entry); err != nil {
		return nil, err
	}
	events.Emit(ctx, s.publisher, events.New(events.TimesheetUpdated, entry.TenantID, id, eventData(entry)))
	return entry, nil
}

// Delete removes an entry. Only employers may delete.
func (s *Service) Delete(ctx context.Context, caller models.Claims, id string) error {
	if !caller.IsEmployer() {
		return apperr.Forbidden("only employers may delete timesheets")
	}
	existing, err := s.authorizedEntry(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTimesheet(ctx, id); err != nil {
		return err
	}
	log.WithFields(log.Fields{"timesheet_id": id, "employee_id": existing.EmployeeID}).Info("Timesheet entry deleted")
	events.Emit(ctx, s.publisher, events.New(events.TimesheetDeleted, existing.TenantID, id, nil))
	return nil
}

// Get returns one entry visible to the caller.
func (s *Service) Get(ctx context.Context, caller models.Claims, id string) (*models.TimesheetEntry, error) {
	return s.authorizedEntry(ctx, caller, id)
}

// List returns the caller's tenant entries matching filter. Employees only see their own.
func (s *Service) List(ctx context.Context, caller models.Claims, filter models.TimesheetFilter) ([]models.TimesheetEntry, error) {
	if caller.TenantID == "" {
		return nil, apperr.Unauthorized("caller identity required")
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return nil, apperr.Validation("start date must not be after end date")
	}
	filter.TenantID = caller.TenantID
	if !caller.IsEmployer() {
		filter.EmployeeID = caller.EmployeeID
	}
	return s.store.FindTimesheets(ctx, filter)
}

func (s *Service) authorizedEntry(ctx context.Context, caller models.Claims, id string) (*models.TimesheetEntry, error) {
	if caller.TenantID == "" {
		return nil, apperr.Unauthorized("caller identity required")
	}
	entry, err := s.store.FindTimesheetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.TenantID != caller.TenantID {
		return nil, apperr.Forbidden("timesheet belongs to another employer")
	}
	if !caller.IsEmployer() && entry.EmployeeID != caller.EmployeeID {
		return nil, apperr.Forbidden("employees may only access their own timesheets")
	}
	return entry, nil
}

func (s *Service) checkProject(ctx context.Context, caller models.Claims, entry *models.TimesheetEntry) error {
	if entry.ProjectID == nil || s.projects == nil {
		return nil
	}
	project, err := s.projects(ctx, *entry.ProjectID)
	if err != nil {
		return err
	}
	if project.TenantID != caller.TenantID {
		return apperr.Forbidden("project belongs to another employer")
	}
	if entry.ClientID != nil && project.ClientID != *entry.ClientID {
		return apperr.Validation("project does not belong to client")
	}
	return nil
}

func eventData(entry *models.TimesheetEntry) map[string]interface{} {
	return map[string]interface{}{
		"employee_id": entry.EmployeeID,
		"date":        entry.Date,
		"leave_type":  entry.LeaveType,
		"total_hours": entry.TotalHours,
	}
}

// Summary totals a set of entries.
type Summary struct {
	Entries    int     `json:"entries"`
	TotalHours float64 `json:"total_hours"`
	WageCost   float64 `json:"wage_cost"`
	LeaveDays  int     `json:"leave_days"`
}

// Summarize totals hours and wage cost using each entry's own wage snapshot.
func Summarize(entries []models.TimesheetEntry) Summary {
	var sum Summary
	for _, e := range entries {
		sum.Entries++
		if e.LeaveType != models.LeaveNone {
			sum.LeaveDays++
		}
		sum.TotalHours += e.TotalHours
		sum.WageCost += e.TotalHours * e.HourlyWage
	}
	sum.TotalHours = math.Round(sum.TotalHours*100) / 100
	sum.WageCost = math.Round(sum.WageCost*100) / 100
	return sum
}
