// Package review captures vehicle inspections.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/events"
	"github.com/ukydev/fleetsheet/internal/models"
)

// Store persists reviews.
type Store interface {
	InsertReview(ctx context.Context, review models.VehicleReview) error
	FindReviewByID(ctx context.Context, id string) (*models.VehicleReview, error)
	FindReviews(ctx context.Context, filter models.ReviewFilter) ([]models.VehicleReview, error)
	ReplaceReview(ctx context.Context, id string, review models.VehicleReview) error
	DeleteReview(ctx context.Context, id string) error
}

// VehicleLookup resolves a vehicle by id. It is read-only.
type VehicleLookup func(ctx context.Context, id string) (*models.Vehicle, error)

// EmployeeLookup resolves an employee by id.
type EmployeeLookup func(ctx context.Context, id string) (*models.Employee, error)

// Input is a review submission.
type Input struct {
	VehicleID      string   `json:"vehicle_id"`
	EmployeeID     string   `json:"employee_id"`
	DateReviewed   string   `json:"date_reviewed"`
	OilChecked     bool     `json:"oil_checked"`
	VehicleChecked bool     `json:"vehicle_checked"`
	VehicleBroken  bool     `json:"vehicle_broken"`
	Hours          *float64 `json:"-"`
	Notes          string   `json:"notes"`
}

// ParseHours decodes a JSON hours value. null and "" mean absent; numbers
// and numeric strings are accepted.
func ParseHours(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Validation("hours must be a number")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperr.Validation("hours must be a number")
	}
	return &n, nil
}

func validate(in Input) error {
	if strings.TrimSpace(in.VehicleID) == "" || strings.TrimSpace(in.EmployeeID) == "" || strings.TrimSpace(in.DateReviewed) == "" {
		return apperr.Validation("vehicle, employee and date reviewed required")
	}
	if _, err := models.ParseDate(in.DateReviewed); err != nil {
		return apperr.Validation("date reviewed must be YYYY-MM-DD")
	}
	if in.Hours != nil {
		h := *in.Hours
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return apperr.Validation("hours must be a number")
		}
		if h < 0 {
			return apperr.Validation("hours must not be negative")
		}
	}
	return nil
}

// Service creates, edits and deletes reviews on behalf of a caller.
type Service struct {
	store     Store
	vehicles  VehicleLookup
	employees EmployeeLookup
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a review service.
func NewService(store Store, vehicles VehicleLookup, employees EmployeeLookup, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		store:     store,
		vehicles:  vehicles,
		employees: employees,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create stores a new review. When hours is omitted it defaults to the
// vehicle's current hour-meter reading.
func (s *Service) Create(ctx context.Context, caller models.Claims, in Input) (*models.VehicleReview, error) {
	if caller.TenantID == "" {
		return nil, apperr.Unauthorized("caller identity required")
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	vehicle, err := s.tenantVehicle(ctx, caller, in.VehicleID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEmployee(ctx, caller, in.EmployeeID); err != nil {
		return nil, err
	}

	hours := in.Hours
	if hours == nil {
		h := vehicle.Hours
		hours = &h
	}

	now := s.now().UTC()
	r := models.VehicleReview{
		ID:             primitive.NewObjectID(),
		TenantID:       caller.TenantID,
		VehicleID:      in.VehicleID,
		EmployeeID:     in.EmployeeID,
		DateReviewed:   in.DateReviewed,
		OilChecked:     in.OilChecked,
		VehicleChecked: in.VehicleChecked,
		VehicleBroken:  in.VehicleBroken,
		Hours:          hours,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertReview(ctx, r); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"review_id":  r.ID.Hex(),
		"vehicle_id": r.VehicleID,
		"broken":     r.VehicleBroken,
	}).Info("Vehicle review created")
	s.emit(ctx, events.ReviewCreated, &r)
	return &r, nil
}

// Update replaces a review. The vehicle a review belongs to cannot change.
func (s *Service) Update(ctx context.Context, caller models.Claims, id string, in Input) (*models.VehicleReview, error) {
	existing, err := s.authorizedReview(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.VehicleID != "" && in.VehicleID != existing.VehicleID {
		return nil, apperr.Validation("vehicle cannot be changed")
	}
	in.VehicleID = existing.VehicleID
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := s.checkEmployee(ctx, caller, in.EmployeeID); err != nil {
		return nil, err
	}

	r := models.VehicleReview{
		ID:             existing.ID,
		TenantID:       existing.TenantID,
		VehicleID:      existing.VehicleID,
		EmployeeID:     in.EmployeeID,
		DateReviewed:   in.DateReviewed,
		OilChecked:     in.OilChecked,
		VehicleChecked: in.VehicleChecked,
		VehicleBroken:  in.VehicleBroken,
		Hours:          in.Hours,
		Notes:          strings.TrimSpace(in.Notes),
		CreatedAt:      existing.CreatedAt,
		UpdatedAt:      s.now().UTC(),
	}
	if err := s.store.ReplaceReview(ctx, id, r); err != nil {
		return nil, err
	}
	s.emit(ctx, events.ReviewUpdated, &r)
	return &r, nil
}

// Delete removes a review. Only employers may delete. The review.deleted
// event is the signal for any read-through layer to drop what it holds.
func (s *Service) Delete(ctx context.Context, caller models.Claims, id string) error {
	if !caller.IsEmployer() {
		return apperr.Forbidden("only employers may delete reviews")
	}
	existing, err := s.authorizedReview(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return err
	}
	log.WithFields(log.Fields{"review_id": id, "vehicle_id": existing.VehicleID}).Info("Vehicle review deleted")
	events.Emit(ctx, s.publisher, events.New(events.ReviewDeleted, existing.TenantID, id, map[string]interface{}{
		"vehicle_id": existing.VehicleID,
	}))
	return nil
}

// Get returns one review visible to the caller.
func (s *Service) Get(ctx context.Context, caller models.Claims, id string) (*models.VehicleReview, error) {
	if caller.TenantID == "" {
		return nil, apperr.Unauthorized("caller identity required")
	}
	r, err := s.store.FindReviewByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.TenantID != caller.TenantID {
		return nil, apperr.Forbidden("review belongs to another employer")
	}
	return r, nil
}

// ListForVehicle returns the reviews of a vehicle with DateReviewed in [from, to].
func (s *Service) ListForVehicle(ctx context.Context, caller models.Claims, vehicleID, from, to string) ([]models.VehicleReview, error) {
	if caller.TenantID == "" {
		return nil, apperr.Unauthorized("caller identity required")
	}
	if from != "" && to != "" && from > to {
		return nil, apperr.Validation("start date must not be after end date")
	}
	if _, err := s.tenantVehicle(ctx, caller, vehicleID); err != nil {
		return nil, err
	}
	return s.store.FindReviews(ctx, models.ReviewFilter{
		TenantID:  caller.TenantID,
		VehicleID: vehicleID,
		From:      from,
		To:        to,
	})
}

func (s *Service) tenantVehicle(ctx context.Context, caller models.Claims, id string) (*models.Vehicle, error) {
	vehicle, err := s.vehicles(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle.TenantID != caller.TenantID {
		return nil, apperr.Forbidden("vehicle belongs to another employer")
	}
	return vehicle, nil
}

func (s *Service) checkEmployee(ctx context.Context, caller models.Claims, id string) error {
	if !caller.IsEmployer() && caller.EmployeeID != id {
		return apperr.Forbidden("employees may only record their own reviews")
	}
	employee, err := s.employees(ctx, id)
	if err != nil {
		return err
	}
	if employee.TenantID != caller.TenantID {
		return apperr.Forbidden("employee belongs to another employer")
	}
	return nil
}

func (s *Service) authorizedReview(ctx context.Context, caller models.Claims, id string) (*models.VehicleReview, error) {
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsEmployer() && r.EmployeeID != caller.EmployeeID {
		return nil, apperr.Forbidden("employees may only change their own reviews")
	}
	return r, nil
}

func (s *Service) emit(ctx context.Context, eventType string, r *models.VehicleReview) {
	data := map[string]interface{}{
		"vehicle_id":    r.VehicleID,
		"employee_id":   r.EmployeeID,
		"date_reviewed": r.DateReviewed,
	}
	events.Emit(ctx, s.publisher, events.New(eventType, r.TenantID, r.ID.Hex(), data))
	if r.VehicleBroken {
		events.Emit(ctx, s.publisher, events.New(events.VehicleFlagged, r.TenantID, r.VehicleID, map[string]interface{}{
			"review_id": r.ID.Hex(),
			"notes":     r.Notes,
		}))
	}
}
