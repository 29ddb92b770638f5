package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/models"
)

// Subject kinds a report can be built for.
const (
	KindReview  = "review"
	KindVehicle = "vehicle"
)

// Request describes a report to assemble.
type Request struct {
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Format   string `json:"format"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Filename string `json:"filename,omitempty"`

	// IncludeGeneratedAt stamps the artifact with its generation time.
	IncludeGeneratedAt bool `json:"include_generated_at,omitempty"`
}

// Validate checks the request and returns its parsed format.
func (r Request) Validate() (Format, error) {
	format, err := ParseFormat(r.Format)
	if err != nil {
		return "", err
	}
	switch r.Kind {
	case KindReview, KindVehicle:
	default:
		return "", apperr.Validation("kind must be review or vehicle")
	}
	if strings.TrimSpace(r.ID) == "" {
		return "", apperr.Validation("id required")
	}
	if r.From != "" {
		if _, err := models.ParseDate(r.From); err != nil {
			return "", apperr.Validation("start date must be YYYY-MM-DD")
		}
	}
	if r.To != "" {
		if _, err := models.ParseDate(r.To); err != nil {
			return "", apperr.Validation("end date must be YYYY-MM-DD")
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return "", apperr.Validation("start date must not be after end date")
	}
	return format, nil
}

// FileName returns the artifact name: the sanitized override when given,
// otherwise <kind>_<id>.<ext>.
func (r Request) FileName(format Format) string {
	ext := "." + format.Extension()
	name := strings.TrimSpace(r.Filename)
	if name != "" {
		name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
		name = strings.Map(func(c rune) rune {
			if c == '"' || c < 0x20 {
				return -1
			}
			return c
		}, name)
	}
	if name == "" || name == "." || name == "/" {
		return fmt.Sprintf("%s_%s%s", r.Kind, r.ID, ext)
	}
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}

// ReviewSource reads reviews for assembly.
type ReviewSource interface {
	FindReviewByID(ctx context.Context, id string) (*models.VehicleReview, error)
	FindReviews(ctx context.Context, filter models.ReviewFilter) ([]models.VehicleReview, error)
}

// VehicleLookup and EmployeeLookup return apperr.NotFound for missing ids.
type (
	VehicleLookup  func(ctx context.Context, id string) (*models.Vehicle, error)
	EmployeeLookup func(ctx context.Context, id string) (*models.Employee, error)
)

// Assembler joins reviews with their vehicle and employee into Documents.
type Assembler struct {
	reviews   ReviewSource
	vehicles  VehicleLookup
	employees EmployeeLookup
}

// NewAssembler creates an assembler over the given stores.
func NewAssembler(reviews ReviewSource, vehicles VehicleLookup, employees EmployeeLookup) *Assembler {
	return &Assembler{reviews: reviews, vehicles: vehicles, employees: employees}
}

// Build assembles the document for req. The caller must be allowed to view
// reviews in the subject's tenant. A referenced vehicle or employee that no
// longer exists renders as a placeholder.
func (a *Assembler) Build(ctx context.Context, caller models.Claims, req Request) (Document, error) {
	if !caller.HasPermission("view_reports") {
		return Document{}, apperr.Forbidden("not allowed to view reports")
	}
	switch req.Kind {
	case KindReview:
		return a.buildReview(ctx, caller, req.ID)
	case KindVehicle:
		return a.buildVehicle(ctx, caller, req)
	default:
		return Document{}, apperr.Validation("kind must be review or vehicle")
	}
}

func (a *Assembler) buildReview(ctx context.Context, caller models.Claims, id string) (Document, error) {
	review, err := a.reviews.FindReviewByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if review.TenantID != caller.TenantID {
		return Document{}, apperr.Forbidden("review belongs to another tenant")
	}
	vehicle, err := a.optionalVehicle(ctx, review.VehicleID)
	if err != nil {
		return Document{}, err
	}
	employee, err := a.optionalEmployee(ctx, review.EmployeeID)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Title: "Vehicle Review",
		Rows:  []Row{NewRow(*review, vehicle, employee)},
	}, nil
}

func (a *Assembler) buildVehicle(ctx context.Context, caller models.Claims, req Request) (Document, error) {
	vehicle, err := a.vehicles(ctx, req.ID)
	if err != nil {
		return Document{}, err
	}
	if vehicle.TenantID != caller.TenantID {
		return Document{}, apperr.Forbidden("vehicle belongs to another tenant")
	}
	reviews, err := a.reviews.FindReviews(ctx, models.ReviewFilter{
		TenantID:  caller.TenantID,
		VehicleID: req.ID,
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return Document{}, err
	}

	names := make(map[string]*models.Employee)
	rows := make([]Row, 0, len(reviews))
	for _, r := range reviews {
		employee, seen := names[r.EmployeeID]
		if !seen {
			employee, err = a.optionalEmployee(ctx, r.EmployeeID)
			if err != nil {
				return Document{}, err
			}
			names[r.EmployeeID] = employee
		}
		rows = append(rows, NewRow(r, vehicle, employee))
	}

	return Document{
		Title:    "Vehicle Review History",
		Subtitle: subtitle(orDefault(vehicle.Name, UnnamedVehicle), req.From, req.To),
		Rows:     rows,
	}, nil
}

func (a *Assembler) optionalVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	v, err := a.vehicles(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		log.WithField("vehicle_id", id).Warn("Review references missing vehicle")
		return nil, nil
	}
	return v, err
}

func (a *Assembler) optionalEmployee(ctx context.Context, id string) (*models.Employee, error) {
	e, err := a.employees(ctx, id)
	if apperr.Is(err, apperr.KindNotFound) {
		log.WithField("employee_id", id).Warn("Review references missing employee")
		return nil, nil
	}
	return e, err
}

func subtitle(vehicle, from, to string) string {
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("%s, %s to %s", vehicle, humanDate(from), humanDate(to))
	case from != "":
		return fmt.Sprintf("%s, from %s", vehicle, humanDate(from))
	case to != "":
		return fmt.Sprintf("%s, up to %s", vehicle, humanDate(to))
	default:
		return vehicle
	}
}
