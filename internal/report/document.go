// Package report renders vehicle reviews into PDF and spreadsheet artifacts.
// Rendering is a pure function of the Document: the same document always
// yields the same fields in the same order.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/models"
)

// Format is an artifact encoding.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// ParseFormat accepts "pdf", "excel" and "xlsx".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", apperr.Validation("unsupported format")
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return "pdf"
}

// MIMEType returns the content type of the encoding.
func (f Format) MIMEType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Placeholders used when a referenced entity no longer resolves.
const (
	UnnamedVehicle  = "Unnamed"
	UnknownEmployee = "Unknown"
)

// Labels are the report fields in output order. Consumers read reports by
// position, so the order is fixed.
var Labels = []string{
	"Vehicle",
	"Employee",
	"Date Reviewed",
	"WOF/Registration",
	"Oil Checked",
	"Vehicle Checked",
	"Vehicle Broken",
	"Hours",
	"Notes",
}

// Row is one review with its vehicle and employee already joined.
type Row struct {
	VehicleName    string
	EmployeeName   string
	DateReviewed   string // YYYY-MM-DD
	Registration   string
	RegoExpiry     string
	WOFExpiry      string
	OilChecked     bool
	VehicleChecked bool
	VehicleBroken  bool
	Hours          *float64
	Notes          string
}

// NewRow joins a review with its vehicle and employee. Either may be nil.
func NewRow(r models.VehicleReview, vehicle *models.Vehicle, employee *models.Employee) Row {
	row := Row{
		DateReviewed:   r.DateReviewed,
		OilChecked:     r.OilChecked,
		VehicleChecked: r.VehicleChecked,
		VehicleBroken:  r.VehicleBroken,
		Hours:          r.Hours,
		Notes:          r.Notes,
	}
	if vehicle != nil {
		row.VehicleName = vehicle.Name
		row.Registration = vehicle.Registration
		row.RegoExpiry = vehicle.RegoExpiry
		row.WOFExpiry = vehicle.WOFExpiry
	}
	if employee != nil {
		row.EmployeeName = employee.Name
	}
	return row
}

// Values returns the display strings for Labels, in the same order.
func (r Row) Values() []string {
	return []string{
		orDefault(r.VehicleName, UnnamedVehicle),
		orDefault(r.EmployeeName, UnknownEmployee),
		humanDate(r.DateReviewed),
		r.wofRegistration(),
		yesNo(r.OilChecked),
		yesNo(r.VehicleChecked),
		yesNo(r.VehicleBroken),
		hours(r.Hours),
		orDefault(r.Notes, "N/A"),
	}
}

func (r Row) wofRegistration() string {
	var parts []string
	if r.WOFExpiry != "" {
		parts = append(parts, "WOF "+humanDate(r.WOFExpiry))
	}
	if r.Registration != "" || r.RegoExpiry != "" {
		rego := "Rego"
		if r.Registration != "" {
			rego += " " + r.Registration
		}
		if r.RegoExpiry != "" {
			rego += " until " + humanDate(r.RegoExpiry)
		}
		parts = append(parts, rego)
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, " / ")
}

// Document is the renderer input.
type Document struct {
	Title    string
	Subtitle string
	Rows     []Row

	// GeneratedAt is printed only when set.
	GeneratedAt *time.Time
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func hours(h *float64) string {
	if h == nil {
		return "--"
	}
	return strconv.FormatFloat(*h, 'f', -1, 64)
}

// humanDate renders YYYY-MM-DD as "1 June 2024"; other input is returned as is.
func humanDate(s string) string {
	t, err := models.ParseDate(s)
	if err != nil {
		return orDefault(s, "N/A")
	}
	return t.Format("2 January 2006")
}
