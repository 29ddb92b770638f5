package timesheet

import (
	"fmt"
	"strings"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/models"
)

// Input is a raw timesheet submission. Times are wall-clock values in the
// submitter's zone.
type Input struct {
	EmployeeID    string           `json:"employee_id"`
	Date          string           `json:"date"`
	LeaveType     models.LeaveType `json:"leave_type"`
	ClientID      string           `json:"client_id"`
	ProjectID     string           `json:"project_id"`
	StartTime     string           `json:"start_time"`
	EndTime       string           `json:"end_time"`
	LunchBreak    string           `json:"lunch_break"`
	LunchDuration string           `json:"lunch_duration"`
	Description   string           `json:"description"`
	Notes         string           `json:"notes"`

	// UTCOffsetMinutes is the submitter's offset east of UTC; nil uses the service default.
	UTCOffsetMinutes *int `json:"utc_offset_minutes,omitempty"`
}

// Normalize validates in and builds the entry to persist, with UTC start and
// end times and computed TotalHours. Rules are checked in order and the first
// violation is returned. Identity, tenant and wage fields are left to the caller.
func Normalize(in Input, offsetMinutes int) (*models.TimesheetEntry, error) {
	employeeID := strings.TrimSpace(in.EmployeeID)
	date := strings.TrimSpace(in.Date)
	if employeeID == "" || date == "" {
		return nil, apperr.Validation("employee and date required")
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}

	leave := in.LeaveType
	if leave == "" {
		leave = models.LeaveNone
	}
	if !models.IsValidLeaveType(leave) {
		return nil, apperr.Validation("unknown leave type")
	}

	entry := &models.TimesheetEntry{
		EmployeeID: employeeID,
		Date:       date,
		LeaveType:  leave,
		LunchBreak: "No",
	}

	if leave != models.LeaveNone {
		description := strings.TrimSpace(in.Description)
		if description == "" {
			return nil, apperr.Validation("leave description required")
		}
		entry.Description = description
		return entry, nil
	}

	clientID := strings.TrimSpace(in.ClientID)
	projectID := strings.TrimSpace(in.ProjectID)
	if clientID == "" || projectID == "" {
		return nil, apperr.Validation("client and project required")
	}
	if strings.TrimSpace(in.StartTime) == "" || strings.TrimSpace(in.EndTime) == "" {
		return nil, apperr.Validation("start and end time required")
	}
	start, err := ParseClock(in.StartTime)
	if err != nil {
		return nil, apperr.Validation("start time must be HH:MM")
	}
	end, err := ParseClock(in.EndTime)
	if err != nil {
		return nil, apperr.Validation("end time must be HH:MM")
	}

	lunchMinutes := 0
	switch in.LunchBreak {
	case "Yes":
		if strings.TrimSpace(in.LunchDuration) == "" {
			return nil, apperr.Validation("lunch duration required")
		}
		lunchMinutes, err = ParseSpan(in.LunchDuration)
		if err != nil {
			return nil, apperr.Validation("lunch duration must be HH:MM")
		}
		entry.LunchBreak = "Yes"
		entry.LunchDuration = FormatSpan(lunchMinutes)
	case "No":
	default:
		return nil, apperr.Validation("lunch break must be Yes or No")
	}

	// Ordering is checked in the submitter's frame: both ends shift by the same
	// offset, and a UTC pair may straddle midnight.
	if end <= start {
		return nil, apperr.Validation("start time must precede end time")
	}

	startUTC := FormatClock(ToUTC(start, offsetMinutes))
	endUTC := FormatClock(ToUTC(end, offsetMinutes))
	entry.ClientID = &clientID
	entry.ProjectID = &projectID
	entry.StartTime = &startUTC
	entry.EndTime = &endUTC
	entry.Notes = strings.TrimSpace(in.Notes)
	entry.TotalHours = TotalHours(start, end, lunchMinutes)
	return entry, nil
}

// FormatSpan renders a length of minutes as "HH:MM".
func FormatSpan(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
