package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleetsheet/internal/models"
	"github.com/ukydev/fleetsheet/internal/timesheet"
)

// TimesheetService is the timesheet behaviour the handler needs.
type TimesheetService interface {
	Create(ctx context.Context, caller models.Claims, in timesheet.Input) (*models.TimesheetEntry, error)
	Update(ctx context.Context, caller models.Claims, id string, in timesheet.Input) (*models.TimesheetEntry, error)
	Delete(ctx context.Context, caller models.Claims, id string) error
	Get(ctx context.Context, caller models.Claims, id string) (*models.TimesheetEntry, error)
	List(ctx context.Context, caller models.Claims, filter models.TimesheetFilter) ([]models.TimesheetEntry, error)
}

// TimesheetHandler serves timesheet entries.
type TimesheetHandler struct {
	service TimesheetService
}

// NewTimesheetHandler creates a new timesheet handler
func NewTimesheetHandler(service TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{service: service}
}

type timesheetList struct {
	Entries []models.TimesheetEntry `json:"entries"`
	Summary timesheet.Summary       `json:"summary"`
}

// List returns entries filtered by employee_id, from and to, with totals.
func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	entries, err := h.service.List(r.Context(), c, models.TimesheetFilter{
		EmployeeID: q.Get("employee_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timesheetList{Entries: entries, Summary: timesheet.Summarize(entries)})
}

// Create records a timesheet entry.
func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in timesheet.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), c, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Get returns one timesheet entry.
func (h *TimesheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.service.Get(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Update replaces a timesheet entry, normalizing it again.
func (h *TimesheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in timesheet.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.service.Update(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Delete removes a timesheet entry.
func (h *TimesheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), c, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
