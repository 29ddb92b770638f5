package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleetsheet/internal/models"
	"github.com/ukydev/fleetsheet/internal/review"
)

// ReviewService is the review behaviour the handlers need.
type ReviewService interface {
	Create(ctx context.Context, caller models.Claims, in review.Input) (*models.VehicleReview, error)
	Update(ctx context.Context, caller models.Claims, id string, in review.Input) (*models.VehicleReview, error)
	Delete(ctx context.Context, caller models.Claims, id string) error
	Get(ctx context.Context, caller models.Claims, id string) (*models.VehicleReview, error)
	ListForVehicle(ctx context.Context, caller models.Claims, vehicleID, from, to string) ([]models.VehicleReview, error)
}

// ReviewHandler serves vehicle reviews.
type ReviewHandler struct {
	service ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// reviewRequest accepts hours as a number, a numeric string, or null.
type reviewRequest struct {
	review.Input
	Hours json.RawMessage `json:"hours"`
}

func decodeReview(r *http.Request) (review.Input, error) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		return review.Input{}, err
	}
	hours, err := review.ParseHours(req.Hours)
	if err != nil {
		return review.Input{}, err
	}
	in := req.Input
	in.Hours = hours
	return in, nil
}

// Create captures a vehicle review.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decodeReview(r)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), c, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns one review.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	found, err := h.service.Get(r.Context(), c, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// Update replaces a review. Its vehicle cannot change.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decodeReview(r)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), c, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a review.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
