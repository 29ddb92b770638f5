package handlers

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ukydev/fleetsheet/internal/delivery"
	"github.com/ukydev/fleetsheet/internal/models"
	"github.com/ukydev/fleetsheet/internal/report"
)

// ReportDelivery renders and delivers reports.
type ReportDelivery interface {
	Download(ctx context.Context, caller models.Claims, req report.Request) (*delivery.Artifact, error)
	Email(ctx context.Context, caller models.Claims, req report.Request, recipient string) (*delivery.Artifact, error)
}

// ReportHandler serves report downloads and email delivery.
type ReportHandler struct {
	delivery ReportDelivery
}

// NewReportHandler creates a new report handler
func NewReportHandler(d ReportDelivery) *ReportHandler {
	return &ReportHandler{delivery: d}
}

// Download streams the report for /{kind}/{id}. Query parameters: format,
// from, to, filename and generated_at.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	stamp, _ := strconv.ParseBool(q.Get("generated_at"))
	req := report.Request{
		Kind:               chi.URLParam(r, "kind"),
		ID:                 chi.URLParam(r, "id"),
		Format:             q.Get("format"),
		From:               q.Get("from"),
		To:                 q.Get("to"),
		Filename:           q.Get("filename"),
		IncludeGeneratedAt: stamp,
	}
	artifact, err := h.delivery.Download(r.Context(), c, req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Bytes)
}

type emailRequest struct {
	report.Request
	Recipient string `json:"recipient"`
}

type emailResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// Email renders a report and mails it to the recipient. It responds once the
// mail transport has accepted the message.
func (h *ReportHandler) Email(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	artifact, err := h.delivery.Email(r.Context(), c, req.Request, req.Recipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Message: "Report emailed", Filename: artifact.Filename})
}
