// Package delivery hands rendered reports to the caller, either as a
// download or as an email attachment.
package delivery

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/events"
	"github.com/ukydev/fleetsheet/internal/models"
	"github.com/ukydev/fleetsheet/internal/report"
)

// Artifact is a rendered report.
type Artifact struct {
	Bytes    []byte
	Filename string
	MIMEType string
}

// Builder resolves a report request into a document.
type Builder interface {
	Build(ctx context.Context, caller models.Claims, req report.Request) (report.Document, error)
}

// Service renders reports and delivers them.
type Service struct {
	builder   Builder
	mailer    Mailer
	publisher events.Publisher
	from      string
	now       func() time.Time
}

// NewService creates a report delivery service. A nil mailer falls back to
// LogMailer.
func NewService(builder Builder, mailer Mailer, publisher events.Publisher, from string) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{
		builder:   builder,
		mailer:    mailer,
		publisher: publisher,
		from:      from,
		now:       time.Now,
	}
}

// Download renders the report for req.
func (s *Service) Download(ctx context.Context, caller models.Claims, req report.Request) (*Artifact, error) {
	format, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return s.render(ctx, caller, req, format)
}

// Email renders the report for req and mails it to recipient. It returns
// once the transport accepts the message; a rejection is a delivery error
// and is not retried.
func (s *Service) Email(ctx context.Context, caller models.Claims, req report.Request, recipient string) (*Artifact, error) {
	format, err := req.Validate()
	if err != nil {
		return nil, err
	}
	to, err := parseRecipient(recipient)
	if err != nil {
		return nil, err
	}
	artifact, err := s.render(ctx, caller, req, format)
	if err != nil {
		return nil, err
	}

	msg := Message{
		From:    s.from,
		To:      []string{to},
		Subject: subject(req),
		Body:    fmt.Sprintf("Please find the attached report %s.\n", artifact.Filename),
		Attachments: []Attachment{{
			Filename: artifact.Filename,
			Content:  artifact.Bytes,
			MIMEType: artifact.MIMEType,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"tenant_id": caller.TenantID,
			"filename":  artifact.Filename,
		}).Error("Mail transport rejected report")
		return nil, apperr.Delivery("mail transport rejected the report", err)
	}

	log.WithFields(log.Fields{
		"tenant_id": caller.TenantID,
		"kind":      req.Kind,
		"id":        req.ID,
		"format":    string(format),
	}).Info("Report emailed")
	events.Emit(ctx, s.publisher, events.New(events.ReportEmailed, caller.TenantID, req.ID, map[string]interface{}{
		"kind":     req.Kind,
		"format":   string(format),
		"filename": artifact.Filename,
		"to":       to,
	}))
	return artifact, nil
}

func (s *Service) render(ctx context.Context, caller models.Claims, req report.Request, format report.Format) (*Artifact, error) {
	doc, err := s.builder.Build(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	if req.IncludeGeneratedAt {
		at := s.now().UTC()
		doc.GeneratedAt = &at
	}
	data, err := report.Render(doc, format)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Bytes:    data,
		Filename: req.FileName(format),
		MIMEType: format.MIMEType(),
	}, nil
}

func parseRecipient(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("recipient email required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", apperr.Validation("recipient email is invalid")
	}
	return addr.Address, nil
}

func subject(req report.Request) string {
	if req.Kind == report.KindVehicle {
		return "Vehicle review history report"
	}
	return "Vehicle review report"
}
