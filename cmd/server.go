package main

import (
	"context"
	"net/http"

	"github.com/ukydev/fleetsheet/internal/auth"
	"github.com/ukydev/fleetsheet/internal/config"
	"github.com/ukydev/fleetsheet/internal/db"
	"github.com/ukydev/fleetsheet/internal/delivery"
	"github.com/ukydev/fleetsheet/internal/events"
	"github.com/ukydev/fleetsheet/internal/handlers"
	"github.com/ukydev/fleetsheet/internal/middleware"
	"github.com/ukydev/fleetsheet/internal/report"
	"github.com/ukydev/fleetsheet/internal/review"
	"github.com/ukydev/fleetsheet/internal/timesheet"
)

// buildHandler wires the services over cols and returns the API router.
func buildHandler(cfg config.Config, cols *db.Collections, publisher events.Publisher, mailer delivery.Mailer,
	health func(context.Context) error) (http.Handler, error) {
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}

	timesheets := timesheet.NewService(cols.Timesheets, cols.Employees.FindEmployeeByID, cols.Projects.FindProjectByID,
		timesheet.Options{DefaultUTCOffsetMinutes: cfg.DefaultUTCOffsetMinutes, Publisher: publisher})
	reviews := review.NewService(cols.Reviews, cols.Vehicles.FindVehicleByID, cols.Employees.FindEmployeeByID, publisher)
	assembler := report.NewAssembler(cols.Reviews, cols.Vehicles.FindVehicleByID, cols.Employees.FindEmployeeByID)
	reports := delivery.NewService(assembler, mailer, publisher, cfg.SMTPFrom)

	return handlers.NewRouter(handlers.RouterConfig{
		Auth:           handlers.NewAuthHandler(authService, cols.Users),
		Timesheets:     handlers.NewTimesheetHandler(timesheets),
		Reviews:        handlers.NewReviewHandler(reviews),
		Vehicles:       handlers.NewVehicleHandler(cols.Vehicles, cols.Reviews, reviews),
		Directory:      handlers.NewDirectoryHandler(cols.Employees, cols.Clients, cols.Projects, cols.Users, authService),
		Reports:        handlers.NewReportHandler(reports),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		RateLimiter:    middleware.NewRateLimitMiddleware(cfg.TrustProxyHeaders),
		RateLimit:      cfg.RateLimitRequests,
		RateWindow:     cfg.RateLimitWindow,
		Health:         health,
	}), nil
}
