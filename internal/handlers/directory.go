package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/auth"
	"github.com/ukydev/fleetsheet/internal/db"
	"github.com/ukydev/fleetsheet/internal/models"
)

// DirectoryHandler serves a tenant's employees, clients and projects.
type DirectoryHandler struct {
	employees   db.EmployeeCollection
	clients     db.ClientCollection
	projects    db.ProjectCollection
	users       db.UserCollection
	authService *auth.Service
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(employees db.EmployeeCollection, clients db.ClientCollection, projects db.ProjectCollection,
	users db.UserCollection, authService *auth.Service) *DirectoryHandler {
	return &DirectoryHandler{
		employees:   employees,
		clients:     clients,
		projects:    projects,
		users:       users,
		authService: authService,
	}
}

type employeeRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	HourlyWage float64 `json:"hourly_wage"`

	// Optional login for the employee.
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (req *employeeRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		return apperr.Validation("employee name required")
	}
	if req.HourlyWage < 0 {
		return apperr.Validation("hourly wage must not be negative")
	}
	return nil
}

// ListEmployees returns the tenant's employees.
func (h *DirectoryHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	employees, err := h.employees.FindEmployees(r.Context(), c.TenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// CreateEmployee adds an employee, and a linked employee login when a
// username and password are supplied.
func (h *DirectoryHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	employee := models.Employee{
		ID:         primitive.NewObjectID(),
		TenantID:   c.TenantID,
		Name:       req.Name,
		Email:      req.Email,
		HourlyWage: req.HourlyWage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var login *models.User
	if req.Username != "" || req.Password != "" {
		login, err = h.employeeLogin(r, employee, req)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.employees.InsertEmployee(r.Context(), employee); err != nil {
		writeError(w, err)
		return
	}
	if login != nil {
		if err := h.users.InsertUser(r.Context(), *login); err != nil {
			writeError(w, err)
			return
		}
	}

	log.WithFields(log.Fields{
		"tenant_id":   c.TenantID,
		"employee_id": employee.ID.Hex(),
		"login":       login != nil,
	}).Info("Employee created")
	writeJSON(w, http.StatusCreated, employee)
}

func (h *DirectoryHandler) employeeLogin(r *http.Request, employee models.Employee, req employeeRequest) (*models.User, error) {
	if err := h.authService.ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := h.authService.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := h.authService.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if _, err := h.users.FindUserByUsername(r.Context(), req.Username); err == nil {
		return nil, apperr.Validation("username already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:           primitive.NewObjectID(),
		TenantID:     employee.TenantID,
		EmployeeID:   employee.ID.Hex(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		FirstName:    employee.Name,
		IsActive:     true,
	}, nil
}

// GetEmployee returns one employee record.
func (h *DirectoryHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	employee, err := h.tenantEmployee(r, c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

// UpdateEmployee changes name, email and wage. Existing timesheet entries
// keep the wage they were recorded with.
func (h *DirectoryHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	employee, err := h.tenantEmployee(r, c)
	if err != nil {
		writeError(w, err)
		return
	}
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	employee.Name = req.Name
	employee.Email = req.Email
	employee.HourlyWage = req.HourlyWage
	employee.UpdatedAt = time.Now().UTC()
	if err := h.employees.UpdateEmployee(r.Context(), employee.ID.Hex(), *employee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *DirectoryHandler) tenantEmployee(r *http.Request, c models.Claims) (*models.Employee, error) {
	id := chi.URLParam(r, "id")
	if !c.IsEmployer() && c.EmployeeID != id {
		return nil, apperr.Forbidden("employees may only view their own record")
	}
	employee, err := h.employees.FindEmployeeByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if employee.TenantID != c.TenantID {
		return nil, apperr.Forbidden("employee belongs to another tenant")
	}
	return employee, nil
}

type clientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ListClients returns the tenant's clients.
func (h *DirectoryHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clients, err := h.clients.FindClients(r.Context(), c.TenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// CreateClient adds a client to the tenant.
func (h *DirectoryHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apperr.Validation("client name required"))
		return
	}
	client := models.Client{
		ID:        primitive.NewObjectID(),
		TenantID:  c.TenantID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.clients.InsertClient(r.Context(), client); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

type projectRequest struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
}

// ListProjects lists projects, optionally only those of client_id.
func (h *DirectoryHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	projects, err := h.projects.FindProjects(r.Context(), c.TenantID, r.URL.Query().Get("client_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject adds a project under a client of the caller's tenant.
func (h *DirectoryHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.ClientID == "" {
		writeError(w, apperr.Validation("client and project name required"))
		return
	}
	client, err := h.clients.FindClientByID(r.Context(), req.ClientID)
	if err != nil {
		writeError(w, err)
		return
	}
	if client.TenantID != c.TenantID {
		writeError(w, apperr.Forbidden("client belongs to another tenant"))
		return
	}
	project := models.Project{
		ID:        primitive.NewObjectID(),
		TenantID:  c.TenantID,
		ClientID:  req.ClientID,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := h.projects.InsertProject(r.Context(), project); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}
