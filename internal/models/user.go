package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleEmployer Role = "employer"
	RoleEmployee Role = "employee"
)

// User represents a login account. Employer accounts own a tenant; employee
// accounts belong to their employer's tenant and link to an Employee record.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID     string             `bson:"tenant_id" json:"tenant_id"`
	EmployeeID   string             `bson:"employee_id,omitempty" json:"employee_id,omitempty"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"first_name" json:"first_name"`
	LastName     string             `bson:"last_name" json:"last_name"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents an employer registration request
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims identifies the caller of an operation.
type Claims struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Role       Role   `json:"role"`
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Exp        int64  `json:"exp"`
}

// IsEmployer reports whether the caller holds the employer role.
func (c Claims) IsEmployer() bool {
	return c.Role == RoleEmployer
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleEmployer, RoleEmployee:
		return true
	default:
		return false
	}
}

// HasPermission checks if the caller's role allows action.
func (c Claims) HasPermission(action string) bool {
	return roleAllows(c.Role, action)
}

func roleAllows(role Role, action string) bool {
	switch role {
	case RoleEmployer:
		return true
	case RoleEmployee:
		return action == "view_vehicles" || action == "view_reviews" ||
			action == "create_review" || action == "update_review" ||
			action == "create_timesheet" || action == "update_timesheet" ||
			action == "view_timesheets" || action == "view_reports"
	default:
		return false
	}
}
