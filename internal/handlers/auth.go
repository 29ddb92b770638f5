package handlers

import (
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleetsheet/internal/apperr"
	"github.com/ukydev/fleetsheet/internal/auth"
	"github.com/ukydev/fleetsheet/internal/db"
	"github.com/ukydev/fleetsheet/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(r, &loginReq); err != nil {
		writeError(w, err)
		return
	}
	if loginReq.Username == "" || loginReq.Password == "" {
		writeError(w, apperr.Validation("username and password are required"))
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			writeError(w, apperr.Unauthorized(auth.ErrInvalidCredentials.Error()))
			return
		}
		writeError(w, err)
		return
	}
	if !user.IsActive {
		writeError(w, apperr.Unauthorized(auth.ErrUserInactive.Error()))
		return
	}
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		writeError(w, apperr.Unauthorized(auth.ErrInvalidCredentials.Error()))
		return
	}

	h.respondWithTokens(w, http.StatusOK, user)

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to update last login")
	}
}

// Register creates an employer account. The new user's id becomes the tenant id.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeJSON(r, &registerReq); err != nil {
		writeError(w, err)
		return
	}
	registerReq.Email = strings.TrimSpace(registerReq.Email)

	if err := h.authService.ValidateUsername(registerReq.Username); err != nil {
		writeError(w, err)
		return
	}
	if err := h.authService.ValidateEmail(registerReq.Email); err != nil {
		writeError(w, err)
		return
	}
	if err := h.authService.ValidatePassword(registerReq.Password); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ensureUnique(r, registerReq.Username, registerReq.Email); err != nil {
		writeError(w, err)
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	id := primitive.NewObjectID()
	now := time.Now().UTC()
	user := models.User{
		ID:           id,
		TenantID:     id.Hex(),
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleEmployer,
		FirstName:    registerReq.FirstName,
		LastName:     registerReq.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	log.WithFields(log.Fields{"user_id": id.Hex(), "username": user.Username}).Info("Employer registered")
	h.respondWithTokens(w, http.StatusCreated, &user)
}

// ensureUnique rejects a username or email already in use.
func (h *AuthHandler) ensureUnique(r *http.Request, username, email string) error {
	if _, err := h.userCollection.FindUserByUsername(r.Context(), username); err == nil {
		return apperr.Validation("username already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	if _, err := h.userCollection.FindUserByEmail(r.Context(), email); err == nil {
		return apperr.Validation("email already exists")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}
	return nil
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's name and email
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var updateReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := decodeJSON(r, &updateReq); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if updateReq.FirstName != "" {
		user.FirstName = updateReq.FirstName
	}
	if updateReq.LastName != "" {
		user.LastName = updateReq.LastName
	}
	if updateReq.Email != "" && updateReq.Email != user.Email {
		if err := h.authService.ValidateEmail(updateReq.Email); err != nil {
			writeError(w, err)
			return
		}
		existing, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email)
		if err == nil && existing.ID.Hex() != claims.UserID {
			writeError(w, apperr.Validation("email already exists"))
			return
		}
		user.Email = updateReq.Email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated successfully")
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, err := caller(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r, &passwordReq); err != nil {
		writeError(w, err)
		return
	}
	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		writeError(w, apperr.Validation("current password and new password are required"))
		return
	}
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		writeError(w, apperr.Unauthorized("current password is incorrect"))
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}
	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully")
}
