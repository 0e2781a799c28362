package authhttp

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/towerdesk/towerdesk/internal/auth"
	"github.com/towerdesk/towerdesk/internal/gate"
	"github.com/towerdesk/towerdesk/internal/platform/httpx"
	"github.com/towerdesk/towerdesk/internal/session"
)

// Handler wires HTTP endpoints for authentication and account
// management flows.
type Handler struct {
	logger    *slog.Logger
	auth      *auth.Service
	sessions  *session.Service
	gate      gate.Middleware
	validator *validator.Validate
	loginRPM  int
}

// NewHandler constructs a Handler. loginRPM caps login attempts per IP
// per minute; zero disables the limiter.
func NewHandler(logger *slog.Logger, authService *auth.Service, sessions *session.Service, loginRPM int) *Handler {
	return &Handler{
		logger:    logger,
		auth:      authService,
		sessions:  sessions,
		gate:      gate.Middleware{Sessions: sessions, Logger: logger},
		validator: validator.New(),
		loginRPM:  loginRPM,
	}
}

// MountRoutes registers the public authentication routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.loginRPM > 0 {
		limiter := httprate.Limit(h.loginRPM, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
		r.With(limiter).Post("/login", h.handleLogin)
	} else {
		r.Post("/login", h.handleLogin)
	}
	r.Post("/logout", h.handleLogout)
	r.Post("/password", h.handleChangePassword)
	r.With(h.gate.Require(auth.LevelOwner)).Get("/me", h.handleMe)
}

// MountAdminRoutes registers account-management routes. Every route is
// gated at admin level.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Use(h.gate.Require(auth.LevelAdmin))
	r.Post("/users", h.handleCreateUser)
	r.Post("/users/{username}/reset-password", h.handleResetPassword)
	r.Delete("/users/{username}", h.handleDeactivateUser)
	r.Post("/sessions/cleanup", h.handleCleanup)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token           string        `json:"token"`
	UserID          string        `json:"user_id"`
	UserType        auth.UserType `json:"user_type"`
	PermissionLevel auth.Level    `json:"permission_level"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "username and password are required")
		return
	}
	result, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	token, err := h.sessions.Issue(r.Context(), result.UserID, result.UserType)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{
		Token:           token,
		UserID:          result.UserID,
		UserType:        result.UserType,
		PermissionLevel: result.Level,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := gate.BearerToken(r)
	if token == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
		return
	}
	revoked, err := h.sessions.Invalidate(r.Context(), token)
	if err != nil {
		h.logger.Error("invalidate token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

type identityResponse struct {
	UserID          string        `json:"user_id"`
	UserType        auth.UserType `json:"user_type"`
	PermissionLevel auth.Level    `json:"permission_level"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := gate.IdentityFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
		return
	}
	level, _ := auth.LevelOf(id.UserType)
	httpx.JSON(w, http.StatusOK, identityResponse{
		UserID:          id.UserID,
		UserType:        id.UserType,
		PermissionLevel: level,
	})
}

type changePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "username, old_password and new_password (min 8 chars) are required")
		return
	}
	if err := h.auth.ChangePassword(r.Context(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		h.respondAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createUserRequest struct {
	Username string       `json:"username" validate:"required"`
	Password string       `json:"password" validate:"required,min=8"`
	Role     auth.RoleRef `json:"role" validate:"required"`
}

type createUserResponse struct {
	UserID   string       `json:"user_id"`
	Username string       `json:"username"`
	Role     auth.RoleRef `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "username, password (min 8 chars) and role are required")
		return
	}
	p, err := h.auth.Register(r.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		h.respondAuthError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createUserResponse{
		UserID:   p.ID,
		Username: p.Username,
		Role:     p.Role,
	})
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "new_password (min 8 chars) is required")
		return
	}
	if err := h.auth.ResetPassword(r.Context(), username, req.NewPassword); err != nil {
		h.respondAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.auth.Deactivate(r.Context(), username); err != nil {
		h.respondAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	removed, err := h.sessions.CleanupExpired(r.Context())
	if err != nil {
		h.logger.Error("cleanup expired tokens", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *Handler) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "missing required field")
	case errors.Is(err, auth.ErrInvalidCredentials):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, auth.ErrDuplicateUsername):
		httpx.Problem(w, http.StatusConflict, "Conflict", "username already taken")
	case errors.Is(err, auth.ErrUnknownRole):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "unknown role")
	case errors.Is(err, auth.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no such user")
	default:
		h.logger.Error("auth request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
