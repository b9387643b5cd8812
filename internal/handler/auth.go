package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/auth"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/middleware"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/staff"
)

// StaffAuthenticator is the part of the staff directory login needs.
// Satisfied by *staff.Directory; narrow interface for testability.
type StaffAuthenticator interface {
	Authenticate(email, password string) (staff.Member, error)
	Get(id uuid.UUID) (staff.Member, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	staff     StaffAuthenticator
	jwtSecret string
	log       *zap.Logger
}

func NewAuthHandler(dir StaffAuthenticator, jwtSecret string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{staff: dir, jwtSecret: jwtSecret, log: nopLogger(log)}
}

// RegisterRoutes registers the public login endpoint.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// RegisterSessionRoutes registers endpoints that need an authenticated caller.
func (h *AuthHandler) RegisterSessionRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	Staff       staff.Member `json:"staff"`
}

// Login handles email + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	member, err := h.staff.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, staff.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		internalError(w, h.log, "authenticate", err)
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, member.ID, member.Branch, member.Role)
	if err != nil {
		internalError(w, h.log, "generate token", err)
		return
	}

	h.log.Info("staff signed in", zap.String("staff_id", member.ID.String()), zap.String("role", member.Role))
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, Staff: member})
}

// Me returns the signed-in staff member.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	member, err := h.staff.Get(claims.StaffID)
	if err != nil || !member.Active {
		writeError(w, http.StatusUnauthorized, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}
