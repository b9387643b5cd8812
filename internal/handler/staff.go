package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/middleware"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/staff"
)

// StaffDirectory defines the directory methods needed by staff handlers.
// Satisfied by *staff.Directory; narrow interface for testability.
type StaffDirectory interface {
	Add(m staff.NewMember) (staff.Member, error)
	Get(id uuid.UUID) (staff.Member, error)
	List(branch string) []staff.Member
	Deactivate(id uuid.UUID) error
}

// StaffHandler handles employee endpoints. Non-admin callers only see and
// manage their own branch.
type StaffHandler struct {
	dir StaffDirectory
	log *zap.Logger
}

func NewStaffHandler(dir StaffDirectory, log *zap.Logger) *StaffHandler {
	return &StaffHandler{dir: dir, log: nopLogger(log)}
}

// RegisterRoutes is expected to be mounted at /staff.
func (h *StaffHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.With(guard(enum.AccessReadOnly)).Get("/", h.List)
	r.With(guard(enum.AccessEdit)).Post("/", h.Create)
	r.With(guard(enum.AccessEdit)).Delete("/{id}", h.Delete)
}

type createStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Branch   string `json:"branch"`
}

// List handles GET /staff?branch=.
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	branch := strings.TrimSpace(r.URL.Query().Get("branch"))
	if claims.Role != enum.RoleAdmin {
		branch = claims.Branch
	}
	writeJSON(w, http.StatusOK, h.dir.List(branch))
}

// Create handles POST /staff.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	var req createStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if claims.Role != enum.RoleAdmin {
		if req.Branch != "" && !strings.EqualFold(req.Branch, claims.Branch) {
			writeError(w, http.StatusForbidden, "access denied for this branch")
			return
		}
		req.Branch = claims.Branch
		if req.Role == enum.RoleAdmin {
			writeError(w, http.StatusForbidden, "only admins can create admins")
			return
		}
	}

	member, err := h.dir.Add(staff.NewMember{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Branch:   req.Branch,
	})
	switch {
	case errors.Is(err, staff.ErrInvalidMember):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, staff.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		internalError(w, h.log, "add staff", err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// Delete handles DELETE /staff/{id}. Members are deactivated, not removed.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid staff ID")
		return
	}
	if id == claims.StaffID {
		writeError(w, http.StatusConflict, "cannot deactivate your own account")
		return
	}

	member, err := h.dir.Get(id)
	if err != nil || (claims.Role != enum.RoleAdmin && !strings.EqualFold(member.Branch, claims.Branch)) {
		writeError(w, http.StatusNotFound, "staff member not found")
		return
	}

	if err := h.dir.Deactivate(id); err != nil {
		if errors.Is(err, staff.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "staff member not found")
			return
		}
		internalError(w, h.log, "deactivate staff", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
