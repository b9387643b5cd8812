package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/rbac"
)

// RoleManager defines the role methods needed by role handlers.
// Satisfied by *rbac.Manager; narrow interface for testability.
type RoleManager interface {
	List() []rbac.Role
	Get(id string) (rbac.Role, error)
	Create(name string, perms map[string]string) (rbac.Role, error)
	SetAccess(roleID, pageID, level string) (rbac.Role, error)
	Delete(roleID string) error
}

type RoleHandler struct {
	roles RoleManager
}

func NewRoleHandler(roles RoleManager) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// RegisterRoutes is expected to be mounted at /roles. Changes need FULL
// access, which only admins hold by default.
func (h *RoleHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.With(guard(enum.AccessReadOnly)).Get("/", h.List)
	r.With(guard(enum.AccessReadOnly)).Get("/{id}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(guard(enum.AccessFull))
		r.Post("/", h.Create)
		r.Put("/{id}/permissions/{page}", h.SetAccess)
		r.Delete("/{id}", h.Delete)
	})
}

type createRoleRequest struct {
	Name        string            `json:"name"`
	Permissions map[string]string `json:"permissions"`
}

type setAccessRequest struct {
	AccessLevel string `json:"access_level"`
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.roles.List())
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeRoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := h.roles.Create(req.Name, req.Permissions)
	if err != nil {
		writeRoleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

// SetAccess handles PUT /roles/{id}/permissions/{page}.
func (h *RoleHandler) SetAccess(w http.ResponseWriter, r *http.Request) {
	var req setAccessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := h.roles.SetAccess(chi.URLParam(r, "id"), chi.URLParam(r, "page"), req.AccessLevel)
	if err != nil {
		writeRoleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.Delete(chi.URLParam(r, "id")); err != nil {
		writeRoleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeRoleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrRoleNotFound):
		writeError(w, http.StatusNotFound, "role not found")
	case errors.Is(err, rbac.ErrRoleExists), errors.Is(err, rbac.ErrBuiltInRole):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, rbac.ErrNameRequired), errors.Is(err, rbac.ErrInvalidPage), errors.Is(err, rbac.ErrInvalidAccessLevel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
