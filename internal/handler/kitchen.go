package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/kitchen"
)

// KitchenBoard defines the tracker methods needed by kitchen handlers.
// Satisfied by *kitchen.Tracker; narrow interface for testability.
type KitchenBoard interface {
	Get(id uuid.UUID) (kitchen.Order, error)
	List() []kitchen.Order
	AdvanceItem(ctx context.Context, id uuid.UUID, index int) (kitchen.Order, error)
	MarkOrderReady(ctx context.Context, id uuid.UUID) (kitchen.Order, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (kitchen.Order, error)
}

type KitchenHandler struct {
	board KitchenBoard
	log   *zap.Logger
}

func NewKitchenHandler(board KitchenBoard, log *zap.Logger) *KitchenHandler {
	return &KitchenHandler{board: board, log: nopLogger(log)}
}

// RegisterRoutes is expected to be mounted at /kitchen.
func (h *KitchenHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.With(guard(enum.AccessReadOnly)).Get("/orders", h.List)
	r.Group(func(r chi.Router) {
		r.Use(guard(enum.AccessEdit))
		r.Post("/orders/{id}/items/{index}/advance", h.AdvanceItem)
		r.Post("/orders/{id}/ready", h.MarkReady)
		r.Post("/orders/{id}/complete", h.Complete)
	})
}

// RegisterBranchRoutes is expected to be mounted at /branches/{branch}
// behind middleware.RequireBranch.
func (h *KitchenHandler) RegisterBranchRoutes(r chi.Router, guard Guard) {
	r.With(guard(enum.AccessReadOnly)).Get("/kitchen/orders", h.BranchList)
}

// BranchList handles GET /branches/{branch}/kitchen/orders for a single
// station display.
func (h *KitchenHandler) BranchList(w http.ResponseWriter, r *http.Request) {
	branch := chi.URLParam(r, "branch")
	all := h.board.List()
	out := make([]kitchen.Order, 0, len(all))
	for _, o := range all {
		if strings.EqualFold(o.Branch, branch) {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// List handles GET /kitchen/orders, highest priority first. Non-admins see
// their own branch.
func (h *KitchenHandler) List(w http.ResponseWriter, r *http.Request) {
	all := h.board.List()
	out := make([]kitchen.Order, 0, len(all))
	for _, o := range all {
		if canSeeBranch(r, o.Branch) {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// target resolves {id} on the board and applies branch scoping.
func (h *KitchenHandler) target(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return uuid.Nil, false
	}
	o, err := h.board.Get(id)
	if err != nil || !canSeeBranch(r, o.Branch) {
		writeError(w, http.StatusNotFound, "kitchen order not found")
		return uuid.Nil, false
	}
	return id, true
}

// AdvanceItem handles POST /kitchen/orders/{id}/items/{index}/advance.
func (h *KitchenHandler) AdvanceItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.target(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item index")
		return
	}
	o, err := h.board.AdvanceItem(r.Context(), id, index)
	h.respond(w, "advance kitchen item", o, err)
}

func (h *KitchenHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	id, ok := h.target(w, r)
	if !ok {
		return
	}
	o, err := h.board.MarkOrderReady(r.Context(), id)
	h.respond(w, "mark kitchen order ready", o, err)
}

func (h *KitchenHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.target(w, r)
	if !ok {
		return
	}
	o, err := h.board.CompleteOrder(r.Context(), id)
	h.respond(w, "complete kitchen order", o, err)
}

func (h *KitchenHandler) respond(w http.ResponseWriter, op string, o kitchen.Order, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, o)
	case errors.Is(err, kitchen.ErrOrderNotFound), errors.Is(err, kitchen.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, kitchen.ErrItemServed), errors.Is(err, kitchen.ErrInvalidItemTransition), errors.Is(err, kitchen.ErrOrderCompleted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		internalError(w, h.log, op, err)
	}
}
