package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/middleware"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/receipt"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/report"
)

// OrderStore defines the store methods needed by order handlers.
// Satisfied by *order.MemoryStore and *database.OrderRepository; narrow
// interface for testability.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (order.Order, error)
	List(ctx context.Context) ([]order.Order, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*order.Order) error) (order.Order, error)
	Subscribe(l order.Listener) func()
}

// ReceiptLocator reports where an order's receipt was archived.
// Satisfied by *receipt.Archiver; narrow interface for testability.
type ReceiptLocator interface {
	URL(id uuid.UUID) (string, bool)
}

// OrderHandler handles order history, status, payment and receipt endpoints.
type OrderHandler struct {
	store      OrderStore
	receipts   ReceiptLocator
	pageSize   int
	restaurant string
	loc        *time.Location
	log        *zap.Logger
}

func NewOrderHandler(store OrderStore, pageSize int, restaurant string, loc *time.Location, log *zap.Logger) *OrderHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderHandler{store: store, pageSize: pageSize, restaurant: restaurant, loc: loc, log: nopLogger(log)}
}

// WithReceipts makes GET /orders/{id} report archived receipt URLs.
func (h *OrderHandler) WithReceipts(rl ReceiptLocator) *OrderHandler {
	h.receipts = rl
	return h
}

// RegisterRoutes is expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.With(guard(enum.AccessReadOnly)).Get("/", h.List)
	r.Route("/{id}", func(r chi.Router) {
		r.With(guard(enum.AccessReadOnly)).Get("/", h.Get)
		r.With(guard(enum.AccessReadOnly)).Get("/receipt", h.Receipt)
		r.With(guard(enum.AccessEdit)).Patch("/status", h.UpdateStatus)
		r.With(guard(enum.AccessEdit)).Post("/payments", h.Pay)
		r.With(guard(enum.AccessEdit)).Delete("/", h.Cancel)
	})
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type paymentRequest struct {
	PaymentMethod  string          `json:"payment_method"`
	AmountReceived decimal.Decimal `json:"amount_received"`
}

type orderItemResponse struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Items           []orderItemResponse `json:"items"`
	Subtotal        string              `json:"subtotal"`
	DiscountPct     string              `json:"discount_pct"`
	DiscountAmount  string              `json:"discount_amount"`
	Tax             string              `json:"tax"`
	Tip             string              `json:"tip"`
	Total           string              `json:"total"`
	Type            string              `json:"type"`
	Table           string              `json:"table,omitempty"`
	Customer        string              `json:"customer,omitempty"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	AmountReceived  string              `json:"amount_received"`
	ChangeDue       string              `json:"change_due"`
	Status          string              `json:"status"`
	Priority        string              `json:"priority"`
	Staff           string              `json:"staff"`
	Branch          string              `json:"branch"`
	Notes           string              `json:"notes,omitempty"`
	ReceiptURL      string              `json:"receipt_url,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Revision        int64               `json:"revision"`
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalItems int             `json:"total_items"`
	TotalPages int             `json:"total_pages"`
	Pages      []int           `json:"pages"`
}

func toOrderResponse(o order.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Items:           make([]orderItemResponse, len(o.Items)),
		Subtotal:        pricing.Format(o.Subtotal),
		DiscountPct:     o.DiscountPct.String(),
		DiscountAmount:  pricing.Format(o.DiscountAmount),
		Tax:             pricing.Format(o.Tax),
		Tip:             pricing.Format(o.Tip),
		Total:           pricing.Format(o.Total),
		Type:            o.Type,
		Table:           o.Table,
		Customer:        o.Customer,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		AmountReceived:  pricing.Format(o.AmountReceived),
		ChangeDue:       pricing.Format(o.ChangeDue),
		Status:          o.Status,
		Priority:        o.Priority,
		Staff:           o.Staff,
		Branch:          o.Branch,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Revision:        o.Revision,
	}
	for i, it := range o.Items {
		resp.Items[i] = orderItemResponse{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Category:   it.Category,
			Price:      pricing.Format(it.Price),
			Quantity:   it.Quantity,
			Status:     it.Status,
		}
	}
	return resp
}

// --- Handlers ---

// List handles GET /orders with the report filters, sort and page params.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sort, err := parseSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.store.List(r.Context())
	if err != nil {
		internalError(w, h.log, "list orders", err)
		return
	}

	rows := report.Apply(orders, filter)
	if err := report.SortOrders(rows, sort); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page := report.Paginate(rows, intQuery(r, "page", 1), h.pageSize)

	resp := orderPageResponse{
		Orders:     make([]orderResponse, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Pages:      report.PageWindow(page.Page, page.TotalPages, pageWindowSize),
	}
	for i, o := range page.Items {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// load fetches {id} and enforces branch scoping. It writes the error
// response and returns false on failure.
func (h *OrderHandler) load(w http.ResponseWriter, r *http.Request) (order.Order, bool) {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return order.Order{}, false
	}
	o, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return order.Order{}, false
		}
		internalError(w, h.log, "get order", err)
		return order.Order{}, false
	}
	if !canSeeBranch(r, o.Branch) {
		writeError(w, http.StatusNotFound, "order not found")
		return order.Order{}, false
	}
	return o, true
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	resp := toOrderResponse(o)
	if h.receipts != nil {
		resp.ReceiptURL, _ = h.receipts.URL(o.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !enum.IsValidOrderStatus(status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid status %q", req.Status))
		return
	}

	// item states move with the order so the kitchen board derives the same status
	updated, err := h.store.Update(r.Context(), o.ID, func(o *order.Order) error {
		if err := order.ValidateTransition(o.Status, status); err != nil {
			return err
		}
		o.Status = status
		alignItems(o.Items, status)
		return nil
	})
	h.respondUpdate(w, "update order status", updated, err)
}

// alignItems raises item states to match an order status set by hand.
func alignItems(items []order.Item, status string) {
	switch status {
	case enum.OrderStatusPreparing:
		// start the first item unless the kitchen already has
		for _, it := range items {
			if it.Status != enum.OrderItemStatusPending {
				return
			}
		}
		if len(items) > 0 {
			items[0].Status = enum.OrderItemStatusPreparing
		}
	case enum.OrderStatusReady:
		for i := range items {
			if items[i].Status == enum.OrderItemStatusPending || items[i].Status == enum.OrderItemStatusPreparing {
				items[i].Status = enum.OrderItemStatusReady
			}
		}
	case enum.OrderStatusCompleted:
		for i := range items {
			items[i].Status = enum.OrderItemStatusServed
		}
	}
}

// Cancel handles DELETE /orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	updated, err := order.Cancel(r.Context(), h.store, o.ID)
	h.respondUpdate(w, "cancel order", updated, err)
}

// Pay handles POST /orders/{id}/payments for orders placed with pay later.
func (h *OrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	method := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	updated, err := order.SettlePayment(r.Context(), h.store, o.ID, method, req.AmountReceived)
	h.respondUpdate(w, "settle payment", updated, err)
}

func (h *OrderHandler) respondUpdate(w http.ResponseWriter, op string, o order.Order, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toOrderResponse(o))
	case errors.Is(err, order.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrInvalidPaymentMethod), errors.Is(err, order.ErrInsufficientCash):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, order.ErrAlreadyPaid), errors.Is(err, order.ErrOrderCancelled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		internalError(w, h.log, op, err)
	}
}

// Receipt handles GET /orders/{id}/receipt and returns a PDF.
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	pdf, err := receipt.Render(o, h.restaurant)
	if err != nil {
		internalError(w, h.log, "render receipt", err)
		return
	}
	w.Header().Set("Content-Type", receipt.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", o.OrderNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// canSeeBranch reports whether the caller may see orders of branch.
// Admins see every branch.
func canSeeBranch(r *http.Request, branch string) bool {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return false
	}
	return claims.Role == enum.RoleAdmin || strings.EqualFold(claims.Branch, branch)
}
