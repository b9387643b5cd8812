package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/cart"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/middleware"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/service"
)

// CartRegistry holds open carts.
// Satisfied by *cart.Registry; narrow interface for testability.
type CartRegistry interface {
	Create() *cart.Cart
	Get(id uuid.UUID) (*cart.Cart, error)
	Delete(id uuid.UUID) error
}

// Checkouter places orders from carts.
// Satisfied by *service.CheckoutService; narrow interface for testability.
type Checkouter interface {
	ProcessPayment(ctx context.Context, c service.Cart, req service.CheckoutRequest) (order.Order, error)
	PlaceOrder(ctx context.Context, c service.Cart, req service.CheckoutRequest) (order.Order, error)
}

// CartHandler serves the order builder and checkout.
type CartHandler struct {
	carts    CartRegistry
	catalog  MenuCatalog
	checkout Checkouter
	taxRate  decimal.Decimal
	log      *zap.Logger
}

func NewCartHandler(carts CartRegistry, catalog MenuCatalog, checkout Checkouter, taxRate decimal.Decimal, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, checkout: checkout, taxRate: taxRate, log: nopLogger(log)}
}

// RegisterRoutes is expected to be mounted at /carts.
func (h *CartHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.Use(guard(enum.AccessEdit))
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{itemID}", h.UpdateItem)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Put("/adjustments", h.SetAdjustments)
		r.Post("/checkout", h.Checkout)
	})
}

// --- Request / Response types ---

type addCartItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

type adjustmentsRequest struct {
	DiscountPct *decimal.Decimal `json:"discount_pct"`
	TipPct      *decimal.Decimal `json:"tip_pct"`
}

type checkoutRequest struct {
	PaymentMethod   string          `json:"payment_method"`
	OrderType       string          `json:"order_type"`
	Table           string          `json:"table"`
	Customer        string          `json:"customer"`
	DeliveryAddress string          `json:"delivery_address"`
	Priority        string          `json:"priority"`
	AmountReceived  decimal.Decimal `json:"amount_received"`
	PayLater        bool            `json:"pay_later"`
	Notes           string          `json:"notes"`
}

type cartItemResponse struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	LineTotal  string `json:"line_total"`
}

type totalsResponse struct {
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discount_amount"`
	Discounted     string `json:"discounted_subtotal"`
	Tax            string `json:"tax"`
	Tip            string `json:"tip"`
	Total          string `json:"total"`
}

type cartResponse struct {
	ID          uuid.UUID          `json:"id"`
	Items       []cartItemResponse `json:"items"`
	ItemCount   int                `json:"item_count"`
	DiscountPct string             `json:"discount_pct"`
	TipPct      string             `json:"tip_pct"`
	Totals      totalsResponse     `json:"totals"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toTotalsResponse(t pricing.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:       pricing.Format(t.Subtotal),
		DiscountAmount: pricing.Format(t.DiscountAmount),
		Discounted:     pricing.Format(t.Discounted),
		Tax:            pricing.Format(t.Tax),
		Tip:            pricing.Format(t.Tip),
		Total:          pricing.Format(t.Total),
	}
}

func (h *CartHandler) toCartResponse(c *cart.Cart) (cartResponse, error) {
	snap := c.Snapshot()
	totals, err := snap.Totals(h.taxRate)
	if err != nil {
		return cartResponse{}, err
	}
	resp := cartResponse{
		ID:          snap.ID,
		Items:       make([]cartItemResponse, len(snap.Items)),
		DiscountPct: snap.DiscountPct.String(),
		TipPct:      snap.TipPct.String(),
		Totals:      toTotalsResponse(totals),
		CreatedAt:   snap.CreatedAt,
	}
	for i, it := range snap.Items {
		resp.ItemCount += it.Quantity
		resp.Items[i] = cartItemResponse{
			MenuItemID: it.ID,
			Name:       it.Name,
			Category:   it.Category,
			Price:      pricing.Format(it.Price),
			Quantity:   it.Quantity,
			LineTotal:  pricing.Format(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		}
	}
	return resp, nil
}

func (h *CartHandler) respond(w http.ResponseWriter, status int, c *cart.Cart) {
	resp, err := h.toCartResponse(c)
	if err != nil {
		internalError(w, h.log, "cart totals", err)
		return
	}
	writeJSON(w, status, resp)
}

// lookup resolves {id}; it writes the error response and returns nil on failure.
func (h *CartHandler) lookup(w http.ResponseWriter, r *http.Request) *cart.Cart {
	id, ok := uuidParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid cart ID")
		return nil
	}
	c, err := h.carts.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return nil
	}
	return c
}

// --- Handlers ---

func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusCreated, h.carts.Create())
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	if c := h.lookup(w, r); c != nil {
		h.respond(w, http.StatusOK, c)
	}
}

func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	h.carts.Delete(c.ID())
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /carts/{id}/items. Adding an item already in the cart
// increments its quantity.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil || req.MenuItemID == "" {
		writeError(w, http.StatusBadRequest, "menu_item_id is required")
		return
	}
	it, err := h.catalog.Get(req.MenuItemID)
	if err != nil {
		if errors.Is(err, menu.ErrItemNotFound) {
			writeError(w, http.StatusBadRequest, "menu item not found")
			return
		}
		internalError(w, h.log, "get menu item", err)
		return
	}
	if err := c.AddItem(it); err != nil {
		h.cartError(w, "add cart item", err)
		return
	}
	h.respond(w, http.StatusOK, c)
}

// UpdateItem handles PATCH /carts/{id}/items/{itemID}. A quantity of zero or
// less removes the row.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	if err := c.UpdateQuantity(chi.URLParam(r, "itemID"), *req.Quantity); err != nil {
		h.cartError(w, "update cart item", err)
		return
	}
	h.respond(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	if err := c.RemoveItem(chi.URLParam(r, "itemID")); err != nil {
		h.cartError(w, "remove cart item", err)
		return
	}
	h.respond(w, http.StatusOK, c)
}

// SetAdjustments handles PUT /carts/{id}/adjustments. Both values are
// validated before either is applied.
func (h *CartHandler) SetAdjustments(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	var req adjustmentsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for name, pct := range map[string]*decimal.Decimal{"discount_pct": req.DiscountPct, "tip_pct": req.TipPct} {
		if pct != nil && pricing.ValidatePct(*pct) != nil {
			writeError(w, http.StatusBadRequest, name+" must be between 0 and 100 with at most two decimals")
			return
		}
	}
	if err := c.SetAdjustments(req.DiscountPct, req.TipPct); err != nil {
		h.cartError(w, "set cart adjustments", err)
		return
	}
	h.respond(w, http.StatusOK, c)
}

// Checkout handles POST /carts/{id}/checkout. The cart is kept on failure so
// the cashier can correct the form.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	c := h.lookup(w, r)
	if c == nil {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svcReq := service.CheckoutRequest{
		PaymentMethod:   req.PaymentMethod,
		OrderType:       req.OrderType,
		Table:           req.Table,
		Customer:        req.Customer,
		DeliveryAddress: req.DeliveryAddress,
		Priority:        req.Priority,
		Notes:           req.Notes,
		AmountReceived:  req.AmountReceived,
		Staff:           claims.StaffID.String(),
		Branch:          claims.Branch,
	}

	place := h.checkout.ProcessPayment
	if req.PayLater {
		place = h.checkout.PlaceOrder
	}
	o, err := place(r.Context(), c, svcReq)
	if err != nil {
		switch {
		case isValidationError(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, cart.ErrCartClosed):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "checkout cancelled")
		default:
			internalError(w, h.log, "checkout", err)
		}
		return
	}

	h.carts.Delete(c.ID())
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *CartHandler) cartError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, cart.ErrItemNotInCart):
		writeError(w, http.StatusNotFound, "item not in cart")
	case errors.Is(err, cart.ErrCartClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrInvalidPercent):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		internalError(w, h.log, op, err)
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyCart) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidPriority) ||
		errors.Is(err, service.ErrTableRequired) ||
		errors.Is(err, service.ErrAddressRequired) ||
		errors.Is(err, order.ErrInsufficientCash) ||
		errors.Is(err, order.ErrInvalidPaymentMethod) ||
		errors.Is(err, pricing.ErrInvalidLine) ||
		errors.Is(err, pricing.ErrInvalidDiscount) ||
		errors.Is(err, pricing.ErrInvalidTip)
}
