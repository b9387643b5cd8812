package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/cart"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

// Errors returned by the checkout service.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidOrderType     = errors.New("invalid order_type")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrTableRequired        = errors.New("table is required for DINE_IN orders")
	ErrAddressRequired      = errors.New("delivery_address is required for DELIVERY orders")
)

// Cart is the part of *cart.Cart checkout consumes. Claim must fail with
// cart.ErrCartClosed while another checkout holds the cart.
type Cart interface {
	Claim() (cart.Snapshot, error)
	Release()
	Clear()
}

// CheckoutRequest is the checkout form submitted with a cart.
type CheckoutRequest struct {
	PaymentMethod   string
	OrderType       string
	Table           string
	Customer        string
	DeliveryAddress string
	Priority        string
	Notes           string
	AmountReceived  decimal.Decimal
	Staff           string
	Branch          string
}

// CheckoutService turns carts into placed orders.
type CheckoutService struct {
	store   order.Store
	taxRate decimal.Decimal
	delay   time.Duration
	log     *zap.Logger
}

// NewCheckoutService creates a CheckoutService. delay is an optional fixed
// pause before an order is finalised.
func NewCheckoutService(store order.Store, taxRate decimal.Decimal, delay time.Duration, log *zap.Logger) *CheckoutService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutService{store: store, taxRate: taxRate, delay: delay, log: log}
}

// ProcessPayment validates the request, takes payment, places the order and
// clears the cart. The cart is closed to edits while the checkout runs and is
// reopened untouched on any error.
func (s *CheckoutService) ProcessPayment(ctx context.Context, c Cart, req CheckoutRequest) (order.Order, error) {
	return s.checkout(ctx, c, req, true)
}

// PlaceOrder places the order with payment pending; payment is settled later
// with order.SettlePayment.
func (s *CheckoutService) PlaceOrder(ctx context.Context, c Cart, req CheckoutRequest) (order.Order, error) {
	return s.checkout(ctx, c, req, false)
}

func (s *CheckoutService) checkout(ctx context.Context, c Cart, req CheckoutRequest, pay bool) (order.Order, error) {
	req, err := normaliseRequest(req)
	if err != nil {
		return order.Order{}, err
	}

	snap, err := c.Claim()
	if err != nil {
		return order.Order{}, err
	}
	placed, err := s.place(ctx, snap, req, pay)
	if err != nil {
		c.Release()
		return order.Order{}, err
	}
	// the cart stays claimed so nothing added after the snapshot is lost
	c.Clear()

	s.log.Info("order placed",
		zap.String("order_number", placed.OrderNumber),
		zap.String("branch", placed.Branch),
		zap.String("payment_status", placed.PaymentStatus),
		zap.String("total", placed.Total.StringFixed(2)),
	)
	return placed, nil
}

func (s *CheckoutService) place(ctx context.Context, snap cart.Snapshot, req CheckoutRequest, pay bool) (order.Order, error) {
	if len(snap.Items) == 0 {
		return order.Order{}, ErrEmptyCart
	}

	totals, err := snap.Totals(s.taxRate)
	if err != nil {
		return order.Order{}, fmt.Errorf("compute totals: %w", err)
	}

	o := order.Order{
		Items:           make([]order.Item, len(snap.Items)),
		DiscountPct:     snap.DiscountPct,
		Type:            req.OrderType,
		Table:           req.Table,
		Customer:        req.Customer,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   enum.PaymentStatusPending,
		Status:          enum.OrderStatusNew,
		Priority:        req.Priority,
		Staff:           req.Staff,
		Branch:          req.Branch,
		Notes:           req.Notes,
	}
	for i, it := range snap.Items {
		o.Items[i] = order.Item{
			MenuItemID: it.ID,
			Name:       it.Name,
			Category:   it.Category,
			Price:      it.Price,
			Quantity:   it.Quantity,
			Status:     enum.OrderItemStatusPending,
		}
	}
	o.ApplyTotals(totals)

	if pay {
		change, err := order.CashChange(req.PaymentMethod, o.Total, req.AmountReceived)
		if err != nil {
			return order.Order{}, err
		}
		o.PaymentStatus = enum.PaymentStatusCompleted
		o.AmountReceived = req.AmountReceived
		o.ChangeDue = change
		if req.PaymentMethod != enum.PaymentMethodCash {
			o.AmountReceived = o.Total
		}
	}

	if err := s.wait(ctx); err != nil {
		return order.Order{}, err
	}

	placed, err := s.store.Place(ctx, o)
	if err != nil {
		return order.Order{}, fmt.Errorf("place order: %w", err)
	}
	return placed, nil
}

// wait sleeps for the configured delay unless ctx ends first.
func (s *CheckoutService) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func normaliseRequest(req CheckoutRequest) (CheckoutRequest, error) {
	req.PaymentMethod = strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	req.OrderType = strings.ToUpper(strings.TrimSpace(req.OrderType))
	req.Priority = strings.ToUpper(strings.TrimSpace(req.Priority))
	req.Table = strings.TrimSpace(req.Table)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.Customer = strings.TrimSpace(req.Customer)

	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return req, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	if !enum.IsValidOrderType(req.OrderType) {
		return req, fmt.Errorf("%w: %q", ErrInvalidOrderType, req.OrderType)
	}
	if req.Priority == "" {
		req.Priority = enum.PriorityNormal
	}
	if !enum.IsValidPriority(req.Priority) {
		return req, fmt.Errorf("%w: %q", ErrInvalidPriority, req.Priority)
	}
	switch req.OrderType {
	case enum.OrderTypeDineIn:
		if req.Table == "" {
			return req, ErrTableRequired
		}
	case enum.OrderTypeDelivery:
		if req.DeliveryAddress == "" {
			return req, ErrAddressRequired
		}
	}
	if req.AmountReceived.IsNegative() {
		return req, fmt.Errorf("%w: negative amount_received", order.ErrInsufficientCash)
	}
	return req, nil
}
