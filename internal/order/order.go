package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrder       = errors.New("order already exists")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyPaid          = errors.New("order is already paid")
	ErrOrderCancelled       = errors.New("order is cancelled")
	ErrInsufficientCash     = errors.New("amount received is less than total")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// Item is one order line. Status is the per-item kitchen state.
type Item struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Status     string          `json:"status"`
}

// Order is the canonical order record shared by checkout, kitchen and reports.
type Order struct {
	ID          uuid.UUID `json:"id"`
	Number      int64     `json:"-"`
	OrderNumber string    `json:"order_number"`
	Items       []Item    `json:"items"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountPct    decimal.Decimal `json:"discount_pct"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Tax            decimal.Decimal `json:"tax"`
	Tip            decimal.Decimal `json:"tip"`
	Total          decimal.Decimal `json:"total"`

	Type            string `json:"type"`
	Table           string `json:"table,omitempty"`
	Customer        string `json:"customer,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`

	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	ChangeDue      decimal.Decimal `json:"change_due"`

	Status   string `json:"status"`
	Priority string `json:"priority"`
	Staff    string `json:"staff"`
	Branch   string `json:"branch"`
	Notes    string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Revision is 1 when placed and grows by one with every stored update.
	Revision int64 `json:"revision"`
}

// FormatNumber renders a sequence number as ORD-0001.
func FormatNumber(n int64) string {
	return fmt.Sprintf("ORD-%04d", n)
}

// Clone returns a copy that shares no mutable state with o.
func (o Order) Clone() Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

// ApplyTotals copies rounded totals onto the order.
func (o *Order) ApplyTotals(t pricing.Totals) {
	r := t.Rounded()
	o.Subtotal = r.Subtotal
	o.DiscountAmount = r.DiscountAmount
	o.Tax = r.Tax
	o.Tip = r.Tip
	o.Total = r.Total
}

// IsTerminal reports whether no further status change is possible.
func (o Order) IsTerminal() bool {
	return o.Status == enum.OrderStatusCompleted || o.Status == enum.OrderStatusCancelled
}

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusNew:       {enum.OrderStatusPreparing, enum.OrderStatusReady, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

// ValidateTransition checks if the transition from current to next is allowed.
func ValidateTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: cannot transition from %s", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}
