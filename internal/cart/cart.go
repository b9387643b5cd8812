package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
)

var (
	ErrCartNotFound   = errors.New("cart not found")
	ErrItemNotInCart  = errors.New("item not in cart")
	ErrInvalidPercent = errors.New("percentage must be between 0 and 100 with at most two decimals")
	ErrCartClosed     = errors.New("cart is being checked out")
)

// Item is a menu item with a positive quantity.
type Item struct {
	menu.Item
	Quantity int `json:"quantity"`
}

// Cart accumulates items for one order under construction. Methods are safe
// for concurrent use. A claimed cart rejects edits with ErrCartClosed until it
// is released.
type Cart struct {
	mu          sync.Mutex
	id          uuid.UUID
	items       []Item
	discountPct decimal.Decimal
	tipPct      decimal.Decimal
	createdAt   time.Time
	closed      bool
}

func New() *Cart {
	return &Cart{id: uuid.New(), createdAt: time.Now()}
}

func (c *Cart) ID() uuid.UUID { return c.id }

// AddItem increments the quantity of an existing row or appends a new row with
// quantity 1.
func (c *Cart) AddItem(it menu.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCartClosed
	}
	for i := range c.items {
		if c.items[i].ID == it.ID {
			c.items[i].Quantity++
			return nil
		}
	}
	c.items = append(c.items, Item{Item: it, Quantity: 1})
	return nil
}

// UpdateQuantity sets the quantity of a row. A quantity of zero or less
// removes the row.
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCartClosed
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, itemID)
	}
	if quantity <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return nil
	}
	c.items[i].Quantity = quantity
	return nil
}

func (c *Cart) RemoveItem(itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCartClosed
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrItemNotInCart, itemID)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

func (c *Cart) SetDiscount(pct decimal.Decimal) error {
	return c.SetAdjustments(&pct, nil)
}

func (c *Cart) SetTip(pct decimal.Decimal) error {
	return c.SetAdjustments(nil, &pct)
}

// SetAdjustments validates both percentages and applies the non-nil ones
// together.
func (c *Cart) SetAdjustments(discountPct, tipPct *decimal.Decimal) error {
	if discountPct != nil && pricing.ValidatePct(*discountPct) != nil {
		return fmt.Errorf("discount: %w", ErrInvalidPercent)
	}
	if tipPct != nil && pricing.ValidatePct(*tipPct) != nil {
		return fmt.Errorf("tip: %w", ErrInvalidPercent)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCartClosed
	}
	if discountPct != nil {
		c.discountPct = *discountPct
	}
	if tipPct != nil {
		c.tipPct = *tipPct
	}
	return nil
}

// Clear empties the cart and resets adjustments. It does not reopen a
// claimed cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.discountPct = decimal.Zero
	c.tipPct = decimal.Zero
}

// Snapshot is a consistent copy of the cart's state.
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	Items       []Item          `json:"items"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TipPct      decimal.Decimal `json:"tip_pct"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Claim closes the cart to edits and to other claims, and returns its
// contents. Only one caller can hold a claim at a time.
func (c *Cart) Claim() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Snapshot{}, ErrCartClosed
	}
	c.closed = true
	return c.snapshotLocked(), nil
}

// Release reopens a claimed cart with its contents intact.
func (c *Cart) Release() {
	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()
}

func (c *Cart) snapshotLocked() Snapshot {
	return Snapshot{
		ID:          c.id,
		Items:       append([]Item{}, c.items...),
		DiscountPct: c.discountPct,
		TipPct:      c.tipPct,
		CreatedAt:   c.createdAt,
	}
}

// Lines converts the snapshot into pricing input.
func (s Snapshot) Lines() []pricing.Line {
	lines := make([]pricing.Line, len(s.Items))
	for i, it := range s.Items {
		lines[i] = pricing.Line{Price: it.Price, Quantity: it.Quantity}
	}
	return lines
}

// Totals prices the snapshot with the given tax rate.
func (s Snapshot) Totals(taxRate decimal.Decimal) (pricing.Totals, error) {
	return pricing.ComputeOrderTotals(s.Lines(), pricing.Options{
		TaxRate:     taxRate,
		DiscountPct: s.DiscountPct,
		TipPct:      s.TipPct,
	})
}

func (c *Cart) Totals(taxRate decimal.Decimal) (pricing.Totals, error) {
	return c.Snapshot().Totals(taxRate)
}

func (c *Cart) indexOf(itemID string) int {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// Registry holds open carts by id.
type Registry struct {
	mu    sync.RWMutex
	carts map[uuid.UUID]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[uuid.UUID]*Cart)}
}

func (r *Registry) Create() *Cart {
	c := New()
	r.mu.Lock()
	r.carts[c.id] = c
	r.mu.Unlock()
	return c
}

func (r *Registry) Get(id uuid.UUID) (*Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, ErrCartNotFound
	}
	return c, nil
}

func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[id]; !ok {
		return ErrCartNotFound
	}
	delete(r.carts, id)
	return nil
}
