package order

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
)

const (
	EventPlaced  = "order.placed"
	EventUpdated = "order.updated"
)

type Event struct {
	Type  string `json:"type"`
	Order Order  `json:"order"`
}

// Listener receives events after the write that caused them is visible.
// Listeners must not block for long; they run on the writer's goroutine.
type Listener func(Event)

// Store is the single source of truth for placed orders.
// Satisfied by *MemoryStore and *database.OrderRepository.
type Store interface {
	Place(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	List(ctx context.Context) ([]Order, error)
	// Update applies fn to the current order atomically. If fn returns an
	// error nothing is written.
	Update(ctx context.Context, id uuid.UUID, fn func(*Order) error) (Order, error)
	Subscribe(l Listener) (unsubscribe func())
}

func UpdateStatus(ctx context.Context, s Store, id uuid.UUID, status string) (Order, error) {
	return s.Update(ctx, id, func(o *Order) error {
		if err := ValidateTransition(o.Status, status); err != nil {
			return err
		}
		o.Status = status
		return nil
	})
}

func Cancel(ctx context.Context, s Store, id uuid.UUID) (Order, error) {
	return UpdateStatus(ctx, s, id, enum.OrderStatusCancelled)
}

// SettlePayment records payment for an order placed with payment pending.
func SettlePayment(ctx context.Context, s Store, id uuid.UUID, method string, amountReceived decimal.Decimal) (Order, error) {
	if !enum.IsValidPaymentMethod(method) {
		return Order{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}
	return s.Update(ctx, id, func(o *Order) error {
		if o.Status == enum.OrderStatusCancelled {
			return ErrOrderCancelled
		}
		if o.PaymentStatus == enum.PaymentStatusCompleted {
			return ErrAlreadyPaid
		}
		change, err := CashChange(method, o.Total, amountReceived)
		if err != nil {
			return err
		}
		o.PaymentMethod = method
		o.PaymentStatus = enum.PaymentStatusCompleted
		o.AmountReceived = amountReceived
		o.ChangeDue = change
		if method != enum.PaymentMethodCash {
			o.AmountReceived = o.Total
		}
		return nil
	})
}

// CashChange returns the change due. Only CASH needs an amount received.
func CashChange(method string, total, received decimal.Decimal) (decimal.Decimal, error) {
	if method != enum.PaymentMethodCash {
		return decimal.Zero, nil
	}
	if received.LessThan(total) {
		return decimal.Zero, fmt.Errorf("%w: received %s, total %s", ErrInsufficientCash, received.StringFixed(2), total.StringFixed(2))
	}
	return received.Sub(total), nil
}

// Broadcaster fans events out to subscribers. It is embedded by stores.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener

	pubMu     sync.Mutex
	published map[uuid.UUID]int64
}

func (b *Broadcaster) Subscribe(l Listener) func() {
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish calls every listener with a private copy of the order. Publishes
// are serialised and an event whose revision is not newer than one already
// delivered for the same order is dropped, so listeners never see an order
// go backwards. Unversioned orders (revision 0) are always delivered.
// Listeners may read from the store but must not write to it.
func (b *Broadcaster) Publish(typ string, o Order) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if o.Revision > 0 {
		if b.published == nil {
			b.published = make(map[uuid.UUID]int64)
		}
		if o.Revision <= b.published[o.ID] {
			return
		}
		b.published[o.ID] = o.Revision
	}

	b.mu.RLock()
	ls := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		ls = append(ls, l)
	}
	b.mu.RUnlock()

	for _, l := range ls {
		l(Event{Type: typ, Order: o.Clone()})
	}
}
