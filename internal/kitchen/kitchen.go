package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

var (
	ErrOrderNotFound         = errors.New("kitchen order not found")
	ErrItemNotFound          = errors.New("kitchen item not found")
	ErrItemServed            = errors.New("item already served")
	ErrInvalidItemTransition = errors.New("invalid item status transition")
	ErrOrderCompleted        = errors.New("kitchen order already completed")
)

type Item struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
}

// Order is the kitchen board's view of a canonical order.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	Items       []Item
	Status      string
	Priority    string
	Type        string
	Table       string
	Customer    string
	Branch      string
	Notes       string
	CreatedAt   time.Time
	Elapsed     time.Duration
}

func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID             uuid.UUID `json:"id"`
		OrderNumber    string    `json:"order_number"`
		Items          []Item    `json:"items"`
		Status         string    `json:"status"`
		Priority       string    `json:"priority"`
		Type           string    `json:"type"`
		Table          string    `json:"table,omitempty"`
		Customer       string    `json:"customer,omitempty"`
		Branch         string    `json:"branch"`
		Notes          string    `json:"notes,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
		ElapsedSeconds int64     `json:"elapsed_seconds"`
	}{o.ID, o.OrderNumber, o.Items, o.Status, o.Priority, o.Type, o.Table, o.Customer, o.Branch, o.Notes, o.CreatedAt, int64(o.Elapsed / time.Second)})
}

func (o Order) clone() Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

func itemRank(status string) int {
	switch status {
	case enum.OrderItemStatusPending:
		return 0
	case enum.OrderItemStatusPreparing:
		return 1
	case enum.OrderItemStatusReady:
		return 2
	case enum.OrderItemStatusServed:
		return 3
	}
	return -1
}

var itemSequence = []string{
	enum.OrderItemStatusPending,
	enum.OrderItemStatusPreparing,
	enum.OrderItemStatusReady,
	enum.OrderItemStatusServed,
}

// DeriveStatus reduces item states to an order state: all items ready or
// served is READY, any started item is PREPARING, otherwise NEW. Served items
// count as started, so serving an item never moves the order backwards.
func DeriveStatus(items []Item) string {
	if len(items) == 0 {
		return enum.OrderStatusNew
	}
	allDone, anyStarted := true, false
	for _, it := range items {
		r := itemRank(it.Status)
		if r < 2 {
			allDone = false
		}
		if r >= 1 {
			anyStarted = true
		}
	}
	switch {
	case allDone:
		return enum.OrderStatusReady
	case anyStarted:
		return enum.OrderStatusPreparing
	default:
		return enum.OrderStatusNew
	}
}

func priorityRank(p string) int {
	switch p {
	case enum.PriorityRush:
		return 0
	case enum.PriorityHigh:
		return 1
	}
	return 2
}

// StatusSink receives every kitchen change so the canonical order follows it.
type StatusSink interface {
	Sync(ctx context.Context, o Order) error
}

// Tracker is the kitchen board. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*Order
	sink     StatusSink
	onChange []func(Order)
	log      *zap.Logger
}

func NewTracker(sink StatusSink, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{orders: make(map[uuid.UUID]*Order), sink: sink, log: log}
}

// OnChange registers fn to be called after every board change. A cancelled
// order is reported once with status CANCELLED as it leaves the board.
// Register before the tracker is shared.
func (t *Tracker) OnChange(fn func(Order)) {
	t.onChange = append(t.onChange, fn)
}

// Project builds the kitchen view of a canonical order.
func Project(o order.Order) Order {
	ko := Order{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Items:       make([]Item, len(o.Items)),
		Priority:    o.Priority,
		Type:        o.Type,
		Table:       o.Table,
		Customer:    o.Customer,
		Branch:      o.Branch,
		Notes:       o.Notes,
		CreatedAt:   o.CreatedAt,
	}
	if ko.Priority == "" {
		ko.Priority = enum.PriorityNormal
	}
	for i, it := range o.Items {
		status := it.Status
		if itemRank(status) < 0 {
			status = enum.OrderItemStatusPending
		}
		ko.Items[i] = Item{MenuItemID: it.MenuItemID, Name: it.Name, Quantity: it.Quantity, Status: status}
	}
	ko.Status = DeriveStatus(ko.Items)
	if o.Status == enum.OrderStatusCompleted {
		ko.Status = enum.OrderStatusCompleted
	}
	if !o.CreatedAt.IsZero() {
		ko.Elapsed = time.Since(o.CreatedAt).Truncate(time.Second)
	}
	return ko
}

// Ingest puts a canonical order on the board. Cancelled orders are ignored
// and an order already on the board is left alone.
func (t *Tracker) Ingest(o order.Order) {
	if o.Status == enum.OrderStatusCancelled {
		return
	}
	t.mu.Lock()
	if _, ok := t.orders[o.ID]; ok {
		t.mu.Unlock()
		return
	}
	ko := Project(o)
	t.orders[o.ID] = &ko
	out := ko.clone()
	t.mu.Unlock()

	t.notify(out)
}

// HandleEvent keeps the board in step with the order store.
func (t *Tracker) HandleEvent(e order.Event) {
	switch e.Type {
	case order.EventPlaced:
		t.Ingest(e.Order)
	case order.EventUpdated:
		t.merge(e.Order)
	}
}

// merge applies store-side progress without writing back to the sink.
func (t *Tracker) merge(o order.Order) {
	t.mu.Lock()
	ko, ok := t.orders[o.ID]
	if !ok {
		t.mu.Unlock()
		t.Ingest(o)
		return
	}

	if o.Status == enum.OrderStatusCancelled {
		delete(t.orders, o.ID)
		out := ko.clone()
		out.Status = enum.OrderStatusCancelled
		t.mu.Unlock()
		t.notify(out)
		return
	}

	changed := false
	for i := range ko.Items {
		if i >= len(o.Items) {
			break
		}
		if itemRank(o.Items[i].Status) > itemRank(ko.Items[i].Status) {
			ko.Items[i].Status = o.Items[i].Status
			changed = true
		}
	}
	if o.Status == enum.OrderStatusCompleted && ko.Status != enum.OrderStatusCompleted {
		for i := range ko.Items {
			ko.Items[i].Status = enum.OrderItemStatusServed
		}
		ko.Status = enum.OrderStatusCompleted
		changed = true
	} else if changed && ko.Status != enum.OrderStatusCompleted {
		ko.Status = DeriveStatus(ko.Items)
	}
	out := ko.clone()
	t.mu.Unlock()

	if changed {
		t.notify(out)
	}
}

func (t *Tracker) Get(id uuid.UUID) (Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ko, ok := t.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return ko.clone(), nil
}

// List returns the board ordered by priority (RUSH, HIGH, NORMAL), oldest first.
func (t *Tracker) List() []Order {
	t.mu.Lock()
	out := make([]Order, 0, len(t.orders))
	for _, ko := range t.orders {
		out = append(out, ko.clone())
	}
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].OrderNumber < out[j].OrderNumber
	})
	return out
}

// AdvanceItem moves one item a single step forward.
func (t *Tracker) AdvanceItem(ctx context.Context, id uuid.UUID, index int) (Order, error) {
	return t.mutate(ctx, id, func(ko *Order) error {
		it, err := itemAt(ko, index)
		if err != nil {
			return err
		}
		r := itemRank(it.Status)
		if r >= len(itemSequence)-1 {
			return fmt.Errorf("item[%d]: %w", index, ErrItemServed)
		}
		it.Status = itemSequence[r+1]
		return nil
	})
}

// SetItemStatus sets an item to a later state. Moving backwards or staying
// put is rejected.
func (t *Tracker) SetItemStatus(ctx context.Context, id uuid.UUID, index int, status string) (Order, error) {
	return t.mutate(ctx, id, func(ko *Order) error {
		it, err := itemAt(ko, index)
		if err != nil {
			return err
		}
		if it.Status == enum.OrderItemStatusServed {
			return fmt.Errorf("item[%d]: %w", index, ErrItemServed)
		}
		if itemRank(status) <= itemRank(it.Status) {
			return fmt.Errorf("item[%d]: %w: %s to %s", index, ErrInvalidItemTransition, it.Status, status)
		}
		it.Status = status
		return nil
	})
}

// MarkOrderReady forces every pending or preparing item to READY.
func (t *Tracker) MarkOrderReady(ctx context.Context, id uuid.UUID) (Order, error) {
	return t.mutate(ctx, id, func(ko *Order) error {
		for i := range ko.Items {
			if itemRank(ko.Items[i].Status) < itemRank(enum.OrderItemStatusReady) {
				ko.Items[i].Status = enum.OrderItemStatusReady
			}
		}
		return nil
	})
}

// CompleteOrder serves every item and completes the order. Completed orders
// stop aging.
func (t *Tracker) CompleteOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return t.mutate(ctx, id, func(ko *Order) error {
		for i := range ko.Items {
			ko.Items[i].Status = enum.OrderItemStatusServed
		}
		ko.Status = enum.OrderStatusCompleted
		return nil
	})
}

func itemAt(ko *Order, index int) (*Item, error) {
	if index < 0 || index >= len(ko.Items) {
		return nil, fmt.Errorf("item[%d]: %w", index, ErrItemNotFound)
	}
	return &ko.Items[index], nil
}

// mutate applies fn under the lock, re-derives the status, then syncs and
// notifies outside the lock.
func (t *Tracker) mutate(ctx context.Context, id uuid.UUID, fn func(*Order) error) (Order, error) {
	t.mu.Lock()
	ko, ok := t.orders[id]
	if !ok {
		t.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	if ko.Status == enum.OrderStatusCompleted {
		t.mu.Unlock()
		return Order{}, ErrOrderCompleted
	}
	next := ko.clone()
	if err := fn(&next); err != nil {
		t.mu.Unlock()
		return Order{}, err
	}
	if next.Status != enum.OrderStatusCompleted {
		next.Status = DeriveStatus(next.Items)
	}
	*ko = next
	out := next.clone()
	t.mu.Unlock()

	if t.sink != nil {
		if err := t.sink.Sync(ctx, out); err != nil {
			t.log.Error("kitchen sync", zap.String("order_id", id.String()), zap.Error(err))
		}
	}
	t.notify(out)
	return out, nil
}

func (t *Tracker) notify(o Order) {
	for _, fn := range t.onChange {
		fn(o.clone())
	}
}

// Tick ages every order that is not completed by d.
func (t *Tracker) Tick(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ko := range t.orders {
		if ko.Status != enum.OrderStatusCompleted {
			ko.Elapsed += d
		}
	}
}

// Run ticks every interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(interval)
		}
	}
}
