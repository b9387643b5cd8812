package kitchen_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/kitchen"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

func items(statuses ...string) []kitchen.Item {
	out := make([]kitchen.Item, len(statuses))
	for i, s := range statuses {
		out[i] = kitchen.Item{Name: "item", Quantity: 1, Status: s}
	}
	return out
}

func TestDeriveStatus(t *testing.T) {
	const (
		pending   = enum.OrderItemStatusPending
		preparing = enum.OrderItemStatusPreparing
		ready     = enum.OrderItemStatusReady
		served    = enum.OrderItemStatusServed
	)
	tests := []struct {
		name  string
		items []kitchen.Item
		want  string
	}{
		{"all ready", items(ready, ready), enum.OrderStatusReady},
		{"pending and preparing", items(pending, preparing), enum.OrderStatusPreparing},
		{"all pending", items(pending, pending), enum.OrderStatusNew},
		{"ready and served", items(ready, served), enum.OrderStatusReady},
		{"pending and ready", items(pending, ready), enum.OrderStatusPreparing},
		{"pending and served", items(pending, served), enum.OrderStatusPreparing},
		{"served then pending", items(served, pending), enum.OrderStatusPreparing},
		{"served and preparing", items(served, preparing), enum.OrderStatusPreparing},
		{"all served", items(served, served), enum.OrderStatusReady},
		{"no items", nil, enum.OrderStatusNew},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kitchen.DeriveStatus(tt.items); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
			// pure: same input, same output
			if again := kitchen.DeriveStatus(tt.items); again != tt.want {
				t.Errorf("second call: got %s, want %s", again, tt.want)
			}
		})
	}
}

type fixture struct {
	store   *order.MemoryStore
	tracker *kitchen.Tracker
	changes []kitchen.Order
}

func newFixture() *fixture {
	f := &fixture{store: order.NewMemoryStore()}
	f.tracker = kitchen.NewTracker(kitchen.StoreSink{Store: f.store}, nil)
	f.tracker.OnChange(func(o kitchen.Order) { f.changes = append(f.changes, o) })
	f.store.Subscribe(f.tracker.HandleEvent)
	return f
}

func (f *fixture) place(t *testing.T, priority string, n int) order.Order {
	t.Helper()
	o := order.Order{
		Type:          enum.OrderTypeDineIn,
		Table:         "T1",
		PaymentMethod: enum.PaymentMethodCard,
		PaymentStatus: enum.PaymentStatusCompleted,
		Status:        enum.OrderStatusNew,
		Priority:      priority,
		Branch:        "Downtown",
	}
	for i := 0; i < n; i++ {
		o.Items = append(o.Items, order.Item{
			MenuItemID: uuid.NewString(),
			Name:       "dish",
			Price:      decimal.NewFromInt(5),
			Quantity:   1,
			Status:     enum.OrderItemStatusPending,
		})
	}
	placed, err := f.store.Place(context.Background(), o)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	return placed
}

func TestTracker_IngestsPlacedOrders(t *testing.T) {
	f := newFixture()
	o := f.place(t, enum.PriorityNormal, 2)

	ko, err := f.tracker.Get(o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ko.Status != enum.OrderStatusNew || len(ko.Items) != 2 {
		t.Errorf("projection: status %s, %d items", ko.Status, len(ko.Items))
	}
	if len(f.changes) != 1 {
		t.Errorf("changes: got %d, want 1", len(f.changes))
	}
}

func TestTracker_AdvanceItemSyncsStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.place(t, enum.PriorityNormal, 2)

	ko, err := f.tracker.AdvanceItem(ctx, o.ID, 0)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if ko.Items[0].Status != enum.OrderItemStatusPreparing {
		t.Errorf("item status: got %s, want PREPARING", ko.Items[0].Status)
	}
	if ko.Status != enum.OrderStatusPreparing {
		t.Errorf("order status: got %s, want PREPARING", ko.Status)
	}

	stored, _ := f.store.Get(ctx, o.ID)
	if stored.Status != enum.OrderStatusPreparing {
		t.Errorf("stored status: got %s, want PREPARING", stored.Status)
	}
	if stored.Items[0].Status != enum.OrderItemStatusPreparing {
		t.Errorf("stored item status: got %s", stored.Items[0].Status)
	}
}

func TestTracker_AdvanceItemThroughServed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.place(t, enum.PriorityNormal, 1)

	want := []string{enum.OrderItemStatusPreparing, enum.OrderItemStatusReady, enum.OrderItemStatusServed}
	for _, w := range want {
		ko, err := f.tracker.AdvanceItem(ctx, o.ID, 0)
		if err != nil {
			t.Fatalf("advance to %s: %v", w, err)
		}
		if ko.Items[0].Status != w {
			t.Fatalf("item status: got %s, want %s", ko.Items[0].Status, w)
		}
	}

	if _, err := f.tracker.AdvanceItem(ctx, o.ID, 0); !errors.Is(err, kitchen.ErrItemServed) {
		t.Errorf("advance served: got %v, want ErrItemServed", err)
	}
	if _, err := f.tracker.AdvanceItem(ctx, o.ID, 5); !errors.Is(err, kitchen.ErrItemNotFound) {
		t.Errorf("advance out of range: got %v, want ErrItemNotFound", err)
	}
}

func TestTracker_SetItemStatusRejectsRegression(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.place(t, enum.PriorityNormal, 1)

	if _, err := f.tracker.SetItemStatus(ctx, o.ID, 0, enum.OrderItemStatusReady); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	_, err := f.tracker.SetItemStatus(ctx, o.ID, 0, enum.OrderItemStatusPreparing)
	if !errors.Is(err, kitchen.ErrInvalidItemTransition) {
		t.Fatalf("regression: got %v, want ErrInvalidItemTransition", err)
	}
	_, err = f.tracker.SetItemStatus(ctx, o.ID, 0, "BURNT")
	if !errors.Is(err, kitchen.ErrInvalidItemTransition) {
		t.Fatalf("unknown status: got %v, want ErrInvalidItemTransition", err)
	}
}

func TestTracker_MarkOrderReady(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.place(t, enum.PriorityNormal, 3)
	f.tracker.AdvanceItem(ctx, o.ID, 1)

	ko, err := f.tracker.MarkOrderReady(ctx, o.ID)
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	for i, it := range ko.Items {
		if it.Status != enum.OrderItemStatusReady {
			t.Errorf("item[%d]: got %s, want READY", i, it.Status)
		}
	}
	if ko.Status != enum.OrderStatusReady {
		t.Errorf("status: got %s, want READY", ko.Status)
	}
	stored, _ := f.store.Get(ctx, o.ID)
	if stored.Status != enum.OrderStatusReady {
		t.Errorf("stored status: got %s, want READY", stored.Status)
	}
}

func TestTracker_CompleteOrderStopsAging(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	done := f.place(t, enum.PriorityNormal, 2)
	open := f.place(t, enum.PriorityNormal, 1)

	ko, err := f.tracker.CompleteOrder(ctx, done.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	for i, it := range ko.Items {
		if it.Status != enum.OrderItemStatusServed {
			t.Errorf("item[%d]: got %s, want SERVED", i, it.Status)
		}
	}
	if ko.Status != enum.OrderStatusCompleted {
		t.Fatalf("status: got %s, want COMPLETED", ko.Status)
	}

	openBefore, _ := f.tracker.Get(open.ID)
	f.tracker.Tick(5 * time.Second)
	f.tracker.Tick(5 * time.Second)

	doneAfter, _ := f.tracker.Get(done.ID)
	if doneAfter.Elapsed != ko.Elapsed {
		t.Errorf("completed order aged: %v -> %v", ko.Elapsed, doneAfter.Elapsed)
	}
	openAfter, _ := f.tracker.Get(open.ID)
	if openAfter.Elapsed-openBefore.Elapsed != 10*time.Second {
		t.Errorf("open order elapsed delta: got %v, want 10s", openAfter.Elapsed-openBefore.Elapsed)
	}

	if _, err := f.tracker.MarkOrderReady(ctx, done.ID); !errors.Is(err, kitchen.ErrOrderCompleted) {
		t.Errorf("mark ready after complete: got %v, want ErrOrderCompleted", err)
	}
	stored, _ := f.store.Get(ctx, done.ID)
	if stored.Status != enum.OrderStatusCompleted {
		t.Errorf("stored status: got %s, want COMPLETED", stored.Status)
	}
}

func TestTracker_CancelledOrderLeavesBoard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.place(t, enum.PriorityNormal, 1)

	if _, err := order.Cancel(ctx, f.store, o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.tracker.Get(o.ID); !errors.Is(err, kitchen.ErrOrderNotFound) {
		t.Fatalf("get cancelled: got %v, want ErrOrderNotFound", err)
	}
	last := f.changes[len(f.changes)-1]
	if last.Status != enum.OrderStatusCancelled {
		t.Errorf("last change status: got %s, want CANCELLED", last.Status)
	}
}

func TestTracker_StoreCompletionMergesIntoBoard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	o := f.place(t, enum.PriorityNormal, 2)

	if _, err := order.UpdateStatus(ctx, f.store, o.ID, enum.OrderStatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	ko, _ := f.tracker.Get(o.ID)
	if ko.Status != enum.OrderStatusCompleted {
		t.Fatalf("board status: got %s, want COMPLETED", ko.Status)
	}
	for _, it := range ko.Items {
		if it.Status != enum.OrderItemStatusServed {
			t.Errorf("item status: got %s, want SERVED", it.Status)
		}
	}
}

func TestTracker_ListSortsByPriorityThenAge(t *testing.T) {
	f := newFixture()
	normal := f.place(t, enum.PriorityNormal, 1)
	rush := f.place(t, enum.PriorityRush, 1)
	high := f.place(t, enum.PriorityHigh, 1)
	rush2 := f.place(t, enum.PriorityRush, 1)

	got := f.tracker.List()
	want := []uuid.UUID{rush.ID, rush2.ID, high.ID, normal.ID}
	if len(got) != len(want) {
		t.Fatalf("list: got %d orders, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i].OrderNumber, want[i])
		}
	}
}

func TestTracker_RunStopsOnCancel(t *testing.T) {
	f := newFixture()
	o := f.place(t, enum.PriorityNormal, 1)
	before, _ := f.tracker.Get(o.ID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.tracker.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	after, _ := f.tracker.Get(o.ID)
	if after.Elapsed <= before.Elapsed {
		t.Errorf("expected aging while running: %v -> %v", before.Elapsed, after.Elapsed)
	}
}

func TestScheduleArrival(t *testing.T) {
	t.Run("fires once", func(t *testing.T) {
		fired := make(chan struct{}, 2)
		kitchen.ScheduleArrival(context.Background(), 5*time.Millisecond, func(context.Context) {
			fired <- struct{}{}
		})
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("arrival did not fire")
		}
		select {
		case <-fired:
			t.Fatal("arrival fired twice")
		case <-time.After(30 * time.Millisecond):
		}
	})

	t.Run("cancelled before delay", func(t *testing.T) {
		fired := make(chan struct{}, 1)
		ctx, cancel := context.WithCancel(context.Background())
		kitchen.ScheduleArrival(ctx, 20*time.Millisecond, func(context.Context) {
			fired <- struct{}{}
		})
		cancel()
		select {
		case <-fired:
			t.Fatal("arrival fired after cancel")
		case <-time.After(60 * time.Millisecond):
		}
	})
}

func TestSyntheticOrderReachesBoard(t *testing.T) {
	f := newFixture()
	o, err := kitchen.SyntheticOrder(menu.DefaultCatalog(), decimal.RequireFromString("0.08"), "Downtown")
	if err != nil {
		t.Fatalf("synthetic order: %v", err)
	}
	placed, err := f.store.Place(context.Background(), o)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	ko, err := f.tracker.Get(placed.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if ko.Priority != enum.PriorityHigh || len(ko.Items) != 2 {
		t.Errorf("synthetic projection: priority %s, %d items", ko.Priority, len(ko.Items))
	}
	// 12.99 + 14.99 = 27.98; tax 2.2384
	if placed.Total.String() != "30.22" {
		t.Errorf("total: got %s, want 30.22", placed.Total)
	}
}
