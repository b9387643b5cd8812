package cart_test

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/cart"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
)

func mustItem(t *testing.T, id string) menu.Item {
	t.Helper()
	it, err := menu.DefaultCatalog().Get(id)
	if err != nil {
		t.Fatalf("menu item %s: %v", id, err)
	}
	return it
}

func TestAddItem_IncrementsExistingRow(t *testing.T) {
	c := cart.New()
	pizza := mustItem(t, "1")

	c.AddItem(pizza)
	c.AddItem(pizza)

	snap := c.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("rows: got %d, want 1", len(snap.Items))
	}
	if snap.Items[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", snap.Items[0].Quantity)
	}
}

func TestUpdateQuantity_ZeroRemovesRow(t *testing.T) {
	c := cart.New()
	c.AddItem(mustItem(t, "1"))
	c.AddItem(mustItem(t, "9"))

	if err := c.UpdateQuantity("1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := c.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "9" {
		t.Fatalf("expected only cappuccino left, got %+v", snap.Items)
	}
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	c := cart.New()
	if err := c.UpdateQuantity("42", 3); !errors.Is(err, cart.ErrItemNotInCart) {
		t.Fatalf("expected ErrItemNotInCart, got %v", err)
	}
	if err := c.RemoveItem("42"); !errors.Is(err, cart.ErrItemNotInCart) {
		t.Fatalf("expected ErrItemNotInCart, got %v", err)
	}
}

func TestRemoveItem_IgnoresQuantity(t *testing.T) {
	c := cart.New()
	it := mustItem(t, "3")
	c.AddItem(it)
	c.UpdateQuantity("3", 7)

	if err := c.RemoveItem("3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(c.Snapshot().Items); n != 0 {
		t.Errorf("rows: got %d, want 0", n)
	}
}

func TestSubtotalMatchesItemsUnderRandomOps(t *testing.T) {
	catalog := menu.DefaultCatalog()
	items := catalog.List(menu.ListFilter{})
	rng := rand.New(rand.NewSource(7))
	c := cart.New()

	for step := 0; step < 500; step++ {
		it := items[rng.Intn(len(items))]
		switch rng.Intn(3) {
		case 0:
			c.AddItem(it)
		case 1:
			_ = c.UpdateQuantity(it.ID, rng.Intn(6)-2)
		case 2:
			_ = c.RemoveItem(it.ID)
		}

		snap := c.Snapshot()
		want := decimal.Zero
		seen := map[string]bool{}
		for _, row := range snap.Items {
			if seen[row.ID] {
				t.Fatalf("step %d: duplicate row for %s", step, row.ID)
			}
			seen[row.ID] = true
			if row.Quantity <= 0 {
				t.Fatalf("step %d: non-positive quantity %d for %s", step, row.Quantity, row.ID)
			}
			want = want.Add(row.Price.Mul(decimal.NewFromInt(int64(row.Quantity))))
		}

		totals, err := snap.Totals(decimal.Zero)
		if err != nil {
			t.Fatalf("step %d: totals: %v", step, err)
		}
		if !totals.Subtotal.Equal(want) {
			t.Fatalf("step %d: subtotal %s, want %s", step, totals.Subtotal, want)
		}
		if totals.Subtotal.IsNegative() {
			t.Fatalf("step %d: negative subtotal %s", step, totals.Subtotal)
		}
	}
}

func TestTotals_DiscountScenario(t *testing.T) {
	c := cart.New()
	c.AddItem(mustItem(t, "1"))
	c.AddItem(mustItem(t, "9"))
	c.AddItem(mustItem(t, "9"))
	if err := c.SetDiscount(decimal.NewFromInt(10)); err != nil {
		t.Fatalf("set discount: %v", err)
	}

	totals, err := c.Totals(decimal.Zero)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Subtotal.StringFixed(2) != "19.99" {
		t.Errorf("subtotal: got %s, want 19.99", totals.Subtotal)
	}
	if totals.Discounted.StringFixed(2) != "17.99" {
		t.Errorf("discounted: got %s, want 17.99", totals.Discounted.StringFixed(2))
	}
}

func TestSetDiscountAndTip_RejectOutOfRange(t *testing.T) {
	c := cart.New()
	if err := c.SetDiscount(decimal.NewFromInt(-1)); !errors.Is(err, cart.ErrInvalidPercent) {
		t.Errorf("discount -1: got %v, want ErrInvalidPercent", err)
	}
	if err := c.SetTip(decimal.NewFromInt(150)); !errors.Is(err, cart.ErrInvalidPercent) {
		t.Errorf("tip 150: got %v, want ErrInvalidPercent", err)
	}
	if err := c.SetDiscount(decimal.RequireFromString("10.125")); !errors.Is(err, cart.ErrInvalidPercent) {
		t.Errorf("discount 10.125: got %v, want ErrInvalidPercent", err)
	}
	if err := c.SetDiscount(decimal.RequireFromString("12.5")); err != nil {
		t.Errorf("discount 12.5: %v", err)
	}
}

func TestSetAdjustments_AllOrNothing(t *testing.T) {
	c := cart.New()
	discount, tip := decimal.NewFromInt(10), decimal.NewFromInt(101)
	if err := c.SetAdjustments(&discount, &tip); !errors.Is(err, cart.ErrInvalidPercent) {
		t.Fatalf("got %v, want ErrInvalidPercent", err)
	}
	if snap := c.Snapshot(); !snap.DiscountPct.IsZero() {
		t.Errorf("discount applied despite invalid tip: %s", snap.DiscountPct)
	}
}

func TestClaim_ClosesCartUntilReleased(t *testing.T) {
	c := cart.New()
	c.AddItem(mustItem(t, "1"))

	snap, err := c.Claim()
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Errorf("claimed rows: got %d, want 1", len(snap.Items))
	}
	if _, err := c.Claim(); !errors.Is(err, cart.ErrCartClosed) {
		t.Errorf("second claim: got %v, want ErrCartClosed", err)
	}
	edits := map[string]error{
		"add":      c.AddItem(mustItem(t, "9")),
		"quantity": c.UpdateQuantity("1", 3),
		"remove":   c.RemoveItem("1"),
		"discount": c.SetDiscount(decimal.NewFromInt(5)),
		"tip":      c.SetTip(decimal.NewFromInt(5)),
	}
	for name, err := range edits {
		if !errors.Is(err, cart.ErrCartClosed) {
			t.Errorf("%s while claimed: got %v, want ErrCartClosed", name, err)
		}
	}
	if got := c.Snapshot(); len(got.Items) != 1 || got.Items[0].Quantity != 1 || !got.DiscountPct.IsZero() {
		t.Errorf("claimed cart changed: %+v", got)
	}

	c.Clear()
	if err := c.AddItem(mustItem(t, "9")); !errors.Is(err, cart.ErrCartClosed) {
		t.Errorf("clear reopened the cart: %v", err)
	}

	c.Release()
	if err := c.AddItem(mustItem(t, "9")); err != nil {
		t.Errorf("add after release: %v", err)
	}
}

func TestClaim_ConcurrentCallersGetOneClaim(t *testing.T) {
	c := cart.New()
	c.AddItem(mustItem(t, "1"))

	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Claim(); err == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := won.Load(); n != 1 {
		t.Errorf("successful claims: got %d, want 1", n)
	}
}

func TestClear(t *testing.T) {
	c := cart.New()
	c.AddItem(mustItem(t, "1"))
	c.SetTip(decimal.NewFromInt(15))

	c.Clear()

	snap := c.Snapshot()
	if len(snap.Items) != 0 || !snap.TipPct.IsZero() {
		t.Errorf("cart not cleared: %+v", snap)
	}
}

func TestRegistry(t *testing.T) {
	r := cart.NewRegistry()
	c := r.Create()

	got, err := r.Get(c.ID())
	if err != nil || got != c {
		t.Fatalf("get: got %v, %v", got, err)
	}
	if err := r.Delete(c.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.Get(c.ID()); !errors.Is(err, cart.ErrCartNotFound) {
		t.Errorf("expected ErrCartNotFound after delete, got %v", err)
	}
	if err := r.Delete(uuid.New()); !errors.Is(err, cart.ErrCartNotFound) {
		t.Errorf("expected ErrCartNotFound, got %v", err)
	}
}
