package kitchen

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
)

// StoreSink writes kitchen progress back to the order store. The order status
// only moves when the transition table allows it.
type StoreSink struct {
	Store order.Store
}

func (s StoreSink) Sync(ctx context.Context, ko Order) error {
	_, err := s.Store.Update(ctx, ko.ID, func(o *order.Order) error {
		if o.Status == enum.OrderStatusCancelled {
			return order.ErrOrderCancelled
		}
		for i := range o.Items {
			if i < len(ko.Items) {
				o.Items[i].Status = ko.Items[i].Status
			}
		}
		if ko.Status != o.Status && order.ValidateTransition(o.Status, ko.Status) == nil {
			o.Status = ko.Status
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync order %s: %w", ko.ID, err)
	}
	return nil
}

// ScheduleArrival calls fn once after delay unless ctx is cancelled first.
func ScheduleArrival(ctx context.Context, delay time.Duration, fn func(context.Context)) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			if ctx.Err() == nil {
				fn(ctx)
			}
		}
	}()
}

// SyntheticOrder builds a walk-in order from the first items of the catalog,
// used to simulate a live arrival on the board.
func SyntheticOrder(catalog *menu.Catalog, taxRate decimal.Decimal, branch string) (order.Order, error) {
	picks := catalog.List(menu.ListFilter{})
	if len(picks) > 2 {
		picks = picks[:2]
	}
	o := order.Order{
		Type:          enum.OrderTypeTakeaway,
		Customer:      "Walk-in",
		PaymentMethod: enum.PaymentMethodCard,
		PaymentStatus: enum.PaymentStatusPending,
		Status:        enum.OrderStatusNew,
		Priority:      enum.PriorityHigh,
		Staff:         "system",
		Branch:        branch,
	}
	lines := make([]pricing.Line, 0, len(picks))
	for _, it := range picks {
		o.Items = append(o.Items, order.Item{
			MenuItemID: it.ID,
			Name:       it.Name,
			Category:   it.Category,
			Price:      it.Price,
			Quantity:   1,
			Status:     enum.OrderItemStatusPending,
		})
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: 1})
	}
	totals, err := pricing.ComputeOrderTotals(lines, pricing.Options{TaxRate: taxRate})
	if err != nil {
		return order.Order{}, err
	}
	o.ApplyTotals(totals)
	return o, nil
}
