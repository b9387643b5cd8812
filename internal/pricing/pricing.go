// Package pricing holds the one order-total formula used by carts, checkout
// and stored orders:
//
//	subtotal   = Σ price × quantity
//	discount   = subtotal × discountPct / 100
//	discounted = subtotal − discount
//	tax        = discounted × taxRate
//	tip        = discounted × tipPct / 100
//	total      = discounted + tax + tip
//
// Amounts stay exact; rounding to cents happens only in Format and Rounded.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLine     = errors.New("price and quantity must not be negative")
	ErrInvalidDiscount = errors.New("discount percentage must be between 0 and 100 with at most two decimals")
	ErrInvalidTip      = errors.New("tip percentage must be between 0 and 100 with at most two decimals")
	ErrInvalidTaxRate  = errors.New("tax rate must be between 0 and 1")
)

var hundred = decimal.NewFromInt(100)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Options struct {
	TaxRate     decimal.Decimal // fraction, e.g. 0.08
	DiscountPct decimal.Decimal // 0..100
	TipPct      decimal.Decimal // 0..100
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Discounted     decimal.Decimal `json:"discounted_subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Tip            decimal.Decimal `json:"tip"`
	Total          decimal.Decimal `json:"total"`
}

func ComputeOrderTotals(lines []Line, opts Options) (Totals, error) {
	if err := ValidatePct(opts.DiscountPct); err != nil {
		return Totals{}, ErrInvalidDiscount
	}
	if err := ValidatePct(opts.TipPct); err != nil {
		return Totals{}, ErrInvalidTip
	}
	if opts.TaxRate.IsNegative() || opts.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return Totals{}, ErrInvalidTaxRate
	}

	subtotal := decimal.Zero
	for i, l := range lines {
		if l.Quantity < 0 || l.Price.IsNegative() {
			return Totals{}, fmt.Errorf("line[%d]: %w", i, ErrInvalidLine)
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discount := subtotal.Mul(opts.DiscountPct).Div(hundred)
	discounted := subtotal.Sub(discount)
	tax := discounted.Mul(opts.TaxRate)
	tip := discounted.Mul(opts.TipPct).Div(hundred)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Discounted:     discounted,
		Tax:            tax,
		Tip:            tip,
		Total:          discounted.Add(tax).Add(tip),
	}, nil
}

// ValidatePct checks a percentage lies in [0, 100] and has at most two
// decimal places, the precision orders store it with.
func ValidatePct(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fmt.Errorf("percentage %s out of range", pct)
	}
	if !pct.Equal(pct.Round(2)) {
		return fmt.Errorf("percentage %s has more than two decimals", pct)
	}
	return nil
}

// Rounded returns the totals rounded half-up to cents, for storage.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:       t.Subtotal.Round(2),
		DiscountAmount: t.DiscountAmount.Round(2),
		Discounted:     t.Discounted.Round(2),
		Tax:            t.Tax.Round(2),
		Tip:            t.Tip.Round(2),
		Total:          t.Total.Round(2),
	}
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
