package pricing_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeOrderTotals_MargheritaAndCappuccino(t *testing.T) {
	lines := []pricing.Line{
		{Price: d("12.99"), Quantity: 1},
		{Price: d("3.50"), Quantity: 2},
	}

	totals, err := pricing.ComputeOrderTotals(lines, pricing.Options{DiscountPct: d("10")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !totals.Subtotal.Equal(d("19.99")) {
		t.Errorf("subtotal: got %s, want 19.99", totals.Subtotal)
	}
	if !totals.Discounted.Equal(d("17.991")) {
		t.Errorf("discounted: got %s, want 17.991", totals.Discounted)
	}
	if got := pricing.Format(totals.Discounted); got != "17.99" {
		t.Errorf("rendered discounted: got %q, want %q", got, "17.99")
	}
}

func TestComputeOrderTotals_FullFormula(t *testing.T) {
	lines := []pricing.Line{{Price: d("50"), Quantity: 2}}

	totals, err := pricing.ComputeOrderTotals(lines, pricing.Options{
		TaxRate:     d("0.08"),
		DiscountPct: d("20"),
		TipPct:      d("15"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100 - 20 = 80; tax 6.4; tip 12; total 98.4
	want := map[string]struct{ got, want decimal.Decimal }{
		"subtotal":   {totals.Subtotal, d("100")},
		"discount":   {totals.DiscountAmount, d("20")},
		"discounted": {totals.Discounted, d("80")},
		"tax":        {totals.Tax, d("6.4")},
		"tip":        {totals.Tip, d("12")},
		"total":      {totals.Total, d("98.4")},
	}
	for name, v := range want {
		if !v.got.Equal(v.want) {
			t.Errorf("%s: got %s, want %s", name, v.got, v.want)
		}
	}
}

func TestComputeOrderTotals_EmptyCart(t *testing.T) {
	totals, err := pricing.ComputeOrderTotals(nil, pricing.Options{TaxRate: d("0.08")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.Total.IsZero() {
		t.Errorf("total: got %s, want 0", totals.Total)
	}
}

func TestComputeOrderTotals_RejectsInvalidInput(t *testing.T) {
	ok := []pricing.Line{{Price: d("1"), Quantity: 1}}

	tests := []struct {
		name  string
		lines []pricing.Line
		opts  pricing.Options
		want  error
	}{
		{"negative quantity", []pricing.Line{{Price: d("1"), Quantity: -1}}, pricing.Options{}, pricing.ErrInvalidLine},
		{"negative price", []pricing.Line{{Price: d("-1"), Quantity: 1}}, pricing.Options{}, pricing.ErrInvalidLine},
		{"negative discount", ok, pricing.Options{DiscountPct: d("-5")}, pricing.ErrInvalidDiscount},
		{"discount over 100", ok, pricing.Options{DiscountPct: d("101")}, pricing.ErrInvalidDiscount},
		{"negative tip", ok, pricing.Options{TipPct: d("-1")}, pricing.ErrInvalidTip},
		{"discount with three decimals", ok, pricing.Options{DiscountPct: d("12.345")}, pricing.ErrInvalidDiscount},
		{"tip with three decimals", ok, pricing.Options{TipPct: d("15.001")}, pricing.ErrInvalidTip},
		{"tax rate over 1", ok, pricing.Options{TaxRate: d("8")}, pricing.ErrInvalidTaxRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pricing.ComputeOrderTotals(tt.lines, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidatePct(t *testing.T) {
	for _, pct := range []string{"0", "12.5", "12.50", "33.33", "100"} {
		if err := pricing.ValidatePct(d(pct)); err != nil {
			t.Errorf("%s: unexpected error %v", pct, err)
		}
	}
	for _, pct := range []string{"-0.01", "100.01", "10.125", "0.001"} {
		if err := pricing.ValidatePct(d(pct)); err == nil {
			t.Errorf("%s: expected an error", pct)
		}
	}
}

func TestTotals_Rounded(t *testing.T) {
	totals, err := pricing.ComputeOrderTotals(
		[]pricing.Line{{Price: d("19.99"), Quantity: 1}},
		pricing.Options{TaxRate: d("0.08"), DiscountPct: d("10")},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := totals.Rounded()
	// 17.991 * 0.08 = 1.43928; total 19.43028
	if r.Discounted.String() != "17.99" {
		t.Errorf("discounted: got %s, want 17.99", r.Discounted)
	}
	if r.Tax.String() != "1.44" {
		t.Errorf("tax: got %s, want 1.44", r.Tax)
	}
	if r.Total.String() != "19.43" {
		t.Errorf("total: got %s, want 19.43", r.Total)
	}
}
