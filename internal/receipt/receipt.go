// Package receipt renders order receipts as PDF and archives them to an
// object store once an order is paid.
package receipt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
)

const ContentType = "application/pdf"

var typeLabels = map[string]string{
	enum.OrderTypeDineIn:   "Dine in",
	enum.OrderTypeTakeaway: "Takeaway",
	enum.OrderTypeDelivery: "Delivery",
}

// Render produces a one-page A5 receipt for o.
func Render(o order.Order, restaurantName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(fmt.Sprintf("Receipt %s", o.OrderNumber), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, restaurantName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if o.Branch != "" {
		pdf.CellFormat(0, 5, o.Branch, "", 1, "C", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order %s", o.OrderNumber), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	label := typeLabels[o.Type]
	if label == "" {
		label = o.Type
	}
	pdf.CellFormat(0, 5, label, "", 1, "C", false, 0, "")
	if o.Table != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Table %s", o.Table), "", 1, "C", false, 0, "")
	}
	if o.Customer != "" {
		pdf.CellFormat(0, 5, o.Customer, "", 1, "C", false, 0, "")
	}
	if o.DeliveryAddress != "" {
		pdf.MultiCell(0, 4, o.DeliveryAddress, "", "C", false)
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", o.CreatedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, it := range o.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		pdf.CellFormat(95, 5, fmt.Sprintf("%dx %s", it.Quantity, it.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, pricing.Format(line), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	row := func(name, value string) {
		pdf.CellFormat(95, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, value, "", 1, "R", false, 0, "")
	}
	row("Subtotal", pricing.Format(o.Subtotal))
	if o.DiscountAmount.IsPositive() {
		row(fmt.Sprintf("Discount (%s%%)", o.DiscountPct.String()), "-"+pricing.Format(o.DiscountAmount))
	}
	row("Tax", pricing.Format(o.Tax))
	if o.Tip.IsPositive() {
		row("Tip", pricing.Format(o.Tip))
	}
	pdf.SetFont("Arial", "B", 11)
	row("Total", pricing.Format(o.Total))

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 9)
	row("Payment", fmt.Sprintf("%s (%s)", o.PaymentMethod, o.PaymentStatus))
	if o.PaymentMethod == enum.PaymentMethodCash && o.PaymentStatus == enum.PaymentStatusCompleted {
		row("Received", pricing.Format(o.AmountReceived))
		row("Change", pricing.Format(o.ChangeDue))
	}
	if o.Staff != "" {
		row("Served by", o.Staff)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", o.OrderNumber, err)
	}
	return out.Bytes(), nil
}

// Key is the object key a receipt is archived under:
// receipts/<branch>/<order_number>.pdf with the branch lower-cased and
// spaces replaced by dashes.
func Key(o order.Order) string {
	branch := strings.ToLower(strings.Join(strings.Fields(o.Branch), "-"))
	if branch == "" {
		branch = "unassigned"
	}
	return fmt.Sprintf("receipts/%s/%s.pdf", branch, o.OrderNumber)
}
