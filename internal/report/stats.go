package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

const topItemsLimit = 5

var hundred = decimal.NewFromInt(100)

// Share is one bucket of a breakdown. Percent is the bucket's share of the
// order count; for categories it is the share of item revenue.
type Share struct {
	Key     string          `json:"key"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
	Percent decimal.Decimal `json:"percent"`
}

type ItemSales struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Summary aggregates a set of orders. Cancelled orders appear in ByStatus
// and OrderCount but contribute nothing to revenue or the other breakdowns.
type Summary struct {
	OrderCount      int             `json:"order_count"`
	CancelledCount  int             `json:"cancelled_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	AverageTicket   decimal.Decimal `json:"average_ticket"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	Tip             decimal.Decimal `json:"tip"`
	ByType          []Share         `json:"by_type"`
	ByPaymentMethod []Share         `json:"by_payment_method"`
	ByBranch        []Share         `json:"by_branch"`
	ByStatus        []Share         `json:"by_status"`
	ByCategory      []Share         `json:"by_category"`
	TopItems        []ItemSales     `json:"top_items"`
}

type bucket struct {
	count   int
	revenue decimal.Decimal
}

type breakdown map[string]*bucket

func (b breakdown) add(key string, count int, revenue decimal.Decimal) {
	e, ok := b[key]
	if !ok {
		e = &bucket{}
		b[key] = e
	}
	e.count += count
	e.revenue = e.revenue.Add(revenue)
}

// shares converts buckets into percentages of total, sorted by count then key.
func (b breakdown) shares(total decimal.Decimal, byRevenue bool) []Share {
	out := make([]Share, 0, len(b))
	for k, e := range b {
		s := Share{Key: k, Count: e.count, Revenue: e.revenue, Percent: decimal.Zero}
		part := decimal.NewFromInt(int64(e.count))
		if byRevenue {
			part = e.revenue
		}
		if total.IsPositive() {
			s.Percent = part.Div(total).Mul(hundred).Round(2)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if byRevenue && !out[i].Revenue.Equal(out[j].Revenue) {
			return out[i].Revenue.GreaterThan(out[j].Revenue)
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func Summarize(orders []order.Order) Summary {
	s := Summary{
		OrderCount:    len(orders),
		Revenue:       decimal.Zero,
		AverageTicket: decimal.Zero,
		Tax:           decimal.Zero,
		Discount:      decimal.Zero,
		Tip:           decimal.Zero,
	}

	byType, byMethod, byBranch, byStatus, byCategory := breakdown{}, breakdown{}, breakdown{}, breakdown{}, breakdown{}
	items := map[string]*ItemSales{}
	itemRevenue := decimal.Zero
	active := 0

	for _, o := range orders {
		byStatus.add(o.Status, 1, o.Total)
		if o.Status == enum.OrderStatusCancelled {
			s.CancelledCount++
			continue
		}
		active++
		s.Revenue = s.Revenue.Add(o.Total)
		s.Tax = s.Tax.Add(o.Tax)
		s.Discount = s.Discount.Add(o.DiscountAmount)
		s.Tip = s.Tip.Add(o.Tip)
		byType.add(o.Type, 1, o.Total)
		byMethod.add(o.PaymentMethod, 1, o.Total)
		byBranch.add(o.Branch, 1, o.Total)

		for _, it := range o.Items {
			line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			itemRevenue = itemRevenue.Add(line)
			byCategory.add(it.Category, it.Quantity, line)
			e, ok := items[it.MenuItemID]
			if !ok {
				e = &ItemSales{MenuItemID: it.MenuItemID, Name: it.Name, Revenue: decimal.Zero}
				items[it.MenuItemID] = e
			}
			e.Quantity += it.Quantity
			e.Revenue = e.Revenue.Add(line)
		}
	}

	if active > 0 {
		s.AverageTicket = s.Revenue.Div(decimal.NewFromInt(int64(active))).Round(2)
	}
	activeCount := decimal.NewFromInt(int64(active))
	s.ByType = byType.shares(activeCount, false)
	s.ByPaymentMethod = byMethod.shares(activeCount, false)
	s.ByBranch = byBranch.shares(activeCount, false)
	s.ByStatus = byStatus.shares(decimal.NewFromInt(int64(len(orders))), false)
	s.ByCategory = byCategory.shares(itemRevenue, true)

	s.TopItems = make([]ItemSales, 0, len(items))
	for _, e := range items {
		s.TopItems = append(s.TopItems, *e)
	}
	sort.Slice(s.TopItems, func(i, j int) bool {
		a, b := s.TopItems[i], s.TopItems[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(s.TopItems) > topItemsLimit {
		s.TopItems = s.TopItems[:topItemsLimit]
	}
	return s
}

type DailySales struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Discount   decimal.Decimal `json:"discount"`
}

// DailySalesOf groups non-cancelled orders by calendar day in loc, oldest first.
func DailySalesOf(orders []order.Order, loc *time.Location) []DailySales {
	if loc == nil {
		loc = time.UTC
	}
	byDay := map[string]*DailySales{}
	for _, o := range orders {
		if o.Status == enum.OrderStatusCancelled {
			continue
		}
		day := o.CreatedAt.In(loc).Format("2006-01-02")
		e, ok := byDay[day]
		if !ok {
			e = &DailySales{Date: day, Revenue: decimal.Zero, Discount: decimal.Zero}
			byDay[day] = e
		}
		e.OrderCount++
		e.Revenue = e.Revenue.Add(o.Total)
		e.Discount = e.Discount.Add(o.DiscountAmount)
	}
	out := make([]DailySales, 0, len(byDay))
	for _, e := range byDay {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type HourlySales struct {
	Hour       int             `json:"hour"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// HourlySalesOf buckets non-cancelled orders by hour of day in loc. Hours
// without orders are omitted.
func HourlySalesOf(orders []order.Order, loc *time.Location) []HourlySales {
	if loc == nil {
		loc = time.UTC
	}
	var hours [24]HourlySales
	for h := range hours {
		hours[h] = HourlySales{Hour: h, Revenue: decimal.Zero}
	}
	for _, o := range orders {
		if o.Status == enum.OrderStatusCancelled {
			continue
		}
		h := o.CreatedAt.In(loc).Hour()
		hours[h].OrderCount++
		hours[h].Revenue = hours[h].Revenue.Add(o.Total)
	}
	out := make([]HourlySales, 0, 24)
	for _, h := range hours {
		if h.OrderCount > 0 {
			out = append(out, h)
		}
	}
	return out
}
