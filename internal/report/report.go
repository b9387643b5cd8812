package report

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

var ErrInvalidSortField = errors.New("invalid sort field")

const (
	SortCreatedAt   = "created_at"
	SortTotal       = "total"
	SortOrderNumber = "order_number"
)

// Filter selects orders. Empty fields match everything; all criteria are
// combined with AND. From is inclusive and To is exclusive.
type Filter struct {
	Search         string
	Branches       []string
	Types          []string
	Staff          []string
	Statuses       []string
	PaymentMethods []string
	From           time.Time
	To             time.Time
}

// Match reports whether o satisfies every criterion of f.
func (f Filter) Match(o order.Order) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(o.Customer), q) &&
			!strings.Contains(strings.ToLower(o.OrderNumber), q) &&
			!strings.Contains(strings.ToLower(o.ID.String()), q) {
			return false
		}
	}
	if !oneOf(o.Branch, f.Branches) || !oneOf(o.Type, f.Types) || !oneOf(o.Staff, f.Staff) ||
		!oneOf(o.Status, f.Statuses) || !oneOf(o.PaymentMethod, f.PaymentMethods) {
		return false
	}
	if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !o.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

func oneOf(v string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// Apply returns the orders matching f, preserving their order.
func Apply(orders []order.Order, f Filter) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if f.Match(o) {
			out = append(out, o)
		}
	}
	return out
}

type Sort struct {
	Field string
	Desc  bool
}

// SortOrders sorts orders in place. An empty field sorts by created_at.
func SortOrders(orders []order.Order, s Sort) error {
	var less func(a, b order.Order) bool
	switch s.Field {
	case "", SortCreatedAt:
		less = func(a, b order.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortTotal:
		less = func(a, b order.Order) bool { return a.Total.LessThan(b.Total) }
	case SortOrderNumber:
		less = func(a, b order.Order) bool { return a.Number < b.Number }
	default:
		return ErrInvalidSortField
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if s.Desc {
			return less(orders[j], orders[i])
		}
		return less(orders[i], orders[j])
	})
	return nil
}

// Page is one page of a result set.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Paginate returns the requested page. totalPages is ceil(len(rows)/pageSize)
// and page is clamped to [1, totalPages].
func Paginate[T any](rows []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	totalPages := (len(rows) + pageSize - 1) / pageSize
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}
	return Page[T]{
		Items:      append([]T{}, rows[start:end]...),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(rows),
		TotalPages: totalPages,
	}
}

// PageWindow returns at most size page numbers centred on current and
// clamped to [1, totalPages].
func PageWindow(current, totalPages, size int) []int {
	if totalPages <= 0 || size <= 0 {
		return []int{}
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}
	start := current - size/2
	if start < 1 {
		start = 1
	}
	end := start + size - 1
	if end > totalPages {
		end = totalPages
		start = end - size + 1
		if start < 1 {
			start = 1
		}
	}
	out := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		out = append(out, p)
	}
	return out
}
