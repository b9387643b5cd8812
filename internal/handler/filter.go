package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/middleware"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/report"
)

const (
	dateLayout     = "2006-01-02"
	pageWindowSize = 5
)

// multi collects a repeated or comma-separated query parameter.
func multi(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseFilter reads q, branch, type, staff, status, payment_method, from and
// to. from and to are calendar days in loc; to is inclusive. Non-admin
// callers are always limited to their own branch.
func parseFilter(r *http.Request, loc *time.Location) (report.Filter, error) {
	f := report.Filter{
		Search:         r.URL.Query().Get("q"),
		Branches:       multi(r, "branch"),
		Types:          multi(r, "type"),
		Staff:          multi(r, "staff"),
		Statuses:       multi(r, "status"),
		PaymentMethods: multi(r, "payment_method"),
	}

	if s := strings.TrimSpace(r.URL.Query().Get("from")); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return report.Filter{}, fmt.Errorf("invalid from date, use YYYY-MM-DD")
		}
		f.From = t
	}
	if s := strings.TrimSpace(r.URL.Query().Get("to")); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return report.Filter{}, fmt.Errorf("invalid to date, use YYYY-MM-DD")
		}
		f.To = t.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return report.Filter{}, fmt.Errorf("from must not be after to")
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil && claims.Role != enum.RoleAdmin {
		f.Branches = []string{claims.Branch}
	}
	return f, nil
}

// parseSort reads sort (created_at, total, order_number) and order (asc, desc).
// The default is newest first.
func parseSort(r *http.Request) (report.Sort, error) {
	s := report.Sort{Field: strings.TrimSpace(r.URL.Query().Get("sort")), Desc: true}
	switch strings.ToLower(r.URL.Query().Get("order")) {
	case "", "desc":
	case "asc":
		s.Desc = false
	default:
		return report.Sort{}, fmt.Errorf("invalid order, use asc or desc")
	}
	return s, nil
}
