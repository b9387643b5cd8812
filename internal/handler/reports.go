package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/pricing"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/report"
)

// ReportsHandler handles report endpoints. Every endpoint accepts the same
// filter params as GET /orders.
type ReportsHandler struct {
	store    OrderStore
	pageSize int
	loc      *time.Location
	log      *zap.Logger
}

func NewReportsHandler(store OrderStore, pageSize int, loc *time.Location, log *zap.Logger) *ReportsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportsHandler{store: store, pageSize: pageSize, loc: loc, log: nopLogger(log)}
}

// RegisterRoutes is expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router, guard Guard) {
	r.Use(guard(enum.AccessReadOnly))
	r.Get("/summary", h.Summary)
	r.Get("/transactions", h.Transactions)
	r.Get("/daily-sales", h.DailySales)
	r.Get("/hourly-sales", h.HourlySales)
}

// --- Response types ---

type shareResponse struct {
	Key     string `json:"key"`
	Count   int    `json:"count"`
	Revenue string `json:"revenue"`
	Percent string `json:"percent"`
}

type itemSalesResponse struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Revenue    string `json:"revenue"`
}

type summaryResponse struct {
	OrderCount      int                 `json:"order_count"`
	CancelledCount  int                 `json:"cancelled_count"`
	Revenue         string              `json:"revenue"`
	AverageTicket   string              `json:"average_ticket"`
	Tax             string              `json:"tax"`
	Discount        string              `json:"discount"`
	Tip             string              `json:"tip"`
	ByType          []shareResponse     `json:"by_type"`
	ByPaymentMethod []shareResponse     `json:"by_payment_method"`
	ByBranch        []shareResponse     `json:"by_branch"`
	ByStatus        []shareResponse     `json:"by_status"`
	ByCategory      []shareResponse     `json:"by_category"`
	TopItems        []itemSalesResponse `json:"top_items"`
}

type dailySalesResponse struct {
	Date          string `json:"date"`
	OrderCount    int    `json:"order_count"`
	TotalRevenue  string `json:"total_revenue"`
	TotalDiscount string `json:"total_discount"`
}

type hourlySalesResponse struct {
	Hour         int    `json:"hour"`
	OrderCount   int    `json:"order_count"`
	TotalRevenue string `json:"total_revenue"`
}

func toShares(in []report.Share) []shareResponse {
	out := make([]shareResponse, len(in))
	for i, s := range in {
		out[i] = shareResponse{Key: s.Key, Count: s.Count, Revenue: pricing.Format(s.Revenue), Percent: pricing.Format(s.Percent)}
	}
	return out
}

// filtered loads every order and applies the request's filter. It writes
// the error response and returns false on failure.
func (h *ReportsHandler) filtered(w http.ResponseWriter, r *http.Request) ([]order.Order, bool) {
	f, err := parseFilter(r, h.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	orders, err := h.store.List(r.Context())
	if err != nil {
		internalError(w, h.log, "list orders for report", err)
		return nil, false
	}
	return report.Apply(orders, f), true
}

// --- Handlers ---

func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.filtered(w, r)
	if !ok {
		return
	}
	s := report.Summarize(orders)

	resp := summaryResponse{
		OrderCount:      s.OrderCount,
		CancelledCount:  s.CancelledCount,
		Revenue:         pricing.Format(s.Revenue),
		AverageTicket:   pricing.Format(s.AverageTicket),
		Tax:             pricing.Format(s.Tax),
		Discount:        pricing.Format(s.Discount),
		Tip:             pricing.Format(s.Tip),
		ByType:          toShares(s.ByType),
		ByPaymentMethod: toShares(s.ByPaymentMethod),
		ByBranch:        toShares(s.ByBranch),
		ByStatus:        toShares(s.ByStatus),
		ByCategory:      toShares(s.ByCategory),
		TopItems:        make([]itemSalesResponse, len(s.TopItems)),
	}
	for i, it := range s.TopItems {
		resp.TopItems[i] = itemSalesResponse{MenuItemID: it.MenuItemID, Name: it.Name, Quantity: it.Quantity, Revenue: pricing.Format(it.Revenue)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Transactions handles GET /reports/transactions?page=, one fixed-size page
// of the filtered orders.
func (h *ReportsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.filtered(w, r)
	if !ok {
		return
	}
	sort, err := parseSort(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := report.SortOrders(orders, sort); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page := report.Paginate(orders, intQuery(r, "page", 1), h.pageSize)

	resp := orderPageResponse{
		Orders:     make([]orderResponse, len(page.Items)),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Pages:      report.PageWindow(page.Page, page.TotalPages, pageWindowSize),
	}
	for i, o := range page.Items {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.filtered(w, r)
	if !ok {
		return
	}
	rows := report.DailySalesOf(orders, h.loc)
	resp := make([]dailySalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = dailySalesResponse{
			Date:          row.Date,
			OrderCount:    row.OrderCount,
			TotalRevenue:  pricing.Format(row.Revenue),
			TotalDiscount: pricing.Format(row.Discount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ReportsHandler) HourlySales(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.filtered(w, r)
	if !ok {
		return
	}
	rows := report.HourlySalesOf(orders, h.loc)
	resp := make([]hourlySalesResponse, len(rows))
	for i, row := range rows {
		resp[i] = hourlySalesResponse{Hour: row.Hour, OrderCount: row.OrderCount, TotalRevenue: pricing.Format(row.Revenue)}
	}
	writeJSON(w, http.StatusOK, resp)
}
