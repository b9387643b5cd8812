package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/auth"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/cart"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/config"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/kitchen"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/rbac"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/router"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/service"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/staff"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/ws"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) (http.Handler, *staff.Directory) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:          testSecret,
		TaxRate:            decimal.RequireFromString("0.08"),
		ReportPageSize:     10,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RestaurantName:     "Plate to Pixel",
		Location:           time.UTC,
	}
	store := order.NewMemoryStore()
	roles := rbac.NewManager()
	dir := staff.NewDirectory(roles)
	tracker := kitchen.NewTracker(kitchen.StoreSink{Store: store}, nil)
	store.Subscribe(tracker.HandleEvent)

	deps := router.Deps{
		Menu:     menu.DefaultCatalog(),
		Carts:    cart.NewRegistry(),
		Checkout: service.NewCheckoutService(store, cfg.TaxRate, 0, nil),
		Orders:   store,
		Kitchen:  tracker,
		Roles:    roles,
		Staff:    dir,
		Hub:      ws.NewHub(nil),
	}
	return router.New(cfg, deps, zap.NewNop()), dir
}

func request(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func tokenFor(t *testing.T, role, branch string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, uuid.New(), branch, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rr := request(t, h, "GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type: got %q", rr.Header().Get("Content-Type"))
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, path := range []string{"/menu/items", "/orders", "/kitchen/orders", "/reports/summary", "/roles", "/staff", "/auth/me"} {
		if rr := request(t, h, "GET", path, "", nil); rr.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: got %d, want 401", path, rr.Code)
		}
	}
}

func TestPageAccessByRole(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		role   string
		method string
		path   string
		want   int
	}{
		{enum.RoleChef, "GET", "/kitchen/orders", http.StatusOK},
		{enum.RoleChef, "POST", "/carts", http.StatusForbidden},
		{enum.RoleChef, "GET", "/reports/summary", http.StatusForbidden},
		{enum.RoleChef, "GET", "/branches/Downtown/kitchen/orders", http.StatusOK},
		{enum.RoleChef, "GET", "/branches/Uptown/kitchen/orders", http.StatusForbidden},
		{enum.RoleAdmin, "GET", "/branches/Uptown/kitchen/orders", http.StatusOK},
		{enum.RoleCashier, "POST", "/carts", http.StatusCreated},
		{enum.RoleCashier, "GET", "/reports/summary", http.StatusOK},
		{enum.RoleCashier, "GET", "/roles", http.StatusForbidden},
		{enum.RoleWaiter, "GET", "/menu/categories", http.StatusOK},
		{enum.RoleManager, "GET", "/staff", http.StatusOK},
		{enum.RoleAdmin, "GET", "/roles", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.method+" "+tt.path, func(t *testing.T) {
			rr := request(t, h, tt.method, tt.path, tokenFor(t, tt.role, "Downtown"), nil)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestLoginThenUseToken(t *testing.T) {
	h, dir := newTestRouter(t)
	if _, err := dir.Add(staff.NewMember{
		Name: "Kim Chef", Email: "kim@test.com", Password: "long-enough", Role: enum.RoleChef, Branch: "Uptown",
	}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	rr := request(t, h, "POST", "/auth/login", "", map[string]string{"email": "kim@test.com", "password": "long-enough"})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: got %d; body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rr := request(t, h, "GET", "/auth/me", resp.AccessToken, nil); rr.Code != http.StatusOK {
		t.Errorf("me: got %d", rr.Code)
	}
	if rr := request(t, h, "POST", "/carts", resp.AccessToken, nil); rr.Code != http.StatusForbidden {
		t.Errorf("chef creating cart: got %d, want 403", rr.Code)
	}
}
