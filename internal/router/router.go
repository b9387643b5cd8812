package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/config"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/handler"
	mw "github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/middleware"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/rbac"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/ws"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Menu     handler.MenuCatalog
	Carts    handler.CartRegistry
	Checkout handler.Checkouter
	Orders   handler.OrderStore
	Receipts handler.ReceiptLocator
	Kitchen  handler.KitchenBoard
	Roles    *rbac.Manager
	Staff    interface {
		handler.StaffDirectory
		handler.StaffAuthenticator
	}
	Hub *ws.Hub
}

// New creates a Chi router with all application routes wired up.
// Every authenticated route is gated on the caller's access to its page.
func New(cfg *config.Config, deps Deps, log *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(deps.Staff, cfg.JWTSecret, log)
	authHandler.RegisterRoutes(r)

	// WebSocket route (token checked by the handler, passed as a query param)
	r.Get("/ws/branches/{branch}", ws.Handler(deps.Hub, cfg.JWTSecret, cfg.CORSAllowedOrigins))

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		authHandler.RegisterSessionRoutes(r)

		guard := func(page string) handler.Guard { return handler.PageGuard(deps.Roles, page) }

		menuHandler := handler.NewMenuHandler(deps.Menu)
		r.Route("/menu", func(r chi.Router) { menuHandler.RegisterRoutes(r, guard(enum.PageMenu)) })

		cartHandler := handler.NewCartHandler(deps.Carts, deps.Menu, deps.Checkout, cfg.TaxRate, log)
		r.Route("/carts", func(r chi.Router) { cartHandler.RegisterRoutes(r, guard(enum.PagePOS)) })

		orderHandler := handler.NewOrderHandler(deps.Orders, cfg.ReportPageSize, cfg.RestaurantName, cfg.Location, log)
		if deps.Receipts != nil {
			orderHandler.WithReceipts(deps.Receipts)
		}
		r.Route("/orders", func(r chi.Router) { orderHandler.RegisterRoutes(r, guard(enum.PageOrders)) })

		kitchenHandler := handler.NewKitchenHandler(deps.Kitchen, log)
		r.Route("/kitchen", func(r chi.Router) { kitchenHandler.RegisterRoutes(r, guard(enum.PageKitchen)) })
		r.Route("/branches/{branch}", func(r chi.Router) {
			r.Use(mw.RequireBranch)
			kitchenHandler.RegisterBranchRoutes(r, guard(enum.PageKitchen))
		})

		reportsHandler := handler.NewReportsHandler(deps.Orders, cfg.ReportPageSize, cfg.Location, log)
		r.Route("/reports", func(r chi.Router) { reportsHandler.RegisterRoutes(r, guard(enum.PageReports)) })

		roleHandler := handler.NewRoleHandler(deps.Roles)
		r.Route("/roles", func(r chi.Router) { roleHandler.RegisterRoutes(r, guard(enum.PageRoles)) })

		staffHandler := handler.NewStaffHandler(deps.Staff, log)
		r.Route("/staff", func(r chi.Router) { staffHandler.RegisterRoutes(r, guard(enum.PageEmployees)) })
	})

	log.Info("router initialized")
	return r
}
