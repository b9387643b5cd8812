package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/cart"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/config"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/database"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/kitchen"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/logger"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/menu"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/queue"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/rbac"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/receipt"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/router"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/service"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/staff"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/storage"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/ws"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog := menu.DefaultCatalog()
	roles := rbac.NewManager()
	directory := staff.NewDirectory(roles)
	if _, err := directory.Add(staff.NewMember{
		Name:     "Administrator",
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     enum.RoleAdmin,
		Branch:   cfg.DefaultBranch,
	}); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	hub := ws.NewHub(log.Named("ws"))
	tracker := kitchen.NewTracker(kitchen.StoreSink{Store: store}, log.Named("kitchen"))
	tracker.OnChange(hub.KitchenListener())
	store.Subscribe(tracker.HandleEvent)
	store.Subscribe(hub.OrderListener())

	// Existing open orders go back on the board after a restart.
	if existing, err := store.List(ctx); err == nil {
		for _, o := range existing {
			if !o.IsTerminal() {
				tracker.Ingest(o)
			}
		}
	} else {
		log.Warn("load open orders", zap.Error(err))
	}

	if cfg.RabbitMQURL != "" {
		mq, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer mq.Close()
		if err := mq.EnsureExchange(cfg.EventsExchange); err != nil {
			return fmt.Errorf("declare exchange: %w", err)
		}
		relay := queue.NewRelay(mq, cfg.EventsExchange, log.Named("relay"))
		store.Subscribe(relay.Listener())
		go relay.Run(ctx)
		log.Info("order events relayed", zap.String("exchange", cfg.EventsExchange))
	}

	deps := router.Deps{
		Menu:     catalog,
		Carts:    cart.NewRegistry(),
		Checkout: service.NewCheckoutService(store, cfg.TaxRate, cfg.PaymentDelay, log.Named("checkout")),
		Orders:   store,
		Kitchen:  tracker,
		Roles:    roles,
		Staff:    directory,
		Hub:      hub,
	}

	if cfg.ObjectStore.Enabled() {
		objects, err := storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			Bucket:          cfg.ObjectStore.Bucket,
			PublicBaseURL:   cfg.ObjectStore.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("object store: %w", err)
		}
		archiver := receipt.NewArchiver(objects, cfg.RestaurantName, log.Named("receipts"))
		store.Subscribe(archiver.Listener())
		go archiver.Run(ctx)
		deps.Receipts = archiver
	}

	go hub.Run(ctx)
	go tracker.Run(ctx, cfg.KitchenTickInterval)

	if cfg.KitchenDemoArrival > 0 {
		kitchen.ScheduleArrival(ctx, cfg.KitchenDemoArrival, func(ctx context.Context) {
			o, err := kitchen.SyntheticOrder(catalog, cfg.TaxRate, cfg.DefaultBranch)
			if err != nil {
				log.Error("build demo order", zap.Error(err))
				return
			}
			if _, err := store.Place(ctx, o); err != nil {
				log.Error("place demo order", zap.Error(err))
			}
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, deps, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the PostgreSQL store when DATABASE_URL is set and an
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (order.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, orders are kept in memory")
		return order.NewMemoryStore(), func() {}, nil
	}
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to database")
	return database.NewOrderRepository(pool), pool.Close, nil
}
