package receipt

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/enum"
	"github.com/Muhammad-Hunain/plate-to-pixel-pos-sub000/internal/order"
)

const (
	archiveBuffer  = 128
	archiveTimeout = 15 * time.Second
)

// Uploader stores an object and returns its URL.
// Satisfied by *storage.ObjectStore; narrow interface for testability.
type Uploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Archiver uploads a receipt for every order the first time it is seen with
// payment COMPLETED.
type Archiver struct {
	store      Uploader
	restaurant string
	log        *zap.Logger

	queue chan order.Order

	mu       sync.Mutex
	archived map[uuid.UUID]string
}

func NewArchiver(store Uploader, restaurant string, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{
		store:      store,
		restaurant: restaurant,
		log:        log,
		queue:      make(chan order.Order, archiveBuffer),
		archived:   make(map[uuid.UUID]string),
	}
}

func (a *Archiver) Listener() order.Listener {
	return func(e order.Event) {
		if e.Order.PaymentStatus != enum.PaymentStatusCompleted {
			return
		}
		a.mu.Lock()
		_, done := a.archived[e.Order.ID]
		a.mu.Unlock()
		if done {
			return
		}
		select {
		case a.queue <- e.Order:
		default:
			a.log.Warn("receipt archive queue full", zap.String("order_number", e.Order.OrderNumber))
		}
	}
}

// URL returns where an order's receipt was archived, if it was.
func (a *Archiver) URL(id uuid.UUID) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	url, ok := a.archived[id]
	return url, ok
}

// Run archives queued receipts until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case o := <-a.queue:
			if _, done := a.URL(o.ID); done {
				continue
			}
			if err := a.archive(ctx, o); err != nil {
				a.log.Error("archive receipt", zap.String("order_number", o.OrderNumber), zap.Error(err))
			}
		}
	}
}

func (a *Archiver) archive(ctx context.Context, o order.Order) error {
	body, err := Render(o, a.restaurant)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()
	url, err := a.store.PutObject(ctx, Key(o), body, ContentType)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.archived[o.ID] = url
	a.mu.Unlock()
	a.log.Info("receipt archived", zap.String("order_number", o.OrderNumber), zap.String("url", url))
	return nil
}
