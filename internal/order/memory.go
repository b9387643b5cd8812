package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps orders in process. Safe for concurrent use.
type MemoryStore struct {
	Broadcaster

	mu     sync.RWMutex
	seq    int64
	orders map[uuid.UUID]Order
	ids    []uuid.UUID
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[uuid.UUID]Order),
		now:    time.Now,
	}
}

func (s *MemoryStore) Place(_ context.Context, o Order) (Order, error) {
	s.mu.Lock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if _, exists := s.orders[o.ID]; exists {
		s.mu.Unlock()
		return Order{}, ErrDuplicateOrder
	}
	s.seq++
	o.Number = s.seq
	o.OrderNumber = FormatNumber(o.Number)
	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	o.Revision = 1
	o = o.Clone()
	s.orders[o.ID] = o
	s.ids = append(s.ids, o.ID)
	s.mu.Unlock()

	s.Publish(EventPlaced, o)
	return o.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o.Clone(), nil
}

// List returns orders in placement order.
func (s *MemoryStore) List(_ context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.orders[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id uuid.UUID, fn func(*Order) error) (Order, error) {
	s.mu.Lock()
	cur, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	next := cur.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	// identity fields are immutable
	next.ID, next.Number, next.OrderNumber, next.CreatedAt = cur.ID, cur.Number, cur.OrderNumber, cur.CreatedAt
	next.UpdatedAt = s.now()
	next.Revision = cur.Revision + 1
	s.orders[id] = next.Clone()
	s.mu.Unlock()

	s.Publish(EventUpdated, next)
	return next, nil
}
