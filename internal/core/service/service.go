// Package service binds per-session cart stores to the catalog,
// the snapshot storage and the cart events stream.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/cart"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/pricing"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEmptySession    = errors.New("session id is required")
)

var (
	_ port.CartService    = (*Service)(nil)
	_ port.CatalogService = (*Service)(nil)
)

const (
	defaultMaxSessions    = 10_000
	defaultSessionIdleTTL = 30 * time.Minute
	minSweepInterval      = time.Second
)

type Config struct {
	// Namespace prefixes the snapshot keys, [cart.DefaultNamespace] when empty.
	Namespace    string
	Policy       pricing.Policy
	WriteTimeout time.Duration

	// MaxSessions caps the stores held in memory. The least recently
	// used idle store is evicted to make room; its snapshot stays in
	// the storage and is rehydrated on the next request.
	MaxSessions int
	// SessionIdleTTL is how long an unused store stays in memory
	// while [Service.Run] is sweeping.
	SessionIdleTTL time.Duration
}

type session struct {
	mu     sync.Mutex
	store  *cart.Store
	repo   cart.SnapshotRepository
	closed bool

	// guarded by Service.mu
	lastUsed time.Time
}

type Service struct {
	cfg      Config
	storage  port.KVStorage
	products port.ProductsRepository
	events   port.CartEventsProducer
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// New returns the service. A nil events producer disables cart events.
func New(
	storage port.KVStorage,
	products port.ProductsRepository,
	events port.CartEventsProducer,
	cfg Config,
) *Service {
	if events == nil {
		events = nopProducer{}
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.SessionIdleTTL <= 0 {
		cfg.SessionIdleTTL = defaultSessionIdleTTL
	}
	return &Service{
		cfg:      cfg,
		storage:  storage,
		products: products,
		events:   events,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *Service) repository(sessionID string) cart.SnapshotRepository {
	key := cart.SnapshotKey(s.cfg.Namespace, sessionID)
	return cart.NewSnapshotRepository(s.storage, key, s.cfg.WriteTimeout)
}

// lock returns the locked session of sessionID, rehydrating its store
// from the storage on first use. The caller must unlock it.
func (s *Service) lock(ctx context.Context, sessionID string) *session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[sessionID]
		if !ok {
			if len(s.sessions) >= s.cfg.MaxSessions {
				s.evictOldestLocked()
			}
			sess = &session{}
			s.sessions[sessionID] = sess
		}
		sess.lastUsed = s.now()
		s.mu.Unlock()

		sess.mu.Lock()
		if sess.closed {
			sess.mu.Unlock()
			continue
		}
		if sess.store == nil {
			sess.repo = s.repository(sessionID)
			sess.store = cart.Open(ctx, sess.repo, cart.WithPolicy(s.cfg.Policy))
		}
		return sess
	}
}

// tryEvictLocked drops the session unless a request holds it.
// s.mu must be held.
func (s *Service) tryEvictLocked(sessionID string, sess *session) bool {
	if !sess.mu.TryLock() {
		return false
	}
	sess.closed = true
	delete(s.sessions, sessionID)
	sess.mu.Unlock()
	return true
}

// evictOldestLocked drops the least recently used session that no
// request holds. When every session is busy the registry grows past
// the cap until they are released. s.mu must be held.
func (s *Service) evictOldestLocked() {
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return s.sessions[a].lastUsed.Compare(s.sessions[b].lastUsed)
	})
	for _, id := range ids {
		if s.tryEvictLocked(id, s.sessions[id]) {
			return
		}
	}
}

// EvictIdle drops the stores unused for longer than the idle TTL at now
// and returns how many were dropped.
func (s *Service) EvictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUsed) <= s.cfg.SessionIdleTTL {
			continue
		}
		if s.tryEvictLocked(id, sess) {
			n++
		}
	}
	return n
}

// SessionCount returns the number of stores held in memory.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps idle stores until ctx is done.
func (s *Service) Run(ctx context.Context) {
	const op = "Service.Run"
	log := slog.With("op", op)

	ticker := time.NewTicker(max(s.cfg.SessionIdleTTL/2, minSweepInterval))
	defer ticker.Stop()

	log.Info("sweeping idle sessions", "ttl", s.cfg.SessionIdleTTL)
	for {
		select {
		case <-ctx.Done():
			log.Info("stopped")
			return
		case <-ticker.C:
			if n := s.EvictIdle(s.now()); n > 0 {
				log.Debug("idle sessions are evicted", "n", n)
			}
		}
	}
}

type mutation func(*cart.Store) (domain.CartEventType, string, error)

// mutate applies fn to the session store and publishes the resulting event.
func (s *Service) mutate(
	ctx context.Context, sessionID string, fn mutation,
) (domain.CartState, error) {
	if err := ctx.Err(); err != nil {
		return domain.CartState{}, err
	}
	if sessionID == "" {
		return domain.CartState{}, ErrEmptySession
	}

	sess := s.lock(ctx, sessionID)
	eventType, productID, err := fn(sess.store)
	state := sess.store.State()
	sess.mu.Unlock()

	if err != nil {
		return domain.CartState{}, err
	}

	if eventType != "" {
		s.publish(ctx, domain.CartEvent{
			SessionID:     sessionID,
			Type:          eventType,
			ProductID:     productID,
			ItemCount:     state.Totals.ItemCount,
			SubtotalCents: state.Totals.SubtotalCents,
			TotalCents:    state.Totals.TotalCents,
			OccurredAt:    s.now().UTC(),
		})
	}
	return state, nil
}

func (s *Service) publish(ctx context.Context, e domain.CartEvent) {
	const op = "Service.publish"

	if err := s.events.ProduceCartEvent(ctx, e); err != nil {
		slog.Error(
			"failed to produce cart event",
			"op", op, "type", e.Type, "err", err,
		)
	}
}

func (s *Service) Cart(
	ctx context.Context, sessionID string,
) (domain.CartState, error) {
	const op = "Service.Cart"

	if err := ctx.Err(); err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	if sessionID != "" && !s.registered(sessionID) {
		_, err := s.repository(sessionID).Load(ctx)
		if errors.Is(err, port.ErrNotFound) {
			return cart.New(cart.WithPolicy(s.cfg.Policy)).State(), nil
		}
	}

	state, err := s.mutate(ctx, sessionID, func(*cart.Store) (domain.CartEventType, string, error) {
		return "", "", nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s *Service) registered(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// AddItem adds quantity units of the catalog product to the session cart
// at the product's current price.
func (s *Service) AddItem(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.CartState, error) {
	const op = "Service.AddItem"

	if quantity < 1 {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, cart.ErrInvalidQuantity)
	}

	p, err := s.Product(ctx, productID)
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		return domain.CartItemAdded, p.ProductID, c.AddItem(p, quantity)
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s *Service) UpdateQuantity(
	ctx context.Context, sessionID, productID string, quantity int,
) (domain.CartState, error) {
	const op = "Service.UpdateQuantity"

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		matched, err := c.UpdateQuantity(productID, quantity)
		switch {
		case err != nil, !matched:
			return "", "", err
		case quantity <= 0:
			return domain.CartItemRemoved, productID, nil
		}
		return domain.CartQuantityUpdated, productID, nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s *Service) RemoveItem(
	ctx context.Context, sessionID, productID string,
) (domain.CartState, error) {
	const op = "Service.RemoveItem"

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		if !c.RemoveItem(productID) {
			return "", "", nil
		}
		return domain.CartItemRemoved, productID, nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s *Service) ClearCart(
	ctx context.Context, sessionID string,
) (domain.CartState, error) {
	const op = "Service.ClearCart"

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		c.ClearCart()
		return domain.CartCleared, "", nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

// ToggleCart flips the cart visibility. Visibility is not persisted
// and produces no event.
func (s *Service) ToggleCart(
	ctx context.Context, sessionID string,
) (domain.CartState, error) {
	const op = "Service.ToggleCart"

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		c.ToggleCart()
		return "", "", nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s *Service) ApplyCoupon(
	ctx context.Context, sessionID, code string,
) (domain.CartState, error) {
	const op = "Service.ApplyCoupon"

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		c.ApplyCoupon(code)
		if code == "" {
			return domain.CartCouponRemoved, "", nil
		}
		return domain.CartCouponApplied, "", nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

func (s *Service) RemoveCoupon(
	ctx context.Context, sessionID string,
) (domain.CartState, error) {
	const op = "Service.RemoveCoupon"

	state, err := s.mutate(ctx, sessionID, func(c *cart.Store) (domain.CartEventType, string, error) {
		c.RemoveCoupon()
		return domain.CartCouponRemoved, "", nil
	})
	if err != nil {
		return domain.CartState{}, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

// EndSession drops the session store and its persisted snapshot.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	const op = "Service.EndSession"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if sessionID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptySession)
	}

	sess := s.lock(ctx, sessionID)
	defer sess.mu.Unlock()

	sess.closed = true
	s.mu.Lock()
	if s.sessions[sessionID] == sess {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if err := sess.repo.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.Products"

	ps, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *Service) Product(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Service.Product"

	p, err := s.products.ReadProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, notFound(err))
	}
	return p, nil
}

func (s *Service) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	p, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	const op = "Service.DeleteProduct"

	if err := s.products.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("%s: %w", op, notFound(err))
	}
	return nil
}

// notFound translates the repository miss into [ErrProductNotFound].
func notFound(err error) error {
	if errors.Is(err, port.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrProductNotFound, err)
	}
	return err
}

type nopProducer struct{}

func (nopProducer) ProduceCartEvent(context.Context, domain.CartEvent) error {
	return nil
}
