package sale

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/storefront-eng/salesync/internal/model"
)

// SaleSource is the REST collaborator queried on cold start, on timer
// exhaustion, on the periodic refresh cycle, and to fill in sale detail
// a push event omitted.
type SaleSource interface {
	ListActiveSales(ctx context.Context) ([]model.Sale, error)
	GetSale(ctx context.Context, saleID string) (*model.Sale, error)
}

// Store is the Sale Lifecycle Store. All mutation goes through its
// methods; consumers subscribe for read-only sale-set change callbacks.
type Store struct {
	cfg    Config
	source SaleSource
	clock  Clock
	logger *slog.Logger

	mu          sync.Mutex
	sales       map[string]*model.Sale
	timers      map[string]TimerEntry
	fallback    *time.Timer // pending deferred refresh, nil when none
	subscribers []func([]model.Sale)

	// notifyMu serializes subscriber delivery so a later mutation's
	// snapshot can never be overtaken by an earlier, staler one.
	notifyMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a Sale Lifecycle Store.
func NewStore(cfg Config, source SaleSource, clock Clock, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &Store{
		cfg:    cfg,
		source: source,
		clock:  clock,
		logger: logger,
		sales:  make(map[string]*model.Sale),
		timers: make(map[string]TimerEntry),
	}
}

// Start performs the cold-start snapshot fetch and begins the scheduler
// tick and the periodic refresh loop. A failed cold start is degraded, not
// fatal: the periodic refresh is the backstop.
func (s *Store) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.refresh(s.ctx)

	s.wg.Add(2)
	go s.tickLoop()
	go s.refreshLoop()

	s.logger.Info("sale store started",
		"sales", len(s.Snapshot()),
		"refresh_interval", s.cfg.RefreshInterval,
		"tick_interval", s.cfg.TickInterval,
	)

	return nil
}

// Stop cancels all timers and shuts the store down.
func (s *Store) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	if s.fallback != nil {
		s.fallback.Stop()
		s.fallback = nil
	}
	s.timers = make(map[string]TimerEntry)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sale store stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a sale-set change consumer. The callback receives the
// full sale set after every snapshot replace or phase transition; it must
// be idempotent.
func (s *Store) Subscribe(fn func([]model.Sale)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

// ActiveSales returns all sales currently in the Running phase.
func (s *Store) ActiveSales() []model.Sale {
	return s.salesInPhase(model.PhaseRunning)
}

// UpcomingSales returns all sales currently in the Upcoming phase.
func (s *Store) UpcomingSales() []model.Sale {
	return s.salesInPhase(model.PhaseUpcoming)
}

// Snapshot returns a copy of the full sale set, expired sales included.
func (s *Store) Snapshot() []model.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TimeRemaining returns the countdown for a sale's current phase boundary,
// zero when the sale has no live timer.
func (s *Store) TimeRemaining(saleID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.timers[saleID]
	if !ok {
		return 0
	}

	remaining := entry.Boundary.Sub(s.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Store) salesInPhase(phase model.SalePhase) []model.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.Phase == phase {
			out = append(out, *sale)
		}
	}
	sortByID(out)
	return out
}

// snapshotLocked copies the full sale set. Callers hold s.mu.
func (s *Store) snapshotLocked() []model.Sale {
	out := make([]model.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, *sale)
	}
	sortByID(out)
	return out
}

// notify delivers the current sale set to all subscribers. The snapshot is
// taken and delivered under notifyMu, so concurrent mutation paths (push
// handler, tick loop, refresh) cannot deliver out of order: the last
// delivery always carries the freshest state. Must be called without
// holding s.mu; subscribers may read from the store but must not mutate it.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	snapshot := s.snapshotLocked()
	subs := make([]func([]model.Sale), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
