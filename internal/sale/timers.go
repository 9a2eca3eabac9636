package sale

import (
	"context"
	"time"
)

// tickLoop drives the timer arena at the configured resolution.
func (s *Store) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick iterates the arena once: any entry whose boundary has passed fires
// a local phase transition and schedules the deferred fallback refresh.
// The scheduler loop calls it at the configured resolution; tests drive it
// directly with an injected clock. A push event for the same boundary may
// also arrive; both paths converge through idempotent subscribers, so
// double-firing is harmless.
func (s *Store) Tick() {
	now := s.clock.Now()

	s.mu.Lock()
	var transitioned bool
	for id, entry := range s.timers {
		if entry.Boundary.After(now) {
			continue
		}

		sale, ok := s.sales[id]
		if !ok {
			delete(s.timers, id)
			continue
		}

		if s.advancePhaseLocked(sale, now) {
			transitioned = true
			s.logger.Info("local timer transition",
				"sale_id", id,
				"phase", sale.Phase,
			)
		}
	}
	if transitioned {
		s.scheduleFallbackLocked()
	}
	s.mu.Unlock()

	if transitioned {
		s.notify()
	}
}

// scheduleFallbackLocked arms the deferred refresh that reconciles a local
// boundary crossing against the server, in case the corresponding push was
// dropped. At most one is pending at a time. Callers hold s.mu.
func (s *Store) scheduleFallbackLocked() {
	if s.fallback != nil {
		return
	}

	s.fallback = time.AfterFunc(s.cfg.RefreshGrace, func() {
		s.mu.Lock()
		s.fallback = nil
		ctx := s.ctx
		s.mu.Unlock()

		if ctx == nil || ctx.Err() != nil {
			return
		}
		s.logger.Debug("timer-exhaustion fallback refresh")
		s.refresh(ctx)
	})
}

// refreshLoop is the periodic consistency backstop.
func (s *Store) refreshLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.refresh(s.ctx)
		}
	}
}

// refresh fetches a fresh snapshot and replaces the sale set. On failure
// the previous snapshot stays in place untouched; the next cycle retries.
func (s *Store) refresh(ctx context.Context) {
	if s.source == nil {
		return
	}

	sales, err := s.source.ListActiveSales(ctx)
	if err != nil {
		s.logger.Warn("snapshot refresh failed, keeping previous snapshot", "error", err)
		return
	}

	s.ApplySnapshot(sales)
}
