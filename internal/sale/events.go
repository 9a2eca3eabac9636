package sale

import (
	"context"
	"time"

	"github.com/storefront-eng/salesync/internal/model"
)

const detailFetchTimeout = 5 * time.Second

// ApplySnapshot replaces the entire known sale set with a freshly fetched
// one. Replacement, never a merge: stale sales and push overrides do not
// accumulate across snapshots. Subscribers are notified unconditionally;
// they are idempotent, so an unchanged set is a no-op downstream.
func (s *Store) ApplySnapshot(sales []model.Sale) {
	now := s.clock.Now()

	s.mu.Lock()
	s.sales = make(map[string]*model.Sale, len(sales))
	s.timers = make(map[string]TimerEntry, len(sales))

	for _, in := range sales {
		sale := in
		sale.Phase = sale.PhaseAt(now)
		s.sales[sale.ID] = &sale
		s.rebuildTimerLocked(&sale)
	}
	count := len(s.sales)
	s.mu.Unlock()

	s.logger.Debug("applied sale snapshot", "sales", count)
	s.notify()
}

// ApplySaleStarted applies a flash_sale_started push. The push is
// authoritative: the sale is Running even when the local clock disagrees,
// and its timer is recreated against the pushed end boundary. A push that
// arrives without its product list is enriched from the catalog first;
// when that fails the sale is still applied and the next refresh fills in
// the products.
func (s *Store) ApplySaleStarted(in model.Sale) {
	if len(in.ProductIDs) == 0 && s.source != nil {
		ctx, cancel := context.WithTimeout(context.Background(), detailFetchTimeout)
		full, err := s.source.GetSale(ctx, in.ID)
		cancel()
		if err != nil {
			s.logger.Warn("sale detail fetch failed", "sale_id", in.ID, "error", err)
		} else if full != nil {
			in.ProductIDs = full.ProductIDs
		}
	}

	now := s.clock.Now()

	s.mu.Lock()
	sale := in
	sale.Phase = model.PhaseRunning
	if sale.PhaseAt(now) != model.PhaseRunning {
		s.logger.Info("push overrides local clock",
			"sale_id", sale.ID,
			"clock_phase", sale.PhaseAt(now),
			"pushed_phase", model.PhaseRunning,
		)
	}
	s.sales[sale.ID] = &sale
	s.timers[sale.ID] = TimerEntry{SaleID: sale.ID, Boundary: sale.EndTime}
	s.mu.Unlock()

	s.logger.Info("sale started", "sale_id", sale.ID, "name", sale.Name)
	s.notify()
}

// ApplySaleExpired applies a flash_sale_expired push. Push wins over the
// clock immediately: a force-ended sale stops discounting in the same
// tick. The sale is retained as Expired until a snapshot supersedes it.
func (s *Store) ApplySaleExpired(saleID string) {
	s.mu.Lock()
	sale, ok := s.sales[saleID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("expiry push for unknown sale", "sale_id", saleID)
		return
	}

	if sale.PhaseAt(s.clock.Now()) != model.PhaseExpired {
		s.logger.Info("push overrides local clock",
			"sale_id", saleID,
			"pushed_phase", model.PhaseExpired,
		)
	}
	sale.Phase = model.PhaseExpired
	delete(s.timers, saleID)
	s.mu.Unlock()

	s.logger.Info("sale expired", "sale_id", saleID)
	s.notify()
}

// ApplyTimerUpdate applies a flash_sale_timer_update push: the server's
// remaining time supersedes the local boundary, and the sale's own phase
// boundary moves with it so clock recomputation stays consistent.
func (s *Store) ApplyTimerUpdate(saleID string, remaining time.Duration) {
	now := s.clock.Now()

	s.mu.Lock()
	sale, ok := s.sales[saleID]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("timer push for unknown sale", "sale_id", saleID)
		return
	}

	if remaining <= 0 {
		// Boundary already crossed server-side.
		transitioned := s.advancePhaseLocked(sale, now)
		s.mu.Unlock()
		if transitioned {
			s.notify()
		}
		return
	}

	boundary := now.Add(remaining)
	switch sale.Phase {
	case model.PhaseUpcoming:
		sale.StartTime = boundary
	case model.PhaseRunning:
		sale.EndTime = boundary
	default:
		s.mu.Unlock()
		return
	}
	s.timers[saleID] = TimerEntry{SaleID: saleID, Boundary: boundary}
	s.mu.Unlock()

	s.logger.Debug("timer resynced to server",
		"sale_id", saleID,
		"remaining", remaining,
	)
}

// advancePhaseLocked moves a sale past its current boundary and rebuilds
// its timer. Returns true when the phase changed. Callers hold s.mu.
func (s *Store) advancePhaseLocked(sale *model.Sale, now time.Time) bool {
	var next model.SalePhase
	switch sale.Phase {
	case model.PhaseUpcoming:
		next = sale.PhaseAt(now)
		if next == model.PhaseUpcoming {
			next = model.PhaseRunning
		}
	case model.PhaseRunning:
		next = model.PhaseExpired
	default:
		return false
	}

	sale.Phase = next
	s.rebuildTimerLocked(sale)
	return true
}

// rebuildTimerLocked recreates a sale's arena entry for its current phase.
// Expired sales carry no timer. Callers hold s.mu.
func (s *Store) rebuildTimerLocked(sale *model.Sale) {
	switch sale.Phase {
	case model.PhaseUpcoming:
		s.timers[sale.ID] = TimerEntry{SaleID: sale.ID, Boundary: sale.StartTime}
	case model.PhaseRunning:
		s.timers[sale.ID] = TimerEntry{SaleID: sale.ID, Boundary: sale.EndTime}
	default:
		delete(s.timers, sale.ID)
	}
}
