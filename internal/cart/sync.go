package cart

import (
	"log/slog"

	"github.com/storefront-eng/salesync/internal/model"
)

// Synchronizer keeps cart pricing consistent with the sale set. It is
// registered as a sale-set subscriber and may be invoked from push
// handlers, timer transitions, and snapshot refreshes in any order; the
// reconciliation is idempotent, so repeated or out-of-order invocations
// converge on the same prices.
type Synchronizer struct {
	store  *Store
	logger *slog.Logger
}

// NewSynchronizer creates a price synchronizer over the given cart store.
func NewSynchronizer(store *Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Synchronizer{
		store:  store,
		logger: logger,
	}
}

// OnSaleSetChanged recomputes every cart line against the given sale set:
// the winning running sale covering a line's product sets its discounted
// unit price and applied sale; a line with no winner reverts to list price.
func (s *Synchronizer) OnSaleSetChanged(sales []model.Sale) {
	changed := s.store.reprice(sales)
	if changed > 0 {
		s.logger.Info("cart repriced", "lines_changed", changed)
	}
}
