package sale

import (
	"sort"
	"time"

	"github.com/storefront-eng/salesync/internal/model"
)

// Config holds Sale Lifecycle Store configuration.
type Config struct {
	// RefreshInterval is the periodic snapshot-replace cadence, the
	// consistency backstop independent of push and timers.
	RefreshInterval time.Duration

	// RefreshGrace is the delay between a local timer hitting zero and the
	// fallback snapshot fetch that reconciles against the server.
	RefreshGrace time.Duration

	// TickInterval is the countdown resolution.
	TickInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RefreshInterval: 30 * time.Second,
		RefreshGrace:    1500 * time.Millisecond,
		TickInterval:    time.Second,
	}
}

// TimerEntry is one live countdown in the arena: the sale and the boundary
// its current phase runs out at.
type TimerEntry struct {
	SaleID   string
	Boundary time.Time
}

// Winner picks the sale that applies to a product among running sales:
// numerically highest priority wins, ties broken by lexicographically
// smallest sale ID for determinism.
func Winner(sales []model.Sale, productID string) (model.Sale, bool) {
	var best model.Sale
	found := false

	for _, s := range sales {
		if s.Phase != model.PhaseRunning || !s.HasProduct(productID) {
			continue
		}
		if !found ||
			s.Priority > best.Priority ||
			(s.Priority == best.Priority && s.ID < best.ID) {
			best = s
			found = true
		}
	}

	return best, found
}

// sortByID orders a sale slice deterministically for subscribers.
func sortByID(sales []model.Sale) {
	sort.Slice(sales, func(i, j int) bool { return sales[i].ID < sales[j].ID })
}
