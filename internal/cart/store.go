// Package cart owns the cart line set and keeps its pricing synchronized
// with the sale lifecycle store.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/storefront-eng/salesync/internal/model"
	"github.com/storefront-eng/salesync/internal/sale"
)

// ErrLineNotFound is returned when a mutation targets a line the cart
// does not hold.
var ErrLineNotFound = errors.New("cart line not found")

const persistTimeout = 3 * time.Second

// Store is the in-memory owner of the cart line set. All writes go
// through its mutation methods; pricing fields are written exclusively
// by the price synchronizer via reprice.
type Store struct {
	cartID string
	repo   *Repository // optional, nil disables persistence
	logger *slog.Logger

	mu    sync.Mutex
	lines map[model.LineKey]*model.CartLine
}

// NewStore creates a cart store. repo may be nil when persistence is
// not configured.
func NewStore(cartID string, repo *Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		cartID: cartID,
		repo:   repo,
		logger: logger,
		lines:  make(map[model.LineKey]*model.CartLine),
	}
}

// Restore loads the persisted line set, replacing the in-memory one. A
// missing key is an empty cart, not an error.
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	lines, err := s.repo.Load(ctx, s.cartID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lines = make(map[model.LineKey]*model.CartLine, len(lines))
	for _, in := range lines {
		line := in
		s.lines[line.Key()] = &line
	}
	s.mu.Unlock()

	s.logger.Info("cart restored", "cart_id", s.cartID, "lines", len(lines))
	return nil
}

// AddLine adds a product line to the cart. Adding a key that already
// exists folds into the existing line's quantity instead of duplicating.
func (s *Store) AddLine(ctx context.Context, line model.CartLine) {
	s.mu.Lock()
	key := line.Key()
	if existing, ok := s.lines[key]; ok {
		existing.Quantity += line.Quantity
	} else {
		if line.UnitPrice == 0 {
			line.UnitPrice = line.ListPrice
		}
		s.lines[key] = &line
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, key model.LineKey, quantity int) error {
	s.mu.Lock()
	line, ok := s.lines[key]
	if !ok {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	if quantity <= 0 {
		delete(s.lines, key)
	} else {
		line.Quantity = quantity
	}
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// RemoveLine removes a line from the cart.
func (s *Store) RemoveLine(ctx context.Context, key model.LineKey) error {
	s.mu.Lock()
	if _, ok := s.lines[key]; !ok {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	delete(s.lines, key)
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// Lines returns a deterministic copy of the cart line set.
func (s *Store) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesLocked()
}

// Total returns the cart total in cents at current unit prices.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, line := range s.lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// reprice reconciles every line's pricing fields against the given sale
// set and returns how many lines changed. It writes only UnitPrice and
// AppliedSaleID; quantity and line membership are untouched.
func (s *Store) reprice(sales []model.Sale) int {
	s.mu.Lock()
	changed := 0
	for _, line := range s.lines {
		wantPrice := line.ListPrice
		wantSale := ""
		if winner, ok := sale.Winner(sales, line.ProductID); ok {
			wantPrice = winner.DiscountedPrice(line.ListPrice)
			wantSale = winner.ID
		}

		if line.UnitPrice != wantPrice || line.AppliedSaleID != wantSale {
			line.UnitPrice = wantPrice
			line.AppliedSaleID = wantSale
			changed++
		}
	}
	s.mu.Unlock()

	if changed > 0 {
		s.persist(context.Background())
	}
	return changed
}

// linesLocked copies the line set sorted by key. Callers hold s.mu.
func (s *Store) linesLocked() []model.CartLine {
	out := make([]model.CartLine, 0, len(s.lines))
	for _, line := range s.lines {
		out = append(out, *line)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].VariantID < out[j].VariantID
	})
	return out
}

// persist saves the current line set, fail-soft: the in-memory store is
// the owner and a persistence failure never blocks a mutation.
func (s *Store) persist(ctx context.Context) {
	if s.repo == nil {
		return
	}

	s.mu.Lock()
	lines := s.linesLocked()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, s.cartID, lines); err != nil {
		s.logger.Warn("cart persistence failed", "cart_id", s.cartID, "error", err)
	}
}
