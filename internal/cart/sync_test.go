package cart

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/storefront-eng/salesync/internal/model"
	"github.com/storefront-eng/salesync/internal/sale"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runningSale(id string, discount float64, priority int, products ...string) model.Sale {
	now := time.Now()
	return model.Sale{
		ID:                 id,
		Name:               "Sale " + id,
		DiscountPercentage: discount,
		StartTime:          now.Add(-time.Hour),
		EndTime:            now.Add(time.Hour),
		Priority:           priority,
		ProductIDs:         products,
		Phase:              model.PhaseRunning,
	}
}

func cartWithLine(t *testing.T, line model.CartLine) (*Store, *Synchronizer) {
	t.Helper()
	store := NewStore("cart-1", nil, testLogger())
	store.AddLine(context.Background(), line)
	return store, NewSynchronizer(store, testLogger())
}

func TestDiscountAppliedAndReverted(t *testing.T) {
	store, syncer := cartWithLine(t, model.CartLine{
		ProductID: "p1",
		VariantID: "red",
		Quantity:  2,
		ListPrice: 1000,
	})

	syncer.OnSaleSetChanged([]model.Sale{runningSale("s1", 20, 1, "p1")})

	lines := store.Lines()
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if lines[0].UnitPrice != 800 {
		t.Errorf("UnitPrice = %d, want 800", lines[0].UnitPrice)
	}
	if lines[0].AppliedSaleID != "s1" {
		t.Errorf("AppliedSaleID = %q, want s1", lines[0].AppliedSaleID)
	}
	if lines[0].Quantity != 2 {
		t.Errorf("Quantity = %d, want 2 (pricing must not touch it)", lines[0].Quantity)
	}

	// The sale set without s1: line reverts to list price.
	syncer.OnSaleSetChanged(nil)

	lines = store.Lines()
	if lines[0].UnitPrice != 1000 {
		t.Errorf("UnitPrice after revert = %d, want 1000", lines[0].UnitPrice)
	}
	if lines[0].AppliedSaleID != "" {
		t.Errorf("AppliedSaleID after revert = %q, want empty", lines[0].AppliedSaleID)
	}
}

func TestExpiredSaleDoesNotDiscount(t *testing.T) {
	store, syncer := cartWithLine(t, model.CartLine{
		ProductID: "p1",
		Quantity:  1,
		ListPrice: 1000,
	})

	expired := runningSale("s1", 20, 1, "p1")
	expired.Phase = model.PhaseExpired

	syncer.OnSaleSetChanged([]model.Sale{expired})

	lines := store.Lines()
	if lines[0].UnitPrice != 1000 || lines[0].AppliedSaleID != "" {
		t.Errorf("line = %+v, want list price and no applied sale", lines[0])
	}
}

func TestRepriceIdempotent(t *testing.T) {
	store, syncer := cartWithLine(t, model.CartLine{
		ProductID: "p1",
		Quantity:  3,
		ListPrice: 1999,
	})
	sales := []model.Sale{runningSale("s1", 15, 1, "p1")}

	syncer.OnSaleSetChanged(sales)
	first := store.Lines()

	syncer.OnSaleSetChanged(sales)
	second := store.Lines()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second reprice changed lines: %v != %v", second, first)
	}
	if got := store.reprice(sales); got != 0 {
		t.Errorf("reprice changed %d lines on identical sale set, want 0", got)
	}
}

func TestHighestPriorityWinsWithIDTieBreak(t *testing.T) {
	store, syncer := cartWithLine(t, model.CartLine{
		ProductID: "p1",
		Quantity:  1,
		ListPrice: 1000,
	})

	syncer.OnSaleSetChanged([]model.Sale{
		runningSale("b", 50, 5, "p1"),
		runningSale("a", 10, 5, "p1"),
		runningSale("c", 90, 1, "p1"),
	})

	lines := store.Lines()
	if lines[0].AppliedSaleID != "a" {
		t.Errorf("AppliedSaleID = %q, want a (priority 5, smallest id)", lines[0].AppliedSaleID)
	}
	if lines[0].UnitPrice != 900 {
		t.Errorf("UnitPrice = %d, want 900", lines[0].UnitPrice)
	}
}

func TestRepriceOnlyCoveredProducts(t *testing.T) {
	store := NewStore("cart-1", nil, testLogger())
	ctx := context.Background()
	store.AddLine(ctx, model.CartLine{ProductID: "p1", Quantity: 1, ListPrice: 1000})
	store.AddLine(ctx, model.CartLine{ProductID: "p2", Quantity: 1, ListPrice: 500})
	syncer := NewSynchronizer(store, testLogger())

	syncer.OnSaleSetChanged([]model.Sale{runningSale("s1", 20, 1, "p1")})

	for _, line := range store.Lines() {
		switch line.ProductID {
		case "p1":
			if line.UnitPrice != 800 || line.AppliedSaleID != "s1" {
				t.Errorf("p1 line = %+v, want discounted by s1", line)
			}
		case "p2":
			if line.UnitPrice != 500 || line.AppliedSaleID != "" {
				t.Errorf("p2 line = %+v, want untouched", line)
			}
		}
	}
}

func TestRepriceNeverChangesMembership(t *testing.T) {
	store, syncer := cartWithLine(t, model.CartLine{
		ProductID: "p1",
		Quantity:  4,
		ListPrice: 250,
	})

	for i := 0; i < 5; i++ {
		syncer.OnSaleSetChanged([]model.Sale{runningSale("s1", 10, 1, "p1")})
		syncer.OnSaleSetChanged(nil)
	}

	lines := store.Lines()
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1 after repeated repricing", len(lines))
	}
	if lines[0].Quantity != 4 {
		t.Errorf("Quantity = %d, want 4", lines[0].Quantity)
	}
}

// fakeClock drives sale store boundaries without wall-clock waits.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestDiscountFollowsSaleLifecycle(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	saleStore := sale.NewStore(sale.DefaultConfig(), nil, clock, testLogger())

	store := NewStore("cart-1", nil, testLogger())
	store.AddLine(context.Background(), model.CartLine{
		ProductID: "P1",
		Quantity:  1,
		ListPrice: 1000,
	})
	saleStore.Subscribe(NewSynchronizer(store, testLogger()).OnSaleSetChanged)

	saleStore.ApplySnapshot([]model.Sale{{
		ID:                 "S1",
		Name:               "Flash",
		DiscountPercentage: 20,
		StartTime:          base.Add(-time.Hour),
		EndTime:            base.Add(2 * time.Second),
		Priority:           1,
		ProductIDs:         []string{"P1"},
	}})

	line := store.Lines()[0]
	if line.UnitPrice != 800 || line.AppliedSaleID != "S1" {
		t.Fatalf("line during sale = %+v, want 800/S1", line)
	}

	// Boundary elapses with no push; the local timer transition reverts
	// the cart in the same pass.
	clock.Advance(3 * time.Second)
	saleStore.Tick()

	line = store.Lines()[0]
	if line.UnitPrice != 1000 || line.AppliedSaleID != "" {
		t.Errorf("line after expiry = %+v, want 1000/no sale", line)
	}
}

func TestPushExpiryRevertsCartImmediately(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	saleStore := sale.NewStore(sale.DefaultConfig(), nil, clock, testLogger())

	store := NewStore("cart-1", nil, testLogger())
	store.AddLine(context.Background(), model.CartLine{
		ProductID: "P1",
		Quantity:  1,
		ListPrice: 1000,
	})
	saleStore.Subscribe(NewSynchronizer(store, testLogger()).OnSaleSetChanged)

	// Local clock still computes Running for another hour.
	saleStore.ApplySnapshot([]model.Sale{{
		ID:                 "S1",
		DiscountPercentage: 20,
		StartTime:          base.Add(-time.Hour),
		EndTime:            base.Add(time.Hour),
		Priority:           1,
		ProductIDs:         []string{"P1"},
	}})
	saleStore.ApplySaleExpired("S1")

	line := store.Lines()[0]
	if line.UnitPrice != 1000 || line.AppliedSaleID != "" {
		t.Errorf("line after expiry push = %+v, want 1000/no sale", line)
	}
}
