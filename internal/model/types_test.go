package model

import (
	"testing"
	"time"
)

func TestSale_PhaseAt(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	s := Sale{ID: "S1", StartTime: start, EndTime: end}

	tests := []struct {
		name string
		now  time.Time
		want SalePhase
	}{
		{"before start", start.Add(-time.Minute), PhaseUpcoming},
		{"at start", start, PhaseRunning},
		{"mid window", start.Add(30 * time.Minute), PhaseRunning},
		{"at end", end, PhaseExpired},
		{"after end", end.Add(time.Minute), PhaseExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.PhaseAt(tt.now); got != tt.want {
				t.Errorf("PhaseAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestSale_HasProduct(t *testing.T) {
	s := Sale{ID: "S1", ProductIDs: []string{"P1", "P2"}}

	if !s.HasProduct("P1") {
		t.Error("expected P1 to be covered")
	}
	if s.HasProduct("P3") {
		t.Error("P3 should not be covered")
	}
}

func TestSale_DiscountedPrice(t *testing.T) {
	tests := []struct {
		discount float64
		list     int64
		want     int64
	}{
		{20, 1000, 800},
		{0, 1000, 1000},
		{100, 1000, 0},
		{33, 999, 669}, // 999 * 0.67 = 669.33, rounds down
		{50, 1, 1},     // 0.5 rounds up
	}

	for _, tt := range tests {
		s := Sale{DiscountPercentage: tt.discount}
		if got := s.DiscountedPrice(tt.list); got != tt.want {
			t.Errorf("DiscountedPrice(%d) with %.0f%% = %d, want %d",
				tt.list, tt.discount, got, tt.want)
		}
	}
}

func TestCartLine_Key(t *testing.T) {
	a := CartLine{ProductID: "P1", VariantID: "red"}
	b := CartLine{ProductID: "P1", VariantID: "blue"}
	c := CartLine{ProductID: "P1"}

	if a.Key() == b.Key() {
		t.Error("different variants must have different keys")
	}
	if c.Key() != (LineKey{ProductID: "P1"}) {
		t.Errorf("Key() = %+v, want variant-less key", c.Key())
	}
}
