package model

import (
	"math"
	"time"
)

// SalePhase is the lifecycle stage of a flash sale.
type SalePhase string

const (
	PhaseUpcoming SalePhase = "upcoming"
	PhaseRunning  SalePhase = "running"
	PhaseExpired  SalePhase = "expired"
)

// Sale represents a flash sale as known to the engine.
type Sale struct {
	ID                 string    `json:"saleId"`
	Name               string    `json:"name"`
	DiscountPercentage float64   `json:"discountPercentage"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	Priority           int       `json:"priority"`
	ProductIDs         []string  `json:"productIds"`

	// Phase is derived from the clock by default but may be overridden
	// by a server push (push wins over local time).
	Phase SalePhase `json:"phase,omitempty"`
}

// PhaseAt computes the phase implied by the clock alone.
func (s *Sale) PhaseAt(now time.Time) SalePhase {
	switch {
	case now.Before(s.StartTime):
		return PhaseUpcoming
	case now.Before(s.EndTime):
		return PhaseRunning
	default:
		return PhaseExpired
	}
}

// HasProduct reports whether the sale covers the given product.
func (s *Sale) HasProduct(productID string) bool {
	for _, id := range s.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// DiscountedPrice applies the sale discount to a list price in cents.
func (s *Sale) DiscountedPrice(listPrice int64) int64 {
	return int64(math.Round(float64(listPrice) * (1 - s.DiscountPercentage/100)))
}

// LineKey identifies a cart line: one line per (product, variant) pair.
type LineKey struct {
	ProductID string
	VariantID string // empty when the product has no variants
}

// CartLine is a single entry in the cart.
//
// AppliedSaleID is non-empty only while the referenced sale is running and
// covers ProductID; the price synchronizer clears it the moment that stops
// holding and UnitPrice reverts to ListPrice.
type CartLine struct {
	ProductID     string `json:"productId"`
	VariantID     string `json:"variantId,omitempty"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unitPrice"` // effective price charged, cents
	ListPrice     int64  `json:"listPrice"` // catalog price absent any sale, cents
	AppliedSaleID string `json:"appliedSaleId,omitempty"`
}

// Key returns the line's identity.
func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

// Notification is a server-pushed user notification.
type Notification struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
	Type     string `json:"type"`
}

// OrderUpdate is a server-pushed order status change.
type OrderUpdate struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}
