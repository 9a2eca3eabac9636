package dispatch

import (
	"encoding/json"
	"time"

	"github.com/storefront-eng/salesync/internal/connection"
	"github.com/storefront-eng/salesync/internal/model"
)

// Frame type discriminators recognized by the dispatcher.
const (
	TypeNotification   = "notification"
	TypeOrderUpdate    = "order_update"
	TypeSaleStarted    = "flash_sale_started"
	TypeSaleEndingSoon = "flash_sale_ending_soon"
	TypeSaleExpired    = "flash_sale_expired"
	TypeSaleTimer      = "flash_sale_timer_update"
)

// envelope is the outer frame shape.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// saleWire is the push representation of a full sale. Push payloads use
// "saleId"; "id" is accepted as well for symmetry with the REST shape.
type saleWire struct {
	ID                 string    `json:"id"`
	SaleID             string    `json:"saleId"`
	Name               string    `json:"name"`
	DiscountPercentage float64   `json:"discountPercentage"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	Priority           int       `json:"priority"`
	ProductIDs         []string  `json:"productIds"`
}

func (w saleWire) toModel() model.Sale {
	id := w.SaleID
	if id == "" {
		id = w.ID
	}
	return model.Sale{
		ID:                 id,
		Name:               w.Name,
		DiscountPercentage: w.DiscountPercentage,
		StartTime:          w.StartTime,
		EndTime:            w.EndTime,
		Priority:           w.Priority,
		ProductIDs:         w.ProductIDs,
	}
}

// saleRefWire carries just a sale reference. flash_sale_expired uses "id",
// the other sale events use "saleId".
type saleRefWire struct {
	ID     string `json:"id"`
	SaleID string `json:"saleId"`
}

func (w saleRefWire) saleID() string {
	if w.SaleID != "" {
		return w.SaleID
	}
	return w.ID
}

// timerWire is the flash_sale_timer_update payload.
type timerWire struct {
	SaleID        string `json:"saleId"`
	TimeRemaining int64  `json:"timeRemaining"` // seconds
}

// Handlers holds the consumer callbacks, one per recognized variant plus
// the unparsed fallback. Nil handlers are skipped.
type Handlers struct {
	Notification   func(model.Notification)
	OrderUpdate    func(model.OrderUpdate, json.RawMessage)
	SaleStarted    func(model.Sale)
	SaleEndingSoon func(saleID string)
	SaleExpired    func(saleID string)
	SaleTimer      func(saleID string, remaining time.Duration)
	Unparsed       func(frame connection.RawFrame)

	// Observer sees every frame with a decoded discriminator before it is
	// routed, unknown types included. Used for event journaling.
	Observer func(frame connection.RawFrame, eventType string)
}

// Stats contains dispatcher counters.
type Stats struct {
	Received int64
	Routed   int64
	Unknown  int64
	Unparsed int64
}
