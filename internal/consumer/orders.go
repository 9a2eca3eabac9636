package consumer

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/storefront-eng/salesync/internal/model"
)

// Orders tracks the latest known status per order from the orders topic.
// Updates for the same order overwrite; there is no history.
type Orders struct {
	logger *slog.Logger

	mu     sync.Mutex
	status map[string]model.OrderUpdate
}

// NewOrders creates an order-update consumer.
func NewOrders(logger *slog.Logger) *Orders {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orders{
		logger: logger,
		status: make(map[string]model.OrderUpdate),
	}
}

// Apply records an order update. The raw payload is accepted alongside
// the decoded form so extra server fields can be logged without the
// consumer modeling them.
func (o *Orders) Apply(update model.OrderUpdate, raw json.RawMessage) {
	if update.OrderID == "" {
		o.logger.Warn("order update without order id dropped")
		return
	}

	o.mu.Lock()
	o.status[update.OrderID] = update
	o.mu.Unlock()

	o.logger.Info("order status updated",
		"order_id", update.OrderID,
		"status", update.Status,
		"payload_bytes", len(raw),
	)
}

// Status returns the latest status for an order.
func (o *Orders) Status(orderID string) (model.OrderUpdate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	update, ok := o.status[orderID]
	return update, ok
}

// Len returns the number of tracked orders.
func (o *Orders) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.status)
}
