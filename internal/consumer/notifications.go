// Package consumer holds the read-side consumers of dispatched push
// events: the notification history and per-order status tracking.
package consumer

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/storefront-eng/salesync/internal/model"
)

// DefaultNotificationCapacity bounds the retained notification history.
const DefaultNotificationCapacity = 100

// Notifications retains the most recent notifications in arrival order,
// oldest evicted first once the capacity is reached.
type Notifications struct {
	capacity int
	logger   *slog.Logger

	mu    sync.Mutex
	items []model.Notification
}

// NewNotifications creates a bounded notification consumer.
func NewNotifications(capacity int, logger *slog.Logger) *Notifications {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifications{
		capacity: capacity,
		logger:   logger,
	}
}

// Add records a notification. A missing ID gets a generated one so
// consumers can always deduplicate and reference entries.
func (n *Notifications) Add(in model.Notification) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}

	n.mu.Lock()
	n.items = append(n.items, in)
	if len(n.items) > n.capacity {
		n.items = n.items[len(n.items)-n.capacity:]
	}
	n.mu.Unlock()

	n.logger.Debug("notification received",
		"id", in.ID,
		"type", in.Type,
		"priority", in.Priority,
	)
}

// AddEndingSoon surfaces a sale's ending-soon signal as a notification.
func (n *Notifications) AddEndingSoon(saleID string) {
	n.Add(model.Notification{
		Title:    "Sale ending soon",
		Message:  "Flash sale " + saleID + " is about to end",
		Priority: "high",
		Type:     "flash_sale_ending_soon",
	})
}

// Recent returns up to limit notifications, newest first. limit <= 0
// returns everything retained.
func (n *Notifications) Recent(limit int) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	if limit <= 0 || limit > len(n.items) {
		limit = len(n.items)
	}

	out := make([]model.Notification, 0, limit)
	for i := len(n.items) - 1; i >= len(n.items)-limit; i-- {
		out = append(out, n.items[i])
	}
	return out
}

// Len returns the retained notification count.
func (n *Notifications) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}
