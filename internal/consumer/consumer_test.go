package consumer

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/storefront-eng/salesync/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotificationsBounded(t *testing.T) {
	n := NewNotifications(3, testLogger())

	for i := 0; i < 5; i++ {
		n.Add(model.Notification{ID: fmt.Sprintf("n%d", i), Title: "t"})
	}

	if got := n.Len(); got != 3 {
		t.Fatalf("Len = %d, want 3", got)
	}

	recent := n.Recent(0)
	if recent[0].ID != "n4" || recent[2].ID != "n2" {
		t.Errorf("Recent = %v, want newest-first n4..n2", recent)
	}
}

func TestNotificationsGeneratedID(t *testing.T) {
	n := NewNotifications(10, testLogger())
	n.Add(model.Notification{Title: "no id"})

	recent := n.Recent(1)
	if len(recent) != 1 || recent[0].ID == "" {
		t.Errorf("Recent = %v, want one entry with generated id", recent)
	}
}

func TestNotificationsRecentLimit(t *testing.T) {
	n := NewNotifications(10, testLogger())
	n.Add(model.Notification{ID: "a"})
	n.Add(model.Notification{ID: "b"})

	recent := n.Recent(1)
	if len(recent) != 1 || recent[0].ID != "b" {
		t.Errorf("Recent(1) = %v, want [b]", recent)
	}
}

func TestEndingSoonNotification(t *testing.T) {
	n := NewNotifications(10, testLogger())
	n.AddEndingSoon("s1")

	recent := n.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("Len = %d, want 1", n.Len())
	}
	if recent[0].Type != "flash_sale_ending_soon" {
		t.Errorf("Type = %q, want flash_sale_ending_soon", recent[0].Type)
	}
	if recent[0].ID == "" {
		t.Error("ID is empty, want generated")
	}
}

func TestOrdersLatestStatusWins(t *testing.T) {
	o := NewOrders(testLogger())

	o.Apply(model.OrderUpdate{OrderID: "o1", Status: "pending"}, nil)
	o.Apply(model.OrderUpdate{OrderID: "o1", Status: "shipped"}, json.RawMessage(`{"status":"shipped"}`))
	o.Apply(model.OrderUpdate{OrderID: "o2", Status: "pending"}, nil)

	update, ok := o.Status("o1")
	if !ok || update.Status != "shipped" {
		t.Errorf("Status(o1) = %v, %v, want shipped", update, ok)
	}
	if got := o.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestOrdersDropsMissingID(t *testing.T) {
	o := NewOrders(testLogger())
	o.Apply(model.OrderUpdate{Status: "pending"}, nil)

	if got := o.Len(); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
}
