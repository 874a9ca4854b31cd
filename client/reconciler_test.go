package client

import (
	"testing"
	"time"

	"github.com/expenso-dev/expenso/internal/types"
)

func payload(id uint, message string, category types.Category, isRead bool, createdAt time.Time) types.NotificationPayload {
	return types.NotificationPayload{
		ID:        id,
		Message:   message,
		Category:  category,
		IsRead:    isRead,
		CreatedAt: createdAt,
	}
}

func created(p types.NotificationPayload) types.PushEvent {
	return types.PushEvent{Event: types.EventName(p.Category, types.ActionCreated), Payload: p}
}

func updated(p types.NotificationPayload) types.PushEvent {
	return types.PushEvent{Event: types.EventName(p.Category, types.ActionUpdated), Payload: p}
}

func TestReconcilerAppendsCreated(t *testing.T) {
	recon := NewReconciler()
	now := time.Now()

	recon.SetBaseline([]types.NotificationPayload{
		payload(1, "first", types.CategoryExpense, false, now),
	})

	recon.Apply(created(payload(2, "second", types.CategoryExpense, false, now.Add(time.Minute))))

	list := recon.Notifications()
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].ID != 2 || list[1].ID != 1 {
		t.Errorf("not newest first: %d, %d", list[0].ID, list[1].ID)
	}
}

// A push that raced the baseline fetch must not duplicate the record.
func TestReconcilerDeduplicatesByID(t *testing.T) {
	recon := NewReconciler()
	now := time.Now()
	record := payload(5, "msg", types.CategoryIncome, false, now)

	recon.SetBaseline([]types.NotificationPayload{record})
	recon.Apply(created(record))
	recon.Apply(created(record))

	if got := len(recon.Notifications()); got != 1 {
		t.Fatalf("expected 1 notification after duplicate pushes, got %d", got)
	}
}

// Missed-push convergence: the record missed while disconnected arrives via
// the re-fetched history; the late live push for the same id changes
// nothing.
func TestReconcilerConvergesAfterMissedPush(t *testing.T) {
	recon := NewReconciler()
	now := time.Now()

	seen := payload(1, "before disconnect", types.CategoryExpense, false, now)
	recon.SetBaseline([]types.NotificationPayload{seen})

	// Disconnected here; a new notification is persisted server-side.
	missed := payload(2, "while offline", types.CategoryExpense, false, now.Add(time.Minute))

	// Reconnect: fresh history contains both.
	recon.SetBaseline([]types.NotificationPayload{missed, seen})

	// The buffered live push for the same record arrives afterwards.
	recon.Apply(created(missed))

	list := recon.Notifications()
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications after reconnect, got %d", len(list))
	}
	if list[0].ID != 2 {
		t.Errorf("expected the missed notification first, got id %d", list[0].ID)
	}
}

func TestReconcilerUpdatedReplacesMatch(t *testing.T) {
	recon := NewReconciler()
	now := time.Now()

	recon.SetBaseline([]types.NotificationPayload{
		payload(1, "msg", types.CategoryIncome, false, now),
	})

	recon.Apply(updated(payload(1, "msg", types.CategoryIncome, true, now)))

	list := recon.Notifications()
	if len(list) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(list))
	}
	if !list[0].IsRead {
		t.Error("expected the record to be replaced with the read version")
	}
}

func TestReconcilerUpdatedIgnoresUnknownID(t *testing.T) {
	recon := NewReconciler()

	recon.Apply(updated(payload(9, "ghost", types.CategoryExpense, true, time.Now())))

	if got := len(recon.Notifications()); got != 0 {
		t.Fatalf("expected unknown update to be ignored, got %d records", got)
	}
}

func TestReconcilerIgnoresUnknownEvents(t *testing.T) {
	recon := NewReconciler()

	recon.Apply(types.PushEvent{Event: "connected"})
	recon.Apply(types.PushEvent{
		Event:   types.EventName(types.CategoryExpense, types.ActionCreated),
		Payload: types.NotificationPayload{ID: 0, Message: "no id"},
	})

	if got := len(recon.Notifications()); got != 0 {
		t.Fatalf("expected nothing recorded, got %d", got)
	}
}

func TestReconcilerUnreadCount(t *testing.T) {
	recon := NewReconciler()
	now := time.Now()

	recon.SetBaseline([]types.NotificationPayload{
		payload(1, "read", types.CategoryExpense, true, now),
		payload(2, "unread", types.CategoryExpense, false, now.Add(time.Second)),
		payload(3, "unread too", types.CategoryIncome, false, now.Add(2*time.Second)),
	})

	// Count tracks isRead=false, not list length.
	if got := recon.UnreadCount(); got != 2 {
		t.Fatalf("unread count = %d, want 2", got)
	}

	recon.Apply(updated(payload(2, "unread", types.CategoryExpense, true, now.Add(time.Second))))

	if got := recon.UnreadCount(); got != 1 {
		t.Fatalf("unread count after mark-read = %d, want 1", got)
	}
}
