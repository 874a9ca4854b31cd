package client

import (
	"sort"
	"sync"

	"github.com/expenso-dev/expenso/internal/types"
)

// Reconciler merges the historical notification list with live push events
// into one deduplicated view. The notification id is always the merge key,
// so a record seen both in the baseline fetch and as a live push appears
// once. Safe for concurrent use; the read loop and the UI side share it.
type Reconciler struct {
	mu   sync.Mutex
	byID map[uint]types.NotificationPayload
}

func NewReconciler() *Reconciler {
	return &Reconciler{byID: make(map[uint]types.NotificationPayload)}
}

// SetBaseline replaces the local view with a freshly fetched history.
func (r *Reconciler) SetBaseline(records []types.NotificationPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID = make(map[uint]types.NotificationPayload, len(records))
	for _, record := range records {
		r.byID[record.ID] = record
	}
}

// Apply folds one push event into the view. Created events append unless
// the id is already known; updated events replace the matching record and
// are ignored for unknown ids. Events with unknown names or without an id
// are dropped.
func (r *Reconciler) Apply(event types.PushEvent) {
	_, action, ok := types.ParseEventName(event.Event)
	if !ok || event.Payload.ID == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, known := r.byID[event.Payload.ID]

	switch action {
	case types.ActionCreated:
		if !known {
			r.byID[event.Payload.ID] = event.Payload
		}
	case types.ActionUpdated:
		if known {
			r.byID[event.Payload.ID] = event.Payload
		}
	}
}

// Notifications returns the merged view newest first.
func (r *Reconciler) Notifications() []types.NotificationPayload {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]types.NotificationPayload, 0, len(r.byID))
	for _, record := range r.byID {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})

	return records
}

// UnreadCount counts records still marked unread. The original web client
// used the whole list length here; counting isRead=false is the deliberate
// fix.
func (r *Reconciler) UnreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, record := range r.byID {
		if !record.IsRead {
			count++
		}
	}

	return count
}
