package types

import "time"

// Category tells which side of the ledger a notification came from.
type Category string

const (
	CategoryExpense Category = "expense"
	CategoryIncome  Category = "income"
)

func (c Category) Valid() bool {
	return c == CategoryExpense || c == CategoryIncome
}

// Action distinguishes a freshly created notification record from a
// mutation of an existing one (currently only mark-as-read).
type Action int

const (
	ActionCreated Action = iota
	ActionUpdated
)

// eventNames keeps the wire names the original web client listens on,
// including its created/updated asymmetry. Call sites dispatch through
// EventName rather than repeating these literals.
var eventNames = map[Category]map[Action]string{
	CategoryExpense: {
		ActionCreated: "add_expense_notification",
		ActionUpdated: "updated_expense_notification",
	},
	CategoryIncome: {
		ActionCreated: "add_income_notification",
		ActionUpdated: "update_income_notification",
	},
}

// EventName returns the push event name for a category/action pair.
// Unknown pairs yield "", which the hub treats as undeliverable.
func EventName(category Category, action Action) string {
	return eventNames[category][action]
}

// ParseEventName is the inverse of EventName, used by push clients to
// dispatch incoming events.
func ParseEventName(name string) (Category, Action, bool) {
	for category, actions := range eventNames {
		for action, candidate := range actions {
			if candidate == name {
				return category, action, true
			}
		}
	}
	return "", 0, false
}

// NotificationPayload is the body of every push event. ID must always be
// the persisted record's id; the client deduplicates on it.
type NotificationPayload struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// PushEvent is the envelope written to a websocket connection.
type PushEvent struct {
	Event   string              `json:"event"`
	Payload NotificationPayload `json:"payload"`
}
