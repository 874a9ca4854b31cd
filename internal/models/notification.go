package models

import (
	"github.com/expenso-dev/expenso/internal/types"
	"gorm.io/gorm"
)

// Notification is the durable record behind every push event. UserID and
// Category are set once at creation; IsRead is the only field that changes
// afterwards.
type Notification struct {
	gorm.Model

	UserID   uint           `gorm:"not null;index"`
	Message  string         `gorm:"not null"`
	Category types.Category `gorm:"not null;index"`
	IsRead   bool           `gorm:"not null;default:false"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// Payload shapes the record for the wire and for the read endpoint.
func (n *Notification) Payload() types.NotificationPayload {
	return types.NotificationPayload{
		ID:        n.ID,
		Message:   n.Message,
		Category:  n.Category,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
