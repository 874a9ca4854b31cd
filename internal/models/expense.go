package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Expense struct {
	gorm.Model

	UserID        uint            `gorm:"not null;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Description   string          `gorm:"not null"`
	PaymentMethod string
	Category      string
	Tags          datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
