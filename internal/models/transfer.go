package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves money between two accounts, or between an account and a
// third party when one side is nil.
type Transfer struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	FromAccountID *string         `gorm:"type:uuid;index" json:"from_account_id,omitempty"`
	ToAccountID   *string         `gorm:"type:uuid;index" json:"to_account_id,omitempty"`
	Value         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	Date          time.Time       `gorm:"type:date;not null" json:"date"`
	Description   string          `json:"description"`
}
