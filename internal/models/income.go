package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income is money received into an account. Posted flips to true once its
// value has been credited and never goes back. RecurrenceDay keeps the day of
// month a recurring income aims for after a short month clamps its date.
type Income struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID     string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Description   string          `gorm:"not null" json:"description"`
	Value         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	Date          time.Time       `gorm:"type:date;not null" json:"date"`
	IsRecurring   bool            `gorm:"not null;default:false" json:"is_recurring"`
	RecurrenceDay int             `gorm:"not null;default:0" json:"recurrence_day,omitempty"`
	Posted        bool            `gorm:"not null;default:false;index" json:"posted"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
}
