package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard holds the billing cycle configuration of a card.
type CreditCard struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name               string          `gorm:"not null" json:"name"`
	Brand              string          `json:"brand,omitempty"`
	ClosingDay         int             `gorm:"not null" json:"closing_day"`
	DueDay             int             `gorm:"not null" json:"due_day"`
	LimitValue         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"limit_value"`
	AutoDebit          bool            `gorm:"not null;default:false" json:"auto_debit"`
	AutoDebitAccountID *string         `gorm:"type:uuid" json:"auto_debit_account_id,omitempty"`
}

// CreditCardPayment is money moved from an account to settle (part of) an
// invoice. PeriodStart/PeriodEnd identify the invoice it was applied to.
type CreditCardPayment struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CreditCardID  string          `gorm:"type:uuid;not null;index" json:"credit_card_id"`
	AccountID     string          `gorm:"type:uuid;not null" json:"account_id"`
	Value         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	PaymentDate   time.Time       `gorm:"type:date;not null" json:"payment_date"`
	IsFullPayment bool            `gorm:"not null;default:false" json:"is_full_payment"`
	PeriodStart   time.Time       `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd     time.Time       `gorm:"type:date;not null" json:"period_end"`
}
