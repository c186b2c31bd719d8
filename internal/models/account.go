package models

import "github.com/shopspring/decimal"

// AccountStatus represents whether an account accepts new postings.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

// Supported account currencies. Amounts are never converted between them.
const (
	CurrencyBRL = "BRL"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// Account is a cash account. Balance is a running total of its ledger
// entries and is only written by the ledger.
type Account struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Currency    string          `gorm:"size:3;not null;default:'BRL'" json:"currency"`
	Balance     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	Status      AccountStatus   `gorm:"size:16;not null;default:'active'" json:"status"`
}

// IsActive reports whether the account accepts postings.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}
