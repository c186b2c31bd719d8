package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ronieruas/Finance-CursorApp-sub000/internal/uuid"
)

// LedgerSource identifies the kind of event behind a ledger entry.
type LedgerSource string

const (
	LedgerSourceOpening     LedgerSource = "opening"
	LedgerSourceIncome      LedgerSource = "income"
	LedgerSourceExpense     LedgerSource = "expense"
	LedgerSourceTransferOut LedgerSource = "transfer_out"
	LedgerSourceTransferIn  LedgerSource = "transfer_in"
	LedgerSourceCardPayment LedgerSource = "card_payment"
	LedgerSourceReversal    LedgerSource = "reversal"
)

// LedgerEntry records one signed change to an account balance.
// Entries are append-only: a reversal is a new entry pointing at the one it
// cancels, and the cancelled entry gets ReversedAt stamped.
type LedgerEntry struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID  string          `gorm:"type:uuid;not null;index" json:"account_id"`
	SourceType LedgerSource    `gorm:"size:32;not null;index:idx_ledger_source" json:"source_type"`
	SourceID   string          `gorm:"type:uuid;not null;index:idx_ledger_source" json:"source_id"`
	Delta      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"delta"`
	PostedAt   time.Time       `gorm:"not null" json:"posted_at"`
	ReversedAt *time.Time      `json:"reversed_at,omitempty"`
	ReversesID *string         `gorm:"type:uuid" json:"reverses_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BeforeCreate assigns a UUIDv7 to new entries.
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}
