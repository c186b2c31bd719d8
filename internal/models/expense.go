package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is the payment status of an expense.
type ExpenseStatus string

const (
	ExpenseStatusPending ExpenseStatus = "pending"
	ExpenseStatusPaid    ExpenseStatus = "paid"
	ExpenseStatusOverdue ExpenseStatus = "overdue"
)

// Expense is either a direct account debit or a credit-card charge, never
// both. Status and BillClosedAt move independently.
type Expense struct {
	Base
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID         *string         `gorm:"type:uuid;index" json:"account_id,omitempty"`
	CreditCardID      *string         `gorm:"type:uuid;index" json:"credit_card_id,omitempty"`
	Description       string          `gorm:"not null" json:"description"`
	Category          string          `json:"category,omitempty"`
	Value             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"value"`
	DueDate           time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Status            ExpenseStatus   `gorm:"size:16;not null;default:'pending'" json:"status"`
	InstallmentNumber int             `gorm:"not null;default:1" json:"installment_number"`
	InstallmentTotal  int             `gorm:"not null;default:1" json:"installment_total"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	IsRecurring       bool            `gorm:"not null;default:false" json:"is_recurring"`
	BillClosedAt      *time.Time      `json:"bill_closed_at,omitempty"`
}

// IsCardCharge reports whether the expense belongs to a credit card invoice.
func (e *Expense) IsCardCharge() bool {
	return e.CreditCardID != nil
}
