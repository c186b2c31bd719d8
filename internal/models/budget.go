package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType selects which expenses count towards a budget.
type BudgetType string

const (
	BudgetTypeGeneral BudgetType = "general"
	BudgetTypeCard    BudgetType = "card"
)

// Budget is a spending plan over a date range. Utilization is computed on
// demand and never stored.
type Budget struct {
	Base
	UserID       string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string          `gorm:"not null" json:"name"`
	Type         BudgetType      `gorm:"size:16;not null" json:"type"`
	CreditCardID *string         `gorm:"type:uuid" json:"credit_card_id,omitempty"`
	PeriodStart  time.Time       `gorm:"type:date;not null" json:"period_start"`
	PeriodEnd    time.Time       `gorm:"type:date;not null" json:"period_end"`
	PlannedValue decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"planned_value"`
}
