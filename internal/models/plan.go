package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// SubscriptionPlan links a customer to a recurring charge executed through
// the orchestrator with the subscription flag set.
type SubscriptionPlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CustomerID uint            `gorm:"index" json:"customer_id"`
	ProductID  uint            `gorm:"index" json:"product_id"`
	Name       string          `gorm:"type:varchar(255)" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
	Currency   string          `gorm:"type:varchar(8)" json:"currency"`
	StartDate  time.Time       `json:"start_date"`

	// RFC 5545 RRULE string, e.g. "FREQ=MONTHLY;INTERVAL=1"
	RecurringRule string `gorm:"type:text" json:"recurring_rule"`

	Active        bool       `gorm:"default:true" json:"active"`
	LastChargedAt *time.Time `json:"last_charged_at,omitempty"`

	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Product  Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// NextDue calculates the next charge date after the given reference time.
// A plan without a parseable rule falls back to its start date.
func (p SubscriptionPlan) NextDue(after time.Time) time.Time {
	if p.RecurringRule == "" {
		return p.StartDate
	}
	rule, err := rrule.StrToRRule(p.RecurringRule)
	if err != nil {
		return p.StartDate
	}
	rule.DTStart(p.StartDate)
	next := rule.After(after, true)
	if next.IsZero() {
		return p.StartDate
	}
	return next
}
