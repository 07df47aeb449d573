package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// PlanService manages subscription plans and runs their recurring charges
// through the orchestrator with the subscription flag set.
type PlanService struct {
	db        *gorm.DB
	payments  *PaymentService
	customers repository.CustomerRepository
	products  repository.ProductRepository
}

func NewPlanService(db *gorm.DB, payments *PaymentService, customers repository.CustomerRepository, products repository.ProductRepository) *PlanService {
	return &PlanService{
		db:        db,
		payments:  payments,
		customers: customers,
		products:  products,
	}
}

// CreatePlan validates the recurrence rule and persists the plan
func (s *PlanService) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	if plan.RecurringRule != "" {
		if _, err := rrule.StrToRRule(plan.RecurringRule); err != nil {
			return fmt.Errorf("invalid recurring rule: %w", err)
		}
	}
	return s.db.WithContext(ctx).Create(plan).Error
}

// DuePlans returns every active plan whose next charge date is not after now
func (s *PlanService) DuePlans(ctx context.Context, now time.Time) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&plans).Error; err != nil {
		return nil, err
	}

	due := make([]models.SubscriptionPlan, 0, len(plans))
	for _, plan := range plans {
		after := plan.StartDate.Add(-time.Second)
		if plan.LastChargedAt != nil {
			after = *plan.LastChargedAt
		}
		if !plan.NextDue(after).After(now) {
			due = append(due, plan)
		}
	}
	return due, nil
}

// ChargeDue collects the plan's product price from its customer's stored
// cards. Success stamps LastChargedAt so the cycle advances.
func (s *PlanService) ChargeDue(ctx context.Context, plan *models.SubscriptionPlan) (*ChargeOutcome, error) {
	customer, err := s.customers.FindByID(ctx, plan.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("find plan customer: %w", err)
	}
	products, err := s.products.FindByIDs(ctx, []uint{plan.ProductID})
	if err != nil {
		return nil, fmt.Errorf("find plan product: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("plan %d references unknown product %d", plan.ID, plan.ProductID)
	}

	outcome, err := s.payments.Charge(ctx, customer, products, ChargeOptions{
		Currency:     plan.Currency,
		Installment:  1,
		Subscription: true,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	plan.LastChargedAt = &now
	if err := s.db.WithContext(ctx).Save(plan).Error; err != nil {
		return nil, fmt.Errorf("persist plan charge date: %w", err)
	}
	return outcome, nil
}
