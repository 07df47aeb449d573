package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

// PlanHandler manages recurring subscription plans.
type PlanHandler struct {
	plans    *services.PlanService
	products repository.ProductRepository
}

func NewPlanHandler(plans *services.PlanService, products repository.ProductRepository) *PlanHandler {
	return &PlanHandler{plans: plans, products: products}
}

// CreatePlan registers a recurring charge schedule for a customer.
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	var req CreatePlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CustomerID == 0 || req.ProductID == 0 || req.Currency == "" || req.RecurringRule == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "customer_id, product_id, currency and recurring_rule are required")
	}

	startDate := time.Now()
	if req.StartDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date must be RFC 3339")
		}
		startDate = parsed
	}

	ctx := c.Request().Context()

	products, err := h.products.FindByIDs(ctx, []uint{req.ProductID})
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown product id")
	}

	plan := &models.SubscriptionPlan{
		CustomerID:    req.CustomerID,
		ProductID:     req.ProductID,
		Name:          req.Name,
		Price:         products[0].Price,
		Currency:      req.Currency,
		StartDate:     startDate,
		RecurringRule: req.RecurringRule,
		Active:        true,
	}
	if err := h.plans.CreatePlan(ctx, plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    plan,
	})
}

// ChargeDuePlans runs one collection pass over every due plan. Per-plan
// failures are reported without aborting the rest of the pass.
func (h *PlanHandler) ChargeDuePlans(c echo.Context) error {
	ctx := c.Request().Context()

	due, err := h.plans.DuePlans(ctx, time.Now())
	if err != nil {
		return err
	}

	type planResult struct {
		PlanID uint   `json:"plan_id"`
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
	results := make([]planResult, 0, len(due))
	for i := range due {
		plan := &due[i]
		if _, err := h.plans.ChargeDue(ctx, plan); err != nil {
			results = append(results, planResult{PlanID: plan.ID, Status: "failed", Error: err.Error()})
			continue
		}
		results = append(results, planResult{PlanID: plan.ID, Status: "charged"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"due":     len(due),
			"results": results,
		},
	})
}
