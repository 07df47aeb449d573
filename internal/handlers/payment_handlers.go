package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

// PaymentHandler exposes the charge, 3DS callback, void and attempt
// inspection endpoints.
type PaymentHandler struct {
	payments     *services.PaymentService
	threeds      *services.ThreedsService
	void         *services.VoidService
	customers    repository.CustomerRepository
	products     repository.ProductRepository
	cards        repository.CardRepository
	attempts     repository.AttemptRepository
	transactions repository.TransactionRepository
}

func NewPaymentHandler(
	payments *services.PaymentService,
	threeds *services.ThreedsService,
	void *services.VoidService,
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	cards repository.CardRepository,
	attempts repository.AttemptRepository,
	transactions repository.TransactionRepository,
) *PaymentHandler {
	return &PaymentHandler{
		payments:     payments,
		threeds:      threeds,
		void:         void,
		customers:    customers,
		products:     products,
		cards:        cards,
		attempts:     attempts,
		transactions: transactions,
	}
}

// CreatePayment starts a charge. The response carries either the recorded
// transaction or, for 3DS, the session the caller must redirect with.
func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CustomerID == 0 || len(req.ProductIDs) == 0 || req.Currency == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "customer_id, product_ids and currency are required")
	}
	if req.Installment == 0 {
		req.Installment = 1
	}

	ctx := c.Request().Context()

	customer, err := h.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return err
	}
	products, err := h.products.FindByIDs(ctx, req.ProductIDs)
	if err != nil {
		return err
	}
	if len(products) != len(req.ProductIDs) {
		return echo.NewHTTPError(http.StatusBadRequest, "product set contains unknown ids")
	}

	outcome, err := h.payments.Charge(ctx, customer, products, services.ChargeOptions{
		Currency:     req.Currency,
		Installment:  req.Installment,
		Subscription: req.Subscription,
		Threeds:      req.Threeds,
		Card:         req.Card.toService(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    outcome,
	})
}

// ThreedsCallback receives the gateway's asynchronous verification result.
// The gateway posts form-encoded fields; this endpoint is unauthenticated.
func (h *PaymentHandler) ThreedsCallback(c echo.Context) error {
	var cb services.ThreedsCallback
	if err := c.Bind(&cb); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid callback payload")
	}
	if cb.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversationId is required")
	}

	ctx := c.Request().Context()

	attempt, err := h.attempts.FindByConversationID(ctx, cb.ConversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return services.ErrAttemptNotFound
		}
		return err
	}

	customer, err := h.customers.FindByID(ctx, attempt.CustomerID)
	if err != nil {
		return err
	}

	productIDs, err := attempt.ProductIDs()
	if err != nil {
		return err
	}
	products, err := h.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return err
	}

	var card *models.StoredCard
	if attempt.StoredCardID != nil {
		card, err = h.cards.FindByID(ctx, *attempt.StoredCardID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	tx, err := h.threeds.Resume(ctx, cb, customer, products, card)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    tx,
	})
}

// VoidTransaction reverses a recorded transaction
func (h *PaymentHandler) VoidTransaction(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid transaction id")
	}

	ctx := c.Request().Context()

	tx, err := h.transactions.FindByID(ctx, uint(id))
	if err != nil {
		return err
	}

	voided, err := h.void.Void(ctx, tx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    voided,
	})
}

// PendingAttempts lists attempts that have been pending longer than the
// given age. A 3DS attempt whose callback never arrives stays pending
// forever; this surfaces them instead of cleaning them up.
func (h *PaymentHandler) PendingAttempts(c echo.Context) error {
	hours := 24
	if raw := c.QueryParam("older_than_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid older_than_hours")
		}
		hours = parsed
	}

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	attempts, err := h.attempts.FindPending(c.Request().Context(), cutoff)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    attempts,
	})
}
