package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

const cardListTTL = 10 * time.Minute

// CardHandler manages a customer's stored payment instruments.
type CardHandler struct {
	service   *services.CardService
	cards     repository.CardRepository
	customers repository.CustomerRepository
	cache     *services.RedisCache
}

func NewCardHandler(service *services.CardService, cards repository.CardRepository, customers repository.CustomerRepository, cache *services.RedisCache) *CardHandler {
	return &CardHandler{
		service:   service,
		cards:     cards,
		customers: customers,
		cache:     cache,
	}
}

// ListCards returns the customer's stored cards. Responses only ever carry
// the alias, bank and masked bin; the gateway token stays server side.
func (h *CardHandler) ListCards(c echo.Context) error {
	customerID, err := strconv.ParseUint(c.Param("customerId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}

	ctx := c.Request().Context()

	cards, err := services.GetOrSet(h.cache, ctx, services.CardCacheKey(uint(customerID)), cardListTTL, func() ([]models.StoredCard, error) {
		return h.cards.ListByCustomer(ctx, uint(customerID))
	})
	if err != nil {
		return err
	}

	type cardView struct {
		ID    uint   `json:"id"`
		Alias string `json:"alias"`
		Bin   string `json:"bin"`
		Bank  string `json:"bank"`
	}
	views := make([]cardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, cardView{ID: card.ID, Alias: card.Alias, Bin: card.BinNumber, Bank: card.Bank})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    views,
	})
}

// AddCard tokenizes a card at the gateway and stores the token locally.
func (h *CardHandler) AddCard(c echo.Context) error {
	var req AddCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CustomerID == 0 || req.Number == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "customer_id and number are required")
	}

	ctx := c.Request().Context()

	customer, err := h.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return err
	}

	card, err := h.service.AddCard(ctx, customer, services.AddCardInput{
		Alias:       req.Alias,
		HolderName:  req.HolderName,
		Number:      req.Number,
		ExpireMonth: req.ExpireMonth,
		ExpireYear:  req.ExpireYear,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"id":    card.ID,
			"alias": card.Alias,
			"bin":   card.BinNumber,
			"bank":  card.Bank,
		},
	})
}

// RemoveCard deletes a stored card at the gateway and locally.
func (h *CardHandler) RemoveCard(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid card id")
	}

	ctx := c.Request().Context()

	card, err := h.cards.FindByID(ctx, uint(id))
	if err != nil {
		return err
	}

	if err := h.service.RemoveCard(ctx, card); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
