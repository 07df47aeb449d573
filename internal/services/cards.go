package services

import (
	"context"
	"fmt"
	"strconv"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// CardCacheKey is the cache key for a customer's stored-card listing
func CardCacheKey(customerID uint) string {
	return "cards:" + strconv.FormatUint(uint64(customerID), 10)
}

// AddCardInput carries the raw card details for registration. They travel
// to the gateway for tokenization and are discarded afterwards.
type AddCardInput struct {
	Alias       string `json:"alias"`
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpireMonth string `json:"expire_month"`
	ExpireYear  string `json:"expire_year"`
}

// CardService registers and removes stored payment instruments. Removal
// always invalidates the token at the gateway before the local delete.
type CardService struct {
	gateway   gateway.Client
	cards     repository.CardRepository
	customers repository.CustomerRepository
	cache     *RedisCache
}

func NewCardService(gw gateway.Client, cards repository.CardRepository, customers repository.CustomerRepository, cache *RedisCache) *CardService {
	return &CardService{
		gateway:   gw,
		cards:     cards,
		customers: customers,
		cache:     cache,
	}
}

// AddCard tokenizes the card at the gateway and stores only the token and
// bin number. The customer's gateway user key is captured on first use.
func (s *CardService) AddCard(ctx context.Context, customer *models.Customer, input AddCardInput) (*models.StoredCard, error) {
	if !customer.IsBillable() {
		return nil, ErrBillingFields
	}

	res, err := s.gateway.StoreCard(ctx, &gateway.StoreCardRequest{
		UserKey:     customer.GatewayUserKey,
		ExternalID:  strconv.FormatUint(uint64(customer.ID), 10),
		Email:       customer.Email,
		Alias:       input.Alias,
		HolderName:  input.HolderName,
		Number:      input.Number,
		ExpireMonth: input.ExpireMonth,
		ExpireYear:  input.ExpireYear,
	})
	if err != nil {
		return nil, &CardStorageError{Reason: err.Error()}
	}
	if res.Status != gateway.StatusSuccess {
		return nil, &CardStorageError{Reason: res.ErrorMessage}
	}

	card := &models.StoredCard{
		CustomerID: customer.ID,
		Alias:      res.Alias,
		BinNumber:  res.BinNumber,
		Token:      res.Token,
		Bank:       res.Bank,
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("persist stored card: %w", err)
	}

	if customer.GatewayUserKey != res.UserKey {
		customer.GatewayUserKey = res.UserKey
		if err := s.customers.Update(ctx, customer); err != nil {
			return nil, fmt.Errorf("persist gateway user key: %w", err)
		}
	}

	s.invalidate(ctx, customer.ID)
	return card, nil
}

// RemoveCard invalidates the token at the gateway, then deletes the local
// record. A gateway failure keeps the card on file.
func (s *CardService) RemoveCard(ctx context.Context, card *models.StoredCard) error {
	customer, err := s.customers.FindByID(ctx, card.CustomerID)
	if err != nil {
		return fmt.Errorf("find card owner: %w", err)
	}

	if err := s.gateway.DeleteCard(ctx, customer.GatewayUserKey, card.Token); err != nil {
		return &CardStorageError{Reason: err.Error()}
	}
	if err := s.cards.Delete(ctx, card); err != nil {
		return fmt.Errorf("delete stored card: %w", err)
	}

	s.invalidate(ctx, card.CustomerID)
	return nil
}

func (s *CardService) invalidate(ctx context.Context, customerID uint) {
	if s.cache == nil {
		return
	}
	// Cache invalidation failures are not worth failing the operation over
	_ = s.cache.Delete(ctx, CardCacheKey(customerID))
}
