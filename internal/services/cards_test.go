package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
)

func TestAddCardStoresOnlyTokenAndBin(t *testing.T) {
	gw := &fakeGateway{storeResult: &gateway.StoreCardResult{
		Status:    gateway.StatusSuccess,
		UserKey:   "user-key-7",
		Token:     "tok-new",
		Alias:     "work card",
		BinNumber: "552879",
		Bank:      "Garanti",
	}}
	cards := &memCardRepo{}
	customers := &memCustomerRepo{}
	svc := NewCardService(gw, cards, customers, nil)

	card, err := svc.AddCard(context.Background(), billableCustomer(), AddCardInput{
		Alias:       "work card",
		HolderName:  "Ayse Demir",
		Number:      "5528790000000008",
		ExpireMonth: "12",
		ExpireYear:  "2030",
	})
	require.NoError(t, err)

	assert.Equal(t, "tok-new", card.Token)
	assert.Equal(t, "552879", card.BinNumber)
	assert.Equal(t, "Garanti", card.Bank)

	// The persisted row never carries the raw number
	require.Len(t, cards.cards, 1)
	assert.Equal(t, "552879", cards.cards[0].BinNumber)
	assert.Equal(t, "tok-new", cards.cards[0].Token)
}

func TestAddCardCapturesUserKey(t *testing.T) {
	gw := &fakeGateway{storeResult: &gateway.StoreCardResult{
		Status:    gateway.StatusSuccess,
		UserKey:   "user-key-fresh",
		Token:     "tok-first",
		BinNumber: "454360",
	}}
	customer := billableCustomer()
	customer.GatewayUserKey = ""
	svc := NewCardService(gw, &memCardRepo{}, &memCustomerRepo{customers: []*models.Customer{customer}}, nil)

	_, err := svc.AddCard(context.Background(), customer, AddCardInput{Number: "4543600000000000"})
	require.NoError(t, err)
	assert.Equal(t, "user-key-fresh", customer.GatewayUserKey)
}

func TestAddCardGatewayRejects(t *testing.T) {
	gw := &fakeGateway{storeResult: &gateway.StoreCardResult{
		Status:       "failure",
		ErrorMessage: "invalid card number",
	}}
	cards := &memCardRepo{}
	svc := NewCardService(gw, cards, &memCustomerRepo{}, nil)

	_, err := svc.AddCard(context.Background(), billableCustomer(), AddCardInput{Number: "1234"})
	var serr *CardStorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "invalid card number", serr.Reason)
	assert.Empty(t, cards.cards)
}

func TestRemoveCardDeletesGatewayFirst(t *testing.T) {
	gw := &fakeGateway{}
	customer := billableCustomer()
	cards := &memCardRepo{cards: []models.StoredCard{
		{ID: 4, CustomerID: customer.ID, Token: "tok-4", BinNumber: "552879"},
	}}
	svc := NewCardService(gw, cards, &memCustomerRepo{customers: []*models.Customer{customer}}, nil)

	err := svc.RemoveCard(context.Background(), &cards.cards[0])
	require.NoError(t, err)

	assert.Equal(t, []string{"user-key-7/tok-4"}, gw.deletedKeys)
	assert.Equal(t, []uint{4}, cards.deleted)
}
