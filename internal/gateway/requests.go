package gateway

import (
	"strconv"

	"github.com/shopspring/decimal"

	"cardgate_app/internal/models"
)

const (
	StatusSuccess = "success"

	PaymentGroupProduct      = "PRODUCT"
	PaymentGroupSubscription = "SUBSCRIPTION"
	PaymentChannelWeb        = "WEB"
)

// CardSpec is the instrument on a payment request: either a stored token
// (UserKey+Token) or the raw details of an ad hoc card. Raw details are
// sent to the gateway and never persisted.
type CardSpec struct {
	UserKey string `json:"userKey,omitempty"`
	Token   string `json:"token,omitempty"`

	HolderName  string `json:"holderName,omitempty"`
	Number      string `json:"number,omitempty"`
	ExpireMonth string `json:"expireMonth,omitempty"`
	ExpireYear  string `json:"expireYear,omitempty"`
	CVC         string `json:"cvc,omitempty"`
}

// Stored reports whether the spec references a tokenized card
func (c CardSpec) Stored() bool {
	return c.Token != ""
}

// Buyer identifies the paying customer on a request
type Buyer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
	GsmNumber      string `json:"gsmNumber,omitempty"`
	IdentityNumber string `json:"identityNumber"`
	City           string `json:"city"`
	Country        string `json:"country"`
	Address        string `json:"registrationAddress"`
}

// AddressSpec is a billing or shipping address on a request
type AddressSpec struct {
	ContactName string `json:"contactName"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Address     string `json:"address"`
}

// BasketItem is one product line on a request
type BasketItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	ItemType string          `json:"itemType"`
	Price    decimal.Decimal `json:"price"`
}

// PaymentRequest is the body for both direct charges and 3DS initialization
type PaymentRequest struct {
	ConversationID  string          `json:"conversationId"`
	Locale          string          `json:"locale"`
	Price           decimal.Decimal `json:"price"`
	PaidPrice       decimal.Decimal `json:"paidPrice"`
	Currency        string          `json:"currency"`
	Installment     int             `json:"installment"`
	PaymentChannel  string          `json:"paymentChannel"`
	PaymentGroup    string          `json:"paymentGroup"`
	CallbackURL     string          `json:"callbackUrl,omitempty"`
	Card            CardSpec        `json:"paymentCard"`
	Buyer           Buyer           `json:"buyer"`
	BillingAddress  AddressSpec     `json:"billingAddress"`
	ShippingAddress AddressSpec     `json:"shippingAddress"`
	BasketItems     []BasketItem    `json:"basketItems"`
}

// PaymentItem is a gateway-confirmed basket line on a charge result
type PaymentItem struct {
	ItemID        string          `json:"itemId"`
	TransactionID string          `json:"paymentTransactionId"`
	PaidPrice     decimal.Decimal `json:"paidPrice"`
}

// ChargeResult is the gateway's answer to Charge and ConfirmThreeds
type ChargeResult struct {
	Status         string          `json:"status"`
	PaymentID      string          `json:"paymentId"`
	ConversationID string          `json:"conversationId"`
	PaidPrice      decimal.Decimal `json:"paidPrice"`
	Currency       string          `json:"currency"`
	Items          []PaymentItem   `json:"itemTransactions"`
	ErrorMessage   string          `json:"errorMessage,omitempty"`
}

// ThreedsInit is the gateway's answer to InitThreeds. HTMLContent is the
// opaque redirect payload handed back to the caller untouched.
type ThreedsInit struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversationId"`
	HTMLContent    string `json:"threeDSHtmlContent"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// CancelResult is the gateway's answer to Cancel
type CancelResult struct {
	Status       string          `json:"status"`
	PaymentID    string          `json:"paymentId"`
	Price        decimal.Decimal `json:"price"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// StoreCardRequest tokenizes a card under a customer's gateway user key
type StoreCardRequest struct {
	UserKey     string `json:"cardUserKey,omitempty"`
	ExternalID  string `json:"externalId"`
	Email       string `json:"email"`
	Alias       string `json:"cardAlias"`
	HolderName  string `json:"cardHolderName"`
	Number      string `json:"cardNumber"`
	ExpireMonth string `json:"expireMonth"`
	ExpireYear  string `json:"expireYear"`
}

// StoreCardResult carries the issued token; the bin number comes back from
// the gateway so the raw number can be discarded immediately.
type StoreCardResult struct {
	Status       string `json:"status"`
	UserKey      string `json:"cardUserKey"`
	Token        string `json:"cardToken"`
	Alias        string `json:"cardAlias"`
	BinNumber    string `json:"binNumber"`
	Bank         string `json:"cardBankName"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// NewPaymentRequest assembles the request body from the customer's billing
// profile and the product set. The card spec is attached by the caller.
func NewPaymentRequest(cfg Config, customer *models.Customer, products []models.Product, currency string, installment int, subscription bool, conversationID string) *PaymentRequest {
	total := models.TotalPrice(products)

	group := PaymentGroupProduct
	if subscription {
		group = PaymentGroupSubscription
	}

	return &PaymentRequest{
		ConversationID: conversationID,
		Locale:         cfg.Locale,
		Price:          total,
		PaidPrice:      total,
		Currency:       currency,
		Installment:    installment,
		PaymentChannel: PaymentChannelWeb,
		PaymentGroup:   group,
		Buyer: Buyer{
			ID:             strconv.FormatUint(uint64(customer.ID), 10),
			Name:           customer.FirstName,
			Surname:        customer.LastName,
			Email:          customer.Email,
			GsmNumber:      customer.MobileNumber,
			IdentityNumber: customer.IdentityNumber,
			City:           customer.BillingAddress.City,
			Country:        customer.BillingAddress.Country,
			Address:        customer.BillingAddress.Line,
		},
		BillingAddress:  addressSpec(customer.FullName(), customer.BillingAddress),
		ShippingAddress: addressSpec(customer.FullName(), customer.ShippingAddress),
		BasketItems:     basketItems(products),
	}
}

func addressSpec(contactName string, a models.Address) AddressSpec {
	name := a.ContactName
	if name == "" {
		name = contactName
	}
	return AddressSpec{
		ContactName: name,
		Country:     a.Country,
		City:        a.City,
		Address:     a.Line,
	}
}

func basketItems(products []models.Product) []BasketItem {
	items := make([]BasketItem, 0, len(products))
	for _, p := range products {
		items = append(items, BasketItem{
			ID:       strconv.FormatUint(uint64(p.ID), 10),
			Name:     p.Name,
			Category: p.Category,
			ItemType: p.ItemType,
			Price:    p.Price,
		})
	}
	return items
}
