package gateway

import (
	"context"
	"errors"
)

// Config carries the gateway credentials and flow settings. It is passed
// explicitly at construction; nothing in this package reads globals.
type Config struct {
	BaseURL     string
	APIKey      string
	SecretKey   string
	CallbackURL string // where the gateway posts 3D Secure callbacks
	Locale      string // "en" or "tr"
}

// Startup errors from TestConnection. A transport failure means the
// endpoint could not be reached; a non-success reply means the endpoint
// answered but rejected the credentials. Both are fatal at startup.
var (
	ErrConnection     = errors.New("gateway: endpoint unreachable")
	ErrAuthentication = errors.New("gateway: authentication rejected")
)

// Client is the capability interface for the card-processing gateway
type Client interface {
	// TestConnection verifies endpoint and credentials once at startup
	TestConnection(ctx context.Context) error

	// Charge submits a direct (non-3DS) payment
	Charge(ctx context.Context, req *PaymentRequest) (*ChargeResult, error)

	// InitThreeds opens a 3D Secure session; the request must carry a
	// callback URL for the asynchronous verification result
	InitThreeds(ctx context.Context, req *PaymentRequest) (*ThreedsInit, error)

	// ConfirmThreeds finalizes a 3DS payment after a successful callback
	ConfirmThreeds(ctx context.Context, paymentID, conversationData, conversationID string) (*ChargeResult, error)

	// Cancel reverses a previously confirmed payment
	Cancel(ctx context.Context, paymentID string) (*CancelResult, error)

	// StoreCard tokenizes a card for later charges
	StoreCard(ctx context.Context, req *StoreCardRequest) (*StoreCardResult, error)

	// DeleteCard invalidates a stored card token at the gateway
	DeleteCard(ctx context.Context, userKey, token string) error
}
