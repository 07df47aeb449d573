package repository

import (
	"context"
	"errors"
	"time"

	"cardgate_app/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// AttemptRepository persists payment attempts and their 3D Secure steps
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.PaymentAttempt) error
	FindByConversationID(ctx context.Context, conversationID string) (*models.PaymentAttempt, error)
	Update(ctx context.Context, attempt *models.PaymentAttempt) error
	AppendStep(ctx context.Context, attempt *models.PaymentAttempt, step *models.ThreedsStep) error
	UpdateStep(ctx context.Context, step *models.ThreedsStep) error
	FindPending(ctx context.Context, olderThan time.Time) ([]models.PaymentAttempt, error)
}

// TransactionRepository persists charge-of-record rows
type TransactionRepository interface {
	// Create persists the transaction and re-reads it so computed and
	// defaulted fields are populated on the returned value
	Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	Update(ctx context.Context, tx *models.Transaction) error
	FindByID(ctx context.Context, id uint) (*models.Transaction, error)
	FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error)
}

// ProductRepository resolves product ids into full rows
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
}

// CardRepository persists stored payment instruments
type CardRepository interface {
	Create(ctx context.Context, card *models.StoredCard) error
	Delete(ctx context.Context, card *models.StoredCard) error
	FindByID(ctx context.Context, id uint) (*models.StoredCard, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]models.StoredCard, error)
}

// CustomerRepository reads and updates billing subjects
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
}
