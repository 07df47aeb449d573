package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"cardgate_app/internal/models"
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// GormAttemptRepository is the Postgres-backed AttemptRepository
type GormAttemptRepository struct {
	db *gorm.DB
}

func NewGormAttemptRepository(db *gorm.DB) *GormAttemptRepository {
	return &GormAttemptRepository{db: db}
}

func (r *GormAttemptRepository) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *GormAttemptRepository) FindByConversationID(ctx context.Context, conversationID string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where("conversation_id = ?", conversationID).
		First(&attempt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

func (r *GormAttemptRepository) Update(ctx context.Context, attempt *models.PaymentAttempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *GormAttemptRepository) AppendStep(ctx context.Context, attempt *models.PaymentAttempt, step *models.ThreedsStep) error {
	step.PaymentAttemptID = attempt.ID
	if err := r.db.WithContext(ctx).Create(step).Error; err != nil {
		return err
	}
	attempt.Steps = append(attempt.Steps, *step)
	return nil
}

func (r *GormAttemptRepository) UpdateStep(ctx context.Context, step *models.ThreedsStep) error {
	return r.db.WithContext(ctx).Save(step).Error
}

func (r *GormAttemptRepository) FindPending(ctx context.Context, olderThan time.Time) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("result = ? AND created_at < ?", models.ResultPending, olderThan).
		Order("created_at asc").
		Find(&attempts).Error
	return attempts, err
}

// GormTransactionRepository is the Postgres-backed TransactionRepository
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, err
	}
	// Re-read so database defaults and timestamps are populated
	var fresh models.Transaction
	if err := r.db.WithContext(ctx).First(&fresh, tx.ID).Error; err != nil {
		return nil, translate(err)
	}
	return &fresh, nil
}

func (r *GormTransactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (r *GormTransactionRepository) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", paymentID).First(&tx).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

// GormProductRepository is the Postgres-backed ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// GormCardRepository is the Postgres-backed CardRepository
type GormCardRepository struct {
	db *gorm.DB
}

func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

func (r *GormCardRepository) Create(ctx context.Context, card *models.StoredCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *GormCardRepository) Delete(ctx context.Context, card *models.StoredCard) error {
	return r.db.WithContext(ctx).Delete(card).Error
}

func (r *GormCardRepository) FindByID(ctx context.Context, id uint) (*models.StoredCard, error) {
	var card models.StoredCard
	if err := r.db.WithContext(ctx).First(&card, id).Error; err != nil {
		return nil, translate(err)
	}
	return &card, nil
}

func (r *GormCardRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.StoredCard, error) {
	var cards []models.StoredCard
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id asc").
		Find(&cards).Error
	return cards, err
}

// GormCustomerRepository is the Postgres-backed CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r *GormCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}
