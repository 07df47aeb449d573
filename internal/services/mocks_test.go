package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// fakeGateway scripts per-method results so tests can drive the services
// without a network.
type fakeGateway struct {
	chargeResults []*gateway.ChargeResult
	chargeErr     error
	chargeCalls   int
	chargeReqs    []*gateway.PaymentRequest

	initResult *gateway.ThreedsInit
	initErr    error
	initReqs   []*gateway.PaymentRequest

	confirmResult *gateway.ChargeResult
	confirmErr    error
	confirmCalls  int

	cancelResult *gateway.CancelResult
	cancelErr    error
	cancelledIDs []string

	storeResult *gateway.StoreCardResult
	storeErr    error
	deletedKeys []string
}

func (g *fakeGateway) TestConnection(ctx context.Context) error { return nil }

func (g *fakeGateway) Charge(ctx context.Context, req *gateway.PaymentRequest) (*gateway.ChargeResult, error) {
	g.chargeReqs = append(g.chargeReqs, req)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if g.chargeCalls >= len(g.chargeResults) {
		return nil, errors.New("unexpected Charge call")
	}
	res := g.chargeResults[g.chargeCalls]
	g.chargeCalls++
	return res, nil
}

func (g *fakeGateway) InitThreeds(ctx context.Context, req *gateway.PaymentRequest) (*gateway.ThreedsInit, error) {
	g.initReqs = append(g.initReqs, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.initResult, nil
}

func (g *fakeGateway) ConfirmThreeds(ctx context.Context, paymentID, conversationData, conversationID string) (*gateway.ChargeResult, error) {
	g.confirmCalls++
	if g.confirmErr != nil {
		return nil, g.confirmErr
	}
	return g.confirmResult, nil
}

func (g *fakeGateway) Cancel(ctx context.Context, paymentID string) (*gateway.CancelResult, error) {
	g.cancelledIDs = append(g.cancelledIDs, paymentID)
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	return g.cancelResult, nil
}

func (g *fakeGateway) StoreCard(ctx context.Context, req *gateway.StoreCardRequest) (*gateway.StoreCardResult, error) {
	if g.storeErr != nil {
		return nil, g.storeErr
	}
	return g.storeResult, nil
}

func (g *fakeGateway) DeleteCard(ctx context.Context, userKey, token string) error {
	g.deletedKeys = append(g.deletedKeys, userKey+"/"+token)
	return nil
}

// memAttemptRepo keeps attempts and steps in insertion order
type memAttemptRepo struct {
	attempts []*models.PaymentAttempt
	nextID   uint
	stepID   uint
}

func newMemAttemptRepo() *memAttemptRepo {
	return &memAttemptRepo{nextID: 1, stepID: 1}
}

func (r *memAttemptRepo) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	attempt.ID = r.nextID
	r.nextID++
	attempt.CreatedAt = time.Now()
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *memAttemptRepo) FindByConversationID(ctx context.Context, conversationID string) (*models.PaymentAttempt, error) {
	for _, a := range r.attempts {
		if a.ConversationID == conversationID {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memAttemptRepo) Update(ctx context.Context, attempt *models.PaymentAttempt) error {
	return nil
}

func (r *memAttemptRepo) AppendStep(ctx context.Context, attempt *models.PaymentAttempt, step *models.ThreedsStep) error {
	step.ID = r.stepID
	r.stepID++
	step.PaymentAttemptID = attempt.ID
	attempt.Steps = append(attempt.Steps, *step)
	return nil
}

func (r *memAttemptRepo) UpdateStep(ctx context.Context, step *models.ThreedsStep) error {
	for _, a := range r.attempts {
		for i := range a.Steps {
			if a.Steps[i].ID == step.ID {
				a.Steps[i] = *step
			}
		}
	}
	return nil
}

func (r *memAttemptRepo) FindPending(ctx context.Context, olderThan time.Time) ([]models.PaymentAttempt, error) {
	var pending []models.PaymentAttempt
	for _, a := range r.attempts {
		if a.Result == models.ResultPending && a.CreatedAt.Before(olderThan) {
			pending = append(pending, *a)
		}
	}
	return pending, nil
}

// memTransactionRepo assigns ids and supports both lookups
type memTransactionRepo struct {
	transactions []*models.Transaction
	nextID       uint
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{nextID: 1}
}

func (r *memTransactionRepo) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	tx.ID = r.nextID
	r.nextID++
	tx.CreatedAt = time.Now()
	r.transactions = append(r.transactions, tx)
	return tx, nil
}

func (r *memTransactionRepo) Update(ctx context.Context, tx *models.Transaction) error {
	return nil
}

func (r *memTransactionRepo) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	for _, tx := range r.transactions {
		if tx.ID == id {
			return tx, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTransactionRepo) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	for _, tx := range r.transactions {
		if tx.GatewayPaymentID == paymentID {
			return tx, nil
		}
	}
	return nil, repository.ErrNotFound
}

// memCardRepo serves a fixed card list per customer
type memCardRepo struct {
	cards   []models.StoredCard
	listErr error
	deleted []uint
}

func (r *memCardRepo) Create(ctx context.Context, card *models.StoredCard) error {
	card.ID = uint(len(r.cards) + 1)
	r.cards = append(r.cards, *card)
	return nil
}

func (r *memCardRepo) Delete(ctx context.Context, card *models.StoredCard) error {
	r.deleted = append(r.deleted, card.ID)
	return nil
}

func (r *memCardRepo) FindByID(ctx context.Context, id uint) (*models.StoredCard, error) {
	for i := range r.cards {
		if r.cards[i].ID == id {
			return &r.cards[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCardRepo) ListByCustomer(ctx context.Context, customerID uint) ([]models.StoredCard, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.StoredCard
	for _, c := range r.cards {
		if c.CustomerID == customerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// memCustomerRepo serves a fixed customer set
type memCustomerRepo struct {
	customers []*models.Customer
}

func (r *memCustomerRepo) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	for _, c := range r.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCustomerRepo) Update(ctx context.Context, customer *models.Customer) error {
	return nil
}

// fakeLocker records SetNX decisions; held simulates a lock already taken
type fakeLocker struct {
	held    bool
	setKeys []string
	delKeys []string
}

func (l *fakeLocker) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	l.setKeys = append(l.setKeys, key)
	return !l.held, nil
}

func (l *fakeLocker) Delete(ctx context.Context, key string) error {
	l.delKeys = append(l.delKeys, key)
	return nil
}

func billableCustomer() *models.Customer {
	return &models.Customer{
		ID:             7,
		FirstName:      "Ayse",
		LastName:       "Demir",
		Email:          "ayse@example.com",
		MobileNumber:   "+905551112233",
		IdentityNumber: "11111111110",
		BillingAddress: models.Address{
			Country: "Turkey",
			City:    "Istanbul",
			Line:    "Nidakule Goztepe, Merdivenkoy Mah. Bora Sok. No:1",
		},
		ShippingAddress: models.Address{
			Country: "Turkey",
			City:    "Istanbul",
			Line:    "Nidakule Goztepe, Merdivenkoy Mah. Bora Sok. No:1",
		},
		GatewayUserKey: "user-key-7",
	}
}

func testProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Standard", Category: "Membership", ItemType: "VIRTUAL", Price: decimal.NewFromInt(40)},
		{ID: 2, Name: "Premium", Category: "Membership", ItemType: "VIRTUAL", Price: decimal.NewFromInt(60)},
	}
}

func successChargeResult(paymentID string) *gateway.ChargeResult {
	return &gateway.ChargeResult{
		Status:    gateway.StatusSuccess,
		PaymentID: paymentID,
		PaidPrice: decimal.NewFromInt(100),
		Currency:  "TRY",
		Items: []gateway.PaymentItem{
			{ItemID: "1", TransactionID: "LINE-1", PaidPrice: decimal.NewFromInt(40)},
			{ItemID: "2", TransactionID: "LINE-2", PaidPrice: decimal.NewFromInt(60)},
		},
	}
}
