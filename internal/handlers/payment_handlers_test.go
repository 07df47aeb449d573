package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/middleware"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
	"cardgate_app/internal/services"
)

// stubGateway answers ConfirmThreeds with a fixed result; every other
// method is unused by the callback flow.
type stubGateway struct {
	confirm *gateway.ChargeResult
}

func (g *stubGateway) TestConnection(ctx context.Context) error { return nil }
func (g *stubGateway) Charge(ctx context.Context, req *gateway.PaymentRequest) (*gateway.ChargeResult, error) {
	return nil, nil
}
func (g *stubGateway) InitThreeds(ctx context.Context, req *gateway.PaymentRequest) (*gateway.ThreedsInit, error) {
	return nil, nil
}
func (g *stubGateway) ConfirmThreeds(ctx context.Context, paymentID, conversationData, conversationID string) (*gateway.ChargeResult, error) {
	return g.confirm, nil
}
func (g *stubGateway) Cancel(ctx context.Context, paymentID string) (*gateway.CancelResult, error) {
	return nil, nil
}
func (g *stubGateway) StoreCard(ctx context.Context, req *gateway.StoreCardRequest) (*gateway.StoreCardResult, error) {
	return nil, nil
}
func (g *stubGateway) DeleteCard(ctx context.Context, userKey, token string) error { return nil }

type stubAttemptRepo struct {
	attempt *models.PaymentAttempt
}

func (r *stubAttemptRepo) Create(ctx context.Context, a *models.PaymentAttempt) error { return nil }
func (r *stubAttemptRepo) FindByConversationID(ctx context.Context, id string) (*models.PaymentAttempt, error) {
	if r.attempt != nil && r.attempt.ConversationID == id {
		return r.attempt, nil
	}
	return nil, repository.ErrNotFound
}
func (r *stubAttemptRepo) Update(ctx context.Context, a *models.PaymentAttempt) error { return nil }
func (r *stubAttemptRepo) AppendStep(ctx context.Context, a *models.PaymentAttempt, s *models.ThreedsStep) error {
	s.PaymentAttemptID = a.ID
	a.Steps = append(a.Steps, *s)
	return nil
}
func (r *stubAttemptRepo) UpdateStep(ctx context.Context, s *models.ThreedsStep) error { return nil }
func (r *stubAttemptRepo) FindPending(ctx context.Context, olderThan time.Time) ([]models.PaymentAttempt, error) {
	return nil, nil
}

type stubTransactionRepo struct {
	created []*models.Transaction
}

func (r *stubTransactionRepo) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	tx.ID = uint(len(r.created) + 1)
	r.created = append(r.created, tx)
	return tx, nil
}
func (r *stubTransactionRepo) Update(ctx context.Context, tx *models.Transaction) error { return nil }
func (r *stubTransactionRepo) FindByID(ctx context.Context, id uint) (*models.Transaction, error) {
	return nil, repository.ErrNotFound
}
func (r *stubTransactionRepo) FindByGatewayPaymentID(ctx context.Context, paymentID string) (*models.Transaction, error) {
	return nil, repository.ErrNotFound
}

type stubCustomerRepo struct {
	customer *models.Customer
}

func (r *stubCustomerRepo) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	if r.customer != nil && r.customer.ID == id {
		return r.customer, nil
	}
	return nil, repository.ErrNotFound
}
func (r *stubCustomerRepo) Update(ctx context.Context, c *models.Customer) error { return nil }

type stubProductRepo struct {
	products []models.Product
}

func (r *stubProductRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	return r.products, nil
}

type stubCardRepo struct{}

func (r *stubCardRepo) Create(ctx context.Context, c *models.StoredCard) error { return nil }
func (r *stubCardRepo) Delete(ctx context.Context, c *models.StoredCard) error { return nil }
func (r *stubCardRepo) FindByID(ctx context.Context, id uint) (*models.StoredCard, error) {
	return nil, repository.ErrNotFound
}
func (r *stubCardRepo) ListByCustomer(ctx context.Context, customerID uint) ([]models.StoredCard, error) {
	return nil, nil
}

func callbackFixture(t *testing.T) (*echo.Echo, *stubTransactionRepo) {
	t.Helper()

	products := []models.Product{
		{ID: 1, Name: "Standard", Price: decimal.NewFromInt(100)},
	}
	snapshot, err := json.Marshal(products)
	require.NoError(t, err)

	attempts := &stubAttemptRepo{attempt: &models.PaymentAttempt{
		ID:             1,
		ConversationID: "conv-1",
		CustomerID:     7,
		Threeds:        true,
		Products:       snapshot,
		Currency:       "TRY",
		CardBin:        "552879",
		Result:         models.ResultPending,
	}}
	transactions := &stubTransactionRepo{}
	customers := &stubCustomerRepo{customer: &models.Customer{ID: 7, FirstName: "Ayse", LastName: "Demir", Email: "ayse@example.com"}}
	productRepo := &stubProductRepo{products: products}

	gw := &stubGateway{confirm: &gateway.ChargeResult{
		Status:    gateway.StatusSuccess,
		PaymentID: "PAY-1",
		PaidPrice: decimal.NewFromInt(100),
		Currency:  "TRY",
		Items: []gateway.PaymentItem{
			{ItemID: "1", TransactionID: "LINE-1", PaidPrice: decimal.NewFromInt(100)},
		},
	}}

	logger := services.NewAttemptLogger(attempts)
	recorder := services.NewTransactionRecorder(transactions)
	threeds := services.NewThreedsService(gw, logger, attempts, transactions, recorder, nil)

	handler := NewPaymentHandler(nil, threeds, nil, customers, productRepo, &stubCardRepo{}, attempts, transactions)

	e := echo.New()
	e.HTTPErrorHandler = middleware.APIErrorHandler
	e.POST("/api/payments/threeds/callback", handler.ThreedsCallback)
	return e, transactions
}

func postCallback(e *echo.Echo, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/threeds/callback", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestThreedsCallbackEndpoint(t *testing.T) {
	e, transactions := callbackFixture(t)

	rec := postCallback(e, url.Values{
		"status":           {"success"},
		"paymentId":        {"PAY-1"},
		"conversationData": {"conv-data"},
		"conversationId":   {"conv-1"},
		"mdStatus":         {"1"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, transactions.created, 1)
	assert.Equal(t, "PAY-1", transactions.created[0].GatewayPaymentID)

	var body struct {
		Success bool               `json:"success"`
		Data    models.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "PAY-1", body.Data.GatewayPaymentID)
}

func TestThreedsCallbackUnknownConversation(t *testing.T) {
	e, _ := callbackFixture(t)

	rec := postCallback(e, url.Values{
		"status":         {"success"},
		"conversationId": {"conv-unknown"},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThreedsCallbackFailedVerification(t *testing.T) {
	e, transactions := callbackFixture(t)

	rec := postCallback(e, url.Values{
		"status":         {"failure"},
		"conversationId": {"conv-1"},
		"mdStatus":       {"0"},
	})

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Empty(t, transactions.created)

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "Invalid 3D Secure signature or verification")
}
