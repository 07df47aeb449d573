package services

import (
	"context"
	"fmt"
	"strconv"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// TransactionRecorder maps a confirmed gateway charge into a persisted
// Transaction with its itemized breakdown.
type TransactionRecorder struct {
	transactions repository.TransactionRepository
}

func NewTransactionRecorder(transactions repository.TransactionRepository) *TransactionRecorder {
	return &TransactionRecorder{transactions: transactions}
}

// Record builds the line breakdown by matching each gateway item against
// the supplied products. A line with no matching product aborts the whole
// record: a partial transaction is worse than none.
func (r *TransactionRecorder) Record(ctx context.Context, payment *gateway.ChargeResult, customer *models.Customer, products []models.Product, storedCard *models.StoredCard, cardBin string) (*models.Transaction, error) {
	byItemID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byItemID[strconv.FormatUint(uint64(p.ID), 10)] = p
	}

	lines := make([]models.TransactionLine, 0, len(payment.Items))
	for _, item := range payment.Items {
		product, ok := byItemID[item.ItemID]
		if !ok {
			return nil, &LineMismatchError{ItemID: item.ItemID}
		}
		lines = append(lines, models.TransactionLine{
			GatewayLineID: item.TransactionID,
			PaidPrice:     item.PaidPrice,
			ProductID:     product.ID,
			ProductName:   product.Name,
		})
	}

	tx := &models.Transaction{
		CustomerID:       customer.ID,
		Amount:           payment.PaidPrice,
		Currency:         payment.Currency,
		GatewayPaymentID: payment.PaymentID,
	}
	if err := tx.SetLines(lines); err != nil {
		return nil, fmt.Errorf("encode transaction lines: %w", err)
	}

	if storedCard != nil {
		tx.StoredCardID = &storedCard.ID
	} else {
		tx.CardBin = models.BinFromCardNumber(cardBin)
	}

	saved, err := r.transactions.Create(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}
	return saved, nil
}
