package services

import (
	"context"
	"fmt"
	"time"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// VoidService reverses recorded transactions through the gateway's
// cancellation capability.
type VoidService struct {
	gateway      gateway.Client
	transactions repository.TransactionRepository
}

func NewVoidService(gw gateway.Client, transactions repository.TransactionRepository) *VoidService {
	return &VoidService{gateway: gw, transactions: transactions}
}

// Void cancels the charge at the gateway, then stamps the transaction and
// appends a void ledger entry. A gateway failure leaves the transaction
// untouched.
func (s *VoidService) Void(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	res, err := s.gateway.Cancel(ctx, tx.GatewayPaymentID)
	if err != nil {
		return nil, &VoidError{Reason: err.Error()}
	}
	if res.Status != gateway.StatusSuccess {
		return nil, &VoidError{Reason: res.ErrorMessage}
	}

	now := time.Now()
	tx.VoidedAt = &now
	if err := tx.AppendRefund(models.RefundEntry{
		Type:      models.RefundTypeVoid,
		Amount:    res.Price,
		Reference: res.PaymentID,
	}); err != nil {
		return nil, fmt.Errorf("append void entry: %w", err)
	}

	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("persist voided transaction: %w", err)
	}
	return tx, nil
}
