package services

import (
	"context"
	"encoding/json"
	"fmt"

	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// AttemptLogger writes the audit trail: one PaymentAttempt per candidate
// charge, plus ordered ThreedsStep entries under it. Attempt outcome is
// always persisted after the step that decided it, so the outcome write is
// the commit point of the flow.
type AttemptLogger struct {
	attempts repository.AttemptRepository
}

func NewAttemptLogger(attempts repository.AttemptRepository) *AttemptLogger {
	return &AttemptLogger{attempts: attempts}
}

// OpenAttempt records a pending attempt before the gateway is contacted
func (l *AttemptLogger) OpenAttempt(ctx context.Context, conversationID string, customer *models.Customer, products []models.Product, opts ChargeOptions, cardBin string, storedCardID *uint) (*models.PaymentAttempt, error) {
	snapshot, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("snapshot products: %w", err)
	}

	attempt := &models.PaymentAttempt{
		ConversationID: conversationID,
		CustomerID:     customer.ID,
		StoredCardID:   storedCardID,
		Threeds:        opts.Threeds,
		Products:       snapshot,
		Currency:       opts.Currency,
		Installment:    opts.Installment,
		Subscription:   opts.Subscription,
		CardBin:        cardBin,
		Result:         models.ResultPending,
	}
	if err := l.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create payment attempt: %w", err)
	}
	return attempt, nil
}

// AppendStep appends an ordered handshake step in pending state
func (l *AttemptLogger) AppendStep(ctx context.Context, attempt *models.PaymentAttempt, kind models.ThreedsStepKind, payload interface{}) (*models.ThreedsStep, error) {
	step := &models.ThreedsStep{
		Step:   kind,
		Result: models.ResultPending,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("snapshot step payload: %w", err)
		}
		step.Payload = data
	}
	if err := l.attempts.AppendStep(ctx, attempt, step); err != nil {
		return nil, fmt.Errorf("append %s step: %w", kind, err)
	}
	return step, nil
}

// MarkStepSucceeded records a step outcome with its raw response snapshot
func (l *AttemptLogger) MarkStepSucceeded(ctx context.Context, step *models.ThreedsStep, response interface{}) error {
	step.Result = models.ResultSuccess
	if response != nil {
		data, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("snapshot step response: %w", err)
		}
		step.Response = data
	}
	return l.attempts.UpdateStep(ctx, step)
}

// MarkStepFailed records the failure message on the step before the error
// propagates, keeping the audit trail complete on early return.
func (l *AttemptLogger) MarkStepFailed(ctx context.Context, step *models.ThreedsStep, message string) error {
	step.Result = models.ResultFailure
	step.ErrorMessage = message
	return l.attempts.UpdateStep(ctx, step)
}

// SucceedAttempt marks the attempt outcome. Called only after the
// Transaction exists; this write is the last in the flow.
func (l *AttemptLogger) SucceedAttempt(ctx context.Context, attempt *models.PaymentAttempt, gatewayPaymentID string, response interface{}) error {
	attempt.Result = models.ResultSuccess
	attempt.GatewayPaymentID = gatewayPaymentID
	if response != nil {
		data, err := json.Marshal(response)
		if err != nil {
			return fmt.Errorf("snapshot attempt response: %w", err)
		}
		attempt.Response = data
	}
	return l.attempts.Update(ctx, attempt)
}

// FailAttempt records the failure message on the attempt
func (l *AttemptLogger) FailAttempt(ctx context.Context, attempt *models.PaymentAttempt, message string) error {
	attempt.Result = models.ResultFailure
	attempt.ErrorMessage = message
	return l.attempts.Update(ctx, attempt)
}
