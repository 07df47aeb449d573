package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// callbackLockTTL bounds how long a conversation id stays locked if the
// holder dies mid-callback
const callbackLockTTL = 30 * time.Second

// mdStatusMessages maps the card network's verification status code to a
// caller-facing reason. An unrecognized code falls back to a generic
// message instead of failing the lookup.
var mdStatusMessages = map[int]string{
	0: "Invalid 3D Secure signature or verification",
	2: "Card holder or Issuer not registered to 3D Secure network",
	3: "Issuer is not registered to 3D secure network",
	4: "Verification is not possible, card holder chosen to register later on system",
	5: "Verification is not possible",
	6: "3D Secure error",
	7: "System error",
	8: "Unknown card",
}

// MdStatusMessage translates an mdStatus code into its failure reason
func MdStatusMessage(code int) string {
	if msg, ok := mdStatusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("3D Secure verification failed (mdStatus %d)", code)
}

// ThreedsCallback is the payload the gateway posts after the cardholder
// completes (or abandons) the out-of-band verification.
type ThreedsCallback struct {
	Status           string `json:"status" form:"status"`
	PaymentID        string `json:"paymentId" form:"paymentId"`
	ConversationData string `json:"conversationData" form:"conversationData"`
	ConversationID   string `json:"conversationId" form:"conversationId"`
	MdStatus         int    `json:"mdStatus" form:"mdStatus"`
}

// Locker serializes concurrent callback deliveries per conversation id
type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// ThreedsService resumes suspended 3D Secure attempts from gateway
// callbacks and finalizes them into transactions.
type ThreedsService struct {
	gateway      gateway.Client
	logger       *AttemptLogger
	attempts     repository.AttemptRepository
	transactions repository.TransactionRepository
	recorder     *TransactionRecorder
	locks        Locker
}

func NewThreedsService(gw gateway.Client, logger *AttemptLogger, attempts repository.AttemptRepository, transactions repository.TransactionRepository, recorder *TransactionRecorder, locks Locker) *ThreedsService {
	return &ThreedsService{
		gateway:      gw,
		logger:       logger,
		attempts:     attempts,
		transactions: transactions,
		recorder:     recorder,
		locks:        locks,
	}
}

// Resume picks up the attempt identified by the callback's conversation id
// and drives it to a final outcome. Resuming an already-successful attempt
// returns its recorded transaction: gateway retries are expected and must
// not double-charge.
func (s *ThreedsService) Resume(ctx context.Context, cb ThreedsCallback, customer *models.Customer, products []models.Product, card *models.StoredCard) (*models.Transaction, error) {
	if s.locks != nil {
		lockKey := "threeds:callback:" + cb.ConversationID
		ok, err := s.locks.SetNX(ctx, lockKey, 1, callbackLockTTL)
		if err == nil {
			if !ok {
				return nil, ErrCallbackInFlight
			}
			defer s.locks.Delete(ctx, lockKey)
		}
		// A lock-backend failure degrades to unserialized handling: the
		// unique gateway_payment_id constraint still prevents a second
		// transaction for the same payment.
	}

	attempt, err := s.attempts.FindByConversationID(ctx, cb.ConversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("find attempt: %w", err)
	}

	if attempt.Result == models.ResultSuccess {
		tx, err := s.transactions.FindByGatewayPaymentID(ctx, attempt.GatewayPaymentID)
		if err != nil {
			return nil, fmt.Errorf("find recorded transaction: %w", err)
		}
		return tx, nil
	}

	cbStep, err := s.logger.AppendStep(ctx, attempt, models.StepCallbackReceived, cb)
	if err != nil {
		return nil, err
	}

	if cb.Status != gateway.StatusSuccess {
		reason := MdStatusMessage(cb.MdStatus)
		if err := s.logger.MarkStepFailed(ctx, cbStep, reason); err != nil {
			return nil, err
		}
		if err := s.logger.FailAttempt(ctx, attempt, reason); err != nil {
			return nil, err
		}
		return nil, &ThreedsError{
			ConversationID: cb.ConversationID,
			Step:           models.StepCallbackReceived,
			Reason:         reason,
		}
	}
	if err := s.logger.MarkStepSucceeded(ctx, cbStep, nil); err != nil {
		return nil, err
	}

	confirmStep, err := s.logger.AppendStep(ctx, attempt, models.StepConfirm, map[string]string{
		"paymentId":        cb.PaymentID,
		"conversationData": cb.ConversationData,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.gateway.ConfirmThreeds(ctx, cb.PaymentID, cb.ConversationData, cb.ConversationID)
	if err != nil {
		return nil, s.failConfirm(ctx, attempt, confirmStep, cb.ConversationID, err.Error())
	}
	if res.Status != gateway.StatusSuccess {
		return nil, s.failConfirm(ctx, attempt, confirmStep, cb.ConversationID, res.ErrorMessage)
	}
	if err := s.logger.MarkStepSucceeded(ctx, confirmStep, res); err != nil {
		return nil, err
	}

	tx, err := s.recorder.Record(ctx, res, customer, products, card, attempt.CardBin)
	if err != nil {
		if ferr := s.logger.FailAttempt(ctx, attempt, err.Error()); ferr != nil {
			return nil, fmt.Errorf("record transaction: %v (attempt update failed: %w)", err, ferr)
		}
		return nil, err
	}

	// Outcome write last: this is the commit point of the whole flow
	if err := s.logger.SucceedAttempt(ctx, attempt, res.PaymentID, res); err != nil {
		return nil, fmt.Errorf("finalize attempt: %w", err)
	}
	return tx, nil
}

func (s *ThreedsService) failConfirm(ctx context.Context, attempt *models.PaymentAttempt, step *models.ThreedsStep, conversationID, reason string) error {
	if err := s.logger.MarkStepFailed(ctx, step, reason); err != nil {
		return fmt.Errorf("persist step failure: %w", err)
	}
	if err := s.logger.FailAttempt(ctx, attempt, reason); err != nil {
		return fmt.Errorf("persist attempt failure: %w", err)
	}
	return &ThreedsError{
		ConversationID: conversationID,
		Step:           models.StepConfirm,
		Reason:         reason,
	}
}
