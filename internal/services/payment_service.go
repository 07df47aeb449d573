package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cardgate_app/internal/gateway"
	"cardgate_app/internal/models"
	"cardgate_app/internal/repository"
)

// FlowKind selects between a direct charge and a 3D Secure initialization
type FlowKind int

const (
	FlowCharge FlowKind = iota
	FlowThreeds
)

// AdhocCard is an unsaved instrument supplied with a single charge. Its
// raw fields are forwarded to the gateway and never persisted.
type AdhocCard struct {
	HolderName  string
	Number      string
	ExpireMonth string
	ExpireYear  string
	CVC         string
}

// ChargeOptions parameterizes one charge request
type ChargeOptions struct {
	Currency     string
	Installment  int
	Subscription bool
	Threeds      bool
	// Card, when set, is charged directly with no stored-card fallback
	Card *AdhocCard
}

// ThreedsSession is the suspension point of a 3DS flow: the caller redirects
// the cardholder with HTMLContent and the flow resumes when the gateway
// posts the callback for ConversationID.
type ThreedsSession struct {
	ConversationID string `json:"conversation_id"`
	HTMLContent    string `json:"html_content"`
}

// ChargeOutcome holds exactly one of a recorded Transaction (synchronous
// flows) or a ThreedsSession (suspended 3DS flows).
type ChargeOutcome struct {
	Transaction *models.Transaction `json:"transaction,omitempty"`
	Threeds     *ThreedsSession     `json:"threeds,omitempty"`
}

// attemptFailure is a retryable per-candidate failure: the fallback loop
// moves on to the next stored card. Anything else terminates the charge.
type attemptFailure struct {
	reason string
}

func (e *attemptFailure) Error() string {
	return e.reason
}

// PaymentService drives single-charge and 3D Secure flows and owns the
// card-selection fallback policy.
type PaymentService struct {
	cfg      gateway.Config
	gateway  gateway.Client
	cards    repository.CardRepository
	logger   *AttemptLogger
	recorder *TransactionRecorder
}

func NewPaymentService(cfg gateway.Config, gw gateway.Client, cards repository.CardRepository, logger *AttemptLogger, recorder *TransactionRecorder) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		gateway:  gw,
		cards:    cards,
		logger:   logger,
		recorder: recorder,
	}
}

// Charge attempts to collect payment for the products. Without an explicit
// card it walks the customer's stored cards in stored order, opening one
// audit attempt per candidate and collecting every failure; with an
// explicit card exactly one attempt is made.
func (s *PaymentService) Charge(ctx context.Context, customer *models.Customer, products []models.Product, opts ChargeOptions) (*ChargeOutcome, error) {
	if len(products) == 0 {
		return nil, ErrEmptyProducts
	}
	if opts.Installment < 1 {
		return nil, ErrInstallment
	}

	flow := FlowCharge
	if opts.Threeds {
		flow = FlowThreeds
	}

	if opts.Card != nil {
		return s.chargeAdhoc(ctx, flow, customer, products, opts)
	}

	if !customer.IsBillable() {
		return nil, ErrBillingFields
	}
	storedCards, err := s.cards.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("list stored cards: %w", err)
	}
	if len(storedCards) == 0 {
		return nil, ErrNoStoredCard
	}

	failures := make([]CardFailure, 0, len(storedCards))
	for i := range storedCards {
		card := storedCards[i]
		spec := gateway.CardSpec{
			UserKey: customer.GatewayUserKey,
			Token:   card.Token,
		}

		outcome, err := s.attemptCharge(ctx, flow, customer, products, opts, spec, card.BinNumber, &card)
		if err != nil {
			var fail *attemptFailure
			if errors.As(err, &fail) {
				failures = append(failures, CardFailure{Bin: card.BinNumber, Reason: fail.reason})
				continue
			}
			return nil, err
		}
		return outcome, nil
	}

	return nil, &ChargeFailedError{Failures: failures}
}

func (s *PaymentService) chargeAdhoc(ctx context.Context, flow FlowKind, customer *models.Customer, products []models.Product, opts ChargeOptions) (*ChargeOutcome, error) {
	bin := models.BinFromCardNumber(opts.Card.Number)
	spec := gateway.CardSpec{
		HolderName:  opts.Card.HolderName,
		Number:      opts.Card.Number,
		ExpireMonth: opts.Card.ExpireMonth,
		ExpireYear:  opts.Card.ExpireYear,
		CVC:         opts.Card.CVC,
	}

	outcome, err := s.attemptCharge(ctx, flow, customer, products, opts, spec, bin, nil)
	if err != nil {
		var fail *attemptFailure
		if errors.As(err, &fail) {
			return nil, &ChargeFailedError{Failures: []CardFailure{{Bin: bin, Reason: fail.reason}}}
		}
		return nil, err
	}
	return outcome, nil
}

// attemptCharge runs one candidate through the gateway. Every candidate
// leaves a PaymentAttempt and an init step behind, whatever the outcome.
func (s *PaymentService) attemptCharge(ctx context.Context, flow FlowKind, customer *models.Customer, products []models.Product, opts ChargeOptions, spec gateway.CardSpec, bin string, storedCard *models.StoredCard) (*ChargeOutcome, error) {
	conversationID := uuid.NewString()

	var storedCardID *uint
	if storedCard != nil {
		storedCardID = &storedCard.ID
	}

	attempt, err := s.logger.OpenAttempt(ctx, conversationID, customer, products, opts, bin, storedCardID)
	if err != nil {
		return nil, err
	}
	initStep, err := s.logger.AppendStep(ctx, attempt, models.StepInit, map[string]interface{}{
		"currency":    opts.Currency,
		"installment": opts.Installment,
		"threeds":     opts.Threeds,
	})
	if err != nil {
		return nil, err
	}

	req := gateway.NewPaymentRequest(s.cfg, customer, products, opts.Currency, opts.Installment, opts.Subscription, conversationID)
	req.Card = spec

	switch flow {
	case FlowThreeds:
		req.CallbackURL = s.cfg.CallbackURL
		init, err := s.gateway.InitThreeds(ctx, req)
		if err != nil {
			return nil, s.failCandidate(ctx, attempt, initStep, err.Error())
		}
		if init.Status != gateway.StatusSuccess {
			return nil, s.failCandidate(ctx, attempt, initStep, init.ErrorMessage)
		}
		if err := s.logger.MarkStepSucceeded(ctx, initStep, init); err != nil {
			return nil, err
		}
		// Suspension point: the attempt stays pending until the gateway
		// posts the verification callback for this conversation id.
		return &ChargeOutcome{Threeds: &ThreedsSession{
			ConversationID: conversationID,
			HTMLContent:    init.HTMLContent,
		}}, nil

	default:
		res, err := s.gateway.Charge(ctx, req)
		if err != nil {
			return nil, s.failCandidate(ctx, attempt, initStep, err.Error())
		}
		if res.Status != gateway.StatusSuccess {
			return nil, s.failCandidate(ctx, attempt, initStep, res.ErrorMessage)
		}
		if err := s.logger.MarkStepSucceeded(ctx, initStep, res); err != nil {
			return nil, err
		}

		tx, err := s.recorder.Record(ctx, res, customer, products, storedCard, bin)
		if err != nil {
			// The gateway confirmed but no transaction could be recorded:
			// keep the audit trail complete and surface terminally, this
			// must not fall back to the next card.
			if ferr := s.logger.FailAttempt(ctx, attempt, err.Error()); ferr != nil {
				return nil, fmt.Errorf("record transaction: %v (attempt update failed: %w)", err, ferr)
			}
			return nil, err
		}
		if err := s.logger.SucceedAttempt(ctx, attempt, res.PaymentID, res); err != nil {
			return nil, err
		}
		return &ChargeOutcome{Transaction: tx}, nil
	}
}

// failCandidate persists the failure on both the step and the attempt
// before handing the reason back to the fallback loop.
func (s *PaymentService) failCandidate(ctx context.Context, attempt *models.PaymentAttempt, step *models.ThreedsStep, reason string) error {
	if err := s.logger.MarkStepFailed(ctx, step, reason); err != nil {
		return fmt.Errorf("persist step failure: %w", err)
	}
	if err := s.logger.FailAttempt(ctx, attempt, reason); err != nil {
		return fmt.Errorf("persist attempt failure: %w", err)
	}
	return &attemptFailure{reason: reason}
}
