package services

import (
	"errors"
	"fmt"
	"strings"

	"cardgate_app/internal/models"
)

// Validation errors: surfaced before the gateway is contacted, no
// PaymentAttempt is created for them.
var (
	ErrBillingFields = errors.New("customer is missing required billing fields")
	ErrNoStoredCard  = errors.New("customer has no stored card")
	ErrEmptyProducts = errors.New("no products to charge")
	ErrInstallment   = errors.New("installment count must be at least 1")
)

var (
	// ErrAttemptNotFound is returned when a callback references an
	// unknown or expired conversation id
	ErrAttemptNotFound = errors.New("payment attempt not found")

	// ErrCallbackInFlight is returned to the loser of the per-conversation
	// callback lock; the gateway retries on its own schedule
	ErrCallbackInFlight = errors.New("callback for this conversation is already being processed")
)

// CardFailure is one candidate card's failure during the fallback loop
type CardFailure struct {
	Bin    string
	Reason string
}

func (f CardFailure) String() string {
	return f.Bin + ": " + f.Reason
}

// ChargeFailedError aggregates the per-card failures after every candidate
// was tried. Failures appear in card order.
type ChargeFailedError struct {
	Failures []CardFailure
}

func (e *ChargeFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ", ")
}

// ThreedsError is a failure inside the 3D Secure handshake, tagged with
// the step it occurred at.
type ThreedsError struct {
	ConversationID string
	Step           models.ThreedsStepKind
	Reason         string
}

func (e *ThreedsError) Error() string {
	return fmt.Sprintf("3D Secure %s failed: %s", e.Step, e.Reason)
}

// LineMismatchError means the gateway confirmed a line item that matches
// no supplied product. The request fails rather than recording a partial
// transaction.
type LineMismatchError struct {
	ItemID string
}

func (e *LineMismatchError) Error() string {
	return fmt.Sprintf("gateway line item %q matches no supplied product", e.ItemID)
}

// VoidError is a failed reversal; the transaction is left unmodified
type VoidError struct {
	Reason string
}

func (e *VoidError) Error() string {
	return "void failed: " + e.Reason
}

// CardStorageError is a failed card registration or removal at the gateway
type CardStorageError struct {
	Reason string
}

func (e *CardStorageError) Error() string {
	return "card storage failed: " + e.Reason
}
