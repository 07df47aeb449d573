package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AttemptResult is the outcome flag of a payment attempt or a 3D Secure step
type AttemptResult int

const (
	ResultPending AttemptResult = iota
	ResultSuccess
	ResultFailure
)

// ThreedsStepKind identifies a phase of the 3D Secure handshake
type ThreedsStepKind int

const (
	StepInit ThreedsStepKind = iota + 1
	StepCallbackReceived
	StepConfirm
)

func (k ThreedsStepKind) String() string {
	switch k {
	case StepInit:
		return "init"
	case StepCallbackReceived:
		return "callback_received"
	case StepConfirm:
		return "confirm"
	}
	return "unknown"
}

// PaymentAttempt is the audit header for one charge attempt. Rows are
// created before the gateway is contacted, mutated on completion or
// failure, and never deleted.
type PaymentAttempt struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ConversationID string `gorm:"type:varchar(64);uniqueIndex" json:"conversation_id"`
	CustomerID     uint   `gorm:"index" json:"customer_id"`
	StoredCardID   *uint  `gorm:"index" json:"stored_card_id,omitempty"`

	Threeds      bool           `json:"threeds"`
	Products     datatypes.JSON `gorm:"type:jsonb" json:"products"`
	Currency     string         `gorm:"type:varchar(8)" json:"currency"`
	Installment  int            `gorm:"default:1" json:"installment"`
	Subscription bool           `json:"subscription"`
	CardBin      string         `gorm:"type:varchar(6)" json:"card_bin"`

	Result           AttemptResult  `gorm:"default:0;index" json:"result"`
	ErrorMessage     string         `gorm:"type:text" json:"error_message,omitempty"`
	GatewayPaymentID string         `gorm:"type:varchar(64);index" json:"gateway_payment_id,omitempty"`
	Response         datatypes.JSON `gorm:"type:jsonb" json:"response,omitempty"`

	Customer   Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	StoredCard *StoredCard  `gorm:"foreignKey:StoredCardID" json:"stored_card,omitempty"`
	Steps      []ThreedsStep `gorm:"foreignKey:PaymentAttemptID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

// ProductIDs decodes the product snapshot back into the ids it was taken from
func (a *PaymentAttempt) ProductIDs() ([]uint, error) {
	var snapshot []struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(a.Products, &snapshot); err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(snapshot))
	for _, s := range snapshot {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// ThreedsStep is an append-only log entry under a PaymentAttempt. Insertion
// order is significant: it reconstructs the handshake timeline.
type ThreedsStep struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaymentAttemptID uint            `gorm:"index" json:"payment_attempt_id"`
	Step             ThreedsStepKind `gorm:"index" json:"step"`
	Result           AttemptResult   `gorm:"default:0" json:"result"`
	ErrorMessage     string          `gorm:"type:text" json:"error_message,omitempty"`
	Payload          datatypes.JSON  `gorm:"type:jsonb" json:"payload,omitempty"`
	Response         datatypes.JSON  `gorm:"type:jsonb" json:"response,omitempty"`
}
