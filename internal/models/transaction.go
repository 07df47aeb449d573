package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionLine ties a gateway-assigned line item to the paid price and
// the product it originated from.
type TransactionLine struct {
	GatewayLineID string          `json:"gateway_line_id"`
	PaidPrice     decimal.Decimal `json:"paid_price"`
	ProductID     uint            `json:"product_id"`
	ProductName   string          `json:"product_name"`
}

// RefundEntry is one append-only ledger line on a transaction
type RefundEntry struct {
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

const RefundTypeVoid = "void"

// Transaction is the durable charge-of-record. It is created only after a
// gateway confirmation with status success, and mutated only to append
// refund/void ledger entries.
type Transaction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CustomerID       uint            `gorm:"index" json:"customer_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	Currency         string          `gorm:"type:varchar(8)" json:"currency"`
	GatewayPaymentID string          `gorm:"type:varchar(64);uniqueIndex" json:"gateway_payment_id"`
	Lines            datatypes.JSON  `gorm:"type:jsonb" json:"lines"`

	// Instrument reference: a stored card by id, or just the bin number
	// when an ad hoc card was used.
	StoredCardID *uint  `gorm:"index" json:"stored_card_id,omitempty"`
	CardBin      string `gorm:"type:varchar(6)" json:"card_bin,omitempty"`

	Refunds  datatypes.JSON `gorm:"type:jsonb" json:"refunds,omitempty"`
	VoidedAt *time.Time     `json:"voided_at,omitempty"`

	Customer   Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	StoredCard *StoredCard `gorm:"foreignKey:StoredCardID" json:"stored_card,omitempty"`
}

// SetLines encodes the itemized breakdown into the jsonb column
func (t *Transaction) SetLines(lines []TransactionLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	t.Lines = data
	return nil
}

// LineItems decodes the itemized breakdown
func (t *Transaction) LineItems() ([]TransactionLine, error) {
	if len(t.Lines) == 0 {
		return nil, nil
	}
	var lines []TransactionLine
	if err := json.Unmarshal(t.Lines, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// RefundEntries decodes the refund/void ledger
func (t *Transaction) RefundEntries() ([]RefundEntry, error) {
	if len(t.Refunds) == 0 {
		return nil, nil
	}
	var entries []RefundEntry
	if err := json.Unmarshal(t.Refunds, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendRefund appends one entry to the ledger. Existing entries are never
// rewritten or removed.
func (t *Transaction) AppendRefund(entry RefundEntry) error {
	entries, err := t.RefundEntries()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	t.Refunds = data
	return nil
}
