package models

import (
	"time"

	"gorm.io/gorm"
)

// BinLength is the number of leading card digits that are safe to store
const BinLength = 6

// StoredCard is a tokenized payment instrument on file. Only the gateway
// token and the bin number are ever persisted, never the PAN, CVC or expiry.
type StoredCard struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	CustomerID uint   `gorm:"index" json:"customer_id"`
	Alias      string `gorm:"type:varchar(100)" json:"alias"`
	BinNumber  string `gorm:"type:varchar(6)" json:"bin_number"`
	Token      string `gorm:"type:varchar(100)" json:"-"`
	Bank       string `gorm:"type:varchar(100)" json:"bank"`

	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// BinFromCardNumber masks a raw card number down to its bin number
// (the first six digits). Shorter inputs are returned unchanged.
func BinFromCardNumber(cardNumber string) string {
	if len(cardNumber) < BinLength {
		return cardNumber
	}
	return cardNumber[:BinLength]
}
