package models

import (
	"time"

	"gorm.io/gorm"
)

// Address holds a billing or shipping address, embedded into Customer
type Address struct {
	ContactName string `gorm:"type:varchar(255)" json:"contact_name"`
	Country     string `gorm:"type:varchar(100)" json:"country"`
	City        string `gorm:"type:varchar(100)" json:"city"`
	Line        string `gorm:"type:varchar(500)" json:"line"`
}

// Customer is the billing subject on whose behalf charges are made
type Customer struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirstName      string `gorm:"type:varchar(255)" json:"first_name"`
	LastName       string `gorm:"type:varchar(255)" json:"last_name"`
	Email          string `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	MobileNumber   string `gorm:"type:varchar(50)" json:"mobile_number"`
	IdentityNumber string `gorm:"type:varchar(50)" json:"identity_number"`

	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	// Opaque key issued by the gateway when the first card is stored
	GatewayUserKey string `gorm:"type:varchar(100)" json:"-"`

	// Relationships
	StoredCards  []StoredCard  `gorm:"foreignKey:CustomerID" json:"stored_cards,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CustomerID" json:"transactions,omitempty"`
}

// IsBillable reports whether the customer carries every field the gateway
// requires on a charge request. Charges for customers without a complete
// billing profile are rejected before the gateway is contacted.
func (c *Customer) IsBillable() bool {
	if c.FirstName == "" || c.LastName == "" || c.Email == "" || c.IdentityNumber == "" {
		return false
	}
	if c.BillingAddress.Country == "" || c.BillingAddress.City == "" || c.BillingAddress.Line == "" {
		return false
	}
	if c.ShippingAddress.Country == "" || c.ShippingAddress.City == "" || c.ShippingAddress.Line == "" {
		return false
	}
	return true
}

// FullName joins first and last name for gateway contact fields
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
