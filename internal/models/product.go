package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item that appears as a basket line on gateway requests
type Product struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string          `gorm:"type:varchar(255)" json:"name"`
	Category string          `gorm:"type:varchar(100)" json:"category"`
	ItemType string          `gorm:"type:varchar(50);default:'VIRTUAL'" json:"item_type"`
	Price    decimal.Decimal `gorm:"type:decimal(15,2)" json:"price"`
}

// TotalPrice sums the prices of a product set
func TotalPrice(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}
