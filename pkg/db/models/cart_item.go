package models

import (
	"github.com/shopspring/decimal"
)

// CartItem is a product line within a cart. Name and price are snapshotted
// at upsert time; a product appears at most once per cart.
type CartItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID    int64           `gorm:"column:cart_id;not null;index"`
	ProductID int64           `gorm:"column:product_id;not null"`
	Name      string          `gorm:"column:name;type:varchar(255);not null"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
}

// TableName keeps the singular table name from the schema.
func (CartItem) TableName() string { return "cart_item" }

// LineTotal returns price multiplied by quantity with exact decimal arithmetic.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
