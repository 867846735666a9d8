package models

import (
	"time"

	"github.com/selliohq/cart-backend/pkg/enums"
)

// Cart is an identity-scoped shopping session owned by a tenant company.
// The identity is either an authenticated user id or an anonymous cookie
// token; at most one ACTIVE cart exists per identity, enforced by partial
// unique indexes on the table.
type Cart struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    *int64           `gorm:"column:user_id"`
	CompanyID int64            `gorm:"column:company_id;not null"`
	Cookie    *string          `gorm:"column:cookie;type:varchar(255)"`
	Status    enums.CartStatus `gorm:"column:status;type:smallint;not null;default:1"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the singular table name from the schema.
func (Cart) TableName() string { return "cart" }

// IsEmpty reports whether the cart carries no items. Empty carts are
// invisible to every read and status-mutation path.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
