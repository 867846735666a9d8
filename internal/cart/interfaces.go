package cart

import (
	"context"

	"github.com/selliohq/cart-backend/pkg/db/models"
	"github.com/selliohq/cart-backend/pkg/enums"
	"github.com/selliohq/cart-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Identity addresses a cart owner inside a tenant company. Exactly one of
// UserID or Cookie must be set; UserID wins when both are present.
type Identity struct {
	CompanyID int64
	UserID    *int64
	Cookie    *string
}

// Repository defines persistence operations for cart rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, cartID int64) (*models.Cart, error)
	ListByIDs(ctx context.Context, cartIDs []int64) ([]models.Cart, error)
	ListByUser(ctx context.Context, userID int64, filters ListFilters, params pagination.Params) ([]models.Cart, error)
	GetActive(ctx context.Context, identity Identity) (*models.Cart, error)
	GetOrCreateActive(ctx context.Context, identity Identity) (*models.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status enums.CartStatus) error
	Delete(ctx context.Context, cartID int64) error
}

// ItemRepository defines persistence operations for cart line items.
type ItemRepository interface {
	WithTx(tx *gorm.DB) ItemRepository
	UpsertItem(ctx context.Context, cartID int64, input ItemInput) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID int64) (RemovalResult, error)
}

// ListFilters narrows ListByUser. Zero values mean "no filter", mirroring
// the query-string semantics of the HTTP layer.
type ListFilters struct {
	CompanyID int64
	Status    enums.CartStatus
}

// ItemInput is the last-writer-wins payload for a product line.
type ItemInput struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// RemovalResult reports what a RemoveItem call actually did.
type RemovalResult struct {
	Removed     bool
	CartDeleted bool
}
