package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/selliohq/cart-backend/internal/cart"
	pkgerrors "github.com/selliohq/cart-backend/pkg/errors"
)

// UpsertCartRequest resolves the identity whose ACTIVE cart is wanted.
// Anonymous callers are identified by the cart cookie instead of user_id.
type UpsertCartRequest struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	UserID    *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

// ItemPayload carries one product line. Price travels as a string so
// clients can express exact decimal amounts.
type ItemPayload struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Name      string `json:"name" validate:"required,max=255"`
	Price     string `json:"price" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// AddItemRequest is the composite surface: resolve-or-create the identity's
// ACTIVE cart and upsert the line in one call.
type AddItemRequest struct {
	CompanyID int64  `json:"company_id" validate:"required,gt=0"`
	UserID    *int64 `json:"user_id" validate:"omitempty,gt=0"`
	ItemPayload
}

// UpdateQuantityRequest sets a line's quantity. Zero and negative values
// are accepted and route to removal.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// ChangeStatusRequest moves a cart through its lifecycle.
type ChangeStatusRequest struct {
	Status int `json:"status" validate:"required"`
}

// CartsByIDsRequest bulk-fetches carts by id.
type CartsByIDsRequest struct {
	CartIDs []int64 `json:"cart_ids" validate:"required,min=1,max=100,dive,gt=0"`
}

func (p ItemPayload) toItemInput() (cartsvc.ItemInput, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return cartsvc.ItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "price must be a decimal string").
			WithDetails(map[string]string{"price": "must be a decimal string"})
	}
	return cartsvc.ItemInput{
		ProductID: p.ProductID,
		Name:      p.Name,
		Price:     price,
		Quantity:  p.Quantity,
	}, nil
}
