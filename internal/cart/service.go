package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/selliohq/cart-backend/pkg/enums"
	pkgerrors "github.com/selliohq/cart-backend/pkg/errors"
	"github.com/selliohq/cart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations with the store-facing policies applied:
// empty carts are invisible to reads and status changes, zero quantities
// route to removal, and every mutation runs in a single transaction.
type Service interface {
	GetCart(ctx context.Context, cartID int64) (*CartDTO, error)
	GetActiveCart(ctx context.Context, identity Identity) (*CartDTO, error)
	ListByUser(ctx context.Context, input ListByUserInput) ([]CartDTO, error)
	ListByIDs(ctx context.Context, cartIDs []int64) ([]CartDTO, error)
	UpsertCart(ctx context.Context, identity Identity) (*CartDTO, error)
	AddItem(ctx context.Context, identity Identity, item ItemInput) (*CartDTO, error)
	UpsertItem(ctx context.Context, cartID int64, item ItemInput) (*CartDTO, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, cartID, productID int64) (*CartDTO, error)
	ChangeStatus(ctx context.Context, cartID int64, status enums.CartStatus) (*CartDTO, error)
}

// ListByUserInput carries the query surface of the by-user listing.
type ListByUserInput struct {
	UserID  int64
	Filters ListFilters
	Page    pagination.Params
}

type service struct {
	carts Repository
	items ItemRepository
	tx    txRunner
}

// NewService builds a cart service with the required dependencies.
func NewService(carts Repository, items ItemRepository, tx txRunner) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("cart item repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{carts: carts, items: items, tx: tx}, nil
}

// GetCart returns a cart by id. Empty or missing carts read as not found.
func (s *service) GetCart(ctx context.Context, cartID int64) (*CartDTO, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, notFoundOr(err, "cart not found")
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	dto := NewCartDTO(cart)
	return &dto, nil
}

// GetActiveCart returns the identity's ACTIVE cart, hiding empty ones.
func (s *service) GetActiveCart(ctx context.Context, identity Identity) (*CartDTO, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}

	cart, err := s.carts.GetActive(ctx, identity)
	if err != nil {
		return nil, notFoundOr(err, "active cart not found")
	}
	if cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
	}
	dto := NewCartDTO(cart)
	return &dto, nil
}

// ListByUser lists a user's non-empty carts, newest first.
func (s *service) ListByUser(ctx context.Context, input ListByUserInput) ([]CartDTO, error) {
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id must be positive")
	}
	if input.Filters.Status > 0 && !input.Filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}

	carts, err := s.carts.ListByUser(ctx, input.UserID, input.Filters, input.Page)
	if err != nil {
		return nil, err
	}
	return NewCartDTOs(carts), nil
}

// ListByIDs bulk-fetches carts, preserving request order and skipping
// unknown or empty carts.
func (s *service) ListByIDs(ctx context.Context, cartIDs []int64) ([]CartDTO, error) {
	for _, id := range cartIDs {
		if id <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart ids must be positive")
		}
	}

	carts, err := s.carts.ListByIDs(ctx, cartIDs)
	if err != nil {
		return nil, err
	}
	return NewCartDTOs(carts), nil
}

// UpsertCart returns the identity's ACTIVE cart, creating it when none
// exists. This is the one read surface where an empty cart is returned,
// since the caller needs the cart id to start filling it.
func (s *service) UpsertCart(ctx context.Context, identity Identity) (*CartDTO, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}

	var dto CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.carts.WithTx(tx).GetOrCreateActive(ctx, identity)
		if err != nil {
			return err
		}
		dto = NewCartDTO(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// AddItem resolves the identity's ACTIVE cart (creating it if needed) and
// upserts the product line in the same transaction.
func (s *service) AddItem(ctx context.Context, identity Identity, item ItemInput) (*CartDTO, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}
	if err := validateItem(&item); err != nil {
		return nil, err
	}

	var dto CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		cart, err := carts.GetOrCreateActive(ctx, identity)
		if err != nil {
			return err
		}
		if _, err := s.items.WithTx(tx).UpsertItem(ctx, cart.ID, item); err != nil {
			return err
		}

		reloaded, err := carts.GetByID(ctx, cart.ID)
		if err != nil {
			return err
		}
		dto = NewCartDTO(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// UpsertItem writes a product line on an existing cart with last-writer-wins
// semantics and returns the refreshed cart.
func (s *service) UpsertItem(ctx context.Context, cartID int64, item ItemInput) (*CartDTO, error) {
	if err := validateItem(&item); err != nil {
		return nil, err
	}

	var dto CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		if _, err := carts.GetByID(ctx, cartID); err != nil {
			return notFoundOr(err, "cart not found")
		}
		if _, err := s.items.WithTx(tx).UpsertItem(ctx, cartID, item); err != nil {
			return err
		}

		reloaded, err := carts.GetByID(ctx, cartID)
		if err != nil {
			return err
		}
		dto = NewCartDTO(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// UpdateItemQuantity sets the quantity of an existing line. Quantities of
// zero or less remove the line instead, cascading into cart deletion when
// the cart empties.
func (s *service) UpdateItemQuantity(ctx context.Context, cartID, productID int64, quantity int) (*CartDTO, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}

	var dto CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		if _, err := carts.GetByID(ctx, cartID); err != nil {
			return notFoundOr(err, "cart not found")
		}
		if _, err := s.items.WithTx(tx).UpdateQuantity(ctx, cartID, productID, quantity); err != nil {
			return notFoundOr(err, "item not found in cart")
		}

		reloaded, err := carts.GetByID(ctx, cartID)
		if err != nil {
			return err
		}
		dto = NewCartDTO(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// RemoveItem deletes a product line. When the removal empties the cart the
// cart row is deleted inside the same transaction and the cart reads as
// gone afterwards.
func (s *service) RemoveItem(ctx context.Context, cartID, productID int64) (*CartDTO, error) {
	var dto *CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		if _, err := carts.GetByID(ctx, cartID); err != nil {
			return notFoundOr(err, "cart not found")
		}

		res, err := s.items.WithTx(tx).RemoveItem(ctx, cartID, productID)
		if err != nil {
			return err
		}
		if !res.Removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart")
		}
		if res.CartDeleted {
			return nil
		}

		reloaded, err := carts.GetByID(ctx, cartID)
		if err != nil {
			return err
		}
		d := NewCartDTO(reloaded)
		dto = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	if dto == nil {
		// The removal emptied and deleted the cart; the deletion is
		// committed, the cart is simply gone for the caller.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return dto, nil
}

// ChangeStatus advances the cart through its lifecycle. Empty carts are
// invisible here, and disallowed transitions surface as state conflicts.
func (s *service) ChangeStatus(ctx context.Context, cartID int64, status enums.CartStatus) (*CartDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart status")
	}

	var dto CartDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		cart, err := carts.GetByID(ctx, cartID)
		if err != nil {
			return notFoundOr(err, "cart not found")
		}
		if cart.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		if !cart.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition cart from %s to %s", cart.Status, status)).
				WithDetails(map[string]string{
					"from": cart.Status.String(),
					"to":   status.String(),
				})
		}

		if err := carts.UpdateStatus(ctx, cartID, status); err != nil {
			return notFoundOr(err, "cart not found")
		}

		reloaded, err := carts.GetByID(ctx, cartID)
		if err != nil {
			return err
		}
		dto = NewCartDTO(reloaded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func validateIdentity(identity Identity) error {
	details := map[string]string{}
	if identity.CompanyID <= 0 {
		details["company_id"] = "must be positive"
	}
	if identity.UserID == nil && identity.Cookie == nil {
		details["identity"] = "user_id or cookie is required"
	}
	if identity.UserID != nil && *identity.UserID <= 0 {
		details["user_id"] = "must be positive"
	}
	if identity.Cookie != nil && strings.TrimSpace(*identity.Cookie) == "" {
		details["cookie"] = "must not be blank"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart identity").WithDetails(details)
	}
	return nil
}

func validateItem(item *ItemInput) error {
	details := map[string]string{}
	if item.ProductID <= 0 {
		details["product_id"] = "must be positive"
	}
	if strings.TrimSpace(item.Name) == "" {
		details["name"] = "is required"
	}
	if item.Quantity < 1 {
		details["quantity"] = "must be at least 1"
	}
	if item.Price.IsNegative() {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid item payload").WithDetails(details)
	}

	item.Price = item.Price.Round(2)
	return nil
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return err
}
