package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/selliohq/cart-backend/pkg/db/models"
	"github.com/selliohq/cart-backend/pkg/enums"
	"github.com/selliohq/cart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("cart_item.id ASC")
	})
}

// GetByID loads a cart with its items ordered by insertion.
func (r *repository) GetByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	var cart models.Cart
	err := withItems(r.db.WithContext(ctx)).
		Where("id = ?", cartID).
		First(&cart).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListByIDs loads the carts for the given ids, preserving the input order.
// Unknown ids are silently skipped.
func (r *repository) ListByIDs(ctx context.Context, cartIDs []int64) ([]models.Cart, error) {
	if len(cartIDs) == 0 {
		return []models.Cart{}, nil
	}

	var rows []models.Cart
	err := withItems(r.db.WithContext(ctx)).
		Where("id IN ?", cartIDs).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.Cart, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	ordered := make([]models.Cart, 0, len(rows))
	for _, id := range cartIDs {
		if cart, ok := byID[id]; ok {
			ordered = append(ordered, cart)
		}
	}
	return ordered, nil
}

// ListByUser returns the user's carts, newest first. Company and status
// filters apply only when set.
func (r *repository) ListByUser(ctx context.Context, userID int64, filters ListFilters, params pagination.Params) ([]models.Cart, error) {
	params = params.Normalize()

	query := withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID)

	if filters.CompanyID > 0 {
		query = query.Where("company_id = ?", filters.CompanyID)
	}
	if filters.Status > 0 {
		query = query.Where("status = ?", filters.Status)
	}

	var rows []models.Cart
	err := query.
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetActive fetches the single ACTIVE cart for the identity, keyed by user
// id when present and by cookie otherwise.
func (r *repository) GetActive(ctx context.Context, identity Identity) (*models.Cart, error) {
	query := withItems(r.db.WithContext(ctx)).
		Where("company_id = ?", identity.CompanyID).
		Where("status = ?", enums.CartStatusActive)

	switch {
	case identity.UserID != nil:
		query = query.Where("user_id = ?", *identity.UserID)
	case identity.Cookie != nil:
		query = query.Where("cookie = ?", *identity.Cookie)
	default:
		return nil, gorm.ErrInvalidValue
	}

	var cart models.Cart
	if err := query.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateActive returns the identity's ACTIVE cart, inserting one when
// none exists. Concurrent creators race on the partial unique indexes; the
// loser abandons its insert and adopts the winner's row, so callers always
// converge on a single cart.
func (r *repository) GetOrCreateActive(ctx context.Context, identity Identity) (*models.Cart, error) {
	existing, err := r.GetActive(ctx, identity)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart := models.Cart{
		CompanyID: identity.CompanyID,
		UserID:    identity.UserID,
		Cookie:    identity.Cookie,
		Status:    enums.CartStatusActive,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&cart)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the insert race; the winner's row is authoritative.
		return r.GetActive(ctx, identity)
	}

	cart.Items = []models.CartItem{}
	return &cart, nil
}

// UpdateStatus persists a new lifecycle status for the cart.
func (r *repository) UpdateStatus(ctx context.Context, cartID int64, status enums.CartStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the cart and its items. Items are deleted explicitly so
// behavior does not depend on the driver honoring FK cascades.
func (r *repository) Delete(ctx context.Context, cartID int64) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).
		Error; err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Where("id = ?", cartID).
		Delete(&models.Cart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
