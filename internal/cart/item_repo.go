package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/selliohq/cart-backend/pkg/db/models"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository constructs a cart item repository bound to the provided gorm DB.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *itemRepository) WithTx(tx *gorm.DB) ItemRepository {
	return &itemRepository{db: tx}
}

// UpsertItem writes the product line with last-writer-wins semantics: an
// existing row is overwritten in place, otherwise a new row is inserted.
// A concurrent insert of the same (cart_id, product_id) resolves through
// the ON CONFLICT clause, so the caller's values always land.
func (r *itemRepository) UpsertItem(ctx context.Context, cartID int64, input ItemInput) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, input.ProductID).
		First(&item).
		Error
	if err == nil {
		updates := map[string]any{
			"name":     input.Name,
			"price":    input.Price,
			"quantity": input.Quantity,
		}
		if err := r.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
			return nil, err
		}
		item.Name = input.Name
		item.Price = input.Price
		item.Quantity = input.Quantity
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	item = models.CartItem{
		CartID:    cartID,
		ProductID: input.ProductID,
		Name:      input.Name,
		Price:     input.Price,
		Quantity:  input.Quantity,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":     input.Name,
				"price":    input.Price,
				"quantity": input.Quantity,
			}),
		}).
		Create(&item)
	if res.Error != nil {
		return nil, res.Error
	}

	if item.ID == 0 {
		// Conflict path: our values were applied to the winner's row,
		// reload it to pick up the persisted id.
		err := r.db.WithContext(ctx).
			Where("cart_id = ? AND product_id = ?", cartID, input.ProductID).
			First(&item).
			Error
		if err != nil {
			return nil, err
		}
	}
	return &item, nil
}

// UpdateQuantity sets the quantity of an existing line item.
func (r *itemRepository) UpdateQuantity(ctx context.Context, cartID, productID int64, quantity int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).
		Error
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Model(&item).Update("quantity", quantity).Error; err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return &item, nil
}

// RemoveItem deletes the product line and, when that empties the cart,
// deletes the cart row as well so no empty cart lingers in the store.
func (r *itemRepository) RemoveItem(ctx context.Context, cartID, productID int64) (RemovalResult, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return RemovalResult{}, res.Error
	}
	if res.RowsAffected == 0 {
		return RemovalResult{}, nil
	}

	var remaining int64
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&remaining).
		Error
	if err != nil {
		return RemovalResult{}, err
	}

	result := RemovalResult{Removed: true}
	if remaining == 0 {
		del := r.db.WithContext(ctx).
			Where("id = ?", cartID).
			Delete(&models.Cart{})
		if del.Error != nil {
			return RemovalResult{}, del.Error
		}
		result.CartDeleted = del.RowsAffected > 0
	}
	return result, nil
}
