package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/selliohq/cart-backend/pkg/db/models"
	"github.com/selliohq/cart-backend/pkg/enums"
)

func TestUpsertItem_InsertsNewLine(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewItemRepository(db)

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)

	item, err := repo.UpsertItem(context.Background(), cart.ID, ItemInput{
		ProductID: 100,
		Name:      "Widget",
		Price:     decimal.RequireFromString("9.99"),
		Quantity:  2,
	})
	require.NoError(t, err)
	require.NotZero(t, item.ID)
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, 2, item.Quantity)
}

func TestUpsertItem_LastWriterWins(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	original := seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	updated, err := repo.UpsertItem(ctx, cart.ID, ItemInput{
		ProductID: 100,
		Name:      "Widget Deluxe",
		Price:     decimal.RequireFromString("12.50"),
		Quantity:  5,
	})
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, "Widget Deluxe", updated.Name)
	assert.Equal(t, 5, updated.Quantity)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.50")))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertItem_ConcurrentInsertConverges(t *testing.T) {
	db := setupCartTestDB(t)

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	winner := seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	// The conflict clause used by UpsertItem resolves a lost insert race
	// by applying the caller's values to the winner's row.
	loser := models.CartItem{
		CartID:    cart.ID,
		ProductID: 100,
		Name:      "Widget Late",
		Price:     decimal.RequireFromString("11.00"),
		Quantity:  3,
	}
	res := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":     loser.Name,
			"price":    loser.Price,
			"quantity": loser.Quantity,
		}),
	}).Create(&loser)
	require.NoError(t, res.Error)

	var row models.CartItem
	require.NoError(t, db.Where("cart_id = ? AND product_id = ?", cart.ID, 100).First(&row).Error)
	assert.Equal(t, winner.ID, row.ID)
	assert.Equal(t, "Widget Late", row.Name)
	assert.Equal(t, 3, row.Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	item, err := repo.UpdateQuantity(ctx, cart.ID, 100, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, item.Quantity)

	_, err = repo.UpdateQuantity(ctx, cart.ID, 424242, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRemoveItem_OtherLinesRemain(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewItemRepository(db)

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)
	seedItem(t, db, cart.ID, 200, "Gadget", "5.00", 1)

	result, err := repo.RemoveItem(context.Background(), cart.ID, 100)
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assert.False(t, result.CartDeleted)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRemoveItem_LastLineDeletesCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewItemRepository(db)

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	result, err := repo.RemoveItem(context.Background(), cart.ID, 100)
	require.NoError(t, err)
	assert.True(t, result.Removed)
	assert.True(t, result.CartDeleted)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", cart.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRemoveItem_MissingLine(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewItemRepository(db)

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	result, err := repo.RemoveItem(context.Background(), cart.ID, 424242)
	require.NoError(t, err)
	assert.False(t, result.Removed)
	assert.False(t, result.CartDeleted)
}
