package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/selliohq/cart-backend/pkg/db/models"
	"github.com/selliohq/cart-backend/pkg/enums"
	pkgerrors "github.com/selliohq/cart-backend/pkg/errors"
	"github.com/selliohq/cart-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db := setupCartTestDB(t)
	svc, err := NewService(NewRepository(db), NewItemRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc, db
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()

	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func itemInput(productID int64, name, price string, qty int) ItemInput {
	return ItemInput{
		ProductID: productID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestAddItem_CreatesCartWithLine(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	identity := Identity{CompanyID: 10, UserID: ptrInt64(7)}

	dto, err := svc.AddItem(ctx, identity, itemInput(100, "Widget", "9.99", 2))
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "9.99", dto.Items[0].Price)
	assert.Equal(t, "19.98", dto.TotalAmount)
	assert.Equal(t, enums.CartStatusActive, dto.Status)

	// A second product lands in the same cart.
	dto2, err := svc.AddItem(ctx, identity, itemInput(200, "Gadget", "0.10", 3))
	require.NoError(t, err)
	assert.Equal(t, dto.ID, dto2.ID)
	require.Len(t, dto2.Items, 2)
	assert.Equal(t, "20.28", dto2.TotalAmount)
}

func TestAddItem_LastWriterWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	identity := Identity{CompanyID: 10, Cookie: ptrString("tok-abc")}

	_, err := svc.AddItem(ctx, identity, itemInput(100, "Widget", "9.99", 2))
	require.NoError(t, err)

	dto, err := svc.AddItem(ctx, identity, itemInput(100, "Widget Deluxe", "12.50", 5))
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "Widget Deluxe", dto.Items[0].Name)
	assert.Equal(t, 5, dto.Items[0].Quantity)
	assert.Equal(t, "62.50", dto.TotalAmount)
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, Identity{CompanyID: 0, UserID: ptrInt64(7)}, itemInput(100, "Widget", "9.99", 1))
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, Identity{CompanyID: 10}, itemInput(100, "Widget", "9.99", 1))
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, Identity{CompanyID: 10, UserID: ptrInt64(7)}, itemInput(100, "Widget", "9.99", 0))
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, Identity{CompanyID: 10, UserID: ptrInt64(7)}, itemInput(100, "", "9.99", 1))
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestUpsertCart_ReturnsEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dto, err := svc.UpsertCart(ctx, Identity{CompanyID: 10, UserID: ptrInt64(7)})
	require.NoError(t, err)
	assert.NotZero(t, dto.ID)
	assert.Empty(t, dto.Items)
	assert.Equal(t, "0.00", dto.TotalAmount)

	again, err := svc.UpsertCart(ctx, Identity{CompanyID: 10, UserID: ptrInt64(7)})
	require.NoError(t, err)
	assert.Equal(t, dto.ID, again.ID)
}

func TestGetCart_HidesEmptyCart(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	empty := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)

	_, err := svc.GetCart(ctx, empty.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.GetCart(ctx, 424242)
	requireCode(t, err, pkgerrors.CodeNotFound)

	seedItem(t, db, empty.ID, 100, "Widget", "9.99", 1)
	dto, err := svc.GetCart(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.99", dto.TotalAmount)
}

func TestGetActiveCart_HidesEmptyCart(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	identity := Identity{CompanyID: 10, UserID: ptrInt64(7)}
	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)

	_, err := svc.GetActiveCart(ctx, identity)
	requireCode(t, err, pkgerrors.CodeNotFound)

	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 1)
	dto, err := svc.GetActiveCart(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, dto.ID)
}

func TestUpsertItem_OnExistingCart(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)

	dto, err := svc.UpsertItem(ctx, cart.ID, itemInput(100, "Widget", "9.999", 2))
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	// Prices round to two decimals before persisting.
	assert.Equal(t, "10.00", dto.Items[0].Price)

	_, err = svc.UpsertItem(ctx, 424242, itemInput(100, "Widget", "9.99", 2))
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)
	seedItem(t, db, cart.ID, 200, "Gadget", "5.00", 1)

	dto, err := svc.UpdateItemQuantity(ctx, cart.ID, 100, 4)
	require.NoError(t, err)
	assert.Equal(t, "44.96", dto.TotalAmount)

	_, err = svc.UpdateItemQuantity(ctx, cart.ID, 424242, 4)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateItemQuantity_ZeroRemovesLine(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)
	seedItem(t, db, cart.ID, 200, "Gadget", "5.00", 1)

	dto, err := svc.UpdateItemQuantity(ctx, cart.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.EqualValues(t, 200, dto.Items[0].ProductID)
}

func TestUpdateItemQuantity_ZeroOnLastLineDeletesCart(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	_, err := svc.UpdateItemQuantity(ctx, cart.ID, 100, -3)
	requireCode(t, err, pkgerrors.CodeNotFound)

	// The deletion is committed even though the call reports not found.
	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", cart.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRemoveItem(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)
	seedItem(t, db, cart.ID, 200, "Gadget", "5.00", 1)

	dto, err := svc.RemoveItem(ctx, cart.ID, 100)
	require.NoError(t, err)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "5.00", dto.TotalAmount)
}

func TestRemoveItem_MissingLineRollsBack(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	_, err := svc.RemoveItem(ctx, cart.ID, 424242)
	requireCode(t, err, pkgerrors.CodeNotFound)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRemoveItem_LastLineDeletesCartAndReportsGone(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	_, err := svc.RemoveItem(ctx, cart.ID, 100)
	requireCode(t, err, pkgerrors.CodeNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", cart.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestChangeStatus_LifecyclePaths(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	locked, err := svc.ChangeStatus(ctx, cart.ID, enums.CartStatusLocked)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusLocked, locked.Status)

	checkedOut, err := svc.ChangeStatus(ctx, cart.ID, enums.CartStatusCheckedOut)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusCheckedOut, checkedOut.Status)

	// Terminal: nothing leaves CHECKED_OUT.
	_, err = svc.ChangeStatus(ctx, cart.ID, enums.CartStatusCancelled)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	other := seedCart(t, db, 10, ptrInt64(8), nil, enums.CartStatusActive)
	seedItem(t, db, other.ID, 100, "Widget", "9.99", 1)

	cancelled, err := svc.ChangeStatus(ctx, other.ID, enums.CartStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusCancelled, cancelled.Status)
}

func TestChangeStatus_Rejections(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	cart := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, cart.ID, 100, "Widget", "9.99", 2)

	// ACTIVE cannot jump straight to CHECKED_OUT.
	_, err := svc.ChangeStatus(ctx, cart.ID, enums.CartStatusCheckedOut)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	// Self-transition is rejected.
	_, err = svc.ChangeStatus(ctx, cart.ID, enums.CartStatusActive)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	_, err = svc.ChangeStatus(ctx, cart.ID, enums.CartStatus(9))
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.ChangeStatus(ctx, 424242, enums.CartStatusLocked)
	requireCode(t, err, pkgerrors.CodeNotFound)

	empty := seedCart(t, db, 10, ptrInt64(8), nil, enums.CartStatusActive)
	_, err = svc.ChangeStatus(ctx, empty.ID, enums.CartStatusLocked)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListByUser_SkipsEmptyCarts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	withItems := seedCart(t, db, 10, ptrInt64(7), nil, enums.CartStatusActive)
	seedItem(t, db, withItems.ID, 100, "Widget", "9.99", 1)
	seedCart(t, db, 20, ptrInt64(7), nil, enums.CartStatusActive)

	carts, err := svc.ListByUser(ctx, ListByUserInput{UserID: 7, Page: pagination.Params{}})
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, withItems.ID, carts[0].ID)

	_, err = svc.ListByUser(ctx, ListByUserInput{UserID: 0})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.ListByUser(ctx, ListByUserInput{UserID: 7, Filters: ListFilters{Status: enums.CartStatus(9)}})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestListByIDs_SkipsEmptyAndUnknown(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first := seedCart(t, db, 10, ptrInt64(1), nil, enums.CartStatusActive)
	seedItem(t, db, first.ID, 100, "Widget", "9.99", 1)
	empty := seedCart(t, db, 10, ptrInt64(2), nil, enums.CartStatusActive)

	carts, err := svc.ListByIDs(ctx, []int64{empty.ID, first.ID, 424242})
	require.NoError(t, err)
	require.Len(t, carts, 1)
	assert.Equal(t, first.ID, carts[0].ID)

	_, err = svc.ListByIDs(ctx, []int64{first.ID, -1})
	requireCode(t, err, pkgerrors.CodeValidation)
}
