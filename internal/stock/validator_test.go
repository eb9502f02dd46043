package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/notify"
)

func product(stock int) domain.ProductSnapshot {
	return domain.ProductSnapshot{ID: "p1", Name: "USB-C Hub", Price: 29.99, Stock: stock}
}

func TestValidateAddOne_WithinStock(t *testing.T) {
	rec := notify.NewRecorder()

	ok := ValidateAddOne(product(3), 0, rec)

	assert.True(t, ok)
	assert.Empty(t, rec.Notifications(), "success must not emit a notification")
}

func TestValidateAddOne_AtCeiling(t *testing.T) {
	rec := notify.NewRecorder()

	// 2 in cart + 1 == stock 3 is still admissible
	ok := ValidateAddOne(product(3), 2, rec)

	assert.True(t, ok)
	assert.Empty(t, rec.Notifications())
}

func TestValidateAddOne_OutOfStock_EmptyCart(t *testing.T) {
	rec := notify.NewRecorder()

	ok := ValidateAddOne(product(0), 0, rec)

	assert.False(t, ok)
	notifications := rec.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.LevelWarning, notifications[0].Level)
	assert.Equal(t, "USB-C Hub cannot be added due to stock limit (0)", notifications[0].Message)
}

func TestValidateAddOne_ExceedsWithCartQuantity(t *testing.T) {
	rec := notify.NewRecorder()

	ok := ValidateAddOne(product(3), 3, rec)

	assert.False(t, ok)
	notifications := rec.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.LevelWarning, notifications[0].Level)
	assert.Equal(t, "USB-C Hub: 3 in cart + 1 exceeds stock limit (3)", notifications[0].Message)
}

func TestValidateSetQuantity_WithinStock(t *testing.T) {
	rec := notify.NewRecorder()

	ok := ValidateSetQuantity(product(5), 5, rec)

	assert.True(t, ok)
	assert.Empty(t, rec.Notifications())
}

func TestValidateSetQuantity_ExceedsStock(t *testing.T) {
	rec := notify.NewRecorder()

	ok := ValidateSetQuantity(product(5), 6, rec)

	assert.False(t, ok)
	notifications := rec.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, notify.LevelWarning, notifications[0].Level)
	assert.Equal(t, "USB-C Hub: quantity 6 exceeds stock limit (5)", notifications[0].Message)
}
