package repository

import (
	"context"
	"errors"

	"github.com/hanaflu/techzone/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")
var ErrItemNotFound = errors.New("item not found in cart")

// CartRepository is the persistence port of the cart backend. Defined here,
// next to its consumers, rather than by the MongoDB implementation.
//
// AddItem sums quantity into an existing line for the same product and
// refreshes its snapshot; otherwise it appends a new line (creating the cart
// document lazily on the customer's first add). RemoveItem succeeds whether
// or not the line, or the cart, exists.
type CartRepository interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, customerID string, line domain.CartLine) error
	UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	DeleteCart(ctx context.Context, customerID string) error
}
