// Package store exposes the cart as a capability set with two
// interchangeable backends: the guest store (session-scoped, Redis-backed,
// no authoritative identity) and the account store (remote REST backend,
// authoritative). Callers pick the backend by who owns the cart; the
// operations are the same.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanaflu/techzone/internal/domain"
)

// ErrLineNotFound reports a quantity update for a product the cart has no
// line for.
var ErrLineNotFound = errors.New("line not found in cart")

// FetchError wraps a failed network exchange with the account backend.
// Callers must treat it as "cart unavailable", never as "cart empty".
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cart backend %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CartStore is the capability set shared by the guest and account backends.
//
// AddLine appends a new line carrying the given product snapshot, or sums
// quantity into the existing line for the same product; a cart never holds
// two lines for one product. SetLineQuantity overwrites an existing line's
// quantity and fails with ErrLineNotFound when there is none. RemoveLine is
// idempotent. Every successful mutation triggers the process-wide
// "cart changed" broadcast.
type CartStore interface {
	GetCart(ctx context.Context, ownerKey string) (*domain.Cart, error)
	AddLine(ctx context.Context, ownerKey string, product domain.ProductSnapshot, quantity int) (*domain.Cart, error)
	SetLineQuantity(ctx context.Context, ownerKey, productID string, quantity int) (*domain.Cart, error)
	RemoveLine(ctx context.Context, ownerKey, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, ownerKey string) error
}
