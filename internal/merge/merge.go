// Package merge folds a guest cart into the customer's account cart at
// login time. The procedure runs once per login transition, clamps every
// transferred quantity to the product's stock, and reports what could not
// be carried over as warnings.
package merge

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/notify"
	"github.com/hanaflu/techzone/internal/store"
)

type Merger struct {
	guest   store.CartStore
	account store.CartStore
	bus     *notify.Broadcaster
	sfg     singleflight.Group
}

func NewMerger(guest, account store.CartStore, bus *notify.Broadcaster) *Merger {
	return &Merger{
		guest:   guest,
		account: account,
		bus:     bus,
	}
}

// Result reports the outcome of one merge run.
type Result struct {
	// Cart is the canonical account cart re-fetched after the merge; nil if
	// that final read failed.
	Cart *domain.Cart
	// Warnings lists, in guest-cart order, the lines that could not be
	// transferred in full because of stock.
	Warnings []string
	// FailedWrites counts lines whose account-cart mutation errored. Those
	// lines are dropped without a user-visible warning beyond what the
	// quantity arithmetic already produced; the count is for operators.
	FailedWrites int
}

// Merge reconciles the session's guest cart into the customer's account
// cart. Lines are processed sequentially in guest-cart order; per-line
// write failures are logged and skipped. The guest cart is cleared
// unconditionally once every line has been attempted. Concurrent calls for
// the same session coalesce into a single run; only the first caller's
// notifier receives the outcome messages.
//
// Failures reading the guest cart, or clearing it afterwards, are fatal:
// one top-level error notification is emitted and the error returned. A
// fatal clear failure leaves the merge partially applied; the procedure is
// not transactional.
func (m *Merger) Merge(ctx context.Context, sessionID, customerID string, n notify.Notifier) (*Result, error) {
	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		return m.run(ctx, sessionID, customerID, n)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (m *Merger) run(ctx context.Context, sessionID, customerID string, n notify.Notifier) (*Result, error) {
	guestCart, err := m.guest.GetCart(ctx, sessionID)
	if err != nil {
		// The guest cart is left untouched so the login can retry the merge.
		n.Error("unable to transfer items to your account")
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}
	if guestCart.IsEmpty() {
		return &Result{}, nil
	}

	accountCart, err := m.account.GetCart(ctx, customerID)
	if err != nil {
		// Best effort: proceed as if the account cart were empty.
		log.Printf("merge: failed to read account cart for %s, treating as empty: %v", customerID, err)
		accountCart = &domain.Cart{CustomerID: customerID}
	}

	result := &Result{}
	for _, line := range guestCart.Items {
		productID := line.Product.ID
		existing := accountCart.QuantityOf(productID)

		maxAdditional := line.Product.Stock - existing
		if maxAdditional < 0 {
			maxAdditional = 0
		}
		actualToAdd := min(line.Quantity, maxAdditional)

		if actualToAdd > 0 {
			var errWrite error
			if accountCart.Find(productID) != nil {
				_, errWrite = m.account.SetLineQuantity(ctx, customerID, productID, existing+actualToAdd)
			} else {
				_, errWrite = m.account.AddLine(ctx, customerID, line.Product, actualToAdd)
			}
			if errWrite != nil {
				// The line is dropped; the warning below (if any) still
				// reflects only the quantity arithmetic.
				log.Printf("merge: failed to transfer product %s for %s: %v", productID, customerID, errWrite)
				result.FailedWrites++
			}
		}

		if actualToAdd < line.Quantity {
			if actualToAdd == 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s cannot be added due to stock limit (%d)", line.Product.Name, line.Product.Stock))
			} else {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: only %d/%d could be added due to stock limit (%d)",
						line.Product.Name, actualToAdd, line.Quantity, line.Product.Stock))
			}
		}
	}

	// The guest cart is cleared regardless of per-line outcomes.
	if err := m.guest.Clear(ctx, sessionID); err != nil {
		n.Error("unable to transfer items to your account")
		return nil, fmt.Errorf("failed to clear guest cart after merge: %w", err)
	}

	final, err := m.account.GetCart(ctx, customerID)
	if err != nil {
		log.Printf("merge: failed to re-fetch account cart for %s: %v", customerID, err)
	} else {
		result.Cart = final
	}

	m.bus.Broadcast()

	n.Success("your items were transferred to your account")
	for _, w := range result.Warnings {
		n.Warning(w)
	}
	return result, nil
}
