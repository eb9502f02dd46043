// Package stock decides whether a requested cart quantity change fits within
// a product's available stock. The checks are pure with respect to cart
// state: callers perform the mutation only when a check returns true. The
// same rules gate manual add-to-cart, the quantity stepper, and the guest
// cart merge.
package stock

import (
	"fmt"

	"github.com/hanaflu/techzone/internal/domain"
	"github.com/hanaflu/techzone/internal/notify"
)

// ValidateAddOne reports whether one more unit of p fits given
// currentQuantity units already in the target cart. On rejection a warning
// is emitted; the message cites the in-cart count only when there is one.
func ValidateAddOne(p domain.ProductSnapshot, currentQuantity int, n notify.Notifier) bool {
	requested := currentQuantity + 1
	if requested > p.Stock {
		if currentQuantity == 0 {
			n.Warning(fmt.Sprintf("%s cannot be added due to stock limit (%d)", p.Name, p.Stock))
		} else {
			n.Warning(fmt.Sprintf("%s: %d in cart + 1 exceeds stock limit (%d)", p.Name, currentQuantity, p.Stock))
		}
		return false
	}
	return true
}

// ValidateSetQuantity reports whether the absolute quantity newQuantity
// (not a delta) fits within p's stock.
func ValidateSetQuantity(p domain.ProductSnapshot, newQuantity int, n notify.Notifier) bool {
	if newQuantity > p.Stock {
		n.Warning(fmt.Sprintf("%s: quantity %d exceeds stock limit (%d)", p.Name, newQuantity, p.Stock))
		return false
	}
	return true
}
