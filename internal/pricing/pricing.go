// Package pricing derives display totals from a cart. Everything here is
// a pure function; currency formatting is the caller's concern and only
// consumes the cent amounts produced here.
package pricing

import "storefront-session/internal/domain"

// Subtotal is the sum of unit price times quantity over all lines.
func Subtotal(cart domain.Cart) int64 {
	var total int64
	for _, item := range cart {
		total += item.PriceCents * int64(item.Quantity)
	}
	return total
}

// DesignCharges is the surcharge contributed by attached customizations.
// Lines without a design contribute nothing.
func DesignCharges(cart domain.Cart) int64 {
	var total int64
	for _, item := range cart {
		if item.Design != nil {
			total += item.Design.PriceCents * int64(item.Design.Quantity)
		}
	}
	return total
}

// Total is the grand total: subtotal plus design charges.
func Total(cart domain.Cart) int64 {
	return Subtotal(cart) + DesignCharges(cart)
}

// TotalItemCount is the sum of quantities over all lines.
func TotalItemCount(cart domain.Cart) int {
	count := 0
	for _, item := range cart {
		count += item.Quantity
	}
	return count
}
