// Package reconcile decides, after an order fetch, whether the remote
// order's item list or the locally cached snapshot is the authoritative
// cart. It is pure: it never touches the snapshot store and performs no
// I/O; syncing back happens on mutation, not on read.
package reconcile

import (
	"regexp"
	"time"

	"storefront-session/internal/domain"
)

// The backend's paymentStatus field is free text and varies between
// deployments. Two loose patterns cover the observed confirmations; both
// must be preserved exactly, and the field must not be upgraded to an
// enum while the upstream API keeps it free-form.
var (
	goAheadPattern = regexp.MustCompile(`(?i)go\s*ahead`)
	paidPattern    = regexp.MustCompile(`(?i)^paid`)
)

// IsPaid classifies a free-text payment status. Anything that mentions
// "go ahead" or starts with "paid" counts as confirmed.
func IsPaid(status string) bool {
	return goAheadPattern.MatchString(status) || paidPattern.MatchString(status)
}

// Outcome is the reconciled session state and the navigation it implies.
// The caller adopts all of it; executing NavigateHome is the frontend's
// job.
type Outcome struct {
	Cart         domain.Cart
	OrderID      string
	Order        *domain.Order
	DeliveryDate *time.Time
	NavigateHome bool
}

// OrderGone is the recovery outcome for a fetch that came back not-found:
// the order no longer exists, so the session resets to an empty cart with
// no order and no delivery date, and the user is sent home. Not surfaced
// as an error beyond the navigation.
func OrderGone() Outcome {
	return Outcome{Cart: domain.Cart{}, NavigateHome: true}
}

// Reconcile picks the authoritative cart after a successful order fetch.
//
// Before payment the checkout view must show server truth (a page refresh
// mid-checkout may have stale local state), and a missing snapshot leaves
// nothing else to trust, so either condition rebuilds the cart from the
// order's products. Once payment is confirmed the purchase is fixed and a
// stale local cache must not overwrite it quietly, so the snapshot wins;
// off the checkout view it also wins, preserving in-flight local edits
// over a stale fetch.
//
// The fetched order and its delivery date are adopted regardless of which
// cart source won.
func Reconcile(order *domain.Order, local domain.Cart, hasLocal, onCheckout bool) Outcome {
	out := Outcome{
		OrderID:      order.ID,
		Order:        order,
		DeliveryDate: ParseDeliveryDate(order.DeliveryDate),
	}

	if !IsPaid(order.PaymentStatus) && (!hasLocal || onCheckout) {
		out.Cart = cartFromOrder(order)
		return out
	}

	if hasLocal {
		out.Cart = local.Clone()
	} else {
		out.Cart = domain.Cart{}
	}
	return out
}

func cartFromOrder(order *domain.Order) domain.Cart {
	cart := make(domain.Cart, 0, len(order.Products))
	for _, p := range order.Products {
		item := p
		if item.Design != nil {
			d := *item.Design
			item.Design = &d
		}
		cart = append(cart, item)
	}
	return cart
}

// ParseDeliveryDate converts the order API's date string into a time, or
// nil when absent or unparseable.
func ParseDeliveryDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
