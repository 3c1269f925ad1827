package domain

import "time"

// Checkout stages. The stage counter gates which mutations are permitted
// and when the cart is refreshed from the remote order.
const (
	StageDelivery = 1
	StagePayment  = 2
	StageDone     = 3
)

// Session is the owned state object for one storefront session: the live
// cart, the associated remote order (at most one), and checkout progress.
// All mutation goes through the session controller, which serializes
// operations per session.
type Session struct {
	ID           string     `json:"id"`
	Cart         Cart       `json:"cart"`
	OrderID      string     `json:"orderId,omitempty"`
	Order        *Order     `json:"order,omitempty"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
	Stage        int        `json:"stage"`
	Busy         bool       `json:"busy"`
}
