package domain

// Order is the remote record of a checkout attempt. It is created once a
// user proceeds to checkout with a non-empty cart, updated on subsequent
// cart mutations while its id is known, and never deleted by this service:
// clearing means an update with an empty item list.
//
// PaymentStatus is deliberately free text. The backend emits variants like
// "Paid - processing" or "please go ahead"; classification happens at the
// boundary (see the reconcile package), never via a typed enum here.
type Order struct {
	ID            string     `json:"id"`
	Products      []CartItem `json:"orderProducts"`
	DeliveryDate  string     `json:"deliveryDate,omitempty"`
	PaymentStatus string     `json:"paymentStatus"`
	Currency      string     `json:"currency"`
}
