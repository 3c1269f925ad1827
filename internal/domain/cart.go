package domain

// Customization is a paid add-on attached to a cart line. Its quantity is
// set together with the item quantity when the customization is attached
// and tracks it on increment/decrement afterwards.
type Customization struct {
	Title      string `json:"title"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
}

// CartItem is one purchasable line in a cart. SKU is unique within a cart.
type CartItem struct {
	SKU         string         `json:"sku"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Image       string         `json:"image,omitempty"`
	PriceCents  int64          `json:"priceCents"`
	Quantity    int            `json:"quantity"`
	Size        string         `json:"size,omitempty"`
	Design      *Customization `json:"design,omitempty"`
}

// Cart is the ordered list of line items held by a session. Items always
// carry quantity >= 1; dropping to zero removes the line instead.
type Cart []CartItem

// Find returns the index of the item with the given sku, or -1.
func (c Cart) Find(sku string) int {
	for i := range c {
		if c[i].SKU == sku {
			return i
		}
	}
	return -1
}

// Increment raises the quantity of the matching item by one, along with
// its customization quantity when one is attached. Unknown skus are a
// silent no-op. Reports whether anything changed.
func (c Cart) Increment(sku string) bool {
	i := c.Find(sku)
	if i < 0 {
		return false
	}
	c[i].Quantity++
	if c[i].Design != nil {
		c[i].Design.Quantity++
	}
	return true
}

// Decrement lowers the quantity of the matching item by one, but never
// below 1; removal is an explicit separate operation. The customization
// quantity follows when one is attached.
func (c Cart) Decrement(sku string) bool {
	i := c.Find(sku)
	if i < 0 || c[i].Quantity <= 1 {
		return false
	}
	c[i].Quantity--
	if c[i].Design != nil && c[i].Design.Quantity > 0 {
		c[i].Design.Quantity--
	}
	return true
}

// Remove filters the matching item out and returns the new cart. Unknown
// skus leave the cart as-is.
func (c Cart) Remove(sku string) (Cart, bool) {
	i := c.Find(sku)
	if i < 0 {
		return c, false
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:i]...)
	out = append(out, c[i+1:]...)
	return out, true
}

// Clone returns a deep copy so snapshot stores and reconciliation can hand
// out carts without aliasing the session's live state.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	for i := range out {
		if out[i].Design != nil {
			d := *out[i].Design
			out[i].Design = &d
		}
	}
	return out
}
