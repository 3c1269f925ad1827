// Package session owns the live cart/order state of a storefront session
// and orchestrates the order lifecycle around it: create on first
// checkout, update on later mutations, clear on last-item removal, and
// refresh-plus-reconcile on stage changes.
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"storefront-session/internal/cartstore"
	"storefront-session/internal/domain"
	"storefront-session/internal/events"
	"storefront-session/internal/orderclient"
	"storefront-session/internal/pricing"
	"storefront-session/internal/reconcile"
)

// Destinations the frontend is told to navigate to.
const (
	PathHome     = "/"
	PathCheckout = "/checkout"
)

// Notice kinds, mirroring the notifier contract.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is one user-facing notification produced by an operation.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Effects is everything an operation asks the outside world to do. The
// HTTP layer serializes it into the response for the frontend to apply;
// Apply dispatches it to notifier/navigator implementations.
type Effects struct {
	Notices       []Notice `json:"notices,omitempty"`
	NavigateTo    string   `json:"navigateTo,omitempty"`
	HideCartPanel bool     `json:"hideCartPanel,omitempty"`
}

func (e *Effects) notify(kind, message string) {
	e.Notices = append(e.Notices, Notice{Kind: kind, Message: message})
}

// Notifier receives user-facing notifications. Fire-and-forget.
type Notifier interface {
	Notify(kind, message string)
}

// Navigator executes navigation requests. Fire-and-forget.
type Navigator interface {
	GoTo(path string)
}

// Apply dispatches the effects to the given collaborators. Nil
// collaborators are skipped.
func (e Effects) Apply(n Notifier, nav Navigator) {
	if n != nil {
		for _, notice := range e.Notices {
			n.Notify(notice.Kind, notice.Message)
		}
	}
	if nav != nil && e.NavigateTo != "" {
		nav.GoTo(e.NavigateTo)
	}
}

// EventSink receives best-effort order lifecycle events.
type EventSink interface {
	OrderPlaced(ctx context.Context, ev events.OrderEvent) error
	OrderUpdated(ctx context.Context, ev events.OrderEvent) error
	OrderCleared(ctx context.Context, ev events.OrderEvent) error
}

// Controller runs the order lifecycle for sessions. It holds no session
// state itself; operations transform the state they are handed and
// return the effects for the caller to execute.
type Controller struct {
	orders orderclient.API
	store  cartstore.Store
	sink   EventSink
	logger *log.Logger
}

func NewController(orders orderclient.API, store cartstore.Store, sink EventSink, logger *log.Logger) *Controller {
	return &Controller{orders: orders, store: store, sink: sink, logger: logger}
}

// CheckoutInput drives a create-or-update order action.
type CheckoutInput struct {
	DeliveryDate string `json:"deliveryDate"`
	Currency     string `json:"currency"`
	Clear        bool   `json:"clear"`
	FromCheckout bool   `json:"fromCheckout"`
}

// Increment raises an item quantity by one and syncs the snapshot. The
// remote order stays untouched until the next explicit checkout action.
func (c *Controller) Increment(ctx context.Context, st *domain.Session, sku string) Effects {
	var eff Effects
	if st.Cart.Increment(sku) {
		c.syncSnapshot(ctx, st)
	}
	return eff
}

// Decrement lowers an item quantity by one, never below 1.
func (c *Controller) Decrement(ctx context.Context, st *domain.Session, sku string) Effects {
	var eff Effects
	if st.Cart.Decrement(sku) {
		c.syncSnapshot(ctx, st)
	}
	return eff
}

// ReplaceCart adopts the cart the frontend pushed (add-to-cart flows live
// outside this core) and syncs the snapshot. Lines with quantity < 1 are
// dropped rather than retained at zero.
func (c *Controller) ReplaceCart(ctx context.Context, st *domain.Session, cart domain.Cart) Effects {
	var eff Effects
	clean := make(domain.Cart, 0, len(cart))
	for _, item := range cart {
		if item.Quantity >= 1 {
			clean = append(clean, item)
		}
	}
	st.Cart = clean.Clone()
	c.syncSnapshot(ctx, st)
	return eff
}

// RemoveItem drops the matching line. Removing the last line empties the
// cart; if an order exists that issues exactly one clear update so no
// non-empty remote order is orphaned, then sends the user home and resets
// the stage. A partial removal never calls the network; the order is
// synced on the next explicit checkout action instead.
func (c *Controller) RemoveItem(ctx context.Context, st *domain.Session, sku string) Effects {
	var eff Effects
	if st.Cart.Find(sku) < 0 {
		return eff
	}

	if len(st.Cart) > 1 {
		st.Cart, _ = st.Cart.Remove(sku)
		c.syncSnapshot(ctx, st)
		return eff
	}

	if st.OrderID == "" {
		st.Cart = domain.Cart{}
		c.syncSnapshot(ctx, st)
		return eff
	}

	st.Busy = true
	defer func() { st.Busy = false }()

	order, err := c.orders.Update(ctx, orderclient.UpdateInput{
		ID:           st.OrderID,
		Items:        nil,
		DeliveryDate: formatDeliveryDate(st.DeliveryDate),
		Currency:     orderCurrency(st),
	})
	if err != nil {
		eff.notify(NoticeError, userMessage(err))
		return eff
	}

	st.Cart = domain.Cart{}
	st.Order = order
	st.DeliveryDate = reconcile.ParseDeliveryDate(order.DeliveryDate)
	st.Stage = domain.StageDelivery
	c.syncSnapshot(ctx, st)
	eff.NavigateTo = PathHome
	eff.HideCartPanel = true
	c.publishCleared(ctx, st)
	return eff
}

// Checkout creates the order when none exists, otherwise updates it with
// the current cart (or clears it). Failures surface as an error notice
// and mutate nothing, so the action can simply be retried.
func (c *Controller) Checkout(ctx context.Context, st *domain.Session, in CheckoutInput) Effects {
	st.Busy = true
	defer func() { st.Busy = false }()

	if st.OrderID == "" {
		return c.createOrder(ctx, st, in)
	}
	return c.updateOrder(ctx, st, in)
}

func (c *Controller) createOrder(ctx context.Context, st *domain.Session, in CheckoutInput) Effects {
	var eff Effects
	if len(st.Cart) == 0 {
		eff.notify(NoticeInfo, "cart is empty")
		return eff
	}

	order, err := c.orders.Create(ctx, orderclient.CreateInput{
		Items:        st.Cart,
		DeliveryDate: in.DeliveryDate,
		Currency:     in.Currency,
	})
	if err != nil {
		eff.notify(NoticeError, userMessage(err))
		return eff
	}

	st.OrderID = order.ID
	st.Order = order
	st.DeliveryDate = reconcile.ParseDeliveryDate(order.DeliveryDate)
	eff.NavigateTo = PathCheckout + "/" + order.ID
	eff.HideCartPanel = true
	c.publish(ctx, st, c.sink.OrderPlaced)
	return eff
}

func (c *Controller) updateOrder(ctx context.Context, st *domain.Session, in CheckoutInput) Effects {
	var eff Effects
	items := st.Cart
	if in.Clear {
		items = nil
	}

	order, err := c.orders.Update(ctx, orderclient.UpdateInput{
		ID:           st.OrderID,
		Items:        items,
		DeliveryDate: in.DeliveryDate,
		Currency:     in.Currency,
	})
	if err != nil {
		eff.notify(NoticeError, userMessage(err))
		return eff
	}

	st.Order = order
	st.DeliveryDate = reconcile.ParseDeliveryDate(order.DeliveryDate)
	eff.HideCartPanel = true

	if in.Clear {
		st.Cart = domain.Cart{}
		st.Stage = domain.StageDelivery
		c.syncSnapshot(ctx, st)
		if in.FromCheckout {
			eff.NavigateTo = PathHome
		}
		c.publishCleared(ctx, st)
		return eff
	}

	if !in.FromCheckout {
		eff.NavigateTo = PathCheckout + "/" + st.OrderID
	}
	c.publish(ctx, st, c.sink.OrderUpdated)
	return eff
}

// SetStage advances the checkout stage. With a known order id the pair
// (orderId, stage) changed, so the order is re-fetched and reconciled;
// without one the snapshot store is the fallback source.
func (c *Controller) SetStage(ctx context.Context, st *domain.Session, stage int) Effects {
	st.Stage = stage
	if st.OrderID == "" {
		var eff Effects
		if local, ok := c.loadSnapshot(ctx, st.ID); ok {
			st.Cart = local
		}
		return eff
	}
	return c.Refresh(ctx, st, true)
}

// Refresh re-fetches the order and reconciles local against remote. A
// not-found order resets the session to an empty cart and sends the user
// home; any other failure is an error notice with nothing mutated. The
// snapshot store is read here, never written.
func (c *Controller) Refresh(ctx context.Context, st *domain.Session, onCheckout bool) Effects {
	var eff Effects
	if st.OrderID == "" {
		if local, ok := c.loadSnapshot(ctx, st.ID); ok {
			st.Cart = local
		}
		return eff
	}

	order, err := c.orders.Read(ctx, st.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.adopt(st, reconcile.OrderGone(), &eff)
			return eff
		}
		eff.notify(NoticeError, userMessage(err))
		return eff
	}

	local, hasLocal := c.loadSnapshot(ctx, st.ID)
	c.adopt(st, reconcile.Reconcile(order, local, hasLocal, onCheckout), &eff)
	return eff
}

func (c *Controller) adopt(st *domain.Session, out reconcile.Outcome, eff *Effects) {
	st.Cart = out.Cart
	st.OrderID = out.OrderID
	st.Order = out.Order
	st.DeliveryDate = out.DeliveryDate
	if out.NavigateHome {
		eff.NavigateTo = PathHome
	}
}

func (c *Controller) loadSnapshot(ctx context.Context, sessionID string) (domain.Cart, bool) {
	cart, ok, err := c.store.Get(ctx, sessionID)
	if err != nil {
		c.logger.Printf("session %s: read snapshot: %v", sessionID, err)
		return nil, false
	}
	return cart, ok
}

func (c *Controller) syncSnapshot(ctx context.Context, st *domain.Session) {
	if err := c.store.Set(ctx, st.ID, st.Cart); err != nil {
		c.logger.Printf("session %s: write snapshot: %v", st.ID, err)
	}
}

func (c *Controller) publishCleared(ctx context.Context, st *domain.Session) {
	ev := events.OrderEvent{
		SessionID: st.ID,
		OrderID:   st.OrderID,
		Currency:  orderCurrency(st),
	}
	if err := c.sink.OrderCleared(ctx, ev); err != nil {
		c.logger.Printf("session %s: publish cleared: %v", st.ID, err)
	}
}

func (c *Controller) publish(ctx context.Context, st *domain.Session, send func(context.Context, events.OrderEvent) error) {
	ev := events.OrderEvent{
		SessionID:  st.ID,
		OrderID:    st.OrderID,
		ItemCount:  pricing.TotalItemCount(st.Cart),
		TotalCents: pricing.Total(st.Cart),
		Currency:   orderCurrency(st),
	}
	if err := send(ctx, ev); err != nil {
		c.logger.Printf("session %s: publish order event: %v", st.ID, err)
	}
}

func orderCurrency(st *domain.Session) string {
	if st.Order != nil {
		return st.Order.Currency
	}
	return ""
}

func formatDeliveryDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func userMessage(err error) string {
	var apiErr *orderclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "order request failed"
}
