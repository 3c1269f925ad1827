package session

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"storefront-session/internal/cartstore"
	"storefront-session/internal/domain"
	"storefront-session/internal/events"
	"storefront-session/internal/orderclient"
)

type stubOrders struct {
	createOrder *domain.Order
	createErr   error
	createCalls int
	lastCreate  orderclient.CreateInput

	readOrder *domain.Order
	readErr   error
	readCalls int

	updateOrder *domain.Order
	updateErr   error
	updateCalls int
	lastUpdate  orderclient.UpdateInput
}

func (s *stubOrders) Create(_ context.Context, in orderclient.CreateInput) (*domain.Order, error) {
	s.createCalls++
	s.lastCreate = in
	return s.createOrder, s.createErr
}

func (s *stubOrders) Read(_ context.Context, _ string) (*domain.Order, error) {
	s.readCalls++
	return s.readOrder, s.readErr
}

func (s *stubOrders) Update(_ context.Context, in orderclient.UpdateInput) (*domain.Order, error) {
	s.updateCalls++
	s.lastUpdate = in
	return s.updateOrder, s.updateErr
}

type stubSink struct {
	placed, updated, cleared int
	last                     events.OrderEvent
	err                      error
}

func (s *stubSink) OrderPlaced(_ context.Context, ev events.OrderEvent) error {
	s.placed++
	s.last = ev
	return s.err
}

func (s *stubSink) OrderUpdated(_ context.Context, ev events.OrderEvent) error {
	s.updated++
	s.last = ev
	return s.err
}

func (s *stubSink) OrderCleared(_ context.Context, ev events.OrderEvent) error {
	s.cleared++
	s.last = ev
	return s.err
}

func testController(orders *stubOrders, store cartstore.Store, sink *stubSink) *Controller {
	if store == nil {
		store = cartstore.NewMemory()
	}
	if sink == nil {
		sink = &stubSink{}
	}
	return NewController(orders, store, sink, log.New(io.Discard, "", 0))
}

func testSession(cart domain.Cart) *domain.Session {
	return &domain.Session{ID: "s1", Cart: cart, Stage: domain.StageDelivery}
}

func hasNotice(eff Effects, kind string) bool {
	for _, n := range eff.Notices {
		if n.Kind == kind {
			return true
		}
	}
	return false
}

func TestIncrementSyncsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := cartstore.NewMemory()
	ctrl := testController(&stubOrders{}, store, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 1}})

	ctrl.Increment(ctx, st, "A")
	if st.Cart[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", st.Cart[0].Quantity)
	}
	snap, ok, _ := store.Get(ctx, "s1")
	if !ok || snap[0].Quantity != 2 {
		t.Fatalf("snapshot not synced: %+v", snap)
	}
}

func TestIncrementUnknownSKUDoesNotWriteSnapshot(t *testing.T) {
	ctx := context.Background()
	store := cartstore.NewMemory()
	ctrl := testController(&stubOrders{}, store, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 1}})

	ctrl.Increment(ctx, st, "missing")
	if _, ok, _ := store.Get(ctx, "s1"); ok {
		t.Fatalf("snapshot written for a no-op")
	}
}

func TestRemoveItemPartialIssuesNoNetworkCall(t *testing.T) {
	orders := &stubOrders{}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{
		{SKU: "A", PriceCents: 100, Quantity: 1},
		{SKU: "B", PriceCents: 200, Quantity: 2},
	})
	st.OrderID = "o1"

	eff := ctrl.RemoveItem(context.Background(), st, "A")
	if orders.updateCalls != 0 {
		t.Fatalf("partial removal made %d update calls", orders.updateCalls)
	}
	if len(st.Cart) != 1 || st.Cart[0].SKU != "B" {
		t.Fatalf("unexpected cart: %+v", st.Cart)
	}
	if eff.NavigateTo != "" || len(eff.Notices) != 0 {
		t.Fatalf("unexpected effects: %+v", eff)
	}
}

func TestRemoveLastItemWithOrderIssuesOneClearUpdate(t *testing.T) {
	orders := &stubOrders{updateOrder: &domain.Order{ID: "o1", Currency: "EUR"}}
	sink := &stubSink{}
	store := cartstore.NewMemory()
	ctrl := testController(orders, store, sink)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 3}})
	st.OrderID = "o1"
	st.Stage = domain.StagePayment

	eff := ctrl.RemoveItem(context.Background(), st, "A")
	if orders.updateCalls != 1 {
		t.Fatalf("update calls = %d, want 1", orders.updateCalls)
	}
	if orders.lastUpdate.Items != nil {
		t.Fatalf("clear update carried items: %+v", orders.lastUpdate.Items)
	}
	if len(st.Cart) != 0 {
		t.Fatalf("cart not emptied: %+v", st.Cart)
	}
	if st.Stage != domain.StageDelivery {
		t.Fatalf("stage = %d, want %d", st.Stage, domain.StageDelivery)
	}
	if eff.NavigateTo != PathHome || !eff.HideCartPanel {
		t.Fatalf("unexpected effects: %+v", eff)
	}
	if sink.cleared != 1 {
		t.Fatalf("cleared events = %d, want 1", sink.cleared)
	}
	snap, ok, _ := store.Get(context.Background(), "s1")
	if !ok || len(snap) != 0 {
		t.Fatalf("snapshot not emptied: %+v", snap)
	}
}

func TestRemoveLastItemUpdateFailureLeavesStateUntouched(t *testing.T) {
	orders := &stubOrders{updateErr: &orderclient.APIError{Status: 500, Message: "boom"}}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 3}})
	st.OrderID = "o1"
	st.Stage = domain.StagePayment

	eff := ctrl.RemoveItem(context.Background(), st, "A")
	if !hasNotice(eff, NoticeError) {
		t.Fatalf("expected error notice, got %+v", eff)
	}
	if len(st.Cart) != 1 || st.Stage != domain.StagePayment || st.OrderID != "o1" {
		t.Fatalf("state mutated on failure: %+v", st)
	}
}

func TestRemoveLastItemWithoutOrderJustClears(t *testing.T) {
	orders := &stubOrders{}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 1}})

	eff := ctrl.RemoveItem(context.Background(), st, "A")
	if orders.updateCalls != 0 {
		t.Fatalf("update calls = %d, want 0", orders.updateCalls)
	}
	if len(st.Cart) != 0 || eff.NavigateTo != "" {
		t.Fatalf("unexpected result: cart=%+v effects=%+v", st.Cart, eff)
	}
}

func TestCheckoutCreatesOrderAndNavigates(t *testing.T) {
	orders := &stubOrders{createOrder: &domain.Order{ID: "o9", Currency: "EUR", DeliveryDate: "2026-09-15"}}
	sink := &stubSink{}
	ctrl := testController(orders, nil, sink)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 2}})

	eff := ctrl.Checkout(context.Background(), st, CheckoutInput{DeliveryDate: "2026-09-15", Currency: "EUR"})
	if st.OrderID != "o9" || st.Order == nil {
		t.Fatalf("order not adopted: %+v", st)
	}
	if st.DeliveryDate == nil || st.DeliveryDate.Format("2006-01-02") != "2026-09-15" {
		t.Fatalf("delivery date = %v", st.DeliveryDate)
	}
	if eff.NavigateTo != PathCheckout+"/o9" || !eff.HideCartPanel {
		t.Fatalf("unexpected effects: %+v", eff)
	}
	if orders.lastCreate.Currency != "EUR" || len(orders.lastCreate.Items) != 1 {
		t.Fatalf("unexpected create input: %+v", orders.lastCreate)
	}
	if sink.placed != 1 || sink.last.ItemCount != 2 || sink.last.TotalCents != 200 {
		t.Fatalf("unexpected event: placed=%d %+v", sink.placed, sink.last)
	}
}

func TestCheckoutCreateFailureMutatesNothing(t *testing.T) {
	orders := &stubOrders{createErr: &orderclient.APIError{Status: 500, Message: "create failed"}}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 2}})

	eff := ctrl.Checkout(context.Background(), st, CheckoutInput{Currency: "EUR"})
	if !hasNotice(eff, NoticeError) {
		t.Fatalf("expected error notice, got %+v", eff)
	}
	if eff.Notices[0].Message != "create failed" {
		t.Fatalf("remote message not surfaced: %+v", eff.Notices)
	}
	if st.OrderID != "" || st.Order != nil || len(st.Cart) != 1 || st.Stage != domain.StageDelivery {
		t.Fatalf("state mutated on failure: %+v", st)
	}
}

func TestCheckoutEmptyCartIsRefused(t *testing.T) {
	orders := &stubOrders{}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{})

	eff := ctrl.Checkout(context.Background(), st, CheckoutInput{Currency: "EUR"})
	if orders.createCalls != 0 {
		t.Fatalf("create called for empty cart")
	}
	if !hasNotice(eff, NoticeInfo) {
		t.Fatalf("expected info notice, got %+v", eff)
	}
}

func TestCheckoutUpdateFromMainViewNavigatesToCheckout(t *testing.T) {
	orders := &stubOrders{updateOrder: &domain.Order{ID: "o1", Currency: "EUR", PaymentStatus: "pending"}}
	sink := &stubSink{}
	ctrl := testController(orders, nil, sink)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 2}})
	st.OrderID = "o1"
	st.Stage = domain.StagePayment

	eff := ctrl.Checkout(context.Background(), st, CheckoutInput{Currency: "EUR", FromCheckout: false})
	if len(orders.lastUpdate.Items) != 1 {
		t.Fatalf("update did not carry cart: %+v", orders.lastUpdate)
	}
	if eff.NavigateTo != PathCheckout+"/o1" || !eff.HideCartPanel {
		t.Fatalf("unexpected effects: %+v", eff)
	}
	if st.Stage != domain.StagePayment {
		t.Fatalf("stage changed on normal update: %d", st.Stage)
	}
	if sink.updated != 1 {
		t.Fatalf("updated events = %d, want 1", sink.updated)
	}
}

func TestCheckoutClearFromCheckoutNavigatesHomeAndResetsStage(t *testing.T) {
	orders := &stubOrders{updateOrder: &domain.Order{ID: "o1", Currency: "EUR"}}
	sink := &stubSink{}
	store := cartstore.NewMemory()
	ctrl := testController(orders, store, sink)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 2}})
	st.OrderID = "o1"
	st.Stage = domain.StagePayment

	eff := ctrl.Checkout(context.Background(), st, CheckoutInput{Currency: "EUR", Clear: true, FromCheckout: true})
	if orders.lastUpdate.Items != nil {
		t.Fatalf("clear update carried items: %+v", orders.lastUpdate.Items)
	}
	if len(st.Cart) != 0 || st.Stage != domain.StageDelivery {
		t.Fatalf("clear did not reset state: %+v", st)
	}
	if eff.NavigateTo != PathHome {
		t.Fatalf("navigate = %q, want %q", eff.NavigateTo, PathHome)
	}
	if sink.cleared != 1 {
		t.Fatalf("cleared events = %d, want 1", sink.cleared)
	}
}

func TestCheckoutUpdateFailureMutatesNothing(t *testing.T) {
	orders := &stubOrders{updateErr: errors.New("network down")}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 2}})
	st.OrderID = "o1"

	eff := ctrl.Checkout(context.Background(), st, CheckoutInput{Currency: "EUR"})
	if !hasNotice(eff, NoticeError) {
		t.Fatalf("expected error notice, got %+v", eff)
	}
	if len(st.Cart) != 1 || st.OrderID != "o1" || st.Order != nil {
		t.Fatalf("state mutated on failure: %+v", st)
	}
}

func TestSetStageWithOrderRefetchesAndPrefersServerTruth(t *testing.T) {
	orders := &stubOrders{readOrder: &domain.Order{
		ID:            "o1",
		PaymentStatus: "pending",
		Currency:      "EUR",
		Products:      []domain.CartItem{{SKU: "remote", PriceCents: 500, Quantity: 1}},
	}}
	store := cartstore.NewMemory()
	store.Set(context.Background(), "s1", domain.Cart{{SKU: "local", PriceCents: 100, Quantity: 1}})
	ctrl := testController(orders, store, nil)
	st := testSession(domain.Cart{{SKU: "stale", PriceCents: 1, Quantity: 1}})
	st.OrderID = "o1"

	ctrl.SetStage(context.Background(), st, domain.StagePayment)
	if orders.readCalls != 1 {
		t.Fatalf("read calls = %d, want 1", orders.readCalls)
	}
	if st.Stage != domain.StagePayment {
		t.Fatalf("stage = %d", st.Stage)
	}
	if len(st.Cart) != 1 || st.Cart[0].SKU != "remote" {
		t.Fatalf("expected server cart on checkout refresh, got %+v", st.Cart)
	}
}

func TestSetStageWithoutOrderFallsBackToSnapshot(t *testing.T) {
	orders := &stubOrders{}
	store := cartstore.NewMemory()
	store.Set(context.Background(), "s1", domain.Cart{{SKU: "local", PriceCents: 100, Quantity: 2}})
	ctrl := testController(orders, store, nil)
	st := testSession(domain.Cart{})

	ctrl.SetStage(context.Background(), st, domain.StagePayment)
	if orders.readCalls != 0 {
		t.Fatalf("read called without an order id")
	}
	if len(st.Cart) != 1 || st.Cart[0].SKU != "local" {
		t.Fatalf("snapshot not loaded: %+v", st.Cart)
	}
}

func TestRefreshPaidOrderKeepsSnapshot(t *testing.T) {
	orders := &stubOrders{readOrder: &domain.Order{
		ID:            "o1",
		PaymentStatus: "Paid - processing",
		Currency:      "EUR",
		Products:      []domain.CartItem{{SKU: "remote", PriceCents: 500, Quantity: 1}},
	}}
	store := cartstore.NewMemory()
	store.Set(context.Background(), "s1", domain.Cart{{SKU: "local", PriceCents: 100, Quantity: 1}})
	ctrl := testController(orders, store, nil)
	st := testSession(nil)
	st.OrderID = "o1"

	ctrl.Refresh(context.Background(), st, true)
	if len(st.Cart) != 1 || st.Cart[0].SKU != "local" {
		t.Fatalf("paid order overwrote snapshot: %+v", st.Cart)
	}
	if st.Order == nil || st.Order.PaymentStatus != "Paid - processing" {
		t.Fatalf("order not adopted: %+v", st.Order)
	}
}

func TestRefreshNotFoundResetsSession(t *testing.T) {
	orders := &stubOrders{readErr: domain.ErrNotFound}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 1}})
	st.OrderID = "gone"
	date := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	st.DeliveryDate = &date

	eff := ctrl.Refresh(context.Background(), st, true)
	if st.OrderID != "" || st.Order != nil || len(st.Cart) != 0 || st.DeliveryDate != nil {
		t.Fatalf("session not reset: %+v", st)
	}
	if eff.NavigateTo != PathHome {
		t.Fatalf("navigate = %q, want home", eff.NavigateTo)
	}
	if hasNotice(eff, NoticeError) {
		t.Fatalf("not-found must not surface an error notice: %+v", eff)
	}
}

func TestRefreshRequestFailureLeavesStateUntouched(t *testing.T) {
	orders := &stubOrders{readErr: errors.New("timeout")}
	ctrl := testController(orders, nil, nil)
	st := testSession(domain.Cart{{SKU: "A", PriceCents: 100, Quantity: 1}})
	st.OrderID = "o1"

	eff := ctrl.Refresh(context.Background(), st, true)
	if !hasNotice(eff, NoticeError) {
		t.Fatalf("expected error notice, got %+v", eff)
	}
	if st.OrderID != "o1" || len(st.Cart) != 1 {
		t.Fatalf("state mutated on failure: %+v", st)
	}
}
