package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnoldhere/RetailIQ-sub000/internal/email"
	"github.com/arnoldhere/RetailIQ-sub000/internal/negotiation"
	"github.com/arnoldhere/RetailIQ-sub000/internal/order"
)

type fakeProducer struct {
	keys   []string
	events []*Event
	err    error
}

func (f *fakeProducer) Publish(_ context.Context, key string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.events = append(f.events, payload.(*Event))
	return nil
}

type fakeMailer struct {
	confirmations []string
	cancellations []string
	bidAlerts     []string
	bidAwards     []string
	err           error
}

func (f *fakeMailer) SendOrderConfirmation(to, _ string, _ float64, _ []email.OrderItem) error {
	f.confirmations = append(f.confirmations, to)
	return f.err
}

func (f *fakeMailer) SendOrderCancelled(to, _ string, _ float64, _ bool) error {
	f.cancellations = append(f.cancellations, to)
	return f.err
}

func (f *fakeMailer) SendBidPlaced(to, _, _ string, _ float64, _ int) error {
	f.bidAlerts = append(f.bidAlerts, to)
	return f.err
}

func (f *fakeMailer) SendBidAccepted(to, _, _ string, _ float64, _ int, _ float64) error {
	f.bidAwards = append(f.bidAwards, to)
	return f.err
}

// ============================================================
// Publisher
// ============================================================

func TestPublisher_OrderPaid(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewPublisher(fp)

	o := &order.CustomerOrder{ID: "ord-1", OrderNo: "ORD-X", TotalAmount: 500}
	items := []order.CustomerOrderItem{
		{ProductID: "p1", ProductName: "Steel Bottle", Quantity: 2, UnitPrice: 250},
	}

	require.NoError(t, pub.OrderPaid(context.Background(), o, items, "cust@example.com"))
	require.Len(t, fp.events, 1)

	// Keyed by order id so per-order delivery order is preserved.
	assert.Equal(t, []string{"ord-1"}, fp.keys)
	assert.Equal(t, EventOrderPaid, fp.events[0].Type)

	var e OrderPaidEvent
	require.NoError(t, json.Unmarshal(fp.events[0].Data, &e))
	assert.Equal(t, "cust@example.com", e.CustomerEmail)
	require.Len(t, e.Items, 1)
	assert.Equal(t, "Steel Bottle", e.Items[0].Name)
}

func TestPublisher_OrderCancelled_RefundFlag(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewPublisher(fp)

	refunded := &order.CustomerOrder{ID: "ord-1", OrderNo: "ORD-X", PaymentStatus: order.PaymentRefunded}
	require.NoError(t, pub.OrderCancelled(context.Background(), refunded, "cust@example.com"))

	unpaid := &order.CustomerOrder{ID: "ord-2", OrderNo: "ORD-Y", PaymentStatus: order.PaymentCancelled}
	require.NoError(t, pub.OrderCancelled(context.Background(), unpaid, "cust@example.com"))

	var first, second OrderCancelledEvent
	require.NoError(t, json.Unmarshal(fp.events[0].Data, &first))
	require.NoError(t, json.Unmarshal(fp.events[1].Data, &second))
	assert.True(t, first.Refunded)
	assert.False(t, second.Refunded)
}

func TestPublisher_BidAccepted(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewPublisher(fp)

	bid := &negotiation.Bid{ID: "bid-1", Price: 4, Quantity: 10}
	so := &negotiation.SupplyOrder{
		OrderNo:     "SUP-X",
		TotalAmount: 40,
		Items:       []negotiation.SupplyOrderItem{{ProductID: "p1"}},
	}
	supplier := &negotiation.SupplierProfile{ID: "sup-1", Email: "acme@example.com"}

	require.NoError(t, pub.BidAccepted(context.Background(), bid, so, supplier))

	var e BidAcceptedEvent
	require.NoError(t, json.Unmarshal(fp.events[0].Data, &e))
	assert.Equal(t, "acme@example.com", e.SupplierEmail)
	assert.Equal(t, "p1", e.ProductID)
	assert.Equal(t, 40.0, e.TotalAmount)
}

func TestPublisher_ProducerFailure_Propagates(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	pub := NewPublisher(fp)

	err := pub.OrderPaid(context.Background(), &order.CustomerOrder{ID: "ord-1"}, nil, "a@b.c")
	assert.Error(t, err)
}

// ============================================================
// Handler
// ============================================================

func roundTrip(t *testing.T, h *Handler, eventType, entityID string, payload any) error {
	t.Helper()
	ev, err := newEvent(eventType, entityID, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	return h.HandleEvent(context.Background(), []byte(entityID), raw)
}

func TestHandler_OrderPaid_SendsConfirmation(t *testing.T) {
	fm := &fakeMailer{}
	h := NewHandler(fm, "purchasing@example.com")

	err := roundTrip(t, h, EventOrderPaid, "ord-1", OrderPaidEvent{
		OrderID: "ord-1", OrderNo: "ORD-X", CustomerEmail: "cust@example.com", TotalAmount: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cust@example.com"}, fm.confirmations)
}

func TestHandler_OrderPaid_MissingEmail_Skips(t *testing.T) {
	fm := &fakeMailer{}
	h := NewHandler(fm, "")

	err := roundTrip(t, h, EventOrderPaid, "ord-1", OrderPaidEvent{OrderID: "ord-1"})
	require.NoError(t, err)
	assert.Empty(t, fm.confirmations)
}

func TestHandler_BidPlaced_GoesToPurchasingInbox(t *testing.T) {
	fm := &fakeMailer{}
	h := NewHandler(fm, "purchasing@example.com")

	err := roundTrip(t, h, EventBidPlaced, "bid-1", BidPlacedEvent{
		BidID: "bid-1", ProductID: "p1", SupplierName: "sup-1", Price: 4, Quantity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"purchasing@example.com"}, fm.bidAlerts)
}

func TestHandler_MalformedMessage_DroppedWithoutError(t *testing.T) {
	fm := &fakeMailer{}
	h := NewHandler(fm, "purchasing@example.com")

	assert.NoError(t, h.HandleEvent(context.Background(), nil, []byte("not json")))
	assert.Empty(t, fm.confirmations)
}

func TestHandler_UnknownEventType_Ignored(t *testing.T) {
	fm := &fakeMailer{}
	h := NewHandler(fm, "purchasing@example.com")

	err := roundTrip(t, h, "user_registered", "u-1", map[string]string{"id": "u-1"})
	assert.NoError(t, err)
	assert.Empty(t, fm.confirmations)
	assert.Empty(t, fm.bidAlerts)
}

func TestHandler_MailFailure_PropagatesForRetry(t *testing.T) {
	fm := &fakeMailer{err: errors.New("smtp down")}
	h := NewHandler(fm, "purchasing@example.com")

	err := roundTrip(t, h, EventOrderCancelled, "ord-1", OrderCancelledEvent{
		OrderID: "ord-1", OrderNo: "ORD-X", CustomerEmail: "cust@example.com",
	})
	assert.Error(t, err)
}
