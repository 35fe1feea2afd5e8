package notification

import (
	"context"

	"github.com/arnoldhere/RetailIQ-sub000/internal/email"
	"github.com/arnoldhere/RetailIQ-sub000/internal/negotiation"
	"github.com/arnoldhere/RetailIQ-sub000/internal/order"
)

// producer is the slice of the Kafka producer the publisher needs.
type producer interface {
	Publish(ctx context.Context, key string, payload any) error
}

// Publisher turns lifecycle transitions into events on the notification
// topic. It satisfies both order.Notifier and negotiation.Notifier; the
// notifier process consumes the topic and sends the actual mail.
type Publisher struct {
	producer producer
}

func NewPublisher(p producer) *Publisher {
	return &Publisher{producer: p}
}

func (p *Publisher) OrderPaid(ctx context.Context, o *order.CustomerOrder, items []order.CustomerOrderItem, customerEmail string) error {
	lines := make([]email.OrderItem, len(items))
	for i, item := range items {
		lines[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return p.publish(ctx, EventOrderPaid, o.ID, OrderPaidEvent{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		CustomerEmail: customerEmail,
		TotalAmount:   o.TotalAmount,
		Items:         lines,
	})
}

func (p *Publisher) OrderCancelled(ctx context.Context, o *order.CustomerOrder, customerEmail string) error {
	return p.publish(ctx, EventOrderCancelled, o.ID, OrderCancelledEvent{
		OrderID:       o.ID,
		OrderNo:       o.OrderNo,
		CustomerEmail: customerEmail,
		TotalAmount:   o.TotalAmount,
		Refunded:      o.PaymentStatus == order.PaymentRefunded,
	})
}

func (p *Publisher) BidPlaced(ctx context.Context, ask *negotiation.Ask, bid *negotiation.Bid) error {
	return p.publish(ctx, EventBidPlaced, bid.ID, BidPlacedEvent{
		BidID:        bid.ID,
		AskID:        ask.ID,
		ProductID:    ask.ProductID,
		SupplierName: bid.SupplierID,
		Price:        bid.Price,
		Quantity:     bid.Quantity,
	})
}

func (p *Publisher) BidAccepted(ctx context.Context, bid *negotiation.Bid, o *negotiation.SupplyOrder, supplier *negotiation.SupplierProfile) error {
	ev := BidAcceptedEvent{
		BidID:         bid.ID,
		OrderNo:       o.OrderNo,
		SupplierEmail: supplier.Email,
		Price:         bid.Price,
		Quantity:      bid.Quantity,
		TotalAmount:   o.TotalAmount,
	}
	if len(o.Items) > 0 {
		ev.ProductID = o.Items[0].ProductID
	}
	return p.publish(ctx, EventBidAccepted, bid.ID, ev)
}

func (p *Publisher) publish(ctx context.Context, eventType, entityID string, payload any) error {
	ev, err := newEvent(eventType, entityID, payload)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, entityID, ev)
}
