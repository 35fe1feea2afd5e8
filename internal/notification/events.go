package notification

import (
	"encoding/json"
	"time"

	"github.com/arnoldhere/RetailIQ-sub000/internal/email"
)

// Event types carried on the notification topic.
const (
	EventOrderPaid      = "order_paid"
	EventOrderCancelled = "order_cancelled"
	EventBidPlaced      = "bid_placed"
	EventBidAccepted    = "bid_accepted"
)

// Event is the envelope for every message on the topic. Data holds the
// type-specific payload.
type Event struct {
	Type       string          `json:"type"`
	EntityID   string          `json:"entity_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type OrderPaidEvent struct {
	OrderID       string            `json:"order_id"`
	OrderNo       string            `json:"order_no"`
	CustomerEmail string            `json:"customer_email"`
	TotalAmount   float64           `json:"total_amount"`
	Items         []email.OrderItem `json:"items"`
}

type OrderCancelledEvent struct {
	OrderID       string  `json:"order_id"`
	OrderNo       string  `json:"order_no"`
	CustomerEmail string  `json:"customer_email"`
	TotalAmount   float64 `json:"total_amount"`
	Refunded      bool    `json:"refunded"`
}

type BidPlacedEvent struct {
	BidID        string  `json:"bid_id"`
	AskID        string  `json:"ask_id"`
	ProductID    string  `json:"product_id"`
	SupplierName string  `json:"supplier_name"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
}

type BidAcceptedEvent struct {
	BidID         string  `json:"bid_id"`
	OrderNo       string  `json:"order_no"`
	SupplierEmail string  `json:"supplier_email"`
	ProductID     string  `json:"product_id"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	TotalAmount   float64 `json:"total_amount"`
}

func newEvent(eventType, entityID string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:       eventType,
		EntityID:   entityID,
		OccurredAt: time.Now(),
		Data:       data,
	}, nil
}
