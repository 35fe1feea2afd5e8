package negotiation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AskStatus string

const (
	AskOpen   AskStatus = "open"
	AskClosed AskStatus = "closed"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

type SupplyOrderStatus string

const (
	SupplyOrderPending   SupplyOrderStatus = "pending"
	SupplyOrderSent      SupplyOrderStatus = "sent"
	SupplyOrderReceived  SupplyOrderStatus = "received"
	SupplyOrderCancelled SupplyOrderStatus = "cancelled"
)

// Ask is a platform-initiated request to buy a quantity of one product from
// suppliers. It accepts bids only while open.
type Ask struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	MinPrice  *float64   `json:"min_price,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Note      string     `json:"note,omitempty"`
	Status    AskStatus  `json:"status"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the Ask's optional expiry has passed.
func (a *Ask) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// Bid is a supplier's priced response to an open Ask.
type Bid struct {
	ID         string    `json:"id"`
	AskID      string    `json:"ask_id"`
	SupplierID string    `json:"supplier_id"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	Message    string    `json:"message,omitempty"`
	Status     BidStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// SupplyOrder is the binding purchase order created when a Bid is accepted.
// Its item snapshots unit cost at acceptance time and is never recomputed
// from catalog prices.
type SupplyOrder struct {
	ID           string            `json:"id"`
	OrderNo      string            `json:"order_no"`
	SupplierID   string            `json:"supplier_id"`
	StoreID      string            `json:"store_id"`
	Status       SupplyOrderStatus `json:"status"`
	TotalAmount  float64           `json:"total_amount"`
	DeliveryDate *time.Time        `json:"delivery_date,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	Items        []SupplyOrderItem `json:"items"`
}

type SupplyOrderItem struct {
	ID            string  `json:"id"`
	SupplyOrderID string  `json:"supply_order_id"`
	ProductID     string  `json:"product_id"`
	Quantity      int     `json:"quantity"`
	UnitCost      float64 `json:"unit_cost"`
}

// SupplierProfile is the supplier record resolved during bid acceptance.
// A Bid must never be accepted without one.
type SupplierProfile struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
}

// NewSupplyOrderNumber builds a globally unique, human-readable order
// number. Numbers are external identifiers and are never reused.
func NewSupplyOrderNumber(now time.Time) string {
	return fmt.Sprintf("SUP-%s-%s", now.Format("20060102150405"), uuid.New().String()[:6])
}
