package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPaid          PaymentStatus = "paid"
	PaymentFailed        PaymentStatus = "failed"
	PaymentCancelled     PaymentStatus = "cancelled"
	PaymentRefundPending PaymentStatus = "refund_pending"
	PaymentRefunded      PaymentStatus = "refunded"
)

type RefundStatus string

const (
	RefundNone      RefundStatus = ""
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
)

// cancellable statuses; completed, cancelled and returned are terminal for
// the customer's cancellation right.
var cancellable = map[Status]bool{
	StatusPending:    true,
	StatusProcessing: true,
}

// Cancellable reports whether the order's status still admits cancellation.
func (o *CustomerOrder) Cancellable() bool {
	return cancellable[o.Status]
}

// CustomerOrder is a purchase initiated through checkout. TotalAmount and
// the item snapshots are immutable once payment is verified.
type CustomerOrder struct {
	ID             string        `json:"id"`
	OrderNo        string        `json:"order_no"`
	CustomerID     string        `json:"customer_id"`
	StoreID        string        `json:"store_id"`
	Status         Status        `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	RefundStatus   RefundStatus  `json:"refund_status,omitempty"`
	TotalAmount    float64       `json:"total_amount"`
	TaxAmount      float64       `json:"tax_amount"`
	ShippingAmount float64       `json:"shipping_amount"`
	GatewayOrderID string        `json:"gateway_order_id,omitempty"`
	CancelReason   string        `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
}

// CustomerOrderItem snapshots product, quantity and unit price at
// order-creation time.
type CustomerOrderItem struct {
	ID          string  `json:"id"`
	OrderID     string  `json:"order_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Payment is one row per money movement: positive for a capture, negative
// for a refund, zero for a refund that is owed but unconfirmed.
type Payment struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	MethodGateway = "gateway"
	MethodRefund  = "refund"
)

// CancelOutcome is what the service's cancellation decision produces inside
// the locked transaction; the repository applies it atomically together with
// the restock.
type CancelOutcome struct {
	PaymentStatus PaymentStatus
	RefundStatus  RefundStatus
	PaymentRow    *Payment // nil when no money movement is recorded
	Reason        string
}
