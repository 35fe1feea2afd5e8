package order

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldhere/RetailIQ-sub000/internal/catalog"
	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/audit"
	"github.com/arnoldhere/RetailIQ-sub000/internal/payment"
)

// CancelWindow is how long after creation a customer may cancel an order.
const CancelWindow = 3 * 24 * time.Hour

// Repository persists customer orders. ConfirmPayment and Cancel lock the
// order row for their whole transaction so a payment cannot be confirmed
// after (or during) a cancellation, and vice versa.
type Repository interface {
	Create(ctx context.Context, o *CustomerOrder, items []CustomerOrderItem) error
	GetByID(ctx context.Context, id string) (*CustomerOrder, error)
	GetItems(ctx context.Context, orderID string) ([]CustomerOrderItem, error)
	FindActiveStore(ctx context.Context, preferredID string) (string, error)

	// MarkPaymentFailed records a terminal signature failure
	// (payment_status=failed, status=cancelled) while the payment is still
	// pending; any other payment state returns InvalidState untouched.
	// Stock is never moved here.
	MarkPaymentFailed(ctx context.Context, orderID string) error

	// ConfirmPayment atomically marks the order paid/processing, inserts the
	// positive payment row, decrements stock per item and clears the
	// customer's cart, returning the order re-read after commit.
	ConfirmPayment(ctx context.Context, orderID, gatewayPaymentID string) (*CustomerOrder, error)

	// Cancel loads the order under a row lock, passes it (with the captured
	// payment reference, if any) to decide, then applies the outcome:
	// payment row, restock of every item, cancelled status. The returned
	// order is re-read after commit.
	Cancel(ctx context.Context, orderID string, decide func(o *CustomerOrder, paymentRef string) (*CancelOutcome, error)) (*CustomerOrder, error)
}

// Notifier delivers best-effort customer notifications after commit.
type Notifier interface {
	OrderPaid(ctx context.Context, o *CustomerOrder, items []CustomerOrderItem, email string) error
	OrderCancelled(ctx context.Context, o *CustomerOrder, email string) error
}

// Invoicer generates an invoice for a paid order. Failure must not roll the
// order back.
type Invoicer interface {
	Generate(ctx context.Context, o *CustomerOrder, items []CustomerOrderItem) error
}

type Service struct {
	repo     Repository
	products catalog.Repository
	gateway  payment.Gateway
	notifier Notifier
	invoicer Invoicer
	trail    audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, products catalog.Repository, gateway payment.Gateway, notifier Notifier, invoicer Invoicer, trail audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		products: products,
		gateway:  gateway,
		notifier: notifier,
		invoicer: invoicer,
		trail:    trail,
		now:      time.Now,
	}
}

type ItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type CreateOrderInput struct {
	CustomerID     string
	CustomerEmail  string
	Items          []ItemInput
	TotalAmount    float64
	TaxAmount      float64
	ShippingAmount float64
	StoreID        string
}

type CreateOrderResult struct {
	OrderID        string  `json:"order_id"`
	OrderNo        string  `json:"order_no"`
	GatewayOrderID string  `json:"gateway_order_id"`
	Amount         int64   `json:"amount"` // minor units, what the gateway will charge
	TotalAmount    float64 `json:"total_amount"`
}

// CreatePaymentOrder opens a payment-gateway order and inserts the local
// order draft. The stock check here is a pre-check, not a reservation:
// stock is decremented only at payment verification. A gateway failure
// leaves no partial CustomerOrder behind because nothing local is written
// before the gateway call succeeds.
func (s *Service) CreatePaymentOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	if len(in.Items) == 0 {
		return nil, fault.ValidationField("items", "order must have at least one item")
	}
	if in.TotalAmount <= 0 {
		return nil, fault.ValidationField("total_amount", "total amount must be positive")
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, fault.ValidationField("items", "quantity for product %s must be positive", item.ProductID)
		}
	}

	// Pre-check availability before any gateway call or database write.
	names := make(map[string]string, len(in.Items))
	for _, item := range in.Items {
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if p.StockAvailable < item.Quantity {
			return nil, fault.InsufficientStock(p.Name, item.Quantity, p.StockAvailable)
		}
		names[item.ProductID] = p.Name
	}

	storeID, err := s.repo.FindActiveStore(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderNo := NewOrderNumber(now)
	amountMinor := int64(math.Round(in.TotalAmount * 100))

	gwOrder, err := s.gateway.CreateOrder(ctx, amountMinor, orderNo)
	if err != nil {
		return nil, err
	}

	o := &CustomerOrder{
		ID:             uuid.New().String(),
		OrderNo:        orderNo,
		CustomerID:     in.CustomerID,
		StoreID:        storeID,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		TotalAmount:    in.TotalAmount,
		TaxAmount:      in.TaxAmount,
		ShippingAmount: in.ShippingAmount,
		GatewayOrderID: gwOrder.ID,
		CreatedAt:      now,
	}

	items := make([]CustomerOrderItem, len(in.Items))
	for i, item := range in.Items {
		items[i] = CustomerOrderItem{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: names[item.ProductID],
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	if err := s.repo.Create(ctx, o, items); err != nil {
		return nil, err
	}

	s.trail.Record(ctx, "order", o.ID, "created", o)
	return &CreateOrderResult{
		OrderID:        o.ID,
		OrderNo:        o.OrderNo,
		GatewayOrderID: gwOrder.ID,
		Amount:         gwOrder.Amount,
		TotalAmount:    o.TotalAmount,
	}, nil
}

type VerifyPaymentInput struct {
	OrderID          string
	CustomerID       string
	CustomerEmail    string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type VerifyResult struct {
	Success     bool    `json:"success"`
	OrderID     string  `json:"order_id"`
	OrderNo     string  `json:"order_no"`
	Status      Status  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
}

// VerifyPayment checks the gateway signature locally and, on a match,
// atomically confirms the payment. Ownership is established before anything
// is written. A mismatch is terminal for a pending order: it is failed and
// cancelled with stock untouched. An order that is already paid or cancelled
// keeps its state; the mismatch is only reported.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*VerifyResult, error) {
	o, err := s.repo.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != in.CustomerID {
		return nil, fault.Forbidden("order %s does not belong to caller", o.ID)
	}

	if !s.gateway.VerifySignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		if err := s.repo.MarkPaymentFailed(ctx, o.ID); err != nil {
			log.Printf("[Order] Failed to mark order %s payment-failed: %v", o.ID, err)
		}
		s.trail.Record(ctx, "order", o.ID, "payment_failed", map[string]string{
			"gateway_payment_id": in.GatewayPaymentID,
		})
		return nil, fault.Signature("signature mismatch for order %s, payment %s", o.ID, in.GatewayPaymentID)
	}

	updated, err := s.repo.ConfirmPayment(ctx, o.ID, in.GatewayPaymentID)
	if err != nil {
		return nil, err
	}

	// Invoice and confirmation mail are post-commit and best-effort; the
	// order stands even if both fail.
	items, err := s.repo.GetItems(ctx, updated.ID)
	if err != nil {
		log.Printf("[Order] Failed to load items of %s for side effects: %v", updated.ID, err)
	} else {
		if err := s.invoicer.Generate(ctx, updated, items); err != nil {
			log.Printf("[Order] Invoice generation failed for %s: %v", updated.ID, err)
		}
		if err := s.notifier.OrderPaid(ctx, updated, items, in.CustomerEmail); err != nil {
			log.Printf("[Order] Confirmation notification failed for %s: %v", updated.ID, err)
		}
	}

	s.trail.Record(ctx, "order", updated.ID, "paid", map[string]string{
		"gateway_payment_id": in.GatewayPaymentID,
	})
	return &VerifyResult{
		Success:     true,
		OrderID:     updated.ID,
		OrderNo:     updated.OrderNo,
		Status:      updated.Status,
		TotalAmount: updated.TotalAmount,
	}, nil
}

type CancelOrderInput struct {
	OrderID       string
	CustomerID    string
	CustomerEmail string
	Reason        string
}

type CancelResult struct {
	Success       bool          `json:"success"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// CancelOrder cancels within the 3-day window, refunding if the order was
// paid. The decision runs inside the repository's locked transaction; a
// refund-gateway failure downgrades to refund_pending for manual follow-up
// instead of failing the cancellation.
func (s *Service) CancelOrder(ctx context.Context, in CancelOrderInput) (*CancelResult, error) {
	updated, err := s.repo.Cancel(ctx, in.OrderID, func(o *CustomerOrder, paymentRef string) (*CancelOutcome, error) {
		if o.CustomerID != in.CustomerID {
			return nil, fault.NotFound("order %s not found", in.OrderID)
		}
		if !o.Cancellable() {
			return nil, fault.InvalidState("order %s is %s and cannot be cancelled", o.ID, o.Status)
		}
		if s.now().Sub(o.CreatedAt) > CancelWindow {
			return nil, fault.WindowExpired("cancellation window for order %s closed %s after creation", o.ID, CancelWindow)
		}

		out := &CancelOutcome{Reason: in.Reason}
		if o.PaymentStatus != PaymentPaid {
			out.PaymentStatus = PaymentCancelled
			return out, nil
		}

		if paymentRef == "" {
			log.Printf("[Order] No payment reference for paid order %s; flagging refund for manual follow-up", o.ID)
			out.PaymentStatus = PaymentRefundPending
			out.RefundStatus = RefundPending
			out.PaymentRow = &Payment{Amount: 0, Method: MethodRefund}
			return out, nil
		}

		amountMinor := int64(math.Round(o.TotalAmount * 100))
		refund, err := s.gateway.Refund(ctx, paymentRef, amountMinor)
		if err != nil {
			// The cancellation is the customer-facing guarantee; the refund
			// is tracked separately and never silently dropped.
			log.Printf("[Order] Refund failed for order %s (payment %s): %v", o.ID, paymentRef, err)
			out.PaymentStatus = PaymentRefundPending
			out.RefundStatus = RefundPending
			out.PaymentRow = &Payment{Amount: 0, Method: MethodRefund}
			return out, nil
		}

		out.PaymentStatus = PaymentRefunded
		out.RefundStatus = RefundCompleted
		out.PaymentRow = &Payment{Amount: -o.TotalAmount, Method: MethodRefund, Reference: refund.ID}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.OrderCancelled(ctx, updated, in.CustomerEmail); err != nil {
		log.Printf("[Order] Cancellation notification failed for %s: %v", updated.ID, err)
	}

	s.trail.Record(ctx, "order", updated.ID, "cancelled", map[string]string{
		"payment_status": string(updated.PaymentStatus),
		"reason":         in.Reason,
	})
	return &CancelResult{Success: true, PaymentStatus: updated.PaymentStatus}, nil
}

// Get returns an order with its item snapshots, enforcing ownership unless
// the caller is an administrator.
func (s *Service) Get(ctx context.Context, orderID, callerID string, admin bool) (*CustomerOrder, []CustomerOrderItem, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !admin && o.CustomerID != callerID {
		return nil, nil, fault.Forbidden("order %s does not belong to caller", orderID)
	}
	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}
