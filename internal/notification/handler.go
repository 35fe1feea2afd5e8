package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/arnoldhere/RetailIQ-sub000/internal/email"
)

// mailer is the slice of the email service the handler needs.
type mailer interface {
	SendOrderConfirmation(to, orderNo string, total float64, items []email.OrderItem) error
	SendOrderCancelled(to, orderNo string, total float64, refunded bool) error
	SendBidPlaced(to, productName, supplierName string, price float64, quantity int) error
	SendBidAccepted(to, orderNo, productName string, price float64, quantity int, total float64) error
}

// Handler consumes the notification topic and sends the corresponding mail.
// Bid-placed events go to the purchasing inbox; everything else goes to the
// address carried in the event.
type Handler struct {
	mail       mailer
	adminInbox string
}

func NewHandler(mail mailer, adminInbox string) *Handler {
	return &Handler{mail: mail, adminInbox: adminInbox}
}

// HandleEvent processes one message from Kafka. Malformed messages are
// logged and dropped; re-delivering them would fail the same way.
func (h *Handler) HandleEvent(_ context.Context, _, value []byte) error {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil {
		log.Printf("[Notifier] Dropping malformed event: %v", err)
		return nil
	}

	switch ev.Type {
	case EventOrderPaid:
		return h.handleOrderPaid(ev)
	case EventOrderCancelled:
		return h.handleOrderCancelled(ev)
	case EventBidPlaced:
		return h.handleBidPlaced(ev)
	case EventBidAccepted:
		return h.handleBidAccepted(ev)
	default:
		return nil
	}
}

func (h *Handler) handleOrderPaid(ev Event) error {
	var e OrderPaidEvent
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		log.Printf("[Notifier] Dropping malformed %s payload: %v", ev.Type, err)
		return nil
	}
	if e.CustomerEmail == "" {
		log.Printf("[Notifier] No customer email on order %s, skipping confirmation", e.OrderID)
		return nil
	}

	if err := h.mail.SendOrderConfirmation(e.CustomerEmail, e.OrderNo, e.TotalAmount, e.Items); err != nil {
		log.Printf("[Notifier] Failed to send confirmation for %s to %s: %v", e.OrderNo, e.CustomerEmail, err)
		return err
	}
	log.Printf("[Notifier] Confirmation for %s sent to %s", e.OrderNo, e.CustomerEmail)
	return nil
}

func (h *Handler) handleOrderCancelled(ev Event) error {
	var e OrderCancelledEvent
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		log.Printf("[Notifier] Dropping malformed %s payload: %v", ev.Type, err)
		return nil
	}
	if e.CustomerEmail == "" {
		log.Printf("[Notifier] No customer email on order %s, skipping cancellation notice", e.OrderID)
		return nil
	}

	if err := h.mail.SendOrderCancelled(e.CustomerEmail, e.OrderNo, e.TotalAmount, e.Refunded); err != nil {
		log.Printf("[Notifier] Failed to send cancellation notice for %s to %s: %v", e.OrderNo, e.CustomerEmail, err)
		return err
	}
	log.Printf("[Notifier] Cancellation notice for %s sent to %s", e.OrderNo, e.CustomerEmail)
	return nil
}

func (h *Handler) handleBidPlaced(ev Event) error {
	var e BidPlacedEvent
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		log.Printf("[Notifier] Dropping malformed %s payload: %v", ev.Type, err)
		return nil
	}
	if h.adminInbox == "" {
		return nil
	}

	if err := h.mail.SendBidPlaced(h.adminInbox, e.ProductID, e.SupplierName, e.Price, e.Quantity); err != nil {
		log.Printf("[Notifier] Failed to alert purchasing about bid %s: %v", e.BidID, err)
		return err
	}
	return nil
}

func (h *Handler) handleBidAccepted(ev Event) error {
	var e BidAcceptedEvent
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		log.Printf("[Notifier] Dropping malformed %s payload: %v", ev.Type, err)
		return nil
	}
	if e.SupplierEmail == "" {
		log.Printf("[Notifier] No supplier email for purchase order %s, skipping", e.OrderNo)
		return nil
	}

	if err := h.mail.SendBidAccepted(e.SupplierEmail, e.OrderNo, e.ProductID, e.Price, e.Quantity, e.TotalAmount); err != nil {
		log.Printf("[Notifier] Failed to send purchase order %s to %s: %v", e.OrderNo, e.SupplierEmail, err)
		return err
	}
	log.Printf("[Notifier] Purchase order %s sent to %s", e.OrderNo, e.SupplierEmail)
	return nil
}
