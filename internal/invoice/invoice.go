package invoice

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldhere/RetailIQ-sub000/internal/order"
)

// Invoice is issued once per paid order.
type Invoice struct {
	ID        string    `json:"id"`
	InvoiceNo string    `json:"invoice_no"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NewInvoiceNumber builds a unique invoice number in the same shape as order
// numbers so back-office tooling can sort both chronologically.
func NewInvoiceNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102150405"), uuid.New().String()[:6])
}

// Generator persists invoices for paid orders. It implements order.Invoicer;
// the caller treats failures as best-effort, so Generate only reports them.
type Generator struct {
	db *sql.DB
}

func NewGenerator(db *sql.DB) *Generator {
	return &Generator{db: db}
}

func (g *Generator) Generate(ctx context.Context, o *order.CustomerOrder, items []order.CustomerOrderItem) error {
	now := time.Now()
	inv := Invoice{
		ID:        uuid.New().String(),
		InvoiceNo: NewInvoiceNumber(now),
		OrderID:   o.ID,
		Amount:    o.TotalAmount,
		IssuedAt:  now,
	}

	_, err := g.db.ExecContext(ctx,
		`INSERT INTO invoices (id, invoice_no, order_id, amount, issued_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		inv.ID, inv.InvoiceNo, inv.OrderID, inv.Amount, inv.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice for order %s: %w", o.ID, err)
	}

	log.Printf("[Invoice] Issued %s for order %s (%.2f)", inv.InvoiceNo, o.OrderNo, inv.Amount)
	return nil
}

// ForOrder returns the invoice issued for an order, if any.
func (g *Generator) ForOrder(ctx context.Context, orderID string) (*Invoice, error) {
	var inv Invoice
	err := g.db.QueryRowContext(ctx,
		`SELECT id, invoice_no, order_id, amount, issued_at FROM invoices WHERE order_id = $1`,
		orderID,
	).Scan(&inv.ID, &inv.InvoiceNo, &inv.OrderID, &inv.Amount, &inv.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("get invoice for order %s: %w", orderID, err)
	}
	return &inv, nil
}
