package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/postgres"
	"github.com/arnoldhere/RetailIQ-sub000/internal/stock"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, o *CustomerOrder, items []CustomerOrderItem) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, order_no, customer_id, store_id, status, payment_status,
			                     total_amount, tax_amount, shipping_amount, gateway_order_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			o.ID, o.OrderNo, o.CustomerID, o.StoreID, o.Status, o.PaymentStatus,
			o.TotalAmount, o.TaxAmount, o.ShippingAmount, o.GatewayOrderID, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for _, item := range items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
			); err != nil {
				return fmt.Errorf("insert order item for %s: %w", item.ProductID, err)
			}
		}
		return nil
	})
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*CustomerOrder, error) {
	return scanOrder(r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id), id)
}

func (r *postgresRepo) GetItems(ctx context.Context, orderID string) ([]CustomerOrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []CustomerOrderItem
	for rows.Next() {
		var it CustomerOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan item of %s: %w", orderID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FindActiveStore resolves the store an order is fulfilled from. The
// preferred store wins if it exists and is active; otherwise any active
// store serves as fallback.
func (r *postgresRepo) FindActiveStore(ctx context.Context, preferredID string) (string, error) {
	if preferredID != "" {
		var id string
		err := r.db.QueryRowContext(ctx,
			`SELECT id FROM stores WHERE id = $1 AND active`, preferredID,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("look up store %s: %w", preferredID, err)
		}
	}

	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM stores WHERE active ORDER BY created_at LIMIT 1`,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fault.ValidationField("store_id", "no active store available for fulfilment")
		}
		return "", fmt.Errorf("find active store: %w", err)
	}
	return id, nil
}

// MarkPaymentFailed only fires while the payment is still pending. Without
// the status guard a replayed verification with a forged signature could
// flip an already paid order to failed, stranding its payment row and the
// decremented stock.
func (r *postgresRepo) MarkPaymentFailed(ctx context.Context, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_status = $1, status = $2
		 WHERE id = $3 AND payment_status = $4`,
		PaymentFailed, StatusCancelled, orderID, PaymentPending,
	)
	if err != nil {
		return fmt.Errorf("mark order %s payment-failed: %w", orderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		o, err := r.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		return fault.InvalidState("order %s payment is %s, not pending", orderID, o.PaymentStatus)
	}
	return nil
}

// ConfirmPayment locks the order row for the whole transaction so that a
// concurrent cancellation serializes against it. Stock is decremented here,
// not at order creation, and only once: a re-verify of an already paid
// order fails on the status check.
func (r *postgresRepo) ConfirmPayment(ctx context.Context, orderID, gatewayPaymentID string) (*CustomerOrder, error) {
	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE id = $1 FOR UPDATE`, orderID), orderID)
		if err != nil {
			return err
		}
		if o.Status == StatusCancelled {
			return fault.InvalidState("order %s was cancelled before payment completed", o.ID)
		}
		if o.PaymentStatus != PaymentPending {
			return fault.InvalidState("order %s payment is %s, not pending", o.ID, o.PaymentStatus)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET payment_status = $1, status = $2 WHERE id = $3`,
			PaymentPaid, StatusProcessing, o.ID,
		); err != nil {
			return fmt.Errorf("mark order %s paid: %w", o.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, order_id, amount, method, reference, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(), o.ID, o.TotalAmount, MethodGateway, gatewayPaymentID, time.Now(),
		); err != nil {
			return fmt.Errorf("insert payment for %s: %w", o.ID, err)
		}

		items, err := itemsTx(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := stock.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, stock.ErrInsufficient) {
					available := stockAvailable(ctx, tx, item.ProductID)
					return fault.InsufficientStock(item.ProductName, item.Quantity, available)
				}
				return err
			}
		}

		// The cart served its purpose once the purchase is paid for.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE customer_id = $1`, o.CustomerID,
		); err != nil {
			return fmt.Errorf("clear cart of %s: %w", o.CustomerID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

// Cancel locks the order row, captures the positive payment reference and
// delegates the business decision to decide. The outcome (payment row,
// statuses) and the restock of every item are applied in the same
// transaction, so an interleaved ConfirmPayment can never observe a half
// cancelled order.
func (r *postgresRepo) Cancel(ctx context.Context, orderID string, decide func(o *CustomerOrder, paymentRef string) (*CancelOutcome, error)) (*CustomerOrder, error) {
	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE id = $1 FOR UPDATE`, orderID), orderID)
		if err != nil {
			return err
		}

		var paymentRef string
		err = tx.QueryRowContext(ctx,
			`SELECT reference FROM payments
			 WHERE order_id = $1 AND amount > 0
			 ORDER BY created_at DESC LIMIT 1`, o.ID,
		).Scan(&paymentRef)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load payment reference for %s: %w", o.ID, err)
		}

		outcome, err := decide(o, paymentRef)
		if err != nil {
			return err
		}

		if row := outcome.PaymentRow; row != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO payments (id, order_id, amount, method, reference, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.New().String(), o.ID, row.Amount, row.Method, row.Reference, time.Now(),
			); err != nil {
				return fmt.Errorf("insert refund payment for %s: %w", o.ID, err)
			}
		}

		items, err := itemsTx(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := stock.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, payment_status = $2, refund_status = $3,
			                   cancel_reason = $4, cancelled_at = $5
			 WHERE id = $6`,
			StatusCancelled, outcome.PaymentStatus, outcome.RefundStatus,
			outcome.Reason, time.Now(), o.ID,
		); err != nil {
			return fmt.Errorf("cancel order %s: %w", o.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

const selectOrder = `SELECT id, order_no, customer_id, store_id, status, payment_status, refund_status,
       total_amount, tax_amount, shipping_amount, gateway_order_id, cancel_reason, created_at, cancelled_at
  FROM orders`

func scanOrder(row *sql.Row, id string) (*CustomerOrder, error) {
	var o CustomerOrder
	var refund sql.NullString
	var gatewayOrderID, reason sql.NullString
	var cancelledAt sql.NullTime
	err := row.Scan(&o.ID, &o.OrderNo, &o.CustomerID, &o.StoreID, &o.Status, &o.PaymentStatus, &refund,
		&o.TotalAmount, &o.TaxAmount, &o.ShippingAmount, &gatewayOrderID, &reason, &o.CreatedAt, &cancelledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("order %s not found", id)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	o.RefundStatus = RefundStatus(refund.String)
	o.GatewayOrderID = gatewayOrderID.String
	o.CancelReason = reason.String
	if cancelledAt.Valid {
		t := cancelledAt.Time
		o.CancelledAt = &t
	}
	return &o, nil
}

func itemsTx(ctx context.Context, tx *sql.Tx, orderID string) ([]CustomerOrderItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", orderID, err)
	}
	defer rows.Close()

	var items []CustomerOrderItem
	for rows.Next() {
		var it CustomerOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan item of %s: %w", orderID, err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func stockAvailable(ctx context.Context, tx *sql.Tx, productID string) int {
	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT stock_available FROM products WHERE id = $1`, productID,
	).Scan(&n); err != nil {
		return 0
	}
	return n
}
