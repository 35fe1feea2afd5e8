package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInsufficient means a reserve would have driven stock_available below
// zero. Callers translate it into a fault naming the product.
var ErrInsufficient = errors.New("insufficient stock")

// Execer is satisfied by *sql.DB and *sql.Tx, so reserve/release run inside
// whatever transaction the caller holds.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Reserve atomically decrements a product's stock_available by qty. The
// guard keeps the counter from ever going observably negative; there is no
// read-modify-write anywhere.
func Reserve(ctx context.Context, ex Execer, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve %s: quantity must be positive, got %d", productID, qty)
	}

	res, err := ex.ExecContext(ctx,
		`UPDATE products SET stock_available = stock_available - $1
		 WHERE id = $2 AND stock_available >= $1`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("reserve stock for %s: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve stock for %s: %w", productID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %s", ErrInsufficient, productID)
	}
	return nil
}

// Release atomically increments a product's stock_available by qty. It is a
// pure additive reversal, so running it for an order whose stock was never
// decremented is always safe.
func Release(ctx context.Context, ex Execer, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release %s: quantity must be positive, got %d", productID, qty)
	}

	res, err := ex.ExecContext(ctx,
		`UPDATE products SET stock_available = stock_available + $1 WHERE id = $2`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("release stock for %s: %w", productID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release stock for %s: %w", productID, err)
	}
	if affected == 0 {
		return fmt.Errorf("release stock: product %s not found", productID)
	}
	return nil
}
