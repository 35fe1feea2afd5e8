package negotiation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/postgres"
)

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) CreateAsk(ctx context.Context, ask *Ask) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO asks (id, product_id, quantity, min_price, expires_at, note, status, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ask.ID, ask.ProductID, ask.Quantity, ask.MinPrice, ask.ExpiresAt,
		ask.Note, ask.Status, ask.CreatedBy, ask.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ask: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetAsk(ctx context.Context, id string) (*Ask, error) {
	return scanAsk(r.db.QueryRowContext(ctx,
		`SELECT id, product_id, quantity, min_price, expires_at, note, status, created_by, created_at
		 FROM asks WHERE id = $1`, id), id)
}

func (r *postgresRepo) CloseAsk(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE asks SET status = $1 WHERE id = $2`, AskClosed, id)
	if err != nil {
		return fmt.Errorf("close ask %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fault.NotFound("ask %s not found", id)
	}
	return nil
}

func (r *postgresRepo) CreateBid(ctx context.Context, bid *Bid) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bids (id, ask_id, supplier_id, price, quantity, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		bid.ID, bid.AskID, bid.SupplierID, bid.Price, bid.Quantity,
		bid.Message, bid.Status, bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetBid(ctx context.Context, id string) (*Bid, error) {
	var b Bid
	err := r.db.QueryRowContext(ctx,
		`SELECT id, ask_id, supplier_id, price, quantity, message, status, created_at
		 FROM bids WHERE id = $1`, id,
	).Scan(&b.ID, &b.AskID, &b.SupplierID, &b.Price, &b.Quantity, &b.Message, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("bid %s not found", id)
		}
		return nil, fmt.Errorf("get bid %s: %w", id, err)
	}
	return &b, nil
}

// AcceptBid performs the acceptance transaction. The Ask row is locked with
// FOR UPDATE so concurrent acceptances of sibling bids are linearized: the
// second caller sees a closed Ask and fails without touching anything.
func (r *postgresRepo) AcceptBid(ctx context.Context, bidID, storeID, orderNo string, deliverAt *time.Time) (*SupplyOrder, *SupplierProfile, error) {
	var order *SupplyOrder
	var supplier *SupplierProfile

	err := postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var bid Bid
		err := tx.QueryRowContext(ctx,
			`SELECT id, ask_id, supplier_id, price, quantity, status FROM bids WHERE id = $1`,
			bidID,
		).Scan(&bid.ID, &bid.AskID, &bid.SupplierID, &bid.Price, &bid.Quantity, &bid.Status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fault.NotFound("bid %s not found", bidID)
			}
			return fmt.Errorf("load bid %s: %w", bidID, err)
		}

		ask, err := scanAskTx(ctx, tx, bid.AskID)
		if err != nil {
			return err
		}
		if ask.Status != AskOpen {
			return fault.InvalidState("ask %s is already closed", ask.ID)
		}
		if bid.Status != BidPending {
			return fault.InvalidState("bid %s is %s, not pending", bid.ID, bid.Status)
		}

		// Acceptance is exclusive per Ask: every sibling goes to rejected in
		// the same transaction.
		if _, err := tx.ExecContext(ctx,
			`UPDATE bids SET status = $1 WHERE ask_id = $2 AND id <> $3 AND status = $4`,
			BidRejected, ask.ID, bid.ID, BidPending,
		); err != nil {
			return fmt.Errorf("reject sibling bids: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE bids SET status = $1 WHERE id = $2`, BidAccepted, bid.ID,
		); err != nil {
			return fmt.Errorf("accept bid %s: %w", bid.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE asks SET status = $1 WHERE id = $2`, AskClosed, ask.ID,
		); err != nil {
			return fmt.Errorf("close ask %s: %w", ask.ID, err)
		}

		var sp SupplierProfile
		err = tx.QueryRowContext(ctx,
			`SELECT id, user_id, company_name, email FROM suppliers WHERE user_id = $1`,
			bid.SupplierID,
		).Scan(&sp.ID, &sp.UserID, &sp.CompanyName, &sp.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// A Bid must never be "accepted" without a resulting order;
				// returning here rolls the whole transaction back.
				return fault.NotFound("supplier profile for %s not found", bid.SupplierID)
			}
			return fmt.Errorf("resolve supplier %s: %w", bid.SupplierID, err)
		}

		now := time.Now()
		total := bid.Price * float64(bid.Quantity)
		o := &SupplyOrder{
			ID:           uuid.New().String(),
			OrderNo:      orderNo,
			SupplierID:   sp.ID,
			StoreID:      storeID,
			Status:       SupplyOrderPending,
			TotalAmount:  total,
			DeliveryDate: deliverAt,
			CreatedAt:    now,
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO supply_orders (id, order_no, supplier_id, store_id, status, total_amount, delivery_date, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, o.OrderNo, o.SupplierID, o.StoreID, o.Status, o.TotalAmount, o.DeliveryDate, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert supply order: %w", err)
		}

		item := SupplyOrderItem{
			ID:            uuid.New().String(),
			SupplyOrderID: o.ID,
			ProductID:     ask.ProductID,
			Quantity:      bid.Quantity,
			UnitCost:      bid.Price,
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO supply_order_items (id, supply_order_id, product_id, quantity, unit_cost)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, item.SupplyOrderID, item.ProductID, item.Quantity, item.UnitCost,
		); err != nil {
			return fmt.Errorf("insert supply order item: %w", err)
		}
		o.Items = []SupplyOrderItem{item}

		order = o
		supplier = &sp
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return order, supplier, nil
}

func scanAskTx(ctx context.Context, tx *sql.Tx, id string) (*Ask, error) {
	return scanAsk(tx.QueryRowContext(ctx,
		`SELECT id, product_id, quantity, min_price, expires_at, note, status, created_by, created_at
		 FROM asks WHERE id = $1 FOR UPDATE`, id), id)
}

func scanAsk(row *sql.Row, id string) (*Ask, error) {
	var a Ask
	err := row.Scan(&a.ID, &a.ProductID, &a.Quantity, &a.MinPrice, &a.ExpiresAt,
		&a.Note, &a.Status, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("ask %s not found", id)
		}
		return nil, fmt.Errorf("get ask %s: %w", id, err)
	}
	return &a, nil
}
