package negotiation

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/audit"
)

// Repository persists asks, bids and supply orders. AcceptBid is the one
// multi-entity transaction and must be atomic: sibling rejection, bid
// acceptance, ask closure, supplier resolution and supply-order creation all
// commit together or not at all.
type Repository interface {
	CreateAsk(ctx context.Context, ask *Ask) error
	GetAsk(ctx context.Context, id string) (*Ask, error)
	CloseAsk(ctx context.Context, id string) error
	CreateBid(ctx context.Context, bid *Bid) error
	GetBid(ctx context.Context, id string) (*Bid, error)
	AcceptBid(ctx context.Context, bidID, storeID, orderNo string, deliverAt *time.Time) (*SupplyOrder, *SupplierProfile, error)
}

// Notifier delivers best-effort notifications after commit. Failures are
// logged by the service and never affect the caller's result.
type Notifier interface {
	BidPlaced(ctx context.Context, ask *Ask, bid *Bid) error
	BidAccepted(ctx context.Context, bid *Bid, order *SupplyOrder, supplier *SupplierProfile) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	trail    audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, trail audit.Recorder) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		trail:    trail,
		now:      time.Now,
	}
}

type CreateAskInput struct {
	ProductID string
	Quantity  int
	MinPrice  *float64
	ExpiresAt *time.Time
	Note      string
	CreatedBy string
}

func (s *Service) CreateAsk(ctx context.Context, in CreateAskInput) (*Ask, error) {
	if in.ProductID == "" {
		return nil, fault.ValidationField("product_id", "product is required")
	}
	if in.Quantity <= 0 {
		return nil, fault.ValidationField("quantity", "quantity must be a positive integer")
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return nil, fault.ValidationField("min_price", "minimum price cannot be negative")
	}

	ask := &Ask{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		MinPrice:  in.MinPrice,
		ExpiresAt: in.ExpiresAt,
		Note:      in.Note,
		Status:    AskOpen,
		CreatedBy: in.CreatedBy,
		CreatedAt: s.now(),
	}

	if err := s.repo.CreateAsk(ctx, ask); err != nil {
		return nil, err
	}

	s.trail.Record(ctx, "ask", ask.ID, "created", ask)
	return ask, nil
}

type PlaceBidInput struct {
	AskID      string
	SupplierID string
	Price      float64
	Quantity   int
	Message    string
}

func (s *Service) PlaceBid(ctx context.Context, in PlaceBidInput) (*Bid, error) {
	if in.Price <= 0 {
		return nil, fault.ValidationField("price", "price must be positive")
	}
	if in.Quantity <= 0 {
		return nil, fault.ValidationField("quantity", "quantity must be a positive integer")
	}

	ask, err := s.repo.GetAsk(ctx, in.AskID)
	if err != nil {
		return nil, err
	}
	if ask.Status != AskOpen {
		return nil, fault.InvalidState("ask %s is not open for bids", ask.ID)
	}
	if ask.Expired(s.now()) {
		return nil, fault.InvalidState("ask %s has expired", ask.ID)
	}

	bid := &Bid{
		ID:         uuid.New().String(),
		AskID:      ask.ID,
		SupplierID: in.SupplierID,
		Price:      in.Price,
		Quantity:   in.Quantity,
		Message:    in.Message,
		Status:     BidPending,
		CreatedAt:  s.now(),
	}

	if err := s.repo.CreateBid(ctx, bid); err != nil {
		return nil, err
	}

	// Admin notification is best-effort; the bid exists regardless.
	if err := s.notifier.BidPlaced(ctx, ask, bid); err != nil {
		log.Printf("[Negotiation] Failed to notify admins of bid %s: %v", bid.ID, err)
	}

	s.trail.Record(ctx, "bid", bid.ID, "placed", bid)
	return bid, nil
}

type AcceptBidInput struct {
	BidID     string
	StoreID   string
	DeliverAt *time.Time
	Actor     string
}

// AcceptBid turns a pending Bid into a binding SupplyOrder. The whole
// transition is one transaction: siblings rejected, bid accepted, ask
// closed, supplier profile resolved, order + item snapshot inserted. If the
// supplier profile cannot be resolved everything rolls back.
func (s *Service) AcceptBid(ctx context.Context, in AcceptBidInput) (*SupplyOrder, error) {
	if in.StoreID == "" {
		return nil, fault.ValidationField("store_id", "a destination store is required")
	}

	bid, err := s.repo.GetBid(ctx, in.BidID)
	if err != nil {
		return nil, err
	}

	orderNo := NewSupplyOrderNumber(s.now())
	order, supplier, err := s.repo.AcceptBid(ctx, bid.ID, in.StoreID, orderNo, in.DeliverAt)
	if err != nil {
		return nil, err
	}

	// The order exists once the transaction committed; supplier notification
	// failure is logged, not propagated.
	if err := s.notifier.BidAccepted(ctx, bid, order, supplier); err != nil {
		log.Printf("[Negotiation] Failed to notify supplier %s of accepted bid %s: %v", supplier.ID, bid.ID, err)
	}

	s.trail.Record(ctx, "bid", bid.ID, "accepted", map[string]string{
		"supply_order_id": order.ID,
		"order_no":        order.OrderNo,
		"actor":           in.Actor,
	})
	return order, nil
}

// CloseAsk withdraws an Ask without creating an order. Closing an
// already-closed Ask is a no-op.
func (s *Service) CloseAsk(ctx context.Context, askID, actor string) error {
	ask, err := s.repo.GetAsk(ctx, askID)
	if err != nil {
		return err
	}
	if ask.Status == AskClosed {
		return nil
	}

	if err := s.repo.CloseAsk(ctx, askID); err != nil {
		return err
	}

	s.trail.Record(ctx, "ask", askID, "closed", map[string]string{"actor": actor})
	return nil
}
