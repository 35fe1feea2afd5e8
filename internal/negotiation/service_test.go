package negotiation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/audit"
)

// fakeRepo is an in-memory Repository mirroring the transactional semantics
// of the Postgres implementation, with recorded calls for assertions.
type fakeRepo struct {
	asks      map[string]*Ask
	bids      map[string]*Bid
	suppliers map[string]*SupplierProfile // keyed by user id
	orders    []*SupplyOrder

	createAskErr error
	createBidErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		asks:      make(map[string]*Ask),
		bids:      make(map[string]*Bid),
		suppliers: make(map[string]*SupplierProfile),
	}
}

func (f *fakeRepo) CreateAsk(_ context.Context, ask *Ask) error {
	if f.createAskErr != nil {
		return f.createAskErr
	}
	f.asks[ask.ID] = ask
	return nil
}

func (f *fakeRepo) GetAsk(_ context.Context, id string) (*Ask, error) {
	ask, ok := f.asks[id]
	if !ok {
		return nil, fault.NotFound("ask %s not found", id)
	}
	copied := *ask
	return &copied, nil
}

func (f *fakeRepo) CloseAsk(_ context.Context, id string) error {
	ask, ok := f.asks[id]
	if !ok {
		return fault.NotFound("ask %s not found", id)
	}
	ask.Status = AskClosed
	return nil
}

func (f *fakeRepo) CreateBid(_ context.Context, bid *Bid) error {
	if f.createBidErr != nil {
		return f.createBidErr
	}
	f.bids[bid.ID] = bid
	return nil
}

func (f *fakeRepo) GetBid(_ context.Context, id string) (*Bid, error) {
	bid, ok := f.bids[id]
	if !ok {
		return nil, fault.NotFound("bid %s not found", id)
	}
	copied := *bid
	return &copied, nil
}

func (f *fakeRepo) AcceptBid(_ context.Context, bidID, storeID, orderNo string, deliverAt *time.Time) (*SupplyOrder, *SupplierProfile, error) {
	bid, ok := f.bids[bidID]
	if !ok {
		return nil, nil, fault.NotFound("bid %s not found", bidID)
	}
	ask := f.asks[bid.AskID]
	if ask.Status != AskOpen {
		return nil, nil, fault.InvalidState("ask %s is already closed", ask.ID)
	}
	if bid.Status != BidPending {
		return nil, nil, fault.InvalidState("bid %s is %s, not pending", bid.ID, bid.Status)
	}

	supplier, ok := f.suppliers[bid.SupplierID]
	if !ok {
		// Rollback: nothing mutated before this point sticks.
		return nil, nil, fault.NotFound("supplier profile for %s not found", bid.SupplierID)
	}

	for _, sibling := range f.bids {
		if sibling.AskID == bid.AskID && sibling.ID != bid.ID && sibling.Status == BidPending {
			sibling.Status = BidRejected
		}
	}
	bid.Status = BidAccepted
	ask.Status = AskClosed

	order := &SupplyOrder{
		ID:           uuid.New().String(),
		OrderNo:      orderNo,
		SupplierID:   supplier.ID,
		StoreID:      storeID,
		Status:       SupplyOrderPending,
		TotalAmount:  bid.Price * float64(bid.Quantity),
		DeliveryDate: deliverAt,
		CreatedAt:    time.Now(),
		Items: []SupplyOrderItem{{
			ID:        uuid.New().String(),
			ProductID: ask.ProductID,
			Quantity:  bid.Quantity,
			UnitCost:  bid.Price,
		}},
	}
	f.orders = append(f.orders, order)
	return order, supplier, nil
}

type fakeNotifier struct {
	placedCalls   int
	acceptedCalls int
	err           error
}

func (f *fakeNotifier) BidPlaced(context.Context, *Ask, *Bid) error {
	f.placedCalls++
	return f.err
}

func (f *fakeNotifier) BidAccepted(context.Context, *Bid, *SupplyOrder, *SupplierProfile) error {
	f.acceptedCalls++
	return f.err
}

func newTestService() (*Service, *fakeRepo, *fakeNotifier) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier, audit.Nop{})
	return svc, repo, notifier
}

func seedOpenAsk(repo *fakeRepo, productID string, qty int) *Ask {
	ask := &Ask{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  qty,
		Status:    AskOpen,
		CreatedBy: "admin-1",
		CreatedAt: time.Now(),
	}
	repo.asks[ask.ID] = ask
	return ask
}

func seedBid(repo *fakeRepo, askID, supplierID string, price float64, qty int) *Bid {
	bid := &Bid{
		ID:         uuid.New().String(),
		AskID:      askID,
		SupplierID: supplierID,
		Price:      price,
		Quantity:   qty,
		Status:     BidPending,
		CreatedAt:  time.Now(),
	}
	repo.bids[bid.ID] = bid
	return bid
}

func seedSupplier(repo *fakeRepo, userID string) *SupplierProfile {
	sp := &SupplierProfile{
		ID:          uuid.New().String(),
		UserID:      userID,
		CompanyName: userID + " Co",
		Email:       userID + "@supplier.example",
	}
	repo.suppliers[userID] = sp
	return sp
}

// ============================================
// CreateAsk Tests
// ============================================

func TestCreateAsk_Success(t *testing.T) {
	svc, repo, _ := newTestService()

	ask, err := svc.CreateAsk(context.Background(), CreateAskInput{
		ProductID: "prod-1",
		Quantity:  10,
		CreatedBy: "admin-1",
	})

	require.NoError(t, err)
	assert.Equal(t, AskOpen, ask.Status)
	assert.Equal(t, 10, ask.Quantity)
	assert.Contains(t, repo.asks, ask.ID)
}

func TestCreateAsk_MissingProduct(t *testing.T) {
	svc, _, _ := newTestService()

	ask, err := svc.CreateAsk(context.Background(), CreateAskInput{Quantity: 10})

	assert.Nil(t, ask)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	assert.Equal(t, "product_id", fault.FieldOf(err))
}

func TestCreateAsk_NonPositiveQuantity(t *testing.T) {
	svc, _, _ := newTestService()

	for _, qty := range []int{0, -3} {
		_, err := svc.CreateAsk(context.Background(), CreateAskInput{ProductID: "prod-1", Quantity: qty})
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	}
}

// ============================================
// PlaceBid Tests
// ============================================

func TestPlaceBid_Success(t *testing.T) {
	svc, repo, notifier := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)

	bid, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AskID:      ask.ID,
		SupplierID: "supplier-1",
		Price:      5,
		Quantity:   10,
	})

	require.NoError(t, err)
	assert.Equal(t, BidPending, bid.Status)
	assert.Equal(t, 1, notifier.placedCalls)
}

func TestPlaceBid_AskNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AskID: "missing", SupplierID: "supplier-1", Price: 5, Quantity: 1,
	})

	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestPlaceBid_AskClosed(t *testing.T) {
	svc, repo, _ := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)
	ask.Status = AskClosed

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AskID: ask.ID, SupplierID: "supplier-1", Price: 5, Quantity: 1,
	})

	assert.Equal(t, fault.KindInvalidState, fault.KindOf(err))
}

func TestPlaceBid_AskExpired(t *testing.T) {
	svc, repo, _ := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)
	past := time.Now().Add(-time.Hour)
	ask.ExpiresAt = &past

	_, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AskID: ask.ID, SupplierID: "supplier-1", Price: 5, Quantity: 1,
	})

	assert.Equal(t, fault.KindInvalidState, fault.KindOf(err))
}

func TestPlaceBid_NotificationFailureDoesNotFailBid(t *testing.T) {
	svc, repo, notifier := newTestService()
	notifier.err = errors.New("smtp down")
	ask := seedOpenAsk(repo, "prod-1", 10)

	bid, err := svc.PlaceBid(context.Background(), PlaceBidInput{
		AskID: ask.ID, SupplierID: "supplier-1", Price: 5, Quantity: 10,
	})

	require.NoError(t, err)
	assert.Contains(t, repo.bids, bid.ID)
}

// ============================================
// AcceptBid Tests
// ============================================

func TestAcceptBid_ExclusivePerAsk(t *testing.T) {
	// Ask for 10 units; S1 bids $5/unit, S2 bids $4/unit. Accepting S2's
	// bid rejects S1's, closes the Ask, and produces one order at $40.
	svc, repo, notifier := newTestService()
	ask := seedOpenAsk(repo, "prod-P", 10)
	bid1 := seedBid(repo, ask.ID, "supplier-1", 5, 10)
	bid2 := seedBid(repo, ask.ID, "supplier-2", 4, 10)
	seedSupplier(repo, "supplier-2")

	order, err := svc.AcceptBid(context.Background(), AcceptBidInput{
		BidID:   bid2.ID,
		StoreID: "store-1",
		Actor:   "admin-1",
	})

	require.NoError(t, err)
	assert.Equal(t, BidAccepted, repo.bids[bid2.ID].Status)
	assert.Equal(t, BidRejected, repo.bids[bid1.ID].Status)
	assert.Equal(t, AskClosed, repo.asks[ask.ID].Status)
	assert.Equal(t, SupplyOrderPending, order.Status)
	assert.Equal(t, float64(40), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "prod-P", order.Items[0].ProductID)
	assert.Equal(t, float64(4), order.Items[0].UnitCost)
	assert.Equal(t, 1, notifier.acceptedCalls)
}

func TestAcceptBid_MissingStore(t *testing.T) {
	svc, repo, _ := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)
	bid := seedBid(repo, ask.ID, "supplier-1", 5, 10)

	order, err := svc.AcceptBid(context.Background(), AcceptBidInput{BidID: bid.ID})

	assert.Nil(t, order)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	assert.Equal(t, "store_id", fault.FieldOf(err))
	assert.Equal(t, BidPending, repo.bids[bid.ID].Status)
}

func TestAcceptBid_BidNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AcceptBid(context.Background(), AcceptBidInput{
		BidID: "missing", StoreID: "store-1",
	})

	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestAcceptBid_SupplierProfileMissing_RollsBack(t *testing.T) {
	svc, repo, notifier := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)
	bid := seedBid(repo, ask.ID, "supplier-ghost", 5, 10)

	order, err := svc.AcceptBid(context.Background(), AcceptBidInput{
		BidID: bid.ID, StoreID: "store-1",
	})

	assert.Nil(t, order)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
	// Nothing committed: bid still pending, ask still open, no order.
	assert.Equal(t, BidPending, repo.bids[bid.ID].Status)
	assert.Equal(t, AskOpen, repo.asks[ask.ID].Status)
	assert.Empty(t, repo.orders)
	assert.Zero(t, notifier.acceptedCalls)
}

func TestAcceptBid_SecondAcceptanceFails(t *testing.T) {
	svc, repo, _ := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)
	bid1 := seedBid(repo, ask.ID, "supplier-1", 5, 10)
	bid2 := seedBid(repo, ask.ID, "supplier-2", 4, 10)
	seedSupplier(repo, "supplier-1")
	seedSupplier(repo, "supplier-2")

	_, err := svc.AcceptBid(context.Background(), AcceptBidInput{BidID: bid1.ID, StoreID: "store-1"})
	require.NoError(t, err)

	_, err = svc.AcceptBid(context.Background(), AcceptBidInput{BidID: bid2.ID, StoreID: "store-1"})
	assert.Equal(t, fault.KindInvalidState, fault.KindOf(err))
	assert.Len(t, repo.orders, 1)
}

func TestAcceptBid_NotificationFailureDoesNotUndoOrder(t *testing.T) {
	svc, repo, notifier := newTestService()
	notifier.err = errors.New("smtp down")
	ask := seedOpenAsk(repo, "prod-1", 10)
	bid := seedBid(repo, ask.ID, "supplier-1", 5, 10)
	seedSupplier(repo, "supplier-1")

	order, err := svc.AcceptBid(context.Background(), AcceptBidInput{BidID: bid.ID, StoreID: "store-1"})

	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Len(t, repo.orders, 1)
}

// ============================================
// CloseAsk Tests
// ============================================

func TestCloseAsk_Success(t *testing.T) {
	svc, repo, _ := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)

	require.NoError(t, svc.CloseAsk(context.Background(), ask.ID, "admin-1"))
	assert.Equal(t, AskClosed, repo.asks[ask.ID].Status)
}

func TestCloseAsk_IdempotentOnClosed(t *testing.T) {
	svc, repo, _ := newTestService()
	ask := seedOpenAsk(repo, "prod-1", 10)

	require.NoError(t, svc.CloseAsk(context.Background(), ask.ID, "admin-1"))
	require.NoError(t, svc.CloseAsk(context.Background(), ask.ID, "admin-1"))
	assert.Equal(t, AskClosed, repo.asks[ask.ID].Status)
}

func TestCloseAsk_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.CloseAsk(context.Background(), "missing", "admin-1")

	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestSupplyOrderNumber_Format(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 30, 45, 0, time.UTC)
	n1 := NewSupplyOrderNumber(now)
	n2 := NewSupplyOrderNumber(now)

	assert.Regexp(t, `^SUP-20260831123045-[0-9a-f]{6}$`, n1)
	assert.NotEqual(t, n1, n2)
}
