package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", formatAmount(0))
	assert.Equal(t, "999.00", formatAmount(999))
	assert.Equal(t, "1,000.50", formatAmount(1000.5))
	assert.Equal(t, "1,234,567.89", formatAmount(1234567.89))
	assert.Equal(t, "-2,500.00", formatAmount(-2500))
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	body := BuildOrderConfirmationBody("ORD-20260314092653-abc123", 1250.50, []OrderItem{
		{ProductID: "p1", Name: "Steel Bottle", Quantity: 2, UnitPrice: 250},
		{ProductID: "p2", Quantity: 1, UnitPrice: 750.50},
	})

	assert.Contains(t, body, "ORD-20260314092653-abc123")
	assert.Contains(t, body, "Steel Bottle")
	// Nameless items fall back to the product id.
	assert.Contains(t, body, "p2")
	assert.Contains(t, body, "₹1,250.50")
}

func TestBuildOrderCancelledBody(t *testing.T) {
	refunded := BuildOrderCancelledBody("ORD-1", 500, true)
	assert.Contains(t, refunded, "refund of ₹500.00")

	unpaid := BuildOrderCancelledBody("ORD-1", 500, false)
	assert.Contains(t, unpaid, "nothing to refund")
}

func TestBuildBidBodies(t *testing.T) {
	placed := BuildBidPlacedBody("Steel Bottle", "Acme Supplies", 4, 10)
	assert.Contains(t, placed, "Acme Supplies")
	assert.Contains(t, placed, "₹40.00 total")

	accepted := BuildBidAcceptedBody("SUP-20260314092653-abc123", "Steel Bottle", 4, 10, 40)
	assert.Contains(t, accepted, "SUP-20260314092653-abc123")
	assert.Contains(t, accepted, "10 units at ₹4.00")
}
