package payment

import "context"

// GatewayOrder is the handle returned by the processor when a payment order
// is opened. The customer completes payment against it out-of-band.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
}

// Refund is the processor's acknowledgement of a refund request.
type Refund struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Gateway is the narrow contract this engine consumes from the payment
// processor. It is deliberately three calls wide so tests can fake it and
// the processor's own ledger stays out of scope. VerifySignature is pure
// local computation and never touches the network.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string) (*GatewayOrder, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64) (*Refund, error)
}
