package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/arnoldhere/RetailIQ-sub000/internal/api/middleware"
	"github.com/arnoldhere/RetailIQ-sub000/internal/auth"
	"github.com/arnoldhere/RetailIQ-sub000/internal/catalog"
	"github.com/arnoldhere/RetailIQ-sub000/internal/fault"
	"github.com/arnoldhere/RetailIQ-sub000/internal/negotiation"
	"github.com/arnoldhere/RetailIQ-sub000/internal/order"
)

type Handlers struct {
	negotiation *negotiation.Service
	orders      *order.Service
	products    catalog.Repository
}

func NewHandlers(neg *negotiation.Service, orders *order.Service, products catalog.Repository) *Handlers {
	return &Handlers{
		negotiation: neg,
		orders:      orders,
		products:    products,
	}
}

// Catalog Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondFault(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Negotiation Handlers

func (h *Handlers) CreateAsk(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())

	var req struct {
		ProductID string     `json:"product_id"`
		Quantity  int        `json:"quantity"`
		MinPrice  *float64   `json:"min_price,omitempty"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
		Note      string     `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ask, err := h.negotiation.CreateAsk(r.Context(), negotiation.CreateAskInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		MinPrice:  req.MinPrice,
		ExpiresAt: req.ExpiresAt,
		Note:      req.Note,
		CreatedBy: claims.UserID,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ask)
}

func (h *Handlers) PlaceBid(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	askID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/asks/"), "/bids")

	var req struct {
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		Message  string  `json:"message,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	bid, err := h.negotiation.PlaceBid(r.Context(), negotiation.PlaceBidInput{
		AskID:      askID,
		SupplierID: claims.UserID,
		Price:      req.Price,
		Quantity:   req.Quantity,
		Message:    req.Message,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, bid)
}

func (h *Handlers) AcceptBid(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	bidID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/bids/"), "/accept")

	var req struct {
		StoreID   string     `json:"store_id"`
		DeliverAt *time.Time `json:"deliver_at,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	supplyOrder, err := h.negotiation.AcceptBid(r.Context(), negotiation.AcceptBidInput{
		BidID:     bidID,
		StoreID:   req.StoreID,
		DeliverAt: req.DeliverAt,
		Actor:     claims.UserID,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, supplyOrder)
}

func (h *Handlers) CloseAsk(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	askID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/asks/"), "/close")

	if err := h.negotiation.CloseAsk(r.Context(), askID, claims.UserID); err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "ask closed"})
}

// Order Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())

	var req struct {
		Items          []order.ItemInput `json:"items"`
		TotalAmount    float64           `json:"total_amount"`
		TaxAmount      float64           `json:"tax_amount"`
		ShippingAmount float64           `json:"shipping_amount"`
		StoreID        string            `json:"store_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.orders.CreatePaymentOrder(r.Context(), order.CreateOrderInput{
		CustomerID:     claims.UserID,
		CustomerEmail:  claims.Email,
		Items:          req.Items,
		TotalAmount:    req.TotalAmount,
		TaxAmount:      req.TaxAmount,
		ShippingAmount: req.ShippingAmount,
		StoreID:        req.StoreID,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())

	var req struct {
		OrderID          string `json:"order_id"`
		GatewayOrderID   string `json:"gateway_order_id"`
		GatewayPaymentID string `json:"gateway_payment_id"`
		Signature        string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.orders.VerifyPayment(r.Context(), order.VerifyPaymentInput{
		OrderID:          req.OrderID,
		CustomerID:       claims.UserID,
		CustomerEmail:    claims.Email,
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")

	var req struct {
		Reason string `json:"reason,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	res, err := h.orders.CancelOrder(r.Context(), order.CancelOrderInput{
		OrderID:       orderID,
		CustomerID:    claims.UserID,
		CustomerEmail: claims.Email,
		Reason:        req.Reason,
	})
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	orderID := extractPathParam(r.URL.Path, "/orders/")

	o, items, err := h.orders.Get(r.Context(), orderID, claims.UserID, claims.Role == auth.RoleAdmin)
	if err != nil {
		respondFault(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"order": o,
		"items": items,
	})
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFault maps a classified error to its status code. Signature and
// gateway details stay in the server log; the caller sees a generic message.
func respondFault(w http.ResponseWriter, err error) {
	status := fault.HTTPStatus(err)
	message := err.Error()
	if !fault.Public(err) {
		log.Printf("[API] %v", err)
		switch fault.KindOf(err) {
		case fault.KindSignature:
			message = "payment verification failed"
		case fault.KindGateway:
			message = "payment gateway unavailable"
		default:
			message = "internal server error"
		}
	}

	body := map[string]string{"error": message}
	if field := fault.FieldOf(err); field != "" {
		body["field"] = field
	}
	respondJSON(w, status, body)
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}
