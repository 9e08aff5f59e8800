package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sheger-pos/api/internal/database"
	"github.com/sheger-pos/api/internal/enum"
	"github.com/sheger-pos/api/internal/middleware"
	"github.com/sheger-pos/api/internal/pos"
	"github.com/sheger-pos/api/internal/ws"
	"github.com/shopspring/decimal"
)

// SaleStore defines the database methods needed by payment handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SaleStore interface {
	CreateSale(ctx context.Context, arg database.CreateSaleParams) (database.Sale, error)
}

// PaymentHandler settles orders: VAT + tip on top of the order subtotal,
// a durable sale row, and a broadcast so dashboards converge.
type PaymentHandler struct {
	reg   OrderRegister
	sales SaleStore
	hub   EventBroadcaster
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(reg OrderRegister, sales SaleStore, hub EventBroadcaster) *PaymentHandler {
	return &PaymentHandler{reg: reg, sales: sales, hub: hub}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /orders/{id}/payment.
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Pay)
	r.Get("/quote", h.Quote)
}

// --- Request / Response types ---

type payRequest struct {
	PaymentMethod  string `json:"payment_method"`
	Tip            string `json:"tip"`
	AmountReceived string `json:"amount_received"`
}

type receiptResponse struct {
	OrderID        int64      `json:"order_id"`
	OrderNumber    string     `json:"order_number"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	Subtotal       string     `json:"subtotal"`
	VAT            string     `json:"vat"`
	GrandTotal     string     `json:"grand_total"`
	Tip            string     `json:"tip"`
	Total          string     `json:"total"`
	AmountReceived *string    `json:"amount_received,omitempty"`
	Change         *string    `json:"change,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

// --- Handlers ---

// Pay handles POST /orders/{id}/payment. Payment status flips exactly once;
// a second attempt gets 409. A paid PENDING order advances to PREPARING.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.PaymentMethod == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_method is required"})
		return
	}
	if !isValidPaymentMethod(req.PaymentMethod) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment_method"})
		return
	}

	tip := decimal.Zero
	if req.Tip != "" {
		var err error
		tip, err = decimal.NewFromString(req.Tip)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tip"})
			return
		}
	}

	received := decimal.Zero
	if req.PaymentMethod == enum.PaymentMethodCash {
		if req.AmountReceived == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount_received is required for CASH payments"})
			return
		}
		var err error
		received, err = decimal.NewFromString(req.AmountReceived)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount_received"})
			return
		}
	}

	receipt, order, err := h.reg.Pay(id, pos.PayRequest{
		Method:         req.PaymentMethod,
		Tip:            tip,
		AmountReceived: received,
	})
	if err != nil {
		switch {
		case errors.Is(err, pos.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, pos.ErrAlreadyPaid):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already paid"})
		case errors.Is(err, pos.ErrNegativeTip):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tip must be >= 0"})
		case errors.Is(err, pos.ErrInsufficientCash):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount_received must cover the total"})
		default:
			log.Printf("ERROR: pay order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	// Durable receipt row for reports. The in-memory order is already paid;
	// a write failure here loses a report row, not the payment, so log and
	// keep going rather than fail the request.
	if _, err := h.sales.CreateSale(r.Context(), database.CreateSaleParams{
		OrderNumber:   order.Number,
		Customer:      order.Customer,
		PagerNumber:   int32(order.Pager),
		Subtotal:      decimalToNumeric(receipt.Subtotal),
		VatAmount:     decimalToNumeric(receipt.VAT),
		TipAmount:     decimalToNumeric(receipt.Tip),
		TotalAmount:   decimalToNumeric(receipt.Total),
		PaymentMethod: receipt.Method,
		ProcessedBy:   claims.UserID,
	}); err != nil {
		log.Printf("ERROR: record sale for order %s: %v", order.Number, err)
	}

	orderResp := toOrderResponse(order)
	h.hub.Broadcast(ws.TopicKitchen, newEvent("order.paid", orderResp))
	h.hub.Broadcast(ws.TopicOrders, newEvent("order.paid", orderResp))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"receipt": toReceiptResponse(receipt),
		"order":   orderResp,
	})
}

// Quote handles GET /orders/{id}/payment/quote: the tax breakdown shown on
// the payment screen before the cashier confirms, with an optional ?tip=.
func (h *PaymentHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, found := h.reg.Order(id)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	tip := decimal.Zero
	if s := r.URL.Query().Get("tip"); s != "" {
		var err error
		tip, err = decimal.NewFromString(s)
		if err != nil || tip.IsNegative() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid tip"})
			return
		}
	}

	vat := order.Subtotal.Mul(pos.VATRate)
	grand := order.Subtotal.Add(vat)
	writeJSON(w, http.StatusOK, receiptResponse{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Subtotal:    order.Subtotal.StringFixed(2),
		VAT:         vat.StringFixed(2),
		GrandTotal:  grand.StringFixed(2),
		Tip:         tip.StringFixed(2),
		Total:       grand.Add(tip).StringFixed(2),
	})
}

// --- Helpers ---

func isValidPaymentMethod(method string) bool {
	switch method {
	case enum.PaymentMethodCash, enum.PaymentMethodTelebirr,
		enum.PaymentMethodCBEBirr, enum.PaymentMethodCard:
		return true
	}
	return false
}

func toReceiptResponse(rc pos.Receipt) receiptResponse {
	resp := receiptResponse{
		OrderID:       rc.OrderID,
		OrderNumber:   rc.OrderNumber,
		PaymentMethod: rc.Method,
		Subtotal:      rc.Subtotal.StringFixed(2),
		VAT:           rc.VAT.StringFixed(2),
		GrandTotal:    rc.GrandTotal.StringFixed(2),
		Tip:           rc.Tip.StringFixed(2),
		Total:         rc.Total.StringFixed(2),
	}
	if rc.Method == enum.PaymentMethodCash {
		received := rc.AmountReceived.StringFixed(2)
		resp.AmountReceived = &received
		change := rc.Change.StringFixed(2)
		resp.Change = &change
	}
	if !rc.PaidAt.IsZero() {
		paidAt := rc.PaidAt
		resp.PaidAt = &paidAt
	}
	return resp
}
