package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sheger-pos/api/internal/database"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetDailySales(ctx context.Context, day time.Time) (database.GetDailySalesRow, error)
	GetPaymentSummary(ctx context.Context, day time.Time) ([]database.GetPaymentSummaryRow, error)
}

// ReportsHandler handles the admin sales report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/daily-sales", h.DailySales)
	r.Get("/payment-summary", h.PaymentSummary)
}

// --- Response types ---

type dailySalesResponse struct {
	Date         string `json:"date"`
	SaleCount    int64  `json:"sale_count"`
	Subtotal     string `json:"subtotal"`
	VATCollected string `json:"vat_collected"`
	Tips         string `json:"tips"`
	TotalRevenue string `json:"total_revenue"`
}

type paymentSummaryResponse struct {
	PaymentMethod string `json:"payment_method"`
	SaleCount     int64  `json:"sale_count"`
	TotalAmount   string `json:"total_amount"`
}

// --- Handlers ---

// DailySales handles GET /reports/daily-sales?date=YYYY-MM-DD (default today).
func (h *ReportsHandler) DailySales(w http.ResponseWriter, r *http.Request) {
	day, ok := parseReportDate(w, r)
	if !ok {
		return
	}

	row, err := h.store.GetDailySales(r.Context(), day)
	if err != nil {
		log.Printf("ERROR: daily sales report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, dailySalesResponse{
		Date:         day.Format("2006-01-02"),
		SaleCount:    row.SaleCount,
		Subtotal:     numericToString(row.Subtotal),
		VATCollected: numericToString(row.VatAmount),
		Tips:         numericToString(row.TipAmount),
		TotalRevenue: numericToString(row.TotalRevenue),
	})
}

// PaymentSummary handles GET /reports/payment-summary?date=YYYY-MM-DD.
func (h *ReportsHandler) PaymentSummary(w http.ResponseWriter, r *http.Request) {
	day, ok := parseReportDate(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetPaymentSummary(r.Context(), day)
	if err != nil {
		log.Printf("ERROR: payment summary report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]paymentSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = paymentSummaryResponse{
			PaymentMethod: row.PaymentMethod,
			SaleCount:     row.SaleCount,
			TotalAmount:   numericToString(row.TotalAmount),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func parseReportDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	s := r.URL.Query().Get("date")
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return day, true
}
