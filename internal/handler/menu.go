package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sheger-pos/api/internal/database"
	"github.com/sheger-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.MenuItem, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	SetMenuItemAvailability(ctx context.Context, arg database.SetMenuItemAvailabilityParams) (database.MenuItem, error)
	AdjustMenuItemStock(ctx context.Context, arg database.AdjustMenuItemStockParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuHandler handles menu and inventory endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterReadRoutes registers the read endpoints every dashboard uses.
func (h *MenuHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterAdminRoutes registers the write endpoints (menu management and
// inventory adjustments, admin dashboard only).
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/availability", h.SetAvailability)
	r.Patch("/{id}/stock", h.AdjustStock)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Station     string `json:"station"`
	PrepMinutes int32  `json:"prep_minutes"`
	IsAvailable *bool  `json:"is_available"`
	StockCount  int32  `json:"stock_count"`
}

type setAvailabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

type adjustStockRequest struct {
	Delta int32 `json:"delta"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       string    `json:"price"`
	Station     *string   `json:"station"`
	PrepMinutes int32     `json:"prep_minutes"`
	IsAvailable bool      `json:"is_available"`
	StockCount  int32     `json:"stock_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toMenuItemResponse(m database.MenuItem) menuItemResponse {
	resp := menuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Price:       numericToString(m.Price),
		PrepMinutes: m.PrepMinutes,
		IsAvailable: m.IsAvailable,
		StockCount:  m.StockCount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Station.Valid {
		resp.Station = &m.Station.String
	}
	return resp
}

// --- Handlers ---

// List handles GET /menu. Supports the catalog filter the cashier dashboard
// uses: ?category=, ?q= (name search) and ?available=true.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListMenuItemsParams{}
	if s := r.URL.Query().Get("category"); s != "" {
		params.Category = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("q"); s != "" {
		params.Search = pgtype.Text{String: s, Valid: true}
	}
	if s := r.URL.Query().Get("available"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid available filter"})
			return
		}
		params.OnlyAvailable = v
	}

	items, err := h.store.ListMenuItems(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItemResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /menu/{id}.
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	item, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Create handles POST /menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := menuItemParams(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	if req.IsAvailable != nil {
		params.IsAvailable = *req.IsAvailable
	} else {
		params.IsAvailable = true
	}
	params.StockCount = req.StockCount

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /menu/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := menuItemParams(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Name:        params.Name,
		Category:    params.Category,
		Price:       params.Price,
		Station:     params.Station,
		PrepMinutes: params.PrepMinutes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /menu/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	if _, err := h.store.DeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetAvailability handles PATCH /menu/{id}/availability.
func (h *MenuHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.SetMenuItemAvailability(r.Context(), database.SetMenuItemAvailabilityParams{
		ID:          id,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: set menu item availability: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// AdjustStock handles PATCH /menu/{id}/stock with a signed delta.
func (h *MenuHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item ID"})
		return
	}

	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be non-zero"})
		return
	}

	item, err := h.store.AdjustMenuItemStock(r.Context(), database.AdjustMenuItemStockParams{
		ID:    id,
		Delta: req.Delta,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the item doesn't exist or the delta would drive the
			// stock count negative. Distinguish for a usable error message.
			if _, getErr := h.store.GetMenuItem(r.Context(), id); getErr == nil {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "insufficient stock"})
				return
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: adjust menu item stock: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// --- Helpers ---

// menuItemParams validates the shared create/update fields. Returns a
// non-empty message on validation failure.
func menuItemParams(req menuItemRequest) (database.CreateMenuItemParams, string) {
	var params database.CreateMenuItemParams

	if req.Name == "" {
		return params, "name is required"
	}
	if req.Category == "" {
		return params, "category is required"
	}
	if req.Price == "" {
		return params, "price is required"
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return params, "invalid price"
	}
	if req.PrepMinutes < 0 {
		return params, "prep_minutes must be >= 0"
	}
	if req.Station != "" && !isValidStation(req.Station) {
		return params, "invalid station"
	}

	params.Name = req.Name
	params.Category = req.Category
	params.Price = decimalToNumeric(price)
	params.PrepMinutes = req.PrepMinutes
	if req.Station != "" {
		params.Station = pgtype.Text{String: req.Station, Valid: true}
	}
	return params, ""
}

func isValidStation(station string) bool {
	switch station {
	case enum.StationGrill, enum.StationStove,
		enum.StationBeverage, enum.StationDessert:
		return true
	}
	return false
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
