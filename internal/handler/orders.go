package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sheger-pos/api/internal/enum"
	"github.com/sheger-pos/api/internal/middleware"
	"github.com/sheger-pos/api/internal/pos"
	"github.com/sheger-pos/api/internal/ws"
)

// OrderRegister defines the register operations the HTTP layer needs.
// Satisfied by *pos.Register; narrow interface for testability.
type OrderRegister interface {
	Submit(req pos.SubmitRequest) (pos.Order, error)
	Pay(orderID int64, req pos.PayRequest) (pos.Receipt, pos.Order, error)
	Advance(orderID int64, next string) (pos.Order, error)
	Order(orderID int64) (pos.Order, bool)
	Orders(status string) []pos.Order
	OpenOrders(station string) []pos.Order
	Pagers() []pos.Pager
	AvailablePagers() int
	Reset()
}

// EventBroadcaster pushes order lifecycle events to connected dashboards.
// Satisfied by *ws.Hub.
type EventBroadcaster interface {
	Broadcast(topic string, event ws.Event)
}

// OrderHandler handles the cashier order lifecycle endpoints.
type OrderHandler struct {
	reg  OrderRegister
	menu MenuStore
	hub  EventBroadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(reg OrderRegister, menu MenuStore, hub EventBroadcaster) *OrderHandler {
	return &OrderHandler{reg: reg, menu: menu, hub: hub}
}

// RegisterRoutes registers the cashier order endpoints on the given Chi
// router. Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterStatusRoutes registers the status transition endpoint separately:
// chefs advance orders too, so it carries a wider role set than the rest.
func (h *OrderHandler) RegisterStatusRoutes(r chi.Router) {
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID      string                   `json:"table_id"`
	CustomerName string                   `json:"customer_name"`
	Lines        []createOrderLineRequest `json:"lines"`
}

type createOrderLineRequest struct {
	MenuItemID   string `json:"menu_item_id"`
	Quantity     int32  `json:"quantity"`
	Instructions string `json:"instructions"`
}

type orderLineResponse struct {
	Name         string  `json:"name"`
	Quantity     int32   `json:"quantity"`
	UnitPrice    string  `json:"unit_price"`
	Station      *string `json:"station"`
	PrepMinutes  int32   `json:"prep_minutes"`
	Instructions *string `json:"instructions"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	Number        string              `json:"number"`
	TableID       *string             `json:"table_id"`
	Customer      string              `json:"customer"`
	Pager         int                 `json:"pager"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	Subtotal      string              `json:"subtotal"`
	PaymentMethod *string             `json:"payment_method"`
	VATAmount     *string             `json:"vat_amount"`
	TipAmount     *string             `json:"tip_amount"`
	Total         *string             `json:"total"`
	ReadyBy       time.Time           `json:"ready_by"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	PaidAt        *time.Time          `json:"paid_at"`
	CompletedAt   *time.Time          `json:"completed_at"`
	Lines         []orderLineResponse `json:"lines"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /orders: the cashier submits the cart. Each line is
// priced against the live menu here; the register stores the snapshot so
// later menu edits cannot change a placed order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cart is empty"})
		return
	}
	if req.CustomerName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_name is required"})
		return
	}

	lines := make([]pos.Line, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError(i, "quantity must be > 0"),
			})
			return
		}
		itemID, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": formatLineError(i, "invalid menu_item_id"),
			})
			return
		}
		item, err := h.menu.GetMenuItem(r.Context(), itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": formatLineError(i, "menu item not found"),
				})
				return
			}
			log.Printf("ERROR: get menu item for order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if !item.IsAvailable {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": formatLineError(i, item.Name+" is not available"),
			})
			return
		}
		lines[i] = pos.Line{
			Name:         item.Name,
			Quantity:     line.Quantity,
			UnitPrice:    numericToDecimal(item.Price),
			Station:      item.Station.String,
			PrepMinutes:  item.PrepMinutes,
			Instructions: line.Instructions,
		}
	}

	order, err := h.reg.Submit(pos.SubmitRequest{
		TableID:  req.TableID,
		Customer: req.CustomerName,
		Lines:    lines,
	})
	if err != nil {
		if errors.Is(err, pos.ErrPoolExhausted) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no pager available"})
			return
		}
		if errors.Is(err, pos.ErrEmptyCart) || errors.Is(err, pos.ErrCustomerName) ||
			errors.Is(err, pos.ErrInvalidQuantity) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: submit order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(order)
	h.hub.Broadcast(ws.TopicKitchen, newEvent("order.created", resp))
	h.hub.Broadcast(ws.TopicOrders, newEvent("order.created", resp))
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders with an optional ?status= filter, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !isValidOrderStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
		return
	}

	orders := h.reg.Orders(status)
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, found := h.reg.Order(id)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateStatus handles PATCH /orders/{id}/status. Transitions are monotonic;
// moving to COMPLETED returns the order's pager to the pool.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.reg.Advance(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, pos.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, pos.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, pos.ErrBadTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := toOrderResponse(order)
	h.hub.Broadcast(ws.TopicKitchen, newEvent("order.status_changed", resp))
	h.hub.Broadcast(ws.TopicOrders, newEvent("order.status_changed", resp))
	writeJSON(w, http.StatusOK, resp)
}

// ResetSession handles DELETE /session: clears the whole ledger and returns
// every pager to the pool. Admin only; mirrors the dashboard's session reset.
func (h *OrderHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	h.reg.Reset()
	h.hub.Broadcast(ws.TopicKitchen, newEvent("session.reset", nil))
	h.hub.Broadcast(ws.TopicOrders, newEvent("session.reset", nil))
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return 0, false
	}
	return id, true
}

func formatLineError(idx int, msg string) string {
	return "lines[" + strconv.Itoa(idx) + "]: " + msg
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusPreparing,
		enum.OrderStatusReady, enum.OrderStatusCompleted:
		return true
	}
	return false
}

func newEvent(eventType string, payload any) ws.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal %s event: %v", eventType, err)
	}
	return ws.Event{Type: eventType, Payload: data}
}

func toOrderResponse(o pos.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Number:        o.Number,
		Customer:      o.Customer,
		Pager:         o.Pager,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Subtotal:      o.Subtotal.StringFixed(2),
		ReadyBy:       o.ReadyBy,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.TableID != "" {
		resp.TableID = &o.TableID
	}
	if o.PaymentStatus == enum.PaymentStatusPaid {
		resp.PaymentMethod = &o.PaymentMethod
		vat := o.VATAmount.StringFixed(2)
		resp.VATAmount = &vat
		tip := o.TipAmount.StringFixed(2)
		resp.TipAmount = &tip
		total := o.Total.StringFixed(2)
		resp.Total = &total
		paidAt := o.PaidAt
		resp.PaidAt = &paidAt
	}
	if !o.CompletedAt.IsZero() {
		completedAt := o.CompletedAt
		resp.CompletedAt = &completedAt
	}

	resp.Lines = make([]orderLineResponse, len(o.Lines))
	for i, line := range o.Lines {
		lr := orderLineResponse{
			Name:        line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			PrepMinutes: line.PrepMinutes,
		}
		if line.Station != "" {
			station := line.Station
			lr.Station = &station
		}
		if line.Instructions != "" {
			instructions := line.Instructions
			lr.Instructions = &instructions
		}
		resp.Lines[i] = lr
	}
	return resp
}
