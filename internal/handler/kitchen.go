package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// KitchenHandler serves the chef dashboard: the queue of open orders.
type KitchenHandler struct {
	reg OrderRegister
}

// NewKitchenHandler creates a new KitchenHandler.
func NewKitchenHandler(reg OrderRegister) *KitchenHandler {
	return &KitchenHandler{reg: reg}
}

// RegisterRoutes registers kitchen endpoints on the given Chi router.
// Expected to be mounted at /kitchen.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/queue", h.Queue)
}

// Queue handles GET /kitchen/queue: not-yet-completed orders oldest first,
// optionally restricted to orders with lines for one ?station=.
func (h *KitchenHandler) Queue(w http.ResponseWriter, r *http.Request) {
	station := r.URL.Query().Get("station")
	if station != "" && !isValidStation(station) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid station"})
		return
	}

	orders := h.reg.OpenOrders(station)
	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}
