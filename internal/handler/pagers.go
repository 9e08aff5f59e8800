package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// PagerHandler exposes the pager pool state to the cashier dashboard.
type PagerHandler struct {
	reg OrderRegister
}

// NewPagerHandler creates a new PagerHandler.
func NewPagerHandler(reg OrderRegister) *PagerHandler {
	return &PagerHandler{reg: reg}
}

// RegisterRoutes registers pager endpoints on the given Chi router.
// Expected to be mounted at /pagers.
func (h *PagerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type pagerResponse struct {
	Number     int        `json:"number"`
	Status     string     `json:"status"`
	OrderID    *int64     `json:"order_id"`
	AssignedAt *time.Time `json:"assigned_at"`
}

type pagerListResponse struct {
	Pagers    []pagerResponse `json:"pagers"`
	Available int             `json:"available"`
}

// List handles GET /pagers: every pager in stable number order plus the
// count still available.
func (h *PagerHandler) List(w http.ResponseWriter, r *http.Request) {
	pagers := h.reg.Pagers()
	resp := pagerListResponse{
		Pagers:    make([]pagerResponse, len(pagers)),
		Available: h.reg.AvailablePagers(),
	}
	for i, p := range pagers {
		pr := pagerResponse{Number: p.Number, Status: p.Status}
		if p.OrderID != 0 {
			orderID := p.OrderID
			pr.OrderID = &orderID
		}
		if !p.AssignedAt.IsZero() {
			assignedAt := p.AssignedAt
			pr.AssignedAt = &assignedAt
		}
		resp.Pagers[i] = pr
	}
	writeJSON(w, http.StatusOK, resp)
}
