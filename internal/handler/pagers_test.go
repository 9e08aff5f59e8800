package handler_test

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sheger-pos/api/internal/handler"
	"github.com/sheger-pos/api/internal/pos"
)

func TestListPagers(t *testing.T) {
	reg := pos.NewRegister(pos.NewPool(3))
	submitKitchenOrder(t, reg, "Abebe", "GRILL")

	h := handler.NewPagerHandler(reg)
	r := chi.NewRouter()
	r.Route("/pagers", h.RegisterRoutes)

	rr := doJSON(t, r, "GET", "/pagers", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["available"] != float64(2) {
		t.Errorf("available: got %v, want 2", resp["available"])
	}

	pagers, ok := resp["pagers"].([]interface{})
	if !ok || len(pagers) != 3 {
		t.Fatalf("expected 3 pagers, got %v", resp["pagers"])
	}

	first := pagers[0].(map[string]interface{})
	if first["number"] != float64(1) {
		t.Errorf("number: got %v, want 1", first["number"])
	}
	if first["status"] != "ACTIVE" {
		t.Errorf("status: got %v, want ACTIVE", first["status"])
	}
	if first["order_id"] != float64(1) {
		t.Errorf("order_id: got %v, want 1", first["order_id"])
	}

	second := pagers[1].(map[string]interface{})
	if second["status"] != "AVAILABLE" {
		t.Errorf("status: got %v, want AVAILABLE", second["status"])
	}
	if second["order_id"] != nil {
		t.Errorf("free pager should have no order_id, got %v", second["order_id"])
	}
}
