package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sheger-pos/api/internal/handler"
)

func newMenuRouter(store *mockMenuStore) chi.Router {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	r.Route("/menu", func(r chi.Router) {
		h.RegisterReadRoutes(r)
		h.RegisterAdminRoutes(r)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGetMenuItem(t *testing.T) {
	store := newMockMenuStore()
	id := store.addItem("Tibs Special", "280.00", "GRILL", 20, true)
	r := newMenuRouter(store)

	rr := doJSON(t, r, "GET", "/menu/"+id.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Tibs Special" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["price"] != "280.00" {
		t.Errorf("price: got %v", resp["price"])
	}
	if resp["station"] != "GRILL" {
		t.Errorf("station: got %v", resp["station"])
	}
}

func TestGetMenuItem_NotFound(t *testing.T) {
	r := newMenuRouter(newMockMenuStore())

	rr := doJSON(t, r, "GET", "/menu/"+uuid.NewString(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestCreateMenuItem(t *testing.T) {
	store := newMockMenuStore()
	r := newMenuRouter(store)

	rr := doJSON(t, r, "POST", "/menu", map[string]interface{}{
		"name":         "Doro Wat",
		"category":     "Mains",
		"price":        "320.00",
		"station":      "STOVE",
		"prep_minutes": 25,
		"stock_count":  40,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["name"] != "Doro Wat" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["is_available"] != true {
		t.Errorf("is_available should default to true, got %v", resp["is_available"])
	}
}

func TestCreateMenuItem_Validation(t *testing.T) {
	r := newMenuRouter(newMockMenuStore())

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"category": "Mains", "price": "10.00"}},
		{"missing price", map[string]interface{}{"name": "Tea", "category": "Drinks"}},
		{"negative price", map[string]interface{}{"name": "Tea", "category": "Drinks", "price": "-1"}},
		{"bad station", map[string]interface{}{"name": "Tea", "category": "Drinks", "price": "10.00", "station": "BAR"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doJSON(t, r, "POST", "/menu", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestSetMenuItemAvailability(t *testing.T) {
	store := newMockMenuStore()
	id := store.addItem("Kitfo", "350.00", "STOVE", 15, true)
	r := newMenuRouter(store)

	rr := doJSON(t, r, "PATCH", "/menu/"+id.String()+"/availability", map[string]bool{
		"is_available": false,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["is_available"] != false {
		t.Errorf("is_available: got %v", resp["is_available"])
	}
}

func TestAdjustStock(t *testing.T) {
	store := newMockMenuStore()
	id := store.addItem("Sambusa (3pc)", "90.00", "GRILL", 8, true) // stock 50
	r := newMenuRouter(store)

	rr := doJSON(t, r, "PATCH", "/menu/"+id.String()+"/stock", map[string]int{"delta": -10})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["stock_count"] != float64(40) {
		t.Errorf("stock_count: got %v, want 40", resp["stock_count"])
	}
}

func TestAdjustStock_Insufficient(t *testing.T) {
	store := newMockMenuStore()
	id := store.addItem("Sambusa (3pc)", "90.00", "GRILL", 8, true)
	r := newMenuRouter(store)

	rr := doJSON(t, r, "PATCH", "/menu/"+id.String()+"/stock", map[string]int{"delta": -60})
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

func TestAdjustStock_UnknownItem(t *testing.T) {
	r := newMenuRouter(newMockMenuStore())

	rr := doJSON(t, r, "PATCH", "/menu/"+uuid.NewString()+"/stock", map[string]int{"delta": -1})
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteMenuItem(t *testing.T) {
	store := newMockMenuStore()
	id := store.addItem("Baklava", "120.00", "DESSERT", 5, true)
	r := newMenuRouter(store)

	rr := doJSON(t, r, "DELETE", "/menu/"+id.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d", rr.Code)
	}

	rr = doJSON(t, r, "GET", "/menu/"+id.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("deleted item still readable: %d", rr.Code)
	}
}
