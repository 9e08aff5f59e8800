//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/sheger-pos/api/internal/config"
	"github.com/sheger-pos/api/internal/database"
	"github.com/sheger-pos/api/internal/pos"
	"github.com/sheger-pos/api/internal/router"
	"github.com/sheger-pos/api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow exercises the full cashier lifecycle against a real
// PostgreSQL database: admin bootstrap, menu setup, order submission, payment
// with VAT, kitchen progression and the daily sales report.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	// Run migrations
	runMigrations(t, connStr)

	// Create pgxpool connection
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	// Initialize dependencies
	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
		PagerCount:  20,
	}
	queries := database.New(pool)
	reg := pos.NewRegister(pos.NewPool(cfg.PagerCount))
	hub := ws.NewHub()
	// NOTE: hub.Run() goroutine leaks on test exit — Hub has no shutdown mechanism.
	// Acceptable for tests; production should add context-based shutdown.
	go hub.Run()

	// Build router
	r := router.New(cfg, queries, reg, hub)

	// Create HTTP test server
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Create admin user (manual DB insert to bootstrap) ---
	adminID := createAdminUser(t, ctx, pool)

	// --- 2. Login as admin ---
	token := integrationLogin(t, server, "admin@test.com", "password123")

	// --- 3. Create a cashier through the API, then a menu item ---
	cashierResp := apiPost(t, server, "/users", token, map[string]string{
		"full_name": "Test Cashier",
		"email":     "cashier@test.com",
		"password":  "password123",
		"pin":       "1234",
		"role":      "CASHIER",
	}, http.StatusCreated)
	cashierID := uuid.MustParse(cashierResp["id"].(string))

	itemResp := apiPost(t, server, "/menu", token, map[string]interface{}{
		"name":         "Tibs Special",
		"category":     "Mains",
		"price":        "280.00",
		"station":      "GRILL",
		"prep_minutes": 20,
		"stock_count":  50,
	}, http.StatusCreated)
	itemID := itemResp["id"].(string)

	// --- 4. Cashier logs in by PIN and submits an order ---
	cashierToken := integrationPinLogin(t, server, "1234")

	orderResp := apiPost(t, server, "/orders", cashierToken, map[string]interface{}{
		"customer_name": "Abebe",
		"table_id":      "T4",
		"lines": []map[string]interface{}{
			{"menu_item_id": itemID, "quantity": 2},
		},
	}, http.StatusCreated)
	if orderResp["number"].(string) != "SHG-001" {
		t.Fatalf("order number: got %v, want SHG-001", orderResp["number"])
	}
	if orderResp["subtotal"].(string) != "560.00" {
		t.Fatalf("order subtotal: got %v, want 560.00", orderResp["subtotal"])
	}
	orderID := int64(orderResp["id"].(float64))

	// --- 5. Pay with cash: 560 + 15% VAT = 644, +20 tip = 664 ---
	payResp := apiPost(t, server, fmt.Sprintf("/orders/%d/payment", orderID), cashierToken, map[string]string{
		"payment_method":  "CASH",
		"tip":             "20",
		"amount_received": "700",
	}, http.StatusCreated)
	receipt := payResp["receipt"].(map[string]interface{})
	if receipt["total"].(string) != "664.00" {
		t.Fatalf("receipt total: got %v, want 664.00", receipt["total"])
	}
	if receipt["change"].(string) != "36.00" {
		t.Fatalf("receipt change: got %v, want 36.00", receipt["change"])
	}

	// --- 6. Kitchen advances the order to completion ---
	for _, status := range []string{"READY", "COMPLETED"} {
		apiPatch(t, server, fmt.Sprintf("/orders/%d/status", orderID), cashierToken,
			map[string]string{"status": status}, http.StatusOK)
	}

	// --- 7. The pager is back in the pool ---
	pagerResp := apiGet(t, server, "/pagers", cashierToken, http.StatusOK)
	if pagerResp["available"].(float64) != 20 {
		t.Fatalf("available pagers: got %v, want 20", pagerResp["available"])
	}

	// --- 8. The sale row feeds the daily report ---
	today := time.Now().UTC().Format("2006-01-02")
	report := apiGet(t, server, "/reports/daily-sales?date="+today, token, http.StatusOK)
	if report["sale_count"].(float64) != 1 {
		t.Fatalf("sale_count: got %v, want 1", report["sale_count"])
	}
	if report["total_revenue"].(string) != "664.00" {
		t.Fatalf("total_revenue: got %v, want 664.00", report["total_revenue"])
	}

	t.Logf("Integration test passed: container=%s, admin=%s, cashier=%s, order=%d",
		pgContainer.GetContainerID(), adminID, cashierID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// Connect with stdlib for migrate
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Path relative to this test file's package directory (internal/handler/).
	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createAdminUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (full_name, email, hashed_password, role, is_active)
		 VALUES ($1, $2, $3, 'ADMIN', true)
		 RETURNING id`,
		"Test Admin", "admin@test.com", string(hashed),
	).Scan(&id)
	if err != nil {
		t.Fatalf("create admin user: %v", err)
	}
	return id
}

// --- Request helpers ---

func integrationLogin(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := apiPost(t, server, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK)
	return resp["access_token"].(string)
}

func integrationPinLogin(t *testing.T, server *httptest.Server, pin string) string {
	t.Helper()
	resp := apiPost(t, server, "/auth/pin-login", "", map[string]string{
		"pin": pin,
	}, http.StatusOK)
	return resp["access_token"].(string)
}

func apiDo(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s %s response: %v", method, path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: got %d, want %d; body: %v", method, path, resp.StatusCode, wantStatus, decoded)
	}
	return decoded
}

func apiPost(t *testing.T, server *httptest.Server, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	return apiDo(t, server, "POST", path, token, body, wantStatus)
}

func apiPatch(t *testing.T, server *httptest.Server, path, token string, body interface{}, wantStatus int) map[string]interface{} {
	return apiDo(t, server, "PATCH", path, token, body, wantStatus)
}

func apiGet(t *testing.T, server *httptest.Server, path, token string, wantStatus int) map[string]interface{} {
	return apiDo(t, server, "GET", path, token, nil, wantStatus)
}
