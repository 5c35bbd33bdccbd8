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
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/middleware"
	"github.com/ovenline/production-api/internal/router"
	"github.com/ovenline/production-api/internal/service"
	"github.com/ovenline/production-api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const integrationWebhookToken = "integration-webhook-token"

// TestIntegrationFlow runs an order from intake to delivery against a real
// PostgreSQL database with every handler wired through the router.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		JWTSecret:    "integration-test-secret",
		WebhookToken: integrationWebhookToken,
		Production:   config.DefaultProduction(),
	}
	hub := ws.NewHub(zap.NewNop())
	// hub.Run has no shutdown; the goroutine ends with the test binary.
	go hub.Run()

	r := router.New(cfg, router.Infra{
		Pool:    pool,
		Queries: database.New(pool),
		Hub:     hub,
		Logger:  zap.NewNop(),
	})
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Staff, catalog and a merchant (direct inserts to bootstrap) ---
	createUser(t, ctx, pool, "admin@test.com", "admin", "management")
	createUser(t, ctx, pool, "baker@test.com", "baker", "kitchen")
	createUser(t, ctx, pool, "qc@test.com", "quality_control", "quality_control")
	createUser(t, ctx, pool, "packer@test.com", "packer", "packaging")

	flourID := createInventoryItem(t, ctx, pool, "Bread flour", "10.000")
	croissantID := createRecipe(t, ctx, pool, "Butter Croissant", "croissant butter", "1.00", flourID, "0.100")
	merchantID := createMerchant(t, ctx, pool, "Corner Cafe", "+15550100", "1000.00")

	adminToken := login(t, server, "admin@test.com", "password123")

	orderBody := func(qty int) map[string]interface{} {
		return map[string]interface{}{
			"merchant_id": merchantID.String(),
			"items":       []map[string]interface{}{{"recipe_id": croissantID.String(), "quantity": qty}},
		}
	}

	// --- 2. No workflow configured: the order must leave nothing behind ---
	status, body := httpJSON(t, server, "POST", "/orders", orderBody(8), adminToken)
	if status != http.StatusUnprocessableEntity || body["code"] != "no_workflow" {
		t.Fatalf("order without workflow: status %d, body %v", status, body)
	}
	assertCount(t, ctx, pool, "orders", 0)
	assertCount(t, ctx, pool, "order_items", 0)

	createStandardWorkflow(t, ctx, pool)

	// --- 3. Not enough flour for 200 croissants ---
	status, body = httpJSON(t, server, "POST", "/orders", orderBody(200), adminToken)
	if status != http.StatusUnprocessableEntity || body["code"] != "insufficient_inventory" {
		t.Fatalf("oversized order: status %d, body %v", status, body)
	}
	assertCount(t, ctx, pool, "orders", 0)

	// --- 4. A real order: default price is cost x 2, no discount under 10 ---
	status, body = httpJSON(t, server, "POST", "/orders", orderBody(8), adminToken)
	if status != http.StatusCreated {
		t.Fatalf("create order: status %d, body %v", status, body)
	}
	order := body["order"].(map[string]interface{})
	if order["total_amount"] != "16.00" {
		t.Fatalf("order total_amount: got %v, want 16.00", order["total_amount"])
	}
	orderID := order["id"].(string)
	ticket := order["job_ticket"].(map[string]interface{})
	ticketID := ticket["id"].(string)
	if ticket["current_step_number"] != float64(1) {
		t.Fatalf("ticket should start at step 1: %v", ticket)
	}

	// --- 5. Staff work the steps; QC fails once and the ticket rolls back ---
	bakerToken := login(t, server, "baker@test.com", "password123")
	qcToken := login(t, server, "qc@test.com", "password123")
	packerToken := login(t, server, "packer@test.com", "password123")

	progress := func(step int, token string, body map[string]interface{}) map[string]interface{} {
		t.Helper()
		status, resp := httpJSON(t, server, "POST", fmt.Sprintf("/job-tickets/%s/steps/%d/progress", ticketID, step), body, token)
		if status != http.StatusOK {
			t.Fatalf("progress step %d: status %d, body %v", step, status, resp)
		}
		return resp
	}

	// The packer cannot take the baker's step.
	status, _ = httpJSON(t, server, "POST", fmt.Sprintf("/job-tickets/%s/steps/1/progress", ticketID), nil, packerToken)
	if status != http.StatusForbidden {
		t.Fatalf("wrong role progress: status %d, want 403", status)
	}

	if resp := progress(1, bakerToken, map[string]interface{}{"notes": "proofed 2h"}); resp["next_step"] != float64(2) {
		t.Fatalf("step 1: %v", resp)
	}
	resp := progress(2, qcToken, map[string]interface{}{"quality_passed": false, "notes": "underbaked"})
	if resp["status"] != "quality_failure" || resp["returned_to_step"] != float64(1) {
		t.Fatalf("quality failure: %v", resp)
	}
	progress(1, bakerToken, nil)
	progress(2, qcToken, map[string]interface{}{"quality_passed": true})
	if resp := progress(3, packerToken, nil); resp["status"] != "completed" {
		t.Fatalf("final step: %v", resp)
	}

	// --- 6. Ticket history and order state ---
	status, detail := httpJSON(t, server, "GET", "/job-tickets/"+ticketID, nil, bakerToken)
	if status != http.StatusOK {
		t.Fatalf("get ticket: status %d", status)
	}
	if detail["current_status"] != "completed" {
		t.Fatalf("ticket status: %v", detail["current_status"])
	}
	kinds := []string{}
	for _, tr := range detail["transitions"].([]interface{}) {
		kinds = append(kinds, tr.(map[string]interface{})["kind"].(string))
	}
	want := []string{"advance", "rollback", "advance", "advance", "complete"}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("transitions: got %v, want %v", kinds, want)
	}

	status, got := httpJSON(t, server, "GET", "/orders/"+orderID, nil, adminToken)
	if status != http.StatusOK || got["status"] != "completed" {
		t.Fatalf("order after delivery: status %d, body %v", status, got)
	}
	assertCount(t, ctx, pool, "merchant_product_tracking", 1)

	// --- 7. Chat intake from the merchant's registered number ---
	status, chat := httpJSONWithHeader(t, server, "POST", "/webhooks/chat", map[string]interface{}{
		"message_id":   "msg-1",
		"sender_phone": "+15550100",
		"message_text": "12 croissants",
	}, middleware.WebhookTokenHeader, integrationWebhookToken)
	if status != http.StatusOK || chat["status"] != "accepted" {
		t.Fatalf("chat order: status %d, body %v", status, chat)
	}
	assertCount(t, ctx, pool, "orders", 2)

	status, _ = httpJSONWithHeader(t, server, "POST", "/webhooks/chat", map[string]interface{}{
		"sender_phone": "+15550100", "message_text": "12 croissants",
	}, middleware.WebhookTokenHeader, "wrong")
	if status != http.StatusUnauthorized {
		t.Fatalf("chat with bad token: status %d, want 401", status)
	}

	// --- 8. Floor staff cannot reach office routes ---
	status, _ = httpJSON(t, server, "POST", "/orders", orderBody(1), bakerToken)
	if status != http.StatusForbidden {
		t.Fatalf("baker creating order: status %d, want 403", status)
	}
}

// TestIntegrationConcurrentReordersShareStock fires two reorders for the same
// merchant and recipe at once. Between them they may only consume the unsold
// stock that exists; the row locks make the second order see what the first
// left behind.
func TestIntegrationConcurrentReordersShareStock(t *testing.T) {
	ctx := context.Background()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	createUser(t, ctx, pool, "baker@test.com", "baker", "kitchen")
	createUser(t, ctx, pool, "qc@test.com", "quality_control", "quality_control")
	createUser(t, ctx, pool, "packer@test.com", "packer", "packaging")
	createStandardWorkflow(t, ctx, pool)

	flourID := createInventoryItem(t, ctx, pool, "Bread flour", "100.000")
	cakeID := createRecipe(t, ctx, pool, "Lemon Cake", "lemon cake", "3.00", flourID, "0.250")
	merchantID := createMerchant(t, ctx, pool, "Harbour Deli", "+15550200", "10000.00")

	// 5 + 3 + 4 unsold cakes, oldest first.
	const unsold = 12
	for i, remaining := range []int{5, 3, 4} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO merchant_product_tracking
			   (merchant_id, recipe_id, quantity_delivered, delivery_date, expiration_date, current_estimated_quantity)
			 VALUES ($1, $2, 10, now() - make_interval(days => $3), current_date + 2, $4)`,
			merchantID, cakeID, 3-i, remaining,
		); err != nil {
			t.Fatalf("insert tracking row: %v", err)
		}
	}

	orders := service.NewOrderService(service.Deps{
		Pool: pool,
		NewStore: func(db database.DBTX) service.Store {
			return database.New(db)
		},
		Config: config.DefaultProduction(),
		Logger: zap.NewNop(),
	})

	// Each order alone would take more than half the unsold stock.
	const perOrder = 7
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]*service.ProcessOrderResult, 2)
		errs    = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = orders.ProcessOrder(ctx, service.ProcessOrderRequest{
				MerchantID: merchantID,
				Items:      []service.OrderLine{{RecipeID: cakeID, Quantity: perOrder}},
				SourceRef:  fmt.Sprintf("concurrent-%d", i),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	var prevented int32
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("order %d: %v", i, errs[i])
		}
		prevented += results[i].Waste.TotalPrevented
	}
	if prevented != unsold {
		t.Errorf("waste prevented across both orders: got %d, want %d", prevented, unsold)
	}

	var total, lowest int
	if err := pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(current_estimated_quantity), 0), COALESCE(MIN(current_estimated_quantity), 0)
		 FROM merchant_product_tracking WHERE merchant_id = $1 AND recipe_id = $2`,
		merchantID, cakeID,
	).Scan(&total, &lowest); err != nil {
		t.Fatalf("sum tracking: %v", err)
	}
	if total != 0 || lowest < 0 {
		t.Errorf("tracking after both orders: remaining %d, lowest row %d", total, lowest)
	}

	var soldOut int
	if err := pool.QueryRow(ctx,
		`SELECT count(*) FROM merchant_product_tracking WHERE merchant_id = $1 AND status = 'sold_out'`,
		merchantID,
	).Scan(&soldOut); err != nil {
		t.Fatalf("count sold out: %v", err)
	}
	if soldOut != 3 {
		t.Errorf("sold out rows: got %d, want 3", soldOut)
	}
	assertCount(t, ctx, pool, "orders", 2)
	assertCount(t, ctx, pool, "job_tickets", 2)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bakery_test"),
		tcpostgres.WithUsername("bakery"),
		tcpostgres.WithPassword("bakery"),
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

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Relative to internal/handler, where go test runs.
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool, email, role, department string) uuid.UUID {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, hashed_password, full_name, role, department)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		email, string(hashed), "Test "+role, role, department,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert user %s: %v", email, err)
	}
	return id
}

func createInventoryItem(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, quantity string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO inventory_items (item_name, unit_of_measurement, current_quantity, cost_per_unit)
		 VALUES ($1, 'kg', $2, 1.00) RETURNING id`,
		name, quantity,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert inventory item: %v", err)
	}
	return id
}

func createRecipe(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, keywords, cost string, itemID uuid.UUID, perUnit string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO recipes (recipe_name, keywords, cost_per_unit, shelf_life_days)
		 VALUES ($1, $2, $3, 2) RETURNING id`,
		name, keywords, cost,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert recipe: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO recipe_ingredients (recipe_id, inventory_item_id, quantity_required) VALUES ($1, $2, $3)`,
		id, itemID, perUnit,
	); err != nil {
		t.Fatalf("insert recipe ingredient: %v", err)
	}
	return id
}

func createMerchant(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, chatPhone, creditLimit string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO merchants (business_name, location_address, contact_person_name, contact_phone, chat_phone, credit_limit)
		 VALUES ($1, '12 Market Street', 'Pat Owner', '+15550199', $2, $3) RETURNING id`,
		name, chatPhone, creditLimit,
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert merchant: %v", err)
	}
	return id
}

func createStandardWorkflow(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	steps := `[
		{"step_name": "Bake", "assigned_role": "baker", "required_department": "kitchen", "step_type": "production"},
		{"step_name": "Quality check", "assigned_role": "quality_control", "step_type": "quality_check"},
		{"step_name": "Pack", "assigned_role": "packer", "step_type": "packaging"}
	]`
	if _, err := pool.Exec(ctx,
		`INSERT INTO workflows (workflow_name, workflow_type, workflow_steps, estimated_total_duration_minutes)
		 VALUES ('Standard Production', 'standard', $1::jsonb, 180)`,
		steps,
	); err != nil {
		t.Fatalf("insert workflow: %v", err)
	}
}

func assertCount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, table string, want int) {
	t.Helper()
	var got int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&got); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	if got != want {
		t.Fatalf("%s rows: got %d, want %d", table, got, want)
	}
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	status, resp := httpJSON(t, server, "POST", "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if status != http.StatusOK || !ok || token == "" {
		t.Fatalf("login %s failed: status %d, body %+v", email, status, resp)
	}
	return token
}

// --- HTTP helpers ---

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	if token == "" {
		return httpJSONWithHeader(t, server, method, path, body, "", "")
	}
	return httpJSONWithHeader(t, server, method, path, body, "Authorization", "Bearer "+token)
}

func httpJSONWithHeader(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, header, value string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set(header, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("%s %s: decode response (status %d): %v", method, path, resp.StatusCode, err)
	}
	return resp.StatusCode, result
}
