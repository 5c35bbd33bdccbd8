package service

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Mock Tx ---

// mockTx restores the memStore to its state at Begin unless committed.
type mockTx struct {
	store     *memStore
	snapshot  *memStore
	committed bool
	commitErr error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed && m.store != nil {
		m.store.restore(m.snapshot)
	}
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// --- Mock TxBeginner ---

type mockTxBeginner struct {
	store     *memStore
	commitErr error
	txs       []*mockTx
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	tx := &mockTx{store: m.store, commitErr: m.commitErr}
	if m.store != nil {
		tx.snapshot = m.store.clone()
	}
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *mockTxBeginner) lastTx() *mockTx {
	if len(m.txs) == 0 {
		return nil
	}
	return m.txs[len(m.txs)-1]
}

// --- Recorders ---

type sentMessage struct {
	recipient, text string
}

type mockNotifier struct {
	sent []sentMessage
	err  error
}

func (m *mockNotifier) Notify(ctx context.Context, recipient, message string) error {
	m.sent = append(m.sent, sentMessage{recipient, message})
	return m.err
}

type publishedEvent struct {
	subject string
	payload any
}

type mockEvents struct {
	published []publishedEvent
}

func (m *mockEvents) Publish(ctx context.Context, subject string, payload any) error {
	m.published = append(m.published, publishedEvent{subject, payload})
	return nil
}

func (m *mockEvents) subjects() []string {
	out := make([]string, len(m.published))
	for i, p := range m.published {
		out[i] = p.subject
	}
	return out
}

// mockCache is safe for the delayed invalidation goroutine. Every
// invalidation is also signalled on deleted.
type mockCache struct {
	mu          sync.Mutex
	entries     map[[2]uuid.UUID]ResolvedPrice
	invalidated [][2]uuid.UUID
	deleted     chan struct{}
}

func newMockCache() *mockCache {
	return &mockCache{
		entries: make(map[[2]uuid.UUID]ResolvedPrice),
		deleted: make(chan struct{}, 8),
	}
}

func (c *mockCache) Get(ctx context.Context, m, r uuid.UUID) (ResolvedPrice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[[2]uuid.UUID{m, r}]
	return p, ok
}
func (c *mockCache) Set(ctx context.Context, m, r uuid.UUID, p ResolvedPrice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[[2]uuid.UUID{m, r}] = p
}
func (c *mockCache) Invalidate(ctx context.Context, m, r uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, [2]uuid.UUID{m, r})
	c.invalidated = append(c.invalidated, [2]uuid.UUID{m, r})
	c.mu.Unlock()
	select {
	case c.deleted <- struct{}{}:
	default:
	}
	return nil
}

func (c *mockCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.invalidated)
}

// --- Helpers ---

func makeNumeric(val string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(val)
	return n
}

func numericEquals(n pgtype.Numeric, expected string) bool {
	return numericToDecimal(n).Equal(decimal.RequireFromString(expected))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func boolPtr(b bool) *bool { return &b }

func int32Ptr(n int32) *int32 { return &n }

func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// fixedNow is a Wednesday.
var fixedNow = time.Date(2026, 3, 11, 9, 30, 0, 0, time.UTC)

func testConfig() config.ProductionConfig {
	cfg := config.DefaultProduction()
	cfg.CacheRedeleteDelay = 0
	return cfg
}

func testDeps(store *memStore) (Deps, *mockTxBeginner, *mockEvents, *mockNotifier) {
	pool := &mockTxBeginner{store: store}
	events := &mockEvents{}
	notifier := &mockNotifier{}
	return Deps{
		Pool:     pool,
		NewStore: func(db database.DBTX) Store { return store },
		Events:   events,
		Notifier: notifier,
		Config:   testConfig(),
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return fixedNow },
	}, pool, events, notifier
}

// --- In-memory store ---

// memStore is an in-memory Store with the same row semantics as the SQL in
// queries/. errs forces a method to fail.
type memStore struct {
	merchants   map[uuid.UUID]database.Merchant
	recipes     map[uuid.UUID]database.Recipe
	ingredients map[uuid.UUID][]database.ListRecipeIngredientsRow
	invoices    []database.Invoice
	pricing     []database.MerchantPricing
	workflows   []database.Workflow
	users       []database.User
	orders      map[uuid.UUID]database.Order
	orderItems  map[uuid.UUID][]database.OrderItem
	tickets     map[uuid.UUID]database.JobTicket
	steps       map[uuid.UUID][]database.JobTicketStep
	transitions map[uuid.UUID][]database.JobTicketTransition
	tracking    []database.MerchantProductTracking
	collections []database.WasteManagement

	errs map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		merchants:   make(map[uuid.UUID]database.Merchant),
		recipes:     make(map[uuid.UUID]database.Recipe),
		ingredients: make(map[uuid.UUID][]database.ListRecipeIngredientsRow),
		orders:      make(map[uuid.UUID]database.Order),
		orderItems:  make(map[uuid.UUID][]database.OrderItem),
		tickets:     make(map[uuid.UUID]database.JobTicket),
		steps:       make(map[uuid.UUID][]database.JobTicketStep),
		transitions: make(map[uuid.UUID][]database.JobTicketTransition),
		errs:        make(map[string]error),
	}
}

func cloneSliceMap[V any](m map[uuid.UUID][]V) map[uuid.UUID][]V {
	out := make(map[uuid.UUID][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func (s *memStore) clone() *memStore {
	return &memStore{
		merchants:    maps.Clone(s.merchants),
		recipes:      maps.Clone(s.recipes),
		ingredients:  cloneSliceMap(s.ingredients),
		invoices:     slices.Clone(s.invoices),
		pricing:      slices.Clone(s.pricing),
		workflows:    slices.Clone(s.workflows),
		users:        slices.Clone(s.users),
		orders:       maps.Clone(s.orders),
		orderItems:   cloneSliceMap(s.orderItems),
		tickets:      maps.Clone(s.tickets),
		steps:        cloneSliceMap(s.steps),
		transitions:  cloneSliceMap(s.transitions),
		tracking:     slices.Clone(s.tracking),
		collections:  slices.Clone(s.collections),
		errs:         s.errs,
	}
}

func (s *memStore) restore(snap *memStore) {
	errs := s.errs
	*s = *snap.clone()
	s.errs = errs
}

func (s *memStore) fail(method string) error { return s.errs[method] }

// --- seeding ---

func (s *memStore) addMerchant(limit string, status string) database.Merchant {
	m := database.Merchant{
		ID:              uuid.New(),
		BusinessName:    "Corner Cafe",
		LocationAddress: "1 Main St",
		ChatPhone:       pgtype.Text{String: "+15550001", Valid: true},
		CreditLimit:     makeNumeric(limit),
		AccountStatus:   status,
	}
	s.merchants[m.ID] = m
	return m
}

// addRecipe creates a recipe whose single ingredient costs cost per unit
// with on-hand stock.
func (s *memStore) addRecipe(name, cost, onHand string) database.Recipe {
	r := database.Recipe{
		ID:            uuid.New(),
		RecipeName:    name,
		CostPerUnit:   makeNumeric(cost),
		ShelfLifeDays: 3,
		IsActive:      true,
	}
	s.recipes[r.ID] = r
	s.ingredients[r.ID] = []database.ListRecipeIngredientsRow{{
		InventoryItemID:  uuid.New(),
		ItemName:         name + " mix",
		QuantityRequired: makeNumeric("1"),
		CostPerUnit:      makeNumeric(cost),
		CurrentQuantity:  makeNumeric(onHand),
	}}
	return r
}

func (s *memStore) addWorkflow(name, wfType string, minutes int32, steps ...StepTemplate) database.Workflow {
	raw := mustJSON(steps)
	wf := database.Workflow{
		ID:                            uuid.New(),
		WorkflowName:                  name,
		WorkflowType:                  wfType,
		WorkflowSteps:                 raw,
		EstimatedTotalDurationMinutes: minutes,
		IsActive:                      true,
		CreatedAt:                     fixedNow.Add(-time.Duration(len(s.workflows)+1) * time.Hour),
	}
	s.workflows = append(s.workflows, wf)
	return wf
}

func (s *memStore) addUser(role enum.Role, dept enum.Department) database.User {
	u := database.User{
		ID:       uuid.New(),
		Email:    uuid.NewString() + "@bakery.test",
		FullName: string(role),
		Role:     string(role),
		Status:   enum.UserStatusActive,
	}
	if dept != "" {
		u.Department = pgtype.Text{String: string(dept), Valid: true}
	}
	s.users = append(s.users, u)
	return u
}

func (s *memStore) addTracking(merchantID, recipeID uuid.UUID, remaining int32, delivered time.Time, expires time.Time, status string) database.MerchantProductTracking {
	t := database.MerchantProductTracking{
		ID:                       uuid.New(),
		MerchantID:               merchantID,
		RecipeID:                 recipeID,
		QuantityDelivered:        remaining,
		DeliveryDate:             delivered,
		ExpirationDate:           pgDate(expires),
		CurrentEstimatedQuantity: remaining,
		Status:                   status,
	}
	s.tracking = append(s.tracking, t)
	return t
}

func (s *memStore) trackingByID(id uuid.UUID) database.MerchantProductTracking {
	for _, t := range s.tracking {
		if t.ID == id {
			return t
		}
	}
	return database.MerchantProductTracking{}
}

func (s *memStore) collectionByID(id uuid.UUID) database.WasteManagement {
	for _, c := range s.collections {
		if c.ID == id {
			return c
		}
	}
	return database.WasteManagement{}
}

func (s *memStore) stepByNumber(ticketID uuid.UUID, n int32) database.JobTicketStep {
	for _, st := range s.steps[ticketID] {
		if st.StepNumber == n {
			return st
		}
	}
	return database.JobTicketStep{}
}

// --- PricingStore / PricingWriteStore ---

func (s *memStore) GetActiveMerchantPricing(ctx context.Context, arg database.GetActiveMerchantPricingParams) (database.MerchantPricing, error) {
	if err := s.fail("GetActiveMerchantPricing"); err != nil {
		return database.MerchantPricing{}, err
	}
	var best *database.MerchantPricing
	for i := range s.pricing {
		p := &s.pricing[i]
		if p.MerchantID != arg.MerchantID || p.RecipeID != arg.RecipeID || !pricingActive(*p, arg.Today) {
			continue
		}
		if best == nil || p.EffectiveDate.Time.After(best.EffectiveDate.Time) ||
			(p.EffectiveDate.Time.Equal(best.EffectiveDate.Time) && p.CreatedAt.After(best.CreatedAt)) {
			best = p
		}
	}
	if best == nil {
		return database.MerchantPricing{}, pgx.ErrNoRows
	}
	return *best, nil
}

func pricingActive(p database.MerchantPricing, today pgtype.Date) bool {
	if p.EffectiveDate.Time.After(today.Time) {
		return false
	}
	return !p.ExpirationDate.Valid || !p.ExpirationDate.Time.Before(today.Time)
}

func (s *memStore) GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error) {
	if err := s.fail("GetRecipe"); err != nil {
		return database.Recipe{}, err
	}
	r, ok := s.recipes[id]
	if !ok {
		return database.Recipe{}, pgx.ErrNoRows
	}
	return r, nil
}

func (s *memStore) ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.ListRecipeIngredientsRow, error) {
	if err := s.fail("ListRecipeIngredients"); err != nil {
		return nil, err
	}
	return slices.Clone(s.ingredients[recipeID]), nil
}

func (s *memStore) GetMerchant(ctx context.Context, id uuid.UUID) (database.Merchant, error) {
	m, ok := s.merchants[id]
	if !ok {
		return database.Merchant{}, pgx.ErrNoRows
	}
	return m, nil
}

func (s *memStore) ExpireMerchantPricing(ctx context.Context, arg database.ExpireMerchantPricingParams) error {
	for i, p := range s.pricing {
		if p.MerchantID != arg.MerchantID || p.RecipeID != arg.RecipeID {
			continue
		}
		if !p.ExpirationDate.Valid || !p.ExpirationDate.Time.Before(arg.EffectiveDate.Time) {
			s.pricing[i].ExpirationDate = arg.ExpirationDate
		}
	}
	return nil
}

func (s *memStore) CreateMerchantPricing(ctx context.Context, arg database.CreateMerchantPricingParams) (database.MerchantPricing, error) {
	if err := s.fail("CreateMerchantPricing"); err != nil {
		return database.MerchantPricing{}, err
	}
	p := database.MerchantPricing{
		ID:               uuid.New(),
		MerchantID:       arg.MerchantID,
		RecipeID:         arg.RecipeID,
		BaseCost:         arg.BaseCost,
		MerchantPrice:    arg.MerchantPrice,
		MarkupPercentage: arg.MarkupPercentage,
		EffectiveDate:    arg.EffectiveDate,
		ExpirationDate:   arg.ExpirationDate,
		PriceTier:        arg.PriceTier,
		CreatedByUserID:  arg.CreatedByUserID,
		CreatedAt:        fixedNow.Add(time.Duration(len(s.pricing)) * time.Second),
	}
	s.pricing = append(s.pricing, p)
	return p, nil
}

func (s *memStore) ListActiveMerchantPricing(ctx context.Context, arg database.ListActiveMerchantPricingParams) ([]database.ListActiveMerchantPricingRow, error) {
	seen := make(map[uuid.UUID]bool)
	var rows []database.ListActiveMerchantPricingRow
	for _, p := range s.pricing {
		if p.MerchantID != arg.MerchantID || seen[p.RecipeID] {
			continue
		}
		best, err := s.GetActiveMerchantPricing(ctx, database.GetActiveMerchantPricingParams{
			MerchantID: arg.MerchantID, RecipeID: p.RecipeID, Today: arg.Today,
		})
		if err != nil {
			continue
		}
		seen[p.RecipeID] = true
		rows = append(rows, database.ListActiveMerchantPricingRow{
			ID:               best.ID,
			RecipeID:         best.RecipeID,
			RecipeName:       s.recipes[best.RecipeID].RecipeName,
			BaseCost:         best.BaseCost,
			MerchantPrice:    best.MerchantPrice,
			MarkupPercentage: best.MarkupPercentage,
			EffectiveDate:    best.EffectiveDate,
			ExpirationDate:   best.ExpirationDate,
			PriceTier:        best.PriceTier,
		})
	}
	return rows, nil
}

// --- CreditStore ---

func (s *memStore) GetMerchantForUpdate(ctx context.Context, id uuid.UUID) (database.Merchant, error) {
	if err := s.fail("GetMerchantForUpdate"); err != nil {
		return database.Merchant{}, err
	}
	return s.GetMerchant(ctx, id)
}

func (s *memStore) SumOutstandingInvoices(ctx context.Context, merchantID uuid.UUID) (pgtype.Numeric, error) {
	total := decimal.Zero
	for _, inv := range s.invoices {
		if inv.MerchantID == merchantID &&
			(inv.PaymentStatus == enum.InvoiceStatusUnpaid || inv.PaymentStatus == enum.InvoiceStatusPartial) {
			total = total.Add(numericToDecimal(inv.TotalAmount))
		}
	}
	return decimalToNumeric(total), nil
}

func (s *memStore) SumPendingOrders(ctx context.Context, merchantID uuid.UUID) (pgtype.Numeric, error) {
	total := decimal.Zero
	for _, o := range s.orders {
		if o.MerchantID == merchantID && o.OrderStatus == enum.OrderStatusPending {
			total = total.Add(numericToDecimal(o.TotalAmount))
		}
	}
	return decimalToNumeric(total), nil
}

// --- WasteStore / WasteAlertStore ---

func (s *memStore) ListConsumableTrackingForUpdate(ctx context.Context, arg database.ListConsumableTrackingForUpdateParams) ([]database.MerchantProductTracking, error) {
	var rows []database.MerchantProductTracking
	for _, t := range s.tracking {
		if t.MerchantID == arg.MerchantID && t.RecipeID == arg.RecipeID &&
			t.CurrentEstimatedQuantity > 0 && t.Status != enum.TrackingStatusExpired {
			rows = append(rows, t)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].DeliveryDate.Equal(rows[j].DeliveryDate) {
			return rows[i].DeliveryDate.Before(rows[j].DeliveryDate)
		}
		return bytes.Compare(rows[i].ID[:], rows[j].ID[:]) < 0
	})
	return rows, nil
}

func (s *memStore) UpdateTrackingConsumption(ctx context.Context, arg database.UpdateTrackingConsumptionParams) error {
	if err := s.fail("UpdateTrackingConsumption"); err != nil {
		return err
	}
	for i, t := range s.tracking {
		if t.ID == arg.ID {
			s.tracking[i].CurrentEstimatedQuantity = arg.CurrentEstimatedQuantity
			s.tracking[i].Status = arg.Status
			s.tracking[i].CollectionRequired = t.CollectionRequired && arg.CurrentEstimatedQuantity > 0
		}
	}
	return nil
}

func (s *memStore) ListScheduledCollectionsForUpdate(ctx context.Context, arg database.ListScheduledCollectionsForUpdateParams) ([]database.WasteManagement, error) {
	var out []database.WasteManagement
	for _, c := range s.collections {
		if c.MerchantID == arg.MerchantID && c.CollectionStatus == enum.CollectionStatusScheduled &&
			!c.ScheduledCollectionDate.Time.Before(arg.Today.Time) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) UpdateCollectionItems(ctx context.Context, arg database.UpdateCollectionItemsParams) error {
	for i, c := range s.collections {
		if c.ID == arg.ID {
			s.collections[i].WasteItemsCollected = arg.WasteItemsCollected
			s.collections[i].TotalWasteValue = arg.TotalWasteValue
		}
	}
	return nil
}

func (s *memStore) CancelCollection(ctx context.Context, id uuid.UUID) error {
	for i, c := range s.collections {
		if c.ID == id {
			s.collections[i].CollectionStatus = enum.CollectionStatusCancelled
		}
	}
	return nil
}

func (s *memStore) ListExpiringTracking(ctx context.Context, horizon pgtype.Date) ([]database.ListExpiringTrackingRow, error) {
	var rows []database.ListExpiringTrackingRow
	for _, t := range s.tracking {
		if t.CurrentEstimatedQuantity <= 0 || t.Status == enum.TrackingStatusExpired ||
			t.ExpirationDate.Time.After(horizon.Time) {
			continue
		}
		m := s.merchants[t.MerchantID]
		r := s.recipes[t.RecipeID]
		rows = append(rows, database.ListExpiringTrackingRow{
			ID:                       t.ID,
			MerchantID:               t.MerchantID,
			RecipeID:                 t.RecipeID,
			ExpirationDate:           t.ExpirationDate,
			CurrentEstimatedQuantity: t.CurrentEstimatedQuantity,
			Status:                   t.Status,
			RecipeName:               r.RecipeName,
			CostPerUnit:              r.CostPerUnit,
			BusinessName:             m.BusinessName,
			ChatPhone:                m.ChatPhone,
		})
	}
	return rows, nil
}

func (s *memStore) UpdateTrackingStatus(ctx context.Context, arg database.UpdateTrackingStatusParams) error {
	for i, t := range s.tracking {
		if t.ID == arg.ID {
			s.tracking[i].Status = arg.Status
			s.tracking[i].CollectionRequired = arg.CollectionRequired
		}
	}
	return nil
}

func (s *memStore) CountOpenCollections(ctx context.Context, arg database.CountOpenCollectionsParams) (int64, error) {
	var n int64
	for _, c := range s.collections {
		if c.MerchantID == arg.MerchantID &&
			(c.CollectionStatus == enum.CollectionStatusScheduled || c.CollectionStatus == enum.CollectionStatusInProgress) &&
			!c.ScheduledCollectionDate.Time.Before(arg.Today.Time) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateWasteCollection(ctx context.Context, arg database.CreateWasteCollectionParams) (database.WasteManagement, error) {
	c := database.WasteManagement{
		ID:                      uuid.New(),
		MerchantID:              arg.MerchantID,
		ScheduledCollectionDate: arg.ScheduledCollectionDate,
		CollectionStatus:        enum.CollectionStatusScheduled,
		WasteItemsCollected:     arg.WasteItemsCollected,
		TotalWasteValue:         arg.TotalWasteValue,
	}
	s.collections = append(s.collections, c)
	return c, nil
}

func (s *memStore) GetWasteCollectionForUpdate(ctx context.Context, id uuid.UUID) (database.WasteManagement, error) {
	for _, c := range s.collections {
		if c.ID == id {
			return c, nil
		}
	}
	return database.WasteManagement{}, pgx.ErrNoRows
}

func (s *memStore) CompleteWasteCollection(ctx context.Context, arg database.CompleteWasteCollectionParams) (database.WasteManagement, error) {
	for i, c := range s.collections {
		if c.ID == arg.ID {
			c.CollectionStatus = enum.CollectionStatusCompleted
			c.ActualCollectionDate = arg.ActualCollectionDate
			c.WasteItemsCollected = arg.WasteItemsCollected
			c.DriverNotes = arg.DriverNotes
			c.TotalWasteValue = arg.TotalWasteValue
			c.CreditedToMerchant = true
			s.collections[i] = c
			return c, nil
		}
	}
	return database.WasteManagement{}, pgx.ErrNoRows
}

func (s *memStore) MarkCollectedTracking(ctx context.Context, arg database.MarkCollectedTrackingParams) error {
	for i, t := range s.tracking {
		if t.MerchantID == arg.MerchantID && t.RecipeID == arg.RecipeID && t.CollectionRequired &&
			t.Status != enum.TrackingStatusSoldOut && t.Status != enum.TrackingStatusCollected {
			s.tracking[i].CurrentEstimatedQuantity = 0
			s.tracking[i].Status = enum.TrackingStatusCollected
			s.tracking[i].CollectionRequired = false
		}
	}
	return nil
}

// --- WorkflowStore ---

func (s *memStore) GetActiveWorkflowByType(ctx context.Context, workflowType string) (database.Workflow, error) {
	var best *database.Workflow
	for i := range s.workflows {
		wf := &s.workflows[i]
		if wf.WorkflowType == workflowType && wf.IsActive && (best == nil || wf.CreatedAt.Before(best.CreatedAt)) {
			best = wf
		}
	}
	if best == nil {
		return database.Workflow{}, pgx.ErrNoRows
	}
	return *best, nil
}

func (s *memStore) GetWorkflow(ctx context.Context, id uuid.UUID) (database.Workflow, error) {
	for _, wf := range s.workflows {
		if wf.ID == id {
			return wf, nil
		}
	}
	return database.Workflow{}, pgx.ErrNoRows
}

// --- TicketStore ---

func (s *memStore) MaxJobTicketSequence(ctx context.Context, dayPrefix string) (int32, error) {
	var highest int32
	for _, t := range s.tickets {
		rest, ok := strings.CutPrefix(t.JobTicketNumber, dayPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && int32(n) > highest {
			highest = int32(n)
		}
	}
	return highest, nil
}

func (s *memStore) CreateJobTicket(ctx context.Context, arg database.CreateJobTicketParams) (database.JobTicket, error) {
	if err := s.fail("CreateJobTicket"); err != nil {
		return database.JobTicket{}, err
	}
	for _, t := range s.tickets {
		if t.JobTicketNumber == arg.JobTicketNumber {
			return database.JobTicket{}, &pgconn.PgError{Code: "23505", ConstraintName: "job_tickets_job_ticket_number_key"}
		}
	}
	t := database.JobTicket{
		ID:                           uuid.New(),
		OrderID:                      arg.OrderID,
		WorkflowID:                   arg.WorkflowID,
		JobTicketNumber:              arg.JobTicketNumber,
		PriorityLevel:                arg.PriorityLevel,
		CurrentStatus:                arg.CurrentStatus,
		CurrentStepNumber:            1,
		EstimatedCompletionTimestamp: arg.EstimatedCompletionTimestamp,
		TotalProductionCost:          makeNumeric("0"),
		CreatedAt:                    fixedNow,
	}
	s.tickets[t.ID] = t
	return t, nil
}

func (s *memStore) CreateJobTicketStep(ctx context.Context, arg database.CreateJobTicketStepParams) (database.JobTicketStep, error) {
	st := database.JobTicketStep{
		ID:                 uuid.New(),
		JobTicketID:        arg.JobTicketID,
		StepNumber:         arg.StepNumber,
		StepName:           arg.StepName,
		AssignedRole:       arg.AssignedRole,
		RequiredDepartment: arg.RequiredDepartment,
		StepType:           arg.StepType,
		Status:             enum.StepStatusPending,
		NextStepOverride:   arg.NextStepOverride,
	}
	s.steps[arg.JobTicketID] = append(s.steps[arg.JobTicketID], st)
	return st, nil
}

func (s *memStore) CreateJobTicketTransition(ctx context.Context, arg database.CreateJobTicketTransitionParams) (database.JobTicketTransition, error) {
	tr := database.JobTicketTransition{
		ID:          uuid.New(),
		JobTicketID: arg.JobTicketID,
		Kind:        arg.Kind,
		FromStep:    arg.FromStep,
		ToStep:      arg.ToStep,
		ActorUserID: arg.ActorUserID,
		Reason:      arg.Reason,
		CreatedAt:   fixedNow,
	}
	s.transitions[arg.JobTicketID] = append(s.transitions[arg.JobTicketID], tr)
	return tr, nil
}

func (s *memStore) GetJobTicket(ctx context.Context, id uuid.UUID) (database.JobTicket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return database.JobTicket{}, pgx.ErrNoRows
	}
	return t, nil
}

func (s *memStore) GetJobTicketByOrder(ctx context.Context, orderID uuid.UUID) (database.JobTicket, error) {
	for _, t := range s.tickets {
		if t.OrderID == orderID {
			return t, nil
		}
	}
	return database.JobTicket{}, pgx.ErrNoRows
}

func (s *memStore) GetJobTicketForUpdate(ctx context.Context, id uuid.UUID) (database.JobTicket, error) {
	return s.GetJobTicket(ctx, id)
}

func (s *memStore) GetJobTicketStep(ctx context.Context, arg database.GetJobTicketStepParams) (database.JobTicketStep, error) {
	for _, st := range s.steps[arg.JobTicketID] {
		if st.StepNumber == arg.StepNumber {
			return st, nil
		}
	}
	return database.JobTicketStep{}, pgx.ErrNoRows
}

func (s *memStore) ListJobTicketSteps(ctx context.Context, jobTicketID uuid.UUID) ([]database.JobTicketStep, error) {
	return slices.Clone(s.steps[jobTicketID]), nil
}

func (s *memStore) ListJobTicketTransitions(ctx context.Context, jobTicketID uuid.UUID) ([]database.JobTicketTransition, error) {
	return slices.Clone(s.transitions[jobTicketID]), nil
}

func (s *memStore) ListUnassignedSteps(ctx context.Context) ([]database.ListUnassignedStepsRow, error) {
	var rows []database.ListUnassignedStepsRow
	for _, t := range s.tickets {
		if t.CurrentStatus != enum.TicketStatusInProgress {
			continue
		}
		st := s.stepByNumber(t.ID, t.CurrentStepNumber)
		if st.Status != enum.StepStatusPending || st.AssignedUserID.Valid {
			continue
		}
		rows = append(rows, database.ListUnassignedStepsRow{
			ID:                 st.ID,
			JobTicketID:        t.ID,
			StepNumber:         st.StepNumber,
			StepName:           st.StepName,
			AssignedRole:       st.AssignedRole,
			RequiredDepartment: st.RequiredDepartment,
			JobTicketNumber:    t.JobTicketNumber,
			PriorityLevel:      t.PriorityLevel,
		})
	}
	return rows, nil
}

func (s *memStore) updateStep(ticketID uuid.UUID, match func(database.JobTicketStep) bool, apply func(*database.JobTicketStep)) (database.JobTicketStep, bool) {
	var last database.JobTicketStep
	found := false
	steps := s.steps[ticketID]
	for i := range steps {
		if match(steps[i]) {
			apply(&steps[i])
			last = steps[i]
			found = true
		}
	}
	return last, found
}

func (s *memStore) ActivateJobTicketStep(ctx context.Context, arg database.ActivateJobTicketStepParams) (database.JobTicketStep, error) {
	st, ok := s.updateStep(arg.JobTicketID, func(st database.JobTicketStep) bool {
		return st.StepNumber == arg.StepNumber &&
			(st.Status == enum.StepStatusPending || st.Status == enum.StepStatusActive)
	}, func(st *database.JobTicketStep) {
		st.Status = enum.StepStatusActive
		st.AssignedUserID = arg.AssignedUserID
		st.StartTimestamp = arg.StartTimestamp
	})
	if !ok {
		return database.JobTicketStep{}, pgx.ErrNoRows
	}
	return st, nil
}

func (s *memStore) CompleteJobTicketStep(ctx context.Context, arg database.CompleteJobTicketStepParams) (database.JobTicketStep, error) {
	for ticketID, steps := range s.steps {
		for _, st := range steps {
			if st.ID != arg.ID {
				continue
			}
			done, ok := s.updateStep(ticketID, func(st database.JobTicketStep) bool {
				return st.ID == arg.ID &&
					(st.Status == enum.StepStatusPending || st.Status == enum.StepStatusActive)
			}, func(st *database.JobTicketStep) {
				st.Status = enum.StepStatusCompleted
				st.CompletionTimestamp = arg.CompletionTimestamp
				st.CompletedByUserID = arg.CompletedByUserID
				st.Notes = arg.Notes
				st.TimeSpentMinutes = arg.TimeSpentMinutes
				st.QualityCheckPassed = arg.QualityCheckPassed
			})
			if !ok {
				return database.JobTicketStep{}, pgx.ErrNoRows
			}
			return done, nil
		}
	}
	return database.JobTicketStep{}, pgx.ErrNoRows
}

func (s *memStore) ResetJobTicketSteps(ctx context.Context, arg database.ResetJobTicketStepsParams) error {
	s.updateStep(arg.JobTicketID, func(st database.JobTicketStep) bool {
		return st.StepNumber >= arg.FromStep && st.StepNumber <= arg.ToStep
	}, func(st *database.JobTicketStep) {
		st.Status = enum.StepStatusPending
		st.AssignedUserID = pgtype.UUID{}
		st.StartTimestamp = pgtype.Timestamptz{}
		st.CompletionTimestamp = pgtype.Timestamptz{}
		st.CompletedByUserID = pgtype.UUID{}
		st.TimeSpentMinutes = pgtype.Int4{}
		st.QualityCheckPassed = pgtype.Bool{}
	})
	return nil
}

func (s *memStore) SkipJobTicketSteps(ctx context.Context, arg database.SkipJobTicketStepsParams) error {
	s.updateStep(arg.JobTicketID, func(st database.JobTicketStep) bool {
		return st.Status == enum.StepStatusPending && st.StepNumber >= arg.FromStep && st.StepNumber <= arg.ToStep
	}, func(st *database.JobTicketStep) { st.Status = enum.StepStatusSkipped })
	return nil
}

func (s *memStore) SkipOpenJobTicketSteps(ctx context.Context, jobTicketID uuid.UUID) error {
	s.updateStep(jobTicketID, func(st database.JobTicketStep) bool {
		return st.Status == enum.StepStatusPending || st.Status == enum.StepStatusActive
	}, func(st *database.JobTicketStep) { st.Status = enum.StepStatusSkipped })
	return nil
}

func (s *memStore) updateTicket(id uuid.UUID, apply func(*database.JobTicket)) (database.JobTicket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return database.JobTicket{}, pgx.ErrNoRows
	}
	apply(&t)
	s.tickets[id] = t
	return t, nil
}

func (s *memStore) StartJobTicket(ctx context.Context, arg database.StartJobTicketParams) (database.JobTicket, error) {
	return s.updateTicket(arg.ID, func(t *database.JobTicket) {
		t.CurrentStatus = enum.TicketStatusInProgress
		t.StartTimestamp = arg.StartTimestamp
	})
}

func (s *memStore) MoveJobTicket(ctx context.Context, arg database.MoveJobTicketParams) (database.JobTicket, error) {
	return s.updateTicket(arg.ID, func(t *database.JobTicket) {
		t.CurrentStepNumber = arg.CurrentStepNumber
		t.QualityNotes = arg.QualityNotes
	})
}

func (s *memStore) CompleteJobTicket(ctx context.Context, arg database.CompleteJobTicketParams) (database.JobTicket, error) {
	return s.updateTicket(arg.ID, func(t *database.JobTicket) {
		t.CurrentStatus = enum.TicketStatusCompleted
		t.CurrentStepNumber = arg.CurrentStepNumber
		t.ActualCompletionTimestamp = arg.ActualCompletionTimestamp
		t.TotalProductionCost = arg.TotalProductionCost
	})
}

func (s *memStore) CancelJobTicket(ctx context.Context, arg database.CancelJobTicketParams) (database.JobTicket, error) {
	return s.updateTicket(arg.ID, func(t *database.JobTicket) {
		t.CurrentStatus = enum.TicketStatusCancelled
		t.ActualCompletionTimestamp = arg.ActualCompletionTimestamp
	})
}

func (s *memStore) activeLoad(userID uuid.UUID) int {
	n := 0
	for _, steps := range s.steps {
		for _, st := range steps {
			if st.Status == enum.StepStatusActive && st.AssignedUserID.Valid && uuid.UUID(st.AssignedUserID.Bytes) == userID {
				n++
			}
		}
	}
	return n
}

func (s *memStore) FindLeastLoadedUser(ctx context.Context, arg database.FindLeastLoadedUserParams) (uuid.UUID, error) {
	var candidates []database.User
	for _, u := range s.users {
		if u.Role != arg.Role || u.Status != enum.UserStatusActive {
			continue
		}
		if arg.Department.Valid && (!u.Department.Valid || u.Department.String != arg.Department.String) {
			continue
		}
		candidates = append(candidates, u)
	}
	if len(candidates) == 0 {
		return uuid.Nil, pgx.ErrNoRows
	}
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := s.activeLoad(candidates[i].ID), s.activeLoad(candidates[j].ID)
		if li != lj {
			return li < lj
		}
		return bytes.Compare(candidates[i].ID[:], candidates[j].ID[:]) < 0
	})
	return candidates[0].ID, nil
}

func (s *memStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	for _, u := range s.users {
		if u.ID == id && u.Status == enum.UserStatusActive {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (s *memStore) CreateMerchantProductTracking(ctx context.Context, arg database.CreateMerchantProductTrackingParams) (database.MerchantProductTracking, error) {
	t := database.MerchantProductTracking{
		ID:                       uuid.New(),
		MerchantID:               arg.MerchantID,
		RecipeID:                 arg.RecipeID,
		JobTicketID:              arg.JobTicketID,
		QuantityDelivered:        arg.QuantityDelivered,
		DeliveryDate:             arg.DeliveryDate,
		ExpirationDate:           arg.ExpirationDate,
		CurrentEstimatedQuantity: arg.CurrentEstimatedQuantity,
		Status:                   arg.Status,
	}
	s.tracking = append(s.tracking, t)
	return t, nil
}

// --- OrderStore ---

func (s *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := s.fail("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	o := database.Order{
		ID:                    uuid.New(),
		MerchantID:            arg.MerchantID,
		SourceRef:             arg.SourceRef,
		TotalAmount:           arg.TotalAmount,
		OrderDate:             fixedNow,
		RequestedDeliveryDate: arg.RequestedDeliveryDate,
		OrderStatus:           arg.OrderStatus,
		SpecialNotes:          arg.SpecialNotes,
		DeliveryAddress:       arg.DeliveryAddress,
		CatalogOrder:          arg.CatalogOrder,
		CatalogID:             arg.CatalogID,
		CatalogTotal:          arg.CatalogTotal,
	}
	s.orders[o.ID] = o
	return o, nil
}

func (s *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:              uuid.New(),
		OrderID:         arg.OrderID,
		RecipeID:        arg.RecipeID,
		RecipeName:      arg.RecipeName,
		Quantity:        arg.Quantity,
		UnitPrice:       arg.UnitPrice,
		LineTotal:       arg.LineTotal,
		PriceTier:       arg.PriceTier,
		DiscountApplied: arg.DiscountApplied,
	}
	s.orderItems[arg.OrderID] = append(s.orderItems[arg.OrderID], it)
	return it, nil
}

func (s *memStore) SetOrderWorkflow(ctx context.Context, arg database.SetOrderWorkflowParams) error {
	o, ok := s.orders[arg.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	o.AssignedWorkflowID = arg.AssignedWorkflowID
	s.orders[arg.ID] = o
	return nil
}

func (s *memStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return s.GetOrder(ctx, id)
}

func (s *memStore) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	return slices.Clone(s.orderItems[orderID]), nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	o, ok := s.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.OrderStatus = arg.OrderStatus
	s.orders[arg.ID] = o
	return o, nil
}
