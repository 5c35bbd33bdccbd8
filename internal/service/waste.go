package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WasteItem is one entry of a pickup's item list, stored as JSONB.
type WasteItem struct {
	RecipeID       uuid.UUID `json:"recipe_id"`
	RecipeName     string    `json:"recipe_name"`
	Quantity       int32     `json:"quantity"`
	ExpirationDate string    `json:"expiration_date,omitempty"`
	Condition      string    `json:"condition,omitempty"`
}

// DecodeWasteItems reads a pickup item list. Empty input is an empty list.
func DecodeWasteItems(raw []byte) ([]WasteItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []WasteItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode waste items: %w", err)
	}
	return items, nil
}

func encodeWasteItems(items []WasteItem) ([]byte, error) {
	if items == nil {
		items = []WasteItem{}
	}
	return json.Marshal(items)
}

// RecipeWastePrevention is the matcher's outcome for one recipe.
type RecipeWastePrevention struct {
	RecipeID          uuid.UUID                          `json:"recipe_id"`
	RecipeName        string                             `json:"recipe_name"`
	QuantityPrevented int32                              `json:"quantity_prevented"`
	EstimatedSavings  decimal.Decimal                    `json:"estimated_savings"`
	UpdatedRows       []database.MerchantProductTracking `json:"-"`
}

// WasteSummary is the matcher's outcome for a whole order.
type WasteSummary struct {
	Recipes              []RecipeWastePrevention `json:"recipes"`
	TotalPrevented       int32                   `json:"total_prevented"`
	TotalSavings         decimal.Decimal         `json:"total_savings"`
	CollectionsCancelled []uuid.UUID             `json:"collections_cancelled"`
	CollectionsReduced   []uuid.UUID             `json:"collections_reduced"`
}

// WasteMatcher consumes a merchant's unsold delivered stock oldest-first when
// the merchant reorders the same recipe, then shrinks or cancels pickups made
// unnecessary by it.
type WasteMatcher struct {
	store  WasteStore
	cfg    config.ProductionConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewWasteMatcher creates a WasteMatcher bound to the caller's store,
// usually one opened on the order transaction.
func NewWasteMatcher(store WasteStore, cfg config.ProductionConfig, now func() time.Time, logger *zap.Logger) *WasteMatcher {
	return &WasteMatcher{store: store, cfg: cfg, now: now, logger: logger}
}

// Match runs FIFO consumption for every line, then re-evaluates the
// merchant's scheduled pickups against the full set of recipes whose waste
// was prevented.
func (m *WasteMatcher) Match(ctx context.Context, merchantID uuid.UUID, lines []OrderLine) (WasteSummary, error) {
	today := civilDate(m.now(), m.cfg.Location)
	summary := WasteSummary{TotalSavings: decimal.Zero}
	byRecipe := make(map[uuid.UUID]int)

	for i, line := range lines {
		rec, err := m.consume(ctx, merchantID, line, today)
		if err != nil {
			return WasteSummary{}, fmt.Errorf("item[%d]: %w", i, err)
		}
		if idx, ok := byRecipe[line.RecipeID]; ok {
			agg := &summary.Recipes[idx]
			agg.QuantityPrevented += rec.QuantityPrevented
			agg.EstimatedSavings = agg.EstimatedSavings.Add(rec.EstimatedSavings)
			agg.UpdatedRows = append(agg.UpdatedRows, rec.UpdatedRows...)
		} else {
			byRecipe[line.RecipeID] = len(summary.Recipes)
			summary.Recipes = append(summary.Recipes, rec)
		}
		summary.TotalPrevented += rec.QuantityPrevented
		summary.TotalSavings = summary.TotalSavings.Add(rec.EstimatedSavings)
	}

	prevented := make(map[uuid.UUID]bool)
	for _, r := range summary.Recipes {
		if r.QuantityPrevented > 0 {
			prevented[r.RecipeID] = true
		}
	}
	if len(prevented) == 0 {
		return summary, nil
	}

	cancelled, reduced, err := m.shrinkCollections(ctx, merchantID, today, prevented)
	if err != nil {
		return WasteSummary{}, err
	}
	summary.CollectionsCancelled = cancelled
	summary.CollectionsReduced = reduced
	return summary, nil
}

func (m *WasteMatcher) consume(ctx context.Context, merchantID uuid.UUID, line OrderLine, today time.Time) (RecipeWastePrevention, error) {
	rec := RecipeWastePrevention{
		RecipeID:         line.RecipeID,
		RecipeName:       line.RecipeName,
		EstimatedSavings: decimal.Zero,
	}
	rows, err := m.store.ListConsumableTrackingForUpdate(ctx, database.ListConsumableTrackingForUpdateParams{
		MerchantID: merchantID,
		RecipeID:   line.RecipeID,
	})
	if err != nil {
		return rec, fmt.Errorf("list tracking: %w", err)
	}
	if len(rows) == 0 {
		return rec, nil
	}

	var onHand int32
	for _, row := range rows {
		onHand += row.CurrentEstimatedQuantity
	}
	remaining := min(onHand, line.Quantity)
	if remaining <= 0 {
		return rec, nil
	}

	recipe, err := m.store.GetRecipe(ctx, line.RecipeID)
	if err != nil {
		return rec, fmt.Errorf("get recipe: %w", err)
	}
	unitCost := numericToDecimal(recipe.CostPerUnit)
	if rec.RecipeName == "" {
		rec.RecipeName = recipe.RecipeName
	}

	for _, row := range rows {
		if remaining == 0 {
			break
		}
		sold := min(row.CurrentEstimatedQuantity, remaining)
		if sold <= 0 {
			continue
		}
		nearExpiry := daysUntil(today, row.ExpirationDate) <= m.cfg.NearExpiryDays

		row.CurrentEstimatedQuantity -= sold
		if row.CurrentEstimatedQuantity == 0 {
			row.Status = enum.TrackingStatusSoldOut
			row.CollectionRequired = false
		} else {
			row.Status = freshness(today, row.ExpirationDate, m.cfg.NearExpiryDays)
		}
		if err := m.store.UpdateTrackingConsumption(ctx, database.UpdateTrackingConsumptionParams{
			ID:                       row.ID,
			CurrentEstimatedQuantity: row.CurrentEstimatedQuantity,
			Status:                   row.Status,
		}); err != nil {
			return rec, fmt.Errorf("update tracking %s: %w", row.ID, err)
		}

		if nearExpiry {
			rec.EstimatedSavings = rec.EstimatedSavings.Add(unitCost.Mul(decimal.NewFromInt32(sold)))
		}
		rec.QuantityPrevented += sold
		rec.UpdatedRows = append(rec.UpdatedRows, row)
		remaining -= sold
	}
	return rec, nil
}

func (m *WasteMatcher) shrinkCollections(ctx context.Context, merchantID uuid.UUID, today time.Time, prevented map[uuid.UUID]bool) (cancelled, reduced []uuid.UUID, err error) {
	collections, err := m.store.ListScheduledCollectionsForUpdate(ctx, database.ListScheduledCollectionsForUpdateParams{
		MerchantID: merchantID,
		Today:      pgDate(today),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list scheduled collections: %w", err)
	}

	for _, c := range collections {
		items, err := DecodeWasteItems(c.WasteItemsCollected)
		if err != nil {
			return nil, nil, fmt.Errorf("collection %s: %w", c.ID, err)
		}
		var kept []WasteItem
		for _, it := range items {
			if !prevented[it.RecipeID] {
				kept = append(kept, it)
			}
		}
		if len(kept) == len(items) {
			continue
		}

		if len(kept) == 0 {
			if err := m.store.CancelCollection(ctx, c.ID); err != nil {
				return nil, nil, fmt.Errorf("cancel collection %s: %w", c.ID, err)
			}
			m.logger.Info("waste collection cancelled", zap.String("collection_id", c.ID.String()))
			cancelled = append(cancelled, c.ID)
			continue
		}

		value, err := wasteValue(ctx, m.store, kept)
		if err != nil {
			return nil, nil, fmt.Errorf("collection %s: %w", c.ID, err)
		}
		raw, err := encodeWasteItems(kept)
		if err != nil {
			return nil, nil, err
		}
		if err := m.store.UpdateCollectionItems(ctx, database.UpdateCollectionItemsParams{
			ID:                  c.ID,
			WasteItemsCollected: raw,
			TotalWasteValue:     decimalToNumeric(value),
		}); err != nil {
			return nil, nil, fmt.Errorf("update collection %s: %w", c.ID, err)
		}
		reduced = append(reduced, c.ID)
	}
	return cancelled, reduced, nil
}

type recipeGetter interface {
	GetRecipe(ctx context.Context, id uuid.UUID) (database.Recipe, error)
}

// wasteValue prices waste items at recipe unit cost.
func wasteValue(ctx context.Context, store recipeGetter, items []WasteItem) (decimal.Decimal, error) {
	costs := make(map[uuid.UUID]decimal.Decimal)
	total := decimal.Zero
	for _, it := range items {
		cost, ok := costs[it.RecipeID]
		if !ok {
			recipe, err := store.GetRecipe(ctx, it.RecipeID)
			if err != nil {
				return decimal.Zero, fmt.Errorf("get recipe %s: %w", it.RecipeID, err)
			}
			cost = numericToDecimal(recipe.CostPerUnit)
			costs[it.RecipeID] = cost
		}
		total = total.Add(cost.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return total, nil
}

// WasteAlert flags stock about to expire at a merchant.
type WasteAlert struct {
	TrackingID          uuid.UUID       `json:"tracking_id"`
	MerchantID          uuid.UUID       `json:"merchant_id"`
	MerchantName        string          `json:"merchant_name"`
	RecipeID            uuid.UUID       `json:"recipe_id"`
	RecipeName          string          `json:"recipe_name"`
	Quantity            int32           `json:"quantity"`
	ExpirationDate      string          `json:"expiration_date"`
	DaysUntilExpiry     int             `json:"days_until_expiry"`
	EstimatedWasteValue decimal.Decimal `json:"estimated_waste_value"`
	CollectionRequired  bool            `json:"collection_required"`
}

// AlertReport is the outcome of one alert run.
type AlertReport struct {
	Alerts               []WasteAlert               `json:"alerts"`
	CollectionsScheduled []database.WasteManagement `json:"collections_scheduled"`
}

// CompleteCollectionRequest records what a driver actually picked up.
// Nil Items keeps the scheduled list.
type CompleteCollectionRequest struct {
	Items       []WasteItem
	DriverNotes string
}

// CollectionCompletedEvent is published for invoicing to issue the credit.
type CollectionCompletedEvent struct {
	CollectionID uuid.UUID       `json:"collection_id"`
	MerchantID   uuid.UUID       `json:"merchant_id"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Items        []WasteItem     `json:"items"`
}

// WasteService runs the scheduled waste workflows around the matcher.
type WasteService struct {
	deps Deps
}

// NewWasteService creates a new WasteService.
func NewWasteService(deps Deps) *WasteService {
	return &WasteService{deps: deps.withDefaults()}
}

// GenerateAlerts refreshes the status of stock expiring within the alert
// horizon, schedules one pickup per merchant for stock due today or past due,
// and notifies merchants after commit.
func (s *WasteService) GenerateAlerts(ctx context.Context) (*AlertReport, error) {
	cfg := s.deps.Config
	today := civilDate(s.deps.Now(), cfg.Location)

	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)

	rows, err := store.ListExpiringTracking(ctx, pgDate(today.AddDate(0, 0, cfg.AlertHorizonDays)))
	if err != nil {
		return nil, fmt.Errorf("list expiring tracking: %w", err)
	}

	report := &AlertReport{}
	var merchantOrder []uuid.UUID
	due := make(map[uuid.UUID][]WasteAlert)
	phones := make(map[uuid.UUID]string)
	counts := make(map[uuid.UUID]int)

	for _, row := range rows {
		days := daysUntil(today, row.ExpirationDate)
		status := freshness(today, row.ExpirationDate, cfg.NearExpiryDays)
		required := days <= 0
		if status != row.Status || required {
			if err := store.UpdateTrackingStatus(ctx, database.UpdateTrackingStatusParams{
				ID:                 row.ID,
				Status:             status,
				CollectionRequired: required,
			}); err != nil {
				return nil, fmt.Errorf("update tracking %s: %w", row.ID, err)
			}
		}

		alert := WasteAlert{
			TrackingID:          row.ID,
			MerchantID:          row.MerchantID,
			MerchantName:        row.BusinessName,
			RecipeID:            row.RecipeID,
			RecipeName:          row.RecipeName,
			Quantity:            row.CurrentEstimatedQuantity,
			ExpirationDate:      row.ExpirationDate.Time.Format(time.DateOnly),
			DaysUntilExpiry:     days,
			EstimatedWasteValue: numericToDecimal(row.CostPerUnit).Mul(decimal.NewFromInt32(row.CurrentEstimatedQuantity)),
			CollectionRequired:  required,
		}
		report.Alerts = append(report.Alerts, alert)

		if _, seen := counts[row.MerchantID]; !seen {
			merchantOrder = append(merchantOrder, row.MerchantID)
		}
		counts[row.MerchantID]++
		if row.ChatPhone.Valid {
			phones[row.MerchantID] = row.ChatPhone.String
		}
		if required {
			due[row.MerchantID] = append(due[row.MerchantID], alert)
		}
	}

	box := &outbox{}
	for _, merchantID := range merchantOrder {
		if alerts := due[merchantID]; len(alerts) > 0 {
			c, err := s.scheduleCollection(ctx, store, merchantID, today, alerts)
			if err != nil {
				return nil, err
			}
			if c != nil {
				report.CollectionsScheduled = append(report.CollectionsScheduled, *c)
			}
		}
		if phone, ok := phones[merchantID]; ok {
			box.notify(phone, fmt.Sprintf("%d product(s) at your store expire within %d days. Reorder now to avoid waste pickup.",
				counts[merchantID], cfg.AlertHorizonDays))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.deps.Logger.Info("waste alerts generated",
		zap.Int("alerts", len(report.Alerts)),
		zap.Int("collections_scheduled", len(report.CollectionsScheduled)))
	box.flush(ctx, s.deps)
	return report, nil
}

func (s *WasteService) scheduleCollection(ctx context.Context, store Store, merchantID uuid.UUID, today time.Time, alerts []WasteAlert) (*database.WasteManagement, error) {
	open, err := store.CountOpenCollections(ctx, database.CountOpenCollectionsParams{
		MerchantID: merchantID,
		Today:      pgDate(today),
	})
	if err != nil {
		return nil, fmt.Errorf("count open collections: %w", err)
	}
	if open > 0 {
		return nil, nil
	}

	items := make([]WasteItem, len(alerts))
	value := decimal.Zero
	for i, a := range alerts {
		items[i] = WasteItem{
			RecipeID:       a.RecipeID,
			RecipeName:     a.RecipeName,
			Quantity:       a.Quantity,
			ExpirationDate: a.ExpirationDate,
			Condition:      enum.TrackingStatusExpired,
		}
		value = value.Add(a.EstimatedWasteValue)
	}
	raw, err := encodeWasteItems(items)
	if err != nil {
		return nil, err
	}
	c, err := store.CreateWasteCollection(ctx, database.CreateWasteCollectionParams{
		MerchantID:              merchantID,
		ScheduledCollectionDate: pgDate(nextWeekday(today)),
		WasteItemsCollected:     raw,
		TotalWasteValue:         decimalToNumeric(value),
	})
	if err != nil {
		return nil, fmt.Errorf("create waste collection: %w", err)
	}
	return &c, nil
}

// CompleteCollection closes a pickup, credits the merchant for the collected
// value and retires the collected tracking rows.
func (s *WasteService) CompleteCollection(ctx context.Context, collectionID uuid.UUID, req CompleteCollectionRequest) (database.WasteManagement, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return database.WasteManagement{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)

	c, err := store.GetWasteCollectionForUpdate(ctx, collectionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.WasteManagement{}, ErrCollectionNotFound
		}
		return database.WasteManagement{}, fmt.Errorf("get collection: %w", err)
	}
	switch c.CollectionStatus {
	case enum.CollectionStatusScheduled, enum.CollectionStatusInProgress:
	default:
		return database.WasteManagement{}, fmt.Errorf("%w: collection is %s", ErrInvalidStateTransition, c.CollectionStatus)
	}

	items := req.Items
	if items == nil {
		items, err = DecodeWasteItems(c.WasteItemsCollected)
		if err != nil {
			return database.WasteManagement{}, err
		}
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return database.WasteManagement{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	value, err := wasteValue(ctx, store, items)
	if err != nil {
		return database.WasteManagement{}, err
	}
	raw, err := encodeWasteItems(items)
	if err != nil {
		return database.WasteManagement{}, err
	}

	done, err := store.CompleteWasteCollection(ctx, database.CompleteWasteCollectionParams{
		ID:                   c.ID,
		ActualCollectionDate: pgTime(s.deps.Now()),
		WasteItemsCollected:  raw,
		DriverNotes:          pgText(req.DriverNotes),
		TotalWasteValue:      decimalToNumeric(value),
	})
	if err != nil {
		return database.WasteManagement{}, fmt.Errorf("complete collection: %w", err)
	}

	marked := make(map[uuid.UUID]bool)
	for _, it := range items {
		if marked[it.RecipeID] {
			continue
		}
		marked[it.RecipeID] = true
		if err := store.MarkCollectedTracking(ctx, database.MarkCollectedTrackingParams{
			MerchantID: c.MerchantID,
			RecipeID:   it.RecipeID,
		}); err != nil {
			return database.WasteManagement{}, fmt.Errorf("mark tracking collected: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return database.WasteManagement{}, fmt.Errorf("commit tx: %w", err)
	}

	box := &outbox{}
	box.publish(SubjectCollectionCompleted, CollectionCompletedEvent{
		CollectionID: done.ID,
		MerchantID:   done.MerchantID,
		CreditAmount: value,
		Items:        items,
	})
	box.flush(ctx, s.deps)
	return done, nil
}
