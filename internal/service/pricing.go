package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/config"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ResolvedPrice is the price a merchant pays for one unit of a recipe before
// volume discounts.
type ResolvedPrice struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Tier      string          `json:"tier"`
	BaseCost  decimal.Decimal `json:"base_cost"`
	Default   bool            `json:"default"`
}

// OrderLine is one requested recipe and quantity.
type OrderLine struct {
	RecipeID   uuid.UUID
	RecipeName string
	Quantity   int32
}

// PricedLine is an order line after price resolution and discount.
type PricedLine struct {
	RecipeID        uuid.UUID       `json:"recipe_id"`
	RecipeName      string          `json:"recipe_name"`
	Quantity        int32           `json:"quantity"`
	BasePrice       decimal.Decimal `json:"base_price"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	LineTotal       decimal.Decimal `json:"line_total"`
	Tier            string          `json:"tier"`
	DiscountApplied bool            `json:"discount_applied"`
	BaseCost        decimal.Decimal `json:"base_cost"`
}

// PricingBreakdown is the priced form of a whole order.
type PricingBreakdown struct {
	Total decimal.Decimal `json:"total"`
	Lines []PricedLine    `json:"lines"`
}

// OrderLines converts the breakdown back to plain order lines with names filled in.
func (b PricingBreakdown) OrderLines() []OrderLine {
	lines := make([]OrderLine, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = OrderLine{RecipeID: l.RecipeID, RecipeName: l.RecipeName, Quantity: l.Quantity}
	}
	return lines
}

type discountStep struct {
	minQty  int32
	percent int64
}

// volumeDiscounts is ordered by ascending threshold per tier.
var volumeDiscounts = map[string][]discountStep{
	enum.PriceTierStandard: {{10, 5}, {25, 10}, {50, 15}},
	enum.PriceTierVolume:   {{5, 10}, {15, 15}, {30, 20}},
	enum.PriceTierPremium:  nil,
}

func isValidTier(tier string) bool {
	_, ok := volumeDiscounts[tier]
	return ok
}

// ApplyVolumeDiscount returns the unit price after the highest discount
// threshold met for the tier. Thresholds do not stack.
func ApplyVolumeDiscount(tier string, quantity int32, basePrice decimal.Decimal) decimal.Decimal {
	percent := int64(0)
	for _, s := range volumeDiscounts[tier] {
		if quantity >= s.minQty {
			percent = s.percent
		}
	}
	if percent == 0 {
		return basePrice
	}
	factor := decimal.NewFromInt(100 - percent).Div(decimal.NewFromInt(100))
	return basePrice.Mul(factor).Round(2)
}

// PricingResolver resolves merchant prices inside the caller's transaction.
type PricingResolver struct {
	store PricingStore
	cache PriceCache
	cfg   config.ProductionConfig
	now   func() time.Time
}

// NewPricingResolver creates a new PricingResolver.
func NewPricingResolver(store PricingStore, cache PriceCache, cfg config.ProductionConfig, now func() time.Time) *PricingResolver {
	return &PricingResolver{store: store, cache: cache, cfg: cfg, now: now}
}

// ResolvePrice returns the active merchant price for the recipe, or the
// default cost-plus price when the merchant has none. Results are cached.
func (r *PricingResolver) ResolvePrice(ctx context.Context, merchantID, recipeID uuid.UUID) (ResolvedPrice, error) {
	if p, ok := r.cache.Get(ctx, merchantID, recipeID); ok {
		return p, nil
	}

	today := civilDate(r.now(), r.cfg.Location)
	row, err := r.store.GetActiveMerchantPricing(ctx, database.GetActiveMerchantPricingParams{
		MerchantID: merchantID,
		RecipeID:   recipeID,
		Today:      pgDate(today),
	})
	var price ResolvedPrice
	switch {
	case err == nil:
		price = ResolvedPrice{
			UnitPrice: numericToDecimal(row.MerchantPrice),
			Tier:      row.PriceTier,
			BaseCost:  numericToDecimal(row.BaseCost),
		}
	case errors.Is(err, pgx.ErrNoRows):
		price, err = r.defaultPrice(ctx, recipeID)
		if err != nil {
			return ResolvedPrice{}, err
		}
	default:
		return ResolvedPrice{}, fmt.Errorf("get merchant pricing: %w", err)
	}

	r.cache.Set(ctx, merchantID, recipeID, price)
	return price, nil
}

func (r *PricingResolver) defaultPrice(ctx context.Context, recipeID uuid.UUID) (ResolvedPrice, error) {
	recipe, err := r.store.GetRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResolvedPrice{}, ErrMissingPricing
		}
		return ResolvedPrice{}, fmt.Errorf("get recipe: %w", err)
	}
	if !recipe.IsActive {
		return ResolvedPrice{}, ErrMissingPricing
	}
	base, err := ingredientCost(ctx, r.store, recipeID)
	if err != nil {
		return ResolvedPrice{}, err
	}
	if !base.IsPositive() {
		return ResolvedPrice{}, ErrMissingPricing
	}
	return ResolvedPrice{
		UnitPrice: base.Mul(r.cfg.DefaultMarkup).Round(2),
		Tier:      enum.PriceTierStandard,
		BaseCost:  base,
		Default:   true,
	}, nil
}

type ingredientLister interface {
	ListRecipeIngredients(ctx context.Context, recipeID uuid.UUID) ([]database.ListRecipeIngredientsRow, error)
}

// ingredientCost is the cost of producing one unit of the recipe:
// the sum of ingredient unit cost times required quantity.
func ingredientCost(ctx context.Context, store ingredientLister, recipeID uuid.UUID) (decimal.Decimal, error) {
	rows, err := store.ListRecipeIngredients(ctx, recipeID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list recipe ingredients: %w", err)
	}
	total := decimal.Zero
	for _, ing := range rows {
		total = total.Add(numericToDecimal(ing.CostPerUnit).Mul(numericToDecimal(ing.QuantityRequired)))
	}
	return total, nil
}

// CalculateOrderTotal prices every line. Any line without a resolvable price
// fails the whole order with a *MissingPricingError naming all such recipes.
func (r *PricingResolver) CalculateOrderTotal(ctx context.Context, merchantID uuid.UUID, lines []OrderLine) (PricingBreakdown, error) {
	var missing []string
	breakdown := PricingBreakdown{Total: decimal.Zero}

	for i, line := range lines {
		name := line.RecipeName
		recipe, err := r.store.GetRecipe(ctx, line.RecipeID)
		switch {
		case err == nil:
			name = recipe.RecipeName
		case errors.Is(err, pgx.ErrNoRows):
			if name == "" {
				name = line.RecipeID.String()
			}
			missing = append(missing, name)
			continue
		default:
			return PricingBreakdown{}, fmt.Errorf("item[%d]: get recipe: %w", i, err)
		}
		if !recipe.IsActive {
			missing = append(missing, name)
			continue
		}

		price, err := r.ResolvePrice(ctx, merchantID, line.RecipeID)
		if err != nil {
			if errors.Is(err, ErrMissingPricing) {
				missing = append(missing, name)
				continue
			}
			return PricingBreakdown{}, fmt.Errorf("item[%d]: %w", i, err)
		}

		unit := ApplyVolumeDiscount(price.Tier, line.Quantity, price.UnitPrice)
		lineTotal := unit.Mul(decimal.NewFromInt32(line.Quantity)).Round(2)
		breakdown.Lines = append(breakdown.Lines, PricedLine{
			RecipeID:        line.RecipeID,
			RecipeName:      name,
			Quantity:        line.Quantity,
			BasePrice:       price.UnitPrice,
			UnitPrice:       unit,
			LineTotal:       lineTotal,
			Tier:            price.Tier,
			DiscountApplied: unit.LessThan(price.UnitPrice),
			BaseCost:        price.BaseCost,
		})
		breakdown.Total = breakdown.Total.Add(lineTotal)
	}

	if len(missing) > 0 {
		return PricingBreakdown{}, &MissingPricingError{Recipes: missing}
	}
	return breakdown, nil
}

// SetPricingRequest is the validated input for setting a merchant price.
type SetPricingRequest struct {
	MerchantID     uuid.UUID
	RecipeID       uuid.UUID
	Price          decimal.Decimal
	Tier           string
	EffectiveDate  time.Time // zero means today
	ExpirationDate *time.Time
	CreatedBy      uuid.UUID
}

// PricingService manages the merchant price list.
type PricingService struct {
	deps Deps
}

// NewPricingService creates a new PricingService.
func NewPricingService(deps Deps) *PricingService {
	return &PricingService{deps: deps.withDefaults()}
}

// SetMerchantPricing expires the pair's current price and records the new
// one. The cache entry is dropped once the write commits.
func (s *PricingService) SetMerchantPricing(ctx context.Context, req SetPricingRequest) (database.MerchantPricing, error) {
	if !req.Price.IsPositive() {
		return database.MerchantPricing{}, ErrInvalidPrice
	}
	if req.Tier == "" {
		req.Tier = enum.PriceTierStandard
	}
	if !isValidTier(req.Tier) {
		return database.MerchantPricing{}, ErrInvalidTier
	}
	loc := s.deps.Config.Location
	effective := civilDate(s.deps.Now(), loc)
	if !req.EffectiveDate.IsZero() {
		effective = civilDate(req.EffectiveDate, loc)
	}
	var expiration pgtype.Date
	if req.ExpirationDate != nil {
		exp := civilDate(*req.ExpirationDate, loc)
		if exp.Before(effective) {
			return database.MerchantPricing{}, ErrInvalidDateRange
		}
		expiration = pgDate(exp)
	}

	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return database.MerchantPricing{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)

	if _, err := store.GetMerchant(ctx, req.MerchantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MerchantPricing{}, ErrMerchantNotFound
		}
		return database.MerchantPricing{}, fmt.Errorf("get merchant: %w", err)
	}
	recipe, err := store.GetRecipe(ctx, req.RecipeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.MerchantPricing{}, ErrRecipeNotFound
		}
		return database.MerchantPricing{}, fmt.Errorf("get recipe: %w", err)
	}

	base, err := ingredientCost(ctx, store, req.RecipeID)
	if err != nil {
		return database.MerchantPricing{}, err
	}
	if !base.IsPositive() {
		base = numericToDecimal(recipe.CostPerUnit)
	}
	markup := decimal.Zero
	if base.IsPositive() {
		markup = req.Price.Sub(base).Div(base).Mul(decimal.NewFromInt(100)).Round(2)
	}

	if err := store.ExpireMerchantPricing(ctx, database.ExpireMerchantPricingParams{
		MerchantID:     req.MerchantID,
		RecipeID:       req.RecipeID,
		ExpirationDate: pgDate(effective.AddDate(0, 0, -1)),
		EffectiveDate:  pgDate(effective),
	}); err != nil {
		return database.MerchantPricing{}, fmt.Errorf("expire merchant pricing: %w", err)
	}

	createdBy := pgUUID(req.CreatedBy)
	if req.CreatedBy == uuid.Nil {
		createdBy.Valid = false
	}
	row, err := store.CreateMerchantPricing(ctx, database.CreateMerchantPricingParams{
		MerchantID:       req.MerchantID,
		RecipeID:         req.RecipeID,
		BaseCost:         decimalToNumeric(base),
		MerchantPrice:    decimalToNumeric(req.Price),
		MarkupPercentage: decimalToNumeric(markup),
		EffectiveDate:    pgDate(effective),
		ExpirationDate:   expiration,
		PriceTier:        req.Tier,
		CreatedByUserID:  createdBy,
	})
	if err != nil {
		return database.MerchantPricing{}, fmt.Errorf("create merchant pricing: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.MerchantPricing{}, fmt.Errorf("commit tx: %w", err)
	}

	s.invalidate(ctx, req.MerchantID, req.RecipeID)
	if delay := s.deps.Config.CacheRedeleteDelay; delay > 0 {
		// A resolve that read the old row before commit may refill the key
		// after the first delete.
		bg := context.WithoutCancel(ctx)
		time.AfterFunc(delay, func() { s.invalidate(bg, req.MerchantID, req.RecipeID) })
	}
	return row, nil
}

func (s *PricingService) invalidate(ctx context.Context, merchantID, recipeID uuid.UUID) {
	if err := s.deps.Cache.Invalidate(ctx, merchantID, recipeID); err != nil {
		s.deps.Logger.Warn("price cache invalidation failed",
			zap.String("merchant_id", merchantID.String()),
			zap.String("recipe_id", recipeID.String()),
			zap.Error(err))
	}
}

// Matrix lists the merchant's currently active prices.
func (s *PricingService) Matrix(ctx context.Context, merchantID uuid.UUID) ([]database.ListActiveMerchantPricingRow, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.deps.NewStore(tx)
	if _, err := store.GetMerchant(ctx, merchantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("get merchant: %w", err)
	}
	rows, err := store.ListActiveMerchantPricing(ctx, database.ListActiveMerchantPricingParams{
		MerchantID: merchantID,
		Today:      pgDate(civilDate(s.deps.Now(), s.deps.Config.Location)),
	})
	if err != nil {
		return nil, fmt.Errorf("list merchant pricing: %w", err)
	}
	return rows, nil
}

// Quote prices an order for a merchant without writing anything.
func (s *PricingService) Quote(ctx context.Context, merchantID uuid.UUID, lines []OrderLine) (PricingBreakdown, error) {
	tx, err := s.deps.Pool.Begin(ctx)
	if err != nil {
		return PricingBreakdown{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	resolver := NewPricingResolver(s.deps.NewStore(tx), s.deps.Cache, s.deps.Config, s.deps.Now)
	return resolver.CalculateOrderTotal(ctx, merchantID, lines)
}
