package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ovenline/production-api/internal/database"
	"github.com/ovenline/production-api/internal/middleware"
	"github.com/ovenline/production-api/internal/service"
	"github.com/shopspring/decimal"
)

// PricingServicer manages merchant price lists.
// Satisfied by *service.PricingService.
type PricingServicer interface {
	Matrix(ctx context.Context, merchantID uuid.UUID) ([]database.ListActiveMerchantPricingRow, error)
	SetMerchantPricing(ctx context.Context, req service.SetPricingRequest) (database.MerchantPricing, error)
	Quote(ctx context.Context, merchantID uuid.UUID, lines []service.OrderLine) (service.PricingBreakdown, error)
}

type PricingHandler struct {
	svc PricingServicer
	loc *time.Location
}

func NewPricingHandler(svc PricingServicer, loc *time.Location) *PricingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PricingHandler{svc: svc, loc: loc}
}

// RegisterRoutes is mounted at /merchants/{mid}.
func (h *PricingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pricing", h.List)
	r.Put("/pricing", h.Set)
	r.Post("/quote", h.Quote)
}

type setPricingRequest struct {
	RecipeID       string          `json:"recipe_id"`
	Price          decimal.Decimal `json:"merchant_price"`
	Tier           string          `json:"price_tier"`
	EffectiveDate  string          `json:"effective_date"`
	ExpirationDate string          `json:"expiration_date"`
}

type quoteRequest struct {
	Items []orderLineRequest `json:"items"`
}

type pricingResponse struct {
	ID               uuid.UUID `json:"id"`
	RecipeID         uuid.UUID `json:"recipe_id"`
	RecipeName       string    `json:"recipe_name,omitempty"`
	BaseCost         string    `json:"base_cost"`
	MerchantPrice    string    `json:"merchant_price"`
	MarkupPercentage string    `json:"markup_percentage"`
	PriceTier        string    `json:"price_tier"`
	EffectiveDate    *string   `json:"effective_date"`
	ExpirationDate   *string   `json:"expiration_date"`
}

func (h *PricingHandler) List(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := urlUUID(w, r, "mid")
	if !ok {
		return
	}
	rows, err := h.svc.Matrix(r.Context(), merchantID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]pricingResponse, len(rows))
	for i, p := range rows {
		resp[i] = pricingResponse{
			ID:               p.ID,
			RecipeID:         p.RecipeID,
			RecipeName:       p.RecipeName,
			BaseCost:         numericString(p.BaseCost),
			MerchantPrice:    numericString(p.MerchantPrice),
			MarkupPercentage: numericString(p.MarkupPercentage),
			PriceTier:        p.PriceTier,
			EffectiveDate:    dateString(p.EffectiveDate),
			ExpirationDate:   dateString(p.ExpirationDate),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Set replaces the active price for one recipe. The previous row is expired,
// never updated in place.
func (h *PricingHandler) Set(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := urlUUID(w, r, "mid")
	if !ok {
		return
	}
	var req setPricingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recipeID, err := uuid.Parse(req.RecipeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid recipe_id")
		return
	}

	in := service.SetPricingRequest{
		MerchantID: merchantID,
		RecipeID:   recipeID,
		Price:      req.Price,
		Tier:       req.Tier,
	}
	if req.EffectiveDate != "" {
		if in.EffectiveDate, err = parseDate(req.EffectiveDate, h.loc); err != nil {
			writeError(w, http.StatusBadRequest, "effective_date must be YYYY-MM-DD")
			return
		}
	}
	if req.ExpirationDate != "" {
		d, err := parseDate(req.ExpirationDate, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expiration_date must be YYYY-MM-DD")
			return
		}
		in.ExpirationDate = &d
	}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		in.CreatedBy = claims.UserID
	}

	p, err := h.svc.SetMerchantPricing(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pricingResponse{
		ID:               p.ID,
		RecipeID:         p.RecipeID,
		BaseCost:         numericString(p.BaseCost),
		MerchantPrice:    numericString(p.MerchantPrice),
		MarkupPercentage: numericString(p.MarkupPercentage),
		PriceTier:        p.PriceTier,
		EffectiveDate:    dateString(p.EffectiveDate),
		ExpirationDate:   dateString(p.ExpirationDate),
	})
}

// Quote prices a prospective order without placing it.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := urlUUID(w, r, "mid")
	if !ok {
		return
	}
	var req quoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lines := make([]service.OrderLine, len(req.Items))
	for i, it := range req.Items {
		recipeID, err := uuid.Parse(it.RecipeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid recipe_id in items")
			return
		}
		lines[i] = service.OrderLine{RecipeID: recipeID, Quantity: it.Quantity}
	}

	breakdown, err := h.svc.Quote(r.Context(), merchantID, lines)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}
