package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/ovenline/production-api/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func urlUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

type errorBody struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// writeServiceError maps a service error onto an HTTP status. Business rule
// rejections are 422, validation 400, permission 403, state conflicts 409.
// Anything unrecognized is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		credit  *service.CreditExceededError
		pricing *service.MissingPricingError
		stock   *service.InsufficientInventoryError
		cfgErr  *service.ConfigurationError
	)
	switch {
	case errors.As(err, &credit):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: credit.Error(),
			Code:  "credit_exceeded",
			Details: map[string]string{
				"outstanding": credit.Outstanding.StringFixed(2),
				"limit":       credit.Limit.StringFixed(2),
			},
		})
	case errors.As(err, &pricing):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: pricing.Error(), Code: "missing_pricing", Details: pricing.Recipes})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: stock.Error(), Code: "insufficient_inventory", Details: stock.Shortfalls})
	case errors.Is(err, service.ErrMerchantInactive):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "merchant_inactive"})
	case errors.Is(err, service.ErrNoWorkflowAvailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "no_workflow"})

	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidTier),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrDeliveryInPast):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrMerchantNotFound),
		errors.Is(err, service.ErrRecipeNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrStepNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrCollectionNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.As(err, &cfgErr), errors.Is(err, service.ErrInvalidWorkflow):
		zap.L().Error("production configuration error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "configuration"})

	default:
		zap.L().Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).StringFixed(2)
}

func optNumeric(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericString(n)
	return &s
}

func dateString(d pgtype.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.Time.Format(time.DateOnly)
	return &s
}

func optTime(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func optUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func optText(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// parseDate reads YYYY-MM-DD in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, loc)
}
