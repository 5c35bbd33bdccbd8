package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errors returned by the production services.
var (
	ErrEmptyItems             = errors.New("items are required")
	ErrInvalidQuantity        = errors.New("quantity must be > 0")
	ErrInvalidPrice           = errors.New("price must be > 0")
	ErrInvalidTier            = errors.New("invalid price_tier")
	ErrInvalidDateRange       = errors.New("expiration_date must not precede effective_date")
	ErrDeliveryInPast         = errors.New("delivery date is in the past")
	ErrMerchantNotFound       = errors.New("merchant not found")
	ErrMerchantInactive       = errors.New("merchant account is not active")
	ErrRecipeNotFound         = errors.New("recipe not found")
	ErrOrderNotFound          = errors.New("order not found")
	ErrTicketNotFound         = errors.New("job ticket not found")
	ErrStepNotFound           = errors.New("job ticket step not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrCollectionNotFound     = errors.New("waste collection not found")
	ErrCreditExceeded         = errors.New("credit limit exceeded")
	ErrMissingPricing         = errors.New("missing pricing")
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrNoWorkflowAvailable    = errors.New("no active standard workflow")
	ErrInvalidWorkflow        = errors.New("invalid workflow template")
	ErrUnauthorized           = errors.New("user cannot work this step")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConfiguration          = errors.New("configuration error")
)

// CreditExceededError carries the exposure figures behind a credit rejection.
type CreditExceededError struct {
	Outstanding decimal.Decimal
	Limit       decimal.Decimal
}

func (e *CreditExceededError) Error() string {
	return fmt.Sprintf("Credit limit exceeded. Outstanding: $%s, Limit: $%s. Please clear outstanding invoices before placing new orders.",
		e.Outstanding.StringFixed(2), e.Limit.StringFixed(2))
}

func (e *CreditExceededError) Unwrap() error { return ErrCreditExceeded }

// MissingPricingError lists every recipe of an order that has no resolvable price.
type MissingPricingError struct {
	Recipes []string
}

func (e *MissingPricingError) Error() string {
	return "Pricing not found for: " + strings.Join(e.Recipes, ", ")
}

func (e *MissingPricingError) Unwrap() error { return ErrMissingPricing }

// Shortfall is one ingredient an order line cannot be produced without.
type Shortfall struct {
	Recipe     string          `json:"recipe"`
	Ingredient string          `json:"ingredient"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
}

func (s Shortfall) String() string {
	return fmt.Sprintf("%s needs %s %s, only %s available",
		s.Recipe, s.Required.String(), s.Ingredient, s.Available.String())
}

// InsufficientInventoryError lists every shortfall found for an order.
type InsufficientInventoryError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientInventoryError) Error() string {
	msgs := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		msgs[i] = s.String()
	}
	return "Insufficient inventory: " + strings.Join(msgs, "; ")
}

func (e *InsufficientInventoryError) Unwrap() error { return ErrInsufficientInventory }

// ConfigurationError reports a workflow step nobody on staff can take.
// It is logged and never aborts the ticket.
type ConfigurationError struct {
	TicketNumber string
	StepNumber   int32
	Capability   string
	Reason       string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s step %d (%s): %s", e.TicketNumber, e.StepNumber, e.Capability, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
