package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// InventoryReport is the outcome of an availability check.
type InventoryReport struct {
	Available  bool        `json:"available"`
	Shortfalls []Shortfall `json:"shortfalls,omitempty"`
}

// Err returns an *InsufficientInventoryError when anything is short.
func (r InventoryReport) Err() error {
	if r.Available {
		return nil
	}
	return &InsufficientInventoryError{Shortfalls: r.Shortfalls}
}

// InventoryChecker compares ingredient requirements against on-hand stock.
// It never reserves or deducts anything.
type InventoryChecker struct {
	store InventoryStore
}

// NewInventoryChecker creates a new InventoryChecker.
func NewInventoryChecker(store InventoryStore) *InventoryChecker {
	return &InventoryChecker{store: store}
}

// Check expands each line's recipe into ingredient requirements scaled by the
// ordered quantity and reports every ingredient whose on-hand quantity falls
// short.
func (c *InventoryChecker) Check(ctx context.Context, lines []OrderLine) (InventoryReport, error) {
	report := InventoryReport{Available: true}
	for i, line := range lines {
		ingredients, err := c.store.ListRecipeIngredients(ctx, line.RecipeID)
		if err != nil {
			return InventoryReport{}, fmt.Errorf("item[%d]: list recipe ingredients: %w", i, err)
		}
		qty := decimal.NewFromInt32(line.Quantity)
		for _, ing := range ingredients {
			required := numericToDecimal(ing.QuantityRequired).Mul(qty)
			available := numericToDecimal(ing.CurrentQuantity)
			if available.LessThan(required) {
				report.Available = false
				report.Shortfalls = append(report.Shortfalls, Shortfall{
					Recipe:     line.RecipeName,
					Ingredient: ing.ItemName,
					Required:   required,
					Available:  available,
				})
			}
		}
	}
	return report, nil
}
