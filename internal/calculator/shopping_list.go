package calculator

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrEmptyCart is returned when a user has nothing to shop for.
	ErrEmptyCart = errors.New("shopping cart is empty")

	// ErrInvalidState is returned when the cart does not belong to the caller.
	ErrInvalidState = errors.New("shopping cart does not belong to the caller")

	// ErrNegativeAmount is returned for an ingredient amount below zero.
	ErrNegativeAmount = errors.New("ingredient amount cannot be negative")
)

// Portion is one ingredient amount linked to a recipe.
type Portion struct {
	Name   string
	Unit   string
	Amount int
}

// CartRecipe is a recipe in the cart with the portions it links to.
type CartRecipe struct {
	ID       string
	Portions []Portion
}

// Cart is the minimal view of a shopping cart needed for aggregation.
type Cart struct {
	OwnerID string
	Recipes []CartRecipe
}

// ShoppingItem is one line of the shopping list.
type ShoppingItem struct {
	Name  string
	Unit  string
	Total int
}

type itemKey struct {
	name string
	unit string
}

// BuildShoppingList sums ingredient amounts across every recipe in the cart.
//
// Portions are grouped by exact (name, unit), not by ingredient ID, so distinct
// ingredient rows with the same name and unit merge into one line. A portion
// shared by two recipes counts once per recipe. The result is sorted by name,
// then unit. An empty cart yields an empty list.
func BuildShoppingList(ownerID string, cart Cart) ([]ShoppingItem, error) {
	if cart.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: owner %q, caller %q", ErrInvalidState, cart.OwnerID, ownerID)
	}

	totals := make(map[itemKey]int)
	for _, recipe := range cart.Recipes {
		for _, p := range recipe.Portions {
			if p.Amount < 0 {
				return nil, fmt.Errorf("%w: %s (%s) = %d in recipe %s", ErrNegativeAmount, p.Name, p.Unit, p.Amount, recipe.ID)
			}
			totals[itemKey{name: p.Name, unit: p.Unit}] += p.Amount
		}
	}

	items := make([]ShoppingItem, 0, len(totals))
	for key, total := range totals {
		items = append(items, ShoppingItem{Name: key.name, Unit: key.unit, Total: total})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Unit < items[j].Unit
	})

	return items, nil
}
