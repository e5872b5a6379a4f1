package service

import (
	"fmt"

	"github.com/google/uuid"
)

// Authoring bounds. Cooking time and amount limits mirror the column types
// (positive integer, decimal(6,2)).
const (
	MinCookingTime      = 1
	MaxCookingTime      = 32000
	MaxIngredientAmount = 10000
)

// IngredientInput is one (ingredient, amount) pair of a recipe payload.
type IngredientInput struct {
	ID     uuid.UUID
	Amount float64
}

// RecipeInput is the write shape of a recipe, shared by create and update.
type RecipeInput struct {
	Name        string
	Text        string
	ImageURL    string
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientInput
}

// ValidateRecipeInput enforces the recipe-level invariants before any write:
// non-empty unique tags, non-empty unique ingredients with positive bounded
// amounts, cooking time within bounds. Each violation is a distinct
// field-scoped error.
func ValidateRecipeInput(in *RecipeInput) error {
	if in.Name == "" {
		return fieldErr("name", "name is required")
	}
	if in.Text == "" {
		return fieldErr("text", "description is required")
	}
	if in.CookingTime < MinCookingTime || in.CookingTime > MaxCookingTime {
		return fieldErr("cooking_time",
			fmt.Sprintf("cooking time must be between %d and %d", MinCookingTime, MaxCookingTime))
	}

	if len(in.TagIDs) == 0 {
		return fieldErr("tags", "choose at least one tag")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if _, dup := seenTags[id]; dup {
			return fieldErr("tags", "tags must not repeat")
		}
		seenTags[id] = struct{}{}
	}

	if len(in.Ingredients) == 0 {
		return fieldErr("ingredients", "choose at least one ingredient")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if item.Amount <= 0 {
			return fieldErr("amount", "amount must be positive")
		}
		if item.Amount > MaxIngredientAmount {
			return fieldErr("amount",
				fmt.Sprintf("amount must not exceed %d", MaxIngredientAmount))
		}
		if _, dup := seenIngredients[item.ID]; dup {
			return fieldErr("ingredients", "ingredients must not repeat")
		}
		seenIngredients[item.ID] = struct{}{}
	}

	return nil
}
