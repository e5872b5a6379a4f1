package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// ShoppingListService builds the aggregated purchase list for a user's cart.
type ShoppingListService struct {
	db *gorm.DB
}

// NewShoppingListService creates a new ShoppingListService instance
func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// shoppingListRow is one aggregated (ingredient, unit) group.
type shoppingListRow struct {
	Name            string
	MeasurementUnit string
	Amount          float64
}

// BuildShoppingList reads every ingredient of every recipe in the user's
// cart, sums amounts per (name, unit) pair and renders the plain-text
// document. An empty cart yields ErrShoppingListEmpty rather than an empty
// document.
func (s *ShoppingListService) BuildShoppingList(ctx context.Context, userID uuid.UUID) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrNotFound
		}
		return "", err
	}

	var cartSize int64
	if err := s.db.WithContext(ctx).Model(&models.ShoppingListItem{}).
		Where("user_id = ?", userID).Count(&cartSize).Error; err != nil {
		return "", err
	}
	if cartSize == 0 {
		return "", ErrShoppingListEmpty
	}

	var rows []shoppingListRow
	err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_list_items ON shopping_list_items.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_list_items.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC").
		Scan(&rows).Error
	if err != nil {
		return "", err
	}

	return renderShoppingList(&user, rows, time.Now()), nil
}

func renderShoppingList(user *models.User, rows []shoppingListRow, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for: %s\n\n", user.FullName())
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format("2006-01-02"))
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("- %s (%s) - %s",
			row.Name, row.MeasurementUnit, formatAmount(row.Amount)))
	}
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Fprintf(&b, "\n\nFoodgram (%s)", now.Format("2006"))
	return b.String()
}

// formatAmount prints whole numbers bare and fractional amounts with up to
// two decimals, matching the decimal(6,2) column precision.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
