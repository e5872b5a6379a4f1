package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

// addRecipeWithIngredients inserts a recipe whose ingredient rows reference
// existing ingredients, then puts it in the user's cart.
func addRecipeToCart(t *testing.T, db *gorm.DB, userID uuid.UUID, amounts map[uuid.UUID]float64) {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    userID,
		Name:        fmt.Sprintf("recipe-%s", uuid.NewString()[:8]),
		Text:        "instructions",
		CookingTime: 10,
		ShortLink:   uuid.NewString()[:8],
	}
	require.NoError(t, db.Create(recipe).Error)

	for ingredientID, amount := range amounts {
		require.NoError(t, db.Create(&models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: ingredientID,
			Amount:       amount,
		}).Error)
	}

	require.NoError(t, db.Create(&models.ShoppingListItem{
		RecipeRelation: models.RecipeRelation{UserID: userID, RecipeID: recipe.ID},
	}).Error)
}

func TestBuildShoppingList(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewShoppingListService(db)
	user := testhelpers.CreateTestUser(t, db, "marge")

	flour := testhelpers.CreateTestIngredient(t, db, "flour", "g")
	sugar := testhelpers.CreateTestIngredient(t, db, "sugar", "g")

	addRecipeToCart(t, db, user.ID, map[uuid.UUID]float64{
		flour.ID: 200,
		sugar.ID: 50,
	})

	doc, err := svc.BuildShoppingList(context.Background(), user.ID)
	require.NoError(t, err)

	now := time.Now()
	assert.True(t, strings.HasPrefix(doc, "Shopping list for: Test User\n\n"), "unexpected header: %q", doc)
	assert.Contains(t, doc, fmt.Sprintf("Date: %s\n\n", now.Format("2006-01-02")))
	assert.Contains(t, doc, "- flour (g) - 200")
	assert.Contains(t, doc, "- sugar (g) - 50")
	assert.True(t, strings.HasSuffix(doc, fmt.Sprintf("\n\nFoodgram (%s)", now.Format("2006"))), "unexpected footer: %q", doc)

	// Lines are sorted by ingredient name.
	assert.Less(t, strings.Index(doc, "- flour"), strings.Index(doc, "- sugar"))
}

func TestBuildShoppingListAggregatesAcrossRecipes(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewShoppingListService(db)
	user := testhelpers.CreateTestUser(t, db, "homer")

	carrot := testhelpers.CreateTestIngredient(t, db, "carrot", "g")

	addRecipeToCart(t, db, user.ID, map[uuid.UUID]float64{carrot.ID: 100})
	addRecipeToCart(t, db, user.ID, map[uuid.UUID]float64{carrot.ID: 150})

	doc, err := svc.BuildShoppingList(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Contains(t, doc, "- carrot (g) - 250")
	assert.Equal(t, 1, strings.Count(doc, "carrot"), "same ingredient must appear once")
}

func TestBuildShoppingListTrimsFractionalAmounts(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewShoppingListService(db)
	user := testhelpers.CreateTestUser(t, db, "lisa")

	milk := testhelpers.CreateTestIngredient(t, db, "milk", "l")
	addRecipeToCart(t, db, user.ID, map[uuid.UUID]float64{milk.ID: 0.5})

	doc, err := svc.BuildShoppingList(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Contains(t, doc, "- milk (l) - 0.5")
}

func TestBuildShoppingListEmptyCart(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewShoppingListService(db)
	user := testhelpers.CreateTestUser(t, db, "bart")

	_, err := svc.BuildShoppingList(context.Background(), user.ID)
	assert.ErrorIs(t, err, service.ErrShoppingListEmpty)
}

func TestBuildShoppingListUnknownUser(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewShoppingListService(db)

	_, err := svc.BuildShoppingList(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
