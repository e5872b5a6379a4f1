package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

type recipeTestEnv struct {
	db     *gorm.DB
	svc    *service.RecipeService
	author *models.User
	tag    *models.Tag
	flour  *models.Ingredient
	sugar  *models.Ingredient
}

func setupRecipeTest(t *testing.T) *recipeTestEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	return &recipeTestEnv{
		db:     db,
		svc:    service.NewRecipeService(db),
		author: testhelpers.CreateTestUser(t, db, "author"),
		tag:    testhelpers.CreateTestTag(t, db, "breakfast"),
		flour:  testhelpers.CreateTestIngredient(t, db, "flour", "g"),
		sugar:  testhelpers.CreateTestIngredient(t, db, "sugar", "g"),
	}
}

func (e *recipeTestEnv) input() *service.RecipeInput {
	return &service.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry",
		CookingTime: 20,
		TagIDs:      []uuid.UUID{e.tag.ID},
		Ingredients: []service.IngredientInput{
			{ID: e.flour.ID, Amount: 200},
			{ID: e.sugar.ID, Amount: 50},
		},
	}
}

func TestCreateRecipe(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, env.author.ID, recipe.AuthorID)
	assert.Len(t, recipe.ShortLink, service.ShortLinkLength)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Name)
	require.Len(t, recipe.Ingredients, 2)
}

func TestCreateRecipeShortLinksAreUnique(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	first, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)
	second, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	assert.NotEqual(t, first.ShortLink, second.ShortLink)
}

func TestCreateRecipeRejectsInvalidInput(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	in := env.input()
	in.TagIDs = nil
	_, err := env.svc.CreateRecipe(ctx, env.author.ID, in)

	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "tags", fieldErr.Field)

	// Nothing was written.
	var n int64
	env.db.Model(&models.Recipe{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateRecipeUnknownIngredientRollsBack(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	in := env.input()
	in.Ingredients = append(in.Ingredients, service.IngredientInput{ID: uuid.New(), Amount: 10})
	_, err := env.svc.CreateRecipe(ctx, env.author.ID, in)

	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "ingredients", fieldErr.Field)

	var n int64
	env.db.Model(&models.Recipe{}).Count(&n)
	assert.Zero(t, n, "failed create must not leave a recipe row behind")
}

func TestUpdateRecipe(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)
	originalLink := recipe.ShortLink

	in := env.input()
	in.Name = "Crepes"
	in.Ingredients = []service.IngredientInput{{ID: env.flour.ID, Amount: 300}}

	updated, err := env.svc.UpdateRecipe(ctx, env.author.ID, recipe.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Crepes", updated.Name)
	assert.Equal(t, originalLink, updated.ShortLink, "short link must survive updates")
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, env.flour.ID, updated.Ingredients[0].IngredientID)
	assert.Equal(t, float64(300), updated.Ingredients[0].Amount)

	// The replaced rows are gone, not orphaned.
	var n int64
	env.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestUpdateRecipeOnlyByAuthor(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()
	other := testhelpers.CreateTestUser(t, env.db, "other")

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	_, err = env.svc.UpdateRecipe(ctx, other.ID, recipe.ID, env.input())
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestUpdateRecipeNotFound(t *testing.T) {
	env := setupRecipeTest(t)

	_, err := env.svc.UpdateRecipe(context.Background(), env.author.ID, uuid.New(), env.input())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)
	require.NoError(t, env.svc.FavoriteRecipe(ctx, env.author.ID, recipe.ID))

	require.NoError(t, env.svc.DeleteRecipe(ctx, env.author.ID, recipe.ID))

	_, err = env.svc.GetRecipe(ctx, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var n int64
	env.db.Model(&models.Favorite{}).Where("recipe_id = ?", recipe.ID).Count(&n)
	assert.Zero(t, n, "favorites must be cleared with the recipe")
}

func TestDeleteRecipeOnlyByAuthor(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()
	other := testhelpers.CreateTestUser(t, env.db, "other")

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeleteRecipe(ctx, other.ID, recipe.ID), service.ErrForbidden)
}

func TestGetRecipeByShortLink(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	found, err := env.svc.GetRecipeByShortLink(ctx, recipe.ShortLink)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, found.ID)

	_, err = env.svc.GetRecipeByShortLink(ctx, "nosuch00")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFavoriteRecipe(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, env.db, "reader")

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	require.NoError(t, env.svc.FavoriteRecipe(ctx, user.ID, recipe.ID))
	assert.True(t, env.svc.IsFavorited(ctx, user.ID, recipe.ID))

	// Second add is rejected and leaves a single row.
	err = env.svc.FavoriteRecipe(ctx, user.ID, recipe.ID)
	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "favorite", fieldErr.Field)

	var n int64
	env.db.Model(&models.Favorite{}).Where("user_id = ?", user.ID).Count(&n)
	assert.Equal(t, int64(1), n)

	require.NoError(t, env.svc.UnfavoriteRecipe(ctx, user.ID, recipe.ID))
	assert.False(t, env.svc.IsFavorited(ctx, user.ID, recipe.ID))

	// Removing again is an error.
	err = env.svc.UnfavoriteRecipe(ctx, user.ID, recipe.ID)
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "favorite", fieldErr.Field)
}

func TestFavoriteUnknownRecipe(t *testing.T) {
	env := setupRecipeTest(t)
	user := testhelpers.CreateTestUser(t, env.db, "reader")

	assert.ErrorIs(t, env.svc.FavoriteRecipe(context.Background(), user.ID, uuid.New()), service.ErrNotFound)
}

func TestShoppingListRelation(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, env.db, "shopper")

	recipe, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	require.NoError(t, env.svc.AddToShoppingList(ctx, user.ID, recipe.ID))
	assert.True(t, env.svc.IsInShoppingList(ctx, user.ID, recipe.ID))

	err = env.svc.AddToShoppingList(ctx, user.ID, recipe.ID)
	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "shopping_cart", fieldErr.Field)

	require.NoError(t, env.svc.RemoveFromShoppingList(ctx, user.ID, recipe.ID))
	assert.False(t, env.svc.IsInShoppingList(ctx, user.ID, recipe.ID))
}

func TestListRecipes(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()
	reader := testhelpers.CreateTestUser(t, env.db, "reader")

	first, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
	require.NoError(t, err)

	dinner := testhelpers.CreateTestTag(t, env.db, "dinner")
	in := env.input()
	in.Name = "Soup"
	in.TagIDs = []uuid.UUID{dinner.ID}
	second, err := env.svc.CreateRecipe(ctx, env.author.ID, in)
	require.NoError(t, err)

	require.NoError(t, env.svc.FavoriteRecipe(ctx, reader.ID, first.ID))
	require.NoError(t, env.svc.AddToShoppingList(ctx, reader.ID, second.ID))

	all, count, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, all, 2)

	byTag, count, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{TagSlugs: []string{"dinner"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, byTag, 1)
	assert.Equal(t, second.ID, byTag[0].ID)

	favorited, _, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{FavoritedBy: &reader.ID})
	require.NoError(t, err)
	require.Len(t, favorited, 1)
	assert.Equal(t, first.ID, favorited[0].ID)

	inCart, _, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{InCartOf: &reader.ID})
	require.NoError(t, err)
	require.Len(t, inCart, 1)
	assert.Equal(t, second.ID, inCart[0].ID)

	byAuthor, count, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{Author: &env.author.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, byAuthor, 2)
}

func TestListRecipesPagination(t *testing.T) {
	env := setupRecipeTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.svc.CreateRecipe(ctx, env.author.ID, env.input())
		require.NoError(t, err)
	}

	page, count, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, page, 2)

	rest, _, err := env.svc.ListRecipes(ctx, &service.RecipeFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
