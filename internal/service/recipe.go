package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// RecipeService handles recipe authoring, lookup and the per-recipe
// favorite/cart relations.
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// RecipeFilter narrows ListRecipes results.
type RecipeFilter struct {
	Author      *uuid.UUID
	TagSlugs    []string
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
	Limit       int
	Offset      int
}

// CreateRecipe validates the payload and writes the recipe, its tag
// associations and its ingredient rows in one transaction. The short link is
// assigned here, on first save, and never changes afterwards.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, in *RecipeInput) (*models.Recipe, error) {
	if err := ValidateRecipeInput(in); err != nil {
		return nil, err
	}

	var created models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		if err := checkIngredientsExist(tx, in.Ingredients); err != nil {
			return err
		}

		link, err := UniqueShortLink(func(token string) (bool, error) {
			var n int64
			if err := tx.Model(&models.Recipe{}).Where("short_link = ?", token).Count(&n).Error; err != nil {
				return false, err
			}
			return n > 0, nil
		})
		if err != nil {
			return err
		}

		created = models.Recipe{
			AuthorID:    authorID,
			Name:        in.Name,
			Text:        in.Text,
			ImageURL:    in.ImageURL,
			CookingTime: in.CookingTime,
			ShortLink:   link,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if err := tx.Model(&created).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return insertIngredients(tx, created.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, created.ID)
}

// UpdateRecipe replaces the recipe row, its tag set and its ingredient rows
// atomically. Only the author may update; the short link is left untouched.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID uuid.UUID, in *RecipeInput) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrForbidden
	}
	if err := ValidateRecipeInput(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		if err := checkIngredientsExist(tx, in.Ingredients); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.ImageURL != "" {
			updates["image_url"] = in.ImageURL
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		// Full replacement, not a diff: drop every existing row and re-insert.
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return insertIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, recipeID)
}

// GetRecipe retrieves a recipe with its tags, ingredients and author.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// GetRecipeByShortLink resolves a share token to its recipe.
func (s *RecipeService) GetRecipeByShortLink(ctx context.Context, token string) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).First(&recipe, "short_link = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns a filtered page of recipes, newest first, plus the
// total count for the pagination envelope.
func (s *RecipeService) ListRecipes(ctx context.Context, filter *RecipeFilter) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.Author != nil {
		query = query.Where("recipes.author_id = ?", *filter.Author)
	}
	if len(filter.TagSlugs) > 0 {
		// Subquery instead of a join: a recipe with several matching tags
		// must still appear once.
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.FavoritedBy != nil {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", *filter.FavoritedBy)
	}
	if filter.InCartOf != nil {
		query = query.
			Joins("JOIN shopping_list_items ON shopping_list_items.recipe_id = recipes.id").
			Where("shopping_list_items.user_id = ?", *filter.InCartOf)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var recipes []models.Recipe
	err := query.
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Preload("Author").
		Order("recipes.created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

// DeleteRecipe removes a recipe and everything hanging off it. Only the
// author may delete.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != userID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.ShoppingListItem{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

// FavoriteRecipe adds a recipe to the user's favorites. The existence check
// is the user-facing fast path; the unique index on (user, recipe) is the
// authoritative guard and a racing duplicate surfaces as the same error.
func (s *RecipeService) FavoriteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.addRelation(ctx, userID, recipeID, &models.Favorite{},
		fieldErr("favorite", "recipe is already in favorites"))
}

// UnfavoriteRecipe removes a recipe from the user's favorites.
func (s *RecipeService) UnfavoriteRecipe(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRelation(ctx, userID, recipeID, &models.Favorite{},
		fieldErr("favorite", "recipe is not in favorites"))
}

// AddToShoppingList puts a recipe into the user's cart.
func (s *RecipeService) AddToShoppingList(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.addRelation(ctx, userID, recipeID, &models.ShoppingListItem{},
		fieldErr("shopping_cart", "recipe is already in shopping list"))
}

// RemoveFromShoppingList takes a recipe out of the user's cart.
func (s *RecipeService) RemoveFromShoppingList(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRelation(ctx, userID, recipeID, &models.ShoppingListItem{},
		fieldErr("shopping_cart", "recipe is not in shopping list"))
}

// IsFavorited reports whether the user saved the recipe.
func (s *RecipeService) IsFavorited(ctx context.Context, userID, recipeID uuid.UUID) bool {
	var n int64
	s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&n)
	return n > 0
}

// IsInShoppingList reports whether the recipe is in the user's cart.
func (s *RecipeService) IsInShoppingList(ctx context.Context, userID, recipeID uuid.UUID) bool {
	var n int64
	s.db.WithContext(ctx).Model(&models.ShoppingListItem{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&n)
	return n > 0
}

func (s *RecipeService) addRelation(ctx context.Context, userID, recipeID uuid.UUID, model interface{}, duplicate *FieldError) error {
	if err := s.checkRecipeExists(ctx, recipeID); err != nil {
		return err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return duplicate
	}

	relation := models.RecipeRelation{UserID: userID, RecipeID: recipeID}
	var err error
	switch m := model.(type) {
	case *models.Favorite:
		m.RecipeRelation = relation
		err = s.db.WithContext(ctx).Create(m).Error
	case *models.ShoppingListItem:
		m.RecipeRelation = relation
		err = s.db.WithContext(ctx).Create(m).Error
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race; the store-level constraint is the real guard.
		return duplicate
	}
	return err
}

func (s *RecipeService) removeRelation(ctx context.Context, userID, recipeID uuid.UUID, model interface{}, missing *FieldError) error {
	if err := s.checkRecipeExists(ctx, recipeID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missing
	}
	return nil
}

func (s *RecipeService) checkRecipeExists(ctx context.Context, recipeID uuid.UUID) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", recipeID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func resolveTags(tx *gorm.DB, ids []uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, fieldErr("tags", "tag does not exist")
	}
	return tags, nil
}

func checkIngredientsExist(tx *gorm.DB, items []IngredientInput) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	var n int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&n).Error; err != nil {
		return err
	}
	if int(n) != len(ids) {
		return fieldErr("ingredients", "ingredient does not exist")
	}
	return nil
}

func insertIngredients(tx *gorm.DB, recipeID uuid.UUID, items []IngredientInput) error {
	rows := make([]models.RecipeIngredient, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return tx.Create(&rows).Error
}
