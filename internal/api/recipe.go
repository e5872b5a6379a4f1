package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

type RecipeHandler struct {
	recipes     *service.RecipeService
	shopping    *service.ShoppingListService
	follows     *service.FollowService
	auth        *service.AuthService
	images      service.ImageStorage
	rateLimiter *middleware.RateLimiter
	siteURL     string
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	shopping *service.ShoppingListService,
	follows *service.FollowService,
	auth *service.AuthService,
	images service.ImageStorage,
	rateLimiter *middleware.RateLimiter,
	siteURL string,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:     recipes,
		shopping:    shopping,
		follows:     follows,
		auth:        auth,
		images:      images,
		rateLimiter: rateLimiter,
		siteURL:     siteURL,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		public := recipes.Group("", middleware.OptionalAuthMiddleware(h.auth))
		{
			public.GET("", h.ListRecipes)
			public.GET("/:id", h.GetRecipe)
			public.GET("/:id/get-link", h.GetShortLink)
		}

		authed := recipes.Group("", middleware.AuthMiddleware(h.auth))
		{
			write := authed.Group("")
			if h.rateLimiter != nil {
				write.Use(h.rateLimiter.RateLimitMiddleware())
			}
			write.POST("", h.CreateRecipe)
			write.PATCH("/:id", h.UpdateRecipe)
			write.PUT("/:id", h.UpdateRecipe)
			write.DELETE("/:id", h.DeleteRecipe)

			authed.POST("/:id/favorite", h.Favorite)
			authed.DELETE("/:id/favorite", h.Unfavorite)
			authed.POST("/:id/shopping_cart", h.AddToShoppingCart)
			authed.DELETE("/:id/shopping_cart", h.RemoveFromShoppingCart)
			authed.GET("/download_shopping_cart", h.DownloadShoppingCart)
		}
	}
}

// recipeResponse renders a recipe relative to the viewer.
func (h *RecipeHandler) recipeResponse(c *gin.Context, recipe *models.Recipe) RecipeResponse {
	tags := make([]TagResponse, 0, len(recipe.Tags))
	for _, t := range recipe.Tags {
		tags = append(tags, TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}

	ingredients := make([]RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, ri := range recipe.Ingredients {
		ingredients = append(ingredients, RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	author := UserResponse{
		ID:        recipe.Author.ID,
		Email:     recipe.Author.Email,
		Username:  recipe.Author.Username,
		FirstName: recipe.Author.FirstName,
		LastName:  recipe.Author.LastName,
		Avatar:    recipe.Author.AvatarURL,
	}

	resp := RecipeResponse{
		ID:          recipe.ID,
		Tags:        tags,
		Author:      author,
		Ingredients: ingredients,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
	}

	if viewerID, ok := currentUserID(c); ok {
		ctx := c.Request.Context()
		resp.IsFavorited = h.recipes.IsFavorited(ctx, viewerID, recipe.ID)
		resp.IsInShoppingCart = h.recipes.IsInShoppingList(ctx, viewerID, recipe.ID)
		resp.Author.IsSubscribed = h.follows.IsSubscribed(ctx, viewerID, recipe.AuthorID)
	}
	return resp
}

// recipeInput converts the write shape, storing a base64 image if one was
// submitted.
func (h *RecipeHandler) recipeInput(c *gin.Context, req *RecipeRequest) (*service.RecipeInput, error) {
	in := &service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
	}
	for _, item := range req.Ingredients {
		in.Ingredients = append(in.Ingredients, service.IngredientInput{
			ID:     item.ID,
			Amount: item.Amount,
		})
	}

	if strings.HasPrefix(req.Image, "data:image/") {
		data, contentType, err := service.DecodeBase64Image(req.Image)
		if err != nil {
			return nil, err
		}
		url, err := h.images.Store(c.Request.Context(), data, contentType)
		if err != nil {
			return nil, err
		}
		in.ImageURL = url
	} else {
		in.ImageURL = req.Image
	}
	return in, nil
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	limit, offset := pagination(c)
	filter := &service.RecipeFilter{Limit: limit, Offset: offset}

	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.Author = &id
	}
	if tags := c.QueryArray("tags"); len(tags) > 0 {
		filter.TagSlugs = tags
	}
	if viewerID, ok := currentUserID(c); ok {
		if c.Query("is_favorited") == "1" {
			filter.FavoritedBy = &viewerID
		}
		if c.Query("is_in_shopping_cart") == "1" {
			filter.InCartOf = &viewerID
		}
	}

	recipes, count, err := h.recipes.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		results = append(results, h.recipeResponse(c, &recipes[i]))
	}
	c.JSON(http.StatusOK, PageResponse{Count: count, Results: results})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.recipeResponse(c, recipe))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	in, err := h.recipeInput(c, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.recipeResponse(c, recipe))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	in, err := h.recipeInput(c, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), userID, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.recipeResponse(c, recipe))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID, _ := currentUserID(c)

	if err := h.recipes.DeleteRecipe(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// relationOp is the shared signature of the favorite/cart guard operations.
type relationOp func(ctx context.Context, userID, recipeID uuid.UUID) error

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addRelation(c, h.recipes.FavoriteRecipe)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeRelation(c, h.recipes.UnfavoriteRecipe)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addRelation(c, h.recipes.AddToShoppingList)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFromShoppingList)
}

func (h *RecipeHandler) addRelation(c *gin.Context, op relationOp) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID, _ := currentUserID(c)

	if err := op(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	})
}

func (h *RecipeHandler) removeRelation(c *gin.Context, op relationOp) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}
	userID, _ := currentUserID(c)

	if err := op(c.Request.Context(), userID, recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := currentUserID(c)

	document, err := h.shopping.BuildShoppingList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_shopping_list.txt", user.Username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(document))
}
