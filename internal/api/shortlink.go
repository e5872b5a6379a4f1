package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/foodgram/backend/internal/service"
)

const shortLinkCacheTTL = time.Hour

// ShortLinkHandler serves the /s/:code redirect and the per-recipe
// get-link endpoint. Resolved tokens are cached in redis; tokens are
// immutable so the cache never goes stale.
type ShortLinkHandler struct {
	recipes *service.RecipeService
	redis   *redis.Client
	siteURL string
}

func NewShortLinkHandler(recipes *service.RecipeService, redisClient *redis.Client, siteURL string) *ShortLinkHandler {
	return &ShortLinkHandler{recipes: recipes, redis: redisClient, siteURL: siteURL}
}

// RegisterRoutes registers the root-level redirect route.
func (h *ShortLinkHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/s/:code", h.Redirect)
}

func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")
	ctx := c.Request.Context()
	cacheKey := "short_link:" + code

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%s/", h.siteURL, cached))
			return
		}
	}

	recipe, err := h.recipes.GetRecipeByShortLink(ctx, code)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.redis != nil {
		h.redis.Set(ctx, cacheKey, recipe.ID.String(), shortLinkCacheTTL)
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%s/", h.siteURL, recipe.ID))
}

// GetShortLink returns the shareable URL for a recipe.
func (h *RecipeHandler) GetShortLink(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{
		"short-link": fmt.Sprintf("%s/s/%s", h.siteURL, recipe.ShortLink),
	})
}
