package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

type UserHandler struct {
	auth    *service.AuthService
	follows *service.FollowService
	images  service.ImageStorage
}

func NewUserHandler(auth *service.AuthService, follows *service.FollowService, images service.ImageStorage) *UserHandler {
	return &UserHandler{auth: auth, follows: follows, images: images}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		public := users.Group("", middleware.OptionalAuthMiddleware(h.auth))
		{
			public.GET("", h.ListUsers)
			public.GET("/:id", h.GetUser)
		}

		authed := users.Group("", middleware.AuthMiddleware(h.auth))
		{
			authed.GET("/me", h.Me)
			authed.PUT("/me/avatar", h.SetAvatar)
			authed.DELETE("/me/avatar", h.DeleteAvatar)
			authed.GET("/subscriptions", h.Subscriptions)
			authed.POST("/:id/subscribe", h.Subscribe)
			authed.DELETE("/:id/subscribe", h.Unsubscribe)
		}
	}
}

// userResponse renders a profile relative to the viewer (is_subscribed).
func (h *UserHandler) userResponse(c *gin.Context, user *models.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.AvatarURL,
	}
	if viewerID, ok := currentUserID(c); ok {
		resp.IsSubscribed = h.follows.IsSubscribed(c.Request.Context(), viewerID, user.ID)
	}
	return resp
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, count, err := h.auth.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for i := range users {
		results = append(results, h.userResponse(c, &users[i]))
	}
	c.JSON(http.StatusOK, PageResponse{Count: count, Results: results})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userResponse(c, user))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := currentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.userResponse(c, user))
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := currentUserID(c)

	data, contentType, err := service.DecodeBase64Image(req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}
	url, err := h.images.Store(c.Request.Context(), data, contentType)
	if err != nil {
		respondError(c, err)
		return
	}

	// Replacing an avatar drops the old object.
	if user, err := h.auth.GetUser(c.Request.Context(), userID); err == nil && user.AvatarURL != "" {
		_ = h.images.Delete(c.Request.Context(), user.AvatarURL)
	}

	if err := h.auth.SetAvatar(c.Request.Context(), userID, url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID, _ := currentUserID(c)
	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user.AvatarURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no avatar to delete"})
		return
	}

	if err := h.images.Delete(c.Request.Context(), user.AvatarURL); err != nil {
		respondError(c, err)
		return
	}
	if err := h.auth.SetAvatar(c.Request.Context(), userID, ""); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID, _ := currentUserID(c)

	if err := h.follows.Subscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}

	author, err := h.auth.GetUser(c.Request.Context(), authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.userResponse(c, author))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID, _ := currentUserID(c)

	if err := h.follows.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, _ := currentUserID(c)
	limit, offset := pagination(c)

	subscriptions, count, err := h.follows.Subscriptions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(subscriptions))
	for i := range subscriptions {
		sub := &subscriptions[i]
		recipes := make([]RecipeShortResponse, 0, len(sub.Recipes))
		for _, r := range sub.Recipes {
			recipes = append(recipes, RecipeShortResponse{
				ID:          r.ID,
				Name:        r.Name,
				Image:       r.ImageURL,
				CookingTime: r.CookingTime,
			})
		}
		userResp := h.userResponse(c, &sub.User)
		userResp.IsSubscribed = true
		results = append(results, SubscriptionResponse{
			UserResponse: userResp,
			Recipes:      recipes,
			RecipesCount: sub.RecipesCount,
		})
	}
	c.JSON(http.StatusOK, PageResponse{Count: count, Results: results})
}
