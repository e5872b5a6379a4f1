package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// New wires services and handlers and returns a server ready to start.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images service.ImageStorage) *Server {
	auth := service.NewAuthService(db, cfg.JWTSecret)
	follows := service.NewFollowService(db)
	recipes := service.NewRecipeService(db)
	shopping := service.NewShoppingListService(db)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewRecipeWriteRateLimiter(redisClient)
	}

	authHandler := api.NewAuthHandler(auth)
	userHandler := api.NewUserHandler(auth, follows, images)
	recipeHandler := api.NewRecipeHandler(recipes, shopping, follows, auth, images, rateLimiter, cfg.SiteURL)
	tagHandler := api.NewTagHandler(db)
	ingredientHandler := api.NewIngredientHandler(db)
	shortLinkHandler := api.NewShortLinkHandler(recipes, redisClient, cfg.SiteURL)

	engine := router.SetupRouter(
		authHandler,
		userHandler,
		recipeHandler,
		tagHandler,
		ingredientHandler,
		shortLinkHandler,
		cfg.AllowedOrigins,
	)

	return &Server{
		router: engine,
		http: &http.Server{
			Addr:    ":" + cfg.ServerPort,
			Handler: engine,
		},
		db:    db,
		redis: redisClient,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine, used by tests to drive requests directly.
func (s *Server) Router() *gin.Engine {
	return s.router
}
