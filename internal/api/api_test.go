package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

const testSiteURL = "https://foodgram.test"

// fakeImageStorage keeps stored blobs in memory.
type fakeImageStorage struct {
	stored  int
	deleted []string
}

func (f *fakeImageStorage) Store(_ context.Context, _ []byte, contentType string) (string, error) {
	f.stored++
	return fmt.Sprintf("https://cdn.test/images/%d", f.stored), nil
}

func (f *fakeImageStorage) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	images *fakeImageStorage
}

func setupAPITest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupTestDB(t)
	images := &fakeImageStorage{}

	auth := service.NewAuthService(db, "test-secret")
	follows := service.NewFollowService(db)
	recipes := service.NewRecipeService(db)
	shopping := service.NewShoppingListService(db)

	engine := router.SetupRouter(
		api.NewAuthHandler(auth),
		api.NewUserHandler(auth, follows, images),
		api.NewRecipeHandler(recipes, shopping, follows, auth, images, nil, testSiteURL),
		api.NewTagHandler(db),
		api.NewIngredientHandler(db),
		api.NewShortLinkHandler(recipes, nil, testSiteURL),
		nil,
	)

	return &testEnv{db: db, router: engine, images: images}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account through the API and returns its token
// and user id.
func (e *testEnv) registerAndLogin(t *testing.T, username string) (string, uuid.UUID) {
	t.Helper()

	w := e.request(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AuthToken string    `json:"auth_token"`
		UserID    uuid.UUID `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AuthToken)
	return resp.AuthToken, resp.UserID
}

func (e *testEnv) seedCatalog(t *testing.T) (*models.Tag, *models.Ingredient) {
	t.Helper()
	tag := testhelpers.CreateTestTag(t, e.db, "breakfast")
	ingredient := testhelpers.CreateTestIngredient(t, e.db, "flour", "g")
	return tag, ingredient
}

func recipeBody(tag *models.Tag, ingredient *models.Ingredient) gin.H {
	return gin.H{
		"name":         "Pancakes",
		"text":         "Mix and fry",
		"cooking_time": 20,
		"tags":         []uuid.UUID{tag.ID},
		"ingredients": []gin.H{
			{"id": ingredient.ID, "amount": 200},
		},
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}
