package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// relationIndexes are the per-table unique (user, recipe) constraints of the
// embedded RecipeRelation. They are declared here rather than on the shared
// struct because postgres index names are schema-global.
var relationIndexes = map[string]string{
	"idx_favorites_user_recipe":     "favorites",
	"idx_shopping_list_user_recipe": "shopping_list_items",
}

// AutoMigrate creates or updates the schema via gorm. Production deployments
// run cmd/migrate over migrations/*.sql instead; this path serves dev and
// test databases (including sqlite).
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingListItem{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	for name, table := range relationIndexes {
		stmt := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (user_id, recipe_id)",
			name, table,
		)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}
