package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeRelation is the shared shape of the user-to-recipe relation tables
// (favorites, shopping list). The unique (user, recipe) constraint is
// declared per concrete table in the migration layer rather than here:
// index names are schema-global in postgres, so the embedding tables each
// carry their own.
type RecipeRelation struct {
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Favorite marks a recipe saved by a user.
type Favorite struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeRelation `gorm:"embedded"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// ShoppingListItem marks a recipe added to a user's shopping cart.
type ShoppingListItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeRelation `gorm:"embedded"`
}

func (s *ShoppingListItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
