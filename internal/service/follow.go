package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// FollowService handles user-to-user subscriptions.
type FollowService struct {
	db *gorm.DB
}

// NewFollowService creates a new FollowService instance
func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Subscription is one followed author together with their recipes.
type Subscription struct {
	User         models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

// Subscribe creates a follow from user to author. Self-follows and duplicate
// pairs are rejected; the unique index backstops concurrent duplicates.
func (s *FollowService) Subscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if userID == authorID {
		return fieldErr("following", "cannot follow yourself")
	}
	if err := s.checkUserExists(ctx, authorID); err != nil {
		return err
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id = ?", userID, authorID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fieldErr("following", "already subscribed to this user")
	}

	follow := models.Follow{UserID: userID, FollowingID: authorID}
	err := s.db.WithContext(ctx).Create(&follow).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fieldErr("following", "already subscribed to this user")
	}
	return err
}

// Unsubscribe removes a follow; removing one that does not exist is an error.
func (s *FollowService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if err := s.checkUserExists(ctx, authorID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fieldErr("following", "not subscribed to this user")
	}
	return nil
}

// IsSubscribed reports whether user follows author.
func (s *FollowService) IsSubscribed(ctx context.Context, userID, authorID uuid.UUID) bool {
	var n int64
	s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id = ?", userID, authorID).Count(&n)
	return n > 0
}

// Subscriptions lists the authors the user follows, each with their recipes
// and recipe count.
func (s *FollowService) Subscriptions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Subscription, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", userID)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var authors []models.User
	if err := query.Order("follows.created_at DESC").Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	subscriptions := make([]Subscription, 0, len(authors))
	for _, author := range authors {
		var recipes []models.Recipe
		if err := s.db.WithContext(ctx).
			Where("author_id = ?", author.ID).
			Order("created_at DESC").
			Find(&recipes).Error; err != nil {
			return nil, 0, err
		}
		subscriptions = append(subscriptions, Subscription{
			User:         author,
			Recipes:      recipes,
			RecipesCount: int64(len(recipes)),
		})
	}
	return subscriptions, count, nil
}

func (s *FollowService) checkUserExists(ctx context.Context, userID uuid.UUID) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
