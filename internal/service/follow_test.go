package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)
	ctx := context.Background()

	follower := testhelpers.CreateTestUser(t, db, "follower")
	author := testhelpers.CreateTestUser(t, db, "author")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))
	assert.True(t, svc.IsSubscribed(ctx, follower.ID, author.ID))
	assert.False(t, svc.IsSubscribed(ctx, author.ID, follower.ID), "follows are one-directional")
}

func TestSubscribeToSelf(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)

	user := testhelpers.CreateTestUser(t, db, "narcissus")

	err := svc.Subscribe(context.Background(), user.ID, user.ID)
	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "following", fieldErr.Field)
	assert.Equal(t, "cannot follow yourself", fieldErr.Message)
}

func TestSubscribeTwice(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)
	ctx := context.Background()

	follower := testhelpers.CreateTestUser(t, db, "follower")
	author := testhelpers.CreateTestUser(t, db, "author")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))

	err := svc.Subscribe(ctx, follower.ID, author.ID)
	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "already subscribed to this user", fieldErr.Message)
}

func TestSubscribeToUnknownUser(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)

	follower := testhelpers.CreateTestUser(t, db, "follower")

	err := svc.Subscribe(context.Background(), follower.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)
	ctx := context.Background()

	follower := testhelpers.CreateTestUser(t, db, "follower")
	author := testhelpers.CreateTestUser(t, db, "author")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))
	require.NoError(t, svc.Unsubscribe(ctx, follower.ID, author.ID))
	assert.False(t, svc.IsSubscribed(ctx, follower.ID, author.ID))

	// Removing a follow that is not there is an error.
	err := svc.Unsubscribe(ctx, follower.ID, author.ID)
	var fieldErr *service.FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "not subscribed to this user", fieldErr.Message)
}

func TestSubscriptions(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)
	ctx := context.Background()

	follower := testhelpers.CreateTestUser(t, db, "follower")
	alice := testhelpers.CreateTestUser(t, db, "alice")
	bob := testhelpers.CreateTestUser(t, db, "bob")
	testhelpers.CreateTestRecipe(t, db, alice.ID, "pie")
	testhelpers.CreateTestRecipe(t, db, alice.ID, "cake")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, alice.ID))
	require.NoError(t, svc.Subscribe(ctx, follower.ID, bob.ID))

	subs, count, err := svc.Subscriptions(ctx, follower.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, subs, 2)

	byUsername := make(map[string]service.Subscription, len(subs))
	for _, sub := range subs {
		byUsername[sub.User.Username] = sub
	}
	assert.Equal(t, int64(2), byUsername["alice"].RecipesCount)
	assert.Len(t, byUsername["alice"].Recipes, 2)
	assert.Zero(t, byUsername["bob"].RecipesCount)
}

func TestSubscriptionsPagination(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewFollowService(db)
	ctx := context.Background()

	follower := testhelpers.CreateTestUser(t, db, "follower")
	for _, name := range []string{"a", "b", "c"} {
		author := testhelpers.CreateTestUser(t, db, name)
		require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))
	}

	subs, count, err := svc.Subscriptions(ctx, follower.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, subs, 2)
}
