package service

import (
	"context"
	"testing"

	"glimpse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeEmitsModeDelta(t *testing.T) {
	cases := []struct {
		mode  models.LikeMode
		delta int
	}{
		{models.LikeModeOnymous, models.LikeDeltaOnymous},
		{models.LikeModeAnonymous, models.LikeDeltaAnonymous},
	}
	for _, tc := range cases {
		postRepo := &stubPostRepo{
			GetByIDWithOwnerFn: func(ctx context.Context, id uint) (*models.Post, error) {
				return publicPost(id, 2), nil
			},
		}
		followRepo := &stubFollowRepo{
			GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
				return nil, nil
			},
		}
		likeRepo := &stubLikeRepo{
			CreateFn: func(ctx context.Context, like *models.Like) error { return nil },
		}
		events := &recordingEventRepo{}
		svc := NewLikeService(likeRepo, postRepo, followRepo, notBlocked(), events)

		like, err := svc.Like(context.Background(), 1, 5, tc.mode)
		require.NoError(t, err)
		assert.Equal(t, tc.mode, like.Mode)
		assert.False(t, like.LikedAt.IsZero())
		require.Len(t, events.events, 1)
		assert.Equal(t, models.EventLikeAdded, events.events[0].Kind)
		assert.Equal(t, tc.delta, events.events[0].Delta)
	}
}

func TestLikeWhenDisabledIsStateConflict(t *testing.T) {
	disabled := true
	postRepo := &stubPostRepo{
		GetByIDWithOwnerFn: func(ctx context.Context, id uint) (*models.Post, error) {
			post := publicPost(id, 2)
			post.LikesDisabled = &disabled
			return post, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	svc := NewLikeService(&stubLikeRepo{}, postRepo, followRepo, notBlocked(), &recordingEventRepo{})

	_, err := svc.Like(context.Background(), 1, 5, models.LikeModeOnymous)
	require.Error(t, err)
	assert.Equal(t, "STATE_CONFLICT", err.(*models.AppError).Code)
}

func TestLikeTwiceConflicts(t *testing.T) {
	postRepo := &stubPostRepo{
		GetByIDWithOwnerFn: func(ctx context.Context, id uint) (*models.Post, error) {
			return publicPost(id, 2), nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	likeRepo := &stubLikeRepo{
		CreateFn: func(ctx context.Context, like *models.Like) error {
			return models.NewConflictError("Post already liked")
		},
	}
	svc := NewLikeService(likeRepo, postRepo, followRepo, notBlocked(), &recordingEventRepo{})

	// Mode switching also goes through here: the unique pair index rejects
	// any second like regardless of mode.
	_, err := svc.Like(context.Background(), 1, 5, models.LikeModeAnonymous)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", err.(*models.AppError).Code)
}

func TestDislikeRemovesAndEmitsStoredMode(t *testing.T) {
	likeRepo := &stubLikeRepo{
		GetEdgeFn: func(ctx context.Context, userID, postID uint) (*models.Like, error) {
			return &models.Like{ID: 9, UserID: userID, PostID: postID, Mode: models.LikeModeAnonymous}, nil
		},
		DeleteFn: func(ctx context.Context, id uint) error { return nil },
	}
	events := &recordingEventRepo{}
	svc := NewLikeService(likeRepo, &stubPostRepo{}, &stubFollowRepo{}, notBlocked(), events)

	require.NoError(t, svc.Dislike(context.Background(), 1, 5))
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventLikeRemoved, events.events[0].Kind)
	assert.Equal(t, models.LikeDeltaAnonymous, events.events[0].Delta)
}

func TestDislikeWithoutLikeIsNotFound(t *testing.T) {
	likeRepo := &stubLikeRepo{
		GetEdgeFn: func(ctx context.Context, userID, postID uint) (*models.Like, error) {
			return nil, nil
		},
	}
	svc := NewLikeService(likeRepo, &stubPostRepo{}, &stubFollowRepo{}, notBlocked(), &recordingEventRepo{})

	err := svc.Dislike(context.Background(), 1, 5)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
}

func TestListOnymousLikersIsOwnerOnly(t *testing.T) {
	postRepo := &stubPostRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: 2}, nil
		},
	}
	likeRepo := &stubLikeRepo{
		ListOnymousLikersFn: func(ctx context.Context, postID uint) ([]models.User, error) {
			return []models.User{{ID: 7}}, nil
		},
	}
	svc := NewLikeService(likeRepo, postRepo, &stubFollowRepo{}, notBlocked(), &recordingEventRepo{})

	// A non-owner gets null, even an accepted follower.
	list, visible, err := svc.ListOnymousLikers(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.False(t, visible)
	assert.Nil(t, list)

	list, visible, err = svc.ListOnymousLikers(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.True(t, visible)
	require.Len(t, list, 1)
}
