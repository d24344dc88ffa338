package service

import (
	"context"
	"testing"

	"glimpse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func publicPost(id, ownerID uint) *models.Post {
	return &models.Post{
		ID: id, OwnerID: ownerID, Status: models.PostStatusCompleted,
		Owner: models.User{ID: ownerID, PrivacyStatus: models.PrivacyPublic},
	}
}

func TestAddCommentByStrangerStartsUnviewed(t *testing.T) {
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
	commentRepo := &stubCommentRepo{
		CreateFn: func(ctx context.Context, comment *models.Comment) error {
			comment.ID = 33
			return nil
		},
	}
	events := &recordingEventRepo{}
	svc := NewCommentService(commentRepo, postRepo, followRepo, notBlocked(), events)

	comment, err := svc.Add(context.Background(), 1, 5, "nice")
	require.NoError(t, err)
	assert.False(t, comment.ViewedByOwner)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventCommentAdded, events.events[0].Kind)
	assert.Equal(t, 1, events.events[0].Delta)
}

func TestAddCommentByOwnerIsBornViewed(t *testing.T) {
	postRepo := &stubPostRepo{
		GetByIDWithOwnerFn: func(ctx context.Context, id uint) (*models.Post, error) {
			return publicPost(id, 1), nil
		},
	}
	commentRepo := &stubCommentRepo{
		CreateFn: func(ctx context.Context, comment *models.Comment) error { return nil },
	}
	events := &recordingEventRepo{}
	svc := NewCommentService(commentRepo, postRepo, &stubFollowRepo{}, notBlocked(), events)

	comment, err := svc.Add(context.Background(), 1, 5, "my own post")
	require.NoError(t, err)
	assert.True(t, comment.ViewedByOwner)
	// The total count still moves, the unviewed count does not.
	require.Len(t, events.events, 1)
	assert.Equal(t, 0, events.events[0].Delta)
}

func TestAddCommentWhenDisabled(t *testing.T) {
	disabled := true
	postRepo := &stubPostRepo{
		GetByIDWithOwnerFn: func(ctx context.Context, id uint) (*models.Post, error) {
			post := publicPost(id, 2)
			post.CommentsDisabled = &disabled
			return post, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	svc := NewCommentService(&stubCommentRepo{}, postRepo, followRepo, notBlocked(), &recordingEventRepo{})

	_, err := svc.Add(context.Background(), 1, 5, "text")
	require.Error(t, err)
	assert.Equal(t, "STATE_CONFLICT", err.(*models.AppError).Code)
}

func TestAddCommentInheritsOwnerDefault(t *testing.T) {
	postRepo := &stubPostRepo{
		GetByIDWithOwnerFn: func(ctx context.Context, id uint) (*models.Post, error) {
			post := publicPost(id, 2)
			post.Owner.CommentsDisabled = true // account default, no per-post override
			return post, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	svc := NewCommentService(&stubCommentRepo{}, postRepo, followRepo, notBlocked(), &recordingEventRepo{})

	_, err := svc.Add(context.Background(), 1, 5, "text")
	require.Error(t, err)
	assert.Equal(t, "STATE_CONFLICT", err.(*models.AppError).Code)
}

func TestDeleteCommentDeltaReflectsViewedState(t *testing.T) {
	for _, viewed := range []bool{true, false} {
		commentRepo := &stubCommentRepo{
			GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
				return &models.Comment{ID: id, PostID: 5, AuthorID: 1, ViewedByOwner: viewed}, nil
			},
			DeleteFn: func(ctx context.Context, id uint) error { return nil },
		}
		postRepo := &stubPostRepo{
			GetByIDFn: func(ctx context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, OwnerID: 2}, nil
			},
		}
		events := &recordingEventRepo{}
		svc := NewCommentService(commentRepo, postRepo, &stubFollowRepo{}, notBlocked(), events)

		require.NoError(t, svc.Delete(context.Background(), 1, 33))
		require.Len(t, events.events, 1)
		assert.Equal(t, models.EventCommentRemoved, events.events[0].Kind)
		wantDelta := 1
		if viewed {
			wantDelta = 0
		}
		assert.Equal(t, wantDelta, events.events[0].Delta)
	}
}

func TestDeleteCommentByBystanderIsUnauthorized(t *testing.T) {
	commentRepo := &stubCommentRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5, AuthorID: 1}, nil
		},
	}
	postRepo := &stubPostRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: 2}, nil
		},
	}
	svc := NewCommentService(commentRepo, postRepo, &stubFollowRepo{}, notBlocked(), &recordingEventRepo{})

	err := svc.Delete(context.Background(), 3, 33)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", err.(*models.AppError).Code)
}

func TestFlagCommentByPostOwnerDeletesIt(t *testing.T) {
	deleted := false
	commentRepo := &stubCommentRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5, AuthorID: 1}, nil
		},
		DeleteFn: func(ctx context.Context, id uint) error {
			deleted = true
			return nil
		},
	}
	postRepo := &stubPostRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: 2}, nil
		},
	}
	events := &recordingEventRepo{}
	svc := NewCommentService(commentRepo, postRepo, &stubFollowRepo{}, notBlocked(), events)

	require.NoError(t, svc.Flag(context.Background(), 2, 33))
	assert.True(t, deleted)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventCommentRemoved, events.events[0].Kind)
}

func TestFlagCommentByOthersMarksIt(t *testing.T) {
	flagged := false
	commentRepo := &stubCommentRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5, AuthorID: 1}, nil
		},
		SetFlaggedFn: func(ctx context.Context, id uint) error {
			flagged = true
			return nil
		},
	}
	postRepo := &stubPostRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, OwnerID: 2}, nil
		},
	}
	flagRepo := notBlocked()
	flagRepo.CreateFlagFn = func(ctx context.Context, flag *models.Flag) error {
		assert.Equal(t, models.FlagTargetComment, flag.TargetType)
		return nil
	}
	svc := NewCommentService(commentRepo, postRepo, &stubFollowRepo{}, flagRepo, &recordingEventRepo{})

	require.NoError(t, svc.Flag(context.Background(), 3, 33))
	assert.True(t, flagged)
}

func TestFlagOwnCommentRejected(t *testing.T) {
	commentRepo := &stubCommentRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 5, AuthorID: 1}, nil
		},
	}
	svc := NewCommentService(commentRepo, &stubPostRepo{}, &stubFollowRepo{}, notBlocked(), &recordingEventRepo{})

	err := svc.Flag(context.Background(), 1, 33)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
}
