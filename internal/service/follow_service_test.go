package service

import (
	"context"
	"testing"
	"time"

	"glimpse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowPublicUserIsAcceptedImmediately(t *testing.T) {
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, PrivacyStatus: models.PrivacyPublic}, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
		CreateFn: func(ctx context.Context, follow *models.Follow) error {
			follow.ID = 10
			return nil
		},
	}
	events := &recordingEventRepo{}
	svc := NewFollowService(followRepo, userRepo, notBlocked(), events)

	follow, err := svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusFollowing, follow.Status)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventFollowStarted, events.events[0].Kind)
	assert.Equal(t, uint(1), events.events[0].ActorID)
	assert.Equal(t, uint(2), events.events[0].SubjectID)
}

func TestFollowPrivateUserIsRequested(t *testing.T) {
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, PrivacyStatus: models.PrivacyPrivate}, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
		CreateFn: func(ctx context.Context, follow *models.Follow) error { return nil },
	}
	events := &recordingEventRepo{}
	svc := NewFollowService(followRepo, userRepo, notBlocked(), events)

	follow, err := svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusRequested, follow.Status)
	// No counter effect until the request is accepted.
	assert.Empty(t, events.events)
}

func TestFollowSelfRejected(t *testing.T) {
	svc := NewFollowService(&stubFollowRepo{}, &stubUserRepo{}, notBlocked(), &recordingEventRepo{})
	_, err := svc.Follow(context.Background(), 7, 7)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
}

func TestFollowExistingEdgeConflicts(t *testing.T) {
	for _, status := range []models.FollowStatus{
		models.FollowStatusFollowing,
		models.FollowStatusRequested,
		models.FollowStatusDenied,
	} {
		userRepo := &stubUserRepo{
			GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
				return &models.User{ID: id, PrivacyStatus: models.PrivacyPublic}, nil
			},
		}
		followRepo := &stubFollowRepo{
			GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
				return &models.Follow{ID: 5, FollowerID: followerID, FollowedID: followedID, Status: status}, nil
			},
		}
		svc := NewFollowService(followRepo, userRepo, notBlocked(), &recordingEventRepo{})

		_, err := svc.Follow(context.Background(), 1, 2)
		require.Error(t, err, "status %s", status)
		assert.Equal(t, "CONFLICT", err.(*models.AppError).Code)
		assert.Contains(t, err.Error(), string(status))
	}
}

func TestUnfollowFollowingEmitsEndedEvent(t *testing.T) {
	deleted := uint(0)
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 9, FollowerID: followerID, FollowedID: followedID, Status: models.FollowStatusFollowing}, nil
		},
		DeleteFn: func(ctx context.Context, id uint) error {
			deleted = id
			return nil
		},
	}
	events := &recordingEventRepo{}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), events)

	require.NoError(t, svc.Unfollow(context.Background(), 1, 2))
	assert.Equal(t, uint(9), deleted)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventFollowEnded, events.events[0].Kind)
}

func TestUnfollowRequestedWithdrawsSilently(t *testing.T) {
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 9, Status: models.FollowStatusRequested}, nil
		},
		DeleteFn: func(ctx context.Context, id uint) error { return nil },
	}
	events := &recordingEventRepo{}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), events)

	require.NoError(t, svc.Unfollow(context.Background(), 1, 2))
	assert.Empty(t, events.events)
}

func TestUnfollowDeniedIsStateConflict(t *testing.T) {
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 9, Status: models.FollowStatusDenied}, nil
		},
	}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), &recordingEventRepo{})

	err := svc.Unfollow(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, "STATE_CONFLICT", err.(*models.AppError).Code)
	assert.Contains(t, err.Error(), "DENIED")
}

func TestUnfollowMissingEdgeIsNotFound(t *testing.T) {
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), &recordingEventRepo{})

	err := svc.Unfollow(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
}

func TestAcceptFollowerFromRequestedAndDenied(t *testing.T) {
	for _, from := range []models.FollowStatus{models.FollowStatusRequested, models.FollowStatusDenied} {
		var gotStatus models.FollowStatus
		followRepo := &stubFollowRepo{
			GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
				return &models.Follow{ID: 3, FollowerID: followerID, FollowedID: followedID, Status: from}, nil
			},
			UpdateStatusFn: func(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error {
				gotStatus = status
				return nil
			},
		}
		events := &recordingEventRepo{}
		svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), events)

		edge, err := svc.AcceptFollower(context.Background(), 2, 1)
		require.NoError(t, err, "from %s", from)
		assert.Equal(t, models.FollowStatusFollowing, gotStatus)
		assert.Equal(t, models.FollowStatusFollowing, edge.Status)
		require.Len(t, events.events, 1)
		assert.Equal(t, models.EventFollowStarted, events.events[0].Kind)
	}
}

func TestAcceptAlreadyFollowingConflicts(t *testing.T) {
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 3, Status: models.FollowStatusFollowing}, nil
		},
	}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), &recordingEventRepo{})

	_, err := svc.AcceptFollower(context.Background(), 2, 1)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", err.(*models.AppError).Code)
}

func TestDenyFollowingRevokesAndReversesCounters(t *testing.T) {
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 3, FollowerID: followerID, FollowedID: followedID, Status: models.FollowStatusFollowing}, nil
		},
		UpdateStatusFn: func(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error {
			return nil
		},
	}
	events := &recordingEventRepo{}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), events)

	edge, err := svc.DenyFollower(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, models.FollowStatusDenied, edge.Status)
	require.Len(t, events.events, 1)
	assert.Equal(t, models.EventFollowEnded, events.events[0].Kind)
}

func TestDenyRequestedEmitsNothing(t *testing.T) {
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return &models.Follow{ID: 3, Status: models.FollowStatusRequested}, nil
		},
		UpdateStatusFn: func(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error {
			return nil
		},
	}
	events := &recordingEventRepo{}
	svc := NewFollowService(followRepo, &stubUserRepo{}, notBlocked(), events)

	_, err := svc.DenyFollower(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Empty(t, events.events)
}

func TestListFollowedFilterShapeOnOtherUser(t *testing.T) {
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, PrivacyStatus: models.PrivacyPublic}, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, notBlocked(), &recordingEventRepo{})

	// Filtering another user's list by REQUESTED is a query-shape violation,
	// not an empty result.
	_, _, err := svc.ListFollowed(context.Background(), 1, 2, models.FollowStatusRequested, 20, 0)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", err.(*models.AppError).Code)
}

func TestListFollowersOfPrivateUserIsNullForStrangers(t *testing.T) {
	userRepo := &stubUserRepo{
		GetByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, PrivacyStatus: models.PrivacyPrivate}, nil
		},
	}
	followRepo := &stubFollowRepo{
		GetEdgeFn: func(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
			return nil, nil
		},
	}
	svc := NewFollowService(followRepo, userRepo, notBlocked(), &recordingEventRepo{})

	list, visible, err := svc.ListFollowers(context.Background(), 1, 2, models.FollowStatusFollowing, 20, 0)
	require.NoError(t, err)
	assert.False(t, visible)
	assert.Nil(t, list)
}
