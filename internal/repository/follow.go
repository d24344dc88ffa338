package repository

import (
	"context"
	"errors"
	"time"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow-edge data operations
type FollowRepository interface {
	Create(ctx context.Context, follow *models.Follow) error
	GetEdge(ctx context.Context, followerID, followedID uint) (*models.Follow, error)
	UpdateStatus(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error
	Delete(ctx context.Context, id uint) error
	DeleteBetween(ctx context.Context, userID1, userID2 uint) error
	ListFollowed(ctx context.Context, followerID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error)
	ListFollowers(ctx context.Context, followedID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error)
	CountFollowers(ctx context.Context, followedID uint, status models.FollowStatus) (int64, error)
	FollowedIDs(ctx context.Context, followerID uint) ([]uint, error)
	// RequestedFollowerIDs returns the follower IDs of all REQUESTED edges
	// targeting the user, for the PRIVATE -> PUBLIC bulk conversion.
	RequestedFollowerIDs(ctx context.Context, followedID uint) ([]uint, error)
	ConvertRequestedToFollowing(ctx context.Context, followedID uint, changedAt time.Time) error
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Follow edge already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) GetEdge(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No edge means NOT_FOLLOWING
		}
		return nil, models.NewInternalError(err)
	}
	return &follow, nil
}

func (r *followRepository) UpdateStatus(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":            status,
			"status_changed_at": changedAt,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Follow{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	if err := r.db.WithContext(ctx).
		Where("(follower_id = ? AND followed_id = ?) OR (follower_id = ? AND followed_id = ?)",
			userID1, userID2, userID2, userID1).
		Delete(&models.Follow{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListFollowed returns edges where the user is the follower, most recently
// status-changed first with insertion order as tiebreak.
func (r *followRepository) ListFollowed(ctx context.Context, followerID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error) {
	var follows []models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND status = ?", followerID, status).
		Preload("Followed").
		Order("status_changed_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return follows, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, followedID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error) {
	var follows []models.Follow
	if err := r.db.WithContext(ctx).
		Where("followed_id = ? AND status = ?", followedID, status).
		Preload("Follower").
		Order("status_changed_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return follows, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, followedID uint, status models.FollowStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ? AND status = ?", followedID, status).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) FollowedIDs(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND status = ?", followerID, models.FollowStatusFollowing).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) RequestedFollowerIDs(ctx context.Context, followedID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ? AND status = ?", followedID, models.FollowStatusRequested).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// ConvertRequestedToFollowing flips every pending request targeting the user
// to FOLLOWING. DENIED edges are left untouched.
func (r *followRepository) ConvertRequestedToFollowing(ctx context.Context, followedID uint, changedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ? AND status = ?", followedID, models.FollowStatusRequested).
		Updates(map[string]interface{}{
			"status":            models.FollowStatusFollowing,
			"status_changed_at": changedAt,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
