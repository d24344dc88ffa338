package repository

import (
	"context"
	"errors"
	"time"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// ViewRepository defines the interface for post-view data operations
type ViewRepository interface {
	// Record upserts a view and reports whether this was the viewer's first
	// view of the post.
	Record(ctx context.Context, postID, viewerID uint, now time.Time) (bool, error)
	CountDistinct(ctx context.Context, postID uint) (int64, error)
	ListViewers(ctx context.Context, postID uint) ([]models.User, error)
}

type viewRepository struct {
	db *gorm.DB
}

// NewViewRepository creates a new view repository
func NewViewRepository(db *gorm.DB) ViewRepository {
	return &viewRepository{db: db}
}

func (r *viewRepository) Record(ctx context.Context, postID, viewerID uint, now time.Time) (bool, error) {
	view := &models.PostView{
		PostID:        postID,
		ViewerID:      viewerID,
		ViewCount:     1,
		FirstViewedAt: now,
		LastViewedAt:  now,
	}
	err := r.db.WithContext(ctx).Create(view).Error
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, models.NewInternalError(err)
	}

	// Repeat view: bump the counter atomically.
	if err := r.db.WithContext(ctx).
		Model(&models.PostView{}).
		Where("post_id = ? AND viewer_id = ?", postID, viewerID).
		Updates(map[string]interface{}{
			"view_count":     gorm.Expr("view_count + 1"),
			"last_viewed_at": now,
		}).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return false, nil
}

func (r *viewRepository) CountDistinct(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PostView{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *viewRepository) ListViewers(ctx context.Context, postID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN post_views ON post_views.viewer_id = users.id").
		Where("post_views.post_id = ?", postID).
		Order("post_views.first_viewed_at ASC, post_views.id ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
