package repository

import (
	"context"
	"errors"
	"time"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// StoryOwner pairs a followed user with the earliest expiry among their
// stories, for the followed-users-with-stories ordering.
type StoryOwner struct {
	OwnerID      uint      `json:"owner_id"`
	MinExpiresAt time.Time `json:"min_expires_at"`
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDWithOwner(ctx context.Context, id uint) (*models.Post, error)
	GetByMediaKey(ctx context.Context, mediaKey string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	DeleteByOwner(ctx context.Context, ownerID uint) error
	ListByOwner(ctx context.Context, ownerID uint, statuses []models.PostStatus, limit, offset int) ([]models.Post, error)
	ListFeed(ctx context.Context, ownerIDs []uint, limit, offset int) ([]models.Post, error)
	ListStories(ctx context.Context, ownerID uint, now time.Time) ([]models.Post, error)
	ListStoryOwners(ctx context.Context, ownerIDs []uint, now time.Time) ([]StoryOwner, error)
	ListLikedBy(ctx context.Context, userID uint, mode models.LikeMode) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByIDWithOwner(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Owner").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByMediaKey(ctx context.Context, mediaKey string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("media_key = ?", mediaKey).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post with media key", mediaKey)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) DeleteByOwner(ctx context.Context, ownerID uint) error {
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.Post{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ListByOwner(ctx context.Context, ownerID uint, statuses []models.PostStatus, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.
		Order("posted_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListFeed(ctx context.Context, ownerIDs []uint, limit, offset int) ([]models.Post, error) {
	if len(ownerIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Where("owner_id IN ? AND status = ?", ownerIDs, models.PostStatusCompleted).
		Preload("Owner").
		Order("posted_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListStories returns the user's unexpired completed stories, soonest to
// expire first.
func (r *postRepository) ListStories(ctx context.Context, ownerID uint, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at > ?",
			ownerID, models.PostStatusCompleted, now).
		Order("expires_at ASC, id ASC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListStoryOwners groups unexpired stories by owner, ordered by each owner's
// soonest expiry. Recomputed from the posts table on every read so that
// expiry edits reorder immediately.
func (r *postRepository) ListStoryOwners(ctx context.Context, ownerIDs []uint, now time.Time) ([]StoryOwner, error) {
	if len(ownerIDs) == 0 {
		return []StoryOwner{}, nil
	}
	var owners []StoryOwner
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("owner_id, MIN(expires_at) AS min_expires_at").
		Where("owner_id IN ? AND status = ? AND expires_at IS NOT NULL AND expires_at > ?",
			ownerIDs, models.PostStatusCompleted, now).
		Group("owner_id").
		Order("min_expires_at ASC").
		Scan(&owners).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return owners, nil
}

// ListLikedBy returns posts the user liked with the given mode, most
// recently liked first. A dislike-then-relike therefore moves a post back to
// the front.
func (r *postRepository) ListLikedBy(ctx context.Context, userID uint, mode models.LikeMode) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Joins("JOIN likes ON likes.post_id = posts.id").
		Where("likes.user_id = ? AND likes.mode = ?", userID, mode).
		Order("likes.liked_at DESC, likes.id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
