package repository

import (
	"context"
	"errors"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// FlagRepository defines the interface for flag and block data operations
type FlagRepository interface {
	CreateFlag(ctx context.Context, flag *models.Flag) error
	CreateBlock(ctx context.Context, block *models.Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID uint) (bool, error)
	// IsBlocked reports whether blocker has blocked blocked.
	IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error)
	BlockerIDs(ctx context.Context, blockedID uint) ([]uint, error)
}

type flagRepository struct {
	db *gorm.DB
}

// NewFlagRepository creates a new flag repository
func NewFlagRepository(db *gorm.DB) FlagRepository {
	return &flagRepository{db: db}
}

func (r *flagRepository) CreateFlag(ctx context.Context, flag *models.Flag) error {
	if err := r.db.WithContext(ctx).Create(flag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("Already flagged")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *flagRepository) CreateBlock(ctx context.Context, block *models.Block) error {
	if err := r.db.WithContext(ctx).Create(block).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("User already blocked")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *flagRepository) DeleteBlock(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *flagRepository) IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *flagRepository) BlockerIDs(ctx context.Context, blockedID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Block{}).
		Where("blocked_id = ?", blockedID).
		Pluck("blocker_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
