package repository

import (
	"context"
	"errors"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// CardRepository defines the interface for card data operations
type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id uint) (*models.Card, error)
	Delete(ctx context.Context, id uint) error
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.Card, error)
	CountByOwner(ctx context.Context, ownerID uint) (int64, error)
	// FireTrigger atomically records that the (owner, post, kind) trigger has
	// fired. It returns true on the first call and false on every subsequent
	// one, regardless of whether the resulting card was later deleted.
	FireTrigger(ctx context.Context, ownerID, postID uint, kind models.CardKind) (bool, error)
}

type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	if err := r.db.WithContext(ctx).Create(card).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *cardRepository) GetByID(ctx context.Context, id uint) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Card", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &card, nil
}

func (r *cardRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Card{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *cardRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.Card, error) {
	var cards []models.Card
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&cards).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return cards, nil
}

func (r *cardRepository) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Card{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *cardRepository) FireTrigger(ctx context.Context, ownerID, postID uint, kind models.CardKind) (bool, error) {
	trigger := &models.CardTrigger{
		OwnerID: ownerID,
		PostID:  postID,
		Kind:    kind,
	}
	if err := r.db.WithContext(ctx).Create(trigger).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}
