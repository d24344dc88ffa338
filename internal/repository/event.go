package repository

import (
	"context"
	"time"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// EventRepository defines the interface for the projection event outbox.
type EventRepository interface {
	Append(ctx context.Context, event *models.Event) error
	// FetchUnprocessed returns up to limit unprocessed events in ID order.
	FetchUnprocessed(ctx context.Context, limit int) ([]models.Event, error)
	MarkProcessed(ctx context.Context, ids []uint, at time.Time) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *eventRepository) FetchUnprocessed(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}

func (r *eventRepository) MarkProcessed(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id IN ?", ids).
		Update("processed_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
