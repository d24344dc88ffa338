package service

import (
	"context"

	"glimpse/internal/models"
	"glimpse/internal/repository"
)

// CardService exposes the owner's card list. Cards are produced by the
// projector; this service only reads and deletes them.
type CardService struct {
	cardRepo repository.CardRepository
}

// NewCardService creates a new card service
func NewCardService(cardRepo repository.CardRepository) *CardService {
	return &CardService{cardRepo: cardRepo}
}

// List returns the owner's cards, most recent first.
func (s *CardService) List(ctx context.Context, ownerID uint, limit, offset int) ([]models.Card, error) {
	return s.cardRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// Count returns the owner's total card count.
func (s *CardService) Count(ctx context.Context, ownerID uint) (int64, error) {
	return s.cardRepo.CountByOwner(ctx, ownerID)
}

// Delete removes a card. Deleting a card never resets its trigger; the same
// card is not regenerated later.
func (s *CardService) Delete(ctx context.Context, ownerID, cardID uint) error {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card.OwnerID != ownerID {
		return models.NewUnauthorizedError("Not the card owner")
	}
	return s.cardRepo.Delete(ctx, cardID)
}
