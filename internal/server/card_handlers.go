package server

import (
	"glimpse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetCards handles GET /api/cards
func (s *Server) GetCards(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	cards, err := s.cardService.List(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return c.JSON(cards)
}

// GetCardCount handles GET /api/cards/count
func (s *Server) GetCardCount(c *fiber.Ctx) error {
	count, err := s.cardService.Count(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// DeleteCard handles DELETE /api/cards/:id. A deleted card is gone for good;
// its trigger never fires again.
func (s *Server) DeleteCard(c *fiber.Ctx) error {
	cardID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.cardService.Delete(c.Context(), currentUserID(c), cardID); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Card deleted"})
}
