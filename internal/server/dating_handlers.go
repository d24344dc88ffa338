package server

import (
	"glimpse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SetDatingStatus handles PUT /api/dating/status
func (s *Server) SetDatingStatus(c *fiber.Ctx) error {
	var req struct {
		Status models.DatingStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	user, err := s.datingService.SetStatus(c.Context(), currentUserID(c), req.Status)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(user)
}

// GetMatchStatus handles GET /api/users/:id/match-status
func (s *Server) GetMatchStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	status, err := s.datingService.MatchStatus(c.Context(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"match_status": status})
}
