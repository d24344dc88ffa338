package server

import (
	"glimpse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Mode models.LikeMode `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Mode == "" {
		req.Mode = models.LikeModeOnymous
	}
	like, err := s.likeService.Like(c.Context(), currentUserID(c), postID, req.Mode)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

// DislikePost handles DELETE /api/posts/:id/like
func (s *Server) DislikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likeService.Dislike(c.Context(), currentUserID(c), postID); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Like removed"})
}

// GetOnymousLikers handles GET /api/posts/:id/likers
func (s *Server) GetOnymousLikers(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	likers, visible, err := s.likeService.ListOnymousLikers(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return renderList(c, likers, visible)
}

// GetLikedPosts handles GET /api/posts/liked?mode=...
func (s *Server) GetLikedPosts(c *fiber.Ctx) error {
	mode := models.LikeMode(c.Query("mode", string(models.LikeModeOnymous)))
	posts, err := s.likeService.ListLikedPosts(c.Context(), currentUserID(c), mode)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(posts)
}
