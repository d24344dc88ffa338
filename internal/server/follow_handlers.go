package server

import (
	"glimpse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/follows/:id
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	follow, err := s.followService.Follow(c.Context(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles DELETE /api/follows/:id
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.Context(), currentUserID(c), targetID); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unfollowed"})
}

// AcceptFollower handles POST /api/follows/:id/accept
func (s *Server) AcceptFollower(c *fiber.Ctx) error {
	followerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	follow, err := s.followService.AcceptFollower(c.Context(), currentUserID(c), followerID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(follow)
}

// DenyFollower handles POST /api/follows/:id/deny
func (s *Server) DenyFollower(c *fiber.Ctx) error {
	followerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	follow, err := s.followService.DenyFollower(c.Context(), currentUserID(c), followerID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(follow)
}

// GetFollowed handles GET /api/users/:id/followed?status=...
func (s *Server) GetFollowed(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	status := models.FollowStatus(c.Query("status", string(models.FollowStatusFollowing)))
	follows, visible, err := s.followService.ListFollowed(c.Context(), currentUserID(c), targetID, status, page.Limit, page.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}
	return renderList(c, follows, visible)
}

// GetFollowers handles GET /api/users/:id/followers?status=...
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	status := models.FollowStatus(c.Query("status", string(models.FollowStatusFollowing)))
	follows, visible, err := s.followService.ListFollowers(c.Context(), currentUserID(c), targetID, status, page.Limit, page.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}
	return renderList(c, follows, visible)
}
