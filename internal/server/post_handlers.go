package server

import (
	"crypto/subtle"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts. Media posts respond with the upload URL
// the client must PUT the file to; the post stays PENDING until the pipeline
// calls back.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	post, uploadURL, err := s.postService.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return models.RespondError(c, err)
	}
	resp := fiber.Map{"post": post}
	if uploadURL != "" {
		resp["upload_url"] = uploadURL
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// EditPost handles PATCH /api/posts/:id
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.EditPostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	post, err := s.postService.Edit(c.Context(), currentUserID(c), postID, req)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(post)
}

// SetPostExpiry handles PUT /api/posts/:id/expiry. A null expiry turns a story
// back into a permanent post.
func (s *Server) SetPostExpiry(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	post, err := s.postService.SetExpiry(c.Context(), currentUserID(c), postID, req.ExpiresAt)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(post)
}

// ArchivePost handles POST /api/posts/:id/archive
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Archive(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(post)
}

// FlagPost handles POST /api/posts/:id/flag
func (s *Server) FlagPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Flag(c.Context(), currentUserID(c), postID); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post flagged"})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Get(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(post)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	posts, visible, err := s.postService.ListUserPosts(c.Context(), currentUserID(c), targetID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}
	return renderList(c, posts, visible)
}

// GetUserStories handles GET /api/users/:id/stories
func (s *Server) GetUserStories(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	stories, visible, err := s.postService.ListUserStories(c.Context(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return renderList(c, stories, visible)
}

// GetFeed handles GET /api/posts/feed
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.SelfFeed(c.Context(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(posts)
}

// GetFollowedStoryOwners handles GET /api/posts/stories/owners
func (s *Server) GetFollowedStoryOwners(c *fiber.Ctx) error {
	users, err := s.postService.FollowedStoryOwners(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(users)
}

// ReportViews handles POST /api/posts/views. Clients batch-report the posts
// that crossed the screen.
func (s *Server) ReportViews(c *fiber.Ctx) error {
	var req struct {
		PostIDs []uint `json:"post_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.postService.ReportViews(c.Context(), currentUserID(c), req.PostIDs); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Views recorded"})
}

// GetPostViewers handles GET /api/posts/:id/viewers
func (s *Server) GetPostViewers(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewers, visible, err := s.postService.ListViewers(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return renderList(c, viewers, visible)
}

// mediaCallbackSecretHeader carries the shared secret the media pipeline
// authenticates its callbacks with.
const mediaCallbackSecretHeader = "X-Media-Callback-Secret"

// CompleteMediaUpload handles POST /api/internal/media/callback from the media
// processing pipeline. The pipeline is not a user; it authenticates with a
// shared secret instead of a JWT.
func (s *Server) CompleteMediaUpload(c *fiber.Ctx) error {
	secret := s.config.MediaCallbackSecret
	if secret == "" ||
		subtle.ConstantTimeCompare([]byte(c.Get(mediaCallbackSecretHeader)), []byte(secret)) != 1 {
		return models.RespondError(c,
			models.NewUnauthorizedError("Invalid media callback credentials"))
	}

	var req struct {
		MediaKey   string `json:"media_key"`
		Success    bool   `json:"success"`
		IsVerified *bool  `json:"is_verified"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.MediaKey == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Media key is required"))
	}
	post, err := s.postService.CompleteMediaUpload(c.Context(), req.MediaKey, req.Success, req.IsVerified)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(post)
}
