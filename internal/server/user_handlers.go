package server

import (
	"glimpse/internal/models"
	"glimpse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	profile, err := s.userService.Profile(c.Context(), userID, userID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.Profile(c.Context(), currentUserID(c), targetID)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(profile)
}

// SearchUsers handles GET /api/users/search?q=...
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.userService.Search(c.Context(), currentUserID(c), c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(users)
}

// UpdateDetails handles PATCH /api/users/me/details
func (s *Server) UpdateDetails(c *fiber.Ctx) error {
	var req service.UserDetails
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	user, err := s.userService.SetDetails(c.Context(), currentUserID(c), req)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(user)
}

// SetPrivacyStatus handles PUT /api/users/me/privacy
func (s *Server) SetPrivacyStatus(c *fiber.Ctx) error {
	var req struct {
		PrivacyStatus models.PrivacyStatus `json:"privacy_status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	user, err := s.userService.SetPrivacyStatus(c.Context(), currentUserID(c), req.PrivacyStatus)
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(user)
}

// SetMentalHealthSettings handles PUT /api/users/me/mental-health
func (s *Server) SetMentalHealthSettings(c *fiber.Ctx) error {
	var req service.MentalHealthSettings
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetMentalHealthSettings(c.Context(), currentUserID(c), req); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Settings updated"})
}

// SetViewCountsHidden handles PUT /api/users/me/view-counts-hidden
func (s *Server) SetViewCountsHidden(c *fiber.Ctx) error {
	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetViewCountsHidden(c.Context(), currentUserID(c), req.Hidden); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Settings updated"})
}

// SetLanguageCode handles PUT /api/users/me/language
func (s *Server) SetLanguageCode(c *fiber.Ctx) error {
	var req struct {
		LanguageCode string `json:"language_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetLanguageCode(c.Context(), currentUserID(c), req.LanguageCode); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Language updated"})
}

// SetThemeCode handles PUT /api/users/me/theme
func (s *Server) SetThemeCode(c *fiber.Ctx) error {
	var req struct {
		ThemeCode string `json:"theme_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetThemeCode(c.Context(), currentUserID(c), req.ThemeCode); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Theme updated"})
}

// SetAcceptedEULAVersion handles PUT /api/users/me/eula
func (s *Server) SetAcceptedEULAVersion(c *fiber.Ctx) error {
	var req struct {
		Version string `json:"version"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetAcceptedEULAVersion(c.Context(), currentUserID(c), req.Version); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "EULA version recorded"})
}

// SetAPNSToken handles PUT /api/users/me/apns-token
func (s *Server) SetAPNSToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetAPNSToken(c.Context(), currentUserID(c), req.Token); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Push token updated"})
}

// SetMatchAgeRange handles PUT /api/users/me/match/age-range
func (s *Server) SetMatchAgeRange(c *fiber.Ctx) error {
	var req struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetMatchAgeRange(c.Context(), currentUserID(c), req.Min, req.Max); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Age range updated"})
}

// SetMatchHeightRange handles PUT /api/users/me/match/height-range
func (s *Server) SetMatchHeightRange(c *fiber.Ctx) error {
	var req struct {
		Min int `json:"min"`
		Max int `json:"max"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetMatchHeightRange(c.Context(), currentUserID(c), req.Min, req.Max); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Height range updated"})
}

// SetMatchGenders handles PUT /api/users/me/match/genders
func (s *Server) SetMatchGenders(c *fiber.Ctx) error {
	var req struct {
		Genders []string `json:"genders"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetMatchGenders(c.Context(), currentUserID(c), req.Genders); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Match genders updated"})
}

// SetLocation handles PUT /api/users/me/location
func (s *Server) SetLocation(c *fiber.Ctx) error {
	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		RadiusKm  float64 `json:"radius_km"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.userService.SetLocation(c.Context(), currentUserID(c), req.Latitude, req.Longitude, req.RadiusKm); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location updated"})
}

// GrantSubscriptionBonus handles POST /api/users/me/subscription-bonus
func (s *Server) GrantSubscriptionBonus(c *fiber.Ctx) error {
	user, err := s.userService.GrantSubscriptionBonus(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(user)
}

// DisableAccount handles POST /api/users/me/disable
func (s *Server) DisableAccount(c *fiber.Ctx) error {
	if err := s.userService.Disable(c.Context(), currentUserID(c)); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account disabled"})
}

// ResetAccount handles POST /api/users/me/reset
func (s *Server) ResetAccount(c *fiber.Ctx) error {
	if err := s.userService.Reset(c.Context(), currentUserID(c)); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account reset"})
}

// DeleteAccount handles DELETE /api/users/me
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	if err := s.userService.DeleteAccount(c.Context(), currentUserID(c)); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted"})
}

// BlockUser handles POST /api/users/:id/block
func (s *Server) BlockUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.Block(c.Context(), currentUserID(c), targetID); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User blocked"})
}

// UnblockUser handles DELETE /api/users/:id/block
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.Unblock(c.Context(), currentUserID(c), targetID); err != nil {
		return models.RespondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User unblocked"})
}
