package service

import (
	"context"
	"math"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
)

// MatchStatus is the computed dating relation between two users. It is never
// stored; both directions always agree because the criteria are evaluated
// mutually.
type MatchStatus string

const (
	MatchStatusPotential  MatchStatus = "POTENTIAL"
	MatchStatusNotMatched MatchStatus = "NOT_MATCHED"
)

// DatingService handles the dating opt-in lifecycle and match computation.
type DatingService struct {
	userRepo repository.UserRepository
}

// NewDatingService creates a new dating service
func NewDatingService(userRepo repository.UserRepository) *DatingService {
	return &DatingService{userRepo: userRepo}
}

// SetStatus enables or disables dating. Enabling requires a complete dating
// profile and is refused within the cooldown after disabling; disabling
// records the timestamp that starts that cooldown.
func (s *DatingService) SetStatus(ctx context.Context, userID uint, status models.DatingStatus) (*models.User, error) {
	if status != models.DatingEnabled && status != models.DatingDisabled {
		return nil, models.NewValidationError("Dating status must be ENABLED or DISABLED")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DatingStatus == status {
		return user, nil
	}

	if status == models.DatingEnabled {
		if missing := missingDatingFields(user); missing != "" {
			return nil, models.NewValidationError("Dating profile is incomplete: " + missing + " required")
		}
		if user.DatingDisabledAt != nil && time.Since(*user.DatingDisabledAt) < datingReenableCooldown {
			return nil, models.NewStateConflictError("Cannot re-enable dating within 3 hours of disabling")
		}
		if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
			"dating_status": models.DatingEnabled,
		}); err != nil {
			return nil, err
		}
		user.DatingStatus = models.DatingEnabled
		return user, nil
	}

	now := time.Now()
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"dating_status":      models.DatingDisabled,
		"dating_disabled_at": now,
	}); err != nil {
		return nil, err
	}
	user.DatingStatus = models.DatingDisabled
	user.DatingDisabledAt = &now
	return user, nil
}

// MatchStatus computes the dating relation between the viewer and the target.
func (s *DatingService) MatchStatus(ctx context.Context, viewerID, targetID uint) (MatchStatus, error) {
	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return MatchStatusNotMatched, err
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return MatchStatusNotMatched, err
	}
	if Match(viewer, target, time.Now()) {
		return MatchStatusPotential, nil
	}
	return MatchStatusNotMatched, nil
}

// Match reports whether a and b are potential dating matches: both ENABLED,
// distinct, mutually within each other's gender, age and height criteria,
// and within the smaller of the two search radii.
func Match(a, b *models.User, now time.Time) bool {
	if a.ID == b.ID {
		return false
	}
	if a.DatingStatus != models.DatingEnabled || b.DatingStatus != models.DatingEnabled {
		return false
	}
	return accepts(a, b, now) && accepts(b, a, now) && withinDistance(a, b)
}

// accepts reports whether seeker's criteria admit candidate.
func accepts(seeker, candidate *models.User, now time.Time) bool {
	if !containsString(seeker.MatchGenderList(), candidate.Gender) {
		return false
	}
	age := candidate.AgeAt(now)
	if age < 0 || seeker.MatchAgeMin == nil || seeker.MatchAgeMax == nil {
		return false
	}
	if age < *seeker.MatchAgeMin || age > *seeker.MatchAgeMax {
		return false
	}
	if seeker.MatchHeightMin != nil || seeker.MatchHeightMax != nil {
		if candidate.HeightCm == nil {
			return false
		}
		if seeker.MatchHeightMin != nil && *candidate.HeightCm < *seeker.MatchHeightMin {
			return false
		}
		if seeker.MatchHeightMax != nil && *candidate.HeightCm > *seeker.MatchHeightMax {
			return false
		}
	}
	return true
}

func withinDistance(a, b *models.User) bool {
	if a.Latitude == nil || a.Longitude == nil || b.Latitude == nil || b.Longitude == nil {
		return false
	}
	if a.MatchLocationRadiusKm == nil || b.MatchLocationRadiusKm == nil {
		return false
	}
	radius := math.Min(*a.MatchLocationRadiusKm, *b.MatchLocationRadiusKm)
	return haversineKm(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude) <= radius
}

const earthRadiusKm = 6371.0

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func missingDatingFields(user *models.User) string {
	switch {
	case user.Gender == "":
		return "gender"
	case user.DateOfBirth == nil:
		return "date of birth"
	case user.MatchGenders == "":
		return "match genders"
	case user.MatchAgeMin == nil || user.MatchAgeMax == nil:
		return "age range"
	case user.Latitude == nil || user.Longitude == nil:
		return "location"
	case user.MatchLocationRadiusKm == nil:
		return "search radius"
	}
	return ""
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
