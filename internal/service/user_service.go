package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/visibility"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minAge      = 18
	maxAge      = 100
	minHeightCm = 50
	maxHeightCm = 250
	minRadiusKm = 5.0
	maxRadiusKm = 100.0

	datingReenableCooldown = 3 * time.Hour
	subscriptionBonusDays  = 30
)

var languageCodeRe = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// UserService handles user business logic: accounts, profile settings,
// privacy, subscriptions and blocks. It holds the raw DB handle for the
// multi-table account wipes that must run in one transaction.
type UserService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	flagRepo   repository.FlagRepository
	eventRepo  repository.EventRepository
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, userRepo repository.UserRepository, followRepo repository.FollowRepository, postRepo repository.PostRepository, flagRepo repository.FlagRepository, eventRepo repository.EventRepository) *UserService {
	return &UserService{
		db:         db,
		userRepo:   userRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		flagRepo:   flagRepo,
		eventRepo:  eventRepo,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 30 {
		return nil, models.NewValidationError("Username must be between 3 and 30 characters")
	}
	if !strings.Contains(email, "@") {
		return nil, models.NewValidationError("Invalid email address")
	}
	if len(password) < 8 {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Username:      username,
		Email:         strings.ToLower(email),
		Password:      string(hashed),
		PrivacyStatus: models.PrivacyPublic,
		Status:        models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials by email or username and returns the
// user. DISABLED accounts may still log in; they just cannot mutate.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// Get returns a user by ID without any visibility filtering. Callers that
// serve other viewers must go through Profile.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UserProfile is the visibility-filtered view of a user. Pointer fields are
// nil when the viewer has no access to them; the JSON rendering then carries
// an explicit null, distinct from a zero count.
type UserProfile struct {
	ID            uint                 `json:"id"`
	Username      string               `json:"username"`
	FullName      string               `json:"full_name,omitempty"`
	DisplayName   string               `json:"display_name,omitempty"`
	Bio           string               `json:"bio,omitempty"`
	Gender        string               `json:"gender,omitempty"`
	PrivacyStatus models.PrivacyStatus `json:"privacy_status"`

	// FollowStatus is the viewer's edge to this user; NOT_FOLLOWING when no
	// edge exists.
	FollowStatus string `json:"follow_status"`

	FollowerCount *int `json:"follower_count"`
	FollowedCount *int `json:"followed_count"`
	PostCount     *int `json:"post_count"`

	RequestedFollowerCount *int `json:"requested_follower_count,omitempty"`

	// Owner-only settings; always null for other viewers.
	Email                 *string                   `json:"email,omitempty"`
	Status                *models.UserStatus        `json:"status,omitempty"`
	LanguageCode          *string                   `json:"language_code,omitempty"`
	ThemeCode             *string                   `json:"theme_code,omitempty"`
	AcceptedEULAVersion   *string                   `json:"accepted_eula_version,omitempty"`
	SubscriptionLevel     *models.SubscriptionLevel `json:"subscription_level,omitempty"`
	SubscriptionExpiresAt *time.Time                `json:"subscription_expires_at,omitempty"`
	ViewCountsHidden      *bool                     `json:"view_counts_hidden,omitempty"`
	DatingStatus          *models.DatingStatus      `json:"dating_status,omitempty"`
}

// Profile builds the viewer-dependent projection of a user. A target that has
// blocked the viewer is reported as not found.
func (s *UserService) Profile(ctx context.Context, viewerID, targetID uint) (*UserProfile, error) {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if viewerID != targetID {
		blocked, err := s.flagRepo.IsBlocked(ctx, targetID, viewerID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, models.NewNotFoundError("User", targetID)
		}
	}

	var edge *models.Follow
	if viewerID != targetID {
		edge, err = s.followRepo.GetEdge(ctx, viewerID, targetID)
		if err != nil {
			return nil, err
		}
	}
	rel := visibility.Relate(viewerID, target, edge)

	profile := &UserProfile{
		ID:            target.ID,
		Username:      target.Username,
		FullName:      target.FullName,
		DisplayName:   target.DisplayName,
		Bio:           target.Bio,
		Gender:        target.Gender,
		PrivacyStatus: target.PrivacyStatus,
		FollowStatus:  "NOT_FOLLOWING",
	}
	if edge != nil {
		profile.FollowStatus = string(edge.Status)
	}
	if rel == visibility.RelSelf {
		profile.FollowStatus = ""
	}

	if visibility.Resolve(visibility.ClassFollowLists, rel) == visibility.Allow {
		profile.FollowerCount = intPtr(target.FollowerCount)
		profile.FollowedCount = intPtr(target.FollowedCount)
	}
	if visibility.Resolve(visibility.ClassContent, rel) == visibility.Allow {
		profile.PostCount = intPtr(target.PostCount)
	}

	if visibility.Resolve(visibility.ClassOwnerOnly, rel) == visibility.Allow {
		requested, err := s.followRepo.CountFollowers(ctx, targetID, models.FollowStatusRequested)
		if err != nil {
			return nil, err
		}
		requestedCount := int(requested)
		profile.RequestedFollowerCount = &requestedCount
		profile.Email = &target.Email
		profile.Status = &target.Status
		profile.LanguageCode = &target.LanguageCode
		profile.ThemeCode = &target.ThemeCode
		profile.AcceptedEULAVersion = &target.AcceptedEULAVersion
		profile.SubscriptionLevel = &target.SubscriptionLevel
		profile.SubscriptionExpiresAt = target.SubscriptionExpiresAt
		profile.ViewCountsHidden = &target.ViewCountsHidden
		profile.DatingStatus = &target.DatingStatus
	}
	return profile, nil
}

// Search finds users by username or full-name prefix. Users who blocked the
// viewer are filtered out of the results.
func (s *UserService) Search(ctx context.Context, viewerID uint, token string, limit, offset int) ([]models.User, error) {
	token = strings.TrimSpace(token)
	if len(token) < 2 {
		return nil, models.NewValidationError("Search token must be at least 2 characters")
	}
	users, err := s.userRepo.Search(ctx, token, limit, offset)
	if err != nil {
		return nil, err
	}
	blockers, err := s.flagRepo.BlockerIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(blockers) == 0 {
		return users, nil
	}
	blockerSet := make(map[uint]struct{}, len(blockers))
	for _, id := range blockers {
		blockerSet[id] = struct{}{}
	}
	filtered := users[:0]
	for _, u := range users {
		if _, hidden := blockerSet[u.ID]; !hidden {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

// UserDetails carries the optional profile fields of SetDetails. Nil fields
// are left unchanged.
type UserDetails struct {
	Username    *string    `json:"username"`
	FullName    *string    `json:"full_name"`
	DisplayName *string    `json:"display_name"`
	Bio         *string    `json:"bio"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	HeightCm    *int       `json:"height_cm"`
}

// SetDetails applies a partial profile update. A username change collides
// with an existing name as a conflict.
func (s *UserService) SetDetails(ctx context.Context, userID uint, details UserDetails) (*models.User, error) {
	fields := map[string]interface{}{}
	if details.Username != nil {
		name := strings.TrimSpace(*details.Username)
		if len(name) < 3 || len(name) > 30 {
			return nil, models.NewValidationError("Username must be between 3 and 30 characters")
		}
		fields["username"] = name
	}
	if details.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*details.FullName)
	}
	if details.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*details.DisplayName)
	}
	if details.Bio != nil {
		fields["bio"] = *details.Bio
	}
	if details.DateOfBirth != nil {
		if time.Now().AddDate(-minAge, 0, 0).Before(*details.DateOfBirth) {
			return nil, models.NewValidationError("Must be at least 18 years old")
		}
		fields["date_of_birth"] = *details.DateOfBirth
	}
	if details.Gender != nil {
		fields["gender"] = strings.ToUpper(strings.TrimSpace(*details.Gender))
	}
	if details.HeightCm != nil {
		if *details.HeightCm < minHeightCm || *details.HeightCm > maxHeightCm {
			return nil, models.NewValidationError("Height must be between 50 and 250 cm")
		}
		fields["height_cm"] = *details.HeightCm
	}
	if len(fields) == 0 {
		return s.userRepo.GetByID(ctx, userID)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// SetPrivacyStatus switches the account between PUBLIC and PRIVATE. Going
// PRIVATE -> PUBLIC converts every pending REQUESTED edge to FOLLOWING in
// bulk and emits one counter event per converted edge; DENIED edges stay
// denied.
func (s *UserService) SetPrivacyStatus(ctx context.Context, userID uint, status models.PrivacyStatus) (*models.User, error) {
	if status != models.PrivacyPublic && status != models.PrivacyPrivate {
		return nil, models.NewValidationError("Privacy status must be PUBLIC or PRIVATE")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PrivacyStatus == status {
		return user, nil
	}

	if user.PrivacyStatus == models.PrivacyPrivate && status == models.PrivacyPublic {
		requesterIDs, err := s.followRepo.RequestedFollowerIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.followRepo.ConvertRequestedToFollowing(ctx, userID, time.Now()); err != nil {
			return nil, err
		}
		for _, requesterID := range requesterIDs {
			if err := s.eventRepo.Append(ctx, &models.Event{
				Kind:      models.EventFollowStarted,
				ActorID:   requesterID,
				SubjectID: userID,
			}); err != nil {
				return nil, err
			}
		}
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"privacy_status": status}); err != nil {
		return nil, err
	}
	user.PrivacyStatus = status
	return user, nil
}

// MentalHealthSettings are the per-account defaults new posts inherit.
type MentalHealthSettings struct {
	CommentsDisabled   *bool `json:"comments_disabled"`
	LikesDisabled      *bool `json:"likes_disabled"`
	SharingDisabled    *bool `json:"sharing_disabled"`
	VerificationHidden *bool `json:"verification_hidden"`
}

// SetMentalHealthSettings applies the partial settings update. Changing a
// default never rewrites existing posts; they resolve it at read time.
func (s *UserService) SetMentalHealthSettings(ctx context.Context, userID uint, settings MentalHealthSettings) error {
	fields := map[string]interface{}{}
	if settings.CommentsDisabled != nil {
		fields["comments_disabled"] = *settings.CommentsDisabled
	}
	if settings.LikesDisabled != nil {
		fields["likes_disabled"] = *settings.LikesDisabled
	}
	if settings.SharingDisabled != nil {
		fields["sharing_disabled"] = *settings.SharingDisabled
	}
	if settings.VerificationHidden != nil {
		fields["verification_hidden"] = *settings.VerificationHidden
	}
	if len(fields) == 0 {
		return nil
	}
	return s.userRepo.UpdateFields(ctx, userID, fields)
}

// SetViewCountsHidden toggles whether the owner's viewed-by counts are
// surfaced to the owner.
func (s *UserService) SetViewCountsHidden(ctx context.Context, userID uint, hidden bool) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"view_counts_hidden": hidden})
}

// SetLanguageCode stores the preferred UI language (ISO 639-1, optionally
// with a region suffix).
func (s *UserService) SetLanguageCode(ctx context.Context, userID uint, code string) error {
	if !languageCodeRe.MatchString(code) {
		return models.NewValidationError("Invalid language code")
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"language_code": code})
}

// SetThemeCode stores the client theme preference.
func (s *UserService) SetThemeCode(ctx context.Context, userID uint, code string) error {
	if code == "" || len(code) > 32 {
		return models.NewValidationError("Invalid theme code")
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"theme_code": code})
}

// SetAcceptedEULAVersion records the EULA version the user accepted.
func (s *UserService) SetAcceptedEULAVersion(ctx context.Context, userID uint, version string) error {
	if version == "" {
		return models.NewValidationError("EULA version is required")
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"accepted_eula_version": version})
}

// SetAPNSToken stores the push token. An empty token clears it.
func (s *UserService) SetAPNSToken(ctx context.Context, userID uint, token string) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"apns_token": token})
}

// SetMatchAgeRange sets the dating age criteria.
func (s *UserService) SetMatchAgeRange(ctx context.Context, userID uint, min, max int) error {
	if min < minAge || max > maxAge || min > max {
		return models.NewValidationError("Age range must satisfy 18 <= min <= max <= 100")
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"match_age_min": min,
		"match_age_max": max,
	})
}

// SetMatchHeightRange sets the dating height criteria.
func (s *UserService) SetMatchHeightRange(ctx context.Context, userID uint, min, max int) error {
	if min < minHeightCm || max > maxHeightCm || min > max {
		return models.NewValidationError("Height range must satisfy 50 <= min <= max <= 250")
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"match_height_min": min,
		"match_height_max": max,
	})
}

// SetMatchGenders sets the dating gender criteria.
func (s *UserService) SetMatchGenders(ctx context.Context, userID uint, genders []string) error {
	if len(genders) == 0 {
		return models.NewValidationError("At least one gender is required")
	}
	cleaned := make([]string, 0, len(genders))
	for _, g := range genders {
		g = strings.ToUpper(strings.TrimSpace(g))
		if g == "" {
			return models.NewValidationError("Gender values cannot be empty")
		}
		cleaned = append(cleaned, g)
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"match_genders": strings.Join(cleaned, ","),
	})
}

// SetLocation sets the user's position and dating search radius.
func (s *UserService) SetLocation(ctx context.Context, userID uint, lat, lon, radiusKm float64) error {
	if lat < -90 || lat > 90 {
		return models.NewValidationError("Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return models.NewValidationError("Longitude must be between -180 and 180")
	}
	if radiusKm < minRadiusKm || radiusKm > maxRadiusKm {
		return models.NewValidationError("Search radius must be between 5 and 100 km")
	}
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"latitude":                 lat,
		"longitude":                lon,
		"match_location_radius_km": radiusKm,
	})
}

// GrantSubscriptionBonus grants the one-time 30-day DIAMOND trial. A second
// grant is a conflict regardless of whether the first has expired.
func (s *UserService) GrantSubscriptionBonus(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.SubscriptionBonusGranted {
		return nil, models.NewConflictError("Subscription bonus already granted")
	}
	expires := time.Now().AddDate(0, 0, subscriptionBonusDays)
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"subscription_level":         models.SubscriptionDiamond,
		"subscription_expires_at":    expires,
		"subscription_bonus_granted": true,
	}); err != nil {
		return nil, err
	}
	user.SubscriptionLevel = models.SubscriptionDiamond
	user.SubscriptionExpiresAt = &expires
	user.SubscriptionBonusGranted = true
	return user, nil
}

// Disable marks the account DISABLED. The account and its content stay
// visible; further mutations by the user are rejected at the door.
func (s *UserService) Disable(ctx context.Context, userID uint) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"status": models.UserStatusDisabled})
}

// Reset wipes the account's content and social graph but keeps the account
// and credentials. Counter events for severed FOLLOWING edges repair the
// counterparties' counts; the user's own counters are zeroed directly.
func (s *UserService) Reset(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.appendSeveredFollowEvents(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.wipeContent(tx, userID); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"full_name":                "",
			"display_name":             "",
			"bio":                      "",
			"gender":                   "",
			"date_of_birth":            nil,
			"height_cm":                nil,
			"latitude":                 nil,
			"longitude":                nil,
			"match_age_min":            nil,
			"match_age_max":            nil,
			"match_genders":            "",
			"match_location_radius_km": nil,
			"match_height_min":         nil,
			"match_height_max":         nil,
			"photo_post_id":            nil,
			"dating_status":            models.DatingDisabled,
			"follower_count":           0,
			"followed_count":           0,
			"post_count":               0,
		}).Error
	})
}

// DeleteAccount soft-deletes the user and removes their content and graph
// edges in one transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.appendSeveredFollowEvents(ctx, tx, userID); err != nil {
			return err
		}
		if err := s.wipeContent(tx, userID); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
}

// appendSeveredFollowEvents emits follow.ended for every FOLLOWING edge
// touching the user so the projector repairs the counterparties' counters.
func (s *UserService) appendSeveredFollowEvents(ctx context.Context, tx *gorm.DB, userID uint) error {
	var edges []models.Follow
	if err := tx.Where("(follower_id = ? OR followed_id = ?) AND status = ?",
		userID, userID, models.FollowStatusFollowing).
		Find(&edges).Error; err != nil {
		return err
	}
	for _, edge := range edges {
		if err := tx.Create(&models.Event{
			Kind:      models.EventFollowEnded,
			ActorID:   edge.FollowerID,
			SubjectID: edge.FollowedID,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *UserService) wipeContent(tx *gorm.DB, userID uint) error {
	var postIDs []uint
	if err := tx.Model(&models.Post{}).Where("owner_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
		return err
	}
	if len(postIDs) > 0 {
		for _, table := range []interface{}{&models.Comment{}, &models.Like{}, &models.PostView{}} {
			if err := tx.Where("post_id IN ?", postIDs).Delete(table).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
			return err
		}
	}
	steps := []func() error{
		func() error {
			return tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error
		},
		func() error {
			return tx.Where("user_id = ?", userID).Delete(&models.Like{}).Error
		},
		func() error {
			return tx.Where("viewer_id = ?", userID).Delete(&models.PostView{}).Error
		},
		func() error {
			return tx.Where("follower_id = ? OR followed_id = ?", userID, userID).Delete(&models.Follow{}).Error
		},
		func() error {
			return tx.Where("owner_id = ?", userID).Delete(&models.Card{}).Error
		},
		func() error {
			return tx.Where("owner_id = ?", userID).Delete(&models.CardTrigger{}).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Block creates a block edge and severs any follow relationship in both
// directions, with counter events for accepted edges.
func (s *UserService) Block(ctx context.Context, blockerID, blockedID uint) error {
	if blockerID == blockedID {
		return models.NewValidationError("Cannot block yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, blockedID); err != nil {
		return err
	}
	if err := s.flagRepo.CreateBlock(ctx, &models.Block{BlockerID: blockerID, BlockedID: blockedID}); err != nil {
		return err
	}
	for _, pair := range [][2]uint{{blockerID, blockedID}, {blockedID, blockerID}} {
		edge, err := s.followRepo.GetEdge(ctx, pair[0], pair[1])
		if err != nil {
			return err
		}
		if edge != nil && edge.Status == models.FollowStatusFollowing {
			if err := s.eventRepo.Append(ctx, &models.Event{
				Kind:      models.EventFollowEnded,
				ActorID:   pair[0],
				SubjectID: pair[1],
			}); err != nil {
				return err
			}
		}
	}
	return s.followRepo.DeleteBetween(ctx, blockerID, blockedID)
}

// Unblock removes a block edge. Severed follow edges are not restored.
func (s *UserService) Unblock(ctx context.Context, blockerID, blockedID uint) error {
	removed, err := s.flagRepo.DeleteBlock(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Block of user", blockedID)
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
