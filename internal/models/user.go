// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// PrivacyStatus controls who may see a user's posts, lists and counts.
type PrivacyStatus string

const (
	// PrivacyPublic makes completed posts and lists visible to everyone.
	PrivacyPublic PrivacyStatus = "PUBLIC"
	// PrivacyPrivate restricts posts and lists to accepted followers.
	PrivacyPrivate PrivacyStatus = "PRIVATE"
)

// UserStatus represents the account lifecycle state.
type UserStatus string

const (
	// UserStatusActive is the normal account state.
	UserStatusActive UserStatus = "ACTIVE"
	// UserStatusDisabled blocks all further mutations by the user.
	UserStatusDisabled UserStatus = "DISABLED"
)

// DatingStatus represents whether the user participates in dating matches.
type DatingStatus string

const (
	DatingEnabled  DatingStatus = "ENABLED"
	DatingDisabled DatingStatus = "DISABLED"
)

// SubscriptionLevel is the user's paid tier.
type SubscriptionLevel string

const (
	SubscriptionBasic   SubscriptionLevel = "BASIC"
	SubscriptionDiamond SubscriptionLevel = "DIAMOND"
)

// User represents a user in the Glimpse application.
//
// FollowerCount, FollowedCount and PostCount are denormalized aggregates
// maintained asynchronously by the projector; the point write is the source
// of truth and the counters converge shortly after.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	PrivacyStatus PrivacyStatus `gorm:"type:varchar(10);default:'PUBLIC'" json:"privacy_status"`
	Status        UserStatus    `gorm:"type:varchar(10);default:'ACTIVE'" json:"status"`

	FullName    string     `json:"full_name,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `gorm:"type:varchar(10)" json:"gender,omitempty"`
	HeightCm    *int       `json:"height_cm,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`

	// Mental-health defaults applied to new posts unless overridden per post.
	CommentsDisabled   bool `json:"comments_disabled"`
	LikesDisabled      bool `json:"likes_disabled"`
	SharingDisabled    bool `json:"sharing_disabled"`
	VerificationHidden bool `json:"verification_hidden"`

	ViewCountsHidden bool `json:"view_counts_hidden"`

	LanguageCode        string `gorm:"type:varchar(8)" json:"language_code,omitempty"`
	ThemeCode           string `gorm:"type:varchar(32)" json:"theme_code,omitempty"`
	AcceptedEULAVersion string `gorm:"type:varchar(16)" json:"accepted_eula_version,omitempty"`
	APNSToken           string `json:"-"`

	SubscriptionLevel        SubscriptionLevel `gorm:"type:varchar(10);default:'BASIC'" json:"subscription_level"`
	SubscriptionExpiresAt    *time.Time        `json:"subscription_expires_at,omitempty"`
	SubscriptionBonusGranted bool              `json:"-"`

	DatingStatus          DatingStatus `gorm:"type:varchar(10);default:'DISABLED'" json:"dating_status"`
	DatingDisabledAt      *time.Time   `json:"-"`
	MatchAgeMin           *int         `json:"match_age_min,omitempty"`
	MatchAgeMax           *int         `json:"match_age_max,omitempty"`
	MatchGenders          string       `json:"match_genders,omitempty"` // comma separated
	MatchLocationRadiusKm *float64     `json:"match_location_radius_km,omitempty"`
	MatchHeightMin        *int         `json:"match_height_min,omitempty"`
	MatchHeightMax        *int         `json:"match_height_max,omitempty"`
	PhotoPostID           *uint        `json:"photo_post_id,omitempty"`

	FollowerCount int `json:"follower_count"`
	FollowedCount int `json:"followed_count"`
	PostCount     int `json:"post_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MatchGenderList splits the comma-separated match genders.
func (u *User) MatchGenderList() []string {
	if u.MatchGenders == "" {
		return nil
	}
	parts := strings.Split(u.MatchGenders, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// AgeAt returns the user's age in whole years at the given instant, or -1 if
// the date of birth is not set.
func (u *User) AgeAt(now time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	dob := *u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	return age
}
