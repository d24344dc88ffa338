package models

import (
	"time"

	"gorm.io/gorm"
)

// PostType distinguishes media posts from text-only posts.
type PostType string

const (
	PostTypeImage    PostType = "IMAGE"
	PostTypeVideo    PostType = "VIDEO"
	PostTypeTextOnly PostType = "TEXT_ONLY"
)

// PostStatus is the media-processing lifecycle of a post.
type PostStatus string

const (
	// PostStatusPending means media was not yet processed; visible to owner only.
	PostStatusPending PostStatus = "PENDING"
	// PostStatusCompleted means the post is fully available.
	PostStatusCompleted PostStatus = "COMPLETED"
	// PostStatusError means media processing failed.
	PostStatusError PostStatus = "ERROR"
	// PostStatusArchived removes the post from feeds and stories.
	PostStatusArchived PostStatus = "ARCHIVED"
)

// Post represents a post in the Glimpse application. A post with a non-nil
// ExpiresAt is a story and is surfaced soonest-to-expire first.
//
// CommentsCount, CommentsUnviewedCount, OnymousLikeCount, AnonymousLikeCount
// and ViewedByCount are denormalized aggregates maintained by the projector.
type Post struct {
	ID      uint       `gorm:"primaryKey" json:"id"`
	OwnerID uint       `gorm:"not null;index" json:"owner_id"`
	Owner   User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Type    PostType   `gorm:"type:varchar(10);not null" json:"type"`
	Status  PostStatus `gorm:"type:varchar(10);not null;index" json:"status"`

	Text     string `gorm:"type:text" json:"text,omitempty"`
	MediaKey string `gorm:"type:varchar(64)" json:"media_key,omitempty"`

	CropX      *int `json:"crop_x,omitempty"`
	CropY      *int `json:"crop_y,omitempty"`
	CropWidth  *int `json:"crop_width,omitempty"`
	CropHeight *int `json:"crop_height,omitempty"`

	PostedAt  time.Time  `gorm:"not null;index" json:"posted_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`

	// IsVerified is set by the media verification pipeline; nil until known.
	IsVerified *bool `json:"is_verified,omitempty"`

	// Per-post overrides of the owner's mental-health defaults; nil means
	// "inherit from owner".
	CommentsDisabled *bool `json:"comments_disabled,omitempty"`
	LikesDisabled    *bool `json:"likes_disabled,omitempty"`
	SharingDisabled  *bool `json:"sharing_disabled,omitempty"`

	Flagged   bool `gorm:"default:false" json:"flagged"`
	FlagCount int  `json:"-"`

	CommentsCount         int `json:"comments_count"`
	CommentsUnviewedCount int `json:"-"`
	OnymousLikeCount      int `json:"-"`
	AnonymousLikeCount    int `json:"-"`
	ViewedByCount         int `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsStory reports whether the post currently counts as a story.
func (p *Post) IsStory(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.After(now)
}

// CommentsAllowed resolves the per-post override against the owner default.
func (p *Post) CommentsAllowed(owner *User) bool {
	if p.CommentsDisabled != nil {
		return !*p.CommentsDisabled
	}
	return !owner.CommentsDisabled
}

// LikesAllowed resolves the per-post override against the owner default.
func (p *Post) LikesAllowed(owner *User) bool {
	if p.LikesDisabled != nil {
		return !*p.LikesDisabled
	}
	return !owner.LikesDisabled
}
