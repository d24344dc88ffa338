package models

import (
	"time"
)

// LikeMode records whether the liker's identity is revealed to the post owner.
type LikeMode string

const (
	LikeModeOnymous   LikeMode = "ONYMOUS"
	LikeModeAnonymous LikeMode = "ANONYMOUS"
)

// Like represents a like edge between a user and a post. One like per
// (user, post); switching modes requires dislike then re-like, which resets
// the ordering position.
type Like struct {
	ID     uint     `gorm:"primaryKey" json:"id"`
	UserID uint     `gorm:"not null;uniqueIndex:idx_like_pair" json:"user_id"`
	PostID uint     `gorm:"not null;uniqueIndex:idx_like_pair" json:"post_id"`
	Mode   LikeMode `gorm:"type:varchar(10);not null" json:"mode"`

	// LikedAt orders liked-post lists most-recent-first; re-liking resets it.
	LikedAt time.Time `gorm:"not null;index" json:"liked_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}
