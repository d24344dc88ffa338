package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post.
//
// ViewedByOwner tracks the viewed-state relative to the post owner only: the
// owner's own comments are born viewed, anyone else's stay unviewed until
// the owner reports views on the post (a one-way ratchet that is re-armed by
// each new comment).
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Text     string `gorm:"type:text;not null" json:"text"`

	ViewedByOwner bool `gorm:"default:false;index" json:"-"`

	Flagged   bool `gorm:"default:false" json:"flagged"`
	FlagCount int  `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
