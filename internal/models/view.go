package models

import (
	"time"
)

// PostView records that a user viewed a post. Distinctness is enforced by
// the unique (post, viewer) index; repeat views only bump ViewCount.
type PostView struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PostID   uint `gorm:"not null;uniqueIndex:idx_post_view" json:"post_id"`
	ViewerID uint `gorm:"not null;uniqueIndex:idx_post_view" json:"viewer_id"`

	ViewCount     int       `gorm:"default:1" json:"view_count"`
	FirstViewedAt time.Time `gorm:"not null" json:"first_viewed_at"`
	LastViewedAt  time.Time `gorm:"not null" json:"last_viewed_at"`

	Viewer User `gorm:"foreignKey:ViewerID" json:"viewer,omitempty"`
}
