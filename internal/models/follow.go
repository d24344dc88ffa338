package models

import (
	"time"
)

// FollowStatus represents the state of a follow edge. Absence of an edge
// means NOT_FOLLOWING.
type FollowStatus string

const (
	// FollowStatusRequested indicates a pending follow request to a private user.
	FollowStatusRequested FollowStatus = "REQUESTED"
	// FollowStatusFollowing indicates an accepted (or public auto-accepted) follow.
	FollowStatusFollowing FollowStatus = "FOLLOWING"
	// FollowStatusDenied indicates the followed user denied or revoked the follow.
	FollowStatusDenied FollowStatus = "DENIED"
)

// Follow represents the directed follow edge between two users.
// At most one edge exists per ordered (follower, followed) pair.
type Follow struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	FollowerID uint         `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowedID uint         `gorm:"not null;uniqueIndex:idx_follow_pair" json:"followed_id"`
	Status     FollowStatus `gorm:"type:varchar(12);not null;index" json:"status"`

	// StatusChangedAt orders followed/follower lists: most recently
	// transitioned to FOLLOWING first.
	StatusChangedAt time.Time `gorm:"not null;index" json:"status_changed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followed User `gorm:"foreignKey:FollowedID" json:"followed,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
