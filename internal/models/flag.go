package models

import (
	"time"
)

// FlagTargetType is the kind of entity a flag points at.
type FlagTargetType string

const (
	FlagTargetPost    FlagTargetType = "post"
	FlagTargetComment FlagTargetType = "comment"
)

// Flag represents a user flagging a post or comment. One flag per user per
// target.
type Flag struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_flag_target" json:"user_id"`
	TargetType FlagTargetType `gorm:"type:varchar(10);not null;uniqueIndex:idx_flag_target" json:"target_type"`
	TargetID   uint           `gorm:"not null;uniqueIndex:idx_flag_target" json:"target_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Block represents one user blocking another. A blocked user loses all
// visibility into the blocker and cannot follow them.
type Block struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BlockerID uint `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocker_id"`
	BlockedID uint `gorm:"not null;uniqueIndex:idx_block_pair" json:"blocked_id"`

	CreatedAt time.Time `json:"created_at"`
}
