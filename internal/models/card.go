package models

import (
	"time"
)

// CardKind identifies the triggering condition class of a card.
type CardKind string

const (
	// CardKindNewPostViews fires once per post when it crosses the distinct
	// viewer threshold.
	CardKindNewPostViews CardKind = "NEW_POST_VIEWS"
)

// Card is an in-app notification-like object surfaced in the owner's card
// list, most recent first.
type Card struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	OwnerID      uint     `gorm:"not null;index" json:"owner_id"`
	Kind         CardKind `gorm:"type:varchar(24);not null" json:"kind"`
	PostID       *uint    `json:"post_id,omitempty"`
	Title        string   `gorm:"not null" json:"title"`
	SubTitle     string   `json:"sub_title,omitempty"`
	Action       string   `json:"action,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// CardTrigger is the fired-once ledger. A row means the (owner, post, kind)
// trigger already produced its card; deleting the card never clears the row,
// so the card is never regenerated.
type CardTrigger struct {
	ID      uint     `gorm:"primaryKey" json:"id"`
	OwnerID uint     `gorm:"not null;uniqueIndex:idx_card_trigger" json:"owner_id"`
	PostID  uint     `gorm:"not null;uniqueIndex:idx_card_trigger" json:"post_id"`
	Kind    CardKind `gorm:"type:varchar(24);not null;uniqueIndex:idx_card_trigger" json:"kind"`

	CreatedAt time.Time `json:"created_at"`
}
