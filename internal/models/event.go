package models

import (
	"time"
)

// EventKind names a projection event.
type EventKind string

const (
	// EventFollowStarted increments followed/follower counts for the pair.
	EventFollowStarted EventKind = "follow.started"
	// EventFollowEnded decrements followed/follower counts for the pair.
	EventFollowEnded EventKind = "follow.ended"
	// EventPostAdded increments the owner's post count.
	EventPostAdded EventKind = "post.added"
	// EventPostRemoved decrements the owner's post count.
	EventPostRemoved EventKind = "post.removed"
	// EventCommentAdded increments post comment counters. Delta carries 1 if
	// the comment starts unviewed, 0 if it was authored by the post owner.
	EventCommentAdded EventKind = "comment.added"
	// EventCommentRemoved decrements post comment counters; Delta mirrors
	// EventCommentAdded.
	EventCommentRemoved EventKind = "comment.removed"
	// EventCommentsViewed moves Delta comments from unviewed to viewed.
	EventCommentsViewed EventKind = "comments.viewed"
	// EventLikeAdded increments a like counter; Delta carries the mode.
	EventLikeAdded EventKind = "like.added"
	// EventLikeRemoved decrements a like counter; Delta carries the mode.
	EventLikeRemoved EventKind = "like.removed"
	// EventPostViewed increments the distinct-viewer count and drives the
	// new-views card threshold.
	EventPostViewed EventKind = "post.viewed"
)

// Delta encodings for like events.
const (
	LikeDeltaOnymous   = 1
	LikeDeltaAnonymous = 2
)

// Event is an outbox row appended right after the point write it describes.
// The append is a separate write, so a crash between the two can lose an
// event; Reconcile recomputes the affected counters from the point tables.
// The projector consumes unprocessed rows in ID order and applies the derived
// counter, ordering and card effects. A row is never mutated except to stamp
// ProcessedAt.
type Event struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Kind    EventKind `gorm:"type:varchar(24);not null" json:"kind"`
	ActorID uint      `gorm:"not null" json:"actor_id"`
	// SubjectID is the primary entity acted on (the followed user, the post).
	SubjectID uint `gorm:"not null" json:"subject_id"`
	// Delta is a kind-specific small integer payload.
	Delta int `json:"delta"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `gorm:"index" json:"processed_at,omitempty"`
}
