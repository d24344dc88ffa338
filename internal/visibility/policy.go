// Package visibility decides, per requesting viewer, which parts of a
// target user's data may be returned. The rules form a fixed matrix keyed by
// (field class, viewer relationship) so the whole policy is auditable and
// testable in one place instead of being scattered across handlers.
package visibility

import (
	"glimpse/internal/models"
)

// Relationship classifies a viewer relative to a resource owner.
type Relationship int

const (
	// RelSelf is the owner viewing their own data.
	RelSelf Relationship = iota
	// RelFollowing is a viewer with an accepted FOLLOWING edge to the owner.
	RelFollowing
	// RelPublic is any other viewer of a PUBLIC owner.
	RelPublic
	// RelNone is a viewer of a PRIVATE owner without a FOLLOWING edge,
	// including REQUESTED and DENIED requesters.
	RelNone
)

// Class groups fields that share one visibility rule.
type Class int

const (
	// ClassProfile covers username, display name, bio and similar fields
	// that identify the account to anyone who can address it.
	ClassProfile Class = iota
	// ClassContent covers completed posts, post lists and comment counts.
	ClassContent
	// ClassFollowLists covers follower/followed lists and their counts.
	ClassFollowLists
	// ClassStories covers the user's story feed.
	ClassStories
	// ClassOwnerOnly covers true privacy fields independent of
	// PUBLIC/PRIVATE: like lists and counts, comment viewed/unviewed counts,
	// viewedBy lists and counts, dating criteria, language code, accepted
	// EULA version, APNS token, subscription expiry and the requested
	// follower count.
	ClassOwnerOnly
)

// Decision is the outcome of a visibility check.
type Decision int

const (
	// Allow returns the real data.
	Allow Decision = iota
	// Null returns a JSON null for the field: the viewer has no access, as
	// opposed to an empty list which means "has access, zero items".
	Null
	// Deny rejects the query shape itself with an authorization error.
	Deny
)

// policy is the visibility matrix. Every class must map all four
// relationships.
var policy = map[Class]map[Relationship]Decision{
	ClassProfile: {
		RelSelf:      Allow,
		RelFollowing: Allow,
		RelPublic:    Allow,
		RelNone:      Allow,
	},
	ClassContent: {
		RelSelf:      Allow,
		RelFollowing: Allow,
		RelPublic:    Allow,
		RelNone:      Null,
	},
	ClassFollowLists: {
		RelSelf:      Allow,
		RelFollowing: Allow,
		RelPublic:    Allow,
		RelNone:      Null,
	},
	ClassStories: {
		RelSelf:      Allow,
		RelFollowing: Allow,
		RelPublic:    Allow,
		RelNone:      Null,
	},
	ClassOwnerOnly: {
		RelSelf:      Allow,
		RelFollowing: Null,
		RelPublic:    Null,
		RelNone:      Null,
	},
}

// Relate classifies the viewer against the owner given the follow edge
// between them (nil means no edge).
func Relate(viewerID uint, owner *models.User, edge *models.Follow) Relationship {
	if viewerID == owner.ID {
		return RelSelf
	}
	if edge != nil && edge.Status == models.FollowStatusFollowing {
		return RelFollowing
	}
	if owner.PrivacyStatus == models.PrivacyPublic {
		return RelPublic
	}
	return RelNone
}

// Resolve looks up the policy decision for a field class and relationship.
func Resolve(class Class, rel Relationship) Decision {
	return policy[class][rel]
}

// CanViewPost applies the post-level rules: PENDING and ERROR posts are
// visible to the owner only; ARCHIVED posts are visible to the owner only;
// COMPLETED posts follow the content class.
func CanViewPost(rel Relationship, status models.PostStatus) bool {
	if rel == RelSelf {
		return true
	}
	if status != models.PostStatusCompleted {
		return false
	}
	return Resolve(ClassContent, rel) == Allow
}

// ListFilterAllowed checks the query-shape rule for follow lists: a caller
// may filter their own relationships by any status, but on another user's
// relationships only the FOLLOWING filter is permitted.
func ListFilterAllowed(rel Relationship, status models.FollowStatus) bool {
	if rel == RelSelf {
		return true
	}
	return status == models.FollowStatusFollowing
}
