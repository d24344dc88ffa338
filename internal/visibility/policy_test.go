package visibility

import (
	"testing"

	"glimpse/internal/models"

	"github.com/stretchr/testify/assert"
)

func publicUser(id uint) *models.User {
	return &models.User{ID: id, PrivacyStatus: models.PrivacyPublic}
}

func privateUser(id uint) *models.User {
	return &models.User{ID: id, PrivacyStatus: models.PrivacyPrivate}
}

func edge(status models.FollowStatus) *models.Follow {
	return &models.Follow{Status: status}
}

func TestRelate(t *testing.T) {
	assert.Equal(t, RelSelf, Relate(1, publicUser(1), nil))
	assert.Equal(t, RelPublic, Relate(2, publicUser(1), nil))
	assert.Equal(t, RelNone, Relate(2, privateUser(1), nil))
	assert.Equal(t, RelFollowing, Relate(2, privateUser(1), edge(models.FollowStatusFollowing)))
	assert.Equal(t, RelFollowing, Relate(2, publicUser(1), edge(models.FollowStatusFollowing)))

	// REQUESTED and DENIED grant nothing on a private owner.
	assert.Equal(t, RelNone, Relate(2, privateUser(1), edge(models.FollowStatusRequested)))
	assert.Equal(t, RelNone, Relate(2, privateUser(1), edge(models.FollowStatusDenied)))
}

func TestPolicyMatrixComplete(t *testing.T) {
	classes := []Class{ClassProfile, ClassContent, ClassFollowLists, ClassStories, ClassOwnerOnly}
	rels := []Relationship{RelSelf, RelFollowing, RelPublic, RelNone}
	for _, class := range classes {
		row, ok := policy[class]
		if !ok {
			t.Fatalf("class %d missing from policy", class)
		}
		if len(row) != len(rels) {
			t.Fatalf("class %d does not map every relationship", class)
		}
	}
}

func TestPrivateUserListsAreNullNotEmpty(t *testing.T) {
	// A non-following viewer of a private user gets Null, never Allow.
	for _, class := range []Class{ClassContent, ClassFollowLists, ClassStories} {
		assert.Equal(t, Null, Resolve(class, RelNone), "class %d", class)
	}
}

func TestOwnerOnlyFieldsIgnorePrivacyStatus(t *testing.T) {
	// Even an accepted follower of a public user gets Null for owner-only
	// fields; only the owner sees them.
	assert.Equal(t, Allow, Resolve(ClassOwnerOnly, RelSelf))
	assert.Equal(t, Null, Resolve(ClassOwnerOnly, RelFollowing))
	assert.Equal(t, Null, Resolve(ClassOwnerOnly, RelPublic))
	assert.Equal(t, Null, Resolve(ClassOwnerOnly, RelNone))
}

func TestCanViewPost(t *testing.T) {
	// Owner sees everything including PENDING and ERROR.
	assert.True(t, CanViewPost(RelSelf, models.PostStatusPending))
	assert.True(t, CanViewPost(RelSelf, models.PostStatusError))
	assert.True(t, CanViewPost(RelSelf, models.PostStatusArchived))

	// Everyone else only ever sees COMPLETED.
	assert.True(t, CanViewPost(RelPublic, models.PostStatusCompleted))
	assert.False(t, CanViewPost(RelPublic, models.PostStatusPending))
	assert.False(t, CanViewPost(RelFollowing, models.PostStatusArchived))
	assert.False(t, CanViewPost(RelNone, models.PostStatusCompleted))
}

func TestListFilterAllowed(t *testing.T) {
	// Self may filter by anything.
	assert.True(t, ListFilterAllowed(RelSelf, models.FollowStatusRequested))
	assert.True(t, ListFilterAllowed(RelSelf, models.FollowStatusDenied))

	// Others only by FOLLOWING.
	assert.True(t, ListFilterAllowed(RelPublic, models.FollowStatusFollowing))
	assert.False(t, ListFilterAllowed(RelPublic, models.FollowStatusRequested))
	assert.False(t, ListFilterAllowed(RelFollowing, models.FollowStatusDenied))
}
