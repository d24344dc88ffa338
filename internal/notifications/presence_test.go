package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRegisterMarksOnlineInRedis(t *testing.T) {
	rdb := newTestRedis(t)
	p := NewPresence(rdb, PresenceOptions{})
	defer p.Stop()
	ctx := context.Background()

	assert.False(t, p.IsOnline(ctx, 1))
	p.Register(ctx, 1)
	assert.True(t, p.IsOnline(ctx, 1))

	ids := p.OnlineUserIDs(ctx)
	require.Len(t, ids, 1)
	assert.Equal(t, uint(1), ids[0])
}

func TestPresenceOfflineAfterGracePeriod(t *testing.T) {
	var mu sync.Mutex
	var offline []uint
	p := NewPresence(nil, PresenceOptions{
		OfflineGrace: 20 * time.Millisecond,
		OnOffline: func(userID uint) {
			mu.Lock()
			offline = append(offline, userID)
			mu.Unlock()
		},
	})
	defer p.Stop()
	ctx := context.Background()

	p.Register(ctx, 1)
	p.Unregister(ctx, 1)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(offline) == 1 && offline[0] == uint(1)
	}, time.Second, 10*time.Millisecond)
	assert.False(t, p.IsOnline(ctx, 1))
}

func TestPresenceReconnectWithinGraceStaysOnline(t *testing.T) {
	var mu sync.Mutex
	var offline []uint
	p := NewPresence(nil, PresenceOptions{
		OfflineGrace: 100 * time.Millisecond,
		OnOffline: func(userID uint) {
			mu.Lock()
			offline = append(offline, userID)
			mu.Unlock()
		},
	})
	defer p.Stop()
	ctx := context.Background()

	p.Register(ctx, 1)
	p.Unregister(ctx, 1)
	p.Register(ctx, 1)

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, offline)
	assert.True(t, p.IsOnline(ctx, 1))
}

func TestPresenceSecondConnectionKeepsUserOnline(t *testing.T) {
	p := NewPresence(nil, PresenceOptions{
		OfflineGrace: 20 * time.Millisecond,
	})
	defer p.Stop()
	ctx := context.Background()

	p.Register(ctx, 1)
	p.Register(ctx, 1)
	p.Unregister(ctx, 1)

	time.Sleep(60 * time.Millisecond)
	assert.True(t, p.IsOnline(ctx, 1))
}

func TestPresenceOnlineCallbackFiresOncePerTransition(t *testing.T) {
	var mu sync.Mutex
	var online []uint
	p := NewPresence(nil, PresenceOptions{
		OnOnline: func(userID uint) {
			mu.Lock()
			online = append(online, userID)
			mu.Unlock()
		},
	})
	defer p.Stop()
	ctx := context.Background()

	p.Register(ctx, 7)
	p.Register(ctx, 7)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint{7}, online)
}

func TestPresenceReapPrunesStaleRedisMembers(t *testing.T) {
	rdb := newTestRedis(t)
	p := NewPresence(rdb, PresenceOptions{})
	defer p.Stop()
	ctx := context.Background()

	// A member in the online set with no last-seen key is stale: another
	// instance crashed without unregistering.
	require.NoError(t, rdb.SAdd(ctx, presenceOnlineSetKey, "42").Err())

	p.reapOnce(ctx)

	members, err := rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	require.NoError(t, err)
	assert.Empty(t, members)
	assert.False(t, p.IsOnline(ctx, 42))
}
