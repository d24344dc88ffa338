package notifications

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"glimpse/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	presenceOnlineSetKey  = "presence:online_users"
	presenceLastSeenKeyNS = "presence:last_seen:"

	defaultPresenceTTL    = 90 * time.Second
	defaultOfflineGrace   = 5 * time.Second
	defaultReaperInterval = 60 * time.Second
)

// PresenceOptions override the presence timing defaults and register
// transition callbacks. Zero values keep the defaults.
type PresenceOptions struct {
	LastSeenTTL    time.Duration
	OfflineGrace   time.Duration
	ReaperInterval time.Duration
	OnOnline       func(userID uint)
	OnOffline      func(userID uint)
}

// presenceEntry is the per-user state: how many local connections the user
// holds, the pending offline grace timer, and whether the offline transition
// was already emitted.
type presenceEntry struct {
	conns       int
	graceTimer  *time.Timer
	wentOffline bool
}

// Presence tracks which users hold at least one live websocket connection.
// Local connection counts answer instantly; when Redis is available the
// last-seen keys extend the answer across instances. Offline transitions are
// debounced by a grace window so a page reload does not flap.
type Presence struct {
	rdb *redis.Client

	ttl    time.Duration
	grace  time.Duration
	reapIn time.Duration

	mu    sync.Mutex
	users map[uint]*presenceEntry

	onOnline  func(userID uint)
	onOffline func(userID uint)

	stopOnce sync.Once
	stop     chan struct{}
}

// NewPresence creates a presence tracker. With a Redis client it also starts
// a background reaper that prunes users whose last-seen key expired.
func NewPresence(rdb *redis.Client, opts PresenceOptions) *Presence {
	p := &Presence{
		rdb:       rdb,
		ttl:       defaultPresenceTTL,
		grace:     defaultOfflineGrace,
		reapIn:    defaultReaperInterval,
		users:     make(map[uint]*presenceEntry),
		onOnline:  opts.OnOnline,
		onOffline: opts.OnOffline,
		stop:      make(chan struct{}),
	}
	if opts.LastSeenTTL > 0 {
		p.ttl = opts.LastSeenTTL
	}
	if opts.OfflineGrace > 0 {
		p.grace = opts.OfflineGrace
	}
	if opts.ReaperInterval > 0 {
		p.reapIn = opts.ReaperInterval
	}

	if p.rdb != nil {
		go p.reaperLoop()
	}
	return p
}

// SetCallbacks replaces the online/offline transition hooks.
func (p *Presence) SetCallbacks(onOnline, onOffline func(userID uint)) {
	p.mu.Lock()
	p.onOnline = onOnline
	p.onOffline = onOffline
	p.mu.Unlock()
}

// Stop cancels pending grace timers and the reaper.
func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.mu.Lock()
		for _, e := range p.users {
			if e.graceTimer != nil {
				e.graceTimer.Stop()
				e.graceTimer = nil
			}
		}
		p.mu.Unlock()
	})
}

// Register records a new connection for the user and refreshes Redis
// presence. The online callback fires only on the offline→online transition.
func (p *Presence) Register(ctx context.Context, userID uint) {
	wasOnline := p.IsOnline(ctx, userID)

	p.mu.Lock()
	e := p.users[userID]
	if e == nil {
		e = &presenceEntry{}
		p.users[userID] = e
	}
	if e.graceTimer != nil {
		e.graceTimer.Stop()
		e.graceTimer = nil
	}
	e.conns++
	e.wentOffline = false
	cb := p.onOnline
	p.mu.Unlock()

	p.Touch(ctx, userID)
	if !wasOnline && cb != nil {
		cb(userID)
	}
}

// Unregister drops one connection. When the last one goes, the user stays
// online for the grace window before the offline transition is finalized.
func (p *Presence) Unregister(_ context.Context, userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.users[userID]
	if e == nil {
		return
	}
	if e.conns > 0 {
		e.conns--
	}
	if e.conns > 0 {
		return
	}
	if e.graceTimer != nil {
		e.graceTimer.Stop()
	}
	e.graceTimer = time.AfterFunc(p.grace, func() {
		p.finalizeOffline(context.Background(), userID)
	})
}

// Touch refreshes the user's Redis presence keys. Called on registration and
// on websocket activity (pongs, messages).
func (p *Presence) Touch(ctx context.Context, userID uint) {
	if p.rdb == nil {
		return
	}
	uid := formatUserID(userID)
	if err := p.rdb.SAdd(ctx, presenceOnlineSetKey, uid).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("sadd").Inc()
		log.Printf("presence touch SADD failed for user %d: %v", userID, err)
	}
	lastSeen := strconv.FormatInt(time.Now().Unix(), 10)
	if err := p.rdb.SetEx(ctx, presenceLastSeenKeyNS+uid, lastSeen, p.ttl).Err(); err != nil {
		middleware.RedisErrors.WithLabelValues("setex").Inc()
		log.Printf("presence touch SETEX failed for user %d: %v", userID, err)
	}
}

// IsOnline reports whether the user is connected here or, when Redis backs
// presence, on any instance.
func (p *Presence) IsOnline(ctx context.Context, userID uint) bool {
	p.mu.Lock()
	e := p.users[userID]
	local := e != nil && e.conns > 0
	p.mu.Unlock()
	if local {
		return true
	}

	if p.rdb == nil {
		return false
	}
	exists, err := p.rdb.Exists(ctx, presenceLastSeenKeyNS+formatUserID(userID)).Result()
	return err == nil && exists > 0
}

// OnlineUserIDs returns the union of locally connected users and the Redis
// online set, pruning set members whose last-seen key already expired.
func (p *Presence) OnlineUserIDs(ctx context.Context) []uint {
	seen := make(map[uint]struct{})
	var ids []uint

	p.mu.Lock()
	for userID, e := range p.users {
		if e.conns > 0 {
			seen[userID] = struct{}{}
			ids = append(ids, userID)
		}
	}
	p.mu.Unlock()

	if p.rdb == nil {
		return ids
	}
	members, err := p.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return ids
	}
	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		if _, dup := seen[userID]; dup {
			continue
		}
		exists, existsErr := p.rdb.Exists(ctx, presenceLastSeenKeyNS+raw).Result()
		if existsErr != nil {
			continue
		}
		if exists == 0 {
			_ = p.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()
			continue
		}
		seen[userID] = struct{}{}
		ids = append(ids, userID)
	}
	return ids
}

// finalizeOffline runs when the grace timer fires. The user stays online if a
// connection came back locally or another instance refreshed the Redis key in
// the meantime.
func (p *Presence) finalizeOffline(ctx context.Context, userID uint) {
	p.mu.Lock()
	e := p.users[userID]
	if e == nil || e.conns > 0 {
		if e != nil {
			e.graceTimer = nil
		}
		p.mu.Unlock()
		return
	}
	e.graceTimer = nil
	p.mu.Unlock()

	if p.rdb != nil {
		uid := formatUserID(userID)
		exists, err := p.rdb.Exists(ctx, presenceLastSeenKeyNS+uid).Result()
		if err == nil && exists > 0 {
			return
		}
		_ = p.rdb.SRem(ctx, presenceOnlineSetKey, uid).Err()
	}
	p.emitOffline(userID)
}

func (p *Presence) emitOffline(userID uint) {
	p.mu.Lock()
	e := p.users[userID]
	if e == nil || e.wentOffline {
		p.mu.Unlock()
		return
	}
	e.wentOffline = true
	delete(p.users, userID)
	cb := p.onOffline
	p.mu.Unlock()
	if cb != nil {
		cb(userID)
	}
}

// reapOnce prunes online-set members whose last-seen key expired and emits
// offline for those without a local connection. Split from the loop for tests.
func (p *Presence) reapOnce(ctx context.Context) {
	members, err := p.rdb.SMembers(ctx, presenceOnlineSetKey).Result()
	if err != nil {
		return
	}
	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		exists, existsErr := p.rdb.Exists(ctx, presenceLastSeenKeyNS+raw).Result()
		if existsErr != nil || exists > 0 {
			continue
		}
		_ = p.rdb.SRem(ctx, presenceOnlineSetKey, raw).Err()

		p.mu.Lock()
		e := p.users[userID]
		local := e != nil && e.conns > 0
		p.mu.Unlock()
		if !local {
			p.emitOffline(userID)
		}
	}
}

func (p *Presence) reaperLoop() {
	ticker := time.NewTicker(p.reapIn)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.reapOnce(context.Background())
		}
	}
}

func formatUserID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
