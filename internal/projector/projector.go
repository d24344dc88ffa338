// Package projector consumes the event outbox and maintains the derived
// state: denormalized counters on users and posts, and threshold-triggered
// cards. Point writes append events transactionally; this loop applies them
// in ID order shortly after, so counters are eventually consistent while the
// underlying rows are always exact.
package projector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"glimpse/internal/middleware"
	"glimpse/internal/models"
	"glimpse/internal/observability"
	"glimpse/internal/repository"

	"gorm.io/gorm"
)

// cardViewThreshold is the distinct-viewer count at which a post earns its
// new-views card.
const cardViewThreshold = 6

const batchSize = 200

// CardNotifier pushes a freshly created card to the owner's live
// subscriptions. Delivery is best effort; the card row is the durable copy.
type CardNotifier interface {
	PublishCard(ctx context.Context, card *models.Card) error
}

// Projector is the polling outbox consumer.
type Projector struct {
	db        *gorm.DB
	eventRepo repository.EventRepository
	cardRepo  repository.CardRepository
	notifier  CardNotifier
	interval  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New creates a projector. notifier may be nil, in which case cards are only
// persisted.
func New(db *gorm.DB, eventRepo repository.EventRepository, cardRepo repository.CardRepository, notifier CardNotifier, interval time.Duration) *Projector {
	return &Projector{
		db:        db,
		eventRepo: eventRepo,
		cardRepo:  cardRepo,
		notifier:  notifier,
		interval:  interval,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called. Errors are logged and
// the failed batch is retried on the next tick; events are only marked
// processed after their effects are applied.
func (p *Projector) Start(ctx context.Context) {
	observability.LogAsyncOperationStart(ctx, "projector", map[string]interface{}{
		"interval": p.interval.String(),
	})
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := p.RunOnce(ctx); err != nil {
					observability.LogAsyncOperationError(ctx, "projector", err, nil)
				}
			}
		}
	}()
}

// Stop terminates the polling loop and waits for the in-flight batch.
func (p *Projector) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

// RunOnce drains one batch of unprocessed events and returns how many were
// applied.
func (p *Projector) RunOnce(ctx context.Context) (int, error) {
	events, err := p.eventRepo.FetchUnprocessed(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	now := time.Now()
	ids := make([]uint, 0, len(events))
	for i := range events {
		event := &events[i]
		if err := p.apply(ctx, event); err != nil {
			// Mark what succeeded so far; the failed event stays unprocessed
			// and blocks nothing behind it except ordering within its batch.
			if len(ids) > 0 {
				_ = p.eventRepo.MarkProcessed(ctx, ids, now)
			}
			return len(ids), fmt.Errorf("apply event %d (%s): %w", event.ID, event.Kind, err)
		}
		ids = append(ids, event.ID)
		middleware.ProjectorEventsProcessed.WithLabelValues(string(event.Kind)).Inc()
		middleware.ProjectorLag.Observe(now.Sub(event.CreatedAt).Seconds())
	}
	if err := p.eventRepo.MarkProcessed(ctx, ids, now); err != nil {
		return len(ids), err
	}
	return len(ids), nil
}

func (p *Projector) apply(ctx context.Context, event *models.Event) error {
	switch event.Kind {
	case models.EventFollowStarted:
		return p.applyFollowDelta(ctx, event.ActorID, event.SubjectID, 1)
	case models.EventFollowEnded:
		return p.applyFollowDelta(ctx, event.ActorID, event.SubjectID, -1)
	case models.EventPostAdded:
		return p.bumpUser(ctx, event.ActorID, "post_count", 1)
	case models.EventPostRemoved:
		return p.bumpUser(ctx, event.ActorID, "post_count", -1)
	case models.EventCommentAdded:
		if err := p.bumpPost(ctx, event.SubjectID, "comments_count", 1); err != nil {
			return err
		}
		if event.Delta > 0 {
			return p.bumpPost(ctx, event.SubjectID, "comments_unviewed_count", event.Delta)
		}
		return nil
	case models.EventCommentRemoved:
		if err := p.bumpPost(ctx, event.SubjectID, "comments_count", -1); err != nil {
			return err
		}
		if event.Delta > 0 {
			return p.bumpPost(ctx, event.SubjectID, "comments_unviewed_count", -event.Delta)
		}
		return nil
	case models.EventCommentsViewed:
		return p.bumpPost(ctx, event.SubjectID, "comments_unviewed_count", -event.Delta)
	case models.EventLikeAdded:
		return p.bumpPost(ctx, event.SubjectID, likeColumn(event.Delta), 1)
	case models.EventLikeRemoved:
		return p.bumpPost(ctx, event.SubjectID, likeColumn(event.Delta), -1)
	case models.EventPostViewed:
		if err := p.bumpPost(ctx, event.SubjectID, "viewed_by_count", 1); err != nil {
			return err
		}
		return p.maybeFireViewCard(ctx, event.SubjectID)
	default:
		// Unknown kinds are skipped rather than wedging the queue.
		observability.LogAsyncOperationError(ctx, "projector",
			fmt.Errorf("unknown event kind %q", event.Kind),
			map[string]interface{}{"event_id": event.ID})
		return nil
	}
}

func likeColumn(delta int) string {
	if delta == models.LikeDeltaAnonymous {
		return "anonymous_like_count"
	}
	return "onymous_like_count"
}

// applyFollowDelta moves the follower's followed count and the followed
// user's follower count together.
func (p *Projector) applyFollowDelta(ctx context.Context, followerID, followedID uint, delta int) error {
	if err := p.bumpUser(ctx, followerID, "followed_count", delta); err != nil {
		return err
	}
	return p.bumpUser(ctx, followedID, "follower_count", delta)
}

func (p *Projector) bumpUser(ctx context.Context, userID uint, column string, delta int) error {
	return p.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
}

func (p *Projector) bumpPost(ctx context.Context, postID uint, column string, delta int) error {
	return p.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Update(column, gorm.Expr(column+" + ?", delta)).Error
}

// maybeFireViewCard creates the new-views card exactly once when the post
// crosses the distinct-viewer threshold. The fired-once ledger survives card
// deletion, so the card never reappears.
func (p *Projector) maybeFireViewCard(ctx context.Context, postID uint) error {
	var post models.Post
	if err := p.db.WithContext(ctx).First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if post.ViewedByCount < cardViewThreshold {
		return nil
	}
	fired, err := p.cardRepo.FireTrigger(ctx, post.OwnerID, post.ID, models.CardKindNewPostViews)
	if err != nil {
		return err
	}
	if !fired {
		return nil
	}
	card := &models.Card{
		OwnerID:  post.OwnerID,
		Kind:     models.CardKindNewPostViews,
		PostID:   &post.ID,
		Title:    "Your post is getting noticed",
		SubTitle: fmt.Sprintf("%d people viewed your post", post.ViewedByCount),
		Action:   fmt.Sprintf("post/%d", post.ID),
	}
	if err := p.cardRepo.Create(ctx, card); err != nil {
		return err
	}
	if p.notifier != nil {
		if err := p.notifier.PublishCard(ctx, card); err != nil {
			observability.LogAsyncOperationError(ctx, "projector.publish_card", err,
				map[string]interface{}{"card_id": card.ID})
		}
	}
	return nil
}

// Reconcile recomputes every denormalized counter from the base tables. It
// repairs any drift left by lost events or crashes and is safe to run while
// the projector is live; the projector's increments and this full recount
// converge to the same values.
func (p *Projector) Reconcile(ctx context.Context) error {
	db := p.db.WithContext(ctx)

	statements := []string{
		`UPDATE users SET follower_count = (
			SELECT COUNT(*) FROM follows
			WHERE follows.followed_id = users.id AND follows.status = 'FOLLOWING')`,
		`UPDATE users SET followed_count = (
			SELECT COUNT(*) FROM follows
			WHERE follows.follower_id = users.id AND follows.status = 'FOLLOWING')`,
		`UPDATE users SET post_count = (
			SELECT COUNT(*) FROM posts
			WHERE posts.owner_id = users.id AND posts.status = 'COMPLETED'
			AND posts.deleted_at IS NULL)`,
		`UPDATE posts SET comments_count = (
			SELECT COUNT(*) FROM comments
			WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL)`,
		`UPDATE posts SET comments_unviewed_count = (
			SELECT COUNT(*) FROM comments
			WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL
			AND comments.viewed_by_owner = ` + boolLiteral(db, false) + `)`,
		`UPDATE posts SET onymous_like_count = (
			SELECT COUNT(*) FROM likes
			WHERE likes.post_id = posts.id AND likes.mode = 'ONYMOUS')`,
		`UPDATE posts SET anonymous_like_count = (
			SELECT COUNT(*) FROM likes
			WHERE likes.post_id = posts.id AND likes.mode = 'ANONYMOUS')`,
		`UPDATE posts SET viewed_by_count = (
			SELECT COUNT(*) FROM post_views
			WHERE post_views.post_id = posts.id)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
	}
	return nil
}

func boolLiteral(db *gorm.DB, v bool) string {
	// sqlite stores booleans as integers.
	if db.Dialector.Name() == "sqlite" {
		if v {
			return "1"
		}
		return "0"
	}
	if v {
		return "TRUE"
	}
	return "FALSE"
}
