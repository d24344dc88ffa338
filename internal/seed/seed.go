package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"glimpse/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	// SkipBcrypt stores the plain seed password instead of a bcrypt hash.
	// Login will not work for these users; useful for load-testing setups.
	SkipBcrypt bool
	// MaxDays bounds how far in the past generated posts are dated.
	MaxDays int
}

// Seeder populates the database with a connected social mesh of test data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	rand    *rand.Rand
}

// NewSeeder creates a Seeder with default options.
func NewSeeder(db *gorm.DB) *Seeder {
	return NewSeederWithOptions(db, Options{})
}

// NewSeederWithOptions creates a Seeder with the given options.
func NewSeederWithOptions(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db, opts),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seedable data. Order matters for foreign keys when
// running against databases without cascading truncate.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	if s.db.Dialector.Name() == "postgres" {
		return s.db.Exec(`TRUNCATE TABLE events, card_triggers, cards, flags, blocks,
			post_views, likes, comments, posts, follows, users RESTART IDENTITY CASCADE`).Error
	}
	for _, model := range []interface{}{
		&models.Event{}, &models.CardTrigger{}, &models.Card{}, &models.Flag{},
		&models.Block{}, &models.PostView{}, &models.Like{}, &models.Comment{},
		&models.Post{}, &models.Follow{}, &models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedSocialMesh creates count users and wires them into a follow graph:
// every user follows a random sample of the others, with requests to private
// users left pending about half the time.
func (s *Seeder) SeedSocialMesh(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	edges := 0
	for _, follower := range users {
		targets := s.rand.Perm(len(users))
		wanted := 2 + s.rand.Intn(6)
		for _, idx := range targets {
			if wanted == 0 {
				break
			}
			followed := users[idx]
			if followed.ID == follower.ID {
				continue
			}
			status := models.FollowStatusFollowing
			if followed.PrivacyStatus == models.PrivacyPrivate && s.rand.Intn(2) == 0 {
				status = models.FollowStatusRequested
			}
			if err := s.factory.CreateFollow(follower, followed, status); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			edges++
			wanted--
		}
	}
	log.Printf("Created %d users and %d follow edges", len(users), edges)
	return users, nil
}

// SeedEngagement creates count posts spread across the given users, plus
// comments, likes and views from other users, then recounts the denormalized
// aggregates so the data is consistent without running the projector.
func (s *Seeder) SeedEngagement(users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to seed posts for")
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		owner := users[s.rand.Intn(len(users))]
		post, err := s.factory.CreatePost(owner)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)

		for j := s.rand.Intn(4); j > 0; j-- {
			author := users[s.rand.Intn(len(users))]
			if _, err := s.factory.CreateComment(author, post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
		}
		seen := map[uint]bool{}
		for j := s.rand.Intn(6); j > 0; j-- {
			user := users[s.rand.Intn(len(users))]
			if seen[user.ID] {
				continue
			}
			seen[user.ID] = true
			if err := s.factory.CreateLike(user, post); err != nil {
				return nil, fmt.Errorf("create like: %w", err)
			}
			if err := s.factory.CreateView(user, post); err != nil {
				return nil, fmt.Errorf("create view: %w", err)
			}
		}

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}

	if err := s.RecountAggregates(); err != nil {
		return nil, fmt.Errorf("recount aggregates: %w", err)
	}
	log.Printf("Created %d posts with engagement", len(posts))
	return posts, nil
}

// RecountAggregates rebuilds every denormalized counter from the underlying
// rows. Seeding writes rows directly, bypassing the event log, so the
// counters the projector would normally maintain must be recomputed here.
func (s *Seeder) RecountAggregates() error {
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
			AND comments.viewed_by_owner = ` + s.boolLiteral(false) + `)`,
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
		if err := s.db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) boolLiteral(v bool) string {
	// sqlite stores booleans as 0/1; postgres wants true/false.
	if s.db.Dialector.Name() == "postgres" {
		if v {
			return "true"
		}
		return "false"
	}
	if v {
		return "1"
	}
	return "0"
}
