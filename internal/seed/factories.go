// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"glimpse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder presets and tests.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
	opts Options
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		opts: opts,
	}
}

// CreateUser constructs and persists a sample user. Every seed user shares
// the password "password123". Optional override functions may modify the
// generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	dob := gofakeit.DateRange(
		time.Now().AddDate(-45, 0, 0),
		time.Now().AddDate(-18, 0, 0),
	)
	height := gofakeit.Number(150, 200)
	user := &models.User{
		Username:      fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:         gofakeit.Email(),
		FullName:      gofakeit.Name(),
		Bio:           gofakeit.Sentence(10),
		PrivacyStatus: models.PrivacyPublic,
		Status:        models.UserStatusActive,
		Gender:        pick(f.rand, []string{"FEMALE", "MALE", "OTHER"}),
		DateOfBirth:   &dob,
		HeightCm:      &height,
		LanguageCode:  pick(f.rand, []string{"en", "de", "fr", "es"}),
	}
	if f.rand.Float32() < 0.3 {
		user.PrivacyStatus = models.PrivacyPrivate
	}

	// Password handling: allow skipping bcrypt in dev fast mode.
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost constructs and persists a COMPLETED post for the given user.
// Image and video posts get a synthetic media key; a slice of posts also get
// a story expiry within the next 24 hours.
func (f *Factory) CreatePost(owner *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	postedAt := time.Now().
		Add(-time.Duration(f.rand.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rand.Intn(24)) * time.Hour)

	post := &models.Post{
		OwnerID:  owner.ID,
		Type:     models.PostTypeTextOnly,
		Status:   models.PostStatusCompleted,
		Text:     gofakeit.Paragraph(1, 3, 5, "\n"),
		PostedAt: postedAt,
	}

	switch f.rand.Intn(3) {
	case 0:
		post.Type = models.PostTypeImage
		post.MediaKey = gofakeit.UUID()
		verified := f.rand.Float32() < 0.8
		post.IsVerified = &verified
	case 1:
		post.Type = models.PostTypeVideo
		post.MediaKey = gofakeit.UUID()
	}

	// Roughly one post in six is a live story.
	if f.rand.Intn(6) == 0 {
		expires := time.Now().Add(time.Duration(1+f.rand.Intn(24)) * time.Hour)
		post.PostedAt = time.Now().Add(-time.Duration(f.rand.Intn(12)) * time.Hour)
		post.ExpiresAt = &expires
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateFollow persists a follow edge between two users in the given state.
func (f *Factory) CreateFollow(follower, followed *models.User, status models.FollowStatus) error {
	edge := &models.Follow{
		FollowerID:      follower.ID,
		FollowedID:      followed.ID,
		Status:          status,
		StatusChangedAt: time.Now().Add(-time.Duration(f.rand.Intn(720)) * time.Hour),
	}
	return f.db.Create(edge).Error
}

// CreateComment persists a comment on the post authored by the given user.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:        post.ID,
		AuthorID:      author.ID,
		Text:          gofakeit.Sentence(8),
		ViewedByOwner: author.ID == post.OwnerID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on post, anonymous roughly a third of
// the time.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	mode := models.LikeModeOnymous
	if f.rand.Intn(3) == 0 {
		mode = models.LikeModeAnonymous
	}
	like := &models.Like{
		UserID:  user.ID,
		PostID:  post.ID,
		Mode:    mode,
		LikedAt: time.Now().Add(-time.Duration(f.rand.Intn(72)) * time.Hour),
	}
	return f.db.Create(like).Error
}

// CreateView persists a post view by the given user.
func (f *Factory) CreateView(user *models.User, post *models.Post) error {
	viewedAt := time.Now().Add(-time.Duration(f.rand.Intn(48)) * time.Hour)
	view := &models.PostView{
		PostID:        post.ID,
		ViewerID:      user.ID,
		ViewCount:     1 + f.rand.Intn(4),
		FirstViewedAt: viewedAt,
		LastViewedAt:  viewedAt,
	}
	return f.db.Create(view).Error
}

func pick(r *rand.Rand, options []string) string {
	return options[r.Intn(len(options))]
}
