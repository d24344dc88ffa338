package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/visibility"

	"github.com/google/uuid"
)

// PostService handles post business logic: the media lifecycle, stories,
// feeds, flags and view reporting.
type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	commentRepo repository.CommentRepository
	viewRepo    repository.ViewRepository
	flagRepo    repository.FlagRepository
	eventRepo   repository.EventRepository

	mediaUploadBaseURL string
}

// NewPostService creates a new post service
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, followRepo repository.FollowRepository, commentRepo repository.CommentRepository, viewRepo repository.ViewRepository, flagRepo repository.FlagRepository, eventRepo repository.EventRepository, mediaUploadBaseURL string) *PostService {
	return &PostService{
		postRepo:           postRepo,
		userRepo:           userRepo,
		followRepo:         followRepo,
		commentRepo:        commentRepo,
		viewRepo:           viewRepo,
		flagRepo:           flagRepo,
		eventRepo:          eventRepo,
		mediaUploadBaseURL: strings.TrimRight(mediaUploadBaseURL, "/"),
	}
}

// CreatePostInput carries the addPost request.
type CreatePostInput struct {
	Type models.PostType `json:"type"`
	Text string          `json:"text"`

	// Lifetime is an ISO-8601 duration; a non-empty value makes the post a
	// story expiring that long after posting.
	Lifetime string `json:"lifetime"`

	CropX      *int `json:"crop_x"`
	CropY      *int `json:"crop_y"`
	CropWidth  *int `json:"crop_width"`
	CropHeight *int `json:"crop_height"`

	CommentsDisabled *bool `json:"comments_disabled"`
	LikesDisabled    *bool `json:"likes_disabled"`
	SharingDisabled  *bool `json:"sharing_disabled"`
}

func (in *CreatePostInput) hasCrop() bool {
	return in.CropX != nil || in.CropY != nil || in.CropWidth != nil || in.CropHeight != nil
}

// Create adds a post. Text-only posts are COMPLETED immediately; media posts
// start PENDING with a fresh media key and the returned upload URL, and
// become COMPLETED when the processing pipeline calls back.
func (s *PostService) Create(ctx context.Context, ownerID uint, input CreatePostInput) (*models.Post, string, error) {
	now := time.Now()
	post := &models.Post{
		OwnerID:          ownerID,
		Type:             input.Type,
		Text:             strings.TrimSpace(input.Text),
		PostedAt:         now,
		CommentsDisabled: input.CommentsDisabled,
		LikesDisabled:    input.LikesDisabled,
		SharingDisabled:  input.SharingDisabled,
	}

	uploadURL := ""
	switch input.Type {
	case models.PostTypeTextOnly:
		if post.Text == "" {
			return nil, "", models.NewValidationError("Text is required for text-only posts")
		}
		if input.hasCrop() {
			return nil, "", models.NewStateConflictError("Crop options apply to image posts only")
		}
		post.Status = models.PostStatusCompleted
	case models.PostTypeImage:
		if err := applyCrop(post, input); err != nil {
			return nil, "", err
		}
		post.Status = models.PostStatusPending
		post.MediaKey = uuid.NewString()
		uploadURL = fmt.Sprintf("%s/%s", s.mediaUploadBaseURL, post.MediaKey)
	case models.PostTypeVideo:
		if input.hasCrop() {
			return nil, "", models.NewStateConflictError("Crop options apply to image posts only")
		}
		post.Status = models.PostStatusPending
		post.MediaKey = uuid.NewString()
		uploadURL = fmt.Sprintf("%s/%s", s.mediaUploadBaseURL, post.MediaKey)
	default:
		return nil, "", models.NewValidationError("Post type must be IMAGE, VIDEO or TEXT_ONLY")
	}

	if input.Lifetime != "" {
		lifetime, err := parseISODuration(input.Lifetime)
		if err != nil {
			return nil, "", models.NewValidationError("Invalid lifetime duration")
		}
		expiresAt := now.Add(lifetime)
		post.ExpiresAt = &expiresAt
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, "", err
	}
	// The post count tracks COMPLETED posts; a media post joins it when the
	// pipeline calls back.
	if post.Status == models.PostStatusCompleted {
		if err := s.eventRepo.Append(ctx, &models.Event{
			Kind:      models.EventPostAdded,
			ActorID:   ownerID,
			SubjectID: post.ID,
		}); err != nil {
			return nil, "", err
		}
	}
	return post, uploadURL, nil
}

func applyCrop(post *models.Post, input CreatePostInput) error {
	if !input.hasCrop() {
		return nil
	}
	if input.CropX == nil || input.CropY == nil || input.CropWidth == nil || input.CropHeight == nil {
		return models.NewValidationError("Crop requires x, y, width and height")
	}
	if *input.CropX < 0 || *input.CropY < 0 || *input.CropWidth < 0 || *input.CropHeight < 0 {
		return models.NewValidationError("Crop region values cannot be negative")
	}
	if *input.CropWidth == 0 || *input.CropHeight == 0 {
		return models.NewValidationError("Crop region must have a positive area")
	}
	post.CropX = input.CropX
	post.CropY = input.CropY
	post.CropWidth = input.CropWidth
	post.CropHeight = input.CropHeight
	return nil
}

// EditPostInput carries the editable fields; nil leaves a field unchanged.
type EditPostInput struct {
	Text *string `json:"text"`

	CommentsDisabled *bool `json:"comments_disabled"`
	LikesDisabled    *bool `json:"likes_disabled"`
	SharingDisabled  *bool `json:"sharing_disabled"`
}

// Edit updates a post's text and per-post settings. Archived posts are
// frozen.
func (s *PostService) Edit(ctx context.Context, ownerID, postID uint, input EditPostInput) (*models.Post, error) {
	post, err := s.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusArchived {
		return nil, models.NewStateConflictError("Archived posts cannot be edited")
	}
	fields := map[string]interface{}{}
	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if post.Type == models.PostTypeTextOnly && text == "" {
			return nil, models.NewValidationError("Text is required for text-only posts")
		}
		fields["text"] = text
		post.Text = text
	}
	if input.CommentsDisabled != nil {
		fields["comments_disabled"] = *input.CommentsDisabled
		post.CommentsDisabled = input.CommentsDisabled
	}
	if input.LikesDisabled != nil {
		fields["likes_disabled"] = *input.LikesDisabled
		post.LikesDisabled = input.LikesDisabled
	}
	if input.SharingDisabled != nil {
		fields["sharing_disabled"] = *input.SharingDisabled
		post.SharingDisabled = input.SharingDisabled
	}
	if len(fields) == 0 {
		return post, nil
	}
	if err := s.postRepo.UpdateFields(ctx, postID, fields); err != nil {
		return nil, err
	}
	return post, nil
}

// SetExpiry changes or clears a post's expiry. Setting a future expiry turns
// the post into a story; clearing it turns a story into a permanent post.
// Story orderings follow immediately because they are computed at read time.
func (s *PostService) SetExpiry(ctx context.Context, ownerID, postID uint, expiresAt *time.Time) (*models.Post, error) {
	post, err := s.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusArchived {
		return nil, models.NewStateConflictError("Archived posts cannot be edited")
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, models.NewValidationError("Expiry must be in the future")
	}
	if err := s.postRepo.UpdateFields(ctx, postID, map[string]interface{}{"expires_at": expiresAt}); err != nil {
		return nil, err
	}
	post.ExpiresAt = expiresAt
	return post, nil
}

// Archive removes the post from every feed and story surface. The post and
// its comments stay readable by the owner.
func (s *PostService) Archive(ctx context.Context, ownerID, postID uint) (*models.Post, error) {
	post, err := s.ownedPost(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusArchived {
		return nil, models.NewStateConflictError("Post is already archived")
	}
	wasCompleted := post.Status == models.PostStatusCompleted
	if err := s.postRepo.UpdateFields(ctx, postID, map[string]interface{}{"status": models.PostStatusArchived}); err != nil {
		return nil, err
	}
	post.Status = models.PostStatusArchived
	if wasCompleted {
		if err := s.eventRepo.Append(ctx, &models.Event{
			Kind:      models.EventPostRemoved,
			ActorID:   ownerID,
			SubjectID: post.ID,
		}); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// CompleteMediaUpload is the processing-pipeline callback. It resolves a
// PENDING post to COMPLETED or ERROR and records the verification verdict.
func (s *PostService) CompleteMediaUpload(ctx context.Context, mediaKey string, success bool, isVerified *bool) (*models.Post, error) {
	post, err := s.postRepo.GetByMediaKey(ctx, mediaKey)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusPending {
		return nil, models.NewStateConflictError(
			fmt.Sprintf("Post %d is %s, not PENDING", post.ID, post.Status))
	}
	status := models.PostStatusError
	if success {
		status = models.PostStatusCompleted
	}
	fields := map[string]interface{}{"status": status}
	if isVerified != nil {
		fields["is_verified"] = *isVerified
	}
	if err := s.postRepo.UpdateFields(ctx, post.ID, fields); err != nil {
		return nil, err
	}
	post.Status = status
	post.IsVerified = isVerified
	if status == models.PostStatusCompleted {
		if err := s.eventRepo.Append(ctx, &models.Event{
			Kind:      models.EventPostAdded,
			ActorID:   post.OwnerID,
			SubjectID: post.ID,
		}); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// Flag reports another user's post. The post is marked flagged for
// moderation; the reporter cannot flag twice.
func (s *PostService) Flag(ctx context.Context, userID, postID uint) error {
	post, _, _, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return err
	}
	if post.OwnerID == userID {
		return models.NewValidationError("Cannot flag your own post")
	}
	if err := s.flagRepo.CreateFlag(ctx, &models.Flag{
		UserID:     userID,
		TargetType: models.FlagTargetPost,
		TargetID:   postID,
	}); err != nil {
		return err
	}
	return s.postRepo.UpdateFields(ctx, postID, map[string]interface{}{
		"flagged":    true,
		"flag_count": post.FlagCount + 1,
	})
}

// PostProjection is the visibility-filtered view of a post. Owner-only
// counters are nil for other viewers; CommentsViewedCount is derived from the
// total and unviewed counters.
type PostProjection struct {
	ID      uint              `json:"id"`
	OwnerID uint              `json:"owner_id"`
	Type    models.PostType   `json:"type"`
	Status  models.PostStatus `json:"status"`

	Text     string `json:"text,omitempty"`
	MediaKey string `json:"media_key,omitempty"`

	PostedAt  time.Time  `json:"posted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	IsVerified *bool `json:"is_verified,omitempty"`

	CommentsDisabled bool `json:"comments_disabled"`
	LikesDisabled    bool `json:"likes_disabled"`
	SharingDisabled  bool `json:"sharing_disabled"`

	CommentsCount int `json:"comments_count"`

	CommentsViewedCount   *int `json:"comments_viewed_count,omitempty"`
	CommentsUnviewedCount *int `json:"comments_unviewed_count,omitempty"`
	OnymousLikeCount      *int `json:"onymous_like_count,omitempty"`
	AnonymousLikeCount    *int `json:"anonymous_like_count,omitempty"`
	ViewedByCount         *int `json:"viewed_by_count,omitempty"`
}

// Get returns the viewer's projection of a post. Posts the viewer may not
// see are indistinguishable from missing ones.
func (s *PostService) Get(ctx context.Context, viewerID, postID uint) (*PostProjection, error) {
	post, owner, rel, err := s.visiblePost(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	return s.project(post, owner, rel), nil
}

func (s *PostService) project(post *models.Post, owner *models.User, rel visibility.Relationship) *PostProjection {
	p := &PostProjection{
		ID:               post.ID,
		OwnerID:          post.OwnerID,
		Type:             post.Type,
		Status:           post.Status,
		Text:             post.Text,
		MediaKey:         post.MediaKey,
		PostedAt:         post.PostedAt,
		ExpiresAt:        post.ExpiresAt,
		CommentsDisabled: !post.CommentsAllowed(owner),
		LikesDisabled:    !post.LikesAllowed(owner),
		SharingDisabled:  sharingDisabled(post, owner),
		CommentsCount:    post.CommentsCount,
	}
	if rel == visibility.RelSelf || !owner.VerificationHidden {
		p.IsVerified = post.IsVerified
	}
	if visibility.Resolve(visibility.ClassOwnerOnly, rel) == visibility.Allow {
		viewed := post.CommentsCount - post.CommentsUnviewedCount
		p.CommentsViewedCount = intPtr(viewed)
		p.CommentsUnviewedCount = intPtr(post.CommentsUnviewedCount)
		p.OnymousLikeCount = intPtr(post.OnymousLikeCount)
		p.AnonymousLikeCount = intPtr(post.AnonymousLikeCount)
		if !owner.ViewCountsHidden {
			p.ViewedByCount = intPtr(post.ViewedByCount)
		}
	}
	return p
}

func sharingDisabled(post *models.Post, owner *models.User) bool {
	if post.SharingDisabled != nil {
		return *post.SharingDisabled
	}
	return owner.SharingDisabled
}

// ListUserPosts returns the target's posts as seen by the viewer. The bool
// result is false when the viewer has no access to the list (rendered null).
// Owners see all statuses; everyone else only COMPLETED posts.
func (s *PostService) ListUserPosts(ctx context.Context, viewerID, targetID uint, limit, offset int) ([]PostProjection, bool, error) {
	owner, rel, err := s.relateToUser(ctx, viewerID, targetID)
	if err != nil {
		return nil, false, err
	}
	if visibility.Resolve(visibility.ClassContent, rel) != visibility.Allow {
		return nil, false, nil
	}
	var statuses []models.PostStatus
	if rel != visibility.RelSelf {
		statuses = []models.PostStatus{models.PostStatusCompleted}
	}
	posts, err := s.postRepo.ListByOwner(ctx, targetID, statuses, limit, offset)
	if err != nil {
		return nil, false, err
	}
	return s.projectAll(posts, owner, rel), true, nil
}

// ListUserStories returns the target's unexpired stories, soonest to expire
// first, with the same access semantics as ListUserPosts.
func (s *PostService) ListUserStories(ctx context.Context, viewerID, targetID uint) ([]PostProjection, bool, error) {
	owner, rel, err := s.relateToUser(ctx, viewerID, targetID)
	if err != nil {
		return nil, false, err
	}
	if visibility.Resolve(visibility.ClassStories, rel) != visibility.Allow {
		return nil, false, nil
	}
	posts, err := s.postRepo.ListStories(ctx, targetID, time.Now())
	if err != nil {
		return nil, false, err
	}
	return s.projectAll(posts, owner, rel), true, nil
}

// SelfFeed returns completed posts from the user and everyone they follow,
// newest first.
func (s *PostService) SelfFeed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	followedIDs, err := s.followRepo.FollowedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.postRepo.ListFeed(ctx, append(followedIDs, userID), limit, offset)
}

// FollowedStoryOwners returns the followed users that currently have
// unexpired stories, ordered by whose story expires soonest.
func (s *PostService) FollowedStoryOwners(ctx context.Context, userID uint) ([]models.User, error) {
	followedIDs, err := s.followRepo.FollowedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	owners, err := s.postRepo.ListStoryOwners(ctx, followedIDs, time.Now())
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(owners))
	for _, owner := range owners {
		user, err := s.userRepo.GetByID(ctx, owner.OwnerID)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

// ReportViews records that the viewer saw the given posts. For the viewer's
// own posts this is the read receipt that ratchets unviewed comments to
// viewed; for other users' posts the first view feeds the distinct-viewer
// count and the new-views card threshold. Repeat views only bump the
// per-viewer counter.
func (s *PostService) ReportViews(ctx context.Context, viewerID uint, postIDs []uint) error {
	if len(postIDs) == 0 {
		return models.NewValidationError("At least one post ID is required")
	}
	now := time.Now()
	for _, postID := range postIDs {
		post, _, _, err := s.visiblePost(ctx, viewerID, postID)
		if err != nil {
			return err
		}
		if post.OwnerID == viewerID {
			flipped, err := s.commentRepo.MarkViewedByOwner(ctx, postID)
			if err != nil {
				return err
			}
			if flipped > 0 {
				if err := s.eventRepo.Append(ctx, &models.Event{
					Kind:      models.EventCommentsViewed,
					ActorID:   viewerID,
					SubjectID: postID,
					Delta:     int(flipped),
				}); err != nil {
					return err
				}
			}
			continue
		}
		firstView, err := s.viewRepo.Record(ctx, postID, viewerID, now)
		if err != nil {
			return err
		}
		if firstView {
			if err := s.eventRepo.Append(ctx, &models.Event{
				Kind:      models.EventPostViewed,
				ActorID:   viewerID,
				SubjectID: postID,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListViewers returns who viewed the post, earliest first. Owner-only, and
// unavailable while the owner hides view counts.
func (s *PostService) ListViewers(ctx context.Context, viewerID, postID uint) ([]models.User, bool, error) {
	post, owner, rel, err := s.visiblePost(ctx, viewerID, postID)
	if err != nil {
		return nil, false, err
	}
	if visibility.Resolve(visibility.ClassOwnerOnly, rel) != visibility.Allow || owner.ViewCountsHidden {
		return nil, false, nil
	}
	users, err := s.viewRepo.ListViewers(ctx, post.ID)
	if err != nil {
		return nil, false, err
	}
	return users, true, nil
}

func (s *PostService) projectAll(posts []models.Post, owner *models.User, rel visibility.Relationship) []PostProjection {
	out := make([]PostProjection, 0, len(posts))
	for i := range posts {
		out = append(out, *s.project(&posts[i], owner, rel))
	}
	return out
}

func (s *PostService) ownedPost(ctx context.Context, ownerID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != ownerID {
		return nil, models.NewUnauthorizedError("Not the post owner")
	}
	return post, nil
}

// visiblePost loads the post and verifies the viewer may see it. A hidden
// post is reported as not found so existence does not leak.
func (s *PostService) visiblePost(ctx context.Context, viewerID, postID uint) (*models.Post, *models.User, visibility.Relationship, error) {
	post, err := s.postRepo.GetByIDWithOwner(ctx, postID)
	if err != nil {
		return nil, nil, visibility.RelNone, err
	}
	owner := &post.Owner
	if viewerID != post.OwnerID {
		blocked, err := s.flagRepo.IsBlocked(ctx, post.OwnerID, viewerID)
		if err != nil {
			return nil, nil, visibility.RelNone, err
		}
		if blocked {
			return nil, nil, visibility.RelNone, models.NewNotFoundError("Post", postID)
		}
	}
	var edge *models.Follow
	if viewerID != post.OwnerID {
		edge, err = s.followRepo.GetEdge(ctx, viewerID, post.OwnerID)
		if err != nil {
			return nil, nil, visibility.RelNone, err
		}
	}
	rel := visibility.Relate(viewerID, owner, edge)
	if !visibility.CanViewPost(rel, post.Status) {
		return nil, nil, visibility.RelNone, models.NewNotFoundError("Post", postID)
	}
	return post, owner, rel, nil
}

func (s *PostService) relateToUser(ctx context.Context, viewerID, targetID uint) (*models.User, visibility.Relationship, error) {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, visibility.RelNone, err
	}
	if viewerID != targetID {
		blocked, err := s.flagRepo.IsBlocked(ctx, targetID, viewerID)
		if err != nil {
			return nil, visibility.RelNone, err
		}
		if blocked {
			return nil, visibility.RelNone, models.NewNotFoundError("User", targetID)
		}
	}
	var edge *models.Follow
	if viewerID != targetID {
		edge, err = s.followRepo.GetEdge(ctx, viewerID, targetID)
		if err != nil {
			return nil, visibility.RelNone, err
		}
	}
	return target, visibility.Relate(viewerID, target, edge), nil
}
