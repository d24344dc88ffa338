package service

import (
	"context"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/visibility"
)

// LikeService handles like business logic. Likes are onymous or anonymous;
// only onymous likers ever appear in liker lists, and all like counts and
// lists are owner-only.
type LikeService struct {
	likeRepo   repository.LikeRepository
	postRepo   repository.PostRepository
	followRepo repository.FollowRepository
	flagRepo   repository.FlagRepository
	eventRepo  repository.EventRepository
}

// NewLikeService creates a new like service
func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository, followRepo repository.FollowRepository, flagRepo repository.FlagRepository, eventRepo repository.EventRepository) *LikeService {
	return &LikeService{
		likeRepo:   likeRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		flagRepo:   flagRepo,
		eventRepo:  eventRepo,
	}
}

// Like records a like with the given mode. A second like in any mode is a
// conflict; switching modes requires a dislike first, which also resets the
// post's position in the liked list.
func (s *LikeService) Like(ctx context.Context, userID, postID uint, mode models.LikeMode) (*models.Like, error) {
	if mode != models.LikeModeOnymous && mode != models.LikeModeAnonymous {
		return nil, models.NewValidationError("Like mode must be ONYMOUS or ANONYMOUS")
	}
	post, owner, err := s.visiblePost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !post.LikesAllowed(owner) {
		return nil, models.NewStateConflictError("Likes are disabled on this post")
	}
	like := &models.Like{
		UserID:  userID,
		PostID:  postID,
		Mode:    mode,
		LikedAt: time.Now(),
	}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Append(ctx, &models.Event{
		Kind:      models.EventLikeAdded,
		ActorID:   userID,
		SubjectID: postID,
		Delta:     likeDelta(mode),
	}); err != nil {
		return nil, err
	}
	return like, nil
}

// Dislike removes the user's like regardless of its mode.
func (s *LikeService) Dislike(ctx context.Context, userID, postID uint) error {
	edge, err := s.likeRepo.GetEdge(ctx, userID, postID)
	if err != nil {
		return err
	}
	if edge == nil {
		return models.NewNotFoundError("Like on post", postID)
	}
	if err := s.likeRepo.Delete(ctx, edge.ID); err != nil {
		return err
	}
	return s.eventRepo.Append(ctx, &models.Event{
		Kind:      models.EventLikeRemoved,
		ActorID:   userID,
		SubjectID: postID,
		Delta:     likeDelta(edge.Mode),
	})
}

// ListOnymousLikers returns who onymously liked the post, most recent first.
// Owner-only; other viewers get null.
func (s *LikeService) ListOnymousLikers(ctx context.Context, viewerID, postID uint) ([]models.User, bool, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	if viewerID != post.OwnerID {
		return nil, false, nil
	}
	users, err := s.likeRepo.ListOnymousLikers(ctx, postID)
	if err != nil {
		return nil, false, err
	}
	return users, true, nil
}

// ListLikedPosts returns the caller's own liked posts in the given mode,
// most recently liked first.
func (s *LikeService) ListLikedPosts(ctx context.Context, userID uint, mode models.LikeMode) ([]models.Post, error) {
	if mode != models.LikeModeOnymous && mode != models.LikeModeAnonymous {
		return nil, models.NewValidationError("Like mode must be ONYMOUS or ANONYMOUS")
	}
	return s.postRepo.ListLikedBy(ctx, userID, mode)
}

func likeDelta(mode models.LikeMode) int {
	if mode == models.LikeModeAnonymous {
		return models.LikeDeltaAnonymous
	}
	return models.LikeDeltaOnymous
}

func (s *LikeService) visiblePost(ctx context.Context, viewerID, postID uint) (*models.Post, *models.User, error) {
	post, err := s.postRepo.GetByIDWithOwner(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	rel, err := relateForPost(ctx, s.followRepo, s.flagRepo, viewerID, post)
	if err != nil {
		return nil, nil, err
	}
	if !visibility.CanViewPost(rel, post.Status) {
		return nil, nil, models.NewNotFoundError("Post", postID)
	}
	return post, &post.Owner, nil
}
