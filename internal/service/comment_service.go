package service

import (
	"context"
	"strings"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/visibility"
)

// CommentService handles comment business logic, including the owner
// viewed-ratchet bookkeeping and comment moderation.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	followRepo  repository.FollowRepository
	flagRepo    repository.FlagRepository
	eventRepo   repository.EventRepository
}

// NewCommentService creates a new comment service
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, followRepo repository.FollowRepository, flagRepo repository.FlagRepository, eventRepo repository.EventRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		followRepo:  followRepo,
		flagRepo:    flagRepo,
		eventRepo:   eventRepo,
	}
}

// Add creates a comment on a post the author can see. Comments by the post
// owner are born viewed and never contribute to the unviewed count.
func (s *CommentService) Add(ctx context.Context, authorID, postID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	post, owner, err := s.visiblePost(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}
	if !post.CommentsAllowed(owner) {
		return nil, models.NewStateConflictError("Comments are disabled on this post")
	}

	authorIsOwner := authorID == post.OwnerID
	comment := &models.Comment{
		PostID:        postID,
		AuthorID:      authorID,
		Text:          text,
		ViewedByOwner: authorIsOwner,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	delta := 1
	if authorIsOwner {
		delta = 0
	}
	if err := s.eventRepo.Append(ctx, &models.Event{
		Kind:      models.EventCommentAdded,
		ActorID:   authorID,
		SubjectID: postID,
		Delta:     delta,
	}); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment. The comment author and the post owner may
// delete; the counter event carries whether the comment was still unviewed.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if actorID != comment.AuthorID && actorID != post.OwnerID {
		return models.NewUnauthorizedError("Only the comment author or the post owner can delete a comment")
	}
	return s.remove(ctx, actorID, comment)
}

// Flag reports a comment. When the reporter is the post owner the comment is
// removed outright; anyone else marks it for moderation, once per reporter.
func (s *CommentService) Flag(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if actorID == comment.AuthorID {
		return models.NewValidationError("Cannot flag your own comment")
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return err
	}
	if actorID == post.OwnerID {
		return s.remove(ctx, actorID, comment)
	}
	if err := s.flagRepo.CreateFlag(ctx, &models.Flag{
		UserID:     actorID,
		TargetType: models.FlagTargetComment,
		TargetID:   commentID,
	}); err != nil {
		return err
	}
	return s.commentRepo.SetFlagged(ctx, commentID)
}

// List returns a post's comments, oldest first, for any viewer that can see
// the post.
func (s *CommentService) List(ctx context.Context, viewerID, postID uint, limit, offset int) ([]models.Comment, error) {
	if _, _, err := s.visiblePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}

func (s *CommentService) remove(ctx context.Context, actorID uint, comment *models.Comment) error {
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}
	delta := 1
	if comment.ViewedByOwner {
		delta = 0
	}
	return s.eventRepo.Append(ctx, &models.Event{
		Kind:      models.EventCommentRemoved,
		ActorID:   actorID,
		SubjectID: comment.PostID,
		Delta:     delta,
	})
}

func (s *CommentService) visiblePost(ctx context.Context, viewerID, postID uint) (*models.Post, *models.User, error) {
	post, err := s.postRepo.GetByIDWithOwner(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	owner := &post.Owner
	rel, err := relateForPost(ctx, s.followRepo, s.flagRepo, viewerID, post)
	if err != nil {
		return nil, nil, err
	}
	if !visibility.CanViewPost(rel, post.Status) {
		return nil, nil, models.NewNotFoundError("Post", postID)
	}
	return post, owner, nil
}
