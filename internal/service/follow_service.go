// Package service contains the business logic of the application. Services
// validate input, enforce access rules through the visibility policy, perform
// the point write and append projection events for the asynchronous counter
// and card effects.
package service

import (
	"context"
	"fmt"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/visibility"
)

// FollowService manages the follow state machine between users.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	flagRepo   repository.FlagRepository
	eventRepo  repository.EventRepository
}

// NewFollowService creates a new follow service
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, flagRepo repository.FlagRepository, eventRepo repository.EventRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		flagRepo:   flagRepo,
		eventRepo:  eventRepo,
	}
}

// Follow creates a follow edge from the requester to the target. Public
// targets accept immediately (FOLLOWING); private targets receive a pending
// request (REQUESTED). A blocked requester is told the target does not exist.
func (s *FollowService) Follow(ctx context.Context, requesterID, targetID uint) (*models.Follow, error) {
	if requesterID == targetID {
		return nil, models.NewValidationError("Cannot follow yourself")
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotBlocked(ctx, requesterID, targetID); err != nil {
		return nil, err
	}

	existing, err := s.followRepo.GetEdge(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(
			fmt.Sprintf("Already follows user %d with status %s", targetID, existing.Status))
	}

	now := time.Now()
	status := models.FollowStatusFollowing
	if target.PrivacyStatus == models.PrivacyPrivate {
		status = models.FollowStatusRequested
	}
	follow := &models.Follow{
		FollowerID:      requesterID,
		FollowedID:      targetID,
		Status:          status,
		StatusChangedAt: now,
	}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		return nil, err
	}
	if status == models.FollowStatusFollowing {
		if err := s.eventRepo.Append(ctx, &models.Event{
			Kind:      models.EventFollowStarted,
			ActorID:   requesterID,
			SubjectID: targetID,
		}); err != nil {
			return nil, err
		}
	}
	return follow, nil
}

// Unfollow removes the requester's edge to the target. A REQUESTED edge is
// withdrawn without counter effects; a FOLLOWING edge is removed with them. A
// DENIED edge cannot be unfollowed: the denial is the target's record, not
// the requester's.
func (s *FollowService) Unfollow(ctx context.Context, requesterID, targetID uint) error {
	edge, err := s.followRepo.GetEdge(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if edge == nil {
		return models.NewNotFoundError("Follow edge to user", targetID)
	}
	if edge.Status == models.FollowStatusDenied {
		return models.NewStateConflictError(
			fmt.Sprintf("Already follows user %d with status DENIED", targetID))
	}
	wasFollowing := edge.Status == models.FollowStatusFollowing
	if err := s.followRepo.Delete(ctx, edge.ID); err != nil {
		return err
	}
	if wasFollowing {
		return s.eventRepo.Append(ctx, &models.Event{
			Kind:      models.EventFollowEnded,
			ActorID:   requesterID,
			SubjectID: targetID,
		})
	}
	return nil
}

// AcceptFollower transitions an inbound REQUESTED or DENIED edge to
// FOLLOWING. Only the followed user may accept.
func (s *FollowService) AcceptFollower(ctx context.Context, ownerID, followerID uint) (*models.Follow, error) {
	edge, err := s.followRepo.GetEdge(ctx, followerID, ownerID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, models.NewNotFoundError("Follow request from user", followerID)
	}
	if edge.Status == models.FollowStatusFollowing {
		return nil, models.NewConflictError(
			fmt.Sprintf("User %d already follows with status FOLLOWING", followerID))
	}
	now := time.Now()
	if err := s.followRepo.UpdateStatus(ctx, edge.ID, models.FollowStatusFollowing, now); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Append(ctx, &models.Event{
		Kind:      models.EventFollowStarted,
		ActorID:   followerID,
		SubjectID: ownerID,
	}); err != nil {
		return nil, err
	}
	edge.Status = models.FollowStatusFollowing
	edge.StatusChangedAt = now
	return edge, nil
}

// DenyFollower transitions an inbound edge to DENIED. Denying a REQUESTED
// edge rejects the request; denying a FOLLOWING edge revokes an accepted
// follow and reverses its counters.
func (s *FollowService) DenyFollower(ctx context.Context, ownerID, followerID uint) (*models.Follow, error) {
	edge, err := s.followRepo.GetEdge(ctx, followerID, ownerID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, models.NewNotFoundError("Follow request from user", followerID)
	}
	if edge.Status == models.FollowStatusDenied {
		return nil, models.NewConflictError(
			fmt.Sprintf("User %d already follows with status DENIED", followerID))
	}
	wasFollowing := edge.Status == models.FollowStatusFollowing
	now := time.Now()
	if err := s.followRepo.UpdateStatus(ctx, edge.ID, models.FollowStatusDenied, now); err != nil {
		return nil, err
	}
	if wasFollowing {
		if err := s.eventRepo.Append(ctx, &models.Event{
			Kind:      models.EventFollowEnded,
			ActorID:   followerID,
			SubjectID: ownerID,
		}); err != nil {
			return nil, err
		}
	}
	edge.Status = models.FollowStatusDenied
	edge.StatusChangedAt = now
	return edge, nil
}

// ListFollowed returns the users targetID follows, filtered by status. The
// bool result is false when the viewer has no access to the list at all, in
// which case the handler renders null instead of an empty array.
func (s *FollowService) ListFollowed(ctx context.Context, viewerID, targetID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, bool, error) {
	rel, err := s.relate(ctx, viewerID, targetID)
	if err != nil {
		return nil, false, err
	}
	if !visibility.ListFilterAllowed(rel, status) {
		return nil, false, models.NewUnauthorizedError("Only the FOLLOWING filter is allowed on another user's relationships")
	}
	if visibility.Resolve(visibility.ClassFollowLists, rel) != visibility.Allow {
		return nil, false, nil
	}
	follows, err := s.followRepo.ListFollowed(ctx, targetID, status, limit, offset)
	if err != nil {
		return nil, false, err
	}
	return follows, true, nil
}

// ListFollowers returns the users following targetID, filtered by status,
// with the same access semantics as ListFollowed.
func (s *FollowService) ListFollowers(ctx context.Context, viewerID, targetID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, bool, error) {
	rel, err := s.relate(ctx, viewerID, targetID)
	if err != nil {
		return nil, false, err
	}
	if !visibility.ListFilterAllowed(rel, status) {
		return nil, false, models.NewUnauthorizedError("Only the FOLLOWING filter is allowed on another user's relationships")
	}
	if visibility.Resolve(visibility.ClassFollowLists, rel) != visibility.Allow {
		return nil, false, nil
	}
	follows, err := s.followRepo.ListFollowers(ctx, targetID, status, limit, offset)
	if err != nil {
		return nil, false, err
	}
	return follows, true, nil
}

func (s *FollowService) relate(ctx context.Context, viewerID, targetID uint) (visibility.Relationship, error) {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return visibility.RelNone, err
	}
	if viewerID == targetID {
		return visibility.RelSelf, nil
	}
	edge, err := s.followRepo.GetEdge(ctx, viewerID, targetID)
	if err != nil {
		return visibility.RelNone, err
	}
	return visibility.Relate(viewerID, target, edge), nil
}

func (s *FollowService) checkNotBlocked(ctx context.Context, requesterID, targetID uint) error {
	// The target blocking the requester is indistinguishable from the target
	// not existing.
	blocked, err := s.flagRepo.IsBlocked(ctx, targetID, requesterID)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewNotFoundError("User", targetID)
	}
	blocked, err = s.flagRepo.IsBlocked(ctx, requesterID, targetID)
	if err != nil {
		return err
	}
	if blocked {
		return models.NewValidationError("You have blocked this user")
	}
	return nil
}
