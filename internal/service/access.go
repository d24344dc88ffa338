package service

import (
	"context"

	"glimpse/internal/models"
	"glimpse/internal/repository"
	"glimpse/internal/visibility"
)

// relateForPost classifies the viewer against the post owner, treating a
// block by the owner as the post not existing.
func relateForPost(ctx context.Context, followRepo repository.FollowRepository, flagRepo repository.FlagRepository, viewerID uint, post *models.Post) (visibility.Relationship, error) {
	if viewerID == post.OwnerID {
		return visibility.RelSelf, nil
	}
	blocked, err := flagRepo.IsBlocked(ctx, post.OwnerID, viewerID)
	if err != nil {
		return visibility.RelNone, err
	}
	if blocked {
		return visibility.RelNone, models.NewNotFoundError("Post", post.ID)
	}
	edge, err := followRepo.GetEdge(ctx, viewerID, post.OwnerID)
	if err != nil {
		return visibility.RelNone, err
	}
	return visibility.Relate(viewerID, &post.Owner, edge), nil
}
