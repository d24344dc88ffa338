package service

import (
	"context"
	"time"

	"glimpse/internal/models"
	"glimpse/internal/repository"
)

// Function-field stubs for the repository interfaces. Tests assign only the
// functions they need; calling an unassigned function panics, which makes an
// unexpected repository call a loud test failure.

type stubUserRepo struct {
	CreateFn        func(ctx context.Context, user *models.User) error
	GetByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	GetByEmailFn    func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	UpdateFn        func(ctx context.Context, user *models.User) error
	UpdateFieldsFn  func(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteFn        func(ctx context.Context, id uint) error
	SearchFn        func(ctx context.Context, token string, limit, offset int) ([]models.User, error)
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	return s.CreateFn(ctx, user)
}
func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.GetByIDFn(ctx, id)
}
func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.GetByEmailFn(ctx, email)
}
func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.GetByUsernameFn(ctx, username)
}
func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error {
	return s.UpdateFn(ctx, user)
}
func (s *stubUserRepo) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.UpdateFieldsFn(ctx, id, fields)
}
func (s *stubUserRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}
func (s *stubUserRepo) Search(ctx context.Context, token string, limit, offset int) ([]models.User, error) {
	return s.SearchFn(ctx, token, limit, offset)
}

type stubFollowRepo struct {
	CreateFn                      func(ctx context.Context, follow *models.Follow) error
	GetEdgeFn                     func(ctx context.Context, followerID, followedID uint) (*models.Follow, error)
	UpdateStatusFn                func(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error
	DeleteFn                      func(ctx context.Context, id uint) error
	DeleteBetweenFn               func(ctx context.Context, userID1, userID2 uint) error
	ListFollowedFn                func(ctx context.Context, followerID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error)
	ListFollowersFn               func(ctx context.Context, followedID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error)
	CountFollowersFn              func(ctx context.Context, followedID uint, status models.FollowStatus) (int64, error)
	FollowedIDsFn                 func(ctx context.Context, followerID uint) ([]uint, error)
	RequestedFollowerIDsFn        func(ctx context.Context, followedID uint) ([]uint, error)
	ConvertRequestedToFollowingFn func(ctx context.Context, followedID uint, changedAt time.Time) error
}

func (s *stubFollowRepo) Create(ctx context.Context, follow *models.Follow) error {
	return s.CreateFn(ctx, follow)
}
func (s *stubFollowRepo) GetEdge(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	return s.GetEdgeFn(ctx, followerID, followedID)
}
func (s *stubFollowRepo) UpdateStatus(ctx context.Context, id uint, status models.FollowStatus, changedAt time.Time) error {
	return s.UpdateStatusFn(ctx, id, status, changedAt)
}
func (s *stubFollowRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}
func (s *stubFollowRepo) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	return s.DeleteBetweenFn(ctx, userID1, userID2)
}
func (s *stubFollowRepo) ListFollowed(ctx context.Context, followerID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error) {
	return s.ListFollowedFn(ctx, followerID, status, limit, offset)
}
func (s *stubFollowRepo) ListFollowers(ctx context.Context, followedID uint, status models.FollowStatus, limit, offset int) ([]models.Follow, error) {
	return s.ListFollowersFn(ctx, followedID, status, limit, offset)
}
func (s *stubFollowRepo) CountFollowers(ctx context.Context, followedID uint, status models.FollowStatus) (int64, error) {
	return s.CountFollowersFn(ctx, followedID, status)
}
func (s *stubFollowRepo) FollowedIDs(ctx context.Context, followerID uint) ([]uint, error) {
	return s.FollowedIDsFn(ctx, followerID)
}
func (s *stubFollowRepo) RequestedFollowerIDs(ctx context.Context, followedID uint) ([]uint, error) {
	return s.RequestedFollowerIDsFn(ctx, followedID)
}
func (s *stubFollowRepo) ConvertRequestedToFollowing(ctx context.Context, followedID uint, changedAt time.Time) error {
	return s.ConvertRequestedToFollowingFn(ctx, followedID, changedAt)
}

type stubPostRepo struct {
	CreateFn           func(ctx context.Context, post *models.Post) error
	GetByIDFn          func(ctx context.Context, id uint) (*models.Post, error)
	GetByIDWithOwnerFn func(ctx context.Context, id uint) (*models.Post, error)
	GetByMediaKeyFn    func(ctx context.Context, mediaKey string) (*models.Post, error)
	UpdateFn           func(ctx context.Context, post *models.Post) error
	UpdateFieldsFn     func(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteFn           func(ctx context.Context, id uint) error
	DeleteByOwnerFn    func(ctx context.Context, ownerID uint) error
	ListByOwnerFn      func(ctx context.Context, ownerID uint, statuses []models.PostStatus, limit, offset int) ([]models.Post, error)
	ListFeedFn         func(ctx context.Context, ownerIDs []uint, limit, offset int) ([]models.Post, error)
	ListStoriesFn      func(ctx context.Context, ownerID uint, now time.Time) ([]models.Post, error)
	ListStoryOwnersFn  func(ctx context.Context, ownerIDs []uint, now time.Time) ([]repository.StoryOwner, error)
	ListLikedByFn      func(ctx context.Context, userID uint, mode models.LikeMode) ([]models.Post, error)
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.Post) error {
	return s.CreateFn(ctx, post)
}
func (s *stubPostRepo) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.GetByIDFn(ctx, id)
}
func (s *stubPostRepo) GetByIDWithOwner(ctx context.Context, id uint) (*models.Post, error) {
	return s.GetByIDWithOwnerFn(ctx, id)
}
func (s *stubPostRepo) GetByMediaKey(ctx context.Context, mediaKey string) (*models.Post, error) {
	return s.GetByMediaKeyFn(ctx, mediaKey)
}
func (s *stubPostRepo) Update(ctx context.Context, post *models.Post) error {
	return s.UpdateFn(ctx, post)
}
func (s *stubPostRepo) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.UpdateFieldsFn(ctx, id, fields)
}
func (s *stubPostRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}
func (s *stubPostRepo) DeleteByOwner(ctx context.Context, ownerID uint) error {
	return s.DeleteByOwnerFn(ctx, ownerID)
}
func (s *stubPostRepo) ListByOwner(ctx context.Context, ownerID uint, statuses []models.PostStatus, limit, offset int) ([]models.Post, error) {
	return s.ListByOwnerFn(ctx, ownerID, statuses, limit, offset)
}
func (s *stubPostRepo) ListFeed(ctx context.Context, ownerIDs []uint, limit, offset int) ([]models.Post, error) {
	return s.ListFeedFn(ctx, ownerIDs, limit, offset)
}
func (s *stubPostRepo) ListStories(ctx context.Context, ownerID uint, now time.Time) ([]models.Post, error) {
	return s.ListStoriesFn(ctx, ownerID, now)
}
func (s *stubPostRepo) ListStoryOwners(ctx context.Context, ownerIDs []uint, now time.Time) ([]repository.StoryOwner, error) {
	return s.ListStoryOwnersFn(ctx, ownerIDs, now)
}
func (s *stubPostRepo) ListLikedBy(ctx context.Context, userID uint, mode models.LikeMode) ([]models.Post, error) {
	return s.ListLikedByFn(ctx, userID, mode)
}

type stubCommentRepo struct {
	CreateFn            func(ctx context.Context, comment *models.Comment) error
	GetByIDFn           func(ctx context.Context, id uint) (*models.Comment, error)
	DeleteFn            func(ctx context.Context, id uint) error
	DeleteByPostFn      func(ctx context.Context, postID uint) error
	ListByPostFn        func(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
	MarkViewedByOwnerFn func(ctx context.Context, postID uint) (int64, error)
	SetFlaggedFn        func(ctx context.Context, id uint) error
}

func (s *stubCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return s.CreateFn(ctx, comment)
}
func (s *stubCommentRepo) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.GetByIDFn(ctx, id)
}
func (s *stubCommentRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}
func (s *stubCommentRepo) DeleteByPost(ctx context.Context, postID uint) error {
	return s.DeleteByPostFn(ctx, postID)
}
func (s *stubCommentRepo) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	return s.ListByPostFn(ctx, postID, limit, offset)
}
func (s *stubCommentRepo) MarkViewedByOwner(ctx context.Context, postID uint) (int64, error) {
	return s.MarkViewedByOwnerFn(ctx, postID)
}
func (s *stubCommentRepo) SetFlagged(ctx context.Context, id uint) error {
	return s.SetFlaggedFn(ctx, id)
}

type stubLikeRepo struct {
	CreateFn            func(ctx context.Context, like *models.Like) error
	GetEdgeFn           func(ctx context.Context, userID, postID uint) (*models.Like, error)
	DeleteFn            func(ctx context.Context, id uint) error
	DeleteByPostFn      func(ctx context.Context, postID uint) error
	ListOnymousLikersFn func(ctx context.Context, postID uint) ([]models.User, error)
}

func (s *stubLikeRepo) Create(ctx context.Context, like *models.Like) error {
	return s.CreateFn(ctx, like)
}
func (s *stubLikeRepo) GetEdge(ctx context.Context, userID, postID uint) (*models.Like, error) {
	return s.GetEdgeFn(ctx, userID, postID)
}
func (s *stubLikeRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}
func (s *stubLikeRepo) DeleteByPost(ctx context.Context, postID uint) error {
	return s.DeleteByPostFn(ctx, postID)
}
func (s *stubLikeRepo) ListOnymousLikers(ctx context.Context, postID uint) ([]models.User, error) {
	return s.ListOnymousLikersFn(ctx, postID)
}

type stubCardRepo struct {
	CreateFn       func(ctx context.Context, card *models.Card) error
	GetByIDFn      func(ctx context.Context, id uint) (*models.Card, error)
	DeleteFn       func(ctx context.Context, id uint) error
	ListByOwnerFn  func(ctx context.Context, ownerID uint, limit, offset int) ([]models.Card, error)
	CountByOwnerFn func(ctx context.Context, ownerID uint) (int64, error)
	FireTriggerFn  func(ctx context.Context, ownerID, postID uint, kind models.CardKind) (bool, error)
}

func (s *stubCardRepo) Create(ctx context.Context, card *models.Card) error {
	return s.CreateFn(ctx, card)
}
func (s *stubCardRepo) GetByID(ctx context.Context, id uint) (*models.Card, error) {
	return s.GetByIDFn(ctx, id)
}
func (s *stubCardRepo) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}
func (s *stubCardRepo) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.Card, error) {
	return s.ListByOwnerFn(ctx, ownerID, limit, offset)
}
func (s *stubCardRepo) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	return s.CountByOwnerFn(ctx, ownerID)
}
func (s *stubCardRepo) FireTrigger(ctx context.Context, ownerID, postID uint, kind models.CardKind) (bool, error) {
	return s.FireTriggerFn(ctx, ownerID, postID, kind)
}

type stubViewRepo struct {
	RecordFn        func(ctx context.Context, postID, viewerID uint, now time.Time) (bool, error)
	CountDistinctFn func(ctx context.Context, postID uint) (int64, error)
	ListViewersFn   func(ctx context.Context, postID uint) ([]models.User, error)
}

func (s *stubViewRepo) Record(ctx context.Context, postID, viewerID uint, now time.Time) (bool, error) {
	return s.RecordFn(ctx, postID, viewerID, now)
}
func (s *stubViewRepo) CountDistinct(ctx context.Context, postID uint) (int64, error) {
	return s.CountDistinctFn(ctx, postID)
}
func (s *stubViewRepo) ListViewers(ctx context.Context, postID uint) ([]models.User, error) {
	return s.ListViewersFn(ctx, postID)
}

type stubFlagRepo struct {
	CreateFlagFn  func(ctx context.Context, flag *models.Flag) error
	CreateBlockFn func(ctx context.Context, block *models.Block) error
	DeleteBlockFn func(ctx context.Context, blockerID, blockedID uint) (bool, error)
	IsBlockedFn   func(ctx context.Context, blockerID, blockedID uint) (bool, error)
	BlockerIDsFn  func(ctx context.Context, blockedID uint) ([]uint, error)
}

func (s *stubFlagRepo) CreateFlag(ctx context.Context, flag *models.Flag) error {
	return s.CreateFlagFn(ctx, flag)
}
func (s *stubFlagRepo) CreateBlock(ctx context.Context, block *models.Block) error {
	return s.CreateBlockFn(ctx, block)
}
func (s *stubFlagRepo) DeleteBlock(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	return s.DeleteBlockFn(ctx, blockerID, blockedID)
}
func (s *stubFlagRepo) IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	return s.IsBlockedFn(ctx, blockerID, blockedID)
}
func (s *stubFlagRepo) BlockerIDs(ctx context.Context, blockedID uint) ([]uint, error) {
	return s.BlockerIDsFn(ctx, blockedID)
}

// recordingEventRepo collects appended events for assertions.
type recordingEventRepo struct {
	events []models.Event
}

func (r *recordingEventRepo) Append(ctx context.Context, event *models.Event) error {
	r.events = append(r.events, *event)
	return nil
}
func (r *recordingEventRepo) FetchUnprocessed(ctx context.Context, limit int) ([]models.Event, error) {
	return nil, nil
}
func (r *recordingEventRepo) MarkProcessed(ctx context.Context, ids []uint, at time.Time) error {
	return nil
}

// notBlocked is a flag repo stub where nobody blocks anybody.
func notBlocked() *stubFlagRepo {
	return &stubFlagRepo{
		IsBlockedFn: func(ctx context.Context, blockerID, blockedID uint) (bool, error) {
			return false, nil
		},
	}
}
