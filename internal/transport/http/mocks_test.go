package http

import (
	"context"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/akulikov/review-request-service/internal/service"
	"github.com/stretchr/testify/mock"
)

type ReviewRequestServiceMock struct {
	mock.Mock
}

var _ service.ReviewRequestService = (*ReviewRequestServiceMock)(nil)

func (m *ReviewRequestServiceMock) Create(ctx context.Context, actor *domain.User, in service.CreateReviewRequestInput) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestServiceMock) Get(ctx context.Context, actor *domain.User, id int64) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestServiceMock) List(ctx context.Context, actor *domain.User, f repository.ReviewRequestFilter) ([]domain.ReviewRequest, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestServiceMock) Close(ctx context.Context, actor *domain.User, id int64, closeType domain.Status) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, actor, id, closeType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestServiceMock) Reopen(ctx context.Context, actor *domain.User, id int64) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestServiceMock) Delete(ctx context.Context, actor *domain.User, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *ReviewRequestServiceMock) Star(ctx context.Context, actor *domain.User, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *ReviewRequestServiceMock) Unstar(ctx context.Context, actor *domain.User, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *ReviewRequestServiceMock) StarGroup(ctx context.Context, actor *domain.User, groupName string) error {
	return m.Called(ctx, actor, groupName).Error(0)
}

func (m *ReviewRequestServiceMock) UnstarGroup(ctx context.Context, actor *domain.User, groupName string) error {
	return m.Called(ctx, actor, groupName).Error(0)
}

func (m *ReviewRequestServiceMock) ListDiffSets(ctx context.Context, actor *domain.User, id int64) ([]domain.DiffSet, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.DiffSet), args.Error(1)
}

func (m *ReviewRequestServiceMock) GetDiffSet(ctx context.Context, actor *domain.User, id int64, revision int) (*domain.DiffSet, error) {
	args := m.Called(ctx, actor, id, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.DiffSet), args.Error(1)
}

func (m *ReviewRequestServiceMock) ListFileDiffs(ctx context.Context, actor *domain.User, id int64, revision int) ([]domain.FileDiff, error) {
	args := m.Called(ctx, actor, id, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.FileDiff), args.Error(1)
}

func (m *ReviewRequestServiceMock) ListScreenshots(ctx context.Context, actor *domain.User, id int64) ([]domain.Screenshot, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Screenshot), args.Error(1)
}

type DraftServiceMock struct {
	mock.Mock
}

var _ service.DraftService = (*DraftServiceMock)(nil)

func (m *DraftServiceMock) PrepareDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Draft, bool, error) {
	args := m.Called(ctx, actor, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).(*domain.Draft), args.Bool(1), args.Error(2)
}

func (m *DraftServiceMock) GetDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Draft, error) {
	args := m.Called(ctx, actor, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *DraftServiceMock) UpdateDraft(ctx context.Context, actor *domain.User, reviewRequestID int64, fields map[string]string, alwaysSave bool) (*domain.Draft, error) {
	args := m.Called(ctx, actor, reviewRequestID, fields, alwaysSave)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *DraftServiceMock) DeleteDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) error {
	return m.Called(ctx, actor, reviewRequestID).Error(0)
}

func (m *DraftServiceMock) PublishDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, actor, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *DraftServiceMock) UploadDiff(ctx context.Context, actor *domain.User, reviewRequestID int64, diff, parentDiff []byte) (*domain.DiffSet, error) {
	args := m.Called(ctx, actor, reviewRequestID, diff, parentDiff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.DiffSet), args.Error(1)
}

func (m *DraftServiceMock) UploadScreenshot(ctx context.Context, actor *domain.User, reviewRequestID int64, caption string, image []byte) (*domain.Screenshot, error) {
	args := m.Called(ctx, actor, reviewRequestID, caption, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Screenshot), args.Error(1)
}

type ReviewServiceMock struct {
	mock.Mock
}

var _ service.ReviewService = (*ReviewServiceMock)(nil)

func (m *ReviewServiceMock) GetOrCreateReview(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Review, bool, error) {
	args := m.Called(ctx, actor, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).(*domain.Review), args.Bool(1), args.Error(2)
}

func (m *ReviewServiceMock) GetOrCreateReply(ctx context.Context, actor *domain.User, reviewRequestID, baseReviewID int64) (*domain.Review, bool, error) {
	args := m.Called(ctx, actor, reviewRequestID, baseReviewID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).(*domain.Review), args.Bool(1), args.Error(2)
}

func (m *ReviewServiceMock) GetReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) (*domain.Review, error) {
	args := m.Called(ctx, actor, reviewRequestID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewServiceMock) GetPendingReview(ctx context.Context, actor *domain.User, reviewRequestID int64, baseReviewID *int64) (*domain.Review, error) {
	args := m.Called(ctx, actor, reviewRequestID, baseReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewServiceMock) UpdateReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, upd service.ReviewUpdate) (*domain.Review, error) {
	args := m.Called(ctx, actor, reviewRequestID, reviewID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewServiceMock) PublishReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) (*domain.Review, error) {
	args := m.Called(ctx, actor, reviewRequestID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewServiceMock) DeleteReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) error {
	return m.Called(ctx, actor, reviewRequestID, reviewID).Error(0)
}

func (m *ReviewServiceMock) ListReviews(ctx context.Context, actor *domain.User, reviewRequestID int64) ([]domain.Review, error) {
	args := m.Called(ctx, actor, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *ReviewServiceMock) ListReplies(ctx context.Context, actor *domain.User, reviewRequestID, baseReviewID int64) ([]domain.Review, error) {
	args := m.Called(ctx, actor, reviewRequestID, baseReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Review), args.Error(1)
}

type CommentServiceMock struct {
	mock.Mock
}

var _ service.CommentService = (*CommentServiceMock)(nil)

func (m *CommentServiceMock) CreateDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, in service.DiffCommentInput) (*domain.Comment, error) {
	args := m.Called(ctx, actor, reviewRequestID, reviewID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentServiceMock) CreateDiffCommentReply(ctx context.Context, actor *domain.User, reviewRequestID, replyID, replyToID int64, text string) (*domain.Comment, error) {
	args := m.Called(ctx, actor, reviewRequestID, replyID, replyToID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentServiceMock) GetDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) (*domain.Comment, error) {
	args := m.Called(ctx, actor, reviewRequestID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentServiceMock) ListDiffComments(ctx context.Context, actor *domain.User, f repository.DiffCommentFilter) ([]domain.Comment, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *CommentServiceMock) DeleteDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) error {
	return m.Called(ctx, actor, reviewRequestID, commentID).Error(0)
}

func (m *CommentServiceMock) CreateScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, in service.ScreenshotCommentInput) (*domain.ScreenshotComment, error) {
	args := m.Called(ctx, actor, reviewRequestID, reviewID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ScreenshotComment), args.Error(1)
}

func (m *CommentServiceMock) CreateScreenshotCommentReply(ctx context.Context, actor *domain.User, reviewRequestID, replyID, replyToID int64, text string) (*domain.ScreenshotComment, error) {
	args := m.Called(ctx, actor, reviewRequestID, replyID, replyToID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ScreenshotComment), args.Error(1)
}

func (m *CommentServiceMock) GetScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) (*domain.ScreenshotComment, error) {
	args := m.Called(ctx, actor, reviewRequestID, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ScreenshotComment), args.Error(1)
}

func (m *CommentServiceMock) ListScreenshotComments(ctx context.Context, actor *domain.User, f repository.ScreenshotCommentFilter) ([]domain.ScreenshotComment, error) {
	args := m.Called(ctx, actor, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ScreenshotComment), args.Error(1)
}

func (m *CommentServiceMock) DeleteScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) error {
	return m.Called(ctx, actor, reviewRequestID, commentID).Error(0)
}

type UserServiceMock struct {
	mock.Mock
}

var _ service.UserService = (*UserServiceMock)(nil)

func (m *UserServiceMock) Lookup(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.User), args.Error(1)
}
