package service

import (
	"context"
	"database/sql"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type DatabaseMock struct {
	mock.Mock
	sqlx.ExtContext
}

var _ Database = (*DatabaseMock)(nil)

func (m *DatabaseMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*sqlx.Tx), args.Error(1)
}

type ReviewRequestRepositoryMock struct {
	mock.Mock
}

var _ repository.ReviewRequestRepository = (*ReviewRequestRepositoryMock)(nil)

func (m *ReviewRequestRepositoryMock) Create(ctx context.Context, tx *sqlx.Tx, rr *domain.ReviewRequest) error {
	args := m.Called(ctx, tx, rr)
	return args.Error(0)
}

func (m *ReviewRequestRepositoryMock) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestRepositoryMock) GetByIDWithLock(ctx context.Context, tx *sqlx.Tx, id int64) (*domain.ReviewRequest, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestRepositoryMock) Update(ctx context.Context, tx *sqlx.Tx, rr *domain.ReviewRequest) error {
	args := m.Called(ctx, tx, rr)
	return args.Error(0)
}

func (m *ReviewRequestRepositoryMock) ReplaceTargets(ctx context.Context, tx *sqlx.Tx, rrID int64, groupIDs, userIDs []int64) error {
	args := m.Called(ctx, tx, rrID, groupIDs, userIDs)
	return args.Error(0)
}

func (m *ReviewRequestRepositoryMock) GetTargets(ctx context.Context, ext sqlx.ExtContext, rrID int64) ([]domain.Group, []domain.User, error) {
	args := m.Called(ctx, ext, rrID)

	var (
		groups []domain.Group
		people []domain.User
	)
	if args.Get(0) != nil {
		groups = args.Get(0).([]domain.Group)
	}
	if args.Get(1) != nil {
		people = args.Get(1).([]domain.User)
	}

	return groups, people, args.Error(2)
}

func (m *ReviewRequestRepositoryMock) List(ctx context.Context, f repository.ReviewRequestFilter) ([]domain.ReviewRequest, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ReviewRequest), args.Error(1)
}

func (m *ReviewRequestRepositoryMock) RecordChangeDescription(ctx context.Context, tx *sqlx.Tx, rrID int64, text string) error {
	args := m.Called(ctx, tx, rrID, text)
	return args.Error(0)
}

func (m *ReviewRequestRepositoryMock) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

type DraftRepositoryMock struct {
	mock.Mock
}

var _ repository.DraftRepository = (*DraftRepositoryMock)(nil)

func (m *DraftRepositoryMock) GetOrCreate(ctx context.Context, tx *sqlx.Tx, seed *domain.Draft) (*domain.Draft, bool, error) {
	args := m.Called(ctx, tx, seed)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).(*domain.Draft), args.Bool(1), args.Error(2)
}

func (m *DraftRepositoryMock) Get(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64) (*domain.Draft, error) {
	args := m.Called(ctx, ext, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *DraftRepositoryMock) Save(ctx context.Context, tx *sqlx.Tx, draft *domain.Draft) error {
	args := m.Called(ctx, tx, draft)
	return args.Error(0)
}

func (m *DraftRepositoryMock) ReplaceTargets(ctx context.Context, tx *sqlx.Tx, draftID int64, groupIDs, userIDs []int64) error {
	args := m.Called(ctx, tx, draftID, groupIDs, userIDs)
	return args.Error(0)
}

func (m *DraftRepositoryMock) GetTargets(ctx context.Context, ext sqlx.ExtContext, draftID int64) ([]domain.Group, []domain.User, error) {
	args := m.Called(ctx, ext, draftID)

	var (
		groups []domain.Group
		people []domain.User
	)
	if args.Get(0) != nil {
		groups = args.Get(0).([]domain.Group)
	}
	if args.Get(1) != nil {
		people = args.Get(1).([]domain.User)
	}

	return groups, people, args.Error(2)
}

func (m *DraftRepositoryMock) Delete(ctx context.Context, tx *sqlx.Tx, draftID int64) error {
	args := m.Called(ctx, tx, draftID)
	return args.Error(0)
}

type ReviewRepositoryMock struct {
	mock.Mock
}

var _ repository.ReviewRepository = (*ReviewRepositoryMock)(nil)

func (m *ReviewRepositoryMock) GetOrCreatePending(ctx context.Context, tx *sqlx.Tx, reviewRequestID, userID int64, baseReplyTo *int64) (*domain.Review, bool, error) {
	args := m.Called(ctx, tx, reviewRequestID, userID, baseReplyTo)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).(*domain.Review), args.Bool(1), args.Error(2)
}

func (m *ReviewRepositoryMock) GetPending(ctx context.Context, ext sqlx.ExtContext, reviewRequestID, userID int64, baseReplyTo *int64) (*domain.Review, error) {
	args := m.Called(ctx, ext, reviewRequestID, userID, baseReplyTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewRepositoryMock) GetByID(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Review, error) {
	args := m.Called(ctx, ext, id, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewRepositoryMock) Update(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	args := m.Called(ctx, tx, review)
	return args.Error(0)
}

func (m *ReviewRepositoryMock) MarkPublic(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *ReviewRepositoryMock) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *ReviewRepositoryMock) ListPublic(ctx context.Context, reviewRequestID int64, baseReplyTo *int64) ([]domain.Review, error) {
	args := m.Called(ctx, reviewRequestID, baseReplyTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Review), args.Error(1)
}

type CommentRepositoryMock struct {
	mock.Mock
}

var _ repository.CommentRepository = (*CommentRepositoryMock)(nil)

func (m *CommentRepositoryMock) CreateDiff(ctx context.Context, tx *sqlx.Tx, c *domain.Comment) error {
	args := m.Called(ctx, tx, c)
	return args.Error(0)
}

func (m *CommentRepositoryMock) GetDiff(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Comment, error) {
	args := m.Called(ctx, ext, id, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *CommentRepositoryMock) ListDiff(ctx context.Context, f repository.DiffCommentFilter) ([]domain.Comment, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Comment), args.Error(1)
}

func (m *CommentRepositoryMock) DeleteDiff(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *CommentRepositoryMock) CreateScreenshot(ctx context.Context, tx *sqlx.Tx, c *domain.ScreenshotComment) error {
	args := m.Called(ctx, tx, c)
	return args.Error(0)
}

func (m *CommentRepositoryMock) GetScreenshot(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.ScreenshotComment, error) {
	args := m.Called(ctx, ext, id, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ScreenshotComment), args.Error(1)
}

func (m *CommentRepositoryMock) ListScreenshot(ctx context.Context, f repository.ScreenshotCommentFilter) ([]domain.ScreenshotComment, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ScreenshotComment), args.Error(1)
}

func (m *CommentRepositoryMock) DeleteScreenshot(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

type DiffRepositoryMock struct {
	mock.Mock
}

var _ repository.DiffRepository = (*DiffRepositoryMock)(nil)

func (m *DiffRepositoryMock) CreateDiffSet(ctx context.Context, tx *sqlx.Tx, ds *domain.DiffSet, files []domain.FileDiff) error {
	args := m.Called(ctx, tx, ds, files)
	return args.Error(0)
}

func (m *DiffRepositoryMock) GetDiffSet(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64, revision int) (*domain.DiffSet, error) {
	args := m.Called(ctx, ext, reviewRequestID, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.DiffSet), args.Error(1)
}

func (m *DiffRepositoryMock) ListDiffSets(ctx context.Context, reviewRequestID int64) ([]domain.DiffSet, error) {
	args := m.Called(ctx, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.DiffSet), args.Error(1)
}

func (m *DiffRepositoryMock) GetFileDiffInHistory(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.FileDiff, error) {
	args := m.Called(ctx, ext, id, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.FileDiff), args.Error(1)
}

func (m *DiffRepositoryMock) ListFileDiffs(ctx context.Context, reviewRequestID int64, revision int) ([]domain.FileDiff, error) {
	args := m.Called(ctx, reviewRequestID, revision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.FileDiff), args.Error(1)
}

func (m *DiffRepositoryMock) NextRevision(ctx context.Context, tx *sqlx.Tx, reviewRequestID int64) (int, error) {
	args := m.Called(ctx, tx, reviewRequestID)
	return args.Int(0), args.Error(1)
}

func (m *DiffRepositoryMock) AttachToHistory(ctx context.Context, tx *sqlx.Tx, diffSetID, reviewRequestID int64, revision int) error {
	args := m.Called(ctx, tx, diffSetID, reviewRequestID, revision)
	return args.Error(0)
}

func (m *DiffRepositoryMock) DeleteDiffSet(ctx context.Context, tx *sqlx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

var _ repository.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, ext sqlx.ExtContext, username string) (*domain.User, error) {
	args := m.Called(ctx, ext, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.User, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepositoryMock) Create(ctx context.Context, ext sqlx.ExtContext, user *domain.User) error {
	args := m.Called(ctx, ext, user)
	return args.Error(0)
}

func (m *UserRepositoryMock) GetGroupByName(ctx context.Context, ext sqlx.ExtContext, name string) (*domain.Group, error) {
	args := m.Called(ctx, ext, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *UserRepositoryMock) GetRepository(ctx context.Context, ext sqlx.ExtContext, idOrPath string) (*domain.Repository, error) {
	args := m.Called(ctx, ext, idOrPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Repository), args.Error(1)
}

type ScreenshotRepositoryMock struct {
	mock.Mock
}

var _ repository.ScreenshotRepository = (*ScreenshotRepositoryMock)(nil)

func (m *ScreenshotRepositoryMock) Get(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Screenshot, error) {
	args := m.Called(ctx, ext, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Screenshot), args.Error(1)
}

func (m *ScreenshotRepositoryMock) GetInRequest(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Screenshot, error) {
	args := m.Called(ctx, ext, id, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Screenshot), args.Error(1)
}

func (m *ScreenshotRepositoryMock) Create(ctx context.Context, tx *sqlx.Tx, s *domain.Screenshot) error {
	args := m.Called(ctx, tx, s)
	return args.Error(0)
}

func (m *ScreenshotRepositoryMock) Save(ctx context.Context, tx *sqlx.Tx, s *domain.Screenshot) error {
	args := m.Called(ctx, tx, s)
	return args.Error(0)
}

func (m *ScreenshotRepositoryMock) ListByRequest(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64) ([]domain.Screenshot, error) {
	args := m.Called(ctx, ext, reviewRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Screenshot), args.Error(1)
}

type ProfileRepositoryMock struct {
	mock.Mock
}

var _ repository.ProfileRepository = (*ProfileRepositoryMock)(nil)

func (m *ProfileRepositoryMock) StarReviewRequest(ctx context.Context, userID, reviewRequestID int64) error {
	args := m.Called(ctx, userID, reviewRequestID)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) UnstarReviewRequest(ctx context.Context, userID, reviewRequestID int64) error {
	args := m.Called(ctx, userID, reviewRequestID)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) StarGroup(ctx context.Context, userID, groupID int64) error {
	args := m.Called(ctx, userID, groupID)
	return args.Error(0)
}

func (m *ProfileRepositoryMock) UnstarGroup(ctx context.Context, userID, groupID int64) error {
	args := m.Called(ctx, userID, groupID)
	return args.Error(0)
}

type IdentityResolverMock struct {
	mock.Mock
}

var _ IdentityResolver = (*IdentityResolverMock)(nil)

func (m *IdentityResolverMock) ResolveUser(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.User), args.Error(1)
}

type AccessCheckerMock struct {
	mock.Mock
}

var _ AccessChecker = (*AccessCheckerMock)(nil)

func (m *AccessCheckerMock) IsAccessibleBy(ctx context.Context, rr *domain.ReviewRequest, user *domain.User) bool {
	args := m.Called(ctx, rr, user)
	return args.Bool(0)
}

type NotificationDispatcherMock struct {
	mock.Mock
}

var _ NotificationDispatcher = (*NotificationDispatcherMock)(nil)

func (m *NotificationDispatcherMock) ReviewRequestPublished(ctx context.Context, rr *domain.ReviewRequest) error {
	args := m.Called(ctx, rr)
	return args.Error(0)
}

func (m *NotificationDispatcherMock) ReviewPublished(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

type DiffIngesterMock struct {
	mock.Mock
}

var _ DiffIngester = (*DiffIngesterMock)(nil)

func (m *DiffIngesterMock) Ingest(ctx context.Context, diff, parentDiff []byte, repo *domain.Repository) (*domain.DiffSet, []domain.FileDiff, error) {
	args := m.Called(ctx, diff, parentDiff, repo)

	var (
		ds    *domain.DiffSet
		files []domain.FileDiff
	)
	if args.Get(0) != nil {
		ds = args.Get(0).(*domain.DiffSet)
	}
	if args.Get(1) != nil {
		files = args.Get(1).([]domain.FileDiff)
	}

	return ds, files, args.Error(2)
}

type ScreenshotIngesterMock struct {
	mock.Mock
}

var _ ScreenshotIngester = (*ScreenshotIngesterMock)(nil)

func (m *ScreenshotIngesterMock) Ingest(ctx context.Context, image []byte) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

type ChangesetProviderMock struct {
	mock.Mock
}

var _ ChangesetProvider = (*ChangesetProviderMock)(nil)

func (m *ChangesetProviderMock) GetChangeset(ctx context.Context, repo *domain.Repository, changeNum int64) (*Changeset, error) {
	args := m.Called(ctx, repo, changeNum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*Changeset), args.Error(1)
}
