package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type requestMocks struct {
	db          *DatabaseMock
	requests    *ReviewRequestRepositoryMock
	users       *UserRepositoryMock
	diffs       *DiffRepositoryMock
	screenshots *ScreenshotRepositoryMock
	profiles    *ProfileRepositoryMock
	identity    *IdentityResolverMock
	access      *AccessCheckerMock
	changesets  *ChangesetProviderMock
}

func newRequestService(t *testing.T) (*ReviewRequestServiceImpl, *requestMocks) {
	t.Helper()

	m := &requestMocks{
		db:          &DatabaseMock{},
		requests:    &ReviewRequestRepositoryMock{},
		users:       &UserRepositoryMock{},
		diffs:       &DiffRepositoryMock{},
		screenshots: &ScreenshotRepositoryMock{},
		profiles:    &ProfileRepositoryMock{},
		identity:    &IdentityResolverMock{},
		access:      &AccessCheckerMock{},
		changesets:  &ChangesetProviderMock{},
	}

	svc := NewReviewRequestService(
		NewBaseService(m.db, testLogger()),
		m.requests, m.users, m.diffs, m.screenshots, m.profiles,
		m.identity, m.access, m.changesets,
	)

	return svc, m
}

func TestReviewRequestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}
	repo := &domain.Repository{ID: 3, Path: "/repo"}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.users.On("GetRepository", ctx, mock.Anything, "/repo").Return(repo, nil).Once()
	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.requests.On("Create", ctx, mockedTx, mock.MatchedBy(func(rr *domain.ReviewRequest) bool {
		return rr.SubmitterID == 1 && rr.RepositoryID == 3 &&
			rr.Status == domain.StatusPending && !rr.Public
	})).Return(nil).Once()

	rr, err := svc.Create(ctx, actor, CreateReviewRequestInput{Repository: "/repo"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), rr.SubmitterID)
}

func TestReviewRequestService_Create_UnknownRepository(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}

	m.users.On("GetRepository", ctx, mock.Anything, "/nowhere").Return(nil, apperrors.ErrNotFound).Once()

	_, err := svc.Create(ctx, actor, CreateReviewRequestInput{Repository: "/nowhere"})

	var repoErr *apperrors.InvalidRepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "/nowhere", repoErr.Repository)
}

func TestReviewRequestService_Create_SubmitAsRequiresPrivilege(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}
	repo := &domain.Repository{ID: 3, Path: "/repo"}

	m.users.On("GetRepository", ctx, mock.Anything, "/repo").Return(repo, nil).Once()

	_, err := svc.Create(ctx, actor, CreateReviewRequestInput{Repository: "/repo", SubmitAs: "grumpy"})

	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	m.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewRequestService_Create_ChangeNumConflict(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}
	repo := &domain.Repository{ID: 3, Path: "/repo"}
	changeNum := int64(1234)

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectRollback()

	m.users.On("GetRepository", ctx, mock.Anything, "/repo").Return(repo, nil).Once()
	m.changesets.On("GetChangeset", ctx, repo, int64(1234)).Return(&Changeset{
		ChangeNum: 1234,
		Summary:   "Fix crash",
	}, nil).Once()
	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.requests.On("Create", ctx, mockedTx, mock.Anything).
		Return(&apperrors.ChangeNumberInUseError{ChangeNum: 1234, ReviewRequestID: 7}).Once()

	_, err := svc.Create(ctx, actor, CreateReviewRequestInput{Repository: "/repo", ChangeNum: &changeNum})

	var inUse *apperrors.ChangeNumberInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, int64(7), inUse.ReviewRequestID)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestReviewRequestService_Create_InvalidChangeNumber(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}
	repo := &domain.Repository{ID: 3, Path: "/repo"}
	changeNum := int64(9999)

	m.users.On("GetRepository", ctx, mock.Anything, "/repo").Return(repo, nil).Once()
	m.changesets.On("GetChangeset", ctx, repo, int64(9999)).Return(nil, apperrors.ErrNotFound).Once()

	_, err := svc.Create(ctx, actor, CreateReviewRequestInput{Repository: "/repo", ChangeNum: &changeNum})

	require.ErrorIs(t, err, apperrors.ErrInvalidChangeNumber)
}

func TestReviewRequestService_Get_AccessRules(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous reads public", func(t *testing.T) {
		svc, m := newRequestService(t)
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: true}

		m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
		m.requests.On("GetTargets", ctx, mock.Anything, int64(42)).Return(nil, nil, nil).Once()

		got, err := svc.Get(ctx, nil, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), got.ID)
	})

	t.Run("stranger denied on private", func(t *testing.T) {
		svc, m := newRequestService(t)
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: false}
		stranger := &domain.User{ID: 2, Username: "stranger"}

		m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
		m.access.On("IsAccessibleBy", ctx, rr, stranger).Return(false).Once()

		_, err := svc.Get(ctx, stranger, 42)
		require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("access checker can grant", func(t *testing.T) {
		svc, m := newRequestService(t)
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: false}
		admin := &domain.User{ID: 3, Username: "siteadmin"}

		m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
		m.access.On("IsAccessibleBy", ctx, rr, admin).Return(true).Once()
		m.requests.On("GetTargets", ctx, mock.Anything, int64(42)).Return(nil, nil, nil).Once()

		_, err := svc.Get(ctx, admin, 42)
		require.NoError(t, err)
	})
}

func TestReviewRequestService_CloseAndReopen(t *testing.T) {
	ctx := context.Background()

	t.Run("close submitted", func(t *testing.T) {
		svc, m := newRequestService(t)
		actor := &domain.User{ID: 1, Username: "doc"}
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Status: domain.StatusPending, Public: true}

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		m.requests.On("GetByIDWithLock", ctx, mockedTx, int64(42)).Return(rr, nil).Once()
		m.requests.On("Update", ctx, mockedTx, rr).Return(nil).Once()

		closed, err := svc.Close(ctx, actor, 42, domain.StatusSubmitted)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSubmitted, closed.Status)
	})

	t.Run("invalid close type", func(t *testing.T) {
		svc, _ := newRequestService(t)
		actor := &domain.User{ID: 1, Username: "doc"}

		_, err := svc.Close(ctx, actor, 42, domain.StatusPending)
		require.ErrorIs(t, err, apperrors.ErrInvalidCloseType)
	})

	t.Run("reopen discarded withdraws from public view", func(t *testing.T) {
		svc, m := newRequestService(t)
		actor := &domain.User{ID: 1, Username: "doc"}
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Status: domain.StatusDiscarded, Public: true}

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		m.requests.On("GetByIDWithLock", ctx, mockedTx, int64(42)).Return(rr, nil).Once()
		m.requests.On("Update", ctx, mockedTx, rr).Return(nil).Once()

		reopened, err := svc.Reopen(ctx, actor, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, reopened.Status)
		assert.False(t, reopened.Public)
	})

	t.Run("reopen submitted stays public", func(t *testing.T) {
		svc, m := newRequestService(t)
		actor := &domain.User{ID: 1, Username: "doc"}
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Status: domain.StatusSubmitted, Public: true}

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectCommit()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		m.requests.On("GetByIDWithLock", ctx, mockedTx, int64(42)).Return(rr, nil).Once()
		m.requests.On("Update", ctx, mockedTx, rr).Return(nil).Once()

		reopened, err := svc.Reopen(ctx, actor, 42)
		require.NoError(t, err)
		assert.True(t, reopened.Public)
	})

	t.Run("stranger cannot close", func(t *testing.T) {
		svc, m := newRequestService(t)
		stranger := &domain.User{ID: 2, Username: "stranger"}
		rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Status: domain.StatusPending}

		_, mockedTx, smock := newMockDBAndTx(t)
		smock.ExpectRollback()

		m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
		m.requests.On("GetByIDWithLock", ctx, mockedTx, int64(42)).Return(rr, nil).Once()

		_, err := svc.Close(ctx, stranger, 42, domain.StatusDiscarded)
		require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestReviewRequestService_Delete_RequiresExplicitPrivilege(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	// Ownership alone is not enough.
	owner := &domain.User{ID: 1, Username: "doc"}
	require.ErrorIs(t, svc.Delete(ctx, owner, 42), apperrors.ErrPermissionDenied)

	deleter := &domain.User{ID: 2, Username: "janitor", CanDeleteRequest: true}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.requests.On("Delete", ctx, mockedTx, int64(42)).Return(nil).Once()

	require.NoError(t, svc.Delete(ctx, deleter, 42))
}

func TestReviewRequestService_StarUnstar(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}
	rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: true}

	m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil)
	m.profiles.On("StarReviewRequest", ctx, int64(1), int64(42)).Return(nil).Once()
	m.profiles.On("UnstarReviewRequest", ctx, int64(1), int64(42)).Return(nil).Once()

	require.NoError(t, svc.Star(ctx, actor, 42))
	require.NoError(t, svc.Unstar(ctx, actor, 42))

	require.ErrorIs(t, svc.Star(ctx, nil, 42), apperrors.ErrPermissionDenied)
}

func TestReviewRequestService_List_SetsViewer(t *testing.T) {
	ctx := context.Background()
	svc, m := newRequestService(t)

	actor := &domain.User{ID: 1, Username: "doc"}

	m.requests.On("List", ctx, mock.MatchedBy(func(f repository.ReviewRequestFilter) bool {
		return f.Viewer == actor && f.Status == domain.StatusPending
	})).Return([]domain.ReviewRequest{{ID: 42}}, nil).Once()

	rrs, err := svc.List(ctx, actor, repository.ReviewRequestFilter{Status: domain.StatusPending})

	require.NoError(t, err)
	assert.Len(t, rrs, 1)
}
