package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reviewMocks struct {
	db            *DatabaseMock
	requests      *ReviewRequestRepositoryMock
	reviews       *ReviewRepositoryMock
	notifications *NotificationDispatcherMock
}

func newReviewService(t *testing.T) (*ReviewServiceImpl, *reviewMocks) {
	t.Helper()

	m := &reviewMocks{
		db:            &DatabaseMock{},
		requests:      &ReviewRequestRepositoryMock{},
		reviews:       &ReviewRepositoryMock{},
		notifications: &NotificationDispatcherMock{},
	}

	svc := NewReviewService(
		NewBaseService(m.db, testLogger()),
		m.requests, m.reviews, nil, m.notifications,
	)

	return svc, m
}

func TestReviewService_GetOrCreateReview_ReportsCreated(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: true}
	review := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetOrCreatePending", ctx, mockedTx, int64(42), int64(5), (*int64)(nil)).
		Return(review, true, nil).Once()

	got, created, err := svc.GetOrCreateReview(ctx, actor, 42)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, review, got)
}

func TestReviewService_GetOrCreateReview_RedirectsToExisting(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: true}
	review := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetOrCreatePending", ctx, mockedTx, int64(42), int64(5), (*int64)(nil)).
		Return(review, false, nil).Once()

	got, created, err := svc.GetOrCreateReview(ctx, actor, 42)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(9), got.ID)
}

func TestReviewService_GetOrCreateReply_DraftBaseAllowed(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: true}
	base := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5, Public: false}
	baseID := int64(9)
	reply := &domain.Review{ID: 11, ReviewRequestID: 42, UserID: 5, BaseReplyToID: &baseID}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(base, nil).Once()
	m.reviews.On("GetOrCreatePending", ctx, mockedTx, int64(42), int64(5), mock.MatchedBy(func(p *int64) bool {
		return p != nil && *p == 9
	})).Return(reply, true, nil).Once()

	got, created, err := svc.GetOrCreateReply(ctx, actor, 42, 9)

	require.NoError(t, err, "replying to a not-yet-published review must be allowed")
	assert.True(t, created)
	require.NotNil(t, got.BaseReplyToID)
	assert.Equal(t, int64(9), *got.BaseReplyToID)
	assert.False(t, got.Public, "the reply starts out as a draft")
}

func TestReviewService_GetOrCreateReply_MissingBaseRejected(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	rr := &domain.ReviewRequest{ID: 42, SubmitterID: 1, Public: true}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectRollback()

	m.requests.On("GetByID", ctx, mock.Anything, int64(42)).Return(rr, nil).Once()
	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(nil, apperrors.ErrNotFound).Once()

	_, _, err := svc.GetOrCreateReply(ctx, actor, 42, 9)

	require.ErrorIs(t, err, apperrors.ErrNotFound)
	m.reviews.AssertNotCalled(t, "GetOrCreatePending",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_UpdateReview_PublishedIsImmutable(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	review := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5, Public: true}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectRollback()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(review, nil).Once()

	shipIt := true
	_, err := svc.UpdateReview(ctx, actor, 42, 9, ReviewUpdate{ShipIt: &shipIt})

	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	m.reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_UpdateReview_NotAuthorDenied(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 2, Username: "stranger"}
	review := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5, Public: false}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectRollback()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(review, nil).Once()

	body := "sneaky edit"
	_, err := svc.UpdateReview(ctx, actor, 42, 9, ReviewUpdate{BodyTop: &body})

	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestApplyReviewUpdate_ReplyPointers(t *testing.T) {
	baseID := int64(3)

	t.Run("non-empty body sets origin pointer", func(t *testing.T) {
		reply := &domain.Review{ID: 9, BaseReplyToID: &baseID}
		body := "I agree"

		applyReviewUpdate(reply, ReviewUpdate{BodyTop: &body})

		require.NotNil(t, reply.BodyTopReplyTo)
		assert.Equal(t, baseID, *reply.BodyTopReplyTo)
	})

	t.Run("empty body clears origin pointer", func(t *testing.T) {
		reply := &domain.Review{ID: 9, BaseReplyToID: &baseID, BodyTop: "old", BodyTopReplyTo: &baseID}
		empty := ""

		applyReviewUpdate(reply, ReviewUpdate{BodyTop: &empty})

		assert.Nil(t, reply.BodyTopReplyTo)
		assert.Empty(t, reply.BodyTop)
	})

	t.Run("nil leaves fields unchanged", func(t *testing.T) {
		reply := &domain.Review{ID: 9, BaseReplyToID: &baseID, BodyTop: "keep", BodyTopReplyTo: &baseID}

		applyReviewUpdate(reply, ReviewUpdate{})

		assert.Equal(t, "keep", reply.BodyTop)
		require.NotNil(t, reply.BodyTopReplyTo)
	})

	t.Run("top-level review never sets pointers", func(t *testing.T) {
		review := &domain.Review{ID: 9}
		body := "hello"

		applyReviewUpdate(review, ReviewUpdate{BodyBottom: &body})

		assert.Nil(t, review.BodyBotReplyTo)
		assert.Equal(t, "hello", review.BodyBottom)
	})
}

func TestReviewService_PublishReview_Irreversible(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	review := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5, Public: false}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(review, nil).Once()
	m.reviews.On("MarkPublic", ctx, mockedTx, int64(9)).Return(nil).Once()
	m.notifications.On("ReviewPublished", ctx, mock.Anything).Return(nil).Once()

	published, err := svc.PublishReview(ctx, actor, 42, 9)

	require.NoError(t, err)
	assert.True(t, published.Public)

	// A second publish hits the immutability rule.
	_, mockedTx2, smock2 := newMockDBAndTx(t)
	smock2.ExpectRollback()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx2, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx2, int64(9), int64(42)).Return(review, nil).Once()

	_, err = svc.PublishReview(ctx, actor, 42, 9)
	require.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestReviewService_PublishOriginalLeavesReplyDraft(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	original := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5, Public: false}
	baseID := int64(9)
	reply := &domain.Review{ID: 11, ReviewRequestID: 42, UserID: 5, BaseReplyToID: &baseID, Public: false}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(original, nil).Once()
	m.reviews.On("MarkPublic", ctx, mockedTx, int64(9)).Return(nil).Once()
	m.notifications.On("ReviewPublished", ctx, mock.Anything).Return(nil).Once()

	_, err := svc.PublishReview(ctx, actor, 42, 9)

	require.NoError(t, err)
	assert.False(t, reply.Public, "publishing the original must not touch the reply")
	m.reviews.AssertNotCalled(t, "MarkPublic", mock.Anything, mock.Anything, int64(11))
}

func TestReviewService_DeleteReview_OnlyPrivateOwn(t *testing.T) {
	ctx := context.Background()
	svc, m := newReviewService(t)

	actor := &domain.User{ID: 5, Username: "doc"}
	review := &domain.Review{ID: 9, ReviewRequestID: 42, UserID: 5, Public: false}

	_, mockedTx, smock := newMockDBAndTx(t)
	smock.ExpectCommit()

	m.db.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(mockedTx, nil).Once()
	m.reviews.On("GetByID", ctx, mockedTx, int64(9), int64(42)).Return(review, nil).Once()
	m.reviews.On("Delete", ctx, mockedTx, int64(9)).Return(nil).Once()

	require.NoError(t, svc.DeleteReview(ctx, actor, 42, 9))
}
