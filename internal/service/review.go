package service

import (
	"context"
	"log/slog"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/permissions"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/akulikov/review-request-service/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

// ReviewUpdate carries the caller-supplied review fields. Nil means "leave
// unchanged"; an empty string is a valid explicit value.
type ReviewUpdate struct {
	ShipIt     *bool
	BodyTop    *string
	BodyBottom *string
}

type ReviewService interface {
	// GetOrCreateReview returns the actor's private top-level review for the
	// review request, creating an empty one when absent. The boolean reports
	// whether a review was created (as opposed to redirected to the
	// existing one).
	GetOrCreateReview(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Review, bool, error)

	// GetOrCreateReply does the same for the actor's private reply to the
	// given published review.
	GetOrCreateReply(ctx context.Context, actor *domain.User, reviewRequestID, baseReviewID int64) (*domain.Review, bool, error)

	GetReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) (*domain.Review, error)

	GetPendingReview(ctx context.Context, actor *domain.User, reviewRequestID int64, baseReviewID *int64) (*domain.Review, error)

	UpdateReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, upd ReviewUpdate) (*domain.Review, error)

	// PublishReview irreversibly makes the review public.
	PublishReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) (*domain.Review, error)

	DeleteReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) error

	ListReviews(ctx context.Context, actor *domain.User, reviewRequestID int64) ([]domain.Review, error)

	ListReplies(ctx context.Context, actor *domain.User, reviewRequestID, baseReviewID int64) ([]domain.Review, error)
}

type ReviewServiceImpl struct {
	BaseService
	requests      repository.ReviewRequestRepository
	reviews       repository.ReviewRepository
	access        AccessChecker
	notifications NotificationDispatcher
}

func NewReviewService(
	base BaseService,
	requests repository.ReviewRequestRepository,
	reviews repository.ReviewRepository,
	access AccessChecker,
	notifications NotificationDispatcher,
) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		BaseService:   base,
		requests:      requests,
		reviews:       reviews,
		access:        access,
		notifications: notifications,
	}
}

func (s *ReviewServiceImpl) GetOrCreateReview(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Review, bool, error) {
	return s.getOrCreate(ctx, actor, reviewRequestID, nil)
}

func (s *ReviewServiceImpl) GetOrCreateReply(ctx context.Context, actor *domain.User, reviewRequestID, baseReviewID int64) (*domain.Review, bool, error) {
	return s.getOrCreate(ctx, actor, reviewRequestID, &baseReviewID)
}

func (s *ReviewServiceImpl) getOrCreate(ctx context.Context, actor *domain.User, reviewRequestID int64, baseReplyTo *int64) (*domain.Review, bool, error) {
	const op = "internal.service.review.getOrCreate"

	if actor == nil {
		return nil, false, apperrors.ErrPermissionDenied
	}

	if err := s.checkReadable(ctx, s.db, actor, reviewRequestID); err != nil {
		return nil, false, err
	}

	var (
		review  *domain.Review
		created bool
	)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		if baseReplyTo != nil {
			// The base review must exist in this request. It may still be a
			// draft; a reply created against it stays private until it is
			// published on its own.
			if _, err := s.reviews.GetByID(ctx, tx, *baseReplyTo, reviewRequestID); err != nil {
				return err
			}
		}

		var err error

		review, created, err = s.reviews.GetOrCreatePending(ctx, tx, reviewRequestID, actor.ID, baseReplyTo)

		return err
	})
	if err != nil {
		return nil, false, err
	}

	return review, created, nil
}

func (s *ReviewServiceImpl) GetReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) (*domain.Review, error) {
	if err := s.checkReadable(ctx, s.db, actor, reviewRequestID); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, s.db, reviewID, reviewRequestID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanReadReview(actor, review) {
		return nil, apperrors.ErrPermissionDenied
	}

	return review, nil
}

func (s *ReviewServiceImpl) GetPendingReview(ctx context.Context, actor *domain.User, reviewRequestID int64, baseReviewID *int64) (*domain.Review, error) {
	if actor == nil {
		return nil, apperrors.ErrPermissionDenied
	}

	if err := s.checkReadable(ctx, s.db, actor, reviewRequestID); err != nil {
		return nil, err
	}

	return s.reviews.GetPending(ctx, s.db, reviewRequestID, actor.ID, baseReviewID)
}

func (s *ReviewServiceImpl) UpdateReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, upd ReviewUpdate) (*domain.Review, error) {
	const op = "internal.service.review.UpdateReview"

	var review *domain.Review

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		review, err = s.reviews.GetByID(ctx, tx, reviewID, reviewRequestID)
		if err != nil {
			return err
		}

		if !permissions.CanModifyReview(actor, review) {
			return apperrors.ErrPermissionDenied
		}

		applyReviewUpdate(review, upd)

		return s.reviews.Update(ctx, tx, review)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// applyReviewUpdate folds the provided fields into the review. On a reply,
// setting a body to a non-empty value points the matching reply-to-origin
// pointer at the review being replied to; emptying the body clears it.
func applyReviewUpdate(review *domain.Review, upd ReviewUpdate) {
	if upd.ShipIt != nil {
		review.ShipIt = *upd.ShipIt
	}

	if upd.BodyTop != nil {
		review.BodyTop = *upd.BodyTop

		if review.IsReply() {
			if *upd.BodyTop == "" {
				review.BodyTopReplyTo = nil
			} else {
				review.BodyTopReplyTo = review.BaseReplyToID
			}
		}
	}

	if upd.BodyBottom != nil {
		review.BodyBottom = *upd.BodyBottom

		if review.IsReply() {
			if *upd.BodyBottom == "" {
				review.BodyBotReplyTo = nil
			} else {
				review.BodyBotReplyTo = review.BaseReplyToID
			}
		}
	}
}

func (s *ReviewServiceImpl) PublishReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) (*domain.Review, error) {
	const op = "internal.service.review.PublishReview"
	log := s.log.With(slog.String("op", op), slog.Int64("review_id", reviewID))

	var review *domain.Review

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		review, err = s.reviews.GetByID(ctx, tx, reviewID, reviewRequestID)
		if err != nil {
			return err
		}

		// Publishing twice is a workflow error, same as any other mutation
		// of a published review.
		if !permissions.CanModifyReview(actor, review) {
			return apperrors.ErrPermissionDenied
		}

		if err := s.reviews.MarkPublic(ctx, tx, review.ID); err != nil {
			return err
		}

		review.Public = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("review published")

	if s.notifications != nil {
		if err := s.notifications.ReviewPublished(ctx, review); err != nil {
			log.Error("failed to dispatch publish notification", sl.Err(err))
		}
	}

	return review, nil
}

func (s *ReviewServiceImpl) DeleteReview(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64) error {
	const op = "internal.service.review.DeleteReview"

	return s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		review, err := s.reviews.GetByID(ctx, tx, reviewID, reviewRequestID)
		if err != nil {
			return err
		}

		if !permissions.CanModifyReview(actor, review) {
			return apperrors.ErrPermissionDenied
		}

		return s.reviews.Delete(ctx, tx, review.ID)
	})
}

func (s *ReviewServiceImpl) ListReviews(ctx context.Context, actor *domain.User, reviewRequestID int64) ([]domain.Review, error) {
	if err := s.checkReadable(ctx, s.db, actor, reviewRequestID); err != nil {
		return nil, err
	}

	return s.reviews.ListPublic(ctx, reviewRequestID, nil)
}

func (s *ReviewServiceImpl) ListReplies(ctx context.Context, actor *domain.User, reviewRequestID, baseReviewID int64) ([]domain.Review, error) {
	if err := s.checkReadable(ctx, s.db, actor, reviewRequestID); err != nil {
		return nil, err
	}

	return s.reviews.ListPublic(ctx, reviewRequestID, &baseReviewID)
}

func (s *ReviewServiceImpl) checkReadable(ctx context.Context, ext sqlx.ExtContext, actor *domain.User, reviewRequestID int64) error {
	rr, err := s.requests.GetByID(ctx, ext, reviewRequestID)
	if err != nil {
		return err
	}

	if !permissions.CanReadReviewRequest(actor, rr) {
		if s.access == nil || !s.access.IsAccessibleBy(ctx, rr, actor) {
			return apperrors.ErrPermissionDenied
		}
	}

	return nil
}
