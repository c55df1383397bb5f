package service

import (
	"context"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/permissions"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/jmoiron/sqlx"
)

// DiffCommentInput anchors a new diff comment to a line range of a file diff,
// optionally paired with an interdiff file diff.
type DiffCommentInput struct {
	FileDiffID      int64
	InterFileDiffID *int64
	FirstLine       int
	NumLines        int
	Text            string
}

// ScreenshotCommentInput anchors a new comment to a rectangular region of a
// screenshot.
type ScreenshotCommentInput struct {
	ScreenshotID int64
	X, Y, W, H   int
	Text         string
}

type CommentService interface {
	CreateDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, in DiffCommentInput) (*domain.Comment, error)

	// CreateDiffCommentReply copies the anchor fields of the original comment
	// onto a new comment under the actor's reply.
	CreateDiffCommentReply(ctx context.Context, actor *domain.User, reviewRequestID, replyID, replyToID int64, text string) (*domain.Comment, error)

	GetDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) (*domain.Comment, error)

	ListDiffComments(ctx context.Context, actor *domain.User, f repository.DiffCommentFilter) ([]domain.Comment, error)

	DeleteDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) error

	CreateScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, in ScreenshotCommentInput) (*domain.ScreenshotComment, error)

	CreateScreenshotCommentReply(ctx context.Context, actor *domain.User, reviewRequestID, replyID, replyToID int64, text string) (*domain.ScreenshotComment, error)

	GetScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) (*domain.ScreenshotComment, error)

	ListScreenshotComments(ctx context.Context, actor *domain.User, f repository.ScreenshotCommentFilter) ([]domain.ScreenshotComment, error)

	DeleteScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) error
}

type CommentServiceImpl struct {
	BaseService
	requests    repository.ReviewRequestRepository
	reviews     repository.ReviewRepository
	comments    repository.CommentRepository
	diffs       repository.DiffRepository
	screenshots repository.ScreenshotRepository
	access      AccessChecker
}

func NewCommentService(
	base BaseService,
	requests repository.ReviewRequestRepository,
	reviews repository.ReviewRepository,
	comments repository.CommentRepository,
	diffs repository.DiffRepository,
	screenshots repository.ScreenshotRepository,
	access AccessChecker,
) *CommentServiceImpl {
	return &CommentServiceImpl{
		BaseService: base,
		requests:    requests,
		reviews:     reviews,
		comments:    comments,
		diffs:       diffs,
		screenshots: screenshots,
		access:      access,
	}
}

func (s *CommentServiceImpl) CreateDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, in DiffCommentInput) (*domain.Comment, error) {
	var comment *domain.Comment

	err := s.transaction(ctx, "internal.service.comment.CreateDiffComment", func(tx *sqlx.Tx) error {
		if err := s.ownedPrivateReview(ctx, tx, actor, reviewRequestID, reviewID); err != nil {
			return err
		}

		fieldErrs := apperrors.FieldErrors{}

		if _, err := s.diffs.GetFileDiffInHistory(ctx, tx, in.FileDiffID, reviewRequestID); err != nil {
			fieldErrs.Add("filediff_id", "This file diff is not part of the review request's diff history")
		}

		if in.InterFileDiffID != nil {
			switch {
			case *in.InterFileDiffID == in.FileDiffID:
				fieldErrs.Add("interfilediff_id", "The interdiff file diff must differ from the file diff")
			default:
				if _, err := s.diffs.GetFileDiffInHistory(ctx, tx, *in.InterFileDiffID, reviewRequestID); err != nil {
					fieldErrs.Add("interfilediff_id", "This file diff is not part of the review request's diff history")
				}
			}
		}

		if !fieldErrs.Empty() {
			return fieldErrs
		}

		comment = &domain.Comment{
			ReviewID:        reviewID,
			FileDiffID:      in.FileDiffID,
			InterFileDiffID: in.InterFileDiffID,
			FirstLine:       in.FirstLine,
			NumLines:        in.NumLines,
			Text:            in.Text,
		}

		return s.comments.CreateDiff(ctx, tx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentServiceImpl) CreateDiffCommentReply(ctx context.Context, actor *domain.User, reviewRequestID, replyID, replyToID int64, text string) (*domain.Comment, error) {
	var comment *domain.Comment

	err := s.transaction(ctx, "internal.service.comment.CreateDiffCommentReply", func(tx *sqlx.Tx) error {
		if err := s.ownedPrivateReview(ctx, tx, actor, reviewRequestID, replyID); err != nil {
			return err
		}

		original, err := s.comments.GetDiff(ctx, tx, replyToID, reviewRequestID)
		if err != nil {
			fieldErrs := apperrors.FieldErrors{}
			fieldErrs.Add("reply_to_id", "The comment being replied to does not exist")

			return fieldErrs
		}

		// The anchor comes from the original; only the text is new.
		comment = &domain.Comment{
			ReviewID:        replyID,
			FileDiffID:      original.FileDiffID,
			InterFileDiffID: original.InterFileDiffID,
			ReplyToID:       &original.ID,
			FirstLine:       original.FirstLine,
			NumLines:        original.NumLines,
			Text:            text,
		}

		return s.comments.CreateDiff(ctx, tx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentServiceImpl) GetDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) (*domain.Comment, error) {
	if err := s.checkReadable(ctx, actor, reviewRequestID); err != nil {
		return nil, err
	}

	comment, err := s.comments.GetDiff(ctx, s.db, commentID, reviewRequestID)
	if err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, s.db, comment.ReviewID, reviewRequestID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanReadReview(actor, review) {
		return nil, apperrors.ErrPermissionDenied
	}

	return comment, nil
}

func (s *CommentServiceImpl) ListDiffComments(ctx context.Context, actor *domain.User, f repository.DiffCommentFilter) ([]domain.Comment, error) {
	if err := s.checkReadable(ctx, actor, f.ReviewRequestID); err != nil {
		return nil, err
	}

	f.Viewer = actor

	return s.comments.ListDiff(ctx, f)
}

func (s *CommentServiceImpl) DeleteDiffComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) error {
	return s.transaction(ctx, "internal.service.comment.DeleteDiffComment", func(tx *sqlx.Tx) error {
		comment, err := s.comments.GetDiff(ctx, tx, commentID, reviewRequestID)
		if err != nil {
			return err
		}

		review, err := s.reviews.GetByID(ctx, tx, comment.ReviewID, reviewRequestID)
		if err != nil {
			return err
		}

		if !permissions.CanDeleteComment(actor, review) {
			return apperrors.ErrPermissionDenied
		}

		return s.comments.DeleteDiff(ctx, tx, comment.ID)
	})
}

func (s *CommentServiceImpl) CreateScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, reviewID int64, in ScreenshotCommentInput) (*domain.ScreenshotComment, error) {
	var comment *domain.ScreenshotComment

	err := s.transaction(ctx, "internal.service.comment.CreateScreenshotComment", func(tx *sqlx.Tx) error {
		if err := s.ownedPrivateReview(ctx, tx, actor, reviewRequestID, reviewID); err != nil {
			return err
		}

		if _, err := s.screenshots.GetInRequest(ctx, tx, in.ScreenshotID, reviewRequestID); err != nil {
			fieldErrs := apperrors.FieldErrors{}
			fieldErrs.Add("screenshot_id", "This screenshot does not belong to the review request")

			return fieldErrs
		}

		comment = &domain.ScreenshotComment{
			ReviewID:     reviewID,
			ScreenshotID: in.ScreenshotID,
			X:            in.X,
			Y:            in.Y,
			W:            in.W,
			H:            in.H,
			Text:         in.Text,
		}

		return s.comments.CreateScreenshot(ctx, tx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentServiceImpl) CreateScreenshotCommentReply(ctx context.Context, actor *domain.User, reviewRequestID, replyID, replyToID int64, text string) (*domain.ScreenshotComment, error) {
	var comment *domain.ScreenshotComment

	err := s.transaction(ctx, "internal.service.comment.CreateScreenshotCommentReply", func(tx *sqlx.Tx) error {
		if err := s.ownedPrivateReview(ctx, tx, actor, reviewRequestID, replyID); err != nil {
			return err
		}

		original, err := s.comments.GetScreenshot(ctx, tx, replyToID, reviewRequestID)
		if err != nil {
			fieldErrs := apperrors.FieldErrors{}
			fieldErrs.Add("reply_to_id", "The comment being replied to does not exist")

			return fieldErrs
		}

		comment = &domain.ScreenshotComment{
			ReviewID:     replyID,
			ScreenshotID: original.ScreenshotID,
			ReplyToID:    &original.ID,
			X:            original.X,
			Y:            original.Y,
			W:            original.W,
			H:            original.H,
			Text:         text,
		}

		return s.comments.CreateScreenshot(ctx, tx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (s *CommentServiceImpl) GetScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) (*domain.ScreenshotComment, error) {
	if err := s.checkReadable(ctx, actor, reviewRequestID); err != nil {
		return nil, err
	}

	comment, err := s.comments.GetScreenshot(ctx, s.db, commentID, reviewRequestID)
	if err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, s.db, comment.ReviewID, reviewRequestID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanReadReview(actor, review) {
		return nil, apperrors.ErrPermissionDenied
	}

	return comment, nil
}

func (s *CommentServiceImpl) ListScreenshotComments(ctx context.Context, actor *domain.User, f repository.ScreenshotCommentFilter) ([]domain.ScreenshotComment, error) {
	if err := s.checkReadable(ctx, actor, f.ReviewRequestID); err != nil {
		return nil, err
	}

	f.Viewer = actor

	return s.comments.ListScreenshot(ctx, f)
}

func (s *CommentServiceImpl) DeleteScreenshotComment(ctx context.Context, actor *domain.User, reviewRequestID, commentID int64) error {
	return s.transaction(ctx, "internal.service.comment.DeleteScreenshotComment", func(tx *sqlx.Tx) error {
		comment, err := s.comments.GetScreenshot(ctx, tx, commentID, reviewRequestID)
		if err != nil {
			return err
		}

		review, err := s.reviews.GetByID(ctx, tx, comment.ReviewID, reviewRequestID)
		if err != nil {
			return err
		}

		if !permissions.CanDeleteComment(actor, review) {
			return apperrors.ErrPermissionDenied
		}

		return s.comments.DeleteScreenshot(ctx, tx, comment.ID)
	})
}

// ownedPrivateReview verifies the review exists in the request and is a
// private draft belonging to the actor. Comments may only be attached through
// that path.
func (s *CommentServiceImpl) ownedPrivateReview(ctx context.Context, tx *sqlx.Tx, actor *domain.User, reviewRequestID, reviewID int64) error {
	review, err := s.reviews.GetByID(ctx, tx, reviewID, reviewRequestID)
	if err != nil {
		return err
	}

	if !permissions.CanModifyReview(actor, review) {
		return apperrors.ErrPermissionDenied
	}

	return nil
}

func (s *CommentServiceImpl) checkReadable(ctx context.Context, actor *domain.User, reviewRequestID int64) error {
	rr, err := s.requests.GetByID(ctx, s.db, reviewRequestID)
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
