package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/jmoiron/sqlx"
)

const diffCommentColumns = "c.id, c.review_id, c.filediff_id, c.interfilediff_id, " +
	"c.reply_to_id, c.first_line, c.num_lines, c.text, c.timestamp"

const screenshotCommentColumns = "c.id, c.review_id, c.screenshot_id, c.reply_to_id, " +
	"c.x, c.y, c.w, c.h, c.text, c.timestamp"

type CommentRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewCommentRepository(db *sqlx.DB, log *slog.Logger) *CommentRepository {
	return &CommentRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *CommentRepository) CreateDiff(ctx context.Context, tx *sqlx.Tx, c *domain.Comment) error {
	const op = "internal.repository.postgres.CommentRepository.CreateDiff"

	query, args, err := r.sq.Insert("diff_comments").
		Columns("review_id", "filediff_id", "interfilediff_id", "reply_to_id",
			"first_line", "num_lines", "text").
		Values(c.ReviewID, c.FileDiffID, c.InterFileDiffID, c.ReplyToID,
			c.FirstLine, c.NumLines, c.Text).
		Suffix("RETURNING id, timestamp").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&c.ID, &c.Timestamp); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

// GetDiff fetches a diff comment, requiring its owning review to belong to
// the given review request.
func (r *CommentRepository) GetDiff(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Comment, error) {
	const op = "internal.repository.postgres.CommentRepository.GetDiff"

	query, args, err := r.sq.Select(diffCommentColumns).
		From("diff_comments c").
		Join("reviews rv ON rv.id = c.review_id").
		Where(sq.Eq{"c.id": id, "rv.review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var comment domain.Comment
	if err := sqlx.GetContext(ctx, ext, &comment, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: diff comment with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get diff comment: %w", op, err)
	}

	return &comment, nil
}

func (r *CommentRepository) ListDiff(ctx context.Context, f repository.DiffCommentFilter) ([]domain.Comment, error) {
	const op = "internal.repository.postgres.CommentRepository.ListDiff"

	builder := r.sq.Select(diffCommentColumns).
		From("diff_comments c").
		Join("reviews rv ON rv.id = c.review_id").
		Join("filediffs fd ON fd.id = c.filediff_id").
		Join("diffsets ds ON ds.id = fd.diffset_id").
		Where(sq.Eq{"rv.review_request_id": f.ReviewRequestID})

	if vis := commentVisibility(f.Viewer); vis != nil {
		builder = builder.Where(vis)
	}

	if f.ReviewID != nil {
		builder = builder.Where(sq.Eq{"c.review_id": *f.ReviewID})
	}

	if f.DiffRevision != nil {
		builder = builder.Where(sq.Eq{"ds.revision": *f.DiffRevision})
	}

	if f.InterdiffRevision != nil {
		builder = builder.
			Join("filediffs ifd ON ifd.id = c.interfilediff_id").
			Join("diffsets ids ON ids.id = ifd.diffset_id").
			Where(sq.Eq{"ids.revision": *f.InterdiffRevision})
	}

	if f.FirstLine != nil {
		builder = builder.Where(sq.Eq{"c.first_line": *f.FirstLine})
	}

	query, args, err := builder.OrderBy("c.timestamp").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var comments []domain.Comment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return comments, nil
}

func (r *CommentRepository) DeleteDiff(ctx context.Context, tx *sqlx.Tx, id int64) error {
	const op = "internal.repository.postgres.CommentRepository.DeleteDiff"

	return r.deleteComment(ctx, tx, op, "diff_comments", id)
}

func (r *CommentRepository) CreateScreenshot(ctx context.Context, tx *sqlx.Tx, c *domain.ScreenshotComment) error {
	const op = "internal.repository.postgres.CommentRepository.CreateScreenshot"

	query, args, err := r.sq.Insert("screenshot_comments").
		Columns("review_id", "screenshot_id", "reply_to_id", "x", "y", "w", "h", "text").
		Values(c.ReviewID, c.ScreenshotID, c.ReplyToID, c.X, c.Y, c.W, c.H, c.Text).
		Suffix("RETURNING id, timestamp").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&c.ID, &c.Timestamp); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *CommentRepository) GetScreenshot(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.ScreenshotComment, error) {
	const op = "internal.repository.postgres.CommentRepository.GetScreenshot"

	query, args, err := r.sq.Select(screenshotCommentColumns).
		From("screenshot_comments c").
		Join("reviews rv ON rv.id = c.review_id").
		Where(sq.Eq{"c.id": id, "rv.review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var comment domain.ScreenshotComment
	if err := sqlx.GetContext(ctx, ext, &comment, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: screenshot comment with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get screenshot comment: %w", op, err)
	}

	return &comment, nil
}

func (r *CommentRepository) ListScreenshot(ctx context.Context, f repository.ScreenshotCommentFilter) ([]domain.ScreenshotComment, error) {
	const op = "internal.repository.postgres.CommentRepository.ListScreenshot"

	builder := r.sq.Select(screenshotCommentColumns).
		From("screenshot_comments c").
		Join("reviews rv ON rv.id = c.review_id").
		Where(sq.Eq{"rv.review_request_id": f.ReviewRequestID})

	if vis := commentVisibility(f.Viewer); vis != nil {
		builder = builder.Where(vis)
	}

	if f.ReviewID != nil {
		builder = builder.Where(sq.Eq{"c.review_id": *f.ReviewID})
	}

	if f.ScreenshotID != nil {
		builder = builder.Where(sq.Eq{"c.screenshot_id": *f.ScreenshotID})
	}

	query, args, err := builder.OrderBy("c.timestamp").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var comments []domain.ScreenshotComment
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return comments, nil
}

func (r *CommentRepository) DeleteScreenshot(ctx context.Context, tx *sqlx.Tx, id int64) error {
	const op = "internal.repository.postgres.CommentRepository.DeleteScreenshot"

	return r.deleteComment(ctx, tx, op, "screenshot_comments", id)
}

func (r *CommentRepository) deleteComment(ctx context.Context, tx *sqlx.Tx, op, table string, id int64) error {
	query, args, err := r.sq.Delete(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: comment with id %d", op, apperrors.ErrNotFound, id)
	}

	return nil
}

// commentVisibility hides comments of other users' unpublished reviews.
func commentVisibility(viewer *domain.User) sq.Sqlizer {
	if viewer == nil {
		return sq.Eq{"rv.public": true}
	}

	if viewer.IsSuperuser || viewer.LocalSiteAdmin {
		return nil
	}

	return sq.Or{
		sq.Eq{"rv.public": true},
		sq.Eq{"rv.user_id": viewer.ID},
	}
}
