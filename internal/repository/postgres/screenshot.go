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
	"github.com/jmoiron/sqlx"
)

const screenshotColumns = "id, review_request_id, caption, draft_caption, image_path"

type ScreenshotRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewScreenshotRepository(db *sqlx.DB, log *slog.Logger) *ScreenshotRepository {
	return &ScreenshotRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ScreenshotRepository) Get(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Screenshot, error) {
	const op = "internal.repository.postgres.ScreenshotRepository.Get"

	query, args, err := r.sq.Select(screenshotColumns).
		From("screenshots").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var s domain.Screenshot
	if err := sqlx.GetContext(ctx, ext, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: screenshot with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get screenshot: %w", op, err)
	}

	return &s, nil
}

func (r *ScreenshotRepository) GetInRequest(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Screenshot, error) {
	const op = "internal.repository.postgres.ScreenshotRepository.GetInRequest"

	query, args, err := r.sq.Select(screenshotColumns).
		From("screenshots").
		Where(sq.Eq{"id": id, "review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var s domain.Screenshot
	if err := sqlx.GetContext(ctx, ext, &s, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: screenshot with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get screenshot: %w", op, err)
	}

	return &s, nil
}

func (r *ScreenshotRepository) Create(ctx context.Context, tx *sqlx.Tx, s *domain.Screenshot) error {
	const op = "internal.repository.postgres.ScreenshotRepository.Create"

	query, args, err := r.sq.Insert("screenshots").
		Columns("review_request_id", "caption", "draft_caption", "image_path").
		Values(s.ReviewRequestID, s.Caption, s.DraftCaption, s.ImagePath).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&s.ID); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ScreenshotRepository) Save(ctx context.Context, tx *sqlx.Tx, s *domain.Screenshot) error {
	const op = "internal.repository.postgres.ScreenshotRepository.Save"

	query, args, err := r.sq.Update("screenshots").
		Set("caption", s.Caption).
		Set("draft_caption", s.DraftCaption).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: screenshot with id %d", op, apperrors.ErrNotFound, s.ID)
	}

	return nil
}

func (r *ScreenshotRepository) ListByRequest(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64) ([]domain.Screenshot, error) {
	const op = "internal.repository.postgres.ScreenshotRepository.ListByRequest"

	query, args, err := r.sq.Select(screenshotColumns).
		From("screenshots").
		Where(sq.Eq{"review_request_id": reviewRequestID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var shots []domain.Screenshot
	if err := sqlx.SelectContext(ctx, ext, &shots, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return shots, nil
}
