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

const reviewColumns = "id, review_request_id, user_id, public, ship_it, body_top, " +
	"body_bottom, base_reply_to_id, body_top_reply_to_id, body_bottom_reply_to_id, timestamp"

type ReviewRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewReviewRepository(db *sqlx.DB, log *slog.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetOrCreatePending returns the author's private review for the given base
// reply-to, creating an empty one if none exists. The unique index over
// (review_request_id, user_id, base_reply_to_id) on private rows makes the
// insert race-safe; conflict losers fall through to the select.
func (r *ReviewRepository) GetOrCreatePending(ctx context.Context, tx *sqlx.Tx, reviewRequestID, userID int64, baseReplyTo *int64) (*domain.Review, bool, error) {
	const op = "internal.repository.postgres.ReviewRepository.GetOrCreatePending"

	query, args, err := r.sq.Insert("reviews").
		Columns("review_request_id", "user_id", "public", "ship_it",
			"body_top", "body_bottom", "base_reply_to_id").
		Values(reviewRequestID, userID, false, false, "", "", baseReplyTo).
		Suffix("ON CONFLICT DO NOTHING RETURNING " + reviewColumns).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	var review domain.Review

	err = tx.QueryRowxContext(ctx, query, args...).StructScan(&review)
	if err == nil {
		return &review, true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	existing, err := r.GetPending(ctx, tx, reviewRequestID, userID, baseReplyTo)
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to get existing review: %w", op, err)
	}

	return existing, false, nil
}

func (r *ReviewRepository) GetPending(ctx context.Context, ext sqlx.ExtContext, reviewRequestID, userID int64, baseReplyTo *int64) (*domain.Review, error) {
	const op = "internal.repository.postgres.ReviewRepository.GetPending"

	query, args, err := r.sq.Select(reviewColumns).
		From("reviews").
		Where(sq.Eq{
			"review_request_id": reviewRequestID,
			"user_id":           userID,
			"base_reply_to_id":  baseReplyTo,
			"public":            false,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var review domain.Review
	if err := sqlx.GetContext(ctx, ext, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: pending review for user %d", op, apperrors.ErrNotFound, userID)
		}

		return nil, fmt.Errorf("%s: failed to get pending review: %w", op, err)
	}

	return &review, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Review, error) {
	const op = "internal.repository.postgres.ReviewRepository.GetByID"

	query, args, err := r.sq.Select(reviewColumns).
		From("reviews").
		Where(sq.Eq{"id": id, "review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var review domain.Review
	if err := sqlx.GetContext(ctx, ext, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: review with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get review: %w", op, err)
	}

	return &review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	const op = "internal.repository.postgres.ReviewRepository.Update"

	query, args, err := r.sq.Update("reviews").
		Set("ship_it", review.ShipIt).
		Set("body_top", review.BodyTop).
		Set("body_bottom", review.BodyBottom).
		Set("body_top_reply_to_id", review.BodyTopReplyTo).
		Set("body_bottom_reply_to_id", review.BodyBotReplyTo).
		Where(sq.Eq{"id": review.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: review with id %d", op, apperrors.ErrNotFound, review.ID)
	}

	return nil
}

func (r *ReviewRepository) MarkPublic(ctx context.Context, tx *sqlx.Tx, id int64) error {
	const op = "internal.repository.postgres.ReviewRepository.MarkPublic"

	query, args, err := r.sq.Update("reviews").
		Set("public", true).
		Set("timestamp", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: review with id %d", op, apperrors.ErrNotFound, id)
	}

	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	const op = "internal.repository.postgres.ReviewRepository.Delete"

	query, args, err := r.sq.Delete("reviews").
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
		return fmt.Errorf("%s: %w: review with id %d", op, apperrors.ErrNotFound, id)
	}

	return nil
}

func (r *ReviewRepository) ListPublic(ctx context.Context, reviewRequestID int64, baseReplyTo *int64) ([]domain.Review, error) {
	const op = "internal.repository.postgres.ReviewRepository.ListPublic"

	query, args, err := r.sq.Select(reviewColumns).
		From("reviews").
		Where(sq.Eq{
			"review_request_id": reviewRequestID,
			"base_reply_to_id":  baseReplyTo,
			"public":            true,
		}).
		OrderBy("timestamp").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var reviews []domain.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return reviews, nil
}
