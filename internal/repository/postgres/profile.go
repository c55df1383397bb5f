package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// ProfileRepository keeps per-user starred sets. Star and unstar are
// idempotent: repeated stars hit the primary key and are ignored, repeated
// unstars delete nothing.
type ProfileRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewProfileRepository(db *sqlx.DB, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProfileRepository) StarReviewRequest(ctx context.Context, userID, reviewRequestID int64) error {
	const op = "internal.repository.postgres.ProfileRepository.StarReviewRequest"

	return r.star(ctx, op, "profile_starred_requests", "review_request_id", userID, reviewRequestID)
}

func (r *ProfileRepository) UnstarReviewRequest(ctx context.Context, userID, reviewRequestID int64) error {
	const op = "internal.repository.postgres.ProfileRepository.UnstarReviewRequest"

	return r.unstar(ctx, op, "profile_starred_requests", "review_request_id", userID, reviewRequestID)
}

func (r *ProfileRepository) StarGroup(ctx context.Context, userID, groupID int64) error {
	const op = "internal.repository.postgres.ProfileRepository.StarGroup"

	return r.star(ctx, op, "profile_starred_groups", "group_id", userID, groupID)
}

func (r *ProfileRepository) UnstarGroup(ctx context.Context, userID, groupID int64) error {
	const op = "internal.repository.postgres.ProfileRepository.UnstarGroup"

	return r.unstar(ctx, op, "profile_starred_groups", "group_id", userID, groupID)
}

func (r *ProfileRepository) star(ctx context.Context, op, table, itemCol string, userID, itemID int64) error {
	query, args, err := r.sq.Insert(table).
		Columns("user_id", itemCol).
		Values(userID, itemID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ProfileRepository) unstar(ctx context.Context, op, table, itemCol string, userID, itemID int64) error {
	query, args, err := r.sq.Delete(table).
		Where(sq.Eq{"user_id": userID, itemCol: itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	return nil
}
