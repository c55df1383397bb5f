package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/jmoiron/sqlx"
)

const draftColumns = "id, review_request_id, summary, description, testing_done, " +
	"bugs_closed, branch, change_description, diffset_id, last_updated"

type DraftRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewDraftRepository(db *sqlx.DB, log *slog.Logger) *DraftRepository {
	return &DraftRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetOrCreate returns the review request's draft, inserting seed if none
// exists. The unique index on review_request_id plus ON CONFLICT DO NOTHING
// keeps the draft a singleton under concurrent calls: losers of the insert
// race fall through to the select.
func (r *DraftRepository) GetOrCreate(ctx context.Context, tx *sqlx.Tx, seed *domain.Draft) (*domain.Draft, bool, error) {
	const op = "internal.repository.postgres.DraftRepository.GetOrCreate"

	query, args, err := r.sq.Insert("drafts").
		Columns("review_request_id", "summary", "description", "testing_done",
			"bugs_closed", "branch", "change_description", "diffset_id").
		Values(seed.ReviewRequestID, seed.Summary, seed.Description, seed.TestingDone,
			seed.BugsClosed, seed.Branch, seed.ChangeDesc, seed.DiffSetID).
		Suffix("ON CONFLICT (review_request_id) DO NOTHING RETURNING " + draftColumns).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	var draft domain.Draft

	err = tx.QueryRowxContext(ctx, query, args...).StructScan(&draft)
	if err == nil {
		return &draft, true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	existing, err := r.Get(ctx, tx, seed.ReviewRequestID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to get existing draft: %w", op, err)
	}

	return existing, false, nil
}

func (r *DraftRepository) Get(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64) (*domain.Draft, error) {
	const op = "internal.repository.postgres.DraftRepository.Get"

	query, args, err := r.sq.Select(draftColumns).
		From("drafts").
		Where(sq.Eq{"review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var draft domain.Draft
	if err := sqlx.GetContext(ctx, ext, &draft, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: draft for review request %d", op, apperrors.ErrNotFound, reviewRequestID)
		}

		return nil, fmt.Errorf("%s: failed to get draft: %w", op, err)
	}

	return &draft, nil
}

func (r *DraftRepository) Save(ctx context.Context, tx *sqlx.Tx, draft *domain.Draft) error {
	const op = "internal.repository.postgres.DraftRepository.Save"

	query, args, err := r.sq.Update("drafts").
		Set("summary", draft.Summary).
		Set("description", draft.Description).
		Set("testing_done", draft.TestingDone).
		Set("bugs_closed", draft.BugsClosed).
		Set("branch", draft.Branch).
		Set("change_description", draft.ChangeDesc).
		Set("diffset_id", draft.DiffSetID).
		Set("last_updated", time.Now().UTC()).
		Where(sq.Eq{"id": draft.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: draft with id %d", op, apperrors.ErrNotFound, draft.ID)
	}

	return nil
}

func (r *DraftRepository) ReplaceTargets(ctx context.Context, tx *sqlx.Tx, draftID int64, groupIDs, userIDs []int64) error {
	const op = "internal.repository.postgres.DraftRepository.ReplaceTargets"

	if err := replaceJoinRows(ctx, tx, r.sq, "draft_target_groups", "draft_id", draftID, "group_id", groupIDs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := replaceJoinRows(ctx, tx, r.sq, "draft_target_people", "draft_id", draftID, "user_id", userIDs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DraftRepository) GetTargets(ctx context.Context, ext sqlx.ExtContext, draftID int64) ([]domain.Group, []domain.User, error) {
	const op = "internal.repository.postgres.DraftRepository.GetTargets"

	groups, people, err := loadTargets(ctx, ext, r.sq,
		"draft_target_groups", "draft_target_people", "draft_id", draftID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return groups, people, nil
}

func (r *DraftRepository) Delete(ctx context.Context, tx *sqlx.Tx, draftID int64) error {
	const op = "internal.repository.postgres.DraftRepository.Delete"

	query, args, err := r.sq.Delete("drafts").
		Where(sq.Eq{"id": draftID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: draft with id %d", op, apperrors.ErrNotFound, draftID)
	}

	return nil
}
