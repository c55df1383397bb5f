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
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const reviewRequestColumns = "id, submitter_id, repository_id, change_num, status, public, " +
	"summary, description, testing_done, bugs_closed, branch, time_added, last_updated"

type ReviewRequestRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewReviewRequestRepository(db *sqlx.DB, log *slog.Logger) *ReviewRequestRepository {
	return &ReviewRequestRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ReviewRequestRepository) Create(ctx context.Context, tx *sqlx.Tx, rr *domain.ReviewRequest) error {
	const op = "internal.repository.postgres.ReviewRequestRepository.Create"

	query, args, err := r.sq.Insert("review_requests").
		Columns("submitter_id", "repository_id", "change_num", "status", "public",
			"summary", "description", "testing_done", "bugs_closed", "branch").
		Values(rr.SubmitterID, rr.RepositoryID, rr.ChangeNum, rr.Status, rr.Public,
			rr.Summary, rr.Description, rr.TestingDone, rr.BugsClosed, rr.Branch).
		Suffix("RETURNING id, time_added, last_updated").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	err = tx.QueryRowxContext(ctx, query, args...).Scan(&rr.ID, &rr.TimeAdded, &rr.LastUpdated)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" && rr.ChangeNum != nil {
			return r.changeNumberConflict(ctx, tx, rr.RepositoryID, *rr.ChangeNum)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

// changeNumberConflict looks up the review request holding the change number
// so the caller can report which one is in the way. The lookup runs on the
// connection, not the aborted transaction.
func (r *ReviewRequestRepository) changeNumberConflict(ctx context.Context, _ *sqlx.Tx, repositoryID, changeNum int64) error {
	query, args, err := r.sq.Select("id").
		From("review_requests").
		Where(sq.Eq{"repository_id": repositoryID, "change_num": changeNum}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build conflict lookup query: %w", err)
	}

	var holderID int64
	if err := r.db.GetContext(ctx, &holderID, query, args...); err != nil {
		holderID = 0
	}

	return &apperrors.ChangeNumberInUseError{ChangeNum: changeNum, ReviewRequestID: holderID}
}

func (r *ReviewRequestRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.ReviewRequest, error) {
	const op = "internal.repository.postgres.ReviewRequestRepository.GetByID"

	query, args, err := r.sq.Select(reviewRequestColumns).
		From("review_requests").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rr domain.ReviewRequest
	if err := sqlx.GetContext(ctx, ext, &rr, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: review request with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get review request: %w", op, err)
	}

	return &rr, nil
}

func (r *ReviewRequestRepository) GetByIDWithLock(ctx context.Context, tx *sqlx.Tx, id int64) (*domain.ReviewRequest, error) {
	const op = "internal.repository.postgres.ReviewRequestRepository.GetByIDWithLock"

	query, args, err := r.sq.Select(reviewRequestColumns).
		From("review_requests").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rr domain.ReviewRequest
	if err := tx.GetContext(ctx, &rr, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: review request with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get review request with lock: %w", op, err)
	}

	return &rr, nil
}

func (r *ReviewRequestRepository) Update(ctx context.Context, tx *sqlx.Tx, rr *domain.ReviewRequest) error {
	const op = "internal.repository.postgres.ReviewRequestRepository.Update"

	query, args, err := r.sq.Update("review_requests").
		Set("change_num", rr.ChangeNum).
		Set("status", rr.Status).
		Set("public", rr.Public).
		Set("summary", rr.Summary).
		Set("description", rr.Description).
		Set("testing_done", rr.TestingDone).
		Set("bugs_closed", rr.BugsClosed).
		Set("branch", rr.Branch).
		Set("last_updated", time.Now().UTC()).
		Where(sq.Eq{"id": rr.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: review request with id %d", op, apperrors.ErrNotFound, rr.ID)
	}

	return nil
}

func (r *ReviewRequestRepository) ReplaceTargets(ctx context.Context, tx *sqlx.Tx, rrID int64, groupIDs, userIDs []int64) error {
	const op = "internal.repository.postgres.ReviewRequestRepository.ReplaceTargets"

	if err := replaceJoinRows(ctx, tx, r.sq, "review_request_target_groups", "review_request_id", rrID, "group_id", groupIDs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := replaceJoinRows(ctx, tx, r.sq, "review_request_target_people", "review_request_id", rrID, "user_id", userIDs); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *ReviewRequestRepository) GetTargets(ctx context.Context, ext sqlx.ExtContext, rrID int64) ([]domain.Group, []domain.User, error) {
	const op = "internal.repository.postgres.ReviewRequestRepository.GetTargets"

	groups, people, err := loadTargets(ctx, ext, r.sq,
		"review_request_target_groups", "review_request_target_people", "review_request_id", rrID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return groups, people, nil
}

func (r *ReviewRequestRepository) List(ctx context.Context, f repository.ReviewRequestFilter) ([]domain.ReviewRequest, error) {
	const op = "internal.repository.postgres.ReviewRequestRepository.List"

	pred, err := buildReviewRequestFilter(f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build filter: %w", op, err)
	}

	cols := "rr.id, rr.submitter_id, rr.repository_id, rr.change_num, rr.status, rr.public, " +
		"rr.summary, rr.description, rr.testing_done, rr.bugs_closed, rr.branch, rr.time_added, rr.last_updated"

	query, args, err := r.sq.Select(cols).
		From("review_requests rr").
		Where(pred).
		OrderBy("rr.last_updated DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rrs []domain.ReviewRequest
	if err := r.db.SelectContext(ctx, &rrs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return rrs, nil
}

func (r *ReviewRequestRepository) RecordChangeDescription(ctx context.Context, tx *sqlx.Tx, rrID int64, text string) error {
	const op = "internal.repository.postgres.ReviewRequestRepository.RecordChangeDescription"

	query, args, err := r.sq.Insert("change_descriptions").
		Columns("review_request_id", "text").
		Values(rrID, text).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *ReviewRequestRepository) Delete(ctx context.Context, tx *sqlx.Tx, id int64) error {
	const op = "internal.repository.postgres.ReviewRequestRepository.Delete"

	query, args, err := r.sq.Delete("review_requests").
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
		return fmt.Errorf("%s: %w: review request with id %d", op, apperrors.ErrNotFound, id)
	}

	return nil
}

// replaceJoinRows clears and refills a (owner, member) join table, giving
// wholesale clear-then-add semantics for target sets.
func replaceJoinRows(ctx context.Context, tx *sqlx.Tx, builder sq.StatementBuilderType,
	table, ownerCol string, ownerID int64, memberCol string, memberIDs []int64) error {

	deleteQuery, deleteArgs, err := builder.Delete(table).
		Where(sq.Eq{ownerCol: ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query for %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	if len(memberIDs) == 0 {
		return nil
	}

	insertBuilder := builder.Insert(table).Columns(ownerCol, memberCol)
	for _, memberID := range memberIDs {
		insertBuilder = insertBuilder.Values(ownerID, memberID)
	}

	insertQuery, insertArgs, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query for %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return fmt.Errorf("failed to fill %s: %w", table, err)
	}

	return nil
}

// loadTargets loads the group and people target sets through the given join
// tables.
func loadTargets(ctx context.Context, ext sqlx.ExtContext, builder sq.StatementBuilderType,
	groupTable, peopleTable, ownerCol string, ownerID int64) ([]domain.Group, []domain.User, error) {

	groupQuery, groupArgs, err := builder.
		Select("g.id", "g.name", "g.display_name", "g.mailing_list").
		From(groupTable+" tg").
		Join("groups g ON g.id = tg.group_id").
		Where(sq.Eq{"tg." + ownerCol: ownerID}).
		OrderBy("g.name").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build group targets query: %w", err)
	}

	var groups []domain.Group
	if err := sqlx.SelectContext(ctx, ext, &groups, groupQuery, groupArgs...); err != nil {
		return nil, nil, fmt.Errorf("failed to select group targets: %w", err)
	}

	peopleQuery, peopleArgs, err := builder.
		Select("u.id", "u.username", "u.email", "u.is_superuser", "u.can_submit_as",
			"u.can_delete_request", "u.local_site_admin").
		From(peopleTable+" tp").
		Join("users u ON u.id = tp.user_id").
		Where(sq.Eq{"tp." + ownerCol: ownerID}).
		OrderBy("u.username").
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build people targets query: %w", err)
	}

	var people []domain.User
	if err := sqlx.SelectContext(ctx, ext, &people, peopleQuery, peopleArgs...); err != nil {
		return nil, nil, fmt.Errorf("failed to select people targets: %w", err)
	}

	return groups, people, nil
}
