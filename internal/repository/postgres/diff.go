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

const diffSetColumns = "id, name, revision, review_request_id, timestamp"

const fileDiffColumns = "id, diffset_id, source_file, dest_file, source_revision, dest_detail, diff"

type DiffRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewDiffRepository(db *sqlx.DB, log *slog.Logger) *DiffRepository {
	return &DiffRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *DiffRepository) CreateDiffSet(ctx context.Context, tx *sqlx.Tx, ds *domain.DiffSet, files []domain.FileDiff) error {
	const op = "internal.repository.postgres.DiffRepository.CreateDiffSet"

	query, args, err := r.sq.Insert("diffsets").
		Columns("name", "revision", "review_request_id").
		Values(ds.Name, ds.Revision, ds.ReviewRequestID).
		Suffix("RETURNING id, timestamp").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&ds.ID, &ds.Timestamp); err != nil {
		return fmt.Errorf("%s: failed to insert diffset: %w", op, err)
	}

	if len(files) == 0 {
		return nil
	}

	fileBuilder := r.sq.Insert("filediffs").
		Columns("diffset_id", "source_file", "dest_file", "source_revision", "dest_detail", "diff")
	for _, f := range files {
		fileBuilder = fileBuilder.Values(ds.ID, f.SourceFile, f.DestFile, f.SourceRevision, f.DestDetail, f.Diff)
	}

	fileQuery, fileArgs, err := fileBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build filediff insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, fileQuery, fileArgs...); err != nil {
		return fmt.Errorf("%s: failed to insert filediffs: %w", op, err)
	}

	return nil
}

func (r *DiffRepository) GetDiffSet(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64, revision int) (*domain.DiffSet, error) {
	const op = "internal.repository.postgres.DiffRepository.GetDiffSet"

	query, args, err := r.sq.Select(diffSetColumns).
		From("diffsets").
		Where(sq.Eq{"review_request_id": reviewRequestID, "revision": revision}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var ds domain.DiffSet
	if err := sqlx.GetContext(ctx, ext, &ds, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: diffset revision %d", op, apperrors.ErrNotFound, revision)
		}

		return nil, fmt.Errorf("%s: failed to get diffset: %w", op, err)
	}

	return &ds, nil
}

func (r *DiffRepository) ListDiffSets(ctx context.Context, reviewRequestID int64) ([]domain.DiffSet, error) {
	const op = "internal.repository.postgres.DiffRepository.ListDiffSets"

	query, args, err := r.sq.Select(diffSetColumns).
		From("diffsets").
		Where(sq.Eq{"review_request_id": reviewRequestID}).
		OrderBy("revision").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var sets []domain.DiffSet
	if err := r.db.SelectContext(ctx, &sets, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return sets, nil
}

// GetFileDiffInHistory fetches a file diff only if its diffset already
// belongs to the review request's history. Pending diffsets on a draft do not
// qualify.
func (r *DiffRepository) GetFileDiffInHistory(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.FileDiff, error) {
	const op = "internal.repository.postgres.DiffRepository.GetFileDiffInHistory"

	query, args, err := r.sq.Select("fd.id, fd.diffset_id, fd.source_file, fd.dest_file, "+
		"fd.source_revision, fd.dest_detail, fd.diff").
		From("filediffs fd").
		Join("diffsets ds ON ds.id = fd.diffset_id").
		Where(sq.Eq{"fd.id": id, "ds.review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var fd domain.FileDiff
	if err := sqlx.GetContext(ctx, ext, &fd, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: filediff with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get filediff: %w", op, err)
	}

	return &fd, nil
}

func (r *DiffRepository) ListFileDiffs(ctx context.Context, reviewRequestID int64, revision int) ([]domain.FileDiff, error) {
	const op = "internal.repository.postgres.DiffRepository.ListFileDiffs"

	query, args, err := r.sq.Select("fd.id, fd.diffset_id, fd.source_file, fd.dest_file, "+
		"fd.source_revision, fd.dest_detail, fd.diff").
		From("filediffs fd").
		Join("diffsets ds ON ds.id = fd.diffset_id").
		Where(sq.Eq{"ds.review_request_id": reviewRequestID, "ds.revision": revision}).
		OrderBy("fd.source_file").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var files []domain.FileDiff
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return files, nil
}

func (r *DiffRepository) NextRevision(ctx context.Context, tx *sqlx.Tx, reviewRequestID int64) (int, error) {
	const op = "internal.repository.postgres.DiffRepository.NextRevision"

	query, args, err := r.sq.Select("COALESCE(MAX(revision), 0) + 1").
		From("diffsets").
		Where(sq.Eq{"review_request_id": reviewRequestID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var next int
	if err := tx.GetContext(ctx, &next, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to get next revision: %w", op, err)
	}

	return next, nil
}

func (r *DiffRepository) AttachToHistory(ctx context.Context, tx *sqlx.Tx, diffSetID, reviewRequestID int64, revision int) error {
	const op = "internal.repository.postgres.DiffRepository.AttachToHistory"

	query, args, err := r.sq.Update("diffsets").
		Set("review_request_id", reviewRequestID).
		Set("revision", revision).
		Where(sq.Eq{"id": diffSetID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: diffset with id %d", op, apperrors.ErrNotFound, diffSetID)
	}

	return nil
}

func (r *DiffRepository) DeleteDiffSet(ctx context.Context, tx *sqlx.Tx, id int64) error {
	const op = "internal.repository.postgres.DiffRepository.DeleteDiffSet"

	query, args, err := r.sq.Delete("diffsets").
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
		return fmt.Errorf("%s: %w: diffset with id %d", op, apperrors.ErrNotFound, id)
	}

	return nil
}
