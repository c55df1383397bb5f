// package service implements the workflow rules of the review request
// system: draft staging and publishing, review and reply lifecycles, comment
// threading and the review request state machine.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Database is what services need from the connection pool: transactions for
// write paths and a plain ExtContext for reads outside a transaction.
// *sqlx.DB satisfies it.
type Database interface {
	Transactor
	sqlx.ExtContext
}

// IdentityResolver materializes users that are not yet present in the local
// store, consulting one or more external directories. Lookups are a single
// bounded pass, not retried.
type IdentityResolver interface {
	ResolveUser(ctx context.Context, username string) (*domain.User, error)
}

// AccessChecker encapsulates site visibility rules beyond the local ones.
// Consulted only when the local read rules deny.
type AccessChecker interface {
	IsAccessibleBy(ctx context.Context, rr *domain.ReviewRequest, user *domain.User) bool
}

// NotificationDispatcher is invoked on publish events. Fire and forget: a
// dispatch failure is logged and never aborts the publish.
type NotificationDispatcher interface {
	ReviewRequestPublished(ctx context.Context, rr *domain.ReviewRequest) error
	ReviewPublished(ctx context.Context, review *domain.Review) error
}

// DiffIngester parses and validates raw uploaded diff bytes into a diff set.
// Failures map to apperrors.RepoFileNotFoundError, apperrors.ErrEmptyChangeSet
// or a plain parse error.
type DiffIngester interface {
	Ingest(ctx context.Context, diff, parentDiff []byte, repo *domain.Repository) (*domain.DiffSet, []domain.FileDiff, error)
}

// ScreenshotIngester stores raw image bytes and returns the path the image
// was written to.
type ScreenshotIngester interface {
	Ingest(ctx context.Context, image []byte) (string, error)
}

// ChangesetProvider looks up a change number in the repository's SCM. Used to
// prefill review request fields and to reject unknown or empty changesets.
type ChangesetProvider interface {
	GetChangeset(ctx context.Context, repo *domain.Repository, changeNum int64) (*Changeset, error)
}

// Changeset is the SCM-side description of a change number.
type Changeset struct {
	ChangeNum   int64
	Summary     string
	Description string
	TestingDone string
	Branch      string
	BugsClosed  []string
}

type BaseService struct {
	db  Database
	log *slog.Logger
}

func NewBaseService(db Database, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
	}
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
