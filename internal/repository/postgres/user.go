package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/jmoiron/sqlx"
)

const userColumns = "id, username, email, is_superuser, can_submit_as, can_delete_request, local_site_admin"

type UserRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewUserRepository(db *sqlx.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepository) GetByUsername(ctx context.Context, ext sqlx.ExtContext, username string) (*domain.User, error) {
	const op = "internal.repository.postgres.UserRepository.GetByUsername"

	query, args, err := r.sq.Select(userColumns).
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var user domain.User
	if err := sqlx.GetContext(ctx, ext, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: user %q", op, apperrors.ErrNotFound, username)
		}

		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.User, error) {
	const op = "internal.repository.postgres.UserRepository.GetByID"

	query, args, err := r.sq.Select(userColumns).
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var user domain.User
	if err := sqlx.GetContext(ctx, ext, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: user with id %d", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, ext sqlx.ExtContext, user *domain.User) error {
	const op = "internal.repository.postgres.UserRepository.Create"

	query, args, err := r.sq.Insert("users").
		Columns("username", "email", "is_superuser", "can_submit_as",
			"can_delete_request", "local_site_admin").
		Values(user.Username, user.Email, user.IsSuperuser, user.CanSubmitAs,
			user.CanDeleteRequest, user.LocalSiteAdmin).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := ext.QueryRowxContext(ctx, query, args...).Scan(&user.ID); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

// GetGroupByName matches a group on its short name or display name, ignoring
// case.
func (r *UserRepository) GetGroupByName(ctx context.Context, ext sqlx.ExtContext, name string) (*domain.Group, error) {
	const op = "internal.repository.postgres.UserRepository.GetGroupByName"

	query, args, err := r.sq.Select("id, name, display_name, mailing_list").
		From("groups").
		Where(sq.Or{
			sq.Expr("LOWER(name) = LOWER(?)", name),
			sq.Expr("LOWER(display_name) = LOWER(?)", name),
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var group domain.Group
	if err := sqlx.GetContext(ctx, ext, &group, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: group %q", op, apperrors.ErrNotFound, name)
		}

		return nil, fmt.Errorf("%s: failed to get group: %w", op, err)
	}

	return &group, nil
}

// GetRepository resolves a repository reference, which callers may pass as a
// numeric ID or as a checkout path.
func (r *UserRepository) GetRepository(ctx context.Context, ext sqlx.ExtContext, idOrPath string) (*domain.Repository, error) {
	const op = "internal.repository.postgres.UserRepository.GetRepository"

	var where sq.Sqlizer
	if id, err := strconv.ParseInt(idOrPath, 10, 64); err == nil {
		where = sq.Eq{"id": id}
	} else {
		where = sq.Or{
			sq.Eq{"path": idOrPath},
			sq.Eq{"mirror_path": idOrPath},
		}
	}

	query, args, err := r.sq.Select("id, name, path, mirror_path, visible").
		From("repositories").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var repo domain.Repository
	if err := sqlx.GetContext(ctx, ext, &repo, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: repository %q", op, apperrors.ErrNotFound, idOrPath)
		}

		return nil, fmt.Errorf("%s: failed to get repository: %w", op, err)
	}

	return &repo, nil
}
