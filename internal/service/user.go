package service

import (
	"context"
	"fmt"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
)

// UserService looks up acting identities for the transport layer.
type UserService interface {
	// Lookup retrieves a user by username.
	// Returns apperrors.ErrNotFound if absent.
	Lookup(ctx context.Context, username string) (*domain.User, error)
}

type UserServiceImpl struct {
	BaseService
	users repository.UserRepository
}

func NewUserService(base BaseService, users repository.UserRepository) *UserServiceImpl {
	return &UserServiceImpl{
		BaseService: base,
		users:       users,
	}
}

func (s *UserServiceImpl) Lookup(ctx context.Context, username string) (*domain.User, error) {
	const op = "internal.service.user.Lookup"

	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return user, nil
}
