package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/pkg/logger/sl"
)

const (
	actorHeader = "X-Username"
	actorKey    = contextKey("actor")
)

// resolveActor attaches the authenticated user to the request context.
// Authentication itself happens upstream; this layer trusts the username
// header it forwards. A missing header means an anonymous caller, which the
// services represent as a nil *domain.User.
func (s *Server) resolveActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get(actorHeader)
		if username == "" {
			if !s.site.AllowAnonymous {
				s.respondAPIError(w, http.StatusUnauthorized, codePermissionDenied, "anonymous access is disabled")
				return
			}

			next.ServeHTTP(w, r)

			return
		}

		user, err := s.userService.Lookup(r.Context(), username)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				s.respondAPIError(w, http.StatusUnauthorized, codePermissionDenied, "unknown user")
				return
			}

			s.log.Error("failed to resolve acting user", sl.Err(err))
			s.respondError(w, http.StatusInternalServerError, "internal server error")

			return
		}

		ctx := context.WithValue(r.Context(), actorKey, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFrom returns the acting user, or nil for anonymous callers.
func actorFrom(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(actorKey).(*domain.User); ok {
		return user
	}

	return nil
}
