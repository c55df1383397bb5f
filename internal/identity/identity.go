// package identity materializes user records for usernames that are not in
// the local store yet, the way a site fronted by an external auth layer sees
// accounts appear on first use.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/service"
)

// AutoProvisioner resolves any well-formed username into a fresh local user
// record. The upstream auth layer has already vouched for the name; the
// record it produces carries no privileges.
type AutoProvisioner struct {
	emailDomain string
}

var _ service.IdentityResolver = (*AutoProvisioner)(nil)

func NewAutoProvisioner(emailDomain string) *AutoProvisioner {
	return &AutoProvisioner{emailDomain: emailDomain}
}

func (p *AutoProvisioner) ResolveUser(_ context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("empty username: %w", apperrors.ErrNotFound)
	}

	return &domain.User{
		Username: username,
		Email:    username + "@" + p.emailDomain,
	}, nil
}
