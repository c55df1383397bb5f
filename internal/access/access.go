// package access implements the site-level visibility checks consulted when
// the local read rules deny.
package access

import (
	"context"
	"strings"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/service"
)

// AdminChecker grants read access to the usernames configured as site
// administrators, regardless of who submitted the review request.
type AdminChecker struct {
	admins map[string]struct{}
}

var _ service.AccessChecker = (*AdminChecker)(nil)

// NewAdminChecker builds a checker from a comma-separated administrator list.
func NewAdminChecker(administrators string) *AdminChecker {
	admins := make(map[string]struct{})

	for _, name := range strings.Split(administrators, ",") {
		if name = strings.TrimSpace(name); name != "" {
			admins[name] = struct{}{}
		}
	}

	return &AdminChecker{admins: admins}
}

func (c *AdminChecker) IsAccessibleBy(_ context.Context, _ *domain.ReviewRequest, user *domain.User) bool {
	if user == nil {
		return false
	}

	_, ok := c.admins[user.Username]

	return ok
}
