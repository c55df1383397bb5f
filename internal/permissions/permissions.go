// package permissions contains the pure access rules for review request
// entities. All functions take the acting identity (nil for anonymous) and
// the target entity and return an allow/deny decision; callers must turn a
// deny into apperrors.ErrPermissionDenied, never a silent no-op.
//
// Site-scoped visibility rules not owned by this core are delegated to an
// external accessibility check consulted by the service layer when these
// local rules deny a read.
package permissions

import "github.com/akulikov/review-request-service/internal/domain"

// CanReadReviewRequest reports whether actor may see the review request:
// it is public, or actor is the submitter, or actor holds elevated
// privileges (superuser or local site admin).
func CanReadReviewRequest(actor *domain.User, rr *domain.ReviewRequest) bool {
	if rr.Public {
		return true
	}

	if actor == nil {
		return false
	}

	return actor.ID == rr.SubmitterID || actor.IsSuperuser || actor.LocalSiteAdmin
}

// CanModifyReviewRequest reports whether actor may mutate the review request
// through its draft. Only the submitter (or a superuser) may.
func CanModifyReviewRequest(actor *domain.User, rr *domain.ReviewRequest) bool {
	if actor == nil {
		return false
	}

	return actor.ID == rr.SubmitterID || actor.IsSuperuser
}

// CanDeleteReviewRequest requires an explicit deletion privilege; ownership
// alone is not enough.
func CanDeleteReviewRequest(actor *domain.User) bool {
	return actor != nil && (actor.CanDeleteRequest || actor.IsSuperuser)
}

// CanSubmitAs reports whether actor may create a review request on behalf of
// another user.
func CanSubmitAs(actor *domain.User) bool {
	return actor != nil && (actor.CanSubmitAs || actor.IsSuperuser)
}

// CanReadReview reports whether actor may see the review: published reviews
// are visible to anyone who can see the request, private drafts only to
// their author.
func CanReadReview(actor *domain.User, review *domain.Review) bool {
	if review.Public {
		return true
	}

	return actor != nil && actor.ID == review.UserID
}

// CanModifyReview reports whether actor may update or delete the review.
// Published reviews are immutable and undeletable through this path.
func CanModifyReview(actor *domain.User, review *domain.Review) bool {
	if review.Public {
		return false
	}

	return actor != nil && actor.ID == review.UserID
}

// CanDeleteComment delegates to the modify rule of the owning review.
func CanDeleteComment(actor *domain.User, owningReview *domain.Review) bool {
	return CanModifyReview(actor, owningReview)
}

// CanDeleteDraft reports whether actor may discard the draft, which requires
// the right to modify the parent review request.
func CanDeleteDraft(actor *domain.User, parent *domain.ReviewRequest) bool {
	return CanModifyReviewRequest(actor, parent)
}
