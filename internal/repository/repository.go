// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the
// service layer.
package repository

import (
	"context"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ReviewRequestFilter narrows a review request list query. Each criterion,
// when present, further restricts the result set; tokens within one
// multi-value criterion are combined with OR.
type ReviewRequestFilter struct {
	// ToGroups matches requests targeting any of the named groups.
	ToGroups []string
	// ToUsersDirectly matches requests targeting any of the named users in
	// their reviewer list specifically.
	ToUsersDirectly []string
	// ToUsersViaGroups matches requests targeting a group any of the named
	// users belongs to.
	ToUsersViaGroups []string
	// ToUsers matches requests targeting any of the named users directly or
	// by way of a group.
	ToUsers []string
	// FromUser matches requests submitted by the named user.
	FromUser string
	// RepositoryID matches requests on the given repository.
	RepositoryID *int64
	// ChangeNum matches requests with the given change number.
	ChangeNum *int64
	// Status restricts by lifecycle state; domain.StatusAll disables the
	// status criterion.
	Status domain.Status
	// Viewer limits results to requests visible to this identity (public
	// ones plus their own). Nil means anonymous.
	Viewer *domain.User
}

// DiffCommentFilter narrows a diff comment list query.
type DiffCommentFilter struct {
	ReviewRequestID int64
	// ReviewID, when set, restricts to comments of one review or reply.
	ReviewID *int64
	// DiffRevision restricts to comments on filediffs of the given revision.
	DiffRevision *int
	// InterdiffRevision restricts to interdiff comments whose second
	// filediff belongs to the given revision.
	InterdiffRevision *int
	// FirstLine restricts to comments starting at the given line.
	FirstLine *int
	// Viewer limits results to public comments plus the viewer's own.
	Viewer *domain.User
}

// ScreenshotCommentFilter narrows a screenshot comment list query.
type ScreenshotCommentFilter struct {
	ReviewRequestID int64
	ReviewID        *int64
	ScreenshotID    *int64
	Viewer          *domain.User
}

// ReviewRequestRepository is the store for review requests and their
// reviewer target sets.
type ReviewRequestRepository interface {
	// Create inserts a new review request. It returns
	// apperrors.ChangeNumberInUseError if the (repository, change number)
	// pair is already claimed.
	Create(ctx context.Context, tx *sqlx.Tx, rr *domain.ReviewRequest) error

	// GetByID retrieves a review request without its target sets.
	// Returns apperrors.ErrNotFound if absent.
	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.ReviewRequest, error)

	// GetByIDWithLock retrieves a review request and acquires a row-level
	// lock for the duration of the transaction.
	GetByIDWithLock(ctx context.Context, tx *sqlx.Tx, id int64) (*domain.ReviewRequest, error)

	// Update persists the mutable fields, status, public flag and
	// last_updated of the review request.
	Update(ctx context.Context, tx *sqlx.Tx, rr *domain.ReviewRequest) error

	// ReplaceTargets replaces the target group and target people sets
	// wholesale.
	ReplaceTargets(ctx context.Context, tx *sqlx.Tx, rrID int64, groupIDs, userIDs []int64) error

	// GetTargets loads the target group and target people sets.
	GetTargets(ctx context.Context, ext sqlx.ExtContext, rrID int64) ([]domain.Group, []domain.User, error)

	// List returns review requests matching the filter.
	List(ctx context.Context, f ReviewRequestFilter) ([]domain.ReviewRequest, error)

	// RecordChangeDescription appends a change description to the review
	// request's timeline.
	RecordChangeDescription(ctx context.Context, tx *sqlx.Tx, rrID int64, text string) error

	// Delete removes the review request and its dependents.
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error
}

// DraftRepository is the store for review request drafts. A draft is a
// singleton per review request, enforced by a unique constraint.
type DraftRepository interface {
	// GetOrCreate atomically returns the existing draft for the review
	// request or inserts seed as the new one. The boolean reports whether a
	// row was created.
	GetOrCreate(ctx context.Context, tx *sqlx.Tx, seed *domain.Draft) (*domain.Draft, bool, error)

	// Get retrieves the draft of a review request.
	// Returns apperrors.ErrNotFound if none exists.
	Get(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64) (*domain.Draft, error)

	// Save persists the draft's mutable fields.
	Save(ctx context.Context, tx *sqlx.Tx, draft *domain.Draft) error

	// ReplaceTargets replaces the draft's target sets wholesale.
	ReplaceTargets(ctx context.Context, tx *sqlx.Tx, draftID int64, groupIDs, userIDs []int64) error

	// GetTargets loads the draft's target sets.
	GetTargets(ctx context.Context, ext sqlx.ExtContext, draftID int64) ([]domain.Group, []domain.User, error)

	// Delete removes the draft.
	Delete(ctx context.Context, tx *sqlx.Tx, draftID int64) error
}

// ReviewRepository is the store for reviews and replies. At most one private
// review exists per (review request, user, base reply-to) key, enforced by a
// partial unique index.
type ReviewRepository interface {
	// GetOrCreatePending atomically returns the existing private review for
	// the key or creates one with empty body fields.
	GetOrCreatePending(ctx context.Context, tx *sqlx.Tx, reviewRequestID, userID int64, baseReplyTo *int64) (*domain.Review, bool, error)

	// GetPending retrieves the private review for the key.
	// Returns apperrors.ErrNotFound if none exists.
	GetPending(ctx context.Context, ext sqlx.ExtContext, reviewRequestID, userID int64, baseReplyTo *int64) (*domain.Review, error)

	// GetByID retrieves a review by its ID scoped to a review request.
	GetByID(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Review, error)

	// Update persists ship_it, body fields and reply-to-origin pointers.
	Update(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error

	// MarkPublic irreversibly publishes the review.
	MarkPublic(ctx context.Context, tx *sqlx.Tx, id int64) error

	// Delete removes a (private) review and its comments.
	Delete(ctx context.Context, tx *sqlx.Tx, id int64) error

	// ListPublic returns the published reviews of a review request with the
	// given base reply-to (nil for top-level reviews, an ID for replies).
	ListPublic(ctx context.Context, reviewRequestID int64, baseReplyTo *int64) ([]domain.Review, error)
}

// CommentRepository is the store for diff comments and screenshot comments.
type CommentRepository interface {
	CreateDiff(ctx context.Context, tx *sqlx.Tx, c *domain.Comment) error

	// GetDiff retrieves a diff comment scoped to a review request's diff
	// history. Returns apperrors.ErrNotFound if absent or out of scope.
	GetDiff(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Comment, error)

	ListDiff(ctx context.Context, f DiffCommentFilter) ([]domain.Comment, error)

	DeleteDiff(ctx context.Context, tx *sqlx.Tx, id int64) error

	CreateScreenshot(ctx context.Context, tx *sqlx.Tx, c *domain.ScreenshotComment) error

	// GetScreenshot retrieves a screenshot comment scoped to a review
	// request.
	GetScreenshot(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.ScreenshotComment, error)

	ListScreenshot(ctx context.Context, f ScreenshotCommentFilter) ([]domain.ScreenshotComment, error)

	DeleteScreenshot(ctx context.Context, tx *sqlx.Tx, id int64) error
}

// DiffRepository is the store for diff sets and per-file diffs.
type DiffRepository interface {
	// CreateDiffSet inserts a pending diff set and its file diffs. The diff
	// set is not yet part of any review request's history.
	CreateDiffSet(ctx context.Context, tx *sqlx.Tx, ds *domain.DiffSet, files []domain.FileDiff) error

	// GetDiffSet retrieves one revision from a review request's history.
	GetDiffSet(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64, revision int) (*domain.DiffSet, error)

	// ListDiffSets returns a review request's diff history ordered by
	// revision.
	ListDiffSets(ctx context.Context, reviewRequestID int64) ([]domain.DiffSet, error)

	// GetFileDiffInHistory retrieves a file diff, verifying it belongs to
	// the review request's published diff history.
	// Returns apperrors.ErrNotFound otherwise.
	GetFileDiffInHistory(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.FileDiff, error)

	// ListFileDiffs returns the file diffs of one history revision.
	ListFileDiffs(ctx context.Context, reviewRequestID int64, revision int) ([]domain.FileDiff, error)

	// NextRevision returns the next dense revision number for the review
	// request's history, starting at 1.
	NextRevision(ctx context.Context, tx *sqlx.Tx, reviewRequestID int64) (int, error)

	// AttachToHistory makes a pending diff set part of the review request's
	// history at the given revision. Revisions are immutable once assigned.
	AttachToHistory(ctx context.Context, tx *sqlx.Tx, diffSetID, reviewRequestID int64, revision int) error

	// DeleteDiffSet removes a diff set and its file diffs. Used when a newer
	// upload supersedes a pending one.
	DeleteDiffSet(ctx context.Context, tx *sqlx.Tx, id int64) error
}

// UserRepository is the store for users, groups and repositories used for
// identity and target resolution.
type UserRepository interface {
	// GetByUsername retrieves a user by exact username.
	// Returns apperrors.ErrNotFound if absent.
	GetByUsername(ctx context.Context, ext sqlx.ExtContext, username string) (*domain.User, error)

	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.User, error)

	// Create inserts a user record, typically materialized from an external
	// directory by the identity resolver.
	Create(ctx context.Context, ext sqlx.ExtContext, user *domain.User) error

	// GetGroupByName retrieves a group matching name or display name,
	// case-insensitively. Returns apperrors.ErrNotFound if absent.
	GetGroupByName(ctx context.Context, ext sqlx.ExtContext, name string) (*domain.Group, error)

	// GetRepository resolves a repository by numeric ID, falling back to a
	// path or mirror path match.
	GetRepository(ctx context.Context, ext sqlx.ExtContext, idOrPath string) (*domain.Repository, error)
}

// ScreenshotRepository is the store for screenshots.
type ScreenshotRepository interface {
	// Get retrieves a screenshot by ID.
	Get(ctx context.Context, ext sqlx.ExtContext, id int64) (*domain.Screenshot, error)

	// GetInRequest retrieves a screenshot scoped to a review request.
	GetInRequest(ctx context.Context, ext sqlx.ExtContext, id, reviewRequestID int64) (*domain.Screenshot, error)

	Create(ctx context.Context, tx *sqlx.Tx, s *domain.Screenshot) error

	// Save persists caption and draft caption.
	Save(ctx context.Context, tx *sqlx.Tx, s *domain.Screenshot) error

	// ListByRequest returns the screenshots of a review request.
	ListByRequest(ctx context.Context, ext sqlx.ExtContext, reviewRequestID int64) ([]domain.Screenshot, error)
}

// ProfileRepository tracks per-user starred review requests and groups.
type ProfileRepository interface {
	StarReviewRequest(ctx context.Context, userID, reviewRequestID int64) error
	UnstarReviewRequest(ctx context.Context, userID, reviewRequestID int64) error
	StarGroup(ctx context.Context, userID, groupID int64) error
	UnstarGroup(ctx context.Context, userID, groupID int64) error
}
