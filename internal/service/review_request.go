package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/permissions"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/jmoiron/sqlx"
)

// CreateReviewRequestInput carries the caller-supplied parts of a new review
// request. Repository may be a numeric ID or a checkout path. SubmitAs, when
// set to another username, requires the submit-as privilege.
type CreateReviewRequestInput struct {
	Repository string
	SubmitAs   string
	ChangeNum  *int64
}

type ReviewRequestService interface {
	Create(ctx context.Context, actor *domain.User, in CreateReviewRequestInput) (*domain.ReviewRequest, error)
	Get(ctx context.Context, actor *domain.User, id int64) (*domain.ReviewRequest, error)
	List(ctx context.Context, actor *domain.User, f repository.ReviewRequestFilter) ([]domain.ReviewRequest, error)
	Close(ctx context.Context, actor *domain.User, id int64, closeType domain.Status) (*domain.ReviewRequest, error)
	Reopen(ctx context.Context, actor *domain.User, id int64) (*domain.ReviewRequest, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
	Star(ctx context.Context, actor *domain.User, id int64) error
	Unstar(ctx context.Context, actor *domain.User, id int64) error
	StarGroup(ctx context.Context, actor *domain.User, groupName string) error
	UnstarGroup(ctx context.Context, actor *domain.User, groupName string) error
	ListDiffSets(ctx context.Context, actor *domain.User, id int64) ([]domain.DiffSet, error)
	GetDiffSet(ctx context.Context, actor *domain.User, id int64, revision int) (*domain.DiffSet, error)
	ListFileDiffs(ctx context.Context, actor *domain.User, id int64, revision int) ([]domain.FileDiff, error)
	ListScreenshots(ctx context.Context, actor *domain.User, id int64) ([]domain.Screenshot, error)
}

type ReviewRequestServiceImpl struct {
	BaseService
	requests    repository.ReviewRequestRepository
	users       repository.UserRepository
	diffs       repository.DiffRepository
	screenshots repository.ScreenshotRepository
	profiles    repository.ProfileRepository
	identity    IdentityResolver
	access      AccessChecker
	changesets  ChangesetProvider
}

func NewReviewRequestService(
	base BaseService,
	requests repository.ReviewRequestRepository,
	users repository.UserRepository,
	diffs repository.DiffRepository,
	screenshots repository.ScreenshotRepository,
	profiles repository.ProfileRepository,
	identity IdentityResolver,
	access AccessChecker,
	changesets ChangesetProvider,
) *ReviewRequestServiceImpl {
	return &ReviewRequestServiceImpl{
		BaseService: base,
		requests:    requests,
		users:       users,
		diffs:       diffs,
		screenshots: screenshots,
		profiles:    profiles,
		identity:    identity,
		access:      access,
		changesets:  changesets,
	}
}

func (s *ReviewRequestServiceImpl) Create(ctx context.Context, actor *domain.User, in CreateReviewRequestInput) (*domain.ReviewRequest, error) {
	const op = "internal.service.reviewrequest.Create"
	log := s.log.With(slog.String("op", op), slog.String("repository", in.Repository))

	if actor == nil {
		return nil, apperrors.ErrPermissionDenied
	}

	repo, err := s.users.GetRepository(ctx, s.db, in.Repository)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, &apperrors.InvalidRepositoryError{Repository: in.Repository}
		}

		return nil, fmt.Errorf("%s: failed to resolve repository: %w", op, err)
	}

	submitter := actor
	if in.SubmitAs != "" && in.SubmitAs != actor.Username {
		if !permissions.CanSubmitAs(actor) {
			return nil, apperrors.ErrPermissionDenied
		}

		submitter, err = s.resolveUser(ctx, in.SubmitAs)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to resolve submit-as user: %w", op, err)
		}
	}

	rr := &domain.ReviewRequest{
		SubmitterID:  submitter.ID,
		RepositoryID: repo.ID,
		ChangeNum:    in.ChangeNum,
		Status:       domain.StatusPending,
		Public:       false,
	}

	if in.ChangeNum != nil {
		changeset, err := s.changesets.GetChangeset(ctx, repo, *in.ChangeNum)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w: changeset %d", op, apperrors.ErrInvalidChangeNumber, *in.ChangeNum)
			}

			return nil, fmt.Errorf("%s: failed to get changeset: %w", op, err)
		}

		if changeset == nil || changeset.Summary == "" && changeset.Description == "" {
			return nil, fmt.Errorf("%s: %w", op, apperrors.ErrEmptyChangeSet)
		}

		rr.Summary = changeset.Summary
		rr.Description = changeset.Description
		rr.TestingDone = changeset.TestingDone
		rr.Branch = changeset.Branch
		rr.BugsClosed = joinBugs(changeset.BugsClosed)
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.requests.Create(ctx, tx, rr)
	})
	if err != nil {
		return nil, err
	}

	log.Info("review request created", slog.Int64("review_request_id", rr.ID))

	return rr, nil
}

func (s *ReviewRequestServiceImpl) Get(ctx context.Context, actor *domain.User, id int64) (*domain.ReviewRequest, error) {
	const op = "internal.service.reviewrequest.Get"

	rr, err := s.readableReviewRequest(ctx, s.db, actor, id)
	if err != nil {
		return nil, err
	}

	rr.TargetGroups, rr.TargetPeople, err = s.requests.GetTargets(ctx, s.db, rr.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load targets: %w", op, err)
	}

	return rr, nil
}

func (s *ReviewRequestServiceImpl) List(ctx context.Context, actor *domain.User, f repository.ReviewRequestFilter) ([]domain.ReviewRequest, error) {
	const op = "internal.service.reviewrequest.List"

	f.Viewer = actor

	rrs, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list review requests: %w", op, err)
	}

	return rrs, nil
}

// Close moves a review request to one of its terminal states. Only submitted
// and discarded are accepted.
func (s *ReviewRequestServiceImpl) Close(ctx context.Context, actor *domain.User, id int64, closeType domain.Status) (*domain.ReviewRequest, error) {
	const op = "internal.service.reviewrequest.Close"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", id))

	if closeType != domain.StatusSubmitted && closeType != domain.StatusDiscarded {
		return nil, fmt.Errorf("%s: %w: %q", op, apperrors.ErrInvalidCloseType, string(closeType))
	}

	var rr *domain.ReviewRequest

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		rr, err = s.requests.GetByIDWithLock(ctx, tx, id)
		if err != nil {
			return err
		}

		if !permissions.CanModifyReviewRequest(actor, rr) {
			return apperrors.ErrPermissionDenied
		}

		if rr.Status == closeType {
			return nil
		}

		rr.Status = closeType

		return s.requests.Update(ctx, tx, rr)
	})
	if err != nil {
		return nil, err
	}

	log.Info("review request closed", slog.String("status", rr.Status.String()))

	return rr, nil
}

// Reopen returns a closed review request to pending. Reopening a discarded
// request withdraws it from public view until it is published again; a
// submitted one stays public.
func (s *ReviewRequestServiceImpl) Reopen(ctx context.Context, actor *domain.User, id int64) (*domain.ReviewRequest, error) {
	const op = "internal.service.reviewrequest.Reopen"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", id))

	var rr *domain.ReviewRequest

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		rr, err = s.requests.GetByIDWithLock(ctx, tx, id)
		if err != nil {
			return err
		}

		if !permissions.CanModifyReviewRequest(actor, rr) {
			return apperrors.ErrPermissionDenied
		}

		if rr.Status == domain.StatusPending {
			return nil
		}

		if rr.Status == domain.StatusDiscarded {
			rr.Public = false
		}

		rr.Status = domain.StatusPending

		return s.requests.Update(ctx, tx, rr)
	})
	if err != nil {
		return nil, err
	}

	log.Info("review request reopened")

	return rr, nil
}

func (s *ReviewRequestServiceImpl) Delete(ctx context.Context, actor *domain.User, id int64) error {
	const op = "internal.service.reviewrequest.Delete"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", id))

	if !permissions.CanDeleteReviewRequest(actor) {
		return apperrors.ErrPermissionDenied
	}

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.requests.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	log.Info("review request deleted")

	return nil
}

func (s *ReviewRequestServiceImpl) Star(ctx context.Context, actor *domain.User, id int64) error {
	const op = "internal.service.reviewrequest.Star"

	if actor == nil {
		return apperrors.ErrPermissionDenied
	}

	if _, err := s.readableReviewRequest(ctx, s.db, actor, id); err != nil {
		return err
	}

	if err := s.profiles.StarReviewRequest(ctx, actor.ID, id); err != nil {
		return fmt.Errorf("%s: failed to star review request: %w", op, err)
	}

	return nil
}

func (s *ReviewRequestServiceImpl) Unstar(ctx context.Context, actor *domain.User, id int64) error {
	const op = "internal.service.reviewrequest.Unstar"

	if actor == nil {
		return apperrors.ErrPermissionDenied
	}

	if _, err := s.readableReviewRequest(ctx, s.db, actor, id); err != nil {
		return err
	}

	if err := s.profiles.UnstarReviewRequest(ctx, actor.ID, id); err != nil {
		return fmt.Errorf("%s: failed to unstar review request: %w", op, err)
	}

	return nil
}

func (s *ReviewRequestServiceImpl) StarGroup(ctx context.Context, actor *domain.User, groupName string) error {
	const op = "internal.service.reviewrequest.StarGroup"

	if actor == nil {
		return apperrors.ErrPermissionDenied
	}

	group, err := s.users.GetGroupByName(ctx, s.db, groupName)
	if err != nil {
		return err
	}

	if err := s.profiles.StarGroup(ctx, actor.ID, group.ID); err != nil {
		return fmt.Errorf("%s: failed to star group: %w", op, err)
	}

	return nil
}

func (s *ReviewRequestServiceImpl) UnstarGroup(ctx context.Context, actor *domain.User, groupName string) error {
	const op = "internal.service.reviewrequest.UnstarGroup"

	if actor == nil {
		return apperrors.ErrPermissionDenied
	}

	group, err := s.users.GetGroupByName(ctx, s.db, groupName)
	if err != nil {
		return err
	}

	if err := s.profiles.UnstarGroup(ctx, actor.ID, group.ID); err != nil {
		return fmt.Errorf("%s: failed to unstar group: %w", op, err)
	}

	return nil
}

func (s *ReviewRequestServiceImpl) ListDiffSets(ctx context.Context, actor *domain.User, id int64) ([]domain.DiffSet, error) {
	if _, err := s.readableReviewRequest(ctx, s.db, actor, id); err != nil {
		return nil, err
	}

	return s.diffs.ListDiffSets(ctx, id)
}

func (s *ReviewRequestServiceImpl) GetDiffSet(ctx context.Context, actor *domain.User, id int64, revision int) (*domain.DiffSet, error) {
	if _, err := s.readableReviewRequest(ctx, s.db, actor, id); err != nil {
		return nil, err
	}

	return s.diffs.GetDiffSet(ctx, s.db, id, revision)
}

func (s *ReviewRequestServiceImpl) ListFileDiffs(ctx context.Context, actor *domain.User, id int64, revision int) ([]domain.FileDiff, error) {
	if _, err := s.readableReviewRequest(ctx, s.db, actor, id); err != nil {
		return nil, err
	}

	return s.diffs.ListFileDiffs(ctx, id, revision)
}

func (s *ReviewRequestServiceImpl) ListScreenshots(ctx context.Context, actor *domain.User, id int64) ([]domain.Screenshot, error) {
	if _, err := s.readableReviewRequest(ctx, s.db, actor, id); err != nil {
		return nil, err
	}

	return s.screenshots.ListByRequest(ctx, s.db, id)
}

// readableReviewRequest loads a review request and enforces read access,
// consulting the external access checker only when the local rules deny.
func (s *ReviewRequestServiceImpl) readableReviewRequest(ctx context.Context, ext sqlx.ExtContext, actor *domain.User, id int64) (*domain.ReviewRequest, error) {
	rr, err := s.requests.GetByID(ctx, ext, id)
	if err != nil {
		return nil, err
	}

	if !permissions.CanReadReviewRequest(actor, rr) {
		if s.access == nil || !s.access.IsAccessibleBy(ctx, rr, actor) {
			return nil, apperrors.ErrPermissionDenied
		}
	}

	return rr, nil
}

// resolveUser finds a user locally, falling back to the identity resolver
// which may materialize a record from an external directory.
func (s *ReviewRequestServiceImpl) resolveUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, s.db, username)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, apperrors.ErrNotFound) || s.identity == nil {
		return nil, err
	}

	resolved, err := s.identity.ResolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if resolved.ID == 0 {
		if err := s.users.Create(ctx, s.db, resolved); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}

func joinBugs(bugs []string) string {
	return strings.Join(bugs, ",")
}
