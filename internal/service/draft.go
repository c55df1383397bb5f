package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/permissions"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/akulikov/review-request-service/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

var screenshotCaptionField = regexp.MustCompile(`^screenshot_(\d+)_caption$`)

type DraftService interface {
	// PrepareDraft returns the review request's draft, creating one seeded
	// from the current published values if none exists. The boolean reports
	// whether a draft was created.
	PrepareDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Draft, bool, error)

	GetDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Draft, error)

	// UpdateDraft applies the named field values to the draft. Invalid fields
	// accumulate into apperrors.FieldErrors; unless alwaysSave is set, a
	// single invalid field means nothing is persisted.
	UpdateDraft(ctx context.Context, actor *domain.User, reviewRequestID int64, fields map[string]string, alwaysSave bool) (*domain.Draft, error)

	DeleteDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) error

	// PublishDraft atomically promotes the draft into the review request and
	// removes it.
	PublishDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.ReviewRequest, error)

	// UploadDiff validates raw diff bytes and stages the resulting diff set
	// on the draft, discarding a previously staged one.
	UploadDiff(ctx context.Context, actor *domain.User, reviewRequestID int64, diff, parentDiff []byte) (*domain.DiffSet, error)

	// UploadScreenshot stores an image and attaches it to the review request
	// with its caption staged on the draft side.
	UploadScreenshot(ctx context.Context, actor *domain.User, reviewRequestID int64, caption string, image []byte) (*domain.Screenshot, error)
}

type DraftServiceImpl struct {
	BaseService
	requests      repository.ReviewRequestRepository
	drafts        repository.DraftRepository
	diffs         repository.DiffRepository
	screenshots   repository.ScreenshotRepository
	users         repository.UserRepository
	identity      IdentityResolver
	diffIngester  DiffIngester
	shotIngester  ScreenshotIngester
	notifications NotificationDispatcher
}

func NewDraftService(
	base BaseService,
	requests repository.ReviewRequestRepository,
	drafts repository.DraftRepository,
	diffs repository.DiffRepository,
	screenshots repository.ScreenshotRepository,
	users repository.UserRepository,
	identity IdentityResolver,
	diffIngester DiffIngester,
	shotIngester ScreenshotIngester,
	notifications NotificationDispatcher,
) *DraftServiceImpl {
	return &DraftServiceImpl{
		BaseService:   base,
		requests:      requests,
		drafts:        drafts,
		diffs:         diffs,
		screenshots:   screenshots,
		users:         users,
		identity:      identity,
		diffIngester:  diffIngester,
		shotIngester:  shotIngester,
		notifications: notifications,
	}
}

func (s *DraftServiceImpl) PrepareDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Draft, bool, error) {
	const op = "internal.service.draft.PrepareDraft"

	var (
		draft   *domain.Draft
		created bool
	)

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		draft, created, err = s.prepareDraftTx(ctx, tx, actor, reviewRequestID)

		return err
	})
	if err != nil {
		return nil, false, err
	}

	return draft, created, nil
}

// prepareDraftTx runs the get-or-create inside the caller's transaction so
// draft creation composes with field updates and diff uploads.
func (s *DraftServiceImpl) prepareDraftTx(ctx context.Context, tx *sqlx.Tx, actor *domain.User, reviewRequestID int64) (*domain.Draft, bool, error) {
	const op = "internal.service.draft.prepareDraftTx"

	rr, err := s.requests.GetByID(ctx, tx, reviewRequestID)
	if err != nil {
		return nil, false, err
	}

	if !permissions.CanModifyReviewRequest(actor, rr) {
		return nil, false, apperrors.ErrPermissionDenied
	}

	// Seed from the published values so partial edits don't clobber
	// untouched fields on publish.
	seed := &domain.Draft{
		ReviewRequestID: rr.ID,
		Summary:         rr.Summary,
		Description:     rr.Description,
		TestingDone:     rr.TestingDone,
		BugsClosed:      rr.BugsClosed,
		Branch:          rr.Branch,
	}

	draft, created, err := s.drafts.GetOrCreate(ctx, tx, seed)
	if err != nil {
		return nil, false, err
	}

	if created {
		groups, people, err := s.requests.GetTargets(ctx, tx, rr.ID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to load current targets: %w", op, err)
		}

		if err := s.drafts.ReplaceTargets(ctx, tx, draft.ID, groupIDs(groups), userIDs(people)); err != nil {
			return nil, false, fmt.Errorf("%s: failed to seed targets: %w", op, err)
		}

		draft.TargetGroups, draft.TargetPeople = groups, people
	} else {
		draft.TargetGroups, draft.TargetPeople, err = s.drafts.GetTargets(ctx, tx, draft.ID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to load draft targets: %w", op, err)
		}
	}

	return draft, created, nil
}

func (s *DraftServiceImpl) GetDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.Draft, error) {
	const op = "internal.service.draft.GetDraft"

	rr, err := s.requests.GetByID(ctx, s.db, reviewRequestID)
	if err != nil {
		return nil, err
	}

	// Drafts are visible to nobody but those who can edit the request.
	if !permissions.CanModifyReviewRequest(actor, rr) {
		return nil, apperrors.ErrPermissionDenied
	}

	draft, err := s.drafts.Get(ctx, s.db, reviewRequestID)
	if err != nil {
		return nil, err
	}

	draft.TargetGroups, draft.TargetPeople, err = s.drafts.GetTargets(ctx, s.db, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load draft targets: %w", op, err)
	}

	return draft, nil
}

// draftUpdate collects the outcome of applying one batch of field values:
// the mutated draft, replacement target sets, staged screenshot captions and
// every per-field failure.
type draftUpdate struct {
	draft      *domain.Draft
	setTargets bool
	groupIDs   []int64
	userIDs    []int64
	shots      []*domain.Screenshot
	fieldErrs  apperrors.FieldErrors
}

func (s *DraftServiceImpl) UpdateDraft(ctx context.Context, actor *domain.User, reviewRequestID int64, fields map[string]string, alwaysSave bool) (*domain.Draft, error) {
	const op = "internal.service.draft.UpdateDraft"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", reviewRequestID))

	var result *domain.Draft

	fieldErrs := apperrors.FieldErrors{}

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		draft, _, err := s.prepareDraftTx(ctx, tx, actor, reviewRequestID)
		if err != nil {
			return err
		}

		u := &draftUpdate{draft: draft, fieldErrs: fieldErrs}

		// Deterministic application order regardless of map iteration.
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			s.setDraftField(ctx, tx, reviewRequestID, u, name, fields[name])
		}

		if !fieldErrs.Empty() && !alwaysSave {
			// Rolls the whole batch back; nothing is persisted.
			return fieldErrs
		}

		if err := s.drafts.Save(ctx, tx, draft); err != nil {
			return err
		}

		if u.setTargets {
			if err := s.drafts.ReplaceTargets(ctx, tx, draft.ID, u.groupIDs, u.userIDs); err != nil {
				return err
			}
		}

		for _, shot := range u.shots {
			if err := s.screenshots.Save(ctx, tx, shot); err != nil {
				return err
			}
		}

		draft.TargetGroups, draft.TargetPeople, err = s.drafts.GetTargets(ctx, tx, draft.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to reload draft targets: %w", op, err)
		}

		result = draft

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !fieldErrs.Empty() {
		// alwaysSave: the valid parts are committed but the caller still
		// sees every failure.
		return result, fieldErrs
	}

	log.Info("draft updated", slog.Int("fields", len(fields)))

	return result, nil
}

// setDraftField dispatches one named field to its typed setter. Unknown
// names are a validation error, never silently ignored.
func (s *DraftServiceImpl) setDraftField(ctx context.Context, tx *sqlx.Tx, reviewRequestID int64, u *draftUpdate, name, value string) {
	switch name {
	case "summary":
		if strings.ContainsAny(value, "\n\r") {
			u.fieldErrs.Add("summary", "The summary can't contain a newline")
			return
		}

		u.draft.Summary = value
	case "description":
		u.draft.Description = value
	case "testing_done":
		u.draft.TestingDone = value
	case "branch":
		u.draft.Branch = value
	case "change_description":
		u.draft.ChangeDesc = value
	case "bugs_closed":
		u.draft.BugsClosed = sanitizeBugsClosed(value)
	case "target_groups":
		u.setTargets = true
		u.groupIDs = s.resolveTargetGroups(ctx, tx, u, value)
	case "target_people":
		u.setTargets = true
		u.userIDs = s.resolveTargetPeople(ctx, tx, u, value)
	default:
		if m := screenshotCaptionField.FindStringSubmatch(name); m != nil {
			s.stageScreenshotCaption(ctx, tx, reviewRequestID, u, name, m[1], value)
			return
		}

		u.fieldErrs.Add(name, "Field is not supported")
	}
}

// resolveTargetGroups resolves every comma-separated token to a group.
// Unknown tokens accumulate as errors without aborting the rest; the
// resolved set replaces the previous targets wholesale.
func (s *DraftServiceImpl) resolveTargetGroups(ctx context.Context, tx *sqlx.Tx, u *draftUpdate, value string) []int64 {
	var ids []int64

	for _, token := range splitTargets(value) {
		group, err := s.users.GetGroupByName(ctx, tx, token)
		if err != nil {
			u.fieldErrs.Add("target_groups", token)
			continue
		}

		ids = append(ids, group.ID)
	}

	return ids
}

func (s *DraftServiceImpl) resolveTargetPeople(ctx context.Context, tx *sqlx.Tx, u *draftUpdate, value string) []int64 {
	var ids []int64

	for _, token := range splitTargets(value) {
		user, err := s.users.GetByUsername(ctx, tx, token)
		if err != nil && errors.Is(err, apperrors.ErrNotFound) && s.identity != nil {
			user, err = s.identity.ResolveUser(ctx, token)
			if err == nil && user.ID == 0 {
				// Inside the draft tx so a rolled-back update does not leave
				// a provisioned user behind.
				err = s.users.Create(ctx, tx, user)
			}
		}

		if err != nil {
			u.fieldErrs.Add("target_people", token)
			continue
		}

		ids = append(ids, user.ID)
	}

	return ids
}

func (s *DraftServiceImpl) stageScreenshotCaption(ctx context.Context, tx *sqlx.Tx, reviewRequestID int64, u *draftUpdate, field, rawID, caption string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		u.fieldErrs.Add(field, "Invalid screenshot ID")
		return
	}

	shot, err := s.screenshots.GetInRequest(ctx, tx, id, reviewRequestID)
	if err != nil {
		u.fieldErrs.Add(field, "Screenshot does not exist")
		return
	}

	shot.DraftCaption = caption
	u.shots = append(u.shots, shot)
}

func (s *DraftServiceImpl) DeleteDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) error {
	const op = "internal.service.draft.DeleteDraft"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", reviewRequestID))

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		rr, err := s.requests.GetByID(ctx, tx, reviewRequestID)
		if err != nil {
			return err
		}

		if !permissions.CanDeleteDraft(actor, rr) {
			return apperrors.ErrPermissionDenied
		}

		draft, err := s.drafts.Get(ctx, tx, reviewRequestID)
		if err != nil {
			return err
		}

		if draft.DiffSetID != nil {
			if err := s.diffs.DeleteDiffSet(ctx, tx, *draft.DiffSetID); err != nil {
				return err
			}
		}

		return s.drafts.Delete(ctx, tx, draft.ID)
	})
	if err != nil {
		return err
	}

	log.Info("draft discarded")

	return nil
}

func (s *DraftServiceImpl) PublishDraft(ctx context.Context, actor *domain.User, reviewRequestID int64) (*domain.ReviewRequest, error) {
	const op = "internal.service.draft.PublishDraft"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", reviewRequestID))

	var rr *domain.ReviewRequest

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		rr, err = s.requests.GetByIDWithLock(ctx, tx, reviewRequestID)
		if err != nil {
			return err
		}

		if !permissions.CanModifyReviewRequest(actor, rr) {
			return apperrors.ErrPermissionDenied
		}

		draft, err := s.drafts.Get(ctx, tx, reviewRequestID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%s: %w", op, apperrors.ErrNothingToPublish)
			}

			return err
		}

		wasPublic := rr.Public

		rr.Summary = draft.Summary
		rr.Description = draft.Description
		rr.TestingDone = draft.TestingDone
		rr.BugsClosed = draft.BugsClosed
		rr.Branch = draft.Branch
		rr.Public = true

		if err := s.requests.Update(ctx, tx, rr); err != nil {
			return err
		}

		groups, people, err := s.drafts.GetTargets(ctx, tx, draft.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to load draft targets: %w", op, err)
		}

		if err := s.requests.ReplaceTargets(ctx, tx, rr.ID, groupIDs(groups), userIDs(people)); err != nil {
			return err
		}

		if draft.DiffSetID != nil {
			revision, err := s.diffs.NextRevision(ctx, tx, rr.ID)
			if err != nil {
				return err
			}

			if err := s.diffs.AttachToHistory(ctx, tx, *draft.DiffSetID, rr.ID, revision); err != nil {
				return err
			}
		}

		if err := s.promoteScreenshotCaptions(ctx, tx, rr.ID); err != nil {
			return err
		}

		if wasPublic && draft.ChangeDesc != "" {
			if err := s.requests.RecordChangeDescription(ctx, tx, rr.ID, draft.ChangeDesc); err != nil {
				return err
			}
		}

		return s.drafts.Delete(ctx, tx, draft.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info("review request published")

	if s.notifications != nil {
		if err := s.notifications.ReviewRequestPublished(ctx, rr); err != nil {
			log.Error("failed to dispatch publish notification", sl.Err(err))
		}
	}

	return rr, nil
}

func (s *DraftServiceImpl) promoteScreenshotCaptions(ctx context.Context, tx *sqlx.Tx, reviewRequestID int64) error {
	shots, err := s.screenshots.ListByRequest(ctx, tx, reviewRequestID)
	if err != nil {
		return err
	}

	for i := range shots {
		shot := &shots[i]
		if shot.DraftCaption == "" || shot.DraftCaption == shot.Caption {
			continue
		}

		shot.Caption = shot.DraftCaption
		shot.DraftCaption = ""

		if err := s.screenshots.Save(ctx, tx, shot); err != nil {
			return err
		}
	}

	return nil
}

func (s *DraftServiceImpl) UploadDiff(ctx context.Context, actor *domain.User, reviewRequestID int64, diff, parentDiff []byte) (*domain.DiffSet, error) {
	const op = "internal.service.draft.UploadDiff"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", reviewRequestID))

	rr, err := s.requests.GetByID(ctx, s.db, reviewRequestID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanModifyReviewRequest(actor, rr) {
		return nil, apperrors.ErrPermissionDenied
	}

	repo, err := s.users.GetRepository(ctx, s.db, strconv.FormatInt(rr.RepositoryID, 10))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load repository: %w", op, err)
	}

	ds, files, err := s.diffIngester.Ingest(ctx, diff, parentDiff, repo)
	if err != nil {
		return nil, ingestionError("path", err)
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		draft, _, err := s.prepareDraftTx(ctx, tx, actor, reviewRequestID)
		if err != nil {
			return err
		}

		// A newer upload supersedes the previously staged diff set.
		if draft.DiffSetID != nil {
			if err := s.diffs.DeleteDiffSet(ctx, tx, *draft.DiffSetID); err != nil {
				return err
			}
		}

		if err := s.diffs.CreateDiffSet(ctx, tx, ds, files); err != nil {
			return err
		}

		draft.DiffSetID = &ds.ID

		return s.drafts.Save(ctx, tx, draft)
	})
	if err != nil {
		return nil, err
	}

	log.Info("diff staged on draft", slog.Int64("diffset_id", ds.ID), slog.Int("files", len(files)))

	return ds, nil
}

func (s *DraftServiceImpl) UploadScreenshot(ctx context.Context, actor *domain.User, reviewRequestID int64, caption string, image []byte) (*domain.Screenshot, error) {
	const op = "internal.service.draft.UploadScreenshot"
	log := s.log.With(slog.String("op", op), slog.Int64("review_request_id", reviewRequestID))

	rr, err := s.requests.GetByID(ctx, s.db, reviewRequestID)
	if err != nil {
		return nil, err
	}

	if !permissions.CanModifyReviewRequest(actor, rr) {
		return nil, apperrors.ErrPermissionDenied
	}

	path, err := s.shotIngester.Ingest(ctx, image)
	if err != nil {
		return nil, ingestionError("file", err)
	}

	shot := &domain.Screenshot{
		ReviewRequestID: reviewRequestID,
		DraftCaption:    caption,
		ImagePath:       path,
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.screenshots.Create(ctx, tx, shot)
	})
	if err != nil {
		return nil, err
	}

	log.Info("screenshot uploaded", slog.Int64("screenshot_id", shot.ID))

	return shot, nil
}

// ingestionError passes structured ingestion failures through untouched and
// folds everything else into a field-scoped validation error.
func ingestionError(field string, err error) error {
	var fileErr *apperrors.RepoFileNotFoundError
	if errors.As(err, &fileErr) || errors.Is(err, apperrors.ErrEmptyChangeSet) {
		return err
	}

	fieldErrs := apperrors.FieldErrors{}
	fieldErrs.Add(field, err.Error())

	return fieldErrs
}

// sanitizeBugsClosed canonicalizes a comma-separated bug list: trims
// whitespace, strips one leading '#' per token and drops empty tokens.
func sanitizeBugsClosed(value string) string {
	var bugs []string

	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		token = strings.TrimPrefix(token, "#")

		if token != "" {
			bugs = append(bugs, token)
		}
	}

	return strings.Join(bugs, ",")
}

// splitTargets tokenizes a comma-separated target list, dropping empties.
func splitTargets(value string) []string {
	var tokens []string

	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

func groupIDs(groups []domain.Group) []int64 {
	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}

	return ids
}

func userIDs(users []domain.User) []int64 {
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	return ids
}
