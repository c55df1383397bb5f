package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/akulikov/review-request-service/internal/service"
	"github.com/go-chi/chi/v5"
)

func (s *Server) createReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createReviewRequest"

	var req createReviewRequestRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rr, err := s.requestService.Create(r.Context(), actorFrom(r.Context()), service.CreateReviewRequestInput{
		Repository: req.Repository,
		SubmitAs:   req.SubmitAs,
		ChangeNum:  req.ChangeNum,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]reviewRequestResponse{"review_request": toReviewRequestResponse(rr)})
}

func (s *Server) getReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getReviewRequest"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rr, err := s.requestService.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewRequestResponse{"review_request": toReviewRequestResponse(rr)})
}

func (s *Server) listReviewRequests(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listReviewRequests"

	f, err := parseReviewRequestFilter(r.URL.Query())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rrs, err := s.requestService.List(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"review_requests": toReviewRequestResponses(rrs),
		"total_results":   len(rrs),
	})
}

// parseReviewRequestFilter converts list query parameters into a repository
// filter. The status criterion defaults to pending, matching what clients
// expect a plain listing to show.
func parseReviewRequestFilter(q url.Values) (repository.ReviewRequestFilter, error) {
	var f repository.ReviewRequestFilter

	status := q.Get("status")
	if status == "" {
		status = "pending"
	}

	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return f, err
	}
	f.Status = parsed

	f.ToGroups = splitList(q.Get("to-groups"))
	f.ToUsers = splitList(q.Get("to-users"))
	f.ToUsersDirectly = splitList(q.Get("to-users-directly"))
	f.ToUsersViaGroups = splitList(q.Get("to-users-via-groups"))
	f.FromUser = q.Get("from-user")

	if repo := q.Get("repository"); repo != "" {
		id, err := strconv.ParseInt(repo, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: invalid repository", apperrors.ErrInvalidRequest)
		}
		f.RepositoryID = &id
	}

	if changenum := q.Get("changenum"); changenum != "" {
		num, err := strconv.ParseInt(changenum, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: invalid changenum", apperrors.ErrInvalidRequest)
		}
		f.ChangeNum = &num
	}

	return f, nil
}

// splitList parses a comma-separated query value, dropping empty tokens.
func splitList(value string) []string {
	if value == "" {
		return nil
	}

	var out []string
	for _, token := range strings.Split(value, ",") {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}

	return out
}

func (s *Server) closeReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.closeReviewRequest"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req closeReviewRequestRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	closeType, err := domain.ParseStatus(req.Status)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rr, err := s.requestService.Close(r.Context(), actorFrom(r.Context()), id, closeType)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewRequestResponse{"review_request": toReviewRequestResponse(rr)})
}

func (s *Server) reopenReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.reopenReviewRequest"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rr, err := s.requestService.Reopen(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewRequestResponse{"review_request": toReviewRequestResponse(rr)})
}

func (s *Server) deleteReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteReviewRequest"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.requestService.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) starReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.starReviewRequest"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.requestService.Star(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) unstarReviewRequest(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.unstarReviewRequest"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.requestService.Unstar(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) starGroup(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.starGroup"

	groupName := chi.URLParam(r, "groupName")

	if err := s.requestService.StarGroup(r.Context(), actorFrom(r.Context()), groupName); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) unstarGroup(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.unstarGroup"

	groupName := chi.URLParam(r, "groupName")

	if err := s.requestService.UnstarGroup(r.Context(), actorFrom(r.Context()), groupName); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) listDiffSets(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listDiffSets"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	sets, err := s.requestService.ListDiffSets(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]diffSetResponse{"diffsets": toDiffSetResponses(sets)})
}

func (s *Server) getDiffSet(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getDiffSet"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	revision, err := s.pathID(r, "revision")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	ds, err := s.requestService.GetDiffSet(r.Context(), actorFrom(r.Context()), id, int(revision))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]diffSetResponse{"diffset": toDiffSetResponse(ds)})
}

func (s *Server) listFileDiffs(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listFileDiffs"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	revision, err := s.pathID(r, "revision")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	files, err := s.requestService.ListFileDiffs(r.Context(), actorFrom(r.Context()), id, int(revision))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]fileDiffResponse{"files": toFileDiffResponses(files)})
}

func (s *Server) listScreenshots(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listScreenshots"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	shots, err := s.requestService.ListScreenshots(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]screenshotResponse{"screenshots": toScreenshotResponses(shots)})
}
