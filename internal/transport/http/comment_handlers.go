package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/repository"
	"github.com/akulikov/review-request-service/internal/service"
)

func (s *Server) createDiffComment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createDiffComment"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	reviewID, err := s.pathID(r, "reviewID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req createDiffCommentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	actor := actorFrom(r.Context())

	var comment *domain.Comment
	if req.ReplyToID != nil {
		comment, err = s.commentService.CreateDiffCommentReply(r.Context(), actor, id, reviewID, *req.ReplyToID, req.Text)
	} else {
		comment, err = s.commentService.CreateDiffComment(r.Context(), actor, id, reviewID, service.DiffCommentInput{
			FileDiffID:      req.FileDiffID,
			InterFileDiffID: req.InterFileDiffID,
			FirstLine:       req.FirstLine,
			NumLines:        req.NumLines,
			Text:            req.Text,
		})
	}
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]diffCommentResponse{"diff_comment": toDiffCommentResponse(comment)})
}

func (s *Server) getDiffComment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getDiffComment"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	commentID, err := s.pathID(r, "commentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	comment, err := s.commentService.GetDiffComment(r.Context(), actorFrom(r.Context()), id, commentID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]diffCommentResponse{"diff_comment": toDiffCommentResponse(comment)})
}

func (s *Server) listDiffComments(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listDiffComments"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	f := repository.DiffCommentFilter{ReviewRequestID: id}

	q := r.URL.Query()

	if f.ReviewID, err = queryInt64(q, "review-id"); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}
	if f.DiffRevision, err = queryInt(q, "diff-revision"); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}
	if f.InterdiffRevision, err = queryInt(q, "interdiff-revision"); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}
	if f.FirstLine, err = queryInt(q, "line"); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	comments, err := s.commentService.ListDiffComments(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"diff_comments": toDiffCommentResponses(comments),
		"total_results": len(comments),
	})
}

func (s *Server) deleteDiffComment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteDiffComment"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	commentID, err := s.pathID(r, "commentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.commentService.DeleteDiffComment(r.Context(), actorFrom(r.Context()), id, commentID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) createScreenshotComment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.createScreenshotComment"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	reviewID, err := s.pathID(r, "reviewID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req createScreenshotCommentRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	actor := actorFrom(r.Context())

	var comment *domain.ScreenshotComment
	if req.ReplyToID != nil {
		comment, err = s.commentService.CreateScreenshotCommentReply(r.Context(), actor, id, reviewID, *req.ReplyToID, req.Text)
	} else {
		comment, err = s.commentService.CreateScreenshotComment(r.Context(), actor, id, reviewID, service.ScreenshotCommentInput{
			ScreenshotID: req.ScreenshotID,
			X:            req.X,
			Y:            req.Y,
			W:            req.W,
			H:            req.H,
			Text:         req.Text,
		})
	}
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]screenshotCommentResponse{"screenshot_comment": toScreenshotCommentResponse(comment)})
}

func (s *Server) getScreenshotComment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getScreenshotComment"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	commentID, err := s.pathID(r, "commentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	comment, err := s.commentService.GetScreenshotComment(r.Context(), actorFrom(r.Context()), id, commentID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]screenshotCommentResponse{"screenshot_comment": toScreenshotCommentResponse(comment)})
}

func (s *Server) listScreenshotComments(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listScreenshotComments"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	f := repository.ScreenshotCommentFilter{ReviewRequestID: id}

	q := r.URL.Query()

	if f.ReviewID, err = queryInt64(q, "review-id"); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}
	if f.ScreenshotID, err = queryInt64(q, "screenshot-id"); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	comments, err := s.commentService.ListScreenshotComments(r.Context(), actorFrom(r.Context()), f)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"screenshot_comments": toScreenshotCommentResponses(comments),
		"total_results":       len(comments),
	})
}

func (s *Server) deleteScreenshotComment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteScreenshotComment"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	commentID, err := s.pathID(r, "commentID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.commentService.DeleteScreenshotComment(r.Context(), actorFrom(r.Context()), id, commentID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

// queryInt64 parses an optional int64 query parameter.
func queryInt64(q url.Values, name string) (*int64, error) {
	value := q.Get(name)
	if value == "" {
		return nil, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", apperrors.ErrInvalidRequest, name)
	}

	return &parsed, nil
}

// queryInt parses an optional int query parameter.
func queryInt(q url.Values, name string) (*int, error) {
	value := q.Get(name)
	if value == "" {
		return nil, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", apperrors.ErrInvalidRequest, name)
	}

	return &parsed, nil
}
