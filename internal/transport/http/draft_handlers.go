package http

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/akulikov/review-request-service/internal/apperrors"
)

func (s *Server) prepareDraft(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.prepareDraft"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	draft, created, err := s.draftService.PrepareDraft(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}

	s.respond(w, code, map[string]draftResponse{"draft": toDraftResponse(draft)})
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getDraft"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	draft, err := s.draftService.GetDraft(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]draftResponse{"draft": toDraftResponse(draft)})
}

func (s *Server) updateDraft(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.updateDraft"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req updateDraftRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	draft, err := s.draftService.UpdateDraft(r.Context(), actorFrom(r.Context()), id, req.Fields, req.AlwaysSave)
	if err != nil {
		var fieldErrs apperrors.FieldErrors
		if errors.As(err, &fieldErrs) && draft != nil {
			// always_save: the valid fields were persisted; report the rest
			// alongside the resulting draft.
			s.respond(w, http.StatusBadRequest, map[string]any{
				"err": apiError{
					Code:    codeInvalidFormData,
					Message: "one or more fields had errors",
				},
				"fields": fieldErrs,
				"draft":  toDraftResponse(draft),
			})

			return
		}

		s.handleServiceError(w, r, op, err)

		return
	}

	s.respond(w, http.StatusOK, map[string]draftResponse{"draft": toDraftResponse(draft)})
}

func (s *Server) deleteDraft(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteDraft"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.draftService.DeleteDraft(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) publishDraft(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.publishDraft"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	rr, err := s.draftService.PublishDraft(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewRequestResponse{"review_request": toReviewRequestResponse(rr)})
}

func (s *Server) uploadDiff(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.uploadDiff"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req uploadDiffRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var parentDiff []byte
	if req.ParentDiff != "" {
		parentDiff = []byte(req.ParentDiff)
	}

	ds, err := s.draftService.UploadDiff(r.Context(), actorFrom(r.Context()), id, []byte(req.Path), parentDiff)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]diffSetResponse{"diffset": toDiffSetResponse(ds)})
}

func (s *Server) uploadScreenshot(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.uploadScreenshot"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	var req uploadScreenshotRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		s.handleServiceError(w, r, op, apperrors.FieldErrors{"file": {"could not decode image data"}})
		return
	}

	shot, err := s.draftService.UploadScreenshot(r.Context(), actorFrom(r.Context()), id, req.Caption, image)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]screenshotResponse{"screenshot": toScreenshotResponse(shot)})
}
