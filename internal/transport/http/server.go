// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/akulikov/review-request-service/internal/apperrors"
	"github.com/akulikov/review-request-service/internal/config"
	"github.com/akulikov/review-request-service/internal/service"
	"github.com/akulikov/review-request-service/internal/validation"
	"github.com/akulikov/review-request-service/pkg/logger/sl"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// apiErrorCode identifies a failure class to API clients, independent of the
// HTTP status code.
type apiErrorCode string

const (
	codeDoesNotExist        apiErrorCode = "DOES_NOT_EXIST"
	codePermissionDenied    apiErrorCode = "PERMISSION_DENIED"
	codeInvalidFormData     apiErrorCode = "INVALID_FORM_DATA"
	codeInvalidAttribute    apiErrorCode = "INVALID_ATTRIBUTE"
	codeInvalidRepository   apiErrorCode = "INVALID_REPOSITORY"
	codeRepoFileNotFound    apiErrorCode = "REPO_FILE_NOT_FOUND"
	codeInvalidChangeNumber apiErrorCode = "INVALID_CHANGE_NUMBER"
	codeChangeNumberInUse   apiErrorCode = "CHANGE_NUMBER_IN_USE"
	codeEmptyChangeset      apiErrorCode = "EMPTY_CHANGESET"
	codeNothingToPublish    apiErrorCode = "NOTHING_TO_PUBLISH"
)

type apiError struct {
	Code    apiErrorCode `json:"code"`
	Message string       `json:"message"`
}

// errorResponse is the error envelope. Fields carries per-field messages for
// INVALID_FORM_DATA; Info carries extra context for codes that have it (the
// conflicting review request for CHANGE_NUMBER_IN_USE, the file and revision
// for REPO_FILE_NOT_FOUND).
type errorResponse struct {
	Err    apiError            `json:"err"`
	Fields map[string][]string `json:"fields,omitempty"`
	Info   map[string]any      `json:"info,omitempty"`
}

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log            *slog.Logger
	site           config.Site
	requestService service.ReviewRequestService
	draftService   service.DraftService
	reviewService  service.ReviewService
	commentService service.CommentService
	userService    service.UserService
}

// NewServer creates a new instance of the HTTP server.
func NewServer(
	log *slog.Logger,
	site config.Site,
	rrs service.ReviewRequestService,
	ds service.DraftService,
	rs service.ReviewService,
	cs service.CommentService,
	us service.UserService,
) *Server {
	return &Server{
		log:            log,
		site:           site,
		requestService: rrs,
		draftService:   ds,
		reviewService:  rs,
		commentService: cs,
		userService:    us,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(r chi.Router) {
		r.Use(s.resolveActor)

		r.Route("/review-requests", func(r chi.Router) {
			r.Get("/", s.listReviewRequests)
			r.Post("/", s.createReviewRequest)

			r.Route("/{reviewRequestID}", func(r chi.Router) {
				r.Get("/", s.getReviewRequest)
				r.Delete("/", s.deleteReviewRequest)
				r.Post("/close", s.closeReviewRequest)
				r.Post("/reopen", s.reopenReviewRequest)
				r.Post("/publish", s.publishDraft)
				r.Post("/star", s.starReviewRequest)
				r.Delete("/star", s.unstarReviewRequest)

				r.Route("/draft", func(r chi.Router) {
					r.Post("/", s.prepareDraft)
					r.Get("/", s.getDraft)
					r.Put("/", s.updateDraft)
					r.Delete("/", s.deleteDraft)
				})

				r.Route("/diffs", func(r chi.Router) {
					r.Get("/", s.listDiffSets)
					r.Post("/", s.uploadDiff)
					r.Get("/{revision}", s.getDiffSet)
					r.Get("/{revision}/files", s.listFileDiffs)
				})

				r.Route("/screenshots", func(r chi.Router) {
					r.Get("/", s.listScreenshots)
					r.Post("/", s.uploadScreenshot)
				})

				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", s.listReviews)
					r.Post("/", s.getOrCreateReview)
					r.Get("/draft", s.getPendingReview)

					r.Route("/{reviewID}", func(r chi.Router) {
						r.Get("/", s.getReview)
						r.Put("/", s.updateReview)
						r.Delete("/", s.deleteReview)
						r.Post("/publish", s.publishReview)
						r.Post("/diff-comments", s.createDiffComment)
						r.Post("/screenshot-comments", s.createScreenshotComment)

						r.Route("/replies", func(r chi.Router) {
							r.Get("/", s.listReplies)
							r.Post("/", s.getOrCreateReply)
							r.Get("/draft", s.getPendingReply)
						})
					})
				})

				r.Route("/diff-comments", func(r chi.Router) {
					r.Get("/", s.listDiffComments)
					r.Get("/{commentID}", s.getDiffComment)
					r.Delete("/{commentID}", s.deleteDiffComment)
				})

				r.Route("/screenshot-comments", func(r chi.Router) {
					r.Get("/", s.listScreenshotComments)
					r.Get("/{commentID}", s.getScreenshotComment)
					r.Delete("/{commentID}", s.deleteScreenshotComment)
				})
			})
		})

		r.Route("/groups/{groupName}", func(r chi.Router) {
			r.Post("/star", s.starGroup)
			r.Delete("/star", s.unstarGroup)
		})
	})

	return mux
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// respondAPIError formats and sends a structured error response.
func (s *Server) respondAPIError(w http.ResponseWriter, code int, apiCode apiErrorCode, message string) {
	s.respond(w, code, errorResponse{
		Err: apiError{
			Code:    apiCode,
			Message: message,
		},
	})
}

// decodeAndValidate is a helper that deserializes a JSON request body into a struct
// and then runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// pathID parses a numeric URL parameter.
func (s *Server) pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", apperrors.ErrInvalidRequest, name)
	}

	return id, nil
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
// Typed errors are matched before the sentinels they alias: a
// ChangeNumberInUseError is also an ErrConflict, an InvalidRepositoryError is
// also an ErrNotFound.
func (s *Server) handleServiceError(w http.ResponseWriter, _ *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op))
	log.Error("service error occurred", sl.Err(err))

	var (
		validationErr  *validation.ValidationError
		fieldErrs      apperrors.FieldErrors
		changeNumErr   *apperrors.ChangeNumberInUseError
		invalidRepoErr *apperrors.InvalidRepositoryError
		repoFileErr    *apperrors.RepoFileNotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		s.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request body")
	case errors.As(err, &fieldErrs):
		s.respond(w, http.StatusBadRequest, errorResponse{
			Err: apiError{
				Code:    codeInvalidFormData,
				Message: "one or more fields had errors",
			},
			Fields: fieldErrs,
		})
	case errors.As(err, &changeNumErr):
		s.respond(w, http.StatusConflict, errorResponse{
			Err: apiError{
				Code:    codeChangeNumberInUse,
				Message: changeNumErr.Error(),
			},
			Info: map[string]any{"review_request_id": changeNumErr.ReviewRequestID},
		})
	case errors.As(err, &invalidRepoErr):
		s.respondAPIError(w, http.StatusBadRequest, codeInvalidRepository, invalidRepoErr.Error())
	case errors.As(err, &repoFileErr):
		s.respond(w, http.StatusBadRequest, errorResponse{
			Err: apiError{
				Code:    codeRepoFileNotFound,
				Message: repoFileErr.Error(),
			},
			Info: map[string]any{"file": repoFileErr.Path, "revision": repoFileErr.Revision},
		})
	case errors.Is(err, apperrors.ErrInvalidChangeNumber):
		s.respondAPIError(w, http.StatusBadRequest, codeInvalidChangeNumber, "the change number does not represent a valid change")
	case errors.Is(err, apperrors.ErrEmptyChangeSet):
		s.respondAPIError(w, http.StatusBadRequest, codeEmptyChangeset, "the change number does not represent a changeset with any data")
	case errors.Is(err, apperrors.ErrNothingToPublish):
		s.respondAPIError(w, http.StatusConflict, codeNothingToPublish, "there is no draft to publish")
	case errors.Is(err, apperrors.ErrInvalidStatus), errors.Is(err, apperrors.ErrInvalidCloseType):
		s.respondAPIError(w, http.StatusBadRequest, codeInvalidAttribute, err.Error())
	case errors.Is(err, apperrors.ErrPermissionDenied):
		s.respondAPIError(w, http.StatusForbidden, codePermissionDenied, "you don't have permission for this")
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondAPIError(w, http.StatusNotFound, codeDoesNotExist, "object does not exist")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
