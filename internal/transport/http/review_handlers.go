package http

import (
	"net/http"

	"github.com/akulikov/review-request-service/internal/service"
)

func (s *Server) getOrCreateReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getOrCreateReview"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	review, created, err := s.reviewService.GetOrCreateReview(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}

	s.respond(w, code, map[string]reviewResponse{"review": toReviewResponse(review)})
}

func (s *Server) getOrCreateReply(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getOrCreateReply"

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

	reply, created, err := s.reviewService.GetOrCreateReply(r.Context(), actorFrom(r.Context()), id, reviewID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}

	s.respond(w, code, map[string]reviewResponse{"reply": toReviewResponse(reply)})
}

func (s *Server) getPendingReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getPendingReview"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	review, err := s.reviewService.GetPendingReview(r.Context(), actorFrom(r.Context()), id, nil)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewResponse{"review": toReviewResponse(review)})
}

func (s *Server) getPendingReply(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getPendingReply"

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

	reply, err := s.reviewService.GetPendingReview(r.Context(), actorFrom(r.Context()), id, &reviewID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewResponse{"reply": toReviewResponse(reply)})
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getReview"

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

	review, err := s.reviewService.GetReview(r.Context(), actorFrom(r.Context()), id, reviewID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewResponse{"review": toReviewResponse(review)})
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.updateReview"

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

	var req updateReviewRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	review, err := s.reviewService.UpdateReview(r.Context(), actorFrom(r.Context()), id, reviewID, service.ReviewUpdate{
		ShipIt:     req.ShipIt,
		BodyTop:    req.BodyTop,
		BodyBottom: req.BodyBottom,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewResponse{"review": toReviewResponse(review)})
}

func (s *Server) publishReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.publishReview"

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

	review, err := s.reviewService.PublishReview(r.Context(), actorFrom(r.Context()), id, reviewID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]reviewResponse{"review": toReviewResponse(review)})
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.deleteReview"

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

	if err := s.reviewService.DeleteReview(r.Context(), actorFrom(r.Context()), id, reviewID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listReviews"

	id, err := s.pathID(r, "reviewRequestID")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	reviews, err := s.reviewService.ListReviews(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"reviews":       toReviewResponses(reviews),
		"total_results": len(reviews),
	})
}

func (s *Server) listReplies(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.listReplies"

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

	replies, err := s.reviewService.ListReplies(r.Context(), actorFrom(r.Context()), id, reviewID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"replies":       toReviewResponses(replies),
		"total_results": len(replies),
	})
}
