// package notify delivers publish notifications. Dispatch failures are the
// caller's problem to log, never to abort on.
package notify

import (
	"context"
	"log/slog"

	"github.com/akulikov/review-request-service/internal/domain"
	"github.com/akulikov/review-request-service/internal/service"
)

// LogDispatcher records publish events in the structured log. It stands in
// for a mail dispatcher on sites with no outgoing mail configured.
type LogDispatcher struct {
	log *slog.Logger
}

var _ service.NotificationDispatcher = (*LogDispatcher)(nil)

func NewLogDispatcher(log *slog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) ReviewRequestPublished(_ context.Context, rr *domain.ReviewRequest) error {
	d.log.Info("review request published",
		slog.Int64("review_request_id", rr.ID),
		slog.Int64("submitter_id", rr.SubmitterID),
		slog.String("summary", rr.Summary),
	)

	return nil
}

func (d *LogDispatcher) ReviewPublished(_ context.Context, review *domain.Review) error {
	d.log.Info("review published",
		slog.Int64("review_id", review.ID),
		slog.Int64("review_request_id", review.ReviewRequestID),
		slog.Int64("user_id", review.UserID),
		slog.Bool("ship_it", review.ShipIt),
	)

	return nil
}
