// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"context"
	"log/slog"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/domain"
)

// NewsletterListener records mailing-list signups.
type NewsletterListener struct {
	tracker Tracker
	logger  *slog.Logger
}

func NewNewsletterListener(tracker Tracker, logger *slog.Logger) *NewsletterListener {
	if logger == nil {
		logger = slog.Default()
	}

	return &NewsletterListener{
		tracker: tracker,
		logger:  logger,
	}
}

func (l *NewsletterListener) Handle(ctx context.Context, payload any) {
	signup, ok := payload.(bus.NewsletterSubscribed)
	if !ok {
		l.logger.Warn("newsletter listener received unexpected payload type")
		return
	}

	if _, err := l.tracker.Record(ctx, domain.EventNewsletterSignup, map[string]any{
		"context": signup.Context,
		"list_id": signup.ListID,
	}, signup.SourceURL); err != nil {
		l.logger.Warn("newsletter signup tracking failed", "error", err)
	}
}
