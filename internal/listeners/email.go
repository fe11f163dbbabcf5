// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"context"
	"log/slog"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/domain"
)

// EmailListener records delivery outcomes from the platform's mail
// transport, attributing each send to the subsystem that triggered it.
type EmailListener struct {
	tracker Tracker
	logger  *slog.Logger
	origin  OriginFunc
}

func NewEmailListener(tracker Tracker, logger *slog.Logger, origin OriginFunc) *EmailListener {
	if logger == nil {
		logger = slog.Default()
	}
	if origin == nil {
		origin = CallerOrigin
	}

	return &EmailListener{
		tracker: tracker,
		logger:  logger,
		origin:  origin,
	}
}

func (l *EmailListener) HandleSent(ctx context.Context, payload any) {
	mail, ok := payload.(bus.MailSent)
	if !ok {
		l.logger.Warn("email listener received unexpected payload type")
		return
	}

	if _, err := l.tracker.Record(ctx, domain.EventEmailSent, map[string]any{
		"to":      mail.To,
		"subject": mail.Subject,
		"context": l.origin(),
	}, ""); err != nil {
		l.logger.Warn("email sent tracking failed", "error", err)
	}
}

func (l *EmailListener) HandleFailed(ctx context.Context, payload any) {
	mail, ok := payload.(bus.MailFailed)
	if !ok {
		l.logger.Warn("email listener received unexpected payload type")
		return
	}

	if _, err := l.tracker.Record(ctx, domain.EventEmailFailed, map[string]any{
		"to":      mail.To,
		"subject": mail.Subject,
		"error":   mail.Error,
		"context": l.origin(),
	}, ""); err != nil {
		l.logger.Warn("email failure tracking failed", "error", err)
	}
}
