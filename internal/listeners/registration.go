// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"context"
	"log/slog"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/domain"
)

// RegistrationListener records new account creations.
type RegistrationListener struct {
	tracker Tracker
	logger  *slog.Logger
}

func NewRegistrationListener(tracker Tracker, logger *slog.Logger) *RegistrationListener {
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistrationListener{
		tracker: tracker,
		logger:  logger,
	}
}

func (l *RegistrationListener) Handle(ctx context.Context, payload any) {
	reg, ok := payload.(bus.UserRegistered)
	if !ok {
		l.logger.Warn("registration listener received unexpected payload type")
		return
	}

	if _, err := l.tracker.Record(ctx, domain.EventUserRegistration, map[string]any{
		"user_id": reg.UserID,
		"source":  reg.Source,
		"method":  reg.Method,
	}, reg.Page); err != nil {
		l.logger.Warn("registration tracking failed", "user_id", reg.UserID, "error", err)
	}
}
