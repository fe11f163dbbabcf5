// SPDX-License-Identifier: Apache-2.0

// Package listeners maps domain occurrences published on the in-process bus
// to analytics event rows. Each listener is a pure translation: it shapes a
// payload and hands it to the recorder with a fixed event type. Listeners
// never validate domain rules, never filter each other, and never let a
// tracking failure escape to the feature that fired the event.
package listeners

import (
	"context"
	"log/slog"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/config"
)

// Tracker is the write contract listeners depend on, satisfied by
// repository.EventRecorder.
type Tracker interface {
	Record(ctx context.Context, eventType string, eventData map[string]any, sourceURL string) (int64, error)
}

type Deps struct {
	Bus     *bus.Bus
	Tracker Tracker
	Logger  *slog.Logger
	Config  config.Config

	// Origin labels the subsystem responsible for an outgoing email.
	// Nil falls back to call-frame attribution.
	Origin OriginFunc
}

// RegisterAll subscribes every enabled listener to its topic. Each toggle is
// independent: disabling one event type never suppresses the others.
func RegisterAll(deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if deps.Config.TrackNewsletter {
		l := NewNewsletterListener(deps.Tracker, logger)
		deps.Bus.Subscribe(bus.TopicNewsletterSubscribed, l.Handle)
	}

	if deps.Config.TrackRegistration {
		l := NewRegistrationListener(deps.Tracker, logger)
		deps.Bus.Subscribe(bus.TopicUserRegistered, l.Handle)
	}

	if deps.Config.TrackSearch {
		l := NewSearchListener(deps.Tracker, logger)
		deps.Bus.Subscribe(bus.TopicSearchPerformed, l.Handle)
	}

	if deps.Config.TrackNotFound {
		l := NewNotFoundListener(deps.Tracker, logger, deps.Config.NotFoundIgnorePrefixes, deps.Config.IPHashSalt)
		deps.Bus.Subscribe(bus.TopicRequestNotFound, l.Handle)
	}

	if deps.Config.TrackEmail {
		l := NewEmailListener(deps.Tracker, logger, deps.Origin)
		deps.Bus.Subscribe(bus.TopicMailSent, l.HandleSent)
		deps.Bus.Subscribe(bus.TopicMailFailed, l.HandleFailed)
	}
}
