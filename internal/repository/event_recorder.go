// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/netlytics/netlytics/internal/auth"
	"github.com/netlytics/netlytics/internal/domain"
	"github.com/netlytics/netlytics/internal/metrics"
)

// maxSourceURLLen matches the source_url column width.
const maxSourceURLLen = 2083

// TrackFilter lets deployments suppress individual events before they are
// written. Returning false drops the event; it is not a failure.
type TrackFilter func(eventType string, eventData map[string]any, sourceURL string) bool

// EventRecorder is the single write path into the events table.
type EventRecorder struct {
	pool        *pgxpool.Pool
	logger      *slog.Logger
	shouldTrack TrackFilter
}

func NewEventRecorder(pool *pgxpool.Pool, logger *slog.Logger) *EventRecorder {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventRecorder{
		pool:   pool,
		logger: logger,
	}
}

// SetTrackFilter installs an optional suppression hook consulted before
// every insert.
func (r *EventRecorder) SetTrackFilter(filter TrackFilter) {
	r.shouldTrack = filter
}

// Record validates and inserts exactly one event row. The event type is
// normalized to safe key form; the payload is serialized to JSON; site and
// user ids come from the request context (site 0 and no user are valid).
// Every rejection path inserts zero rows and reports through the returned
// error, never a panic: tracking must not break the feature that fired it.
func (r *EventRecorder) Record(ctx context.Context, eventType string, eventData map[string]any, sourceURL string) (int64, error) {
	key := domain.SafeKey(eventType)
	if key == "" {
		metrics.IncEventRecordFailure()
		return 0, domain.ErrEmptyEventType
	}

	if r.shouldTrack != nil && !r.shouldTrack(key, eventData, sourceURL) {
		r.logger.Debug("event suppressed by track filter", "event_type", key)
		return 0, nil
	}

	if eventData == nil {
		eventData = map[string]any{}
	}
	payload, err := json.Marshal(eventData)
	if err != nil {
		r.logger.Error("encode event data failed", "event_type", key, "error", err)
		metrics.IncEventRecordFailure()
		return 0, err
	}

	if len(sourceURL) > maxSourceURLLen {
		sourceURL = sourceURL[:maxSourceURLLen]
	}

	siteID, _ := auth.SiteIDFromContext(ctx)
	var userID *int64
	if id, ok := auth.UserIDFromContext(ctx); ok {
		userID = &id
	}

	var id int64
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO analytics_events (event_type, event_data, source_url, site_id, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		key,
		string(payload),
		sourceURL,
		siteID,
		userID,
	).Scan(&id); err != nil {
		r.logger.Error("record event failed",
			"event_type", key,
			"site_id", siteID,
			"error", err,
		)
		metrics.IncEventRecordFailure()
		return 0, err
	}

	metrics.IncEventRecorded(key)
	return id, nil
}
