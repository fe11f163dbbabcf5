// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/netlytics/netlytics/internal/domain"
	"github.com/netlytics/netlytics/internal/metrics"
)

const eventColumns = "id, event_type, event_data, source_url, site_id, user_id, created_at"

// EventRepository is the read path over the events table: filtered lists,
// matching counts, grouped aggregates, and the metadata feeding the
// dashboard filter controls. It never writes.
type EventRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewEventRepository(pool *pgxpool.Pool, logger *slog.Logger) *EventRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventRepository{
		pool:   pool,
		logger: logger,
	}
}

// List returns matching events with event_data decoded back into a mapping.
// Ordering and pagination follow ListOptions; see orderClause and pageBounds
// for how unsafe values are normalized.
func (r *EventRepository) List(ctx context.Context, filter domain.EventFilter, opts domain.ListOptions) ([]domain.Event, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveEventQueryDuration("list", time.Since(started))
	}()

	where, args := buildEventWhere(filter)
	limit, offset := pageBounds(opts)
	args = append(args, limit, offset)

	query := fmt.Sprintf("SELECT %s FROM analytics_events%s%s LIMIT $%d OFFSET $%d",
		eventColumns,
		where,
		orderClause(opts),
		len(args)-1,
		len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("list events query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Event, 0, limit)
	for rows.Next() {
		var ev domain.Event
		var rawData *string
		if err := rows.Scan(
			&ev.ID,
			&ev.EventType,
			&rawData,
			&ev.SourceURL,
			&ev.SiteID,
			&ev.UserID,
			&ev.CreatedAt,
		); err != nil {
			r.logger.Error("scan event row failed", "error", err)
			return nil, err
		}
		ev.EventData = decodeEventData(r.logger, rawData)
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("event rows iteration failed", "error", err)
		return nil, err
	}

	return out, nil
}

// Count returns the number of events matching filter. It shares the
// predicate builder with List so pagination totals always agree with the
// pages they describe.
func (r *EventRepository) Count(ctx context.Context, filter domain.EventFilter) (int64, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveEventQueryDuration("count", time.Since(started))
	}()

	where, args := buildEventWhere(filter)

	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM analytics_events"+where, args...).Scan(&count); err != nil {
		r.logger.Error("count events query failed", "error", err)
		return 0, err
	}

	return count, nil
}

// Stats aggregates one event type over an optional trailing window of days
// (0 means all time) and optional site. The four members are computed from
// the same base predicate: total, a daily time series, a top-20 source
// leaderboard, and counts grouped by the "context" key inside event_data.
// The context grouping is pushed into the database via jsonb extraction so
// rows are never deserialized in application code.
func (r *EventRepository) Stats(ctx context.Context, eventType string, windowDays int, siteID int64) (domain.EventStats, error) {
	started := time.Now()
	defer func() {
		metrics.ObserveEventQueryDuration("stats", time.Since(started))
	}()

	key := domain.SafeKey(eventType)
	if key == "" {
		return domain.EventStats{}, domain.ErrEmptyEventType
	}

	where := "WHERE event_type = $1"
	args := []any{key}

	if windowDays > 0 {
		args = append(args, time.Now().UTC().AddDate(0, 0, -windowDays))
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if siteID > 0 {
		args = append(args, siteID)
		where += fmt.Sprintf(" AND site_id = $%d", len(args))
	}

	stats := domain.EventStats{
		ByDate:    []domain.DateCount{},
		BySource:  []domain.SourceCount{},
		ByContext: []domain.ContextCount{},
	}

	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM analytics_events "+where,
		args...,
	).Scan(&stats.Total); err != nil {
		r.logger.Error("stats total query failed", "event_type", key, "error", err)
		return domain.EventStats{}, err
	}

	byDate, err := r.statsByDate(ctx, where, args)
	if err != nil {
		r.logger.Error("stats by date query failed", "event_type", key, "error", err)
		return domain.EventStats{}, err
	}
	stats.ByDate = byDate

	bySource, err := r.statsBySource(ctx, where, args)
	if err != nil {
		r.logger.Error("stats by source query failed", "event_type", key, "error", err)
		return domain.EventStats{}, err
	}
	stats.BySource = bySource

	byContext, err := r.statsByContext(ctx, where, args)
	if err != nil {
		r.logger.Error("stats by context query failed", "event_type", key, "error", err)
		return domain.EventStats{}, err
	}
	stats.ByContext = byContext

	return stats, nil
}

func (r *EventRepository) statsByDate(ctx context.Context, where string, args []any) ([]domain.DateCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT (created_at AT TIME ZONE 'UTC')::date AS day, COUNT(*)
		FROM analytics_events
		`+where+`
		GROUP BY day
		ORDER BY day DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DateCount, 0, 31)
	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		out = append(out, domain.DateCount{
			Date:  day.Format("2006-01-02"),
			Count: count,
		})
	}

	return out, rows.Err()
}

func (r *EventRepository) statsBySource(ctx context.Context, where string, args []any) ([]domain.SourceCount, error) {
	// Leaderboard, not exhaustive: empty sources excluded, top 20 only.
	rows, err := r.pool.Query(ctx, `
		SELECT source_url, COUNT(*)
		FROM analytics_events
		`+where+` AND source_url <> ''
		GROUP BY source_url
		ORDER BY COUNT(*) DESC
		LIMIT 20
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SourceCount, 0, 20)
	for rows.Next() {
		var sc domain.SourceCount
		if err := rows.Scan(&sc.SourceURL, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}

	return out, rows.Err()
}

func (r *EventRepository) statsByContext(ctx context.Context, where string, args []any) ([]domain.ContextCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_data::jsonb->>'context' AS context, COUNT(*)
		FROM analytics_events
		`+where+` AND event_data::jsonb->>'context' IS NOT NULL
		GROUP BY context
		ORDER BY COUNT(*) DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ContextCount, 0, 8)
	for rows.Next() {
		var cc domain.ContextCount
		if err := rows.Scan(&cc.Context, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}

	return out, rows.Err()
}

// DistinctEventTypes lists every event type that has at least one row,
// for populating dashboard filter controls.
func (r *EventRepository) DistinctEventTypes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT event_type
		FROM analytics_events
		ORDER BY event_type ASC
	`)
	if err != nil {
		r.logger.Error("distinct event types query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var eventType string
		if err := rows.Scan(&eventType); err != nil {
			return nil, err
		}
		out = append(out, eventType)
	}

	return out, rows.Err()
}

// SitesWithEvents lists every tenant that has recorded at least one event.
func (r *EventRepository) SitesWithEvents(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT site_id
		FROM analytics_events
		ORDER BY site_id ASC
	`)
	if err != nil {
		r.logger.Error("distinct sites query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]int64, 0, 8)
	for rows.Next() {
		var siteID int64
		if err := rows.Scan(&siteID); err != nil {
			return nil, err
		}
		out = append(out, siteID)
	}

	return out, rows.Err()
}

func decodeEventData(logger *slog.Logger, raw *string) map[string]any {
	if raw == nil || *raw == "" {
		return map[string]any{}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(*raw), &data); err != nil {
		logger.Warn("undecodable event_data, returning empty mapping", "error", err)
		return map[string]any{}
	}
	if data == nil {
		return map[string]any{}
	}
	return data
}
