// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/netlytics/netlytics/internal/domain"
	"github.com/netlytics/netlytics/internal/metrics"
)

// ViewRepository keeps per-post view counters. Views are deliberately a
// counter upsert, not rows in the events table.
type ViewRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewViewRepository(pool *pgxpool.Pool, logger *slog.Logger) *ViewRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ViewRepository{
		pool:   pool,
		logger: logger,
	}
}

// IncrementPostView bumps the counter for one post, creating it on first
// view. The insert-or-update is a single statement, so concurrent beacons
// never lose counts.
func (r *ViewRepository) IncrementPostView(ctx context.Context, siteID, postID int64) error {
	if postID <= 0 {
		return domain.ErrMissingPostID
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO post_views (site_id, post_id, views)
		VALUES ($1, $2, 1)
		ON CONFLICT (site_id, post_id)
		DO UPDATE SET views = post_views.views + 1, updated_at = NOW()
	`, siteID, postID); err != nil {
		r.logger.Error("increment post view failed",
			"site_id", siteID,
			"post_id", postID,
			"error", err,
		)
		return err
	}

	metrics.IncPostViews()
	return nil
}

// PostViews returns the current counter for one post, zero when the post
// has never been viewed.
func (r *ViewRepository) PostViews(ctx context.Context, siteID, postID int64) (int64, error) {
	var views int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT views FROM post_views WHERE site_id = $1 AND post_id = $2),
			0
		)
	`, siteID, postID).Scan(&views)
	if err != nil {
		r.logger.Error("read post views failed",
			"site_id", siteID,
			"post_id", postID,
			"error", err,
		)
		return 0, err
	}

	return views, nil
}
