// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"github.com/netlytics/netlytics/internal/domain"
)

type EventLister interface {
	List(ctx context.Context, filter domain.EventFilter, opts domain.ListOptions) ([]domain.Event, error)
	Count(ctx context.Context, filter domain.EventFilter) (int64, error)
	Stats(ctx context.Context, eventType string, windowDays int, siteID int64) (domain.EventStats, error)
	DistinctEventTypes(ctx context.Context) ([]string, error)
	SitesWithEvents(ctx context.Context) ([]int64, error)
}

type EventWriter interface {
	Record(ctx context.Context, eventType string, eventData map[string]any, sourceURL string) (int64, error)
}

type ViewCounter interface {
	IncrementPostView(ctx context.Context, siteID, postID int64) error
}

type HealthChecker interface {
	Check(ctx context.Context) error
}
