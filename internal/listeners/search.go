// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"context"
	"log/slog"
	"strings"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/domain"
)

// SearchListener records site searches. Blank queries are noise and are
// dropped before they reach the recorder.
type SearchListener struct {
	tracker Tracker
	logger  *slog.Logger
}

func NewSearchListener(tracker Tracker, logger *slog.Logger) *SearchListener {
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchListener{
		tracker: tracker,
		logger:  logger,
	}
}

func (l *SearchListener) Handle(ctx context.Context, payload any) {
	search, ok := payload.(bus.SearchPerformed)
	if !ok {
		l.logger.Warn("search listener received unexpected payload type")
		return
	}

	if strings.TrimSpace(search.Term) == "" {
		return
	}

	if _, err := l.tracker.Record(ctx, domain.EventSearch, map[string]any{
		"search_term":  search.Term,
		"result_count": search.ResultCount,
	}, search.Referer); err != nil {
		l.logger.Warn("search tracking failed", "error", err)
	}
}
