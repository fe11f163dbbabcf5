// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netlytics/netlytics/internal/auth"
	"github.com/netlytics/netlytics/internal/domain"
	"github.com/netlytics/netlytics/internal/metrics"
	"github.com/netlytics/netlytics/internal/transport/middleware"
)

// defaultSummaryWindowDays bounds the summary endpoint when the caller does
// not pick a window. days=0 means all time.
const defaultSummaryWindowDays = 30

// defaultBeaconLimitPerMinute throttles the unauthenticated view beacon
// per client address.
const defaultBeaconLimitPerMinute = 60

type recordEventRequest struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	SourceURL string         `json:"source_url"`
	SiteID    int64          `json:"site_id"`
	UserID    int64          `json:"user_id"`
}

type trackViewRequest struct {
	SiteID int64 `json:"site_id"`
	PostID int64 `json:"post_id"`
}

type Deps struct {
	Events      EventLister
	Recorder    EventWriter
	Views       ViewCounter
	Health      HealthChecker
	Logger      *slog.Logger
	AdminToken  string
	BeaconLimit int
	Version     string
	Commit      string
	BuildDate   string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")
	beaconLimit := deps.BeaconLimit
	if beaconLimit <= 0 {
		beaconLimit = defaultBeaconLimitPerMinute
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health.Check(r.Context()); err != nil {
				logger.Warn("health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- VIEW BEACON ----------------

	// Unauthenticated by design: browsers fire it via sendBeacon on page
	// unload. Always answers quickly, never leaks storage failures.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ClientRateLimit(beaconLimit))

		r.Post("/track/view", func(w http.ResponseWriter, r *http.Request) {
			reqBody, err := decodeTrackViewRequest(r)
			if err != nil || reqBody.PostID <= 0 {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			if deps.Views != nil {
				if err := deps.Views.IncrementPostView(r.Context(), reqBody.SiteID, reqBody.PostID); err != nil {
					logger.Warn("view beacon write failed",
						"site_id", reqBody.SiteID,
						"post_id", reqBody.PostID,
						"error", err,
					)
				}
			}

			w.WriteHeader(http.StatusNoContent)
		})
	})

	// ---------------- DASHBOARD (ADMIN) ----------------

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminTokenAuth(deps.AdminToken, logger))

		// ---------------- LIST EVENTS ----------------

		r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
			filter, opts := parseListQuery(r)

			events, err := deps.Events.List(r.Context(), filter, opts)
			if err != nil {
				logger.Error("list events failed", "error", err)
				events = nil
			}
			if events == nil {
				events = []domain.Event{}
			}

			total, err := deps.Events.Count(r.Context(), filter)
			if err != nil {
				logger.Error("count events failed", "error", err)
				total = 0
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"events": events,
				"total":  total,
			})
		})

		// ---------------- EVENT METADATA ----------------

		r.Get("/events/meta", func(w http.ResponseWriter, r *http.Request) {
			types, err := deps.Events.DistinctEventTypes(r.Context())
			if err != nil {
				logger.Error("list event types failed", "error", err)
				types = nil
			}
			if types == nil {
				types = []string{}
			}

			sites, err := deps.Events.SitesWithEvents(r.Context())
			if err != nil {
				logger.Error("list event sites failed", "error", err)
				sites = nil
			}
			if sites == nil {
				sites = []int64{}
			}

			writeJSON(w, http.StatusOK, map[string]any{
				"event_types": types,
				"sites":       sites,
			})
		})

		// ---------------- EVENT SUMMARY ----------------

		r.Get("/events/summary", func(w http.ResponseWriter, r *http.Request) {
			eventType := domain.SafeKey(r.URL.Query().Get("event_type"))
			if eventType == "" {
				http.Error(w, "event_type is required", http.StatusBadRequest)
				return
			}

			days := defaultSummaryWindowDays
			if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed < 0 {
					http.Error(w, "invalid days", http.StatusBadRequest)
					return
				}
				days = parsed
			}
			siteID := parseInt64Query(r, "site_id")

			stats, err := deps.Events.Stats(r.Context(), eventType, days, siteID)
			if err != nil {
				logger.Error("event summary failed", "event_type", eventType, "error", err)
				stats = domain.EventStats{}
			}
			if stats.ByDate == nil {
				stats.ByDate = []domain.DateCount{}
			}
			if stats.BySource == nil {
				stats.BySource = []domain.SourceCount{}
			}
			if stats.ByContext == nil {
				stats.ByContext = []domain.ContextCount{}
			}

			writeJSON(w, http.StatusOK, stats)
		})

		// ---------------- RECORD EVENT ----------------

		r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
			reqBody, err := decodeRecordEventRequest(r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			ctx := auth.WithSiteID(r.Context(), reqBody.SiteID)
			if reqBody.UserID > 0 {
				ctx = auth.WithUserID(ctx, reqBody.UserID)
			}
			// Preserve attribution on the current request pointer so outer
			// middleware (request logging) can read it after the handler returns.
			*r = *r.WithContext(ctx)

			eventID, err := deps.Recorder.Record(r.Context(), reqBody.EventType, reqBody.EventData, reqBody.SourceURL)
			if err != nil {
				if errors.Is(err, domain.ErrEmptyEventType) {
					http.Error(w, "invalid event type", http.StatusBadRequest)
					return
				}
				logger.Error("record event failed", "event_type", reqBody.EventType, "error", err)
				http.Error(w, "failed to record event", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, map[string]int64{
				"event_id": eventID,
			})
		})
	})

	return r
}

// parseListQuery maps dashboard query parameters onto the typed filter.
// Unknown or malformed values degrade to absent filters rather than 400s:
// the query builder already drops what it cannot use.
func parseListQuery(r *http.Request) (domain.EventFilter, domain.ListOptions) {
	q := r.URL.Query()

	filter := domain.EventFilter{
		Types:    q["event_type"],
		SiteID:   parseInt64Query(r, "site_id"),
		UserID:   parseInt64Query(r, "user_id"),
		DateFrom: strings.TrimSpace(q.Get("date_from")),
		DateTo:   strings.TrimSpace(q.Get("date_to")),
		Search:   q.Get("search"),
	}

	opts := domain.ListOptions{
		OrderBy: strings.TrimSpace(q.Get("order_by")),
		Order:   strings.TrimSpace(q.Get("order")),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = offset
	}

	return filter, opts
}

func parseInt64Query(r *http.Request, name string) int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeRecordEventRequest(r *http.Request) (recordEventRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return recordEventRequest{}, errors.New("empty request body")
	}

	var req recordEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return recordEventRequest{}, err
	}

	// Ensure there is only one JSON object.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return recordEventRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	req.EventType = strings.TrimSpace(req.EventType)
	req.SourceURL = strings.TrimSpace(req.SourceURL)
	return req, nil
}

func decodeTrackViewRequest(r *http.Request) (trackViewRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return trackViewRequest{}, errors.New("empty request body")
	}

	// sendBeacon payloads arrive as text/plain, so the content type is not
	// checked, only the shape.
	var req trackViewRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return trackViewRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return trackViewRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	return req, nil
}

func valueOrDefault(value, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	return trimmed
}
