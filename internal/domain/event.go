// SPDX-License-Identifier: Apache-2.0

package domain

import "time"

// Well-known event types produced by the bundled listeners. The column is a
// free-form identifier namespace: new types need no schema change.
const (
	EventNewsletterSignup = "newsletter_signup"
	EventUserRegistration = "user_registration"
	EventSearch           = "search"
	EventNotFound         = "404_error"
	EventEmailSent        = "email_sent"
	EventEmailFailed      = "email_failed"
)

// KnownEventTypes lists the event types emitted by this module itself,
// used to pre-seed metric labels.
var KnownEventTypes = []string{
	EventNewsletterSignup,
	EventUserRegistration,
	EventSearch,
	EventNotFound,
	EventEmailSent,
	EventEmailFailed,
}

// Event is one recorded occurrence in the shared network-wide events table.
// Rows are append-only: nothing in this module updates or deletes them.
type Event struct {
	ID        int64          `json:"id"`
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
	SourceURL string         `json:"source_url"`
	SiteID    int64          `json:"site_id"`
	UserID    *int64         `json:"user_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// EventFilter selects events for list/count queries. Zero values mean
// "filter absent"; malformed values are dropped by the query builder rather
// than rejected, since this backs a best-effort reporting UI.
type EventFilter struct {
	// Types filters by one or more event types, each normalized to safe key
	// form before use.
	Types []string
	// SiteID and UserID are equality filters, applied only when > 0.
	SiteID int64
	UserID int64
	// DateFrom and DateTo are calendar dates (YYYY-MM-DD) with inclusive day
	// boundaries: DateFrom == DateTo selects that entire day.
	DateFrom string
	DateTo   string
	// Search is a literal substring match against the serialized event_data
	// text. LIKE metacharacters in the input are escaped, not interpreted.
	Search string
}

// Sortable columns for ListOptions.OrderBy. Anything else falls back to
// created_at; column names cannot be parameter-bound so the allow-list is
// the injection guard.
const (
	OrderByID        = "id"
	OrderByEventType = "event_type"
	OrderBySiteID    = "site_id"
	OrderByUserID    = "user_id"
	OrderByCreatedAt = "created_at"
)

const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// DefaultListLimit applies when the caller does not choose a page size.
const DefaultListLimit = 100

// ListOptions controls pagination and ordering of event list queries.
type ListOptions struct {
	Limit   int
	Offset  int
	OrderBy string
	Order   string
}

// DateCount is one time-series bucket of EventStats.
type DateCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// SourceCount is one source_url leaderboard row of EventStats.
type SourceCount struct {
	SourceURL string `json:"source_url"`
	Count     int64  `json:"count"`
}

// ContextCount groups events by the "context" key inside event_data.
type ContextCount struct {
	Context string `json:"context"`
	Count   int64  `json:"count"`
}

// EventStats aggregates one event type over an optional trailing window.
// The four members are views of the same filtered set.
type EventStats struct {
	Total     int64          `json:"total"`
	ByDate    []DateCount    `json:"by_date"`
	BySource  []SourceCount  `json:"by_source"`
	ByContext []ContextCount `json:"by_context"`
}
