// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/netlytics/netlytics/internal/domain"
)

// buildEventWhere turns an EventFilter into a parameterized WHERE clause.
// Every value travels as a bound parameter; event types are additionally
// reduced to safe key form before binding. Values that cannot be coerced
// (bad dates, empty types) drop their filter instead of failing the query:
// a broader result beats a rejected reporting request.
func buildEventWhere(filter domain.EventFilter) (string, []any) {
	clauses := make([]string, 0, 6)
	args := make([]any, 0, 8)

	if types := safeEventTypes(filter.Types); len(types) == 1 {
		args = append(args, types[0])
		clauses = append(clauses, fmt.Sprintf("event_type = $%d", len(args)))
	} else if len(types) > 1 {
		args = append(args, types)
		clauses = append(clauses, fmt.Sprintf("event_type = ANY($%d)", len(args)))
	}

	if filter.SiteID > 0 {
		args = append(args, filter.SiteID)
		clauses = append(clauses, fmt.Sprintf("site_id = $%d", len(args)))
	}

	if filter.UserID > 0 {
		args = append(args, filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}

	if from, ok := parseDay(filter.DateFrom); ok {
		args = append(args, from)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if to, ok := parseDay(filter.DateTo); ok {
		// Inclusive day boundary: date_from == date_to selects the whole day.
		args = append(args, to.Add(23*time.Hour+59*time.Minute+59*time.Second))
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		clauses = append(clauses, fmt.Sprintf("event_data LIKE $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func safeEventTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if key := domain.SafeKey(t); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// escapeLike neutralizes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// orderClause builds the ORDER BY fragment for list queries. Column names
// cannot be parameter-bound, so anything outside the allow-list silently
// becomes created_at and anything but ASC becomes DESC. The id tiebreak
// keeps pagination stable when the sort column has duplicates.
func orderClause(opts domain.ListOptions) string {
	column := domain.OrderByCreatedAt
	switch opts.OrderBy {
	case domain.OrderByID, domain.OrderByEventType, domain.OrderBySiteID,
		domain.OrderByUserID, domain.OrderByCreatedAt:
		column = opts.OrderBy
	}

	direction := domain.OrderDesc
	if strings.EqualFold(strings.TrimSpace(opts.Order), domain.OrderAsc) {
		direction = domain.OrderAsc
	}

	if column == domain.OrderByID {
		return fmt.Sprintf(" ORDER BY id %s", direction)
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

// pageBounds coerces limit and offset to usable values: negatives are
// clamped to zero and an unset limit falls back to the documented default.
func pageBounds(opts domain.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
