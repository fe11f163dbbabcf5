// SPDX-License-Identifier: Apache-2.0

package domain

import "strings"

// SafeKey lowercases s and strips everything outside [a-z0-9_-]. Event types
// pass through this before storage and again before being used in query
// predicates, so caller-supplied strings can never widen into SQL text.
func SafeKey(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
