// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"runtime"
	"strings"
)

// OriginFunc labels the subsystem responsible for the current call. It is a
// best-effort capability: implementations return a label, never fail.
type OriginFunc func() string

// defaultOriginSkips are package path fragments that must never win
// attribution: the analytics module itself and mail transport plumbing are
// carriers, not originators.
var defaultOriginSkips = []string{
	"netlytics/internal/listeners",
	"netlytics/internal/bus",
	"net/smtp",
	"mail",
}

// CallerOrigin walks the call frames and returns the first package outside
// the skip list, reduced to its last path element. Falls back to "platform"
// when nothing qualifies.
func CallerOrigin() string {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !skippedOrigin(frame.Function) {
			return originLabel(frame.Function)
		}
		if !more {
			break
		}
	}
	return "platform"
}

func skippedOrigin(function string) bool {
	if strings.HasPrefix(function, "runtime.") || strings.HasPrefix(function, "testing.") {
		return true
	}
	for _, skip := range defaultOriginSkips {
		if strings.Contains(function, skip) {
			return true
		}
	}
	return false
}

// originLabel reduces "host/org/repo/pkg.Func" to "pkg".
func originLabel(function string) string {
	slash := strings.LastIndex(function, "/")
	tail := function[slash+1:]
	if dot := strings.Index(tail, "."); dot > 0 {
		return tail[:dot]
	}
	return tail
}
