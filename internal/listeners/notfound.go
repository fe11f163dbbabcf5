// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/domain"
)

// botSignatures are matched as lowercase substrings against the user agent.
// An empty user agent counts as a bot too.
var botSignatures = []string{
	"bot",
	"crawl",
	"spider",
	"slurp",
	"mediapartners",
	"lighthouse",
	"pagespeed",
	"pingdom",
	"uptimerobot",
	"headlesschrome",
	"python-requests",
	"curl/",
	"wget/",
	"go-http-client",
	"apache-httpclient",
}

// NotFoundListener records 404s, minus ignored path prefixes and known
// crawlers. The client address is stored only as a salted one-way hash.
type NotFoundListener struct {
	tracker        Tracker
	logger         *slog.Logger
	ignorePrefixes []string
	hashSalt       string
}

func NewNotFoundListener(tracker Tracker, logger *slog.Logger, ignorePrefixes []string, hashSalt string) *NotFoundListener {
	if logger == nil {
		logger = slog.Default()
	}

	return &NotFoundListener{
		tracker:        tracker,
		logger:         logger,
		ignorePrefixes: ignorePrefixes,
		hashSalt:       hashSalt,
	}
}

func (l *NotFoundListener) Handle(ctx context.Context, payload any) {
	nf, ok := payload.(bus.RequestNotFound)
	if !ok {
		l.logger.Warn("404 listener received unexpected payload type")
		return
	}

	for _, prefix := range l.ignorePrefixes {
		if strings.HasPrefix(nf.Path, prefix) {
			return
		}
	}

	if isBot(nf.UserAgent) {
		return
	}

	if _, err := l.tracker.Record(ctx, domain.EventNotFound, map[string]any{
		"requested_url": nf.Path,
		"referer":       nf.Referer,
		"user_agent":    nf.UserAgent,
		"ip_hash":       hashIP(nf.RemoteIP, l.hashSalt),
	}, nf.Path); err != nil {
		l.logger.Warn("404 tracking failed", "path", nf.Path, "error", err)
	}
}

func isBot(userAgent string) bool {
	if userAgent == "" {
		return true
	}

	ua := strings.ToLower(userAgent)
	for _, signature := range botSignatures {
		if strings.Contains(ua, signature) {
			return true
		}
	}
	return false
}

// hashIP derives a stable, non-reversible token from a client address.
func hashIP(ip, salt string) string {
	sum := sha256.Sum256([]byte(salt + "|" + ip))
	return hex.EncodeToString(sum[:])
}
