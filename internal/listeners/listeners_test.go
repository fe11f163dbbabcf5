// SPDX-License-Identifier: Apache-2.0

package listeners

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/config"
)

type trackedCall struct {
	EventType string
	EventData map[string]any
	SourceURL string
}

type mockTracker struct {
	calls     []trackedCall
	recordErr error
}

func (m *mockTracker) Record(ctx context.Context, eventType string, eventData map[string]any, sourceURL string) (int64, error) {
	m.calls = append(m.calls, trackedCall{
		EventType: eventType,
		EventData: eventData,
		SourceURL: sourceURL,
	})
	if m.recordErr != nil {
		return 0, m.recordErr
	}
	return int64(len(m.calls)), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSearchListenerDropsBlankTerms(t *testing.T) {
	tracker := &mockTracker{}
	l := NewSearchListener(tracker, discardLogger())

	l.Handle(context.Background(), bus.SearchPerformed{Term: "  ", ResultCount: 3, Referer: "https://x"})
	l.Handle(context.Background(), bus.SearchPerformed{Term: "", ResultCount: 0})

	if len(tracker.calls) != 0 {
		t.Fatalf("expected no events for blank terms, got %d", len(tracker.calls))
	}
}

func TestSearchListenerRecordsShapedPayload(t *testing.T) {
	tracker := &mockTracker{}
	l := NewSearchListener(tracker, discardLogger())

	l.Handle(context.Background(), bus.SearchPerformed{
		Term:        "tour dates",
		ResultCount: 12,
		Referer:     "https://x/y",
	})

	if len(tracker.calls) != 1 {
		t.Fatalf("expected one event, got %d", len(tracker.calls))
	}
	call := tracker.calls[0]
	if call.EventType != "search" {
		t.Fatalf("expected search event, got %s", call.EventType)
	}
	want := map[string]any{"search_term": "tour dates", "result_count": 12}
	if !reflect.DeepEqual(call.EventData, want) {
		t.Fatalf("expected %v got %v", want, call.EventData)
	}
	if call.SourceURL != "https://x/y" {
		t.Fatalf("expected referer as source url, got %s", call.SourceURL)
	}
}

func TestSearchListenerSwallowsTrackerFailure(t *testing.T) {
	tracker := &mockTracker{recordErr: errors.New("insert failed")}
	l := NewSearchListener(tracker, discardLogger())

	// Must not panic: tracking never breaks the feature that fired it.
	l.Handle(context.Background(), bus.SearchPerformed{Term: "ok", ResultCount: 1})

	if len(tracker.calls) != 1 {
		t.Fatalf("expected the record attempt, got %d", len(tracker.calls))
	}
}

func TestSearchListenerIgnoresForeignPayload(t *testing.T) {
	tracker := &mockTracker{}
	l := NewSearchListener(tracker, discardLogger())

	l.Handle(context.Background(), "not a search")
	if len(tracker.calls) != 0 {
		t.Fatalf("expected no events for foreign payload, got %d", len(tracker.calls))
	}
}

func TestNewsletterListenerShape(t *testing.T) {
	tracker := &mockTracker{}
	l := NewNewsletterListener(tracker, discardLogger())

	l.Handle(context.Background(), bus.NewsletterSubscribed{
		Context:   "homepage",
		ListID:    "list-7",
		SourceURL: "https://site/a",
	})

	if len(tracker.calls) != 1 {
		t.Fatalf("expected one event, got %d", len(tracker.calls))
	}
	call := tracker.calls[0]
	if call.EventType != "newsletter_signup" {
		t.Fatalf("expected newsletter_signup, got %s", call.EventType)
	}
	want := map[string]any{"context": "homepage", "list_id": "list-7"}
	if !reflect.DeepEqual(call.EventData, want) {
		t.Fatalf("expected %v got %v", want, call.EventData)
	}
	if call.SourceURL != "https://site/a" {
		t.Fatalf("unexpected source url %s", call.SourceURL)
	}
}

func TestRegistrationListenerShape(t *testing.T) {
	tracker := &mockTracker{}
	l := NewRegistrationListener(tracker, discardLogger())

	l.Handle(context.Background(), bus.UserRegistered{
		UserID: 42,
		Page:   "https://site/register",
		Source: "web",
		Method: "form",
	})

	if len(tracker.calls) != 1 {
		t.Fatalf("expected one event, got %d", len(tracker.calls))
	}
	call := tracker.calls[0]
	if call.EventType != "user_registration" {
		t.Fatalf("expected user_registration, got %s", call.EventType)
	}
	want := map[string]any{"user_id": int64(42), "source": "web", "method": "form"}
	if !reflect.DeepEqual(call.EventData, want) {
		t.Fatalf("expected %v got %v", want, call.EventData)
	}
	if call.SourceURL != "https://site/register" {
		t.Fatalf("unexpected source url %s", call.SourceURL)
	}
}

func TestNotFoundListenerIgnoredPrefix(t *testing.T) {
	tracker := &mockTracker{}
	l := NewNotFoundListener(tracker, discardLogger(), []string{"/event/"}, "salt")

	// Ignored prefix wins regardless of user agent.
	for _, ua := range []string{"Mozilla/5.0 Chrome", "Googlebot/2.1", ""} {
		l.Handle(context.Background(), bus.RequestNotFound{
			Path:      "/event/foo",
			UserAgent: ua,
			RemoteIP:  "203.0.113.9",
		})
	}

	if len(tracker.calls) != 0 {
		t.Fatalf("expected no events for ignored prefix, got %d", len(tracker.calls))
	}
}

func TestNotFoundListenerSkipsBots(t *testing.T) {
	tracker := &mockTracker{}
	l := NewNotFoundListener(tracker, discardLogger(), nil, "salt")

	bots := []string{
		"",
		"Googlebot/2.1 (+http://www.google.com/bot.html)",
		"Mozilla/5.0 AppleWebKit HeadlessChrome/120.0",
		"curl/8.4.0",
		"python-requests/2.31",
		"Screaming Frog SEO Spider",
	}
	for _, ua := range bots {
		l.Handle(context.Background(), bus.RequestNotFound{
			Path:      "/missing-page",
			UserAgent: ua,
			RemoteIP:  "203.0.113.9",
		})
	}

	if len(tracker.calls) != 0 {
		t.Fatalf("expected bots to be skipped, got %d events", len(tracker.calls))
	}
}

func TestNotFoundListenerRecordsWithHashedIP(t *testing.T) {
	tracker := &mockTracker{}
	l := NewNotFoundListener(tracker, discardLogger(), []string{"/event/"}, "salt")

	l.Handle(context.Background(), bus.RequestNotFound{
		Path:      "/missing-page",
		Referer:   "https://elsewhere/z",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) Chrome/126.0",
		RemoteIP:  "203.0.113.9",
	})

	if len(tracker.calls) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(tracker.calls))
	}
	call := tracker.calls[0]
	if call.EventType != "404_error" {
		t.Fatalf("expected 404_error, got %s", call.EventType)
	}
	if call.EventData["requested_url"] != "/missing-page" {
		t.Fatalf("unexpected requested_url %v", call.EventData["requested_url"])
	}
	if call.EventData["referer"] != "https://elsewhere/z" {
		t.Fatalf("unexpected referer %v", call.EventData["referer"])
	}

	ipHash, _ := call.EventData["ip_hash"].(string)
	if ipHash == "" {
		t.Fatal("expected ip_hash to be set")
	}
	if ipHash == "203.0.113.9" {
		t.Fatal("raw IP must never be stored")
	}
	if len(ipHash) != 64 {
		t.Fatalf("expected sha-256 hex digest, got %q", ipHash)
	}

	// Same input hashes identically; different salt diverges.
	if hashIP("203.0.113.9", "salt") != ipHash {
		t.Fatal("expected deterministic ip hash")
	}
	if hashIP("203.0.113.9", "other") == ipHash {
		t.Fatal("expected salt to vary the hash")
	}
}

func TestEmailListenerAttributesOrigin(t *testing.T) {
	tracker := &mockTracker{}
	l := NewEmailListener(tracker, discardLogger(), func() string { return "newsletter" })

	l.HandleSent(context.Background(), bus.MailSent{To: "a@b.c", Subject: "hi"})
	l.HandleFailed(context.Background(), bus.MailFailed{To: "a@b.c", Subject: "hi", Error: "smtp timeout"})

	if len(tracker.calls) != 2 {
		t.Fatalf("expected two events, got %d", len(tracker.calls))
	}

	sent := tracker.calls[0]
	if sent.EventType != "email_sent" {
		t.Fatalf("expected email_sent, got %s", sent.EventType)
	}
	if sent.EventData["context"] != "newsletter" {
		t.Fatalf("expected injected origin, got %v", sent.EventData["context"])
	}

	failed := tracker.calls[1]
	if failed.EventType != "email_failed" {
		t.Fatalf("expected email_failed, got %s", failed.EventType)
	}
	if failed.EventData["error"] != "smtp timeout" {
		t.Fatalf("expected error detail, got %v", failed.EventData["error"])
	}
}

func TestCallerOriginNeverEmpty(t *testing.T) {
	if got := CallerOrigin(); got == "" {
		t.Fatal("expected best-effort origin label, got empty string")
	}
}

func TestRegisterAllTogglesAreIndependent(t *testing.T) {
	tracker := &mockTracker{}
	b := bus.New()

	cfg := config.Config{
		TrackNewsletter:   true,
		TrackRegistration: true,
		TrackSearch:       false,
		TrackNotFound:     true,
		TrackEmail:        true,
	}

	RegisterAll(Deps{
		Bus:     b,
		Tracker: tracker,
		Logger:  discardLogger(),
		Config:  cfg,
		Origin:  func() string { return "test" },
	})

	ctx := context.Background()
	b.Publish(ctx, bus.TopicSearchPerformed, bus.SearchPerformed{Term: "suppressed", ResultCount: 1})
	b.Publish(ctx, bus.TopicRequestNotFound, bus.RequestNotFound{
		Path:      "/missing",
		UserAgent: "Mozilla/5.0 Chrome/126.0",
		RemoteIP:  "203.0.113.9",
	})
	b.Publish(ctx, bus.TopicNewsletterSubscribed, bus.NewsletterSubscribed{Context: "homepage", ListID: "l"})

	if len(tracker.calls) != 2 {
		t.Fatalf("expected 2 events with search disabled, got %d", len(tracker.calls))
	}
	for _, call := range tracker.calls {
		if call.EventType == "search" {
			t.Fatal("disabled search listener must not record")
		}
	}
}
