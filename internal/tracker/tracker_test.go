package tracker

import (
	"fmt"
	"testing"
	"time"
)

func TestFingerprintIsStableAndShort(t *testing.T) {
	a := Fingerprint("curl/8.0", "*/*", "gzip", "en-US", "10.0.0.1")
	b := Fingerprint("curl/8.0", "*/*", "gzip", "en-US", "10.0.0.1")
	if a != b {
		t.Fatalf("same inputs produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %d (%s)", len(a), a)
	}
	c := Fingerprint("curl/8.0", "*/*", "gzip", "en-US", "10.0.0.2")
	if a == c {
		t.Fatal("different ip produced same fingerprint")
	}
}

func TestLogRequestBuildsProfile(t *testing.T) {
	tr := New()
	tr.LogRequest("abc123", "/api/overview", nil, "curl/8.0")
	tr.LogRequest("abc123", "/api/overview", nil, "curl/8.0")
	tr.LogRequest("abc123", "/api/trending", nil, "httpie/3.2")

	j := tr.AgentJourney("abc123")
	if j == nil {
		t.Fatal("expected journey for known fingerprint")
	}
	if j.RequestCount != 3 {
		t.Fatalf("expected 3 requests, got %d", j.RequestCount)
	}
	if j.EndpointsUsed["/api/overview"] != 2 || j.EndpointsUsed["/api/trending"] != 1 {
		t.Fatalf("unexpected endpoint counts: %v", j.EndpointsUsed)
	}
	if len(j.UserAgents) != 2 {
		t.Fatalf("expected 2 user agents, got %v", j.UserAgents)
	}
	if len(j.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(j.Events))
	}
}

func TestAgentJourneyUnknownFingerprint(t *testing.T) {
	tr := New()
	if j := tr.AgentJourney("nope"); j != nil {
		t.Fatalf("expected nil journey, got %+v", j)
	}
}

func TestLogToolUse(t *testing.T) {
	tr := New()
	tr.LogRequest("abc123", "mcp:token_analysis", map[string]string{"coin_id": "bitcoin"}, "")
	tr.LogToolUse("abc123", "token_analysis")
	tr.LogToolUse("abc123", "token_analysis")
	tr.LogToolUse("unknown", "market_overview")

	j := tr.AgentJourney("abc123")
	if j.ToolsUsed["token_analysis"] != 2 {
		t.Fatalf("unexpected tool counts: %v", j.ToolsUsed)
	}
}

func TestSummarizeCountsActiveAgents(t *testing.T) {
	tr := New()
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }
	tr.LogRequest("old", "/api/overview", nil, "")

	tr.now = func() time.Time { return base.Add(2 * time.Hour) }
	tr.LogRequest("recent", "/api/overview", nil, "")
	tr.LogRequest("recent", "/api/chains", nil, "")

	s := tr.Summarize()
	if s.TotalAgents != 2 {
		t.Fatalf("expected 2 agents, got %d", s.TotalAgents)
	}
	if s.ActiveLastHour != 1 {
		t.Fatalf("expected 1 active agent, got %d", s.ActiveLastHour)
	}
	if s.TotalEvents != 3 {
		t.Fatalf("expected 3 events, got %d", s.TotalEvents)
	}
	if len(s.TopEndpoints) == 0 || s.TopEndpoints[0].Endpoint != "/api/overview" {
		t.Fatalf("unexpected top endpoints: %v", s.TopEndpoints)
	}
	if len(s.TopAgents) == 0 || s.TopAgents[0].Fingerprint != "recent" {
		t.Fatalf("unexpected top agents: %v", s.TopAgents)
	}
}

func TestRecentEventsNewestFirst(t *testing.T) {
	tr := New()
	for i := 0; i < 5; i++ {
		tr.LogRequest("f", fmt.Sprintf("/api/e%d", i), nil, "")
	}
	events := tr.RecentEvents(3)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Endpoint != "/api/e4" || events[2].Endpoint != "/api/e2" {
		t.Fatalf("events not newest first: %v", events)
	}
}

func TestEventLogIsBounded(t *testing.T) {
	tr := New()
	for i := 0; i < maxEvents+50; i++ {
		tr.LogRequest("f", "/api/overview", nil, "")
	}
	s := tr.Summarize()
	if s.TotalEvents != maxEvents {
		t.Fatalf("expected event log capped at %d, got %d", maxEvents, s.TotalEvents)
	}
}
