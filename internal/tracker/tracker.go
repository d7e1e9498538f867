package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

const maxEvents = 10_000

// Event is one recorded request or tool call.
type Event struct {
	Timestamp   time.Time         `json:"ts"`
	Endpoint    string            `json:"endpoint"`
	Params      map[string]string `json:"params"`
	Fingerprint string            `json:"fingerprint"`
}

// AgentProfile aggregates everything observed for one caller fingerprint.
type AgentProfile struct {
	Fingerprint   string         `json:"fingerprint"`
	FirstSeen     time.Time      `json:"first_seen"`
	LastSeen      time.Time      `json:"last_seen"`
	RequestCount  int            `json:"request_count"`
	EndpointsUsed map[string]int `json:"endpoints_used"`
	ToolsUsed     map[string]int `json:"tools_used"`
	UserAgents    []string       `json:"user_agents"`
}

// Summary is the aggregate view served to admin consumers.
type Summary struct {
	TotalAgents    int             `json:"total_agents"`
	ActiveLastHour int             `json:"active_last_hour"`
	TotalEvents    int             `json:"total_events"`
	TopEndpoints   []EndpointCount `json:"top_endpoints"`
	TopAgents      []AgentSummary  `json:"top_agents"`
}

type EndpointCount struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
}

type AgentSummary struct {
	Fingerprint  string    `json:"fingerprint"`
	RequestCount int       `json:"request_count"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	Endpoints    int       `json:"endpoints"`
}

// Journey is the full history for one fingerprint.
type Journey struct {
	AgentProfile
	Events []Event `json:"events"`
}

// Tracker records caller behavior in memory. It is never exposed on public
// endpoints; only admin surfaces read it. Safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	events    []Event
	agents    map[string]*AgentProfile
	userAgent map[string]map[string]struct{}
	now       func() time.Time
}

func New() *Tracker {
	return &Tracker{
		agents:    make(map[string]*AgentProfile),
		userAgent: make(map[string]map[string]struct{}),
		now:       time.Now,
	}
}

// Fingerprint derives a stable 16-hex-char caller id from request headers and
// the remote address.
func Fingerprint(userAgent, accept, acceptEncoding, acceptLanguage, ip string) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", userAgent, accept, acceptEncoding, acceptLanguage, ip)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:16]
}

// LogRequest records one request for a fingerprint and updates its profile.
func (t *Tracker) LogRequest(fingerprint, endpoint string, params map[string]string, userAgent string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.events = append(t.events, Event{
		Timestamp:   now,
		Endpoint:    endpoint,
		Params:      params,
		Fingerprint: fingerprint,
	})
	if len(t.events) > maxEvents {
		t.events = t.events[len(t.events)-maxEvents:]
	}

	agent, ok := t.agents[fingerprint]
	if !ok {
		agent = &AgentProfile{
			Fingerprint:   fingerprint,
			FirstSeen:     now,
			EndpointsUsed: make(map[string]int),
			ToolsUsed:     make(map[string]int),
		}
		t.agents[fingerprint] = agent
		t.userAgent[fingerprint] = make(map[string]struct{})
	}
	agent.LastSeen = now
	agent.RequestCount++
	agent.EndpointsUsed[endpoint]++
	if userAgent != "" {
		t.userAgent[fingerprint][userAgent] = struct{}{}
	}
}

// LogToolUse records an MCP tool call for an already-seen fingerprint.
func (t *Tracker) LogToolUse(fingerprint, toolName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if agent, ok := t.agents[fingerprint]; ok {
		agent.ToolsUsed[toolName]++
	}
}

// Summarize reports totals, activity in the last hour, and top consumers.
func (t *Tracker) Summarize() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	active := 0
	for _, a := range t.agents {
		if now.Sub(a.LastSeen) < time.Hour {
			active++
		}
	}

	return Summary{
		TotalAgents:    len(t.agents),
		ActiveLastHour: active,
		TotalEvents:    len(t.events),
		TopEndpoints:   t.topEndpoints(20),
		TopAgents:      t.topAgents(10),
	}
}

// RecentEvents returns up to limit events, newest first.
func (t *Tracker) RecentEvents(limit int) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.events) {
		limit = len(t.events)
	}
	out := make([]Event, 0, limit)
	for i := len(t.events) - 1; i >= len(t.events)-limit; i-- {
		out = append(out, t.events[i])
	}
	return out
}

// AgentJourney returns the profile and event history for one fingerprint, or
// nil when the fingerprint is unknown. Events are capped at the last 200.
func (t *Tracker) AgentJourney(fingerprint string) *Journey {
	t.mu.Lock()
	defer t.mu.Unlock()

	agent, ok := t.agents[fingerprint]
	if !ok {
		return nil
	}

	var events []Event
	for _, e := range t.events {
		if e.Fingerprint == fingerprint {
			events = append(events, e)
		}
	}
	if len(events) > 200 {
		events = events[len(events)-200:]
	}

	profile := *agent
	profile.EndpointsUsed = copyCounts(agent.EndpointsUsed)
	profile.ToolsUsed = copyCounts(agent.ToolsUsed)
	for ua := range t.userAgent[fingerprint] {
		profile.UserAgents = append(profile.UserAgents, ua)
	}
	sort.Strings(profile.UserAgents)

	return &Journey{AgentProfile: profile, Events: events}
}

func (t *Tracker) topEndpoints(limit int) []EndpointCount {
	counts := make(map[string]int)
	for _, e := range t.events {
		counts[e.Endpoint]++
	}
	out := make([]EndpointCount, 0, len(counts))
	for endpoint, n := range counts {
		out = append(out, EndpointCount{Endpoint: endpoint, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Endpoint < out[j].Endpoint
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *Tracker) topAgents(limit int) []AgentSummary {
	out := make([]AgentSummary, 0, len(t.agents))
	for _, a := range t.agents {
		out = append(out, AgentSummary{
			Fingerprint:  a.Fingerprint,
			RequestCount: a.RequestCount,
			FirstSeen:    a.FirstSeen,
			LastSeen:     a.LastSeen,
			Endpoints:    len(a.EndpointsUsed),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RequestCount != out[j].RequestCount {
			return out[i].RequestCount > out[j].RequestCount
		}
		return out[i].Fingerprint < out[j].Fingerprint
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
