package audit

import (
	"context"
	"sync"
	"time"

	"harborlist.org/internal/ids"
	"harborlist.org/internal/obs"
)

// Entry is one append-only record of an authorization outcome. Entries are
// written once and never mutated or deleted.
type Entry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"ts"`
	PrincipalID string    `json:"principal_id"`
	Email       string    `json:"email,omitempty"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource,omitempty"`
	Effect      string    `json:"effect"`
	ErrorCode   string    `json:"error_code,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
}

// Sink persists audit entries. Implementations must be safe for concurrent
// use.
type Sink interface {
	Append(ctx context.Context, entry *Entry) error
}

// LogSink writes entries as structured JSON lines through the shared logger.
type LogSink struct{}

var _ Sink = LogSink{}

func (LogSink) Append(_ context.Context, entry *Entry) error {
	obs.LogJSON(map[string]any{
		"ts":           entry.Timestamp.UTC().Format(time.RFC3339Nano),
		"type":         "audit",
		"id":           entry.ID,
		"principal_id": entry.PrincipalID,
		"email":        entry.Email,
		"action":       entry.Action,
		"resource":     entry.Resource,
		"effect":       entry.Effect,
		"error_code":   entry.ErrorCode,
		"ip_address":   entry.IPAddress,
		"user_agent":   entry.UserAgent,
	})
	return nil
}

const defaultWriteBudget = 2 * time.Second

// Recorder fans entries out to one or more sinks without ever blocking the
// caller: a lost audit write is logged locally, never escalated into a Deny
// or a slower response. Writes run on a detached context with their own
// budget so they cannot outlive the request's latency allowance.
type Recorder struct {
	sinks  []Sink
	budget time.Duration
	wg     sync.WaitGroup
}

// NewRecorder builds a Recorder over the given sinks.
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks, budget: defaultWriteBudget}
}

// Record fills in missing id/timestamp and writes the entry asynchronously.
func (r *Recorder) Record(entry Entry) {
	if r == nil || len(r.sinks) == 0 {
		return
	}
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.budget)
		defer cancel()
		for _, sink := range r.sinks {
			if err := sink.Append(ctx, &entry); err != nil {
				obs.LogError("audit append failed", map[string]any{
					"error":  err.Error(),
					"id":     entry.ID,
					"action": entry.Action,
				})
			}
		}
	}()
}

// Drain blocks until all in-flight writes complete. Used on shutdown and in
// tests.
func (r *Recorder) Drain() {
	if r == nil {
		return
	}
	r.wg.Wait()
}
