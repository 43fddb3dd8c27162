package orchestrator

import (
	"context"
	"time"
)

// TokenMinter issues time-bounded credentials allowing a subject to join a
// channel. Implementations are pure; no shared state.
type TokenMinter interface {
	Mint(channel, subject string, tokenTTL, privilegeTTL time.Duration) (string, error)
}

// ProviderFile is one output file as reported by the recording provider.
type ProviderFile struct {
	FileName       string
	TrackType      string
	MixedAllUser   bool
	SliceStartTime int64
}

// AcquireResult is the typed outcome of a resource acquisition. A missing
// ResourceID means the provider declined the request.
type AcquireResult struct {
	ResourceID string
}

// StartResult is the typed outcome of a start-recording call. A missing SID
// means the recording did not start.
type StartResult struct {
	SID string
}

// StopResult is the typed outcome of a stop-recording call. A non-nil
// ErrorCode carries the provider's error code; Files lists every output file
// the provider produced, all formats included.
type StopResult struct {
	ErrorCode *int
	Files     []ProviderFile
}

// QueryResult is the typed outcome of a recording status query.
type QueryResult struct {
	Status int
	Files  []ProviderFile
}

// RecordingProvider wraps the third-party cloud-recording API. Calls are
// correlated by the opaque resource and session identifiers the provider
// returns from Acquire and Start.
type RecordingProvider interface {
	Acquire(ctx context.Context, channel string) (AcquireResult, error)
	Start(ctx context.Context, resourceID, channel, uid, token string) (StartResult, error)
	Stop(ctx context.Context, resourceID, sid, channel, uid string) (StopResult, error)
	Query(ctx context.Context, resourceID, sid string) (QueryResult, error)
}

// ObjectStore grants read access to recorded files in the content store.
type ObjectStore interface {
	PresignURL(ctx context.Context, object string, ttl time.Duration) (string, error)
}
