// Package store defines the conversation store consumed by the nudge
// engine, plus a Redis-backed implementation. The engine only ever reads:
// history mutation belongs to the host that owns the conversations.
package store

import (
	"context"
	"errors"

	"github.com/nudgekit-dev/nudgekit/internal/history"
)

// ErrStoreClosed is returned when operating on a closed store.
var ErrStoreClosed = errors.New("conversation store is closed")

// Store abstracts the host's conversation store.
// Implementations must be safe for concurrent use: multiple session
// pipelines read from the store within one batch.
type Store interface {
	// ListSessions returns the raw session ids of all known conversations.
	// Duplicates are permitted; callers deduplicate.
	ListSessions(ctx context.Context) ([]string, error)

	// LastActivity returns the Unix-seconds timestamp of the session's most
	// recent message, or 0 when unknown.
	LastActivity(ctx context.Context, sessionID string) (int64, error)

	// History returns the session's transcript, oldest turn first. A
	// missing or malformed history document yields an empty transcript,
	// not an error.
	History(ctx context.Context, sessionID string) (history.Transcript, error)
}
