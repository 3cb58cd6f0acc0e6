package store

import (
	"fmt"
	"strings"
)

// Session kinds carried in the second id segment.
const (
	KindPrivate = "private"
	KindDirect  = "direct"
	KindGroup   = "group"
)

// SessionID is the parsed form of a delimited session identifier,
// "platform:kind:...:principal". The trailing segment names the owner
// principal; intermediate segments are routing detail this engine does not
// interpret.
type SessionID struct {
	Raw       string
	Platform  string
	Kind      string
	Principal string
}

// ParseSessionID splits a raw session id into its addressing segments.
func ParseSessionID(raw string) (SessionID, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return SessionID{}, fmt.Errorf("malformed session id %q: want at least platform:kind:principal", raw)
	}
	for _, p := range parts {
		if p == "" {
			return SessionID{}, fmt.Errorf("malformed session id %q: empty segment", raw)
		}
	}

	return SessionID{
		Raw:       raw,
		Platform:  parts[0],
		Kind:      strings.ToLower(parts[1]),
		Principal: parts[len(parts)-1],
	}, nil
}

// IsPrivate reports whether the id addresses a direct conversation with a
// single user. Group-addressed ids are out of scope for nudging.
func (s SessionID) IsPrivate() bool {
	return s.Kind == KindPrivate || s.Kind == KindDirect
}
