// Package history models conversation transcripts and the exchange-pair
// window applied before any oracle call.
package history

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Turn roles as stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Timestamp is Unix seconds; 0 means unknown.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Transcript is an ordered sequence of turns, oldest first.
type Transcript []Turn

// UnmarshalJSON accepts timestamps stored either as numbers or as numeric
// strings; older history rows carry the string form.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role      string          `json:"role"`
		Content   string          `json:"content"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Role = raw.Role
	t.Content = raw.Content
	t.Timestamp = 0

	if len(raw.Timestamp) == 0 || string(raw.Timestamp) == "null" {
		return nil
	}

	var n int64
	if err := json.Unmarshal(raw.Timestamp, &n); err == nil {
		t.Timestamp = n
		return nil
	}

	var s string
	if err := json.Unmarshal(raw.Timestamp, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Timestamp = n
		}
		return nil
	}

	// Unparseable timestamp forms degrade to unknown rather than failing
	// the whole transcript.
	return nil
}

// Parse decodes a raw JSON history document into a transcript.
func Parse(data []byte) (Transcript, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	return transcript, nil
}

// Pairs returns the number of complete exchange pairs (two turns each).
func (t Transcript) Pairs() int {
	return len(t) / 2
}

// LastTimestamp returns the newest known turn timestamp, or 0 if none is
// recorded.
func (t Transcript) LastTimestamp() int64 {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Timestamp != 0 {
			return t[i].Timestamp
		}
	}
	return 0
}
