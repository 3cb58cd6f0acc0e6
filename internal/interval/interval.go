// Package interval maps the human-readable duration tokens used in
// configuration ("10min", "1hour", ...) onto time.Duration values.
//
// The two call sites intentionally fall back to different defaults:
// scheduling cadence defaults to 10 minutes, the idle threshold to 30
// minutes. Unknown tokens never fail; they resolve to the fallback.
package interval

import "time"

// DefaultPoll is the fallback polling cadence for unrecognized tokens.
const DefaultPoll = 10 * time.Minute

// DefaultIdleThreshold is the fallback recency threshold for unrecognized
// tokens.
const DefaultIdleThreshold = 30 * time.Minute

var pollTokens = map[string]time.Duration{
	"5min":  5 * time.Minute,
	"10min": 10 * time.Minute,
	"30min": 30 * time.Minute,
	"1hour": time.Hour,
	"3hour": 3 * time.Hour,
}

var thresholdTokens = map[string]time.Duration{
	"1min":  time.Minute,
	"5min":  5 * time.Minute,
	"10min": 10 * time.Minute,
	"30min": 30 * time.Minute,
	"1hour": time.Hour,
}

// ParsePoll resolves a polling cadence token.
func ParsePoll(token string) time.Duration {
	if d, ok := pollTokens[token]; ok {
		return d
	}
	return DefaultPoll
}

// ParseIdleThreshold resolves an idle-threshold token.
func ParseIdleThreshold(token string) time.Duration {
	if d, ok := thresholdTokens[token]; ok {
		return d
	}
	return DefaultIdleThreshold
}
