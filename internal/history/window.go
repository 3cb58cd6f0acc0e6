package history

import "log"

// WindowConfig controls exchange-pair truncation.
type WindowConfig struct {
	// MaxExchangePairs is the pair budget; -1 means unlimited.
	MaxExchangePairs int
	// TrimFromHead drops this many additional oldest pairs when the budget
	// is exceeded.
	TrimFromHead int
}

// Unlimited reports whether truncation is disabled.
func (c WindowConfig) Unlimited() bool {
	return c.MaxExchangePairs == -1
}

// Window truncates a transcript to the configured exchange-pair budget.
//
// When the budget is exceeded, the newest
// (MaxExchangePairs - TrimFromHead + 1) pairs are kept and the result is
// re-aligned so its first turn has the user role; the oracle must always
// see a window that opens with the user speaking. A window with no user
// turn at all is returned as-is.
func Window(t Transcript, cfg WindowConfig) Transcript {
	if len(t) == 0 {
		return t
	}
	if cfg.Unlimited() || t.Pairs() <= cfg.MaxExchangePairs {
		return t
	}

	keep := (cfg.MaxExchangePairs - cfg.TrimFromHead + 1) * 2
	if keep <= 0 {
		return Transcript{}
	}
	if keep > len(t) {
		keep = len(t)
	}

	kept := t[len(t)-keep:]
	return alignToUser(kept)
}

// alignToUser drops leading turns until the first user turn. If the slice
// has no user turn it is returned unchanged.
func alignToUser(t Transcript) Transcript {
	for i, turn := range t {
		if turn.Role == RoleUser {
			return t[i:]
		}
	}
	log.Printf("history: window contains no user turn, returning %d turns unmodified", len(t))
	return t
}
