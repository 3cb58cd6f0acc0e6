// Package discovery enumerates the sessions eligible for proactive
// analysis: private conversations, optionally restricted to an admin
// allow-list.
package discovery

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/nudgekit-dev/nudgekit/internal/store"
)

// Options filter the discovered population.
type Options struct {
	// AdminOnly keeps only sessions whose owner principal is in AdminIDs.
	AdminOnly bool
	AdminIDs  []string
}

// Discoverer lists eligible sessions from a conversation store.
type Discoverer struct {
	store store.Store
}

// New creates a Discoverer backed by the given store.
func New(st store.Store) *Discoverer {
	return &Discoverer{store: st}
}

// EligibleSessions returns the deduplicated ids of private sessions
// matching the filter, sorted for deterministic iteration. A store failure
// yields an error; individual malformed ids are logged and skipped.
func (d *Discoverer) EligibleSessions(ctx context.Context, opts Options) ([]string, error) {
	raw, err := d.store.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover sessions: %w", err)
	}

	admins := make(map[string]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(raw))
	eligible := make([]string, 0, len(raw))
	for _, id := range raw {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		sid, err := store.ParseSessionID(id)
		if err != nil {
			log.Printf("discovery: skipping session: %v", err)
			continue
		}
		if !sid.IsPrivate() {
			continue
		}
		if opts.AdminOnly {
			if _, ok := admins[sid.Principal]; !ok {
				continue
			}
		}

		eligible = append(eligible, id)
	}

	sort.Strings(eligible)
	return eligible, nil
}
