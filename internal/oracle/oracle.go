// Package oracle wraps the language model behind the nudge decision
// protocol: a first call decides whether to re-engage a quiet session, a
// second call proposes the topic to open with.
package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Oracle generates a completion for a system/user prompt pair.
type Oracle interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider name (e.g., "openai")
	Name() string
}

// The daemon consults a single oracle at a time, chosen by name from the
// backends registered at startup.
var (
	regMu    sync.RWMutex
	backends = make(map[string]Oracle)
)

// Register makes an oracle selectable by name. Registering a name twice
// replaces the earlier backend.
func Register(name string, o Oracle) {
	regMu.Lock()
	defer regMu.Unlock()
	backends[name] = o
}

// Get returns the oracle registered under name.
func Get(name string) (Oracle, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	o, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("no oracle registered under %q", name)
	}
	return o, nil
}

// Has reports whether a backend is registered under name.
func Has(name string) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	_, ok := backends[name]
	return ok
}
