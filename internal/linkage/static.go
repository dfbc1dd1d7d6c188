package linkage

import (
	"context"
	"sync"
)

// Entry is one known tracker record in a static match table
type Entry struct {
	Key    string `yaml:"key" json:"key"`
	Status string `yaml:"status" json:"status"`
}

// StaticResolver answers lookups from a fixed title-to-record table. Useful
// for tests, demos, and deployments where the tracker mapping is curated by
// hand rather than searched.
type StaticResolver struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// Compile-time check that StaticResolver implements Resolver
var _ Resolver = (*StaticResolver)(nil)

// NewStaticResolver creates a resolver over the given title->entry table.
// A nil table is treated as empty.
func NewStaticResolver(entries map[string]Entry) *StaticResolver {
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &StaticResolver{entries: entries}
}

// Resolve matches by exact issue title. Descriptions are ignored: the table
// is keyed on titles only.
func (r *StaticResolver) Resolve(ctx context.Context, title, description string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entry, ok := r.entries[title]
	r.mu.RUnlock()

	if !ok {
		return &Result{Exists: false}, nil
	}
	return &Result{Exists: true, Key: entry.Key, Status: entry.Status}, nil
}

// Set adds or replaces a table entry
func (r *StaticResolver) Set(title string, entry Entry) {
	r.mu.Lock()
	r.entries[title] = entry
	r.mu.Unlock()
}

// Delete removes a table entry
func (r *StaticResolver) Delete(title string) {
	r.mu.Lock()
	delete(r.entries, title)
	r.mu.Unlock()
}
