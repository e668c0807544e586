// Package registry implements a stable label -> 64-bit identifier
// mapping shared across threads.
//
// It is grounded on the concurrency shape of DataDog/go-libddwaf's
// metricsStore (metrics.go): a single RWMutex guarding a map, sized so
// writes are rare (new labels) and reads are frequent (repeated
// measurements of the same label).
package registry

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/atomic"

	"github.com/perfgraph/perfgraph/internal/log"
	"github.com/perfgraph/perfgraph/perferrors"
)

// Hash is the 64-bit label identifier. Two invocations of HashOf with the
// same trimmed label, on any thread, produce the same Hash.
type Hash uint64

// entry tracks every distinct label that has ever hashed to a given value.
// The zero-th label is the "primary" one used in reports.
type entry struct {
	labels []string
}

// Registry is safe for concurrent use. Writes take a single mutex; once a
// label is present, subsequent lookups by hash need only a read lock.
type Registry struct {
	mu          sync.RWMutex
	labelToHash map[string]Hash
	byHash      map[Hash]*entry
	collisions  atomic.Uint32
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		labelToHash: make(map[string]Hash),
		byHash:      make(map[Hash]*entry),
	}
}

// HashOf returns the stable hash for label, inserting it if this is the
// first time it has been seen. Labels are trimmed of surrounding
// whitespace before hashing; an empty label after trimming is rejected.
func (r *Registry) HashOf(label string) (Hash, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return 0, perferrors.ErrEmptyLabel
	}

	r.mu.RLock()
	if h, ok := r.labelToHash[trimmed]; ok {
		r.mu.RUnlock()
		return h, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another goroutine may have inserted
	// it between the RUnlock above and this Lock.
	if h, ok := r.labelToHash[trimmed]; ok {
		return h, nil
	}

	h := Hash(xxhash.Sum64String(trimmed))
	r.labelToHash[trimmed] = h

	e, ok := r.byHash[h]
	if !ok {
		r.byHash[h] = &entry{labels: []string{trimmed}}
		return h, nil
	}

	// The hash already exists for a distinct label: a genuine collision.
	e.labels = append(e.labels, trimmed)
	r.collisions.Inc()
	log.Logf(log.LevelWarning, "registry", "hash collision: %q and %q both hash to %d, using %q in reports",
		e.labels[0], trimmed, h, e.labels[0])

	return h, nil
}

// LabelFor returns the primary (first-inserted) label for hash, and
// whether it was found at all.
func (r *Registry) LabelFor(h Hash) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byHash[h]
	if !ok || len(e.labels) == 0 {
		return "", false
	}
	return e.labels[0], true
}

// AllLabelsFor returns every distinct label that has ever collided onto h,
// primary first. Used by the reporter to annotate collided entries.
func (r *Registry) AllLabelsFor(h Hash) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byHash[h]
	if !ok {
		return nil
	}
	out := make([]string, len(e.labels))
	copy(out, e.labels)
	return out
}

// Collisions returns the number of distinct labels that have collided with
// an already-registered hash.
func (r *Registry) Collisions() uint32 {
	return r.collisions.Load()
}

// Clear discards all registered labels, e.g. as part of a full library
// reset. A full reset preserves Settings and only clears the registry
// and call-graph state; Clear on the registry itself is a distinct,
// explicit operation for tests and for long-running hosts that want to
// reclaim memory between unrelated runs.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labelToHash = make(map[string]Hash)
	r.byHash = make(map[Hash]*entry)
	r.collisions.Store(0)
}
