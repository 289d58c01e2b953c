// Package peers tracks the last-known modification time of every remote
// machine's sync blob and classifies each poll observation against it.
package peers

import (
	"log/slog"
	"sync"
	"time"
)

// Status classifies one observed peer blob relative to the registry.
type Status int

const (
	// StatusNew marks a peer seen for the first time. The registry seeds it
	// with the zero time, so the observation is immediately eligible for
	// download.
	StatusNew Status = iota
	// StatusUpdated marks a peer whose blob is newer than last known.
	StatusUpdated
	// StatusUnchanged marks a peer whose blob has not moved.
	StatusUnchanged
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// File is one observed sync blob in the shared folder. A zero ModTime means
// the server returned no retrievable timestamp for it.
type File struct {
	Name    string
	Host    string
	Size    int64
	ModTime time.Time
}

// Classification pairs an observed peer file with its status.
type Classification struct {
	File   File
	Status Status
}

// Registry holds peer → last-known blob modification time. Entries are never
// removed: a peer that disappears simply stops being refreshed.
type Registry struct {
	mu    sync.Mutex
	known map[string]time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{known: make(map[string]time.Time)}
}

// Reset replaces the registry wholesale from a full directory listing,
// recording each observed modification time as already seen. Used at startup
// so that pre-existing blobs are not replayed onto the local clipboard.
func (r *Registry) Reset(observed []File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known = make(map[string]time.Time, len(observed))
	for _, f := range observed {
		r.known[f.Name] = f.ModTime
	}
}

// Classify evaluates a freshly observed peer-file list against the registry.
// Peers without a retrievable timestamp cannot be ordered and are skipped
// entirely (logged, not returned). New peers are seeded with the zero time so
// that the caller's download decision sees them as updated.
func (r *Registry) Classify(observed []File) []Classification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Classification, 0, len(observed))
	for _, f := range observed {
		if f.ModTime.IsZero() {
			slog.Warn("peer blob has no modification time, skipping", "name", f.Name)
			continue
		}
		last, seen := r.known[f.Name]
		switch {
		case !seen:
			r.known[f.Name] = time.Time{}
			out = append(out, Classification{File: f, Status: StatusNew})
		case f.ModTime.After(last):
			out = append(out, Classification{File: f, Status: StatusUpdated})
		default:
			out = append(out, Classification{File: f, Status: StatusUnchanged})
		}
	}
	return out
}

// Advance records a peer blob's modification time after a download attempt.
// Called for successes and for empty or unparseable blobs alike, so a
// persistently bad blob is not re-fetched on every poll.
func (r *Registry) Advance(name string, mtime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[name] = mtime
}

// LastKnown returns the recorded modification time for a peer blob.
func (r *Registry) LastKnown(name string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.known[name]
	return t, ok
}

// Len returns the number of tracked peers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.known)
}
