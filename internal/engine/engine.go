// Package engine orchestrates the two halves of clipboard synchronisation:
// capturing local clipboard changes into history and the shared folder
// (local.go), and pulling peer updates out of the shared folder onto the
// local clipboard (remote.go).
//
// Both halves share the last-known content fingerprint, the peer registry,
// and the loopback guard. Run owns all three from a single consumer loop fed
// by the clipboard watch channel and a poll ticker, so handlers never run
// concurrently against that state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/clipdav/clipdav/internal/clip"
	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/history"
	"github.com/clipdav/clipdav/internal/notify"
	"github.com/clipdav/clipdav/internal/peers"
	"github.com/clipdav/clipdav/internal/snapshot"
	"github.com/clipdav/clipdav/internal/store"
)

// tickInterval drives the run loop's poll timer. PollOnce rate-limits itself
// to the configured check interval, so ticking faster than that is harmless.
const tickInterval = time.Second

// Config wires an Engine's collaborators.
type Config struct {
	// Host is this machine's sync identity; its own blob is never downloaded.
	Host string
	// Folder is the remote folder holding the sync blobs.
	Folder string

	Blob      store.Blob
	Clipboard clip.Backend
	History   *history.Store
	Notifier  notify.Notifier

	// CheckInterval is the minimum time between remote polls.
	CheckInterval time.Duration
	// Grace is the loopback suppression window; DefaultGrace when zero.
	Grace time.Duration
}

// Engine owns all mutable sync state.
type Engine struct {
	cfg      Config
	registry *peers.Registry
	guard    *Guard

	mu       sync.Mutex
	lastFP   snapshot.Fingerprint
	lastPoll time.Time

	now func() time.Time
}

// New validates the config and returns a ready engine.
func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Host == "":
		return nil, errors.New("engine: host is required")
	case cfg.Blob == nil:
		return nil, errors.New("engine: blob store is required")
	case cfg.Clipboard == nil:
		return nil, errors.New("engine: clipboard backend is required")
	case cfg.History == nil:
		return nil, errors.New("engine: history store is required")
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Silent{}
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Second
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	return &Engine{
		cfg:      cfg,
		registry: peers.NewRegistry(),
		guard:    NewGuard(),
		now:      time.Now,
	}, nil
}

// Guard exposes the loopback guard, mainly for tests and status reporting.
func (e *Engine) Guard() *Guard { return e.guard }

// Registry exposes the peer registry.
func (e *Engine) Registry() *peers.Registry { return e.registry }

// blobPath returns the remote path of a sync blob.
func (e *Engine) blobPath(name string) string {
	return path.Join(e.cfg.Folder, name)
}

// ownBlob is the name of this machine's sync blob.
func (e *Engine) ownBlob() string {
	return envelope.BlobName(e.cfg.Host)
}

// listPeers lists the sync blobs of other machines in the shared folder.
func (e *Engine) listPeers() ([]peers.File, error) {
	entries, err := e.cfg.Blob.List(e.cfg.Folder)
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	var out []peers.File
	for _, entry := range entries {
		host, ok := envelope.PeerHost(entry.Name)
		if !ok || host == e.cfg.Host {
			continue
		}
		out = append(out, peers.File{
			Name:    entry.Name,
			Host:    host,
			Size:    entry.Size,
			ModTime: entry.ModTime,
		})
	}
	return out, nil
}

// Discover seeds the peer registry from a full folder listing. Pre-existing
// blobs are recorded as seen so startup does not replay stale content onto
// the clipboard; only blobs that move after this point are downloaded.
func (e *Engine) Discover() error {
	observed, err := e.listPeers()
	if err != nil {
		return err
	}
	e.registry.Reset(observed)
	if len(observed) == 0 {
		slog.Info("no remote peers found yet", "own_blob", e.ownBlob())
		return nil
	}
	for _, f := range observed {
		slog.Info("remote peer discovered", "peer", f.Host, "blob", f.Name, "modified", f.ModTime)
	}
	return nil
}

// Run drives the engine until ctx is cancelled: one consumer loop over the
// clipboard watch channel and the poll ticker. Errors from either handler are
// logged and never terminate the loop.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Discover(); err != nil {
		slog.Warn("initial peer discovery failed", "err", err)
	}

	slog.Info("sync engine running",
		"host", e.cfg.Host,
		"folder", e.cfg.Folder,
		"backend", e.cfg.Clipboard.Name(),
		"check_interval", e.cfg.CheckInterval,
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	watch := e.cfg.Clipboard.Watch()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-watch:
			if err := e.OnChange(); err != nil {
				slog.Warn("local capture failed", "err", err)
			}

		case <-ticker.C:
			applied, err := e.PollOnce()
			if err != nil {
				slog.Warn("remote poll failed", "err", err)
				continue
			}
			if applied != nil {
				slog.Info("remote clipboard applied",
					"peer", applied.Peer,
					"kind", applied.Snapshot.Kind,
					"modified", applied.ModTime,
				)
			}
		}
	}
}

func (e *Engine) lastFingerprint() snapshot.Fingerprint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFP
}

func (e *Engine) setLastFingerprint(f snapshot.Fingerprint) {
	e.mu.Lock()
	e.lastFP = f
	e.mu.Unlock()
}
