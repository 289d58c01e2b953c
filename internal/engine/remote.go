package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/peers"
	"github.com/clipdav/clipdav/internal/snapshot"
)

// Applied describes a remote update that was pushed to the local clipboard.
type Applied struct {
	Peer     string
	Blob     string
	Snapshot snapshot.Snapshot
	ModTime  time.Time
}

// candidate is one successfully downloaded, non-empty peer envelope.
type candidate struct {
	file peers.File
	snap snapshot.Snapshot
}

// PollOnce runs one remote poll cycle: list, classify, download changed
// peers, pick the most recent content, apply it to the local clipboard.
//
// Calls arriving before the configured check interval has elapsed are silent
// no-ops, so the caller's tick frequency is decoupled from network traffic.
// Returns the applied update, or nil when nothing changed.
func (e *Engine) PollOnce() (*Applied, error) {
	now := e.now()
	e.mu.Lock()
	if now.Sub(e.lastPoll) < e.cfg.CheckInterval {
		e.mu.Unlock()
		return nil, nil
	}
	e.lastPoll = now
	e.mu.Unlock()

	observed, err := e.listPeers()
	if err != nil {
		return nil, err
	}

	var best *candidate
	for _, c := range e.registry.Classify(observed) {
		if c.Status == peers.StatusUnchanged {
			continue
		}
		if c.Status == peers.StatusNew {
			slog.Info("new remote peer discovered", "peer", c.File.Host, "blob", c.File.Name)
		}
		cand, err := e.download(c.File)
		if err != nil {
			// One unreachable or corrupt peer must not block the others.
			slog.Warn("peer download failed", "peer", c.File.Host, "err", err)
			continue
		}
		if cand == nil {
			continue // empty blob; registry already advanced
		}
		if best == nil || winsOver(cand.file, best.file) {
			best = cand
		}
	}

	if best == nil {
		return nil, nil
	}
	return e.apply(best)
}

// winsOver reports whether a beats b in winner selection: latest modification
// time first, lexicographically smaller blob name on an exact tie. The tie
// rule is arbitrary but deterministic, so two machines polling the same
// folder resolve the same winner.
func winsOver(a, b peers.File) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Name < b.Name
}

// download fetches and parses one peer blob. The registry timestamp is
// advanced on success and on empty/unparseable content alike, so a
// permanently bad blob is not re-fetched every cycle. Transport errors leave
// the registry untouched: the next poll retries.
func (e *Engine) download(f peers.File) (*candidate, error) {
	blob, err := e.cfg.Blob.Get(e.blobPath(f.Name))
	if err != nil {
		return nil, err
	}

	raw, err := envelope.Decompress(blob)
	if err != nil {
		e.registry.Advance(f.Name, f.ModTime)
		return nil, fmt.Errorf("peer %s: %w", f.Host, err)
	}
	snap, err := envelope.Parse(raw)
	if err != nil {
		e.registry.Advance(f.Name, f.ModTime)
		if errors.Is(err, envelope.ErrEmpty) {
			slog.Debug("peer blob empty, skipping", "peer", f.Host)
			return nil, nil
		}
		return nil, fmt.Errorf("peer %s: %w", f.Host, err)
	}

	e.registry.Advance(f.Name, f.ModTime)
	return &candidate{file: f, snap: snap}, nil
}

// apply pushes the winning content to the local clipboard.
//
// Ordering is the anti-loopback contract: the shared last-seen fingerprint is
// updated to the winner before the clipboard write, and the guard is armed
// immediately after it. Without the pre-update, the local change detector
// could see its own remote-applied write as a fresh local change and bounce
// it back upstream forever.
func (e *Engine) apply(c *candidate) (*Applied, error) {
	e.setLastFingerprint(c.snap.Fingerprint())

	if err := e.cfg.Clipboard.Write(toItems(c.snap)); err != nil {
		return nil, fmt.Errorf("apply from %s: %w", c.file.Host, err)
	}
	e.guard.Arm(e.cfg.Grace)

	e.cfg.Notifier.Show("clipdav", fmt.Sprintf("Remote update from %s: %s", c.file.Host, c.snap.Preview(50)))
	return &Applied{
		Peer:     c.file.Host,
		Blob:     c.file.Name,
		Snapshot: c.snap,
		ModTime:  c.file.ModTime,
	}, nil
}
