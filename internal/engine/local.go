package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/snapshot"
)

// OnChange handles one local clipboard event: interpret the clipboard,
// detect a meaningful change, persist it to history, and upload the new
// envelope to the shared folder.
//
// The guard check comes before any clipboard access: while the loopback
// window is open no detection work happens at all.
func (e *Engine) OnChange() error {
	if e.guard.Active() {
		slog.Debug("loopback guard active, ignoring clipboard event")
		return nil
	}

	items, err := e.cfg.Clipboard.Read()
	if err != nil {
		// Clipboard locked by another app; the next event retries naturally.
		return fmt.Errorf("clipboard read: %w", err)
	}

	snap, ok := interpret(items)
	if !ok {
		return nil
	}
	if err := snap.Validate(); err != nil {
		if errors.Is(err, snapshot.ErrEmpty) {
			return nil // whitespace-only copies are noise
		}
		return err
	}

	fp := snap.Fingerprint()
	if fp.Equal(e.lastFingerprint()) {
		slog.Debug("clipboard unchanged, skipping", "kind", snap.Kind)
		return nil
	}

	seq, err := e.cfg.History.NextSeq()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	path, err := e.cfg.History.Write(snap, seq)
	if err != nil {
		// Fingerprint deliberately not updated: the next identical clipboard
		// event retries the capture.
		return fmt.Errorf("capture: %w", err)
	}
	e.cfg.History.EnforceCapacity()

	slog.Info("clipboard captured", "kind", snap.Kind, "seq", seq, "path", path)
	slog.Debug("captured content", "preview", snap.Preview(120))

	if err := e.upload(snap); err != nil {
		// Transient: the capture is on disk, the next change re-uploads.
		slog.Warn("sync upload failed", "err", err)
	}

	e.cfg.Notifier.Show("clipdav", "Captured: "+snap.Preview(50))
	e.setLastFingerprint(fp)
	return nil
}

// upload compresses the envelope and overwrites this machine's sync blob.
func (e *Engine) upload(snap snapshot.Snapshot) error {
	raw, err := envelope.Marshal(snap)
	if err != nil {
		return err
	}
	blob, err := envelope.Compress(raw)
	if err != nil {
		return err
	}
	if err := e.cfg.Blob.Put(e.blobPath(e.ownBlob()), blob); err != nil {
		return err
	}
	slog.Info("sync blob uploaded",
		"blob", e.ownBlob(),
		"raw_bytes", len(raw),
		"compressed_bytes", len(blob),
	)
	return nil
}
