// Package history implements the rolling local capture log: every distinct
// clipboard change is written to a numbered file in the capture directory,
// and the oldest files are evicted once the directory reaches capacity.
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/clipdav/clipdav/internal/snapshot"
)

// maxSeq is the highest sequence number before wrapping back to 1. After a
// wrap, a low-numbered file that was never evicted is overwritten; the store
// only roughly bounds the directory, it is not an exact ring buffer.
const maxSeq = 999

// capturePattern matches clipboard_text_007.txt, clipboard_image_012.png,
// clipboard_rich_003.html and friends, capturing the sequence number.
var capturePattern = regexp.MustCompile(`^clipboard_(?:text|image|rich)_(\d{3})\.`)

// richExtensions maps multi-format MIME types to capture file extensions.
var richExtensions = map[string]string{
	"text/plain":        ".txt",
	"text/html":         ".html",
	"text/rtf":          ".rtf",
	"application/rtf":   ".app-rtf",
	"application/x-rtf": ".x-rtf",
	"text/richtext":     ".richtext",
	"text/uri-list":     ".uri",
	"text/x-moz-url":    ".url",
	"UTF8_STRING":       ".utf8",
	"STRING":            ".string",
	"TEXT":              ".text",
}

// Store is the on-disk capture log. Single-writer: one process per machine
// owns the directory, no external locking.
type Store struct {
	dir string
	max int
}

// New creates the capture directory if needed and returns the store.
func New(dir string, maxEntries int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("capture dir: %w", err)
	}
	return &Store{dir: dir, max: maxEntries}, nil
}

// Dir returns the capture directory path.
func (s *Store) Dir() string { return s.dir }

// NextSeq returns the next sequence number by scanning the directory for the
// current maximum. Deriving the counter from the files themselves makes the
// store restart-safe: numbering resumes after the highest existing capture.
// Above maxSeq the counter wraps to 1.
func (s *Store) NextSeq() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan captures: %w", err)
	}
	highest := 0
	for _, e := range entries {
		m := capturePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	next := highest + 1
	if next > maxSeq {
		next = 1
	}
	return next, nil
}

// Write persists a snapshot under the given sequence number and returns the
// primary capture path. Multi-format snapshots produce one file per format,
// all sharing the sequence number; the primary path is the first written.
func (s *Store) Write(snap snapshot.Snapshot, seq int) (string, error) {
	switch snap.Kind {
	case snapshot.KindText:
		path := filepath.Join(s.dir, fmt.Sprintf("clipboard_text_%03d.txt", seq))
		if err := os.WriteFile(path, []byte(snap.Text), 0o644); err != nil {
			return "", fmt.Errorf("write capture: %w", err)
		}
		return path, nil

	case snapshot.KindImage:
		format := snap.ImageFormat
		if format == "" {
			format = "png"
		}
		path := filepath.Join(s.dir, fmt.Sprintf("clipboard_image_%03d.%s", seq, format))
		if err := os.WriteFile(path, snap.Image, 0o644); err != nil {
			return "", fmt.Errorf("write capture: %w", err)
		}
		return path, nil

	case snapshot.KindMulti:
		primary := ""
		for mime, ext := range richExtensions {
			content, ok := snap.Formats[mime]
			if !ok || content == "" {
				continue
			}
			path := filepath.Join(s.dir, fmt.Sprintf("clipboard_rich_%03d%s", seq, ext))
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", fmt.Errorf("write capture: %w", err)
			}
			if primary == "" || ext == ".txt" {
				primary = path
			}
		}
		if primary == "" {
			return "", fmt.Errorf("write capture: no storable formats")
		}
		return primary, nil
	}
	return "", fmt.Errorf("write capture: unsupported kind %q", snap.Kind)
}

// EnforceCapacity deletes oldest-by-modification-time captures until the
// directory holds fewer than the configured maximum. Eviction failures are
// logged, not fatal; a full directory only wastes disk.
func (s *Store) EnforceCapacity() {
	captures, err := s.list()
	if err != nil {
		slog.Warn("capture eviction scan failed", "err", err)
		return
	}
	if len(captures) < s.max {
		return
	}
	sort.Slice(captures, func(i, j int) bool {
		return captures[i].mtime.Before(captures[j].mtime)
	})
	excess := len(captures) - s.max + 1
	for _, c := range captures[:excess] {
		if err := os.Remove(c.path); err != nil {
			slog.Warn("capture eviction failed", "path", c.path, "err", err)
			continue
		}
		slog.Debug("capture evicted", "path", c.path)
	}
}

// Count returns the number of capture files currently on disk.
func (s *Store) Count() (int, error) {
	captures, err := s.list()
	if err != nil {
		return 0, err
	}
	return len(captures), nil
}

type capture struct {
	path  string
	mtime time.Time
}

func (s *Store) list() ([]capture, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []capture
	for _, e := range entries {
		if !capturePattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, capture{
			path:  filepath.Join(s.dir, e.Name()),
			mtime: info.ModTime(),
		})
	}
	return out, nil
}
