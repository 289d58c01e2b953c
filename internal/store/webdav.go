package store

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

// defaultTimeout bounds every WebDAV call. The transport is network-bound and
// a hung PROPFIND must not stall the poll loop indefinitely.
const defaultTimeout = 10 * time.Second

// WebDAVConfig describes the remote end. URL is the server base; for
// Nextcloud-style servers it already includes the /remote.php/dav/files/<user>
// segment.
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// WebDAV is a Blob backed by a WebDAV folder.
type WebDAV struct {
	client *gowebdav.Client
}

// NewWebDAV builds the client and verifies the connection with a single
// PROPFIND probe.
func NewWebDAV(cfg WebDAVConfig) (*WebDAV, error) {
	c := gowebdav.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.Username, cfg.Password)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	c.SetTimeout(timeout)
	if err := c.Connect(); err != nil {
		return nil, fmt.Errorf("webdav connect %s: %w", cfg.URL, err)
	}
	return &WebDAV{client: c}, nil
}

// List implements Blob. Sub-collections are skipped; the sync folder is flat.
func (w *WebDAV) List(dir string) ([]FileInfo, error) {
	entries, err := w.client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("webdav list %s: %w", dir, err)
	}
	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, FileInfo{
			Name:    path.Base(e.Name()),
			Size:    e.Size(),
			ModTime: e.ModTime(),
		})
	}
	return out, nil
}

// Get implements Blob.
func (w *WebDAV) Get(p string) ([]byte, error) {
	data, err := w.client.Read(p)
	if err != nil {
		return nil, fmt.Errorf("webdav get %s: %w", p, err)
	}
	return data, nil
}

// Put implements Blob.
func (w *WebDAV) Put(p string, data []byte) error {
	if err := w.client.Write(p, data, 0o644); err != nil {
		return fmt.Errorf("webdav put %s: %w", p, err)
	}
	return nil
}
