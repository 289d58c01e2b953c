//go:build darwin || windows

package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"golang.design/x/clipboard"
)

const pollInterval = 500 * time.Millisecond

// New returns the golang.design clipboard backend, or a headless no-op backend
// if initialisation fails. clipboard.Init is called here rather than in init()
// so that CLI sub-commands (status, login) don't touch the display at all.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return newHeadlessBackend()
	}
	b := &guiBackend{
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go b.poll()
	return b
}

// guiBackend reads text and PNG images. Rich formats (HTML/RTF) are not
// reachable through golang.design/x/clipboard, so on these platforms a
// multi-format copy degrades to its text/plain representation.
type guiBackend struct {
	watchCh  chan struct{}
	done     chan struct{}
	lastText []byte
	lastImg  []byte
}

func (b *guiBackend) Name() string { return "system clipboard (poll)" }

func (b *guiBackend) poll() {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text := clipboard.Read(clipboard.FmtText)
			img := clipboard.Read(clipboard.FmtImage)
			if !bytes.Equal(text, b.lastText) || !bytes.Equal(img, b.lastImg) {
				b.lastText = text
				b.lastImg = img
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (b *guiBackend) Read() ([]Item, error) {
	var items []Item
	if img := clipboard.Read(clipboard.FmtImage); len(img) > 0 {
		items = append(items, Item{MIME: "image/png", Data: img})
	}
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		items = append(items, Item{MIME: "text/plain", Data: text})
	}
	return items, nil
}

// Write sets the supported representations and drops the rest: a
// multi-format item set still lands as its text/plain payload here.
func (b *guiBackend) Write(items []Item) error {
	wrote := false
	for _, it := range items {
		switch it.MIME {
		case "text/plain":
			clipboard.Write(clipboard.FmtText, it.Data)
			wrote = true
		case "image/png":
			clipboard.Write(clipboard.FmtImage, it.Data)
			wrote = true
		}
	}
	if !wrote {
		return fmt.Errorf("no writable representation among %d items", len(items))
	}
	return nil
}

func (b *guiBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *guiBackend) Close()                 { close(b.done) }
