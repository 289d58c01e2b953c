// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the implementation:
//
//	clip_linux.go — copyq or xclip subprocesses; the only backends that
//	                expose rich formats (text/html, text/rtf) on X11/Wayland
//	clip_gui.go   — macOS and Windows via golang.design/x/clipboard
//	clip_other.go — headless / container stub
package clip

// Item is one clipboard representation with a MIME type.
type Item struct {
	MIME string
	Data []byte
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents as a slice of typed items,
	// one per available format. Returns nil, nil if the clipboard is empty or
	// holds only unsupported types.
	Read() ([]Item, error)

	// Write sets the clipboard contents to the provided items.
	Write(items []Item) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// may have changed. The channel is never closed. All current platforms
	// implement this via polling; the caller should Read() on receipt and
	// do its own change detection.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// TextItem builds a text/plain item.
func TextItem(text string) Item {
	return Item{MIME: "text/plain", Data: []byte(text)}
}
