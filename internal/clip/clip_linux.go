//go:build linux

package clip

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const pollInterval = 500 * time.Millisecond

// richFormats is the priority-ordered set of text formats the backend reads
// beyond text/plain. Order matters: it is the order formats are offered to
// consumers.
var richFormats = []string{
	"text/plain",
	"text/html",
	"text/rtf",
	"application/rtf",
	"application/x-rtf",
	"text/richtext",
	"text/uri-list",
	"text/x-moz-url",
	"UTF8_STRING",
	"STRING",
	"TEXT",
}

var imageFormats = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff"}

// New returns the Linux clipboard backend. copyq is preferred because it can
// set several MIME types in one call; xclip is the fallback. Without either
// binary the backend is headless.
func New() Backend {
	if _, err := exec.LookPath("copyq"); err == nil {
		return newCommandBackend(true)
	}
	if _, err := exec.LookPath("xclip"); err == nil {
		return newCommandBackend(false)
	}
	slog.Warn("neither copyq nor xclip found, running headless")
	return newHeadlessBackend()
}

// commandBackend shells out to copyq or xclip for every clipboard operation,
// which is the only portable way to reach rich formats on X11/Wayland.
type commandBackend struct {
	copyq   bool
	watchCh chan struct{}
	done    chan struct{}

	lastTargets string
	lastText    string
}

func newCommandBackend(copyq bool) *commandBackend {
	b := &commandBackend{
		copyq:   copyq,
		watchCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go b.poll()
	return b
}

func (b *commandBackend) Name() string {
	if b.copyq {
		return "Linux clipboard (copyq)"
	}
	return "Linux clipboard (xclip)"
}

func (b *commandBackend) poll() {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			targets := strings.Join(b.targets(), "\n")
			text, _ := b.readFormat("text/plain")
			textStr := string(text)
			if targets != b.lastTargets || textStr != b.lastText {
				b.lastTargets = targets
				b.lastText = textStr
				select {
				case b.watchCh <- struct{}{}:
				default:
				}
			}
		}
	}
}

// targets lists the MIME types currently offered by the clipboard owner.
func (b *commandBackend) targets() []string {
	var out []byte
	var err error
	if b.copyq {
		out, err = exec.Command("copyq", "clipboard", "?").Output()
	} else {
		out, err = exec.Command("xclip", "-selection", "clipboard", "-t", "TARGETS", "-o").Output()
	}
	if err != nil {
		return nil
	}
	var targets []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			targets = append(targets, line)
		}
	}
	return targets
}

func (b *commandBackend) readFormat(mime string) ([]byte, error) {
	if b.copyq {
		return exec.Command("copyq", "clipboard", mime).Output()
	}
	return exec.Command("xclip", "-selection", "clipboard", "-t", mime, "-o").Output()
}

func (b *commandBackend) Read() ([]Item, error) {
	targets := b.targets()
	if len(targets) == 0 {
		return nil, nil
	}
	offered := make(map[string]bool, len(targets))
	for _, t := range targets {
		offered[t] = true
	}

	var items []Item

	for _, mime := range imageFormats {
		if !offered[mime] {
			continue
		}
		data, err := b.readFormat(mime)
		if err == nil && len(data) > 0 {
			items = append(items, Item{MIME: mime, Data: data})
			break // one image representation is enough
		}
	}

	seen := make(map[string]bool)
	for _, mime := range richFormats {
		if !offered[mime] {
			continue
		}
		data, err := b.readFormat(mime)
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(data))
		if content == "" || seen[content] {
			continue
		}
		seen[content] = true
		items = append(items, Item{MIME: mime, Data: []byte(content)})
	}
	return items, nil
}

func (b *commandBackend) Write(items []Item) error {
	if len(items) == 0 {
		return nil
	}
	if b.copyq {
		return b.writeCopyq(items)
	}
	return b.writeXclip(items)
}

// writeCopyq sets all items in a single invocation: copyq copy mime1 data1 ...
// Binary items are piped via "-" which copyq reads from stdin; that only works
// for one binary item, so images are written in their own call.
func (b *commandBackend) writeCopyq(items []Item) error {
	args := []string{"copy"}
	var image *Item
	for i := range items {
		it := items[i]
		if strings.HasPrefix(it.MIME, "image/") {
			if image == nil {
				image = &it
			}
			continue
		}
		args = append(args, it.MIME, string(it.Data))
	}
	if len(args) > 1 {
		if err := exec.Command("copyq", args...).Run(); err != nil {
			return fmt.Errorf("copyq copy: %w", err)
		}
	}
	if image != nil {
		cmd := exec.Command("copyq", "copy", image.MIME, "-")
		cmd.Stdin = bytes.NewReader(image.Data)
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("copyq copy %s: %w", image.MIME, err)
		}
	}
	return nil
}

// writeXclip can only own one target at a time; the highest-value item wins:
// image, then text/plain, then whatever comes first.
func (b *commandBackend) writeXclip(items []Item) error {
	chosen := items[0]
	for _, it := range items {
		if strings.HasPrefix(it.MIME, "image/") {
			chosen = it
			break
		}
		if it.MIME == "text/plain" {
			chosen = it
		}
	}
	cmd := exec.Command("xclip", "-selection", "clipboard", "-t", chosen.MIME)
	cmd.Stdin = bytes.NewReader(chosen.Data)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("xclip: %w", err)
	}
	return nil
}

func (b *commandBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *commandBackend) Close()                 { close(b.done) }
