package engine

import (
	"fmt"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clipdav/clipdav/internal/clip"
	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/history"
	"github.com/clipdav/clipdav/internal/snapshot"
	"github.com/clipdav/clipdav/internal/store"
)

// fakeClock is a manually advanced clock shared by the engine and its guard.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeBlob is an in-memory blob store.
type fakeBlob struct {
	mu      sync.Mutex
	files   map[string][]byte // full path → content
	infos   []store.FileInfo
	gets    []string
	puts    []string
	listErr error
	getErr  map[string]error
	putErr  error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{
		files:  make(map[string][]byte),
		getErr: make(map[string]error),
	}
}

func (b *fakeBlob) List(string) ([]store.FileInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	out := make([]store.FileInfo, len(b.infos))
	copy(out, b.infos)
	return out, nil
}

func (b *fakeBlob) Get(p string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gets = append(b.gets, p)
	if err := b.getErr[path.Base(p)]; err != nil {
		return nil, err
	}
	data, ok := b.files[p]
	if !ok {
		return nil, fmt.Errorf("not found: %s", p)
	}
	return data, nil
}

func (b *fakeBlob) Put(p string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.puts = append(b.puts, p)
	b.files[p] = append([]byte(nil), data...)
	return nil
}

// addPeer places a well-formed peer blob in the fake store.
func (b *fakeBlob) addPeer(t *testing.T, folder, host string, mtime time.Time, snap snapshot.Snapshot) {
	t.Helper()
	raw, err := envelope.Marshal(snap)
	require.NoError(t, err)
	gz, err := envelope.Compress(raw)
	require.NoError(t, err)
	b.addRaw(folder, envelope.BlobName(host), mtime, gz)
}

// addRaw places arbitrary bytes under a blob name.
func (b *fakeBlob) addRaw(folder, name string, mtime time.Time, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[path.Join(folder, name)] = data
	for i, info := range b.infos {
		if info.Name == name {
			b.infos[i].ModTime = mtime
			b.infos[i].Size = int64(len(data))
			return
		}
	}
	b.infos = append(b.infos, store.FileInfo{Name: name, Size: int64(len(data)), ModTime: mtime})
}

func (b *fakeBlob) putCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.puts)
}

func (b *fakeBlob) getCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.gets)
}

// fakeClipboard is an in-memory clip.Backend.
type fakeClipboard struct {
	mu      sync.Mutex
	items   []clip.Item
	written [][]clip.Item
	reads   int
	readErr error
	watchCh chan struct{}
}

func newFakeClipboard() *fakeClipboard {
	return &fakeClipboard{watchCh: make(chan struct{}, 1)}
}

func (c *fakeClipboard) Name() string { return "fake" }

func (c *fakeClipboard) Read() ([]clip.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.items, nil
}

func (c *fakeClipboard) Write(items []clip.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, items)
	c.items = items
	return nil
}

func (c *fakeClipboard) Watch() <-chan struct{} { return c.watchCh }
func (c *fakeClipboard) Close()                 {}

func (c *fakeClipboard) set(items ...clip.Item) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *fakeClipboard) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.written)
}

func (c *fakeClipboard) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// fakeNotifier records notifications.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Show(_, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// testEngine bundles an engine with its fakes and fixed identity
// (host "local", folder "sync", 5s check interval, 2s grace).
type testEngine struct {
	*Engine
	clock     *fakeClock
	blob      *fakeBlob
	clipboard *fakeClipboard
	notifier  *fakeNotifier
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	blob := newFakeBlob()
	clipboard := newFakeClipboard()
	notifier := &fakeNotifier{}

	hist, err := history.New(t.TempDir(), 50)
	require.NoError(t, err)

	e, err := New(Config{
		Host:          "local",
		Folder:        "sync",
		Blob:          blob,
		Clipboard:     clipboard,
		History:       hist,
		Notifier:      notifier,
		CheckInterval: 5 * time.Second,
		Grace:         2 * time.Second,
	})
	require.NoError(t, err)

	clock := newFakeClock()
	e.now = clock.Now
	e.guard.now = clock.Now

	return &testEngine{Engine: e, clock: clock, blob: blob, clipboard: clipboard, notifier: notifier}
}
