package clip

import "fmt"

// headlessBackend is used when no display or clipboard tool is available.
// Reads return nothing, writes fail, the watch channel never fires.
type headlessBackend struct {
	watchCh chan struct{}
}

func newHeadlessBackend() *headlessBackend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string           { return "headless (no clipboard)" }
func (b *headlessBackend) Read() ([]Item, error)  { return nil, nil }
func (b *headlessBackend) Write([]Item) error     { return fmt.Errorf("no clipboard available") }
func (b *headlessBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *headlessBackend) Close()                 {}
