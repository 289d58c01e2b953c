package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdav/clipdav/internal/clip"
	"github.com/clipdav/clipdav/internal/envelope"
	"github.com/clipdav/clipdav/internal/snapshot"
)

// decodeOwnBlob parses the engine's own uploaded sync blob.
func decodeOwnBlob(t *testing.T, te *testEngine) snapshot.Snapshot {
	t.Helper()
	data, ok := te.blob.files["sync/clipboard-local.json.gz"]
	require.True(t, ok, "own sync blob should have been uploaded")
	raw, err := envelope.Decompress(data)
	require.NoError(t, err)
	snap, err := envelope.Parse(raw)
	require.NoError(t, err)
	return snap
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorContains(t, err, "host")

	_, err = New(Config{Host: "local"})
	assert.ErrorContains(t, err, "blob store")
}

func TestPollOnceAppliesLatestPeer(t *testing.T) {
	te := newTestEngine(t)
	base := te.clock.Now()

	te.blob.addPeer(t, "sync", "alpha", base.Add(-time.Minute), snapshot.NewText("older"))
	te.blob.addPeer(t, "sync", "beta", base.Add(-time.Second), snapshot.NewText("newer"))

	applied, err := te.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "beta", applied.Peer)
	assert.Equal(t, "newer", applied.Snapshot.Text)

	require.Equal(t, 1, te.clipboard.writeCount())
	assert.Equal(t, []clip.Item{clip.TextItem("newer")}, te.clipboard.written[0])
	assert.Equal(t, 1, te.notifier.count())

	// Both peers were downloaded and both registry timestamps advanced,
	// even though only one won.
	seen, ok := te.Registry().LastKnown(envelope.BlobName("alpha"))
	require.True(t, ok)
	assert.True(t, seen.Equal(base.Add(-time.Minute)))
	seen, ok = te.Registry().LastKnown(envelope.BlobName("beta"))
	require.True(t, ok)
	assert.True(t, seen.Equal(base.Add(-time.Second)))
}

func TestPollOnceExcludesOwnBlob(t *testing.T) {
	te := newTestEngine(t)
	te.blob.addPeer(t, "sync", "local", te.clock.Now(), snapshot.NewText("mine"))

	applied, err := te.PollOnce()
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.Zero(t, te.blob.getCount(), "own blob must never be downloaded")
	assert.Zero(t, te.clipboard.writeCount())
}

func TestPollOnceRateLimited(t *testing.T) {
	te := newTestEngine(t)

	_, err := te.PollOnce()
	require.NoError(t, err)

	te.blob.addPeer(t, "sync", "alpha", te.clock.Now(), snapshot.NewText("hello"))

	// Second poll inside the check interval is a silent no-op.
	applied, err := te.PollOnce()
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.Zero(t, te.blob.getCount())

	te.clock.Advance(5 * time.Second)
	applied, err = te.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "alpha", applied.Peer)
}

func TestPollOnceTieBreaksByBlobName(t *testing.T) {
	te := newTestEngine(t)
	mtime := te.clock.Now().Add(-time.Second)

	te.blob.addPeer(t, "sync", "zulu", mtime, snapshot.NewText("from zulu"))
	te.blob.addPeer(t, "sync", "alpha", mtime, snapshot.NewText("from alpha"))

	applied, err := te.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "alpha", applied.Peer, "equal timestamps resolve to the smaller blob name")
}

func TestPollOnceSkipsUnchangedPeers(t *testing.T) {
	te := newTestEngine(t)
	te.blob.addPeer(t, "sync", "alpha", te.clock.Now().Add(-time.Minute), snapshot.NewText("hello"))

	applied, err := te.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, applied)
	gets := te.blob.getCount()

	te.clock.Advance(5 * time.Second)
	applied, err = te.PollOnce()
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.Equal(t, gets, te.blob.getCount(), "an unmoved blob must not be re-downloaded")
}

func TestPollOnceCorruptBlobSkippedOnce(t *testing.T) {
	te := newTestEngine(t)
	mtime := te.clock.Now().Add(-time.Minute)
	te.blob.addRaw("sync", envelope.BlobName("alpha"), mtime, []byte("not gzip at all"))

	applied, err := te.PollOnce()
	require.NoError(t, err, "a corrupt peer is logged, not fatal")
	assert.Nil(t, applied)
	assert.Zero(t, te.clipboard.writeCount())

	// The registry advanced past the bad content, so it is not re-fetched.
	seen, ok := te.Registry().LastKnown(envelope.BlobName("alpha"))
	require.True(t, ok)
	assert.True(t, seen.Equal(mtime))

	gets := te.blob.getCount()
	te.clock.Advance(5 * time.Second)
	_, err = te.PollOnce()
	require.NoError(t, err)
	assert.Equal(t, gets, te.blob.getCount())
}

func TestPollOnceTransportErrorRetries(t *testing.T) {
	te := newTestEngine(t)
	mtime := te.clock.Now().Add(-time.Minute)
	te.blob.addPeer(t, "sync", "alpha", mtime, snapshot.NewText("unreachable"))
	te.blob.addPeer(t, "sync", "beta", mtime.Add(-time.Second), snapshot.NewText("reachable"))
	te.blob.getErr[envelope.BlobName("alpha")] = errors.New("502 bad gateway")

	applied, err := te.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, applied, "one unreachable peer must not block the others")
	assert.Equal(t, "beta", applied.Peer)

	// A transport failure leaves the timestamp at the zero sentinel so the
	// next cycle retries the download.
	seen, ok := te.Registry().LastKnown(envelope.BlobName("alpha"))
	require.True(t, ok)
	assert.True(t, seen.IsZero())

	delete(te.blob.getErr, envelope.BlobName("alpha"))
	te.clock.Advance(5 * time.Second)
	applied, err = te.PollOnce()
	require.NoError(t, err)
	require.NotNil(t, applied)
	assert.Equal(t, "alpha", applied.Peer)
}

func TestApplyArmsGuardAndPrimesFingerprint(t *testing.T) {
	te := newTestEngine(t)
	te.blob.addPeer(t, "sync", "alpha", te.clock.Now().Add(-time.Minute), snapshot.NewText("incoming"))

	_, err := te.PollOnce()
	require.NoError(t, err)
	assert.True(t, te.Guard().Active(), "guard must be armed right after a remote apply")

	// Inside the grace window the clipboard is not even read.
	require.NoError(t, te.OnChange())
	assert.Zero(t, te.clipboard.readCount())

	// After the window closes, the applied content is still not treated as a
	// local change: the fingerprint was primed before the clipboard write.
	te.clock.Advance(3 * time.Second)
	require.NoError(t, te.OnChange())
	count, err := te.cfg.History.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "remote content must not be re-captured")
	assert.Zero(t, te.blob.putCount(), "remote content must not be re-uploaded")
}

func TestDiscoverSeedsRegistryWithoutReplay(t *testing.T) {
	te := newTestEngine(t)
	te.blob.addPeer(t, "sync", "alpha", te.clock.Now().Add(-time.Hour), snapshot.NewText("stale"))

	require.NoError(t, te.Discover())
	assert.Equal(t, 1, te.Registry().Len())

	// Content that predates startup stays off the clipboard.
	applied, err := te.PollOnce()
	require.NoError(t, err)
	assert.Nil(t, applied)
	assert.Zero(t, te.clipboard.writeCount())
}

func TestOnChangeCapturesAndUploads(t *testing.T) {
	te := newTestEngine(t)
	te.clipboard.set(clip.TextItem("hello world"))

	require.NoError(t, te.OnChange())

	count, err := te.cfg.History.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, te.blob.putCount())
	assert.Equal(t, 1, te.notifier.count())

	snap := decodeOwnBlob(t, te)
	assert.Equal(t, snapshot.KindText, snap.Kind)
	assert.Equal(t, "hello world", snap.Text)
}

func TestOnChangeDuplicateSuppressed(t *testing.T) {
	te := newTestEngine(t)
	img := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	te.clipboard.set(clip.Item{MIME: "image/png", Data: img})

	require.NoError(t, te.OnChange())
	require.NoError(t, te.OnChange())

	count, err := te.cfg.History.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "byte-identical content must not produce a second capture")
	assert.Equal(t, 1, te.blob.putCount())
}

func TestOnChangeWhitespaceOnlyIgnored(t *testing.T) {
	te := newTestEngine(t)
	te.clipboard.set(clip.TextItem("   \n\t  "))

	require.NoError(t, te.OnChange())

	count, err := te.cfg.History.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, te.blob.putCount())
}

func TestOnChangeImageBeatsText(t *testing.T) {
	te := newTestEngine(t)
	te.clipboard.set(
		clip.TextItem("screenshot.png"),
		clip.Item{MIME: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	)

	require.NoError(t, te.OnChange())

	snap := decodeOwnBlob(t, te)
	assert.Equal(t, snapshot.KindImage, snap.Kind)
}

func TestOnChangeRichTextBecomesMulti(t *testing.T) {
	te := newTestEngine(t)
	te.clipboard.set(
		clip.TextItem("bold"),
		clip.Item{MIME: "text/html", Data: []byte("<b>bold</b>")},
	)

	require.NoError(t, te.OnChange())

	snap := decodeOwnBlob(t, te)
	assert.Equal(t, snapshot.KindMulti, snap.Kind)
	assert.Equal(t, "bold", snap.Formats["text/plain"])
	assert.Equal(t, "<b>bold</b>", snap.Formats["text/html"])
}

func TestOnChangeUploadFailureKeepsCapture(t *testing.T) {
	te := newTestEngine(t)
	te.clipboard.set(clip.TextItem("offline copy"))
	te.blob.putErr = errors.New("connection refused")

	require.NoError(t, te.OnChange(), "an unreachable share must not fail the capture")

	count, err := te.cfg.History.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The change still counts as seen: the same content is not re-captured
	// on the next event.
	require.NoError(t, te.OnChange())
	count, err = te.cfg.History.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOnChangeReadErrorPropagates(t *testing.T) {
	te := newTestEngine(t)
	te.clipboard.readErr = errors.New("clipboard busy")

	err := te.OnChange()
	assert.ErrorContains(t, err, "clipboard read")
}
