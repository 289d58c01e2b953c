package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipdav/clipdav/internal/snapshot"
)

func newStore(t *testing.T, max int) *Store {
	t.Helper()
	s, err := New(t.TempDir(), max)
	require.NoError(t, err)
	return s
}

func TestNextSeqEmptyDir(t *testing.T) {
	s := newStore(t, 10)
	seq, err := s.NextSeq()
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestNextSeqMonotonic(t *testing.T) {
	s := newStore(t, 100)
	for i := 1; i <= 5; i++ {
		seq, err := s.NextSeq()
		require.NoError(t, err)
		assert.Equal(t, i, seq)
		_, err = s.Write(snapshot.NewText(fmt.Sprintf("item %d", i)), seq)
		require.NoError(t, err)
	}
}

func TestNextSeqResumesAfterRestart(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 100)
	require.NoError(t, err)
	_, err = s.Write(snapshot.NewText("before restart"), 41)
	require.NoError(t, err)

	// A fresh store over the same directory resumes after the highest file.
	s2, err := New(dir, 100)
	require.NoError(t, err)
	seq, err := s2.NextSeq()
	require.NoError(t, err)
	assert.Equal(t, 42, seq)
}

func TestNextSeqWraps(t *testing.T) {
	s := newStore(t, 2000)
	_, err := s.Write(snapshot.NewText("last slot"), 999)
	require.NoError(t, err)

	seq, err := s.NextSeq()
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestWriteText(t *testing.T) {
	s := newStore(t, 10)
	path, err := s.Write(snapshot.NewText("hello"), 7)
	require.NoError(t, err)
	assert.Equal(t, "clipboard_text_007.txt", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestWriteImage(t *testing.T) {
	s := newStore(t, 10)
	data := []byte{0x89, 0x50, 0x4e, 0x47}
	path, err := s.Write(snapshot.NewImage(data, "png"), 12)
	require.NoError(t, err)
	assert.Equal(t, "clipboard_image_012.png", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestWriteRichOneFilePerFormat(t *testing.T) {
	s := newStore(t, 10)
	path, err := s.Write(snapshot.NewMulti(map[string]string{
		"text/plain": "plain",
		"text/html":  "<p>plain</p>",
	}), 3)
	require.NoError(t, err)
	assert.Equal(t, "clipboard_rich_003.txt", filepath.Base(path), "text/plain is the primary capture")

	for _, name := range []string{"clipboard_rich_003.txt", "clipboard_rich_003.html"} {
		_, err := os.Stat(filepath.Join(s.Dir(), name))
		assert.NoError(t, err, name)
	}
}

func TestEnforceCapacityEvictsOldest(t *testing.T) {
	s := newStore(t, 3)

	base := time.Now().Add(-time.Hour)
	var paths []string
	for i := 1; i <= 3; i++ {
		path, err := s.Write(snapshot.NewText(fmt.Sprintf("item %d", i)), i)
		require.NoError(t, err)
		// Spread modification times so "oldest" is unambiguous.
		require.NoError(t, os.Chtimes(path, base, base.Add(time.Duration(i)*time.Minute)))
		paths = append(paths, path)
	}

	s.EnforceCapacity()

	count, err := s.Count()
	require.NoError(t, err)
	assert.Less(t, count, 3, "capacity enforcement must leave room for the next capture")

	_, err = os.Stat(paths[0])
	assert.True(t, os.IsNotExist(err), "the oldest capture is the one evicted")
	_, err = os.Stat(paths[2])
	assert.NoError(t, err, "the newest capture survives")
}

func TestEnforceCapacityNoopUnderLimit(t *testing.T) {
	s := newStore(t, 10)
	path, err := s.Write(snapshot.NewText("keep me"), 1)
	require.NoError(t, err)

	s.EnforceCapacity()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCapacityBoundHolds(t *testing.T) {
	s := newStore(t, 5)
	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 20; i++ {
		seq, err := s.NextSeq()
		require.NoError(t, err)
		path, err := s.Write(snapshot.NewText(fmt.Sprintf("item %d", i)), seq)
		require.NoError(t, err)
		require.NoError(t, os.Chtimes(path, base, base.Add(time.Duration(i)*time.Second)))
		s.EnforceCapacity()

		count, err := s.Count()
		require.NoError(t, err)
		assert.LessOrEqual(t, count, 5)
	}
}
