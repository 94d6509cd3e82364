package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, perGenre map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for genre, files := range perGenre {
		dir := filepath.Join(root, genre)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
		}
	}
	return root
}

func TestFSCatalog_CountsAudioOnly(t *testing.T) {
	root := writeDataset(t, map[string][]string{
		"blues": {"blues.00000.au", "blues.00001.AU", "notes.txt"},
		"jazz":  {"jazz.00000.wav", "jazz.00001.mp3"},
	})

	n, err := FSCatalog{}.Count(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = FSCatalog{}.Count(context.Background(), filepath.Join(root, "jazz"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFSCatalog_Missing(t *testing.T) {
	_, err := FSCatalog{}.Count(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockCatalog_Count(t *testing.T) {
	m := NewMockCatalog("")
	ctx := context.Background()
	assert.Len(t, m.Files(), 1000)
	assert.Equal(t, "/datasets/gtzan/blues/blues.00000.au", m.Files()[0])

	tests := []struct {
		path string
		want int
	}{
		{"/datasets/gtzan", 1000},
		{"/datasets/gtzan/", 1000},
		{"/datasets/gtzan/jazz", 100},
		{"/datasets/gtzan/jazz/jazz.00042.au", 1},
		{"/datasets", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			n, err := m.Count(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}

	_, err := m.Count(ctx, "/datasets/gtz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComposite_FallsBack(t *testing.T) {
	c := Composite{FSCatalog{}, NewMockCatalog(DefaultPath)}

	n, err := c.Count(context.Background(), "/datasets/gtzan/rock")
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	_, err = c.Count(context.Background(), "/nowhere/at/all")
	assert.ErrorIs(t, err, ErrNotFound)
}

type countingCatalog struct {
	calls int
	n     int
	err   error
}

func (c *countingCatalog) Count(context.Context, string) (int, error) {
	c.calls++
	return c.n, c.err
}

func TestComposite_StopsOnHardError(t *testing.T) {
	boom := errors.New("permission denied")
	second := &countingCatalog{n: 5}
	c := Composite{&countingCatalog{err: boom}, second}

	_, err := c.Count(context.Background(), "/x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, second.calls)
}

func TestCached_MemoizesSuccess(t *testing.T) {
	inner := &countingCatalog{n: 42}
	c := NewCached(inner, time.Minute)

	for i := 0; i < 3; i++ {
		n, err := c.Count(context.Background(), "/d")
		require.NoError(t, err)
		assert.Equal(t, 42, n)
	}
	assert.Equal(t, 1, inner.calls)

	_, err := c.Count(context.Background(), "/other")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	inner := &countingCatalog{err: ErrNotFound}
	c := NewCached(inner, time.Minute)

	_, err := c.Count(context.Background(), "/d")
	assert.Error(t, err)
	_, err = c.Count(context.Background(), "/d")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestFSCatalog_EmptyDirIsNotFound(t *testing.T) {
	root := writeDataset(t, map[string][]string{"pop": {"readme.md"}})
	_, err := FSCatalog{}.Count(context.Background(), root)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestricted_RejectsPathsOutsideRoots(t *testing.T) {
	inside := t.TempDir()
	outside := t.TempDir()
	for _, dir := range []string{inside, outside} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "rock"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "rock", "rock.00000.au"), []byte("x"), 0o644))
	}

	cat := NewRestricted(FSCatalog{}, inside)

	n, err := cat.Count(context.Background(), filepath.Join(inside, "rock"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, p := range []string{outside, "/", "/etc/passwd", inside + "/../" + filepath.Base(outside), ""} {
		_, err := cat.Count(context.Background(), p)
		assert.ErrorIs(t, err, ErrNotFound, p)
	}
}

func TestRestricted_Allowed(t *testing.T) {
	cat := NewRestricted(nil, "/datasets/gtzan", " ")

	assert.True(t, cat.Allowed("/datasets/gtzan"))
	assert.True(t, cat.Allowed("/datasets/gtzan/jazz/"))
	assert.False(t, cat.Allowed("/datasets/gtzan2"))
	assert.False(t, cat.Allowed("/datasets"))
	assert.False(t, cat.Allowed("/datasets/gtzan/../other"))
	assert.Len(t, cat.Roots, 1)
}
