package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save("abc.wav", []byte("RIFF")))
	data, err := os.ReadFile(filepath.Join(dir, "abc.wav"))
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
	assert.True(t, s.Exists("abc.wav"))

	removed, err := s.Remove("abc.wav")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.Exists("abc.wav"))

	removed, err = s.Remove("abc.wav")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_RejectsEscapingIDs(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../x.wav", "a/b.wav", ".hidden", ".."} {
		assert.ErrorIs(t, s.Save(id, []byte("x")), ErrInvalidFileID, id)
		_, err := s.Remove(id)
		assert.ErrorIs(t, err, ErrInvalidFileID, id)
	}
}
