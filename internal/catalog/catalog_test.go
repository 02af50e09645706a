package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rapantix/internal/types"
)

var songs = []types.Song{
	{Artist: "A", Title: "Nuit Blanche", Lyrics: "la nuit tombe"},
	{Artist: "B", Title: "Béton (feat. C)", Lyrics: "gris béton"},
	{Artist: "", Title: "Orphan", Lyrics: "x"},
}

func TestNew_SkipsIncompleteSongs(t *testing.T) {
	t.Parallel()

	c := New(songs, nil)
	assert.Equal(t, 2, c.Len())
}

func TestRandom_ExcludesCompleted(t *testing.T) {
	t.Parallel()

	c := New(songs, nil)
	for range 20 {
		song, reset, err := c.Random(context.Background(), []string{"nuit blanche"})
		require.NoError(t, err)
		assert.False(t, reset)
		assert.Equal(t, "Béton (feat. C)", song.Title)
	}
}

func TestRandom_AllCompletedResets(t *testing.T) {
	t.Parallel()

	c := New(songs, nil)
	_, reset, err := c.Random(context.Background(), []string{"Nuit Blanche", "BETON"})
	require.NoError(t, err)
	assert.True(t, reset)
}

func TestRandom_Empty(t *testing.T) {
	t.Parallel()

	_, _, err := New(nil, nil).Random(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRandom_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(songs, nil).Random(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "songs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"songs":[{"artist":"A","title":"T","lyrics":"l"}]}`), 0o600))

	c, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Load(bad, nil)
	assert.Error(t, err)
}

func TestLoad_BundledCatalog(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join("..", "..", "data", "songs.json"), nil)
	require.NoError(t, err)
	assert.Positive(t, c.Len())
}
