package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "lg-state.json"))
	st := store.Load()
	require.NotNil(t, st.Windows)
	assert.Empty(t, st.Windows)
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	t.Parallel()

	for name, content := range map[string]string{
		"truncated": `{"windows": {"0x1": "ab`,
		"garbage":   "\x00\x01not json",
		"wrong type": `{"windows": ["0x1"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lg-state.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			st := NewStore(path).Load()
			require.NotNil(t, st.Windows)
			assert.Empty(t, st.Windows)
		})
	}
}

func TestLoadNullWindows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lg-state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	st := NewStore(path).Load()
	assert.NotNil(t, st.Windows)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "lg-state.json")
	store := NewStore(path)

	st := New()
	st.Record("0x03a00007", "aa11")
	st.Record("0x03c00004", "bb22")
	require.NoError(t, store.Save(st))

	got := store.Load()
	assert.Equal(t, st.Windows, got.Windows)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())
}

func TestSaveFullyReplaces(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "lg-state.json"))

	first := New()
	first.Record("gone", "1111")
	first.Record("kept", "2222")
	require.NoError(t, store.Save(first))

	second := New()
	second.Record("kept", "3333")
	require.NoError(t, store.Save(second))

	assert.Equal(t, map[string]string{"kept": "3333"}, store.Load().Windows)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "lg-state.json"))
	require.NoError(t, store.Save(New()))
	require.NoError(t, store.Save(New()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lg-state.json", entries[0].Name())
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewStore(filepath.Join(blocker, "lg-state.json")).Save(New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))
}

func TestRecordSkipsEmptyDigest(t *testing.T) {
	t.Parallel()

	st := New()
	st.Record("0x1", "")
	_, ok := st.Fingerprint("0x1")
	assert.False(t, ok)

	st.Record("0x1", "abc")
	digest, ok := st.Fingerprint("0x1")
	assert.True(t, ok)
	assert.Equal(t, "abc", digest)
}

func TestReset(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "lg-state.json"))
	require.NoError(t, store.Reset())

	st := New()
	st.Record("0x1", "abc")
	require.NoError(t, store.Save(st))
	require.NoError(t, store.Reset())
	assert.Empty(t, store.Load().Windows)
}

func TestNewStoreDefaultPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultPath, NewStore("").Path())
}
