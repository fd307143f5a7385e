package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)
	return s
}

func TestSave_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("diagram.png", strings.NewReader("png bytes"))
	require.NoError(t, err)

	assert.Equal(t, int64(len("png bytes")), ref.Size)
	assert.True(t, strings.HasSuffix(ref.StoredName, "_diagram.png"))
	// Trailing slash on the base URL must not produce a double slash.
	assert.Equal(t, "http://localhost:8080/files/"+ref.StoredName, ref.URL)

	data, err := os.ReadFile(filepath.Join(s.Dir(), ref.StoredName))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(data))
}

func TestSave_UniqueNamesForSameFilename(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Save("report.pdf", strings.NewReader("first"))
	require.NoError(t, err)
	b, err := s.Save("report.pdf", strings.NewReader("second"))
	require.NoError(t, err)

	assert.NotEqual(t, a.StoredName, b.StoredName)
}

func TestSave_RejectsOversizedFile(t *testing.T) {
	s := newTestStore(t)

	big := strings.NewReader(strings.Repeat("x", MaxBlobSize+1))
	_, err := s.Save("huge.bin", big)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")

	// The partial write must not be left behind.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSave_ExactlyAtLimit(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("exact.bin", strings.NewReader(strings.Repeat("x", MaxBlobSize)))
	require.NoError(t, err)
	assert.Equal(t, int64(MaxBlobSize), ref.Size)
}

func TestSave_SanitizesTraversalAttempts(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("../../etc/passwd", strings.NewReader("nope"))
	require.NoError(t, err)

	assert.NotContains(t, ref.StoredName, "..")
	assert.NotContains(t, ref.StoredName, "/")

	// The file lands inside the store directory, nowhere else.
	_, err = os.Stat(filepath.Join(s.Dir(), ref.StoredName))
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("gone.txt", strings.NewReader("bye"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ref.StoredName))

	_, err = os.Stat(filepath.Join(s.Dir(), ref.StoredName))
	assert.True(t, os.IsNotExist(err))
}

func TestDelete_MissingFile(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Delete("never-existed"))
}
