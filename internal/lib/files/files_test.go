package files

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceMemFs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/data/schedule.csv", []byte("semester\n2024A\n"), 0o640))
	require.NoError(t, fsys.MkdirAll("/data/dir.csv", 0o755))

	src := NewSource(fsys, "/data")

	path := src.Resolve("schedule.csv")
	assert.Equal(t, "/data/schedule.csv", path)
	assert.Equal(t, "/abs/x.csv", src.Resolve("/abs/x.csv"))

	ok, err := src.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = src.Exists("/data/missing.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = src.Exists("/data/dir.csv")
	require.NoError(t, err)
	assert.False(t, ok, "directories are not sources")

	st, err := src.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(15), st.Size)
	assert.Equal(t, os.FileMode(0o640), st.Mode)
	assert.Equal(t, st.ModTime, st.ChangeTime)

	f, err := src.Open(path)
	require.NoError(t, err)
	defer f.Close()
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "semester\n2024A\n", string(body))
}

func TestSourceOSStat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "program.csv"), []byte("x"), 0o600))

	src := NewOSSource(dir)
	st, err := src.Stat(src.Resolve("program.csv"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Size)
	assert.False(t, st.ChangeTime.IsZero())
}
