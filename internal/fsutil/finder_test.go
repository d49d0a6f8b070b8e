package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.hcl", "a.yaml", "nested/c.yml", "nested/skip.txt"} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	files, err := FindFilesByExtension(root, ".hcl", ".yaml", ".yml")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "a.yaml"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "nested", "c.yml"),
	}, files)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	files, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".hcl")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestStem(t *testing.T) {
	require.Equal(t, "image2_iris", Stem("/etc/profiles/image2_iris.hcl"))
	require.Equal(t, "noext", Stem("noext"))
}
