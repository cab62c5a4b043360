package ops

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	files := map[string]string{
		"store/tasks.json":    `[{"id":"task_1","title":"Laundry","dueDate":"2024-06-01"}]`,
		"store/darkMode.json": `true`,
	}
	writeTree(t, src, files)

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	require.NoError(t, Backup(src, archive, false))

	restoreDir := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, Restore(archive, restoreDir))

	assert.Equal(t, files, readTree(t, restoreDir))
}

func TestBackup_SkipsCacheBucketsByDefault(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data")
	writeTree(t, src, map[string]string{
		"store/tasks.json":                  `[]`,
		"cache/dailytasks-cache-v1/ab.json": `{"path":"/"}`,
	})

	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	require.NoError(t, Backup(src, archive, false))

	restoreDir := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, Restore(archive, restoreDir))
	got := readTree(t, restoreDir)
	assert.Contains(t, got, "store/tasks.json")
	assert.NotContains(t, got, "cache/dailytasks-cache-v1/ab.json")

	// opt in and the buckets come along
	archive2 := filepath.Join(t.TempDir(), "full.tar.gz")
	require.NoError(t, Backup(src, archive2, true))
	restoreDir2 := filepath.Join(t.TempDir(), "restore2")
	require.NoError(t, Restore(archive2, restoreDir2))
	assert.Contains(t, readTree(t, restoreDir2), "cache/dailytasks-cache-v1/ab.json")
}

func TestRestore_RejectsPathTraversal(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.tar.gz")
	f, err := os.Create(archive)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     "../escape.txt",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len("bad")),
	}))
	_, err = tw.Write([]byte("bad"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	target := t.TempDir()
	assert.Error(t, Restore(archive, filepath.Join(target, "out")))
	_, err = os.Stat(filepath.Join(target, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
