package filetools

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndExtractArchive(t *testing.T) {
	for format, ext := range archiveExtensions {
		t.Run(format, func(t *testing.T) {
			fx := newFixture(t)
			fx.write(t, "proj/a.txt", "alpha")
			fx.write(t, "proj/sub/b.txt", "beta")

			out, err := fx.call(t, "create_archive", map[string]interface{}{
				"source_path": "proj", "destination_directory": "out", "format": format,
			})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(fx.dir, "out", "proj"+ext), out.Data)

			_, err = fx.call(t, "create_archive", map[string]interface{}{
				"source_path": "proj", "destination_directory": "out", "format": format,
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "already exists")

			_, err = fx.call(t, "extract_archive", map[string]interface{}{
				"archive_path": "out/proj" + ext, "destination_path": "restored",
			})
			require.NoError(t, err)
			assert.Equal(t, "alpha", fx.read(t, "restored/proj/a.txt"))
			assert.Equal(t, "beta", fx.read(t, "restored/proj/sub/b.txt"))

			fx.write(t, "restored/proj/a.txt", "edited")
			_, err = fx.call(t, "extract_archive", map[string]interface{}{
				"archive_path": "out/proj" + ext, "destination_path": "restored",
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "would overwrite")
			assert.Equal(t, "edited", fx.read(t, "restored/proj/a.txt"))
		})
	}
}

func TestCreateArchive_CustomName(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "notes.txt", "n")

	out, err := fx.call(t, "create_archive", map[string]interface{}{
		"source_path": "notes.txt", "archive_name": "backup", "format": "tar",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.dir, "backup.tar"), out.Data)
}

func zipBytes(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractArchive_RejectsEscapingEntries(t *testing.T) {
	for _, bad := range []string{"../evil.txt", "/abs.txt", "ok/../../evil.txt"} {
		t.Run(bad, func(t *testing.T) {
			fx := newFixture(t)
			require.NoError(t, afero.WriteFile(fx.fs, filepath.Join(fx.dir, "bad.zip"), zipBytes(t, "fine.txt", bad), 0o644))

			_, err := fx.call(t, "extract_archive", map[string]interface{}{"archive_path": "bad.zip", "destination_path": "out"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "escapes the destination")
			assert.False(t, fx.exists("evil.txt"))
			assert.False(t, fx.exists("out/fine.txt"), "nothing is written when any entry is rejected")
		})
	}
}

func TestExtractArchive_UnsupportedFormat(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "x.rar", "data")

	_, err := fx.call(t, "extract_archive", map[string]interface{}{"archive_path": "x.rar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive format")
}

func TestExtractTarget(t *testing.T) {
	target, ok := extractTarget("/dest", "a/b.txt")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join("/dest", "a", "b.txt"), target)

	target, ok = extractTarget("/dest", "./")
	assert.True(t, ok)
	assert.Equal(t, "/dest", target)

	_, ok = extractTarget("/dest", "a/../../b")
	assert.False(t, ok)
}

func TestArchiveFormat(t *testing.T) {
	for name, want := range map[string]string{"a.zip": "zip", "a.TAR": "tar", "a.tar.gz": "gztar", "a.tgz": "gztar"} {
		got, ok := archiveFormat(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := archiveFormat("a.7z")
	assert.False(t, ok)
}
