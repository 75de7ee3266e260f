package filetools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

type fixture struct {
	reg *toolexecutor.Registry
	wc  *toolexecutor.WorkContext
	fs  afero.Fs
	dir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureFs(t, afero.NewOsFs())
}

func newFixtureFs(t *testing.T, fs afero.Fs) *fixture {
	t.Helper()

	reg := toolexecutor.NewRegistry()
	require.NoError(t, Register(reg, fs, nil))
	reg.Seal()

	dir := t.TempDir()
	wc, err := toolexecutor.NewWorkContext(dir)
	require.NoError(t, err)
	return &fixture{reg: reg, wc: wc, fs: fs, dir: wc.Dir()}
}

func (fx *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	full := filepath.Join(fx.dir, rel)
	require.NoError(t, fx.fs.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, afero.WriteFile(fx.fs, full, []byte(content), 0o644))
	return full
}

func (fx *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	b, err := afero.ReadFile(fx.fs, filepath.Join(fx.dir, rel))
	require.NoError(t, err)
	return string(b)
}

func (fx *fixture) exists(rel string) bool {
	ok, _ := afero.Exists(fx.fs, filepath.Join(fx.dir, rel))
	return ok
}

func (fx *fixture) call(t *testing.T, name string, raw map[string]interface{}) (toolexecutor.Output, error) {
	t.Helper()

	call, err := toolexecutor.NewValidator(fx.reg).ValidateCall(1, toolexecutor.CandidateCall{Name: name, Arguments: raw})
	require.NoError(t, err)

	_, handler, err := fx.reg.Resolve(name)
	require.NoError(t, err)
	return handler(context.Background(), fx.wc, call.Args)
}

func TestTools_Registered(t *testing.T) {
	fx := newFixture(t)

	var names []string
	for _, spec := range fx.reg.ListAll() {
		names = append(names, spec.Name)
	}
	assert.Len(t, names, 45)
	assert.Equal(t, "get_working_directory", names[0])
	assert.Equal(t, "check_os", names[len(names)-1])
	assert.Contains(t, names, "search_text_across_files")
	assert.Contains(t, names, "delete_lines_from_file")
	assert.Contains(t, names, "extract_archive")
}

func TestClassifier(t *testing.T) {
	c := Classifier()

	tests := []struct {
		tool string
		args toolexecutor.Args
		want bool
	}{
		{"delete_file", nil, true},
		{"delete_directory", nil, true},
		{"remove_duplicates", nil, true},
		{"set_file_permissions", nil, true},
		{"add_content_to_file", toolexecutor.Args{"append": false}, true},
		{"add_content_to_file", toolexecutor.Args{"append": true}, false},
		{"create_file", nil, false},
		{"view_file", nil, false},
		{"delete_lines_from_file", nil, true},
		{"copy_directory", toolexecutor.Args{"overwrite": true}, true},
		{"copy_directory", toolexecutor.Args{"overwrite": false}, false},
		{"move_directory", toolexecutor.Args{"overwrite": true}, true},
		{"move_directory", toolexecutor.Args{"overwrite": false}, false},
		{"empty_cleanup", toolexecutor.Args{"delete_empty_dirs": true, "delete_empty_files": false}, true},
		{"empty_cleanup", toolexecutor.Args{"delete_empty_dirs": false, "delete_empty_files": true}, true},
		{"empty_cleanup", toolexecutor.Args{"delete_empty_dirs": false, "delete_empty_files": false}, false},
		{"insert_content_at_line", nil, false},
		{"extract_archive", nil, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %v", tt.tool, tt.args), func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsDestructive(toolexecutor.ToolCall{Name: tt.tool, Args: tt.args}))
		})
	}
}

func TestCreateAndViewFile(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.call(t, "create_file", map[string]interface{}{"filename": "notes.txt", "content": "hello"})
	require.NoError(t, err)

	out, err := fx.call(t, "view_file", map[string]interface{}{"filename": "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Data)

	_, err = fx.call(t, "create_file", map[string]interface{}{"filename": "notes.txt"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureBlocking, toolexecutor.ClassifyFailure(err))
	assert.Equal(t, "hello", fx.read(t, "notes.txt"))
}

func TestViewFile_Missing(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.call(t, "view_file", map[string]interface{}{"filename": "nope.txt"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureRecoverable, toolexecutor.ClassifyFailure(err))
	assert.Contains(t, err.Error(), "file not found")
}

func TestAddContentToFile(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "log.txt", "a\n")

	_, err := fx.call(t, "add_content_to_file", map[string]interface{}{"filename": "log.txt", "content": "b\n"})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", fx.read(t, "log.txt"))

	_, err = fx.call(t, "add_content_to_file", map[string]interface{}{"filename": "log.txt", "content": "c", "append": false})
	require.NoError(t, err)
	assert.Equal(t, "c", fx.read(t, "log.txt"))
}

func TestRenameCopyMoveDelete(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a.txt", "data")

	_, err := fx.call(t, "rename_file", map[string]interface{}{"filename": "a.txt", "new_filename": "sub/b c.txt"})
	require.NoError(t, err)
	assert.True(t, fx.exists("b_c.txt"), "new name is sanitized to its base")
	assert.False(t, fx.exists("a.txt"))

	_, err = fx.call(t, "copy_file", map[string]interface{}{"filename": "b_c.txt", "dest_path": "backup"})
	require.NoError(t, err)
	assert.Equal(t, "data", fx.read(t, "backup/b_c.txt"))

	_, err = fx.call(t, "copy_file", map[string]interface{}{"filename": "b_c.txt", "dest_filename": "copy.txt"})
	require.NoError(t, err)
	assert.Equal(t, "data", fx.read(t, "copy.txt"))

	_, err = fx.call(t, "move_file", map[string]interface{}{"filename": "copy.txt", "dest_path": "moved"})
	require.NoError(t, err)
	assert.True(t, fx.exists("moved/copy.txt"))
	assert.False(t, fx.exists("copy.txt"))

	_, err = fx.call(t, "delete_file", map[string]interface{}{"filename": "b_c.txt"})
	require.NoError(t, err)
	assert.False(t, fx.exists("b_c.txt"))
}

func TestCopyFile_SameFile(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a.txt", "data")

	_, err := fx.call(t, "copy_file", map[string]interface{}{"filename": "a.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same file")
}

func TestFileExists(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "here.txt", "")

	out, err := fx.call(t, "file_exists", map[string]interface{}{"filename": "here.txt"})
	require.NoError(t, err)
	assert.Equal(t, true, out.Data)

	out, err = fx.call(t, "file_exists", map[string]interface{}{"filename": "gone.txt"})
	require.NoError(t, err)
	assert.Equal(t, false, out.Data)
}

func TestReplaceTextInFile(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "cfg.ini", "host=old\nbackup=old\n")

	out, err := fx.call(t, "replace_text_in_file", map[string]interface{}{"filename": "cfg.ini", "old_text": "old", "new_text": "new"})
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "Replaced 2 occurrence(s)")
	assert.Equal(t, "host=new\nbackup=new\n", fx.read(t, "cfg.ini"))

	_, err = fx.call(t, "replace_text_in_file", map[string]interface{}{"filename": "cfg.ini", "old_text": "missing", "new_text": "x"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureRecoverable, toolexecutor.ClassifyFailure(err))
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n\n", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, countLines([]byte(tt.content)), "%q", tt.content)
	}
}

func TestFindFrequentWord(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "words.txt", "Go go rust RUST zig go")

	out, err := fx.call(t, "find_frequent_word", map[string]interface{}{"filename": "words.txt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"word": "go", "count": "3"}, out.Data)

	word, count := mostFrequentWord("b a a b")
	assert.Equal(t, "b", word, "ties go to the first word seen")
	assert.Equal(t, 2, count)
}

func TestGetFileHash(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "h.txt", "abc")

	tests := map[string]string{
		"md5":    "900150983cd24fb0d6963f7d28e17f72",
		"sha1":   "a9993e364706816aba3e25717850c26c9cd0d89d",
		"sha256": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
	}
	for algo, want := range tests {
		out, err := fx.call(t, "get_file_hash", map[string]interface{}{"filename": "h.txt", "algorithm": algo})
		require.NoError(t, err, algo)
		assert.Equal(t, want, out.Data, algo)
	}

	out, err := fx.call(t, "get_file_hash", map[string]interface{}{"filename": "h.txt"})
	require.NoError(t, err)
	assert.Equal(t, tests["sha256"], out.Data)
}

func TestSetFilePermissions(t *testing.T) {
	fx := newFixture(t)
	full := fx.write(t, "run.sh", "#!/bin/sh\n")

	out, err := fx.call(t, "set_file_permissions", map[string]interface{}{"filename": "run.sh", "permissions": "755"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"before": "644", "after": "755"}, out.Data)

	info, err := os.Stat(full)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	_, err = fx.call(t, "set_file_permissions", map[string]interface{}{"filename": "run.sh", "permissions": "999"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid permissions")
}

func TestParsePermissions(t *testing.T) {
	perm, err := parsePermissions("0644")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), perm)

	perm, err = parsePermissions("0o700")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), perm)

	for _, bad := range []string{"", "rwx", "1777", "8"} {
		_, err := parsePermissions(bad)
		assert.Error(t, err, bad)
	}
}

func TestGetFileMetadata(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "m.txt", "12345")

	out, err := fx.call(t, "get_file_metadata", map[string]interface{}{"filename": "m.txt"})
	require.NoError(t, err)

	table, ok := out.Data.(*toolexecutor.Table)
	require.True(t, ok)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, []string{"Size", "5 B (5 bytes)"}, table.Rows[0])
	assert.Equal(t, []string{"Permissions", "644"}, table.Rows[2])
}

func TestNilWorkContextIsFatal(t *testing.T) {
	fx := newFixture(t)
	_, handler, err := fx.reg.Resolve("view_file")
	require.NoError(t, err)

	_, err = handler(context.Background(), nil, toolexecutor.Args{"path": ".", "filename": "x"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureFatal, toolexecutor.ClassifyFailure(err))
}

func TestMemMapFs(t *testing.T) {
	fx := newFixtureFs(t, afero.NewMemMapFs())
	fx.write(t, "docs/readme.md", "# title\n")

	_, err := fx.call(t, "copy_file", map[string]interface{}{"source_path": "docs", "filename": "readme.md", "dest_path": "out"})
	require.NoError(t, err)
	assert.Equal(t, "# title\n", fx.read(t, "out/readme.md"))

	out, err := fx.call(t, "list_directories", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "out"}, out.Data)

	_, statErr := os.Stat(filepath.Join(fx.dir, "out"))
	assert.True(t, os.IsNotExist(statErr), "memory filesystem must not touch disk")
}

func TestMemMapFs_ChangeDirectory(t *testing.T) {
	fx := newFixtureFs(t, afero.NewMemMapFs())
	fx.write(t, "docs/readme.md", "# title\n")

	out, err := fx.call(t, "change_directory", map[string]interface{}{"path": "docs"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.dir, "docs"), fx.wc.Dir())
	assert.Equal(t, fx.wc.Dir(), out.Data)

	out, err = fx.call(t, "list_files", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.md"}, out.Data)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "a_b.txt", sanitizeName("a b.txt"))
	assert.Equal(t, "x.txt", sanitizeName("../../x.txt"))
	assert.Equal(t, "", sanitizeName(".."))
	assert.Equal(t, "", sanitizeName("  "))
	assert.False(t, strings.Contains(sanitizeName("a/b"), "/"))
}
