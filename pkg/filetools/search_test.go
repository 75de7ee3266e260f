package filetools

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

func TestListFilesAndDirectories(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "b.txt", "")
	fx.write(t, "a.txt", "")
	fx.write(t, "src/main.go", "")

	out, err := fx.call(t, "list_files", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, out.Data)

	out, err = fx.call(t, "list_directories", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"src"}, out.Data)

	out, err = fx.call(t, "list_files", map[string]interface{}{"path": "src"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, out.Data)

	_, err = fx.call(t, "list_files", map[string]interface{}{"path": "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")
}

func TestListDirectoryTree(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a/b/c/deep.txt", "")
	fx.write(t, "top.txt", "")

	out, err := fx.call(t, "list_directory_tree", map[string]interface{}{"max_depth": 1})
	require.NoError(t, err)

	tree := out.Data.(string)
	assert.Contains(t, tree, "├── a/")
	assert.Contains(t, tree, "│   └── b/")
	assert.Contains(t, tree, "└── top.txt")
	assert.NotContains(t, tree, "── c/", "depth limit stops below b")
}

func TestChangeAndGetWorkingDirectory(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.fs.MkdirAll(filepath.Join(fx.dir, "sub"), 0o755))

	_, err := fx.call(t, "change_directory", map[string]interface{}{"path": "sub"})
	require.NoError(t, err)

	out, err := fx.call(t, "get_working_directory", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fx.dir, "sub"), out.Data)

	_, err = fx.call(t, "change_directory", map[string]interface{}{"path": "nowhere"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureBlocking, toolexecutor.ClassifyFailure(err))
}

func TestCreateAndDeleteDirectory(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.call(t, "create_directory", map[string]interface{}{"path": "x/y"})
	require.NoError(t, err)
	assert.True(t, fx.exists("x/y"))

	out, err := fx.call(t, "create_directory", map[string]interface{}{"path": "x/y"})
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "already exists")

	fx.write(t, "file", "")
	_, err = fx.call(t, "create_directory", map[string]interface{}{"path": "file"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureBlocking, toolexecutor.ClassifyFailure(err))

	_, err = fx.call(t, "delete_directory", map[string]interface{}{"path": "x"})
	require.NoError(t, err)
	assert.False(t, fx.exists("x"))
}

func TestDeleteDirectory_RefusesCurrent(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.call(t, "delete_directory", map[string]interface{}{"path": "."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing")

	_, err = fx.call(t, "delete_directory", map[string]interface{}{"path": ".."})
	require.Error(t, err)
	assert.True(t, fx.exists("."))
}

func TestGetDirectorySize(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a", "1234")
	fx.write(t, "d/b", "123456")

	out, err := fx.call(t, "get_directory_size", map[string]interface{}{})
	require.NoError(t, err)

	data := out.Data.(map[string]string)
	assert.Equal(t, "10", data["bytes"])
	assert.Contains(t, out.Summary, "in 2 files")
}

func TestSearchFilesByName(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "Report.TXT", "")
	fx.write(t, "notes.txt", "")
	fx.write(t, "image.png", "")
	fx.write(t, "nested/deep.txt", "")

	out, err := fx.call(t, "search_files_by_name", map[string]interface{}{"pattern": "*.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Report.TXT", "notes.txt"}, out.Data)

	out, err = fx.call(t, "search_files_by_name", map[string]interface{}{"pattern": "*.zip"})
	require.NoError(t, err)
	assert.Empty(t, out.Data)

	_, err = fx.call(t, "search_files_by_name", map[string]interface{}{"pattern": "[a"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureRecoverable, toolexecutor.ClassifyFailure(err))
}

func TestSearchTextAcrossFiles(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a.go", "package a\n// TODO fix\n")
	fx.write(t, "sub/b.go", "todo: later\nnothing\n")
	fx.write(t, "bin.dat", "TODO\x00binary")

	out, err := fx.call(t, "search_text_across_files", map[string]interface{}{"pattern": `to\s*do`})
	require.NoError(t, err)

	table := out.Data.(*toolexecutor.Table)
	assert.Equal(t, []string{"File", "Line", "Content"}, table.Columns)
	assert.Equal(t, [][]string{
		{"a.go", "2", "// TODO fix"},
		{filepath.Join("sub", "b.go"), "1", "todo: later"},
	}, table.Rows)

	out, err = fx.call(t, "search_text_across_files", map[string]interface{}{"pattern": "absent"})
	require.NoError(t, err)
	assert.Nil(t, out.Data)
	assert.Contains(t, out.Summary, "No matches")

	_, err = fx.call(t, "search_text_across_files", map[string]interface{}{"pattern": "(unclosed"})
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureRecoverable, toolexecutor.ClassifyFailure(err))
}

func TestSearchTextAcrossFiles_Caps(t *testing.T) {
	fx := newFixture(t)

	var b strings.Builder
	for i := 0; i < maxSearchRows+10; i++ {
		fmt.Fprintf(&b, "match %d %s\n", i, strings.Repeat("x", 200))
	}
	fx.write(t, "many.txt", b.String())

	out, err := fx.call(t, "search_text_across_files", map[string]interface{}{"pattern": "match"})
	require.NoError(t, err)

	table := out.Data.(*toolexecutor.Table)
	assert.Len(t, table.Rows, maxSearchRows)
	assert.Len(t, table.Rows[0][2], maxMatchLineLen+3)
	assert.Contains(t, out.Summary, "Found 60 match(es)")
	assert.Contains(t, out.Summary, "showing first 50")
}

func TestFindLargeFiles(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "small", "x")
	fx.write(t, "big", strings.Repeat("x", 3<<20))
	fx.write(t, "d/bigger", strings.Repeat("x", 5<<20))

	out, err := fx.call(t, "find_large_files", map[string]interface{}{"min_size_mb": 1})
	require.NoError(t, err)

	table := out.Data.(*toolexecutor.Table)
	assert.Equal(t, [][]string{
		{filepath.Join("d", "bigger"), "5.0 MiB"},
		{"big", "3.0 MiB"},
	}, table.Rows)

	out, err = fx.call(t, "find_large_files", map[string]interface{}{"min_size_mb": 10})
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "No files larger than 10 MB")
}

func TestFindLargeFiles_WholeMegabytesOnly(t *testing.T) {
	fx := newFixture(t)

	_, err := toolexecutor.NewValidator(fx.reg).ValidateCall(1, toolexecutor.CandidateCall{
		Name:      "find_large_files",
		Arguments: map[string]interface{}{"min_size_mb": 0.5},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, toolexecutor.ErrInvalidArgument)

	_, err = toolexecutor.NewValidator(fx.reg).ValidateCall(1, toolexecutor.CandidateCall{
		Name:      "find_large_files",
		Arguments: map[string]interface{}{"min_size_mb": 2.0},
	})
	require.NoError(t, err)
}

func TestFindAndRemoveDuplicates(t *testing.T) {
	fx := newFixture(t)
	fx.write(t, "a.txt", "same")
	fx.write(t, "b.txt", "same")
	fx.write(t, "sub/c.txt", "same")
	fx.write(t, "x.txt", "other")
	fx.write(t, "y.txt", "other")
	fx.write(t, "unique.txt", "only")

	out, err := fx.call(t, "find_duplicate_files", map[string]interface{}{})
	require.NoError(t, err)

	table := out.Data.(*toolexecutor.Table)
	assert.Equal(t, [][]string{
		{"1", "a.txt\nb.txt\n" + filepath.Join("sub", "c.txt")},
		{"2", "x.txt\ny.txt"},
	}, table.Rows)

	out, err = fx.call(t, "remove_duplicates", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", filepath.Join("sub", "c.txt"), "y.txt"}, out.Data)

	assert.True(t, fx.exists("a.txt"))
	assert.True(t, fx.exists("x.txt"))
	assert.True(t, fx.exists("unique.txt"))
	assert.False(t, fx.exists("b.txt"))

	out, err = fx.call(t, "find_duplicate_files", map[string]interface{}{})
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "No duplicate files")
}

func TestSplitByContent_SameSizeDifferentBytes(t *testing.T) {
	fx := newFixture(t)
	a := fx.write(t, "a.bin", "abcd")
	b := fx.write(t, "b.bin", "abce")
	c := fx.write(t, "c.bin", "abcd")
	big1 := fx.write(t, "big1.bin", strings.Repeat("z", 70*1024)+"1")
	big2 := fx.write(t, "big2.bin", strings.Repeat("z", 70*1024)+"2")

	ft := &fileTools{fs: fx.fs}

	// as if all five had collided in one hash bucket
	groups := ft.splitByContent([]string{a, b, c, big1, big2})
	assert.Equal(t, [][]string{{a, c}, {b}, {big1}, {big2}}, groups)

	same, err := ft.sameContent(a, c)
	require.NoError(t, err)
	assert.True(t, same)

	same, err = ft.sameContent(a, big1)
	require.NoError(t, err)
	assert.False(t, same)
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary([]byte("plain text")))
	assert.True(t, isBinary([]byte("a\x00b")))
	assert.False(t, isBinary(append([]byte(strings.Repeat("a", binarySniffBytes)), 0)))
}
