package filetools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

var (
	wordPattern     = regexp.MustCompile(`\w+`)
	unsafeNameChars = regexp.MustCompile(`[^\w\-.]`)
)

func (f *fileTools) viewFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Contents of %s (%s)", full, humanSize(int64(len(content)))),
		Data:    string(content),
	}, nil
}

func (f *fileTools) createFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}
	name := args.String("filename")
	if strings.TrimSpace(name) == "" {
		return toolexecutor.Output{}, toolexecutor.Blocking("no filename provided", nil)
	}

	dir := wc.Resolve(args.String("path"))
	full := filepath.Join(dir, name)

	exists, err := afero.Exists(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Blocking("cannot access "+full, err)
	}
	if exists {
		return toolexecutor.Output{}, toolexecutor.Blocking(full+" already exists", nil)
	}

	if err := f.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return toolexecutor.Output{}, toolexecutor.Blocking("failed to create "+filepath.Dir(full), err)
	}
	if err := afero.WriteFile(f.fs, full, []byte(args.String("content")), 0o644); err != nil {
		return toolexecutor.Output{}, toolexecutor.Blocking("failed to create "+full, err)
	}

	return toolexecutor.Output{Summary: "Created " + full}, nil
}

func (f *fileTools) addContentToFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	flags := os.O_WRONLY | os.O_APPEND
	action := "Appended to"
	if !args.Bool("append") {
		flags = os.O_WRONLY | os.O_TRUNC
		action = "Overwrote"
	}

	file, err := f.fs.OpenFile(full, flags, 0)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to open", full, err)
	}
	defer file.Close()

	content := args.String("content")
	if _, err := file.WriteString(content); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to write", full, err)
	}

	return toolexecutor.Output{Summary: fmt.Sprintf("%s %s (%d bytes)", action, full, len(content))}, nil
}

func (f *fileTools) renameFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	newName := sanitizeName(args.String("new_filename"))
	if newName == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("invalid new filename", nil)
	}

	target := filepath.Join(filepath.Dir(full), newName)
	if exists, _ := afero.Exists(f.fs, target); exists {
		return toolexecutor.Output{}, toolexecutor.Recoverable(target+" already exists", nil)
	}
	if err := f.fs.Rename(full, target); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to rename", full, err)
	}

	return toolexecutor.Output{Summary: fmt.Sprintf("Renamed %s to %s", full, target)}, nil
}

// sanitizeName keeps only the base name and replaces unsafe characters
func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return ""
	}
	return unsafeNameChars.ReplaceAllString(base, "_")
}

func (f *fileTools) copyFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	src, err := f.existingFile(wc, args.String("source_path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	name := args.String("filename")
	if destName, ok := args.OptString("dest_filename"); ok && destName != "" {
		name = destName
	}
	dest := filepath.Join(wc.Resolve(args.String("dest_path")), name)

	if src == dest {
		return toolexecutor.Output{}, toolexecutor.Recoverable("source and destination are the same file", nil)
	}
	if err := f.copy(src, dest); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to copy", src, err)
	}

	return toolexecutor.Output{Summary: fmt.Sprintf("Copied %s to %s", src, dest)}, nil
}

func (f *fileTools) copy(src, dest string) error {
	info, err := f.fs.Stat(src)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := f.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := f.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (f *fileTools) moveFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	src, err := f.existingFile(wc, args.String("source_path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	dest := filepath.Join(wc.Resolve(args.String("dest_path")), args.String("filename"))

	if src == dest {
		return toolexecutor.Output{}, toolexecutor.Recoverable("source and destination are the same file", nil)
	}
	if err := f.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to create", filepath.Dir(dest), err)
	}

	if err := f.fs.Rename(src, dest); err != nil {
		var linkErr *os.LinkError
		if !errors.As(err, &linkErr) {
			return toolexecutor.Output{}, fsFailure("failed to move", src, err)
		}
		// cross-device: copy then remove
		if err := f.copy(src, dest); err != nil {
			return toolexecutor.Output{}, fsFailure("failed to move", src, err)
		}
		if err := f.fs.Remove(src); err != nil {
			return toolexecutor.Output{}, fsFailure("copied but failed to remove", src, err)
		}
	}

	return toolexecutor.Output{Summary: fmt.Sprintf("Moved %s to %s", src, dest)}, nil
}

func (f *fileTools) deleteFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	if err := f.fs.Remove(full); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to delete", full, err)
	}
	return toolexecutor.Output{Summary: "Deleted " + full}, nil
}

func (f *fileTools) fileExists(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}
	name := args.String("filename")
	if strings.TrimSpace(name) == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("no filename provided", nil)
	}

	full := filepath.Join(wc.Resolve(args.String("path")), name)
	info, err := f.fs.Stat(full)
	exists := err == nil && !info.IsDir()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return toolexecutor.Output{}, fsFailure("cannot access", full, err)
	}

	if exists {
		return toolexecutor.Output{Summary: full + " exists", Data: true}, nil
	}
	return toolexecutor.Output{Summary: full + " does not exist", Data: false}, nil
}

func (f *fileTools) replaceTextInFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	oldText, newText := args.String("old_text"), args.String("new_text")
	if oldText == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("no text to replace provided", nil)
	}

	info, err := f.fs.Stat(full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("cannot access", full, err)
	}
	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}

	count := strings.Count(string(content), oldText)
	if count == 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable(fmt.Sprintf("'%s' not found in %s", oldText, full), nil)
	}

	updated := strings.ReplaceAll(string(content), oldText, newText)
	if err := afero.WriteFile(f.fs, full, []byte(updated), info.Mode().Perm()); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to write", full, err)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Replaced %d occurrence(s) of '%s' with '%s' in %s", count, oldText, newText, full),
	}, nil
}

func (f *fileTools) countLinesInFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}

	lines := countLines(content)
	return toolexecutor.Output{
		Summary: fmt.Sprintf("%s contains %d line(s)", full, lines),
		Data:    strconv.Itoa(lines),
	}, nil
}

// countLines counts newline-terminated lines plus a trailing unterminated one
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

func (f *fileTools) findFrequentWord(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}

	word, count := mostFrequentWord(strings.ToLower(string(content)))
	if count == 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable("no words found in "+full, nil)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Most frequent word in %s: '%s' (%d times)", full, word, count),
		Data:    map[string]string{"word": word, "count": strconv.Itoa(count)},
	}, nil
}

// mostFrequentWord breaks ties by first appearance
func mostFrequentWord(text string) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, w := range wordPattern.FindAllString(text, -1) {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	best, bestCount := "", 0
	for _, w := range order {
		if counts[w] > bestCount {
			best, bestCount = w, counts[w]
		}
	}
	return best, bestCount
}

func (f *fileTools) getFileMetadata(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	info, err := f.fs.Stat(full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("cannot access", full, err)
	}

	table := &toolexecutor.Table{Title: "Metadata for " + full, Columns: []string{"Attribute", "Value"}}
	table.AddRow("Size", fmt.Sprintf("%s (%d bytes)", humanSize(info.Size()), info.Size()))
	table.AddRow("Modification Time", info.ModTime().Format("2006-01-02 15:04:05"))
	table.AddRow("Permissions", fmt.Sprintf("%03o", info.Mode().Perm()))
	table.AddRow("Mode", info.Mode().String())

	return toolexecutor.Output{Summary: "Metadata for " + full, Data: table}, nil
}

func (f *fileTools) getFileHash(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	algorithm := args.String("algorithm")
	sum, err := f.hashFile(full, algorithm)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to hash", full, err)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("%s of %s: %s", strings.ToUpper(algorithm), full, sum),
		Data:    sum,
	}, nil
}

func (f *fileTools) setFilePermissions(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	perm, err := parsePermissions(args.String("permissions"))
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("invalid permissions", err)
	}

	info, err := f.fs.Stat(full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("cannot access", full, err)
	}
	before := fmt.Sprintf("%03o", info.Mode().Perm())

	if err := f.fs.Chmod(full, perm); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to change permissions of", full, err)
	}

	after := fmt.Sprintf("%03o", perm)
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Permissions of %s changed from %s to %s", full, before, after),
		Data:    map[string]string{"before": before, "after": after},
	}, nil
}

// parsePermissions parses an octal string like 644 or 0755
func parsePermissions(s string) (os.FileMode, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0o")
	if s == "" {
		return 0, errors.New("no permissions provided")
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%q is not an octal mode like 755", s)
	}
	if n > 0o777 {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return os.FileMode(n), nil
}

func sortedNames(infos []os.FileInfo, wantDir bool) []string {
	var names []string
	for _, info := range infos {
		if info.IsDir() == wantDir {
			names = append(names, info.Name())
		}
	}
	sort.Strings(names)
	return names
}
