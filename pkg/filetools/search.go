package filetools

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dlclark/regexp2"
	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

const (
	maxSearchRows    = 50
	maxMatchLineLen  = 100
	binarySniffBytes = 1024
)

func (f *fileTools) searchFilesByName(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingDir(wc, args.String("path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	pattern := strings.ToLower(strings.TrimSpace(args.String("pattern")))
	if pattern == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("no pattern provided", nil)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("invalid pattern "+pattern, err)
	}

	infos, err := afero.ReadDir(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to list", full, err)
	}

	var matches []string
	for _, name := range sortedNames(infos, false) {
		if ok, _ := filepath.Match(pattern, strings.ToLower(name)); ok {
			matches = append(matches, name)
		}
	}

	if len(matches) == 0 {
		return toolexecutor.Output{Summary: fmt.Sprintf("No files matching '%s' in %s", pattern, full), Data: []string{}}, nil
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("%d file(s) matching '%s' in %s", len(matches), pattern, full),
		Data:    matches,
	}, nil
}

func (f *fileTools) searchTextAcrossFiles(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	root, err := f.existingDir(wc, args.String("directory"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	pattern := args.String("pattern")
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("invalid regular expression "+pattern, err)
	}
	re.MatchTimeout = time.Second

	table := &toolexecutor.Table{
		Title:   fmt.Sprintf("Matches for '%s' in %s", pattern, root),
		Columns: []string{"File", "Line", "Content"},
	}
	total := 0

	walkErr := afero.Walk(f.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		content, err := afero.ReadFile(f.fs, p)
		if err != nil || isBinary(content) {
			return nil
		}

		for i, line := range strings.Split(string(content), "\n") {
			ok, err := re.MatchString(line)
			if err != nil || !ok {
				continue
			}
			total++
			if len(table.Rows) < maxSearchRows {
				table.AddRow(relTo(root, p), fmt.Sprint(i+1), clip(strings.TrimSpace(line), maxMatchLineLen))
			}
		}
		return nil
	})
	if walkErr != nil {
		return toolexecutor.Output{}, fsFailure("failed to search", root, walkErr)
	}

	if total == 0 {
		return toolexecutor.Output{Summary: fmt.Sprintf("No matches for '%s' in %s", pattern, root)}, nil
	}

	summary := fmt.Sprintf("Found %d match(es) for '%s' in %s", total, pattern, root)
	if total > maxSearchRows {
		summary += fmt.Sprintf(" (showing first %d)", maxSearchRows)
	}
	return toolexecutor.Output{Summary: summary, Data: table}, nil
}

func isBinary(content []byte) bool {
	head := content
	if len(head) > binarySniffBytes {
		head = head[:binarySniffBytes]
	}
	return bytes.IndexByte(head, 0) >= 0
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (f *fileTools) findLargeFiles(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	root, err := f.existingDir(wc, args.String("path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	minMB := args.Int("min_size_mb")
	if minMB < 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable("min_size_mb cannot be negative", nil)
	}
	minBytes := int64(minMB) * 1024 * 1024

	type entry struct {
		path string
		size int64
	}
	var large []entry

	walkErr := afero.Walk(f.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.Mode().IsRegular() && info.Size() > minBytes {
			large = append(large, entry{path: p, size: info.Size()})
		}
		return nil
	})
	if walkErr != nil {
		return toolexecutor.Output{}, fsFailure("failed to search", root, walkErr)
	}

	if len(large) == 0 {
		return toolexecutor.Output{Summary: fmt.Sprintf("No files larger than %d MB in %s", minMB, root)}, nil
	}

	sort.SliceStable(large, func(i, j int) bool { return large[i].size > large[j].size })

	table := &toolexecutor.Table{
		Title:   fmt.Sprintf("Files larger than %d MB in %s", minMB, root),
		Columns: []string{"File", "Size"},
	}
	for _, e := range large {
		table.AddRow(relTo(root, e.path), humanSize(e.size))
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Found %d file(s) larger than %d MB in %s", len(large), minMB, root),
		Data:    table,
	}, nil
}

// duplicateGroups groups regular files below root by content; groups and
// their members are in walk (lexical) order. Files are bucketed by size and
// xxhash, then compared byte for byte so a hash collision never groups
// distinct content.
func (f *fileTools) duplicateGroups(ctx context.Context, root string) ([][]string, error) {
	type bucketKey struct {
		size int64
		sum  uint64
	}
	buckets := make(map[bucketKey][]string)
	var order []bucketKey

	err := afero.Walk(f.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sum, err := f.contentSum(p)
		if err != nil {
			return nil
		}

		key := bucketKey{size: info.Size(), sum: sum}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var groups [][]string
	for _, key := range order {
		paths := buckets[key]
		if len(paths) < 2 {
			continue
		}
		for _, group := range f.splitByContent(paths) {
			if len(group) > 1 {
				groups = append(groups, group)
			}
		}
	}
	return groups, nil
}

func (f *fileTools) contentSum(path string) (uint64, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	digest := xxhash.New()
	if _, err := io.Copy(digest, file); err != nil {
		return 0, err
	}
	return digest.Sum64(), nil
}

// splitByContent partitions paths into groups of byte-identical files,
// keeping input order. Unreadable files end up alone.
func (f *fileTools) splitByContent(paths []string) [][]string {
	var groups [][]string
	for _, p := range paths {
		placed := false
		for i, group := range groups {
			if same, err := f.sameContent(group[0], p); err == nil && same {
				groups[i] = append(groups[i], p)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []string{p})
		}
	}
	return groups
}

func (f *fileTools) sameContent(a, b string) (bool, error) {
	fa, err := f.fs.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := f.fs.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, 32*1024)
	bufB := make([]byte, 32*1024)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		doneA := errA == io.EOF || errA == io.ErrUnexpectedEOF
		doneB := errB == io.EOF || errB == io.ErrUnexpectedEOF
		if errA != nil && !doneA {
			return false, errA
		}
		if errB != nil && !doneB {
			return false, errB
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

func (f *fileTools) findDuplicateFiles(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	root, err := f.existingDir(wc, args.String("dir_path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	groups, err := f.duplicateGroups(ctx, root)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to scan", root, err)
	}
	if len(groups) == 0 {
		return toolexecutor.Output{Summary: "No duplicate files in " + root}, nil
	}

	table := &toolexecutor.Table{Title: "Duplicate files in " + root, Columns: []string{"Group", "Files"}}
	for i, paths := range groups {
		rel := make([]string, len(paths))
		for j, p := range paths {
			rel[j] = relTo(root, p)
		}
		table.AddRow(fmt.Sprint(i+1), strings.Join(rel, "\n"))
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Found %d group(s) of duplicate files in %s", len(groups), root),
		Data:    table,
	}, nil
}

func (f *fileTools) removeDuplicates(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	root, err := f.existingDir(wc, args.String("dir_path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	groups, err := f.duplicateGroups(ctx, root)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to scan", root, err)
	}
	if len(groups) == 0 {
		return toolexecutor.Output{Summary: "No duplicate files in " + root, Data: []string{}}, nil
	}

	var removed, failed []string
	for _, paths := range groups {
		for _, p := range paths[1:] {
			if err := f.fs.Remove(p); err != nil {
				failed = append(failed, relTo(root, p)+": "+err.Error())
				continue
			}
			removed = append(removed, relTo(root, p))
		}
	}

	if len(failed) > 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable(
			fmt.Sprintf("removed %d duplicate(s) but %d could not be removed", len(removed), len(failed)),
			fmt.Errorf("%s", strings.Join(failed, "; ")))
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Removed %d duplicate file(s), kept the first copy of each of %d group(s)", len(removed), len(groups)),
		Data:    removed,
	}, nil
}

func (f *fileTools) hashFile(path, algorithm string) (string, error) {
	var h hash.Hash
	switch algorithm {
	case "md5":
		h = md5.New()
	case "sha1":
		h = sha1.New()
	case "sha256":
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported algorithm %q", algorithm)
	}

	file, err := f.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
