package filetools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

func (f *fileTools) copyDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	src, err := f.existingDir(wc, args.String("source_path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	dest := wc.Resolve(args.String("destination_path"))

	if isAncestorOrSelf(src, dest) {
		return toolexecutor.Output{}, toolexecutor.Recoverable("destination "+dest+" lies inside the source "+src, nil)
	}

	info, err := f.fs.Stat(dest)
	switch {
	case err == nil && !info.IsDir():
		return toolexecutor.Output{}, toolexecutor.Recoverable(dest+" exists and is not a directory", nil)
	case err == nil:
		empty, emptyErr := afero.IsEmpty(f.fs, dest)
		if emptyErr != nil {
			return toolexecutor.Output{}, fsFailure("cannot access", dest, emptyErr)
		}
		if !empty {
			if !args.Bool("overwrite") {
				return toolexecutor.Output{}, toolexecutor.Recoverable(dest+" already exists and is not empty; set overwrite to replace it", nil)
			}
			if isAncestorOrSelf(dest, wc.Dir()) {
				return toolexecutor.Output{}, toolexecutor.Recoverable("refusing to replace the current directory or one of its parents: "+dest, nil)
			}
			if err := f.fs.RemoveAll(dest); err != nil {
				return toolexecutor.Output{}, fsFailure("failed to replace", dest, err)
			}
		}
	case !os.IsNotExist(err):
		return toolexecutor.Output{}, fsFailure("cannot access", dest, err)
	}

	files, err := f.copyTree(ctx, src, dest)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to copy", src, err)
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Copied %s to %s (%d files)", src, dest, files)}, nil
}

// copyTree recreates src below dest and returns how many files it copied.
// Entries that are neither directories nor regular files are skipped.
func (f *fileTools) copyTree(ctx context.Context, src, dest string) (int, error) {
	files := 0
	err := afero.Walk(f.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			return f.fs.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			files++
			return f.copy(p, target)
		}
		return nil
	})
	return files, err
}

func (f *fileTools) moveDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	src, err := f.existingDir(wc, args.String("source_path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	dest := wc.Resolve(args.String("destination_path"))

	if isAncestorOrSelf(src, wc.Dir()) {
		return toolexecutor.Output{}, toolexecutor.Recoverable("refusing to move the current directory or one of its parents: "+src, nil)
	}
	if isAncestorOrSelf(src, dest) {
		return toolexecutor.Output{}, toolexecutor.Recoverable("destination "+dest+" lies inside the source "+src, nil)
	}

	exists, err := afero.Exists(f.fs, dest)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("cannot access", dest, err)
	}
	if exists {
		if !args.Bool("overwrite") {
			return toolexecutor.Output{}, toolexecutor.Recoverable(dest+" already exists; set overwrite to replace it", nil)
		}
		if isAncestorOrSelf(dest, wc.Dir()) {
			return toolexecutor.Output{}, toolexecutor.Recoverable("refusing to replace the current directory or one of its parents: "+dest, nil)
		}
		if err := f.fs.RemoveAll(dest); err != nil {
			return toolexecutor.Output{}, fsFailure("failed to replace", dest, err)
		}
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
		if _, err := f.copyTree(ctx, src, dest); err != nil {
			return toolexecutor.Output{}, fsFailure("failed to move", src, err)
		}
		if err := f.fs.RemoveAll(src); err != nil {
			return toolexecutor.Output{}, fsFailure("copied but failed to remove", src, err)
		}
	}

	return toolexecutor.Output{Summary: fmt.Sprintf("Moved %s to %s", src, dest)}, nil
}

func (f *fileTools) emptyCleanup(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	root, err := f.existingDir(wc, args.String("path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	deleteDirs, deleteFiles := args.Bool("delete_empty_dirs"), args.Bool("delete_empty_files")

	var files, dirs []string
	walkErr := afero.Walk(f.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil || p == root {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch {
		case info.IsDir():
			dirs = append(dirs, p)
		case info.Mode().IsRegular() && info.Size() == 0:
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return toolexecutor.Output{}, fsFailure("failed to scan", root, walkErr)
	}

	table := &toolexecutor.Table{Title: "Empty entries in " + root, Columns: []string{"Type", "Path", "Status"}}
	deleted, failed := 0, 0
	record := func(kind, p string, remove bool) {
		status := "found"
		if remove {
			if err := f.fs.Remove(p); err != nil {
				status = "failed: " + err.Error()
				failed++
			} else {
				status = "deleted"
				deleted++
			}
		}
		table.AddRow(kind, relTo(root, p), status)
	}

	for _, p := range files {
		record("file", p, deleteFiles)
	}

	// deepest first so parents emptied by this run are seen as empty
	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	emptyDirs := 0
	for _, d := range dirs {
		empty, err := afero.IsEmpty(f.fs, d)
		if err != nil || !empty {
			continue
		}
		emptyDirs++
		record("directory", d, deleteDirs && !isAncestorOrSelf(d, wc.Dir()))
	}

	if len(table.Rows) == 0 {
		return toolexecutor.Output{Summary: "No empty files or directories in " + root}, nil
	}

	summary := fmt.Sprintf("Found %d empty file(s) and %d empty dir(s) in %s", len(files), emptyDirs, root)
	if deleteDirs || deleteFiles {
		summary += fmt.Sprintf("; deleted %d", deleted)
	}
	if failed > 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable(
			fmt.Sprintf("deleted %d empty entries in %s but %d could not be deleted", deleted, root, failed), nil)
	}
	return toolexecutor.Output{Summary: summary, Data: table}, nil
}
