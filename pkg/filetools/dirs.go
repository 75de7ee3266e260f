package filetools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

func (f *fileTools) getWorkingDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}
	return toolexecutor.Output{Summary: "Current directory: " + wc.Dir(), Data: wc.Dir()}, nil
}

func (f *fileTools) changeDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}

	target := wc.Resolve(args.String("path"))
	if ok, err := afero.IsDir(f.fs, target); err != nil || !ok {
		return toolexecutor.Output{}, toolexecutor.Blocking("directory not found: "+target, err)
	}
	if err := wc.ChdirFS(f.fs, target); err != nil {
		return toolexecutor.Output{}, toolexecutor.Blocking("failed to change directory", err)
	}

	return toolexecutor.Output{Summary: "Changed directory to " + wc.Dir(), Data: wc.Dir()}, nil
}

func (f *fileTools) listFiles(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	return f.listEntries(wc, args.String("path"), false)
}

func (f *fileTools) listDirectories(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	return f.listEntries(wc, args.String("path"), true)
}

func (f *fileTools) listEntries(wc *toolexecutor.WorkContext, path string, dirs bool) (toolexecutor.Output, error) {
	full, err := f.existingDir(wc, path)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	infos, err := afero.ReadDir(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to list", full, err)
	}

	kind := "files"
	if dirs {
		kind = "directories"
	}
	names := sortedNames(infos, dirs)
	if len(names) == 0 {
		return toolexecutor.Output{Summary: fmt.Sprintf("No %s in %s", kind, full), Data: []string{}}, nil
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("%d %s in %s", len(names), kind, full),
		Data:    names,
	}, nil
}

func (f *fileTools) listDirectoryTree(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingDir(wc, args.String("path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	maxDepth := args.Int("max_depth")
	if maxDepth < 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable("max_depth cannot be negative", nil)
	}

	var b strings.Builder
	b.WriteString(full + "\n")
	entries := f.writeTree(&b, full, "", 0, maxDepth)

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Tree of %s (%d entries, max depth %d)", full, entries, maxDepth),
		Data:    strings.TrimRight(b.String(), "\n"),
	}, nil
}

// writeTree renders dir's entries with box-drawing guides and returns how many it wrote
func (f *fileTools) writeTree(b *strings.Builder, dir, prefix string, depth, maxDepth int) int {
	infos, err := afero.ReadDir(f.fs, dir)
	if err != nil {
		b.WriteString(prefix + "└── [error: " + err.Error() + "]\n")
		return 0
	}

	count := 0
	for i, info := range infos {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(infos)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}

		name := info.Name()
		if info.IsDir() {
			name += "/"
		}
		b.WriteString(prefix + connector + name + "\n")
		count++

		if info.IsDir() && depth < maxDepth {
			count += f.writeTree(b, filepath.Join(dir, info.Name()), childPrefix, depth+1, maxDepth)
		}
	}
	return count
}

func (f *fileTools) createDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}

	full := wc.Resolve(args.String("path"))
	if info, err := f.fs.Stat(full); err == nil {
		if info.IsDir() {
			return toolexecutor.Output{Summary: full + " already exists"}, nil
		}
		return toolexecutor.Output{}, toolexecutor.Blocking(full+" exists and is not a directory", nil)
	}

	if err := f.fs.MkdirAll(full, 0o755); err != nil {
		return toolexecutor.Output{}, toolexecutor.Blocking("failed to create "+full, err)
	}
	return toolexecutor.Output{Summary: "Created directory " + full}, nil
}

func (f *fileTools) deleteDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingDir(wc, args.String("path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	if isAncestorOrSelf(full, wc.Dir()) {
		return toolexecutor.Output{}, toolexecutor.Recoverable("refusing to delete the current directory or one of its parents: "+full, nil)
	}
	if err := f.fs.RemoveAll(full); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to delete", full, err)
	}
	return toolexecutor.Output{Summary: "Deleted directory " + full + " and its contents"}, nil
}

func isAncestorOrSelf(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

func (f *fileTools) getDirectorySize(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingDir(wc, args.String("path"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	var total int64
	files := 0
	walkErr := afero.Walk(f.fs, full, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if info.Mode().IsRegular() {
			total += info.Size()
			files++
		}
		return nil
	})
	if walkErr != nil {
		return toolexecutor.Output{}, fsFailure("failed to walk", full, walkErr)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("%s: %s in %d files", full, humanSize(total), files),
		Data:    map[string]string{"path": full, "bytes": fmt.Sprint(total), "size": humanSize(total)},
	}, nil
}
