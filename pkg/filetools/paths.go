package filetools

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

var errNoWorkContext = toolexecutor.Fatal("no working directory", nil)

// existingFile resolves dir/name and checks that it is a regular file
func (f *fileTools) existingFile(wc *toolexecutor.WorkContext, dir, name string) (string, error) {
	if wc == nil {
		return "", errNoWorkContext
	}
	if strings.TrimSpace(name) == "" {
		return "", toolexecutor.Recoverable("no filename provided", nil)
	}

	full := filepath.Join(wc.Resolve(dir), name)
	info, err := f.fs.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", toolexecutor.Recoverable("file not found: "+full, nil)
		}
		return "", toolexecutor.Recoverable("cannot access "+full, err)
	}
	if info.IsDir() {
		return "", toolexecutor.Recoverable(full+" is a directory", nil)
	}
	return full, nil
}

// existingDir resolves dir and checks that it is a directory
func (f *fileTools) existingDir(wc *toolexecutor.WorkContext, dir string) (string, error) {
	if wc == nil {
		return "", errNoWorkContext
	}

	full := wc.Resolve(dir)
	ok, err := afero.IsDir(f.fs, full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", toolexecutor.Recoverable("directory not found: "+full, nil)
		}
		return "", toolexecutor.Recoverable("cannot access "+full, err)
	}
	if !ok {
		return "", toolexecutor.Recoverable(full+" is not a directory", nil)
	}
	return full, nil
}

// relTo renders p relative to base when it lies below it
func relTo(base, p string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}

func humanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func fsFailure(action, path string, err error) error {
	return toolexecutor.Recoverable(fmt.Sprintf("%s %s", action, path), err)
}
