package toolexecutor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// WorkContext is the working directory of a run. It is threaded explicitly
// into every handler; tools never read or change the process cwd.
type WorkContext struct {
	dir string
}

// NewWorkContext creates a work context rooted at dir, which must exist
func NewWorkContext(dir string) (*WorkContext, error) {
	abs, err := filepath.Abs(expandHome(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}
	return &WorkContext{dir: abs}, nil
}

// Dir returns the absolute current directory
func (w *WorkContext) Dir() string {
	return w.dir
}

// Resolve returns an absolute, cleaned path for p relative to the current directory
func (w *WorkContext) Resolve(p string) string {
	p = expandHome(strings.TrimSpace(p))
	if p == "" {
		return w.dir
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.dir, p)
}

// Chdir moves the current directory; p must be an existing directory on disk
func (w *WorkContext) Chdir(p string) error {
	return w.ChdirFS(afero.NewOsFs(), p)
}

// ChdirFS moves the current directory, checking p on fsys
func (w *WorkContext) ChdirFS(fsys afero.Fs, p string) error {
	target := w.Resolve(p)
	info, err := fsys.Stat(target)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", target)
	}
	w.dir = target
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
