package filetools

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

func (f *fileTools) getRootDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}
	root := filepath.VolumeName(wc.Dir()) + string(filepath.Separator)
	return toolexecutor.Output{Summary: "Root directory: " + root, Data: root}, nil
}

func (f *fileTools) getCommandLineDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	exe, err := f.executable()
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("cannot locate the executable", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Dir(exe)
	return toolexecutor.Output{Summary: "Executable directory: " + dir, Data: dir}, nil
}

func (f *fileTools) checkOS(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Operating system: %s (%s)", runtime.GOOS, runtime.GOARCH),
		Data:    map[string]string{"os": runtime.GOOS, "arch": runtime.GOARCH},
	}, nil
}
