package filetools

import (
	"context"
	"strings"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// tempParent returns the directory argument resolved and checked, or "" for
// the system temp directory
func (f *fileTools) tempParent(wc *toolexecutor.WorkContext, args toolexecutor.Args) (string, error) {
	dir, ok := args.OptString("directory")
	if !ok || strings.TrimSpace(dir) == "" {
		return "", nil
	}
	return f.existingDir(wc, dir)
}

func checkAffix(name, value string) error {
	if strings.ContainsAny(value, `/\`) || strings.Contains(value, "*") {
		return toolexecutor.Recoverable(name+" cannot contain path separators or '*'", nil)
	}
	return nil
}

func (f *fileTools) createTempFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	prefix, suffix := args.String("prefix"), args.String("suffix")
	if err := checkAffix("prefix", prefix); err != nil {
		return toolexecutor.Output{}, err
	}
	if err := checkAffix("suffix", suffix); err != nil {
		return toolexecutor.Output{}, err
	}
	dir, err := f.tempParent(wc, args)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	file, err := afero.TempFile(f.fs, dir, prefix+"*"+suffix)
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("failed to create temporary file", err)
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to close", name, err)
	}
	return toolexecutor.Output{Summary: "Created temporary file " + name, Data: name}, nil
}

func (f *fileTools) createTempDirectory(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	prefix := args.String("prefix")
	if err := checkAffix("prefix", prefix); err != nil {
		return toolexecutor.Output{}, err
	}
	dir, err := f.tempParent(wc, args)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	name, err := afero.TempDir(f.fs, dir, prefix)
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("failed to create temporary directory", err)
	}
	return toolexecutor.Output{Summary: "Created temporary directory " + name, Data: name}, nil
}
