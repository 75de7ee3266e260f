package filetools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

const diffContextLines = 3

// filePair resolves the two file arguments shared by the comparison tools
func (f *fileTools) filePair(wc *toolexecutor.WorkContext, args toolexecutor.Args) (string, string, error) {
	var paths [2]string
	for i, name := range []string{"file1_path", "file2_path"} {
		p := args.String(name)
		full, err := f.existingFile(wc, filepath.Dir(p), filepath.Base(p))
		if err != nil {
			return "", "", err
		}
		paths[i] = full
	}
	return paths[0], paths[1], nil
}

func (f *fileTools) compareFiles(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	a, b, err := f.filePair(wc, args)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	same := a == b
	if !same {
		infoA, err := f.fs.Stat(a)
		if err != nil {
			return toolexecutor.Output{}, fsFailure("cannot access", a, err)
		}
		infoB, err := f.fs.Stat(b)
		if err != nil {
			return toolexecutor.Output{}, fsFailure("cannot access", b, err)
		}
		if infoA.Size() == infoB.Size() {
			if same, err = f.sameContent(a, b); err != nil {
				return toolexecutor.Output{}, fsFailure("failed to compare", a, err)
			}
		}
	}

	if same {
		return toolexecutor.Output{Summary: fmt.Sprintf("%s and %s are identical", a, b), Data: true}, nil
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("%s and %s differ", a, b), Data: false}, nil
}

func (f *fileTools) diffFiles(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	a, b, err := f.filePair(wc, args)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	var contents [2]string
	for i, p := range []string{a, b} {
		content, err := afero.ReadFile(f.fs, p)
		if err != nil {
			return toolexecutor.Output{}, fsFailure("failed to read", p, err)
		}
		if isBinary(content) {
			return toolexecutor.Output{}, toolexecutor.Recoverable(p+" is a binary file; use compare_files instead", nil)
		}
		contents[i] = string(content)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(contents[0]),
		B:        difflib.SplitLines(contents[1]),
		FromFile: a,
		ToFile:   b,
		Context:  diffContextLines,
	})
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable("failed to diff "+a+" and "+b, err)
	}

	if diff == "" {
		return toolexecutor.Output{Summary: fmt.Sprintf("No differences between %s and %s", a, b)}, nil
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Differences between %s and %s", a, b), Data: diff}, nil
}
