package filetools

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

func (f *fileTools) encodeFileContent(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}

	encoded := base64.StdEncoding.EncodeToString(content)
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Base64 of %s (%s)", full, humanSize(int64(len(content)))),
		Data:    encoded,
	}, nil
}

func (f *fileTools) decodeFileContent(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}

	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}
	// encoders commonly wrap lines
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(content)), ""))
	if err != nil {
		return toolexecutor.Output{}, toolexecutor.Recoverable(full+" is not valid base64", err)
	}

	if name, ok := args.OptString("output_filename"); ok && strings.TrimSpace(name) != "" {
		name = sanitizeName(name)
		if name == "" {
			return toolexecutor.Output{}, toolexecutor.Recoverable("invalid output filename", nil)
		}
		target := filepath.Join(filepath.Dir(full), name)
		if exists, _ := afero.Exists(f.fs, target); exists {
			return toolexecutor.Output{}, toolexecutor.Recoverable(target+" already exists", nil)
		}
		if err := afero.WriteFile(f.fs, target, decoded, 0o644); err != nil {
			return toolexecutor.Output{}, fsFailure("failed to write", target, err)
		}
		return toolexecutor.Output{
			Summary: fmt.Sprintf("Decoded %s into %s (%s)", full, target, humanSize(int64(len(decoded)))),
			Data:    target,
		}, nil
	}

	if isBinary(decoded) {
		return toolexecutor.Output{
			Summary: fmt.Sprintf("%s decodes to %s of binary data; set output_filename to save it", full, humanSize(int64(len(decoded)))),
		}, nil
	}
	return toolexecutor.Output{Summary: "Decoded content of " + full, Data: string(decoded)}, nil
}
