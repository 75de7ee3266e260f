package filetools

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

var archiveExtensions = map[string]string{
	"zip":   ".zip",
	"tar":   ".tar",
	"gztar": ".tar.gz",
}

// archiveFormat maps an archive file name to its format by extension
func archiveFormat(name string) (string, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return "zip", true
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "gztar", true
	case strings.HasSuffix(lower, ".tar"):
		return "tar", true
	}
	return "", false
}

func (f *fileTools) createArchive(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, errNoWorkContext
	}

	src := wc.Resolve(args.String("source_path"))
	if exists, err := afero.Exists(f.fs, src); err != nil || !exists {
		return toolexecutor.Output{}, toolexecutor.Recoverable("source not found: "+src, err)
	}

	destDir := wc.Resolve(args.String("destination_directory"))
	if err := f.fs.MkdirAll(destDir, 0o755); err != nil {
		return toolexecutor.Output{}, fsFailure("failed to create", destDir, err)
	}

	base := filepath.Base(src)
	if name, ok := args.OptString("archive_name"); ok && strings.TrimSpace(name) != "" {
		base = name
	}
	base = sanitizeName(base)
	if base == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("invalid archive name", nil)
	}

	format := args.String("format")
	target := filepath.Join(destDir, base+archiveExtensions[format])
	if exists, _ := afero.Exists(f.fs, target); exists {
		return toolexecutor.Output{}, toolexecutor.Recoverable(target+" already exists", nil)
	}

	entries, err := f.writeArchive(ctx, src, target, format)
	if err != nil {
		_ = f.fs.Remove(target)
		return toolexecutor.Output{}, fsFailure("failed to archive", src, err)
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Created %s with %d entries", target, entries),
		Data:    target,
	}, nil
}

// writeArchive packs src into target with entry names rooted at src's base name
func (f *fileTools) writeArchive(ctx context.Context, src, target, format string) (int, error) {
	out, err := f.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	var add func(name string, info os.FileInfo, p string) error
	var closers []io.Closer

	switch format {
	case "zip":
		zw := zip.NewWriter(out)
		closers = append(closers, zw)
		add = func(name string, info os.FileInfo, p string) error {
			hdr, err := zip.FileInfoHeader(info)
			if err != nil {
				return err
			}
			hdr.Name = name
			if info.IsDir() {
				hdr.Name += "/"
			} else {
				hdr.Method = zip.Deflate
			}
			w, err := zw.CreateHeader(hdr)
			if err != nil || info.IsDir() {
				return err
			}
			return f.copyInto(w, p)
		}
	default:
		var w io.Writer = out
		if format == "gztar" {
			gz := gzip.NewWriter(out)
			w = gz
			closers = append(closers, gz)
		}
		tw := tar.NewWriter(w)
		// tar flushes into gzip, so it closes first
		closers = append([]io.Closer{tw}, closers...)
		add = func(name string, info os.FileInfo, p string) error {
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = name
			if info.IsDir() {
				hdr.Name += "/"
			}
			if err := tw.WriteHeader(hdr); err != nil || info.IsDir() {
				return err
			}
			return f.copyInto(tw, p)
		}
	}

	root := filepath.Dir(src)
	entries := 0
	walkErr := afero.Walk(f.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p == target || !(info.IsDir() || info.Mode().IsRegular()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries++
		return add(filepath.ToSlash(rel), info, p)
	})
	if walkErr != nil {
		return 0, walkErr
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			return 0, err
		}
	}
	return entries, out.Close()
}

func (f *fileTools) copyInto(w io.Writer, p string) error {
	in, err := f.fs.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(w, in)
	return err
}

// archiveEntry is one member of an archive; r is nil for directories
type archiveEntry struct {
	name string
	dir  bool
	mode fs.FileMode
	r    io.Reader
}

// eachEntry streams the directory and regular file members of an archive
func (f *fileTools) eachEntry(archivePath, format string, fn func(archiveEntry) error) error {
	file, err := f.fs.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	if format == "zip" {
		info, err := file.Stat()
		if err != nil {
			return err
		}
		zr, err := zip.NewReader(file, info.Size())
		if err != nil {
			return err
		}
		for _, zf := range zr.File {
			mode := zf.Mode()
			if !mode.IsDir() && !mode.IsRegular() {
				continue
			}
			entry := archiveEntry{name: zf.Name, dir: mode.IsDir(), mode: mode.Perm()}
			if err := withZipReader(zf, entry, fn); err != nil {
				return err
			}
		}
		return nil
	}

	var r io.Reader = file
	if format == "gztar" {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			err = fn(archiveEntry{name: hdr.Name, dir: true, mode: hdr.FileInfo().Mode().Perm()})
		case tar.TypeReg:
			err = fn(archiveEntry{name: hdr.Name, mode: hdr.FileInfo().Mode().Perm(), r: tr})
		}
		if err != nil {
			return err
		}
	}
}

func withZipReader(zf *zip.File, entry archiveEntry, fn func(archiveEntry) error) error {
	if entry.dir {
		return fn(entry)
	}
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	entry.r = rc
	return fn(entry)
}

// extractTarget maps an entry name below dest, rejecting absolute names and
// names that climb out of it. A "./" entry maps to dest itself.
func extractTarget(dest, name string) (string, bool) {
	clean := path.Clean(filepath.ToSlash(name))
	if clean == ".." || path.IsAbs(clean) || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return filepath.Join(dest, filepath.FromSlash(clean)), true
}

func (f *fileTools) extractArchive(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	p := args.String("archive_path")
	archivePath, err := f.existingFile(wc, filepath.Dir(p), filepath.Base(p))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	format, ok := archiveFormat(archivePath)
	if !ok {
		return toolexecutor.Output{}, toolexecutor.Recoverable("unsupported archive format: "+archivePath, nil)
	}
	dest := wc.Resolve(args.String("destination_path"))

	// first pass checks every entry so a bad archive writes nothing
	seen := make(map[string]bool)
	err = f.eachEntry(archivePath, format, func(e archiveEntry) error {
		target, ok := extractTarget(dest, e.name)
		if !ok || (target == dest && !e.dir) {
			return toolexecutor.Recoverable("archive entry escapes the destination: "+e.name, nil)
		}
		if e.dir {
			return nil
		}
		if seen[target] {
			return toolexecutor.Recoverable("archive contains "+e.name+" more than once", nil)
		}
		seen[target] = true
		if exists, _ := afero.Exists(f.fs, target); exists {
			return toolexecutor.Recoverable("extracting would overwrite "+target, nil)
		}
		return nil
	})
	if err != nil {
		var failure *toolexecutor.ToolFailure
		if errors.As(err, &failure) {
			return toolexecutor.Output{}, err
		}
		return toolexecutor.Output{}, fsFailure("failed to read archive", archivePath, err)
	}

	files := 0
	err = f.eachEntry(archivePath, format, func(e archiveEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		target, _ := extractTarget(dest, e.name)
		if e.dir {
			return f.fs.MkdirAll(target, e.mode|0o700)
		}
		if err := f.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := f.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, e.mode|0o600)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, e.r); err != nil {
			out.Close()
			return err
		}
		files++
		return out.Close()
	})
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to extract", archivePath, err)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Extracted %d file(s) from %s to %s", files, archivePath, dest),
		Data:    dest,
	}, nil
}
