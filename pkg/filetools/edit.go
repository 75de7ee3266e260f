package filetools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/spf13/afero"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// splitLines splits content after each newline so joining the parts restores it
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (f *fileTools) readLines(full string) ([]string, error) {
	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return nil, fsFailure("failed to read", full, err)
	}
	return splitLines(string(content)), nil
}

func (f *fileTools) writeLines(full string, lines []string) error {
	info, err := f.fs.Stat(full)
	if err != nil {
		return fsFailure("cannot access", full, err)
	}
	if err := afero.WriteFile(f.fs, full, []byte(strings.Join(lines, "")), info.Mode().Perm()); err != nil {
		return fsFailure("failed to write", full, err)
	}
	return nil
}

func (f *fileTools) readFileSegment(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	lines, err := f.readLines(full)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	start, end := args.Int("start_line"), args.Int("end_line")
	if n := args.Int("num_lines"); n > 0 {
		end = start + n - 1
	}
	if end == 0 || end > len(lines) {
		end = len(lines)
	}
	switch {
	case start < 1:
		return toolexecutor.Output{}, toolexecutor.Recoverable("start_line must be at least 1", nil)
	case start > len(lines):
		return toolexecutor.Output{}, toolexecutor.Recoverable(fmt.Sprintf("start_line %d is past the end of %s (%d lines)", start, full, len(lines)), nil)
	case end < start:
		return toolexecutor.Output{}, toolexecutor.Recoverable(fmt.Sprintf("end_line %d is before start_line %d", end, start), nil)
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Lines %d-%d of %s (%d lines total)", start, end, full, len(lines)),
		Data:    strings.TrimRight(strings.Join(lines[start-1:end], ""), "\n"),
	}, nil
}

func (f *fileTools) insertContentAtLine(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	lineNumber := args.Int("line_number")
	if lineNumber < 1 {
		return toolexecutor.Output{}, toolexecutor.Recoverable("line_number must be at least 1", nil)
	}

	lines, err := f.readLines(full)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	content := args.String("content")
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	at := lineNumber - 1
	if at >= len(lines) {
		at = len(lines)
		if at > 0 && !strings.HasSuffix(lines[at-1], "\n") {
			lines[at-1] += "\n"
		}
	}

	updated := make([]string, 0, len(lines)+1)
	updated = append(updated, lines[:at]...)
	updated = append(updated, content)
	updated = append(updated, lines[at:]...)
	if err := f.writeLines(full, updated); err != nil {
		return toolexecutor.Output{}, err
	}

	inserted := len(splitLines(content))
	return toolexecutor.Output{Summary: fmt.Sprintf("Inserted %d line(s) at line %d of %s", inserted, at+1, full)}, nil
}

func (f *fileTools) deleteLinesFromFile(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	lines, err := f.readLines(full)
	if err != nil {
		return toolexecutor.Output{}, err
	}
	if len(lines) == 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable(full+" is empty", nil)
	}

	var keep []string
	if pattern, ok := args.OptString("pattern"); ok && pattern != "" {
		re, err := regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return toolexecutor.Output{}, toolexecutor.Recoverable("invalid regular expression "+pattern, err)
		}
		re.MatchTimeout = time.Second

		for _, line := range lines {
			matched, err := re.MatchString(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return toolexecutor.Output{}, toolexecutor.Recoverable("failed to match "+pattern, err)
			}
			if !matched {
				keep = append(keep, line)
			}
		}
		if len(keep) == len(lines) {
			return toolexecutor.Output{}, toolexecutor.Recoverable(fmt.Sprintf("no lines in %s match '%s'", full, pattern), nil)
		}
	} else {
		start, end := args.Int("start_line"), args.Int("end_line")
		if start == 0 {
			start = 1
		}
		if end == 0 || end > len(lines) {
			end = len(lines)
		}
		switch {
		case start < 1 || end < 0:
			return toolexecutor.Output{}, toolexecutor.Recoverable("line numbers cannot be negative", nil)
		case start > len(lines):
			return toolexecutor.Output{}, toolexecutor.Recoverable(fmt.Sprintf("start_line %d is past the end of %s (%d lines)", start, full, len(lines)), nil)
		case end < start:
			return toolexecutor.Output{}, toolexecutor.Recoverable(fmt.Sprintf("end_line %d is before start_line %d", end, start), nil)
		}
		keep = append(append(keep, lines[:start-1]...), lines[end:]...)
	}

	if err := f.writeLines(full, keep); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Deleted %d line(s) from %s, %d remain", len(lines)-len(keep), full, len(keep)),
	}, nil
}

func (f *fileTools) searchFileContent(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	full, err := f.existingFile(wc, args.String("path"), args.String("filename"))
	if err != nil {
		return toolexecutor.Output{}, err
	}
	term := args.String("search_term")
	if term == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("no search term provided", nil)
	}

	content, err := afero.ReadFile(f.fs, full)
	if err != nil {
		return toolexecutor.Output{}, fsFailure("failed to read", full, err)
	}
	if isBinary(content) {
		return toolexecutor.Output{}, toolexecutor.Recoverable(full+" is a binary file", nil)
	}

	table := &toolexecutor.Table{Title: fmt.Sprintf("Lines containing '%s' in %s", term, full), Columns: []string{"Line", "Content"}}
	needle := strings.ToLower(term)
	total := 0
	for i, line := range splitLines(string(content)) {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		total++
		if len(table.Rows) < maxSearchRows {
			table.AddRow(fmt.Sprint(i+1), clip(strings.TrimSpace(line), maxMatchLineLen))
		}
	}

	if total == 0 {
		return toolexecutor.Output{Summary: fmt.Sprintf("'%s' not found in %s", term, full)}, nil
	}
	summary := fmt.Sprintf("Found '%s' on %d line(s) of %s", term, total, full)
	if total > maxSearchRows {
		summary += fmt.Sprintf(" (showing first %d)", maxSearchRows)
	}
	return toolexecutor.Output{Summary: summary, Data: table}, nil
}
