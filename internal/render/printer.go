package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Printer writes human-readable output. It is not safe for concurrent use.
type Printer struct {
	out       io.Writer
	styles    Styles
	highlight bool
}

// Options configures a Printer
type Options struct {
	// Highlight enables syntax highlighting of file contents; only useful
	// when the output is a color terminal
	Highlight bool
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer, opts Options) *Printer {
	return &Printer{
		out:       out,
		styles:    NewStyles(lipgloss.NewRenderer(out)),
		highlight: opts.Highlight,
	}
}

// Writer returns the printer's destination
func (p *Printer) Writer() io.Writer {
	return p.out
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.out, s)
}

// Notice prints an informational line
func (p *Printer) Notice(format string, args ...interface{}) {
	p.println(p.styles.Info.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a warning line
func (p *Printer) Warn(format string, args ...interface{}) {
	p.println(p.styles.Warning.Render("! " + fmt.Sprintf(format, args...)))
}

// Error prints an error line
func (p *Printer) Error(format string, args ...interface{}) {
	p.println(p.styles.Failure.Render("✗ " + fmt.Sprintf(format, args...)))
}

// Panel prints a titled box
func (p *Printer) Panel(title, body string, color lipgloss.Color) {
	content := p.styles.Bold.Render(title)
	if body != "" {
		content += "\n" + body
	}
	p.println(p.styles.panel(color).Render(content))
}

// Table prints a tool table
func (p *Printer) Table(t *toolexecutor.Table) {
	if t.Title != "" {
		p.println(p.styles.Title.Render(t.Title))
	}
	if len(t.Rows) == 0 {
		p.println(p.styles.Muted.Render("(no rows)"))
		return
	}
	p.println(p.renderTable(t.Columns, t.Rows))
}

func (p *Printer) renderTable(headers []string, rows [][]string) string {
	styles := p.styles
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}

// formatArgs renders arguments as sorted key=value pairs
func formatArgs(args toolexecutor.Args) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		v := args[k]
		if s, ok := v.(string); ok {
			v = truncate(strings.ReplaceAll(s, "\n", `\n`), 60)
			parts[i] = fmt.Sprintf("%s=%q", k, v)
			continue
		}
		parts[i] = fmt.Sprintf("%s=%v", k, v)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
