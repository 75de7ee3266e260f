package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Output prints the data of a successful step. call is used to pick a
// lexer for file contents.
func (p *Printer) Output(call toolexecutor.ToolCall, out toolexecutor.Output) {
	switch data := out.Data.(type) {
	case nil:
	case *toolexecutor.Table:
		p.Table(data)
	case toolexecutor.Table:
		p.Table(&data)
	case string:
		p.text(call, data)
	case []string:
		if len(data) == 0 {
			p.println(p.styles.Muted.Render("(none)"))
			return
		}
		for _, item := range data {
			p.println("  • " + item)
		}
	case map[string]string:
		p.keyValues(data)
	case bool:
		if data {
			p.println(p.styles.Success.Render("  yes"))
		} else {
			p.println(p.styles.Warning.Render("  no"))
		}
	default:
		p.println(fmt.Sprintf("  %v", data))
	}
}

func (p *Printer) text(call toolexecutor.ToolCall, s string) {
	if s == "" {
		p.println(p.styles.Muted.Render("(empty)"))
		return
	}
	if p.highlight {
		if filename := call.Args.String("filename"); filename != "" {
			s = Highlight(s, filename)
		}
	}
	p.println(strings.TrimRight(s, "\n"))
}

func (p *Printer) keyValues(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, len(keys))
	for i, k := range keys {
		rows[i] = []string{k, m[k]}
	}
	p.println(p.renderTable([]string{"Property", "Value"}, rows))
}
