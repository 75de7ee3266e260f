package render

import (
	"fmt"
	"strings"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// ToolList prints every registered tool with its parameters
func (p *Printer) ToolList(agentName string, specs []toolexecutor.ToolSpec) {
	p.println(p.styles.Title.Render(fmt.Sprintf("%s tools (%d)", agentName, len(specs))))

	rows := make([][]string, len(specs))
	for i, spec := range specs {
		rows[i] = []string{spec.Name, formatParameters(spec.Parameters), spec.Description}
	}
	p.println(p.renderTable([]string{"Tool", "Parameters", "Description"}, rows))
}

// formatParameters lists parameters one per line: required ones bare,
// optional ones with their default
func formatParameters(params []toolexecutor.ToolParameter) string {
	if len(params) == 0 {
		return "-"
	}
	lines := make([]string, len(params))
	for i, param := range params {
		line := fmt.Sprintf("%s: %s", param.Name, param.Type)
		switch {
		case param.Required:
		case param.Default == nil:
			line += " = none"
		default:
			line += fmt.Sprintf(" = %v", param.Default)
		}
		if len(param.Enum) > 0 {
			values := make([]string, len(param.Enum))
			for j, v := range param.Enum {
				values[j] = fmt.Sprint(v)
			}
			line += " [" + strings.Join(values, "|") + "]"
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
