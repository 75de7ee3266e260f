package render

import (
	"fmt"
	"strings"

	"github.com/harun/toolpilot/pkg/agent"
	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Outcome prints the end of a run. Step output has already been shown by
// Progress; this adds the verdict and, for incomplete runs, which steps
// succeeded, failed and why.
func (p *Printer) Outcome(o *agent.Outcome) {
	switch o.Kind {
	case agent.OutcomeCompleted:
		p.println(p.styles.Success.Render("✓ " + o.Summary()))
	case agent.OutcomeDryRun:
		p.println(p.styles.Muted.Render("Dry run: nothing was executed."))
	case agent.OutcomePartial, agent.OutcomeFatal:
		color := colorWarning
		title := "Finished with problems"
		if o.Kind == agent.OutcomeFatal {
			color = colorFailure
			title = "Stopped"
		}
		p.Panel(title, p.stepBreakdown(o), color)
	case agent.OutcomeClarification:
		p.Panel("Clarification needed", o.Message, colorInfo)
	case agent.OutcomeUnsupported:
		p.Panel("Cannot do that", o.Message, colorWarning)
	case agent.OutcomeRejected:
		p.Panel("Plan rejected", o.Message, colorFailure)
	default:
		p.Panel("Error", o.Message, colorFailure)
	}
}

func (p *Printer) stepBreakdown(o *agent.Outcome) string {
	var lines []string
	lines = append(lines, o.Summary())
	if o.Report == nil {
		return strings.Join(lines, "\n")
	}

	for _, step := range o.Report.Steps {
		var line string
		switch step.Status {
		case toolexecutor.StepSuccess:
			line = p.styles.Success.Render("✓") + fmt.Sprintf(" %d. %s", step.Index, step.Call.Name)
		case toolexecutor.StepFailure:
			line = p.styles.Failure.Render("✗") + fmt.Sprintf(" %d. %s: %s", step.Index, step.Call.Name, step.Error)
		case toolexecutor.StepSkipped:
			line = p.styles.Warning.Render("-") + fmt.Sprintf(" %d. %s: skipped (%s)", step.Index, step.Call.Name, step.Reason)
		}
		lines = append(lines, line)
	}

	for i := len(o.Report.Steps); i < len(o.Plan); i++ {
		lines = append(lines, p.styles.Muted.Render(fmt.Sprintf("· %d. %s: not attempted", i+1, o.Plan[i].Name)))
	}
	return strings.Join(lines, "\n")
}
