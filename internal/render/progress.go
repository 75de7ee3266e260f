package render

import (
	"fmt"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Progress prints each step as the engine runs it. It implements
// toolexecutor.Observer.
type Progress struct {
	p *Printer
}

// NewProgress returns an observer printing through p
func NewProgress(p *Printer) *Progress {
	return &Progress{p: p}
}

// StepStarted prints the step header
func (o *Progress) StepStarted(step, total int, call toolexecutor.ToolCall, destructive bool) {
	s := o.p.styles
	line := s.Muted.Render(fmt.Sprintf("[%d/%d]", step, total)) + " " + s.Bold.Render(call.Name)
	if args := formatArgs(call.Args); args != "" {
		line += " " + s.Muted.Render(args)
	}
	if destructive {
		line += " " + s.Warning.Render("(destructive)")
	}
	o.p.println(line)
}

// StepRecorded prints the step result and its data
func (o *Progress) StepRecorded(result toolexecutor.StepResult, total int) {
	s := o.p.styles
	switch result.Status {
	case toolexecutor.StepSuccess:
		summary := "done"
		if result.Output != nil && result.Output.Summary != "" {
			summary = result.Output.Summary
		}
		o.p.println(s.Success.Render("  ✓ ") + summary)
		if result.Output != nil {
			o.p.Output(result.Call, *result.Output)
		}
		if result.Truncated {
			o.p.println(s.Muted.Render("  (output truncated)"))
		}
	case toolexecutor.StepFailure:
		o.p.println(s.Failure.Render("  ✗ ") + result.Error)
	case toolexecutor.StepSkipped:
		o.p.println(s.Warning.Render("  - skipped: ") + result.Reason)
	}
}

// PlanPreview prints a validated plan without executing it, marking the
// steps that would ask for confirmation
func (p *Printer) PlanPreview(plan toolexecutor.ExecutionPlan, classifier *toolexecutor.Classifier) {
	p.println(p.styles.Title.Render(fmt.Sprintf("Plan (%d step(s), not executed)", len(plan))))

	rows := make([][]string, len(plan))
	for i, call := range plan {
		confirm := ""
		if classifier != nil && classifier.IsDestructive(call) {
			confirm = "yes"
		}
		rows[i] = []string{fmt.Sprintf("%d", i+1), call.Name, formatArgs(call.Args), confirm}
	}
	p.println(p.renderTable([]string{"#", "Tool", "Arguments", "Confirm"}, rows))
}
