package render

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/harun/toolpilot/pkg/history"
)

// History prints recorded runs, newest first
func (p *Printer) History(runs []history.Run) {
	if len(runs) == 0 {
		p.println(p.styles.Muted.Render("No runs recorded yet."))
		return
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			humanize.Time(run.StartedAt),
			run.Agent,
			truncate(run.Instruction, 50),
			run.Outcome,
			fmt.Sprintf("%d", run.ExitCode),
			run.Duration().Round(time.Millisecond).String(),
		}
	}
	p.println(p.renderTable([]string{"When", "Agent", "Instruction", "Outcome", "Exit", "Took"}, rows))
}
