package formatter

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressReporter follows BuildPlan through its two phases: the directory
// walk, where the file count is not known yet, and rule matching.
type ProgressReporter interface {
	Found(rel string)
	Start(total int)
	Assigned(matched bool)
	Finish()
}

// PlanProgress draws plan progress on stderr.
type PlanProgress struct {
	scan    *progressbar.ProgressBar
	bar     *progressbar.ProgressBar
	matched int
}

// NewPlanProgress returns nil when disabled; BuildPlan skips a nil reporter.
func NewPlanProgress(enabled bool) ProgressReporter {
	if !enabled {
		return nil
	}
	return &PlanProgress{}
}

func (p *PlanProgress) Found(string) {
	if p.scan == nil {
		p.scan = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.scan.Add(1)
}

func (p *PlanProgress) Start(total int) {
	if p.scan != nil {
		_ = p.scan.Finish()
		p.scan = nil
	}
	if total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("matching"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: ".",
			BarStart:      "|",
			BarEnd:        "|",
		}),
	)
}

func (p *PlanProgress) Assigned(matched bool) {
	if p.bar == nil {
		return
	}
	if matched {
		p.matched++
		if p.matched%64 == 1 {
			p.bar.Describe(fmt.Sprintf("matching (%d formatted)", p.matched))
		}
	}
	_ = p.bar.Add(1)
}

func (p *PlanProgress) Finish() {
	if p.scan != nil {
		_ = p.scan.Finish()
	}
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// DefaultProgressEnabled reports whether stderr is a terminal.
func DefaultProgressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
