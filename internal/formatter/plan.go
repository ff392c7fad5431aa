package formatter

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DreamCats/buildcomp/internal/runlog"
)

// PlanOptions controls the directory walk.
type PlanOptions struct {
	// ExcludeDirs are directory names skipped wherever they appear.
	ExcludeDirs  []string
	UseGitignore bool
	// Owner maps a relative file path to the owning project path. Optional.
	Owner    func(relPath string) string
	Progress ProgressReporter
	Logger   *runlog.Logger
}

// Assignment is the outcome for one file. Rule is empty when no rule applies.
type Assignment struct {
	Path    string `json:"path"`
	Rule    string `json:"rule,omitempty"`
	Tool    string `json:"tool,omitempty"`
	Project string `json:"project,omitempty"`
}

// Plan lists every file under Root and the rule that would format it.
type Plan struct {
	Root        string       `json:"root"`
	Assignments []Assignment `json:"assignments"`
}

// Matched returns the assignments that have a rule.
func (p *Plan) Matched() []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if a.Rule != "" {
			out = append(out, a)
		}
	}
	return out
}

// CountByRule returns how many files each rule covers. Files without a
// rule are counted under the empty key.
func (p *Plan) CountByRule() map[string]int {
	out := make(map[string]int)
	for _, a := range p.Assignments {
		out[a.Rule]++
	}
	return out
}

// BuildPlan walks root and assigns each regular file its rule. The walk
// checks ctx between entries.
func BuildPlan(ctx context.Context, root string, engine *Engine, opts PlanOptions) (*Plan, error) {
	ignore := NewIgnoreMatcher()
	if opts.UseGitignore {
		if err := ignore.LoadGitignore(filepath.Join(root, ".gitignore")); err != nil {
			return nil, fmt.Errorf("load .gitignore: %w", err)
		}
	}
	skipDir := make(map[string]bool, len(opts.ExcludeDirs))
	for _, d := range opts.ExcludeDirs {
		skipDir[strings.TrimSuffix(d, "/")] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skipDir[d.Name()] {
				opts.Logger.Debug("Directory skipped", map[string]interface{}{"path": rel})
				return filepath.SkipDir
			}
			if opts.UseGitignore && ignore.Match(rel, true) {
				opts.Logger.Debug("Directory excluded by .gitignore", map[string]interface{}{"path": rel})
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if opts.UseGitignore && ignore.Match(rel, false) {
			opts.Logger.Debug("File excluded by .gitignore", map[string]interface{}{"path": rel})
			return nil
		}
		files = append(files, rel)
		if opts.Progress != nil {
			opts.Progress.Found(rel)
		}
		return nil
	})
	if err != nil {
		if opts.Progress != nil {
			opts.Progress.Finish()
		}
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)

	if opts.Progress != nil {
		opts.Progress.Start(len(files))
		defer opts.Progress.Finish()
	}

	plan := &Plan{Root: root, Assignments: make([]Assignment, 0, len(files))}
	for _, rel := range files {
		a := Assignment{Path: rel}
		if rule, ok := engine.Match(rel); ok {
			a.Rule = rule.Name
			a.Tool = rule.Invocation()
		}
		if opts.Owner != nil {
			a.Project = opts.Owner(rel)
		}
		plan.Assignments = append(plan.Assignments, a)
		if opts.Progress != nil {
			opts.Progress.Assigned(a.Rule != "")
		}
	}

	opts.Logger.Info("Formatter plan built", map[string]interface{}{
		"root":    root,
		"files":   len(files),
		"matched": len(plan.Matched()),
	})
	return plan, nil
}
