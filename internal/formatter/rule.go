// Package formatter selects the formatting rule that governs a file.
//
// Rules are evaluated in declaration order. Within a rule the exclude
// patterns are checked first: a file matching any of them is never handled
// by that rule, whatever its include glob says. The first rule whose glob
// matches a non-excluded file wins.
package formatter

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Rule maps a file pattern to a formatting tool invocation.
type Rule struct {
	Name         string            `json:"name" yaml:"name"`
	FileGlob     string            `json:"target" yaml:"target"`
	ExcludeGlobs []string          `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	ToolName     string            `json:"tool,omitempty" yaml:"tool,omitempty"`
	ToolOptions  map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	Line         int               `json:"line,omitempty" yaml:"-"`
}

// OptionKeys returns the tool option names in sorted order.
func (r *Rule) OptionKeys() []string {
	keys := make([]string, 0, len(r.ToolOptions))
	for k := range r.ToolOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invocation renders the tool and its options as a single line, e.g.
// "jackson feature.ORDER_MAP_ENTRIES_BY_KEYS=true".
func (r *Rule) Invocation() string {
	if r.ToolName == "" {
		return "(no tool)"
	}
	parts := []string{r.ToolName}
	for _, k := range r.OptionKeys() {
		parts = append(parts, k+"="+r.ToolOptions[k])
	}
	return strings.Join(parts, " ")
}

// MalformedGlobError is returned when a rule pattern does not compile.
type MalformedGlobError struct {
	Rule    string
	Pattern string
}

func (e *MalformedGlobError) Error() string {
	return fmt.Sprintf("formatter rule %q: malformed glob %q", e.Rule, e.Pattern)
}

// IsMalformedGlob checks if err is (or wraps) a MalformedGlobError
func IsMalformedGlob(err error) bool {
	var target *MalformedGlobError
	return errors.As(err, &target)
}

// Engine holds a validated, ordered rule list.
type Engine struct {
	rules []Rule
}

// NewEngine validates every include and exclude pattern and returns an
// engine over a copy of rules.
func NewEngine(rules []Rule) (*Engine, error) {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.FileGlob) == "" || !doublestar.ValidatePattern(r.FileGlob) {
			return nil, &MalformedGlobError{Rule: r.Name, Pattern: r.FileGlob}
		}
		for _, ex := range r.ExcludeGlobs {
			if strings.TrimSpace(ex) == "" || !doublestar.ValidatePattern(ex) {
				return nil, &MalformedGlobError{Rule: r.Name, Pattern: ex}
			}
		}
		r.ExcludeGlobs = append([]string(nil), r.ExcludeGlobs...)
		out[i] = r
	}
	return &Engine{rules: out}, nil
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Match returns the first rule that applies to file.
func (e *Engine) Match(file string) (*Rule, bool) {
	p := normalize(file)
	for i := range e.rules {
		r := &e.rules[i]
		if excludedBy(r, p) != "" {
			continue
		}
		if matchGlob(r.FileGlob, p) {
			return r, true
		}
	}
	return nil, false
}

// Decision records how one rule treated a file.
type Decision struct {
	Rule       string `json:"rule"`
	ExcludedBy string `json:"excluded_by,omitempty"`
	Included   bool   `json:"included"`
	Selected   bool   `json:"selected"`
}

// Explain evaluates every rule against file and reports each outcome. At
// most one decision is Selected, and it is the rule Match would return.
func (e *Engine) Explain(file string) []Decision {
	p := normalize(file)
	out := make([]Decision, 0, len(e.rules))
	selected := false
	for i := range e.rules {
		r := &e.rules[i]
		d := Decision{Rule: r.Name}
		if ex := excludedBy(r, p); ex != "" {
			d.ExcludedBy = ex
		} else if matchGlob(r.FileGlob, p) {
			d.Included = true
			if !selected {
				d.Selected = true
				selected = true
			}
		}
		out = append(out, d)
	}
	return out
}

func excludedBy(r *Rule, p string) string {
	for _, ex := range r.ExcludeGlobs {
		if matchGlob(ex, p) {
			return ex
		}
	}
	return ""
}

func matchGlob(pattern, p string) bool {
	// patterns are validated in NewEngine
	return doublestar.MatchUnvalidated(pattern, p)
}

func normalize(file string) string {
	p := strings.ReplaceAll(file, "\\", "/")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}
