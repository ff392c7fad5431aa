package gradle

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/DreamCats/buildcomp/internal/formatter"
	"github.com/DreamCats/buildcomp/internal/repository"
)

// Plugin is an entry of a plugins { } block.
type Plugin struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Apply   bool   `json:"apply"`
}

// Dependency is an entry of a dependencies { } block.
type Dependency struct {
	Configuration string `json:"configuration"`
	Notation      string `json:"notation"`
	Platform      bool   `json:"platform,omitempty"`
	Project       bool   `json:"project,omitempty"`
	Line          int    `json:"line,omitempty"`
}

// ProjectDefaults holds what an allprojects { } block applies to every project.
type ProjectDefaults struct {
	Group        string              `json:"group,omitempty"`
	Version      string              `json:"version,omitempty"`
	Repositories []repository.Source `json:"repositories,omitempty"`
}

// BuildScript is the content of a build.gradle.kts file.
type BuildScript struct {
	Plugins      []Plugin            `json:"plugins,omitempty"`
	Group        string              `json:"group,omitempty"`
	Version      string              `json:"version,omitempty"`
	Repositories []repository.Source `json:"repositories,omitempty"`
	Dependencies []Dependency        `json:"dependencies,omitempty"`
	Formatters   []formatter.Rule    `json:"formatters,omitempty"`
	AllProjects  *ProjectDefaults    `json:"allprojects,omitempty"`
}

// defaultTargets are the spotless defaults for formats that may omit target().
var defaultTargets = map[string]string{
	"java":         "src/*/java/**/*.java",
	"kotlin":       "src/*/kotlin/**/*.kt",
	"kotlinGradle": "*.gradle.kts",
	"groovyGradle": "*.gradle",
	"scala":        "src/*/scala/**/*.scala",
}

var (
	assignRe        = regexp.MustCompile(`^(group|version)\s*=\s*"((?:[^"\\]|\\.)*)"$`)
	pluginVersionRe = regexp.MustCompile(`^version\s+"((?:[^"\\]|\\.)*)"`)
	applyFalseRe    = regexp.MustCompile(`\bapply\s+false\b`)
)

// ParseBuildScriptFile opens and parses a build script.
func ParseBuildScriptFile(path string) (*BuildScript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := ParseBuildScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseBuildScript parses a build script.
func ParseBuildScript(r io.Reader) (*BuildScript, error) {
	v := &buildVisitor{script: &BuildScript{}}
	if err := scan(r, v); err != nil {
		return nil, err
	}
	return v.script, nil
}

type buildVisitor struct {
	script *BuildScript

	repos    repoCollector
	allRepos repoCollector

	format  *formatter.Rule
	hasTool bool
}

func isSpotless(name string) bool {
	return name == "spotless" || strings.HasPrefix(name, "configure<") && strings.Contains(name, "Spotless")
}

// formatName names a format block; custom `format("misc") {` blocks take
// their argument.
func formatName(code string) string {
	calls, _, err := parseChain(code)
	if err == nil && len(calls) > 0 && calls[0].name == "format" && len(calls[0].args) > 0 {
		if name, ok := unquote(calls[0].args[0]); ok {
			return name
		}
	}
	return blockName(code)
}

func isAllProjects(name string) bool {
	return name == "allprojects" || name == "subprojects"
}

func (v *buildVisitor) defaults() *ProjectDefaults {
	if v.script.AllProjects == nil {
		v.script.AllProjects = &ProjectDefaults{}
	}
	return v.script.AllProjects
}

func (v *buildVisitor) collector(stack []string) *repoCollector {
	switch {
	case len(stack) == 1 && stack[0] == "repositories":
		return &v.repos
	case len(stack) == 2 && isAllProjects(stack[0]) && stack[1] == "repositories":
		return &v.allRepos
	}
	return nil
}

func (v *buildVisitor) statement(st statement) error {
	depth := len(st.stack)

	if c := v.collector(st.stack); c != nil {
		c.statement(st)
		return nil
	}
	if depth > 0 && st.stack[depth-1] == "maven" {
		if c := v.collector(st.stack[:depth-1]); c != nil {
			c.mavenBody(st)
		}
		return nil
	}

	switch {
	case depth == 0:
		v.assignment(st, func(key, value string) {
			if key == "group" {
				v.script.Group = value
			} else {
				v.script.Version = value
			}
		})
	case depth == 1 && isAllProjects(st.stack[0]):
		v.assignment(st, func(key, value string) {
			if key == "group" {
				v.defaults().Group = value
			} else {
				v.defaults().Version = value
			}
		})
	case st.in("plugins"):
		if st.disabled {
			return nil
		}
		if p, ok := parsePlugin(st.code); ok {
			v.script.Plugins = append(v.script.Plugins, p)
		}
	case st.in("dependencies"):
		if st.disabled {
			return nil
		}
		if d, ok := parseDependency(st.code); ok {
			d.Line = st.line
			v.script.Dependencies = append(v.script.Dependencies, d)
		}
	case depth == 1 && isSpotless(st.stack[0]) && st.opens:
		if st.disabled {
			return nil
		}
		v.format = &formatter.Rule{Name: formatName(st.code), Line: st.line}
		v.hasTool = false
	case depth == 2 && isSpotless(st.stack[0]) && v.format != nil:
		if st.disabled {
			return nil
		}
		return v.formatStep(st)
	}
	return nil
}

func (v *buildVisitor) assignment(st statement, set func(key, value string)) {
	if st.disabled {
		return
	}
	if m := assignRe.FindStringSubmatch(st.code); m != nil {
		value, _ := unquote(`"` + m[2] + `"`)
		set(m[1], value)
	}
}

func (v *buildVisitor) closeBlock(name string, stack []string, line int) error {
	switch {
	case name == "maven":
		if c := v.collector(stack); c != nil {
			c.closeMaven()
		}
	case name == "repositories" && len(stack) == 0:
		v.script.Repositories = v.repos.sources
	case name == "repositories" && len(stack) == 1 && isAllProjects(stack[0]):
		v.defaults().Repositories = v.allRepos.sources
	case len(stack) == 1 && isSpotless(stack[0]) && v.format != nil:
		rule := *v.format
		v.format = nil
		if rule.FileGlob == "" {
			def, ok := defaultTargets[rule.Name]
			if !ok {
				return &SyntaxError{Line: rule.Line, Msg: fmt.Sprintf("format %q has no target", rule.Name)}
			}
			rule.FileGlob = def
		}
		v.script.Formatters = append(v.script.Formatters, rule)
	}
	return nil
}

// formatStep handles one line inside a spotless format block.
func (v *buildVisitor) formatStep(st statement) error {
	chained := strings.HasPrefix(st.code, ".")
	calls, _, err := parseChain(st.code)
	if err != nil {
		return &SyntaxError{Line: st.line, Msg: err.Error()}
	}
	if len(calls) == 0 {
		return nil
	}
	rule := v.format

	if !chained {
		switch calls[0].name {
		case "target":
			globs, err := stringArgs(calls[0])
			if err != nil {
				return &SyntaxError{Line: st.line, Msg: err.Error()}
			}
			rule.FileGlob = joinGlobs(globs)
			return nil
		case "targetExclude":
			globs, err := stringArgs(calls[0])
			if err != nil {
				return &SyntaxError{Line: st.line, Msg: err.Error()}
			}
			rule.ExcludeGlobs = append(rule.ExcludeGlobs, globs...)
			return nil
		}
		if !v.hasTool {
			rule.ToolName = calls[0].name
			v.hasTool = true
			if len(calls[0].args) > 0 {
				setOption(rule, "version", joinValues(calls[0].args))
			}
			calls = calls[1:]
		}
	}
	for _, c := range calls {
		applyOption(rule, c)
	}
	return nil
}

func applyOption(rule *formatter.Rule, c call) {
	switch len(c.args) {
	case 0:
		setOption(rule, c.name, "true")
	case 1:
		setOption(rule, c.name, argValue(c.args[0]))
	case 2:
		setOption(rule, c.name+"."+argValue(c.args[0]), argValue(c.args[1]))
	default:
		setOption(rule, c.name, joinValues(c.args))
	}
}

func setOption(rule *formatter.Rule, key, value string) {
	if rule.ToolOptions == nil {
		rule.ToolOptions = make(map[string]string)
	}
	rule.ToolOptions[key] = value
}

func joinValues(args []string) string {
	vals := make([]string, len(args))
	for i, a := range args {
		vals[i] = argValue(a)
	}
	return strings.Join(vals, ",")
}

func stringArgs(c call) ([]string, error) {
	out := make([]string, 0, len(c.args))
	for _, a := range c.args {
		s, ok := unquote(a)
		if !ok {
			return nil, fmt.Errorf("%s argument %s is not a string literal", c.name, a)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s without patterns", c.name)
	}
	return out, nil
}

// joinGlobs folds several target patterns into one brace alternation.
func joinGlobs(globs []string) string {
	if len(globs) == 1 {
		return globs[0]
	}
	return "{" + strings.Join(globs, ",") + "}"
}

func parsePlugin(code string) (Plugin, bool) {
	calls, rest, err := parseChain(code)
	if err != nil || len(calls) == 0 {
		return Plugin{}, false
	}
	c := calls[0]
	p := Plugin{Apply: true}
	switch {
	case c.name == "id" && len(c.args) == 1:
		id, ok := unquote(c.args[0])
		if !ok {
			return Plugin{}, false
		}
		p.ID = id
	case c.name == "kotlin" && len(c.args) == 1:
		id, ok := unquote(c.args[0])
		if !ok {
			return Plugin{}, false
		}
		p.ID = "org.jetbrains.kotlin." + id
	case !c.hasArgs:
		p.ID = c.name
	default:
		return Plugin{}, false
	}
	if m := pluginVersionRe.FindStringSubmatch(strings.TrimSpace(rest)); m != nil {
		p.Version = m[1]
	}
	if applyFalseRe.MatchString(rest) {
		p.Apply = false
	}
	return p, true
}

func parseDependency(code string) (Dependency, bool) {
	calls, _, err := parseChain(code)
	if err != nil || len(calls) == 0 || !calls[0].hasArgs || len(calls[0].args) == 0 {
		return Dependency{}, false
	}
	d := Dependency{Configuration: calls[0].name}
	arg := calls[0].args[0]
	if s, ok := unquote(arg); ok {
		d.Notation = s
		return d, true
	}

	inner, _, err := parseChain(arg)
	if err == nil && len(inner) > 0 && len(inner[0].args) == 1 {
		value, ok := unquote(inner[0].args[0])
		switch {
		case ok && (inner[0].name == "platform" || inner[0].name == "enforcedPlatform"):
			d.Notation = value
			d.Platform = true
			return d, true
		case ok && inner[0].name == "project":
			d.Notation = value
			d.Project = true
			return d, true
		}
	}
	d.Notation = strings.TrimSpace(arg)
	return d, true
}
