// Package gradle reads the subset of the Gradle Kotlin DSL used by build
// configuration trees: project inclusion, repository declarations, plugin
// and dependency declarations, and spotless formatter blocks.
//
// Statements behind a leading "//" are reported as disabled declarations
// instead of being dropped.
package gradle

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/repository"
)

// Settings is the content of a settings.gradle.kts file.
type Settings struct {
	RootName           string                 `json:"root_name"`
	Includes           []composer.Declaration `json:"includes"`
	Renames            []composer.Rename      `json:"renames,omitempty"`
	PluginRepositories []repository.Source    `json:"plugin_repositories,omitempty"`
	Repositories       []repository.Source    `json:"repositories,omitempty"`
}

var rootNameRe = regexp.MustCompile(`^rootProject\.name\s*=\s*"((?:[^"\\]|\\.)*)"$`)

// ParseSettingsFile opens and parses a settings script.
func ParseSettingsFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ParseSettings(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSettings parses a settings script.
func ParseSettings(r io.Reader) (*Settings, error) {
	v := &settingsVisitor{settings: &Settings{}}
	if err := scan(r, v); err != nil {
		return nil, err
	}
	return v.settings, nil
}

type settingsVisitor struct {
	settings *Settings
	plugins  repoCollector
	deps     repoCollector
}

func (v *settingsVisitor) collector(stack []string) *repoCollector {
	if len(stack) < 2 || stack[1] != "repositories" {
		return nil
	}
	switch stack[0] {
	case "pluginManagement":
		return &v.plugins
	case "dependencyResolutionManagement":
		return &v.deps
	}
	return nil
}

func (v *settingsVisitor) statement(st statement) error {
	switch {
	case len(st.stack) == 0:
		return v.topLevel(st)
	case len(st.stack) == 2:
		if c := v.collector(st.stack); c != nil {
			c.statement(st)
		}
	case len(st.stack) == 3 && st.stack[2] == "maven":
		if c := v.collector(st.stack); c != nil {
			c.mavenBody(st)
		}
	}
	return nil
}

func (v *settingsVisitor) closeBlock(name string, stack []string, line int) error {
	switch {
	case name == "maven" && len(stack) == 2:
		if c := v.collector(stack); c != nil {
			c.closeMaven()
		}
	case name == "repositories" && len(stack) == 1:
		switch stack[0] {
		case "pluginManagement":
			v.settings.PluginRepositories = v.plugins.sources
		case "dependencyResolutionManagement":
			v.settings.Repositories = v.deps.sources
		}
	}
	return nil
}

func (v *settingsVisitor) topLevel(st statement) error {
	if m := rootNameRe.FindStringSubmatch(st.code); m != nil {
		if !st.disabled {
			name, _ := unquote(`"` + m[1] + `"`)
			v.settings.RootName = name
		}
		return nil
	}

	calls, rest, err := parseChain(st.code)
	if err != nil {
		if st.disabled {
			return nil
		}
		return &SyntaxError{Line: st.line, Msg: err.Error()}
	}
	if len(calls) == 0 {
		return nil
	}

	switch calls[0].name {
	case "include":
		paths, err := includeArgs(calls[0])
		if err != nil {
			if st.disabled {
				return nil
			}
			return &SyntaxError{Line: st.line, Msg: err.Error()}
		}
		for _, p := range paths {
			v.settings.Includes = append(v.settings.Includes, composer.Declaration{
				Path:    p,
				Enabled: !st.disabled,
				Line:    st.line,
				Raw:     strings.TrimSpace(st.raw),
			})
		}
	case "findProject", "project":
		if st.disabled {
			return nil
		}
		if rename, ok := parseRename(calls, rest); ok {
			rename.Line = st.line
			v.settings.Renames = append(v.settings.Renames, rename)
		}
	}
	return nil
}

func includeArgs(c call) ([]string, error) {
	if !c.hasArgs || len(c.args) == 0 {
		return nil, fmt.Errorf("include without project path")
	}
	out := make([]string, 0, len(c.args))
	for _, a := range c.args {
		p, ok := unquote(a)
		if !ok {
			return nil, fmt.Errorf("include argument %s is not a string literal", a)
		}
		out = append(out, p)
	}
	return out, nil
}

// parseRename matches `findProject(":a:b")?.name = "x"` and
// `project(":a:b").name = "x"`.
func parseRename(calls []call, rest string) (composer.Rename, bool) {
	if len(calls) != 2 || len(calls[0].args) != 1 || calls[1].name != "name" || calls[1].hasArgs {
		return composer.Rename{}, false
	}
	path, ok := unquote(calls[0].args[0])
	if !ok {
		return composer.Rename{}, false
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "=") {
		return composer.Rename{}, false
	}
	name, ok := unquote(strings.TrimSpace(rest[1:]))
	if !ok {
		return composer.Rename{}, false
	}
	return composer.Rename{Path: path, Name: name}, true
}
