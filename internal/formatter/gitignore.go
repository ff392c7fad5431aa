package formatter

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type ignoreRule struct {
	pattern  string
	dirOnly  bool
	negated  bool
	anchored bool
}

func (r ignoreRule) matches(path string) bool {
	if r.anchored {
		matched, _ := doublestar.Match(r.pattern, path)
		return matched
	}
	matched, _ := doublestar.Match("**/"+r.pattern, path)
	if !matched {
		matched, _ = doublestar.Match(r.pattern, path)
	}
	return matched
}

// IgnoreMatcher applies .gitignore patterns to slash-separated paths
// relative to the walk root. Later patterns override earlier ones, and a
// leading '!' re-includes.
type IgnoreMatcher struct {
	rules []ignoreRule
}

func NewIgnoreMatcher() *IgnoreMatcher {
	return &IgnoreMatcher{}
}

// LoadGitignore reads patterns from a .gitignore file. A missing file is
// not an error.
func (m *IgnoreMatcher) LoadGitignore(gitignorePath string) error {
	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return m.Parse(content)
}

func (m *IgnoreMatcher) Parse(content []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.AddPattern(line)
	}
	return scanner.Err()
}

func (m *IgnoreMatcher) AddPattern(pattern string) {
	rule := ignoreRule{pattern: pattern}

	if strings.HasPrefix(rule.pattern, "!") {
		rule.negated = true
		rule.pattern = strings.TrimPrefix(rule.pattern, "!")
	}
	if strings.HasSuffix(rule.pattern, "/") {
		rule.dirOnly = true
		rule.pattern = strings.TrimSuffix(rule.pattern, "/")
	}
	if strings.HasPrefix(rule.pattern, "/") {
		rule.anchored = true
		rule.pattern = strings.TrimPrefix(rule.pattern, "/")
	}

	m.rules = append(m.rules, rule)
}

// Match reports whether relPath is ignored.
func (m *IgnoreMatcher) Match(relPath string, isDir bool) bool {
	path := filepath.ToSlash(relPath)

	excluded := false
	for _, rule := range m.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		if rule.matches(path) {
			excluded = !rule.negated
		}
	}
	return excluded
}
