// Package composer turns an ordered list of project inclusion declarations
// into a resolved project tree.
//
// Only enabled declarations become build targets. Disabled declarations
// are carried through unchanged so that re-enabling a module is a data
// change, never a code change. Ancestors of an included path are created
// as implicit container nodes, the way Gradle does.
package composer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Declaration is a single include statement.
type Declaration struct {
	Path    string `json:"path" yaml:"path"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Raw     string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// Rename overrides the display name of a project.
type Rename struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	Line int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// ProjectNode is one project in the resolved tree.
type ProjectNode struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Enabled     bool   `json:"enabled"`
	Implicit    bool   `json:"implicit,omitempty"`
	Dir         string `json:"dir"`
	Line        int    `json:"line,omitempty"`

	children []string
}

// Name returns the display name, falling back to the leaf segment.
func (n *ProjectNode) Name() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return LeafName(n.Path)
}

// Tree is the outcome of a resolution. It is never modified after Resolve
// returns.
type Tree struct {
	RootName         string        `json:"root_name"`
	Disabled         []Declaration `json:"disabled,omitempty"`
	UnmatchedRenames []Rename      `json:"unmatched_renames,omitempty"`

	root    *ProjectNode
	nodes   []*ProjectNode
	targets []string
	byPath  map[string]*ProjectNode
}

// Resolve builds the project tree for rootName from decls and renames.
func Resolve(rootName string, decls []Declaration, renames []Rename) (*Tree, error) {
	t := &Tree{
		RootName: rootName,
		root:     &ProjectNode{DisplayName: rootName, Enabled: true},
		byPath:   make(map[string]*ProjectNode),
	}
	firstLine := make(map[string]int)

	for _, d := range decls {
		p, err := NormalizePath(d.Path)
		if !d.Enabled {
			// commented-out lines never fail resolution; a malformed one
			// keeps its path as written
			disabled := d
			if err == nil {
				disabled.Path = p
			} else {
				disabled.Path = strings.TrimSpace(d.Path)
			}
			t.Disabled = append(t.Disabled, disabled)
			continue
		}
		if err != nil {
			if d.Line > 0 {
				return nil, fmt.Errorf("line %d: %w", d.Line, err)
			}
			return nil, err
		}
		if line, seen := firstLine[p]; seen {
			return nil, &DuplicatePathError{Path: p, FirstLine: line, Line: d.Line}
		}
		firstLine[p] = d.Line
		t.targets = append(t.targets, p)

		for _, anc := range ancestors(p) {
			if _, ok := t.byPath[anc]; !ok {
				t.add(&ProjectNode{Path: anc, Implicit: true, Dir: ProjectDir(anc)})
			}
		}
		if existing, ok := t.byPath[p]; ok {
			// promote an implicit container to a target
			existing.Implicit = false
			existing.Enabled = true
			existing.Line = d.Line
			continue
		}
		t.add(&ProjectNode{Path: p, Enabled: true, Dir: ProjectDir(p), Line: d.Line})
	}

	for _, r := range renames {
		p, err := NormalizePath(r.Path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(r.Name)
		if name == "" || strings.ContainsAny(name, ":/") {
			return nil, &InvalidPathError{Path: r.Path, Reason: fmt.Sprintf("invalid display name %q", r.Name)}
		}
		node, ok := t.byPath[p]
		if !ok {
			unmatched := r
			unmatched.Path = p
			t.UnmatchedRenames = append(t.UnmatchedRenames, unmatched)
			continue
		}
		node.DisplayName = name
	}

	return t, nil
}

func (t *Tree) add(n *ProjectNode) {
	t.nodes = append(t.nodes, n)
	t.byPath[n.Path] = n
	parent := ParentPath(n.Path)
	if parent == "" {
		t.root.children = append(t.root.children, n.Path)
		return
	}
	t.byPath[parent].children = append(t.byPath[parent].children, n.Path)
}

// Root returns the root project node. Its path is empty.
func (t *Tree) Root() *ProjectNode {
	return t.root
}

// Nodes returns every node, implicit containers included, in creation order.
func (t *Tree) Nodes() []*ProjectNode {
	out := make([]*ProjectNode, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Targets returns the enabled, explicitly declared projects in declaration order.
func (t *Tree) Targets() []*ProjectNode {
	out := make([]*ProjectNode, 0, len(t.targets))
	for _, p := range t.targets {
		out = append(out, t.byPath[p])
	}
	return out
}

// EnabledPaths returns the canonical paths of all build targets.
func (t *Tree) EnabledPaths() []string {
	targets := t.Targets()
	out := make([]string, 0, len(targets))
	for _, n := range targets {
		out = append(out, n.Path)
	}
	return out
}

// Lookup finds a node by path in any accepted notation.
func (t *Tree) Lookup(p string) (*ProjectNode, bool) {
	canonical, err := NormalizePath(p)
	if err != nil {
		return nil, false
	}
	n, ok := t.byPath[canonical]
	return n, ok
}

// Children returns the direct children of p. An empty p means the root.
func (t *Tree) Children(p string) []*ProjectNode {
	parent := t.root
	if p != "" {
		n, ok := t.Lookup(p)
		if !ok {
			return nil
		}
		parent = n
	}
	out := make([]*ProjectNode, 0, len(parent.children))
	for _, c := range parent.children {
		out = append(out, t.byPath[c])
	}
	return out
}

// Walk visits every node depth-first, siblings in declaration order. The
// root is not visited. A non-nil error from fn stops the walk.
func (t *Tree) Walk(fn func(n *ProjectNode, depth int) error) error {
	var visit func(paths []string, depth int) error
	visit = func(paths []string, depth int) error {
		for _, p := range paths {
			n := t.byPath[p]
			if err := fn(n, depth); err != nil {
				return err
			}
			if err := visit(n.children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.root.children, 0)
}

// OwnerOf returns the deepest project whose directory contains relFile.
// Files outside every project directory belong to the root project.
func (t *Tree) OwnerOf(relFile string) *ProjectNode {
	file := strings.TrimPrefix(path.Clean(strings.ReplaceAll(relFile, "\\", "/")), "./")
	best := t.root
	bestLen := -1
	for _, n := range t.nodes {
		if file != n.Dir && !strings.HasPrefix(file, n.Dir+"/") {
			continue
		}
		if len(n.Dir) > bestLen {
			best = n
			bestLen = len(n.Dir)
		}
	}
	return best
}

// Fingerprint returns a stable digest of the resolved tree. Resolving the
// same declarations twice yields the same fingerprint.
func (t *Tree) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "root=%s\n", t.RootName)
	for _, n := range t.nodes {
		fmt.Fprintf(&b, "node=%s|%s|%t\n", n.Path, n.Name(), n.Implicit)
	}
	for _, d := range t.Disabled {
		fmt.Fprintf(&b, "disabled=%s\n", d.Path)
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Toggle returns a copy of decls with the declaration for p switched to
// the requested state. Enabling flips the first matching declaration when
// none is enabled yet; disabling flips every enabled match.
func Toggle(decls []Declaration, p string, enabled bool) ([]Declaration, error) {
	canonical, err := NormalizePath(p)
	if err != nil {
		return nil, err
	}
	out := make([]Declaration, len(decls))
	copy(out, decls)

	var matches []int
	alreadyEnabled := false
	for i, d := range out {
		dp, err := NormalizePath(d.Path)
		if err != nil || dp != canonical {
			continue
		}
		matches = append(matches, i)
		if d.Enabled {
			alreadyEnabled = true
		}
	}
	if len(matches) == 0 {
		return nil, &UnknownPathError{Path: canonical}
	}

	if enabled {
		if !alreadyEnabled {
			out[matches[0]].Enabled = true
		}
		return out, nil
	}
	for _, i := range matches {
		out[i].Enabled = false
	}
	return out, nil
}

// Diff compares two sets of target paths.
func Diff(before, after []string) (added, removed []string) {
	prev := make(map[string]bool, len(before))
	for _, p := range before {
		prev[p] = true
	}
	next := make(map[string]bool, len(after))
	for _, p := range after {
		next[p] = true
		if !prev[p] {
			added = append(added, p)
		}
	}
	for _, p := range before {
		if !next[p] {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
