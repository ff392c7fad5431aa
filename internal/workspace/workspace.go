// Package workspace loads a build tree into the single configuration object
// every command works from: the parsed declarations, the resolved project
// tree, the effective repositories and the formatter rule engine.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/config"
	"github.com/DreamCats/buildcomp/internal/formatter"
	"github.com/DreamCats/buildcomp/internal/gradle"
	"github.com/DreamCats/buildcomp/internal/repository"
	"github.com/DreamCats/buildcomp/internal/runlog"
)

// Options controls Load.
type Options struct {
	// LookupEnv resolves repository override variables. Defaults to
	// os.LookupEnv.
	LookupEnv repository.LookupFunc
	Logger    *runlog.Logger
}

// Workspace is a loaded build tree. It is built once per run and only read
// afterwards.
type Workspace struct {
	Root         string
	Config       *config.Config
	SettingsPath string
	Settings     *gradle.Settings
	// Build is the root build script; nil when the root has none.
	Build *gradle.BuildScript
	Tree  *composer.Tree

	PluginRepositories []repository.Resolved
	// Repositories are the repositories every project resolves against:
	// dependencyResolutionManagement, allprojects and the root build script,
	// in that order.
	Repositories []repository.Resolved
	Warnings     []*repository.UnresolvedEnvOverrideError

	Rules       []formatter.Rule
	RulesSource string
	Engine      *formatter.Engine

	builds map[string]*gradle.BuildScript
	lookup repository.LookupFunc
}

// Load reads the settings script under root, resolves the project tree and
// parses the build script of every enabled project.
func Load(ctx context.Context, cfg *config.Config, root string, opts Options) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	ws := &Workspace{
		Root:         absRoot,
		Config:       cfg,
		SettingsPath: filepath.Join(absRoot, cfg.Workspace.SettingsFile),
		builds:       make(map[string]*gradle.BuildScript),
		lookup:       lookup,
	}

	ws.Settings, err = gradle.ParseSettingsFile(ws.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	rootName := ws.Settings.RootName
	if rootName == "" {
		rootName = filepath.Base(absRoot)
	}
	ws.Tree, err = composer.Resolve(rootName, ws.Settings.Includes, ws.Settings.Renames)
	if err != nil {
		return nil, fmt.Errorf("resolve projects: %w", err)
	}

	ws.Build, err = parseBuildIfExists(filepath.Join(absRoot, cfg.Workspace.BuildFile))
	if err != nil {
		return nil, err
	}

	for _, n := range ws.Tree.Targets() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := parseBuildIfExists(filepath.Join(absRoot, filepath.FromSlash(n.Dir), cfg.Workspace.BuildFile))
		if err != nil {
			return nil, err
		}
		if b != nil {
			ws.builds[n.Path] = b
		}
	}

	ws.PluginRepositories = ws.resolve(ws.Settings.PluginRepositories)
	blocks := [][]repository.Source{ws.Settings.Repositories}
	if ws.Build != nil {
		if ws.Build.AllProjects != nil {
			blocks = append(blocks, ws.Build.AllProjects.Repositories)
		}
		blocks = append(blocks, ws.Build.Repositories)
	}
	ws.Repositories = ws.resolve(blocks...)

	if err := ws.loadRules(); err != nil {
		return nil, err
	}

	for _, w := range ws.Warnings {
		opts.Logger.Warn("Repository override not set", map[string]interface{}{
			"var":      w.Var,
			"fallback": w.Fallback,
		})
	}
	opts.Logger.Info("Workspace loaded", map[string]interface{}{
		"root":          absRoot,
		"targets":       len(ws.Tree.Targets()),
		"disabled":      len(ws.Tree.Disabled),
		"build_scripts": len(ws.builds),
		"rules":         len(ws.Rules),
		"rules_source":  ws.RulesSource,
	})

	return ws, nil
}

func parseBuildIfExists(path string) (*gradle.BuildScript, error) {
	b, err := gradle.ParseBuildScriptFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read build script: %w", err)
	}
	return b, nil
}

// resolve resolves each block on its own and concatenates the results, so
// priorities never interleave across blocks. Warnings are collected once
// per variable.
func (ws *Workspace) resolve(blocks ...[]repository.Source) []repository.Resolved {
	var out []repository.Resolved
	for _, block := range blocks {
		resolved, warnings := repository.Resolve(block, ws.lookup)
		out = append(out, resolved...)
		for _, w := range warnings {
			if !ws.hasWarning(w.Var) {
				ws.Warnings = append(ws.Warnings, w)
			}
		}
	}
	return out
}

func (ws *Workspace) hasWarning(name string) bool {
	for _, w := range ws.Warnings {
		if w.Var == name {
			return true
		}
	}
	return false
}

func (ws *Workspace) loadRules() error {
	switch {
	case ws.Config.Formatter.RulesFile != "":
		path := ws.Config.Formatter.RulesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(ws.Root, path)
		}
		rules, err := formatter.LoadRules(path)
		if err != nil {
			return err
		}
		ws.Rules = rules
		ws.RulesSource = path
	case ws.Build != nil:
		ws.Rules = ws.Build.Formatters
		ws.RulesSource = filepath.Join(ws.Root, ws.Config.Workspace.BuildFile)
	}

	engine, err := formatter.NewEngine(ws.Rules)
	if err != nil {
		return fmt.Errorf("formatter rules from %s: %w", ws.RulesSource, err)
	}
	ws.Engine = engine
	return nil
}

// BuildOf returns the build script of an enabled project.
func (ws *Workspace) BuildOf(path string) (*gradle.BuildScript, bool) {
	canonical, err := composer.NormalizePath(path)
	if err != nil {
		return nil, false
	}
	b, ok := ws.builds[canonical]
	return b, ok
}

// ProjectRepositories returns the repositories a project resolves against:
// the shared ones followed by those its own build script declares. The
// warnings are those of the project's own repositories; shared ones are in
// ws.Warnings.
func (ws *Workspace) ProjectRepositories(path string) ([]repository.Resolved, []*repository.UnresolvedEnvOverrideError, error) {
	node, ok := ws.Tree.Lookup(path)
	if !ok || node.Implicit {
		return nil, nil, &composer.UnknownPathError{Path: path}
	}
	out := append([]repository.Resolved(nil), ws.Repositories...)
	b, ok := ws.BuildOf(node.Path)
	if !ok {
		return out, nil, nil
	}
	resolved, warnings := repository.Resolve(b.Repositories, ws.lookup)
	return append(out, resolved...), warnings, nil
}

// PlanOptions returns formatter plan options for this workspace: configured
// exclusions and files attributed to their owning project.
func (ws *Workspace) PlanOptions() formatter.PlanOptions {
	return formatter.PlanOptions{
		ExcludeDirs:  ws.Config.Formatter.ExcludeDirs,
		UseGitignore: ws.Config.GitignoreEnabled(),
		Owner: func(rel string) string {
			return ws.Tree.OwnerOf(rel).Path
		},
	}
}

// RelPath converts a path given on the command line into a slash-separated
// path relative to the root. Paths outside the root are returned as given.
func (ws *Workspace) RelPath(p string) string {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(ws.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}
