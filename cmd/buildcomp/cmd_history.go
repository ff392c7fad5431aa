package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/buildcomp/cmd/buildcomp/internal"
	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/store"
)

// openHistory opens the resolution history database for the current root.
func openHistory(env *runEnv) (*store.DB, *store.ResolutionStore, error) {
	path := env.cfg.History.Path
	if path == "" {
		var err error
		if path, err = internal.DefaultDBPath(env.root); err != nil {
			return nil, nil, err
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db, store.NewResolutionStore(db), nil
}

func recordResolution(env *runEnv, root string, tree *composer.Tree) (*store.Resolution, error) {
	if !env.cfg.HistoryEnabled() {
		return nil, fmt.Errorf("history is disabled in the config (history.enabled)")
	}
	db, rs, err := openHistory(env)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	res, err := rs.Record(root, tree)
	if err != nil {
		return nil, err
	}
	pruned, err := rs.Prune(root, env.cfg.History.Keep)
	if err != nil {
		return nil, err
	}
	env.logger.Info("Resolution recorded", map[string]interface{}{
		"id":          res.ID,
		"fingerprint": res.Fingerprint,
		"targets":     res.TargetCount,
		"pruned":      pruned,
		"db":          db.Path(),
	})
	return res, nil
}

type historyDiff struct {
	Since       *store.Resolution `json:"since"`
	Fingerprint string            `json:"fingerprint"`
	Unchanged   bool              `json:"unchanged"`
	Added       []string          `json:"added"`
	Removed     []string          `json:"removed"`
}

// handleHistory implements the history subcommand
func handleHistory(env *runEnv, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	var jsonOutput, diff bool
	var limit int
	var show int64
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.BoolVar(&diff, "diff", false, "Compare the current tree with the latest recorded resolution")
	fs.IntVar(&limit, "n", 10, "Number of resolutions to list (0 = all)")
	fs.Int64Var(&show, "show", 0, "List the projects of one recorded resolution")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp history [options]

DESCRIPTION:
    List resolutions recorded with 'buildcomp resolve -record'.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Latest resolutions
    buildcomp history

    # Which targets changed since the last recorded resolution?
    buildcomp history -diff

    # Projects of resolution 12
    buildcomp history -show 12
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	db, rs, err := openHistory(env)
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	defer db.Close()

	switch {
	case diff:
		historyShowDiff(env, rs, jsonOutput)
	case show > 0:
		historyShowProjects(rs, show, jsonOutput)
	default:
		historyList(env, rs, limit, jsonOutput)
	}
}

func historyList(env *runEnv, rs *store.ResolutionStore, limit int, jsonOutput bool) {
	list, err := rs.List(env.root, limit)
	if err != nil {
		log.Fatalf("Failed to list resolutions: %v", err)
	}
	if jsonOutput {
		if list == nil {
			list = []*store.Resolution{}
		}
		jsonData, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	if len(list) == 0 {
		fmt.Println("No recorded resolutions. Run 'buildcomp resolve -record' first.")
		return
	}
	fmt.Printf("%-6s %-20s %-12s %8s %9s\n", "ID", "RESOLVED", "FINGERPRINT", "TARGETS", "DISABLED")
	for _, r := range list {
		fmt.Printf("%-6d %-20s %-12s %8d %9d\n",
			r.ID, r.ResolvedAt.Local().Format("2006-01-02 15:04:05"), r.Fingerprint[:12], r.TargetCount, r.DisabledCount)
	}
}

func historyShowProjects(rs *store.ResolutionStore, id int64, jsonOutput bool) {
	projects, err := rs.Projects(id)
	if err != nil {
		log.Fatalf("Failed to read resolution %d: %v", id, err)
	}
	if len(projects) == 0 {
		fmt.Fprintf(os.Stderr, "Error: resolution %d not found or empty\n", id)
		os.Exit(1)
	}
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(projects, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	for _, p := range projects {
		kind := "target"
		if p.Implicit {
			kind = "implicit"
		}
		fmt.Printf("%-50s %-20s %s\n", p.Path, p.DisplayName, kind)
	}
}

func historyShowDiff(env *runEnv, rs *store.ResolutionStore, jsonOutput bool) {
	latest, err := rs.Latest(env.root)
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	if latest == nil {
		fmt.Fprintln(os.Stderr, "Error: no recorded resolution to compare with. Run 'buildcomp resolve -record' first.")
		os.Exit(1)
	}
	projects, err := rs.Projects(latest.ID)
	if err != nil {
		log.Fatalf("Failed to read resolution %d: %v", latest.ID, err)
	}

	ws := env.loadWorkspace(context.Background())
	out := historyDiff{Since: latest, Fingerprint: ws.Tree.Fingerprint()}
	out.Unchanged = out.Fingerprint == latest.Fingerprint
	out.Added, out.Removed = composer.Diff(store.TargetPaths(projects), ws.Tree.EnabledPaths())

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}
	fmt.Printf("Since resolution #%d (%s)\n", latest.ID, latest.ResolvedAt.Local().Format("2006-01-02 15:04:05"))
	if out.Unchanged {
		fmt.Println("No changes.")
		return
	}
	for _, p := range out.Added {
		fmt.Printf("  + %s\n", p)
	}
	for _, p := range out.Removed {
		fmt.Printf("  - %s\n", p)
	}
	if len(out.Added) == 0 && len(out.Removed) == 0 {
		fmt.Println("  Same targets; names, order or disabled declarations changed.")
	}
}
