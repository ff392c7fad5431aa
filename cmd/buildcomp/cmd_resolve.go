package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/buildcomp/internal/composer"
)

type resolveOutput struct {
	Root        string                  `json:"root"`
	RootName    string                  `json:"root_name"`
	Fingerprint string                  `json:"fingerprint"`
	Targets     []*composer.ProjectNode `json:"targets"`
	Nodes       []*composer.ProjectNode `json:"nodes"`
	Disabled    []composer.Declaration  `json:"disabled,omitempty"`
	Unmatched   []composer.Rename       `json:"unmatched_renames,omitempty"`
	Recorded    int64                   `json:"recorded_id,omitempty"`
}

// handleResolve implements the resolve subcommand
func handleResolve(env *runEnv, args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	var jsonOutput, record, showDisabled bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.BoolVar(&record, "record", false, "Record the resolution in the history database")
	fs.BoolVar(&showDisabled, "disabled", false, "Also list disabled declarations")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp resolve [options]

DESCRIPTION:
    Resolve the enabled project tree from the settings script.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Show the project tree
    buildcomp resolve

    # Record it for 'buildcomp history -diff'
    buildcomp resolve -record

    # JSON output with disabled declarations
    buildcomp resolve -json -disabled
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	ws := env.loadWorkspace(context.Background())
	tree := ws.Tree

	out := resolveOutput{
		Root:        ws.Root,
		RootName:    tree.RootName,
		Fingerprint: tree.Fingerprint(),
		Targets:     tree.Targets(),
		Nodes:       tree.Nodes(),
		Unmatched:   tree.UnmatchedRenames,
	}
	if showDisabled {
		out.Disabled = tree.Disabled
	}

	if record {
		res, err := recordResolution(env, ws.Root, tree)
		if err != nil {
			log.Fatalf("Failed to record resolution: %v", err)
		}
		out.Recorded = res.ID
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("%s (%s)\n", tree.RootName, ws.Root)
	_ = tree.Walk(func(n *composer.ProjectNode, depth int) error {
		indent := strings.Repeat("  ", depth+1)
		switch {
		case n.Implicit:
			fmt.Printf("%s%s/\n", indent, composer.LeafName(n.Path))
		case n.Name() != composer.LeafName(n.Path):
			fmt.Printf("%s%s  [%s] (line %d)\n", indent, n.Path, n.Name(), n.Line)
		default:
			fmt.Printf("%s%s (line %d)\n", indent, n.Path, n.Line)
		}
		return nil
	})
	fmt.Println()
	fmt.Printf("Targets:     %d\n", len(out.Targets))
	fmt.Printf("Disabled:    %d\n", len(tree.Disabled))
	fmt.Printf("Fingerprint: %s\n", out.Fingerprint)
	for _, r := range tree.UnmatchedRenames {
		fmt.Printf("Note: rename of %s to %q has no effect (line %d)\n", r.Path, r.Name, r.Line)
	}
	if showDisabled && len(tree.Disabled) > 0 {
		fmt.Println()
		fmt.Println("Disabled declarations:")
		for _, d := range tree.Disabled {
			fmt.Printf("  %-50s line %d\n", d.Path, d.Line)
		}
	}
	if record {
		fmt.Printf("Recorded resolution #%d\n", out.Recorded)
	}
}
