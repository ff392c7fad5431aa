package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/buildcomp/cmd/buildcomp/internal"
	"github.com/DreamCats/buildcomp/internal/formatter"
)

type matchResult struct {
	File      string               `json:"file"`
	Rule      string               `json:"rule,omitempty"`
	Tool      string               `json:"tool,omitempty"`
	Command   string               `json:"command,omitempty"`
	Project   string               `json:"project,omitempty"`
	Decisions []formatter.Decision `json:"decisions,omitempty"`
}

// handleMatch implements the match subcommand
func handleMatch(env *runEnv, args []string) {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	var jsonOutput, explain bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.BoolVar(&explain, "explain", false, "Show how every rule treated the file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp match [options] <file>...

DESCRIPTION:
    Show which formatter rule applies to each file. Rules are tried in
    declaration order; a rule's excludes are checked before its target,
    and the first rule that keeps the file wins.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    buildcomp match flink/config.yaml
    buildcomp match codespace/chart/values.yaml -explain
`)
	}

	files, err := internal.ParseArgs(fs, args)
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one file is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	ws := env.loadWorkspace(context.Background())

	results := make([]matchResult, 0, len(files))
	for _, f := range files {
		rel := ws.RelPath(f)
		res := matchResult{File: rel, Project: ws.Tree.OwnerOf(rel).Path}
		if rule, ok := ws.Engine.Match(rel); ok {
			res.Rule = rule.Name
			res.Tool = rule.ToolName
			res.Command = rule.Invocation()
		}
		if explain {
			res.Decisions = ws.Engine.Explain(rel)
		}
		results = append(results, res)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	for i, res := range results {
		if i > 0 && explain {
			fmt.Println()
		}
		if res.Rule == "" {
			fmt.Printf("%s: no rule\n", res.File)
		} else {
			fmt.Printf("%s: %s (%s)\n", res.File, res.Rule, res.Command)
		}
		for _, d := range res.Decisions {
			switch {
			case d.ExcludedBy != "":
				fmt.Printf("  %-16s excluded by %s\n", d.Rule, d.ExcludedBy)
			case d.Selected:
				fmt.Printf("  %-16s selected\n", d.Rule)
			case d.Included:
				fmt.Printf("  %-16s matches, shadowed by an earlier rule\n", d.Rule)
			default:
				fmt.Printf("  %-16s target does not match\n", d.Rule)
			}
		}
	}
}
