package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/formatter"
)

// handlePlan implements the plan subcommand
func handlePlan(env *runEnv, args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var jsonOutput, unmatched, noProgress bool
	var project string
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.BoolVar(&unmatched, "unmatched", false, "List only files no rule applies to")
	fs.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	fs.StringVar(&project, "project", "", "Only files owned by this project")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp plan [options]

DESCRIPTION:
    Walk the build tree and assign every file the formatter rule that
    would format it. Directories from formatter.exclude_dirs and, unless
    disabled, .gitignore patterns are skipped. Nothing is formatted.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Files per rule
    buildcomp plan

    # Files nobody formats
    buildcomp plan -unmatched

    # Plan for one project as JSON
    buildcomp plan -project milvus:java -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	ctx := context.Background()
	ws := env.loadWorkspace(ctx)

	if project != "" {
		canonical, err := composer.NormalizePath(project)
		if err != nil {
			log.Fatalf("Invalid project path: %v", err)
		}
		if _, ok := ws.Tree.Lookup(canonical); !ok {
			fmt.Fprintf(os.Stderr, "Error: project %s is not in the resolved tree\n", canonical)
			os.Exit(1)
		}
		project = canonical
	}

	opts := ws.PlanOptions()
	opts.Logger = env.logger
	if !noProgress && !jsonOutput {
		opts.Progress = formatter.NewPlanProgress(formatter.DefaultProgressEnabled())
	}

	plan, err := formatter.BuildPlan(ctx, ws.Root, ws.Engine, opts)
	if err != nil {
		log.Fatalf("Failed to build plan: %v", err)
	}

	selected := plan.Assignments[:0:0]
	for _, a := range plan.Assignments {
		if project != "" && a.Project != project {
			continue
		}
		if unmatched && a.Rule != "" {
			continue
		}
		selected = append(selected, a)
	}
	plan.Assignments = selected

	if jsonOutput {
		if plan.Assignments == nil {
			plan.Assignments = []formatter.Assignment{}
		}
		jsonData, _ := json.MarshalIndent(plan, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if unmatched {
		for _, a := range plan.Assignments {
			fmt.Println(a.Path)
		}
		fmt.Printf("\n%d file(s) without a formatter rule\n", len(plan.Assignments))
		return
	}

	counts := plan.CountByRule()
	fmt.Printf("%-20s %8s  %s\n", "RULE", "FILES", "TOOL")
	for _, r := range ws.Engine.Rules() {
		fmt.Printf("%-20s %8d  %s\n", r.Name, counts[r.Name], r.Invocation())
	}
	fmt.Printf("%-20s %8d\n", "(none)", counts[""])

	byProject := make(map[string]int)
	for _, a := range plan.Matched() {
		byProject[a.Project]++
	}
	if len(byProject) > 1 {
		names := make([]string, 0, len(byProject))
		for p := range byProject {
			names = append(names, p)
		}
		sort.Strings(names)
		fmt.Println()
		fmt.Println("Formatted files per project:")
		for _, p := range names {
			label := p
			if label == "" {
				label = ws.Tree.RootName + " (root)"
			}
			fmt.Printf("  %-40s %d\n", label, byProject[p])
		}
	}
}
