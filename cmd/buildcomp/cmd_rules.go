package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/buildcomp/internal/formatter"
)

// handleRules implements the rules subcommand
func handleRules(env *runEnv, args []string) {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	var jsonOutput, yamlOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.BoolVar(&yamlOutput, "yaml", false, "Output in rules file layout (usable as formatter.rules_file)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp rules [options]

DESCRIPTION:
    List the formatter rules in evaluation order. Rules come from
    formatter.rules_file when configured, otherwise from the spotless
    block of the root build script.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    buildcomp rules
    buildcomp rules -yaml > rules.yaml
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	ws := env.loadWorkspace(context.Background())
	rules := ws.Rules
	if rules == nil {
		rules = []formatter.Rule{}
	}

	switch {
	case yamlOutput:
		data, err := formatter.MarshalRules(rules)
		if err != nil {
			log.Fatalf("Failed to encode rules: %v", err)
		}
		os.Stdout.Write(data)
		return
	case jsonOutput:
		jsonData, _ := json.MarshalIndent(rules, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(rules) == 0 {
		fmt.Println("No formatter rules configured.")
		return
	}
	fmt.Printf("Rules from %s:\n\n", ws.RelPath(ws.RulesSource))
	for i, r := range rules {
		fmt.Printf("%d. %s\n", i+1, r.Name)
		fmt.Printf("   target:  %s\n", r.FileGlob)
		if len(r.ExcludeGlobs) > 0 {
			fmt.Printf("   exclude: %s\n", strings.Join(r.ExcludeGlobs, ", "))
		}
		fmt.Printf("   tool:    %s\n", r.Invocation())
	}
}
