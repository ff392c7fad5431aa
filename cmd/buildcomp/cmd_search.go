package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/buildcomp/cmd/buildcomp/internal"
	"github.com/DreamCats/buildcomp/internal/search"
)

// handleSearch implements the search subcommand
func handleSearch(env *runEnv, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var jsonOutput bool
	var limit int
	var status string
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.IntVar(&limit, "k", env.cfg.Search.DefaultLimit, "Maximum number of results")
	fs.StringVar(&status, "status", "", "Only enabled, implicit or disabled declarations")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp search [options] <query>

DESCRIPTION:
    Full-text search over project paths and names, including includes
    that are commented out in the settings script.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    buildcomp search parquet
    buildcomp search gaia -status disabled -k 5
`)
	}

	words, err := internal.ParseArgs(fs, args)
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	query := strings.TrimSpace(strings.Join(words, " "))
	if query == "" {
		fmt.Fprintf(os.Stderr, "Error: query is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	switch status {
	case "", search.StatusEnabled, search.StatusImplicit, search.StatusDisabled:
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid -status %q\n", status)
		os.Exit(1)
	}

	ws := env.loadWorkspace(context.Background())
	idx, err := search.Build(ws.Tree)
	if err != nil {
		log.Fatalf("Failed to build search index: %v", err)
	}
	defer idx.Close()

	hits, err := idx.Search(query, search.Options{Limit: limit, Status: status})
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	if jsonOutput {
		if hits == nil {
			hits = []search.Hit{}
		}
		jsonData, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if len(hits) == 0 {
		fmt.Printf("No declarations match %q\n", query)
		return
	}
	for i, h := range hits {
		fmt.Printf("%d. %s [%s] (score %.3f)\n", i+1, h.Path, h.Status, h.Score)
		if h.Line > 0 {
			fmt.Printf("   %s, line %d\n", h.Dir, h.Line)
		} else {
			fmt.Printf("   %s\n", h.Dir)
		}
	}
}
