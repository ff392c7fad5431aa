package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/repository"
)

type reposOutput struct {
	Plugin   []repository.Resolved `json:"plugin"`
	Projects []repository.Resolved `json:"projects"`
	Project  string                `json:"project,omitempty"`
	Unset    []string              `json:"unset_overrides,omitempty"`
}

// handleRepos implements the repos subcommand
func handleRepos(env *runEnv, args []string) {
	fs := flag.NewFlagSet("repos", flag.ExitOnError)
	var jsonOutput bool
	var project string
	fs.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	fs.StringVar(&project, "project", "", "Include repositories declared in this project's build script")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp repos [options]

DESCRIPTION:
    Show the repositories used for plugin and dependency resolution, in
    priority order, after environment overrides are applied.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Shared repositories
    buildcomp repos

    # Repositories seen by one project
    buildcomp repos -project milvus:java

    # Check the effect of an override
    GRADLE_PLUGIN_REPOSITORY=https://mirror.example/gradle buildcomp repos
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	ws := env.loadWorkspace(context.Background())

	out := reposOutput{Plugin: ws.PluginRepositories, Projects: ws.Repositories}
	if project != "" {
		repos, warnings, err := ws.ProjectRepositories(project)
		if err != nil {
			if composer.IsUnknownPath(err) {
				fmt.Fprintf(os.Stderr, "Error: %v (not an enabled project)\n", err)
				os.Exit(1)
			}
			log.Fatalf("Failed to resolve repositories: %v", err)
		}
		out.Project = project
		out.Projects = repos
		for _, w := range warnings {
			out.Unset = appendUnique(out.Unset, w.Var)
		}
	}
	for _, w := range ws.Warnings {
		out.Unset = appendUnique(out.Unset, w.Var)
	}

	if jsonOutput {
		if out.Plugin == nil {
			out.Plugin = []repository.Resolved{}
		}
		if out.Projects == nil {
			out.Projects = []repository.Resolved{}
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("Plugin repositories:")
	printRepos(out.Plugin)
	fmt.Println()
	if project != "" {
		fmt.Printf("Repositories for %s:\n", project)
	} else {
		fmt.Println("Project repositories:")
	}
	printRepos(out.Projects)
}

func printRepos(repos []repository.Resolved) {
	if len(repos) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, r := range repos {
		origin := string(r.Origin)
		if r.Source.EnvOverrideVar != "" {
			origin += " via " + r.Source.EnvOverrideVar
		}
		fmt.Printf("  %d. %-20s %s\n", i+1, r.Source.Name, r.URL)
		if r.Source.Line > 0 {
			fmt.Printf("     [%s, line %d]\n", origin, r.Source.Line)
		} else {
			fmt.Printf("     [%s]\n", origin)
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
