package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/buildcomp/cmd/buildcomp/internal"
	"github.com/DreamCats/buildcomp/internal/composer"
	"github.com/DreamCats/buildcomp/internal/workspace"
)

// handleToggle implements the toggle subcommand
func handleToggle(env *runEnv, args []string) {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	var enable, disable, dryRun bool
	fs.BoolVar(&enable, "enable", false, "Uncomment the include of the project")
	fs.BoolVar(&disable, "disable", false, "Comment out the include of the project")
	fs.BoolVar(&dryRun, "dry-run", false, "Show the effect without writing the settings script")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp toggle (-enable | -disable) [options] <project>

DESCRIPTION:
    Enable or disable a project by commenting its include in the settings
    script in or out. The script is only written when the result still
    resolves.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    buildcomp toggle -enable flink:gaia3:parquet-partition
    buildcomp toggle -disable milvus:java -dry-run
`)
	}

	paths, err := internal.ParseArgs(fs, args)
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if enable == disable || len(paths) != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one of -enable/-disable and one project path are required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	res, err := workspace.SetEnabled(env.cfg, env.root, paths[0], enable, dryRun)
	if err != nil {
		if composer.IsUnknownPath(err) {
			fmt.Fprintf(os.Stderr, "Error: %v (no include declares it)\n", err)
			os.Exit(1)
		}
		log.Fatalf("Failed to toggle %s: %v", paths[0], err)
	}

	state := "disabled"
	if res.Enabled {
		state = "enabled"
	}
	if !res.Changed {
		fmt.Printf("%s is already %s\n", res.Path, state)
		return
	}
	env.logger.Info("Settings updated", map[string]interface{}{
		"path":    res.Path,
		"enabled": res.Enabled,
		"dry_run": dryRun,
	})

	if dryRun {
		fmt.Printf("Would mark %s %s\n", res.Path, state)
	} else {
		fmt.Printf("%s %s\n", res.Path, state)
	}
	for _, p := range res.Added {
		fmt.Printf("  + %s\n", p)
	}
	for _, p := range res.Removed {
		fmt.Printf("  - %s\n", p)
	}
}
