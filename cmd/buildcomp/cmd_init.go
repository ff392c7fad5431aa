package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/buildcomp/cmd/buildcomp/internal"
	"github.com/DreamCats/buildcomp/internal/config"
)

// handleInit implements the init subcommand
func handleInit(configPath string, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var printOnly bool
	fs.BoolVar(&printOnly, "print", false, "Print an example config instead of writing one")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    buildcomp [-config <path>] init [options]

DESCRIPTION:
    Write the default config file. An existing file is left untouched.

OPTIONS:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if printOnly {
		internal.PrintConfigExample()
		return
	}

	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			log.Fatalf("Failed to determine config path: %v", err)
		}
	}

	created, err := config.WriteDefaultTemplate(path)
	if err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	if created {
		fmt.Printf("Created default config at %s\n", path)
	} else {
		fmt.Printf("Config already exists at %s\n", path)
	}
}
