package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/buildcomp/cmd/buildcomp/internal"
	"github.com/DreamCats/buildcomp/internal/config"
	"github.com/DreamCats/buildcomp/internal/runlog"
	"github.com/DreamCats/buildcomp/internal/workspace"
)

// runEnv is what every subcommand receives.
type runEnv struct {
	cfg    *config.Config
	root   string
	logger *runlog.Logger
}

// loadWorkspace loads the build tree or exits.
func (e *runEnv) loadWorkspace(ctx context.Context) *workspace.Workspace {
	ws, err := workspace.Load(ctx, e.cfg, e.root, workspace.Options{Logger: e.logger})
	if err != nil {
		log.Fatalf("Failed to load workspace: %v", err)
	}
	for _, w := range ws.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
	}
	return ws
}

// main 启动 buildcomp 命令行工具，解析全局参数并执行对应子命令。
// 若参数无效或缺少子命令则打印用法并退出。
func main() {
	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}

	configPath := ""
	rootPath := ""
	args := os.Args[1:]

	validSubcommands := map[string]bool{
		"init":    true,
		"resolve": true,
		"repos":   true,
		"match":   true,
		"rules":   true,
		"plan":    true,
		"toggle":  true,
		"search":  true,
		"history": true,
	}

	subcommandIndex := -1
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && validSubcommands[arg] {
			subcommandIndex = i
			break
		}
	}

	globalFlags := args
	if subcommandIndex >= 0 {
		globalFlags = args[:subcommandIndex]
	}
	for i := 0; i < len(globalFlags); i++ {
		flag := globalFlags[i]
		switch {
		case flag == "-config" || flag == "--config":
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++
			}
		case flag == "-root" || flag == "--root":
			if i+1 < len(globalFlags) {
				rootPath = globalFlags[i+1]
				i++
			}
		case flag == "-h" || flag == "-help" || flag == "--help":
			internal.PrintUsage()
			os.Exit(0)
		case flag == "-v" || flag == "-version" || flag == "--version":
			fmt.Printf("buildcomp version %s\n", internal.Version)
			os.Exit(0)
		case strings.HasPrefix(flag, "-"):
			fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
			internal.PrintUsage()
			os.Exit(1)
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(1)
	}
	subcommand := args[subcommandIndex]
	subcommandArgs := args[subcommandIndex+1:]

	if subcommand == "init" {
		handleInit(configPath, subcommandArgs)
		return
	}

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if config.IsConfigNotFound(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			internal.PrintConfigExample()
			os.Exit(1)
		}
		log.Fatalf("Failed to load config: %v\n", err)
	}

	root, err := internal.ResolveRoot(rootPath, cfg.Workspace.SettingsFile)
	if err != nil {
		log.Fatalf("Failed to resolve build root: %v\n", err)
	}

	env := &runEnv{cfg: cfg, root: root}
	logger, err := internal.SetupLogging(subcommand, root, "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize log file: %v\n", err)
	} else {
		env.logger = logger
		defer logger.Close()
	}

	switch subcommand {
	case "resolve":
		handleResolve(env, subcommandArgs)
	case "repos":
		handleRepos(env, subcommandArgs)
	case "match":
		handleMatch(env, subcommandArgs)
	case "rules":
		handleRules(env, subcommandArgs)
	case "plan":
		handlePlan(env, subcommandArgs)
	case "toggle":
		handleToggle(env, subcommandArgs)
	case "search":
		handleSearch(env, subcommandArgs)
	case "history":
		handleHistory(env, subcommandArgs)
	}
}
