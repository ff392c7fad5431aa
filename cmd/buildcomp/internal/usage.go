package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.3.0"

// PrintUsage 向 stderr 输出 buildcomp 的用法与可用子命令列表。
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `buildcomp - Project composition and formatter rules for Gradle build trees

Version: %s

USAGE:
    buildcomp [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.buildcomp/config/buildcomp.yaml)

    -root <path>
        Build tree root (default: nearest directory with settings.gradle.kts)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    init
        Write the default config file

    resolve
        Resolve the enabled project tree

    repos
        Show plugin and project repositories after environment overrides

    match
        Show which formatter rule applies to files

    rules
        List the formatter rules in evaluation order

    plan
        Assign every file under the root its formatter rule

    toggle
        Enable or disable a project include in the settings script

    search
        Search enabled and disabled project declarations

    history
        List recorded resolutions, or diff the current tree against the last one

EXAMPLES:
    # Resolve and record the project tree
    buildcomp resolve -record

    # Resolve another tree as JSON
    buildcomp -root /path/to/tree resolve -json

    # Which rule formats this file?
    buildcomp match codespace/chart/values.yaml -explain

    # Find a disabled module and enable it
    buildcomp search parquet -status disabled
    buildcomp toggle -enable flink:gaia3:parquet-partition

    # What changed since the last recorded resolution?
    buildcomp history -diff

For detailed help on each command, use:
    buildcomp <command> -help
`, Version)
}

// StringList is a flag.Value that collects multiple strings
type StringList []string

// String 返回 StringList 的逗号连接形式。
func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

// Set 将单个字符串追加到 StringList，允许多次传入同一 flag。
func (s *StringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
