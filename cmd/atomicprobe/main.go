// Package main implements the atomicprobe CLI tool.
//
// atomicprobe reports how the atomiclanes library behaves on the current
// host: which lane each kind of value lands on, whether the lock-free
// paths hold up under contention, and which configuration is in effect.
//
// Usage:
//
//	atomicprobe lanes           # Lane selection for common types
//	atomicprobe stress -n 50000 # Run the concurrency self-checks
//	atomicprobe env             # Host, toolchain and ATOMICLANES settings
//
// lanes and stress accept -json for machine-readable output.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sugawarayuuta/sonnet"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "lanes":
		return lanesCommand(args[1:], stdout, stderr)
	case "stress":
		return stressCommand(args[1:], stdout, stderr)
	case "env":
		return envCommand(args[1:], stdout, stderr)
	case "version", "--version", "-v":
		return versionCommand(stdout)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

// writeJSON encodes v on its own line.
func writeJSON(w io.Writer, v any) error {
	data, err := sonnet.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `atomicprobe - atomiclanes diagnostics

USAGE:
    atomicprobe <command> [arguments]

COMMANDS:
    lanes      Show the lane chosen for common value types
    stress     Run concurrency self-checks against every lane
    env        Show host capabilities, toolchain and ATOMICLANES settings
    version    Show version information
    help       Show this help message

EXAMPLES:
    # Lane table as JSON
    atomicprobe lanes -json

    # Heavier stress run on the locked lane only
    ATOMICLANES="force_locked=1" atomicprobe stress -n 200000

ENVIRONMENT:
    ATOMICLANES    space-separated key=value options, e.g.
                   "spin=128 lock_slots=4096 on_violation=panic"

`)
}
