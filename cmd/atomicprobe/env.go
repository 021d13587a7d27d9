// env.go implements the 'atomicprobe env' and 'atomicprobe version' commands.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/kolkov/atomiclanes/atomic"
	"github.com/kolkov/atomiclanes/internal/atomics/config"
)

// goSemver converts a Go release string ("go1.24", "go1.24.3") to semver
// form. Development and release-candidate toolchains return "".
func goSemver(v string) string {
	if !strings.HasPrefix(v, "go") {
		return ""
	}
	sv := "v" + strings.TrimPrefix(v, "go")
	if !semver.IsValid(sv) {
		return ""
	}
	return semver.Canonical(sv)
}

// toolchainStatus compares the running toolchain against the minimum the
// library supports.
func toolchainStatus(running string) string {
	have := goSemver(running)
	if have == "" {
		return "unknown"
	}
	if semver.Compare(have, goSemver(atomic.MinGoVersion)) < 0 {
		return "unsupported (need " + atomic.MinGoVersion + " or newer)"
	}
	return "ok"
}

// envCommand implements 'atomicprobe env'.
func envCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("env", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	info := atomic.GetInfo()
	fmt.Fprintf(stdout, "version:      %s\n", info.Version)
	fmt.Fprintf(stdout, "go:           %s (%s)\n", runtime.Version(), toolchainStatus(runtime.Version()))
	fmt.Fprintf(stdout, "platform:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(stdout, "pointer size: %d\n", info.PointerSize)
	fmt.Fprintf(stdout, "big endian:   %v\n", info.BigEndian)
	fmt.Fprintf(stdout, "16-byte lane: %v\n", info.Wide)

	raw := os.Getenv(config.EnvVar)
	opts, err := atomic.ParseOptions(raw)
	if err != nil {
		fmt.Fprintf(stdout, "%s:  %q\n", config.EnvVar, raw)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s:  %s\n", config.EnvVar, opts)

	st := atomic.DefaultContext().LockStats()
	fmt.Fprintf(stdout, "lock slots:   %d (%d in use, %d overflow)\n", st.Slots, st.Occupied, st.Overflow)
	return 0
}

// versionCommand implements 'atomicprobe version'.
func versionCommand(stdout io.Writer) int {
	fmt.Fprintf(stdout, "atomicprobe version %s\n", semver.Canonical("v"+atomic.Version))
	return 0
}
