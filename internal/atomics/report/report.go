// Package report formats and delivers contract-violation reports.
//
// A contract violation is a programming error detected by the atomics layer,
// such as passing an acquire order to a store. Violations are never returned
// as errors: the report is written to the configured output (os.Stderr by
// default) and the process is terminated, mirroring the Go runtime's
// "fatal error" behavior for misuse of sync primitives.
//
// The report format follows the race report layout:
//
//	==================
//	FATAL: ATOMIC CONTRACT VIOLATION
//	Operation: store
//	Order:     acquire
//	Reason:    store accepts only relaxed, release, seq_cst
//
//	Call site:
//	  main.publish()
//	      /path/to/main.go:42
//	==================
//
// Tests intercept violations with SetHandler.
package report

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Action selects what happens after a violation report is written.
type Action int

const (
	// ActionAbort writes the report and exits the process with status 2.
	ActionAbort Action = iota
	// ActionPanic writes the report and panics with the *Violation.
	// Intended for harnesses that must observe the failure in-process.
	ActionPanic
)

// String returns the option spelling of the action ("abort" or "panic").
func (a Action) String() string {
	switch a {
	case ActionAbort:
		return "abort"
	case ActionPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// maxStackDepth is the maximum number of stack frames captured per report.
const maxStackDepth = 32

// Violation describes one contract violation.
type Violation struct {
	// Op is the operation category that rejected the order
	// ("store", "load", "compare_exchange", ...).
	Op string

	// Order is the rejected memory order, as spelled in reports.
	Order string

	// Reason explains which orders the operation accepts.
	Reason string

	// Stack holds the program counters of the offending call site.
	Stack []uintptr
}

// Error implements the error interface so a recovered ActionPanic value
// prints meaningfully.
func (v *Violation) Error() string {
	return fmt.Sprintf("atomic contract violation: %s with order %s: %s", v.Op, v.Order, v.Reason)
}

// Handler receives a fully populated violation.
type Handler func(v *Violation)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	action            = ActionAbort
	handler Handler
	exit    = os.Exit
)

// SetOutput redirects reports to w and returns a function restoring the
// previous writer.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := out
	out = w
	mu.Unlock()
	return func() {
		mu.Lock()
		out = prev
		mu.Unlock()
	}
}

// SetAction selects the post-report action.
func SetAction(a Action) {
	mu.Lock()
	action = a
	mu.Unlock()
}

// CurrentAction returns the configured post-report action.
func CurrentAction() Action {
	mu.Lock()
	defer mu.Unlock()
	return action
}

// SetHandler installs h in place of the default write-then-abort behavior
// and returns a function restoring the previous handler. A nil h restores
// the default behavior.
//
// The handler runs on the violating goroutine. When it returns, the
// violating operation is abandoned: callers in this module treat a returned
// handler as "skip the operation", which is only meaningful in tests.
func SetHandler(h Handler) (restore func()) {
	mu.Lock()
	prev := handler
	handler = h
	mu.Unlock()
	return func() {
		mu.Lock()
		handler = prev
		mu.Unlock()
	}
}

// Fatal reports a violation for op with the given order spelling and reason.
//
// With the default handler Fatal does not return.
func Fatal(op, order, reason string) {
	v := &Violation{
		Op:     op,
		Order:  order,
		Reason: reason,
		// Skip runtime.Callers, captureStack, Fatal and the validator.
		Stack: captureStack(4),
	}

	mu.Lock()
	h, w, a := handler, out, action
	mu.Unlock()

	if h != nil {
		h(v)
		return
	}

	Write(w, v)
	switch a {
	case ActionPanic:
		panic(v)
	default:
		exit(2)
	}
}

// Write formats v onto w.
func Write(w io.Writer, v *Violation) {
	var buf strings.Builder
	buf.WriteString("==================\n")
	buf.WriteString("FATAL: ATOMIC CONTRACT VIOLATION\n")
	fmt.Fprintf(&buf, "Operation: %s\n", v.Op)
	fmt.Fprintf(&buf, "Order:     %s\n", v.Order)
	fmt.Fprintf(&buf, "Reason:    %s\n", v.Reason)
	buf.WriteString("\nCall site:\n")
	buf.WriteString(FormatStack(v.Stack))
	buf.WriteString("==================\n")
	_, _ = io.WriteString(w, buf.String())
}

// captureStack returns the program counters of the current goroutine,
// skipping the given number of frames.
func captureStack(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	return pcs[:n]
}

// FormatStack renders program counters as "function()\n    file:line\n"
// pairs, dropping runtime frames and frames inside this module's internal
// packages so the first line is the caller that passed the bad order.
func FormatStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return "  (no stack trace available)\n"
	}

	frames := runtime.CallersFrames(pcs)
	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if !isInternalFrame(frame.Function) {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  (all frames filtered)\n"
	}
	return buf.String()
}

func isInternalFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") ||
		strings.Contains(fn, "/internal/atomics/")
}
