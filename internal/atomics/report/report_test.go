package report

import (
	"bytes"
	"strings"
	"testing"
)

// TestFatal_Handler verifies an installed handler receives the violation
// instead of the default abort.
func TestFatal_Handler(t *testing.T) {
	var got *Violation
	restore := SetHandler(func(v *Violation) { got = v })
	defer restore()

	Fatal("store", "acquire", "store accepts only relaxed, release, seq_cst")

	if got == nil {
		t.Fatal("handler was not called")
	}
	if got.Op != "store" || got.Order != "acquire" {
		t.Errorf("violation = %+v, want op=store order=acquire", got)
	}
	if len(got.Stack) == 0 {
		t.Error("violation has no stack")
	}
}

// TestFatal_Abort verifies the default handler writes the report and exits
// with status 2.
func TestFatal_Abort(t *testing.T) {
	var buf bytes.Buffer
	restoreOut := SetOutput(&buf)
	defer restoreOut()

	code := -1
	prevExit := exit
	exit = func(c int) { code = c }
	defer func() { exit = prevExit }()

	SetAction(ActionAbort)
	Fatal("load", "release", "load accepts only relaxed, consume, acquire, seq_cst")

	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	out := buf.String()
	for _, want := range []string{"ATOMIC CONTRACT VIOLATION", "Operation: load", "Order:     release"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

// TestFatal_Panic verifies ActionPanic panics with the *Violation.
func TestFatal_Panic(t *testing.T) {
	var buf bytes.Buffer
	restoreOut := SetOutput(&buf)
	defer restoreOut()

	SetAction(ActionPanic)
	defer SetAction(ActionAbort)

	defer func() {
		r := recover()
		v, ok := r.(*Violation)
		if !ok {
			t.Fatalf("recovered %T, want *Violation", r)
		}
		if !strings.Contains(v.Error(), "compare_exchange") {
			t.Errorf("Error() = %q", v.Error())
		}
	}()
	Fatal("compare_exchange", "Order(9)", "bad order")
	t.Fatal("Fatal returned under ActionPanic")
}

// TestFormatStack_Empty verifies the placeholder for a missing stack.
func TestFormatStack_Empty(t *testing.T) {
	if got := FormatStack(nil); !strings.Contains(got, "no stack trace") {
		t.Errorf("FormatStack(nil) = %q", got)
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		a    Action
		want string
	}{
		{ActionAbort, "abort"},
		{ActionPanic, "panic"},
		{Action(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.a.String(); got != tt.want {
			t.Errorf("Action(%d).String() = %q, want %q", tt.a, got, tt.want)
		}
	}
}
