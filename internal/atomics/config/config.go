// Package config parses the ATOMICLANES option string.
//
// The format follows GORACE: space-separated key=value pairs, for example
//
//	ATOMICLANES="spin=128 force_locked=1 on_violation=panic"
//
// Recognized options:
//
//	spin          paused spins before a spin lock yields (default 64)
//	force_locked  put every cell on the locked lane, 0 or 1 (default 0)
//	lock_slots    lock registry array size, power of two >= 16 (default 65536)
//	on_violation  abort or panic after a contract-violation report (default abort)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kolkov/atomiclanes/internal/atomics/report"
)

// EnvVar is the environment variable holding the option string.
const EnvVar = "ATOMICLANES"

// Options is the parsed configuration.
type Options struct {
	Spin        int
	ForceLocked bool
	LockSlots   int
	OnViolation report.Action
}

// Defaults returns the built-in configuration.
func Defaults() Options {
	return Options{
		Spin:        64,
		LockSlots:   1 << 16,
		OnViolation: report.ActionAbort,
	}
}

// ErrInvalid is wrapped by every validation and parse failure.
var ErrInvalid = errors.New("invalid option")

// OptionError reports a bad key=value pair.
type OptionError struct {
	Key   string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s: %v", EnvVar, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %s=%s: %v", EnvVar, e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *OptionError) Unwrap() error { return e.Err }

// Parse reads an option string on top of Defaults. Later pairs override
// earlier ones.
func Parse(s string) (Options, error) {
	opts := Defaults()
	for _, field := range strings.Fields(s) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Options{}, &OptionError{Key: field, Err: fmt.Errorf("%w: missing '='", ErrInvalid)}
		}
		if err := opts.set(key, value); err != nil {
			return Options{}, &OptionError{Key: key, Value: value, Err: err}
		}
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// FromEnv parses the EnvVar environment variable. An unset or empty
// variable yields Defaults.
func FromEnv() (Options, error) {
	return Parse(os.Getenv(EnvVar))
}

func (o *Options) set(key, value string) error {
	switch key {
	case "spin":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		o.Spin = n
	case "force_locked":
		b, err := parseFlag(value)
		if err != nil {
			return err
		}
		o.ForceLocked = b
	case "lock_slots":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		o.LockSlots = n
	case "on_violation":
		switch value {
		case "abort":
			o.OnViolation = report.ActionAbort
		case "panic":
			o.OnViolation = report.ActionPanic
		default:
			return fmt.Errorf("%w: want abort or panic", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown key", ErrInvalid)
	}
	return nil
}

func parseFlag(v string) (bool, error) {
	switch v {
	case "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	}
	return false, fmt.Errorf("%w: want 0 or 1", ErrInvalid)
}

// Validate checks ranges.
func (o Options) Validate() error {
	if o.Spin < 1 {
		return &OptionError{Key: "spin", Value: strconv.Itoa(o.Spin), Err: fmt.Errorf("%w: must be >= 1", ErrInvalid)}
	}
	if o.LockSlots < 16 || o.LockSlots&(o.LockSlots-1) != 0 {
		return &OptionError{Key: "lock_slots", Value: strconv.Itoa(o.LockSlots), Err: fmt.Errorf("%w: must be a power of two >= 16", ErrInvalid)}
	}
	if o.OnViolation != report.ActionAbort && o.OnViolation != report.ActionPanic {
		return &OptionError{Key: "on_violation", Err: fmt.Errorf("%w: unknown action %d", ErrInvalid, int(o.OnViolation))}
	}
	return nil
}

// String renders o in option-string form; Parse(o.String()) == o.
func (o Options) String() string {
	fl := 0
	if o.ForceLocked {
		fl = 1
	}
	return fmt.Sprintf("spin=%d force_locked=%d lock_slots=%d on_violation=%s",
		o.Spin, fl, o.LockSlots, o.OnViolation)
}
