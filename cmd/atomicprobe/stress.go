// stress.go implements the 'atomicprobe stress' command.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"
	"unsafe"

	"github.com/kolkov/atomiclanes/atomic"
)

// stressResult is the outcome of one check.
type stressResult struct {
	Name    string        `json:"name"`
	Lane    string        `json:"lane"`
	Pass    bool          `json:"pass"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// stressConfig controls a stress run.
type stressConfig struct {
	iterations int
	workers    int
	wait       time.Duration
	only       string
	json       bool
}

// stressCheck runs one check and returns the lane used, or an error
// describing the failure.
type stressCheck struct {
	name string
	run  func(cfg stressConfig) (lane string, err error)
}

var stressChecks = []stressCheck{
	{"counter", checkCounter},
	{"counter_locked", checkCounterLocked},
	{"float_add", checkFloatAdd},
	{"padding_cas", checkPaddingCAS},
	{"wait_notify", checkWaitNotify},
	{"wide_cas", checkWideCAS},
}

// checkCounter runs cfg.workers goroutines of FetchAdd(1) on an Int[int32].
func checkCounter(cfg stressConfig) (string, error) {
	var v atomic.Int[int32]
	hammer(cfg, func() { v.FetchAdd(1) })
	want := int32(cfg.workers * cfg.iterations)
	if got := v.Load(); got != want {
		return v.Lane().String(), fmt.Errorf("lost updates: got %d, want %d", got, want)
	}
	return v.Lane().String(), nil
}

// checkCounterLocked repeats the counter on caller memory through a
// context that forces the locked lane.
func checkCounterLocked(cfg stressConfig) (string, error) {
	opts := atomic.DefaultOptions()
	opts.ForceLocked = true
	opts.LockSlots = 1 << 10
	ctx, err := atomic.NewContext(opts)
	if err != nil {
		return "", err
	}
	defer func() { _ = ctx.Close() }()

	var n int64
	r := atomic.NewIntRefIn(ctx, &n)
	hammer(cfg, func() { r.FetchAdd(1) })
	want := int64(cfg.workers * cfg.iterations)
	if got := r.Load(); got != want {
		return r.Lane().String(), fmt.Errorf("lost updates: got %d, want %d", got, want)
	}
	return r.Lane().String(), nil
}

// checkFloatAdd sums 1.0 concurrently; every partial sum is an exact
// integer, so a torn or lost update shows up in the total.
func checkFloatAdd(cfg stressConfig) (string, error) {
	var v atomic.Float[float64]
	hammer(cfg, func() { v.FetchAdd(1) })
	want := float64(cfg.workers * cfg.iterations)
	if got := v.Load(); got != want {
		return v.Lane().String(), fmt.Errorf("got %v, want %v", got, want)
	}
	return v.Lane().String(), nil
}

// checkPaddingCAS dirties the padding of the referent and expects a
// compare-and-swap with clean padding to succeed anyway.
func checkPaddingCAS(stressConfig) (string, error) {
	p := &padded{A: 7, B: 9}
	(*[unsafe.Sizeof(padded{})]byte)(unsafe.Pointer(p))[1] = 0xAA

	r := atomic.NewRef(p)
	expected := padded{A: 7, B: 9}
	if !r.CompareAndSwap(&expected, padded{A: 1, B: 2}) {
		return r.Lane().String(), fmt.Errorf("compare-and-swap failed on padding-only difference, observed %+v", expected)
	}
	if got := r.Load(); got != (padded{A: 1, B: 2}) {
		return r.Lane().String(), fmt.Errorf("referent = %+v after swap", got)
	}
	return r.Lane().String(), nil
}

// checkWaitNotify parks a goroutine on a value and wakes it with a store
// followed by NotifyOne.
func checkWaitNotify(cfg stressConfig) (string, error) {
	var v atomic.Value[int32]
	observed := make(chan int32, 1)
	go func() {
		v.Wait(0)
		observed <- v.Load()
	}()

	// Give the waiter a chance to park; the check is correct either way.
	time.Sleep(time.Millisecond)
	v.Store(1)
	v.NotifyOne()

	select {
	case got := <-observed:
		if got != 1 {
			return v.Lane().String(), fmt.Errorf("waiter observed %d, want 1", got)
		}
		return v.Lane().String(), nil
	case <-time.After(cfg.wait):
		return v.Lane().String(), fmt.Errorf("waiter not woken within %v", cfg.wait)
	}
}

// checkWideCAS runs compare-and-swap on a 16-byte referent at a 16-byte
// aligned address.
func checkWideCAS(stressConfig) (string, error) {
	buf := make([]uint64, 4)
	addr := unsafe.Pointer(&buf[0])
	if uintptr(addr)%16 != 0 {
		addr = unsafe.Pointer(&buf[1])
	}
	p := (*wide16)(addr)
	*p = wide16{Lo: 1, Hi: 2}

	r := atomic.NewRef(p)
	expected := wide16{Lo: 1, Hi: 2}
	if !r.CompareAndSwap(&expected, wide16{Lo: 3, Hi: 4}) {
		return r.Lane().String(), errors.New("compare-and-swap failed on match")
	}
	if expected != (wide16{Lo: 1, Hi: 2}) {
		return r.Lane().String(), fmt.Errorf("expected rewritten on success: %+v", expected)
	}
	if got := r.Load(); got != (wide16{Lo: 3, Hi: 4}) {
		return r.Lane().String(), fmt.Errorf("referent = %+v after swap", got)
	}
	return r.Lane().String(), nil
}

// hammer runs op cfg.iterations times on each of cfg.workers goroutines.
func hammer(cfg stressConfig, op func()) {
	var wg sync.WaitGroup
	for w := 0; w < cfg.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < cfg.iterations; i++ {
				op()
			}
		}()
	}
	wg.Wait()
}

// runStress executes the selected checks in order.
func runStress(cfg stressConfig) []stressResult {
	var results []stressResult
	for _, c := range stressChecks {
		if cfg.only != "" && cfg.only != c.name {
			continue
		}
		start := time.Now()
		lane, err := c.run(cfg)
		res := stressResult{
			Name:    c.name,
			Lane:    lane,
			Pass:    err == nil,
			Elapsed: time.Since(start),
		}
		if err != nil {
			res.Detail = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// parseStressArgs parses 'atomicprobe stress' flags.
func parseStressArgs(args []string, stderr io.Writer) (stressConfig, error) {
	fs := flag.NewFlagSet("stress", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cfg stressConfig
	fs.IntVar(&cfg.iterations, "n", 100000, "operations per worker")
	fs.IntVar(&cfg.workers, "workers", 2, "concurrent goroutines per check")
	fs.DurationVar(&cfg.wait, "wait", 5*time.Second, "how long a woken waiter may take")
	fs.StringVar(&cfg.only, "run", "", "run only the named check")
	fs.BoolVar(&cfg.json, "json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return stressConfig{}, err
	}

	if cfg.iterations < 1 || cfg.workers < 1 {
		return stressConfig{}, fmt.Errorf("-n and -workers must be positive")
	}
	if cfg.only != "" {
		found := false
		for _, c := range stressChecks {
			found = found || c.name == cfg.only
		}
		if !found {
			return stressConfig{}, fmt.Errorf("unknown check %q", cfg.only)
		}
	}
	return cfg, nil
}

// stressCommand implements 'atomicprobe stress'. The exit code is 1 if
// any check fails.
func stressCommand(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseStressArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 2
	}

	results := runStress(cfg)
	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}

	if cfg.json {
		if err := writeJSON(stdout, results); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CHECK\tLANE\tRESULT\tTIME\tDETAIL")
		for _, r := range results {
			status := "ok"
			if !r.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", r.Name, r.Lane, status, r.Elapsed.Round(time.Microsecond), r.Detail)
		}
		_ = tw.Flush()
	}

	if failed > 0 {
		fmt.Fprintf(stderr, "%d of %d checks failed\n", failed, len(results))
		return 1
	}
	return 0
}
