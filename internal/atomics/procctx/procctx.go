// Package procctx owns the process-wide state of the atomics layer: the
// configuration, the address-keyed lock registry used by atomic references,
// the wait table and the per-type lane cache.
//
// The default context is built lazily from the ATOMICLANES environment
// variable on first use. Independent contexts can be created with New, for
// example to give a subsystem its own lock registry, and torn down with
// Close once nothing is parked on them.
package procctx

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/kolkov/atomiclanes/internal/atomics/config"
	"github.com/kolkov/atomiclanes/internal/atomics/lockreg"
	"github.com/kolkov/atomiclanes/internal/atomics/report"
	"github.com/kolkov/atomiclanes/internal/atomics/spinlock"
	"github.com/kolkov/atomiclanes/internal/atomics/waitq"
)

var (
	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("procctx: context closed")

	// ErrBusy is returned by Close while goroutines are parked.
	ErrBusy = errors.New("procctx: goroutines still parked")

	// ErrDefault is returned when closing the default context.
	ErrDefault = errors.New("procctx: the default context cannot be closed")
)

// Context is one instance of the process-wide state.
type Context struct {
	opts   config.Options
	locks  *lockreg.Registry
	waits  *waitq.Table
	lanes  sync.Map // reflect.Type or placement key -> lane.Lane[T]
	closed atomic.Bool
	isDef  bool
}

// New creates a context from opts.
func New(opts config.Options) (*Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	reg, err := lockreg.New(opts.LockSlots)
	if err != nil {
		return nil, err
	}
	return &Context{
		opts:  opts,
		locks: reg,
		waits: waitq.New(),
	}, nil
}

var (
	defaultOnce sync.Once
	defaultCtx  *Context
	stderr      = os.Stderr
)

// Default returns the process-wide context, creating it on first call.
//
// The configuration comes from the ATOMICLANES environment variable. A bad
// option string is reported on stderr and the defaults are used instead.
// The default context also applies the process-global settings: the spin
// lock budget and the contract-violation action.
func Default() *Context {
	defaultOnce.Do(func() {
		opts, err := config.FromEnv()
		if err != nil {
			fmt.Fprintf(stderr, "atomiclanes: %v (using defaults)\n", err)
			opts = config.Defaults()
		}
		ctx, err := New(opts)
		if err != nil {
			// Defaults always validate.
			panic(err)
		}
		ctx.isDef = true
		spinlock.SetSpinBudget(opts.Spin)
		report.SetAction(opts.OnViolation)
		defaultCtx = ctx
	})
	return defaultCtx
}

// Options returns the configuration the context was built with.
func (c *Context) Options() config.Options { return c.opts }

// Locks returns the address-keyed lock registry.
func (c *Context) Locks() *lockreg.Registry { return c.locks }

// Waits returns the wait table.
func (c *Context) Waits() *waitq.Table { return c.waits }

// Lanes returns the lane cache. Keys are chosen by the caller.
func (c *Context) Lanes() *sync.Map { return &c.lanes }

// Closed reports whether Close has succeeded.
func (c *Context) Closed() bool { return c.closed.Load() }

// Close marks the context closed so no new references bind to it. It fails
// with ErrBusy while any goroutine is parked in its wait table, leaving the
// context open.
//
// Close does not revoke anything already handed out. References created
// before Close keep their lock and wait table and go on working, and may
// still park after Close returns.
func (c *Context) Close() error {
	if c.isDef {
		return ErrDefault
	}
	// Mark first so no new reference can bind while waiters are counted.
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if n := c.waits.Parked(); n > 0 {
		c.closed.Store(false)
		return fmt.Errorf("%w: %d waiter(s)", ErrBusy, n)
	}
	return nil
}
