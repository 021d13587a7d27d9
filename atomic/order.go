package atomic

import (
	"sync"

	"github.com/kolkov/atomiclanes/internal/atomics/config"
	"github.com/kolkov/atomiclanes/internal/atomics/lane"
	"github.com/kolkov/atomiclanes/internal/atomics/lockreg"
	"github.com/kolkov/atomiclanes/internal/atomics/memorder"
	"github.com/kolkov/atomiclanes/internal/atomics/procctx"
)

// MemoryOrder is the ordering contract of one operation.
type MemoryOrder = memorder.Order

// Memory orders, weakest first.
const (
	Relaxed = memorder.Relaxed
	Consume = memorder.Consume
	Acquire = memorder.Acquire
	Release = memorder.Release
	AcqRel  = memorder.AcqRel
	SeqCst  = memorder.SeqCst
)

// LaneKind identifies the storage strategy behind a cell.
type LaneKind = lane.Kind

// Lane kinds.
const (
	LaneLocked = lane.Locked
	Lane1      = lane.Lane1
	Lane2      = lane.Lane2
	Lane4      = lane.Lane4
	Lane8      = lane.Lane8
	Lane16     = lane.Lane16
	LanePtr    = lane.LanePtr
)

// Context holds the lock registry, the wait table and the configuration
// that cells operate under. Value cells always use the default context;
// references can be bound to any context with NewRefIn.
//
// The registry and the wait table are not reachable from outside the
// package: the registry is append-only, and a lock handed to a reference
// must stay the lock for that address.
type Context struct {
	c *procctx.Context
}

// Options configures a Context. See ParseOptions for the string form.
type Options = config.Options

// LockStats describes lock registry occupancy.
type LockStats = lockreg.Stats

// DefaultOptions returns the built-in configuration.
func DefaultOptions() Options { return config.Defaults() }

// ParseOptions parses an ATOMICLANES-style option string such as
// "spin=64 force_locked=0 lock_slots=65536 on_violation=abort".
func ParseOptions(s string) (Options, error) { return config.Parse(s) }

// NewContext creates an independent context.
func NewContext(opts Options) (*Context, error) {
	c, err := procctx.New(opts)
	if err != nil {
		return nil, err
	}
	return &Context{c: c}, nil
}

var defaultContext = sync.OnceValue(func() *Context {
	return &Context{c: procctx.Default()}
})

// DefaultContext returns the process-wide context, configured from the
// ATOMICLANES environment variable on first use.
func DefaultContext() *Context { return defaultContext() }

// Options returns the configuration the context was built with.
func (ctx *Context) Options() Options { return ctx.c.Options() }

// LockStats reports lock registry occupancy.
func (ctx *Context) LockStats() LockStats { return ctx.c.Locks().Stats() }

// Closed reports whether Close has succeeded.
func (ctx *Context) Closed() bool { return ctx.c.Closed() }

// Close stops the context from handing out new references. It fails while
// goroutines are parked in its wait table, and always fails for the
// default context. References created before Close keep working.
func (ctx *Context) Close() error { return ctx.c.Close() }
