package crt

import (
	"errors"
	"fmt"

	"github.com/danmuck/nocrt/internal/atexit"
	"github.com/danmuck/nocrt/internal/statics"
	"github.com/danmuck/nocrt/internal/sys"
	"github.com/rs/zerolog"
)

const (
	// ExitInitFailure is used when static construction cannot complete.
	ExitInitFailure = 1
	// ExitOverflow is used by OverflowFatal. It matches the status of a
	// process killed by SIGABRT.
	ExitOverflow = 134
)

// State is the termination sequencer state.
type State int

const (
	Running State = iota
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Body is the program logic run between construction and termination.
type Body func(rt *Runtime)

// Runtime is the process-wide state of one program image.
type Runtime struct {
	gw       sys.Gateway
	registry *atexit.Registry
	statics  *statics.Table
	overflow OverflowPolicy
	log      zerolog.Logger
	state    State
}

func New(gw sys.Gateway, opts ...Option) (*Runtime, error) {
	if gw == nil {
		return nil, errors.New("crt: gateway is nil")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	reg, err := atexit.New(o.capacity, atexit.WithOrder(o.order))
	if err != nil {
		return nil, fmt.Errorf("crt: %w", err)
	}
	return &Runtime{
		gw:       gw,
		registry: reg,
		statics:  statics.NewTable(),
		overflow: o.overflow,
		log:      o.logger,
		state:    Running,
	}, nil
}

// Main builds a Runtime over the kernel gateway and starts body. It never
// returns.
func Main(body Body, opts ...Option) {
	gw := sys.Kernel{}
	rt, err := New(gw, opts...)
	if err != nil {
		gw.Write(sys.Stderr, []byte("nocrt: "+err.Error()+"\n"))
		gw.Terminate(ExitInitFailure)
		panic(sys.Unreachable)
	}
	rt.Start(body)
}

// Start runs the process sequence and never returns. Falling off the end
// of body is the same as Exit(0).
func (rt *Runtime) Start(body Body) {
	if _, err := rt.InitializeStatics(); err != nil {
		rt.Write(sys.Stderr, []byte("nocrt: "+err.Error()+"\n"))
		rt.Exit(ExitInitFailure)
	}
	if body != nil {
		body(rt)
	}
	rt.Exit(0)
}

// Declare adds a static object. Objects are constructed by
// InitializeStatics in declaration order.
func (rt *Runtime) Declare(obj statics.Object) error {
	return rt.statics.Declare(obj)
}

// InitializeStatics constructs every declared object. Each object's
// teardown is registered through rt, so the overflow policy applies.
func (rt *Runtime) InitializeStatics() (statics.Report, error) {
	rep, err := rt.statics.Initialize(rt)
	if err != nil {
		return rep, err
	}
	for _, name := range rep.Lost {
		rt.log.Warn().Str("static", name).Msg("teardown dropped: registry full")
	}
	rt.log.Debug().Strs("constructed", rep.Constructed).Msg("statics initialized")
	return rep, nil
}

// Instance returns the constructed static named name.
func (rt *Runtime) Instance(name string) (any, bool) {
	return rt.statics.Instance(name)
}

// Register enqueues fn to run with arg during termination.
func (rt *Runtime) Register(fn atexit.Handler, arg any) error {
	err := rt.registry.Register(fn, arg)
	rt.log.Trace().Int("pending", rt.registry.Len()).Err(err).Msg("at exit called")
	if errors.Is(err, atexit.ErrOverflow) && rt.overflow == OverflowFatal {
		rt.abort("nocrt: deferred-handler registry overflow\n")
	}
	return err
}

// AtExit is the conventional exit-hook form of Register: 0 on success,
// -1 on failure. dso is ignored.
func (rt *Runtime) AtExit(fn atexit.Handler, arg any, dso any) int {
	if err := rt.Register(fn, arg); err != nil {
		return -1
	}
	return 0
}

// Write passes p to the gateway unchanged and returns its result.
func (rt *Runtime) Write(fd int, p []byte) int {
	return rt.gw.Write(fd, p)
}

// Print writes s to standard output.
func (rt *Runtime) Print(s string) int {
	return sys.Print(rt.gw, s)
}

// Exit drains the registry and terminates with status. Called from inside a
// handler, it finishes the drain already in progress and terminates with
// the new status.
func (rt *Runtime) Exit(status int) {
	switch rt.state {
	case Running:
		rt.state = Draining
		ran := rt.registry.Drain()
		rt.log.Debug().Int("handlers", ran).Int("status", status).Msg("drained")
	case Draining:
		rt.registry.Drain()
	}
	rt.state = Terminated
	rt.gw.Terminate(status)
	panic(sys.Unreachable)
}

func (rt *Runtime) abort(msg string) {
	rt.gw.Write(sys.Stderr, []byte(msg))
	rt.state = Terminated
	rt.gw.Terminate(ExitOverflow)
	panic(sys.Unreachable)
}

func (rt *Runtime) State() State {
	return rt.state
}

// Dropped reports how many registrations were lost to overflow.
func (rt *Runtime) Dropped() int {
	return rt.registry.Dropped()
}
