// Package atexit holds the deferred handlers a process runs just before it
// terminates. The registry has a fixed capacity and is drained exactly once.
package atexit

import "errors"

// DefaultCapacity is the number of handlers a registry holds unless told
// otherwise.
const DefaultCapacity = 10

var (
	ErrOverflow    = errors.New("atexit: registry full")
	ErrNilHandler  = errors.New("atexit: handler is nil")
	ErrClosed      = errors.New("atexit: registry already drained")
	ErrBadCapacity = errors.New("atexit: capacity must be positive")
)

// Handler is deferred work. It receives the argument it was registered with.
type Handler func(arg any)

// Entry is one registered handler and its argument.
type Entry struct {
	Fn  Handler
	Arg any
}

// Order selects the sequence Drain runs entries in.
type Order int

const (
	// FIFO runs handlers in registration order.
	FIFO Order = iota
	// LIFO runs the most recently registered handler first.
	LIFO
)

func (o Order) String() string {
	switch o {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	default:
		return "unknown"
	}
}

type Option func(*Registry)

func WithOrder(o Order) Option {
	return func(r *Registry) {
		r.order = o
	}
}

// Registry is a bounded, append-only list of entries.
type Registry struct {
	entries []Entry
	count   int
	order   Order

	// count only grows; a slot consumed by Drain is never reused. next is
	// the FIFO read position and taken counts consumed entries in either
	// order. Both move before the handler is called, so a handler that
	// re-enters Drain never sees itself again.
	next     int
	taken    int
	draining bool
	closed   bool
	dropped  int
}

// New creates an empty registry holding at most capacity entries.
func New(capacity int, opts ...Option) (*Registry, error) {
	if capacity <= 0 {
		return nil, ErrBadCapacity
	}
	r := &Registry{entries: make([]Entry, capacity)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Register appends fn and arg. A full registry drops the entry and returns
// ErrOverflow; the dropped handler never runs.
func (r *Registry) Register(fn Handler, arg any) error {
	if fn == nil {
		return ErrNilHandler
	}
	if r.closed {
		return ErrClosed
	}
	if r.count == len(r.entries) {
		r.dropped++
		return ErrOverflow
	}
	r.entries[r.count] = Entry{Fn: fn, Arg: arg}
	r.count++
	return nil
}

// Drain runs every pending handler once and closes the registry. It
// returns how many handlers ran during this call. Entries registered by a
// running handler are run by the same drain.
func (r *Registry) Drain() int {
	if r.closed {
		return 0
	}
	outer := !r.draining
	r.draining = true
	ran := 0
	for {
		e, ok := r.take()
		if !ok {
			break
		}
		e.Fn(e.Arg)
		ran++
	}
	if outer {
		r.draining = false
		r.closed = true
	}
	return ran
}

// take removes the next entry according to the registry order. Consumed
// slots are cleared, so LIFO looks for the highest slot still holding a
// handler.
func (r *Registry) take() (Entry, bool) {
	switch r.order {
	case LIFO:
		for i := r.count - 1; i >= 0; i-- {
			if r.entries[i].Fn == nil {
				continue
			}
			e := r.entries[i]
			r.entries[i] = Entry{}
			r.taken++
			return e, true
		}
		return Entry{}, false
	default:
		if r.next >= r.count {
			return Entry{}, false
		}
		e := r.entries[r.next]
		r.entries[r.next] = Entry{}
		r.next++
		r.taken++
		return e, true
	}
}

// Len reports how many entries are waiting to run.
func (r *Registry) Len() int {
	return r.count - r.taken
}

func (r *Registry) Cap() int {
	return len(r.entries)
}

// Closed reports whether a drain has completed.
func (r *Registry) Closed() bool {
	return r.closed
}

// Dropped reports how many registrations were lost to overflow.
func (r *Registry) Dropped() int {
	return r.dropped
}
