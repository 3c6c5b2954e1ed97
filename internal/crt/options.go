package crt

import (
	"github.com/danmuck/nocrt/internal/atexit"
	"github.com/rs/zerolog"
)

// OverflowPolicy decides what a full registry does to a new registration.
type OverflowPolicy int

const (
	// OverflowDrop discards the registration and reports atexit.ErrOverflow.
	OverflowDrop OverflowPolicy = iota
	// OverflowFatal terminates the process with ExitOverflow.
	OverflowFatal
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDrop:
		return "drop"
	case OverflowFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

type options struct {
	capacity int
	order    atexit.Order
	overflow OverflowPolicy
	logger   zerolog.Logger
}

func defaultOptions() options {
	return options{
		capacity: atexit.DefaultCapacity,
		order:    atexit.FIFO,
		overflow: OverflowDrop,
		logger:   zerolog.Nop(),
	}
}

type Option func(*options)

func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

func WithOrder(order atexit.Order) Option {
	return func(o *options) {
		o.order = order
	}
}

func WithOverflow(p OverflowPolicy) Option {
	return func(o *options) {
		o.overflow = p
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
