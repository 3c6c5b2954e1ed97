// Package crt is the process entry point and termination sequencer.
//
// A Runtime owns the deferred-handler registry and the static object table
// for one process. Start runs the fixed sequence
//
//	InitializeStatics -> body -> Exit(0)
//
// and Exit drains the registry before asking the gateway to terminate.
// Nothing runs after Terminate: every call to it is followed by
// panic(sys.Unreachable).
//
// Handlers run in registration order unless the runtime is built with
// WithOrder(atexit.LIFO). A registration that overflows the registry is
// dropped unless the runtime is built with WithOverflow(OverflowFatal), in
// which case the process terminates immediately with ExitOverflow.
package crt
