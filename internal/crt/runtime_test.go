package crt

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/nocrt/internal/atexit"
	"github.com/danmuck/nocrt/internal/statics"
	"github.com/danmuck/nocrt/internal/sys"
	"github.com/danmuck/nocrt/internal/sys/systest"
	"github.com/danmuck/nocrt/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/sys/unix"
)

func newRuntime(t *testing.T, gw sys.Gateway, opts ...Option) *Runtime {
	t.Helper()
	rt, err := New(gw, opts...)
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt
}

func TestStaticThenBodyHandlersDrainBeforeTerminate(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)

	err := rt.Declare(statics.Object{
		Name: "foo",
		Init: func() any { return "A" },
		Fini: func(inst any) { rt.Print("handler " + inst.(string) + "\n") },
	})
	if err != nil {
		t.Fatalf("declare: %v", err)
	}

	afterExit := false
	status, exited := systest.Run(func() {
		rt.Start(func(rt *Runtime) {
			if err := rt.Register(func(arg any) {
				rt.Print("handler " + arg.(string) + "\n")
			}, "B"); err != nil {
				t.Fatalf("register: %v", err)
			}
		})
		afterExit = true
	})
	if !exited || status != 0 {
		t.Fatalf("expected exit 0, got exited=%v status=%d", exited, status)
	}
	if afterExit {
		t.Fatalf("code ran after terminate")
	}

	want := []systest.Call{
		{Op: "write", FD: sys.Stdout, Data: "handler A\n", Status: 10},
		{Op: "write", FD: sys.Stdout, Data: "handler B\n", Status: 10},
		{Op: "terminate", Status: 0},
	}
	if diff := cmp.Diff(want, rec.Calls); diff != "" {
		t.Fatalf("call trace mismatch (-want +got):\n%s", diff)
	}
	if rt.State() != Terminated {
		t.Fatalf("expected terminated state, got %s", rt.State())
	}
}

func TestHelloWorldWrite(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)

	n := rt.Write(sys.Stdout, []byte("Hello, world!\n"))
	if n != 14 {
		t.Fatalf("expected 14 bytes written, got %d", n)
	}
	if got := rec.Stream(sys.Stdout); got != "Hello, world!\n" {
		t.Fatalf("unexpected stdout: %q", got)
	}
}

func TestWriteFailureReturnedUnchanged(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rec.FailWrites(sys.Stdout, int(unix.EBADF))
	rt := newRuntime(t, rec)

	n := rt.Print("lost\n")
	if n != -int(unix.EBADF) {
		t.Fatalf("expected -EBADF, got %d", n)
	}
	if err := sys.Errno(n); !errors.Is(err, unix.EBADF) {
		t.Fatalf("expected EBADF, got %v", err)
	}
}

func TestExitStatusPassedThrough(t *testing.T) {
	testlog.Start(t)
	for _, want := range []int{0, 42} {
		rec := systest.NewRecorder()
		rt := newRuntime(t, rec)
		status, exited := systest.Run(func() { rt.Exit(want) })
		if !exited || status != want {
			t.Fatalf("expected status %d, got exited=%v status=%d", want, exited, status)
		}
	}
}

func TestBodyFallthroughExitsZero(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)
	status, exited := systest.Run(func() { rt.Start(nil) })
	if !exited || status != 0 {
		t.Fatalf("expected exit 0, got exited=%v status=%d", exited, status)
	}
}

func TestExitWithNoHandlersTerminatesImmediately(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)
	systest.Run(func() { rt.Exit(7) })
	want := []systest.Call{{Op: "terminate", Status: 7}}
	if diff := cmp.Diff(want, rec.Calls); diff != "" {
		t.Fatalf("call trace mismatch (-want +got):\n%s", diff)
	}
}

func TestOverflowDropIsSilent(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)
	ran := 0
	for i := 0; i < atexit.DefaultCapacity; i++ {
		if rc := rt.AtExit(func(any) { ran++ }, i, nil); rc != 0 {
			t.Fatalf("registration %d failed: %d", i, rc)
		}
	}
	if rc := rt.AtExit(func(any) { t.Fatalf("dropped handler ran") }, nil, nil); rc != -1 {
		t.Fatalf("expected -1 on overflow, got %d", rc)
	}
	if rt.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", rt.Dropped())
	}
	systest.Run(func() { rt.Exit(0) })
	if ran != atexit.DefaultCapacity {
		t.Fatalf("expected %d handlers run, got %d", atexit.DefaultCapacity, ran)
	}
	if rec.Stream(sys.Stderr) != "" {
		t.Fatalf("drop policy wrote to stderr: %q", rec.Stream(sys.Stderr))
	}
}

func TestOverflowFatalTerminatesWithoutDraining(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec, WithCapacity(1), WithOverflow(OverflowFatal))
	ran := false
	if err := rt.Register(func(any) { ran = true }, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	status, exited := systest.Run(func() {
		_ = rt.Register(func(any) {}, nil)
	})
	if !exited || status != ExitOverflow {
		t.Fatalf("expected exit %d, got exited=%v status=%d", ExitOverflow, exited, status)
	}
	if ran {
		t.Fatalf("fatal overflow drained handlers")
	}
	if !strings.Contains(rec.Stream(sys.Stderr), "overflow") {
		t.Fatalf("expected overflow diagnostic, got %q", rec.Stream(sys.Stderr))
	}
}

func TestOverflowFatalDuringStaticConstruction(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec, WithCapacity(1), WithOverflow(OverflowFatal))
	for _, name := range []string{"a", "b"} {
		_ = rt.Declare(statics.Object{Name: name, Init: func() any { return name }, Fini: func(any) {}})
	}
	bodyRan := false
	status, _ := systest.Run(func() {
		rt.Start(func(*Runtime) { bodyRan = true })
	})
	if status != ExitOverflow {
		t.Fatalf("expected exit %d, got %d", ExitOverflow, status)
	}
	if bodyRan {
		t.Fatalf("body ran after fatal overflow")
	}
}

func TestLostStaticTeardownUnderDropPolicy(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec, WithCapacity(1))
	for _, name := range []string{"a", "b"} {
		_ = rt.Declare(statics.Object{Name: name, Init: func() any { return name }, Fini: func(any) {}})
	}
	rep, err := rt.InitializeStatics()
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, rep.Lost); diff != "" {
		t.Fatalf("lost mismatch (-want +got):\n%s", diff)
	}
	if inst, ok := rt.Instance("b"); !ok || inst != "b" {
		t.Fatalf("expected b constructed, got ok=%v inst=%v", ok, inst)
	}
}

func TestExitFromHandlerRunsEachHandlerOnce(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)
	var order []string
	var during State
	_ = rt.Register(func(any) {
		order = append(order, "a")
		during = rt.State()
		rt.Exit(3)
	}, nil)
	_ = rt.Register(func(any) { order = append(order, "b") }, nil)

	status, _ := systest.Run(func() { rt.Exit(0) })
	if status != 3 {
		t.Fatalf("expected nested exit status 3, got %d", status)
	}
	if during != Draining {
		t.Fatalf("expected draining state inside handler, got %s", during)
	}
	if diff := cmp.Diff([]string{"a", "b"}, order); diff != "" {
		t.Fatalf("handler order mismatch (-want +got):\n%s", diff)
	}
	if n := strings.Count(strings.Join(order, ""), "a"); n != 1 {
		t.Fatalf("handler a ran %d times", n)
	}
}

func TestLIFOOrderOption(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec, WithOrder(atexit.LIFO))
	for _, s := range []string{"1", "2", "3"} {
		_ = rt.Register(func(arg any) { rt.Print(arg.(string)) }, s)
	}
	systest.Run(func() { rt.Exit(0) })
	if got := rec.Stream(sys.Stdout); got != "321" {
		t.Fatalf("expected reverse order, got %q", got)
	}
}

func TestNewValidation(t *testing.T) {
	testlog.Start(t)
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil gateway")
	}
	if _, err := New(systest.NewRecorder(), WithCapacity(0)); !errors.Is(err, atexit.ErrBadCapacity) {
		t.Fatalf("expected ErrBadCapacity, got %v", err)
	}
}

func TestRegisterAfterTerminationFails(t *testing.T) {
	testlog.Start(t)
	rec := systest.NewRecorder()
	rt := newRuntime(t, rec)
	systest.Run(func() { rt.Exit(0) })
	if rc := rt.AtExit(func(any) {}, nil, nil); rc != -1 {
		t.Fatalf("expected -1 after termination, got %d", rc)
	}
}
