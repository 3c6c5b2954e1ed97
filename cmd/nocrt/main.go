package main

import (
	"flag"
	"os"

	"github.com/danmuck/nocrt/internal/config"
	"github.com/danmuck/nocrt/internal/crt"
	"github.com/danmuck/nocrt/internal/logging"
	"github.com/danmuck/nocrt/internal/statics"
	"github.com/danmuck/nocrt/internal/sys"
)

type foo struct {
	rt *crt.Runtime
}

// fail reports a setup error before the runtime exists.
func fail(gw sys.Gateway, err error) {
	gw.Write(sys.Stderr, []byte("nocrt: "+err.Error()+"\n"))
	gw.Terminate(crt.ExitInitFailure)
	panic(sys.Unreachable)
}

func main() {
	run(sys.Kernel{}, os.Args[1:])
}

// run never returns: every path ends in gw.Terminate.
func run(gw sys.Gateway, args []string) {
	fs := flag.NewFlagSet("nocrt", flag.ContinueOnError)
	fs.SetOutput(sys.FD{Gateway: gw, Num: sys.Stderr})
	configPath := fs.String("config", "", "runtime config path (toml)")
	status := fs.Int("status", 0, "exit status passed to terminate")
	if err := fs.Parse(args); err != nil {
		fail(gw, err)
	}

	cfg := config.Default()
	logCfg := logging.Load(logging.ProfileRuntime)
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fail(gw, err)
		}
		cfg = loaded
		logCfg.Level = cfg.LogLevel
	}

	opts := append(cfg.Options(), crt.WithLogger(logging.ForGateway(gw, logCfg)))
	rt, err := crt.New(gw, opts...)
	if err != nil {
		fail(gw, err)
	}

	err = rt.Declare(statics.Object{
		Name: "foo",
		Init: func() any {
			rt.Print("Init\n")
			return &foo{rt: rt}
		},
		Fini: func(inst any) {
			inst.(*foo).rt.Print("Deinit\n")
		},
	})
	if err != nil {
		fail(gw, err)
	}

	rt.Start(func(rt *crt.Runtime) {
		rt.Print("Hello, world!\n")
		rt.Exit(*status)
	})
}
