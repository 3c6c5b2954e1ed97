package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/nocrt/internal/atexit"
	"github.com/danmuck/nocrt/internal/crt"
	"github.com/danmuck/nocrt/internal/logging"
	"github.com/rs/zerolog"
)

// Config is the runtime configuration of a nocrt program.
type Config struct {
	Capacity int
	Order    atexit.Order
	Overflow crt.OverflowPolicy
	LogLevel zerolog.Level
}

type fileConfig struct {
	Capacity int    `toml:"capacity"`
	Order    string `toml:"order"`
	Overflow string `toml:"overflow"`
	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		Capacity: atexit.DefaultCapacity,
		Order:    atexit.FIFO,
		Overflow: crt.OverflowDrop,
		LogLevel: zerolog.InfoLevel,
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load runtime config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("capacity") {
		cfg.Capacity = raw.Capacity
	}

	if meta.IsDefined("order") {
		o, err := ParseOrder(raw.Order)
		if err != nil {
			return Config{}, err
		}
		cfg.Order = o
	}

	if meta.IsDefined("overflow") {
		p, err := ParseOverflow(raw.Overflow)
		if err != nil {
			return Config{}, err
		}
		cfg.Overflow = p
	}

	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return Config{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = lvl
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if cfg.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", cfg.Capacity)
	}
	return nil
}

func ParseOrder(raw string) (atexit.Order, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "fifo", "":
		return atexit.FIFO, nil
	case "lifo":
		return atexit.LIFO, nil
	default:
		return atexit.FIFO, fmt.Errorf("parse order: unknown order %q", raw)
	}
}

func ParseOverflow(raw string) (crt.OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "drop", "":
		return crt.OverflowDrop, nil
	case "fatal", "abort":
		return crt.OverflowFatal, nil
	default:
		return crt.OverflowDrop, fmt.Errorf("parse overflow: unknown policy %q", raw)
	}
}

// Options converts cfg into runtime options.
func (cfg Config) Options() []crt.Option {
	return []crt.Option{
		crt.WithCapacity(cfg.Capacity),
		crt.WithOrder(cfg.Order),
		crt.WithOverflow(cfg.Overflow),
	}
}
