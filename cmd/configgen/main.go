package main

import (
	"flag"

	"github.com/danmuck/nocrt/internal/config"
	"github.com/danmuck/nocrt/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	output := flag.String("output", "cmd/nocrt/runtime.toml", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "cmd/nocrt/runtime.toml", "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	logging.ConfigureRuntime()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal().Err(err).Str("path", *input).Msg("invalid runtime config")
		}
		log.Info().
			Str("path", *input).
			Int("capacity", cfg.Capacity).
			Stringer("order", cfg.Order).
			Stringer("overflow", cfg.Overflow).
			Msg("validated runtime config")
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal().Err(err).Str("path", *output).Msg("failed to write config template")
	}
	log.Info().Str("path", *output).Msg("wrote runtime config template")
}
