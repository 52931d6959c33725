package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/legacyctl/internal/admin"
	"github.com/danmuck/legacyctl/internal/config"
	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/runtime"
)

func main() {
	configPath := flag.String("config", "cmd/legacyctld/config.toml", "path to daemon config")
	flag.Parse()

	observability.InitLogger("legacyctld")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Info().Str("path", *configPath).Msg("loaded config")

	ctx, err := runtime.Build(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build runtime")
	}

	server := admin.New(cfg.Name, cfg.Admin.Addr, cfg.Admin.CorsOrigins, ctx)
	errs := make(chan error, 1)
	go func() { errs <- server.Serve() }()
	log.Info().
		Str("device", cfg.Serial.Device).
		Int("proxy_port", cfg.Proxy.Port).
		Str("admin", cfg.Admin.Addr).
		Msg("legacyctld started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx.Shutdown(false)
	case err := <-errs:
		log.Error().Err(err).Msg("admin server stopped")
		ctx.Shutdown(true)
		os.Exit(1)
	}
}
