package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/config"
	"github.com/adminui/sysdash/internal/devserver"
	"github.com/adminui/sysdash/internal/logging"
	"github.com/adminui/sysdash/internal/metrics"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	loginRate := flag.Float64("login-rate", 1, "Login attempts per second allowed per client IP")
	loginBurst := flag.Int("login-burst", 5, "Login attempt burst per client IP")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *addr != "" {
		cfg.DevServer.Addr = *addr
	}

	logger, err := logging.New(*logLevel, "")
	if err != nil {
		fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	srv := devserver.New(cfg.DevServer, devserver.HostSource{},
		devserver.WithLogger(logger),
		devserver.WithRegistry(metrics.NewRegistry()),
		devserver.WithLoginRateLimit(*loginRate, *loginBurst),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
