package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/adminui/sysdash/internal/app"
	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/config"
	"github.com/adminui/sysdash/internal/logging"
	"github.com/adminui/sysdash/internal/metrics"
	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/session"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config file")
	baseURL := flag.String("url", "", "Backend base URL (overrides config)")
	interval := flag.Duration("interval", 0, "Auto-refresh interval (overrides config)")
	autoRefresh := flag.Bool("auto-refresh", false, "Start auto-refresh after sign-in")
	noPersist := flag.Bool("no-persist", false, "Keep the session token in memory only")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *interval > 0 {
		cfg.Refresh.Interval = *interval
	}
	if *autoRefresh {
		cfg.Refresh.AutoStart = true
	}
	if *noPersist {
		cfg.Session.Persist = false
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	// The terminal belongs to the UI, so logs always go to a file.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		clientMetrics *metrics.ClientMetrics
		pollMetrics   *metrics.PollMetrics
	)
	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		clientMetrics = metrics.NewClientMetrics(reg)
		pollMetrics = metrics.NewPollMetrics(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, reg, logger); err != nil {
				logger.Error("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	var persist session.TokenPersister = &session.Memory{}
	if cfg.Session.Persist {
		persist = session.NewTokenFile(cfg.Session.StateDir)
	}
	store := session.New(persist, logger.Named("session"))

	// program is assigned before Run, and the hook only fires from commands
	// started by the running program.
	var program *tea.Program
	api := client.New(cfg.API.BaseURL, store,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger.Named("api")),
		client.WithMetrics(clientMetrics),
		client.WithUnauthorizedHandler(func() {
			if program != nil {
				program.Send(app.SessionExpiredMsg{})
			}
		}),
	)

	clock := clockwork.NewRealClock()
	ctrl := processes.New(api,
		processes.WithClock(clock),
		processes.WithLogger(logger.Named("processes")),
		processes.WithMetrics(pollMetrics),
		processes.WithFilters(processes.NewFilterState(cfg.Filters.SortBy, cfg.Filters.Limit)),
	)
	sched := processes.NewScheduler(clock,
		func(ctx context.Context) { _, _ = ctrl.LoadProcesses(ctx) },
		processes.WithDefaultInterval(cfg.Refresh.Interval),
		processes.WithTriggerContext(ctx),
		processes.WithSchedulerLogger(logger.Named("scheduler")),
		processes.WithSchedulerMetrics(pollMetrics),
	)
	defer sched.Stop()

	m := app.New(app.Deps{
		API:             api,
		Session:         store,
		Procs:           ctrl,
		Sched:           sched,
		Clock:           clock,
		Logger:          logger,
		RestartServices: cfg.Services.Restartable,
		LogServices:     cfg.Services.Logs,
		AutoRefresh:     cfg.Refresh.AutoStart,
	})
	program = tea.NewProgram(m, tea.WithAltScreen())

	unsubscribe := ctrl.Subscribe(func(ev processes.Event) {
		program.Send(app.ProcessEventMsg{Event: ev})
	})
	defer unsubscribe()

	logger.Info("starting", zap.String("base_url", cfg.API.BaseURL))
	if _, err := program.Run(); err != nil {
		logger.Error("program exited", zap.Error(err))
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
