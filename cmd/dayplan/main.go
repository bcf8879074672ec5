// dayplan daemon - serves the planning API and runs background jobs
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumlife/dayplan/internal/api"
	"github.com/quantumlife/dayplan/internal/config"
	"github.com/quantumlife/dayplan/internal/ledger"
	"github.com/quantumlife/dayplan/internal/logging"
	"github.com/quantumlife/dayplan/internal/metrics"
	"github.com/quantumlife/dayplan/internal/planner"
	"github.com/quantumlife/dayplan/internal/scheduler"
	"github.com/quantumlife/dayplan/internal/storage"
)

var (
	configPath string
	dataDir    string
	port       int
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dayplan",
		Short:        "dayplan daemon - daily time allocation over HTTP",
		RunE:         runDaemon,
		SilenceUsage: true,
	}

	defaults := config.Default()
	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file (default <data-dir>/config.json)")
	rootCmd.Flags().StringVar(&dataDir, "data-dir", defaults.DataDir, "Data directory")
	rootCmd.Flags().IntVar(&port, "port", defaults.Server.Port, "HTTP server port")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" && cmd.Flags().Changed("data-dir") {
		path = dataDir + "/config.json"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(logLevel)
	if cfg.Features.DebugMode {
		level = logging.DEBUG
	}
	logging.SetLevel(level)
	logging.Info("Starting dayplan daemon")

	// Open database
	db, err := storage.Open(storage.Config{Path: cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logging.WithField("path", db.Path()).Info("Database ready")

	stores := storage.NewStores(db)

	var (
		recorder planner.Recorder
		observer scheduler.Observer
		handler  http.Handler
	)
	if cfg.Features.EnableMetrics {
		exporter := metrics.NewExporter(metrics.DefaultConfig())
		recorder, observer, handler = exporter, exporter, exporter.Handler()
	}

	svc, err := planner.NewService(planner.ServiceConfig{
		Profiles: stores.Profiles,
		Goals:    stores.Goals,
		Mind:     stores.Mind,
		Body:     stores.Body,
		Policy:   cfg.Planner,
		Metrics:  recorder,
	})
	if err != nil {
		return fmt.Errorf("create planner: %w", err)
	}

	// Background jobs
	jobs := scheduler.NewScheduler(scheduler.Config{Timezone: cfg.Jobs.Timezone, Observer: observer})
	if cfg.Features.EnableWeeklyJobs {
		day, _ := cfg.Jobs.ResetWeekday()
		audit := ledger.NewRecorder(ledger.NewStore(db.Conn()), ledger.ActorSystem)
		reset := audit.AuditResets(stores.Profiles)
		if err := jobs.Register(scheduler.WeeklyUsageResetJob(reset, day, cfg.Jobs.WeeklyResetAt)); err != nil {
			return fmt.Errorf("register weekly reset: %w", err)
		}
	}
	if err := jobs.Start(); err != nil {
		return err
	}
	defer jobs.Stop()

	server, err := api.New(api.Config{
		Addr:        cfg.Addr(),
		Planner:     svc,
		Profiles:    stores.Profiles,
		Health:      db,
		Metrics:     handler,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		return err
	}

	// Handle shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logging.WithField("error", err).Warn("HTTP shutdown incomplete")
	}
	return <-errCh
}
