package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/task-registry/config"
	"github.com/example/task-registry/modules/activity"
	"github.com/example/task-registry/modules/api"
	"github.com/example/task-registry/modules/health"
	"github.com/example/task-registry/modules/ratelimit"
	"github.com/example/task-registry/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/spf13/cobra"
)

var (
	configPath string
	port       int
)

var rootCmd = &cobra.Command{
	Use:   "task-registry",
	Short: "In-memory task registry with an HTTP API",
	Long: `task-registry keeps tasks in memory and serves them over a REST API.
Running it without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the configured version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cfg.App.Name, cfg.App.Version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "HTTP port (overrides config and PORT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies command-line flags on top of config.Load.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logLevel := mono.LogLevelInfo
	if cfg.App.LogLevel == config.LogLevelError {
		logLevel = mono.LogLevelError
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.App.ShutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	logger := app.Logger()

	reporter := health.NewReporter(cfg.App.Version)
	limiter := ratelimit.NewModule(
		cfg.RateLimit.RedisAddr,
		cfg.RateLimit.RedisPassword,
		ratelimit.Config{
			Requests:  cfg.RateLimit.Requests,
			Window:    cfg.RateLimit.Window,
			KeyPrefix: ratelimit.DefaultConfig().KeyPrefix,
		},
		logger.WithModule("ratelimit"),
	)

	// Order: independent modules first, then modules with dependencies
	modules := []mono.Module{
		health.NewModule(reporter, logger.WithModule("health")),
		task.NewModule(task.NewRegistry(), logger.WithModule("task")),
		activity.NewModule(cfg.Activity.Capacity, logger.WithModule("activity")),
		limiter,
		api.NewModule(api.Options{
			Addr:           cfg.Server.Addr(),
			AppName:        cfg.App.Name,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			AccessLog:      true,
		}, reporter, limiter.Handler(), logger.WithModule("api")),
	}
	for _, m := range modules {
		if err := app.Register(m); err != nil {
			return fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	printStartupInfo(logger, cfg, limiter.Enabled())

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.App.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				logger.Info("Graceful shutdown initiated")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}

func printStartupInfo(logger types.Logger, cfg config.Config, rateLimited bool) {
	logger.Info("Task Registry started",
		"version", cfg.App.Version,
		"addr", cfg.Server.Addr(),
		"rate_limiting", rateLimited)
	logger.Info("REST API endpoints",
		"tasks", "POST|GET /tasks, GET /tasks/stats, GET|PUT|DELETE /tasks/:id (also under /api/v1)",
		"activity", "GET /activity",
		"health", "GET /health, GET /health/live, GET /ready")
	logger.Info("Press Ctrl+C to shutdown gracefully")
}
