package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/example/genai-gateway/internal/agents"
	"github.com/example/genai-gateway/internal/api"
	"github.com/example/genai-gateway/internal/config"
	"github.com/example/genai-gateway/internal/logging"
	"github.com/example/genai-gateway/internal/metrics"
	"github.com/example/genai-gateway/internal/models"
	"github.com/example/genai-gateway/internal/orchestrator"
	"github.com/example/genai-gateway/internal/providers/llm"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway HTTP server",
	Long: `Start the gateway HTTP server.

Configuration is read from the optional --config file, then .env in the
working directory, then the process environment. GEMINI_API_KEY (or
GOOGLE_API_KEY) sets the default upstream credential; requests may supply
their own.

Examples:
  # Start with environment configuration
  gateway serve

  # Override listen address
  gateway serve --listen 0.0.0.0:9090

  # Validate config without starting server
  gateway serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Logging.Level = serveFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration valid")
		return nil
	}
	if cfg.Upstream.Mock {
		logger.Warn("mock upstream enabled; responses are scripted and the AI service is never called")
	} else if cfg.Upstream.APIKey == "" {
		logger.Warn("no default API key configured; requests must supply customApiKey")
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           buildHandler(cfg, logger),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"address", cfg.Server.ListenAddress,
			"default_model", cfg.Upstream.DefaultModel,
			"metrics", cfg.Metrics.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// Scripted output served when the mock upstream is enabled.
const mockAPIKey = "mock"

var (
	mockFragments = []string{"This is a scripted reply ", "from the mock upstream."}
	mockSubtasks  = models.SubtaskList{"Outline the task", "Do the first step", "Review the result"}
)

// buildHandler wires the upstream factory, the two orchestrators and the
// HTTP routes.
func buildHandler(cfg config.Config, logger *slog.Logger) http.Handler {
	var (
		collector   *metrics.Collector
		metricsPath string
	)
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, prometheus.NewRegistry())
		metricsPath = cfg.Metrics.Path
	}

	var (
		factory *llm.Factory
		planner agents.Planner
	)
	if cfg.Upstream.Mock {
		upstream := cfg.Upstream
		if upstream.APIKey == "" {
			upstream.APIKey = mockAPIKey
		}
		factory = llm.NewFactory(upstream, llm.StaticConstructor(&llm.ScriptedClient{Fragments: mockFragments}, nil))
		planner = &agents.StaticPlanner{Steps: mockSubtasks}
	} else {
		factory = llm.NewFactory(cfg.Upstream, nil)
		planner = agents.NewSubtaskPlanner(factory, cfg.Upstream.DefaultModel, logger)
	}
	relay := orchestrator.New(factory, cfg.Upstream.DefaultModel, logger, collector)

	mux := http.NewServeMux()
	api.NewServer(relay, planner, logger, collector).RegisterRoutes(mux, metricsPath)
	return api.CORS(cfg.Server.AllowedOrigin, mux)
}
