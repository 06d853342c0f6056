package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/martinemde/taskagent/agent"
	"github.com/martinemde/taskagent/config"
	"github.com/martinemde/taskagent/llm"
	"github.com/martinemde/taskagent/logging"
	"github.com/martinemde/taskagent/memory"
)

type rootOptions struct {
	configPath  string
	objective   string
	initialTask string
	model       string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "taskagent",
		Short: "Autonomous task loop driven by a language model",
		Long: `taskagent works toward a single objective by repeatedly executing the
next task with a language model, storing the result in vector memory,
creating follow-up tasks and reprioritizing the queue.

Settings come from an optional YAML file and the environment (OBJECTIVE,
INITIAL_TASK, OPENAI_API_KEY, OPENAI_API_MODEL, TABLE_NAME, ...). Flags
override both. The loop runs until interrupted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&opts.objective, "objective", "", "Objective to work toward (overrides OBJECTIVE)")
	cmd.Flags().StringVar(&opts.initialTask, "initial-task", "", "First task to execute (overrides INITIAL_TASK)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (overrides OPENAI_API_MODEL)")

	return cmd
}

// loadConfig loads and validates settings, applying flag overrides.
func loadConfig(opts rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.objective != "" {
		cfg.Objective = opts.objective
	}
	if opts.initialTask != "" {
		cfg.InitialTask = opts.initialTask
	}
	if opts.model != "" {
		cfg.LLM.Model = opts.model
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, opts rootOptions, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := newPrinter(stdout, !color.NoColor)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := agent.NewMetrics(reg)

	backend, err := llm.NewBackend(cfg.BackendConfig())
	if err != nil {
		return fmt.Errorf("creating llm backend: %w", err)
	}
	policy := llm.DefaultRetryPolicy()
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		metrics.RateLimited()
		out.Output(fmt.Sprintf("The OpenAI API rate limit has been exceeded. Waiting %s and trying again.", delay), agent.EventWarning)
	}
	client := llm.NewClient(backend, cfg.LLM.Model, llm.WithRetryPolicy(policy), llm.WithLogger(logger))

	embedder, err := memory.NewEmbedder(cfg.EmbedderConfig(),
		memory.WithErrorReporter(func(err error) { out.Output(err.Error(), agent.EventError) }),
		memory.WithEmbedderLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	store, err := memory.New(cfg.StoreConfig(), logger)
	if err != nil {
		return fmt.Errorf("creating memory store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing memory store", zap.Error(err))
		}
	}()

	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, reg, logger)
		defer stop()
	}

	orch := agent.NewOrchestrator(cfg.AgentConfig(), agent.Deps{
		LLM:      client,
		Embedder: embedder,
		Store:    store,
		Output:   out.Output,
		Logger:   logger,
		Metrics:  metrics,
	})

	err = orch.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("task loop stopped", zap.Int("counter", orch.Counter()))
		return nil
	}
	return err
}

// serveMetrics exposes reg on /metrics until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics endpoint shutdown", zap.Error(err))
		}
	}
}
