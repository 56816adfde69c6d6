// Command apiserver runs the annotation HTTP API: document sessions,
// generation passes, manual annotations, and export.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annolens/annolens/internal/analysis"
	"github.com/annolens/annolens/internal/analysis/llm"
	"github.com/annolens/annolens/internal/application/document"
	"github.com/annolens/annolens/internal/config"
	"github.com/annolens/annolens/internal/domain/annotation"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/logging"
	"github.com/annolens/annolens/internal/infrastructure/monitoring/prometheus"
	memstore "github.com/annolens/annolens/internal/infrastructure/store/memory"
	redisstore "github.com/annolens/annolens/internal/infrastructure/store/redis"
	httpapi "github.com/annolens/annolens/internal/interfaces/http"
	"github.com/annolens/annolens/internal/interfaces/http/handlers"
	"github.com/annolens/annolens/internal/interfaces/http/middleware"
	"github.com/annolens/annolens/internal/pipeline"
)

// Injected via ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.Named("apiserver")

	metrics := prometheus.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store backend.
	var store annotation.Store
	var checkers []handlers.HealthChecker
	if cfg.Store.Backend == "redis" {
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		rs := redisstore.New(client, logger,
			redisstore.WithKeyPrefix(cfg.Redis.KeyPrefix),
			redisstore.WithMetrics(metrics))
		store = rs
		checkers = append(checkers, &redisHealthAdapter{store: rs})
	} else {
		logger.Warn("using in-memory store; annotations will not survive restarts")
		store = memstore.New()
	}

	// Analysis adapters.  Without a proxy URL only the local detectors run;
	// fact-check is unavailable in that mode.
	var client *llm.Client
	if cfg.Analysis.ProxyURL != "" {
		client = llm.NewClient(cfg.Analysis.ProxyURL,
			llm.WithTimeout(cfg.Analysis.Timeout),
			llm.WithUserAgent(cfg.Analysis.UserAgent),
			llm.WithMetrics(metrics))
	}
	adapters := []analysis.Adapter{
		analysis.NewComplexityAdapter(client),
		analysis.NewSummaryAdapter(),
	}
	if client != nil {
		adapters = append(adapters,
			analysis.NewAILikenessAdapter(client),
			analysis.NewFactualAdapter(client))
	}

	policy, err := pipeline.ParsePolicy(cfg.Pipeline.Policy)
	if err != nil {
		return err
	}
	caps := pipeline.Caps{
		ComplexWords:  cfg.Pipeline.MaxComplexWords,
		LongSentences: cfg.Pipeline.MaxLongSentences,
		FactualClaims: cfg.Pipeline.MaxFactualClaims,
		AIPatterns:    cfg.Pipeline.MaxAIPatterns,
	}
	pipeOpts := []pipeline.Option{
		pipeline.WithPolicy(policy),
		pipeline.WithCaps(caps),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	}
	pipe := pipeline.New(adapters, pipeOpts...)

	svcOpts := []document.Option{document.WithMetrics(metrics)}
	if client != nil {
		factPipe := pipeline.New(
			[]analysis.Adapter{analysis.NewFactualAdapter(client)},
			pipeOpts...)
		svcOpts = append(svcOpts, document.WithFactCheckPipeline(factPipe))
	}
	svc := document.NewService(store, pipe, logger, svcOpts...)

	// Router.
	routerCfg := httpapi.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(svc),
		AnalyzeHandler:  handlers.NewAnalyzeHandler(adapters, pipeOpts...),
		HealthHandler:   handlers.NewHealthHandler(version, checkers...),
		Logger:          logger,
		Metrics:         metrics,
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = cfg.Server.CORSOrigins
		routerCfg.CORS = &corsCfg
	}
	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewTokenBucketLimiter(
			cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, 5*time.Minute)
		defer limiter.Stop()
		routerCfg.RateLimit = limiter
	}

	server := httpapi.NewServer(cfg.Server, httpapi.NewRouter(routerCfg), logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			logging.Int("port", cfg.Server.Port),
			logging.String("store", cfg.Store.Backend),
			logging.String("policy", string(policy)),
			logging.String("version", version))
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}
