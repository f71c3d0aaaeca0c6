package bootstrap

import (
	"context"
	"net/http"
	"sync"
	"time"

	errnoop "diligence/internal/adapters/errors/noop"
	"diligence/internal/adapters/errors/sentry"

	"diligence/internal/adapters/ai"
	"diligence/internal/adapters/config"
	"diligence/internal/adapters/googledocs"
	pgclient "diligence/internal/adapters/postgres"
	redisclient "diligence/internal/adapters/redis"
	"diligence/internal/adapters/serper"
	slackclient "diligence/internal/adapters/slack"
	"diligence/internal/agents"
	"diligence/internal/metrics"
	pgrepo "diligence/internal/repository/postgres"
	redisrepo "diligence/internal/repository/redis"
	"diligence/internal/services/ingest"
	"diligence/internal/services/organizer"
	reportsvc "diligence/internal/services/report"
	"diligence/internal/services/research"
	"diligence/internal/workers"
	"diligence/pkg/errors"
	"diligence/pkg/logger"
	"diligence/pkg/templates"
)

// Container holds all application dependencies in initialization order.
// Postgres and Redis are optional: without them the pipeline still runs, it
// just loses run history and the fetch cache.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	PG    *pgclient.Client
	Redis *redisclient.Client

	Providers *ai.ProviderRegistry
	Generator *agents.Generator

	FetchCache *redisrepo.FetchCacheRepository
	Runs       *pgrepo.RunRepository

	Reader    *ingest.Reader
	Collector *ingest.Collector
	Organizer *organizer.Service
	Research  *research.Flow
	Report    *reportsvc.Service

	Scheduler     *workers.Scheduler
	metricsServer *http.Server

	WG      *sync.WaitGroup
	Context context.Context
	Cancel  context.CancelFunc
}

// NewContainer creates an empty dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		WG:      &sync.WaitGroup{},
		Context: ctx,
		Cancel:  cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitProviders()
	c.MustInitServices()
	c.MustInitBackground()
}

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled, using noop tracker")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnw("Failed to init sentry, falling back to noop tracker", "error", err)
		return errnoop.New()
	}

	log.Infow("Sentry error tracking enabled", "environment", cfg.ErrorTracking.Environment)
	return tracker
}

// MustInitInfrastructure initializes the optional data stores
func (c *Container) MustInitInfrastructure() {
	if c.Config.Postgres.Enabled() {
		pg, err := pgclient.NewClient(c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.PG = pg
		c.Log.Info("✓ PostgreSQL connected")
	} else {
		c.Log.Info("Postgres not configured, run history disabled")
	}

	rdb, err := redisclient.NewClient(c.Config.Redis)
	if err != nil {
		c.Log.Warnw("Redis unavailable, fetch cache disabled", "error", err)
	} else {
		c.Redis = rdb
		c.Log.Info("✓ Redis connected")
	}
}

// MustInitProviders registers the configured AI providers
func (c *Container) MustInitProviders() {
	cfg := c.Config.AI
	c.Providers = ai.NewProviderRegistry()

	if cfg.OpenAIKey != "" {
		limiter := ai.NewTokenBucketLimiter(ai.ProviderNameOpenAI, cfg.RequestsPerMinute, 5)
		provider := ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.RequestTimeout, limiter)
		if err := c.Providers.Register(provider); err != nil {
			c.Log.Fatalf("failed to register openai provider: %v", err)
		}
	}

	if cfg.GeminiKey != "" {
		limiter := ai.NewTokenBucketLimiter(ai.ProviderNameGoogle, cfg.RequestsPerMinute, 5)
		provider, err := ai.NewGoogleProvider(c.Context, cfg.GeminiKey, limiter)
		if err != nil {
			c.Log.Fatalf("failed to init google provider: %v", err)
		}
		if err := c.Providers.Register(provider); err != nil {
			c.Log.Fatalf("failed to register google provider: %v", err)
		}
	}

	chat, err := c.Providers.GetChat(cfg.DefaultProvider)
	if err != nil {
		c.Log.Fatalf("default AI provider %q not available: %v", cfg.DefaultProvider, err)
	}
	c.Generator = agents.NewGenerator(chat, cfg)
	c.Log.Infow("✓ AI providers ready",
		"default", cfg.DefaultProvider,
		"model", cfg.Model,
		"providers", len(c.Providers.List()))
}

// MustInitServices wires the pipeline services
func (c *Container) MustInitServices() {
	cfg := c.Config

	reader, err := ingest.NewReader(cfg.App.InputSourcesDir)
	if err != nil {
		c.Log.Fatalf("input sources dir: %v", err)
	}
	c.Reader = reader

	if c.Redis != nil {
		c.FetchCache = redisrepo.NewFetchCacheRepository(c.Redis.Client(), cfg.Redis.FetchCacheTTL)
	}
	if c.PG != nil {
		c.Runs = pgrepo.NewRunRepository(c.PG.DB())
	}

	docs := googledocs.NewClient(cfg.Google.FetchTimeout)
	slack := slackclient.NewClient(cfg.Slack.BotToken, cfg.Slack.MessageLimit, cfg.Slack.FetchTimeout)
	search := serper.NewClient(cfg.Serper.APIKey, int(cfg.Serper.RequestsPerMinute), cfg.Serper.Timeout)

	var cache ingest.FetchCache
	if c.FetchCache != nil {
		cache = c.FetchCache
	}
	c.Collector = ingest.NewCollector(docs, search, slack, cache)

	registry := templates.Get()
	c.Organizer = organizer.NewService(c.Generator, registry, cfg.Pipeline.OrganizerMaxIterations)

	var searcher research.Searcher
	var researchCache research.FetchCache
	if cfg.Serper.APIKey != "" {
		searcher = search
	}
	if c.FetchCache != nil {
		researchCache = c.FetchCache
	}
	c.Research = research.NewFlow(c.Generator, registry, searcher, researchCache, cfg.Pipeline)

	executor := reportsvc.NewExecutor(c.Research, cfg.Pipeline)
	assembler := reportsvc.NewAssembler(c.Generator, registry)
	writer := reportsvc.NewWriter(cfg.Report.OutputDir)

	var runs reportsvc.RunStore
	if c.Runs != nil {
		runs = c.Runs
	}
	c.Report = reportsvc.NewService(reader, c.Collector, c.Organizer, executor, assembler, writer, runs)
}

// MustInitBackground wires metrics and the worker scheduler
func (c *Container) MustInitBackground() {
	metrics.Init()

	c.Scheduler = workers.NewScheduler()
	if c.Config.Worker.Enabled {
		var locker workers.Locker
		if c.Redis != nil {
			locker = c.Redis
		}
		c.Scheduler.RegisterWorker(workers.NewReportWorker(
			c.Reader, c.Report, locker, c.Config.Worker.RegenerateEvery, true))
	}
}

// StartBackground starts the scheduler and the metrics endpoint
func (c *Container) StartBackground() error {
	if c.Config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		c.metricsServer = &http.Server{Addr: c.Config.Metrics.Addr, Handler: mux}

		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			c.Log.Infow("Metrics endpoint listening", "addr", c.Config.Metrics.Addr)
			if err := c.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				c.Log.Errorf("metrics server failed: %v", err)
			}
		}()
	}

	if len(c.Scheduler.GetWorkers()) > 0 {
		if err := c.Scheduler.Start(c.Context); err != nil {
			return errors.Wrap(err, "start worker scheduler")
		}
	}
	return nil
}

// Shutdown performs graceful shutdown in reverse initialization order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")
	c.Cancel()

	if c.Scheduler != nil && c.Scheduler.IsRunning() {
		if err := c.Scheduler.Stop(); err != nil {
			c.Log.Warnw("worker scheduler stop", "error", err)
		}
	}

	if c.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			c.Log.Warnw("metrics server shutdown", "error", err)
		}
	}

	c.WG.Wait()

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Log.Warnw("redis close", "error", err)
		}
	}
	if c.PG != nil {
		if err := c.PG.Close(); err != nil {
			c.Log.Warnw("postgres close", "error", err)
		}
	}
	if c.ErrorTracker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.ErrorTracker.Flush(ctx); err != nil {
			c.Log.Warnw("error tracker flush", "error", err)
		}
	}
	_ = logger.Sync()

	c.Log.Info("Shutdown complete")
}
