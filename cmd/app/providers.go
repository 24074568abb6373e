package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/codify/internal/domain/forecast"
	"github.com/yanqian/codify/internal/domain/recommendation"
	"github.com/yanqian/codify/internal/domain/region"
	"github.com/yanqian/codify/internal/infra/authtoken"
	"github.com/yanqian/codify/internal/infra/config"
	"github.com/yanqian/codify/internal/infra/kma"
	"github.com/yanqian/codify/internal/infra/llm/chatgpt"
	"github.com/yanqian/codify/internal/infra/reccache"
	"github.com/yanqian/codify/internal/infra/wardroberepo"
	"github.com/yanqian/codify/internal/infra/weatherstore"
	httpiface "github.com/yanqian/codify/internal/interface/http"
	"github.com/yanqian/codify/internal/scheduler"
	"github.com/yanqian/codify/pkg/metrics"
	"github.com/yanqian/codify/pkg/util"
)

// providePostgresPool returns a nil pool when no DSN is configured; callers
// fall back to in-memory adapters.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory adapters")
		return nil, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory adapters", "error", err)
		return nil, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory adapters", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory adapters", "error", err)
		pool.Close()
		return nil, noop
	}
	logger.Info("postgres enabled")
	return pool, pool.Close
}

func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}

func provideWeatherCache(pool *pgxpool.Pool, logger *slog.Logger) forecast.Cache {
	if pool == nil {
		return weatherstore.NewMemoryStore()
	}
	store := weatherstore.NewPostgresStore(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure weather schema, using memory cache", "error", err)
		return weatherstore.NewMemoryStore()
	}
	return store
}

func provideWardrobeRepository(pool *pgxpool.Pool) recommendation.WardrobeRepository {
	if pool == nil {
		return wardroberepo.NewMemoryRepository()
	}
	return wardroberepo.NewPostgresRepository(pool)
}

func provideRecommendationCache(cfg *config.Config, client valkey.Client) recommendation.Cache {
	if client == nil {
		return reccache.NewMemoryStore(cfg.Recommendation.CacheMaxEntries, cfg.Recommendation.CacheTTL)
	}
	return reccache.NewValkeyStore(client, cfg.Valkey.Prefix, cfg.Recommendation.CacheTTL)
}

func kmaConfig(cfg *config.Config, p config.ProviderConfig) kma.Config {
	b := cfg.Weather.Breaker
	return kma.Config{
		BaseURL:    p.BaseURL,
		ServiceKey: cfg.Weather.ServiceKey,
		Timeout:    cfg.Weather.Timeout,
		Breaker: kma.BreakerConfig{
			MaxRequests:      b.MaxRequests,
			Interval:         b.Interval,
			Timeout:          b.Timeout,
			FailureThreshold: b.FailureThreshold,
		},
	}
}

func windowConfig(name string, p config.ProviderConfig) forecast.WindowConfig {
	return forecast.WindowConfig{
		Name:         name,
		IssueHours:   p.IssueHours,
		Horizon:      forecast.Horizon{MinDays: p.MinDays, MaxDays: p.MaxDays},
		PublishDelay: p.PublishDelay,
	}
}

func gatewayConfig(cfg *config.Config, name string) forecast.GatewayConfig {
	r := cfg.Weather.Refresh
	return forecast.GatewayConfig{
		Name:           name,
		RequestTimeout: cfg.Weather.Timeout,
		Refresh: forecast.RefreshConfig{
			MaxAttempts: r.MaxAttempts,
			Backoff:     r.Backoff,
			Concurrency: r.Concurrency,
		},
	}
}

// provideForecastService builds the short- and mid-range gateways over the
// shared cache. Without a service key the service answers every lookup as
// unavailable.
func provideForecastService(cfg *config.Config, cache forecast.Cache, logger *slog.Logger) (*forecast.Service, error) {
	if strings.TrimSpace(cfg.Weather.ServiceKey) == "" {
		logger.Warn("weather service key not set, forecasts disabled")
		return forecast.NewService(nil, nil), nil
	}
	village, err := kma.NewVillageClient(kmaConfig(cfg, cfg.Weather.ShortRange), logger)
	if err != nil {
		return nil, err
	}
	midTa, err := kma.NewMidTaClient(kmaConfig(cfg, cfg.Weather.MidRange), logger)
	if err != nil {
		return nil, err
	}
	short := forecast.NewGateway(
		gatewayConfig(cfg, "short_range"),
		village,
		forecast.NewWindowSelector(windowConfig("short_range", cfg.Weather.ShortRange), util.KST),
		cache,
		logger,
	)
	mid := forecast.NewGateway(
		gatewayConfig(cfg, "mid_range"),
		midTa,
		forecast.NewWindowSelector(windowConfig("mid_range", cfg.Weather.MidRange), util.KST),
		cache,
		logger,
	)
	return forecast.NewService(short, mid), nil
}

func provideRefreshTargets(resolver *region.Resolver) []forecast.Target {
	return forecast.GridTargets(resolver.Locations())
}

func provideWeatherRefresher(svc *forecast.Service) httpiface.WeatherRefresher {
	if short := svc.Short(); short != nil {
		return short
	}
	return nil
}

func provideScheduler(cfg *config.Config, svc *forecast.Service, targets []forecast.Target, logger *slog.Logger) *scheduler.Scheduler {
	var refresher scheduler.Refresher
	if short := svc.Short(); short != nil {
		refresher = short
	}
	return scheduler.New(scheduler.Config{
		Enabled:  cfg.Weather.Refresh.Enabled,
		Schedule: cfg.Weather.Refresh.Schedule,
	}, refresher, targets, util.KST, logger)
}

// provideChatClient returns a nil client without an API key, which makes the
// recommender rank by rules only.
func provideChatClient(cfg *config.Config, logger *slog.Logger) (recommendation.ChatClient, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, using rule-based recommendations")
		return nil, nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideTokenCounter(cfg *config.Config) recommendation.TokenCounter {
	return metrics.NewTokenCounter(cfg.LLM.Model)
}

func provideRecommendationConfig(cfg *config.Config) recommendation.Config {
	return recommendation.Config{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Prompt:          cfg.Recommendation.Prompt,
		CandidateLimit:  cfg.Recommendation.CandidateLimit,
		DefaultCount:    cfg.Recommendation.DefaultCount,
		MaxPromptTokens: cfg.Recommendation.MaxPromptTokens,
	}
}

// provideTokenVerifier returns nil when no secret is configured, leaving the
// protected routes open.
func provideTokenVerifier(cfg *config.Config, logger *slog.Logger) (httpiface.TokenVerifier, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Warn("jwt secret not set, bearer auth disabled")
		return nil, nil
	}
	verifier, err := authtoken.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	return verifier, nil
}
