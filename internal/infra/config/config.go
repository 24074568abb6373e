package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	LLM            LLMConfig            `yaml:"llm"`
	Auth           AuthConfig           `yaml:"auth"`
	Postgres       PostgresConfig       `yaml:"postgres"`
	Valkey         ValkeyConfig         `yaml:"valkey"`
	Weather        WeatherConfig        `yaml:"weather"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig contains ChatGPT/OpenAI settings.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"maxTokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AuthConfig enables bearer token checks when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// WeatherConfig covers the forecast providers and the warm-up job.
type WeatherConfig struct {
	ServiceKey string         `yaml:"serviceKey"`
	Timeout    time.Duration  `yaml:"timeout"`
	Breaker    BreakerConfig  `yaml:"breaker"`
	ShortRange ProviderConfig `yaml:"shortRange"`
	MidRange   ProviderConfig `yaml:"midRange"`
	Refresh    RefreshConfig  `yaml:"refresh"`
}

// BreakerConfig tunes the circuit breaker around provider calls.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
}

// ProviderConfig describes one forecast endpoint and its issue schedule.
type ProviderConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	IssueHours   []int         `yaml:"issueHours"`
	MinDays      int           `yaml:"minDays"`
	MaxDays      int           `yaml:"maxDays"`
	PublishDelay time.Duration `yaml:"publishDelay"`
}

// RefreshConfig controls the bulk warm-up.
type RefreshConfig struct {
	Enabled     bool            `yaml:"enabled"`
	Schedule    string          `yaml:"schedule"`
	MaxAttempts int             `yaml:"maxAttempts"`
	Backoff     []time.Duration `yaml:"backoff"`
	Concurrency int             `yaml:"concurrency"`
}

// RecommendationConfig controls candidate generation and the result cache.
type RecommendationConfig struct {
	CandidateLimit  int           `yaml:"candidateLimit"`
	DefaultCount    int           `yaml:"defaultCount"`
	CacheMaxEntries int           `yaml:"cacheMaxEntries"`
	CacheTTL        time.Duration `yaml:"cacheTtl"`
	Prompt          string        `yaml:"prompt"`
	MaxPromptTokens int           `yaml:"maxPromptTokens"`
}

// Load reads configuration from .env, a YAML file and environment variables,
// in increasing order of precedence.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")

	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	if v := os.Getenv("POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.MinConns = int32(parsed)
		}
	}

	setBool(&cfg.Valkey.Enabled, "VALKEY_ENABLED")
	setString(&cfg.Valkey.Addr, "VALKEY_ADDR")

	setString(&cfg.Weather.ServiceKey, "KMA_SERVICE_KEY")
	setDuration(&cfg.Weather.Timeout, "KMA_TIMEOUT")
	setString(&cfg.Weather.ShortRange.BaseURL, "KMA_SHORT_RANGE_URL")
	setString(&cfg.Weather.MidRange.BaseURL, "KMA_MID_RANGE_URL")
	setBool(&cfg.Weather.Refresh.Enabled, "WEATHER_REFRESH_ENABLED")
	setString(&cfg.Weather.Refresh.Schedule, "WEATHER_REFRESH_SCHEDULE")
	setInt(&cfg.Weather.Refresh.MaxAttempts, "WEATHER_REFRESH_MAX_ATTEMPTS")
	setInt(&cfg.Weather.Refresh.Concurrency, "WEATHER_REFRESH_CONCURRENCY")
	if v := os.Getenv("WEATHER_REFRESH_BACKOFF"); v != "" {
		var backoff []time.Duration
		for _, part := range splitList(v) {
			if d, err := time.ParseDuration(part); err == nil {
				backoff = append(backoff, d)
			}
		}
		if len(backoff) > 0 {
			cfg.Weather.Refresh.Backoff = backoff
		}
	}

	setInt(&cfg.Recommendation.CandidateLimit, "RECOMMENDATION_CANDIDATE_LIMIT")
	setInt(&cfg.Recommendation.DefaultCount, "RECOMMENDATION_DEFAULT_COUNT")
	setInt(&cfg.Recommendation.CacheMaxEntries, "RECOMMENDATION_CACHE_MAX_ENTRIES")
	setDuration(&cfg.Recommendation.CacheTTL, "RECOMMENDATION_CACHE_TTL")
	setString(&cfg.Recommendation.Prompt, "RECOMMENDATION_PROMPT")
	setInt(&cfg.Recommendation.MaxPromptTokens, "RECOMMENDATION_MAX_PROMPT_TOKENS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/weather/refresh",
				},
			},
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.4,
			MaxTokens:   800,
			Timeout:     30 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxConns: 4,
		},
		Valkey: ValkeyConfig{
			Prefix: "codify",
		},
		Weather: WeatherConfig{
			Timeout: 10 * time.Second,
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          time.Minute,
				FailureThreshold: 5,
			},
			ShortRange: ProviderConfig{
				IssueHours:   []int{2},
				MinDays:      0,
				MaxDays:      2,
				PublishDelay: 10 * time.Minute,
			},
			MidRange: ProviderConfig{
				IssueHours:   []int{6, 18},
				MinDays:      3,
				MaxDays:      10,
				PublishDelay: 30 * time.Minute,
			},
			Refresh: RefreshConfig{
				Enabled:     true,
				Schedule:    "15 2 * * *",
				MaxAttempts: 3,
				Backoff:     []time.Duration{time.Second, 3 * time.Second},
				Concurrency: 4,
			},
		},
		Recommendation: RecommendationConfig{
			CandidateLimit:  10,
			DefaultCount:    1,
			CacheMaxEntries: 256,
			CacheTTL:        6 * time.Hour,
			Prompt:          "You are a personal stylist who picks outfits from the user's own wardrobe, taking the weather and the occasion into account.",
			MaxPromptTokens: 3000,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Valkey.Enabled && strings.TrimSpace(c.Valkey.Addr) == "" {
		return errors.New("valkey.addr cannot be empty when valkey is enabled")
	}
	for name, p := range map[string]ProviderConfig{"shortRange": c.Weather.ShortRange, "midRange": c.Weather.MidRange} {
		if len(p.IssueHours) == 0 {
			return fmt.Errorf("weather.%s.issueHours cannot be empty", name)
		}
		for _, h := range p.IssueHours {
			if h < 0 || h > 23 {
				return fmt.Errorf("weather.%s.issueHours must be within 0-23", name)
			}
		}
		if p.MinDays < 0 || p.MaxDays < p.MinDays {
			return fmt.Errorf("weather.%s horizon is invalid", name)
		}
		if p.PublishDelay < 0 {
			return fmt.Errorf("weather.%s.publishDelay cannot be negative", name)
		}
	}
	if c.Weather.Refresh.MaxAttempts <= 0 {
		return errors.New("weather.refresh.maxAttempts must be positive")
	}
	if c.Weather.Refresh.Concurrency <= 0 {
		return errors.New("weather.refresh.concurrency must be positive")
	}
	for _, d := range c.Weather.Refresh.Backoff {
		if d < 0 {
			return errors.New("weather.refresh.backoff cannot contain negative durations")
		}
	}
	if c.Weather.Refresh.Enabled && strings.TrimSpace(c.Weather.Refresh.Schedule) == "" {
		return errors.New("weather.refresh.schedule cannot be empty when refresh is enabled")
	}
	if c.Recommendation.CandidateLimit <= 0 {
		return errors.New("recommendation.candidateLimit must be positive")
	}
	if c.Recommendation.DefaultCount <= 0 || c.Recommendation.DefaultCount > c.Recommendation.CandidateLimit {
		return errors.New("recommendation.defaultCount must be between 1 and candidateLimit")
	}
	if c.Recommendation.CacheMaxEntries < 0 {
		return errors.New("recommendation.cacheMaxEntries cannot be negative")
	}
	if c.Recommendation.CacheTTL < 0 {
		return errors.New("recommendation.cacheTtl cannot be negative")
	}
	return nil
}
