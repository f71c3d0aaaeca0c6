package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"diligence/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	AI            AIConfig
	Google        GoogleConfig
	Slack         SlackConfig
	Serper        SerperConfig
	Pipeline      PipelineConfig
	Report        ReportConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
	Worker        WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"diligence"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	// Directory with per-company input source JSON files
	InputSourcesDir string `envconfig:"INPUT_SOURCES_DIR" default:"input_sources"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"diligence"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

// Enabled reports whether run-history persistence is configured.
func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`

	// TTL for memoized fetch results; source content is assumed stable per key
	FetchCacheTTL time.Duration `envconfig:"REDIS_FETCH_CACHE_TTL" default:"168h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
	Model           string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	Temperature     float64       `envconfig:"AI_TEMPERATURE" default:"0"`
	MaxTokens       int           `envconfig:"AI_MAX_TOKENS" default:"4096"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"120s"`

	// Client-side throttle for generation calls
	RequestsPerMinute float64 `envconfig:"AI_REQUESTS_PER_MINUTE" default:"60"`
}

type GoogleConfig struct {
	// Timeout for Google Docs/Sheets export fetches
	FetchTimeout time.Duration `envconfig:"GOOGLE_FETCH_TIMEOUT" default:"30s"`
}

type SlackConfig struct {
	BotToken     string        `envconfig:"SLACK_BOT_TOKEN"`
	MessageLimit int           `envconfig:"SLACK_MESSAGE_LIMIT" default:"500"`
	FetchTimeout time.Duration `envconfig:"SLACK_FETCH_TIMEOUT" default:"30s"`
}

type SerperConfig struct {
	APIKey            string        `envconfig:"SERPER_API_KEY"`
	RequestsPerMinute float64       `envconfig:"SERPER_REQUESTS_PER_MINUTE" default:"60"`
	Timeout           time.Duration `envconfig:"SERPER_TIMEOUT" default:"20s"`
}

// PipelineConfig tunes the organize loop and the batched research executor.
type PipelineConfig struct {
	// Organize-and-validate loop iteration ceiling
	OrganizerMaxIterations int `envconfig:"PIPELINE_ORGANIZER_MAX_ITERATIONS" default:"3"`

	// Research fan-out admission control
	BatchSize  int           `envconfig:"PIPELINE_BATCH_SIZE" default:"2"`
	BatchDelay time.Duration `envconfig:"PIPELINE_BATCH_DELAY" default:"5s"`

	// Discover-step knobs
	NumSearchTerms      int `envconfig:"PIPELINE_NUM_SEARCH_TERMS" default:"5"`
	NumCandidateSources int `envconfig:"PIPELINE_NUM_CANDIDATE_SOURCES" default:"10"`
}

type ReportConfig struct {
	OutputDir string `envconfig:"REPORT_OUTPUT_DIR" default:"task_outputs"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// WorkerConfig controls daemon-mode periodic regeneration.
type WorkerConfig struct {
	Enabled         bool          `envconfig:"WORKER_ENABLED" default:"false"`
	RegenerateEvery time.Duration `envconfig:"WORKER_REGENERATE_INTERVAL" default:"24h"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that envconfig tags cannot express.
func (c *Config) Validate() error {
	if c.Pipeline.BatchSize < 1 {
		return errors.NewValidationError("PIPELINE_BATCH_SIZE", "must be >= 1", c.Pipeline.BatchSize)
	}
	if c.Pipeline.OrganizerMaxIterations < 1 {
		return errors.NewValidationError("PIPELINE_ORGANIZER_MAX_ITERATIONS", "must be >= 1", c.Pipeline.OrganizerMaxIterations)
	}
	if c.Pipeline.BatchDelay < 0 {
		return errors.NewValidationError("PIPELINE_BATCH_DELAY", "must not be negative", c.Pipeline.BatchDelay)
	}
	return nil
}
