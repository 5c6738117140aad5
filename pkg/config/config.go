// Package config loads and validates the build configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Input, Output, Split, Tagger, Redis, Postgres, SQLite, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/compositional-split/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Split    SplitConfig    `yaml:"split"`
	Tagger   TaggerConfig   `yaml:"tagger"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Notify   NotifyConfig   `yaml:"notify"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InputConfig points at the caption corpus and the adjective vocabularies.
type InputConfig struct {
	CaptionPath string `yaml:"captionPath"`
	ColorsPath  string `yaml:"colorsPath"`
	ShapesPath  string `yaml:"shapesPath"`
}

// OutputConfig controls where artifacts are written. Files land in
// SavePath/CaptionType/Category.
type OutputConfig struct {
	SavePath    string `yaml:"savePath"`
	Dataset     string `yaml:"dataset"`
	Category    string `yaml:"category"`
	CaptionType string `yaml:"captionType"`
	WriteJSON   bool   `yaml:"writeJSON"`
}

// SplitConfig holds the sampling parameters of the split build.
type SplitConfig struct {
	Seed               uint64  `yaml:"seed"`
	BandLowPercentile  int     `yaml:"bandLowPercentile"`
	BandHighPercentile int     `yaml:"bandHighPercentile"`
	HeldoutDivisor     int     `yaml:"heldoutDivisor"`
	TopPairs           int     `yaml:"topPairs"`
	DominantPercentile float64 `yaml:"dominantPercentile"`
	AllCaptions        bool    `yaml:"allCaptions"`
}

// TaggerConfig selects and configures the part-of-speech tagger.
type TaggerConfig struct {
	Kind        string        `yaml:"kind"`
	CoNLLUPath  string        `yaml:"conlluPath"`
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"maxAttempts"`
	Memoize     bool          `yaml:"memoize"`
	LLM         LLMConfig     `yaml:"llm"`
}

// LLMConfig holds Anthropic API settings for the llm tagger.
type LLMConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// Tagger kinds.
const (
	TaggerLexicon = "lexicon"
	TaggerCoNLLU  = "conllu"
	TaggerRemote  = "remote"
	TaggerLLM     = "llm"
)

// RedisConfig holds Redis connection and tag-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig holds the path of the local SQLite sink.
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Captions string `yaml:"captions"`
	Runs     string `yaml:"runs"`
}

// NotifyConfig controls the run-summary notification.
type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slackWebhookUrl"`
}

// ScheduleConfig enables periodic rebuilds. An empty Cron runs once.
type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server and textfile dump.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Port         int    `yaml:"port"`
	TextfilePath string `yaml:"textfilePath"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "parsing config file %s: %v", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			CaptionPath: "id_captions.json",
			ColorsPath:  "colors.txt",
			ShapesPath:  "shapes.txt",
		},
		Output: OutputConfig{
			SavePath:    "./artifacts",
			Dataset:     "shapenet",
			Category:    "chair",
			CaptionType: "human_captions",
		},
		Split: SplitConfig{
			Seed:               1,
			BandLowPercentile:  25,
			BandHighPercentile: 75,
			HeldoutDivisor:     10,
			TopPairs:           100,
			DominantPercentile: 25,
		},
		Tagger: TaggerConfig{
			Kind:        TaggerLexicon,
			Timeout:     10 * time.Second,
			MaxAttempts: 3,
			Memoize:     true,
			LLM: LLMConfig{
				Model:     "claude-sonnet-4-5-20250929",
				MaxTokens: 2048,
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "compsplit",
			User:            "compsplit",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "compsplit.db",
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "compsplit-inspect",
			Topics: KafkaTopics{
				Captions: "compsplit.captions",
				Runs:     "compsplit.runs",
			},
		},
		Schedule: ScheduleConfig{
			Timezone: "UTC",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate checks cross-field constraints that YAML decoding cannot express.
func (c *Config) Validate() error {
	if c.Input.CaptionPath == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "input.captionPath is required")
	}
	if c.Output.SavePath == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "output.savePath is required")
	}
	if c.Output.Dataset != "shapenet" {
		return apperrors.Newf(apperrors.ErrInvalidInput, "unsupported dataset %q", c.Output.Dataset)
	}
	s := c.Split
	if s.BandLowPercentile < 0 || s.BandHighPercentile > 100 || s.BandLowPercentile > s.BandHighPercentile {
		return apperrors.Newf(apperrors.ErrInvalidInput, "invalid heldout band [%d, %d]", s.BandLowPercentile, s.BandHighPercentile)
	}
	if s.HeldoutDivisor <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "split.heldoutDivisor must be positive, got %d", s.HeldoutDivisor)
	}
	if s.TopPairs <= 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "split.topPairs must be positive, got %d", s.TopPairs)
	}
	if s.DominantPercentile < 0 || s.DominantPercentile > 100 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "split.dominantPercentile out of range: %v", s.DominantPercentile)
	}
	switch c.Tagger.Kind {
	case TaggerLexicon:
	case TaggerCoNLLU:
		if c.Tagger.CoNLLUPath == "" {
			return apperrors.New(apperrors.ErrInvalidInput, "tagger.conlluPath is required for the conllu tagger")
		}
	case TaggerRemote:
		if c.Tagger.Endpoint == "" {
			return apperrors.New(apperrors.ErrInvalidInput, "tagger.endpoint is required for the remote tagger")
		}
	case TaggerLLM:
		if c.Tagger.LLM.APIKey == "" {
			return apperrors.New(apperrors.ErrInvalidInput, "tagger.llm.apiKey is required for the llm tagger")
		}
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown tagger kind %q", c.Tagger.Kind)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return apperrors.New(apperrors.ErrInvalidInput, "kafka.brokers must not be empty when kafka is enabled")
	}
	return nil
}

// applyEnvOverrides reads CS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CS_CAPTION_PATH"); v != "" {
		cfg.Input.CaptionPath = v
	}
	if v := os.Getenv("CS_SAVE_PATH"); v != "" {
		cfg.Output.SavePath = v
	}
	if v := os.Getenv("CS_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Split.Seed = seed
		}
	}
	if v := os.Getenv("CS_TAGGER_KIND"); v != "" {
		cfg.Tagger.Kind = v
	}
	if v := os.Getenv("CS_TAGGER_ENDPOINT"); v != "" {
		cfg.Tagger.Endpoint = v
	}
	if v := os.Getenv("CS_ANTHROPIC_API_KEY"); v != "" {
		cfg.Tagger.LLM.APIKey = v
	}
	if v := os.Getenv("CS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CS_SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notify.SlackWebhookURL = v
	}
	if v := os.Getenv("CS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
