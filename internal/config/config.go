package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/WagnerMushayija/momo-summative/internal/logging"
)

// Sink backends.
const (
	SinkFile = "file"
	SinkGCS  = "gcs"
	SinkAMQP = "amqp"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Sink     SinkConfig     `mapstructure:"sink"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// PipelineConfig tunes classification and extraction.
type PipelineConfig struct {
	Workers       int    `mapstructure:"workers"`
	OutputDir     string `mapstructure:"output_dir"`
	Currency      string `mapstructure:"currency"`
	Timezone      string `mapstructure:"timezone"`
	DefaultParty  string `mapstructure:"default_party"`
	SnippetLength int    `mapstructure:"snippet_length"`
}

// Location resolves Timezone.
func (p PipelineConfig) Location() (*time.Location, error) {
	if p.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// SinkConfig selects where category documents go.
type SinkConfig struct {
	Backend string     `mapstructure:"backend"`
	GCS     GCSConfig  `mapstructure:"gcs"`
	AMQP    AMQPConfig `mapstructure:"amqp"`
}

// GCSConfig points at a bucket prefix.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// URI renders the gs:// location.
func (g GCSConfig) URI() string {
	prefix := strings.Trim(g.Prefix, "/")
	if prefix == "" {
		return "gs://" + g.Bucket
	}
	return "gs://" + g.Bucket + "/" + prefix
}

// AMQPConfig covers RabbitMQ publishing.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// DatabaseConfig encapsulates the downstream transaction store.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// NotifyConfig groups run report channels.
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram bot used for run reports.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WatchConfig governs the inbox polling loop.
type WatchConfig struct {
	Inbox           string        `mapstructure:"inbox"`
	Archive         string        `mapstructure:"archive"`
	Interval        time.Duration `mapstructure:"interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
	// AdvisoryLockKey serialises inbox scans across instances sharing a
	// Postgres store. Zero disables locking.
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// ExportConfig sets summary export behaviour.
type ExportConfig struct {
	ChartWidth  int `mapstructure:"chart_width"`
	ChartHeight int `mapstructure:"chart_height"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MOMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "momo")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("pipeline.workers", runtime.NumCPU())
	v.SetDefault("pipeline.output_dir", "output")
	v.SetDefault("pipeline.currency", "RWF")
	v.SetDefault("pipeline.timezone", "UTC")
	v.SetDefault("pipeline.default_party", "Momo Balance")
	v.SetDefault("pipeline.snippet_length", 100)

	v.SetDefault("sink.backend", SinkFile)
	v.SetDefault("sink.amqp.exchange", "momo.transactions")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("notify.telegram.timeout", "10s")

	v.SetDefault("watch.inbox", "inbox")
	v.SetDefault("watch.archive", "archive")
	v.SetDefault("watch.interval", "1m")
	v.SetDefault("watch.startup_delay", "0s")
	v.SetDefault("watch.advisory_lock_key", int64(0x6d6f6d6f))

	v.SetDefault("export.chart_width", 1200)
	v.SetDefault("export.chart_height", 600)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be greater than zero")
	}
	if c.Pipeline.SnippetLength <= 0 {
		return fmt.Errorf("pipeline.snippet_length must be greater than zero")
	}
	if strings.TrimSpace(c.Pipeline.Currency) == "" {
		return fmt.Errorf("pipeline.currency is required")
	}
	if _, err := c.Pipeline.Location(); err != nil {
		return err
	}

	switch c.Sink.Backend {
	case SinkFile:
		if c.Pipeline.OutputDir == "" {
			return fmt.Errorf("pipeline.output_dir is required for the file sink")
		}
	case SinkGCS:
		if c.Sink.GCS.Bucket == "" {
			return fmt.Errorf("sink.gcs.bucket is required for the gcs sink")
		}
	case SinkAMQP:
		if c.Sink.AMQP.URL == "" {
			return fmt.Errorf("sink.amqp.url is required for the amqp sink")
		}
		if c.Sink.AMQP.Exchange == "" {
			return fmt.Errorf("sink.amqp.exchange is required for the amqp sink")
		}
	default:
		return fmt.Errorf("sink.backend must be one of %s, %s, %s (got %q)", SinkFile, SinkGCS, SinkAMQP, c.Sink.Backend)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %s or %s (got %q)", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.Export.ChartWidth <= 0 || c.Export.ChartHeight <= 0 {
		return fmt.Errorf("export chart dimensions must be greater than zero")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ResolveWorkers returns either the CLI override or config default.
func (c *Config) ResolveWorkers(override int) int {
	if override > 0 {
		return override
	}
	return c.Pipeline.Workers
}
