package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	S3     S3Config
	OCR    OCRConfig
	Parser ParserConfig
	Queue  QueueConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// OCRConfig holds settings for the external OCR binaries.
type OCRConfig struct {
	Tesseract   string `mapstructure:"tesseract"`
	Pdftoppm    string `mapstructure:"pdftoppm"`
	Language    string `mapstructure:"language"`
	DPI         int    `mapstructure:"dpi"`
	MaxPages    int    `mapstructure:"max_pages"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ParserProviderConfig holds settings for a single LLM extraction provider.
type ParserProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Model       string `mapstructure:"model"`
	MaxRetries  int    `mapstructure:"max_retries"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds LLM extraction settings with multi-provider support.
type ParserConfig struct {
	Primary         ParserProviderConfig `mapstructure:"primary"`
	Secondary       ParserProviderConfig `mapstructure:"secondary"`
	ConsistencyRuns int                  `mapstructure:"consistency_runs"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// QueueConfig holds extraction queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	Concurrency      int `mapstructure:"concurrency"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the DOCSENSE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	})

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docsense")
	v.SetDefault("db.password", "docsense_secret")
	v.SetDefault("db.name", "docsense_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docsense-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.max_file_size_mb", 25)

	// OCR defaults
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.pdftoppm", "pdftoppm")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.dpi", 200)
	v.SetDefault("ocr.max_pages", 0)
	v.SetDefault("ocr.timeout_secs", 120)

	// Parser defaults
	v.SetDefault("parser.primary.provider", "openai")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("parser.primary.model", "openai/gpt-4o-mini")
	v.SetDefault("parser.primary.max_retries", 3)
	v.SetDefault("parser.primary.timeout_secs", 120)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.consistency_runs", 3)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 5)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.concurrency", 2)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
