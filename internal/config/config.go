package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Extract  ExtractConfig  `toml:"extract"`
	Database DatabaseConfig `toml:"database"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	R2       R2Config       `toml:"r2"`
	LLM      LLMConfig      `toml:"llm"`
	Speech   SpeechConfig   `toml:"speech"`
}

type ServerConfig struct {
	Port           string `toml:"port"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
	Workers        int    `toml:"workers"`
}

type ExtractConfig struct {
	// PDF is one of "raw", "structured" or "auto".
	PDF string `toml:"pdf"`
}

type DatabaseConfig struct {
	URL string `toml:"url"`
}

type RabbitMQConfig struct {
	URL string `toml:"url"`
}

type R2Config struct {
	AccountID string `toml:"account_id"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
}

type LLMConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

type SpeechConfig struct {
	Enabled   bool     `toml:"enabled"`
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`
	QueueSize int      `toml:"queue_size"`
}

// Enabled reports whether any R2 field is set.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" || r.Bucket != "" || r.AccessKey != "" || r.SecretKey != ""
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:  ServerConfig{Port: "8080", MaxUploadBytes: 10 << 20, Workers: 3},
		Extract: ExtractConfig{PDF: "raw"},
		LLM:     LLMConfig{Model: "gemini-2.5-flash"},
		Speech:  SpeechConfig{QueueSize: 32},
	}
}

// Load reads config: defaults -> TOML file -> .env -> env vars (env wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = "interviewpro.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	envString(&cfg.Server.Port, "PORT")
	envString(&cfg.Extract.PDF, "PDF_EXTRACTOR")
	envString(&cfg.Database.URL, "DB_URL")
	envString(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	envString(&cfg.R2.AccountID, "R2_ACCCOUNT_ID")
	envString(&cfg.R2.AccountID, "R2_ACCOUNT_ID")
	envString(&cfg.R2.Bucket, "R2_BUCKET")
	envString(&cfg.R2.AccessKey, "R2_ACCESS_KEY")
	envString(&cfg.R2.SecretKey, "R2_SECRET_KEY")
	envString(&cfg.LLM.APIKey, "GOOGLE_API_KEY")
	envString(&cfg.LLM.Model, "LLM_MODEL")
	envString(&cfg.Speech.Command, "TTS_COMMAND")

	if err := envInt64(&cfg.Server.MaxUploadBytes, "MAX_UPLOAD_BYTES"); err != nil {
		return cfg, err
	}
	workers := int64(cfg.Server.Workers)
	if err := envInt64(&workers, "WORKERS"); err != nil {
		return cfg, err
	}
	cfg.Server.Workers = int(workers)

	if v := os.Getenv("TTS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("TTS_ENABLED: %w", err)
		}
		cfg.Speech.Enabled = b
	}

	return cfg, nil
}

// Validate checks settings that cannot be fixed with a default.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Extract.PDF) {
	case "raw", "structured", "auto":
	default:
		errs = append(errs, fmt.Errorf("unknown pdf extractor %q", c.Extract.PDF))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("empty server port"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max upload bytes must be positive"))
	}
	if c.Server.Workers <= 0 {
		errs = append(errs, errors.New("worker count must be positive"))
	}
	if c.R2.Enabled() {
		if c.R2.AccountID == "" || c.R2.Bucket == "" || c.R2.AccessKey == "" || c.R2.SecretKey == "" {
			errs = append(errs, errors.New("r2 needs account id, bucket, access key and secret key"))
		}
	}
	return errors.Join(errs...)
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
