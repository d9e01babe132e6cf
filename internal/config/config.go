// Package config resolves runtime settings from, in increasing precedence:
// an optional YAML file, .env files, and process environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v3"
)

// Duration accepts both "30s" strings and integer nanoseconds in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration for the CLI and the HTTP server.
type Config struct {
	OCR struct {
		Key     string   `yaml:"key"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"ocr"`

	LLM struct {
		Key     string   `yaml:"key"`
		BaseURL string   `yaml:"base"`
		Model   string   `yaml:"model"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Search struct {
		Key        string   `yaml:"key"`
		MaxResults int      `yaml:"maxResults"`
		Timeout    Duration `yaml:"timeout"`
	} `yaml:"search"`

	Chart struct {
		Endpoint string   `yaml:"endpoint"`
		Timeout  Duration `yaml:"timeout"`
	} `yaml:"chart"`

	Report struct {
		ConfidenceFloor float64 `yaml:"confidenceFloor"`
	} `yaml:"report"`

	Serve struct {
		Addr string `yaml:"addr"`
	} `yaml:"serve"`

	Verbose bool `yaml:"verbose"`
}

// Load builds the configuration. filePath may be empty; a missing .env file
// is not an error. Environment variables win over file values.
func Load(filePath string, envFiles ...string) (Config, error) {
	var cfg Config

	if filePath != "" {
		b, err := os.ReadFile(filePath)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	// godotenv only fills unset variables, so the real environment and
	// earlier files keep precedence.
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	applyEnv(&cfg)
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.OCR.Key, "OCR_SPACE_API_KEY")
	setString(&cfg.LLM.Key, "OPENAI_API_KEY")
	setString(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.Model, "OPENAI_MODEL")
	setString(&cfg.Search.Key, "SERPAPI_KEY")
	setString(&cfg.Chart.Endpoint, "CHART_ENDPOINT")
	setString(&cfg.Serve.Addr, "BIZDOC_ADDR")
}
