package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dgallion1/formulatag/internal/store"
	"github.com/dgallion1/formulatag/internal/vocab"
)

// EnvPrefix prefixes every environment override, e.g. FORMULATAG_PORT.
const EnvPrefix = "FORMULATAG_"

type Config struct {
	Port string `yaml:"port" koanf:"port"`

	// Annotation storage
	StoreBackend string `yaml:"store_backend" koanf:"store_backend"`
	StorePath    string `yaml:"store_path" koanf:"store_path"`

	// Paragraph review
	ParagraphDir string `yaml:"paragraph_dir" koanf:"paragraph_dir"`

	// Tag vocabulary; empty means the built-in one
	VocabularyFile string `yaml:"vocabulary_file" koanf:"vocabulary_file"`

	// Auth
	APIKey string `yaml:"api_key" koanf:"api_key"`

	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`

	// Upload limits
	MaxBodyBytes int64 `yaml:"max_body_bytes" koanf:"max_body_bytes"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" koanf:"shutdown_timeout"`

	// Batch pre-tagging
	PretagWorkers     int           `yaml:"pretag_workers" koanf:"pretag_workers"`
	PretagQueueSize   int           `yaml:"pretag_queue_size" koanf:"pretag_queue_size"`
	PretagConcurrency int           `yaml:"pretag_concurrency" koanf:"pretag_concurrency"`
	JobTTL            time.Duration `yaml:"job_ttl" koanf:"job_ttl"`

	// Client side
	ServerURL   string `yaml:"server_url" koanf:"server_url"`
	SaveRetries int    `yaml:"save_retries" koanf:"save_retries"`
}

// DefaultConfig uses the classic annotation server layout:
// annotations/{id}.json and a paragraphs/ directory next to it.
func DefaultConfig() *Config {
	return &Config{
		Port:            "8090",
		StoreBackend:    store.BackendFile,
		StorePath:       "annotations",
		ParagraphDir:    "paragraphs",
		AllowedOrigins:  []string{"*"},
		MaxBodyBytes:    1 << 20, // 1MB
		ShutdownTimeout: 30 * time.Second,

		PretagWorkers:     1,
		PretagQueueSize:   10,
		PretagConcurrency: 4,
		JobTTL:            time.Hour,

		ServerURL:   "http://localhost:8090",
		SaveRetries: 3,
	}
}

// Load reads configuration from the given YAML file, if it exists, then
// overlays FORMULATAG_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// FORMULATAG_STORE_BACKEND -> store_backend, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

var validBackends = map[string]bool{
	store.BackendFile:   true,
	store.BackendSQLite: true,
	store.BackendBadger: true,
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if !validBackends[c.StoreBackend] {
		return fmt.Errorf("invalid store_backend %q: must be one of file, sqlite, badger", c.StoreBackend)
	}
	if c.StorePath == "" {
		return fmt.Errorf("store_path is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	if c.PretagWorkers < 1 {
		return fmt.Errorf("pretag_workers must be at least 1")
	}
	if c.PretagQueueSize < 1 {
		return fmt.Errorf("pretag_queue_size must be at least 1")
	}
	if c.PretagConcurrency < 1 {
		return fmt.Errorf("pretag_concurrency must be at least 1")
	}
	if c.SaveRetries < 0 {
		return fmt.Errorf("save_retries must be non-negative")
	}
	return nil
}

// Vocabulary loads the configured tag vocabulary, or the built-in one.
func (c *Config) Vocabulary() (*vocab.Vocabulary, error) {
	if c.VocabularyFile == "" {
		return vocab.Default(), nil
	}
	return vocab.Load(c.VocabularyFile)
}
