package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultEndpoint       = "http://localhost:8000"
	DefaultIdleDelay      = 3 * time.Second
	DefaultRequestTimeout = 2 * time.Minute
	DefaultGreeting       = "Hello! I'm Tech Mini-GPT powered by OpenRouter API. Ask me any tech questions!"
	DefaultListen         = "localhost:8000"
	DefaultServerBaseURL  = "https://openrouter.ai/api/v1"
	DefaultServerModel    = "openai/gpt-3.5-turbo"
)

// Duration lets TOML files spell delays as "3s" or "750ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Config is the persisted settings file schema.
type Config struct {
	Endpoint       string   `toml:"endpoint"`
	IdleDelay      Duration `toml:"idle_delay"`
	RequestTimeout Duration `toml:"request_timeout"`
	Greeting       string   `toml:"greeting"`
	LogFile        string   `toml:"log_file"`
	ArchiveFile    string   `toml:"archive_file"`
	Server         Server   `toml:"server"`

	Source string `toml:"-"`
}

// Server configures the reference backend.
type Server struct {
	Listen  string `toml:"listen"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

func Default() Config {
	return Config{
		Endpoint:       DefaultEndpoint,
		IdleDelay:      Duration{DefaultIdleDelay},
		RequestTimeout: Duration{DefaultRequestTimeout},
		Greeting:       DefaultGreeting,
		ArchiveFile:    defaultArchivePath(),
		Server: Server{
			Listen:  DefaultListen,
			BaseURL: DefaultServerBaseURL,
			Model:   DefaultServerModel,
		},
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".promptune", "config.toml")
}

func defaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "promptune-transcripts.json")
	}
	return filepath.Join(home, ".promptune", "transcripts.json")
}

// Load reads path (or DefaultPath when empty). A missing file yields the
// defaults; environment variables always win over file values.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	cfg.Source = path

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(content, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, err
		}
	}
	applyEnv(&cfg)
	cfg.fillBlanks()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if env := strings.TrimSpace(os.Getenv("PROMPTUNE_ENDPOINT")); env != "" {
		cfg.Endpoint = env
	}
	if env := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")); env != "" {
		cfg.Server.APIKey = env
	}
	if env := strings.TrimSpace(os.Getenv("PROMPTUNE_MODEL")); env != "" {
		cfg.Server.Model = env
	}
}

func (c *Config) fillBlanks() {
	def := Default()
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = def.Endpoint
	}
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	if c.Greeting == "" {
		c.Greeting = def.Greeting
	}
	if c.Server.Listen == "" {
		c.Server.Listen = def.Server.Listen
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = def.Server.BaseURL
	}
	if c.Server.Model == "" {
		c.Server.Model = def.Server.Model
	}
}

// Validate reports settings the client cannot run with.
func (c Config) Validate() error {
	if c.IdleDelay.Duration <= 0 {
		return fmt.Errorf("idle_delay must be positive, got %s", c.IdleDelay.Duration)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration)
	}
	parsed, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", c.Endpoint, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("endpoint %q must use http or https", c.Endpoint)
	}
	if parsed.Host == "" {
		return fmt.Errorf("endpoint %q has no host", c.Endpoint)
	}
	return nil
}
