package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"firewall-updater/internal/support"
)

type Config struct {
	BlocklistURL string `yaml:"blocklist_url"`
	ProjectID    string `yaml:"project_id"`
	FirewallRule string `yaml:"firewall_rule"`

	Port           int           `yaml:"port"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// TriggerSecret enables bearer token checks on the trigger endpoint when set.
	TriggerSecret string `yaml:"trigger_secret"`

	// ComputeEndpoint overrides the compute API base URL (emulators, tests).
	ComputeEndpoint string `yaml:"compute_endpoint"`

	LogLevel string `yaml:"log_level"`
}

//go:embed default_settings.yaml
var defaultConfig []byte

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfig, &cfg); err != nil {
		panic(fmt.Sprintf("config: invalid embedded defaults: %v", err))
	}
	return cfg
}

// Load layers the built-in defaults, the optional settings file at path and
// the process environment, in that order, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse settings file %s: %w", path, err)
		}
		log.Debug("Settings file loaded", "path", path)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.BlocklistURL = support.FirstEnv(cfg.BlocklistURL, "BLOCKLIST_URL")
	cfg.ProjectID = support.FirstEnv(cfg.ProjectID, "PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	cfg.FirewallRule = support.FirstEnv(cfg.FirewallRule, "FIREWALL_RULE_NAME")
	cfg.Port = support.GetEnvInt("PORT", cfg.Port)
	cfg.FetchTimeout = support.GetEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.RequestTimeout = support.GetEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.TriggerSecret = support.GetEnv("TRIGGER_SECRET", cfg.TriggerSecret)
	cfg.ComputeEndpoint = support.FirstEnv(cfg.ComputeEndpoint, "COMPUTE_ENDPOINT")
	cfg.LogLevel = support.FirstEnv(cfg.LogLevel, "LOG_LEVEL")
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BlocklistURL) == "" {
		errs = append(errs, errors.New("config: blocklist url is required"))
	}
	if strings.TrimSpace(c.ProjectID) == "" {
		errs = append(errs, errors.New("config: project id is required"))
	}
	if strings.TrimSpace(c.FirewallRule) == "" {
		errs = append(errs, errors.New("config: firewall rule name is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: invalid port %d", c.Port))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("config: fetch timeout must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("config: request timeout must be positive"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: log level: %w", err))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
