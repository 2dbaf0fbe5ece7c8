package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the AIOps engine.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Store       StoreConfig       `yaml:"store"`
	Window      WindowConfig      `yaml:"window"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Remediation RemediationConfig `yaml:"remediation"`
	Bus         BusConfig         `yaml:"bus"`
}

// ServerConfig controls the metrics listener and shutdown behaviour.
type ServerConfig struct {
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// StoreConfig selects and configures the backing store. When Valkey is
// disabled the engine falls back to the in-memory provider, which is
// suitable for single-instance and test deployments only.
type StoreConfig struct {
	ValkeyEnabled bool          `yaml:"valkeyEnabled"`
	Addr          string        `yaml:"addr"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	DialTimeout   time.Duration `yaml:"dialTimeout"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	MaxRetries    int           `yaml:"maxRetries"`
	TLS           bool          `yaml:"tls"`
}

// WindowConfig bounds the per-key sample windows.
type WindowConfig struct {
	Capacity int `yaml:"capacity"`
}

// PipelineConfig tunes the evaluation pass.
type PipelineConfig struct {
	TrendWindow      int    `yaml:"trendWindow"`
	RemediationFloor string `yaml:"remediationFloor"`
}

// RemediationConfig controls action selection and dedupe.
type RemediationConfig struct {
	RulesPath string        `yaml:"rulesPath"`
	DedupeTTL time.Duration `yaml:"dedupeTTL"`
}

// BusConfig configures the NATS connection.
type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Queue   string `yaml:"queue"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("AIOPS_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Store: StoreConfig{
			ValkeyEnabled: false,
			DialTimeout:   2 * time.Second,
			ReadTimeout:   500 * time.Millisecond,
			WriteTimeout:  500 * time.Millisecond,
			MaxRetries:    2,
		},
		Window: WindowConfig{Capacity: 1000},
		Pipeline: PipelineConfig{
			TrendWindow:      5,
			RemediationFloor: "high",
		},
		Remediation: RemediationConfig{
			RulesPath: "configs/rules/default.yaml",
			DedupeTTL: 5 * time.Minute,
		},
		Bus: BusConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Queue:   "aiops-engine",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AIOPS_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("AIOPS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AIOPS_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("AIOPS_STORE_VALKEY_ENABLED"); v != "" {
		cfg.Store.ValkeyEnabled = isTruthy(v)
	}
	if v := os.Getenv("AIOPS_STORE_ADDR"); v != "" {
		cfg.Store.Addr = v
	}
	if v := os.Getenv("AIOPS_STORE_USERNAME"); v != "" {
		cfg.Store.Username = v
	}
	if v := os.Getenv("AIOPS_STORE_PASSWORD"); v != "" {
		cfg.Store.Password = v
	}
	if v := os.Getenv("AIOPS_STORE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Store.DB = db
		}
	}
	if v := os.Getenv("AIOPS_STORE_TLS"); isTruthy(v) {
		cfg.Store.TLS = true
	}
	if v := os.Getenv("AIOPS_STORE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.DialTimeout = d
		}
	}
	if v := os.Getenv("AIOPS_STORE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.ReadTimeout = d
		}
	}
	if v := os.Getenv("AIOPS_STORE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.WriteTimeout = d
		}
	}
	if v := os.Getenv("AIOPS_STORE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Store.MaxRetries = retry
		}
	}
	if v := os.Getenv("AIOPS_WINDOW_CAPACITY"); v != "" {
		if capacity, err := strconv.Atoi(v); err == nil && capacity > 0 {
			cfg.Window.Capacity = capacity
		}
	}
	if v := os.Getenv("AIOPS_PIPELINE_TREND_WINDOW"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			cfg.Pipeline.TrendWindow = w
		}
	}
	if v := os.Getenv("AIOPS_PIPELINE_REMEDIATION_FLOOR"); v != "" {
		cfg.Pipeline.RemediationFloor = v
	}
	if v := os.Getenv("AIOPS_REMEDIATION_RULES_PATH"); v != "" {
		cfg.Remediation.RulesPath = v
	}
	if v := os.Getenv("AIOPS_REMEDIATION_DEDUPE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Remediation.DedupeTTL = d
		}
	}
	if v := os.Getenv("AIOPS_BUS_ENABLED"); v != "" {
		cfg.Bus.Enabled = isTruthy(v)
	}
	if v := os.Getenv("AIOPS_BUS_URL"); v != "" {
		cfg.Bus.URL = v
	}
	if v := os.Getenv("AIOPS_BUS_QUEUE"); v != "" {
		cfg.Bus.Queue = v
	}
}

func isTruthy(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
}
