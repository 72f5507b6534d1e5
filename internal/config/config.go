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

// Config captures the settings required to boot the agent.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Safety     SafetyConfig     `yaml:"safety"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// KubernetesConfig configures cluster access for the tool gateway.
type KubernetesConfig struct {
	Kubeconfig string        `yaml:"kubeconfig"`
	InCluster  bool          `yaml:"inCluster"`
	Namespace  string        `yaml:"namespace"`
	Timeout    time.Duration `yaml:"timeout"`
	Mock       bool          `yaml:"mock"`
}

// WorkflowConfig bounds the multi-agent conversation.
type WorkflowConfig struct {
	MaxMessages      int           `yaml:"maxMessages"`
	MaxTurns         int           `yaml:"maxTurns"`
	TerminationToken string        `yaml:"terminationToken"`
	TurnTimeout      time.Duration `yaml:"turnTimeout"`
}

// SafetyConfig guards action execution.
type SafetyConfig struct {
	DryRun               bool `yaml:"dryRun"`
	RequireHumanApproval bool `yaml:"requireHumanApproval"`
	MaxConcurrentActions int  `yaml:"maxConcurrentActions"`
}

// StoreConfig controls the decision audit trail. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls observation snapshot caching.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	SnapshotTTL time.Duration `yaml:"snapshotTTL"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SRE_AGENT_CONFIG")
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
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Kubernetes: KubernetesConfig{
			Namespace: "default",
			Timeout:   30 * time.Second,
		},
		Workflow: WorkflowConfig{
			MaxMessages:      20,
			MaxTurns:         10,
			TerminationToken: "TERMINATE",
			TurnTimeout:      60 * time.Second,
		},
		Safety: SafetyConfig{
			DryRun:               true,
			RequireHumanApproval: true,
			MaxConcurrentActions: 3,
		},
		Cache: CacheConfig{
			Enabled:     false,
			SnapshotTTL: 30 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SRE_AGENT_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SRE_AGENT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SRE_AGENT_KUBECONFIG"); v != "" {
		cfg.Kubernetes.Kubeconfig = v
	}
	if v := os.Getenv("SRE_AGENT_IN_CLUSTER"); v != "" {
		cfg.Kubernetes.InCluster = parseBool(v)
	}
	if v := os.Getenv("SRE_AGENT_NAMESPACE"); v != "" {
		cfg.Kubernetes.Namespace = v
	}
	if v := os.Getenv("SRE_AGENT_K8S_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Kubernetes.Timeout = d
		}
	}
	if v := os.Getenv("SRE_AGENT_MOCK_KUBERNETES"); v != "" {
		cfg.Kubernetes.Mock = parseBool(v)
	}
	if v := os.Getenv("SRE_AGENT_MAX_MESSAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.MaxMessages = n
		}
	}
	if v := os.Getenv("SRE_AGENT_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workflow.MaxTurns = n
		}
	}
	if v := os.Getenv("SRE_AGENT_TERMINATION_TOKEN"); v != "" {
		cfg.Workflow.TerminationToken = v
	}
	if v := os.Getenv("SRE_AGENT_TURN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Workflow.TurnTimeout = d
		}
	}
	if v := os.Getenv("SRE_AGENT_DRY_RUN"); v != "" {
		cfg.Safety.DryRun = parseBool(v)
	}
	if v := os.Getenv("SRE_AGENT_REQUIRE_HUMAN_APPROVAL"); v != "" {
		cfg.Safety.RequireHumanApproval = parseBool(v)
	}
	if v := os.Getenv("SRE_AGENT_MAX_CONCURRENT_ACTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Safety.MaxConcurrentActions = n
		}
	}
	if v := os.Getenv("SRE_AGENT_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SRE_AGENT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("SRE_AGENT_SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.SnapshotTTL = d
		}
	}
	if v := os.Getenv("SRE_AGENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SRE_AGENT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
}
