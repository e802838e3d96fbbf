package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/RixhersAjazi/schedulemaker/core/metrics"
	"github.com/RixhersAjazi/schedulemaker/core/runlog"
	"github.com/RixhersAjazi/schedulemaker/infra/monitoring"
	"github.com/RixhersAjazi/schedulemaker/infra/mqtt"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, e.g.
// SM_SEARCH__MAX_RESULTS=50.
const EnvPrefix = "SM_"

type Config struct {
	Logging LoggingConfig     `json:"logging"`
	RunLog  runlog.Config     `json:"run_log"`
	Metrics metrics.Config    `json:"metrics"`
	Server  ServerConfig      `json:"server"`
	MQTT    mqtt.Config       `json:"mqtt"`
	Search  SearchConfig      `json:"search"`
	Sentry  monitoring.Config `json:"sentry"`
}

// Load reads the file at path, applies environment overrides, defaults and
// validation. An empty path loads the environment and defaults only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.RunLog.SetDefaults()
	c.Server.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"logging", c.Logging.Validate},
		{"run_log", c.RunLog.Validate},
		{"server", c.Server.Validate},
		{"mqtt", c.MQTT.Validate},
		{"search", c.Search.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}
