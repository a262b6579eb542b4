// Package config loads the podplan configuration from a YAML or JSON file
// with PODPLAN_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/podplan/core/factory"
	"github.com/kilianp07/podplan/core/metrics"
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/infra/logger"
	"github.com/kilianp07/podplan/infra/monitoring"
)

// EnvPrefix marks environment overrides. PODPLAN_BATCH__WORKERS=4 sets
// batch.workers.
const EnvPrefix = "PODPLAN_"

type Config struct {
	Input       InputConfig             `json:"input"`
	Model       ModelConfig             `json:"model"`
	Batch       BatchConfig             `json:"batch"`
	Solver      factory.ModuleConfig    `json:"solver"`
	Output      OutputConfig            `json:"output"`
	Results     ResultsConfig           `json:"results"`
	Aggregate   AggregateConfig         `json:"aggregate"`
	Calibration CalibrationConfig       `json:"calibration"`
	Metrics     metrics.Config          `json:"metrics"`
	Logging     logger.Config           `json:"logging"`
	Sentry      monitoring.SentryConfig `json:"sentry"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: unsupported config format: %s", model.ErrConfig, ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfig, err)
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfig, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	c.Input.SetDefaults()
	c.Model.SetDefaults()
	c.Batch.SetDefaults()
	if c.Solver.Type == "" {
		c.Solver.Type = DefaultSolver
	}
	c.Output.SetDefaults()
	c.Aggregate.SetDefaults(c.Output.Dir)
	c.Calibration.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and joins the failures. Each failure wraps
// model.ErrConfig.
func (c *Config) Validate() error {
	var errs []error
	for _, err := range []error{
		c.Input.Validate(),
		c.Model.Validate(),
		c.Batch.Validate(),
		c.Aggregate.Validate(),
		c.Calibration.Validate(),
		wrap("logging", c.Logging.Validate()),
		wrap("sentry", c.Sentry.Validate()),
	} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func wrap(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", model.ErrConfig, section, err)
}
