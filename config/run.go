package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/podplan/core/capacity"
	"github.com/kilianp07/podplan/core/explorer"
	"github.com/kilianp07/podplan/core/formulation"
	"github.com/kilianp07/podplan/core/model"
)

// DefaultSolver is the backend used when solver.type is empty.
const DefaultSolver = "bnb"

// ModelConfig holds the formulation parameters.
type ModelConfig struct {
	MaxOpen int `json:"max_open"`
	// Rho is a pointer because 0 is a meaningful deviation limit.
	Rho              *float64 `json:"rho"`
	Epsilon          float64  `json:"epsilon"`
	CapacityFactor   float64  `json:"capacity_factor"`
	TimeLimitSeconds float64  `json:"time_limit_seconds"`
}

// SetDefaults applies the reference parameters.
func (c *ModelConfig) SetDefaults() {
	if c.MaxOpen == 0 {
		c.MaxOpen = formulation.DefaultMaxOpen
	}
	if c.Rho == nil {
		rho := formulation.DefaultRho
		c.Rho = &rho
	}
	if c.CapacityFactor == 0 {
		c.CapacityFactor = capacity.DefaultFactor
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = formulation.DefaultTimeLimit.Seconds()
	}
}

// Params converts the section to formulation parameters.
func (c ModelConfig) Params() formulation.Params {
	p := formulation.DefaultParams()
	p.MaxOpen = c.MaxOpen
	p.Epsilon = c.Epsilon
	if c.Rho != nil {
		p.Rho = *c.Rho
	}
	p.TimeLimit = time.Duration(c.TimeLimitSeconds * float64(time.Second))
	return p
}

// Validate checks the formulation parameters and the capacity factor.
func (c ModelConfig) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.CapacityFactor <= 0 {
		return fmt.Errorf("%w: model.capacity_factor must be positive, got %g", model.ErrConfig, c.CapacityFactor)
	}
	return nil
}

// BatchConfig selects which scenario subsets are solved.
type BatchConfig struct {
	ScenarioCount int  `json:"scenario_count"`
	SubsetSize    int  `json:"subset_size"`
	Workers       int  `json:"workers"`
	WriteLP       bool `json:"write_lp"`
	Verify        bool `json:"verify"`
}

// SetDefaults reproduces the reference 2C2 batch.
func (c *BatchConfig) SetDefaults() {
	if c.ScenarioCount == 0 {
		c.ScenarioCount = 2
	}
	if c.SubsetSize == 0 {
		c.SubsetSize = c.ScenarioCount
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// Validate checks 1 <= k <= n.
func (c BatchConfig) Validate() error {
	switch {
	case c.ScenarioCount < 1:
		return fmt.Errorf("%w: batch.scenario_count must be positive, got %d", model.ErrConfig, c.ScenarioCount)
	case c.SubsetSize < 1 || c.SubsetSize > c.ScenarioCount:
		return fmt.Errorf("%w: batch.subset_size must be within [1,%d], got %d", model.ErrConfig, c.ScenarioCount, c.SubsetSize)
	case c.Workers < 1:
		return fmt.Errorf("%w: batch.workers must be positive, got %d", model.ErrConfig, c.Workers)
	}
	return nil
}

// Explorer assembles the explorer settings from the input, model and batch
// sections.
func (c *Config) Explorer() explorer.Config {
	return explorer.Config{
		Method:         c.Input.Method,
		District:       c.Input.District,
		ScenarioCount:  c.Batch.ScenarioCount,
		SubsetSize:     c.Batch.SubsetSize,
		Workers:        c.Batch.Workers,
		WriteLP:        c.Batch.WriteLP,
		Verify:         c.Batch.Verify,
		Params:         c.Model.Params(),
		CapacityFactor: c.Model.CapacityFactor,
		SupplyOrigin:   model.PODID(c.Input.SupplyOrigin),
	}
}
