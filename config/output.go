package config

import (
	"fmt"

	"github.com/kilianp07/podplan/core/aggregate"
	"github.com/kilianp07/podplan/core/coverage"
	"github.com/kilianp07/podplan/core/model"
)

// OutputConfig sets where solution tables and results logs are written.
type OutputConfig struct {
	Dir string `json:"dir"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "Output_Data_Files"
	}
}

// ResultsConfig enables the SQLite mirror of the results log.
type ResultsConfig struct {
	// SQLitePath is empty to disable the mirror.
	SQLitePath string `json:"sqlite_path"`
}

// AggregateConfig drives the cross-run aggregation.
type AggregateConfig struct {
	// Dir receives the aggregate tables; defaults to output.dir.
	Dir       string  `json:"dir"`
	TopK      int     `json:"top_k"`
	Tolerance float64 `json:"tolerance"`
	// CoordinatesScenario is the scenario whose node table provides X/Y.
	CoordinatesScenario int  `json:"coordinates_scenario"`
	Shapefiles          bool `json:"shapefiles"`
	// Charts adds an HTML bar chart of mean y per POD.
	Charts bool `json:"charts"`
}

func (c *AggregateConfig) SetDefaults(outputDir string) {
	if c.Dir == "" {
		c.Dir = outputDir
	}
	if c.TopK == 0 {
		c.TopK = aggregate.DefaultTopK
	}
	if c.Tolerance == 0 {
		c.Tolerance = aggregate.DefaultTolerance
	}
	if c.CoordinatesScenario == 0 {
		c.CoordinatesScenario = 1
	}
}

func (c AggregateConfig) Validate() error {
	switch {
	case c.TopK < 1:
		return fmt.Errorf("%w: aggregate.top_k must be positive, got %d", model.ErrConfig, c.TopK)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: aggregate.tolerance must be non-negative", model.ErrConfig)
	case c.CoordinatesScenario < 1:
		return fmt.Errorf("%w: aggregate.coordinates_scenario must be positive, got %d", model.ErrConfig, c.CoordinatesScenario)
	}
	return nil
}

// CalibrationConfig tunes the coverage threshold sweep.
type CalibrationConfig struct {
	Target float64 `json:"target"`
	Steps  int     `json:"steps"`
	// Scenarios to calibrate over; empty means 1..batch.scenario_count.
	Scenarios []int `json:"scenarios"`
}

func (c *CalibrationConfig) SetDefaults() {
	if c.Target == 0 {
		c.Target = coverage.DefaultTarget
	}
	if c.Steps == 0 {
		c.Steps = coverage.DefaultSteps
	}
}

func (c CalibrationConfig) Validate() error {
	if c.Target < 0 || c.Target > 1 {
		return fmt.Errorf("%w: calibration.target must be within [0,1], got %g", model.ErrConfig, c.Target)
	}
	if c.Steps < 1 {
		return fmt.Errorf("%w: calibration.steps must be positive, got %d", model.ErrConfig, c.Steps)
	}
	for _, s := range c.Scenarios {
		if s < 1 {
			return fmt.Errorf("%w: calibration scenario ids start at 1, got %d", model.ErrConfig, s)
		}
	}
	return nil
}

// Calibrator returns the configured sweep.
func (c CalibrationConfig) Calibrator() coverage.Calibrator {
	return coverage.Calibrator{Target: c.Target, Steps: c.Steps}
}

// CalibrationSubset lists the scenarios the calibration loads.
func (c *Config) CalibrationSubset() model.Subset {
	if len(c.Calibration.Scenarios) > 0 {
		return model.NewSubset(c.Calibration.Scenarios)
	}
	return model.NewSubset(model.Range(c.Batch.ScenarioCount))
}
