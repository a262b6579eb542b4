package explorer

import (
	"fmt"

	"github.com/kilianp07/podplan/core/formulation"
	"github.com/kilianp07/podplan/core/model"
)

// Config drives one batch over all k-subsets of n scenarios.
type Config struct {
	Method   string
	District string
	// BatchID tags events and reports; a random id is used when empty.
	BatchID string

	// ScenarioCount is n, SubsetSize is k.
	ScenarioCount int
	SubsetSize    int
	// Workers bounds how many subsets are solved at once. The results log
	// keeps enumeration order whatever the value.
	Workers int
	WriteLP bool
	Verify  bool

	Params         formulation.Params
	CapacityFactor float64
	SupplyOrigin   model.PODID
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Params == (formulation.Params{}) {
		c.Params = formulation.DefaultParams()
	}
	if c.SupplyOrigin == 0 {
		c.SupplyOrigin = model.DefaultSupplyOrigin
	}
}

// Validate checks the batch can run before any subset is attempted.
func (c Config) Validate() error {
	if c.ScenarioCount < 1 {
		return fmt.Errorf("%w: scenario count must be at least 1, got %d", model.ErrConfig, c.ScenarioCount)
	}
	if c.SubsetSize < 1 || c.SubsetSize > c.ScenarioCount {
		return fmt.Errorf("%w: subset size %d outside [1,%d]", model.ErrConfig, c.SubsetSize, c.ScenarioCount)
	}
	return c.Params.Validate()
}
