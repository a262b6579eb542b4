package formulation

import (
	"fmt"
	"time"

	"github.com/kilianp07/podplan/core/model"
)

const (
	DefaultMaxOpen   = 100
	DefaultRho       = 0.4
	DefaultEpsilon   = 0.0
	DefaultTimeLimit = 10 * time.Second
)

// Params are the model parameters of one subset solve.
type Params struct {
	// MaxOpen is C, the maximum number of open PODs.
	MaxOpen int
	// Rho bounds how far a POD's delivery may fall below its assigned demand.
	Rho float64
	// Epsilon weights the proportional-demand slack in the objective.
	Epsilon   float64
	TimeLimit time.Duration
}

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{MaxOpen: DefaultMaxOpen, Rho: DefaultRho, Epsilon: DefaultEpsilon, TimeLimit: DefaultTimeLimit}
}

// Validate rejects parameters no model can be built from.
func (p Params) Validate() error {
	if p.MaxOpen < 1 {
		return fmt.Errorf("%w: max open PODs must be at least 1, got %d", model.ErrConfig, p.MaxOpen)
	}
	if p.Rho < 0 || p.Rho > 1 {
		return fmt.Errorf("%w: rho must be within [0,1], got %g", model.ErrConfig, p.Rho)
	}
	if p.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must be non-negative, got %g", model.ErrConfig, p.Epsilon)
	}
	if p.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time limit", model.ErrConfig)
	}
	return nil
}
