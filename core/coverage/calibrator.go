// Package coverage sweeps a coverage threshold over POD->demand
// accessibility scores. The result is diagnostic: the model formulation
// does not consume it.
package coverage

import (
	"fmt"
	"math"

	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/model"
)

// Defaults of the reference sweep.
const (
	DefaultTarget = 0.5
	DefaultSteps  = 100
)

// Point is the mean deviation observed for one threshold.
type Point struct {
	Tau       float64
	Deviation float64
}

// Result holds the best threshold and the whole sweep.
type Result struct {
	Tau       float64
	Deviation float64
	Sweep     []Point
}

// Calibrator searches the threshold tau whose per-POD coverage fraction is
// closest, on average, to Target.
type Calibrator struct {
	Target float64
	Steps  int
}

// New returns a calibrator with the reference target and step count.
func New() Calibrator { return Calibrator{Target: DefaultTarget, Steps: DefaultSteps} }

// Taus returns Steps evenly spaced values from 0 to 1 inclusive.
func (c Calibrator) Taus() []float64 {
	n := c.Steps
	if n <= 0 {
		n = DefaultSteps
	}
	if n == 1 {
		return []float64{0}
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = float64(k) / float64(n-1)
	}
	return out
}

// Calibrate evaluates every threshold. The coverage fraction of POD j is
// the share of its (scenario, demand node) edges with score >= tau over
// |I|*|S|; the deviation is the mean absolute distance to Target over J.
// Ties keep the first threshold in sweep order.
func (c Calibrator) Calibrate(ds *dataset.Dataset) (Result, error) {
	if len(ds.PODs) == 0 || len(ds.Nodes) == 0 || len(ds.Scenarios) == 0 {
		return Result{}, fmt.Errorf("%w: empty dataset", model.ErrConfig)
	}
	edges := ds.V.Edges()
	denom := float64(len(ds.Nodes) * len(ds.Scenarios))
	best := Result{Tau: math.NaN(), Deviation: math.Inf(1)}
	for _, tau := range c.Taus() {
		covered := make(map[int]int, len(ds.PODs))
		for _, e := range edges {
			if ds.V.Score(e) >= tau {
				covered[e.From]++
			}
		}
		var dev float64
		for _, j := range ds.PODs {
			dev += math.Abs(float64(covered[int(j)])/denom - c.Target)
		}
		dev /= float64(len(ds.PODs))
		best.Sweep = append(best.Sweep, Point{Tau: tau, Deviation: dev})
		if dev < best.Deviation {
			best.Tau, best.Deviation = tau, dev
		}
	}
	return best, nil
}
