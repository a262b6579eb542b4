package formulation

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/podplan/core/capacity"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/model"
)

// Verify checks an extracted solution against the structural guarantees of
// the model: one POD per node and scenario, open PODs serve themselves,
// closed PODs hold no capacity, capacity bounds, delivery totals, the
// deviation limit and the open-POD budget. Every violation is returned.
func Verify(sol model.Solution, ds *dataset.Dataset, caps capacity.Capacities, p Params, tol float64) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	open := make(map[model.PODID]float64, len(sol.Open))
	for _, v := range sol.Open {
		open[v.POD] = v.Value
	}
	alloc := make(map[model.PODID]float64, len(sol.Capacity))
	for _, v := range sol.Capacity {
		alloc[v.POD] = v.Value
	}
	delivered := make(map[scenarioPOD]float64, len(sol.Delivered))
	for _, v := range sol.Delivered {
		delivered[scenarioPOD{v.Scenario, v.POD}] = v.Value
	}
	x := make(map[assignKey]float64, len(sol.Assign))
	served := make(map[scenarioNode]float64)
	td := make(map[scenarioPOD]float64)
	for _, a := range sol.Assign {
		x[assignKey{a.Scenario, a.Node, a.POD}] = a.Value
		served[scenarioNode{a.Scenario, a.Node}] += a.Value
		td[scenarioPOD{a.Scenario, a.POD}] += a.Value * ds.Demand(a.Scenario, a.Node)
	}

	if n := sol.OpenCount(); n > p.MaxOpen {
		fail("%d PODs open, limit %d", n, p.MaxOpen)
	}
	for _, s := range ds.Scenarios {
		for _, i := range ds.Nodes {
			if got := served[scenarioNode{s, i}]; math.Abs(got-1) > tol {
				fail("scenario %d node %d assigned %g times", s, i, got)
			}
		}
		total := 0.0
		for _, j := range ds.PODs {
			total += delivered[scenarioPOD{s, j}]
		}
		if o := ds.EffectiveSupply(s); math.Abs(total-o) > tol*math.Max(1, o) {
			fail("scenario %d delivers %g, supply %g", s, total, o)
		}
	}
	for _, j := range ds.PODs {
		y := open[j]
		if y > 0.5 {
			for _, s := range ds.Scenarios {
				if v := x[assignKey{s, model.NodeID(j), j}]; v < 1-tol {
					fail("open POD %d does not serve itself in scenario %d", j, s)
				}
			}
		} else if alloc[j] > tol {
			fail("closed POD %d holds capacity %g", j, alloc[j])
		}
		if bound := caps.Of(j) * y; alloc[j] > bound+tol*math.Max(1, bound) {
			fail("POD %d capacity %g exceeds %g", j, alloc[j], bound)
		}
		for _, s := range ds.Scenarios {
			k := scenarioPOD{s, j}
			if dev := td[k] - delivered[k]; dev > p.Rho*td[k]+tol*math.Max(1, td[k]) {
				fail("POD %d scenario %d under-delivers by %g of %g", j, s, dev, td[k])
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrSolver, errors.Join(errs...))
}

type scenarioNode struct {
	s model.ScenarioID
	i model.NodeID
}
