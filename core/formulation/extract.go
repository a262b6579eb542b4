package formulation

import (
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/solver"
)

// Extract reads the incumbent of m into a Solution ordered by POD, then
// scenario, then node. It must only be called when m.SolCount() > 0.
func (f *Formulation) Extract(m solver.Model) model.Solution {
	ds := f.ds
	sol := model.Solution{
		Subset:    append(model.Subset(nil), f.subset...),
		Status:    m.Status().String(),
		Objective: m.ObjVal(),
		Gap:       m.MIPGap(),
		Open:      make([]model.PODValue, 0, len(ds.PODs)),
		Capacity:  make([]model.PODValue, 0, len(ds.PODs)),
		Assign:    make([]model.Assignment, 0, len(f.x)),
	}
	for _, j := range ds.PODs {
		sol.Open = append(sol.Open, model.PODValue{POD: j, Value: m.Value(f.y[j])})
		sol.Capacity = append(sol.Capacity, model.PODValue{POD: j, Value: m.Value(f.alloc[j])})
	}
	for _, s := range ds.Scenarios {
		for _, j := range ds.PODs {
			k := scenarioPOD{s, j}
			sol.Delivered = append(sol.Delivered, model.ScenarioPODValue{Scenario: s, POD: j, Value: m.Value(f.r[k])})
			sol.Slack = append(sol.Slack, model.ScenarioPODValue{Scenario: s, POD: j, Value: m.Value(f.beta[k])})
		}
		for _, i := range ds.Nodes {
			for _, j := range ds.PODs {
				sol.Assign = append(sol.Assign, model.Assignment{Scenario: s, Node: i, POD: j, Value: m.Value(f.x[assignKey{s, i, j}])})
			}
		}
	}
	return sol
}
