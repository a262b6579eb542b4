// Package formulation builds the two-stage POD location MILP on any
// solver.Model and reads solutions back.
package formulation

import (
	"fmt"
	"math"

	"github.com/kilianp07/podplan/core/capacity"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/solver"
)

type scenarioPOD struct {
	s model.ScenarioID
	j model.PODID
}

type assignKey struct {
	s model.ScenarioID
	i model.NodeID
	j model.PODID
}

// Formulation holds the variable handles of a built model.
type Formulation struct {
	subset model.Subset
	ds     *dataset.Dataset

	y     map[model.PODID]solver.Var
	alloc map[model.PODID]solver.Var
	x     map[assignKey]solver.Var
	r     map[scenarioPOD]solver.Var
	beta  map[scenarioPOD]solver.Var

	NumVars   int
	NumConstr int
}

// Formulate declares variables, objective and constraints on m.
//
// Variables: y(j) and x(s,i,j) binary, R(j), r(s,j) and beta(s,j)
// continuous and non-negative. The objective maximises
// sum_s p(s)[sum_j v0(s,j)y(j) + sum_ij v(s,i,j)x(s,i,j) - eps sum_j beta(s,j)].
func Formulate(m solver.Model, ds *dataset.Dataset, caps capacity.Capacities, p Params) (*Formulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(ds.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: empty scenario set", model.ErrConfig)
	}
	for _, j := range ds.PODs {
		if !ds.IsNode(int(j)) {
			return nil, fmt.Errorf("%w: POD %d is not a demand node", model.ErrConfig, j)
		}
	}

	f := &Formulation{
		subset: model.Subset(ds.Scenarios),
		ds:     ds,
		y:      make(map[model.PODID]solver.Var, len(ds.PODs)),
		alloc:  make(map[model.PODID]solver.Var, len(ds.PODs)),
		x:      make(map[assignKey]solver.Var, len(ds.Scenarios)*len(ds.Nodes)*len(ds.PODs)),
		r:      make(map[scenarioPOD]solver.Var, len(ds.Scenarios)*len(ds.PODs)),
		beta:   make(map[scenarioPOD]solver.Var, len(ds.Scenarios)*len(ds.PODs)),
	}
	f.declare(m)
	f.objective(m, p)
	f.constrain(m, caps, p)
	m.SetTimeLimit(p.TimeLimit)
	return f, nil
}

func (f *Formulation) addVar(m solver.Model, name string, typ solver.VarType, ub float64) solver.Var {
	f.NumVars++
	return m.AddVar(name, typ, 0, ub)
}

func (f *Formulation) addConstr(m solver.Model, name string, lhs solver.Expr, sense solver.Sense, rhs solver.Expr) {
	f.NumConstr++
	m.AddConstr(name, lhs, sense, rhs)
}

func (f *Formulation) declare(m solver.Model) {
	ds, inf := f.ds, math.Inf(1)
	for _, j := range ds.PODs {
		f.y[j] = f.addVar(m, fmt.Sprintf("y_%d", j), solver.Binary, 1)
	}
	for _, j := range ds.PODs {
		f.alloc[j] = f.addVar(m, fmt.Sprintf("R_%d", j), solver.Continuous, inf)
	}
	for _, s := range ds.Scenarios {
		for _, i := range ds.Nodes {
			for _, j := range ds.PODs {
				f.x[assignKey{s, i, j}] = f.addVar(m, fmt.Sprintf("x_%d_%d_%d", s, i, j), solver.Binary, 1)
			}
		}
	}
	for _, s := range ds.Scenarios {
		for _, j := range ds.PODs {
			f.r[scenarioPOD{s, j}] = f.addVar(m, fmt.Sprintf("r_%d_%d", s, j), solver.Continuous, inf)
		}
	}
	for _, s := range ds.Scenarios {
		for _, j := range ds.PODs {
			f.beta[scenarioPOD{s, j}] = f.addVar(m, fmt.Sprintf("beta_%d_%d", s, j), solver.Continuous, inf)
		}
	}
}

func (f *Formulation) objective(m solver.Model, p Params) {
	ds := f.ds
	prob := ds.Probability()
	var obj solver.Expr
	for _, s := range ds.Scenarios {
		for _, j := range ds.PODs {
			obj.Add(f.y[j], prob*ds.V0Score(s, j))
		}
		// v is sparse: only loaded POD->node edges contribute.
		for _, e := range ds.V.ScenarioEdges(s) {
			if !ds.IsNode(e.To) || !ds.IsPOD(e.From) {
				continue
			}
			v, _ := ds.V.Lookup(e)
			obj.Add(f.x[assignKey{s, model.NodeID(e.To), model.PODID(e.From)}], prob*v)
		}
		for _, j := range ds.PODs {
			obj.Add(f.beta[scenarioPOD{s, j}], -prob*p.Epsilon)
		}
	}
	m.SetObjective(obj, solver.Maximize)
}

// assigned returns TD(j,s) = sum_i d(s,i) x(s,i,j).
func (f *Formulation) assigned(s model.ScenarioID, j model.PODID) solver.Expr {
	var td solver.Expr
	for _, i := range f.ds.Nodes {
		td.Add(f.x[assignKey{s, i, j}], f.ds.Demand(s, i))
	}
	return td
}

func (f *Formulation) constrain(m solver.Model, caps capacity.Capacities, p Params) {
	ds := f.ds

	for _, s := range ds.Scenarios {
		var open solver.Expr
		for _, j := range ds.PODs {
			open.Add(f.y[j], 1)
		}
		f.addConstr(m, fmt.Sprintf("max_PODs_%d", s), open, solver.LessEqual, solver.Constant(float64(p.MaxOpen)))
	}
	for _, j := range ds.PODs {
		f.addConstr(m, fmt.Sprintf("capacity_%d", j), solver.NewExpr(f.alloc[j], 1), solver.LessEqual, solver.NewExpr(f.y[j], caps.Of(j)))
	}
	for _, j := range ds.PODs {
		for _, s := range ds.Scenarios {
			f.addConstr(m, fmt.Sprintf("delivery_capacity_%d_%d", s, j), solver.NewExpr(f.r[scenarioPOD{s, j}], 1), solver.LessEqual, solver.NewExpr(f.alloc[j], 1))
		}
	}
	for _, s := range ds.Scenarios {
		var total solver.Expr
		for _, j := range ds.PODs {
			total.Add(f.r[scenarioPOD{s, j}], 1)
		}
		f.addConstr(m, fmt.Sprintf("total_supplies_%d", s), total, solver.Equal, solver.Constant(ds.EffectiveSupply(s)))
	}
	for _, i := range ds.Nodes {
		for _, s := range ds.Scenarios {
			var served solver.Expr
			for _, j := range ds.PODs {
				served.Add(f.x[assignKey{s, i, j}], 1)
			}
			f.addConstr(m, fmt.Sprintf("demand_served_%d_%d", s, i), served, solver.Equal, solver.Constant(1))
		}
	}
	for _, i := range ds.Nodes {
		for _, j := range ds.PODs {
			for _, s := range ds.Scenarios {
				f.addConstr(m, fmt.Sprintf("serve_opened_only_%d_%d_%d", s, i, j), solver.NewExpr(f.x[assignKey{s, i, j}], 1), solver.LessEqual, solver.NewExpr(f.y[j], 1))
			}
		}
	}
	for _, j := range ds.PODs {
		for _, s := range ds.Scenarios {
			f.addConstr(m, fmt.Sprintf("open_POD_serves_itself_%d_%d", s, j), solver.NewExpr(f.x[assignKey{s, model.NodeID(j), j}], 1), solver.GreaterEqual, solver.NewExpr(f.y[j], 1))
		}
	}

	td := make(map[scenarioPOD]solver.Expr, len(ds.PODs)*len(ds.Scenarios))
	pdBeta := make(map[scenarioPOD]solver.Expr, len(ds.PODs)*len(ds.Scenarios))
	for _, j := range ds.PODs {
		for _, s := range ds.Scenarios {
			k := scenarioPOD{s, j}
			td[k] = f.assigned(s, j)
			pdBeta[k] = solver.Sum(td[k].Scaled(supplyRatio(ds, s)), solver.NewExpr(f.beta[k], 1))
		}
	}
	for _, j := range ds.PODs {
		for _, s := range ds.Scenarios {
			k := scenarioPOD{s, j}
			f.addConstr(m, fmt.Sprintf("proportional_demand_upper_%d_%d", s, j), solver.NewExpr(f.r[k], 1), solver.LessEqual, pdBeta[k])
		}
	}
	for _, j := range ds.PODs {
		for _, s := range ds.Scenarios {
			k := scenarioPOD{s, j}
			f.addConstr(m, fmt.Sprintf("proportional_demand_with_beta_%d_%d", s, j), pdBeta[k], solver.LessEqual, td[k])
		}
	}
	for _, j := range ds.PODs {
		for _, s := range ds.Scenarios {
			k := scenarioPOD{s, j}
			// TD - r <= rho*TD
			dev := td[k].Scaled(1 - p.Rho)
			dev.Add(f.r[k], -1)
			f.addConstr(m, fmt.Sprintf("deviation_limit_%d_%d", s, j), dev, solver.LessEqual, solver.Constant(0))
		}
	}
}

// supplyRatio is o(s)/sum_i d(s,i), zero when the scenario has no demand.
func supplyRatio(ds *dataset.Dataset, s model.ScenarioID) float64 {
	total := ds.TotalDemand(s)
	if total <= 0 {
		return 0
	}
	return ds.EffectiveSupply(s) / total
}
