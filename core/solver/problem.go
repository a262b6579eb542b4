package solver

import (
	"io"
	"math"
	"sort"
	"time"
)

// VarDef describes a declared variable.
type VarDef struct {
	Name string
	Type VarType
	LB   float64
	UB   float64
}

// Row is a normalised constraint: sum(Coef[id] * x[id]) Sense RHS.
type Row struct {
	Name  string
	Coef  map[int]float64
	Sense Sense
	RHS   float64
}

// Problem is the in-memory half of a Model: it records declarations and
// answers the building calls. Backends embed it and implement Optimize and
// the solution queries.
type Problem struct {
	Vars      []VarDef
	Rows      []Row
	Objective Expr
	Dir       Direction
	TimeLimit time.Duration
}

// AddVar declares a variable. Binary bounds are clamped to [0,1].
func (p *Problem) AddVar(name string, typ VarType, lb, ub float64) Var {
	if typ == Binary {
		lb = math.Max(lb, 0)
		ub = math.Min(ub, 1)
	}
	p.Vars = append(p.Vars, VarDef{Name: name, Type: typ, LB: lb, UB: ub})
	return Var{ID: len(p.Vars) - 1}
}

// AddConstr records lhs sense rhs, moving every term to the left.
func (p *Problem) AddConstr(name string, lhs Expr, sense Sense, rhs Expr) {
	var e Expr
	e.AddExpr(lhs, 1)
	e.AddExpr(rhs, -1)
	p.Rows = append(p.Rows, Row{Name: name, Coef: e.Merged(), Sense: sense, RHS: -e.Const})
}

// SetObjective records the objective.
func (p *Problem) SetObjective(obj Expr, dir Direction) {
	p.Objective = obj
	p.Dir = dir
}

// SetTimeLimit records the wall-clock limit; zero means unlimited.
func (p *Problem) SetTimeLimit(d time.Duration) { p.TimeLimit = d }

// Write exports the problem in CPLEX LP format.
func (p *Problem) Write(w io.Writer) error { return WriteLP(w, p) }

// NumIntegers counts binary variables.
func (p *Problem) NumIntegers() int {
	n := 0
	for _, v := range p.Vars {
		if v.Type == Binary {
			n++
		}
	}
	return n
}

// Feasible checks values against bounds, integrality and rows. Row
// tolerance scales with the magnitude of the right-hand side.
func (p *Problem) Feasible(values []float64, tol float64) bool {
	for i, v := range p.Vars {
		x := values[i]
		if x < v.LB-tol || x > v.UB+tol {
			return false
		}
		if v.Type == Binary && math.Abs(x-math.Round(x)) > tol {
			return false
		}
	}
	for _, r := range p.Rows {
		rtol := tol * math.Max(1, math.Abs(r.RHS))
		lhs := 0.0
		for id, c := range r.Coef {
			lhs += c * values[id]
		}
		switch r.Sense {
		case LessEqual:
			if lhs > r.RHS+rtol {
				return false
			}
		case GreaterEqual:
			if lhs < r.RHS-rtol {
				return false
			}
		default:
			if math.Abs(lhs-r.RHS) > rtol {
				return false
			}
		}
	}
	return true
}

func sortedIDs(coef map[int]float64) []int {
	ids := make([]int, 0, len(coef))
	for id := range coef {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
