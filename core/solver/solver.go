package solver

import (
	"context"
	"io"
	"time"
)

// VarType distinguishes continuous from binary decision variables.
type VarType int

const (
	Continuous VarType = iota
	Binary
)

// Sense is the relation of a linear constraint.
type Sense int

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "="
	}
}

// Direction is the optimisation sense of the objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

// Status reports how a solve ended.
type Status int

const (
	StatusUnsolved Status = iota
	StatusOptimal
	StatusTimeLimit
	StatusNodeLimit
	StatusInterrupted
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time_limit"
	case StatusNodeLimit:
		return "node_limit"
	case StatusInterrupted:
		return "interrupted"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	default:
		return "unsolved"
	}
}

// Var is a handle to a declared variable.
type Var struct {
	ID int
}

// Model is the contract the formulation needs from a MILP engine: declare
// variables and constraints, set an objective and a wall-clock limit, run
// the solve, then query the incumbent.
type Model interface {
	AddVar(name string, typ VarType, lb, ub float64) Var
	AddConstr(name string, lhs Expr, sense Sense, rhs Expr)
	SetObjective(obj Expr, dir Direction)
	SetTimeLimit(d time.Duration)

	// Optimize blocks until the model is solved, the time limit expires or
	// ctx is done. Reaching a limit is not an error: the best incumbent is
	// kept and reported through SolCount and Status.
	Optimize(ctx context.Context) error

	SolCount() int
	Status() Status
	ObjVal() float64
	MIPGap() float64
	Value(v Var) float64

	// Write exports the model in CPLEX LP format.
	Write(w io.Writer) error
}
