package bnb

import (
	"context"
	"errors"
	"math"

	"github.com/kilianp07/podplan/core/solver"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	errInfeasible = errors.New("relaxation infeasible")
	errUnbounded  = errors.New("relaxation unbounded")
	errStopped    = errors.New("relaxation stopped")
)

// column maps one standard-form column back to a model variable:
// x[v] = offset[v] + sum(sign * col).
type column struct {
	v    int
	sign float64
}

type stdRow struct {
	coef  map[int]float64 // by column index
	sense solver.Sense
	rhs   float64
}

// solveRelaxation solves the LP relaxation of p, minimising c·x, with the
// binaries in fixed pinned to their values. It returns the objective (without
// the model constant) and a value for every model variable. When ctx ends
// first it returns errStopped.
func solveRelaxation(ctx context.Context, p *solver.Problem, c []float64, fixed map[int]float64, tol float64) (float64, []float64, error) {
	n := len(p.Vars)
	offset := make([]float64, n)
	var cols []column
	colsOf := make([][]int, n)
	var rows []stdRow

	for v, def := range p.Vars {
		lb, ub := def.LB, def.UB
		if val, ok := fixed[v]; ok {
			lb, ub = val, val
		}
		if lb > ub+tol {
			return 0, nil, errInfeasible
		}
		switch {
		case ub-lb <= tol && !math.IsInf(lb, -1):
			offset[v] = lb
		case !math.IsInf(lb, -1):
			offset[v] = lb
			colsOf[v] = []int{len(cols)}
			cols = append(cols, column{v: v, sign: 1})
			if !math.IsInf(ub, 1) {
				rows = append(rows, stdRow{coef: map[int]float64{len(cols) - 1: 1}, sense: solver.LessEqual, rhs: ub - lb})
			}
		case !math.IsInf(ub, 1):
			offset[v] = ub
			colsOf[v] = []int{len(cols)}
			cols = append(cols, column{v: v, sign: -1})
		default:
			colsOf[v] = []int{len(cols), len(cols) + 1}
			cols = append(cols, column{v: v, sign: 1}, column{v: v, sign: -1})
		}
	}

	for _, r := range p.Rows {
		rhs := r.RHS
		coef := make(map[int]float64, len(r.Coef))
		for v, a := range r.Coef {
			rhs -= a * offset[v]
			for _, k := range colsOf[v] {
				coef[k] += a * cols[k].sign
			}
		}
		for k, a := range coef {
			if a == 0 {
				delete(coef, k)
			}
		}
		if len(coef) == 0 {
			if !constantHolds(r.Sense, rhs, tol*math.Max(1, math.Abs(r.RHS))) {
				return 0, nil, errInfeasible
			}
			continue
		}
		rows = append(rows, stdRow{coef: coef, sense: r.Sense, rhs: rhs})
	}

	constant := 0.0
	for v := range p.Vars {
		constant += c[v] * offset[v]
	}

	// Columns that appear in no row are set to zero, unless the objective
	// would drive them to infinity.
	used := make([]bool, len(cols))
	for _, r := range rows {
		for k := range r.coef {
			used[k] = true
		}
	}
	index := make([]int, len(cols))
	live := 0
	for k, col := range cols {
		if !used[k] {
			if c[col.v]*col.sign < 0 {
				return 0, nil, errUnbounded
			}
			index[k] = -1
			continue
		}
		index[k] = live
		live++
	}

	x := make([]float64, n)
	copy(x, offset)
	if live == 0 {
		return constant, x, nil
	}

	// Standard form: each inequality gets its own slack; an equality is
	// split into a <= and a >= pair so the constraint matrix always keeps
	// full row rank.
	nRows := 0
	for _, r := range rows {
		if r.sense == solver.Equal {
			nRows += 2
		} else {
			nRows++
		}
	}
	width := live + nRows
	a := mat.NewDense(nRows, width, nil)
	b := make([]float64, nRows)
	cStd := make([]float64, width)
	for k, col := range cols {
		if index[k] >= 0 {
			cStd[index[k]] = c[col.v] * col.sign
		}
	}
	i := 0
	put := func(r stdRow, slack float64) {
		for k, v := range r.coef {
			a.Set(i, index[k], v)
		}
		a.Set(i, live+i, slack)
		b[i] = r.rhs
		if b[i] < 0 {
			for j := 0; j < width; j++ {
				a.Set(i, j, -a.At(i, j))
			}
			b[i] = -b[i]
		}
		i++
	}
	for _, r := range rows {
		switch r.sense {
		case solver.LessEqual:
			put(r, 1)
		case solver.GreaterEqual:
			put(r, -1)
		default:
			put(r, 1)
			put(r, -1)
		}
	}

	opt, sol, err := simplexWithin(ctx, cStd, a, b, tol)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, nil, errInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return 0, nil, errUnbounded
	case err != nil:
		return 0, nil, err
	}
	for k, col := range cols {
		if index[k] >= 0 {
			x[col.v] += col.sign * sol[index[k]]
		}
	}
	return opt + constant, x, nil
}

func constantHolds(s solver.Sense, rhs, tol float64) bool {
	switch s {
	case solver.LessEqual:
		return 0 <= rhs+tol
	case solver.GreaterEqual:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}

type simplexResult struct {
	opt float64
	sol []float64
	err error
}

// simplexWithin runs lpSimplex until it returns or ctx ends. lp.Simplex takes
// no context, so an abandoned call finishes in the background and its result
// is dropped.
func simplexWithin(ctx context.Context, c []float64, a mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	if ctx.Err() != nil {
		return 0, nil, errStopped
	}
	done := make(chan simplexResult, 1)
	go func() {
		opt, sol, err := lpSimplex(c, a, b, tol)
		done <- simplexResult{opt, sol, err}
	}()
	select {
	case r := <-done:
		return r.opt, r.sol, r.err
	case <-ctx.Done():
		return 0, nil, errStopped
	}
}

// lpSimplex points to the LP routine. Tests override it to simulate
// numerical failures.
var lpSimplex = func(c []float64, a mat.Matrix, b []float64, tol float64) (float64, []float64, error) {
	return lp.Simplex(c, a, b, tol, nil)
}
