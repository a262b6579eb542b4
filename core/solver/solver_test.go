package solver

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprMerged(t *testing.T) {
	x, y := Var{ID: 0}, Var{ID: 1}
	e := NewExpr(x, 2)
	e.Add(y, 3)
	e.Add(x, -2)
	e.Add(y, 0)
	e.AddConst(4)

	assert.Equal(t, map[int]float64{1: 3}, e.Merged())
	assert.Equal(t, 4.0, e.Const)

	s := Sum(e, Constant(1), NewExpr(x, 1).Scaled(2))
	assert.Equal(t, map[int]float64{0: 2, 1: 3}, s.Merged())
	assert.Equal(t, 5.0, s.Const)
	assert.Equal(t, 2*10.0+3*1+5, s.Eval(func(v Var) float64 {
		if v == x {
			return 10
		}
		return 1
	}))
}

func TestProblemAddConstrMovesTermsLeft(t *testing.T) {
	var p Problem
	x := p.AddVar("x", Continuous, 0, math.Inf(1))
	y := p.AddVar("y", Binary, -3, 7)

	rhs := NewExpr(y, 5)
	rhs.AddConst(2)
	lhs := NewExpr(x, 1)
	lhs.AddConst(1)
	p.AddConstr("link", lhs, LessEqual, rhs)

	require.Len(t, p.Rows, 1)
	assert.Equal(t, map[int]float64{0: 1, 1: -5}, p.Rows[0].Coef)
	assert.Equal(t, 1.0, p.Rows[0].RHS)
	assert.Equal(t, 0.0, p.Vars[y.ID].LB)
	assert.Equal(t, 1.0, p.Vars[y.ID].UB)
	assert.Equal(t, 1, p.NumIntegers())
}

func TestProblemFeasible(t *testing.T) {
	var p Problem
	x := p.AddVar("x", Continuous, 0, 10)
	y := p.AddVar("y", Binary, 0, 1)
	e := NewExpr(x, 1)
	e.Add(y, -4)
	p.AddConstr("cap", e, LessEqual, Constant(0))
	p.AddConstr("demand", NewExpr(x, 1), GreaterEqual, Constant(3))

	assert.True(t, p.Feasible([]float64{3, 1}, 1e-9))
	assert.False(t, p.Feasible([]float64{3, 0}, 1e-9))
	assert.False(t, p.Feasible([]float64{3, 0.5}, 1e-9))
	assert.False(t, p.Feasible([]float64{2, 1}, 1e-9))
	assert.False(t, p.Feasible([]float64{11, 1}, 1e-9))
}

func TestWriteLP(t *testing.T) {
	var p Problem
	x := p.AddVar("x", Continuous, 0, 10)
	y := p.AddVar("y", Binary, 0, 1)
	z := p.AddVar("z", Continuous, math.Inf(-1), math.Inf(1))

	obj := NewExpr(x, 3)
	obj.Add(y, 2)
	p.SetObjective(obj, Minimize)
	limit := NewExpr(x, 1)
	limit.Add(y, -4)
	p.AddConstr("cap", limit, LessEqual, Constant(0))
	bal := NewExpr(x, 1)
	bal.Add(z, 1)
	p.AddConstr("bal", bal, Equal, Constant(2))

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf))
	want := "Minimize\n" +
		" obj: 3 x + 2 y\n" +
		"Subject To\n" +
		" cap: 1 x - 4 y <= 0\n" +
		" bal: 1 x + 1 z = 2\n" +
		"Bounds\n" +
		" 0 <= x <= 10\n" +
		" z free\n" +
		"Binary\n" +
		" y\n" +
		"End\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteLPWrapsLongRows(t *testing.T) {
	var p Problem
	var e Expr
	for i := 0; i < termsPerLine+1; i++ {
		e.Add(p.AddVar("v", Continuous, 0, math.Inf(1)), 1)
	}
	p.AddConstr("", e, GreaterEqual, Constant(1))
	var buf bytes.Buffer
	require.NoError(t, WriteLP(&buf, &p))
	assert.Contains(t, buf.String(), " c0: 1 v")
	assert.Contains(t, buf.String(), "\n   + 1 v >= 1\n")
}

func TestLPName(t *testing.T) {
	assert.Equal(t, "x_s_1_2", lpName("x_s_1_2", "x", 0))
	assert.Equal(t, "x_1abc", lpName("1abc", "x", 0))
	assert.Equal(t, "c_e1", lpName("e1", "c", 0))
	assert.Equal(t, "c3", lpName("", "c", 3))
	assert.Equal(t, "a_b", lpName("a b", "x", 0))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "optimal", StatusOptimal.String())
	assert.Equal(t, "time_limit", StatusTimeLimit.String())
	assert.Equal(t, "unsolved", StatusUnsolved.String())
	assert.Equal(t, ">=", GreaterEqual.String())
}
