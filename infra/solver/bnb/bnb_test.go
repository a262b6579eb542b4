package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/podplan/core/factory"
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func knapsack(m solver.Model) []solver.Var {
	a := m.AddVar("a", solver.Binary, 0, 1)
	b := m.AddVar("b", solver.Binary, 0, 1)
	c := m.AddVar("c", solver.Binary, 0, 1)
	var w solver.Expr
	w.Add(a, 2)
	w.Add(b, 3)
	w.Add(c, 1)
	m.AddConstr("weight", w, solver.LessEqual, solver.Constant(5))
	var obj solver.Expr
	obj.Add(a, 5)
	obj.Add(b, 4)
	obj.Add(c, 3)
	m.SetObjective(obj, solver.Maximize)
	return []solver.Var{a, b, c}
}

func TestOptimize_Knapsack(t *testing.T) {
	m := New(Config{}, nil).NewModel("knapsack")
	vars := knapsack(m)
	require.NoError(t, m.Optimize(context.Background()))

	assert.Equal(t, solver.StatusOptimal, m.Status())
	assert.GreaterOrEqual(t, m.SolCount(), 1)
	assert.InDelta(t, 9, m.ObjVal(), 1e-6)
	assert.InDelta(t, 0, m.MIPGap(), 1e-3)
	assert.Equal(t, 1.0, m.Value(vars[0]))
	assert.Equal(t, 1.0, m.Value(vars[1]))
	assert.Equal(t, 0.0, m.Value(vars[2]))
}

func TestOptimize_MixedFacility(t *testing.T) {
	m := New(Config{}, nil).NewModel("facility")
	y := m.AddVar("y", solver.Binary, 0, 1)
	x := m.AddVar("x", solver.Continuous, 0, math.Inf(1))
	var link solver.Expr
	link.Add(x, 1)
	link.Add(y, -5)
	m.AddConstr("link", link, solver.LessEqual, solver.Constant(0))
	m.AddConstr("demand", solver.NewExpr(x, 1), solver.GreaterEqual, solver.Constant(3))
	obj := solver.NewExpr(y, 10)
	obj.Add(x, 1)
	obj.AddConst(2)
	m.SetObjective(obj, solver.Minimize)

	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.StatusOptimal, m.Status())
	assert.InDelta(t, 15, m.ObjVal(), 1e-6)
	assert.InDelta(t, 1, m.Value(y), 1e-9)
	assert.InDelta(t, 3, m.Value(x), 1e-6)
}

func TestOptimize_EqualityNegativeRHS(t *testing.T) {
	m := New(Config{}, nil).NewModel("eq")
	a := m.AddVar("a", solver.Continuous, 0, 10)
	b := m.AddVar("b", solver.Continuous, 0, 10)
	var e solver.Expr
	e.Add(a, 1)
	e.Add(b, -1)
	m.AddConstr("diff", e, solver.Equal, solver.Constant(-1))
	obj := solver.NewExpr(a, 1)
	obj.Add(b, 1)
	m.SetObjective(obj, solver.Minimize)

	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.StatusOptimal, m.Status())
	assert.InDelta(t, 1, m.ObjVal(), 1e-6)
	assert.InDelta(t, 0, m.Value(a), 1e-6)
	assert.InDelta(t, 1, m.Value(b), 1e-6)
}

func TestOptimize_Infeasible(t *testing.T) {
	m := New(Config{}, nil).NewModel("infeasible")
	x := m.AddVar("x", solver.Binary, 0, 1)
	m.AddConstr("too_much", solver.NewExpr(x, 1), solver.GreaterEqual, solver.Constant(2))
	m.SetObjective(solver.NewExpr(x, 1), solver.Minimize)

	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.StatusInfeasible, m.Status())
	assert.Equal(t, 0, m.SolCount())
	assert.True(t, math.IsNaN(m.ObjVal()))
	assert.True(t, math.IsNaN(m.Value(x)))
}

func TestOptimize_Unbounded(t *testing.T) {
	m := New(Config{}, nil).NewModel("unbounded")
	x := m.AddVar("x", solver.Continuous, 0, math.Inf(1))
	m.SetObjective(solver.NewExpr(x, -1), solver.Minimize)

	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.StatusUnbounded, m.Status())
	assert.Equal(t, 0, m.SolCount())
}

func TestOptimize_NodeLimit(t *testing.T) {
	m := New(Config{NodeLimit: 1}, nil).NewModel("limited")
	knapsack(m)
	require.NoError(t, m.Optimize(context.Background()))
	assert.Equal(t, solver.StatusNodeLimit, m.Status())
	assert.Equal(t, 0, m.SolCount())
}

func TestOptimize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := New(Config{}, nil).NewModel("cancelled")
	knapsack(m)
	require.NoError(t, m.Optimize(ctx))
	assert.Equal(t, solver.StatusInterrupted, m.Status())
}

func TestOptimize_SimplexFailure(t *testing.T) {
	old := lpSimplex
	lpSimplex = func([]float64, mat.Matrix, []float64, float64) (float64, []float64, error) {
		return 0, nil, errors.New("singular")
	}
	defer func() { lpSimplex = old }()

	m := New(Config{}, nil).NewModel("broken")
	knapsack(m)
	err := m.Optimize(context.Background())
	require.Error(t, err)
	assert.Equal(t, solver.StatusError, m.Status())
}

// facility builds an assignment model with pods candidate sites, customers
// demand rows and one copy of the assignment per scenario.
func facility(m solver.Model, pods, customers, scenarios int) {
	y := make([]solver.Var, pods)
	var obj solver.Expr
	for j := range y {
		y[j] = m.AddVar(fmt.Sprintf("y_%d", j), solver.Binary, 0, 1)
		obj.Add(y[j], 10)
	}
	for s := 0; s < scenarios; s++ {
		for i := 0; i < customers; i++ {
			var assign solver.Expr
			for j := range y {
				x := m.AddVar(fmt.Sprintf("x_%d_%d_%d", i, j, s), solver.Continuous, 0, 1)
				assign.Add(x, 1)
				obj.Add(x, float64((i+j)%7+1))
				m.AddConstr(fmt.Sprintf("link_%d_%d_%d", i, j, s), solver.NewExpr(x, 1), solver.LessEqual, solver.NewExpr(y[j], 1))
			}
			m.AddConstr(fmt.Sprintf("demand_%d_%d", i, s), assign, solver.Equal, solver.Constant(1))
		}
	}
	m.SetObjective(obj, solver.Minimize)
}

func TestOptimize_TooLargeIsRefused(t *testing.T) {
	m := New(Config{MaxCells: 10}, nil).NewModel("knapsack")
	knapsack(m)
	err := m.Optimize(context.Background())
	require.ErrorIs(t, err, model.ErrSolver)
	assert.Contains(t, err.Error(), "export-lp")
	assert.Equal(t, solver.StatusError, m.Status())
	assert.Equal(t, 0, m.SolCount())
	assert.Equal(t, 0, m.(*Model).Nodes())
}

func TestOptimize_DistrictSizedModelReturnsWithinTimeLimit(t *testing.T) {
	m := New(Config{}, nil).NewModel("district")
	facility(m, 40, 40, 2)
	m.SetTimeLimit(500 * time.Millisecond)

	start := time.Now()
	err := m.Optimize(context.Background())
	assert.Less(t, time.Since(start), 5*time.Second)
	require.ErrorIs(t, err, model.ErrSolver)
	assert.Equal(t, 0, m.SolCount())
}

func TestOptimize_TimeLimitStopsRunningRelaxation(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	old := lpSimplex
	lpSimplex = func([]float64, mat.Matrix, []float64, float64) (float64, []float64, error) {
		once.Do(func() { close(entered) })
		<-release
		return 0, nil, errors.New("released")
	}

	m := New(Config{}, nil).NewModel("slow")
	knapsack(m)
	m.SetTimeLimit(50 * time.Millisecond)

	start := time.Now()
	err := m.Optimize(context.Background())
	elapsed := time.Since(start)

	<-entered
	close(release)
	lpSimplex = old

	require.NoError(t, err)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, solver.StatusTimeLimit, m.Status())
	assert.Equal(t, 0, m.SolCount())
	assert.True(t, math.IsNaN(m.ObjVal()))
}

func TestOptimize_CancelStopsRunningRelaxation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	old := lpSimplex
	lpSimplex = func([]float64, mat.Matrix, []float64, float64) (float64, []float64, error) {
		cancel()
		<-release
		return 0, nil, errors.New("released")
	}

	m := New(Config{}, nil).NewModel("cancelled")
	knapsack(m)
	m.SetTimeLimit(time.Minute)
	err := m.Optimize(ctx)

	close(release)
	lpSimplex = old

	require.NoError(t, err)
	assert.Equal(t, solver.StatusInterrupted, m.Status())
}

func TestRelativeGap(t *testing.T) {
	assert.Equal(t, 0.0, relativeGap(10, 10))
	assert.InDelta(t, 0.1, relativeGap(10, 9), 1e-12)
	assert.True(t, math.IsInf(relativeGap(0, -1), 1))
}

func TestRegisteredBackend(t *testing.T) {
	b, err := solver.New(factory.ModuleConfig{Type: "bnb", Conf: map[string]any{"node_limit": 10, "max_cells": 5000}})
	require.NoError(t, err)
	assert.Equal(t, "bnb", b.Name())
	bb, ok := b.(*Backend)
	require.True(t, ok)
	assert.Equal(t, 10, bb.cfg.NodeLimit)
	assert.Equal(t, 5000, bb.cfg.MaxCells)
	assert.Equal(t, DefaultIntegralityTol, bb.cfg.IntegralityTol)

	bb = New(Config{}, nil)
	assert.Equal(t, DefaultMaxCells, bb.cfg.MaxCells)
}
