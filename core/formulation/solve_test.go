package formulation_test

import (
	"context"
	"testing"

	"github.com/kilianp07/podplan/core/capacity"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/formulation"
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/solver"
	"github.com/kilianp07/podplan/infra/solver/bnb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallDistrict has three nodes, PODs 1 and 2 and a single scenario with
// total demand 10 that only POD 2 can supply.
func smallDistrict() *dataset.Dataset {
	ds := dataset.New([]model.ScenarioID{1}, 3, 2, model.DefaultSupplyOrigin)
	ds.SetDemand(1, 2, 4)
	ds.SetDemand(1, 3, 6)
	ds.SetOMax(1, 10)
	ds.V0.Set(dataset.Edge{Scenario: 1, From: 1, To: 2}, 0.5)
	ds.V.Set(dataset.Edge{Scenario: 1, From: 2, To: 1}, 0.2)
	ds.V.Set(dataset.Edge{Scenario: 1, From: 2, To: 2}, 1)
	ds.V.Set(dataset.Edge{Scenario: 1, From: 2, To: 3}, 0.6)
	return ds
}

func solve(t *testing.T, maxOpen int) (model.Solution, *dataset.Dataset, capacity.Capacities, formulation.Params) {
	t.Helper()
	ds := smallDistrict()
	caps := capacity.Capacities{2: 15}
	p := formulation.DefaultParams()
	p.MaxOpen = maxOpen

	m := bnb.New(bnb.Config{}, nil).NewModel("small")
	f, err := formulation.Formulate(m, ds, caps, p)
	require.NoError(t, err)
	require.NoError(t, m.Optimize(context.Background()))
	require.Equal(t, solver.StatusOptimal, m.Status())
	require.Greater(t, m.SolCount(), 0)
	return f.Extract(m), ds, caps, p
}

func TestSolveSinglePOD(t *testing.T) {
	sol, ds, caps, p := solve(t, 1)

	assert.InDelta(t, 2.3, sol.Objective, 1e-6)
	assert.Equal(t, 1, sol.OpenCount())
	assert.InDelta(t, 0, sol.Open[0].Value, 1e-9)
	assert.InDelta(t, 1, sol.Open[1].Value, 1e-9)
	assert.GreaterOrEqual(t, sol.Capacity[1].Value, 10-1e-6)
	assert.InDelta(t, 0, sol.Capacity[0].Value, 1e-9)
	assert.NoError(t, formulation.Verify(sol, ds, caps, p, 1e-6))
}

func TestSolveOpensOriginWhenAllowed(t *testing.T) {
	sol, ds, caps, p := solve(t, 2)

	// Opening POD 1 adds v0 = 1 (no edge) and forces node 1 onto it.
	assert.InDelta(t, 3.1, sol.Objective, 1e-6)
	assert.Equal(t, 2, sol.OpenCount())
	assert.NoError(t, formulation.Verify(sol, ds, caps, p, 1e-6))
}

func TestVerifyReportsViolations(t *testing.T) {
	sol, ds, caps, p := solve(t, 1)

	sol.Open[0].Value = 1
	sol.Capacity[0].Value = 0
	sol.Assign[0].Value = 0 // x(1,1,1)
	sol.Assign[1].Value = 0 // x(1,1,2): node 1 now unserved
	sol.Delivered[0].Value = 0
	sol.Delivered[1].Value = 2

	err := formulation.Verify(sol, ds, caps, p, 1e-6)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSolver)
	assert.Contains(t, err.Error(), "2 PODs open, limit 1")
	assert.Contains(t, err.Error(), "node 1 assigned 0 times")
	assert.Contains(t, err.Error(), "open POD 1 does not serve itself")
	assert.Contains(t, err.Error(), "delivers 2, supply 10")
	assert.Contains(t, err.Error(), "under-delivers")
}
