package coverage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/model"
)

func TestTaus(t *testing.T) {
	taus := New().Taus()
	require.Len(t, taus, 100)
	assert.Equal(t, 0.0, taus[0])
	assert.Equal(t, 1.0, taus[99])
	assert.InDelta(t, 1.0/99, taus[1], 1e-12)

	assert.Equal(t, []float64{0, 0.5, 1}, Calibrator{Steps: 3}.Taus())
	assert.Equal(t, []float64{0}, Calibrator{Steps: 1}.Taus())
}

func TestCalibrateHalfCoverage(t *testing.T) {
	// Two PODs, four demand nodes, one scenario. Each POD reaches every
	// node with scores 0.1, 0.4, 0.6, 0.9, so tau in (0.4, 0.6] covers half.
	ds := dataset.New([]model.ScenarioID{1}, 4, 2, 1)
	scores := []float64{0.1, 0.4, 0.6, 0.9}
	for _, j := range []int{1, 2} {
		for i, s := range scores {
			ds.V.Set(dataset.Edge{Scenario: 1, From: j, To: i + 1}, s)
		}
	}
	res, err := Calibrator{Target: 0.5, Steps: 11}.Calibrate(ds)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Tau, 1e-12, "first threshold reaching exactly half coverage")
	assert.InDelta(t, 0.0, res.Deviation, 1e-12)
	assert.Len(t, res.Sweep, 11)
	assert.InDelta(t, 0.5, res.Sweep[0].Deviation, 1e-12) // tau 0 covers everything
}

func TestCalibrateCountsEdgesOverAllScenarios(t *testing.T) {
	// One POD reaching both nodes in both scenarios: full coverage is 4
	// edges over |I|*|S| = 4, not 4 over |I| = 2.
	ds := dataset.New([]model.ScenarioID{1, 2}, 2, 1, 1)
	for _, s := range ds.Scenarios {
		for i := 1; i <= 2; i++ {
			ds.V.Set(dataset.Edge{Scenario: s, From: 1, To: i}, 0.8)
		}
	}
	res, err := Calibrator{Target: 1, Steps: 2}.Calibrate(ds)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Tau)
	assert.InDelta(t, 0.0, res.Deviation, 1e-12)
	assert.InDelta(t, 1.0, res.Sweep[1].Deviation, 1e-12) // tau 1 covers nothing
}

func TestCalibrateNoEdges(t *testing.T) {
	ds := dataset.New([]model.ScenarioID{1}, 3, 2, 1)
	res, err := Calibrator{Target: 0.5, Steps: 5}.Calibrate(ds)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Tau)
	assert.InDelta(t, 0.5, res.Deviation, 1e-12)
}

func TestCalibrateEmpty(t *testing.T) {
	ds := dataset.New(nil, 3, 2, 1)
	_, err := New().Calibrate(ds)
	assert.True(t, errors.Is(err, model.ErrConfig))
}
