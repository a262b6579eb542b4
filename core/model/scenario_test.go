package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsetKey(t *testing.T) {
	assert.Equal(t, "1_2", NewSubset([]int{1, 2}).Key())
	assert.Equal(t, "3", NewSubset([]int{3}).Key())
	assert.Equal(t, "", Subset{}.Key())
}

func TestSubsetProbability(t *testing.T) {
	assert.InDelta(t, 0.25, NewSubset([]int{1, 2, 3, 4}).Probability(), 1e-12)
	assert.Zero(t, Subset{}.Probability())
}

func TestParseSubset(t *testing.T) {
	s, err := ParseSubset("1,3")
	require.NoError(t, err)
	assert.Equal(t, Subset{1, 3}, s)

	s, err = ParseSubset("2_4")
	require.NoError(t, err)
	assert.Equal(t, "2_4", s.Key())

	_, err = ParseSubset("")
	assert.True(t, errors.Is(err, ErrConfig))
	_, err = ParseSubset("1,x")
	assert.True(t, errors.Is(err, ErrConfig))
	_, err = ParseSubset("0")
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestRowFromSolution(t *testing.T) {
	row := RowFromSolution(Solution{Subset: Subset{1, 2}, Objective: 12.5, Gap: 0.01})
	assert.Equal(t, "12.5", row.ObjectiveString())
	assert.Equal(t, 0.01, row.Gap)

	row = RowFromSolution(Solution{Subset: Subset{1}, Objective: math.NaN()})
	assert.Nil(t, row.Objective)
	assert.Equal(t, "N/A", row.ObjectiveString())
}

func TestOpenCount(t *testing.T) {
	sol := Solution{Open: []PODValue{{POD: 1, Value: 0}, {POD: 2, Value: 0.9999999}, {POD: 3, Value: 1}}}
	assert.Equal(t, 2, sol.OpenCount())
}
