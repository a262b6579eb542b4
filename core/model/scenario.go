package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ScenarioID identifies one stochastic realisation of demand and accessibility.
type ScenarioID int

// NodeID identifies a demand node. Candidate PODs share the node id space.
type NodeID int

// PODID identifies a candidate point of distribution.
type PODID int

// DefaultSupplyOrigin is the POD id reserved for the upstream supply origin.
const DefaultSupplyOrigin PODID = 1

// Subset is an ordered selection of scenarios solved jointly.
type Subset []ScenarioID

// NewSubset converts an index tuple into a Subset.
func NewSubset(idx []int) Subset {
	s := make(Subset, len(idx))
	for i, v := range idx {
		s[i] = ScenarioID(v)
	}
	return s
}

// Key returns the underscore separated form used in file names and the
// results log, e.g. "1_2".
func (s Subset) Key() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, "_")
}

// Probability returns the uniform probability of each member scenario.
func (s Subset) Probability() float64 {
	if len(s) == 0 {
		return 0
	}
	return 1 / float64(len(s))
}

// ParseSubset parses "1_2" or "1,2" into a Subset.
func ParseSubset(key string) (Subset, error) {
	f := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == ',' || r == ' ' })
	if len(f) == 0 {
		return nil, fmt.Errorf("%w: empty scenario subset", ErrConfig)
	}
	s := make(Subset, len(f))
	for i, p := range f {
		v, err := strconv.Atoi(p)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("%w: bad scenario index %q", ErrConfig, p)
		}
		s[i] = ScenarioID(v)
	}
	return s, nil
}

// Range returns the ids 1..n in ascending order.
func Range(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}
