package dataset

import (
	"sort"

	"github.com/kilianp07/podplan/core/model"
)

// Edge addresses one accessibility score. For origin->POD tables From is
// the supply origin and To the POD; for POD->demand tables From is the POD
// and To the demand node.
type Edge struct {
	Scenario model.ScenarioID
	From     int
	To       int
}

// Accessibility is a sparse (scenario, from, to) -> score index. Absent
// edges resolve to the index's miss value through Score; Lookup reports
// whether an edge was actually loaded.
type Accessibility struct {
	scores map[Edge]float64
	onMiss float64
}

// NewAccessibility returns an empty index that answers onMiss for edges it
// does not hold.
func NewAccessibility(onMiss float64) *Accessibility {
	return &Accessibility{scores: make(map[Edge]float64), onMiss: onMiss}
}

// Set stores a score, replacing any previous value for the edge.
func (a *Accessibility) Set(e Edge, score float64) { a.scores[e] = score }

// Lookup returns the stored score and whether the edge exists.
func (a *Accessibility) Lookup(e Edge) (float64, bool) {
	v, ok := a.scores[e]
	return v, ok
}

// Score returns the stored score or the miss value.
func (a *Accessibility) Score(e Edge) float64 {
	if v, ok := a.scores[e]; ok {
		return v
	}
	return a.onMiss
}

// OnMiss is the value returned by Score for absent edges.
func (a *Accessibility) OnMiss() float64 { return a.onMiss }

// Len returns the number of stored edges.
func (a *Accessibility) Len() int { return len(a.scores) }

// Edges returns every stored edge ordered by scenario, from, to.
func (a *Accessibility) Edges() []Edge {
	out := make([]Edge, 0, len(a.scores))
	for e := range a.scores {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scenario != out[j].Scenario {
			return out[i].Scenario < out[j].Scenario
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// ScenarioEdges returns the stored edges of one scenario, ordered.
func (a *Accessibility) ScenarioEdges(s model.ScenarioID) []Edge {
	var out []Edge
	for _, e := range a.Edges() {
		if e.Scenario == s {
			out = append(out, e)
		}
	}
	return out
}
