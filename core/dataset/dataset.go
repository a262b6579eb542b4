package dataset

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/podplan/core/model"
)

type scenarioNode struct {
	s model.ScenarioID
	i model.NodeID
}

// Dataset is the scenario-indexed input of one subset solve. A fresh
// Dataset is built for every subset; nothing is shared between subsets.
type Dataset struct {
	Scenarios    []model.ScenarioID
	Nodes        []model.NodeID
	PODs         []model.PODID
	SupplyOrigin model.PODID

	// Area holds node areas taken from the first scenario's node table.
	Area map[model.NodeID]float64

	demand map[scenarioNode]float64
	omax   map[model.ScenarioID]float64

	// V0 is the origin->POD index (miss value 1); V is POD->demand (miss 0).
	V0 *Accessibility
	V  *Accessibility
}

// New returns an empty dataset over nodes 1..nodeCount and PODs 1..podCount.
func New(scenarios []model.ScenarioID, nodeCount, podCount int, origin model.PODID) *Dataset {
	ds := &Dataset{
		Scenarios:    append([]model.ScenarioID(nil), scenarios...),
		SupplyOrigin: origin,
		Area:         make(map[model.NodeID]float64),
		demand:       make(map[scenarioNode]float64),
		omax:         make(map[model.ScenarioID]float64),
		V0:           NewAccessibility(1),
		V:            NewAccessibility(0),
	}
	for _, id := range model.Range(nodeCount) {
		ds.Nodes = append(ds.Nodes, model.NodeID(id))
	}
	for _, id := range model.Range(podCount) {
		ds.PODs = append(ds.PODs, model.PODID(id))
	}
	return ds
}

// Probability is the uniform weight 1/|S| of each member scenario.
func (d *Dataset) Probability() float64 {
	return model.Subset(d.Scenarios).Probability()
}

// SetDemand records d(s,i).
func (d *Dataset) SetDemand(s model.ScenarioID, i model.NodeID, v float64) {
	d.demand[scenarioNode{s, i}] = v
}

// Demand returns d(s,i), zero when unknown.
func (d *Dataset) Demand(s model.ScenarioID, i model.NodeID) float64 {
	return d.demand[scenarioNode{s, i}]
}

// SetOMax records the total supply of a scenario.
func (d *Dataset) SetOMax(s model.ScenarioID, v float64) { d.omax[s] = v }

// OMax returns the total supply O_max(s), the demand summed over every row
// of the scenario's node table.
func (d *Dataset) OMax(s model.ScenarioID) float64 { return d.omax[s] }

// MaxOMax returns max_s O_max(s) over the dataset's scenarios.
func (d *Dataset) MaxOMax() float64 {
	if len(d.Scenarios) == 0 {
		return 0
	}
	vals := make([]float64, len(d.Scenarios))
	for k, s := range d.Scenarios {
		vals[k] = d.omax[s]
	}
	return floats.Max(vals)
}

// TotalDemand sums d(s,i) over the demand node set I.
func (d *Dataset) TotalDemand(s model.ScenarioID) float64 {
	vals := make([]float64, len(d.Nodes))
	for k, i := range d.Nodes {
		vals[k] = d.Demand(s, i)
	}
	return floats.Sum(vals)
}

// EffectiveSupply is o(s) = min(O_max(s), total demand over I).
func (d *Dataset) EffectiveSupply(s model.ScenarioID) float64 {
	return math.Min(d.OMax(s), d.TotalDemand(s))
}

// V0Score returns v0(s,j), 1 when the origin->POD edge is absent.
func (d *Dataset) V0Score(s model.ScenarioID, j model.PODID) float64 {
	return d.V0.Score(Edge{Scenario: s, From: int(d.SupplyOrigin), To: int(j)})
}

// VScore returns v(s,i,j), 0 when the POD->demand edge is absent.
func (d *Dataset) VScore(s model.ScenarioID, i model.NodeID, j model.PODID) float64 {
	return d.V.Score(Edge{Scenario: s, From: int(j), To: int(i)})
}

// IsPOD reports whether j is a candidate POD id.
func (d *Dataset) IsPOD(j int) bool { return j >= 1 && j <= len(d.PODs) }

// IsNode reports whether i is a demand node id.
func (d *Dataset) IsNode(i int) bool { return i >= 1 && i <= len(d.Nodes) }
