package capacity

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/model"
)

// DefaultFactor oversizes the area-proportional share of worst-case supply.
const DefaultFactor = 1.5

// Capacities maps POD ids to their capacity upper bound K(j). Excluded ids
// have no entry.
type Capacities map[model.PODID]float64

// Of returns K(j), zero for ids without an entry.
func (c Capacities) Of(j model.PODID) float64 { return c[j] }

// Has reports whether j has an explicit capacity entry.
func (c Capacities) Has(j model.PODID) bool {
	_, ok := c[j]
	return ok
}

// Total sums every capacity entry.
func (c Capacities) Total() float64 {
	vals := make([]float64, 0, len(c))
	for _, j := range c.IDs() {
		vals = append(vals, c[j])
	}
	return floats.Sum(vals)
}

// IDs returns the ids with an entry in ascending order.
func (c Capacities) IDs() []model.PODID {
	ids := make([]model.PODID, 0, len(c))
	for j := range c {
		ids = append(ids, j)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

// Estimator distributes max_s O_max(s) * Factor over the candidate PODs in
// proportion to their area.
type Estimator struct {
	Factor float64
	// Exclude lists POD ids that never receive capacity. The supply origin
	// belongs here: it feeds the PODs and cannot itself hold stock.
	Exclude []model.PODID
}

// NewEstimator returns an estimator with the reference factor that excludes
// the given supply origin.
func NewEstimator(origin model.PODID) Estimator {
	return Estimator{Factor: DefaultFactor, Exclude: []model.PODID{origin}}
}

// CheckArea rejects a candidate set whose areas sum to zero; no capacity can
// be shared out over it.
func CheckArea(total float64) error {
	if total == 0 {
		return fmt.Errorf("%w: total area for PODs is zero", model.ErrConfig)
	}
	return nil
}

// Estimate computes K(j) = Area(j) * max_s O_max(s) * Factor / sum(Area(J))
// for every candidate POD not excluded. The area sum covers all of J.
func (e Estimator) Estimate(ds *dataset.Dataset) (Capacities, error) {
	areas := make([]float64, len(ds.PODs))
	for k, j := range ds.PODs {
		areas[k] = ds.Area[model.NodeID(j)]
	}
	total := floats.Sum(areas)
	if err := CheckArea(total); err != nil {
		return nil, err
	}
	factor := e.Factor
	if factor == 0 {
		factor = DefaultFactor
	}
	supply := ds.MaxOMax() * factor
	excluded := make(map[model.PODID]bool, len(e.Exclude))
	for _, j := range e.Exclude {
		excluded[j] = true
	}
	out := make(Capacities, len(ds.PODs))
	for k, j := range ds.PODs {
		if excluded[j] {
			continue
		}
		out[j] = areas[k] * supply / total
	}
	return out, nil
}
