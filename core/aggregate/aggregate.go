// Package aggregate combines persisted subset solutions into cross-run
// statistics. It reads only persisted tables and keeps no state between
// runs, so the same files always yield the same result.
package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/podplan/core/logger"
	"github.com/kilianp07/podplan/core/model"
)

const (
	DefaultTopK      = 100
	DefaultTolerance = 1e-6
)

// Reader loads persisted solution tables.
type Reader interface {
	ReadY(path string) ([]model.PODValue, error)
	ReadR(path string) ([]model.PODValue, error)
	ReadX(path string) ([]model.Assignment, error)
}

// Files lists the persisted tables to aggregate, per kind.
type Files struct {
	Y []string
	R []string
	X []string
}

// PODMean is the mean of a per-POD value across solutions.
type PODMean struct {
	POD  model.PODID
	Mean float64
}

// PODFlag marks whether a POD belongs to the aggregated selection.
type PODFlag struct {
	POD   model.PODID
	Value int
}

// PODSpread is the mean and population standard deviation of R.
type PODSpread struct {
	POD  model.PODID
	Mean float64
	Std  float64
	N    int
}

// Pair is a (demand node, POD) assignment.
type Pair struct {
	Node model.NodeID
	POD  model.PODID
}

// PairMean is the mean assignment value of a pair.
type PairMean struct {
	Pair
	Mean float64
}

// FileSelection lists the PODs a single y table opens.
type FileSelection struct {
	Path string
	PODs []model.PODID
}

// Skipped records a table that could not be read.
type Skipped struct {
	Path string
	Err  error
}

// Result holds every aggregate. Slices follow the order in which PODs and
// pairs were first encountered.
type Result struct {
	MeanY      []PODMean
	Aggregated []PODFlag
	Selected   []model.PODID
	R          []PODSpread
	MeanX      []PairMean
	UnionX     []Pair
	PerFile    []FileSelection
	Read       int
	Skipped    []Skipped
}

// Aggregator computes Result from persisted tables.
type Aggregator struct {
	// TopK is how many PODs the aggregated indicator selects.
	TopK      int
	// Tolerance decides when a stored value counts as 1.
	Tolerance float64
	Reader    Reader
	Log       logger.Logger
}

// New returns an aggregator with the reference settings.
func New(r Reader, log logger.Logger) *Aggregator {
	return &Aggregator{TopK: DefaultTopK, Tolerance: DefaultTolerance, Reader: r, Log: logger.OrNop(log)}
}

// Run aggregates files. Files are processed in sorted order; unreadable
// files are skipped and reported in Result.Skipped.
func (a *Aggregator) Run(files Files) Result {
	log := logger.OrNop(a.Log)
	var res Result
	skip := func(path string, err error) {
		log.Warnf("aggregate: skipping file %s due to: %v", path, err)
		res.Skipped = append(res.Skipped, Skipped{Path: path, Err: err})
	}

	// y: mean per POD and per-file selections.
	var yOrder []model.PODID
	ySum := map[model.PODID]float64{}
	yCount := map[model.PODID]int{}
	for _, path := range sorted(files.Y) {
		vals, err := a.Reader.ReadY(path)
		if err != nil {
			skip(path, err)
			continue
		}
		res.Read++
		sel := FileSelection{Path: path}
		for _, v := range vals {
			if _, ok := yCount[v.POD]; !ok {
				yOrder = append(yOrder, v.POD)
			}
			ySum[v.POD] += v.Value
			yCount[v.POD]++
			if a.isOne(v.Value) {
				sel.PODs = append(sel.PODs, v.POD)
			}
		}
		res.PerFile = append(res.PerFile, sel)
	}
	for _, j := range yOrder {
		res.MeanY = append(res.MeanY, PODMean{POD: j, Mean: ySum[j] / float64(yCount[j])})
	}
	res.Selected = topK(res.MeanY, a.topK())
	chosen := make(map[model.PODID]bool, len(res.Selected))
	for _, j := range res.Selected {
		chosen[j] = true
	}
	for _, m := range res.MeanY {
		flag := PODFlag{POD: m.POD}
		if chosen[m.POD] {
			flag.Value = 1
		}
		res.Aggregated = append(res.Aggregated, flag)
	}

	// R: mean and population standard deviation per POD.
	var rOrder []model.PODID
	rVals := map[model.PODID][]float64{}
	for _, path := range sorted(files.R) {
		vals, err := a.Reader.ReadR(path)
		if err != nil {
			skip(path, err)
			continue
		}
		res.Read++
		for _, v := range vals {
			if _, ok := rVals[v.POD]; !ok {
				rOrder = append(rOrder, v.POD)
			}
			rVals[v.POD] = append(rVals[v.POD], v.Value)
		}
	}
	for _, j := range rOrder {
		mean, std := stat.PopMeanStdDev(rVals[j], nil)
		res.R = append(res.R, PODSpread{POD: j, Mean: mean, Std: std, N: len(rVals[j])})
	}

	// x: mean per pair over every row, and the union of assigned pairs.
	var xOrder []Pair
	xSum := map[Pair]float64{}
	xCount := map[Pair]int{}
	inUnion := map[Pair]bool{}
	for _, path := range sorted(files.X) {
		vals, err := a.Reader.ReadX(path)
		if err != nil {
			skip(path, err)
			continue
		}
		res.Read++
		for _, v := range vals {
			p := Pair{Node: v.Node, POD: v.POD}
			if _, ok := xCount[p]; !ok {
				xOrder = append(xOrder, p)
			}
			xSum[p] += v.Value
			xCount[p]++
			if a.isOne(v.Value) && !inUnion[p] {
				inUnion[p] = true
				res.UnionX = append(res.UnionX, p)
			}
		}
	}
	for _, p := range xOrder {
		res.MeanX = append(res.MeanX, PairMean{Pair: p, Mean: xSum[p] / float64(xCount[p])})
	}

	log.Infow("aggregate: done", map[string]any{
		"component": "aggregate",
		"read":      res.Read,
		"skipped":   len(res.Skipped),
		"pods":      len(res.MeanY),
		"selected":  len(res.Selected),
		"pairs":     len(res.MeanX),
	})
	return res
}

func (a *Aggregator) topK() int {
	if a.TopK <= 0 {
		return DefaultTopK
	}
	return a.TopK
}

func (a *Aggregator) isOne(v float64) bool {
	tol := a.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return math.Abs(v-1) <= tol
}

// topK returns the k PODs with the largest mean; ties keep their original
// order.
func topK(means []PODMean, k int) []model.PODID {
	ranked := append([]PODMean(nil), means...)
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Mean > ranked[b].Mean })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]model.PODID, len(ranked))
	for i, m := range ranked {
		out[i] = m.POD
	}
	return out
}

func sorted(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}
