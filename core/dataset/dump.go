package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/kilianp07/podplan/core/model"
)

// DumpV0 writes the origin->POD scores of scenario s, one POD per line,
// with the miss value shown for PODs without an edge.
func (d *Dataset) DumpV0(w io.Writer, s model.ScenarioID) error {
	if !d.hasScenario(s) {
		_, err := fmt.Fprintf(w, "Scenario %d not found in the v0 matrix.\n", s)
		return err
	}
	if _, err := fmt.Fprintf(w, "Scenario %d:\n", s); err != nil {
		return err
	}
	for _, j := range d.PODs {
		if _, err := fmt.Fprintf(w, "%d -> %v\n", j, d.V0Score(s, j)); err != nil {
			return err
		}
	}
	return nil
}

// DumpV writes the POD->demand scores of scenario s grouped by demand node.
func (d *Dataset) DumpV(w io.Writer, s model.ScenarioID) error {
	if !d.hasScenario(s) {
		_, err := fmt.Fprintf(w, "Scenario %d not found in the v matrix.\n", s)
		return err
	}
	if _, err := fmt.Fprintf(w, "Scenario %d:\n", s); err != nil {
		return err
	}
	byNode := make(map[int]map[int]float64)
	for _, e := range d.V.ScenarioEdges(s) {
		if byNode[e.To] == nil {
			byNode[e.To] = make(map[int]float64)
		}
		byNode[e.To][e.From] = d.V.Score(e)
	}
	nodes := make([]int, 0, len(byNode))
	for n := range byNode {
		nodes = append(nodes, n)
	}
	sort.Ints(nodes)
	for _, n := range nodes {
		if _, err := fmt.Fprintf(w, "%d -> %v\n", n, byNode[n]); err != nil {
			return err
		}
	}
	return nil
}

// ExportV writes every POD->demand edge as ";"-separated CSV.
func (d *Dataset) ExportV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write([]string{"Scenario", "DestinationID", "OriginID", "Accessibility_Score"}); err != nil {
		return err
	}
	for _, e := range d.V.Edges() {
		rec := []string{
			strconv.Itoa(int(e.Scenario)),
			strconv.Itoa(e.To),
			strconv.Itoa(e.From),
			strconv.FormatFloat(d.V.Score(e), 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (d *Dataset) hasScenario(s model.ScenarioID) bool {
	for _, v := range d.Scenarios {
		if v == s {
			return true
		}
	}
	return false
}
