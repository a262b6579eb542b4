package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kilianp07/podplan/core/aggregate"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/model"
)

// Output file suffixes, prefixed with the method.
const (
	MeanYFile       = "mean_y_values.csv"
	AggregatedYFile = "aggregated_y_solution.csv"
	StdFile         = "POD_standard_deviations.csv"
	MeanRFile       = "mean_R_values_with_coordinates.csv"
	MeanXFile       = "mean_x_values_with_coordinates.csv"
	AggregatedXFile = "aggregated_x_solution_with_coordinates.csv"
)

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func id[T ~int](v T) string { return strconv.Itoa(int(v)) }

// coord renders a coordinate pair, empty when the id has no location.
func coord(c dataset.Coordinates, node int) (string, string) {
	p, ok := c.Lookup(node)
	if !ok {
		return "", ""
	}
	return num(p.X), num(p.Y)
}

func writeRows(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMeanY writes {POD, Mean_y_value}.
func WriteMeanY(w io.Writer, means []aggregate.PODMean) error {
	return writeRows(w, []string{"POD", "Mean_y_value"}, len(means), func(i int) []string {
		return []string{id(means[i].POD), num(means[i].Mean)}
	})
}

// WriteAggregatedY writes {POD, Aggregated_y_value}.
func WriteAggregatedY(w io.Writer, flags []aggregate.PODFlag) error {
	return writeRows(w, []string{"POD", "Aggregated_y_value"}, len(flags), func(i int) []string {
		return []string{id(flags[i].POD), strconv.Itoa(flags[i].Value)}
	})
}

// WriteStd writes {POD, Standard_Deviation}.
func WriteStd(w io.Writer, spreads []aggregate.PODSpread) error {
	return writeRows(w, []string{"POD", "Standard_Deviation"}, len(spreads), func(i int) []string {
		return []string{id(spreads[i].POD), num(spreads[i].Std)}
	})
}

// WriteMeanR writes {POD, Mean_R_value, X, Y}.
func WriteMeanR(w io.Writer, spreads []aggregate.PODSpread, c dataset.Coordinates) error {
	return writeRows(w, []string{"POD", "Mean_R_value", "X", "Y"}, len(spreads), func(i int) []string {
		x, y := coord(c, int(spreads[i].POD))
		return []string{id(spreads[i].POD), num(spreads[i].Mean), x, y}
	})
}

var pairHeader = []string{"POD_X", "POD_Y", "Demand_X", "Demand_Y"}

func pairCoords(c dataset.Coordinates, p aggregate.Pair) []string {
	px, py := coord(c, int(p.POD))
	dx, dy := coord(c, int(p.Node))
	return []string{px, py, dx, dy}
}

// WriteMeanX writes {Demand_Node, POD, Mean_x_value} joined with the POD
// and demand node coordinates.
func WriteMeanX(w io.Writer, means []aggregate.PairMean, c dataset.Coordinates) error {
	header := append([]string{"Demand_Node", "POD", "Mean_x_value"}, pairHeader...)
	return writeRows(w, header, len(means), func(i int) []string {
		m := means[i]
		return append([]string{id(m.Node), id(m.POD), num(m.Mean)}, pairCoords(c, m.Pair)...)
	})
}

// WriteAggregatedX writes the union of assigned pairs with coordinates.
func WriteAggregatedX(w io.Writer, pairs []aggregate.Pair, c dataset.Coordinates) error {
	header := append([]string{"Demand_Node", "POD", "Aggregated_x_value"}, pairHeader...)
	return writeRows(w, header, len(pairs), func(i int) []string {
		p := pairs[i]
		return append([]string{id(p.Node), id(p.POD), "1"}, pairCoords(c, p)...)
	})
}

// Summary is the JSON digest of an aggregation run.
type Summary struct {
	Method   string        `json:"method"`
	Read     int           `json:"files_read"`
	Skipped  []string      `json:"files_skipped"`
	PODs     int           `json:"pods"`
	Selected []model.PODID `json:"selected_pods"`
	Pairs    int           `json:"assigned_pairs"`
	Outputs  []string      `json:"outputs"`
}

// WriteJSON writes s to w in JSON format.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Path is the location of an aggregate output for method in dir.
func Path(dir, method, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s", method, name))
}

// WriteAll writes every aggregate CSV into dir and returns their paths.
func WriteAll(dir, method string, res aggregate.Result, c dataset.Coordinates) ([]string, error) {
	jobs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{MeanYFile, func(w io.Writer) error { return WriteMeanY(w, res.MeanY) }},
		{AggregatedYFile, func(w io.Writer) error { return WriteAggregatedY(w, res.Aggregated) }},
		{StdFile, func(w io.Writer) error { return WriteStd(w, res.R) }},
		{MeanRFile, func(w io.Writer) error { return WriteMeanR(w, res.R, c) }},
		{MeanXFile, func(w io.Writer) error { return WriteMeanX(w, res.MeanX, c) }},
		{AggregatedXFile, func(w io.Writer) error { return WriteAggregatedX(w, res.UnionX, c) }},
	}
	paths := make([]string, 0, len(jobs))
	for _, j := range jobs {
		p := Path(dir, method, j.name)
		if err := writeFile(p, j.write); err != nil {
			return paths, fmt.Errorf("%w: %s: %v", model.ErrIO, p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
