// Package geoexport writes aggregated POD selections as point shapefiles.
package geoexport

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/kilianp07/podplan/core/aggregate"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/logger"
	"github.com/kilianp07/podplan/core/model"
)

const (
	selectedSuffix   = "_selected_pods.shp"
	aggregatedLayer  = "aggregated_y_solution_selected_pods.shp"
	meanXLayer       = "mean_x_values_with_coordinates.shp"
	aggregatedXLayer = "aggregated_x_solution_with_coordinates.shp"
)

// PODPoint is one selected POD.
type PODPoint struct {
	geom.Point
	POD int `shp:"POD"`
}

// PairPoint is a (demand node, POD) pair located at the POD.
type PairPoint struct {
	geom.Point
	Demand int     `shp:"Demand"`
	POD    int     `shp:"POD"`
	Value  float64 `shp:"Value"`
}

// Writer renders aggregation results into a directory.
type Writer struct {
	Dir    string
	Method string
	Coords dataset.Coordinates
	Log    logger.Logger
}

// SelectedPath is the layer of the PODs opened by the y table at yPath.
func (w Writer) SelectedPath(yPath string) string {
	base := strings.TrimSuffix(filepath.Base(yPath), filepath.Ext(yPath))
	return filepath.Join(w.Dir, base+selectedSuffix)
}

func (w Writer) layer(name string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s_%s", w.Method, name))
}

// WriteAll writes one layer per y table, the aggregated selection and the
// x layers. It returns the written paths.
func (w Writer) WriteAll(res aggregate.Result) ([]string, error) {
	var paths []string
	for _, sel := range res.PerFile {
		p := w.SelectedPath(sel.Path)
		if err := w.writePODs(p, sel.PODs); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}

	p := w.layer(aggregatedLayer)
	if err := w.writePODs(p, res.Selected); err != nil {
		return paths, err
	}
	paths = append(paths, p)

	means := make([]PairPoint, 0, len(res.MeanX))
	for _, m := range res.MeanX {
		means = append(means, PairPoint{Demand: int(m.Node), POD: int(m.POD), Value: m.Mean})
	}
	p = w.layer(meanXLayer)
	if err := w.writePairs(p, means); err != nil {
		return paths, err
	}
	paths = append(paths, p)

	union := make([]PairPoint, 0, len(res.UnionX))
	for _, u := range res.UnionX {
		union = append(union, PairPoint{Demand: int(u.Node), POD: int(u.POD), Value: 1})
	}
	p = w.layer(aggregatedXLayer)
	if err := w.writePairs(p, union); err != nil {
		return paths, err
	}
	return append(paths, p), nil
}

func (w Writer) writePODs(path string, pods []model.PODID) error {
	enc, err := shp.NewEncoder(path, PODPoint{})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
	}
	defer enc.Close()
	missing := 0
	for _, j := range pods {
		pt, ok := w.Coords.Lookup(int(j))
		if !ok {
			missing++
			continue
		}
		rec := PODPoint{Point: geom.Point{X: pt.X, Y: pt.Y}, POD: int(j)}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
		}
	}
	w.warnMissing(path, missing)
	return nil
}

func (w Writer) writePairs(path string, pairs []PairPoint) error {
	enc, err := shp.NewEncoder(path, PairPoint{})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
	}
	defer enc.Close()
	missing := 0
	for _, p := range pairs {
		pt, ok := w.Coords.Lookup(p.POD)
		if !ok {
			missing++
			continue
		}
		p.Point = geom.Point{X: pt.X, Y: pt.Y}
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
		}
	}
	w.warnMissing(path, missing)
	return nil
}

func (w Writer) warnMissing(path string, n int) {
	if n > 0 {
		logger.OrNop(w.Log).Warnf("geoexport: %d rows without coordinates left out of %s", n, path)
	}
}
