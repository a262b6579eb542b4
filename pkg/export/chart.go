package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/podplan/core/aggregate"
	"github.com/kilianp07/podplan/core/coverage"
	"github.com/kilianp07/podplan/core/model"
)

// MeanYChartFile is the HTML bar chart of mean y per POD.
const MeanYChartFile = "mean_y_chart.html"

// WriteCalibrationChart renders the coverage sweep as an HTML line chart.
func WriteCalibrationChart(w io.Writer, res coverage.Result, target float64) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Coverage threshold sweep",
			Subtitle: fmt.Sprintf("target %s, best tau %s", num(target), strconv.FormatFloat(res.Tau, 'f', 4, 64)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tau"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mean deviation"}),
	)
	xAxis := make([]string, 0, len(res.Sweep))
	yAxis := make([]opts.LineData, 0, len(res.Sweep))
	for _, p := range res.Sweep {
		xAxis = append(xAxis, strconv.FormatFloat(p.Tau, 'f', 4, 64))
		yAxis = append(yAxis, opts.LineData{Value: p.Deviation})
	}
	line.SetXAxis(xAxis).AddSeries("deviation", yAxis)
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %v", err)
	}
	return nil
}

// WriteMeanYChart renders mean y per POD as an HTML bar chart, with the
// selected PODs in a separate series.
func WriteMeanYChart(w io.Writer, method string, means []aggregate.PODMean, selected []model.PODID) error {
	chosen := make(map[model.PODID]bool, len(selected))
	for _, j := range selected {
		chosen[j] = true
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: method + " mean POD opening", Subtitle: fmt.Sprintf("%d PODs selected", len(selected))}),
		charts.WithXAxisOpts(opts.XAxis{Name: "POD"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mean y"}),
	)
	xAxis := make([]string, 0, len(means))
	open := make([]opts.BarData, 0, len(means))
	rest := make([]opts.BarData, 0, len(means))
	for _, m := range means {
		xAxis = append(xAxis, id(m.POD))
		if chosen[m.POD] {
			open = append(open, opts.BarData{Value: m.Mean})
			rest = append(rest, opts.BarData{Value: 0})
		} else {
			open = append(open, opts.BarData{Value: 0})
			rest = append(rest, opts.BarData{Value: m.Mean})
		}
	}
	bar.SetXAxis(xAxis).
		AddSeries("selected", open).
		AddSeries("not selected", rest)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %v", err)
	}
	return nil
}

// WriteMeanYChartFile writes the mean y chart next to the aggregate tables.
func WriteMeanYChartFile(dir, method string, res aggregate.Result) (string, error) {
	path := Path(dir, method, MeanYChartFile)
	if err := writeFile(path, func(w io.Writer) error {
		return WriteMeanYChart(w, method, res.MeanY, res.Selected)
	}); err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
	}
	return path, nil
}
