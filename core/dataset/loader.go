package dataset

import (
	"fmt"

	"github.com/kilianp07/podplan/core/logger"
	"github.com/kilianp07/podplan/core/model"
)

// Column names of the input tables.
const (
	ColArea     = "Area"
	ColDemand   = "Demand"
	ColX        = "X"
	ColY        = "Y"
	ColOrigin   = "OriginID"
	ColDest     = "DestinationID"
	ColDuration = "Total_TruckingDuration"
)

// idColumns are accepted as the node identifier when the configured column
// is absent.
var idColumns = []string{"id", "OID_", "FID", "OBJECTID"}

// Loader builds a Dataset for a scenario subset from per-scenario files.
type Loader struct {
	Layout       Layout
	NodeCount    int
	PODCount     int
	SupplyOrigin model.PODID
	// IDColumn names the node id column. When neither it nor one of the
	// usual id columns exist, the 1-based row position is the id.
	IDColumn string
	Log      logger.Logger
}

// Load reads the node, origin->POD and POD->demand tables of every scenario
// in the subset. An absent file yields model.ErrMissingInput; the caller is
// expected to skip the subset.
func (l *Loader) Load(subset model.Subset) (*Dataset, error) {
	if len(subset) == 0 {
		return nil, fmt.Errorf("%w: empty scenario set", model.ErrConfig)
	}
	if l.NodeCount <= 0 || l.PODCount <= 0 || l.PODCount > l.NodeCount {
		return nil, fmt.Errorf("%w: node count %d / pod count %d", model.ErrConfig, l.NodeCount, l.PODCount)
	}
	layout := l.Layout.WithDefaults()
	ds := New(subset, l.NodeCount, l.PODCount, l.SupplyOrigin)
	for k, s := range subset {
		nodes, err := l.readNodes(layout.NodePath(s))
		if err != nil {
			return nil, err
		}
		var omax float64
		for _, n := range nodes {
			omax += n.demand
			if ds.IsNode(n.id) {
				ds.SetDemand(s, model.NodeID(n.id), n.demand)
			}
		}
		ds.SetOMax(s, omax)
		if k == 0 {
			for _, n := range nodes {
				ds.Area[model.NodeID(n.id)] = n.area
			}
		}
		if err := l.loadV0(ds, s, layout.V0Path(s)); err != nil {
			return nil, err
		}
		if err := l.loadV(ds, s, layout.VPath(s)); err != nil {
			return nil, err
		}
		l.debugw("scenario loaded", map[string]any{
			"scenario": int(s), "nodes": len(nodes), "o_max": omax,
		})
	}
	return ds, nil
}

// PODArea sums the area of the candidate PODs 1..PODCount in the node table
// of scenario s. Load takes areas from the first scenario of a subset, so
// this is the total its capacities are shared over.
func (l *Loader) PODArea(s model.ScenarioID) (float64, error) {
	nodes, err := l.readNodes(l.Layout.WithDefaults().NodePath(s))
	if err != nil {
		return 0, err
	}
	var total float64
	for _, n := range nodes {
		if n.id >= 1 && n.id <= l.PODCount {
			total += n.area
		}
	}
	return total, nil
}

type nodeRow struct {
	id     int
	x, y   float64
	hasXY  bool
	area   float64
	demand float64
}

func (l *Loader) readNodes(path string) ([]nodeRow, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	demandCol, err := t.require(ColDemand)
	if err != nil {
		return nil, err
	}
	areaCol, hasArea := t.column(ColArea)
	idCol, hasID := t.column(append([]string{l.IDColumn}, idColumns...)...)
	xCol, hasX := t.column(ColX)
	yCol, hasY := t.column(ColY)

	coerced := 0
	out := make([]nodeRow, 0, len(t.rows))
	for pos, row := range t.rows {
		n := nodeRow{id: pos + 1}
		if hasID {
			if id, ok := parseID(cell(row, idCol)); ok {
				n.id = id
			}
		}
		var ok bool
		if n.demand, ok = parseNumber(cell(row, demandCol)); !ok || n.demand < 0 {
			n.demand = 0
			coerced++
		}
		if hasArea {
			if n.area, ok = parseNumber(cell(row, areaCol)); !ok {
				n.area = 0
			}
		}
		if hasX && hasY {
			var okX, okY bool
			n.x, okX = parseNumber(cell(row, xCol))
			n.y, okY = parseNumber(cell(row, yCol))
			n.hasXY = okX && okY
		}
		out = append(out, n)
	}
	if coerced > 0 {
		l.debugf("%s: %d demand values coerced to 0", path, coerced)
	}
	return out, nil
}

type durationRow struct {
	origin, dest int
	raw          float64
}

func (l *Loader) readDurations(path string) ([]durationRow, []float64, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, nil, err
	}
	oc, err := t.require(ColOrigin)
	if err != nil {
		return nil, nil, err
	}
	dc, err := t.require(ColDest)
	if err != nil {
		return nil, nil, err
	}
	tc, err := t.require(ColDuration)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]durationRow, 0, len(t.rows))
	raw := make([]float64, 0, len(t.rows))
	skipped := 0
	for _, r := range t.rows {
		v, ok := parseNumber(cell(r, tc))
		if !ok {
			skipped++
			continue
		}
		o, okO := parseID(cell(r, oc))
		d, okD := parseID(cell(r, dc))
		if !okO || !okD {
			skipped++
			continue
		}
		rows = append(rows, durationRow{origin: o, dest: d, raw: v})
		raw = append(raw, v)
	}
	if skipped > 0 {
		l.debugf("%s: %d rows without usable ids or duration skipped", path, skipped)
	}
	return rows, raw, nil
}

func (l *Loader) loadV0(ds *Dataset, s model.ScenarioID, path string) error {
	rows, raw, err := l.readDurations(path)
	if err != nil {
		return err
	}
	for k, score := range Normalize(raw) {
		if ds.IsPOD(rows[k].dest) {
			ds.V0.Set(Edge{Scenario: s, From: int(ds.SupplyOrigin), To: rows[k].dest}, score)
		}
	}
	return nil
}

func (l *Loader) loadV(ds *Dataset, s model.ScenarioID, path string) error {
	rows, raw, err := l.readDurations(path)
	if err != nil {
		return err
	}
	for k, score := range Normalize(raw) {
		r := rows[k]
		if ds.IsPOD(r.origin) && ds.IsNode(r.dest) {
			ds.V.Set(Edge{Scenario: s, From: r.origin, To: r.dest}, score)
		}
	}
	return nil
}

func (l *Loader) debugf(format string, args ...any) {
	if l.Log != nil {
		l.Log.Debugf(format, args...)
	}
}

func (l *Loader) debugw(msg string, fields map[string]any) {
	if l.Log != nil {
		l.Log.Debugw(msg, fields)
	}
}
