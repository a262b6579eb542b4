package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/podplan/core/model"
)

func testLayout(dir string) Layout {
	return Layout{
		BaseDir:     dir,
		Method:      "MC",
		District:    "Kadikoy",
		NodePattern: "{base}/{method}_nodes_{district}_{scenario}.csv",
		V0Pattern:   "{base}/{method_lower}_v0_{scenario}.csv",
		VPattern:    "{base}/{method_lower}_v_{scenario}.csv",
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeScenario writes a 4-node / 3-POD scenario whose demand is scaled by mult.
func writeScenario(t *testing.T, l Layout, s model.ScenarioID, nodes string) {
	t.Helper()
	writeFile(t, l.NodePath(s), nodes)
	writeFile(t, l.V0Path(s), "OriginID,DestinationID,Total_TruckingDuration\n"+
		"1,2,10\n"+
		"1,3,30\n"+
		"1,9,20\n")
	writeFile(t, l.VPath(s), "OriginID,DestinationID,Total_TruckingDuration\n"+
		"2,1,0\n"+
		"2,2,0\n"+
		"2,4,40\n"+
		"3,3,20\n"+
		"3,4,abc\n")
}

const nodesCSV = "id,X,Y,Area,Demand\n" +
	"1,29.0,41.0,0,0\n" +
	"2,29.1,41.1,10,5\n" +
	"3,29.2,41.2,30,abc\n" +
	"4,29.3,41.3,,7\n"

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{10, 20, 30})
	assert.InDeltaSlice(t, []float64{1, 0.5, 0}, got, 1e-12)

	assert.Equal(t, []float64{0, 0, 0}, Normalize([]float64{4, 4, 4}))
	assert.Empty(t, Normalize(nil))
}

func TestNormalizeBoundsAndMonotonic(t *testing.T) {
	raw := []float64{3.5, -2, 17, 0, 17, 9.25, 1e6, 42}
	got := Normalize(raw)
	for i := range raw {
		assert.GreaterOrEqual(t, got[i], 0.0)
		assert.LessOrEqual(t, got[i], 1.0)
		for j := range raw {
			if raw[i] > raw[j] {
				assert.LessOrEqual(t, got[i], got[j], "raw %v vs %v", raw[i], raw[j])
			}
		}
	}
}

func TestAccessibilityMissPolicy(t *testing.T) {
	v0 := NewAccessibility(1)
	v := NewAccessibility(0)
	e := Edge{Scenario: 1, From: 1, To: 2}
	assert.Equal(t, 1.0, v0.Score(e))
	assert.Equal(t, 0.0, v.Score(e))
	_, ok := v0.Lookup(e)
	assert.False(t, ok)

	v0.Set(e, 0.25)
	got, ok := v0.Lookup(e)
	assert.True(t, ok)
	assert.Equal(t, 0.25, got)
	assert.Equal(t, 1, v0.Len())
}

func TestAccessibilityEdgesOrdered(t *testing.T) {
	a := NewAccessibility(0)
	a.Set(Edge{Scenario: 2, From: 1, To: 1}, 1)
	a.Set(Edge{Scenario: 1, From: 3, To: 1}, 1)
	a.Set(Edge{Scenario: 1, From: 2, To: 5}, 1)
	a.Set(Edge{Scenario: 1, From: 2, To: 4}, 1)
	assert.Equal(t, []Edge{
		{Scenario: 1, From: 2, To: 4},
		{Scenario: 1, From: 2, To: 5},
		{Scenario: 1, From: 3, To: 1},
		{Scenario: 2, From: 1, To: 1},
	}, a.Edges())
	assert.Len(t, a.ScenarioEdges(1), 3)
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{BaseDir: "/data", Method: "LHS", District: "KADIKOY"}.WithDefaults()
	assert.Equal(t,
		filepath.FromSlash("/data/Building_Selection/LHS_Building_Selection/lhs_LDC_POD_DemandPoint_csv/LHS_LDC_POD_DemandPoint_kadikoy_Scenario_3.csv"),
		l.NodePath(3))
	assert.True(t, strings.HasSuffix(l.V0Path(1), "LHS_LDC-POD_Matrix_kadikoy_Scenario_1.csv"))
	assert.True(t, strings.HasSuffix(l.VPath(2), "LHS_POD-DemandPoint_Matrix_kadikoy_Scenario_2.csv"))
}

func TestLoaderLoad(t *testing.T) {
	l := testLayout(t.TempDir())
	writeScenario(t, l, 1, nodesCSV)
	writeScenario(t, l, 2, strings.ReplaceAll(nodesCSV, ",7\n", ",9\n"))

	loader := &Loader{Layout: l, NodeCount: 4, PODCount: 3, SupplyOrigin: 1, IDColumn: "id"}
	ds, err := loader.Load(model.Subset{1, 2})
	require.NoError(t, err)

	assert.Equal(t, []model.ScenarioID{1, 2}, ds.Scenarios)
	assert.Len(t, ds.Nodes, 4)
	assert.Len(t, ds.PODs, 3)
	assert.InDelta(t, 0.5, ds.Probability(), 1e-12)

	assert.Equal(t, 5.0, ds.Demand(1, 2))
	assert.Equal(t, 0.0, ds.Demand(1, 3), "non-numeric demand coerces to zero")
	assert.Equal(t, 12.0, ds.OMax(1))
	assert.Equal(t, 14.0, ds.OMax(2))
	assert.Equal(t, 14.0, ds.MaxOMax())
	assert.Equal(t, 12.0, ds.EffectiveSupply(1))
	assert.Equal(t, 0.0, ds.Area[4], "missing area coerces to zero")
	assert.Equal(t, 30.0, ds.Area[3])

	// v0 normalised over 10,30,20; POD 9 is out of range and dropped.
	assert.InDelta(t, 1.0, ds.V0Score(1, 2), 1e-12)
	assert.InDelta(t, 0.0, ds.V0Score(1, 3), 1e-12)
	assert.Equal(t, 1.0, ds.V0Score(1, 1), "absent origin->POD edge defaults to 1")
	assert.Equal(t, 4, ds.V0.Len()) // 2 PODs x 2 scenarios

	// v normalised over 0,0,40,20 (the non-numeric row is skipped).
	assert.InDelta(t, 1.0, ds.VScore(1, 1, 2), 1e-12)
	assert.InDelta(t, 0.0, ds.VScore(1, 4, 2), 1e-12)
	assert.InDelta(t, 0.5, ds.VScore(1, 3, 3), 1e-12)
	_, ok := ds.V.Lookup(Edge{Scenario: 1, From: 3, To: 4})
	assert.False(t, ok)
	assert.Equal(t, 0.0, ds.VScore(1, 4, 3))
}

func TestLoaderRowPositionIDs(t *testing.T) {
	l := testLayout(t.TempDir())
	writeScenario(t, l, 1, "X,Y,Area,Demand\n0,0,1,2\n0,0,1,3\n0,0,1,4\n0,0,1,5\n")
	ds, err := (&Loader{Layout: l, NodeCount: 4, PODCount: 3, SupplyOrigin: 1}).Load(model.Subset{1})
	require.NoError(t, err)
	assert.Equal(t, 2.0, ds.Demand(1, 1))
	assert.Equal(t, 5.0, ds.Demand(1, 4))
}

func TestLoaderMissingInput(t *testing.T) {
	l := testLayout(t.TempDir())
	writeScenario(t, l, 1, nodesCSV)
	loader := &Loader{Layout: l, NodeCount: 4, PODCount: 3, SupplyOrigin: 1}

	_, err := loader.Load(model.Subset{1, 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMissingInput))

	require.NoError(t, os.Remove(l.VPath(1)))
	_, err = loader.Load(model.Subset{1})
	assert.True(t, errors.Is(err, model.ErrMissingInput))
}

func TestLoaderPODArea(t *testing.T) {
	l := testLayout(t.TempDir())
	writeScenario(t, l, 1, nodesCSV)
	loader := &Loader{Layout: l, NodeCount: 4, PODCount: 3, SupplyOrigin: 1}

	area, err := loader.PODArea(1)
	require.NoError(t, err)
	assert.Equal(t, 40.0, area, "node 4 is not a candidate POD")

	_, err = loader.PODArea(2)
	assert.ErrorIs(t, err, model.ErrMissingInput)
}

func TestLoaderMissingColumn(t *testing.T) {
	l := testLayout(t.TempDir())
	writeScenario(t, l, 1, "id,X,Y,Area\n1,0,0,1\n")
	_, err := (&Loader{Layout: l, NodeCount: 1, PODCount: 1}).Load(model.Subset{1})
	assert.True(t, errors.Is(err, model.ErrMissingInput))
}

func TestLoaderConfigErrors(t *testing.T) {
	loader := &Loader{NodeCount: 4, PODCount: 3}
	_, err := loader.Load(nil)
	assert.True(t, errors.Is(err, model.ErrConfig))

	loader = &Loader{NodeCount: 2, PODCount: 3}
	_, err = loader.Load(model.Subset{1})
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func TestDumpAndExport(t *testing.T) {
	l := testLayout(t.TempDir())
	writeScenario(t, l, 1, nodesCSV)
	ds, err := (&Loader{Layout: l, NodeCount: 4, PODCount: 3, SupplyOrigin: 1}).Load(model.Subset{1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ds.DumpV0(&buf, 1))
	assert.Equal(t, "Scenario 1:\n1 -> 1\n2 -> 1\n3 -> 0\n", buf.String())

	buf.Reset()
	require.NoError(t, ds.DumpV(&buf, 7))
	assert.Equal(t, "Scenario 7 not found in the v matrix.\n", buf.String())

	buf.Reset()
	require.NoError(t, ds.ExportV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "Scenario;DestinationID;OriginID;Accessibility_Score", lines[0])
	assert.Len(t, lines, 5)
	assert.Equal(t, "1;1;2;1", lines[1])
}

func TestLoadCoordinates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodes.csv")
	writeFile(t, path, "id,X,Y,Area,Demand\n1,29.5,41.5,0,0\n2,,41.0,1,1\n")
	c, err := LoadCoordinates(path, "id")
	require.NoError(t, err)
	p, ok := c.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, Point{X: 29.5, Y: 41.5}, p)
	_, ok = c.Lookup(2)
	assert.False(t, ok)

	_, err = LoadCoordinates(filepath.Join(dir, "absent.csv"), "id")
	assert.True(t, errors.Is(err, model.ErrMissingInput))
}
