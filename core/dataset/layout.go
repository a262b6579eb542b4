package dataset

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/podplan/core/model"
)

// Default path templates reproduce the directory layout produced by the
// building-selection and cost-matrix tooling.
const (
	DefaultNodePattern = "{base}/Building_Selection/{method}_Building_Selection/{method_lower}_LDC_POD_DemandPoint_csv/{method}_LDC_POD_DemandPoint_{district}_Scenario_{scenario}.csv"
	DefaultV0Pattern   = "{base}/Gurobi_Optimization_SLMRND/Input_Data_Files/{method_lower}_input_files_gurobi/{method_lower}_LDC-POD_Matrices/{method}_LDC-POD_Matrix_{district}_Scenario_{scenario}.csv"
	DefaultVPattern    = "{base}/Gurobi_Optimization_SLMRND/Input_Data_Files/{method_lower}_input_files_gurobi/{method_lower}_POD-DemandPoint_Matrices/{method}_POD-DemandPoint_Matrix_{district}_Scenario_{scenario}.csv"
)

// Layout resolves per-scenario input file paths from templates. Supported
// placeholders are {base}, {method}, {method_lower}, {district} (always
// lower-cased) and {scenario}.
type Layout struct {
	BaseDir  string
	Method   string
	District string

	NodePattern string
	V0Pattern   string
	VPattern    string
}

// WithDefaults fills empty templates with the default layout.
func (l Layout) WithDefaults() Layout {
	if l.NodePattern == "" {
		l.NodePattern = DefaultNodePattern
	}
	if l.V0Pattern == "" {
		l.V0Pattern = DefaultV0Pattern
	}
	if l.VPattern == "" {
		l.VPattern = DefaultVPattern
	}
	if l.BaseDir == "" {
		l.BaseDir = "."
	}
	return l
}

func (l Layout) expand(pattern string, s model.ScenarioID) string {
	r := strings.NewReplacer(
		"{base}", l.BaseDir,
		"{method_lower}", strings.ToLower(l.Method),
		"{method}", l.Method,
		"{district}", strings.ToLower(l.District),
		"{scenario}", strconv.Itoa(int(s)),
	)
	return filepath.FromSlash(r.Replace(pattern))
}

// NodePath is the node table of scenario s.
func (l Layout) NodePath(s model.ScenarioID) string { return l.expand(l.NodePattern, s) }

// V0Path is the origin->POD accessibility table of scenario s.
func (l Layout) V0Path(s model.ScenarioID) string { return l.expand(l.V0Pattern, s) }

// VPath is the POD->demand accessibility table of scenario s.
func (l Layout) VPath(s model.ScenarioID) string { return l.expand(l.VPattern, s) }
