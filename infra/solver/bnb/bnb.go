// Package bnb is a small depth-first branch-and-bound MILP backend built on
// gonum's dense simplex. It is meant for test fixtures and small districts
// only. Models whose standard form exceeds max_cells are refused with
// ErrSolver; export those with export-lp and solve them with a dedicated
// engine.
//
// The wall-clock limit is the one set on the model (formulation's
// time_limit_seconds). It is checked before each relaxation and also bounds
// a running simplex call.
package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/podplan/core/factory"
	"github.com/kilianp07/podplan/core/logger"
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/solver"
)

const (
	DefaultTolerance      = 1e-9
	DefaultIntegralityTol = 1e-6
	DefaultMIPGap         = 1e-4

	// DefaultMaxCells caps the dense constraint matrix at 32 MiB of float64.
	DefaultMaxCells = 4_000_000
)

// Config tunes the search.
type Config struct {
	NodeLimit      int     `json:"node_limit"`
	Tolerance      float64 `json:"tolerance"`
	IntegralityTol float64 `json:"integrality_tol"`
	MIPGap         float64 `json:"mip_gap"`
	MaxCells       int     `json:"max_cells"`
}

func (c *Config) setDefaults() {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.IntegralityTol <= 0 {
		c.IntegralityTol = DefaultIntegralityTol
	}
	if c.MIPGap <= 0 {
		c.MIPGap = DefaultMIPGap
	}
	if c.MaxCells <= 0 {
		c.MaxCells = DefaultMaxCells
	}
}

func init() {
	_ = solver.Register("bnb", func(conf map[string]any) (solver.Backend, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return New(c, nil), nil
	})
}

// Backend hands out branch-and-bound models.
type Backend struct {
	cfg Config
	log logger.Logger
}

// New returns a backend with cfg; zero fields take the defaults.
func New(cfg Config, log logger.Logger) *Backend {
	cfg.setDefaults()
	return &Backend{cfg: cfg, log: logger.OrNop(log)}
}

func (b *Backend) Name() string { return "bnb" }

// SetLogger replaces the logger used by models created afterwards.
func (b *Backend) SetLogger(l logger.Logger) { b.log = logger.OrNop(l) }

func (b *Backend) NewModel(name string) solver.Model {
	return &Model{name: name, cfg: b.cfg, log: b.log, obj: math.NaN(), gap: math.Inf(1)}
}

// Model is one branch-and-bound problem instance.
type Model struct {
	solver.Problem

	name string
	cfg  Config
	log  logger.Logger

	status   solver.Status
	values   []float64
	obj      float64
	gap      float64
	solCount int
	nodes    int
}

type node struct {
	fixed map[int]float64
	bound float64
}

func (n node) child(id int, val, bound float64) node {
	fixed := make(map[int]float64, len(n.fixed)+1)
	for k, v := range n.fixed {
		fixed[k] = v
	}
	fixed[id] = val
	return node{fixed: fixed, bound: bound}
}

// Optimize runs the search. Hitting the time limit or the node limit, or a
// cancelled context, stops it with the incumbent kept. A model too large for
// the dense simplex is refused before any relaxation is built.
func (m *Model) Optimize(ctx context.Context) error {
	start := time.Now()
	m.values, m.solCount, m.nodes = nil, 0, 0
	m.obj, m.gap = math.NaN(), math.Inf(1)

	if cells := m.cellBound(); cells > m.cfg.MaxCells {
		m.status = solver.StatusError
		return fmt.Errorf("%w: bnb: %s needs up to %d matrix cells, max_cells is %d; use export-lp with a dedicated engine",
			model.ErrSolver, m.name, cells, m.cfg.MaxCells)
	}

	sctx := ctx
	if m.TimeLimit > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, m.TimeLimit)
		defer cancel()
	}

	// Internally always minimise.
	dir := 1.0
	if m.Dir == solver.Maximize {
		dir = -1
	}
	c := make([]float64, len(m.Vars))
	for id, coef := range m.Objective.Merged() {
		c[id] = dir * coef
	}

	var binaries []int
	for id, v := range m.Vars {
		if v.Type == solver.Binary {
			binaries = append(binaries, id)
		}
	}

	incumbent := math.Inf(1)
	lowest := math.Inf(1)
	stop := solver.StatusUnsolved
	stack := []node{{fixed: map[int]float64{}, bound: math.Inf(-1)}}

search:
	for len(stack) > 0 {
		if sctx.Err() != nil {
			stop = stopStatus(ctx)
			break
		}
		if m.cfg.NodeLimit > 0 && m.nodes >= m.cfg.NodeLimit {
			stop = solver.StatusNodeLimit
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m.prune(nd.bound, incumbent) {
			lowest = math.Min(lowest, nd.bound)
			continue
		}
		m.nodes++

		val, x, err := solveRelaxation(sctx, &m.Problem, c, nd.fixed, m.cfg.Tolerance)
		switch {
		case errors.Is(err, errStopped):
			lowest = math.Min(lowest, nd.bound)
			stop = stopStatus(ctx)
			break search
		case err == errInfeasible:
			continue
		case err == errUnbounded:
			if len(nd.fixed) == 0 {
				m.status = solver.StatusUnbounded
				m.log.Debugf("bnb: %s unbounded", m.name)
				return nil
			}
			continue
		case err != nil:
			m.status = solver.StatusError
			return fmt.Errorf("bnb: %s node %d: %w", m.name, m.nodes, err)
		}
		if m.prune(val, incumbent) {
			lowest = math.Min(lowest, val)
			continue
		}

		branch := mostFractional(x, binaries, m.cfg.IntegralityTol)
		if branch < 0 {
			for _, id := range binaries {
				x[id] = math.Round(x[id])
			}
			incumbent = val
			m.values = x
			m.solCount++
			continue
		}
		down, up := nd.child(branch, 0, val), nd.child(branch, 1, val)
		if x[branch] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	for _, nd := range stack {
		lowest = math.Min(lowest, nd.bound)
	}
	elapsed := time.Since(start)
	defer func() {
		m.log.Debugf("bnb: %s finished in %s status=%s nodes=%d gap=%g", m.name, elapsed, m.status, m.nodes, m.gap)
	}()

	if m.values == nil {
		if stop != solver.StatusUnsolved {
			m.status = stop
		} else {
			m.status = solver.StatusInfeasible
		}
		return nil
	}
	m.obj = dir*incumbent + m.Objective.Const
	m.gap = relativeGap(incumbent, math.Min(lowest, incumbent))
	if stop != solver.StatusUnsolved {
		m.status = stop
	} else {
		m.status = solver.StatusOptimal
	}
	return nil
}

// stopStatus tells a cancelled caller apart from an expired time limit.
func stopStatus(parent context.Context) solver.Status {
	if parent.Err() != nil {
		return solver.StatusInterrupted
	}
	return solver.StatusTimeLimit
}

// cellBound is an upper bound on rows*columns of the root relaxation's
// standard form.
func (m *Model) cellBound() int {
	rows := 0
	for _, r := range m.Rows {
		if r.Sense == solver.Equal {
			rows += 2
		} else {
			rows++
		}
	}
	for _, v := range m.Vars {
		if !math.IsInf(v.LB, -1) && !math.IsInf(v.UB, 1) && v.UB > v.LB {
			rows++
		}
	}
	width := 2*len(m.Vars) + rows
	if rows > 0 && width > math.MaxInt/rows {
		return math.MaxInt
	}
	return rows * width
}

// prune reports whether a node whose relaxation is bound cannot improve on
// the incumbent by more than the relative gap.
func (m *Model) prune(bound, incumbent float64) bool {
	if math.IsInf(incumbent, 1) {
		return false
	}
	return bound >= incumbent-m.cfg.MIPGap*math.Max(1, math.Abs(incumbent))
}

func mostFractional(x []float64, binaries []int, tol float64) int {
	best, bestDist := -1, tol
	for _, id := range binaries {
		f := x[id] - math.Floor(x[id])
		if d := math.Min(f, 1-f); d > bestDist {
			best, bestDist = id, d
		}
	}
	return best
}

func relativeGap(incumbent, bound float64) float64 {
	diff := math.Abs(incumbent - bound)
	if diff == 0 {
		return 0
	}
	if math.Abs(incumbent) < 1e-10 {
		return math.Inf(1)
	}
	return diff / math.Abs(incumbent)
}

func (m *Model) SolCount() int         { return m.solCount }
func (m *Model) Status() solver.Status { return m.status }
func (m *Model) ObjVal() float64       { return m.obj }
func (m *Model) MIPGap() float64       { return m.gap }
func (m *Model) Nodes() int            { return m.nodes }

// Value returns the incumbent value of v, or NaN without a solution.
func (m *Model) Value(v solver.Var) float64 {
	if m.values == nil || v.ID < 0 || v.ID >= len(m.values) {
		return math.NaN()
	}
	return m.values[v.ID]
}
