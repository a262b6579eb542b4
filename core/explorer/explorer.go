// Package explorer solves the POD location model for every k-subset of the
// scenarios of a district and records each outcome.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/podplan/core/capacity"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/events"
	"github.com/kilianp07/podplan/core/formulation"
	"github.com/kilianp07/podplan/core/logger"
	"github.com/kilianp07/podplan/core/metrics"
	"github.com/kilianp07/podplan/core/model"
	"github.com/kilianp07/podplan/core/monitoring"
	"github.com/kilianp07/podplan/core/solver"
	"github.com/kilianp07/podplan/core/subset"
	"github.com/kilianp07/podplan/internal/eventbus"
)

// VerifyTolerance is the slack allowed when checking extracted solutions.
const VerifyTolerance = 1e-6

// DatasetLoader builds the dataset of a scenario subset.
type DatasetLoader interface {
	Load(s model.Subset) (*dataset.Dataset, error)
}

// SolutionStore persists the tables of a solved subset.
type SolutionStore interface {
	Persist(sol model.Solution) error
}

// ResultSink receives one results row per solved subset, in enumeration
// order.
type ResultSink interface {
	Append(row model.ResultRow) error
}

// AreaSource reports the total candidate POD area of a scenario's node
// table. Loaders that implement it let Run reject a zero area before any
// subset is solved.
type AreaSource interface {
	PODArea(s model.ScenarioID) (float64, error)
}

// ModelWriter exports a built model before it is solved.
type ModelWriter interface {
	WriteModel(s model.Subset, m solver.Model) error
}

// Explorer runs batches. It holds no state between runs.
type Explorer struct {
	cfg     Config
	loader  DatasetLoader
	backend solver.Backend
	store   SolutionStore
	results ResultSink
	models  ModelWriter
	bus     eventbus.EventBus
	log     logger.Logger
	now     func() time.Time
}

// New returns an explorer. loader, backend, store and results are required.
func New(cfg Config, loader DatasetLoader, backend solver.Backend, store SolutionStore, results ResultSink, log logger.Logger) (*Explorer, error) {
	if loader == nil || backend == nil || store == nil || results == nil {
		return nil, fmt.Errorf("%w: explorer requires a loader, a solver backend, a solution store and a results sink", model.ErrConfig)
	}
	cfg.SetDefaults()
	return &Explorer{
		cfg:     cfg,
		loader:  loader,
		backend: backend,
		store:   store,
		results: results,
		log:     logger.OrNop(log),
		now:     time.Now,
	}, nil
}

// SetModelWriter enables LP dumps when Config.WriteLP is set.
func (e *Explorer) SetModelWriter(w ModelWriter) { e.models = w }

// SetEventBus publishes subset and batch events on b.
func (e *Explorer) SetEventBus(b eventbus.EventBus) { e.bus = b }

// batch carries the per-run ordering buffer.
type batch struct {
	id  string
	rep *Report

	mu      sync.Mutex
	next    int
	pending map[int]result
}

type result struct {
	out Outcome
	row *model.ResultRow
}

// Run enumerates every k-subset of 1..n in lexicographic order and solves
// it. A configuration error aborts the batch; every other failure is
// recorded in the report and the batch moves on.
func (e *Explorer) Run(ctx context.Context) (*Report, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	n, k := e.cfg.ScenarioCount, e.cfg.SubsetSize
	if err := e.checkAreas(n, k); err != nil {
		return nil, err
	}
	b := &batch{
		id:      e.cfg.BatchID,
		pending: make(map[int]result),
	}
	if b.id == "" {
		b.id = uuid.NewString()
	}
	b.rep = &Report{BatchID: b.id, Total: subset.Count(n, k)}
	b.rep.Outcomes = make([]Outcome, 0, b.rep.Total)

	e.log.Infow("batch started", map[string]any{
		"component": "explorer",
		"batch_id":  b.id,
		"method":    e.cfg.Method,
		"district":  e.cfg.District,
		"subsets":   b.rep.Total,
		"workers":   e.cfg.Workers,
	})
	e.publishBatch(b, false)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	idx := 0
	for combo := range subset.Combinations(n, k) {
		if gctx.Err() != nil {
			break
		}
		i, s := idx, model.NewSubset(combo)
		idx++
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := e.solve(gctx, b, i, s)
			e.commit(b, res)
			return err
		})
	}
	err := g.Wait()
	e.drain(b)

	rep := b.rep
	e.publishBatch(b, true)
	e.log.Infow("batch finished", map[string]any{
		"component": "explorer",
		"batch_id":  b.id,
		"solved":    rep.Solved,
		"skipped":   rep.Skipped,
		"failed":    rep.Failed,
	})
	if err != nil {
		return rep, err
	}
	return rep, ctx.Err()
}

// checkAreas loads the POD areas of every scenario that leads a subset,
// 1..n-k+1, and fails on a zero total. Unreadable tables are left to the
// subset that needs them.
func (e *Explorer) checkAreas(n, k int) error {
	src, ok := e.loader.(AreaSource)
	if !ok {
		return nil
	}
	for s := 1; s <= n-k+1; s++ {
		total, err := src.PODArea(model.ScenarioID(s))
		if err != nil {
			if errors.Is(err, model.ErrConfig) {
				return err
			}
			e.log.Debugf("explorer: area check skipped for scenario %d: %v", s, err)
			continue
		}
		if err := capacity.CheckArea(total); err != nil {
			e.log.Errorf("explorer: aborting batch before it starts: scenario %d: %v", s, err)
			return fmt.Errorf("scenario %d: %w", s, err)
		}
	}
	return nil
}

// solve runs one subset end to end. The returned error is non-nil only
// for failures that abort the batch.
func (e *Explorer) solve(ctx context.Context, b *batch, idx int, s model.Subset) (result, error) {
	out := newOutcome(idx, s)
	e.publish(events.SubsetEvent{BatchID: b.id, Index: idx, Subset: s, Phase: events.PhaseStarted, Objective: out.Objective, Time: e.now()})

	ds, err := e.loader.Load(s)
	if err != nil {
		return e.settle(b, out, "load", err)
	}
	est := capacity.Estimator{Factor: e.cfg.CapacityFactor, Exclude: []model.PODID{e.cfg.SupplyOrigin}}
	caps, err := est.Estimate(ds)
	if err != nil {
		return e.settle(b, out, "capacity", err)
	}
	m := e.backend.NewModel("podplan_" + s.Key())
	f, err := formulation.Formulate(m, ds, caps, e.cfg.Params)
	if err != nil {
		return e.settle(b, out, "formulate", err)
	}
	e.log.Debugw("model built", map[string]any{
		"component":   "explorer",
		"subset":      s.Key(),
		"variables":   f.NumVars,
		"constraints": f.NumConstr,
	})
	if e.cfg.WriteLP && e.models != nil {
		if err := e.models.WriteModel(s, m); err != nil {
			e.log.Warnf("explorer: writing model for scenarios %s: %v", s.Key(), err)
			b.rep.addErr(err)
			monitoring.CaptureSubset(err, s, "write_lp")
		}
	}

	start := e.now()
	err = m.Optimize(ctx)
	out.Duration = e.now().Sub(start)
	out.Status = m.Status().String()
	if err != nil {
		if !errors.Is(err, model.ErrSolver) {
			err = fmt.Errorf("%w: %v", model.ErrSolver, err)
		}
		return e.settle(b, out, "solve", err)
	}
	if m.SolCount() == 0 {
		return e.settle(b, out, "solve", fmt.Errorf("%w: no solution for scenarios %s (%s)", model.ErrSolver, s.Key(), out.Status))
	}

	sol := f.Extract(m)
	sol.Duration = out.Duration
	out.Objective, out.Gap = sol.Objective, sol.Gap
	if e.cfg.Verify {
		if err := formulation.Verify(sol, ds, caps, e.cfg.Params, VerifyTolerance); err != nil {
			e.log.Warnf("explorer: solution for scenarios %s violates the model: %v", s.Key(), err)
		}
	}
	if err := e.store.Persist(sol); err != nil {
		b.rep.addErr(err)
		return e.settle(b, out, "persist", err)
	}

	row := model.RowFromSolution(sol)
	out.Outcome = metrics.OutcomeSolved
	e.log.Infow("subset solved", map[string]any{
		"component": "explorer",
		"subset":    s.Key(),
		"status":    out.Status,
		"objective": row.ObjectiveString(),
		"gap":       out.Gap,
		"duration":  out.Duration.String(),
		"open_pods": sol.OpenCount(),
	})
	e.publishOutcome(b, out)
	return result{out: out, row: &row}, nil
}

// settle classifies a subset failure.
func (e *Explorer) settle(b *batch, out Outcome, stage string, err error) (result, error) {
	out.Err = err
	switch {
	case errors.Is(err, model.ErrConfig):
		out.Outcome = metrics.OutcomeFailed
		e.log.Errorf("explorer: aborting batch at scenarios %s (%s): %v", out.Subset.Key(), stage, err)
		e.publishOutcome(b, out)
		return result{out: out}, err
	case errors.Is(err, model.ErrMissingInput):
		out.Outcome = metrics.OutcomeSkipped
		e.log.Warnf("explorer: skipping scenarios %s: %v", out.Subset.Key(), err)
	default:
		out.Outcome = metrics.OutcomeFailed
		e.log.Errorf("explorer: scenarios %s failed (%s): %v", out.Subset.Key(), stage, err)
		monitoring.CaptureSubset(err, out.Subset, stage)
	}
	e.publishOutcome(b, out)
	return result{out: out}, nil
}

// commit buffers r and flushes every consecutive finished subset, so the
// results sink sees rows in enumeration order.
func (e *Explorer) commit(b *batch, r result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[r.out.Index] = r
	for {
		next, ok := b.pending[b.next]
		if !ok {
			return
		}
		delete(b.pending, b.next)
		b.next++
		if next.row != nil {
			if err := e.results.Append(*next.row); err != nil {
				next.out.Err = err
				b.rep.addErr(err)
				e.log.Errorf("explorer: appending result for scenarios %s: %v", next.out.Subset.Key(), err)
				monitoring.CaptureSubset(err, next.out.Subset, "results")
			} else {
				next.out.Logged = true
			}
		}
		b.rep.Outcomes = append(b.rep.Outcomes, next.out)
		b.rep.count(next.out)
		e.publishBatch(b, false)
	}
}

// drain flushes subsets stranded behind one that never ran because the
// batch was cancelled.
func (e *Explorer) drain(b *batch) {
	b.mu.Lock()
	idx := make([]int, 0, len(b.pending))
	for i := range b.pending {
		idx = append(idx, i)
	}
	b.mu.Unlock()
	sort.Ints(idx)
	for _, i := range idx {
		b.mu.Lock()
		r, ok := b.pending[i]
		if ok {
			b.next = i
		}
		b.mu.Unlock()
		if ok {
			e.commit(b, r)
		}
	}
}

func (e *Explorer) publish(ev any) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Explorer) publishOutcome(b *batch, out Outcome) {
	phase := events.PhaseFailed
	switch out.Outcome {
	case metrics.OutcomeSolved:
		phase = events.PhaseSolved
	case metrics.OutcomeSkipped:
		phase = events.PhaseSkipped
	}
	e.publish(events.SubsetEvent{
		BatchID:   b.id,
		Index:     out.Index,
		Subset:    out.Subset,
		Phase:     phase,
		Status:    out.Status,
		Objective: out.Objective,
		Gap:       out.Gap,
		Duration:  out.Duration,
		Err:       out.Err,
		Time:      e.now(),
	})
}

// publishBatch must be called with b.mu held or after all workers returned.
func (e *Explorer) publishBatch(b *batch, done bool) {
	rep := b.rep
	e.publish(events.BatchEvent{
		BatchID:   b.id,
		Method:    e.cfg.Method,
		District:  e.cfg.District,
		Total:     rep.Total,
		Completed: len(rep.Outcomes),
		Solved:    rep.Solved,
		Skipped:   rep.Skipped,
		Failed:    rep.Failed,
		Done:      done,
		Time:      e.now(),
	})
}
