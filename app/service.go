// Package app wires configuration, storage, solver backends and metrics
// into the podplan operations.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/podplan/config"
	"github.com/kilianp07/podplan/core/aggregate"
	"github.com/kilianp07/podplan/core/capacity"
	"github.com/kilianp07/podplan/core/coverage"
	"github.com/kilianp07/podplan/core/dataset"
	"github.com/kilianp07/podplan/core/explorer"
	"github.com/kilianp07/podplan/core/formulation"
	coremetrics "github.com/kilianp07/podplan/core/metrics"
	"github.com/kilianp07/podplan/core/model"
	coremon "github.com/kilianp07/podplan/core/monitoring"
	"github.com/kilianp07/podplan/core/solver"
	"github.com/kilianp07/podplan/infra/geoexport"
	"github.com/kilianp07/podplan/infra/logger"
	"github.com/kilianp07/podplan/infra/metrics"
	"github.com/kilianp07/podplan/infra/monitoring"
	"github.com/kilianp07/podplan/infra/mqtt"
	_ "github.com/kilianp07/podplan/infra/solver/bnb"
	"github.com/kilianp07/podplan/infra/store"
	"github.com/kilianp07/podplan/internal/eventbus"
	"github.com/kilianp07/podplan/pkg/export"
)

// SummaryFile is the JSON digest written next to the aggregate tables.
const SummaryFile = "aggregate_summary.json"

// Service runs the podplan operations for one configuration.
type Service struct {
	cfg      *config.Config
	sink     coremetrics.MetricsSink
	log      logger.Logger
	closeLog func() error
	now      func() time.Time
}

// New configures logging and monitoring and builds the metrics sinks.
func New(cfg *config.Config) (*Service, error) {
	closeLog, err := logger.Configure(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("%w: logging: %v", model.ErrConfig, err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	return &Service{
		cfg:      cfg,
		sink:     sink,
		log:      logger.New("service"),
		closeLog: closeLog,
		now:      time.Now,
	}, nil
}

func (s *Service) naming() store.Naming {
	return store.Naming{Dir: s.cfg.Output.Dir, Method: s.cfg.Input.Method, District: s.cfg.Input.District}
}

// ServeMetrics exposes /metrics until ctx is done when a Prometheus
// address is configured.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Solve runs the batch over every configured scenario subset.
func (s *Service) Solve(ctx context.Context) (*explorer.Report, error) {
	naming := s.naming()
	if err := os.MkdirAll(s.cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	backend, err := solver.New(s.cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("%w: solver: %v", model.ErrConfig, err)
	}
	ecfg := s.cfg.Explorer()
	ecfg.BatchID = uuid.NewString()

	resultsLog, err := store.CreateResultsLog(naming.ResultsLogPath(ecfg.ScenarioCount, ecfg.SubsetSize))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resultsLog.Close(); err != nil {
			s.log.Errorf("closing results log: %v", err)
		}
	}()
	var results explorer.ResultSink = resultsLog
	if path := s.cfg.Results.SQLitePath; path != "" {
		db, err := store.NewSQLiteResults(path, ecfg.BatchID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = db.Close() }()
		results = store.Tee{resultsLog, db}
	}

	solutions := store.Solutions{Naming: naming}
	ex, err := explorer.New(ecfg, s.cfg.Input.Loader(logger.New("dataset")), backend, solutions, results, logger.New("explorer"))
	if err != nil {
		return nil, err
	}
	ex.SetModelWriter(solutions)
	bus := eventbus.New(eventbus.WithBuffer(1024))
	ex.SetEventBus(bus)
	done := metrics.StartEventCollector(context.WithoutCancel(ctx), bus, s.sink)

	rep, err := ex.Run(ctx)
	bus.Close()
	<-done
	if rep != nil {
		s.log.Infow("batch report", map[string]any{
			"batch_id":    rep.BatchID,
			"results_log": resultsLog.Path(),
			"total":       rep.Total,
			"solved":      rep.Solved,
			"skipped":     rep.Skipped,
			"failed":      rep.Failed,
		})
	}
	return rep, err
}

// AggregateOutput is what an aggregation run produced.
type AggregateOutput struct {
	Result  aggregate.Result
	Outputs []string
}

// Aggregate combines the persisted solution tables and writes the
// aggregate tables, the JSON summary and, when enabled, point layers.
func (s *Service) Aggregate() (*AggregateOutput, error) {
	ac := s.cfg.Aggregate
	files, err := s.naming().Discover()
	if err != nil {
		return nil, err
	}
	agg := aggregate.New(store.TableReader{}, logger.New("aggregate"))
	agg.TopK, agg.Tolerance = ac.TopK, ac.Tolerance
	res := agg.Run(files)

	coordsPath := s.cfg.Input.Layout().NodePath(model.ScenarioID(ac.CoordinatesScenario))
	coords, err := dataset.LoadCoordinates(coordsPath, s.cfg.Input.IDColumn)
	if err != nil {
		s.log.Warnf("coordinates unavailable, exporting without them: %v", err)
	}
	if err := os.MkdirAll(ac.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	method := s.cfg.Input.Method
	paths, err := export.WriteAll(ac.Dir, method, res, coords)
	if err != nil {
		return nil, err
	}
	if ac.Shapefiles {
		w := geoexport.Writer{Dir: ac.Dir, Method: method, Coords: coords, Log: logger.New("geoexport")}
		layers, err := w.WriteAll(res)
		if err != nil {
			return nil, err
		}
		paths = append(paths, layers...)
	}
	if ac.Charts {
		chart, err := export.WriteMeanYChartFile(ac.Dir, method, res)
		if err != nil {
			return nil, err
		}
		paths = append(paths, chart)
	}
	summaryPath := export.Path(ac.Dir, method, SummaryFile)
	if err := writeSummary(summaryPath, res, method, paths); err != nil {
		return nil, err
	}
	paths = append(paths, summaryPath)

	if r, ok := s.sink.(coremetrics.AggregateRecorder); ok {
		if err := r.RecordAggregate(coremetrics.AggregateSummary{
			Method:   method,
			District: s.cfg.Input.District,
			Files:    res.Read,
			Skipped:  len(res.Skipped),
			TopPODs:  len(res.Selected),
			Time:     s.now(),
		}); err != nil {
			s.log.Warnf("recording aggregate metrics: %v", err)
		}
	}
	return &AggregateOutput{Result: res, Outputs: paths}, nil
}

func writeSummary(path string, res aggregate.Result, method string, outputs []string) error {
	sum := export.Summary{
		Method:   method,
		Read:     res.Read,
		PODs:     len(res.MeanY),
		Selected: res.Selected,
		Pairs:    len(res.UnionX),
		Outputs:  outputs,
	}
	for _, sk := range res.Skipped {
		sum.Skipped = append(sum.Skipped, sk.Path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	if err := export.WriteJSON(f, sum); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return nil
}

// Calibrate sweeps the coverage threshold over the calibration scenarios.
func (s *Service) Calibrate() (coverage.Result, error) {
	sub := s.cfg.CalibrationSubset()
	ds, err := s.cfg.Input.Loader(logger.New("dataset")).Load(sub)
	if err != nil {
		return coverage.Result{}, err
	}
	res, err := s.cfg.Calibration.Calibrator().Calibrate(ds)
	if err != nil {
		return coverage.Result{}, err
	}
	s.log.Infow("coverage calibrated", map[string]any{
		"scenarios": sub.Key(),
		"tau":       res.Tau,
		"deviation": res.Deviation,
	})
	return res, nil
}

// WriteCalibrationChart renders the sweep of res as an HTML chart at path.
func (s *Service) WriteCalibrationChart(path string, res coverage.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	if err := export.WriteCalibrationChart(f, res, s.cfg.Calibration.Target); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %v", model.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	return nil
}

// Inspect writes the accessibility structure of every scenario of sub to
// w. With flat set, the POD->demand index is written as a single table.
func (s *Service) Inspect(w io.Writer, sub model.Subset, flat bool) error {
	ds, err := s.cfg.Input.Loader(logger.New("dataset")).Load(sub)
	if err != nil {
		return err
	}
	if flat {
		return ds.ExportV(w)
	}
	for _, sc := range sub {
		if err := ds.DumpV0(w, sc); err != nil {
			return err
		}
		if err := ds.DumpV(w, sc); err != nil {
			return err
		}
	}
	return nil
}

// ExportLP builds the model of sub without solving it and writes it in LP
// format. It returns the written path.
func (s *Service) ExportLP(sub model.Subset) (string, error) {
	ds, err := s.cfg.Input.Loader(logger.New("dataset")).Load(sub)
	if err != nil {
		return "", err
	}
	est := capacity.Estimator{Factor: s.cfg.Model.CapacityFactor, Exclude: []model.PODID{model.PODID(s.cfg.Input.SupplyOrigin)}}
	caps, err := est.Estimate(ds)
	if err != nil {
		return "", err
	}
	backend, err := solver.New(s.cfg.Solver)
	if err != nil {
		return "", fmt.Errorf("%w: solver: %v", model.ErrConfig, err)
	}
	m := backend.NewModel("podplan_" + sub.Key())
	if _, err := formulation.Formulate(m, ds, caps, s.cfg.Model.Params()); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.cfg.Output.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	path := s.naming().ModelPath(sub)
	if err := store.WriteModel(path, m); err != nil {
		return "", err
	}
	return path, nil
}

// Close flushes monitoring, releases the metrics sinks and the log file.
func (s *Service) Close() error {
	closeSink(s.sink)
	coremon.Flush(2 * time.Second)
	if s.closeLog != nil {
		return s.closeLog()
	}
	return nil
}

func closeSink(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, child := range v.Sinks {
			closeSink(child)
		}
	case *metrics.InfluxSink:
		v.Close()
	case *mqtt.Notifier:
		v.Disconnect()
	}
}
