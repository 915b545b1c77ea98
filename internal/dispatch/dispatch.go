// Package dispatch hands assembled jobs to a statistics engine.
package dispatch

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/method"
)

// ErrEngineContract is returned when an engine answers a batch with a
// different number of result lists than jobs.
var ErrEngineContract = errors.New("engine broke batch contract")

// ORAEngine runs over-representation analyses.
type ORAEngine interface {
	ORA(j job.ORAJob) ([]job.ORAResultRow, error)
	MultiORA(jobs []job.ORAJob, m method.MultiOmics) (job.Batch[job.ORAResultRow], error)
}

// GSEAEngine runs gene set enrichment analyses.
type GSEAEngine interface {
	GSEA(j job.GSEAJob) ([]job.GSEAResultRow, error)
	MultiGSEA(jobs []job.GSEAJob, m method.MultiOmics) (job.Batch[job.GSEAResultRow], error)
}

// Engine runs both analyses.
type Engine interface {
	ORAEngine
	GSEAEngine
}

// Dispatcher forwards jobs and the resolved method to an engine unchanged.
type Dispatcher struct {
	engine  Engine
	logger  *zap.Logger
	metrics *Metrics
}

// New creates a dispatcher for the given engine.
func New(e Engine) *Dispatcher {
	return &Dispatcher{
		engine: e,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for batch messages.
func (d *Dispatcher) SetLogger(l *zap.Logger) {
	d.logger = l
}

// SetMetrics sets where batch metrics are recorded. Nil disables metrics.
func (d *Dispatcher) SetMetrics(m *Metrics) {
	d.metrics = m
}

// ORA dispatches a single ORA job.
func (d *Dispatcher) ORA(j job.ORAJob) ([]job.ORAResultRow, error) {
	start := time.Now()
	rows, err := d.engine.ORA(j)
	d.observe(analysisORA, "single", 1, start, err)
	if err != nil {
		return nil, fmt.Errorf("ORA: %w", err)
	}
	return rows, nil
}

// GSEA dispatches a single GSEA job.
func (d *Dispatcher) GSEA(j job.GSEAJob) ([]job.GSEAResultRow, error) {
	start := time.Now()
	rows, err := d.engine.GSEA(j)
	d.observe(analysisGSEA, "single", 1, start, err)
	if err != nil {
		return nil, fmt.Errorf("GSEA: %w", err)
	}
	return rows, nil
}

// MultiORA dispatches ORA jobs as one batch. The returned layers follow job order.
func (d *Dispatcher) MultiORA(jobs []job.ORAJob, m method.MultiOmics) (job.Batch[job.ORAResultRow], error) {
	start := time.Now()
	batch, err := d.engine.MultiORA(jobs, m)
	if err == nil {
		err = checkLayers(len(jobs), len(batch.Layers))
	}
	d.observe(analysisORA, m.String(), len(jobs), start, err)
	if err != nil {
		return job.Batch[job.ORAResultRow]{}, fmt.Errorf("multi-omics ORA: %w", err)
	}
	return batch, nil
}

// MultiGSEA dispatches GSEA jobs as one batch. The returned layers follow job order.
func (d *Dispatcher) MultiGSEA(jobs []job.GSEAJob, m method.MultiOmics) (job.Batch[job.GSEAResultRow], error) {
	start := time.Now()
	batch, err := d.engine.MultiGSEA(jobs, m)
	if err == nil {
		err = checkLayers(len(jobs), len(batch.Layers))
	}
	d.observe(analysisGSEA, m.String(), len(jobs), start, err)
	if err != nil {
		return job.Batch[job.GSEAResultRow]{}, fmt.Errorf("multi-omics GSEA: %w", err)
	}
	return batch, nil
}

func checkLayers(jobs, layers int) error {
	if jobs != layers {
		return fmt.Errorf("%d jobs but %d result lists: %w", jobs, layers, ErrEngineContract)
	}
	return nil
}

func (d *Dispatcher) observe(analysis, methodName string, jobs int, start time.Time, err error) {
	elapsed := time.Since(start)
	if err != nil {
		d.logger.Warn("batch failed",
			zap.String("analysis", analysis),
			zap.String("method", methodName),
			zap.Int("jobs", jobs),
			zap.Error(err))
	} else {
		d.logger.Info("batch complete",
			zap.String("analysis", analysis),
			zap.String("method", methodName),
			zap.Int("jobs", jobs),
			zap.Duration("elapsed", elapsed))
	}
	if d.metrics != nil {
		d.metrics.record(analysis, methodName, jobs, elapsed, err)
	}
}
