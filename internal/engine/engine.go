// Package engine is the statistics engine behind the batch dispatcher:
// hypergeometric ORA, permutation GSEA and multi-omics combination.
// It runs batches on an ordered worker pool and returns results in job order.
package engine

import (
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/method"
)

var (
	// ErrNoGeneSets is returned for a job without a gene set collection.
	ErrNoGeneSets = errors.New("job has no gene set collection")
	// ErrUnsupportedMethod is returned when a method does not apply to the analysis.
	ErrUnsupportedMethod = errors.New("unsupported multi-omics method")
)

// Engine runs ORA and GSEA jobs.
type Engine struct {
	workers int
	logger  *zap.Logger
}

// New creates an engine running batches on the given number of workers.
// If workers is 0, runtime.NumCPU() is used.
func New(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		workers: workers,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Workers returns the size of the worker pool.
func (e *Engine) Workers() int {
	return e.workers
}

// ORA runs a single over-representation analysis.
func (e *Engine) ORA(j job.ORAJob) ([]job.ORAResultRow, error) {
	return runORA(j)
}

// GSEA runs a single gene set enrichment analysis.
func (e *Engine) GSEA(j job.GSEAJob) ([]job.GSEAResultRow, error) {
	return runGSEA(j)
}

// MultiORA runs one ORA per job and combines per-set p-values across layers.
// Only meta-analysis methods apply.
func (e *Engine) MultiORA(jobs []job.ORAJob, m method.MultiOmics) (job.Batch[job.ORAResultRow], error) {
	meta, ok := m.MetaAnalysis()
	if !ok {
		return job.Batch[job.ORAResultRow]{}, fmt.Errorf("multi-omics ORA with %s: %w", m, ErrUnsupportedMethod)
	}

	layers, err := runBatch(jobs, e.workers, runORA)
	if err != nil {
		return job.Batch[job.ORAResultRow]{}, err
	}

	fdr := job.FDRNone
	if len(jobs) > 0 {
		fdr = jobs[0].Config.FDR
	}

	var pv pvalues
	for _, rows := range layers {
		for _, r := range rows {
			pv.add(r.Set, r.P)
		}
	}
	p := pv.combine(meta)
	adjusted := adjust(p, fdr)
	combined := make([]job.ORAResultRow, len(p))
	for i, set := range pv.order {
		combined[i] = job.ORAResultRow{Set: set, P: p[i], FDR: adjusted[i]}
	}

	e.logger.Debug("multi-omics ORA complete",
		zap.Int("layers", len(layers)),
		zap.Int("combined_sets", len(combined)),
		zap.Stringer("method", m))

	return job.Batch[job.ORAResultRow]{Combined: combined, Layers: layers}, nil
}

// MultiGSEA runs one GSEA per job and combines the layers. Meta methods
// combine per-set p-values; Max and Mean merge normalized ranks into one
// list that is analysed on its own.
func (e *Engine) MultiGSEA(jobs []job.GSEAJob, m method.MultiOmics) (job.Batch[job.GSEAResultRow], error) {
	if len(jobs) == 0 {
		return job.Batch[job.GSEAResultRow]{Layers: [][]job.GSEAResultRow{}}, nil
	}

	if meta, ok := m.MetaAnalysis(); ok {
		layers, err := runBatch(jobs, e.workers, runGSEA)
		if err != nil {
			return job.Batch[job.GSEAResultRow]{}, err
		}

		var pv pvalues
		for _, rows := range layers {
			for _, r := range rows {
				pv.add(r.Set, r.P)
			}
		}
		p := pv.combine(meta)
		adjusted := adjust(p, jobs[0].Config.FDR)
		combined := make([]job.GSEAResultRow, len(p))
		for i, set := range pv.order {
			combined[i] = job.GSEAResultRow{Set: set, P: p[i], FDR: adjusted[i]}
		}
		return job.Batch[job.GSEAResultRow]{Combined: combined, Layers: layers}, nil
	}

	norm, _ := m.Normalization()
	merged := job.GSEAJob{
		Sets:   jobs[0].Sets,
		Ranked: mergeRanks(jobs, norm, m.Kind()),
		Config: jobs[0].Config,
	}

	// The merged list runs alongside the layers as one extra job.
	all := append(jobs[:len(jobs):len(jobs)], merged)
	out, err := runBatch(all, e.workers, runGSEA)
	if err != nil {
		return job.Batch[job.GSEAResultRow]{}, err
	}

	e.logger.Debug("multi-omics GSEA complete",
		zap.Int("layers", len(jobs)),
		zap.Int("merged_analytes", len(merged.Ranked)),
		zap.Stringer("method", m))

	return job.Batch[job.GSEAResultRow]{Combined: out[len(jobs)], Layers: out[:len(jobs)]}, nil
}
