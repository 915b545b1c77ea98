// Package enrich exposes the enrichment operations over primitive vectors:
// membership matrix construction, ORA and GSEA, single- and multi-omics.
// Every call is stateless; an error aborts the whole call.
package enrich

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/gestalt/internal/dispatch"
	"github.com/inodb/gestalt/internal/geneset"
	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/method"
	"github.com/inodb/gestalt/internal/results"
)

// Options configures a Service.
type Options struct {
	ORA  job.ORAConfig
	GSEA job.GSEAConfig
	// Strict rejects unrecognized method directives instead of defaulting.
	Strict bool
}

// GSEAParams are the per-call GSEA parameters supplied by the host.
// Zero fields fall back to the service's GSEA configuration.
type GSEAParams struct {
	MinOverlap   int
	MaxOverlap   int
	Permutations int
}

// Service runs enrichment analyses through a dispatcher.
type Service struct {
	dispatcher *dispatch.Dispatcher
	resolver   method.Resolver
	ora        job.ORAConfig
	gsea       job.GSEAConfig
	logger     *zap.Logger
}

// NewService creates a service dispatching through d.
func NewService(d *dispatch.Dispatcher, opts Options) *Service {
	return &Service{
		dispatcher: d,
		resolver:   method.Resolver{Strict: opts.Strict},
		ora:        opts.ORA,
		gsea:       opts.GSEA,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (s *Service) SetLogger(l *zap.Logger) {
	s.logger = l
}

// BuildMembershipMatrix builds the gene × gene set incidence matrix from a
// sparse membership table given as two parallel columns.
func (s *Service) BuildMembershipMatrix(pairSets, pairGenes, genes, geneSets []string) (*geneset.Matrix, error) {
	pairs, err := geneset.ZipPairs(pairSets, pairGenes)
	if err != nil {
		return nil, err
	}
	m, err := geneset.BuildMatrix(pairs, genes, geneSets)
	if err != nil {
		return nil, fmt.Errorf("membership matrix: %w", err)
	}
	return m, nil
}

// RunORA runs a single-layer ORA.
func (s *Service) RunORA(sets []string, parts [][]string, interest, reference []string) (results.ORATable, error) {
	coll, err := geneset.NewCollection(sets, parts)
	if err != nil {
		return results.ORATable{}, err
	}

	rows, err := s.dispatcher.ORA(job.ORA(coll, interest, reference, s.ora))
	if err != nil {
		return results.ORATable{}, err
	}
	return results.NewORATable(rows), nil
}

// RunMultiOmicsORA runs one ORA per layer and combines them with the
// meta-analysis named by directive. Layers come back in input order.
func (s *Service) RunMultiOmicsORA(sets []string, parts [][]string, interest, reference [][]string, directive string) (results.ORABatch, error) {
	m, err := s.resolver.ORA(directive)
	if err != nil {
		return results.ORABatch{}, err
	}
	coll, err := geneset.NewCollection(sets, parts)
	if err != nil {
		return results.ORABatch{}, err
	}
	jobs, err := job.MultiORA(coll, interest, reference, s.ora)
	if err != nil {
		return results.ORABatch{}, err
	}

	s.logger.Debug("assembled ORA batch", zap.Int("layers", len(jobs)), zap.Stringer("method", m))

	batch, err := s.dispatcher.MultiORA(jobs, m)
	if err != nil {
		return results.ORABatch{}, err
	}
	return results.NewORABatch(batch), nil
}

// RunGSEA runs a single-layer GSEA.
func (s *Service) RunGSEA(p GSEAParams, sets []string, parts [][]string, analytes []string, ranks []float64) (results.GSEATable, error) {
	coll, err := geneset.NewCollection(sets, parts)
	if err != nil {
		return results.GSEATable{}, err
	}
	j, err := job.GSEA(coll, analytes, ranks, s.gseaConfig(p))
	if err != nil {
		return results.GSEATable{}, err
	}

	rows, err := s.dispatcher.GSEA(j)
	if err != nil {
		return results.GSEATable{}, err
	}
	return results.NewGSEATable(rows), nil
}

// RunMultiOmicsGSEA runs one GSEA per layer and combines them. combination
// is "meta", "max" or "mean"; modifier names the meta-analysis for "meta"
// and the rank normalization otherwise. Layers come back in input order.
func (s *Service) RunMultiOmicsGSEA(p GSEAParams, sets []string, parts [][]string, analytes [][]string, ranks [][]float64, modifier, combination string) (results.GSEABatch, error) {
	m, err := s.resolver.GSEA(combination, modifier)
	if err != nil {
		return results.GSEABatch{}, err
	}
	coll, err := geneset.NewCollection(sets, parts)
	if err != nil {
		return results.GSEABatch{}, err
	}
	jobs, err := job.MultiGSEA(coll, analytes, ranks, s.gseaConfig(p))
	if err != nil {
		return results.GSEABatch{}, err
	}

	s.logger.Debug("assembled GSEA batch", zap.Int("layers", len(jobs)), zap.Stringer("method", m))

	batch, err := s.dispatcher.MultiGSEA(jobs, m)
	if err != nil {
		return results.GSEABatch{}, err
	}
	return results.NewGSEABatch(batch), nil
}

func (s *Service) gseaConfig(p GSEAParams) job.GSEAConfig {
	cfg := s.gsea
	if p.MinOverlap != 0 {
		cfg.MinOverlap = p.MinOverlap
	}
	if p.MaxOverlap != 0 {
		cfg.MaxOverlap = p.MaxOverlap
	}
	if p.Permutations != 0 {
		cfg.Permutations = p.Permutations
	}
	return cfg
}
