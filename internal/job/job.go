// Package job assembles per-layer ORA and GSEA analysis jobs and defines the
// result rows returned for them.
package job

import (
	"fmt"

	"github.com/inodb/gestalt/internal/geneset"
)

// ErrShapeMismatch is returned when index-aligned layer inputs differ in length.
var ErrShapeMismatch = geneset.ErrShapeMismatch

// Set is an unordered set of analyte identifiers.
type Set map[string]struct{}

// NewSet builds a set from identifiers. Duplicates collapse.
func NewSet(ids []string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// RankedAnalyte is one entry of a ranked list.
type RankedAnalyte struct {
	Analyte string
	Rank    float64
}

// ORAJob is one over-representation analysis for a single omics layer.
type ORAJob struct {
	Sets      *geneset.Collection
	Interest  Set
	Reference Set
	Config    ORAConfig
}

// GSEAJob is one gene set enrichment analysis for a single omics layer.
type GSEAJob struct {
	Sets   *geneset.Collection
	Ranked []RankedAnalyte
	Config GSEAConfig
}

// ORA assembles a single-layer ORA job.
func ORA(sets *geneset.Collection, interest, reference []string, cfg ORAConfig) ORAJob {
	return ORAJob{
		Sets:      sets,
		Interest:  NewSet(interest),
		Reference: NewSet(reference),
		Config:    cfg.WithDefaults(),
	}
}

// MultiORA assembles one ORA job per layer. interest[i] and reference[i]
// belong to layer i; the returned jobs keep layer order and share sets.
func MultiORA(sets *geneset.Collection, interest, reference [][]string, cfg ORAConfig) ([]ORAJob, error) {
	if len(interest) != len(reference) {
		return nil, fmt.Errorf("multi-omics ORA: %d interest layers but %d reference layers: %w",
			len(interest), len(reference), ErrShapeMismatch)
	}
	jobs := make([]ORAJob, len(interest))
	for i := range interest {
		jobs[i] = ORA(sets, interest[i], reference[i], cfg)
	}
	return jobs, nil
}

// RankedList zips analyte identifiers with their ranks.
func RankedList(analytes []string, ranks []float64) ([]RankedAnalyte, error) {
	if len(analytes) != len(ranks) {
		return nil, fmt.Errorf("%d analytes but %d ranks: %w", len(analytes), len(ranks), ErrShapeMismatch)
	}
	list := make([]RankedAnalyte, len(analytes))
	for i, a := range analytes {
		list[i] = RankedAnalyte{Analyte: a, Rank: ranks[i]}
	}
	return list, nil
}

// GSEA assembles a single-layer GSEA job.
func GSEA(sets *geneset.Collection, analytes []string, ranks []float64, cfg GSEAConfig) (GSEAJob, error) {
	list, err := RankedList(analytes, ranks)
	if err != nil {
		return GSEAJob{}, fmt.Errorf("GSEA: %w", err)
	}
	return GSEAJob{Sets: sets, Ranked: list, Config: cfg.WithDefaults()}, nil
}

// MultiGSEA assembles one GSEA job per layer. analytes[i] and ranks[i]
// belong to layer i; the returned jobs keep layer order and share sets.
func MultiGSEA(sets *geneset.Collection, analytes [][]string, ranks [][]float64, cfg GSEAConfig) ([]GSEAJob, error) {
	if len(analytes) != len(ranks) {
		return nil, fmt.Errorf("multi-omics GSEA: %d analyte layers but %d rank layers: %w",
			len(analytes), len(ranks), ErrShapeMismatch)
	}
	jobs := make([]GSEAJob, len(analytes))
	for i := range analytes {
		list, err := RankedList(analytes[i], ranks[i])
		if err != nil {
			return nil, fmt.Errorf("multi-omics GSEA layer %d: %w", i, err)
		}
		jobs[i] = GSEAJob{Sets: sets, Ranked: list, Config: cfg.WithDefaults()}
	}
	return jobs, nil
}
