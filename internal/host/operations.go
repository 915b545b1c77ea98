package host

import (
	"github.com/inodb/gestalt/internal/enrich"
)

// Operation names exposed to embedding hosts.
const (
	OpMembershipMatrix = "fill_input_data_frame"
	OpORA              = "ora"
	OpMultiOmicsORA    = "multiomics_ora"
	OpGSEA             = "gsea"
	OpMultiOmicsGSEA   = "multiomics_gsea"
)

// MatrixRequest carries a sparse membership table and the name vectors.
type MatrixRequest struct {
	GeneSet  []string `json:"geneSet"`
	Gene     []string `json:"gene"`
	Genes    []string `json:"genes"`
	GeneSets []string `json:"gene_sets"`
}

// MatrixResponse holds one 0/1 column per gene set, rows following Genes.
type MatrixResponse struct {
	Gene     []string `json:"gene"`
	GeneSets []string `json:"gene_sets"`
	Columns  [][]int  `json:"columns"`
}

// ORARequest is a single-layer ORA.
type ORARequest struct {
	Sets      []string   `json:"sets"`
	Parts     [][]string `json:"parts"`
	Interest  []string   `json:"interest"`
	Reference []string   `json:"reference"`
}

// MultiORARequest is a multi-omics ORA; Interest and Reference hold one list per layer.
type MultiORARequest struct {
	Sets      []string   `json:"sets"`
	Parts     [][]string `json:"parts"`
	Interest  [][]string `json:"interest"`
	Reference [][]string `json:"reference"`
	Method    string     `json:"method"`
}

// GSEARequest is a single-layer GSEA. Numeric parameters arrive as doubles
// from most hosts and are truncated to integers. A zero (or absent)
// parameter means "use the configured default", not a literal zero.
type GSEARequest struct {
	MinOverlap   float64    `json:"min_overlap"`
	MaxOverlap   float64    `json:"max_overlap"`
	Permutations float64    `json:"permutations"`
	Sets         []string   `json:"sets"`
	Parts        [][]string `json:"parts"`
	Analytes     []string   `json:"analytes"`
	Ranks        []float64  `json:"ranks"`
}

// MultiGSEARequest is a multi-omics GSEA; Analytes and Ranks hold one list per layer.
// Zero numeric parameters use the configured defaults, as in GSEARequest.
type MultiGSEARequest struct {
	MinOverlap     float64     `json:"min_overlap"`
	MaxOverlap     float64     `json:"max_overlap"`
	Permutations   float64     `json:"permutations"`
	Sets           []string    `json:"sets"`
	Parts          [][]string  `json:"parts"`
	Analytes       [][]string  `json:"analytes"`
	Ranks          [][]float64 `json:"ranks"`
	MethodModifier string      `json:"method_modifier"`
	ComboMethod    string      `json:"combo_method"`
}

// NewServiceRegistry registers every enrichment operation of svc.
func NewServiceRegistry(svc *enrich.Service) (*Registry, error) {
	r := NewRegistry()
	ops := []struct {
		name string
		h    Handler
	}{
		{OpMembershipMatrix, func(p []byte) (any, error) {
			var req MatrixRequest
			if err := decode(p, &req); err != nil {
				return nil, err
			}
			m, err := svc.BuildMembershipMatrix(req.GeneSet, req.Gene, req.Genes, req.GeneSets)
			if err != nil {
				return nil, err
			}
			return MatrixResponse{Gene: m.Genes(), GeneSets: m.Sets(), Columns: m.Columns()}, nil
		}},
		{OpORA, func(p []byte) (any, error) {
			var req ORARequest
			if err := decode(p, &req); err != nil {
				return nil, err
			}
			return svc.RunORA(req.Sets, req.Parts, req.Interest, req.Reference)
		}},
		{OpMultiOmicsORA, func(p []byte) (any, error) {
			var req MultiORARequest
			if err := decode(p, &req); err != nil {
				return nil, err
			}
			return svc.RunMultiOmicsORA(req.Sets, req.Parts, req.Interest, req.Reference, req.Method)
		}},
		{OpGSEA, func(p []byte) (any, error) {
			var req GSEARequest
			if err := decode(p, &req); err != nil {
				return nil, err
			}
			params := gseaParams(req.MinOverlap, req.MaxOverlap, req.Permutations)
			return svc.RunGSEA(params, req.Sets, req.Parts, req.Analytes, req.Ranks)
		}},
		{OpMultiOmicsGSEA, func(p []byte) (any, error) {
			var req MultiGSEARequest
			if err := decode(p, &req); err != nil {
				return nil, err
			}
			params := gseaParams(req.MinOverlap, req.MaxOverlap, req.Permutations)
			return svc.RunMultiOmicsGSEA(params, req.Sets, req.Parts, req.Analytes, req.Ranks,
				req.MethodModifier, req.ComboMethod)
		}},
	}
	for _, op := range ops {
		if err := r.Register(op.name, op.h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func gseaParams(minOverlap, maxOverlap, permutations float64) enrich.GSEAParams {
	return enrich.GSEAParams{
		MinOverlap:   int(minOverlap),
		MaxOverlap:   int(maxOverlap),
		Permutations: int(permutations),
	}
}
