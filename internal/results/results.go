// Package results flattens engine result rows into column-oriented tables.
package results

import "github.com/inodb/gestalt/internal/job"

// ORATable holds ORA results as parallel columns, one entry per gene set.
type ORATable struct {
	GeneSet         []string  `json:"gene_set"`
	P               []float64 `json:"p"`
	FDR             []float64 `json:"fdr"`
	Expect          []float64 `json:"expect"`
	Overlap         []int64   `json:"overlap"`
	EnrichmentRatio []float64 `json:"enrichment_ratio"`
}

// NewORATable flattens rows, keeping their order.
func NewORATable(rows []job.ORAResultRow) ORATable {
	t := ORATable{
		GeneSet:         make([]string, 0, len(rows)),
		P:               make([]float64, 0, len(rows)),
		FDR:             make([]float64, 0, len(rows)),
		Expect:          make([]float64, 0, len(rows)),
		Overlap:         make([]int64, 0, len(rows)),
		EnrichmentRatio: make([]float64, 0, len(rows)),
	}
	for _, r := range rows {
		t.GeneSet = append(t.GeneSet, r.Set)
		t.P = append(t.P, r.P)
		t.FDR = append(t.FDR, r.FDR)
		t.Expect = append(t.Expect, r.Expected)
		t.Overlap = append(t.Overlap, r.Overlap)
		t.EnrichmentRatio = append(t.EnrichmentRatio, r.EnrichmentRatio)
	}
	return t
}

// Len returns the number of rows.
func (t ORATable) Len() int {
	return len(t.GeneSet)
}

// GSEATable holds GSEA results as parallel columns plus the running-sum
// trajectory of each gene set.
type GSEATable struct {
	FDR         []float64            `json:"fdr"`
	PVal        []float64            `json:"p_val"`
	ES          []float64            `json:"ES"`
	NES         []float64            `json:"NES"`
	LeadingEdge []int                `json:"leading_edge"`
	GeneSets    []string             `json:"gene_sets"`
	RunningSum  map[string][]float64 `json:"running_sum"`
}

// NewGSEATable flattens rows, keeping their order. The running-sum map is
// created fresh for every table.
func NewGSEATable(rows []job.GSEAResultRow) GSEATable {
	t := GSEATable{
		FDR:         make([]float64, 0, len(rows)),
		PVal:        make([]float64, 0, len(rows)),
		ES:          make([]float64, 0, len(rows)),
		NES:         make([]float64, 0, len(rows)),
		LeadingEdge: make([]int, 0, len(rows)),
		GeneSets:    make([]string, 0, len(rows)),
		RunningSum:  make(map[string][]float64, len(rows)),
	}
	for _, r := range rows {
		t.FDR = append(t.FDR, r.FDR)
		t.PVal = append(t.PVal, r.P)
		t.ES = append(t.ES, r.ES)
		t.NES = append(t.NES, r.NES)
		t.LeadingEdge = append(t.LeadingEdge, r.LeadingEdge)
		t.GeneSets = append(t.GeneSets, r.Set)
		if r.RunningSum != nil {
			t.RunningSum[r.Set] = r.RunningSum
		}
	}
	return t
}

// Len returns the number of rows.
func (t GSEATable) Len() int {
	return len(t.GeneSets)
}

// ORABatch holds a multi-omics ORA result: one table per layer in input
// order and the combined table.
type ORABatch struct {
	Combined ORATable   `json:"combined"`
	Layers   []ORATable `json:"layers"`
}

// NewORABatch flattens every layer of b.
func NewORABatch(b job.Batch[job.ORAResultRow]) ORABatch {
	out := ORABatch{
		Combined: NewORATable(b.Combined),
		Layers:   make([]ORATable, len(b.Layers)),
	}
	for i, rows := range b.Layers {
		out.Layers[i] = NewORATable(rows)
	}
	return out
}

// GSEABatch holds a multi-omics GSEA result: one table per layer in input
// order and the combined table.
type GSEABatch struct {
	Combined GSEATable   `json:"combined"`
	Layers   []GSEATable `json:"layers"`
}

// NewGSEABatch flattens every layer of b.
func NewGSEABatch(b job.Batch[job.GSEAResultRow]) GSEABatch {
	out := GSEABatch{
		Combined: NewGSEATable(b.Combined),
		Layers:   make([]GSEATable, len(b.Layers)),
	}
	for i, rows := range b.Layers {
		out.Layers[i] = NewGSEATable(rows)
	}
	return out
}
