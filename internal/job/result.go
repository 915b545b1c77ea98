package job

// ORAResultRow is the engine output for one gene set of an ORA job.
type ORAResultRow struct {
	Set             string
	P               float64
	FDR             float64
	Expected        float64
	Overlap         int64
	EnrichmentRatio float64
}

// GSEAResultRow is the engine output for one gene set of a GSEA job.
type GSEAResultRow struct {
	Set         string
	P           float64
	FDR         float64
	ES          float64
	NES         float64
	LeadingEdge int
	RunningSum  []float64
}

// Batch holds the rows of a multi-omics run: one list per job in job order,
// plus the rows of the cross-layer combination.
type Batch[R any] struct {
	Combined []R
	Layers   [][]R
}
