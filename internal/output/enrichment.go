// Package output provides enrichment result formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/gestalt/internal/results"
)

// CombinedLayer labels rows of the cross-layer combination in batch output.
const CombinedLayer = "combined"

// ORAWriter writes ORA tables in tab-delimited format.
type ORAWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewORAWriter creates a new ORA writer.
func NewORAWriter(w io.Writer) *ORAWriter {
	return &ORAWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"layer",
			"gene_set",
			"overlap",
			"expect",
			"enrichment_ratio",
			"p",
			"fdr",
		},
	}
}

// WriteHeader writes the header line.
func (ow *ORAWriter) WriteHeader() error {
	_, err := ow.w.WriteString(strings.Join(ow.columns, "\t") + "\n")
	return err
}

// WriteTable writes every row of t tagged with layer.
func (ow *ORAWriter) WriteTable(layer string, t results.ORATable) error {
	for i := range t.GeneSet {
		values := []string{
			layer,
			t.GeneSet[i],
			strconv.FormatInt(t.Overlap[i], 10),
			formatFloat(t.Expect[i]),
			formatFloat(t.EnrichmentRatio[i]),
			formatFloat(t.P[i]),
			formatFloat(t.FDR[i]),
		}
		if _, err := ow.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch writes the per-layer tables, numbered from 1, followed by the
// combined table.
func (ow *ORAWriter) WriteBatch(b results.ORABatch) error {
	for i, t := range b.Layers {
		if err := ow.WriteTable(LayerName(i), t); err != nil {
			return err
		}
	}
	return ow.WriteTable(CombinedLayer, b.Combined)
}

// Flush flushes any buffered data to the underlying writer.
func (ow *ORAWriter) Flush() error {
	return ow.w.Flush()
}

// GSEAWriter writes GSEA tables in tab-delimited format.
type GSEAWriter struct {
	w           *bufio.Writer
	columns     []string
	runningSums bool
}

// NewGSEAWriter creates a new GSEA writer. With runningSums set, each row
// carries its comma-separated running-sum trajectory.
func NewGSEAWriter(w io.Writer, runningSums bool) *GSEAWriter {
	columns := []string{
		"layer",
		"gene_set",
		"ES",
		"NES",
		"p_val",
		"fdr",
		"leading_edge",
	}
	if runningSums {
		columns = append(columns, "running_sum")
	}
	return &GSEAWriter{
		w:           bufio.NewWriter(w),
		columns:     columns,
		runningSums: runningSums,
	}
}

// WriteHeader writes the header line.
func (gw *GSEAWriter) WriteHeader() error {
	_, err := gw.w.WriteString(strings.Join(gw.columns, "\t") + "\n")
	return err
}

// WriteTable writes every row of t tagged with layer.
func (gw *GSEAWriter) WriteTable(layer string, t results.GSEATable) error {
	for i, set := range t.GeneSets {
		values := []string{
			layer,
			set,
			formatFloat(t.ES[i]),
			formatFloat(t.NES[i]),
			formatFloat(t.PVal[i]),
			formatFloat(t.FDR[i]),
			strconv.Itoa(t.LeadingEdge[i]),
		}
		if gw.runningSums {
			values = append(values, joinFloats(t.RunningSum[set]))
		}
		if _, err := gw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch writes the per-layer tables, numbered from 1, followed by the
// combined table.
func (gw *GSEAWriter) WriteBatch(b results.GSEABatch) error {
	for i, t := range b.Layers {
		if err := gw.WriteTable(LayerName(i), t); err != nil {
			return err
		}
	}
	return gw.WriteTable(CombinedLayer, b.Combined)
}

// Flush flushes any buffered data to the underlying writer.
func (gw *GSEAWriter) Flush() error {
	return gw.w.Flush()
}

// LayerName returns the 1-based label of layer index i.
func LayerName(i int) string {
	return strconv.Itoa(i + 1)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func joinFloats(vs []float64) string {
	if len(vs) == 0 {
		return "-"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}
