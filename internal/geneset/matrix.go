package geneset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrLookupFailure is returned when a sparse pair names a gene or gene set
// absent from the declared name vectors.
var ErrLookupFailure = errors.New("identifier not found")

// Pair is one sparse (gene set, gene) membership entry.
type Pair struct {
	Set  string
	Gene string
}

// ZipPairs pairs a gene set column with a gene column of equal length.
func ZipPairs(sets, genes []string) ([]Pair, error) {
	if len(sets) != len(genes) {
		return nil, fmt.Errorf("membership pairs: %d gene sets but %d genes: %w",
			len(sets), len(genes), ErrShapeMismatch)
	}
	pairs := make([]Pair, len(sets))
	for i := range sets {
		pairs[i] = Pair{Set: sets[i], Gene: genes[i]}
	}
	return pairs, nil
}

// PairsFromItems flattens gene sets into sparse membership pairs.
func PairsFromItems(items []Item) []Pair {
	var pairs []Pair
	for _, it := range items {
		for _, g := range it.Parts {
			pairs = append(pairs, Pair{Set: it.ID, Gene: g})
		}
	}
	return pairs
}

// Matrix is a dense gene × gene set incidence matrix.
// Rows follow the gene vector order and columns follow the gene set vector order.
type Matrix struct {
	genes []string
	sets  []string
	data  *mat.Dense // nil when either dimension is zero
}

// BuildMatrix fills a dense 0/1 matrix from sparse membership pairs.
// Every pair must name a gene in genes and a gene set in sets.
// Repeated pairs leave the matrix unchanged.
func BuildMatrix(pairs []Pair, genes, sets []string) (*Matrix, error) {
	geneIndex := make(map[string]int, len(genes))
	for i, g := range genes {
		geneIndex[g] = i
	}
	setIndex := make(map[string]int, len(sets))
	for i, s := range sets {
		setIndex[s] = i
	}

	m := &Matrix{
		genes: append([]string(nil), genes...),
		sets:  append([]string(nil), sets...),
	}
	if len(genes) > 0 && len(sets) > 0 {
		m.data = mat.NewDense(len(genes), len(sets), nil)
	}

	for _, p := range pairs {
		row, ok := geneIndex[p.Gene]
		if !ok {
			return nil, fmt.Errorf("gene %q (gene set %q): %w", p.Gene, p.Set, ErrLookupFailure)
		}
		col, ok := setIndex[p.Set]
		if !ok {
			return nil, fmt.Errorf("gene set %q (gene %q): %w", p.Set, p.Gene, ErrLookupFailure)
		}
		m.data.Set(row, col, 1)
	}
	return m, nil
}

// Dims returns the number of genes and gene sets.
func (m *Matrix) Dims() (rows, cols int) {
	return len(m.genes), len(m.sets)
}

// Genes returns the row names.
func (m *Matrix) Genes() []string {
	return m.genes
}

// Sets returns the column names.
func (m *Matrix) Sets() []string {
	return m.sets
}

// At reports whether gene row r is a member of gene set column c.
func (m *Matrix) At(r, c int) int {
	if m.data == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return int(m.data.At(r, c))
}

// Column returns the membership indicator of gene set column j, one entry per gene.
func (m *Matrix) Column(j int) []int {
	if j < 0 || j >= len(m.sets) {
		panic(mat.ErrColAccess)
	}
	out := make([]int, len(m.genes))
	if m.data == nil {
		return out
	}
	for i, v := range mat.Col(nil, j, m.data) {
		out[i] = int(v)
	}
	return out
}

// Columns returns every column in gene set order.
func (m *Matrix) Columns() [][]int {
	cols := make([][]int, len(m.sets))
	for j := range m.sets {
		cols[j] = m.Column(j)
	}
	return cols
}

// WriteTSV writes the matrix as a table with a leading gene column.
func (m *Matrix) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	header := append([]string{"gene"}, m.sets...)
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return err
	}

	row := make([]string, len(m.sets)+1)
	for r, g := range m.genes {
		row[0] = g
		for c := range m.sets {
			row[c+1] = strconv.Itoa(m.At(r, c))
		}
		if _, err := bw.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
