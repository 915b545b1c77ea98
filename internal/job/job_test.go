package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/gestalt/internal/geneset"
)

func testCollection(t *testing.T) *geneset.Collection {
	t.Helper()
	c, err := geneset.NewCollection(
		[]string{"setA", "setB"},
		[][]string{{"g1", "g2", "g3"}, {"g4"}},
	)
	require.NoError(t, err)
	return c
}

func TestORA(t *testing.T) {
	sets := testCollection(t)
	j := ORA(sets, []string{"g1", "g2", "g1"}, []string{"g1", "g2", "g3", "g4"}, ORAConfig{MinOverlap: 1})

	assert.Same(t, sets, j.Sets)
	assert.Len(t, j.Interest, 2)
	assert.True(t, j.Reference.Has("g4"))
	assert.Equal(t, 1, j.Config.MinOverlap)
	assert.Equal(t, DefaultORAMinSetSize, j.Config.MinSetSize)
	assert.Equal(t, FDRNone, j.Config.FDR)
}

func TestORA_ForcesFDRNone(t *testing.T) {
	j := ORA(testCollection(t), nil, nil, ORAConfig{FDR: FDRBenjaminiHochberg})
	assert.Equal(t, FDRNone, j.Config.FDR)
}

func TestMultiORA_PreservesLayerOrder(t *testing.T) {
	sets := testCollection(t)
	interest := [][]string{{"a"}, {"b"}, {"c"}}
	reference := [][]string{{"a", "x"}, {"b", "x"}, {"c", "x"}}

	jobs, err := MultiORA(sets, interest, reference, ORAConfig{})
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.True(t, jobs[i].Interest.Has(want), "layer %d", i)
		assert.True(t, jobs[i].Reference.Has(want), "layer %d", i)
		assert.Same(t, sets, jobs[i].Sets)
	}
}

func TestMultiORA_ShapeMismatch(t *testing.T) {
	interest := [][]string{{"a"}, {"b"}, {"c"}}
	reference := [][]string{{"a"}, {"b"}}

	jobs, err := MultiORA(testCollection(t), interest, reference, ORAConfig{})
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Nil(t, jobs)
}

func TestGSEA(t *testing.T) {
	j, err := GSEA(testCollection(t), []string{"g1", "g2"}, []float64{2.5, -1}, GSEAConfig{Permutations: 10})
	require.NoError(t, err)
	assert.Equal(t, []RankedAnalyte{{Analyte: "g1", Rank: 2.5}, {Analyte: "g2", Rank: -1}}, j.Ranked)
	assert.Equal(t, 10, j.Config.Permutations)
	assert.Equal(t, DefaultGSEAMinOverlap, j.Config.MinOverlap)
	assert.Equal(t, DefaultGSEAWeight, j.Config.Weight)

	_, err = GSEA(testCollection(t), []string{"g1", "g2"}, []float64{1}, GSEAConfig{})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMultiGSEA(t *testing.T) {
	analytes := [][]string{{"g1", "g2"}, {"g3"}}
	ranks := [][]float64{{1, 2}, {3}}

	jobs, err := MultiGSEA(testCollection(t), analytes, ranks, GSEAConfig{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "g1", jobs[0].Ranked[0].Analyte)
	assert.Equal(t, "g3", jobs[1].Ranked[0].Analyte)
}

func TestMultiGSEA_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name     string
		analytes [][]string
		ranks    [][]float64
	}{
		{"layer count", [][]string{{"g1"}, {"g2"}}, [][]float64{{1}}},
		{"layer length", [][]string{{"g1"}, {"g2", "g3"}}, [][]float64{{1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MultiGSEA(testCollection(t), tt.analytes, tt.ranks, GSEAConfig{})
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}

func TestRankedList_CopiesInput(t *testing.T) {
	analytes := []string{"g1"}
	ranks := []float64{1}
	list, err := RankedList(analytes, ranks)
	require.NoError(t, err)

	analytes[0] = "changed"
	ranks[0] = 9
	assert.Equal(t, RankedAnalyte{"g1", 1}, list[0])
}
