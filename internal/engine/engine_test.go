package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/gestalt/internal/geneset"
	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/method"
)

func collection(t *testing.T, sets map[string][]string, order ...string) *geneset.Collection {
	t.Helper()
	parts := make([][]string, len(order))
	for i, id := range order {
		parts[i] = sets[id]
	}
	c, err := geneset.NewCollection(order, parts)
	require.NoError(t, err)
	return c
}

func smallORAConfig() job.ORAConfig {
	return job.ORAConfig{MinOverlap: 1, MinSetSize: 1, MaxSetSize: 500}
}

func TestORA_Scenario(t *testing.T) {
	sets := collection(t, map[string][]string{"setA": {"g1", "g2", "g3"}}, "setA")
	j := job.ORA(sets, []string{"g1", "g2"}, []string{"g1", "g2", "g3", "g4"}, smallORAConfig())

	rows, err := New(1).ORA(j)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "setA", r.Set)
	assert.Equal(t, int64(2), r.Overlap)
	assert.InDelta(t, 1.5, r.Expected, 1e-12)
	assert.InDelta(t, 4.0/3.0, r.EnrichmentRatio, 1e-12)
	// P(X >= 2) = C(3,2)·C(1,0)/C(4,2)
	assert.InDelta(t, 0.5, r.P, 1e-12)
	assert.Equal(t, r.P, r.FDR)
}

func TestORA_FiltersBySizeAndOverlap(t *testing.T) {
	sets := collection(t, map[string][]string{
		"small":   {"g1"},
		"nohit":   {"g3", "g4"},
		"outside": {"x1", "x2", "x3"},
		"ok":      {"g1", "g2", "g3"},
	}, "small", "nohit", "outside", "ok")
	cfg := job.ORAConfig{MinOverlap: 1, MinSetSize: 2, MaxSetSize: 10}
	j := job.ORA(sets, []string{"g1", "g2"}, []string{"g1", "g2", "g3", "g4", "g5"}, cfg)

	rows, err := New(1).ORA(j)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ok", rows[0].Set)
}

func TestORA_NoGeneSets(t *testing.T) {
	_, err := New(1).ORA(job.ORAJob{})
	assert.ErrorIs(t, err, ErrNoGeneSets)
}

func TestHypergeomUpper(t *testing.T) {
	// N=10, K=4, n=3: P(X>=2) = (C(4,2)C(6,1) + C(4,3)C(6,0)) / C(10,3) = 40/120
	assert.InDelta(t, 40.0/120.0, hypergeomUpper(2, 10, 4, 3), 1e-12)
	assert.Equal(t, 1.0, hypergeomUpper(0, 10, 4, 3))
	assert.InDelta(t, 0.0, hypergeomUpper(4, 10, 4, 3), 1e-12)
}

func TestAdjust(t *testing.T) {
	p := []float64{0.01, 0.04, 0.03, 0.02}
	assert.Equal(t, p, adjust(p, job.FDRNone))

	q := adjust(p, job.FDRBenjaminiHochberg)
	for i := range q {
		assert.InDelta(t, 0.04, q[i], 1e-12)
	}

	q = adjust([]float64{0.01, 0.5}, job.FDRBenjaminiHochberg)
	assert.InDelta(t, 0.02, q[0], 1e-12)
	assert.InDelta(t, 0.5, q[1], 1e-12)
}

func TestFisherStouffer(t *testing.T) {
	// χ²(4) survival at x = -4·ln(0.05) is e^(-x/2)·(1 + x/2)
	assert.InDelta(t, 0.0174786, fisher([]float64{0.05, 0.05}), 1e-6)
	assert.InDelta(t, 0.5, stouffer([]float64{0.5, 0.5}), 1e-9)
	assert.InDelta(t, 0.05, stouffer([]float64{0.05}), 1e-9)
	assert.Less(t, stouffer([]float64{0.01, 0.01}), 0.01)
}

func TestNormalizeRanks(t *testing.T) {
	tests := []struct {
		name string
		norm method.Normalization
		in   []float64
		want []float64
	}{
		{"none", method.NormNone, []float64{2, -4}, []float64{2, -4}},
		{"mean", method.MeanValue, []float64{2, -4}, []float64{2.0 / 3, -4.0 / 3}},
		{"median", method.MedianValue, []float64{1, -3, 5}, []float64{1.0 / 3, -1, 5.0 / 3}},
		{"rank", method.MedianRank, []float64{10, -1, 3}, []float64{1, -1, 0}},
		{"zero scale", method.MeanValue, []float64{0, 0}, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeRanks(tt.in, tt.norm)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestMergeRanks(t *testing.T) {
	jobs := []job.GSEAJob{
		{Ranked: []job.RankedAnalyte{{Analyte: "a", Rank: 1}, {Analyte: "b", Rank: -3}}},
		{Ranked: []job.RankedAnalyte{{Analyte: "b", Rank: 1}, {Analyte: "c", Rank: 2}}},
	}

	merged := mergeRanks(jobs, method.NormNone, method.KindMax)
	assert.Equal(t, []job.RankedAnalyte{{Analyte: "a", Rank: 1}, {Analyte: "b", Rank: -3}, {Analyte: "c", Rank: 2}}, merged)

	merged = mergeRanks(jobs, method.NormNone, method.KindMean)
	assert.Equal(t, []job.RankedAnalyte{{Analyte: "a", Rank: 1}, {Analyte: "b", Rank: -1}, {Analyte: "c", Rank: 2}}, merged)
}

func rankedTen() ([]string, []float64) {
	analytes := make([]string, 10)
	ranks := make([]float64, 10)
	for i := range analytes {
		analytes[i] = fmt.Sprintf("g%d", i+1)
		ranks[i] = float64(10 - i)
	}
	return analytes, ranks
}

func gseaConfig() job.GSEAConfig {
	return job.GSEAConfig{MinOverlap: 1, MaxOverlap: 500, Permutations: 1000, Seed: 42}
}

func TestGSEA_RunningSum(t *testing.T) {
	sets := collection(t, map[string][]string{
		"top":    {"g1", "g2", "g3"},
		"bottom": {"g8", "g9", "g10"},
	}, "top", "bottom")
	analytes, ranks := rankedTen()
	j, err := job.GSEA(sets, analytes, ranks, gseaConfig())
	require.NoError(t, err)

	rows, err := New(1).GSEA(j)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	top := rows[0]
	assert.Equal(t, "top", top.Set)
	assert.InDelta(t, 1.0, top.ES, 1e-12)
	assert.Equal(t, 3, top.LeadingEdge)
	require.Len(t, top.RunningSum, 10)
	assert.InDelta(t, 0.0, top.RunningSum[9], 1e-12)
	assert.Greater(t, top.NES, 0.0)
	assert.Less(t, top.P, 0.1)

	bottom := rows[1]
	assert.InDelta(t, -1.0, bottom.ES, 1e-12)
	assert.Equal(t, 3, bottom.LeadingEdge)
	assert.Less(t, bottom.NES, 0.0)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.FDR, 0.0)
		assert.LessOrEqual(t, r.FDR, 1.0)
	}
}

func TestGSEA_FDRFollowsConfig(t *testing.T) {
	sets := collection(t, map[string][]string{
		"top":    {"g1", "g2", "g3"},
		"mid":    {"g2", "g5", "g7"},
		"bottom": {"g8", "g9", "g10"},
	}, "top", "mid", "bottom")
	analytes, ranks := rankedTen()
	j, err := job.GSEA(sets, analytes, ranks, gseaConfig())
	require.NoError(t, err)
	require.Equal(t, job.FDRNone, j.Config.FDR)

	pvals := func(rows []job.GSEAResultRow) []float64 {
		p := make([]float64, len(rows))
		for i, r := range rows {
			p[i] = r.P
		}
		return p
	}
	fdrs := func(rows []job.GSEAResultRow) []float64 {
		q := make([]float64, len(rows))
		for i, r := range rows {
			q[i] = r.FDR
		}
		return q
	}

	rows, err := New(1).GSEA(j)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, pvals(rows), fdrs(rows))

	j.Config.FDR = job.FDRBenjaminiHochberg
	rows, err = New(1).GSEA(j)
	require.NoError(t, err)
	assert.Equal(t, adjust(pvals(rows), job.FDRBenjaminiHochberg), fdrs(rows))

	j.Config.FDR = job.FDRPermutation
	rows, err = New(1).GSEA(j)
	require.NoError(t, err)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.FDR, 0.0)
		assert.LessOrEqual(t, r.FDR, 1.0)
	}
}

func TestGSEA_Deterministic(t *testing.T) {
	sets := collection(t, map[string][]string{"s": {"g2", "g5", "g7"}}, "s")
	analytes, ranks := rankedTen()
	j, err := job.GSEA(sets, analytes, ranks, gseaConfig())
	require.NoError(t, err)

	a, err := New(1).GSEA(j)
	require.NoError(t, err)
	b, err := New(4).GSEA(j)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGSEA_OverlapWindow(t *testing.T) {
	sets := collection(t, map[string][]string{"s": {"g1", "g2"}}, "s")
	analytes, ranks := rankedTen()
	cfg := gseaConfig()
	cfg.MinOverlap = 3
	j, err := job.GSEA(sets, analytes, ranks, cfg)
	require.NoError(t, err)

	rows, err := New(1).GSEA(j)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMultiORA_LayerOrder(t *testing.T) {
	sets := collection(t, map[string][]string{
		"setA": {"g1", "g2", "g3"},
		"setB": {"g4", "g5"},
	}, "setA", "setB")
	reference := []string{"g1", "g2", "g3", "g4", "g5", "g6"}
	interest := [][]string{{"g1"}, {"g1", "g2"}, {"g1", "g2", "g3"}}
	jobs, err := job.MultiORA(sets, interest, [][]string{reference, reference, reference}, smallORAConfig())
	require.NoError(t, err)

	batch, err := New(8).MultiORA(jobs, method.Meta(method.Fisher))
	require.NoError(t, err)
	require.Len(t, batch.Layers, 3)
	for i, rows := range batch.Layers {
		require.Len(t, rows, 1, "layer %d", i)
		assert.Equal(t, int64(i+1), rows[0].Overlap, "layer %d", i)
	}
	require.Len(t, batch.Combined, 1)
	assert.Equal(t, "setA", batch.Combined[0].Set)
	assert.Less(t, batch.Combined[0].P, 1.0)
}

func TestMultiORA_UnsupportedMethod(t *testing.T) {
	_, err := New(1).MultiORA(nil, method.Max(method.NormNone))
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestMultiORA_JobErrorAborts(t *testing.T) {
	sets := collection(t, map[string][]string{"setA": {"g1"}}, "setA")
	jobs := []job.ORAJob{
		job.ORA(sets, []string{"g1"}, []string{"g1"}, smallORAConfig()),
		{},
	}
	_, err := New(2).MultiORA(jobs, method.Meta(method.Stouffer))
	assert.ErrorIs(t, err, ErrNoGeneSets)
}

func TestMultiGSEA(t *testing.T) {
	sets := collection(t, map[string][]string{"top": {"g1", "g2", "g3"}}, "top")
	analytes, ranks := rankedTen()
	jobs, err := job.MultiGSEA(sets,
		[][]string{analytes, analytes[:6], analytes},
		[][]float64{ranks, ranks[:6], ranks},
		gseaConfig())
	require.NoError(t, err)

	for _, m := range []method.MultiOmics{
		method.Meta(method.Fisher),
		method.Meta(method.Stouffer),
		method.Max(method.MedianRank),
		method.Mean(method.MeanValue),
	} {
		t.Run(m.String(), func(t *testing.T) {
			batch, err := New(3).MultiGSEA(jobs, m)
			require.NoError(t, err)
			require.Len(t, batch.Layers, 3)
			assert.Len(t, batch.Layers[1][0].RunningSum, 6)
			assert.Len(t, batch.Layers[0][0].RunningSum, 10)
			require.Len(t, batch.Combined, 1)
			assert.Equal(t, "top", batch.Combined[0].Set)
		})
	}
}

func TestMultiGSEA_Empty(t *testing.T) {
	batch, err := New(1).MultiGSEA(nil, method.Mean(method.NormNone))
	require.NoError(t, err)
	assert.Empty(t, batch.Layers)
	assert.Empty(t, batch.Combined)
}
