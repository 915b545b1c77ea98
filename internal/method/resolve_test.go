package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveORA(t *testing.T) {
	tests := []struct {
		directive string
		want      MultiOmics
	}{
		{"fisher", Meta(Fisher)},
		{"stouffer", Meta(Stouffer)},
		{"", Meta(Stouffer)},
		{"Fisher", Meta(Stouffer)},
		{"bogus", Meta(Stouffer)},
	}
	for _, tt := range tests {
		t.Run(tt.directive, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveORA(tt.directive))
		})
	}
}

func TestResolveGSEA(t *testing.T) {
	tests := []struct {
		combination, modifier string
		want                  MultiOmics
	}{
		{"meta", "fisher", Meta(Fisher)},
		{"meta", "stouffer", Meta(Stouffer)},
		{"meta", "mean", Meta(Stouffer)},
		{"max", "mean", Max(MeanValue)},
		{"max", "median", Max(MedianValue)},
		{"max", "rank", Max(MedianRank)},
		{"max", "other", Max(NormNone)},
		{"mean", "mean", Mean(MeanValue)},
		{"mean", "", Mean(NormNone)},
		{"bogus", "median", Mean(MedianValue)},
	}
	for _, tt := range tests {
		t.Run(tt.combination+"/"+tt.modifier, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveGSEA(tt.combination, tt.modifier))
		})
	}
}

func TestResolveGSEA_BogusMatchesMean(t *testing.T) {
	for _, mod := range []string{"mean", "median", "rank", "none", "x"} {
		assert.Equal(t, ResolveGSEA("mean", mod), ResolveGSEA("bogus", mod), mod)
	}
}

func TestResolver_Strict(t *testing.T) {
	r := Resolver{Strict: true}

	m, err := r.ORA("fisher")
	require.NoError(t, err)
	assert.Equal(t, Meta(Fisher), m)

	_, err = r.ORA("fsher")
	assert.ErrorIs(t, err, ErrUnrecognizedDirective)

	_, err = r.GSEA("meta", "bogus")
	assert.ErrorIs(t, err, ErrUnrecognizedDirective)

	_, err = r.GSEA("bogus", "mean")
	assert.ErrorIs(t, err, ErrUnrecognizedDirective)

	_, err = r.GSEA("max", "avg")
	assert.ErrorIs(t, err, ErrUnrecognizedDirective)

	m, err = r.GSEA("max", "rank")
	require.NoError(t, err)
	assert.Equal(t, Max(MedianRank), m)
}

func TestMultiOmics_Accessors(t *testing.T) {
	meta, ok := Meta(Stouffer).MetaAnalysis()
	assert.True(t, ok)
	assert.Equal(t, Stouffer, meta)

	_, ok = Meta(Fisher).Normalization()
	assert.False(t, ok)

	norm, ok := Max(MedianRank).Normalization()
	assert.True(t, ok)
	assert.Equal(t, MedianRank, norm)
	assert.Equal(t, KindMax, Max(MedianRank).Kind())

	assert.Equal(t, "meta(fisher)", Meta(Fisher).String())
	assert.Equal(t, "mean(median)", Mean(MedianValue).String())
}
