package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/method"
)

// pEpsilon keeps p-values away from 0 and 1 before log and quantile transforms.
const pEpsilon = 1e-15

// pvalues collects per-set p-values across layers in first-seen set order.
type pvalues struct {
	order []string
	p     map[string][]float64
}

func (pv *pvalues) add(set string, p float64) {
	if pv.p == nil {
		pv.p = make(map[string][]float64)
	}
	if _, ok := pv.p[set]; !ok {
		pv.order = append(pv.order, set)
	}
	pv.p[set] = append(pv.p[set], p)
}

// combine returns one combined p-value per set, in pv.order.
func (pv *pvalues) combine(m method.MetaAnalysis) []float64 {
	out := make([]float64, len(pv.order))
	for i, set := range pv.order {
		if m == method.Fisher {
			out[i] = fisher(pv.p[set])
		} else {
			out[i] = stouffer(pv.p[set])
		}
	}
	return out
}

// fisher combines p-values with Fisher's method: -2·Σln(p) ~ χ²(2k).
func fisher(p []float64) float64 {
	var x float64
	for _, v := range p {
		x -= 2 * math.Log(clampP(v))
	}
	return distuv.ChiSquared{K: float64(2 * len(p))}.Survival(x)
}

// stouffer combines p-values with Stouffer's method: Σz/√k ~ N(0,1).
func stouffer(p []float64) float64 {
	var z float64
	for _, v := range p {
		z += distuv.UnitNormal.Quantile(1 - clampP(v))
	}
	return distuv.UnitNormal.Survival(z / math.Sqrt(float64(len(p))))
}

func clampP(p float64) float64 {
	return math.Min(math.Max(p, pEpsilon), 1-pEpsilon)
}

// adjust applies the FDR method to p. FDRNone returns a copy of p.
func adjust(p []float64, m job.FDRMethod) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	if m != job.FDRBenjaminiHochberg || len(p) == 0 {
		return out
	}

	idx := make([]int, len(p))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return p[idx[a]] < p[idx[b]] })

	n := float64(len(p))
	running := 1.0
	for rank := len(idx); rank >= 1; rank-- {
		i := idx[rank-1]
		q := p[i] * n / float64(rank)
		running = math.Min(running, q)
		out[i] = math.Min(running, 1)
	}
	return out
}

// normalizeRanks rescales one layer's ranks so layers become comparable.
//
//	MeanValue:   divide by the mean absolute rank
//	MedianValue: divide by the (lower) median absolute rank
//	MedianRank:  replace by the ordinal rank centred on the median rank, in [-1, 1]
func normalizeRanks(ranks []float64, n method.Normalization) []float64 {
	out := make([]float64, len(ranks))
	copy(out, ranks)
	if len(ranks) == 0 {
		return out
	}

	abs := make([]float64, len(ranks))
	for i, r := range ranks {
		abs[i] = math.Abs(r)
	}

	switch n {
	case method.MeanValue:
		scale(out, stat.Mean(abs, nil))
	case method.MedianValue:
		sort.Float64s(abs)
		scale(out, stat.Quantile(0.5, stat.Empirical, abs, nil))
	case method.MedianRank:
		order := make([]int, len(ranks))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return ranks[order[a]] < ranks[order[b]] })
		if len(ranks) == 1 {
			out[0] = 0
			break
		}
		mid := float64(len(ranks)+1) / 2
		half := float64(len(ranks)-1) / 2
		for pos, i := range order {
			out[i] = (float64(pos+1) - mid) / half
		}
	}
	return out
}

func scale(v []float64, by float64) {
	if by == 0 {
		return
	}
	for i := range v {
		v[i] /= by
	}
}

// mergeRanks normalizes every layer and merges analytes across layers,
// keeping the strongest value (Max) or the mean (Mean) per analyte.
// Analytes keep their first-seen order across layers.
func mergeRanks(jobs []job.GSEAJob, n method.Normalization, kind method.Kind) []job.RankedAnalyte {
	var order []string
	values := make(map[string][]float64)
	for _, j := range jobs {
		ranks := make([]float64, len(j.Ranked))
		for i, ra := range j.Ranked {
			ranks[i] = ra.Rank
		}
		for i, v := range normalizeRanks(ranks, n) {
			a := j.Ranked[i].Analyte
			if _, ok := values[a]; !ok {
				order = append(order, a)
			}
			values[a] = append(values[a], v)
		}
	}

	merged := make([]job.RankedAnalyte, len(order))
	for i, a := range order {
		vs := values[a]
		var v float64
		if kind == method.KindMax {
			for _, x := range vs {
				if math.Abs(x) > math.Abs(v) {
					v = x
				}
			}
		} else {
			v = stat.Mean(vs, nil)
		}
		merged[i] = job.RankedAnalyte{Analyte: a, Rank: v}
	}
	return merged
}
