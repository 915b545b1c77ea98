package engine

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/inodb/gestalt/internal/job"
)

// setScore holds the observed and permuted enrichment of one gene set.
type setScore struct {
	id      string
	es      float64
	nes     float64
	p       float64
	leading int
	running []float64
	nullNES []float64
}

// runGSEA scores every gene set against the ranked list.
//
// The running sum steps up by |rank|^weight / NR at each member position and
// down by 1/(N-Nh) elsewhere; ES is its largest deviation from zero. The null
// distribution comes from placing the Nh members at random positions.
func runGSEA(j job.GSEAJob) ([]job.GSEAResultRow, error) {
	if j.Sets == nil {
		return nil, ErrNoGeneSets
	}
	cfg := j.Config

	list := slices.Clone(j.Ranked)
	slices.SortStableFunc(list, func(a, b job.RankedAnalyte) int {
		return cmp.Compare(b.Rank, a.Rank)
	})
	n := len(list)

	positions := make(map[string][]int, n)
	weights := make([]float64, n)
	for i, ra := range list {
		positions[ra.Analyte] = append(positions[ra.Analyte], i)
		weights[i] = math.Pow(math.Abs(ra.Rank), cfg.Weight)
	}

	var scores []*setScore
	for si, it := range j.Sets.Items() {
		hits := memberPositions(it.Parts, positions)
		if len(hits) == 0 || len(hits) < cfg.MinOverlap || len(hits) > cfg.MaxOverlap {
			continue
		}

		s := &setScore{id: it.ID, running: make([]float64, n)}
		var peak int
		s.es, peak = runningSum(hits, weights, n, s.running)
		s.leading = leadingEdge(hits, peak, s.es)

		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(si)))
		null := permutedES(rng, weights, n, len(hits), cfg.Permutations)
		s.nes, s.p, s.nullNES = normalize(s.es, null)
		scores = append(scores, s)
	}

	var fdr []float64
	switch cfg.FDR {
	case job.FDRPermutation:
		fdr = gseaFDR(scores)
	default:
		p := make([]float64, len(scores))
		for i, s := range scores {
			p[i] = s.p
		}
		fdr = adjust(p, cfg.FDR)
	}
	rows := make([]job.GSEAResultRow, len(scores))
	for i, s := range scores {
		rows[i] = job.GSEAResultRow{
			Set:         s.id,
			P:           s.p,
			FDR:         fdr[i],
			ES:          s.es,
			NES:         s.nes,
			LeadingEdge: s.leading,
			RunningSum:  s.running,
		}
	}
	return rows, nil
}

// memberPositions returns the sorted list positions of a set's members.
func memberPositions(parts []string, positions map[string][]int) []int {
	seen := make(map[string]bool, len(parts))
	var hits []int
	for _, g := range parts {
		if seen[g] {
			continue
		}
		seen[g] = true
		hits = append(hits, positions[g]...)
	}
	sort.Ints(hits)
	return hits
}

// runningSum walks the list and returns ES and the position where it peaks.
// When out is non-nil it receives the sum at every position.
func runningSum(hits []int, weights []float64, n int, out []float64) (es float64, peak int) {
	var nr float64
	for _, h := range hits {
		nr += weights[h]
	}
	var miss float64
	if n > len(hits) {
		miss = 1 / float64(n-len(hits))
	}

	var sum float64
	next := 0
	for i := 0; i < n; i++ {
		if next < len(hits) && hits[next] == i {
			if nr > 0 {
				sum += weights[i] / nr
			} else {
				sum += 1 / float64(len(hits))
			}
			next++
		} else {
			sum -= miss
		}
		if out != nil {
			out[i] = sum
		}
		if math.Abs(sum) > math.Abs(es) {
			es, peak = sum, i
		}
	}
	return es, peak
}

// leadingEdge counts the members on the enriched side of the peak.
func leadingEdge(hits []int, peak int, es float64) int {
	count := 0
	for _, h := range hits {
		if (es >= 0 && h <= peak) || (es < 0 && h >= peak) {
			count++
		}
	}
	return count
}

// permutedES returns the enrichment scores of k members placed at random positions.
func permutedES(rng *rand.Rand, weights []float64, n, k, permutations int) []float64 {
	permutations = max(permutations, 0)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	hits := make([]int, k)
	null := make([]float64, permutations)
	for p := range permutations {
		for i := 0; i < k; i++ {
			r := i + rng.IntN(n-i)
			idx[i], idx[r] = idx[r], idx[i]
		}
		copy(hits, idx[:k])
		sort.Ints(hits)
		null[p], _ = runningSum(hits, weights, n, nil)
	}
	return null
}

// normalize divides ES by the mean null ES of the same sign and returns
// NES, the nominal p-value and the normalized null distribution.
func normalize(es float64, null []float64) (nes, p float64, nullNES []float64) {
	var posSum, negSum float64
	var posN, negN int
	for _, v := range null {
		if v >= 0 {
			posSum += v
			posN++
		} else {
			negSum -= v
			negN++
		}
	}
	posMean, negMean := 0.0, 0.0
	if posN > 0 {
		posMean = posSum / float64(posN)
	}
	if negN > 0 {
		negMean = negSum / float64(negN)
	}

	nullNES = make([]float64, 0, len(null))
	for _, v := range null {
		switch {
		case v >= 0 && posMean > 0:
			nullNES = append(nullNES, v/posMean)
		case v < 0 && negMean > 0:
			nullNES = append(nullNES, v/negMean)
		}
	}

	if es >= 0 {
		if posN == 0 || posMean == 0 {
			return 0, 1, nullNES
		}
		extreme := 0
		for _, v := range null {
			if v >= 0 && v >= es {
				extreme++
			}
		}
		return es / posMean, float64(extreme) / float64(posN), nullNES
	}

	if negN == 0 || negMean == 0 {
		return 0, 1, nullNES
	}
	extreme := 0
	for _, v := range null {
		if v < 0 && v <= es {
			extreme++
		}
	}
	return es / negMean, float64(extreme) / float64(negN), nullNES
}

// gseaFDR estimates the FDR of every set from the pooled normalized nulls:
// the fraction of null NES at least as extreme divided by the fraction of
// observed NES at least as extreme, taken on the same side of zero.
func gseaFDR(scores []*setScore) []float64 {
	var nullPos, nullNeg, obsPos, obsNeg []float64
	for _, s := range scores {
		for _, v := range s.nullNES {
			if v >= 0 {
				nullPos = append(nullPos, v)
			} else {
				nullNeg = append(nullNeg, v)
			}
		}
		if s.nes >= 0 {
			obsPos = append(obsPos, s.nes)
		} else {
			obsNeg = append(obsNeg, s.nes)
		}
	}
	sort.Float64s(nullPos)
	sort.Float64s(nullNeg)
	sort.Float64s(obsPos)
	sort.Float64s(obsNeg)

	fdr := make([]float64, len(scores))
	for i, s := range scores {
		var fracNull, fracObs float64
		if s.nes >= 0 {
			if len(nullPos) == 0 {
				fdr[i] = 1
				continue
			}
			fracNull = float64(countAtLeast(nullPos, s.nes)) / float64(len(nullPos))
			fracObs = float64(countAtLeast(obsPos, s.nes)) / float64(len(obsPos))
		} else {
			if len(nullNeg) == 0 {
				fdr[i] = 1
				continue
			}
			fracNull = float64(countAtMost(nullNeg, s.nes)) / float64(len(nullNeg))
			fracObs = float64(countAtMost(obsNeg, s.nes)) / float64(len(obsNeg))
		}
		fdr[i] = math.Min(1, fracNull/fracObs)
	}
	return fdr
}

// countAtLeast counts values >= x in ascending sorted a.
func countAtLeast(a []float64, x float64) int {
	return len(a) - sort.SearchFloat64s(a, x)
}

// countAtMost counts values <= x in ascending sorted a.
func countAtMost(a []float64, x float64) int {
	return sort.Search(len(a), func(i int) bool { return a[i] > x })
}
