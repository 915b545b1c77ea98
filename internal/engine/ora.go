package engine

import (
	"math"

	"github.com/inodb/gestalt/internal/job"
)

// runORA tests every gene set for over-representation of the interest set.
//
// Only genes in the reference count. For a set with m reference members of
// which k are in the interest list, expected = m*n/N and the p-value is the
// hypergeometric upper tail P(X >= k), where N is the reference size and n
// the number of interest genes in the reference.
func runORA(j job.ORAJob) ([]job.ORAResultRow, error) {
	if j.Sets == nil {
		return nil, ErrNoGeneSets
	}
	cfg := j.Config

	total := len(j.Reference)
	drawn := 0
	for id := range j.Interest {
		if j.Reference.Has(id) {
			drawn++
		}
	}

	rows := []job.ORAResultRow{}
	if total == 0 || drawn == 0 {
		return rows, nil
	}

	for _, it := range j.Sets.Items() {
		seen := make(map[string]bool, len(it.Parts))
		size, overlap := 0, 0
		for _, g := range it.Parts {
			if seen[g] || !j.Reference.Has(g) {
				continue
			}
			seen[g] = true
			size++
			if j.Interest.Has(g) {
				overlap++
			}
		}
		if size < cfg.MinSetSize || size > cfg.MaxSetSize || overlap < cfg.MinOverlap {
			continue
		}

		expected := float64(size) * float64(drawn) / float64(total)
		rows = append(rows, job.ORAResultRow{
			Set:             it.ID,
			P:               hypergeomUpper(overlap, total, size, drawn),
			Expected:        expected,
			Overlap:         int64(overlap),
			EnrichmentRatio: float64(overlap) / expected,
		})
	}

	p := make([]float64, len(rows))
	for i, r := range rows {
		p[i] = r.P
	}
	for i, q := range adjust(p, cfg.FDR) {
		rows[i].FDR = q
	}
	return rows, nil
}

// hypergeomUpper returns P(X >= k) for X ~ Hypergeometric(total, successes, draws).
func hypergeomUpper(k, total, successes, draws int) float64 {
	if k <= 0 {
		return 1
	}
	denom := lchoose(total, draws)
	var p float64
	for x := k; x <= min(successes, draws); x++ {
		p += math.Exp(lchoose(successes, x) + lchoose(total-successes, draws-x) - denom)
	}
	return math.Min(p, 1)
}

// lchoose returns log(n choose k), or -Inf when k is out of range.
func lchoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}
