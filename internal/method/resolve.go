package method

import "fmt"

// Directive strings accepted from host callers.
const (
	DirectiveFisher   = "fisher"
	DirectiveStouffer = "stouffer"
	DirectiveMeta     = "meta"
	DirectiveMax      = "max"
	DirectiveMean     = "mean"
	DirectiveMedian   = "median"
	DirectiveRank     = "rank"
	DirectiveNone     = "none"
)

// Resolver maps directive strings onto MultiOmics values.
//
// By default unknown directives fall back silently: the ORA directive
// defaults to Meta(Stouffer), an unknown normalization to NormNone and an
// unknown combination to Mean. With Strict set, the same inputs return an
// error wrapping ErrUnrecognizedDirective instead.
type Resolver struct {
	Strict bool
}

// ORA resolves the multi-omics ORA directive.
func (r Resolver) ORA(directive string) (MultiOmics, error) {
	meta, ok := parseMeta(directive)
	if !ok {
		if r.Strict {
			return MultiOmics{}, unrecognized("meta-analysis", directive)
		}
		meta = Stouffer
	}
	return Meta(meta), nil
}

// GSEA resolves the multi-omics GSEA combination directive and its modifier.
// For "meta" the modifier names the meta-analysis; otherwise it names the
// normalization applied before a max or mean merge.
func (r Resolver) GSEA(combination, modifier string) (MultiOmics, error) {
	if combination == DirectiveMeta {
		return r.ORA(modifier)
	}

	norm, ok := parseNormalization(modifier)
	if !ok {
		if r.Strict {
			return MultiOmics{}, unrecognized("normalization", modifier)
		}
		norm = NormNone
	}

	kind, ok := parseCombination(combination)
	if !ok {
		if r.Strict {
			return MultiOmics{}, unrecognized("combination", combination)
		}
		kind = KindMean
	}

	if kind == KindMax {
		return Max(norm), nil
	}
	return Mean(norm), nil
}

// ResolveORA resolves an ORA directive with silent defaulting.
func ResolveORA(directive string) MultiOmics {
	m, _ := Resolver{}.ORA(directive)
	return m
}

// ResolveGSEA resolves GSEA directives with silent defaulting.
func ResolveGSEA(combination, modifier string) MultiOmics {
	m, _ := Resolver{}.GSEA(combination, modifier)
	return m
}

func unrecognized(kind, directive string) error {
	return fmt.Errorf("%s %q: %w", kind, directive, ErrUnrecognizedDirective)
}

func parseMeta(s string) (MetaAnalysis, bool) {
	switch s {
	case DirectiveFisher:
		return Fisher, true
	case DirectiveStouffer:
		return Stouffer, true
	}
	return 0, false
}

func parseNormalization(s string) (Normalization, bool) {
	switch s {
	case DirectiveMean:
		return MeanValue, true
	case DirectiveMedian:
		return MedianValue, true
	case DirectiveRank:
		return MedianRank, true
	case DirectiveNone, "":
		return NormNone, true
	}
	return 0, false
}

// parseCombination handles the non-meta combinations only.
func parseCombination(s string) (Kind, bool) {
	switch s {
	case DirectiveMax:
		return KindMax, true
	case DirectiveMean:
		return KindMean, true
	}
	return 0, false
}
