// Package method resolves multi-omics combination directives into typed methods.
package method

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedDirective is returned by a strict Resolver for an unknown directive.
var ErrUnrecognizedDirective = errors.New("unrecognized directive")

// MetaAnalysis selects how per-layer p-values are combined.
type MetaAnalysis int

const (
	Fisher MetaAnalysis = iota
	Stouffer
)

func (m MetaAnalysis) String() string {
	switch m {
	case Fisher:
		return "fisher"
	case Stouffer:
		return "stouffer"
	}
	return fmt.Sprintf("MetaAnalysis(%d)", int(m))
}

// Normalization selects how each layer's ranks are scaled before merging.
type Normalization int

const (
	NormNone Normalization = iota
	MeanValue
	MedianValue
	MedianRank
)

func (n Normalization) String() string {
	switch n {
	case NormNone:
		return "none"
	case MeanValue:
		return "mean"
	case MedianValue:
		return "median"
	case MedianRank:
		return "rank"
	}
	return fmt.Sprintf("Normalization(%d)", int(n))
}

// Kind tags the variant held by a MultiOmics value.
type Kind int

const (
	KindMeta Kind = iota
	KindMax
	KindMean
)

func (k Kind) String() string {
	switch k {
	case KindMeta:
		return "meta"
	case KindMax:
		return "max"
	case KindMean:
		return "mean"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MultiOmics is a tagged variant: Meta(MetaAnalysis), Max(Normalization) or
// Mean(Normalization). The zero value is Meta(Fisher).
type MultiOmics struct {
	kind Kind
	meta MetaAnalysis
	norm Normalization
}

// Meta combines per-layer p-values with the given meta-analysis.
func Meta(m MetaAnalysis) MultiOmics {
	return MultiOmics{kind: KindMeta, meta: m}
}

// Max merges normalized layer ranks by taking the strongest value per analyte.
func Max(n Normalization) MultiOmics {
	return MultiOmics{kind: KindMax, norm: n}
}

// Mean merges normalized layer ranks by averaging per analyte.
func Mean(n Normalization) MultiOmics {
	return MultiOmics{kind: KindMean, norm: n}
}

// Kind returns the variant tag.
func (m MultiOmics) Kind() Kind {
	return m.kind
}

// MetaAnalysis returns the meta-analysis for Meta values.
func (m MultiOmics) MetaAnalysis() (MetaAnalysis, bool) {
	return m.meta, m.kind == KindMeta
}

// Normalization returns the normalization for Max and Mean values.
func (m MultiOmics) Normalization() (Normalization, bool) {
	return m.norm, m.kind != KindMeta
}

func (m MultiOmics) String() string {
	if m.kind == KindMeta {
		return fmt.Sprintf("meta(%s)", m.meta)
	}
	return fmt.Sprintf("%s(%s)", m.kind, m.norm)
}
