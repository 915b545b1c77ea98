package job

// FDRMethod selects the multiple-testing correction applied by the engine.
type FDRMethod int

const (
	// FDRNone leaves correction to the caller; fdr equals p.
	FDRNone FDRMethod = iota
	FDRBenjaminiHochberg
	// FDRPermutation estimates GSEA FDR from the pooled normalized null.
	// ORA treats it as FDRNone.
	FDRPermutation
)

func (f FDRMethod) String() string {
	switch f {
	case FDRBenjaminiHochberg:
		return "BH"
	case FDRPermutation:
		return "permutation"
	}
	return "None"
}

// Default analysis parameters.
const (
	DefaultORAMinOverlap    = 5
	DefaultORAMinSetSize    = 5
	DefaultORAMaxSetSize    = 500
	DefaultGSEAMinOverlap   = 15
	DefaultGSEAMaxOverlap   = 500
	DefaultGSEAPermutations = 1000
	DefaultGSEAWeight       = 1.0
)

// ORAConfig configures an over-representation analysis.
type ORAConfig struct {
	MinOverlap int
	MinSetSize int
	MaxSetSize int
	FDR        FDRMethod
}

// GSEAConfig configures a gene set enrichment analysis.
type GSEAConfig struct {
	MinOverlap   int
	MaxOverlap   int
	Permutations int
	Weight       float64
	Seed         uint64
	FDR          FDRMethod
}

// DefaultORAConfig returns the default ORA configuration.
func DefaultORAConfig() ORAConfig {
	return ORAConfig{
		MinOverlap: DefaultORAMinOverlap,
		MinSetSize: DefaultORAMinSetSize,
		MaxSetSize: DefaultORAMaxSetSize,
	}
}

// DefaultGSEAConfig returns the default GSEA configuration.
func DefaultGSEAConfig() GSEAConfig {
	return GSEAConfig{
		MinOverlap:   DefaultGSEAMinOverlap,
		MaxOverlap:   DefaultGSEAMaxOverlap,
		Permutations: DefaultGSEAPermutations,
		Weight:       DefaultGSEAWeight,
	}
}

// WithDefaults fills unset (zero) fields and fixes the FDR method to None.
func (c ORAConfig) WithDefaults() ORAConfig {
	d := DefaultORAConfig()
	if c.MinOverlap == 0 {
		c.MinOverlap = d.MinOverlap
	}
	if c.MinSetSize == 0 {
		c.MinSetSize = d.MinSetSize
	}
	if c.MaxSetSize == 0 {
		c.MaxSetSize = d.MaxSetSize
	}
	c.FDR = FDRNone
	return c
}

// WithDefaults fills unset (zero) fields and fixes the FDR method to None.
func (c GSEAConfig) WithDefaults() GSEAConfig {
	d := DefaultGSEAConfig()
	if c.MinOverlap == 0 {
		c.MinOverlap = d.MinOverlap
	}
	if c.MaxOverlap == 0 {
		c.MaxOverlap = d.MaxOverlap
	}
	if c.Permutations == 0 {
		c.Permutations = d.Permutations
	}
	if c.Weight == 0 {
		c.Weight = d.Weight
	}
	c.FDR = FDRNone
	return c
}
