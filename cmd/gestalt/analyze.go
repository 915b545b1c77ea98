package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/inodb/gestalt/internal/enrich"
	"github.com/inodb/gestalt/internal/geneset"
	"github.com/inodb/gestalt/internal/gmt"
	"github.com/inodb/gestalt/internal/output"
	"github.com/inodb/gestalt/internal/results"
	"github.com/inodb/gestalt/internal/store"
)

func newMatrixCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "matrix <library.gmt>",
		Short: "Write the gene × gene set membership matrix of a GMT library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := newEnv(&outputFlags{outputFile: outputFile})
			if err != nil {
				return err
			}
			defer func() {
				if cerr := e.close(); err == nil {
					err = cerr
				}
			}()
			return runMatrix(cmd, e, args[0])
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func runMatrix(cmd *cobra.Command, e *env, libPath string) error {
	coll, err := gmt.Load(libPath)
	if err != nil {
		return err
	}

	pairs := geneset.PairsFromItems(coll.Items())
	pairSets := make([]string, len(pairs))
	pairGenes := make([]string, len(pairs))
	for i, p := range pairs {
		pairSets[i] = p.Set
		pairGenes[i] = p.Gene
	}

	m, err := e.service.BuildMembershipMatrix(pairSets, pairGenes, coll.Genes(), coll.IDs())
	if err != nil {
		return err
	}

	w, closeOut, err := e.output(cmd)
	if err != nil {
		return err
	}
	if err := m.WriteTSV(w); err != nil {
		closeOut()
		return fmt.Errorf("writing matrix: %w", err)
	}
	return closeOut()
}

func newORACmd() *cobra.Command {
	var (
		flags      outputFlags
		gmtPath    string
		interest   []string
		reference  []string
		metaMethod string
	)

	cmd := &cobra.Command{
		Use:   "ora",
		Short: "Run over-representation analysis",
		Long: `Run over-representation analysis of one or more interest lists against a
GMT library. Repeat --interest for multi-omics ORA; layers are combined with
the meta-analysis named by --method. A single --reference is shared by every
layer; otherwise give one per --interest.`,
		Example: `  gestalt ora --gmt kegg.gmt --interest hits.txt --reference background.txt
  gestalt ora --gmt kegg.gmt --interest rna.txt --interest prot.txt --reference bg.txt --method stouffer`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := flags.validate(); err != nil {
				return err
			}
			if gmtPath == "" || len(interest) == 0 || len(reference) == 0 {
				return fmt.Errorf("%w: --gmt, --interest and --reference are required", errUsage)
			}
			if len(reference) != 1 && len(reference) != len(interest) {
				return fmt.Errorf("%w: got %d --reference for %d --interest", errUsage, len(reference), len(interest))
			}
			e, err := newEnv(&flags)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := e.close(); err == nil {
					err = cerr
				}
			}()
			return runORA(cmd, e, gmtPath, interest, reference, metaMethod)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&gmtPath, "gmt", "", "GMT gene set library (required)")
	cmd.Flags().StringArrayVar(&interest, "interest", nil, "Interest list file, one analyte per line (repeatable)")
	cmd.Flags().StringArrayVar(&reference, "reference", nil, "Reference list file (repeatable)")
	cmd.Flags().StringVar(&metaMethod, "method", "fisher", "Meta-analysis for multi-omics: fisher, stouffer")

	return cmd
}

func runORA(cmd *cobra.Command, e *env, gmtPath string, interestPaths, referencePaths []string, metaMethod string) error {
	coll, err := gmt.Load(gmtPath)
	if err != nil {
		return err
	}
	sets, parts := setsAndParts(coll)

	interest, err := loadLists(interestPaths)
	if err != nil {
		return err
	}
	reference, err := loadLists(referencePaths)
	if err != nil {
		return err
	}
	for len(reference) < len(interest) {
		reference = append(reference, reference[0])
	}
	inputs := slices.Concat([]string{gmtPath}, interestPaths, referencePaths)

	if len(interest) == 1 {
		tbl, err := e.service.RunORA(sets, parts, interest[0], reference[0])
		if err != nil {
			return err
		}
		if err := e.writeORA(cmd, results.ORABatch{Layers: []results.ORATable{tbl}, Combined: results.NewORATable(nil)}, false); err != nil {
			return err
		}
		return e.export("ora", "single", inputs, func(s *store.Store, run string) error {
			return s.WriteORA(run, 0, tbl)
		})
	}

	batch, err := e.service.RunMultiOmicsORA(sets, parts, interest, reference, metaMethod)
	if err != nil {
		return err
	}
	if err := e.writeORA(cmd, batch, true); err != nil {
		return err
	}
	return e.export("ora", metaMethod, inputs, func(s *store.Store, run string) error {
		return s.WriteORABatch(run, batch)
	})
}

func (e *env) writeORA(cmd *cobra.Command, b results.ORABatch, multi bool) error {
	w, closeOut, err := e.output(cmd)
	if err != nil {
		return err
	}

	if e.flags.format == "json" {
		var v any = b
		if !multi {
			v = b.Layers[0]
		}
		if err := writeJSON(w, v); err != nil {
			closeOut()
			return fmt.Errorf("writing json: %w", err)
		}
		return closeOut()
	}

	ow := output.NewORAWriter(w)
	err = ow.WriteHeader()
	if err == nil {
		if multi {
			err = ow.WriteBatch(b)
		} else {
			err = ow.WriteTable(output.LayerName(0), b.Layers[0])
		}
	}
	if err == nil {
		err = ow.Flush()
	}
	if err != nil {
		closeOut()
		return fmt.Errorf("writing results: %w", err)
	}
	return closeOut()
}

func newGSEACmd() *cobra.Command {
	var (
		flags        outputFlags
		gmtPath      string
		rankPaths    []string
		combination  string
		modifier     string
		minOverlap   int
		maxOverlap   int
		permutations int
		runningSums  bool
	)

	cmd := &cobra.Command{
		Use:   "gsea",
		Short: "Run gene set enrichment analysis",
		Long: `Run GSEA of one or more ranked lists ("analyte<TAB>score" per line) against a
GMT library. Repeat --rank for multi-omics GSEA. --combination chooses how
layers are combined: meta (p-value meta-analysis named by --modifier), max or
mean (rank merge after the normalization named by --modifier).`,
		Example: `  gestalt gsea --gmt hallmark.gmt --rank rna.rnk
  gestalt gsea --gmt hallmark.gmt --rank rna.rnk --rank prot.rnk --combination max --modifier rank`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := flags.validate(); err != nil {
				return err
			}
			if gmtPath == "" || len(rankPaths) == 0 {
				return fmt.Errorf("%w: --gmt and at least one --rank are required", errUsage)
			}
			e, err := newEnv(&flags)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := e.close(); err == nil {
					err = cerr
				}
			}()
			p := enrich.GSEAParams{MinOverlap: minOverlap, MaxOverlap: maxOverlap, Permutations: permutations}
			return runGSEA(cmd, e, gmtPath, rankPaths, p, modifier, combination, runningSums)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&gmtPath, "gmt", "", "GMT gene set library (required)")
	cmd.Flags().StringArrayVar(&rankPaths, "rank", nil, "Ranked list file (repeatable)")
	cmd.Flags().StringVar(&combination, "combination", "mean", "Multi-omics combination: meta, max, mean")
	cmd.Flags().StringVar(&modifier, "modifier", "median", "Meta-analysis (fisher, stouffer) or normalization (mean, median, rank, none)")
	cmd.Flags().IntVar(&minOverlap, "min-overlap", 0, "Minimum set overlap (default: gsea.min_overlap)")
	cmd.Flags().IntVar(&maxOverlap, "max-overlap", 0, "Maximum set overlap (default: gsea.max_overlap)")
	cmd.Flags().IntVar(&permutations, "permutations", 0, "Permutations (default: gsea.permutations)")
	cmd.Flags().BoolVar(&runningSums, "running-sum", false, "Include running-sum trajectories in TSV output")

	return cmd
}

func runGSEA(cmd *cobra.Command, e *env, gmtPath string, rankPaths []string, p enrich.GSEAParams, modifier, combination string, runningSums bool) error {
	coll, err := gmt.Load(gmtPath)
	if err != nil {
		return err
	}
	sets, parts := setsAndParts(coll)

	analytes := make([][]string, len(rankPaths))
	ranks := make([][]float64, len(rankPaths))
	for i, path := range rankPaths {
		if analytes[i], ranks[i], err = gmt.LoadRanked(path); err != nil {
			return err
		}
	}
	inputs := slices.Concat([]string{gmtPath}, rankPaths)

	if len(rankPaths) == 1 {
		tbl, err := e.service.RunGSEA(p, sets, parts, analytes[0], ranks[0])
		if err != nil {
			return err
		}
		if err := e.writeGSEA(cmd, results.GSEABatch{Layers: []results.GSEATable{tbl}, Combined: results.NewGSEATable(nil)}, false, runningSums); err != nil {
			return err
		}
		return e.export("gsea", "single", inputs, func(s *store.Store, run string) error {
			return s.WriteGSEA(run, 0, tbl)
		})
	}

	batch, err := e.service.RunMultiOmicsGSEA(p, sets, parts, analytes, ranks, modifier, combination)
	if err != nil {
		return err
	}
	if err := e.writeGSEA(cmd, batch, true, runningSums); err != nil {
		return err
	}
	return e.export("gsea", combination+"/"+modifier, inputs, func(s *store.Store, run string) error {
		return s.WriteGSEABatch(run, batch)
	})
}

func (e *env) writeGSEA(cmd *cobra.Command, b results.GSEABatch, multi, runningSums bool) error {
	w, closeOut, err := e.output(cmd)
	if err != nil {
		return err
	}

	if e.flags.format == "json" {
		var v any = b
		if !multi {
			v = b.Layers[0]
		}
		if err := writeJSON(w, v); err != nil {
			closeOut()
			return fmt.Errorf("writing json: %w", err)
		}
		return closeOut()
	}

	gw := output.NewGSEAWriter(w, runningSums)
	err = gw.WriteHeader()
	if err == nil {
		if multi {
			err = gw.WriteBatch(b)
		} else {
			err = gw.WriteTable(output.LayerName(0), b.Layers[0])
		}
	}
	if err == nil {
		err = gw.Flush()
	}
	if err != nil {
		closeOut()
		return fmt.Errorf("writing results: %w", err)
	}
	return closeOut()
}

func loadLists(paths []string) ([][]string, error) {
	out := make([][]string, len(paths))
	for i, path := range paths {
		list, err := gmt.LoadList(path)
		if err != nil {
			return nil, err
		}
		out[i] = list
	}
	return out, nil
}

// readAll reads a request body from path, or from stdin when path is "" or "-".
func readAll(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	rc, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
