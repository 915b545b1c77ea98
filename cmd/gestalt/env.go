package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/gestalt/internal/dispatch"
	"github.com/inodb/gestalt/internal/engine"
	"github.com/inodb/gestalt/internal/enrich"
	"github.com/inodb/gestalt/internal/geneset"
	"github.com/inodb/gestalt/internal/job"
	"github.com/inodb/gestalt/internal/store"
)

// outputFlags are shared by the analysis commands.
type outputFlags struct {
	format          string
	outputFile      string
	duckdbPath      string
	runLabel        string
	metricsTextfile string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "tsv", "Output format: tsv, json")
	cmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&f.duckdbPath, "duckdb", "", "Also export results to this DuckDB database")
	cmd.Flags().StringVar(&f.runLabel, "run", "", "Run label for --duckdb export (default: timestamp)")
	cmd.Flags().StringVar(&f.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file")
}

func (f *outputFlags) validate() error {
	switch f.format {
	case "tsv", "json":
		return nil
	default:
		return fmt.Errorf("%w: unknown output format %q", errUsage, f.format)
	}
}

// env wires the engine, dispatcher and service for one command invocation.
type env struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	service  *enrich.Service
	flags    *outputFlags
}

func newEnv(flags *outputFlags) (*env, error) {
	logger, err := newLogger(viper.GetBool("verbose"))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	eng := engine.New(viper.GetInt("engine.workers"))
	eng.SetLogger(logger)

	reg := prometheus.NewRegistry()
	d := dispatch.New(eng)
	d.SetLogger(logger)
	d.SetMetrics(dispatch.NewMetrics(reg))

	svc := enrich.NewService(d, serviceOptions())
	svc.SetLogger(logger)

	logger.Debug("engine ready", zap.Int("workers", eng.Workers()))

	return &env{logger: logger, registry: reg, service: svc, flags: flags}, nil
}

// serviceOptions reads analysis settings from viper.
func serviceOptions() enrich.Options {
	return enrich.Options{
		ORA: job.ORAConfig{
			MinOverlap: viper.GetInt("ora.min_overlap"),
			MinSetSize: viper.GetInt("ora.min_set_size"),
			MaxSetSize: viper.GetInt("ora.max_set_size"),
		},
		GSEA: job.GSEAConfig{
			MinOverlap:   viper.GetInt("gsea.min_overlap"),
			MaxOverlap:   viper.GetInt("gsea.max_overlap"),
			Permutations: viper.GetInt("gsea.permutations"),
			Seed:         viper.GetUint64("gsea.seed"),
		},
		Strict: viper.GetBool("methods.strict"),
	}
}

// close flushes metrics and the logger.
func (e *env) close() error {
	defer e.logger.Sync()
	if e.flags == nil || e.flags.metricsTextfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(e.flags.metricsTextfile, e.registry); err != nil {
		e.logger.Warn("could not write metrics", zap.String("path", e.flags.metricsTextfile), zap.Error(err))
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// output opens the configured output file, or returns stdout.
func (e *env) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if e.flags.outputFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(e.flags.outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// export records the run and hands the store to write when --duckdb is set.
func (e *env) export(analysis, method string, inputs []string, write func(s *store.Store, run string) error) error {
	if e.flags.duckdbPath == "" {
		return nil
	}
	s, err := store.Open(e.flags.duckdbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	run := e.flags.runLabel
	if run == "" {
		run = now.UTC().Format("20060102T150405.000Z")
	}

	fps := make([]store.FileFingerprint, 0, len(inputs))
	for _, path := range inputs {
		fp, err := store.StatFile(path)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", path, err)
		}
		fps = append(fps, fp)
	}
	if err := s.RecordRun(store.Run{Label: run, Analysis: analysis, Method: method, CreatedAt: now, Inputs: fps}); err != nil {
		return err
	}
	if err := write(s, run); err != nil {
		return fmt.Errorf("export to duckdb: %w", err)
	}
	e.logger.Info("exported results", zap.String("path", e.flags.duckdbPath), zap.String("run", run))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// setsAndParts splits a collection into the parallel vectors the service takes.
func setsAndParts(c *geneset.Collection) ([]string, [][]string) {
	items := c.Items()
	sets := make([]string, len(items))
	parts := make([][]string, len(items))
	for i, it := range items {
		sets[i] = it.ID
		parts[i] = it.Parts
	}
	return sets, parts
}
