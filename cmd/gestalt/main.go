// Package main provides the gestalt command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/gestalt/internal/job"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errUsage marks errors caused by invalid invocation.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "gestalt",
		Short: "Gene set enrichment analysis for single and multi-omics data",
		Long: `gestalt runs over-representation analysis (ORA) and gene set enrichment
analysis (GSEA) against GMT gene set libraries, one omics layer at a time or
combined across layers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.gestalt.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().BoolVar(&strict, "strict", false, "Reject unrecognized method names (default: methods.strict)")
	viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("methods.strict", cmd.PersistentFlags().Lookup("strict"))

	cmd.AddCommand(newMatrixCmd())
	cmd.AddCommand(newORACmd())
	cmd.AddCommand(newGSEACmd())
	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gestalt version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// setDefaults registers the built-in analysis defaults with viper.
func setDefaults() {
	ora := job.DefaultORAConfig()
	gsea := job.DefaultGSEAConfig()

	viper.SetDefault("ora.min_overlap", ora.MinOverlap)
	viper.SetDefault("ora.min_set_size", ora.MinSetSize)
	viper.SetDefault("ora.max_set_size", ora.MaxSetSize)
	viper.SetDefault("gsea.min_overlap", gsea.MinOverlap)
	viper.SetDefault("gsea.max_overlap", gsea.MaxOverlap)
	viper.SetDefault("gsea.permutations", gsea.Permutations)
	viper.SetDefault("gsea.seed", gsea.Seed)
	viper.SetDefault("engine.workers", 0)
	viper.SetDefault("methods.strict", false)
}

// initConfig reads ~/.gestalt.yaml (or cfgFile) and GESTALT_* environment
// variables. A missing config file is not an error.
func initConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".gestalt")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GESTALT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// defaultConfigPath returns ~/.gestalt.yaml.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".gestalt.yaml"), nil
}

// newLogger builds a logger on stderr; verbose switches to the development
// config with debug output.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
