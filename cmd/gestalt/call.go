package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/gestalt/internal/host"
)

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open request: %w", err)
	}
	return f, nil
}

func newCallCmd() *cobra.Command {
	var (
		inputPath string
		list      bool
	)

	cmd := &cobra.Command{
		Use:   "call <operation>",
		Short: "Run a host operation on a JSON request",
		Long: `Run one of the host operations (fill_input_data_frame, ora, multiomics_ora,
gsea, multiomics_gsea) on a JSON request read from stdin or --input, and
write the JSON response to stdout.`,
		Example: `  echo '{"sets":["a"],"parts":[["g1"]],"interest":["g1"],"reference":["g1","g2"]}' | gestalt call ora
  gestalt call --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := newEnv(&outputFlags{})
			if err != nil {
				return err
			}
			defer func() {
				if cerr := e.close(); err == nil {
					err = cerr
				}
			}()

			reg, err := host.NewServiceRegistry(e.service)
			if err != nil {
				return err
			}
			if list {
				for _, name := range reg.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if len(args) != 1 {
				return fmt.Errorf("%w: operation name required", errUsage)
			}

			payload, err := readAll(cmd, inputPath)
			if err != nil {
				return err
			}
			out, err := reg.Call(args[0], payload)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Request file (default: stdin)")
	cmd.Flags().BoolVar(&list, "list", false, "List available operations")

	return cmd
}
