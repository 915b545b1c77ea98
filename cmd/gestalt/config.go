package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gestalt configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.gestalt.yaml.",
		Example: `  gestalt config                              # show all config
  gestalt config set gsea.permutations 2000   # more permutations
  gestalt config set methods.strict true      # reject unknown method names
  gestalt config get ora.min_overlap          # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

// parseConfigValue turns boolean-like and numeric strings into typed values.
func parseConfigValue(value string) any {
	switch value {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	viper.Set(key, parseConfigValue(value))

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		var err error
		if cfgFile, err = defaultConfigPath(); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
