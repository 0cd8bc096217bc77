package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/shaiso/Flagship/internal/config"
)

// NewRootCmd собирает корневую команду flagship.
// stdout и stderr задаются явно, чтобы команды можно было гонять в тестах.
func NewRootCmd(version string, catalog *Catalog, stdout, stderr io.Writer) *cobra.Command {
	var (
		jsonOutput bool
		configPath string
	)

	rootCmd := &cobra.Command{
		Use:           "flagship",
		Short:         "Flagship CLI — inspect, convert and invoke steps",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file for store and enqueue (YAML)")

	catalogFn := func() *Catalog { return catalog }
	outputFn := func() *Output { return NewOutputTo(stdout, stderr, jsonOutput) }
	configFn := func() (*config.Config, error) { return config.Load(configPath) }

	rootCmd.AddCommand(
		NewActionsCmd(catalogFn, outputFn),
		NewFiltersCmd(catalogFn, outputFn),
		NewConvertCmd(catalogFn, outputFn),
		NewValidateCmd(catalogFn, outputFn),
		NewInvokeCmd(catalogFn, outputFn),
		NewStoreCmd(catalogFn, outputFn, configFn),
		NewEnqueueCmd(outputFn, configFn),
	)

	return rootCmd
}
