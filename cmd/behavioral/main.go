// Command behavioral is the toolchain for behavioral markup: it generates
// schema code, stamps static HTML and validates behavior manifests.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "behavioral",
		Short: "Behavioral markup toolchain",
		Long: `behavioral attaches declared behaviors to HTML elements.

Elements name their behaviors in a behavior attribute:

  <dialog behavior="reveal logger">...</dialog>

The runtime turns each such element into a customized built-in host whose
is attribute names the behavior set. This tool prepares code and markup
for that runtime.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (default behavioral.yaml if present)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		generateCmd(a),
		cleanCmd(a),
		stampCmd(a),
		checkCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "behavioral version %s\n", version)
			},
		},
	)
	return cmd
}
