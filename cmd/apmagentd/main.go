// apmagentd runs the tracing core behind a small demo HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	configPath string
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:   "apmagentd",
	Short: "apmagentd traces a demo HTTP service with the APM agent core",
	Long: `apmagentd starts an HTTP service instrumented by the agent core.

Synchronous routes go through the net/http middleware; routes under /async/
run on goroutines and keep their transaction current through the reactive
wrappers. Ended transactions are logged, collected in memory, and optionally
exported over OTLP or to Kafka.

Configuration comes from --config (YAML) and APM_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apmagentd %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
	rootCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Address of the demo HTTP service")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
