// Command obsrecords runs the observatory records service: the HTTP API,
// schema migrations and one-off schedule ingestion.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "obsrecords",
	Short:         "Observing feedback and schedule records service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
