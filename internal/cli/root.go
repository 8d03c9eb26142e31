// Package cli implements the shoreline command line tool for running
// spreadsheet extraction without the server.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shoreline",
	Short: "Customer session extraction from shared spreadsheet links",
	Long: `shoreline pulls normalized customer service sessions out of a public
spreadsheet "viewable link", the same way the dashboard backend does.

Useful for checking what a link yields before pointing the dashboard at it.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(checkCmd)
}
