package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shorelinehq/shoreline/internal/extract"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a viewable link yields data",
	Long: `Run the acquisition strategies against a link and report what came back.

Example:
  shoreline check --link https://airtable.com/shrXXXXXXXXXXXXXX`,
	RunE: runCheck,
}

var checkLink string

func init() {
	checkCmd.Flags().StringVar(&checkLink, "link", "", "Public viewable link to the spreadsheet")
	checkCmd.MarkFlagRequired("link")
}

func runCheck(cmd *cobra.Command, args []string) error {
	shareID, err := extract.ExtractShareID(checkLink)
	if err != nil {
		return errors.New("could not find a share ID in that link; expected something like https://airtable.com/shrXXXXXXXXXXXXXX")
	}
	fmt.Printf("Share ID: %s\n", shareID)

	batch, err := newPipeline().Extract(context.Background(), checkLink)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if batch.Placeholder {
		fmt.Println("Link reachable but no extractable data; the dashboard would show sample data.")
		return nil
	}

	fmt.Printf("Source: %s\n", batch.Source)
	fmt.Printf("Records: %d\n", batch.Count)
	if batch.Note != "" {
		fmt.Printf("Note: %s\n", batch.Note)
	}
	return nil
}
