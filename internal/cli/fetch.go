package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shorelinehq/shoreline/internal/config"
	"github.com/shorelinehq/shoreline/internal/extract"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch sessions from a viewable link",
	Long: `Run the extraction pipeline once and print the resulting sessions.

Examples:
  shoreline fetch --link https://airtable.com/shrXXXXXXXXXXXXXX
  shoreline fetch --link https://airtable.com/shrXXXXXXXXXXXXXX --json`,
	RunE: runFetch,
}

var (
	fetchLink string
	fetchJSON bool
)

func init() {
	fetchCmd.Flags().StringVar(&fetchLink, "link", "", "Public viewable link to the spreadsheet")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "Print raw JSON instead of a table")
	fetchCmd.MarkFlagRequired("link")
}

func newPipeline() *extract.Pipeline {
	cfg := config.Load()
	return extract.NewPipeline(
		extract.WithPipelineBaseURL(cfg.SheetBaseURL),
		extract.WithPipelineHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
	)
}

func runFetch(cmd *cobra.Command, args []string) error {
	batch, err := newPipeline().Extract(context.Background(), fetchLink)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if fetchJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(batch)
	}

	if batch.Note != "" {
		fmt.Printf("Note: %s\n\n", batch.Note)
	}
	fmt.Printf("%d session(s) from %s\n\n", batch.Count, batch.Source)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tCUSTOMER\tSTATUS\tSENTIMENT\tESCALATE\tTAGS\tTURNS\tTOOLS")
	for _, s := range batch.Sessions {
		escalate := ""
		if s.EscalationRecommended {
			escalate = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			s.SessionID, s.CustomerID, s.Status, s.Sentiment,
			escalate, strings.Join(s.Tags, ","), len(s.Turns), len(s.Tools))
	}
	return w.Flush()
}
