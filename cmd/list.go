package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/procurelabs/vendor-research-cli/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored queries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		queries, err := st.ListQueries(ctx)
		if err != nil {
			return eris.Wrap(err, "list queries")
		}

		if len(queries) == 0 {
			fmt.Fprintln(os.Stderr, "No queries found.")
			return nil
		}

		formatQueryList(os.Stdout, queries)
		return nil
	},
}

// formatQueryList writes a tabular list of queries to out.
func formatQueryList(out io.Writer, queries []model.QuerySummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "QUERY_ID\tQUERY\tVERSIONS\tCURRENT\tVENDORS\tUPDATED")
	_, _ = fmt.Fprintln(w, "--------\t-----\t--------\t-------\t-------\t-------")

	for _, q := range queries {
		text := q.QueryText
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			q.Slug,
			text,
			q.VersionCount,
			q.CurrentVersion,
			q.VendorCount,
			q.LastUpdated.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
