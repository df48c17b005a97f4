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

var (
	showVersion  int
	showVersions bool
)

var showCmd = &cobra.Command{
	Use:   "show <query-id>",
	Short: "Show a stored query's vendors",
	Long:  "Prints the current version of a query, or a specific version with --version, or the version history with --versions.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if showVersions {
			summaries, err := st.ListVersions(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "list versions")
			}
			formatVersionList(os.Stdout, summaries)
			return nil
		}

		var q *model.Query
		var v *model.Version
		if showVersion > 0 {
			q, v, err = st.LoadVersion(ctx, args[0], showVersion)
		} else {
			q, v, err = st.LoadCurrent(ctx, args[0])
		}
		if err != nil {
			return eris.Wrapf(err, "load query %s", args[0])
		}

		formatVersion(os.Stdout, q, v)
		return nil
	},
}

func formatVersionList(out io.Writer, summaries []model.VersionSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tCREATED\tVENDORS\tTOKENS\tCOST_USD")
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.4f\n",
			s.Number,
			s.CreatedAt.Format("2006-01-02 15:04"),
			s.VendorCount,
			s.TotalTokens,
			s.CostUSD,
		)
	}
	_ = w.Flush()
}

func formatVersion(out io.Writer, q *model.Query, v *model.Version) {
	fmt.Fprintf(out, "Query: %s (%s)\n", q.QueryText, q.Slug)
	fmt.Fprintf(out, "Version: %d of %d\n\n", v.Number, q.CurrentVersion)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSCORE\tVENDOR\tCOUNTRY\tAVAILABILITY\tSPECS\tURL")
	for _, vr := range v.Vendors {
		found := 0
		for _, spec := range vr.Specs {
			if spec.HasValue() {
				found++
			}
		}
		name := vr.VendorName
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%d/%d\t%s\n",
			vr.ID,
			vr.SuitabilityScore,
			name,
			vr.Country,
			vr.Availability,
			found,
			len(v.Attributes),
			vr.ProductURL,
		)
	}
	_ = w.Flush()

	fmt.Fprintf(out, "\nTokens: %d  Cost: $%.4f  Duration: %.1fs\n",
		v.Stats.Totals.TotalTokens,
		v.Stats.TotalCostUSD,
		v.Stats.DurationSecs,
	)
}

func init() {
	showCmd.Flags().IntVar(&showVersion, "version", 0, "show a specific version (default: current)")
	showCmd.Flags().BoolVar(&showVersions, "versions", false, "list the version history instead")
	rootCmd.AddCommand(showCmd)
}
