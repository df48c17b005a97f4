package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOutput     string
	exportIncludeRaw bool
)

var exportCmd = &cobra.Command{
	Use:   "export <query-id>",
	Short: "Export a query's current version as JSON",
	Long:  "Writes the current version of a query as indented JSON. The raw discovery text is stripped unless --include-raw is set; it dominates the file size and is rarely needed downstream.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		q, v, err := st.LoadCurrent(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "load query %s", args[0])
		}

		// Work on a copy so the loaded version stays intact.
		exported := *v
		if !exportIncludeRaw {
			exported.Discovery.RawText = "[stripped, use --include-raw to include]"
		}

		doc := struct {
			QueryID   string `json:"query_id"`
			QueryText string `json:"query_text"`
			Version   any    `json:"version"`
		}{
			QueryID:   q.Slug,
			QueryText: q.QueryText,
			Version:   &exported,
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return eris.Wrapf(err, "create %s", exportOutput)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "encode export")
		}

		if exportOutput != "" {
			zap.L().Info("export written",
				zap.String("query_id", q.Slug),
				zap.String("file", exportOutput),
			)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportIncludeRaw, "include-raw", false, "include the raw discovery response text")
	rootCmd.AddCommand(exportCmd)
}
