package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractVendorID int

var extractCmd = &cobra.Command{
	Use:   "extract <query-id>",
	Short: "Re-run spec extraction for a stored query",
	Long:  "Fetches product pages for the current version's vendors and re-extracts comparison specs. The result is saved as a new version; the old one is never touched.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		version, err := env.Pipeline.ExtractSpecs(ctx, args[0], extractVendorID)
		if err != nil {
			return eris.Wrap(err, "extract specs")
		}

		zap.L().Info("extraction complete",
			zap.String("query_id", args[0]),
			zap.Int("version", version.Number),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(version)
	},
}

func init() {
	extractCmd.Flags().IntVar(&extractVendorID, "vendor-id", 0, "re-extract a single vendor by id (default: all vendors)")
	rootCmd.AddCommand(extractCmd)
}
