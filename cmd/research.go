package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Run the full research pipeline for a product query",
	Long:  "Enriches the query, discovers alternate vendors via web research, fetches each vendor's product page, extracts comparison specs, and saves the result as a new version.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		queryText := strings.Join(args, " ")

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		version, err := env.Pipeline.Run(ctx, queryText)
		if err != nil {
			return eris.Wrap(err, "research run")
		}

		zap.L().Info("research complete",
			zap.String("query", queryText),
			zap.Int("version", version.Number),
			zap.Int("vendors", len(version.Vendors)),
			zap.Float64("cost_usd", version.Stats.TotalCostUSD),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(version)
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
}
