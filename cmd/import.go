package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/procurelabs/vendor-research-cli/internal/workbook"
)

var (
	importSheet       string
	importColumn      int
	importSkipRows    int
	importSkipExtract bool
)

var importCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Run the research pipeline for every query in an XLSX workbook",
	Long:  "Reads one product query per row from the workbook and runs the research pipeline for each. A failed query is logged and skipped; the batch keeps going.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		queries, err := workbook.ReadQueries(args[0], workbook.Options{
			SheetName: importSheet,
			Column:    importColumn,
			SkipRows:  importSkipRows,
		})
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return eris.Errorf("no queries found in %s", args[0])
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("batch import started",
			zap.String("workbook", args[0]),
			zap.Int("queries", len(queries)),
		)

		var succeeded, failed int
		var totalCost float64
		for _, queryText := range queries {
			if ctx.Err() != nil {
				return eris.Wrap(ctx.Err(), "batch import interrupted")
			}

			run := env.Pipeline.Run
			if importSkipExtract {
				run = env.Pipeline.RunDiscovery
			}

			version, err := run(ctx, queryText)
			if err != nil {
				failed++
				zap.L().Warn("query failed",
					zap.String("query", queryText),
					zap.Error(err),
				)
				continue
			}

			succeeded++
			totalCost += version.Stats.TotalCostUSD
			zap.L().Info("query complete",
				zap.String("query", queryText),
				zap.Int("vendors", len(version.Vendors)),
				zap.Float64("cost_usd", version.Stats.TotalCostUSD),
			)
		}

		zap.L().Info("batch import finished",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
			zap.Float64("total_cost_usd", totalCost),
		)

		if failed > 0 && succeeded == 0 {
			return eris.Errorf("all %d queries failed", failed)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name (default: first sheet)")
	importCmd.Flags().IntVar(&importColumn, "column", 0, "zero-based column holding the query text")
	importCmd.Flags().IntVar(&importSkipRows, "skip-rows", 1, "header rows to skip")
	importCmd.Flags().BoolVar(&importSkipExtract, "skip-extraction", false, "stop after discovery, do not fetch product pages")
	rootCmd.AddCommand(importCmd)
}
