package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <query>",
	Short: "Run discovery only, without page extraction",
	Long:  "Enriches the query and discovers alternate vendors, then stops. The saved version carries vendors without page-extracted specs; run extract later to fill them in as a new version.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		queryText := strings.Join(args, " ")

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		version, err := env.Pipeline.RunDiscovery(ctx, queryText)
		if err != nil {
			return eris.Wrap(err, "discovery run")
		}

		zap.L().Info("discovery complete",
			zap.String("query", queryText),
			zap.Int("version", version.Number),
			zap.Int("vendors", len(version.Vendors)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(version)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
