package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate legacy unversioned records to version 1",
	Long:  "Rewrites records stored by older releases, which kept a single mutable vendor list per query, into version 1 of a versioned query. Safe to run repeatedly; already-versioned records are untouched.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		migrated, err := st.MigrateLegacy(ctx)
		if err != nil {
			return eris.Wrap(err, "migrate legacy records")
		}

		zap.L().Info("migration complete", zap.Int("migrated", migrated))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
