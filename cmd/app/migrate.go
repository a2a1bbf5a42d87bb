package main

import (
	"fmt"

	"github.com/bagdasarian/teamhub/internal/db"
	"github.com/spf13/cobra"
)

var rollback bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !rollback {
			return a.migrate(cmd.Context())
		}

		version, err := db.RollbackLast(cmd.Context(), a.db)
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		a.log.Info("migration rolled back", "version", version)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last applied migration")
	rootCmd.AddCommand(migrateCmd)
}
