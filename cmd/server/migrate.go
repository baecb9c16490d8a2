package main

import (
	"go-hardware-pos/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		return database.Migrate(db)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
