package main

import (
	"github.com/deppfellow/obsrecords/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		return database.Migrate(cmd.Context(), &rt.log, rt.cfg)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
