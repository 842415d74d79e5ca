package main

import (
	"github.com/spf13/cobra"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/database"
	"github.com/tipflow/tip-backend/utils"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

			db, err := config.InitDB(cfg.Database)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}
