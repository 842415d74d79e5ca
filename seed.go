package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/database"
	"github.com/tipflow/tip-backend/utils"
)

func seedCmd() *cobra.Command {
	var opts database.SeedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo provider, employee and payout account",
		Long: `Insert a verified demo provider with one active employee.

Examples:
  tipd seed
  tipd seed --tip-code TIP002 --sub-account 3f1c...`,
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
			if err := database.Migrate(db); err != nil {
				return err
			}
			res, err := database.Seed(db, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "provider: %s\nemployee: %s\ntip code: %s\n",
				res.ServiceProviderID, res.EmployeeID, opts.TipCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.ProviderName, "provider", "Demo Provider", "service provider name")
	cmd.Flags().StringVar(&opts.TipCode, "tip-code", "TIP001", "employee tip code")
	cmd.Flags().StringVar(&opts.SubAccount, "sub-account", "demo-sub-account", "gateway sub-account id; empty to skip")
	return cmd
}
