package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tipflow/tip-backend/config"
	"github.com/tipflow/tip-backend/utils"
)

func tokenCmd() *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [subject-id]",
		Short: "Issue a development JWT for an employee or provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != utils.RoleEmployee && role != utils.RoleProvider {
				return fmt.Errorf("role must be %q or %q", utils.RoleEmployee, utils.RoleProvider)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if len(cfg.JWTSecret) == 0 {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := utils.GenerateToken(cfg.JWTSecret, args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", utils.RoleEmployee, "employee or provider")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
