package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/turfease/platform/internal/infra"
)

func newMigrateCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			status, err := infra.RunMigrations(cfg.DSN(), s.logger())
			if err != nil {
				return err
			}
			s.out().PrintMessage(fmt.Sprintf("schema at version %d (dirty=%t)", status.Version, status.Dirty))
			return nil
		},
	}

	cmd.AddCommand(newMigrateDownCmd(s))
	return cmd
}

func newMigrateDownCmd(s *state) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			status, err := infra.RollbackMigrations(cfg.DSN(), steps, s.logger())
			if err != nil {
				return err
			}
			s.out().PrintMessage(fmt.Sprintf("rolled back %d step(s), schema at version %d", steps, status.Version))
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	return cmd
}
