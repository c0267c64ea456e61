package cli

import (
	"github.com/spf13/cobra"
	"github.com/turfease/platform/internal/app"
	"github.com/turfease/platform/internal/service"
)

func newCreateAdminCmd(s *state) *cobra.Command {
	var in service.AdminInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the administrator account, or reset its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withRuntime(cmd.Context(), func(rt *app.Runtime) error {
				account, created, err := rt.Services.Auth.EnsureAdmin(cmd.Context(), in)
				if err != nil {
					return err
				}
				out := s.out()
				if created {
					out.PrintMessage("admin account created")
				} else {
					out.PrintMessage("admin account exists; password updated")
				}
				out.PrintAccount(account)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "Admin email (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "Admin password (required)")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "Admin", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "User", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
