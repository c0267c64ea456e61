package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/turfease/platform/internal/app"
	"github.com/turfease/platform/internal/domain"
	"github.com/turfease/platform/internal/service"
)

func newOwnersCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owners",
		Short: "Review turf owner applications",
	}

	cmd.AddCommand(newOwnersListCmd(s))
	cmd.AddCommand(newOwnersShowCmd(s))
	cmd.AddCommand(newOwnersDecideCmd(s, domain.ApprovalApproved))
	cmd.AddCommand(newOwnersDecideCmd(s, domain.ApprovalRejected))

	return cmd
}

func newOwnersListCmd(s *state) *cobra.Command {
	var status string
	var page, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List owners, pending first by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withRuntime(cmd.Context(), func(rt *app.Runtime) error {
				result, err := rt.Services.Approval.ListOwners(cmd.Context(),
					domain.ApprovalStatus(status), service.Pagination{Page: page, Limit: limit})
				if err != nil {
					return err
				}
				s.out().PrintAccounts(result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", string(domain.ApprovalPending), "Approval status: pending, approved, rejected")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")

	return cmd
}

func newOwnersShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <owner-id>",
		Short: "Show one owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.withRuntime(cmd.Context(), func(rt *app.Runtime) error {
				owner, err := rt.Services.Approval.GetOwner(cmd.Context(), id)
				if err != nil {
					return err
				}
				s.out().PrintAccount(owner)
				return nil
			})
		},
	}
}

func newOwnersDecideCmd(s *state, decision domain.ApprovalStatus) *cobra.Command {
	var notes string

	use := "approve"
	if decision == domain.ApprovalRejected {
		use = "reject"
	}

	cmd := &cobra.Command{
		Use:   use + " <owner-id>",
		Short: fmt.Sprintf("Mark a pending owner %s", decision),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return s.withRuntime(cmd.Context(), func(rt *app.Runtime) error {
				owner, err := rt.Services.Approval.Decide(cmd.Context(), id, string(decision), notes)
				if err != nil {
					return err
				}
				out := s.out()
				out.PrintMessage(fmt.Sprintf("owner %s", decision))
				out.PrintAccount(owner)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes sent to the owner with the decision")
	if decision == domain.ApprovalRejected {
		_ = cmd.MarkFlagRequired("notes")
	}

	return cmd
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidation("owner id must be a UUID")
	}
	return id, nil
}
