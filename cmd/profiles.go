package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newProfilesCommand(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage automation profiles",
	}
	cmd.AddCommand(
		newProfilesListCommand(cli),
		newProfilesDeleteCommand(cli),
		newProfilesRunCommand(cli),
	)
	return cmd
}

func newProfilesListCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List automation profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			profiles, err := cli.client().ListProfiles(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to fetch profiles: %w", err)
			}

			t := newTable(cli.out, "", table.Row{"ID", "Name", "Target Hours", "Visit Type", "Site", "Diagnoses"})
			for _, p := range profiles {
				t.AppendRow(table.Row{p.ID, p.Name, p.TargetHours, p.VisitType, p.SiteLocation, len(p.Diagnoses)})
			}
			t.Render()
			return nil
		},
	}
}

func newProfilesDeleteCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			if err := cli.client().DeleteProfile(cmd.Context(), token, args[0]); err != nil {
				return fmt.Errorf("failed to delete profile: %w", err)
			}
			printSuccess(cli.out, "Profile %s deleted", args[0])
			return nil
		},
	}
}

func newProfilesRunCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Start an automation run with a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			result, err := cli.client().TriggerRun(cmd.Context(), token, args[0])
			if err != nil {
				return fmt.Errorf("failed to start automation: %w", err)
			}
			printSuccess(cli.out, "Automation started (task %s)", result.TaskID)
			return nil
		},
	}
}
