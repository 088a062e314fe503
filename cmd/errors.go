package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
)

const errorDateLayout = "01/02/2006 15:04"

func newErrorsCommand(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors",
		Short: "Show or clear failed runs you can fix",
	}
	cmd.AddCommand(newErrorsListCommand(cli), newErrorsClearCommand(cli))
	return cmd
}

func newErrorsListCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user-fixable failed runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			logs, err := cli.client().ListErrorLogs(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to fetch error logs: %w", err)
			}

			fixable := analytics.ErrorLogs(logs)
			if len(fixable) == 0 {
				printSuccess(cli.out, "No errors to fix")
				return nil
			}
			t := newTable(cli.out, "", table.Row{"Run", "Started", "Message"})
			for _, l := range fixable {
				started := ""
				if l.StartTime != nil {
					started = l.StartTime.Format(errorDateLayout)
				}
				t.AppendRow(table.Row{l.ID, started, l.Message()})
			}
			t.Render()
			return nil
		},
	}
}

func newErrorsClearCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all error logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			if err := cli.client().ClearErrorLogs(cmd.Context(), token); err != nil {
				return fmt.Errorf("failed to clear error logs: %w", err)
			}
			printSuccess(cli.out, "Error logs cleared")
			return nil
		},
	}
}
