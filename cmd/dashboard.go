package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
)

func newDashboardCommand(cli *cliContext) *cobra.Command {
	var timeframe string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show run totals and breakdowns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("timeframe") {
				timeframe = cli.v.GetString(keyTimeframe)
			}
			tf, err := analytics.ParseTimeframe(timeframe)
			if err != nil {
				return err
			}
			token, err := cli.token()
			if err != nil {
				return err
			}

			client := cli.client()
			runs, err := client.ListRuns(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to fetch runs: %w", err)
			}
			remaining, err := client.RemainingRuns(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to fetch remaining runs: %w", err)
			}

			d := analytics.Summary(runs, tf, time.Now())
			out := cli.out

			renderRemainingBanner(out, remaining)
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Last %s: %d runs, %s", d.Timeframe, d.Totals.Runs, d.Totals.Display)))
			renderBuckets(out, "Duration", d.Duration)
			renderBuckets(out, "Visit type", d.VisitType)
			renderBuckets(out, "Gender", d.Gender)
			renderBuckets(out, "Race", d.Race)
			renderBuckets(out, "Age range", d.AgeRange)
			renderBuckets(out, "Diagnosis", d.Diagnosis)
			renderDiagnosisGender(out, d.DiagnosisGender)
			renderRecentRuns(out, d.RecentRuns)
			return nil
		},
	}

	cmd.Flags().StringVar(&timeframe, "timeframe", "", "day, week or month (default from PROAUTOFILL_TIMEFRAME, then week)")
	return cmd
}
