package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Activ8Auto/ProAutoFill/internal/jobs"
)

func newJobsCommand(cli *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect automation jobs",
	}
	cmd.AddCommand(newJobsListCommand(cli))
	return cmd
}

func newJobsListCommand(cli *cliContext) *cobra.Command {
	var page, pageSize int
	var progress string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			list, err := cli.client().ListJobs(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to fetch jobs: %w", err)
			}

			presenter := jobs.NewPresenter(pageSize, jobs.WithPolicy(jobs.ParsePolicy(progress)))
			if !all {
				renderJobsPage(cli.out, presenter.Page(list, page, nil))
				return nil
			}

			pager := jobs.NewPager(presenter.PageSize())
			pager.SetTotal(len(jobs.Prepare(list)))
			for {
				current := pager.Page()
				renderJobsPage(cli.out, presenter.Page(list, current, nil))
				if pager.Next() == current {
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().BoolVar(&all, "all", false, "print every page")
	cmd.Flags().IntVar(&pageSize, "page-size", jobs.DefaultPageSize, "jobs per page")
	cmd.Flags().StringVar(&progress, "progress", "documented", "finished job progress: documented or target")
	return cmd
}

func renderJobsPage(out io.Writer, view jobs.PageView) {
	t := newTable(out, fmt.Sprintf("Page %d of %d", view.Page, view.TotalPages),
		table.Row{"Job", "Profile", "Status", "Started", "Progress (min)", "Hours"})
	for _, j := range view.Items {
		status := j.Status
		if j.Active {
			status += " *"
		}
		t.AppendRow(table.Row{j.JobID, j.ProfileName, status, j.StartedAt, j.Progress, j.TargetHours})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total jobs", view.TotalJobs})
	t.Render()
}
