package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Activ8Auto/ProAutoFill/internal/analytics"
	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFC107")).
			Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
)

func newTable(out io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	return t
}

func renderBuckets(out io.Writer, title string, buckets []analytics.Bucket) {
	if len(buckets) == 0 {
		return
	}
	t := newTable(out, title, table.Row{"Label", "Total", "Percent"})
	for _, b := range buckets {
		t.AppendRow(table.Row{b.Label, b.Total, fmt.Sprintf("%.1f%%", b.Percent)})
	}
	t.Render()
}

func renderDiagnosisGender(out io.Writer, rows []analytics.DiagnosisGenderRow) {
	if len(rows) == 0 {
		return
	}
	t := newTable(out, "Diagnoses by gender", table.Row{"Diagnosis", "Female", "Male", "Trans"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Diagnosis, r.Female, r.Male, r.Trans})
	}
	t.Render()
}

func renderRecentRuns(out io.Writer, runs []analytics.RecentRun) {
	t := newTable(out, "Recent runs", table.Row{"Run", "Date", "Duration", "Status", "Visit Type"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.Label, r.Date, r.Duration, r.Status, r.VisitType})
	}
	t.Render()
}

func renderRemainingBanner(out io.Writer, remaining domain.RemainingRuns) {
	if !remaining.ShowBanner() {
		return
	}
	msg := fmt.Sprintf("Free Tier: You have %d automation runs remaining.", *remaining.RemainingRuns)
	fmt.Fprintln(out, bannerStyle.Render(msg))
}

func renderDiagnoses(out io.Writer, entries []domain.DiagnosisEntry) {
	t := newTable(out, "", table.Row{"ID", "Name", "ICD Code", "Medications", "Exclusion Group"})
	for _, d := range entries {
		t.AppendRow(table.Row{d.ID, d.Name, d.ICDCode, strings.Join(d.Medications, ", "), d.ExclusionGroup})
	}
	t.Render()
}

func printSuccess(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf(format, args...)))
}
