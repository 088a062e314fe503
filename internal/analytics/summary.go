package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// DefaultRecentLimit is how many runs the recent-runs card lists.
const DefaultRecentLimit = 5

const recentDateLayout = "01/02/2006"

// Totals is the run count and time spent inside a timeframe.
type Totals struct {
	Runs    int    `json:"runs"`
	Minutes int    `json:"minutes"`
	Display string `json:"display"`
}

// ComputeTotals sums chosen minutes over the runs inside tf.
func ComputeTotals(runs []domain.Run, tf Timeframe, now time.Time) Totals {
	filtered := FilterRuns(runs, tf, now)
	minutes := 0
	for _, r := range filtered {
		minutes += r.ChosenMinutes
	}
	return Totals{
		Runs:    len(filtered),
		Minutes: minutes,
		Display: FormatMinutes(minutes),
	}
}

// FormatMinutes renders minutes as "<h>h <m>m".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// RecentRun is one row of the recent-runs card.
type RecentRun struct {
	Label     string    `json:"label"`
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Date      string    `json:"date"`
	Duration  string    `json:"duration"`
	Minutes   int       `json:"minutes"`
	Status    string    `json:"status"`
	VisitType string    `json:"visit_type,omitempty"`
	AgeRange  string    `json:"age_range,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Race      string    `json:"race,omitempty"`
}

// RecentRuns returns the latest runs with a start time, newest first.
// A limit below one falls back to DefaultRecentLimit.
func RecentRuns(runs []domain.Run, limit int) []RecentRun {
	if limit < 1 {
		limit = DefaultRecentLimit
	}

	started := make([]domain.Run, 0, len(runs))
	for _, r := range runs {
		if r.StartTime != nil {
			started = append(started, r)
		}
	}
	sort.SliceStable(started, func(i, j int) bool {
		return started[i].StartTime.After(*started[j].StartTime)
	})
	if len(started) > limit {
		started = started[:limit]
	}

	out := make([]RecentRun, len(started))
	for i, r := range started {
		out[i] = RecentRun{
			Label:     fmt.Sprintf("Run %d", i+1),
			ID:        r.ID,
			StartedAt: *r.StartTime,
			Date:      r.StartTime.Format(recentDateLayout),
			Duration:  DurationLabel(r),
			Minutes:   r.ChosenMinutes,
			Status:    r.Status,
			VisitType: r.SelectedVisitType,
			AgeRange:  r.SelectedAgeRange,
			Gender:    r.SelectedGender,
			Race:      r.SelectedRace,
		}
	}
	return out
}

// DurationLabel names a run's length the way the duration chart does.
func DurationLabel(r domain.Run) string {
	switch r.ChosenMinutes {
	case 30:
		return Label30Minutes
	case 60:
		return Label1Hour
	}
	if r.SelectedDuration != "" {
		return r.SelectedDuration
	}
	return fmt.Sprintf("%d Minutes", r.ChosenMinutes)
}

// Dashboard bundles every derived view for one timeframe.
type Dashboard struct {
	Timeframe       Timeframe            `json:"timeframe"`
	GeneratedAt     time.Time            `json:"generated_at"`
	Totals          Totals               `json:"totals"`
	Duration        []Bucket             `json:"duration"`
	VisitType       []Bucket             `json:"visit_type"`
	Gender          []Bucket             `json:"gender"`
	Race            []Bucket             `json:"race"`
	AgeRange        []Bucket             `json:"age_range"`
	Diagnosis       []Bucket             `json:"diagnosis"`
	DiagnosisGender []DiagnosisGenderRow `json:"diagnosis_gender"`
	RecentRuns      []RecentRun          `json:"recent_runs"`
}

// SummaryOption adjusts Summary.
type SummaryOption func(*summaryOptions)

type summaryOptions struct {
	recentLimit int
}

// WithRecentLimit sets how many recent runs are listed.
func WithRecentLimit(n int) SummaryOption {
	return func(o *summaryOptions) { o.recentLimit = n }
}

// Summary computes the dashboard for tf at now. Charts and totals use the
// runs inside the timeframe; recent runs are taken from the full history.
func Summary(runs []domain.Run, tf Timeframe, now time.Time, opts ...SummaryOption) Dashboard {
	o := summaryOptions{recentLimit: DefaultRecentLimit}
	for _, opt := range opts {
		opt(&o)
	}

	filtered := FilterRuns(runs, tf, now)
	return Dashboard{
		Timeframe:       tf,
		GeneratedAt:     now,
		Totals:          ComputeTotals(runs, tf, now),
		Duration:        DurationBreakdown(filtered),
		VisitType:       VisitTypeBreakdown(filtered),
		Gender:          Aggregate(filtered, ByGender),
		Race:            Aggregate(filtered, ByRace),
		AgeRange:        Aggregate(filtered, ByAgeRange),
		Diagnosis:       Aggregate(filtered, ByDiagnosis),
		DiagnosisGender: DiagnosisGenderStack(filtered),
		RecentRuns:      RecentRuns(runs, o.recentLimit),
	}
}

// ErrorLogs keeps the entries the user can fix themselves, whatever their
// status.
func ErrorLogs(logs []domain.ErrorLog) []domain.ErrorLog {
	out := make([]domain.ErrorLog, 0, len(logs))
	for _, l := range logs {
		if l.UserFixable() {
			out = append(out, l)
		}
	}
	return out
}
