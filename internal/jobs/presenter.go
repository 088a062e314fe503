// Package jobs prepares the automation job list: validity filtering,
// newest-first ordering, pagination and per-job progress text.
package jobs

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// DefaultPageSize is the number of jobs per page.
const DefaultPageSize = 4

const (
	unknownStart    = "Unknown initiation time"
	startedAtLayout = "1/2/2006, 3:04:05 PM"
)

// ProgressPolicy decides how finished jobs report progress.
type ProgressPolicy int

const (
	// PolicyDocumented shows Σ chosen / Σ chosen for every finished job, so
	// historical jobs always read as complete.
	PolicyDocumented ProgressPolicy = iota
	// PolicyTarget shows Σ chosen / target_minutes for finished jobs.
	PolicyTarget
)

// ParsePolicy maps the config value to a policy. Unknown values use PolicyDocumented.
func ParsePolicy(s string) ProgressPolicy {
	if s == "target" {
		return PolicyTarget
	}
	return PolicyDocumented
}

// JobView is one rendered job.
type JobView struct {
	JobID           string       `json:"job_id"`
	ProfileName     string       `json:"profile_name"`
	Status          string       `json:"status"`
	Active          bool         `json:"active"`
	Progress        string       `json:"progress"`
	ProgressMinutes int          `json:"progress_minutes"`
	GoalMinutes     int          `json:"goal_minutes"`
	TargetHours     string       `json:"target_hours"`
	StartedAt       string       `json:"started_at"`
	StartTime       *time.Time   `json:"start_time,omitempty"`
	Headline        string       `json:"headline"`
	Expanded        bool         `json:"expanded"`
	Runs            []domain.Run `json:"runs"`
}

// PageView is one page of the job list.
type PageView struct {
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
	TotalJobs  int       `json:"total_jobs"`
	HasPrev    bool      `json:"has_prev"`
	HasNext    bool      `json:"has_next"`
	Items      []JobView `json:"items"`
}

// Presenter renders job pages.
type Presenter struct {
	pageSize int
	policy   ProgressPolicy
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithPolicy sets the finished-job progress policy.
func WithPolicy(p ProgressPolicy) Option {
	return func(pr *Presenter) { pr.policy = p }
}

// NewPresenter creates a presenter. A pageSize below one uses DefaultPageSize.
func NewPresenter(pageSize int, opts ...Option) *Presenter {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	p := &Presenter{pageSize: pageSize, policy: PolicyDocumented}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PageSize returns the configured page size.
func (p *Presenter) PageSize() int { return p.pageSize }

// Prepare drops invalid jobs and sorts the rest by first-run start time,
// newest first. Jobs without a start time sort as the Unix epoch.
func Prepare(jobs []domain.Job) []domain.Job {
	valid := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Valid() {
			valid = append(valid, j)
		}
	}
	sort.SliceStable(valid, func(a, b int) bool {
		return sortKey(valid[a]) > sortKey(valid[b])
	})
	return valid
}

func sortKey(j domain.Job) int64 {
	start := j.FirstStart()
	if start.IsZero() {
		return 0
	}
	return start.UnixMilli()
}

// TotalPages is ceil(n / pageSize), never less than one.
func (p *Presenter) TotalPages(n int) int {
	pages := (n + p.pageSize - 1) / p.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Page prepares jobs and renders the requested page, clamped into range.
// expanded may be nil.
func (p *Presenter) Page(jobs []domain.Job, page int, expanded *Expansion) PageView {
	prepared := Prepare(jobs)
	totalPages := p.TotalPages(len(prepared))
	page = clamp(page, totalPages)

	start := (page - 1) * p.pageSize
	end := min(start+p.pageSize, len(prepared))

	items := make([]JobView, 0, max(end-start, 0))
	for idx, job := range prepared[start:end] {
		active := page == 1 && idx == 0
		items = append(items, p.view(job, active, expanded))
	}

	return PageView{
		Page:       page,
		TotalPages: totalPages,
		TotalJobs:  len(prepared),
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Items:      items,
	}
}

func (p *Presenter) view(job domain.Job, active bool, expanded *Expansion) JobView {
	var progress, goal int
	switch {
	case active:
		progress, goal = job.TotalMinutes, job.TargetMinutes
	case p.policy == PolicyTarget:
		progress, goal = job.ChosenMinutes(), job.TargetMinutes
	default:
		progress = job.ChosenMinutes()
		goal = progress
	}

	v := JobView{
		JobID:           job.JobID,
		ProfileName:     job.ProfileName,
		Status:          job.Status,
		Active:          active,
		Progress:        fmt.Sprintf("%d / %d", progress, goal),
		ProgressMinutes: progress,
		GoalMinutes:     goal,
		TargetHours:     formatHours(goal),
		StartedAt:       unknownStart,
		Expanded:        expanded.IsExpanded(job.JobID),
		Runs:            job.Runs,
	}
	if v.Runs == nil {
		v.Runs = []domain.Run{}
	}

	if len(job.Runs) > 0 && job.Runs[0].StartTime != nil {
		st := *job.Runs[0].StartTime
		v.StartTime = &st
		v.StartedAt = st.Format(startedAtLayout)
	}

	v.Headline = fmt.Sprintf("Job: Initiated on %s for %s hours using Profile %s",
		v.StartedAt, v.TargetHours, job.ProfileName)
	return v
}

// formatHours rounds half away from zero to one decimal.
func formatHours(minutes int) string {
	return fmt.Sprintf("%.1f", math.Round(float64(minutes)/60*10)/10)
}

func clamp(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
