package jobs_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
	"github.com/Activ8Auto/ProAutoFill/internal/jobs"
)

func startAt(t time.Time) []domain.Run {
	return []domain.Run{{StartTime: &t, ChosenMinutes: 30}}
}

func jobIDs(items []jobs.JobView) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.JobID)
	}
	return out
}

func TestPrepare_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	input := []domain.Job{
		{JobID: "older", Runs: startAt(base)},
		{JobID: "unknown", Runs: startAt(base.Add(time.Hour))},
		{JobID: "no-runs"},
		{JobID: "OLD", Runs: startAt(base.Add(2 * time.Hour))},
		{JobID: "newer", Runs: startAt(base.Add(24 * time.Hour))},
		{JobID: "", Runs: startAt(base.Add(48 * time.Hour))},
		{JobID: "nil-start", Runs: []domain.Run{{ChosenMinutes: 60}}},
	}

	got := jobs.Prepare(input)

	ids := make([]string, 0, len(got))
	for _, j := range got {
		ids = append(ids, j.JobID)
	}
	assert.Equal(t, []string{"newer", "older", "no-runs", "nil-start"}, ids)
}

func TestPresenter_ActiveAndFinishedProgress(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	input := []domain.Job{
		{
			JobID: "finished", ProfileName: "Clinic", TargetMinutes: 120, TotalMinutes: 75, Status: "completed",
			Runs: []domain.Run{{StartTime: &base, ChosenMinutes: 30}, {ChosenMinutes: 45}},
		},
		{
			JobID: "active", ProfileName: "Clinic", TargetMinutes: 120, TotalMinutes: 30, Status: "running",
			Runs: startAt(base.Add(time.Hour)),
		},
	}

	page := jobs.NewPresenter(4).Page(input, 1, nil)
	require.Len(t, page.Items, 2)

	active := page.Items[0]
	assert.Equal(t, "active", active.JobID)
	assert.True(t, active.Active)
	assert.Equal(t, "30 / 120", active.Progress)
	assert.Equal(t, "2.0", active.TargetHours)

	finished := page.Items[1]
	assert.False(t, finished.Active)
	assert.Equal(t, "75 / 75", finished.Progress)
	assert.Equal(t, "1.3", finished.TargetHours)
	assert.Equal(t, "3/1/2025, 9:30:00 AM", finished.StartedAt)
	assert.Equal(t, "Job: Initiated on 3/1/2025, 9:30:00 AM for 1.3 hours using Profile Clinic", finished.Headline)
}

func TestPresenter_TargetPolicy(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	input := []domain.Job{
		{JobID: "a", TargetMinutes: 60, Runs: startAt(base.Add(time.Hour))},
		{JobID: "b", TargetMinutes: 120, Runs: []domain.Run{{StartTime: &base, ChosenMinutes: 30}, {ChosenMinutes: 45}}},
	}

	page := jobs.NewPresenter(4, jobs.WithPolicy(jobs.ParsePolicy("target"))).Page(input, 1, nil)
	assert.Equal(t, "75 / 120", page.Items[1].Progress)
}

func TestPresenter_Pagination(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var input []domain.Job
	for i := range 10 {
		input = append(input, domain.Job{
			JobID: fmt.Sprintf("job-%02d", i),
			Runs:  startAt(base.Add(time.Duration(i) * time.Hour)),
		})
	}

	p := jobs.NewPresenter(0)
	assert.Equal(t, jobs.DefaultPageSize, p.PageSize())

	first := p.Page(input, 1, nil)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, []string{"job-09", "job-08", "job-07", "job-06"}, jobIDs(first.Items))
	assert.True(t, first.Items[0].Active)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last := p.Page(input, 99, nil)
	assert.Equal(t, 3, last.Page)
	assert.Equal(t, []string{"job-01", "job-00"}, jobIDs(last.Items))
	assert.False(t, last.Items[0].Active, "only the first job on page one is active")
	assert.False(t, last.HasNext)

	assert.Equal(t, 1, p.Page(input, -3, nil).Page)
}

func TestPresenter_Empty(t *testing.T) {
	t.Parallel()

	page := jobs.NewPresenter(4).Page(nil, 2, nil)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestPresenter_UnknownStart(t *testing.T) {
	t.Parallel()

	page := jobs.NewPresenter(4).Page([]domain.Job{{JobID: "x"}}, 1, nil)
	assert.Equal(t, "Unknown initiation time", page.Items[0].StartedAt)
	assert.Nil(t, page.Items[0].StartTime)
}

func TestExpansion(t *testing.T) {
	t.Parallel()

	e := jobs.NewExpansion()
	assert.False(t, e.IsExpanded("a"))
	assert.True(t, e.Toggle("a"))
	assert.True(t, e.IsExpanded("a"))
	assert.False(t, e.IsExpanded("b"))
	assert.False(t, e.Toggle("a"))
	assert.False(t, e.IsExpanded("a"))

	e.Toggle("b")
	e.Reset()
	assert.False(t, e.IsExpanded("b"))

	var nilSet *jobs.Expansion
	assert.False(t, nilSet.IsExpanded("a"))
}

func TestExpansion_AppliedToPage(t *testing.T) {
	t.Parallel()

	e := jobs.NewExpansion()
	e.Toggle("b")

	page := jobs.NewPresenter(4).Page([]domain.Job{{JobID: "a"}, {JobID: "b"}}, 1, e)
	assert.False(t, page.Items[0].Expanded)
	assert.True(t, page.Items[1].Expanded)
}

func TestExpansion_Concurrent(t *testing.T) {
	t.Parallel()

	e := jobs.NewExpansion()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i%5)
			e.Toggle(id)
			_ = e.IsExpanded(id)
		}()
	}
	wg.Wait()
}

func TestPager(t *testing.T) {
	t.Parallel()

	p := jobs.NewPager(4)
	assert.Equal(t, 1, p.Prev(), "prev on first page is a no-op")

	p.SetTotal(9)
	assert.Equal(t, 3, p.TotalPages())
	assert.Equal(t, 2, p.Next())
	assert.Equal(t, 3, p.Next())
	assert.Equal(t, 3, p.Next(), "next on last page is a no-op")

	p.SetTotal(4)
	assert.Equal(t, 1, p.Page(), "shrinking re-clamps")

	p.SetTotal(0)
	assert.Equal(t, 1, p.TotalPages())
}
