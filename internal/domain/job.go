package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Job groups runs pursuing a cumulative target duration.
type Job struct {
	JobID         string `json:"job_id"`
	ProfileName   string `json:"profile_name"`
	TargetMinutes int    `json:"target_minutes"`
	TotalMinutes  int    `json:"total_minutes"`
	Status        string `json:"status"`
	Runs          []Run  `json:"runs"`
}

// UnmarshalJSON accepts numeric job ids.
func (j *Job) UnmarshalJSON(data []byte) error {
	type plain Job
	aux := struct {
		*plain
		JobID json.RawMessage `json:"job_id"`
	}{plain: (*plain)(j)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	j.JobID = rawID(aux.JobID)
	return nil
}

// Valid is false for placeholder ids the backend uses for orphaned runs.
func (j Job) Valid() bool {
	switch strings.ToLower(strings.TrimSpace(j.JobID)) {
	case "", "unknown", "old":
		return false
	}
	return true
}

// FirstStart is the first run's start time, or the zero time.
func (j Job) FirstStart() time.Time {
	if len(j.Runs) == 0 || j.Runs[0].StartTime == nil {
		return time.Time{}
	}
	return *j.Runs[0].StartTime
}

// ChosenMinutes sums the runs' chosen minutes.
func (j Job) ChosenMinutes() int {
	total := 0
	for _, r := range j.Runs {
		total += r.ChosenMinutes
	}
	return total
}
