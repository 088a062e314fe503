// Package domain defines the entities exchanged with the AutoFillPro backend.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Run statuses reported by the automation backend.
const (
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusInProgress = "in_progress"
)

// DiagnosisRef names a diagnosis picked for a run.
type DiagnosisRef struct {
	Name string `json:"name"`
}

// Run is one historical automation execution. Runs are only ever read.
type Run struct {
	ID                string         `json:"id"`
	StartTime         *time.Time     `json:"start_time"`
	EndTime           *time.Time     `json:"end_time"`
	Status            string         `json:"status"`
	ChosenMinutes     int            `json:"chosen_minutes"`
	SelectedDuration  string         `json:"selected_duration,omitempty"`
	SelectedVisitType string         `json:"selected_visit_type,omitempty"`
	SelectedAgeRange  string         `json:"selected_age_range,omitempty"`
	SelectedGender    string         `json:"selected_gender,omitempty"`
	SelectedRace      string         `json:"selected_race,omitempty"`
	SelectedDiagnoses []DiagnosisRef `json:"selected_diagnoses,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
}

// UnmarshalJSON decodes timestamps leniently: a missing, null or unparsable
// start_time or end_time leaves the field nil.
func (r *Run) UnmarshalJSON(data []byte) error {
	type plain Run
	aux := struct {
		*plain
		ID        json.RawMessage `json:"id"`
		StartTime json.RawMessage `json:"start_time"`
		EndTime   json.RawMessage `json:"end_time"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ID = rawID(aux.ID)
	r.StartTime = parseTimestamp(aux.StartTime)
	r.EndTime = parseTimestamp(aux.EndTime)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the layouts the backend emits. Naive timestamps are
// read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimestamp(raw json.RawMessage) *time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return nil
	}
	t, ok := ParseTimestamp(s)
	if !ok {
		return nil
	}
	return &t
}

// rawID accepts string or numeric ids.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// DiagnosisNames returns the non-empty names of the run's selected diagnoses.
func (r Run) DiagnosisNames() []string {
	names := make([]string, 0, len(r.SelectedDiagnoses))
	for _, d := range r.SelectedDiagnoses {
		if d.Name != "" {
			names = append(names, d.Name)
		}
	}
	return names
}
