package domain

import (
	"slices"
	"strings"
)

// DiagnosisEntry is a reusable clinical template in its local field naming.
type DiagnosisEntry struct {
	ID                 string   `json:"id,omitempty"`
	UserID             string   `json:"user_id,omitempty"`
	Name               string   `json:"name"`
	ICDCode            string   `json:"icd_code"`
	CurrentMedications []string `json:"current_medications"`
	PhysicalExam       []string `json:"physical_exam"`
	LaboratoryTests    []string `json:"laboratory_tests"`
	TeachingProvided   []string `json:"teaching_provided"`
	Medications        []string `json:"medications"`
	ExclusionGroup     string   `json:"exclusion_group,omitempty"`
}

// ExclusionConflicts returns the exclusion groups shared by more than one
// entry, sorted. Enforcement happens in the automation engine.
func ExclusionConflicts(entries []DiagnosisEntry) []string {
	seen := make(map[string]int)
	for _, e := range entries {
		group := strings.TrimSpace(e.ExclusionGroup)
		if group == "" {
			continue
		}
		seen[group]++
	}

	var conflicts []string
	for group, n := range seen {
		if n > 1 {
			conflicts = append(conflicts, group)
		}
	}
	slices.Sort(conflicts)
	return conflicts
}
