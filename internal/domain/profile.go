package domain

import "encoding/json"

// GenderWeight is one entry of the gender distribution.
type GenderWeight struct {
	Gender string  `json:"gender"`
	Weight float64 `json:"weight"`
}

// RaceWeight is one entry of the race distribution.
type RaceWeight struct {
	Race   string  `json:"race"`
	Weight float64 `json:"weight"`
}

// AgeRangeWeight is one entry of the age-range distribution.
type AgeRangeWeight struct {
	Range  string  `json:"range"`
	Weight float64 `json:"weight"`
}

// LevelWeight is used by the complexity and student-function distributions.
type LevelWeight struct {
	Level  string  `json:"level"`
	Weight float64 `json:"weight"`
}

// WeightedOption is the label-agnostic view of a distribution entry.
type WeightedOption struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// AutomationProfile is a user-authored configuration for generating runs.
type AutomationProfile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UserID       string `json:"userId,omitempty"`
	TargetHours  int    `json:"targetHours"`
	SelectedDate string `json:"selectedDate"`
	MinWait      int    `json:"minWait"`
	MaxWait      int    `json:"maxWait"`
	RunHeadless  bool   `json:"runHeadless"`
	MaxDiagnoses int    `json:"maxDiagnoses"`

	Rotation     string `json:"rotation"`
	Faculty      string `json:"faculty"`
	Preceptor    string `json:"preceptor"`
	SiteType     string `json:"siteType"`
	SiteLocation string `json:"siteLocation"`
	VisitType    string `json:"visitType"`
	CPTCode      string `json:"cptCode"`

	Gender                 []GenderWeight   `json:"gender"`
	Race                   []RaceWeight     `json:"race"`
	AgeRanges              []AgeRangeWeight `json:"age_ranges"`
	StudentFunctionWeights []LevelWeight    `json:"student_function_weights"`
	Complexity             []LevelWeight    `json:"complexity"`
	DurationOptions        []string         `json:"durationOptions"`
	DurationWeights        []float64        `json:"durationWeights"`

	Diagnoses []DiagnosisEntry `json:"diagnoses"`
}

// UnmarshalJSON also accepts studentFunctionWeights, the backend's alias.
func (p *AutomationProfile) UnmarshalJSON(data []byte) error {
	type plain AutomationProfile
	aux := struct {
		*plain
		ID                    json.RawMessage `json:"id"`
		UserID                json.RawMessage `json:"userId"`
		StudentFunctionsAlias []LevelWeight   `json:"studentFunctionWeights"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.ID = rawID(aux.ID)
	p.UserID = rawID(aux.UserID)
	if len(p.StudentFunctionWeights) == 0 && len(aux.StudentFunctionsAlias) > 0 {
		p.StudentFunctionWeights = aux.StudentFunctionsAlias
	}
	return nil
}

// Distribution names.
const (
	DistGender          = "gender"
	DistRace            = "race"
	DistAgeRanges       = "age_ranges"
	DistStudentFunction = "student_function_weights"
	DistComplexity      = "complexity"
	DistDuration        = "duration"
)

// Distributions returns every weighted distribution keyed by name. Use
// DistributionOrder to iterate deterministically.
func (p AutomationProfile) Distributions() map[string][]WeightedOption {
	out := map[string][]WeightedOption{
		DistGender:          make([]WeightedOption, 0, len(p.Gender)),
		DistRace:            make([]WeightedOption, 0, len(p.Race)),
		DistAgeRanges:       make([]WeightedOption, 0, len(p.AgeRanges)),
		DistStudentFunction: make([]WeightedOption, 0, len(p.StudentFunctionWeights)),
		DistComplexity:      make([]WeightedOption, 0, len(p.Complexity)),
		DistDuration:        make([]WeightedOption, 0, len(p.DurationOptions)),
	}
	for _, g := range p.Gender {
		out[DistGender] = append(out[DistGender], WeightedOption{Label: g.Gender, Weight: g.Weight})
	}
	for _, r := range p.Race {
		out[DistRace] = append(out[DistRace], WeightedOption{Label: r.Race, Weight: r.Weight})
	}
	for _, a := range p.AgeRanges {
		out[DistAgeRanges] = append(out[DistAgeRanges], WeightedOption{Label: a.Range, Weight: a.Weight})
	}
	for _, s := range p.StudentFunctionWeights {
		out[DistStudentFunction] = append(out[DistStudentFunction], WeightedOption{Label: s.Level, Weight: s.Weight})
	}
	for _, c := range p.Complexity {
		out[DistComplexity] = append(out[DistComplexity], WeightedOption{Label: c.Level, Weight: c.Weight})
	}
	for i, opt := range p.DurationOptions {
		var w float64
		if i < len(p.DurationWeights) {
			w = p.DurationWeights[i]
		}
		out[DistDuration] = append(out[DistDuration], WeightedOption{Label: opt, Weight: w})
	}
	return out
}

// DistributionOrder is the order distributions are reported in.
var DistributionOrder = []string{
	DistGender, DistRace, DistAgeRanges, DistStudentFunction, DistComplexity, DistDuration,
}
