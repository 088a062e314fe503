package analytics

import (
	"math"
	"strconv"
	"strings"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// Bucket is one category of a breakdown.
type Bucket struct {
	Label   string  `json:"label"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Accessor extracts the category labels a run contributes. Most accessors
// return at most one label; ByDiagnosis returns one per selected diagnosis.
type Accessor func(domain.Run) []string

func single(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// Accessors for the run fields charted on the dashboard.
var (
	ByGender    Accessor = func(r domain.Run) []string { return single(r.SelectedGender) }
	ByRace      Accessor = func(r domain.Run) []string { return single(r.SelectedRace) }
	ByAgeRange  Accessor = func(r domain.Run) []string { return single(r.SelectedAgeRange) }
	ByVisitType Accessor = func(r domain.Run) []string { return single(r.SelectedVisitType) }
	ByDiagnosis Accessor = func(r domain.Run) []string { return r.DiagnosisNames() }
	// ByDuration only recognizes 30 and 60 minute runs.
	ByDuration Accessor = func(r domain.Run) []string {
		if r.ChosenMinutes == 30 || r.ChosenMinutes == 60 {
			return []string{strconv.Itoa(r.ChosenMinutes)}
		}
		return nil
	}
)

// Aggregate counts labels in first-occurrence order and derives each
// bucket's share of the total count.
func Aggregate(runs []domain.Run, accessor Accessor) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	total := 0

	for _, r := range runs {
		for _, label := range accessor(r) {
			i, ok := index[label]
			if !ok {
				i = len(buckets)
				index[label] = i
				buckets = append(buckets, Bucket{Label: label})
			}
			buckets[i].Total++
			total++
		}
	}

	for i := range buckets {
		buckets[i].Percent = percent(buckets[i].Total, total)
	}
	return buckets
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// Duration labels.
const (
	Label30Minutes = "30 Minutes"
	Label1Hour     = "1 Hour"
)

// DurationBreakdown always returns the 30 minute and 1 hour buckets, in that
// order, with whole-number percentages. Other durations are not counted.
func DurationBreakdown(runs []domain.Run) []Bucket {
	var short, long int
	for _, r := range runs {
		switch r.ChosenMinutes {
		case 30:
			short++
		case 60:
			long++
		}
	}
	total := short + long
	return []Bucket{
		{Label: Label30Minutes, Total: short, Percent: math.Round(percent(short, total))},
		{Label: Label1Hour, Total: long, Percent: math.Round(percent(long, total))},
	}
}

// Visit type labels as stored and as displayed.
const (
	VisitTelepsychiatry = "Telepsychiatry"
	VisitFaceToFace     = "Face to Face"

	LabelTelehealth = "Telehealth"
	LabelFaceToFace = "Face-to-Face"
)

// VisitTypeBreakdown returns the Telehealth and Face-to-Face buckets. Other
// visit types are not counted.
func VisitTypeBreakdown(runs []domain.Run) []Bucket {
	var tele, f2f int
	for _, r := range runs {
		switch r.SelectedVisitType {
		case VisitTelepsychiatry:
			tele++
		case VisitFaceToFace:
			f2f++
		}
	}
	total := tele + f2f
	return []Bucket{
		{Label: LabelTelehealth, Total: tele, Percent: percent(tele, total)},
		{Label: LabelFaceToFace, Total: f2f, Percent: percent(f2f, total)},
	}
}

// DiagnosisGenderRow is one bar of the diagnosis chart, stacked by gender.
type DiagnosisGenderRow struct {
	Diagnosis string `json:"diagnosis"`
	Female    int    `json:"Female"`
	Male      int    `json:"Male"`
	Trans     int    `json:"Trans"`
}

// DiagnosisGenderStack counts each diagnosis per gender series. Genders that
// are not female, male or transgender are ignored, but the diagnosis row is
// still listed.
func DiagnosisGenderStack(runs []domain.Run) []DiagnosisGenderRow {
	index := make(map[string]int)
	rows := make([]DiagnosisGenderRow, 0)

	for _, r := range runs {
		for _, name := range ByDiagnosis(r) {
			i, ok := index[name]
			if !ok {
				i = len(rows)
				index[name] = i
				rows = append(rows, DiagnosisGenderRow{Diagnosis: name})
			}
			switch genderSeries(r.SelectedGender) {
			case seriesFemale:
				rows[i].Female++
			case seriesMale:
				rows[i].Male++
			case seriesTrans:
				rows[i].Trans++
			}
		}
	}
	return rows
}

type series int

const (
	seriesNone series = iota
	seriesFemale
	seriesMale
	seriesTrans
)

func genderSeries(g string) series {
	g = strings.TrimSpace(g)
	switch {
	case strings.EqualFold(g, "Female"):
		return seriesFemale
	case strings.EqualFold(g, "Male"):
		return seriesMale
	case strings.EqualFold(g, "Trans"), strings.HasPrefix(strings.ToLower(g), "transgender"):
		return seriesTrans
	default:
		return seriesNone
	}
}
