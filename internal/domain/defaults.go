package domain

const (
	// DefaultMaxDiagnoses caps diagnoses picked per run.
	DefaultMaxDiagnoses = 3
	// DefaultSiteLocation is always sent for new profiles.
	DefaultSiteLocation = "Outpatient Clinic"
)

// Complexity levels offered by the profile form.
const (
	ComplexityLow = "Straightforward/Low complexity (1 or 2 minor acute problems or exacerbation of a " +
		"chronic problem requiring intervention, stable, responsive to treatments)"
	ComplexityModerate = "Moderate complexity (multiple acute or chronic issues that require ongoing " +
		"intervention, stable, responsive to treatments)"
	ComplexityHigh = "High complexity (multiple acute and/or chronic issues that require ongoing " +
		"intervention, unstable or labile, generally not responding to standard treatment measures)"
)

// DefaultGender is the gender distribution every new profile is created with.
func DefaultGender() []GenderWeight {
	return []GenderWeight{
		{Gender: "Male", Weight: 49},
		{Gender: "Female", Weight: 49},
		{Gender: "Transgender man/trans man", Weight: 0.5},
		{Gender: "Transgender woman/trans woman", Weight: 0.5},
	}
}

// DefaultRace is the race distribution every new profile is created with.
func DefaultRace() []RaceWeight {
	return []RaceWeight{
		{Race: "Caucasian", Weight: 75},
		{Race: "African American", Weight: 5},
		{Race: "Hispanic", Weight: 15},
		{Race: "Asian", Weight: 5},
	}
}

// DefaultComplexity is the complexity distribution every new profile is created with.
func DefaultComplexity() []LevelWeight {
	return []LevelWeight{
		{Level: ComplexityLow, Weight: 75},
		{Level: ComplexityModerate, Weight: 20},
		{Level: ComplexityHigh, Weight: 5},
	}
}

// DefaultStudentFunctions splits evenly across the four levels.
func DefaultStudentFunctions() []LevelWeight {
	return []LevelWeight{
		{Level: "100% student", Weight: 25},
		{Level: "75% student", Weight: 25},
		{Level: "50% student", Weight: 25},
		{Level: "25% student", Weight: 25},
	}
}

// DefaultAgeRanges lists every band at weight zero.
func DefaultAgeRanges() []AgeRangeWeight {
	bands := []string{
		"5-12 years", "13-17 years", "18-21 years", "22-35 years", "36-55 years",
		"56-64 years", "65-75 years", "76-85 years", "85+ years",
	}
	out := make([]AgeRangeWeight, len(bands))
	for i, b := range bands {
		out[i] = AgeRangeWeight{Range: b}
	}
	return out
}

// DefaultDurations returns the parallel duration option and weight slices.
func DefaultDurations() ([]string, []float64) {
	return []string{"30 Minutes", "1 Hour"}, []float64{80, 20}
}

// NewProfileTemplate is the starting point of the new-profile form.
func NewProfileTemplate() AutomationProfile {
	options, weights := DefaultDurations()
	return AutomationProfile{
		TargetHours:            1,
		MinWait:                10,
		MaxWait:                30,
		RunHeadless:            true,
		MaxDiagnoses:           DefaultMaxDiagnoses,
		SiteLocation:           DefaultSiteLocation,
		Gender:                 DefaultGender(),
		Race:                   DefaultRace(),
		AgeRanges:              DefaultAgeRanges(),
		StudentFunctionWeights: DefaultStudentFunctions(),
		Complexity:             DefaultComplexity(),
		DurationOptions:        options,
		DurationWeights:        weights,
		Diagnoses:              []DiagnosisEntry{},
	}
}
