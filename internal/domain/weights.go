package domain

import (
	"fmt"
	"math"
)

const (
	weightTarget    = 100.0
	weightTolerance = 0.01
)

// DistributionReport describes one distribution's weight total.
type DistributionReport struct {
	Name     string  `json:"name"`
	Options  int     `json:"options"`
	Sum      float64 `json:"sum"`
	Balanced bool    `json:"balanced"`
	Empty    bool    `json:"empty,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// WeightReport summarizes a profile's distributions. Profiles are never
// rejected for their weights; the report is informational.
type WeightReport struct {
	Distributions []DistributionReport `json:"distributions"`
	Balanced      bool                 `json:"balanced"`
}

// Unbalanced returns the names of the distributions that do not sum to 100.
func (r WeightReport) Unbalanced() []string {
	var names []string
	for _, d := range r.Distributions {
		if !d.Balanced && !d.Empty {
			names = append(names, d.Name)
		}
	}
	return names
}

// ValidateWeights checks that each non-empty distribution sums to 100 within
// a tolerance of 0.01, and that duration options and weights line up.
func ValidateWeights(p AutomationProfile) WeightReport {
	dists := p.Distributions()
	report := WeightReport{Balanced: true}

	for _, name := range DistributionOrder {
		opts := dists[name]
		d := DistributionReport{Name: name, Options: len(opts)}

		if name == DistDuration {
			d.Sum = sumWeights(p.DurationWeights)
		} else {
			for _, o := range opts {
				d.Sum += o.Weight
			}
		}

		switch {
		case len(opts) == 0 && d.Sum == 0:
			d.Empty = true
			d.Balanced = true
		default:
			d.Balanced = math.Abs(d.Sum-weightTarget) <= weightTolerance
		}

		if name == DistDuration && len(p.DurationOptions) != len(p.DurationWeights) {
			d.Balanced = false
			d.Empty = false
			d.Note = fmt.Sprintf("%d options but %d weights", len(p.DurationOptions), len(p.DurationWeights))
		}

		if !d.Balanced {
			report.Balanced = false
		}
		report.Distributions = append(report.Distributions, d)
	}

	return report
}

func sumWeights(ws []float64) float64 {
	var total float64
	for _, w := range ws {
		total += w
	}
	return total
}
