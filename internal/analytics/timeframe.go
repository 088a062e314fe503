// Package analytics derives the dashboard's charts and totals from run
// history. Every function is pure: the same runs, timeframe and clock
// always give the same output.
package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// Timeframe scopes analytics to a trailing window.
type Timeframe string

// Supported timeframes.
const (
	Day   Timeframe = "day"
	Week  Timeframe = "week"
	Month Timeframe = "month"

	DefaultTimeframe = Week
)

// ErrUnknownTimeframe is returned by ParseTimeframe.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// ParseTimeframe accepts day, week and month. An empty string yields the default.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return DefaultTimeframe, nil
	case Day, Week, Month:
		return tf, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
	}
}

// Window is the trailing duration covered by tf.
func (tf Timeframe) Window() time.Duration {
	const day = 24 * time.Hour
	switch tf {
	case Day:
		return day
	case Month:
		return 30 * day
	default:
		return 7 * day
	}
}

// Cutoff is the earliest start time included at now.
func (tf Timeframe) Cutoff(now time.Time) time.Time {
	return now.Add(-tf.Window())
}

// FilterRuns keeps runs that started at or after the cutoff, in order. Runs
// without a start time are always excluded.
func FilterRuns(runs []domain.Run, tf Timeframe, now time.Time) []domain.Run {
	cutoff := tf.Cutoff(now)
	out := make([]domain.Run, 0, len(runs))
	for _, r := range runs {
		if r.StartTime == nil || r.StartTime.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}
