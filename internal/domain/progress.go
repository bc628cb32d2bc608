package domain

import "math"

// Progress is the observable progress of a download: a fraction in [0, 1],
// or indeterminate when the SDK has not reported a measurable value.
type Progress struct {
	Fraction      float64 `json:"fraction"`
	Indeterminate bool    `json:"indeterminate"`
}

// IndeterminateProgress is the progress of a download that has not reported yet
var IndeterminateProgress = Progress{Indeterminate: true}

// NewProgress converts a raw SDK value. Negative and NaN values mean
// indeterminate.
func NewProgress(value float64) Progress {
	if value < 0 || math.IsNaN(value) {
		return IndeterminateProgress
	}
	if value > 1 {
		value = 1
	}
	return Progress{Fraction: value}
}

// Advance returns the progress after applying next. Determinate progress
// never moves backwards; an indeterminate report keeps the last known value.
func (p Progress) Advance(next Progress) Progress {
	if next.Indeterminate {
		return p
	}
	if !p.Indeterminate && next.Fraction < p.Fraction {
		return p
	}
	return next
}

// Percent returns the progress as a whole percentage, or -1 when indeterminate
func (p Progress) Percent() int {
	if p.Indeterminate {
		return -1
	}
	return int(p.Fraction * 100)
}
