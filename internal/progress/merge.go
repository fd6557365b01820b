package progress

import (
	"errors"
	"math"
)

// Epsilon is the tolerance for comparing percentages.
const Epsilon = 0.001

// ErrInvalidObservation is returned for NaN or infinite scores.
var ErrInvalidObservation = errors.New("observation is not a finite number")

// Observation is one reported (score, max) pair.
type Observation struct {
	Score float64
	Max   float64
}

// Clamp validates o and clamps it to score >= 0 and max >= 1.
func (o Observation) Clamp() (Observation, error) {
	if !isFinite(o.Score) || !isFinite(o.Max) {
		return Observation{}, ErrInvalidObservation
	}
	return Observation{Score: math.Max(0, o.Score), Max: math.Max(1, o.Max)}, nil
}

// Percent is Score/Max*100. Call it on a clamped observation.
func (o Observation) Percent() float64 {
	return o.Score / o.Max * 100
}

// Best is the best-score triple kept on a record. A zero Max means no best
// has been recorded yet.
type Best struct {
	Score   float64
	Max     float64
	Percent float64
}

// Merge decides whether obs improves best. It returns the new best and true
// on improvement, or best unchanged and false otherwise. Invalid
// observations never merge.
//
// A lower percentage loses, a higher one wins. On equal percentages only a
// strictly higher raw score wins, so 4/5 does not displace 8/10 but 5/5
// displaces 4/5.
func Merge(best Best, obs Observation) (Best, bool) {
	clamped, err := obs.Clamp()
	if err != nil {
		return best, false
	}
	candidate := Best{Score: clamped.Score, Max: clamped.Max, Percent: clamped.Percent()}

	if best.Max <= 0 {
		return candidate, true
	}

	diff := candidate.Percent - best.Percent
	switch {
	case math.Abs(diff) < Epsilon:
		if candidate.Score > best.Score {
			return candidate, true
		}
		return best, false
	case diff < 0:
		return best, false
	default:
		return candidate, true
	}
}

// IsComplete reports whether percent counts as a finished worksheet.
func IsComplete(percent float64) bool {
	return percent >= 100-Epsilon
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
