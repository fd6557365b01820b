package discovery

import (
	"regexp"
	"strconv"
)

// DefaultMaxDenominator bounds accepted totals so dates and unrelated
// fractions are not taken for scores.
const DefaultMaxDenominator = 500

var pairPattern = regexp.MustCompile(`(?:^|[^\d.])(\d+)\s*/\s*(\d+)`)

// Pair is a parsed "score / max" reading.
type Pair struct {
	Score int
	Max   int
}

// Percent is Score/Max*100.
func (p Pair) Percent() float64 {
	return float64(p.Score) / float64(p.Max) * 100
}

// ParseScore extracts the first "integer / integer" in text. The total must
// be in 1..maxDenominator and the score may not exceed it. A maxDenominator
// of zero or less means DefaultMaxDenominator.
func ParseScore(text string, maxDenominator int) (Pair, bool) {
	if maxDenominator <= 0 {
		maxDenominator = DefaultMaxDenominator
	}

	m := pairPattern.FindStringSubmatch(text)
	if m == nil {
		return Pair{}, false
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return Pair{}, false
	}
	total, err := strconv.Atoi(m[2])
	if err != nil {
		return Pair{}, false
	}
	if total <= 0 || total > maxDenominator || score > total {
		return Pair{}, false
	}
	return Pair{Score: score, Max: total}, true
}
