// Package scoring holds the pure functions of the prediction game: the
// odds-to-points transform, question validation, per-submission grading,
// winner resolution and cross-coupon stats aggregation. Everything here is
// synchronous, re-entrant and free of I/O; callers recompute from full current
// state instead of maintaining incremental results.
package scoring

import (
	"math"
	"strconv"

	"kupong-service/internal/domain"
)

// DefaultPointValue is the implicit worth of an option when a question carries
// no per-option weights, and the fallback wherever a point value is missing or
// invalid.
const DefaultPointValue = 1

const (
	oddsBasePoints = 1
	oddsMultiplier = 3
	// Raw values at or below this bound round down; past it long shots round
	// up so underdog picks are rewarded generously.
	oddsCeilBound = 10.5
)

// OddsToPoints maps decimal betting odds to an integer point value using
// raw = 1 + 3*ln(odds). Low odds (favorites) yield few points, long shots
// yield more. Raw values of 10.5 or less floor, larger values ceil.
func OddsToPoints(odds float64) (int, error) {
	if odds <= 0 || math.IsInf(odds, 0) || math.IsNaN(odds) {
		return 0, domain.ErrInvalidOdds
	}
	raw := oddsBasePoints + oddsMultiplier*math.Log(odds)
	if raw <= oddsCeilBound {
		return int(math.Floor(raw)), nil
	}
	return int(math.Ceil(raw)), nil
}

// FormatPointsLabel renders a point value for display next to an option,
// e.g. FormatPointsLabel(5) == "5p".
func FormatPointsLabel(points int) string {
	return strconv.Itoa(points) + "p"
}
