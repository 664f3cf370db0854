package odds

import (
	"fmt"
	"log"

	"kupong-service/internal/scoring"
)

// MatchPoints holds the point values derived from a match's three-way odds.
type MatchPoints struct {
	HomeWin int `json:"homeWin"`
	Draw    int `json:"draw"`
	AwayWin int `json:"awayWin"`
}

// TranslateOdds converts the three decimal odds of a match to point values.
// An invalid odds value falls back to the single-point default with a warning
// instead of failing the whole question setup.
func TranslateOdds(o MatchOdds) MatchPoints {
	return MatchPoints{
		HomeWin: pointsOrDefault(o.MatchID, "home", o.HomeWin),
		Draw:    pointsOrDefault(o.MatchID, "draw", o.Draw),
		AwayWin: pointsOrDefault(o.MatchID, "away", o.AwayWin),
	}
}

func pointsOrDefault(matchID, outcome string, odds float64) int {
	points, err := scoring.OddsToPoints(odds)
	if err != nil {
		log.Printf("match %s: invalid %s odds %v, using default point value", matchID, outcome, odds)
		return scoring.DefaultPointValue
	}
	return points
}

// OptionsWithPoints renders the three answer options with their point labels,
// e.g. "Rosenborg (2p)".
func OptionsWithPoints(homeTeam, awayTeam string, p MatchPoints) []string {
	return []string{
		fmt.Sprintf("%s (%s)", homeTeam, scoring.FormatPointsLabel(p.HomeWin)),
		fmt.Sprintf("Uavgjort (%s)", scoring.FormatPointsLabel(p.Draw)),
		fmt.Sprintf("%s (%s)", awayTeam, scoring.FormatPointsLabel(p.AwayWin)),
	}
}

// PointsArray returns the weights in the same order as OptionsWithPoints.
func PointsArray(p MatchPoints) []int {
	return []int{p.HomeWin, p.Draw, p.AwayWin}
}
