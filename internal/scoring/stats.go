package scoring

import (
	"sort"

	"kupong-service/internal/domain"
)

// Aggregate folds one participant's submissions into cumulative stats. Only
// coupons with at least one facit entry count toward games played, questions
// considered and the correct/point totals, so pending coupons never dilute the
// average. Wins counts the persisted winner flags as-is, regardless of grading
// state.
func Aggregate(subs []domain.Submission, questionsByCoupon map[string][]domain.Question, facitByCoupon map[string]map[string]string) domain.PlayerStats {
	var stats domain.PlayerStats

	for _, sub := range subs {
		if sub.IsWinner {
			stats.Wins++
		}
		facit := facitByCoupon[sub.CouponID]
		if len(facit) == 0 {
			continue
		}
		questions := questionsByCoupon[sub.CouponID]
		score := Score(sub, questions, facit)
		stats.GamesPlayed++
		stats.TotalCorrect += score.CorrectCount
		stats.TotalPoints += score.Points
		stats.TotalQuestions += score.TotalQuestions
	}

	if stats.TotalQuestions > 0 {
		stats.AvgScorePercent = 100 * float64(stats.TotalCorrect) / float64(stats.TotalQuestions)
	}
	return stats
}

// RankedPlayer pairs a participant identity with their aggregated stats for
// leaderboard views.
type RankedPlayer struct {
	DeviceID string             `json:"deviceId"`
	Name     string             `json:"name"`
	Stats    domain.PlayerStats `json:"stats"`
}

// Leaderboard exposes the three independent global rankings.
type Leaderboard struct {
	ByWins       []RankedPlayer `json:"byWins"`
	ByAvgPercent []RankedPlayer `json:"byAvgPercent"`
	ByCorrect    []RankedPlayer `json:"byCorrect"`
}

// Leaderboards groups every submission by device identity, aggregates each
// group and produces the three rankings: wins, average score percent and total
// correct, each descending. A participant's display name comes from their most
// recently created submission. Each ranking drops zero-valued entries before
// truncating to topN (topN <= 0 means no truncation).
func Leaderboards(subs []domain.Submission, questionsByCoupon map[string][]domain.Question, facitByCoupon map[string]map[string]string, topN int) Leaderboard {
	byDevice := make(map[string][]domain.Submission)
	order := make([]string, 0)
	for _, sub := range subs {
		if _, seen := byDevice[sub.DeviceID]; !seen {
			order = append(order, sub.DeviceID)
		}
		byDevice[sub.DeviceID] = append(byDevice[sub.DeviceID], sub)
	}

	players := make([]RankedPlayer, 0, len(order))
	for _, device := range order {
		group := byDevice[device]
		players = append(players, RankedPlayer{
			DeviceID: device,
			Name:     latestName(group),
			Stats:    Aggregate(group, questionsByCoupon, facitByCoupon),
		})
	}

	return Leaderboard{
		ByWins: rank(players, topN,
			func(p RankedPlayer) bool { return p.Stats.Wins > 0 },
			func(a, b RankedPlayer) bool { return a.Stats.Wins > b.Stats.Wins }),
		ByAvgPercent: rank(players, topN,
			func(p RankedPlayer) bool { return p.Stats.AvgScorePercent > 0 },
			func(a, b RankedPlayer) bool { return a.Stats.AvgScorePercent > b.Stats.AvgScorePercent }),
		ByCorrect: rank(players, topN,
			func(p RankedPlayer) bool { return p.Stats.TotalCorrect > 0 },
			func(a, b RankedPlayer) bool { return a.Stats.TotalCorrect > b.Stats.TotalCorrect }),
	}
}

func latestName(subs []domain.Submission) string {
	best := subs[0]
	for _, sub := range subs[1:] {
		if !sub.CreatedAt.Before(best.CreatedAt) {
			best = sub
		}
	}
	return best.DisplayName()
}

func rank(players []RankedPlayer, topN int, keep func(RankedPlayer) bool, less func(a, b RankedPlayer) bool) []RankedPlayer {
	out := make([]RankedPlayer, 0, len(players))
	for _, p := range players {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
