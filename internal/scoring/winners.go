package scoring

import "kupong-service/internal/domain"

// ResolveWinners computes the full winner-flag assignment for one coupon's
// submissions. With an empty facit every flag is false: no winners are
// declared before grading begins. Otherwise every submission whose point total
// equals the maximum is a winner; ties at the top all count and there is no
// secondary tie-break by correct count or submission time. Winners always
// resolve by points, which equal the plain correct count when no option
// weights are configured.
//
// The result is the complete flag set for the coupon and callers persist it as
// a batch replace, so a recompute clears stale flags from earlier grading
// passes.
func ResolveWinners(subs []domain.Submission, questions []domain.Question, facit map[string]string) map[string]bool {
	flags := make(map[string]bool, len(subs))
	for _, sub := range subs {
		flags[sub.ID] = false
	}
	if len(facit) == 0 || len(subs) == 0 {
		return flags
	}

	points := make(map[string]int, len(subs))
	top := 0
	for i, sub := range subs {
		p := Score(sub, questions, facit).Points
		points[sub.ID] = p
		if i == 0 || p > top {
			top = p
		}
	}
	for id, p := range points {
		if p == top {
			flags[id] = true
		}
	}
	return flags
}
