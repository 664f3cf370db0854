package scoring

import "kupong-service/internal/domain"

// Score grades one submission against a coupon's questions and facit. A
// question counts as correct when the facit entry and the submitted answer
// both exist and match exactly (case-sensitive). Correct answers add the
// matched option's weight, or DefaultPointValue when the question carries no
// weights or the matched option is missing from the option list. Ungraded
// questions contribute nothing; TotalQuestions is always the full question
// count so partial "X/Y" displays stay meaningful before grading completes.
func Score(sub domain.Submission, questions []domain.Question, facit map[string]string) domain.Score {
	score := domain.Score{TotalQuestions: len(questions)}

	for _, q := range questions {
		correct, graded := facit[q.ID]
		if !graded {
			continue
		}
		answer, answered := sub.Answers[q.ID]
		if !answered || answer != correct {
			continue
		}
		score.CorrectCount++
		score.Points += optionWorth(q, answer)
	}
	return score
}

// optionWorth returns the point value of the given option. Questions without
// weights, and matched options not present in the option list, fall back to
// the single-point default rather than failing.
func optionWorth(q domain.Question, option string) int {
	if len(q.OptionPoints) == 0 {
		return DefaultPointValue
	}
	for i, opt := range q.Options {
		if opt != option {
			continue
		}
		if i < len(q.OptionPoints) && q.OptionPoints[i] > 0 {
			return q.OptionPoints[i]
		}
		return DefaultPointValue
	}
	return DefaultPointValue
}
