package scoring

import (
	"testing"

	"kupong-service/internal/domain"
)

func TestScoreCountsExactMatches(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Options: []string{"A", "B"}},
		{ID: "q2", Options: []string{"B", "C"}},
	}
	facit := map[string]string{"q1": "A", "q2": "B"}
	sub := domain.Submission{Answers: map[string]string{"q1": "A", "q2": "C"}}

	score := Score(sub, questions, facit)
	if score.CorrectCount != 1 {
		t.Fatalf("expected 1 correct, got %d", score.CorrectCount)
	}
	if score.TotalQuestions != 2 {
		t.Fatalf("expected total 2, got %d", score.TotalQuestions)
	}
	if score.Points != 1 {
		t.Fatalf("expected 1 point without weights, got %d", score.Points)
	}
}

func TestScoreUsesOptionWeights(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Options: []string{"A", "B"}, OptionPoints: []int{3, 1}},
	}
	sub := domain.Submission{Answers: map[string]string{"q1": "A"}}

	score := Score(sub, questions, map[string]string{"q1": "A"})
	if score.Points != 3 {
		t.Fatalf("expected weighted 3 points, got %d", score.Points)
	}
	if score.CorrectCount != 1 {
		t.Fatalf("expected 1 correct, got %d", score.CorrectCount)
	}
}

func TestScoreUngraded(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", Options: []string{"A", "B"}},
		{ID: "q2", Options: []string{"X", "Y"}},
	}
	// Only q1 graded; q2 contributes nothing even with a submitted answer.
	sub := domain.Submission{Answers: map[string]string{"q1": "A", "q2": "X"}}
	score := Score(sub, questions, map[string]string{"q1": "A"})
	if score.CorrectCount != 1 || score.Points != 1 {
		t.Fatalf("ungraded question scored: %+v", score)
	}
	if score.TotalQuestions != 2 {
		t.Fatalf("total must stay at full question count, got %d", score.TotalQuestions)
	}

	// No facit at all: zero score but full total.
	score = Score(sub, questions, nil)
	if score.CorrectCount != 0 || score.Points != 0 || score.TotalQuestions != 2 {
		t.Fatalf("expected zero score with full total, got %+v", score)
	}
}

func TestScoreCaseSensitiveAndUnanswered(t *testing.T) {
	questions := []domain.Question{{ID: "q1", Options: []string{"Ja", "Nei"}}}
	facit := map[string]string{"q1": "Ja"}

	if s := Score(domain.Submission{Answers: map[string]string{"q1": "ja"}}, questions, facit); s.CorrectCount != 0 {
		t.Fatalf("case-insensitive match counted: %+v", s)
	}
	if s := Score(domain.Submission{}, questions, facit); s.CorrectCount != 0 || s.TotalQuestions != 1 {
		t.Fatalf("unanswered question mishandled: %+v", s)
	}
}

func TestScoreMalformedWeightsFallBack(t *testing.T) {
	// A matched answer that is absent from the option list, and a weight array
	// shorter than the options, both degrade to the single-point default.
	questions := []domain.Question{
		{ID: "q1", Options: []string{"A", "B"}, OptionPoints: []int{5}},
		{ID: "q2", Options: []string{"X"}, OptionPoints: []int{4}},
	}
	facit := map[string]string{"q1": "B", "q2": "Z"}
	sub := domain.Submission{Answers: map[string]string{"q1": "B", "q2": "Z"}}

	score := Score(sub, questions, facit)
	if score.CorrectCount != 2 {
		t.Fatalf("expected both matches to count, got %d", score.CorrectCount)
	}
	if score.Points != 2*DefaultPointValue {
		t.Fatalf("expected default points for unindexed options, got %d", score.Points)
	}
}
