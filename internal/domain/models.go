package domain

import "time"

// Coupon is one round of the prediction game: a titled question set with a
// submission deadline.
type Coupon struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
}

// Active reports whether the coupon still accepts submissions at the given
// instant.
func (c Coupon) Active(now time.Time) bool {
	return now.Before(c.Deadline)
}

// Question is a multiple-choice question owned by a coupon. OptionPoints, when
// present, runs parallel to Options; nil means every option is worth the
// default single point. MatchID links the question to the external odds
// provider's match when the options were derived from betting odds.
type Question struct {
	ID           string   `json:"id"`
	CouponID     string   `json:"couponId"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	OptionPoints []int    `json:"optionPoints,omitempty"`
	MatchID      string   `json:"matchId,omitempty"`
}

// CorrectAnswer is one facit entry: the admin-confirmed answer for a question.
// At most one exists per (coupon, question) pair; absence means ungraded.
type CorrectAnswer struct {
	CouponID   string `json:"couponId"`
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

// Submission is one participant's full answer set for a coupon. DeviceID is an
// opaque client-supplied identity token with no server-side trust; PlayerName
// is cosmetic. IsWinner is derived state, recomputed whenever the facit
// changes, never authoritative input.
type Submission struct {
	ID         string            `json:"id"`
	CouponID   string            `json:"couponId"`
	DeviceID   string            `json:"deviceId"`
	PlayerName string            `json:"playerName,omitempty"`
	Answers    map[string]string `json:"answers"`
	CreatedAt  time.Time         `json:"createdAt"`
	IsWinner   bool              `json:"isWinner"`
}

// DisplayName returns the cosmetic name, falling back to a shortened device
// token when the participant never set one.
func (s Submission) DisplayName() string {
	if s.PlayerName != "" {
		return s.PlayerName
	}
	if len(s.DeviceID) > 12 {
		return s.DeviceID[:8] + "..." + s.DeviceID[len(s.DeviceID)-4:]
	}
	return s.DeviceID
}

// Score is the derived result of grading one submission against the facit. It
// is computed fresh from current state on every read and never persisted.
type Score struct {
	CorrectCount   int `json:"correctCount"`
	TotalQuestions int `json:"totalQuestions"`
	Points         int `json:"points"`
}

// PlayerStats accumulates one participant's results across coupons. Only
// graded coupons count toward the totals and the average; Wins reflects the
// persisted winner flags regardless of grading state.
type PlayerStats struct {
	GamesPlayed     int     `json:"gamesPlayed"`
	TotalCorrect    int     `json:"totalCorrect"`
	TotalPoints     int     `json:"totalPoints"`
	TotalQuestions  int     `json:"totalQuestions"`
	AvgScorePercent float64 `json:"avgScorePercent"`
	Wins            int     `json:"wins"`
}
