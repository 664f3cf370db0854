package app

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"kupong-service/internal/domain"
	"kupong-service/internal/notify"
	"kupong-service/internal/scoring"
)

// DefaultSubmissionCutoff is how long before the deadline participants lose
// the ability to change or withdraw their submission.
const DefaultSubmissionCutoff = 5 * time.Minute

// CouponService contains the coupon game use cases: coupon and question
// administration, participant submissions, facit entry with winner recompute,
// and the derived result/stats views. All scoring is recomputed fresh from
// current store state on every call.
type CouponService struct {
	store     Store
	questions QuestionSource
	notifier  notify.Notifier
	cutoff    time.Duration
	now       func() time.Time
}

func NewCouponService(store Store, questions QuestionSource, notifier notify.Notifier, cutoff time.Duration) *CouponService {
	if questions == nil {
		questions = store
	}
	if cutoff <= 0 {
		cutoff = DefaultSubmissionCutoff
	}
	return &CouponService{
		store:     store,
		questions: questions,
		notifier:  notifier,
		cutoff:    cutoff,
		now:       time.Now,
	}
}

// NewCouponServiceWithClock is test-only for deterministic deadline checks.
func NewCouponServiceWithClock(store Store, questions QuestionSource, notifier notify.Notifier, cutoff time.Duration, now func() time.Time) *CouponService {
	s := NewCouponService(store, questions, notifier, cutoff)
	s.now = now
	return s
}

// CreateCoupon opens a new round with the given title and deadline.
func (s *CouponService) CreateCoupon(ctx context.Context, title string, deadline time.Time) (domain.Coupon, error) {
	return s.store.CreateCoupon(ctx, strings.TrimSpace(title), deadline)
}

// RenameCoupon updates a coupon's title.
func (s *CouponService) RenameCoupon(ctx context.Context, couponID, title string) error {
	return s.store.UpdateCouponTitle(ctx, couponID, strings.TrimSpace(title))
}

// DeleteCoupon removes a coupon and everything it owns.
func (s *CouponService) DeleteCoupon(ctx context.Context, couponID string) error {
	if err := s.store.DeleteCoupon(ctx, couponID); err != nil {
		return err
	}
	s.invalidateQuestions(couponID)
	return nil
}

// ListCoupons returns every coupon, newest deadline first.
func (s *CouponService) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	return s.store.ListCoupons(ctx)
}

// ListActiveCoupons returns coupons whose deadline has not passed.
func (s *CouponService) ListActiveCoupons(ctx context.Context) ([]domain.Coupon, error) {
	all, err := s.store.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	active := make([]domain.Coupon, 0, len(all))
	for _, c := range all {
		if c.Active(now) {
			active = append(active, c)
		}
	}
	return active, nil
}

// AddQuestion validates and persists a question. Option weights that do not
// line up with the options, or individual non-positive values, fall back to
// the single-point default with a warning instead of blocking creation.
func (s *CouponService) AddQuestion(ctx context.Context, couponID, text string, options []string, optionPoints []int, matchID string) (domain.Question, error) {
	if err := scoring.ValidateQuestion(text, options); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.store.GetCoupon(ctx, couponID); err != nil {
		return domain.Question{}, err
	}

	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		if o := strings.TrimSpace(opt); o != "" {
			trimmed = append(trimmed, o)
		}
	}

	points := sanitizePoints(couponID, trimmed, optionPoints)

	q, err := s.store.CreateQuestion(ctx, domain.Question{
		CouponID:     couponID,
		Text:         strings.TrimSpace(text),
		Options:      trimmed,
		OptionPoints: points,
		MatchID:      matchID,
	})
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidateQuestions(couponID)
	return q, nil
}

// invalidateQuestions drops cached question lists when the question source is
// a caching layer. A plain store ignores this.
func (s *CouponService) invalidateQuestions(couponID string) {
	if inv, ok := s.questions.(interface{ Invalidate(couponID string) }); ok {
		inv.Invalidate(couponID)
	}
}

func sanitizePoints(couponID string, options []string, points []int) []int {
	if len(points) == 0 {
		return nil
	}
	if len(points) != len(options) {
		log.Printf("[coupon %s] option points length %d does not match %d options, using default",
			couponID, len(points), len(options))
		return nil
	}
	out := make([]int, len(points))
	for i, p := range points {
		if p <= 0 {
			log.Printf("[coupon %s] invalid point value %d for option %q, using default", couponID, p, options[i])
			p = scoring.DefaultPointValue
		}
		out[i] = p
	}
	return out
}

// Submit records a participant's answer set. The first submission from a
// device creates the row; a duplicate insert means the device already
// submitted, so the existing row is re-fetched and its answers replaced. New
// submissions are accepted while the coupon is active; replacements stop at
// the cutoff before the deadline.
func (s *CouponService) Submit(ctx context.Context, couponID, deviceID, playerName string, answers map[string]string) (domain.Submission, error) {
	coupon, err := s.store.GetCoupon(ctx, couponID)
	if err != nil {
		return domain.Submission{}, err
	}
	now := s.now()
	if !coupon.Active(now) {
		return domain.Submission{}, domain.ErrDeadlinePassed
	}

	sub, err := s.store.CreateSubmission(ctx, domain.Submission{
		CouponID:   couponID,
		DeviceID:   deviceID,
		PlayerName: strings.TrimSpace(playerName),
		Answers:    answers,
		CreatedAt:  now,
	})
	if err == nil {
		return sub, nil
	}
	if err != domain.ErrDuplicateSubmission {
		return domain.Submission{}, err
	}

	// Two near-simultaneous first submissions or an explicit resubmit: adopt
	// the authoritative existing row instead of erroring to the participant.
	existing, err := s.store.GetSubmission(ctx, couponID, deviceID)
	if err != nil {
		return domain.Submission{}, err
	}
	if !s.withinEditWindow(coupon, now) {
		return existing, domain.ErrDeadlinePassed
	}
	if err := s.store.UpdateSubmissionAnswers(ctx, existing.ID, strings.TrimSpace(playerName), answers); err != nil {
		return domain.Submission{}, err
	}
	return s.store.GetSubmission(ctx, couponID, deviceID)
}

// WithdrawSubmission lets a participant delete their own submission until the
// cutoff before the deadline.
func (s *CouponService) WithdrawSubmission(ctx context.Context, couponID, deviceID string) error {
	coupon, err := s.store.GetCoupon(ctx, couponID)
	if err != nil {
		return err
	}
	if !s.withinEditWindow(coupon, s.now()) {
		return domain.ErrDeadlinePassed
	}
	sub, err := s.store.GetSubmission(ctx, couponID, deviceID)
	if err != nil {
		return err
	}
	return s.store.DeleteSubmission(ctx, sub.ID)
}

// RemoveSubmission is the admin delete: no deadline restriction.
func (s *CouponService) RemoveSubmission(ctx context.Context, submissionID string) error {
	return s.store.DeleteSubmission(ctx, submissionID)
}

func (s *CouponService) withinEditWindow(coupon domain.Coupon, now time.Time) bool {
	return now.Before(coupon.Deadline.Add(-s.cutoff))
}

// SetCorrectAnswer records one facit entry, recomputes and persists the
// coupon's winner flags, and signals open views to refresh.
func (s *CouponService) SetCorrectAnswer(ctx context.Context, couponID, questionID, value string) error {
	questions, err := s.store.ListQuestions(ctx, couponID)
	if err != nil {
		return err
	}
	if !containsQuestion(questions, questionID) {
		return domain.ErrQuestionNotFound
	}
	if err := s.store.UpsertCorrectAnswer(ctx, couponID, questionID, value); err != nil {
		return err
	}
	return s.refreshWinners(ctx, couponID)
}

// ClearCorrectAnswers wipes the facit for a coupon; the recompute then lowers
// every winner flag.
func (s *CouponService) ClearCorrectAnswers(ctx context.Context, couponID string) error {
	if err := s.store.DeleteCorrectAnswers(ctx, couponID); err != nil {
		return err
	}
	return s.refreshWinners(ctx, couponID)
}

// refreshWinners recomputes the full winner-flag set from current state and
// persists it as a batch replace. The notify signal fires only after the store
// write and never fails the operation.
func (s *CouponService) refreshWinners(ctx context.Context, couponID string) error {
	subs, err := s.store.ListSubmissions(ctx, couponID)
	if err != nil {
		return err
	}
	questions, err := s.store.ListQuestions(ctx, couponID)
	if err != nil {
		return err
	}
	facit, err := s.facitMap(ctx, couponID)
	if err != nil {
		return err
	}

	flags := scoring.ResolveWinners(subs, questions, facit)
	if err := s.store.SetWinnerFlags(ctx, couponID, flags); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, couponID)
	}
	return nil
}

func (s *CouponService) facitMap(ctx context.Context, couponID string) (map[string]string, error) {
	entries, err := s.store.ListCorrectAnswers(ctx, couponID)
	if err != nil {
		return nil, err
	}
	facit := make(map[string]string, len(entries))
	for _, e := range entries {
		facit[e.QuestionID] = e.Value
	}
	return facit, nil
}

func containsQuestion(questions []domain.Question, id string) bool {
	for _, q := range questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

// ScoreboardEntry is one submission's graded view.
type ScoreboardEntry struct {
	SubmissionID string            `json:"submissionId"`
	Name         string            `json:"name"`
	Answers      map[string]string `json:"answers"`
	Score        domain.Score      `json:"score"`
	IsWinner     bool              `json:"isWinner"`
}

// Scoreboard is the full results view for one coupon. Graded is false until
// the first facit entry exists; views show "pending" rather than zeros then.
type Scoreboard struct {
	Coupon    domain.Coupon     `json:"coupon"`
	Questions []domain.Question `json:"questions"`
	Facit     map[string]string `json:"facit"`
	Graded    bool              `json:"graded"`
	Entries   []ScoreboardEntry `json:"entries"`
}

// Scoreboard builds the results view for a coupon, scoring every submission
// against the current facit.
func (s *CouponService) Scoreboard(ctx context.Context, couponID string) (Scoreboard, error) {
	coupon, err := s.store.GetCoupon(ctx, couponID)
	if err != nil {
		return Scoreboard{}, err
	}
	questions, err := s.questions.ListQuestions(ctx, couponID)
	if err != nil {
		return Scoreboard{}, err
	}
	subs, err := s.store.ListSubmissions(ctx, couponID)
	if err != nil {
		return Scoreboard{}, err
	}
	facit, err := s.facitMap(ctx, couponID)
	if err != nil {
		return Scoreboard{}, err
	}

	board := Scoreboard{
		Coupon:    coupon,
		Questions: questions,
		Facit:     facit,
		Graded:    len(facit) > 0,
		Entries:   make([]ScoreboardEntry, 0, len(subs)),
	}
	for _, sub := range subs {
		board.Entries = append(board.Entries, ScoreboardEntry{
			SubmissionID: sub.ID,
			Name:         sub.DisplayName(),
			Answers:      sub.Answers,
			Score:        scoring.Score(sub, questions, facit),
			IsWinner:     sub.IsWinner,
		})
	}
	if board.Graded {
		sortEntries(board.Entries)
	}
	return board, nil
}

func sortEntries(entries []ScoreboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score.Points != entries[j].Score.Points {
			return entries[i].Score.Points > entries[j].Score.Points
		}
		return entries[i].Score.CorrectCount > entries[j].Score.CorrectCount
	})
}

// PlayerStats aggregates one device's results across all coupons.
func (s *CouponService) PlayerStats(ctx context.Context, deviceID string) (domain.PlayerStats, error) {
	subs, err := s.store.ListSubmissionsByDevice(ctx, deviceID)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	questionsByCoupon, facitByCoupon, err := s.globalState(ctx)
	if err != nil {
		return domain.PlayerStats{}, err
	}
	return scoring.Aggregate(subs, questionsByCoupon, facitByCoupon), nil
}

// GlobalLeaderboard groups every submission by device and returns the three
// top-N rankings.
func (s *CouponService) GlobalLeaderboard(ctx context.Context, topN int) (scoring.Leaderboard, error) {
	subs, err := s.store.ListAllSubmissions(ctx)
	if err != nil {
		return scoring.Leaderboard{}, err
	}
	questionsByCoupon, facitByCoupon, err := s.globalState(ctx)
	if err != nil {
		return scoring.Leaderboard{}, err
	}
	return scoring.Leaderboards(subs, questionsByCoupon, facitByCoupon, topN), nil
}

func (s *CouponService) globalState(ctx context.Context) (map[string][]domain.Question, map[string]map[string]string, error) {
	questions, err := s.store.ListAllQuestions(ctx)
	if err != nil {
		return nil, nil, err
	}
	answers, err := s.store.ListAllCorrectAnswers(ctx)
	if err != nil {
		return nil, nil, err
	}

	questionsByCoupon := make(map[string][]domain.Question)
	for _, q := range questions {
		questionsByCoupon[q.CouponID] = append(questionsByCoupon[q.CouponID], q)
	}
	facitByCoupon := make(map[string]map[string]string)
	for _, a := range answers {
		if facitByCoupon[a.CouponID] == nil {
			facitByCoupon[a.CouponID] = make(map[string]string)
		}
		facitByCoupon[a.CouponID][a.QuestionID] = a.Value
	}
	return questionsByCoupon, facitByCoupon, nil
}
