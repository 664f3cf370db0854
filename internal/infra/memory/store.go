package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kupong-service/internal/domain"
)

// Store is the in-memory persistence collaborator: the injectable test double
// for single-node runs and unit tests. It enforces the same uniqueness
// constraints the Postgres store does (one submission per coupon and device,
// one facit entry per coupon and question) and cascades coupon deletes.
type Store struct {
	mu          sync.RWMutex
	coupons     map[string]domain.Coupon
	questions   map[string]domain.Question
	answers     map[string]map[string]string // couponID -> questionID -> value
	submissions map[string]domain.Submission
	order       map[string]int // question insertion order, stands in for a DB sequence
	questionSeq int
}

func NewStore() *Store {
	return &Store{
		coupons:     make(map[string]domain.Coupon),
		questions:   make(map[string]domain.Question),
		answers:     make(map[string]map[string]string),
		submissions: make(map[string]domain.Submission),
		order:       make(map[string]int),
	}
}

func (s *Store) CreateCoupon(_ context.Context, title string, deadline time.Time) (domain.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon := domain.Coupon{ID: uuid.NewString(), Title: title, Deadline: deadline}
	s.coupons[coupon.ID] = coupon
	return coupon, nil
}

func (s *Store) GetCoupon(_ context.Context, couponID string) (domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coupon, ok := s.coupons[couponID]
	if !ok {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return coupon, nil
}

func (s *Store) ListCoupons(_ context.Context) ([]domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Coupon, 0, len(s.coupons))
	for _, c := range s.coupons {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.After(out[j].Deadline) })
	return out, nil
}

func (s *Store) UpdateCouponTitle(_ context.Context, couponID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coupon, ok := s.coupons[couponID]
	if !ok {
		return domain.ErrCouponNotFound
	}
	coupon.Title = title
	s.coupons[couponID] = coupon
	return nil
}

func (s *Store) DeleteCoupon(_ context.Context, couponID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[couponID]; !ok {
		return domain.ErrCouponNotFound
	}
	delete(s.coupons, couponID)
	delete(s.answers, couponID)
	for id, q := range s.questions {
		if q.CouponID == couponID {
			delete(s.questions, id)
			delete(s.order, id)
		}
	}
	for id, sub := range s.submissions {
		if sub.CouponID == couponID {
			delete(s.submissions, id)
		}
	}
	return nil
}

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[q.CouponID]; !ok {
		return domain.Question{}, domain.ErrCouponNotFound
	}
	q.ID = uuid.NewString()
	s.questionSeq++
	s.order[q.ID] = s.questionSeq
	s.questions[q.ID] = q
	return q, nil
}

func (s *Store) ListQuestions(_ context.Context, couponID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.CouponID == couponID {
			out = append(out, q)
		}
	}
	s.sortQuestions(out)
	return out, nil
}

func (s *Store) ListAllQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	s.sortQuestions(out)
	return out, nil
}

func (s *Store) sortQuestions(qs []domain.Question) {
	sort.Slice(qs, func(i, j int) bool { return s.order[qs[i].ID] < s.order[qs[j].ID] })
}

func (s *Store) UpsertCorrectAnswer(_ context.Context, couponID, questionID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[couponID]; !ok {
		return domain.ErrCouponNotFound
	}
	if s.answers[couponID] == nil {
		s.answers[couponID] = make(map[string]string)
	}
	s.answers[couponID][questionID] = value
	return nil
}

func (s *Store) DeleteCorrectAnswers(_ context.Context, couponID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.answers, couponID)
	return nil
}

func (s *Store) ListCorrectAnswers(_ context.Context, couponID string) ([]domain.CorrectAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectAnswers(couponID, s.answers[couponID]), nil
}

func (s *Store) ListAllCorrectAnswers(_ context.Context) ([]domain.CorrectAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CorrectAnswer, 0)
	for couponID, m := range s.answers {
		out = append(out, collectAnswers(couponID, m)...)
	}
	return out, nil
}

func collectAnswers(couponID string, m map[string]string) []domain.CorrectAnswer {
	out := make([]domain.CorrectAnswer, 0, len(m))
	for questionID, value := range m {
		out = append(out, domain.CorrectAnswer{CouponID: couponID, QuestionID: questionID, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

func (s *Store) CreateSubmission(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[sub.CouponID]; !ok {
		return domain.Submission{}, domain.ErrCouponNotFound
	}
	for _, existing := range s.submissions {
		if existing.CouponID == sub.CouponID && existing.DeviceID == sub.DeviceID {
			return domain.Submission{}, domain.ErrDuplicateSubmission
		}
	}
	sub.ID = uuid.NewString()
	if sub.Answers == nil {
		sub.Answers = make(map[string]string)
	}
	s.submissions[sub.ID] = sub
	return sub, nil
}

func (s *Store) GetSubmission(_ context.Context, couponID, deviceID string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.CouponID == couponID && sub.DeviceID == deviceID {
			return sub, nil
		}
	}
	return domain.Submission{}, domain.ErrSubmissionNotFound
}

func (s *Store) UpdateSubmissionAnswers(_ context.Context, submissionID, playerName string, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	sub.Answers = answers
	if playerName != "" {
		sub.PlayerName = playerName
	}
	s.submissions[submissionID] = sub
	return nil
}

func (s *Store) DeleteSubmission(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[submissionID]; !ok {
		return domain.ErrSubmissionNotFound
	}
	delete(s.submissions, submissionID)
	return nil
}

func (s *Store) ListSubmissions(_ context.Context, couponID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.CouponID == couponID {
			out = append(out, sub)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func (s *Store) ListSubmissionsByDevice(_ context.Context, deviceID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if sub.DeviceID == deviceID {
			out = append(out, sub)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func (s *Store) ListAllSubmissions(_ context.Context) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		out = append(out, sub)
	}
	sortSubmissions(out)
	return out, nil
}

func sortSubmissions(subs []domain.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].ID < subs[j].ID
	})
}

func (s *Store) SetWinnerFlags(_ context.Context, couponID string, flags map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Batch replace: clear every flag in the coupon first, then raise winners.
	for id, sub := range s.submissions {
		if sub.CouponID != couponID {
			continue
		}
		sub.IsWinner = false
		s.submissions[id] = sub
	}
	for id, win := range flags {
		sub, ok := s.submissions[id]
		if !ok || sub.CouponID != couponID {
			continue
		}
		sub.IsWinner = win
		s.submissions[id] = sub
	}
	return nil
}
