package app

import (
	"context"
	"time"

	"kupong-service/internal/domain"
)

// Store is the persistence collaborator. Implementations must enforce
// uniqueness on (couponID, deviceID) for submissions, surfacing violations as
// domain.ErrDuplicateSubmission, and on (couponID, questionID) for correct
// answers (upsert semantics). Deleting a coupon cascades to its questions,
// submissions and correct answers. The core never retries a failed store call;
// errors propagate to the caller as-is.
type Store interface {
	CreateCoupon(ctx context.Context, title string, deadline time.Time) (domain.Coupon, error)
	GetCoupon(ctx context.Context, couponID string) (domain.Coupon, error)
	ListCoupons(ctx context.Context) ([]domain.Coupon, error)
	UpdateCouponTitle(ctx context.Context, couponID, title string) error
	DeleteCoupon(ctx context.Context, couponID string) error

	CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	ListQuestions(ctx context.Context, couponID string) ([]domain.Question, error)
	ListAllQuestions(ctx context.Context) ([]domain.Question, error)

	UpsertCorrectAnswer(ctx context.Context, couponID, questionID, value string) error
	DeleteCorrectAnswers(ctx context.Context, couponID string) error
	ListCorrectAnswers(ctx context.Context, couponID string) ([]domain.CorrectAnswer, error)
	ListAllCorrectAnswers(ctx context.Context) ([]domain.CorrectAnswer, error)

	CreateSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	GetSubmission(ctx context.Context, couponID, deviceID string) (domain.Submission, error)
	UpdateSubmissionAnswers(ctx context.Context, submissionID, playerName string, answers map[string]string) error
	DeleteSubmission(ctx context.Context, submissionID string) error
	ListSubmissions(ctx context.Context, couponID string) ([]domain.Submission, error)
	ListSubmissionsByDevice(ctx context.Context, deviceID string) ([]domain.Submission, error)
	ListAllSubmissions(ctx context.Context) ([]domain.Submission, error)

	// SetWinnerFlags replaces the coupon's entire winner-flag set in one batch:
	// clear everything, then raise the winners, so no stale flag survives a
	// recompute.
	SetWinnerFlags(ctx context.Context, couponID string, flags map[string]bool) error
}

// QuestionSource serves question reads for result views. It exists so a
// caching layer can wrap the store without the service knowing.
type QuestionSource interface {
	ListQuestions(ctx context.Context, couponID string) ([]domain.Question, error)
}
