package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"kupong-service/internal/domain"
)

const uniqueViolation = "23505"

// Store is the Postgres persistence collaborator. Uniqueness on
// (coupon_id, device_id) and (coupon_id, question_id) is enforced by the
// schema; coupon deletes cascade through foreign keys.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateCoupon(ctx context.Context, title string, deadline time.Time) (domain.Coupon, error) {
	coupon := domain.Coupon{ID: uuid.NewString(), Title: title, Deadline: deadline}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO coupons (id, title, deadline) VALUES ($1, $2, $3)`,
		coupon.ID, coupon.Title, coupon.Deadline)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("create coupon: %w", err)
	}
	return coupon, nil
}

func (s *Store) GetCoupon(ctx context.Context, couponID string) (domain.Coupon, error) {
	var coupon domain.Coupon
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, deadline FROM coupons WHERE id = $1`, couponID).
		Scan(&coupon.ID, &coupon.Title, &coupon.Deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("get coupon: %w", err)
	}
	return coupon, nil
}

func (s *Store) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, deadline FROM coupons ORDER BY deadline DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Coupon, 0)
	for rows.Next() {
		var coupon domain.Coupon
		if err := rows.Scan(&coupon.ID, &coupon.Title, &coupon.Deadline); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		out = append(out, coupon)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCouponTitle(ctx context.Context, couponID, title string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE coupons SET title = $2 WHERE id = $1`, couponID, title)
	if err != nil {
		return fmt.Errorf("rename coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (s *Store) DeleteCoupon(ctx context.Context, couponID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, couponID)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	q.ID = uuid.NewString()
	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal options: %w", err)
	}
	var points []byte
	if q.OptionPoints != nil {
		if points, err = json.Marshal(q.OptionPoints); err != nil {
			return domain.Question{}, fmt.Errorf("marshal option points: %w", err)
		}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions (id, coupon_id, text, options, option_points, match_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.CouponID, q.Text, options, points, q.MatchID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, couponID string) ([]domain.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, coupon_id, text, options, option_points, match_id
		 FROM questions WHERE coupon_id = $1 ORDER BY position`, couponID)
}

func (s *Store) ListAllQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT id, coupon_id, text, options, option_points, match_id
		 FROM questions ORDER BY position`)
}

func (s *Store) queryQuestions(ctx context.Context, sql string, args ...interface{}) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Question, 0)
	for rows.Next() {
		var q domain.Question
		var options, points []byte
		if err := rows.Scan(&q.ID, &q.CouponID, &q.Text, &options, &points, &q.MatchID); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		if len(points) > 0 {
			if err := json.Unmarshal(points, &q.OptionPoints); err != nil {
				return nil, fmt.Errorf("unmarshal option points: %w", err)
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) UpsertCorrectAnswer(ctx context.Context, couponID, questionID, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO correct_answers (coupon_id, question_id, value) VALUES ($1, $2, $3)
		 ON CONFLICT (coupon_id, question_id) DO UPDATE SET value = EXCLUDED.value`,
		couponID, questionID, value)
	if err != nil {
		return fmt.Errorf("upsert facit: %w", err)
	}
	return nil
}

func (s *Store) DeleteCorrectAnswers(ctx context.Context, couponID string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM correct_answers WHERE coupon_id = $1`, couponID); err != nil {
		return fmt.Errorf("clear facit: %w", err)
	}
	return nil
}

func (s *Store) ListCorrectAnswers(ctx context.Context, couponID string) ([]domain.CorrectAnswer, error) {
	return s.queryAnswers(ctx,
		`SELECT coupon_id, question_id, value FROM correct_answers WHERE coupon_id = $1`, couponID)
}

func (s *Store) ListAllCorrectAnswers(ctx context.Context) ([]domain.CorrectAnswer, error) {
	return s.queryAnswers(ctx,
		`SELECT coupon_id, question_id, value FROM correct_answers`)
}

func (s *Store) queryAnswers(ctx context.Context, sql string, args ...interface{}) ([]domain.CorrectAnswer, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list facit: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CorrectAnswer, 0)
	for rows.Next() {
		var a domain.CorrectAnswer
		if err := rows.Scan(&a.CouponID, &a.QuestionID, &a.Value); err != nil {
			return nil, fmt.Errorf("scan facit: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateSubmission(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	sub.ID = uuid.NewString()
	if sub.Answers == nil {
		sub.Answers = make(map[string]string)
	}
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, coupon_id, device_id, player_name, answers, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.CouponID, sub.DeviceID, sub.PlayerName, answers, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Submission{}, domain.ErrDuplicateSubmission
		}
		return domain.Submission{}, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

func (s *Store) GetSubmission(ctx context.Context, couponID, deviceID string) (domain.Submission, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, coupon_id, device_id, player_name, answers, created_at, is_winner
		 FROM submissions WHERE coupon_id = $1 AND device_id = $2`, couponID, deviceID)
	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, err
}

func (s *Store) UpdateSubmissionAnswers(ctx context.Context, submissionID, playerName string, answers map[string]string) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions
		 SET answers = $2, player_name = CASE WHEN $3 = '' THEN player_name ELSE $3 END
		 WHERE id = $1`,
		submissionID, raw, playerName)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (s *Store) DeleteSubmission(ctx context.Context, submissionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, submissionID)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (s *Store) ListSubmissions(ctx context.Context, couponID string) ([]domain.Submission, error) {
	return s.querySubmissions(ctx,
		`SELECT id, coupon_id, device_id, player_name, answers, created_at, is_winner
		 FROM submissions WHERE coupon_id = $1 ORDER BY created_at, id`, couponID)
}

func (s *Store) ListSubmissionsByDevice(ctx context.Context, deviceID string) ([]domain.Submission, error) {
	return s.querySubmissions(ctx,
		`SELECT id, coupon_id, device_id, player_name, answers, created_at, is_winner
		 FROM submissions WHERE device_id = $1 ORDER BY created_at, id`, deviceID)
}

func (s *Store) ListAllSubmissions(ctx context.Context) ([]domain.Submission, error) {
	return s.querySubmissions(ctx,
		`SELECT id, coupon_id, device_id, player_name, answers, created_at, is_winner
		 FROM submissions ORDER BY created_at, id`)
}

func (s *Store) querySubmissions(ctx context.Context, sql string, args ...interface{}) ([]domain.Submission, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (domain.Submission, error) {
	var sub domain.Submission
	var answers []byte
	err := row.Scan(&sub.ID, &sub.CouponID, &sub.DeviceID, &sub.PlayerName, &answers, &sub.CreatedAt, &sub.IsWinner)
	if err != nil {
		return domain.Submission{}, err
	}
	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return sub, nil
}

// SetWinnerFlags replaces the coupon's winner flags in one transaction: clear
// everything first, then raise the winners, so a recompute never leaves a
// stale flag behind.
func (s *Store) SetWinnerFlags(ctx context.Context, couponID string, flags map[string]bool) error {
	winners := make([]string, 0, len(flags))
	for id, win := range flags {
		if win {
			winners = append(winners, id)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin winner update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE submissions SET is_winner = FALSE WHERE coupon_id = $1`, couponID); err != nil {
		return fmt.Errorf("clear winner flags: %w", err)
	}
	if len(winners) > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE submissions SET is_winner = TRUE WHERE coupon_id = $1 AND id = ANY($2)`,
			couponID, winners); err != nil {
			return fmt.Errorf("raise winner flags: %w", err)
		}
	}
	return tx.Commit(ctx)
}
