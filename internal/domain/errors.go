package domain

import "errors"

var (
	// ErrCouponNotFound indicates the coupon does not exist (or was deleted).
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrQuestionNotFound indicates a question ID is invalid for the coupon.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrSubmissionNotFound is returned when a participant has not submitted yet.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrDuplicateSubmission signals the (coupon, device) uniqueness constraint
	// fired on insert. Callers re-fetch the existing row and adopt it.
	ErrDuplicateSubmission = errors.New("submission already exists for device")
	// ErrDeadlinePassed is returned when a participant acts after the cutoff.
	ErrDeadlinePassed = errors.New("coupon deadline has passed")

	// ErrEmptyQuestionText rejects questions whose trimmed text is empty.
	ErrEmptyQuestionText = errors.New("question text must not be empty")
	// ErrTooFewOptions rejects questions with fewer than two usable options.
	ErrTooFewOptions = errors.New("question needs at least 2 answer options")
	// ErrDuplicateOptions rejects questions whose options are not unique.
	ErrDuplicateOptions = errors.New("answer options must be unique")

	// ErrInvalidOdds is returned for non-positive or non-finite odds input.
	ErrInvalidOdds = errors.New("odds must be a positive finite number")
)
