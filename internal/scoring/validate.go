package scoring

import (
	"strings"

	"kupong-service/internal/domain"
)

// ValidateQuestion checks a question definition before it is persisted.
// Rules apply in order and the first failure wins: non-empty text, at least
// two non-empty options after trimming, no duplicate options. Returns nil when
// the definition is acceptable.
func ValidateQuestion(text string, options []string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyQuestionText
	}

	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		if o := strings.TrimSpace(opt); o != "" {
			trimmed = append(trimmed, o)
		}
	}
	if len(trimmed) < 2 {
		return domain.ErrTooFewOptions
	}

	seen := make(map[string]struct{}, len(trimmed))
	for _, o := range trimmed {
		if _, dup := seen[o]; dup {
			return domain.ErrDuplicateOptions
		}
		seen[o] = struct{}{}
	}
	return nil
}
