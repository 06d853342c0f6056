package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// BaseError is the base error type for all llm errors.
type BaseError struct {
	Message string
	Cause   error
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BaseError) Unwrap() error {
	return e.Cause
}

// BackendError is a failure reported by a completion backend. Unless it is a
// RateLimitError it is fatal to the call that produced it.
type BackendError struct {
	BaseError
	Backend    string
	StatusCode int
	Retryable  bool
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d, retryable=%v)", e.Backend, e.Message, e.StatusCode, e.Retryable)
}

// RateLimitError signals that the backend asked the caller to slow down.
type RateLimitError struct{ BackendError }

// Non-backend errors.

type ConfigurationError struct{ BaseError }
type AbortError struct{ BaseError }

// Status codes are only read where a backend reports them: after a
// "status", "code", "http" or "error" label, or leading the message as in
// "429 Too Many Requests". Digits elsewhere in the text (paths, counts,
// request ids) are never treated as a status.
var (
	labelledStatus = regexp.MustCompile(`(?:status(?:[ _]?code)?|http(?:/\d(?:\.\d)?)?|error(?:[ _]code)?|code)["']?\s*[:=]?\s*([45]\d{2})\b`)
	leadingStatus  = regexp.MustCompile(`(?:^|:\s+)([45]\d{2})\s+[a-z]`)
)

// statusCode extracts the HTTP status reported in a lower-cased error
// message, or 0.
func statusCode(lower string) int {
	for _, re := range []*regexp.Regexp{labelledStatus, leadingStatus} {
		if m := re.FindStringSubmatch(lower); m != nil {
			code, _ := strconv.Atoi(m[1])
			return code
		}
	}
	return 0
}

// ClassifyError converts a raw backend error into the llm error hierarchy.
func ClassifyError(backend string, err error) error {
	if err == nil {
		return nil
	}
	var rl *RateLimitError
	var be *BackendError
	if errors.As(err, &rl) || errors.As(err, &be) {
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	status := statusCode(lower)
	base := BaseError{Message: msg, Cause: err}
	switch {
	case status == 429 || isRateLimitText(lower):
		return &RateLimitError{BackendError: BackendError{
			BaseError: base, Backend: backend, StatusCode: 429, Retryable: true,
		}}
	case status == 401 || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return &BackendError{BaseError: base, Backend: backend, StatusCode: 401}
	case status == 403 || strings.Contains(lower, "forbidden"):
		return &BackendError{BaseError: base, Backend: backend, StatusCode: 403}
	case status == 404 || strings.Contains(lower, "not found"):
		return &BackendError{BaseError: base, Backend: backend, StatusCode: 404}
	case status >= 500 || strings.Contains(lower, "internal server"):
		if status == 0 {
			status = 500
		}
		return &BackendError{BaseError: base, Backend: backend, StatusCode: status}
	default:
		return &BackendError{BaseError: base, Backend: backend, StatusCode: status}
	}
}

// IsRateLimit reports whether err signals a rate limit, either as a
// RateLimitError anywhere in the chain, a reported 429 status or a rate
// limit message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode == 429
	}
	lower := strings.ToLower(err.Error())
	return statusCode(lower) == 429 || isRateLimitText(lower)
}

func isRateLimitText(lower string) bool {
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "ratelimit") ||
		strings.Contains(lower, "too many requests")
}
