package analysis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"legalyzer/internal/domain"
)

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// ErrCircuitOpen is returned when every provider is cooling down.
var ErrCircuitOpen = errors.New("all providers unavailable (circuit open)")

// classify maps a provider failure to an analysis error kind.
func classify(err error) domain.AnalysisErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.AnalysisTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.AnalysisTimeout
	}
	return domain.AnalysisUpstreamError
}
