package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// classifyStatus maps an HTTP status onto the error taxonomy
func classifyStatus(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests || code/100 == 5:
		return &TransientError{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	case code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}

// classifyErr marks network timeouts as transient. A cancelled parent
// context is never retried.
func classifyErr(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TransientError{Err: err}
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return &TransientError{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	return err
}

// withRetryAfter records the Retry-After header on transient errors
func withRetryAfter(err error, header http.Header) error {
	var te *TransientError
	if !errors.As(err, &te) {
		return err
	}
	te.RetryAfter = parseRetryAfter(header.Get("Retry-After"), time.Now())
	return err
}

// parseRetryAfter accepts delta-seconds or an HTTP date
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
