// Package retry wraps calls to rate-limited remote services in a bounded
// exponential backoff. Only failures classified as rate limiting are retried;
// every other error reaches the caller after a single attempt, unchanged.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

// Default policy values.
const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 2 * time.Second
)

// resourceExhausted is the status the Gemini API reports when a quota is hit.
const resourceExhausted = "RESOURCE_EXHAUSTED"

// Policy bounds a retry chain. MaxRetries+1 is the most attempts made and the
// delay before retry n (1-based) is InitialDelay * 2^(n-1).
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// DefaultPolicy returns 3 retries starting at 2 seconds.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, InitialDelay: DefaultInitialDelay}
}

// MaxWait returns the cumulative delay of a chain that exhausts every retry.
func (p Policy) MaxWait() time.Duration {
	if p.MaxRetries <= 0 {
		return 0
	}
	return p.InitialDelay * time.Duration((1<<p.MaxRetries)-1)
}

// Classifier decides whether an error should be retried.
type Classifier func(error) bool

type options struct {
	classifier Classifier
	observer   func(attempt int, delay time.Duration)
	logger     *slog.Logger
	operation  string
}

// Option customises a single Do call.
type Option func(*options)

// WithClassifier replaces IsRateLimited as the retry predicate.
func WithClassifier(c Classifier) Option {
	return func(o *options) { o.classifier = c }
}

// WithDelayObserver registers a callback invoked before every backoff wait
// with the number of the attempt that failed and the delay about to be slept.
func WithDelayObserver(fn func(attempt int, delay time.Duration)) Option {
	return func(o *options) { o.observer = fn }
}

// WithLogger logs each retry decision under the given operation name.
func WithLogger(logger *slog.Logger, operation string) Option {
	return func(o *options) {
		o.logger = logger
		o.operation = operation
	}
}

// Do runs op and retries it while it fails with a rate-limit error and the
// policy still allows retries. The last error is returned unchanged. A
// cancelled ctx stops the chain, including during a backoff wait, and
// returns ctx.Err().
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	o := options{classifier: IsRateLimited}
	for _, opt := range opts {
		opt(&o)
	}

	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	initialDelay := policy.InitialDelay
	if initialDelay <= 0 {
		initialDelay = time.Nanosecond
	}

	var (
		result  T
		attempt int
	)

	backoff := goretry.WithMaxRetries(uint64(maxRetries), goretry.NewExponential(initialDelay))
	backoff = observe(backoff, func(delay time.Duration) {
		if o.logger != nil {
			o.logger.InfoContext(ctx, "rate limited, retrying after delay",
				"operation", o.operation,
				"attempt", attempt,
				"max_attempts", maxRetries+1,
				"delay", delay)
		}
		if o.observer != nil {
			o.observer(attempt, delay)
		}
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		value, err := op(ctx)
		if err == nil {
			result = value
			return nil
		}
		if o.classifier(err) {
			return goretry.RetryableError(err)
		}
		if o.logger != nil {
			o.logger.DebugContext(ctx, "non-retryable failure",
				"operation", o.operation,
				"attempt", attempt,
				"error", err)
		}
		return err
	})
	if err != nil {
		if o.logger != nil && o.classifier(err) {
			o.logger.WarnContext(ctx, "retries exhausted",
				"operation", o.operation,
				"attempts", attempt)
		}
		var zero T
		return zero, err
	}
	return result, nil
}

// observe reports every delay the backoff hands out before it is slept.
func observe(next goretry.Backoff, fn func(time.Duration)) goretry.Backoff {
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := next.Next()
		if !stop {
			fn(delay)
		}
		return delay, stop
	})
}

// IsRateLimited reports whether err signals that the caller exceeded a
// request quota: a Gemini API error with code 429 or status
// RESOURCE_EXHAUSTED, or any error whose message carries "429", "quota" or
// "RESOURCE_EXHAUSTED".
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isRateLimitStatus(apiErr.Code, apiErr.Status) {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && isRateLimitStatus(apiErrPtr.Code, apiErrPtr.Status) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, strconv.Itoa(http.StatusTooManyRequests)) ||
		strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, resourceExhausted)
}

func isRateLimitStatus(code int, status string) bool {
	return code == http.StatusTooManyRequests || strings.EqualFold(status, resourceExhausted)
}
