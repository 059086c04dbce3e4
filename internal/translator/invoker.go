package translator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/askdb/internal/metrics"
	"github.com/mohammad-safakhou/askdb/provider"
)

// Retry defaults: a fixed number of attempts with a fixed pause between
// them, no growth, no jitter.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 5 * time.Second
)

// Invoker calls the generation backend with bounded retries. Every attempt
// sends the same prompt; an empty response counts as a failure.
type Invoker struct {
	Provider provider.Provider
	Attempts int
	Delay    time.Duration
	Logger   *log.Logger
}

// Generate returns the first non-empty model response and the number of
// backend calls spent. Once attempts are exhausted it returns a generation
// error, never a panic; retries never outlive the context.
func (iv *Invoker) Generate(ctx context.Context, prompt string) (string, int, error) {
	attempts := iv.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := iv.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := iv.Provider.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			metrics.GenerationAttempts.WithLabelValues(iv.Provider.Name(), "ok").Inc()
			return text, attempt, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		metrics.GenerationAttempts.WithLabelValues(iv.Provider.Name(), "error").Inc()
		lastErr = err
		iv.logf("attempt %d/%d failed: %v", attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", attempt, fmt.Errorf("%w: %v", ErrGeneration, ctx.Err())
		}
	}
	return "", attempts, fmt.Errorf("%w after %d attempts: %v", ErrGeneration, attempts, lastErr)
}

func (iv *Invoker) logf(format string, args ...interface{}) {
	if iv.Logger != nil {
		iv.Logger.Printf(format, args...)
	}
}
