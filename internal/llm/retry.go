package llm

import (
	"context"
	"errors"
	"net"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// initialBackoff is the delay before the first retry; it doubles on each
// subsequent attempt.
const initialBackoff = 500 * time.Millisecond

// isTransient reports whether an upstream failure is worth retrying:
// rate limits, 5xx responses, and network errors. Schema and context
// errors are not.
func isTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return false
}

// withRetry runs fn up to cfg.MaxAttempts times with exponential backoff,
// each attempt bounded by cfg.CallTimeout. Context and timeout failures
// are classified into the pipeline taxonomy.
func withRetry(ctx context.Context, cfg *Config, op string, fn func(ctx context.Context) error) error {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return types.NewError(types.KindTimeout, op+" deadline exceeded", err)
			}
			return types.NewError(types.KindCancelled, op+" cancelled", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return types.NewError(types.KindTimeout, op+" call timed out", err)
		}
		if !isTransient(err) {
			return types.NewError(types.KindUpstream, op+" failed", err)
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return types.NewError(types.KindCancelled, op+" cancelled during backoff", ctx.Err())
		}
		backoff *= 2
	}

	return types.NewError(types.KindUpstream, op+" failed after retries", lastErr)
}
