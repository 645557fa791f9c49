package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.CallTimeout = 100 * time.Millisecond
	return cfg
}

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastConfig(), "op", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesRateLimit(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastConfig(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: 429, Message: "rate limited"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustedTransientIsUpstream(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastConfig(), "op", func(ctx context.Context) error {
		calls++
		return &googleapi.Error{Code: 503, Message: "unavailable"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, types.IsKind(err, types.KindUpstream))
}

func TestWithRetry_NonTransientNotRetried(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastConfig(), "op", func(ctx context.Context) error {
		calls++
		return &googleapi.Error{Code: 400, Message: "bad request"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, types.IsKind(err, types.KindUpstream))
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, fastConfig(), "op", func(ctx context.Context) error {
		return ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindCancelled))
}

func TestWithRetry_PerCallTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1

	err := withRetry(context.Background(), cfg, "op", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindTimeout))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&googleapi.Error{Code: 429}))
	assert.True(t, isTransient(&googleapi.Error{Code: 500}))
	assert.True(t, isTransient(&googleapi.Error{Code: 503}))
	assert.False(t, isTransient(&googleapi.Error{Code: 404}))
	assert.False(t, isTransient(errors.New("schema mismatch")))
}
