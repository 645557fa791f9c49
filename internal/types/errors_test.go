package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := NewError(KindRetrieval, "vector lane failed", errors.New("connection refused"))
	wrapped := fmt.Errorf("retrieve stage: %w", base)

	assert.Equal(t, KindRetrieval, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindRetrieval))
	assert.False(t, IsKind(wrapped, KindTimeout))
}

func TestKindOf_UnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewError(KindUpstream, "embedding call failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "embedding call failed")
	assert.Contains(t, err.Error(), "upstream")
}
