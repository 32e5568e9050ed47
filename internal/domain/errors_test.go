package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Catalog.Execute", ErrToolNotFound, "tool 'foo'")
	want := "Catalog.Execute: tool 'foo': tool not found"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Orchestrator.Handle", ErrAuthMissing, "")
	want := "Orchestrator.Handle: no credential configured"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError("TokenStore.Validate", ErrAuthInvalid, "Token looks too short")
	if !errors.Is(err, ErrAuthInvalid) {
		t.Error("errors.Is should match ErrAuthInvalid")
	}
	if !IsAuthError(err) {
		t.Error("IsAuthError should be true")
	}
}

func TestWrapOpNil(t *testing.T) {
	if WrapOp("op", nil) != nil {
		t.Error("WrapOp(nil) should be nil")
	}
	err := WrapOp("llm.stream", ErrRateLimit)
	if !errors.Is(err, ErrRateLimit) {
		t.Errorf("WrapOp lost sentinel: %v", err)
	}
}

func TestErrorCodeOf_DirectSentinel(t *testing.T) {
	assert.Equal(t, CodeToolNotFound, ErrorCodeOf(ErrToolNotFound))
	assert.Equal(t, CodeRateLimit, ErrorCodeOf(ErrRateLimit))
	assert.Equal(t, CodeAuthMissing, ErrorCodeOf(ErrAuthMissing))
}

func TestErrorCodeOf_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("anthropic: %w", ErrContextOverflow)
	assert.Equal(t, CodeContextOverflow, ErrorCodeOf(wrapped))
}

func TestErrorCodeOf_SubSystem(t *testing.T) {
	err := NewSubSystemError("mcp", "Registry.Get", ErrNotFound, "nope")
	assert.Equal(t, CodeMCPServerNotFound, ErrorCodeOf(err))
	assert.Equal(t, CodeMCPServerNotFound, err.Code())

	other := NewSubSystemError("other", "X", ErrNotFound, "")
	assert.Equal(t, CodeNotFound, other.Code())
}

func TestErrorCodeOf_UnknownAndNil(t *testing.T) {
	assert.Equal(t, CodeUnknown, ErrorCodeOf(fmt.Errorf("some random error")))
	assert.Equal(t, CodeUnknown, ErrorCodeOf(nil))
}
