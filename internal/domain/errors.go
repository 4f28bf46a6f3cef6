package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals bad caller input. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredential signals a missing or empty API token.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnknownProvider signals a provider identifier outside the registered set.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrProviderCall signals a transport or provider-side failure.
	ErrProviderCall = errors.New("provider call failed")
	// ErrEmptyResponse signals a provider response with no usable content.
	ErrEmptyResponse = errors.New("empty provider response")
	// ErrTemplateNotFound signals a prompt template missing from the store.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrRetrieval signals a vector store failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrContextLength signals that the assembled prompt exceeds the
	// provider's context window.
	ErrContextLength = errors.New("context length exceeded")
	// ErrExplainNotSupported signals that the provider has no native
	// explanation capability.
	ErrExplainNotSupported = errors.New("explanation not supported by provider")
)

// ContextLengthError wraps ErrContextLength with the provider's own
// description of the overflow. Clients translate provider-specific
// signals (error codes, status messages) into this type so callers can
// branch on errors.Is(err, ErrContextLength) instead of string matching.
type ContextLengthError struct {
	Provider string
	Detail   string
}

func (e *ContextLengthError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Provider, ErrContextLength.Error())
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, ErrContextLength.Error(), e.Detail)
}

func (e *ContextLengthError) Unwrap() error { return ErrContextLength }

// NewContextLength creates a context length error for a provider.
func NewContextLength(provider, detail string) error {
	return &ContextLengthError{Provider: provider, Detail: detail}
}
