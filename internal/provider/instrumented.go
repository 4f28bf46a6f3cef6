package provider

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/metrics"
)

// Instrumented wraps a Client with Prometheus metrics and logging per
// operation. Pure decoration; error semantics pass through untouched.
type Instrumented struct {
	inner    Client
	provider string
	logger   *zap.Logger
}

var _ Client = (*Instrumented)(nil)

// NewInstrumented wraps a client with observability.
func NewInstrumented(inner Client, provider string, logger *zap.Logger) *Instrumented {
	return &Instrumented{inner: inner, provider: provider, logger: logger}
}

func (p *Instrumented) CreateCollection(ctx context.Context) error {
	return record0(p, "create_collection", func() error {
		return p.inner.CreateCollection(ctx)
	})
}

func (p *Instrumented) EmbedAndStore(ctx context.Context, docs []domain.Document) error {
	return record0(p, "embed_and_store", func() error {
		return p.inner.EmbedAndStore(ctx, docs)
	})
}

func (p *Instrumented) SimilaritySearch(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	return record1(p, "similarity_search", func() ([]domain.ScoredDocument, error) {
		return p.inner.SimilaritySearch(ctx, query, k)
	})
}

func (p *Instrumented) Complete(ctx context.Context, prompt string, opts *CompleteOptions) (string, error) {
	return record1(p, "complete", func() (string, error) {
		return p.inner.Complete(ctx, prompt, opts)
	})
}

func (p *Instrumented) Summarize(ctx context.Context, text string) (string, error) {
	return record1(p, "summarize", func() (string, error) {
		return p.inner.Summarize(ctx, text)
	})
}

func (p *Instrumented) Explain(ctx context.Context, prompt, output string) ([]domain.AttributionSpan, error) {
	return record1(p, "explain", func() ([]domain.AttributionSpan, error) {
		return p.inner.Explain(ctx, prompt, output)
	})
}

func record0(p *Instrumented, op string, fn func() error) error {
	_, err := record1(p, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func record1[T any](p *Instrumented, op string, fn func() (T, error)) (T, error) {
	start := time.Now()

	out, err := fn()

	duration := time.Since(start)
	metrics.ProviderRequestDuration.WithLabelValues(p.provider, op).Observe(duration.Seconds())

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(p.provider, op, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(p.provider, op, errorType(err)).Inc()
		p.logger.Error("Provider call failed",
			zap.String("provider", p.provider),
			zap.String("operation", op),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return out, err
	}

	metrics.ProviderRequestsTotal.WithLabelValues(p.provider, op, "success").Inc()
	p.logger.Debug("Provider call completed",
		zap.String("provider", p.provider),
		zap.String("operation", op),
		zap.Duration("duration", duration),
	)
	return out, nil
}

// errorType classifies an error for the metrics label. Bounded set.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrContextLength):
		return "context_length"
	case errors.Is(err, domain.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, domain.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrRetrieval):
		return "retrieval"
	case errors.Is(err, domain.ErrExplainNotSupported):
		return "not_supported"
	default:
		return "provider_error"
	}
}
