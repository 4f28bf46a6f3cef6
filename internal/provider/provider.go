// Package provider defines the uniform capability set every LLM backend
// implements, plus the shared pieces each concrete client reuses: the
// vector store delegation and the summarize-via-completion fallback.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
)

// CompleteOptions tunes a single-shot completion call.
type CompleteOptions struct {
	MaxTokens     int
	StopSequences []string
}

// Default completion parameters when the caller passes nil options.
const (
	DefaultMaxTokens    = 256
	DefaultStopSequence = "###"
)

// WithDefaults fills unset fields.
func (o *CompleteOptions) WithDefaults() *CompleteOptions {
	if o == nil {
		o = &CompleteOptions{}
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if len(o.StopSequences) == 0 {
		o.StopSequences = []string{DefaultStopSequence}
	}
	return o
}

// Client unifies heterogeneous LLM/embedding providers behind one
// capability set. Every operation takes the request context and treats
// the provider call as a suspension point.
type Client interface {
	// CreateCollection ensures the bound collection's index exists.
	// Idempotent.
	CreateCollection(ctx context.Context) error

	// EmbedAndStore embeds documents and upserts them into the bound
	// collection. Empty input is a no-op success.
	EmbedAndStore(ctx context.Context, docs []domain.Document) error

	// SimilaritySearch retrieves up to k documents by descending score.
	SimilaritySearch(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error)

	// Complete generates text for a prompt. A provider response with no
	// usable completion is an ErrEmptyResponse, never an empty string.
	Complete(ctx context.Context, prompt string, opts *CompleteOptions) (string, error)

	// Summarize produces a shorter text. Also used as the long-prompt
	// fallback inside QA.
	Summarize(ctx context.Context, text string) (string, error)

	// Explain returns raw attribution spans in provider order. Providers
	// without a native capability return ErrExplainNotSupported.
	Explain(ctx context.Context, prompt, output string) ([]domain.AttributionSpan, error)
}

// Completer is the minimal completion capability, consumed by the
// shared summarization helper.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts *CompleteOptions) (string, error)
}

// VectorStore is the retrieval contract each client delegates to.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	AddTexts(ctx context.Context, texts, metadatas []string) error
	SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error)
}

// VectorOps implements the store-facing half of Client by delegating to
// a VectorStore bound to the client's collection. Embedded by every
// concrete client so the aggregation logic lives in one place.
type VectorOps struct {
	store VectorStore
}

// NewVectorOps wraps a bound vector store.
func NewVectorOps(store VectorStore) VectorOps {
	return VectorOps{store: store}
}

// CreateCollection ensures the bound collection exists.
func (v VectorOps) CreateCollection(ctx context.Context) error {
	return v.store.EnsureCollection(ctx)
}

// EmbedAndStore splits documents into texts and metadatas and upserts
// them. Empty input is a no-op success.
func (v VectorOps) EmbedAndStore(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	metadatas := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
		metadatas[i] = doc.Metadata
	}

	if err := v.store.AddTexts(ctx, texts, metadatas); err != nil {
		return fmt.Errorf("embed and store %d documents: %w", len(docs), err)
	}
	return nil
}

// SimilaritySearch delegates to the bound store.
func (v VectorOps) SimilaritySearch(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	return v.store.SimilaritySearchWithScore(ctx, query, k)
}

// SummarizeViaCompletion renders the summarization template and runs it
// through the provider's completion call. Used by providers without a
// native summarization endpoint.
func SummarizeViaCompletion(ctx context.Context, c Completer, r *prompt.Renderer, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text must not be empty", domain.ErrInvalidInput)
	}

	p, err := r.Render("summarization", prompt.Vars{Text: text})
	if err != nil {
		return "", err
	}

	out, err := c.Complete(ctx, p, nil)
	if err != nil {
		return "", fmt.Errorf("summarize via completion: %w", err)
	}
	return strings.TrimSpace(out), nil
}
