// Package qa answers questions over retrieved documents. The retrieved
// contents are aggregated into one context text, rendered through the
// qa template, and completed by the selected provider. A prompt that
// overflows the provider's context window is retried exactly once with
// a summarized context.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
	"github.com/inquira/inquira/internal/provider"
)

// Result is an answered question. Prompt is the final rendered prompt
// that produced the answer, which explanation requests need verbatim.
type Result struct {
	Answer    string
	Prompt    string
	Documents []domain.ScoredDocument
}

// Service orchestrates retrieval-augmented question answering.
type Service struct {
	selector    ClientSelector
	renderer    *prompt.Renderer
	keys        map[domain.Provider]string
	maxTokens   int
	concurrency int
	logger      *zap.Logger
}

// New creates a QA service. concurrency bounds the per-document
// summarization fan-out.
func New(selector ClientSelector, renderer *prompt.Renderer, keys map[domain.Provider]string, maxTokens, concurrency int, logger *zap.Logger) *Service {
	return &Service{
		selector:    selector,
		renderer:    renderer,
		keys:        keys,
		maxTokens:   maxTokens,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Ask retrieves documents for the query and answers over them.
func (s *Service) Ask(ctx context.Context, params domain.SearchParams, collection string, summarize bool) (Result, error) {
	token, err := domain.ResolveCredential(params.Token, params.Provider, s.keys)
	if err != nil {
		return Result{}, err
	}
	params.Token = token

	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	client, err := s.selector.Select(params.Provider, params.Token, collection)
	if err != nil {
		return Result{}, err
	}

	scored, err := client.SimilaritySearch(ctx, params.Query, params.Amount)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context from %s: %w", collection, err)
	}
	if len(scored) == 0 {
		return Result{}, fmt.Errorf("%w: no documents found in %s", domain.ErrRetrieval, collection)
	}

	docs := make([]domain.Document, len(scored))
	for i, sd := range scored {
		docs[i] = sd.Document
	}

	result, err := s.Answer(ctx, client, docs, params.Query, summarize)
	if err != nil {
		return Result{}, err
	}
	result.Documents = scored
	return result, nil
}

// Answer aggregates document contents and completes the qa prompt. A
// single document is used as-is, skipping summarization entirely.
func (s *Service) Answer(ctx context.Context, client provider.Client, docs []domain.Document, query string, summarize bool) (Result, error) {
	if len(docs) == 0 {
		return Result{}, fmt.Errorf("%w: no documents to answer over", domain.ErrInvalidInput)
	}
	if query == "" {
		return Result{}, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}

	text, err := s.aggregate(ctx, client, docs, summarize)
	if err != nil {
		return Result{}, err
	}

	return s.completeWithFallback(ctx, client, text, query)
}

func (s *Service) aggregate(ctx context.Context, client provider.Client, docs []domain.Document, summarize bool) (string, error) {
	if len(docs) == 1 {
		return docs[0].Content, nil
	}

	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	if !summarize {
		return strings.Join(contents, " "), nil
	}

	// Summaries replace contents in document order regardless of
	// completion order.
	summaries := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, content := range contents {
		g.Go(func() error {
			summary, err := client.Summarize(gctx, content)
			if err != nil {
				return fmt.Errorf("summarize document %d: %w", i, err)
			}
			summaries[i] = strings.TrimSpace(summary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(summaries, " "), nil
}

// fallbackState tracks the single permitted context-length retry.
type fallbackState int

const (
	stateInitial fallbackState = iota
	stateRetrying
)

// completeWithFallback renders and completes the qa prompt. On a
// context length overflow the aggregated text is summarized once and
// the prompt re-rendered; a second overflow propagates.
func (s *Service) completeWithFallback(ctx context.Context, client provider.Client, text, query string) (Result, error) {
	state := stateInitial

	for {
		p, err := s.renderer.Render("qa", prompt.Vars{Text: text, Query: query})
		if err != nil {
			return Result{}, err
		}

		answer, err := client.Complete(ctx, p, &provider.CompleteOptions{MaxTokens: s.maxTokens})
		if err == nil {
			return Result{Answer: strings.TrimSpace(answer), Prompt: p}, nil
		}

		if !errors.Is(err, domain.ErrContextLength) || state != stateInitial {
			return Result{}, fmt.Errorf("answer question: %w", err)
		}

		state = stateRetrying
		s.logger.Info("Prompt exceeds context window, retrying with summarized context")

		text, err = client.Summarize(ctx, text)
		if err != nil {
			return Result{}, fmt.Errorf("summarize oversized context: %w", err)
		}
	}
}
