// Package explain extracts attribution explanations: which spans of
// the prompt contributed most to a given answer. Template boilerplate
// is filtered out so only retrieved content and the question remain.
package explain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
)

// Service turns raw provider attribution spans into ranked
// explanations.
type Service struct {
	selector ClientSelector
	renderer *prompt.Renderer
	keys     map[domain.Provider]string
	logger   *zap.Logger
}

// New creates an explanation service.
func New(selector ClientSelector, renderer *prompt.Renderer, keys map[domain.Provider]string, logger *zap.Logger) *Service {
	return &Service{selector: selector, renderer: renderer, keys: keys, logger: logger}
}

// Explain resolves the provider client and extracts an explanation for
// the prompt/output pair.
func (s *Service) Explain(ctx context.Context, p domain.Provider, token, collection, promptText, output string, topK int) (*domain.Explanation, error) {
	resolved, err := domain.ResolveCredential(token, p, s.keys)
	if err != nil {
		return nil, err
	}

	client, err := s.selector.Select(p, resolved, collection)
	if err != nil {
		return nil, err
	}

	return s.Extract(ctx, client, promptText, output, topK)
}

// Extract calls the provider's attribution endpoint and post-processes
// the spans: template scaffolding is dropped, the rest sorted by
// descending score and rounded to three decimals. A positive topK
// truncates the result; topK <= 0 keeps every span.
func (s *Service) Extract(ctx context.Context, client Explainer, promptText, output string, topK int) (*domain.Explanation, error) {
	if promptText == "" || output == "" {
		return nil, fmt.Errorf("%w: prompt and output must not be empty", domain.ErrInvalidInput)
	}

	spans, err := client.Explain(ctx, promptText, output)
	if err != nil {
		return nil, err
	}

	// The qa template rendered without content yields exactly the
	// boilerplate; any span whose text appears in it carries no
	// information about the documents or the question.
	scaffold, err := s.renderer.Render("qa", prompt.Vars{})
	if err != nil {
		return nil, err
	}

	type scoredSpan struct {
		text  string
		score float64
	}
	kept := make([]scoredSpan, 0, len(spans))
	for _, span := range spans {
		text, ok := sliceSpan(promptText, span)
		if !ok {
			continue
		}
		if strings.TrimSpace(text) == "" || strings.Contains(scaffold, text) {
			continue
		}
		kept = append(kept, scoredSpan{text: text, score: span.Score})
	}

	// Stable so equally scored spans keep provider order.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}

	explanation := domain.NewExplanation()
	for _, span := range kept {
		explanation.Add(span.text, math.Round(span.score*1000)/1000)
	}

	s.logger.Debug("Explanation extracted",
		zap.Int("raw_spans", len(spans)),
		zap.Int("kept", explanation.Len()),
	)
	return explanation, nil
}

// sliceSpan cuts the span's text out of the prompt, rejecting spans
// that fall outside it.
func sliceSpan(promptText string, span domain.AttributionSpan) (string, bool) {
	if span.Start < 0 || span.Length <= 0 || span.Start+span.Length > len(promptText) {
		return "", false
	}
	return promptText[span.Start : span.Start+span.Length], true
}
