package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
)

type mockExplainer struct {
	spans []domain.AttributionSpan
	err   error
	calls int
}

func (m *mockExplainer) Explain(_ context.Context, _, _ string) ([]domain.AttributionSpan, error) {
	m.calls++
	return m.spans, m.err
}

func newTestService(t *testing.T) (*Service, *prompt.Renderer) {
	t.Helper()
	renderer, err := prompt.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return New(nil, renderer, nil, zap.NewNop()), renderer
}

// spanFor locates text inside the prompt and returns its span.
func spanFor(t *testing.T, promptText, text string, score float64) domain.AttributionSpan {
	t.Helper()
	start := strings.Index(promptText, text)
	if start < 0 {
		t.Fatalf("%q not found in prompt", text)
	}
	return domain.AttributionSpan{Start: start, Length: len(text), Score: score}
}

func TestExtract_FiltersSortsAndRounds(t *testing.T) {
	svc, renderer := newTestService(t)

	promptText, err := renderer.Render("qa", prompt.Vars{Text: "llamas eat grass daily", Query: "what do llamas eat?"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	explainer := &mockExplainer{spans: []domain.AttributionSpan{
		spanFor(t, promptText, "### Instruction", 0.99),       // scaffolding
		spanFor(t, promptText, "llamas eat grass", 0.12345),   // content
		spanFor(t, promptText, "what do llamas eat?", 0.6789), // question
	}}

	explanation, err := svc.Extract(context.Background(), explainer, promptText, "grass", 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	spans := explanation.Spans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2 (scaffolding dropped): %v", len(spans), spans)
	}
	if spans[0] != "what do llamas eat?" || spans[1] != "llamas eat grass" {
		t.Errorf("not sorted by descending score: %v", spans)
	}

	if score, _ := explanation.Score("llamas eat grass"); score != 0.123 {
		t.Errorf("score not rounded to 3 decimals: %v", score)
	}
	if score, _ := explanation.Score("what do llamas eat?"); score != 0.679 {
		t.Errorf("score not rounded to 3 decimals: %v", score)
	}
}

func TestExtract_TopKTruncates(t *testing.T) {
	svc, renderer := newTestService(t)

	promptText, err := renderer.Render("qa", prompt.Vars{Text: "one two three", Query: "q?"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	explainer := &mockExplainer{spans: []domain.AttributionSpan{
		spanFor(t, promptText, "one", 0.3),
		spanFor(t, promptText, "two", 0.9),
		spanFor(t, promptText, "three", 0.5),
	}}

	explanation, err := svc.Extract(context.Background(), explainer, promptText, "out", 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	spans := explanation.Spans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0] != "two" || spans[1] != "three" {
		t.Errorf("kept wrong spans: %v", spans)
	}
}

func TestExtract_NonPositiveTopKKeepsAllSpans(t *testing.T) {
	svc, renderer := newTestService(t)

	promptText, err := renderer.Render("qa", prompt.Vars{Text: "one two three", Query: "q?"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	spans := []domain.AttributionSpan{
		spanFor(t, promptText, "one", 0.3),
		spanFor(t, promptText, "two", 0.9),
		spanFor(t, promptText, "three", 0.5),
	}

	for _, topK := range []int{0, -1} {
		explanation, err := svc.Extract(context.Background(), &mockExplainer{spans: spans}, promptText, "out", topK)
		if err != nil {
			t.Fatalf("topK %d: %v", topK, err)
		}
		if explanation.Len() != 3 {
			t.Errorf("topK %d: got %d spans, want all 3", topK, explanation.Len())
		}
	}
}

func TestExtract_OutOfRangeSpanDropped(t *testing.T) {
	svc, _ := newTestService(t)

	explainer := &mockExplainer{spans: []domain.AttributionSpan{
		{Start: 0, Length: 4, Score: 0.5},
		{Start: 100, Length: 50, Score: 0.9}, // beyond the prompt
		{Start: -1, Length: 3, Score: 0.8},
	}}

	explanation, err := svc.Extract(context.Background(), explainer, "some prompt", "out", 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if explanation.Len() != 1 {
		t.Errorf("got %d spans, want 1", explanation.Len())
	}
}

func TestExtract_ValidatesBeforeProviderCall(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name               string
		promptText, output string
		topK               int
	}{
		{"empty prompt", "", "out", 5},
		{"empty output", "p", "", 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			explainer := &mockExplainer{}
			_, err := svc.Extract(ctx, explainer, tc.promptText, tc.output, tc.topK)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
			if explainer.calls != 0 {
				t.Error("validation must happen before the provider call")
			}
		})
	}
}

func TestExtract_NotSupportedPassesThrough(t *testing.T) {
	svc, _ := newTestService(t)

	explainer := &mockExplainer{err: domain.ErrExplainNotSupported}
	_, err := svc.Extract(context.Background(), explainer, "p", "out", 5)
	if !errors.Is(err, domain.ErrExplainNotSupported) {
		t.Fatalf("got %v, want ErrExplainNotSupported", err)
	}
}

func TestExtract_DuplicateSpanKeepsFirstPosition(t *testing.T) {
	svc, _ := newTestService(t)

	// Same text at two offsets; the ordered map keeps one entry.
	promptText := "repeat word repeat"
	explainer := &mockExplainer{spans: []domain.AttributionSpan{
		{Start: 0, Length: 6, Score: 0.9},
		{Start: 12, Length: 6, Score: 0.4},
	}}

	explanation, err := svc.Extract(context.Background(), explainer, promptText, "out", 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if explanation.Len() != 1 {
		t.Fatalf("got %d spans, want 1", explanation.Len())
	}
	if score, _ := explanation.Score("repeat"); score != 0.4 {
		t.Errorf("duplicate should overwrite score, got %v", score)
	}
}
