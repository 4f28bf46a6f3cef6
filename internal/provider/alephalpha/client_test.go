package alephalpha

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inquira/inquira/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{Token: "test-token", BaseURL: srv.URL}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestNew_EmptyToken(t *testing.T) {
	_, err := New(Config{}, nil)
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("got %v, want ErrInvalidCredential", err)
	}
}

func TestComplete_OK(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/complete" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("auth header: got %q", got)
		}

		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MaximumTokens != 256 {
			t.Errorf("maximum_tokens: got %d, want 256", req.MaximumTokens)
		}
		if len(req.StopSequences) != 1 || req.StopSequences[0] != "###" {
			t.Errorf("stop_sequences: got %v", req.StopSequences)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"completions": []map[string]string{{"completion": " The answer is 42."}},
		})
	}))

	out, err := c.Complete(context.Background(), "What is the answer?", nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != " The answer is 42." {
		t.Errorf("got %q", out)
	}
}

func TestComplete_EmptyCompletion(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"completions": []map[string]string{{"completion": ""}},
		})
	}))

	_, err := c.Complete(context.Background(), "prompt", nil)
	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Fatalf("got %v, want ErrEmptyResponse", err)
	}
}

func TestComplete_PromptTooLong(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "prompt exceeds the maximum context size",
			"code":  "PROMPT_TOO_LONG",
		})
	}))

	_, err := c.Complete(context.Background(), "very long prompt", nil)
	if !errors.Is(err, domain.ErrContextLength) {
		t.Fatalf("got %v, want ErrContextLength", err)
	}

	var cle *domain.ContextLengthError
	if !errors.As(err, &cle) {
		t.Fatalf("error is not a ContextLengthError: %v", err)
	}
	if cle.Provider != "aleph-alpha" {
		t.Errorf("provider: got %q", cle.Provider)
	}
}

func TestComplete_Unauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))

	_, err := c.Complete(context.Background(), "prompt", nil)
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("got %v, want ErrInvalidCredential", err)
	}
}

func TestSummarize_OK(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/summarize" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		var req summarizationRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != summarizationModel {
			t.Errorf("model: got %q", req.Model)
		}
		if req.Document.Text != "long text" {
			t.Errorf("document text: got %q", req.Document.Text)
		}
		json.NewEncoder(w).Encode(map[string]string{"summary": "short text"})
	}))

	out, err := c.Summarize(context.Background(), "long text")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "short text" {
		t.Errorf("got %q", out)
	}
}

func TestExplain_PreservesAPIOrder(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/explain" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		var req explanationRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ControlFactor != explainControlFactor {
			t.Errorf("control_factor: got %v", req.ControlFactor)
		}
		if req.PromptGranularity != explainGranularity {
			t.Errorf("prompt_granularity: got %q", req.PromptGranularity)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"explanations": []map[string]any{{
				"items": []map[string]any{{
					"scores": []map[string]any{
						{"start": 0, "length": 10, "score": 0.1},
						{"start": 10, "length": 5, "score": 0.9},
					},
				}},
			}},
		})
	}))

	spans, err := c.Explain(context.Background(), "prompt", "output")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans", len(spans))
	}
	// Raw API order, the extractor sorts later.
	if spans[0].Start != 0 || spans[1].Start != 10 {
		t.Errorf("order changed: %+v", spans)
	}
	if spans[1].Score != 0.9 {
		t.Errorf("score: got %v", spans[1].Score)
	}
}

func TestEmbedder_AsymmetricRepresentations(t *testing.T) {
	var representations []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		representations = append(representations, req.Representation)
		if req.CompressToSize != VectorDim {
			t.Errorf("compress_to_size: got %d, want %d", req.CompressToSize, VectorDim)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2}})
	}))
	t.Cleanup(srv.Close)

	e, err := NewEmbedder(Config{Token: "test-token", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}

	ctx := context.Background()
	if _, err := e.EmbedDocuments(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if _, err := e.EmbedQuery(ctx, "q"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}

	want := []string{"document", "document", "query"}
	if len(representations) != len(want) {
		t.Fatalf("requests: got %v", representations)
	}
	for i, rep := range want {
		if representations[i] != rep {
			t.Errorf("request %d representation: got %q, want %q", i, representations[i], rep)
		}
	}
}
