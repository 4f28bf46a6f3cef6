// Package ollama implements the provider client for a local Ollama
// server. Completion uses the generate endpoint with streaming turned
// off; summarization is completion-backed; explanation is unsupported.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
	"github.com/inquira/inquira/internal/provider"
)

// VectorDim is the nomic-embed-text output dimension.
const VectorDim = 768

const (
	DefaultBaseURL = "http://localhost:11434"

	defaultModel          = "llama3.2"
	defaultEmbeddingModel = "nomic-embed-text"
)

// Config holds the Ollama client settings. No token is required; the
// server is local.
type Config struct {
	BaseURL        string
	Model          string
	EmbeddingModel string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaultEmbeddingModel
	}
}

func newSDKClient(cfg *Config) (*api.Client, error) {
	cfg.applyDefaults()
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ollama base URL %q: %w", domain.ErrInvalidInput, cfg.BaseURL, err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

// Client implements provider.Client on the Ollama generate endpoint.
type Client struct {
	provider.VectorOps
	cfg      Config
	sdk      *api.Client
	renderer *prompt.Renderer
}

var _ provider.Client = (*Client)(nil)

// New creates an Ollama client bound to a vector store.
func New(cfg Config, store provider.VectorStore, renderer *prompt.Renderer) (*Client, error) {
	sdk, err := newSDKClient(&cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		VectorOps: provider.NewVectorOps(store),
		cfg:       cfg,
		sdk:       sdk,
		renderer:  renderer,
	}, nil
}

// Complete generates text for the prompt in a single non-streamed call.
func (c *Client) Complete(ctx context.Context, p string, opts *provider.CompleteOptions) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", domain.ErrInvalidInput)
	}
	opts = opts.WithDefaults()

	stream := false
	req := &api.GenerateRequest{
		Model:  c.cfg.Model,
		Prompt: p,
		Stream: &stream,
		Options: map[string]any{
			"num_predict": opts.MaxTokens,
			"stop":        opts.StopSequences,
		},
	}

	var out strings.Builder
	err := c.sdk.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generate: %w", domain.ErrProviderCall, err)
	}

	if strings.TrimSpace(out.String()) == "" {
		return "", fmt.Errorf("%w: no completion returned", domain.ErrEmptyResponse)
	}
	return out.String(), nil
}

// Summarize runs the summarization template through generate.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return provider.SummarizeViaCompletion(ctx, c, c.renderer, text)
}

// Explain is not available on this API surface.
func (c *Client) Explain(_ context.Context, _, _ string) ([]domain.AttributionSpan, error) {
	return nil, fmt.Errorf("%w: ollama has no attribution endpoint", domain.ErrExplainNotSupported)
}

// Embedder implements vectorstore.Embedder on the Ollama embed
// endpoint. Embeddings are symmetric.
type Embedder struct {
	cfg Config
	sdk *api.Client
}

// NewEmbedder creates a standalone embedder from the same config.
func NewEmbedder(cfg Config) (*Embedder, error) {
	sdk, err := newSDKClient(&cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{cfg: cfg, sdk: sdk}, nil
}

// EmbedDocuments embeds all texts in a single batched request.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.sdk.Embed(ctx, &api.EmbedRequest{
		Model: e.cfg.EmbeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed: %w", domain.ErrProviderCall, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrEmptyResponse, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// EmbedQuery embeds a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
