// Package openai implements the provider client for OpenAI-compatible
// APIs. The same client backs the hosted OpenAI service and a local
// GPT4All instance, which exposes the identical chat surface on a
// custom base URL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
	"github.com/inquira/inquira/internal/provider"
)

// Vector dimensions per embedding model.
const (
	VectorDim        = 1536 // text-embedding-ada-002
	GPT4AllVectorDim = 384  // all-MiniLM-L6-v2 served by gpt4all
)

const (
	defaultModel          = "gpt-3.5-turbo"
	defaultEmbeddingModel = string(goopenai.AdaEmbeddingV2)

	// Local gpt4all defaults. The pseudo-token satisfies the SDK's
	// auth header; the local server ignores it.
	GPT4AllBaseURL        = "http://localhost:4891/v1"
	gpt4allModel          = "ggml-model-gpt4all-falcon-q4_0"
	gpt4allEmbeddingModel = "all-MiniLM-L6-v2"
)

// Config holds the client settings. A non-empty BaseURL switches the
// SDK to a compatible self-hosted endpoint.
type Config struct {
	Token          string
	BaseURL        string
	Model          string
	EmbeddingModel string

	// Name is the provider label used in error messages, "openai" or
	// "gpt4all".
	Name string
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "openai"
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaultEmbeddingModel
	}
}

// GPT4AllConfig returns a config preset for a local gpt4all server.
func GPT4AllConfig(token, baseURL string) Config {
	if baseURL == "" {
		baseURL = GPT4AllBaseURL
	}
	return Config{
		Token:          token,
		BaseURL:        baseURL,
		Model:          gpt4allModel,
		EmbeddingModel: gpt4allEmbeddingModel,
		Name:           "gpt4all",
	}
}

func newSDKClient(cfg *Config) (*goopenai.Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: %s token must not be empty", domain.ErrInvalidCredential, cfg.Name)
	}
	cfg.applyDefaults()
	sdkCfg := goopenai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		sdkCfg.BaseURL = cfg.BaseURL
	}
	return goopenai.NewClientWithConfig(sdkCfg), nil
}

// Client implements provider.Client through the chat completion API.
// Summarization is completion-backed since the API has no dedicated
// endpoint, and explanation is not supported.
type Client struct {
	provider.VectorOps
	cfg      Config
	sdk      *goopenai.Client
	renderer *prompt.Renderer
}

var _ provider.Client = (*Client)(nil)

// New creates a client bound to a vector store.
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

// Complete sends the prompt as a single user message.
func (c *Client) Complete(ctx context.Context, p string, opts *provider.CompleteOptions) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", domain.ErrInvalidInput)
	}
	opts = opts.WithDefaults()

	resp, err := c.sdk.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     c.cfg.Model,
		MaxTokens: opts.MaxTokens,
		Stop:      opts.StopSequences,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: p},
		},
	})
	if err != nil {
		return "", c.translate("chat completion", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no completion returned", domain.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize runs the summarization template through the chat API.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return provider.SummarizeViaCompletion(ctx, c, c.renderer, text)
}

// Explain is not available on this API surface.
func (c *Client) Explain(_ context.Context, _, _ string) ([]domain.AttributionSpan, error) {
	return nil, fmt.Errorf("%w: %s has no attribution endpoint", domain.ErrExplainNotSupported, c.cfg.Name)
}

// translate maps SDK errors onto domain errors. The context window
// overflow arrives as a typed APIError with a stable code.
func (c *Client) translate(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
			return domain.NewContextLength(c.cfg.Name, apiErr.Message)
		}
		if apiErr.HTTPStatusCode == 401 {
			return fmt.Errorf("%w: %s rejected the token", domain.ErrInvalidCredential, c.cfg.Name)
		}
	}
	return fmt.Errorf("%w: %s %s: %w", domain.ErrProviderCall, c.cfg.Name, op, err)
}

// Embedder implements vectorstore.Embedder. OpenAI embeddings are
// symmetric, so documents and queries share one code path.
type Embedder struct {
	cfg Config
	sdk *goopenai.Client
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
	resp, err := e.sdk.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Model: goopenai.EmbeddingModel(e.cfg.EmbeddingModel),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s embeddings: %w", domain.ErrProviderCall, e.cfg.Name, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrEmptyResponse, len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// EmbedQuery embeds a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
