// Package cohere implements the provider client for the Cohere API.
// Cohere ships a native summarization endpoint and asymmetric embedding
// input types, but no attribution endpoint.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/cohere-ai/cohere-go/v2"
	sdkclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/provider"
)

// VectorDim is the embed-english-v3.0 output dimension.
const VectorDim = 1024

const (
	defaultModel          = "command"
	defaultEmbeddingModel = "embed-english-v3.0"
)

// Config holds the Cohere client settings.
type Config struct {
	Token          string
	BaseURL        string
	Model          string
	EmbeddingModel string
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = defaultEmbeddingModel
	}
}

func newSDKClient(cfg *Config) (*sdkclient.Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: cohere token must not be empty", domain.ErrInvalidCredential)
	}
	cfg.applyDefaults()

	opts := []option.RequestOption{option.WithToken(cfg.Token)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return sdkclient.NewClient(opts...), nil
}

// Client implements provider.Client on the Cohere chat and
// summarization endpoints.
type Client struct {
	provider.VectorOps
	cfg Config
	sdk *sdkclient.Client
}

var _ provider.Client = (*Client)(nil)

// New creates a Cohere client bound to a vector store.
func New(cfg Config, store provider.VectorStore) (*Client, error) {
	c, err := newSDKClient(&cfg)
	if err != nil {
		return nil, err
	}
	return &Client{VectorOps: provider.NewVectorOps(store), cfg: cfg, sdk: c}, nil
}

// Complete sends the prompt as a single chat message.
func (c *Client) Complete(ctx context.Context, p string, opts *provider.CompleteOptions) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", domain.ErrInvalidInput)
	}
	opts = opts.WithDefaults()

	resp, err := c.sdk.Chat(ctx, &sdk.ChatRequest{
		Message:       p,
		Model:         &c.cfg.Model,
		MaxTokens:     &opts.MaxTokens,
		StopSequences: opts.StopSequences,
	})
	if err != nil {
		return "", translate("chat", err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: no completion returned", domain.ErrEmptyResponse)
	}
	return resp.Text, nil
}

// Summarize runs the native summarization endpoint.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text must not be empty", domain.ErrInvalidInput)
	}

	resp, err := c.sdk.Summarize(ctx, &sdk.SummarizeRequest{Text: text})
	if err != nil {
		return "", translate("summarize", err)
	}
	if resp.Summary == nil || *resp.Summary == "" {
		return "", fmt.Errorf("%w: summary is empty", domain.ErrEmptyResponse)
	}
	return *resp.Summary, nil
}

// Explain is not available on this API surface.
func (c *Client) Explain(_ context.Context, _, _ string) ([]domain.AttributionSpan, error) {
	return nil, fmt.Errorf("%w: cohere has no attribution endpoint", domain.ErrExplainNotSupported)
}

// translate maps SDK errors onto domain errors. A context window
// overflow comes back as a 400 complaining about token count.
func translate(op string, err error) error {
	var badReq *sdk.BadRequestError
	if errors.As(err, &badReq) && strings.Contains(strings.ToLower(err.Error()), "too many tokens") {
		return domain.NewContextLength("cohere", err.Error())
	}
	var unauthorized *sdk.UnauthorizedError
	if errors.As(err, &unauthorized) {
		return fmt.Errorf("%w: cohere rejected the token", domain.ErrInvalidCredential)
	}
	return fmt.Errorf("%w: cohere %s: %w", domain.ErrProviderCall, op, err)
}

// Embedder implements vectorstore.Embedder with asymmetric input
// types: search_document for ingestion, search_query for retrieval.
type Embedder struct {
	cfg Config
	sdk *sdkclient.Client
}

// NewEmbedder creates a standalone embedder from the same config.
func NewEmbedder(cfg Config) (*Embedder, error) {
	c, err := newSDKClient(&cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{cfg: cfg, sdk: c}, nil
}

// EmbedDocuments embeds all texts in a single batched request.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, sdk.EmbedInputTypeSearchDocument)
}

// EmbedQuery embeds a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, sdk.EmbedInputTypeSearchQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) embed(ctx context.Context, texts []string, inputType sdk.EmbedInputType) ([][]float32, error) {
	resp, err := e.sdk.Embed(ctx, &sdk.EmbedRequest{
		Texts:     texts,
		Model:     &e.cfg.EmbeddingModel,
		InputType: inputType.Ptr(),
	})
	if err != nil {
		return nil, translate("embed", err)
	}
	if resp.EmbeddingsFloats == nil || len(resp.EmbeddingsFloats.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: embeddings missing from response", domain.ErrEmptyResponse)
	}

	out := make([][]float32, len(texts))
	for i, vec := range resp.EmbeddingsFloats.Embeddings {
		f32 := make([]float32, len(vec))
		for j, v := range vec {
			f32[j] = float32(v)
		}
		out[i] = f32
	}
	return out, nil
}
