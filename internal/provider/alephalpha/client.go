// Package alephalpha implements the provider client for the Aleph Alpha
// Luminous API. No Go SDK exists, so the client speaks the JSON API
// directly. It is the only provider with a native explanation endpoint.
package alephalpha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/provider"
)

const (
	DefaultBaseURL = "https://api.aleph-alpha.com"

	defaultModel          = "luminous-extended-control"
	summarizationModel    = "luminous-extended"
	defaultEmbeddingModel = "luminous-base"

	// Asymmetric embeddings compressed to 128 dimensions.
	VectorDim = 128

	explainControlFactor = 0.1
	explainGranularity   = "sentence"
)

// Config holds the Aleph Alpha client settings.
type Config struct {
	Token          string
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

// api is the shared JSON transport for Client and Embedder.
type api struct {
	cfg  Config
	http *http.Client
}

func newAPI(cfg Config) (*api, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: aleph-alpha token must not be empty", domain.ErrInvalidCredential)
	}
	cfg.applyDefaults()
	return &api{cfg: cfg, http: &http.Client{Timeout: 120 * time.Second}}, nil
}

// Client implements provider.Client against the Luminous API.
type Client struct {
	provider.VectorOps
	api *api
}

var _ provider.Client = (*Client)(nil)

// New creates an Aleph Alpha client bound to a vector store.
func New(cfg Config, store provider.VectorStore) (*Client, error) {
	a, err := newAPI(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{VectorOps: provider.NewVectorOps(store), api: a}, nil
}

type completionRequest struct {
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt"`
	MaximumTokens int      `json:"maximum_tokens"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

type completionResponse struct {
	Completions []struct {
		Completion string `json:"completion"`
	} `json:"completions"`
}

// Complete sends a single-shot completion request.
func (c *Client) Complete(ctx context.Context, prompt string, opts *provider.CompleteOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", domain.ErrInvalidInput)
	}
	opts = opts.WithDefaults()

	var resp completionResponse
	err := c.api.post(ctx, "/complete", completionRequest{
		Model:         c.api.cfg.Model,
		Prompt:        prompt,
		MaximumTokens: opts.MaxTokens,
		StopSequences: opts.StopSequences,
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Completions) == 0 {
		return "", fmt.Errorf("%w: no completions returned", domain.ErrEmptyResponse)
	}
	if resp.Completions[0].Completion == "" {
		return "", fmt.Errorf("%w: completion is empty", domain.ErrEmptyResponse)
	}
	return resp.Completions[0].Completion, nil
}

type summarizationRequest struct {
	Model    string `json:"model"`
	Document struct {
		Text string `json:"text"`
	} `json:"document"`
}

type summarizationResponse struct {
	Summary string `json:"summary"`
}

// Summarize runs the native summarization endpoint.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: text must not be empty", domain.ErrInvalidInput)
	}

	req := summarizationRequest{Model: summarizationModel}
	req.Document.Text = text

	var resp summarizationResponse
	if err := c.api.post(ctx, "/summarize", req, &resp); err != nil {
		return "", err
	}
	if resp.Summary == "" {
		return "", fmt.Errorf("%w: summary is empty", domain.ErrEmptyResponse)
	}
	return resp.Summary, nil
}

type explanationRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	Target            string  `json:"target"`
	ControlFactor     float64 `json:"control_factor"`
	PromptGranularity string  `json:"prompt_granularity"`
}

type explanationResponse struct {
	Explanations []struct {
		Items []struct {
			Scores []struct {
				Start  int     `json:"start"`
				Length int     `json:"length"`
				Score  float64 `json:"score"`
			} `json:"scores"`
		} `json:"items"`
	} `json:"explanations"`
}

// Explain returns raw attribution spans in API order. Sorting and
// filtering are the extractor's job.
func (c *Client) Explain(ctx context.Context, prompt, output string) ([]domain.AttributionSpan, error) {
	if prompt == "" || output == "" {
		return nil, fmt.Errorf("%w: prompt and output must not be empty", domain.ErrInvalidInput)
	}

	var resp explanationResponse
	err := c.api.post(ctx, "/explain", explanationRequest{
		Model:             c.api.cfg.Model,
		Prompt:            prompt,
		Target:            output,
		ControlFactor:     explainControlFactor,
		PromptGranularity: explainGranularity,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Explanations) == 0 || len(resp.Explanations[0].Items) == 0 {
		return nil, fmt.Errorf("%w: no explanation items returned", domain.ErrEmptyResponse)
	}

	raw := resp.Explanations[0].Items[0].Scores
	spans := make([]domain.AttributionSpan, 0, len(raw))
	for _, s := range raw {
		spans = append(spans, domain.AttributionSpan{Start: s.Start, Length: s.Length, Score: s.Score})
	}
	return spans, nil
}

// Embedder implements vectorstore.Embedder with asymmetric semantic
// embeddings: documents and queries use different representations.
type Embedder struct {
	api *api
}

// NewEmbedder creates a standalone embedder from the same config.
func NewEmbedder(cfg Config) (*Embedder, error) {
	a, err := newAPI(cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{api: a}, nil
}

type embeddingRequest struct {
	Model          string `json:"model"`
	Representation string `json:"representation"`
	Prompt         string `json:"prompt"`
	CompressToSize int    `json:"compress_to_size"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedDocuments embeds texts with the document representation.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embed(ctx, text, "document")
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedQuery embeds a query with the query representation.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text, "query")
}

func (e *Embedder) embed(ctx context.Context, text, representation string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", domain.ErrInvalidInput)
	}

	var resp embeddingResponse
	err := e.api.post(ctx, "/semantic_embed", embeddingRequest{
		Model:          e.api.cfg.EmbeddingModel,
		Representation: representation,
		Prompt:         text,
		CompressToSize: VectorDim,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", domain.ErrEmptyResponse)
	}
	return resp.Embedding, nil
}

type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// post sends a JSON request and decodes the JSON response, translating
// API failures into domain errors. The PROMPT_TOO_LONG code becomes a
// typed ContextLengthError so the QA fallback can branch on it.
func (a *api) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.Token)

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: aleph-alpha %s: %w", domain.ErrProviderCall, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrProviderCall, err)
	}

	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Code == "PROMPT_TOO_LONG" {
			return domain.NewContextLength("aleph-alpha", ae.Error)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: aleph-alpha rejected the token", domain.ErrInvalidCredential)
		}
		return fmt.Errorf("%w: aleph-alpha %s returned %d: %s", domain.ErrProviderCall, path, resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrProviderCall, err)
	}
	return nil
}
