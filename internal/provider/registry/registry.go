// Package registry builds provider clients on demand. Each request
// names a provider and a collection; the registry wires the matching
// embedder, a vector store bound to that collection, and the concrete
// client, then wraps the result with instrumentation.
//
// Construction is lazy and touches no network, so selecting a provider
// with a bad endpoint fails on first use, not here.
package registry

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/config"
	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/prompt"
	"github.com/inquira/inquira/internal/provider"
	"github.com/inquira/inquira/internal/provider/alephalpha"
	"github.com/inquira/inquira/internal/provider/cohere"
	"github.com/inquira/inquira/internal/provider/ollama"
	"github.com/inquira/inquira/internal/provider/openai"
	"github.com/inquira/inquira/internal/vectorstore"
)

// Registry selects and assembles provider clients.
type Registry struct {
	conn      vectorstore.Conn
	providers config.ProvidersConfig
	keyPrefix string
	renderer  *prompt.Renderer
	logger    *zap.Logger
}

// New creates a registry over a shared Redis connection.
func New(conn vectorstore.Conn, providers config.ProvidersConfig, keyPrefix string, renderer *prompt.Renderer, logger *zap.Logger) *Registry {
	return &Registry{
		conn:      conn,
		providers: providers,
		keyPrefix: keyPrefix,
		renderer:  renderer,
		logger:    logger,
	}
}

// Select builds the client for a provider, authenticated with token and
// bound to collection. The switch is exhaustive over the provider enum;
// anything else is ErrUnknownProvider.
func (r *Registry) Select(p domain.Provider, token, collection string) (provider.Client, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection must not be empty", domain.ErrInvalidInput)
	}

	var (
		client provider.Client
		err    error
	)

	switch p {
	case domain.ProviderAlephAlpha:
		pc := r.providers.AlephAlpha
		cfg := alephalpha.Config{Token: token, BaseURL: pc.BaseURL, Model: pc.Model, EmbeddingModel: pc.EmbeddingModel}
		client, err = r.buildAlephAlpha(cfg, collection)

	case domain.ProviderOpenAI:
		pc := r.providers.OpenAI
		cfg := openai.Config{Token: token, BaseURL: pc.BaseURL, Model: pc.Model, EmbeddingModel: pc.EmbeddingModel, Name: "openai"}
		client, err = r.buildOpenAI(cfg, collection, openai.VectorDim)

	case domain.ProviderGPT4All:
		pc := r.providers.GPT4All
		cfg := openai.GPT4AllConfig(token, pc.BaseURL)
		if pc.Model != "" {
			cfg.Model = pc.Model
		}
		if pc.EmbeddingModel != "" {
			cfg.EmbeddingModel = pc.EmbeddingModel
		}
		client, err = r.buildOpenAI(cfg, collection, openai.GPT4AllVectorDim)

	case domain.ProviderCohere:
		pc := r.providers.Cohere
		cfg := cohere.Config{Token: token, BaseURL: pc.BaseURL, Model: pc.Model, EmbeddingModel: pc.EmbeddingModel}
		client, err = r.buildCohere(cfg, collection)

	case domain.ProviderOllama:
		pc := r.providers.Ollama
		cfg := ollama.Config{BaseURL: pc.BaseURL, Model: pc.Model, EmbeddingModel: pc.EmbeddingModel}
		client, err = r.buildOllama(cfg, collection)

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, p)
	}

	if err != nil {
		return nil, fmt.Errorf("select provider %s: %w", p, err)
	}
	return provider.NewInstrumented(client, string(p), r.logger), nil
}

func (r *Registry) buildAlephAlpha(cfg alephalpha.Config, collection string) (provider.Client, error) {
	emb, err := alephalpha.NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store := vectorstore.New(r.conn, emb, collection, alephalpha.VectorDim, r.keyPrefix)
	return alephalpha.New(cfg, store)
}

func (r *Registry) buildOpenAI(cfg openai.Config, collection string, dim int) (provider.Client, error) {
	emb, err := openai.NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store := vectorstore.New(r.conn, emb, collection, dim, r.keyPrefix)
	return openai.New(cfg, store, r.renderer)
}

func (r *Registry) buildCohere(cfg cohere.Config, collection string) (provider.Client, error) {
	emb, err := cohere.NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store := vectorstore.New(r.conn, emb, collection, cohere.VectorDim, r.keyPrefix)
	return cohere.New(cfg, store)
}

func (r *Registry) buildOllama(cfg ollama.Config, collection string) (provider.Client, error) {
	emb, err := ollama.NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	store := vectorstore.New(r.conn, emb, collection, ollama.VectorDim, r.keyPrefix)
	return ollama.New(cfg, store, r.renderer)
}
