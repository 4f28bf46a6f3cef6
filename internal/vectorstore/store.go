// Package vectorstore implements the retrieval contract over a Redis 8
// FT index: collection management, text ingestion with embeddings, and
// KNN similarity search.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/inquira/inquira/internal/domain"
)

// Hash field names within a collection prefix.
const (
	fieldContent  = "__content"
	fieldMetadata = "__metadata"
	fieldVector   = "__vector"
	fieldScore    = "__vector_score"
)

// Distance is the FT vector distance metric.
type Distance string

const (
	DistanceCosine Distance = "COSINE"
	DistanceL2     Distance = "L2"
	DistanceIP     Distance = "IP"
)

// IndexDefinition describes a collection's FT index.
type IndexDefinition struct {
	Name      string
	Prefix    string
	VectorDim int
	Distance  Distance
}

// HashItem is one document hash to store.
type HashItem struct {
	Key    string
	Fields map[string]string
}

// KNNQuery is a vector similarity query against an index.
type KNNQuery struct {
	IndexName string
	Vector    []float32
	K         int
}

// SearchEntry is one FT.SEARCH hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// Embedder vectorizes texts with a provider's embedding model.
// Documents and queries may use different representations (asymmetric
// embeddings), so the two paths are separate.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Conn is the consumer interface for Redis operations. Satisfied by
// *Client; narrowed so tests can fake it.
type Conn interface {
	CreateIndex(ctx context.Context, def IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []HashItem) error
	SearchKNN(ctx context.Context, q KNNQuery) ([]SearchEntry, error)
}

// Store binds a provider's embedding function to one named collection.
type Store struct {
	conn       Conn
	embedder   Embedder
	collection string
	vectorDim  int
	distance   Distance
	keyPrefix  string
}

// New creates a store for a collection. The distance metric defaults to
// cosine.
func New(c Conn, embedder Embedder, collection string, vectorDim int, keyPrefix string) *Store {
	return &Store{
		conn:       c,
		embedder:   embedder,
		collection: collection,
		vectorDim:  vectorDim,
		distance:   DistanceCosine,
		keyPrefix:  keyPrefix,
	}
}

// WithDistance overrides the distance metric.
func (s *Store) WithDistance(d Distance) *Store {
	s.distance = d
	return s
}

// Collection returns the bound collection name.
func (s *Store) Collection() string { return s.collection }

func (s *Store) indexName() string {
	return fmt.Sprintf("%s%s:idx", s.keyPrefix, s.collection)
}

func (s *Store) docPrefix() string {
	return fmt.Sprintf("%s%s:", s.keyPrefix, s.collection)
}

// EnsureCollection creates the collection index if absent. Idempotent:
// an existing index (including one created concurrently) is a no-op.
func (s *Store) EnsureCollection(ctx context.Context) error {
	exists, err := s.conn.IndexExists(ctx, s.indexName())
	if err != nil {
		return fmt.Errorf("%w: check collection %s: %w", domain.ErrRetrieval, s.collection, err)
	}
	if exists {
		return nil
	}

	err = s.conn.CreateIndex(ctx, IndexDefinition{
		Name:      s.indexName(),
		Prefix:    s.docPrefix(),
		VectorDim: s.vectorDim,
		Distance:  s.distance,
	})
	if errors.Is(err, ErrIndexExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: create collection %s: %w", domain.ErrRetrieval, s.collection, err)
	}
	return nil
}

// AddTexts embeds texts and upserts them into the collection. texts and
// metadatas must have equal length; empty input is a no-op success.
func (s *Store) AddTexts(ctx context.Context, texts, metadatas []string) error {
	if len(texts) != len(metadatas) {
		return fmt.Errorf("%w: got %d texts but %d metadatas", domain.ErrInvalidInput, len(texts), len(metadatas))
	}
	if len(texts) == 0 {
		return nil
	}

	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d documents: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d texts", domain.ErrEmptyResponse, len(vectors), len(texts))
	}

	items := make([]HashItem, len(texts))
	for i := range texts {
		items[i] = HashItem{
			Key: s.docPrefix() + uuid.NewString(),
			Fields: map[string]string{
				fieldContent:  texts[i],
				fieldMetadata: metadatas[i],
				fieldVector:   vectorToBytes(vectors[i]),
			},
		}
	}

	if err := s.conn.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: store %d documents in %s: %w", domain.ErrRetrieval, len(items), s.collection, err)
	}
	return nil
}

// SimilaritySearchWithScore embeds the query and returns up to k
// documents ordered by descending similarity score.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrInvalidInput, k)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	entries, err := s.conn.SearchKNN(ctx, KNNQuery{
		IndexName: s.indexName(),
		Vector:    vector,
		K:         k,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrRetrieval, s.collection, err)
	}

	docs := make([]domain.ScoredDocument, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, domain.ScoredDocument{
			Document: domain.Document{
				Content:  e.Fields[fieldContent],
				Metadata: e.Fields[fieldMetadata],
			},
			Score: e.Score,
		})
	}

	// FT.SEARCH sorts by ascending distance; enforce the descending
	// similarity contract regardless of backend behavior.
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score > docs[j].Score })

	return docs, nil
}
