// Package search runs semantic retrieval against a collection.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
)

// Service handles semantic search requests.
type Service struct {
	selector ClientSelector
	keys     map[domain.Provider]string
	logger   *zap.Logger
}

// New creates a search service.
func New(selector ClientSelector, keys map[domain.Provider]string, logger *zap.Logger) *Service {
	return &Service{selector: selector, keys: keys, logger: logger}
}

// Search resolves the credential, validates the request, and retrieves
// up to Amount documents by descending similarity. Validation happens
// before any provider traffic.
func (s *Service) Search(ctx context.Context, params domain.SearchParams, collection string) ([]domain.ScoredDocument, error) {
	token, err := domain.ResolveCredential(params.Token, params.Provider, s.keys)
	if err != nil {
		return nil, err
	}
	params.Token = token

	if err := params.Validate(); err != nil {
		return nil, err
	}

	client, err := s.selector.Select(params.Provider, params.Token, collection)
	if err != nil {
		return nil, err
	}

	docs, err := client.SimilaritySearch(ctx, params.Query, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	s.logger.Debug("Semantic search completed",
		zap.String("collection", collection),
		zap.String("provider", string(params.Provider)),
		zap.Int("requested", params.Amount),
		zap.Int("returned", len(docs)),
	)
	return docs, nil
}
