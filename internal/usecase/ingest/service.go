// Package ingest embeds documents and raw text into a collection.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
)

// DefaultSeparator splits raw text into paragraphs when the caller
// does not supply one.
const DefaultSeparator = "\n\n"

// Service handles document and text ingestion.
type Service struct {
	selector ClientSelector
	keys     map[domain.Provider]string
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(selector ClientSelector, keys map[domain.Provider]string, logger *zap.Logger) *Service {
	return &Service{selector: selector, keys: keys, logger: logger}
}

// CreateCollection ensures the collection's index exists for the given
// provider's vector dimension. Idempotent.
func (s *Service) CreateCollection(ctx context.Context, p domain.Provider, token, collection string) error {
	resolved, err := domain.ResolveCredential(token, p, s.keys)
	if err != nil {
		return err
	}

	client, err := s.selector.Select(p, resolved, collection)
	if err != nil {
		return err
	}

	if err := client.CreateCollection(ctx); err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}

	s.logger.Info("Collection created",
		zap.String("collection", collection),
		zap.String("provider", string(p)),
	)
	return nil
}

// IngestDocuments embeds documents into a collection. Empty input is a
// no-op success; the count of stored documents is returned.
func (s *Service) IngestDocuments(ctx context.Context, p domain.Provider, token, collection string, docs []domain.Document) (int, error) {
	resolved, err := domain.ResolveCredential(token, p, s.keys)
	if err != nil {
		return 0, err
	}

	client, err := s.selector.Select(p, resolved, collection)
	if err != nil {
		return 0, err
	}

	if err := client.EmbedAndStore(ctx, docs); err != nil {
		return 0, fmt.Errorf("ingest %d documents into %s: %w", len(docs), collection, err)
	}

	s.logger.Info("Documents ingested",
		zap.String("collection", collection),
		zap.String("provider", string(p)),
		zap.Int("count", len(docs)),
	)
	return len(docs), nil
}

// IngestText splits raw text on separator and embeds the non-blank
// segments. Each segment gets metadata "<name>_<i>" by stored position.
// Text with no usable segments is an ErrInvalidInput.
func (s *Service) IngestText(ctx context.Context, p domain.Provider, token, collection, name, text, separator string) (int, error) {
	docs, err := SplitText(name, text, separator)
	if err != nil {
		return 0, err
	}
	return s.IngestDocuments(ctx, p, token, collection, docs)
}

// SplitText turns raw text into documents. Blank segments are dropped;
// indices count only the kept segments.
func SplitText(name, text, separator string) ([]domain.Document, error) {
	if separator == "" {
		separator = DefaultSeparator
	}

	var docs []domain.Document
	for _, segment := range strings.Split(text, separator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Content:  segment,
			Metadata: fmt.Sprintf("%s_%d", name, len(docs)),
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: text contains no usable segments", domain.ErrInvalidInput)
	}
	return docs, nil
}
