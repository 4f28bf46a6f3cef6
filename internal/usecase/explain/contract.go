package explain

import (
	"context"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/provider"
)

// ClientSelector builds the provider client for a request.
type ClientSelector interface {
	Select(p domain.Provider, token, collection string) (provider.Client, error)
}

// Explainer is the capability the extractor consumes.
type Explainer interface {
	Explain(ctx context.Context, prompt, output string) ([]domain.AttributionSpan, error)
}
