package search

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/inquira/inquira/internal/domain"
	"github.com/inquira/inquira/internal/provider"
)

type mockClient struct {
	provider.Client

	docs        []domain.ScoredDocument
	searchErr   error
	searchCalls int
	lastQuery   string
	lastK       int
}

func (m *mockClient) SimilaritySearch(_ context.Context, query string, k int) ([]domain.ScoredDocument, error) {
	m.searchCalls++
	m.lastQuery = query
	m.lastK = k
	return m.docs, m.searchErr
}

type mockSelector struct {
	client      *mockClient
	selectCalls int
}

func (m *mockSelector) Select(_ domain.Provider, _, _ string) (provider.Client, error) {
	m.selectCalls++
	return m.client, nil
}

func newTestService(sel *mockSelector) *Service {
	return New(sel, map[domain.Provider]string{domain.ProviderAlephAlpha: "aa-key"}, zap.NewNop())
}

func TestSearch_ReturnsDocuments(t *testing.T) {
	sel := &mockSelector{client: &mockClient{
		docs: []domain.ScoredDocument{
			{Document: domain.Document{Content: "hit"}, Score: 0.91},
		},
	}}
	svc := newTestService(sel)

	params := domain.SearchParams{Query: "where is it", Provider: domain.ProviderAlephAlpha, Token: "tok", Amount: 3}
	docs, err := svc.Search(context.Background(), params, "docs")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(docs) != 1 || docs[0].Document.Content != "hit" {
		t.Errorf("got %+v", docs)
	}
	if sel.client.lastQuery != "where is it" || sel.client.lastK != 3 {
		t.Errorf("query passed through wrong: %q k=%d", sel.client.lastQuery, sel.client.lastK)
	}
}

func TestSearch_ValidatesBeforeAnyCall(t *testing.T) {
	cases := []struct {
		name   string
		params domain.SearchParams
		want   error
	}{
		{"empty query", domain.SearchParams{Provider: domain.ProviderAlephAlpha, Token: "t", Amount: 1}, domain.ErrInvalidInput},
		{"zero amount", domain.SearchParams{Query: "q", Provider: domain.ProviderAlephAlpha, Token: "t"}, domain.ErrInvalidInput},
		{"no credential", domain.SearchParams{Query: "q", Provider: domain.ProviderOpenAI, Amount: 1}, domain.ErrInvalidCredential},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sel := &mockSelector{client: &mockClient{}}
			svc := newTestService(sel)

			_, err := svc.Search(context.Background(), tc.params, "docs")
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			if sel.selectCalls != 0 || sel.client.searchCalls != 0 {
				t.Error("no provider call may happen for invalid params")
			}
		})
	}
}

func TestSearch_ConfiguredKeyFallback(t *testing.T) {
	sel := &mockSelector{client: &mockClient{}}
	svc := newTestService(sel)

	params := domain.SearchParams{Query: "q", Provider: domain.ProviderAlephAlpha, Amount: 1}
	if _, err := svc.Search(context.Background(), params, "docs"); err != nil {
		t.Fatalf("Search with configured key: %v", err)
	}
	if sel.client.searchCalls != 1 {
		t.Error("search should run with the configured key")
	}
}

func TestSearch_RetrievalFailure(t *testing.T) {
	sel := &mockSelector{client: &mockClient{searchErr: domain.ErrRetrieval}}
	svc := newTestService(sel)

	params := domain.SearchParams{Query: "q", Provider: domain.ProviderAlephAlpha, Token: "t", Amount: 1}
	_, err := svc.Search(context.Background(), params, "docs")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("got %v, want ErrRetrieval", err)
	}
}
