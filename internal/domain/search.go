package domain

import "fmt"

// SearchParams carries a semantic search request. Validated at the
// boundary of every provider call, before any network traffic.
type SearchParams struct {
	Query    string
	Provider Provider
	Token    string
	Amount   int
}

// Validate checks the params. Violations are client errors, never
// provider errors.
func (p SearchParams) Validate() error {
	if p.Token == "" {
		return fmt.Errorf("%w: token must not be empty", ErrInvalidCredential)
	}
	if p.Query == "" {
		return fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	if p.Amount < 1 {
		return fmt.Errorf("%w: amount must be at least 1, got %d", ErrInvalidInput, p.Amount)
	}
	return nil
}
