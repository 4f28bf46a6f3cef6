package domain

import (
	"errors"
	"testing"
)

func TestResolveCredential(t *testing.T) {
	keys := map[Provider]string{
		ProviderAlephAlpha: "example_key_a",
		ProviderOpenAI:     "example_key_o",
	}

	tests := []struct {
		name     string
		token    string
		provider Provider
		want     string
		wantErr  error
	}{
		{name: "explicit token wins", token: "example_token", provider: ProviderOpenAI, want: "example_token"},
		{name: "aleph-alpha falls back to configured key", provider: ProviderAlephAlpha, want: "example_key_a"},
		{name: "openai falls back to configured key", provider: ProviderOpenAI, want: "example_key_o"},
		{name: "gpt4all uses pseudo token", provider: ProviderGPT4All, want: "gpt4all"},
		{name: "ollama uses pseudo token", provider: ProviderOllama, want: "ollama"},
		{name: "unknown provider", provider: Provider("bogus"), wantErr: ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCredential(tt.token, tt.provider, keys)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveCredential_NoKeyConfigured(t *testing.T) {
	_, err := ResolveCredential("", ProviderCohere, nil)
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("got %v, want ErrInvalidCredential", err)
	}
}
