package domain

import "fmt"

// Provider identifies an LLM/embedding backend. The set is fixed at
// compile time; adding a provider means adding a constant here and a
// case in the provider registry.
type Provider string

const (
	ProviderAlephAlpha Provider = "aleph-alpha"
	ProviderOpenAI     Provider = "openai"
	ProviderGPT4All    Provider = "gpt4all"
	ProviderCohere     Provider = "cohere"
	ProviderOllama     Provider = "ollama"
)

// Providers lists every registered provider identifier.
func Providers() []Provider {
	return []Provider{
		ProviderAlephAlpha,
		ProviderOpenAI,
		ProviderGPT4All,
		ProviderCohere,
		ProviderOllama,
	}
}

// ParseProvider validates a raw identifier against the registered set.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderAlephAlpha, ProviderOpenAI, ProviderGPT4All, ProviderCohere, ProviderOllama:
		return Provider(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
}

// Local reports whether the provider runs locally and needs no API token.
func (p Provider) Local() bool {
	return p == ProviderGPT4All || p == ProviderOllama
}
