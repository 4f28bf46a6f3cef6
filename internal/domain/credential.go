package domain

import "fmt"

// ResolveCredential picks the effective API token for a provider call.
// An explicit token always wins. Otherwise the configured key for the
// provider is used; local providers fall back to a static pseudo-token
// equal to their own name. No resolvable credential is an
// ErrInvalidCredential.
func ResolveCredential(token string, provider Provider, keys map[Provider]string) (string, error) {
	if token != "" {
		return token, nil
	}

	switch {
	case provider.Local():
		return string(provider), nil
	case provider == ProviderAlephAlpha, provider == ProviderOpenAI, provider == ProviderCohere:
		if key := keys[provider]; key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%w: no token given and no API key configured for %s", ErrInvalidCredential, provider)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
