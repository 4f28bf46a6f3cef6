package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:        HTTPConfig{Port: 8080},
		VectorStore: VectorStoreConfig{Addrs: []string{"localhost:6379"}, KeyPrefix: "inquira:"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d: expected error", port)
		}
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.VectorStore.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing vector_store.addrs")
	}
}

func TestValidate_BadKeyPrefix(t *testing.T) {
	cfg := validConfig()
	cfg.VectorStore.KeyPrefix = "inquira"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for key prefix without trailing colon")
	}
	if !strings.Contains(err.Error(), "key_prefix") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.QA.MaxTokens != 256 {
		t.Errorf("qa.max_tokens: got %d, want 256", cfg.QA.MaxTokens)
	}
	if cfg.QA.SummaryConcurrency != 4 {
		t.Errorf("qa.summary_concurrency: got %d, want 4", cfg.QA.SummaryConcurrency)
	}
	if cfg.VectorStore.KeyPrefix != "inquira:" {
		t.Errorf("key_prefix: got %q", cfg.VectorStore.KeyPrefix)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("shutdown_timeout_sec: got %d, want 10", cfg.HTTP.ShutdownSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("INQUIRA_TEST_KEY", "secret-value")

	in := []byte("api_key: ${INQUIRA_TEST_KEY}\nbase_url: ${INQUIRA_TEST_MISSING:-http://localhost:11434}\n")
	out := string(expandEnvVars(in))

	if !strings.Contains(out, "secret-value") {
		t.Errorf("env var not expanded: %q", out)
	}
	if !strings.Contains(out, "http://localhost:11434") {
		t.Errorf("default not applied: %q", out)
	}
}
