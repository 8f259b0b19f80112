package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEYS", "OPENAI_API_KEY", "QUEUE_CAPACITY", "BACKOFF_BASE_SECONDS", "BACKOFF_MAX_SECONDS", "BACKOFF_GROWTH", "OPENAI_TIMEOUT_SECONDS", "PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.QueueCapacity != 10 || cfg.MaxInputLength != 5000 {
		t.Fatalf("queue defaults mismatch: %d / %d", cfg.QueueCapacity, cfg.MaxInputLength)
	}
	if cfg.BackoffBase != 5*time.Second || cfg.BackoffMax != 60*time.Second || cfg.BackoffGrowth != 1.5 {
		t.Fatalf("backoff defaults mismatch: %s %s %v", cfg.BackoffBase, cfg.BackoffMax, cfg.BackoffGrowth)
	}
	if cfg.OpenAITimeout != 0 {
		t.Fatalf("OpenAITimeout = %s, want unbounded", cfg.OpenAITimeout)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" {
		t.Fatalf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if len(cfg.OpenAIAPIKeys) != 0 {
		t.Fatalf("expected no keys, got %v", cfg.OpenAIAPIKeys)
	}
}

func TestLoadConfigAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEYS", " sk-a, ,sk-b ,")
	t.Setenv("OPENAI_API_KEY", "sk-single")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"sk-a", "sk-b"}
	if len(cfg.OpenAIAPIKeys) != len(expected) {
		t.Fatalf("OpenAIAPIKeys mismatch: got %#v want %#v", cfg.OpenAIAPIKeys, expected)
	}
	for i, key := range expected {
		if cfg.OpenAIAPIKeys[i] != key {
			t.Fatalf("OpenAIAPIKeys[%d] = %q, want %q", i, cfg.OpenAIAPIKeys[i], key)
		}
	}
}

func TestLoadConfigFallsBackToSingleKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEYS", "")
	t.Setenv("OPENAI_API_KEY", "sk-single")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if len(cfg.OpenAIAPIKeys) != 1 || cfg.OpenAIAPIKeys[0] != "sk-single" {
		t.Fatalf("OpenAIAPIKeys = %#v", cfg.OpenAIAPIKeys)
	}
}

func TestLoadConfigFractionalBackoff(t *testing.T) {
	t.Setenv("BACKOFF_BASE_SECONDS", "0.5")
	t.Setenv("BACKOFF_MAX_SECONDS", "30")
	t.Setenv("BACKOFF_GROWTH", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.BackoffBase != 500*time.Millisecond || cfg.BackoffMax != 30*time.Second || cfg.BackoffGrowth != 2 {
		t.Fatalf("backoff mismatch: %s %s %v", cfg.BackoffBase, cfg.BackoffMax, cfg.BackoffGrowth)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero capacity", env: map[string]string{"QUEUE_CAPACITY": "0"}},
		{name: "base above max", env: map[string]string{"BACKOFF_BASE_SECONDS": "90", "BACKOFF_MAX_SECONDS": "60"}},
		{name: "shrinking growth", env: map[string]string{"BACKOFF_GROWTH": "0.5"}},
		{name: "negative timeout", env: map[string]string{"OPENAI_TIMEOUT_SECONDS": "-1"}},
		{name: "nan growth", env: map[string]string{"BACKOFF_GROWTH": "NaN"}},
		{name: "infinite max", env: map[string]string{"BACKOFF_MAX_SECONDS": "+Inf"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfigTrustProxyHeaders(t *testing.T) {
	t.Setenv("TRUST_PROXY_HEADERS", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TrustProxyHeaders {
		t.Fatal("proxy headers must not be trusted by default")
	}

	t.Setenv("TRUST_PROXY_HEADERS", "true")
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.TrustProxyHeaders {
		t.Fatal("expected TRUST_PROXY_HEADERS=true to be honoured")
	}
}
