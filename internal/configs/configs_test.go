package configs

import (
	"strings"
	"testing"
	"time"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFrom(envOf(nil))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}

	if cfg.Environment != "development" || !cfg.IsDevelopment() {
		t.Fatalf("environment=%q", cfg.Environment)
	}
	if cfg.Port != 8080 || cfg.HandshakePort != 3001 || cfg.TranslationPort != 3002 {
		t.Fatalf("ports=%d/%d/%d", cfg.Port, cfg.HandshakePort, cfg.TranslationPort)
	}
	if cfg.HandshakeDelay != 2*time.Second || cfg.AudioReadyDelay != time.Second {
		t.Fatalf("delays=%s/%s", cfg.HandshakeDelay, cfg.AudioReadyDelay)
	}
	if cfg.ReaperInterval != 5*time.Minute || cfg.IdleTTL != 30*time.Minute {
		t.Fatalf("reaper=%s ttl=%s", cfg.ReaperInterval, cfg.IdleTTL)
	}
	if cfg.AIProvider != AIProviderStub {
		t.Fatalf("provider=%q, want stub in development without key", cfg.AIProvider)
	}
	if cfg.StorageEnabled() || cfg.HistoryEnabled() {
		t.Fatalf("storage and history must be disabled by default")
	}
}

func TestLoadConfigFrom_ProductionRequiresSecrets(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFrom(envOf(map[string]string{"ENVIRONMENT": "production"}))
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("err=%v, want JWT_SECRET error", err)
	}

	_, err = LoadConfigFrom(envOf(map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "s"}))
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("err=%v, want GEMINI_API_KEY error", err)
	}

	cfg, err := LoadConfigFrom(envOf(map[string]string{
		"ENVIRONMENT":     "production",
		"JWT_SECRET":      "s",
		"GEMINI_API_KEY":  "k",
		"ALLOWED_ORIGINS": " https://a.example , ,https://b.example",
	}))
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.AIProvider != AIProviderGemini {
		t.Fatalf("provider=%q", cfg.AIProvider)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins=%v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigFrom_Validation(t *testing.T) {
	t.Parallel()

	cases := []map[string]string{
		{"PORT": "80"},
		{"PORT": "abc"},
		{"HANDSHAKE_PORT": "3002"},
		{"HANDSHAKE_DELAY": "soon"},
		{"IDLE_TTL": "0s"},
		{"AI_PROVIDER": "carrier-pigeon"},
		{"S3_BUCKET_NAME": "audio"},
	}

	for _, env := range cases {
		if _, err := LoadConfigFrom(envOf(env)); err == nil {
			t.Errorf("env %v: expected error", env)
		}
	}
}
