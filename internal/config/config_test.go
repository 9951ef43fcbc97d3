package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("base path = %q", cfg.APIBasePath)
	}
	if cfg.Webhook.SignatureHeader != "X-Webhook-Signature" {
		t.Fatalf("signature header = %q", cfg.Webhook.SignatureHeader)
	}
	if cfg.Webhook.Secret != "" {
		t.Fatalf("secret should default to empty (open mode)")
	}
	if cfg.Webhook.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("idempotency ttl = %v", cfg.Webhook.IdempotencyTTL)
	}
	if cfg.Classifier.Model != "gemini-2.0-flash" {
		t.Fatalf("classifier model = %q", cfg.Classifier.Model)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("gin mode = %q", cfg.GinMode)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("API_BASE_PATH", "hooks/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("ENRICHMENT_CALLBACK_BASE_URL", "https://crm.test/api/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" || cfg.Webhook.Secret != "s3cret" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Webhook.IdempotencyTTL != time.Hour {
		t.Fatalf("ttl = %v", cfg.Webhook.IdempotencyTTL)
	}
	if cfg.APIBasePath != "/hooks" {
		t.Fatalf("base path = %q, want normalized /hooks", cfg.APIBasePath)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Webhook.CallbackBaseURL != "https://crm.test/api" {
		t.Fatalf("callback base = %q, trailing slash must be stripped", cfg.Webhook.CallbackBaseURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"LOG_LEVEL", "verbose"},
		{"RATE_BURST", "0"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"IDEMPOTENCY_TTL", "-1h"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s must fail validation", tc.key, tc.val)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api", "/api"},
		{"/api/v1/", "/api/v1"},
		{"  /api  ", "/api"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
